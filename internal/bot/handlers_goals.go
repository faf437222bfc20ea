package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"gitlab.com/yelinaung/finance-ledger/internal/ledger"
	"gitlab.com/yelinaung/finance-ledger/internal/logger"
)

const (
	usageGoal       = "<code>/goal &lt;target&gt; &lt;end&gt; &lt;title&gt; [| notes]</code>"
	usageEditGoal   = "<code>/editgoal &lt;id&gt; target|end|notes &lt;value&gt;</code>"
	usageDeleteGoal = "<code>/delgoal &lt;id&gt;</code>"
	usagePause      = "<code>/pause &lt;id&gt;</code>"
	usageResume     = "<code>/resume &lt;id&gt; &lt;end&gt;</code>"
)

// handleGoal handles the /goal command.
func (b *Bot) handleGoal(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleGoalCore(ctx, tgBot, update)
}

// handleGoalCore is the testable implementation of handleGoal.
func (b *Bot) handleGoalCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageIDs(update)
	if !ok {
		return
	}

	parsed, err := ParseGoalArgs(commandArgs(update.Message.Text), b.cfg.Location())
	if err != nil {
		b.replyUsage(ctx, tg, chatID, err, usageGoal)
		return
	}

	saving, err := b.ledger.AddSaving(ctx, userID, ledger.NewSaving{
		Title:        parsed.Title,
		TargetAmount: parsed.Target,
		EndDate:      parsed.End,
		Notes:        parsed.Notes,
	})
	if err != nil {
		b.replyError(ctx, tg, chatID, "goal", err, usageGoal)
		return
	}

	logger.Log.Info().Str("user_hash", logger.HashUserID(userID)).Int64("saving_id", saving.ID).Msg("Saving goal created")
	b.reply(ctx, tg, chatID, fmt.Sprintf("✅ Goal created\n\n%s\n\nContribute with <code>/save &lt;amount&gt; %d</code>",
		b.formatSaving(saving, b.ledger.Now()), saving.ID))
}

// handleGoals handles the /goals command.
func (b *Bot) handleGoals(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleGoalsCore(ctx, tgBot, update)
}

// handleGoalsCore is the testable implementation of handleGoals.
func (b *Bot) handleGoalsCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageIDs(update)
	if !ok {
		return
	}

	result, err := b.ledger.ListSavings(ctx, userID, pageArg(update.Message.Text))
	if err != nil {
		b.replyError(ctx, tg, chatID, "goals", err, "")
		return
	}
	if result.Total == 0 {
		b.reply(ctx, tg, chatID, "🎯 No saving goals yet. Create one with "+usageGoal)
		return
	}

	now := b.ledger.Now()
	var sb strings.Builder
	fmt.Fprintf(&sb, "🎯 <b>Saving Goals</b> (page %d of %d)\n\n", result.Page, max(result.Pages, 1))
	for i := range result.Items {
		sb.WriteString(b.formatSaving(&result.Items[i], now))
		sb.WriteString("\n\n")
	}
	if result.Page < result.Pages {
		fmt.Fprintf(&sb, "More: <code>/goals %d</code>", result.Page+1)
	}
	b.reply(ctx, tg, chatID, strings.TrimSpace(sb.String()))
}

// handleEditGoal handles the /editgoal command.
func (b *Bot) handleEditGoal(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleEditGoalCore(ctx, tgBot, update)
}

// handleEditGoalCore is the testable implementation of handleEditGoal.
func (b *Bot) handleEditGoalCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageIDs(update)
	if !ok {
		return
	}

	edit, err := ParseEditArgs(commandArgs(update.Message.Text), "target", "end", "notes")
	if err != nil {
		b.replyUsage(ctx, tg, chatID, err, usageEditGoal)
		return
	}

	var in ledger.SavingUpdate
	switch edit.Field {
	case "target":
		target, err := parseAmount(edit.Value)
		if err != nil {
			b.replyUsage(ctx, tg, chatID, err, usageEditGoal)
			return
		}
		in.TargetAmount = &target
	case "end":
		end, err := parseEndDate(edit.Value, b.cfg.Location())
		if err != nil {
			b.replyUsage(ctx, tg, chatID, err, usageEditGoal)
			return
		}
		in.EndDate = &end
	case "notes":
		in.Notes = &edit.Value
	}

	saving, err := b.ledger.UpdateSaving(ctx, userID, edit.ID, in)
	if err != nil {
		b.replyError(ctx, tg, chatID, "editgoal", err, usageEditGoal)
		return
	}
	b.reply(ctx, tg, chatID, "✏️ Goal updated\n\n"+b.formatSaving(saving, b.ledger.Now())+b.unreadHint(ctx, userID))
}

// handleDeleteGoal handles the /delgoal command.
func (b *Bot) handleDeleteGoal(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleDeleteGoalCore(ctx, tgBot, update)
}

// handleDeleteGoalCore is the testable implementation of handleDeleteGoal.
// Contributions are refunded to the balance together with the goal.
func (b *Bot) handleDeleteGoalCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageIDs(update)
	if !ok {
		return
	}

	id, err := parseID(commandArgs(update.Message.Text))
	if err != nil {
		b.replyUsage(ctx, tg, chatID, err, usageDeleteGoal)
		return
	}
	saving, err := b.ledger.GetSaving(ctx, userID, id)
	if err != nil {
		b.replyError(ctx, tg, chatID, "delgoal", err, "")
		return
	}
	if err := b.ledger.DeleteSaving(ctx, userID, id); err != nil {
		b.replyError(ctx, tg, chatID, "delgoal", err, "")
		return
	}
	b.reply(ctx, tg, chatID, fmt.Sprintf("🗑 Goal <b>%s</b> deleted. %s returned to your balance.",
		escapeHTML(saving.Title), b.money(saving.CurrentAmount)))
}

// handlePause handles the /pause command.
func (b *Bot) handlePause(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handlePauseCore(ctx, tgBot, update)
}

// handlePauseCore is the testable implementation of handlePause.
func (b *Bot) handlePauseCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageIDs(update)
	if !ok {
		return
	}

	id, err := parseID(commandArgs(update.Message.Text))
	if err != nil {
		b.replyUsage(ctx, tg, chatID, err, usagePause)
		return
	}
	saving, err := b.ledger.PauseSaving(ctx, userID, id)
	if err != nil {
		b.replyError(ctx, tg, chatID, "pause", err, "")
		return
	}
	b.reply(ctx, tg, chatID, "⏸ Goal paused\n\n"+b.formatSaving(saving, b.ledger.Now()))
}

// handleResume handles the /resume command.
func (b *Bot) handleResume(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleResumeCore(ctx, tgBot, update)
}

// handleResumeCore is the testable implementation of handleResume.
func (b *Bot) handleResumeCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageIDs(update)
	if !ok {
		return
	}

	idStr, endStr := cutWord(commandArgs(update.Message.Text))
	id, err := parseID(idStr)
	if err != nil {
		b.replyUsage(ctx, tg, chatID, err, usageResume)
		return
	}
	end, err := parseEndDate(endStr, b.cfg.Location())
	if err != nil {
		b.replyUsage(ctx, tg, chatID, err, usageResume)
		return
	}

	saving, err := b.ledger.ResumeSaving(ctx, userID, id, end)
	if err != nil {
		b.replyError(ctx, tg, chatID, "resume", err, usageResume)
		return
	}
	b.reply(ctx, tg, chatID, "▶️ Goal resumed\n\n"+b.formatSaving(saving, b.ledger.Now()))
}
