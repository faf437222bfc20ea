package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"gitlab.com/yelinaung/finance-ledger/internal/ledger"
	"gitlab.com/yelinaung/finance-ledger/internal/logger"
)

const (
	usageBudget       = "<code>/budget &lt;limit&gt; &lt;start&gt; &lt;end&gt; &lt;category&gt;</code>"
	usageEditBudget   = "<code>/editbudget &lt;id&gt; limit|end|category &lt;value&gt;</code>"
	usageDeleteBudget = "<code>/delbudget &lt;id&gt;</code>"
)

// pageArg parses an optional page number argument.
func pageArg(text string) int {
	if n, err := strconv.Atoi(commandArgs(text)); err == nil && n > 0 {
		return n
	}
	return 1
}

// handleBudget handles the /budget command.
func (b *Bot) handleBudget(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleBudgetCore(ctx, tgBot, update)
}

// handleBudgetCore is the testable implementation of handleBudget.
func (b *Bot) handleBudgetCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageIDs(update)
	if !ok {
		return
	}

	categories, names, err := b.userCategories(ctx, userID)
	if err != nil {
		b.replyError(ctx, tg, chatID, "budget", err, "")
		return
	}
	parsed, err := ParseBudgetArgs(commandArgs(update.Message.Text), names, b.cfg.Location())
	if err != nil {
		b.replyUsage(ctx, tg, chatID, err, usageBudget)
		return
	}
	category := findCategory(categories, parsed.CategoryName)
	if category == nil {
		b.replyUsage(ctx, tg, chatID, fmt.Errorf("unknown category %q", parsed.CategoryName), usageBudget)
		return
	}

	budget, err := b.ledger.AddBudget(ctx, userID, ledger.NewBudget{
		CategoryID:  category.ID,
		AmountLimit: parsed.Limit,
		StartDate:   parsed.Start,
		EndDate:     parsed.End,
	})
	if err != nil {
		b.replyError(ctx, tg, chatID, "budget", err, usageBudget)
		return
	}

	logger.Log.Info().Str("user_hash", logger.HashUserID(userID)).Int64("budget_id", budget.ID).Msg("Budget created")
	b.reply(ctx, tg, chatID, "✅ Budget created\n\n"+b.formatBudget(budget, b.ledger.Now())+b.unreadHint(ctx, userID))
}

// handleBudgets handles the /budgets command.
func (b *Bot) handleBudgets(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleBudgetsCore(ctx, tgBot, update)
}

// handleBudgetsCore is the testable implementation of handleBudgets.
func (b *Bot) handleBudgetsCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageIDs(update)
	if !ok {
		return
	}

	result, err := b.ledger.ListBudgets(ctx, userID, pageArg(update.Message.Text))
	if err != nil {
		b.replyError(ctx, tg, chatID, "budgets", err, "")
		return
	}
	if result.Total == 0 {
		b.reply(ctx, tg, chatID, "📊 No budgets yet. Create one with "+usageBudget)
		return
	}

	now := b.ledger.Now()
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 <b>Budgets</b> (page %d of %d)\n\n", result.Page, max(result.Pages, 1))
	for i := range result.Items {
		sb.WriteString(b.formatBudget(&result.Items[i], now))
		sb.WriteString("\n\n")
	}
	if result.Page < result.Pages {
		fmt.Fprintf(&sb, "More: <code>/budgets %d</code>", result.Page+1)
	}
	b.reply(ctx, tg, chatID, strings.TrimSpace(sb.String()))
}

// handleEditBudget handles the /editbudget command.
func (b *Bot) handleEditBudget(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleEditBudgetCore(ctx, tgBot, update)
}

// handleEditBudgetCore is the testable implementation of handleEditBudget.
func (b *Bot) handleEditBudgetCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageIDs(update)
	if !ok {
		return
	}

	edit, err := ParseEditArgs(commandArgs(update.Message.Text), "limit", "end", "category")
	if err != nil {
		b.replyUsage(ctx, tg, chatID, err, usageEditBudget)
		return
	}

	var in ledger.BudgetUpdate
	switch edit.Field {
	case "limit":
		limit, err := parseAmount(edit.Value)
		if err != nil {
			b.replyUsage(ctx, tg, chatID, err, usageEditBudget)
			return
		}
		in.AmountLimit = &limit
	case "end":
		end, err := parseEndDate(edit.Value, b.cfg.Location())
		if err != nil {
			b.replyUsage(ctx, tg, chatID, err, usageEditBudget)
			return
		}
		in.EndDate = &end
	case "category":
		cat, err := b.ledger.CategoryByName(ctx, userID, edit.Value)
		if err != nil {
			b.replyError(ctx, tg, chatID, "editbudget", err, "")
			return
		}
		in.CategoryID = &cat.ID
	}

	budget, err := b.ledger.UpdateBudget(ctx, userID, edit.ID, in)
	if err != nil {
		b.replyError(ctx, tg, chatID, "editbudget", err, usageEditBudget)
		return
	}
	b.reply(ctx, tg, chatID, "✏️ Budget updated\n\n"+b.formatBudget(budget, b.ledger.Now())+b.unreadHint(ctx, userID))
}

// handleDeleteBudget handles the /delbudget command.
func (b *Bot) handleDeleteBudget(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleDeleteBudgetCore(ctx, tgBot, update)
}

// handleDeleteBudgetCore is the testable implementation of handleDeleteBudget.
func (b *Bot) handleDeleteBudgetCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageIDs(update)
	if !ok {
		return
	}

	id, err := parseID(commandArgs(update.Message.Text))
	if err != nil {
		b.replyUsage(ctx, tg, chatID, err, usageDeleteBudget)
		return
	}
	if err := b.ledger.DeleteBudget(ctx, userID, id); err != nil {
		b.replyError(ctx, tg, chatID, "delbudget", err, "")
		return
	}
	b.reply(ctx, tg, chatID, fmt.Sprintf("🗑 Budget #%d deleted. Its expenses are kept.", id))
}
