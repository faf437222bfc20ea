package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/finance-ledger/internal/logger"
	appmodels "gitlab.com/yelinaung/finance-ledger/internal/models"
)

const genericErrorText = "❌ Something went wrong. Please try again."

// escapeHTML escapes the characters Telegram's HTML parse mode reserves.
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// formatGreeting returns a greeting suffix with the user's name.
func formatGreeting(firstName string) string {
	if firstName == "" {
		return ""
	}
	return ", " + escapeHTML(firstName)
}

func (b *Bot) money(amount decimal.Decimal) string {
	return fmt.Sprintf("%s %s", amount.StringFixed(2), b.currency())
}

func (b *Bot) currency() string {
	if b.cfg.DefaultCurrency == "" {
		return appmodels.DefaultCurrency
	}
	return b.cfg.DefaultCurrency
}

func (b *Bot) formatDate(t time.Time) string {
	return t.In(b.cfg.Location()).Format(dateLayout)
}

// errorText turns a ledger error into a reply. Internal errors are logged and
// replaced by a generic message.
func errorText(err error, usage string) string {
	switch appmodels.KindOf(err) {
	case appmodels.KindValidation:
		text := "❌ " + escapeHTML(capitalize(err.Error()))
		if usage != "" {
			text += "\n\nUsage: " + usage
		}
		return text
	case appmodels.KindNotFound:
		return "❌ " + escapeHTML(capitalize(err.Error()))
	case appmodels.KindConflict:
		return "⚠️ " + escapeHTML(capitalize(err.Error()))
	default:
		if errors.Is(err, context.DeadlineExceeded) {
			return "⏱ That took too long. Please try again."
		}
		return genericErrorText
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// reply sends an HTML message to the chat.
func (b *Bot) reply(ctx context.Context, tg TelegramAPI, chatID int64, text string) {
	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Str("chat_hash", logger.HashChatID(chatID)).Msg("Failed to send message")
	}
}

// replyError reports err to the chat. Parse errors from the bot itself are
// treated like validation errors.
func (b *Bot) replyError(ctx context.Context, tg TelegramAPI, chatID int64, op string, err error, usage string) {
	if appmodels.KindOf(err) == appmodels.KindInternal && !errors.Is(err, context.DeadlineExceeded) {
		logger.Log.Error().Err(err).Str("op", op).Str("chat_hash", logger.HashChatID(chatID)).Msg("Ledger command failed")
	} else {
		logger.Log.Debug().Err(err).Str("op", op).Msg("Ledger command rejected")
	}
	b.reply(ctx, tg, chatID, errorText(err, usage))
}

// replyUsage reports a malformed command.
func (b *Bot) replyUsage(ctx context.Context, tg TelegramAPI, chatID int64, err error, usage string) {
	text := "❌ Usage: " + usage
	if err != nil {
		text = "❌ " + escapeHTML(capitalize(err.Error())) + "\n\nUsage: " + usage
	}
	b.reply(ctx, tg, chatID, text)
}

func (b *Bot) formatTransaction(tx *appmodels.Transaction) string {
	var sb strings.Builder
	icon := "💸"
	switch tx.Type {
	case appmodels.TransactionIncome:
		icon = "💰"
	case appmodels.TransactionSaving:
		icon = "🏦"
	}
	fmt.Fprintf(&sb, "%s <b>#%d</b> %s %s", icon, tx.ID, b.formatDate(tx.Date), b.money(tx.Amount))
	switch {
	case tx.Saving != nil:
		fmt.Fprintf(&sb, " → %s", escapeHTML(tx.Saving.Title))
	case tx.Category != nil:
		fmt.Fprintf(&sb, " · %s", escapeHTML(tx.Category.Name))
	}
	if tx.BudgetID != nil {
		fmt.Fprintf(&sb, " [budget #%d]", *tx.BudgetID)
	}
	if tx.Notes != "" {
		fmt.Fprintf(&sb, "\n    <i>%s</i>", escapeHTML(tx.Notes))
	}
	return sb.String()
}

func (b *Bot) formatBudget(budget *appmodels.Budget, now time.Time) string {
	status := "🟢"
	if budget.Status == appmodels.BudgetStatusOver {
		status = "🔴"
	}
	return fmt.Sprintf("%s <b>#%d</b> %s\n    %s / %s (%d%%), %s left\n    %s to %s, %d days remaining",
		status, budget.ID, escapeHTML(budget.Category.Name),
		b.money(budget.CurrentAmount), b.money(budget.AmountLimit), budget.UtilizationPercentage(),
		b.money(budget.RemainingAmount()),
		b.formatDate(budget.StartDate), b.formatDate(budget.EndDate), budget.DaysRemaining(now))
}

func (b *Bot) formatSaving(s *appmodels.Saving, now time.Time) string {
	var status string
	switch s.Status {
	case appmodels.SavingStatusPaused:
		status = "⏸"
	case appmodels.SavingStatusCompleted:
		status = "✅"
	default:
		status = "🎯"
	}
	text := fmt.Sprintf("%s <b>#%d</b> %s\n    %s / %s (%d%%), ends %s",
		status, s.ID, escapeHTML(s.Title),
		b.money(s.CurrentAmount), b.money(s.TargetAmount), s.ProgressPercentage(),
		b.formatDate(s.EndDate))
	if s.Status == appmodels.SavingStatusActive {
		text += fmt.Sprintf("\n    %s per day for %d days", b.money(s.DailySavingsNeeded(now)), s.DaysRemaining(now))
	}
	if s.Notes != "" {
		text += "\n    <i>" + escapeHTML(s.Notes) + "</i>"
	}
	return text
}
