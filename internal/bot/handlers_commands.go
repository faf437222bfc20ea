package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"gitlab.com/yelinaung/finance-ledger/internal/logger"
)

const readAllCallback = "notif:readall"

// messageIDs returns the chat and sender of a message update.
func messageIDs(update *models.Update) (chatID, userID int64, ok bool) {
	if update.Message == nil || update.Message.From == nil {
		return 0, 0, false
	}
	return update.Message.Chat.ID, update.Message.From.ID, true
}

// handleStart handles the /start command.
func (b *Bot) handleStart(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleStartCore(ctx, tgBot, update)
}

// handleStartCore is the testable implementation of handleStart.
func (b *Bot) handleStartCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	firstName := ""
	if update.Message.From != nil {
		firstName = update.Message.From.FirstName
	}

	text := fmt.Sprintf(`👋 Welcome%s!

I keep your balance, savings goals and budgets in one ledger.

<b>Quick Start:</b>
• Record income: <code>/income 3000 Salary</code>
• Record spending: <code>/expense 12.50 Food - Dining Out lunch</code>
• Set a goal: <code>/goal 1000 2025-12-31 Holiday</code>
• Check where you stand: /balance

Use /help to see all available commands.`,
		formatGreeting(firstName))

	logger.Log.Debug().Str("chat_hash", logger.HashChatID(update.Message.Chat.ID)).Msg("Sending /start response")
	b.reply(ctx, tg, update.Message.Chat.ID, text)
}

const helpText = `📚 <b>Available Commands</b>

<b>Transactions:</b>
• <code>/income &lt;amount&gt; &lt;category&gt; [notes]</code> - Record income
• <code>/expense &lt;amount&gt; &lt;category&gt; [notes]</code> - Record an expense
• <code>/save &lt;amount&gt; &lt;goal id&gt; [notes]</code> - Move money into a goal
• <code>/list</code> - Show recent transactions
• <code>/edit &lt;id&gt; &lt;amount&gt; [notes]</code> - Change an amount
• <code>/edit &lt;id&gt; notes &lt;text&gt;</code> - Change notes
• <code>/delete &lt;id&gt;</code> - Delete a transaction

<b>Budgets:</b>
• <code>/budget &lt;limit&gt; &lt;start&gt; &lt;end&gt; &lt;category&gt;</code> - Create a budget
• <code>/budgets [page]</code> - List budgets
• <code>/editbudget &lt;id&gt; limit|end|category &lt;value&gt;</code> - Change a budget
• <code>/delbudget &lt;id&gt;</code> - Delete a budget

<b>Saving Goals:</b>
• <code>/goal &lt;target&gt; &lt;end&gt; &lt;title&gt; [| notes]</code> - Create a goal
• <code>/goals [page]</code> - List goals
• <code>/editgoal &lt;id&gt; target|end|notes &lt;value&gt;</code> - Change a goal
• <code>/pause &lt;id&gt;</code> and <code>/resume &lt;id&gt; &lt;end&gt;</code> - Pause or resume
• <code>/delgoal &lt;id&gt;</code> - Delete a goal and refund it

<b>Reports:</b>
• <code>/balance</code> - Balance and savings
• <code>/summary [week|month|all]</code> - Totals by type
• <code>/chart [week|month|all]</code> - Spending by category
• <code>/report [week|month]</code> - CSV export
• <code>/notifications</code> - Alerts about budgets and goals

<b>Categories:</b>
• <code>/categories</code> - List all categories
• <code>/addcategory &lt;name&gt;</code> - Create a new category
• <code>/renamecategory Old -&gt; New</code> - Rename a category
• <code>/deletecategory &lt;name&gt;</code> - Delete an unused category

Dates are written as <code>2025-01-31</code>.`

// handleHelp handles the /help command.
func (b *Bot) handleHelp(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleHelpCore(ctx, tgBot, update)
}

// handleHelpCore is the testable implementation of handleHelp.
func (b *Bot) handleHelpCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	b.reply(ctx, tg, update.Message.Chat.ID, helpText)
}

// handleBalance handles the /balance command.
func (b *Bot) handleBalance(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleBalanceCore(ctx, tgBot, update)
}

// handleBalanceCore is the testable implementation of handleBalance.
func (b *Bot) handleBalanceCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageIDs(update)
	if !ok {
		return
	}

	user, err := b.ledger.Account(ctx, userID)
	if err != nil {
		b.replyError(ctx, tg, chatID, "balance", err, "")
		return
	}

	unread := 0
	for _, n := range user.Account.Notifications {
		if !n.Read {
			unread++
		}
	}

	var sb strings.Builder
	sb.WriteString("💼 <b>Your Account</b>\n\n")
	fmt.Fprintf(&sb, "Balance: <b>%s</b>\n", b.money(user.Account.CurrentBalance))
	fmt.Fprintf(&sb, "Savings: <b>%s</b>\n", b.money(user.Account.TotalSavings))
	fmt.Fprintf(&sb, "Net worth: <b>%s</b>", b.money(user.Account.Net()))
	if unread > 0 {
		fmt.Fprintf(&sb, "\n\n🔔 %d unread notification(s), see /notifications", unread)
	}
	b.reply(ctx, tg, chatID, sb.String())
}

// handleNotifications handles the /notifications command. "/notifications
// read" marks everything as read, "/notifications read <id>" marks one.
func (b *Bot) handleNotifications(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleNotificationsCore(ctx, tgBot, update)
}

// handleNotificationsCore is the testable implementation of handleNotifications.
func (b *Bot) handleNotificationsCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageIDs(update)
	if !ok {
		return
	}

	action, rest := cutWord(commandArgs(update.Message.Text))
	if strings.EqualFold(action, "read") {
		if rest == "" {
			n, err := b.ledger.MarkAllNotificationsRead(ctx, userID)
			if err != nil {
				b.replyError(ctx, tg, chatID, "notifications", err, "")
				return
			}
			b.reply(ctx, tg, chatID, fmt.Sprintf("✅ Marked %d notification(s) as read.", n))
			return
		}
		id, err := parseID(rest)
		if err != nil {
			b.replyUsage(ctx, tg, chatID, err, "<code>/notifications read [id]</code>")
			return
		}
		if err := b.ledger.MarkNotificationRead(ctx, userID, id); err != nil {
			b.replyError(ctx, tg, chatID, "notifications", err, "")
			return
		}
		b.reply(ctx, tg, chatID, "✅ Notification marked as read.")
		return
	}

	notifications, unread, err := b.ledger.Notifications(ctx, userID)
	if err != nil {
		b.replyError(ctx, tg, chatID, "notifications", err, "")
		return
	}
	if len(notifications) == 0 {
		b.reply(ctx, tg, chatID, "🔕 No notifications yet.")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🔔 <b>Notifications</b> (%d unread)\n\n", unread)
	for _, n := range notifications {
		marker := "•"
		if !n.Read {
			marker = "🆕"
		}
		fmt.Fprintf(&sb, "%s <code>#%d</code> %s\n    <i>%s</i>\n", marker, n.ID, escapeHTML(n.Message), b.formatDate(n.Date))
	}

	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      sb.String(),
		ParseMode: models.ParseModeHTML,
	}
	if unread > 0 {
		params.ReplyMarkup = &models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{
				{{Text: "✅ Mark all as read", CallbackData: readAllCallback}},
			},
		}
	}
	if _, err := tg.SendMessage(ctx, params); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send /notifications response")
	}
}

// handleReadAllCallback handles the "mark all as read" button.
func (b *Bot) handleReadAllCallback(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleReadAllCallbackCore(ctx, tgBot, update)
}

// handleReadAllCallbackCore is the testable implementation of handleReadAllCallback.
func (b *Bot) handleReadAllCallbackCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}

	n, err := b.ledger.MarkAllNotificationsRead(ctx, update.CallbackQuery.From.ID)
	text := fmt.Sprintf("Marked %d as read", n)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to mark notifications read")
		text = "Failed, please try again"
	}
	_, _ = tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: update.CallbackQuery.ID,
		Text:            text,
	})

	msg := update.CallbackQuery.Message.Message
	if err != nil || msg == nil {
		return
	}
	_, _ = tg.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Text:      fmt.Sprintf("✅ Marked %d notification(s) as read.", n),
	})
}

// unreadHint returns a footer pointing at unread notifications, if any.
func (b *Bot) unreadHint(ctx context.Context, userID int64) string {
	_, unread, err := b.ledger.Notifications(ctx, userID)
	if err != nil || unread == 0 {
		return ""
	}
	return fmt.Sprintf("\n\n🔔 %d unread notification(s), see /notifications", unread)
}
