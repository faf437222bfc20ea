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
	appmodels "gitlab.com/yelinaung/finance-ledger/internal/models"
)

const (
	listCallbackPrefix = "list:"

	usageIncome  = "<code>/income &lt;amount&gt; &lt;category&gt; [notes]</code>"
	usageExpense = "<code>/expense &lt;amount&gt; &lt;category&gt; [notes]</code>"
	usageSave    = "<code>/save &lt;amount&gt; &lt;goal id&gt; [notes]</code>"
	usageEdit    = "<code>/edit &lt;id&gt; &lt;amount&gt; [notes]</code> or <code>/edit &lt;id&gt; notes &lt;text&gt;</code>"
	usageDelete  = "<code>/delete &lt;id&gt;</code>"
)

// userCategories returns the user's categories and their names.
func (b *Bot) userCategories(ctx context.Context, userID int64) ([]appmodels.Category, []string, error) {
	categories, err := b.ledger.Categories(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
	}
	return categories, names, nil
}

func findCategory(categories []appmodels.Category, name string) *appmodels.Category {
	for i := range categories {
		if strings.EqualFold(categories[i].Name, name) {
			return &categories[i]
		}
	}
	return nil
}

// handleIncome handles the /income command.
func (b *Bot) handleIncome(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleIncomeCore(ctx, tgBot, update)
}

// handleIncomeCore is the testable implementation of handleIncome.
func (b *Bot) handleIncomeCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	b.handleCategorizedCore(ctx, tg, update, appmodels.TransactionIncome)
}

// handleExpense handles the /expense command.
func (b *Bot) handleExpense(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleExpenseCore(ctx, tgBot, update)
}

// handleExpenseCore is the testable implementation of handleExpense.
func (b *Bot) handleExpenseCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	b.handleCategorizedCore(ctx, tg, update, appmodels.TransactionExpense)
}

// handleCategorizedCore records an income or an expense. An expense is
// attached to the category's budget when exactly one is open right now.
func (b *Bot) handleCategorizedCore(ctx context.Context, tg TelegramAPI, update *models.Update, typ appmodels.TransactionType) {
	chatID, userID, ok := messageIDs(update)
	if !ok {
		return
	}

	usage := usageIncome
	if typ == appmodels.TransactionExpense {
		usage = usageExpense
	}

	categories, names, err := b.userCategories(ctx, userID)
	if err != nil {
		b.replyError(ctx, tg, chatID, string(typ), err, "")
		return
	}

	parsed, err := ParseTransactionArgs(commandArgs(update.Message.Text), names)
	if err != nil {
		b.replyUsage(ctx, tg, chatID, err, usage)
		return
	}
	category := findCategory(categories, parsed.CategoryName)
	if category == nil {
		b.replyUsage(ctx, tg, chatID, fmt.Errorf("unknown category %q", parsed.CategoryName), usage)
		return
	}

	in := ledger.NewTransaction{
		Type:       typ,
		Amount:     parsed.Amount,
		CategoryID: category.ID,
		Notes:      parsed.Notes,
	}
	if typ == appmodels.TransactionExpense {
		budgets, err := b.ledger.InProgressBudgets(ctx, userID, category.ID)
		if err != nil {
			b.replyError(ctx, tg, chatID, string(typ), err, "")
			return
		}
		if len(budgets) == 1 {
			in.BudgetID = &budgets[0].ID
		}
	}

	tx, err := b.ledger.AddTransaction(ctx, userID, in)
	if err != nil {
		b.replyError(ctx, tg, chatID, string(typ), err, usage)
		return
	}

	logger.Log.Info().
		Str("user_hash", logger.HashUserID(userID)).
		Int64("transaction_id", tx.ID).
		Str("type", string(typ)).
		Msg("Transaction recorded")

	b.reply(ctx, tg, chatID, "✅ Recorded\n\n"+b.formatTransaction(tx)+b.unreadHint(ctx, userID))
}

// handleSave handles the /save command.
func (b *Bot) handleSave(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleSaveCore(ctx, tgBot, update)
}

// handleSaveCore is the testable implementation of handleSave.
func (b *Bot) handleSaveCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageIDs(update)
	if !ok {
		return
	}

	parsed, err := ParseSavingArgs(commandArgs(update.Message.Text))
	if err != nil {
		b.replyUsage(ctx, tg, chatID, err, usageSave)
		return
	}

	tx, err := b.ledger.AddTransaction(ctx, userID, ledger.NewTransaction{
		Type:     appmodels.TransactionSaving,
		Amount:   parsed.Amount,
		SavingID: parsed.SavingID,
		Notes:    parsed.Notes,
	})
	if err != nil {
		b.replyError(ctx, tg, chatID, "save", err, usageSave)
		return
	}

	b.reply(ctx, tg, chatID, "✅ Saved\n\n"+b.formatTransaction(tx)+b.unreadHint(ctx, userID))
}

// handleList handles the /list command.
func (b *Bot) handleList(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleListCore(ctx, tgBot, update)
}

// handleListCore is the testable implementation of handleList.
func (b *Bot) handleListCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageIDs(update)
	if !ok {
		return
	}

	page := 1
	if arg := commandArgs(update.Message.Text); arg != "" {
		if n, err := strconv.Atoi(arg); err == nil && n > 0 {
			page = n
		}
	}

	result, err := b.ledger.ListTransactions(ctx, userID, page)
	if err != nil {
		b.replyError(ctx, tg, chatID, "list", err, "")
		return
	}

	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      b.formatTransactionPage(result),
		ParseMode: models.ParseModeHTML,
	}
	if kb := pageKeyboard(result.Page, result.Pages); kb != nil {
		params.ReplyMarkup = kb
	}
	if _, err := tg.SendMessage(ctx, params); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send /list response")
	}
}

// handleListCallback handles the list pagination buttons.
func (b *Bot) handleListCallback(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleListCallbackCore(ctx, tgBot, update)
}

// handleListCallbackCore is the testable implementation of handleListCallback.
func (b *Bot) handleListCallbackCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}

	_, _ = tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: update.CallbackQuery.ID,
	})

	msg := update.CallbackQuery.Message.Message
	if msg == nil {
		return
	}
	page, err := strconv.Atoi(strings.TrimPrefix(update.CallbackQuery.Data, listCallbackPrefix))
	if err != nil || page < 1 {
		return
	}

	result, err := b.ledger.ListTransactions(ctx, update.CallbackQuery.From.ID, page)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to list transactions for callback")
		return
	}

	params := &bot.EditMessageTextParams{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Text:      b.formatTransactionPage(result),
		ParseMode: models.ParseModeHTML,
	}
	if kb := pageKeyboard(result.Page, result.Pages); kb != nil {
		params.ReplyMarkup = kb
	}
	_, _ = tg.EditMessageText(ctx, params)
}

func (b *Bot) formatTransactionPage(result ledger.Page[appmodels.Transaction]) string {
	if result.Total == 0 {
		return "📋 No transactions yet. Start with <code>/income 100 Salary</code>."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 <b>Transactions</b> (page %d of %d, %d total)\n\n", result.Page, max(result.Pages, 1), result.Total)
	for i := range result.Items {
		sb.WriteString(b.formatTransaction(&result.Items[i]))
		sb.WriteString("\n")
	}
	return sb.String()
}

// pageKeyboard returns previous/next buttons, or nil when there is one page.
func pageKeyboard(page, pages int) *models.InlineKeyboardMarkup {
	var row []models.InlineKeyboardButton
	if page > 1 {
		row = append(row, models.InlineKeyboardButton{
			Text: "◀️ Prev", CallbackData: fmt.Sprintf("%s%d", listCallbackPrefix, page-1),
		})
	}
	if page < pages {
		row = append(row, models.InlineKeyboardButton{
			Text: "Next ▶️", CallbackData: fmt.Sprintf("%s%d", listCallbackPrefix, page+1),
		})
	}
	if len(row) == 0 {
		return nil
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{row}}
}

// handleEdit handles the /edit command.
func (b *Bot) handleEdit(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleEditCore(ctx, tgBot, update)
}

// handleEditCore is the testable implementation of handleEdit.
func (b *Bot) handleEditCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageIDs(update)
	if !ok {
		return
	}

	in, id, err := parseTransactionEdit(commandArgs(update.Message.Text))
	if err != nil {
		b.replyUsage(ctx, tg, chatID, err, usageEdit)
		return
	}

	tx, err := b.ledger.UpdateTransaction(ctx, userID, id, in)
	if err != nil {
		b.replyError(ctx, tg, chatID, "edit", err, usageEdit)
		return
	}

	b.reply(ctx, tg, chatID, "✏️ Updated\n\n"+b.formatTransaction(tx)+b.unreadHint(ctx, userID))
}

// parseTransactionEdit parses "<id> <amount> [notes]" or "<id> notes <text>".
func parseTransactionEdit(args string) (ledger.TransactionUpdate, int64, error) {
	var in ledger.TransactionUpdate
	idStr, rest := cutWord(args)
	if idStr == "" || rest == "" {
		return in, 0, fmt.Errorf("id and new value are required")
	}
	id, err := parseID(idStr)
	if err != nil {
		return in, 0, err
	}

	first, tail := cutWord(rest)
	if strings.EqualFold(first, "notes") {
		in.Notes = &tail
		return in, id, nil
	}

	amount, err := parseAmount(first)
	if err != nil {
		return in, 0, err
	}
	in.Amount = &amount
	if tail != "" {
		in.Notes = &tail
	}
	return in, id, nil
}

// handleDelete handles the /delete command.
func (b *Bot) handleDelete(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleDeleteCore(ctx, tgBot, update)
}

// handleDeleteCore is the testable implementation of handleDelete.
func (b *Bot) handleDeleteCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageIDs(update)
	if !ok {
		return
	}

	id, err := parseID(commandArgs(update.Message.Text))
	if err != nil {
		b.replyUsage(ctx, tg, chatID, err, usageDelete)
		return
	}

	if err := b.ledger.DeleteTransaction(ctx, userID, id); err != nil {
		b.replyError(ctx, tg, chatID, "delete", err, usageDelete)
		return
	}

	logger.Log.Info().
		Str("user_hash", logger.HashUserID(userID)).
		Int64("transaction_id", id).
		Msg("Transaction deleted")

	b.reply(ctx, tg, chatID, fmt.Sprintf("🗑 Transaction #%d deleted.", id)+b.unreadHint(ctx, userID))
}
