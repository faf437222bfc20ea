package bot

import (
	"bytes"
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

const (
	usageSummary = "<code>/summary [week|month|all]</code>"
	usageChart   = "<code>/chart [week|month|all]</code>"
	usageReport  = "<code>/report [week|month|all]</code>"
)

// epoch is the lower bound used when a report covers all time.
var epoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// reportPeriod resolves the period argument against the ledger clock in the
// configured time zone.
func (b *Bot) reportPeriod(text string) (period string, from, to *time.Time, label string, err error) {
	period = strings.ToLower(commandArgs(text))
	if period == "" {
		period = periodMonth
	}
	from, to, label, err = periodRange(period, b.ledger.Now().In(b.cfg.Location()))
	return period, from, to, label, err
}

// handleSummary handles the /summary command.
func (b *Bot) handleSummary(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleSummaryCore(ctx, tgBot, update)
}

// handleSummaryCore is the testable implementation of handleSummary.
func (b *Bot) handleSummaryCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageIDs(update)
	if !ok {
		return
	}

	_, from, to, label, err := b.reportPeriod(update.Message.Text)
	if err != nil {
		b.replyUsage(ctx, tg, chatID, err, usageSummary)
		return
	}

	totals, err := b.ledger.Summary(ctx, userID, from, to)
	if err != nil {
		b.replyError(ctx, tg, chatID, "summary", err, "")
		return
	}

	byType := make(map[appmodels.TransactionType]appmodels.TypeTotal, len(totals))
	for _, t := range totals {
		byType[t.Type] = t
	}
	income := byType[appmodels.TransactionIncome]
	expense := byType[appmodels.TransactionExpense]
	saving := byType[appmodels.TransactionSaving]

	var sb strings.Builder
	fmt.Fprintf(&sb, "📈 <b>Summary for %s</b>\n\n", escapeHTML(label))
	fmt.Fprintf(&sb, "💰 Income: %s (%d)\n", b.money(income.Total), income.Count)
	fmt.Fprintf(&sb, "💸 Expenses: %s (%d)\n", b.money(expense.Total), expense.Count)
	fmt.Fprintf(&sb, "🏦 Saved: %s (%d)\n", b.money(saving.Total), saving.Count)
	fmt.Fprintf(&sb, "\nNet cash flow: <b>%s</b>", b.money(income.Total.Sub(expense.Total)))
	b.reply(ctx, tg, chatID, sb.String())
}

// handleChart handles the /chart command.
func (b *Bot) handleChart(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleChartCore(ctx, tgBot, update)
}

// handleChartCore is the testable implementation of handleChart.
func (b *Bot) handleChartCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageIDs(update)
	if !ok {
		return
	}

	period, from, to, label, err := b.reportPeriod(update.Message.Text)
	if err != nil {
		b.replyUsage(ctx, tg, chatID, err, usageChart)
		return
	}

	totals, err := b.ledger.CategorySpending(ctx, userID, from, to)
	if err != nil {
		b.replyError(ctx, tg, chatID, "chart", err, "")
		return
	}

	chartData, err := GenerateSpendingChart(totals, label)
	if errors.Is(err, errNothingToChart) {
		b.reply(ctx, tg, chatID, fmt.Sprintf("📭 No expenses for %s.", escapeHTML(label)))
		return
	}
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to generate chart")
		b.reply(ctx, tg, chatID, "❌ Failed to generate chart. Please try again.")
		return
	}

	total := decimal.Zero
	for _, t := range totals {
		total = total.Add(t.Total)
	}

	filename := generateChartFilename(period, from, b.ledger.Now().In(b.cfg.Location()))
	caption := fmt.Sprintf("📊 Spending for %s\nTotal: <b>%s</b>", escapeHTML(label), b.money(total))
	_, err = tg.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:    chatID,
		Document:  &models.InputFileUpload{Filename: filename, Data: bytes.NewReader(chartData)},
		Caption:   caption,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send chart document")
		b.reply(ctx, tg, chatID, "❌ Failed to send chart. Please try again.")
	}
}

// handleReport handles the /report command.
func (b *Bot) handleReport(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleReportCore(ctx, tgBot, update)
}

// handleReportCore is the testable implementation of handleReport.
func (b *Bot) handleReportCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	chatID, userID, ok := messageIDs(update)
	if !ok {
		return
	}

	period, from, to, label, err := b.reportPeriod(update.Message.Text)
	if err != nil {
		b.replyUsage(ctx, tg, chatID, err, usageReport)
		return
	}

	now := b.ledger.Now().In(b.cfg.Location())
	start, end := epoch, now
	if from != nil && to != nil {
		start, end = *from, *to
	}

	transactions, err := b.ledger.TransactionsBetween(ctx, userID, start, end)
	if err != nil {
		b.replyError(ctx, tg, chatID, "report", err, "")
		return
	}
	if len(transactions) == 0 {
		b.reply(ctx, tg, chatID, fmt.Sprintf("📭 No transactions for %s.", escapeHTML(label)))
		return
	}

	csvData, err := GenerateTransactionsCSV(transactions, b.currency(), b.cfg.Location())
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to generate CSV")
		b.reply(ctx, tg, chatID, "❌ Failed to generate report. Please try again.")
		return
	}

	filename := generateReportFilename(period, from, now)
	caption := fmt.Sprintf("📄 %d transaction(s) for %s", len(transactions), escapeHTML(label))
	_, err = tg.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:    chatID,
		Document:  &models.InputFileUpload{Filename: filename, Data: bytes.NewReader(csvData)},
		Caption:   caption,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send CSV document")
		b.reply(ctx, tg, chatID, "❌ Failed to send report. Please try again.")
	}
}
