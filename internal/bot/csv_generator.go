package bot

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"gitlab.com/yelinaung/finance-ledger/internal/models"
)

// GenerateTransactionsCSV writes transactions as CSV, one row per
// transaction, with dates rendered in loc.
func GenerateTransactionsCSV(transactions []models.Transaction, currency string, loc *time.Location) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"ID", "Date", "Type", "Amount", "Currency", "Category", "Goal", "Budget", "Notes"}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range transactions {
		tx := &transactions[i]
		var category, goal, budget string
		if tx.Category != nil {
			category = tx.Category.Name
		}
		if tx.Saving != nil {
			goal = tx.Saving.Title
		}
		if tx.BudgetID != nil {
			budget = strconv.FormatInt(*tx.BudgetID, 10)
		}

		row := []string{
			strconv.FormatInt(tx.ID, 10),
			tx.Date.In(loc).Format("2006-01-02 15:04:05"),
			string(tx.Type),
			tx.Amount.StringFixed(2),
			currency,
			category,
			goal,
			budget,
			tx.Notes,
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// generateReportFilename creates a descriptive filename for the CSV report.
func generateReportFilename(period string, from *time.Time, now time.Time) string {
	switch {
	case period == periodWeek && from != nil:
		return fmt.Sprintf("transactions_week_%s.csv", from.Format(dateLayout))
	case period == periodMonth && from != nil:
		return fmt.Sprintf("transactions_month_%s.csv", from.Format("2006-01"))
	default:
		return fmt.Sprintf("transactions_%s.csv", now.Format(dateLayout))
	}
}
