package bot

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-analyze/charts"

	"gitlab.com/yelinaung/finance-ledger/internal/models"
)

var errNothingToChart = errors.New("no expenses to chart")

// GenerateSpendingChart renders a pie chart of expense totals by category.
// Returns PNG image as bytes.
func GenerateSpendingChart(totals []models.CategoryTotal, period string) ([]byte, error) {
	values := make([]float64, 0, len(totals))
	names := make([]string, 0, len(totals))
	for _, t := range totals {
		if !t.Total.IsPositive() {
			continue
		}
		values = append(values, t.Total.InexactFloat64())
		names = append(names, t.Category.Name)
	}
	if len(values) == 0 {
		return nil, errNothingToChart
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{
			Text: fmt.Sprintf("Spending by Category - %s", period),
		}),
		charts.LegendLabelsOptionFunc(names),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf, nil
}

// generateChartFilename creates filename like "chart_week_2026-01-26.png".
func generateChartFilename(period string, from *time.Time, now time.Time) string {
	switch {
	case period == periodWeek && from != nil:
		return fmt.Sprintf("chart_week_%s.png", from.Format(dateLayout))
	case period == periodMonth && from != nil:
		return fmt.Sprintf("chart_month_%s.png", from.Format("2006-01"))
	default:
		return fmt.Sprintf("chart_%s.png", now.Format(dateLayout))
	}
}
