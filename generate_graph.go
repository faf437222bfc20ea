//go:build ignore
// +build ignore

package main

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/finance-ledger/internal/bot"
	"gitlab.com/yelinaung/finance-ledger/internal/models"
)

func main() {
	totals := []models.CategoryTotal{
		{Category: models.CategorySnapshot{ID: 1, Name: "Food - Grocery"}, Total: decimal.NewFromFloat(150.50), Count: 6},
		{Category: models.CategorySnapshot{ID: 2, Name: "Food - Dining Out"}, Total: decimal.NewFromFloat(130.50), Count: 9},
		{Category: models.CategorySnapshot{ID: 3, Name: "Transportation"}, Total: decimal.NewFromFloat(60), Count: 12},
		{Category: models.CategorySnapshot{ID: 4, Name: "Entertainment"}, Total: decimal.NewFromFloat(25), Count: 1},
		{Category: models.CategorySnapshot{ID: 5, Name: "Utilities"}, Total: decimal.NewFromFloat(120), Count: 2},
	}

	chartData, err := bot.GenerateSpendingChart(totals, "January 2026")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile("graph.png", chartData, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✓ Created graph.png - Example spending breakdown chart")
}
