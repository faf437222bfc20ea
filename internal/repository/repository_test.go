package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/finance-ledger/internal/database"
	"gitlab.com/yelinaung/finance-ledger/internal/models"
)

var (
	jan1  = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan15 = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	jan31 = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	ctx          context.Context
	db           database.PGXDB
	users        *UserRepository
	categories   *CategoryRepository
	budgets      *BudgetRepository
	savings      *SavingRepository
	transactions *TransactionRepository
	userID       int64
	food         *models.Category
}

func setup(t *testing.T, userID int64) *fixture {
	t.Helper()

	tx := database.TestTx(t)
	f := &fixture{
		ctx:          context.Background(),
		db:           tx,
		users:        NewUserRepository(tx),
		categories:   NewCategoryRepository(tx),
		budgets:      NewBudgetRepository(tx),
		savings:      NewSavingRepository(tx),
		transactions: NewTransactionRepository(tx),
		userID:       userID,
	}

	_, err := f.users.UpsertUser(f.ctx, &models.User{ID: userID, Username: "tester", FirstName: "Test"})
	require.NoError(t, err)

	f.food, err = f.categories.Create(f.ctx, userID, "Food")
	require.NoError(t, err)
	return f
}

func (f *fixture) budget(t *testing.T, start, end time.Time, limit string) *models.Budget {
	t.Helper()
	b, err := models.NewBudget(f.userID, f.food.Snapshot(), dec(limit), start, end)
	require.NoError(t, err)
	require.NoError(t, f.budgets.Create(f.ctx, b))
	return b
}

func (f *fixture) expense(t *testing.T, amount string, date time.Time, budgetID *int64) *models.Transaction {
	t.Helper()
	snap := f.food.Snapshot()
	tx := &models.Transaction{
		UserID:   f.userID,
		Amount:   dec(amount),
		Date:     date,
		Type:     models.TransactionExpense,
		Category: &snap,
		BudgetID: budgetID,
	}
	require.NoError(t, f.transactions.Create(f.ctx, tx))
	return tx
}
