package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/finance-ledger/internal/database"
	"gitlab.com/yelinaung/finance-ledger/internal/ledger"
	"gitlab.com/yelinaung/finance-ledger/internal/models"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	var out bytes.Buffer
	cmd := newRootCmd(viper.New())
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	t.Run("version", func(t *testing.T) {
		out, err := execute(t, "version")
		require.NoError(t, err)
		require.Contains(t, out, "ledgerctl dev")
	})

	t.Run("reconcile requires a user id", func(t *testing.T) {
		_, err := execute(t, "reconcile")
		require.Error(t, err)
	})

	t.Run("reconcile rejects invalid user id", func(t *testing.T) {
		_, err := execute(t, "reconcile", "abc")
		require.ErrorContains(t, err, `invalid user id "abc"`)

		_, err = execute(t, "reconcile", "--", "-4")
		require.ErrorContains(t, err, "invalid user id")
	})

	t.Run("commands need a database url", func(t *testing.T) {
		for _, args := range [][]string{{"migrate"}, {"sweep"}, {"reconcile", "42"}} {
			_, err := execute(t, args...)
			require.ErrorContains(t, err, "database URL is required", "args %v", args)
		}
	})

	t.Run("migrate takes no arguments", func(t *testing.T) {
		_, err := execute(t, "migrate", "extra")
		require.Error(t, err)
	})
}

var (
	jan15 = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	feb5  = time.Date(2024, 2, 5, 12, 0, 0, 0, time.UTC)
)

type seeded struct {
	svc      *ledger.Service
	db       database.DB
	userID   int64
	budgetID int64
	now      *time.Time
}

func seed(t *testing.T, userID int64) *seeded {
	t.Helper()
	ctx := context.Background()

	tx := database.TestTx(t)
	now := jan15
	s := &seeded{db: tx, userID: userID, now: &now}
	s.svc = ledger.New(tx, ledger.WithClock(func() time.Time { return *s.now }))

	_, err := s.svc.RegisterUser(ctx, &models.User{ID: userID, Username: "ops", FirstName: "Ops"})
	require.NoError(t, err)
	salary, err := s.svc.CategoryByName(ctx, userID, "salary")
	require.NoError(t, err)
	food, err := s.svc.AddCategory(ctx, userID, "Food")
	require.NoError(t, err)

	_, err = s.svc.AddTransaction(ctx, userID, ledger.NewTransaction{
		Type: models.TransactionIncome, Amount: decimal.RequireFromString("1000"), CategoryID: salary.ID,
	})
	require.NoError(t, err)

	budget, err := s.svc.AddBudget(ctx, userID, ledger.NewBudget{
		CategoryID:  food.ID,
		AmountLimit: decimal.RequireFromString("500"),
		StartDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC),
	})
	require.NoError(t, err)
	s.budgetID = budget.ID

	_, err = s.svc.AddTransaction(ctx, userID, ledger.NewTransaction{
		Type: models.TransactionExpense, Amount: decimal.RequireFromString("120"), CategoryID: food.ID, BudgetID: &budget.ID,
	})
	require.NoError(t, err)
	return s
}

func TestRunReconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("consistent ledger", func(t *testing.T) {
		s := seed(t, 7000001)
		var out bytes.Buffer
		require.NoError(t, runReconcile(ctx, s.svc, &out, s.userID, false))
		require.Contains(t, out.String(), "User 7000001: checked 1 envelope(s)")
		require.Contains(t, out.String(), "balance  stored 880.00, derived 880.00")
		require.Contains(t, out.String(), "✓ Consistent")
	})

	t.Run("reports drift without fixing", func(t *testing.T) {
		s := seed(t, 7000002)
		_, err := s.db.Exec(ctx, `UPDATE budgets SET current_amount = 7 WHERE id = $1`, s.budgetID)
		require.NoError(t, err)

		var out bytes.Buffer
		err = runReconcile(ctx, s.svc, &out, s.userID, false)
		require.ErrorIs(t, err, errInconsistent)
		require.Contains(t, out.String(), "stored 7.00, derived 120.00")
		require.Contains(t, out.String(), "rerun with --fix")

		b, err := s.svc.GetBudget(ctx, s.userID, s.budgetID)
		require.NoError(t, err)
		require.True(t, b.CurrentAmount.Equal(decimal.NewFromInt(7)))
	})

	t.Run("fix repairs envelopes", func(t *testing.T) {
		s := seed(t, 7000003)
		_, err := s.db.Exec(ctx, `UPDATE budgets SET current_amount = 7 WHERE id = $1`, s.budgetID)
		require.NoError(t, err)

		var out bytes.Buffer
		require.NoError(t, runReconcile(ctx, s.svc, &out, s.userID, true))
		require.Contains(t, out.String(), "✓ Fixed 1 envelope(s)")

		out.Reset()
		require.NoError(t, runReconcile(ctx, s.svc, &out, s.userID, false))
		require.Contains(t, out.String(), "✓ Consistent")
	})

	t.Run("balance drift is reported but not fixed", func(t *testing.T) {
		s := seed(t, 7000004)
		_, err := s.db.Exec(ctx, `UPDATE users SET current_balance = 1 WHERE id = $1`, s.userID)
		require.NoError(t, err)

		var out bytes.Buffer
		err = runReconcile(ctx, s.svc, &out, s.userID, true)
		require.ErrorIs(t, err, errInconsistent)
		require.Contains(t, out.String(), "balance  stored 1.00, derived 880.00")
	})
}

func TestRunSweep(t *testing.T) {
	ctx := context.Background()
	s := seed(t, 7000005)

	var out bytes.Buffer
	require.NoError(t, runSweep(ctx, s.svc, &out, 0))
	require.Contains(t, out.String(), "Closed 0 budget(s)")

	*s.now = feb5
	out.Reset()
	require.NoError(t, runSweep(ctx, s.svc, &out, 10))
	require.Contains(t, out.String(), "Closed 1 budget(s) and 0 saving goal(s)")

	b, err := s.svc.GetBudget(ctx, s.userID, s.budgetID)
	require.NoError(t, err)
	require.Equal(t, models.BudgetStatusOver, b.Status)
}
