package ledger

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/finance-ledger/internal/models"
)

func TestAddTransaction_Validation(t *testing.T) {
	h := newHarness(t, 5000101)
	budgetID := int64(1)

	tests := []struct {
		name string
		in   NewTransaction
	}{
		{"zero amount", NewTransaction{Type: models.TransactionIncome, Amount: dec("0"), CategoryID: h.salary}},
		{"sub-cent amount", NewTransaction{Type: models.TransactionIncome, Amount: dec("0.001"), CategoryID: h.salary}},
		{"half-cent amount", NewTransaction{Type: models.TransactionIncome, Amount: dec("10.005"), CategoryID: h.salary}},
		{"amount beyond column", NewTransaction{Type: models.TransactionIncome, Amount: dec("1000000000000"), CategoryID: h.salary}},
		{"income without category", NewTransaction{Type: models.TransactionIncome, Amount: dec("1")}},
		{"income with budget", NewTransaction{Type: models.TransactionIncome, Amount: dec("1"), CategoryID: h.salary, BudgetID: &budgetID}},
		{"expense with saving", NewTransaction{Type: models.TransactionExpense, Amount: dec("1"), CategoryID: h.food, SavingID: 1}},
		{"saving with category", NewTransaction{Type: models.TransactionSaving, Amount: dec("1"), SavingID: 1, CategoryID: h.food}},
		{"saving without goal", NewTransaction{Type: models.TransactionSaving, Amount: dec("1")}},
		{"unknown type", NewTransaction{Type: "transfer", Amount: dec("1"), CategoryID: h.food}},
		{"notes too long", NewTransaction{Type: models.TransactionIncome, Amount: dec("1"), CategoryID: h.salary, Notes: strings.Repeat("n", models.MaxNotesLength+1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.AddTransaction(h.ctx, h.userID, tt.in)
			require.ErrorIs(t, err, models.ErrValidation)
		})
	}

	h.requireBalances(t, "0", "0")
}

func TestAddTransaction_References(t *testing.T) {
	h := newHarness(t, 5000102)
	h.income(t, "500")

	t.Run("unknown category", func(t *testing.T) {
		_, err := h.svc.AddTransaction(h.ctx, h.userID, NewTransaction{
			Type: models.TransactionExpense, Amount: dec("1"), CategoryID: -1,
		})
		require.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("unknown saving goal", func(t *testing.T) {
		_, err := h.svc.AddTransaction(h.ctx, h.userID, NewTransaction{
			Type: models.TransactionSaving, Amount: dec("1"), SavingID: -1,
		})
		require.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("budget that has not started", func(t *testing.T) {
		b, err := h.svc.AddBudget(h.ctx, h.userID, NewBudget{
			CategoryID: h.food, AmountLimit: dec("100"), StartDate: jan31, EndDate: feb29,
		})
		require.NoError(t, err)
		_, err = h.svc.AddTransaction(h.ctx, h.userID, NewTransaction{
			Type: models.TransactionExpense, Amount: dec("1"), CategoryID: h.food, BudgetID: &b.ID,
		})
		require.ErrorIs(t, err, models.ErrBudgetNotStarted)
	})

	t.Run("budget of another category", func(t *testing.T) {
		b, err := h.svc.AddBudget(h.ctx, h.userID, NewBudget{
			CategoryID: h.salary, AmountLimit: dec("100"), StartDate: jan1, EndDate: jan31,
		})
		require.NoError(t, err)
		_, err = h.svc.AddTransaction(h.ctx, h.userID, NewTransaction{
			Type: models.TransactionExpense, Amount: dec("1"), CategoryID: h.food, BudgetID: &b.ID,
		})
		require.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("paused goal", func(t *testing.T) {
		goal, err := h.svc.AddSaving(h.ctx, h.userID, NewSaving{Title: "Bike", TargetAmount: dec("300"), EndDate: feb29})
		require.NoError(t, err)
		_, err = h.svc.PauseSaving(h.ctx, h.userID, goal.ID)
		require.NoError(t, err)
		_, err = h.svc.AddTransaction(h.ctx, h.userID, NewTransaction{
			Type: models.TransactionSaving, Amount: dec("1"), SavingID: goal.ID,
		})
		require.ErrorIs(t, err, models.ErrGoalClosed)
	})

	t.Run("expense dated outside its budget", func(t *testing.T) {
		b, err := h.svc.AddBudget(h.ctx, h.userID, NewBudget{
			CategoryID: h.food, AmountLimit: dec("100"), StartDate: jan1, EndDate: jan30,
		})
		require.NoError(t, err)
		for _, date := range []time.Time{jan1.AddDate(0, 0, -1), jan30.Add(time.Second), feb29} {
			_, err = h.svc.AddTransaction(h.ctx, h.userID, NewTransaction{
				Type: models.TransactionExpense, Amount: dec("10"), CategoryID: h.food, BudgetID: &b.ID, Date: date,
			})
			require.ErrorIs(t, err, models.ErrValidation, "date %s", date)
		}

		got, err := h.svc.GetBudget(h.ctx, h.userID, b.ID)
		require.NoError(t, err)
		require.True(t, got.CurrentAmount.IsZero())
	})

	t.Run("contribution dated outside its goal", func(t *testing.T) {
		goal, err := h.svc.AddSaving(h.ctx, h.userID, NewSaving{Title: "Laptop", TargetAmount: dec("50"), EndDate: feb29})
		require.NoError(t, err)
		for _, date := range []time.Time{jan1, feb29.Add(time.Second)} {
			_, err = h.svc.AddTransaction(h.ctx, h.userID, NewTransaction{
				Type: models.TransactionSaving, Amount: dec("50"), SavingID: goal.ID, Date: date,
			})
			require.ErrorIs(t, err, models.ErrValidation, "date %s", date)
		}

		got, err := h.svc.GetSaving(h.ctx, h.userID, goal.ID)
		require.NoError(t, err)
		require.Equal(t, models.SavingStatusActive, got.Status)
	})

	t.Run("saving beyond balance", func(t *testing.T) {
		goal, err := h.svc.AddSaving(h.ctx, h.userID, NewSaving{Title: "House", TargetAmount: dec("100000"), EndDate: feb29})
		require.NoError(t, err)
		_, err = h.svc.AddTransaction(h.ctx, h.userID, NewTransaction{
			Type: models.TransactionSaving, Amount: dec("501"), SavingID: goal.ID,
		})
		require.ErrorIs(t, err, models.ErrInsufficientBalance)
	})

	h.requireBalances(t, "500", "0")
}

func TestUpdateTransaction(t *testing.T) {
	h := newHarness(t, 5000103)
	h.income(t, "1000")

	budget, err := h.svc.AddBudget(h.ctx, h.userID, NewBudget{
		CategoryID: h.food, AmountLimit: dec("500"), StartDate: jan1, EndDate: jan31,
	})
	require.NoError(t, err)
	expense, err := h.svc.AddTransaction(h.ctx, h.userID, NewTransaction{
		Type: models.TransactionExpense, Amount: dec("600"), CategoryID: h.food, BudgetID: &budget.ID,
	})
	require.NoError(t, err)

	t.Run("lowering the amount reactivates the budget", func(t *testing.T) {
		updated, err := h.svc.UpdateTransaction(h.ctx, h.userID, expense.ID, TransactionUpdate{
			Amount: ptr(dec("200")), Notes: ptr(" groceries "),
		})
		require.NoError(t, err)
		require.Equal(t, "groceries", updated.Notes)

		b, err := h.svc.GetBudget(h.ctx, h.userID, budget.ID)
		require.NoError(t, err)
		require.Equal(t, models.BudgetStatusInProgress, b.Status)
		require.True(t, b.CurrentAmount.Equal(dec("200")))
		h.requireBalances(t, "800", "0")
	})

	t.Run("raising beyond balance fails and changes nothing", func(t *testing.T) {
		_, err := h.svc.UpdateTransaction(h.ctx, h.userID, expense.ID, TransactionUpdate{Amount: ptr(dec("1001"))})
		require.ErrorIs(t, err, models.ErrInsufficientBalance)
		h.requireBalances(t, "800", "0")
	})

	t.Run("lowering income below what was spent fails", func(t *testing.T) {
		page, err := h.svc.ListTransactions(h.ctx, h.userID, 1)
		require.NoError(t, err)
		var incomeID int64
		for _, tx := range page.Items {
			if tx.Type == models.TransactionIncome {
				incomeID = tx.ID
			}
		}
		_, err = h.svc.UpdateTransaction(h.ctx, h.userID, incomeID, TransactionUpdate{Amount: ptr(dec("100"))})
		require.ErrorIs(t, err, models.ErrInsufficientBalance)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		_, err := h.svc.UpdateTransaction(h.ctx, h.userID, -1, TransactionUpdate{Notes: ptr("x")})
		require.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestUpdateTransaction_Saving(t *testing.T) {
	h := newHarness(t, 5000104)
	h.income(t, "1000")

	goal, err := h.svc.AddSaving(h.ctx, h.userID, NewSaving{Title: "Laptop", TargetAmount: dec("500"), EndDate: feb29})
	require.NoError(t, err)
	contribution, err := h.svc.AddTransaction(h.ctx, h.userID, NewTransaction{
		Type: models.TransactionSaving, Amount: dec("500"), SavingID: goal.ID,
	})
	require.NoError(t, err)

	got, err := h.svc.GetSaving(h.ctx, h.userID, goal.ID)
	require.NoError(t, err)
	require.Equal(t, models.SavingStatusCompleted, got.Status)

	_, err = h.svc.UpdateTransaction(h.ctx, h.userID, contribution.ID, TransactionUpdate{Amount: ptr(dec("300"))})
	require.NoError(t, err)

	got, err = h.svc.GetSaving(h.ctx, h.userID, goal.ID)
	require.NoError(t, err)
	require.Equal(t, models.SavingStatusActive, got.Status, "goal under target is reactivated")
	h.requireBalances(t, "700", "300")

	_, err = h.svc.PauseSaving(h.ctx, h.userID, goal.ID)
	require.NoError(t, err)
	_, err = h.svc.UpdateTransaction(h.ctx, h.userID, contribution.ID, TransactionUpdate{Amount: ptr(dec("200"))})
	require.ErrorIs(t, err, models.ErrGoalPaused)

	_, err = h.svc.UpdateTransaction(h.ctx, h.userID, contribution.ID, TransactionUpdate{Notes: ptr("still paused")})
	require.NoError(t, err, "notes can change on a paused goal")
}

func TestDeleteTransaction(t *testing.T) {
	h := newHarness(t, 5000105)
	income := h.income(t, "1000")

	budget, err := h.svc.AddBudget(h.ctx, h.userID, NewBudget{
		CategoryID: h.food, AmountLimit: dec("100"), StartDate: jan1, EndDate: jan31,
	})
	require.NoError(t, err)
	expense, err := h.svc.AddTransaction(h.ctx, h.userID, NewTransaction{
		Type: models.TransactionExpense, Amount: dec("150"), CategoryID: h.food, BudgetID: &budget.ID,
	})
	require.NoError(t, err)

	goal, err := h.svc.AddSaving(h.ctx, h.userID, NewSaving{Title: "Trip", TargetAmount: dec("2000"), EndDate: feb29})
	require.NoError(t, err)
	contribution, err := h.svc.AddTransaction(h.ctx, h.userID, NewTransaction{
		Type: models.TransactionSaving, Amount: dec("250"), SavingID: goal.ID,
	})
	require.NoError(t, err)
	h.requireBalances(t, "600", "250")

	t.Run("income already spent cannot be deleted", func(t *testing.T) {
		require.ErrorIs(t, h.svc.DeleteTransaction(h.ctx, h.userID, income.ID), models.ErrInsufficientBalance)
	})

	t.Run("expense refunds the balance and reopens the budget", func(t *testing.T) {
		require.NoError(t, h.svc.DeleteTransaction(h.ctx, h.userID, expense.ID))
		h.requireBalances(t, "750", "250")

		b, err := h.svc.GetBudget(h.ctx, h.userID, budget.ID)
		require.NoError(t, err)
		require.True(t, b.CurrentAmount.IsZero())
		require.Equal(t, models.BudgetStatusInProgress, b.Status)
	})

	t.Run("contribution to a paused goal cannot be deleted", func(t *testing.T) {
		_, err := h.svc.PauseSaving(h.ctx, h.userID, goal.ID)
		require.NoError(t, err)
		require.ErrorIs(t, h.svc.DeleteTransaction(h.ctx, h.userID, contribution.ID), models.ErrGoalPaused)
	})

	t.Run("contribution moves back to the balance", func(t *testing.T) {
		_, err := h.svc.ResumeSaving(h.ctx, h.userID, goal.ID, feb29)
		require.NoError(t, err)
		require.NoError(t, h.svc.DeleteTransaction(h.ctx, h.userID, contribution.ID))
		h.requireBalances(t, "1000", "0")

		g, err := h.svc.GetSaving(h.ctx, h.userID, goal.ID)
		require.NoError(t, err)
		require.True(t, g.CurrentAmount.IsZero())
	})

	t.Run("unknown transaction", func(t *testing.T) {
		require.ErrorIs(t, h.svc.DeleteTransaction(h.ctx, h.userID, expense.ID), models.ErrNotFound)
	})
}

func TestSummaryAndCategorySpending(t *testing.T) {
	h := newHarness(t, 5000106)
	h.income(t, "1000")

	for _, amount := range []string{"30", "20"} {
		_, err := h.svc.AddTransaction(h.ctx, h.userID, NewTransaction{
			Type: models.TransactionExpense, Amount: dec(amount), CategoryID: h.food,
		})
		require.NoError(t, err)
	}
	_, err := h.svc.AddTransaction(h.ctx, h.userID, NewTransaction{
		Type: models.TransactionExpense, Amount: dec("5"), CategoryID: h.food,
		Date: jan15.AddDate(0, 1, 0),
	})
	require.NoError(t, err)

	from, to := jan1, jan31
	totals, err := h.svc.Summary(h.ctx, h.userID, &from, &to)
	require.NoError(t, err)
	got := map[models.TransactionType]string{}
	for _, tt := range totals {
		got[tt.Type] = tt.Total.StringFixed(2)
	}
	require.Equal(t, "1000.00", got[models.TransactionIncome])
	require.Equal(t, "50.00", got[models.TransactionExpense])

	spending, err := h.svc.CategorySpending(h.ctx, h.userID, nil, nil)
	require.NoError(t, err)
	require.Len(t, spending, 1)
	require.Equal(t, "Food", spending[0].Category.Name)
	require.Equal(t, 3, spending[0].Count)
	require.True(t, spending[0].Total.Equal(dec("55")))

	page, err := h.svc.ListTransactions(h.ctx, h.userID, 1)
	require.NoError(t, err)
	require.Equal(t, 4, page.Total)
	require.Equal(t, 1, page.Pages)
	require.False(t, page.Items[0].Date.Before(page.Items[1].Date), "newest first")
}
