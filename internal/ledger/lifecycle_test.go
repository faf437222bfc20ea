package ledger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/finance-ledger/internal/models"
)

func TestAddBudget_BackfillsExpenses(t *testing.T) {
	h := newHarness(t, 5000201)
	h.income(t, "1000")

	for _, amount := range []string{"120", "80"} {
		_, err := h.svc.AddTransaction(h.ctx, h.userID, NewTransaction{
			Type: models.TransactionExpense, Amount: dec(amount), CategoryID: h.food,
		})
		require.NoError(t, err)
	}

	budget, err := h.svc.AddBudget(h.ctx, h.userID, NewBudget{
		CategoryID: h.food, AmountLimit: dec("150"), StartDate: jan1, EndDate: jan31,
	})
	require.NoError(t, err)
	require.True(t, budget.CurrentAmount.Equal(dec("200")))
	require.Equal(t, models.BudgetStatusOver, budget.Status)

	notifications, _, err := h.svc.Notifications(h.ctx, h.userID)
	require.NoError(t, err)
	require.Len(t, notifications, 1, "backfill that reaches the limit notifies once")
}

func TestAddBudget_Validation(t *testing.T) {
	h := newHarness(t, 5000202)

	tests := []struct {
		name string
		in   NewBudget
		want error
	}{
		{"zero limit", NewBudget{CategoryID: h.food, AmountLimit: dec("0"), StartDate: jan1, EndDate: jan31}, models.ErrValidation},
		{"end before start", NewBudget{CategoryID: h.food, AmountLimit: dec("10"), StartDate: jan31, EndDate: jan1}, models.ErrValidation},
		{"unknown category", NewBudget{CategoryID: -1, AmountLimit: dec("10"), StartDate: jan1, EndDate: jan31}, models.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.AddBudget(h.ctx, h.userID, tt.in)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUpdateBudget(t *testing.T) {
	h := newHarness(t, 5000203)
	h.income(t, "1000")

	budget, err := h.svc.AddBudget(h.ctx, h.userID, NewBudget{
		CategoryID: h.food, AmountLimit: dec("500"), StartDate: jan1, EndDate: jan31,
	})
	require.NoError(t, err)

	t.Run("shrinking the end date fails", func(t *testing.T) {
		_, err := h.svc.UpdateBudget(h.ctx, h.userID, budget.ID, BudgetUpdate{EndDate: ptr(jan15)})
		require.ErrorIs(t, err, models.ErrInvalidDateRange)
	})

	t.Run("category changes while nothing is attached", func(t *testing.T) {
		updated, err := h.svc.UpdateBudget(h.ctx, h.userID, budget.ID, BudgetUpdate{CategoryID: &h.salary})
		require.NoError(t, err)
		require.Equal(t, h.salary, updated.Category.ID)

		_, err = h.svc.UpdateBudget(h.ctx, h.userID, budget.ID, BudgetUpdate{CategoryID: &h.food})
		require.NoError(t, err)
	})

	_, err = h.svc.AddTransaction(h.ctx, h.userID, NewTransaction{
		Type: models.TransactionExpense, Amount: dec("300"), CategoryID: h.food, BudgetID: &budget.ID,
	})
	require.NoError(t, err)

	t.Run("category is locked once an expense is attached", func(t *testing.T) {
		_, err := h.svc.UpdateBudget(h.ctx, h.userID, budget.ID, BudgetUpdate{CategoryID: &h.salary})
		require.ErrorIs(t, err, models.ErrCategoryInUse)
	})

	t.Run("lowering the limit below spend closes the budget and notifies", func(t *testing.T) {
		updated, err := h.svc.UpdateBudget(h.ctx, h.userID, budget.ID, BudgetUpdate{AmountLimit: ptr(dec("250"))})
		require.NoError(t, err)
		require.Equal(t, models.BudgetStatusOver, updated.Status)

		_, unread, err := h.svc.Notifications(h.ctx, h.userID)
		require.NoError(t, err)
		require.Equal(t, 1, unread)
	})

	t.Run("raising the limit reopens it", func(t *testing.T) {
		updated, err := h.svc.UpdateBudget(h.ctx, h.userID, budget.ID, BudgetUpdate{AmountLimit: ptr(dec("400"))})
		require.NoError(t, err)
		require.Equal(t, models.BudgetStatusInProgress, updated.Status)
	})

	t.Run("extending into a sibling fails", func(t *testing.T) {
		_, err := h.svc.AddBudget(h.ctx, h.userID, NewBudget{
			CategoryID: h.food, AmountLimit: dec("100"), StartDate: feb29.AddDate(0, 0, -10), EndDate: feb29,
		})
		require.NoError(t, err)

		_, err = h.svc.UpdateBudget(h.ctx, h.userID, budget.ID, BudgetUpdate{EndDate: ptr(feb29)})
		require.ErrorIs(t, err, models.ErrOverlap)

		got, err := h.svc.GetBudget(h.ctx, h.userID, budget.ID)
		require.NoError(t, err)
		require.True(t, got.EndDate.Equal(jan31), "failed update must not persist")
	})
}

func TestDeleteBudget_KeepsTransactions(t *testing.T) {
	h := newHarness(t, 5000204)
	h.income(t, "1000")

	budget, err := h.svc.AddBudget(h.ctx, h.userID, NewBudget{
		CategoryID: h.food, AmountLimit: dec("500"), StartDate: jan1, EndDate: jan31,
	})
	require.NoError(t, err)
	expense, err := h.svc.AddTransaction(h.ctx, h.userID, NewTransaction{
		Type: models.TransactionExpense, Amount: dec("40"), CategoryID: h.food, BudgetID: &budget.ID,
	})
	require.NoError(t, err)

	require.NoError(t, h.svc.DeleteBudget(h.ctx, h.userID, budget.ID))

	tx, err := h.svc.GetTransaction(h.ctx, h.userID, expense.ID)
	require.NoError(t, err)
	require.Nil(t, tx.BudgetID)
	h.requireBalances(t, "960", "0")

	_, err = h.svc.GetBudget(h.ctx, h.userID, budget.ID)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestLazyExpiry(t *testing.T) {
	h := newHarness(t, 5000205)

	budget, err := h.svc.AddBudget(h.ctx, h.userID, NewBudget{
		CategoryID: h.food, AmountLimit: dec("500"), StartDate: jan1, EndDate: jan31,
	})
	require.NoError(t, err)
	goal, err := h.svc.AddSaving(h.ctx, h.userID, NewSaving{Title: "Car", TargetAmount: dec("9000"), EndDate: jan31})
	require.NoError(t, err)

	h.clock.t = feb29

	for range 2 {
		b, err := h.svc.GetBudget(h.ctx, h.userID, budget.ID)
		require.NoError(t, err)
		require.Equal(t, models.BudgetStatusOver, b.Status)

		g, err := h.svc.GetSaving(h.ctx, h.userID, goal.ID)
		require.NoError(t, err)
		require.Equal(t, models.SavingStatusCompleted, g.Status)
	}

	notifications, unread, err := h.svc.Notifications(h.ctx, h.userID)
	require.NoError(t, err)
	require.Len(t, notifications, 2, "expiry notifies once per envelope")
	require.Equal(t, 2, unread)

	open, err := h.svc.InProgressBudgets(h.ctx, h.userID, h.food)
	require.NoError(t, err)
	require.Empty(t, open)

	active, err := h.svc.ActiveSavings(h.ctx, h.userID)
	require.NoError(t, err)
	require.Empty(t, active)
}

func TestSavingLifecycle(t *testing.T) {
	h := newHarness(t, 5000206)
	h.income(t, "1000")

	goal, err := h.svc.AddSaving(h.ctx, h.userID, NewSaving{
		Title: "Holiday", TargetAmount: dec("800"), EndDate: jan31, Notes: " Japan ",
	})
	require.NoError(t, err)
	require.Equal(t, "Japan", goal.Notes)

	_, err = h.svc.AddTransaction(h.ctx, h.userID, NewTransaction{
		Type: models.TransactionSaving, Amount: dec("300"), SavingID: goal.ID,
	})
	require.NoError(t, err)

	t.Run("resume refuses an earlier end date", func(t *testing.T) {
		_, err := h.svc.PauseSaving(h.ctx, h.userID, goal.ID)
		require.NoError(t, err)
		_, err = h.svc.ResumeSaving(h.ctx, h.userID, goal.ID, jan15)
		require.ErrorIs(t, err, models.ErrInvalidDateRange)

		resumed, err := h.svc.ResumeSaving(h.ctx, h.userID, goal.ID, feb29)
		require.NoError(t, err)
		require.Equal(t, models.SavingStatusActive, resumed.Status)
		require.True(t, resumed.EndDate.Equal(feb29))
	})

	t.Run("lowering the target completes the goal", func(t *testing.T) {
		updated, err := h.svc.UpdateSaving(h.ctx, h.userID, goal.ID, SavingUpdate{TargetAmount: ptr(dec("300"))})
		require.NoError(t, err)
		require.Equal(t, models.SavingStatusCompleted, updated.Status)

		_, unread, err := h.svc.Notifications(h.ctx, h.userID)
		require.NoError(t, err)
		require.Equal(t, 1, unread)
	})

	t.Run("raising the target reactivates it", func(t *testing.T) {
		updated, err := h.svc.UpdateSaving(h.ctx, h.userID, goal.ID, SavingUpdate{TargetAmount: ptr(dec("500"))})
		require.NoError(t, err)
		require.Equal(t, models.SavingStatusActive, updated.Status)
	})

	t.Run("end date only moves later", func(t *testing.T) {
		_, err := h.svc.UpdateSaving(h.ctx, h.userID, goal.ID, SavingUpdate{EndDate: ptr(jan31)})
		require.ErrorIs(t, err, models.ErrInvalidDateRange)
	})

	t.Run("delete refunds contributions", func(t *testing.T) {
		require.NoError(t, h.svc.DeleteSaving(h.ctx, h.userID, goal.ID))
		h.requireBalances(t, "1000", "0")

		page, err := h.svc.ListTransactions(h.ctx, h.userID, 1)
		require.NoError(t, err)
		require.Equal(t, 1, page.Total, "contributions are removed with the goal")

		_, err = h.svc.GetSaving(h.ctx, h.userID, goal.ID)
		require.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestCategories(t *testing.T) {
	h := newHarness(t, 5000207)

	t.Run("duplicate names are rejected ignoring case", func(t *testing.T) {
		_, err := h.svc.AddCategory(h.ctx, h.userID, "FOOD")
		require.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("rename keeps snapshots", func(t *testing.T) {
		h.income(t, "10")
		require.NoError(t, h.svc.RenameCategory(h.ctx, h.userID, h.salary, "Wages"))

		page, err := h.svc.ListTransactions(h.ctx, h.userID, 1)
		require.NoError(t, err)
		require.Equal(t, "Salary", page.Items[0].Category.Name)

		snap, err := h.svc.ResolveCategory(h.ctx, h.userID, h.salary)
		require.NoError(t, err)
		require.Equal(t, "Wages", snap.Name)
	})

	t.Run("used category cannot be deleted", func(t *testing.T) {
		inUse, err := h.svc.IsCategoryInUse(h.ctx, h.userID, h.salary)
		require.NoError(t, err)
		require.True(t, inUse)
		require.ErrorIs(t, h.svc.DeleteCategory(h.ctx, h.userID, h.salary), models.ErrCategoryInUse)
	})

	t.Run("budget keeps its category in use", func(t *testing.T) {
		_, err := h.svc.AddBudget(h.ctx, h.userID, NewBudget{
			CategoryID: h.food, AmountLimit: dec("10"), StartDate: jan1, EndDate: jan31,
		})
		require.NoError(t, err)
		require.ErrorIs(t, h.svc.DeleteCategory(h.ctx, h.userID, h.food), models.ErrCategoryInUse)
	})

	t.Run("unused category is deleted", func(t *testing.T) {
		cat, err := h.svc.AddCategory(h.ctx, h.userID, "Hobbies")
		require.NoError(t, err)
		require.NoError(t, h.svc.DeleteCategory(h.ctx, h.userID, cat.ID))
		_, err = h.svc.CategoryByName(h.ctx, h.userID, "hobbies")
		require.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("blank name", func(t *testing.T) {
		_, err := h.svc.AddCategory(h.ctx, h.userID, "   ")
		require.ErrorIs(t, err, models.ErrValidation)
	})
}

func TestNotificationsReadState(t *testing.T) {
	h := newHarness(t, 5000208)
	h.income(t, "100")

	for _, title := range []string{"A", "B"} {
		goal, err := h.svc.AddSaving(h.ctx, h.userID, NewSaving{Title: title, TargetAmount: dec("10"), EndDate: feb29})
		require.NoError(t, err)
		_, err = h.svc.AddTransaction(h.ctx, h.userID, NewTransaction{
			Type: models.TransactionSaving, Amount: dec("10"), SavingID: goal.ID,
		})
		require.NoError(t, err)
	}

	notifications, unread, err := h.svc.Notifications(h.ctx, h.userID)
	require.NoError(t, err)
	require.Len(t, notifications, 2)
	require.Equal(t, 2, unread)
	require.Contains(t, notifications[0].Message, `"B"`, "newest first")

	require.NoError(t, h.svc.MarkNotificationRead(h.ctx, h.userID, notifications[0].ID))
	_, unread, err = h.svc.Notifications(h.ctx, h.userID)
	require.NoError(t, err)
	require.Equal(t, 1, unread)

	n, err := h.svc.MarkAllNotificationsRead(h.ctx, h.userID)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.ErrorIs(t, h.svc.MarkNotificationRead(h.ctx, h.userID, -1), models.ErrNotFound)
}

func TestSweepExpired(t *testing.T) {
	h := newHarness(t, 5000209)

	budget, err := h.svc.AddBudget(h.ctx, h.userID, NewBudget{
		CategoryID: h.food, AmountLimit: dec("500"), StartDate: jan1, EndDate: jan31,
	})
	require.NoError(t, err)
	goal, err := h.svc.AddSaving(h.ctx, h.userID, NewSaving{Title: "Watch", TargetAmount: dec("700"), EndDate: jan31})
	require.NoError(t, err)
	paused, err := h.svc.AddSaving(h.ctx, h.userID, NewSaving{Title: "Paused", TargetAmount: dec("700"), EndDate: jan31})
	require.NoError(t, err)
	_, err = h.svc.PauseSaving(h.ctx, h.userID, paused.ID)
	require.NoError(t, err)

	result, err := h.svc.SweepExpired(h.ctx, 0)
	require.NoError(t, err)
	_, unread, err := h.svc.Notifications(h.ctx, h.userID)
	require.NoError(t, err)
	require.Zero(t, unread, "nothing has ended yet")

	h.clock.t = feb29
	result, err = h.svc.SweepExpired(h.ctx, 0)
	require.NoError(t, err)
	require.GreaterOrEqual(t, result.Budgets, 1)
	require.GreaterOrEqual(t, result.Savings, 1)

	notifications, _, err := h.svc.Notifications(h.ctx, h.userID)
	require.NoError(t, err)
	require.Len(t, notifications, 2)

	b, err := h.svc.GetBudget(h.ctx, h.userID, budget.ID)
	require.NoError(t, err)
	require.Equal(t, models.BudgetStatusOver, b.Status)
	g, err := h.svc.GetSaving(h.ctx, h.userID, goal.ID)
	require.NoError(t, err)
	require.Equal(t, models.SavingStatusCompleted, g.Status)
	p, err := h.svc.GetSaving(h.ctx, h.userID, paused.ID)
	require.NoError(t, err)
	require.Equal(t, models.SavingStatusPaused, p.Status, "paused goals are left alone")

	_, err = h.svc.SweepExpired(h.ctx, 0)
	require.NoError(t, err)
	notifications, _, err = h.svc.Notifications(h.ctx, h.userID)
	require.NoError(t, err)
	require.Len(t, notifications, 2, "a second sweep does not notify again")
}

func TestReconcile(t *testing.T) {
	h := newHarness(t, 5000210)
	h.income(t, "1000")

	budget, err := h.svc.AddBudget(h.ctx, h.userID, NewBudget{
		CategoryID: h.food, AmountLimit: dec("500"), StartDate: jan1, EndDate: jan31,
	})
	require.NoError(t, err)
	_, err = h.svc.AddTransaction(h.ctx, h.userID, NewTransaction{
		Type: models.TransactionExpense, Amount: dec("100"), CategoryID: h.food, BudgetID: &budget.ID,
	})
	require.NoError(t, err)
	goal, err := h.svc.AddSaving(h.ctx, h.userID, NewSaving{Title: "Phone", TargetAmount: dec("900"), EndDate: feb29})
	require.NoError(t, err)
	_, err = h.svc.AddTransaction(h.ctx, h.userID, NewTransaction{
		Type: models.TransactionSaving, Amount: dec("200"), SavingID: goal.ID,
	})
	require.NoError(t, err)

	report, err := h.svc.Reconcile(h.ctx, h.userID, false)
	require.NoError(t, err)
	require.True(t, report.Consistent())
	require.Equal(t, 2, report.Envelopes)
	require.True(t, report.DerivedBalance.Equal(dec("700")))
	require.True(t, report.DerivedSavings.Equal(dec("200")))

	_, err = h.db.Exec(h.ctx, `UPDATE budgets SET current_amount = 7 WHERE id = $1`, budget.ID)
	require.NoError(t, err)
	_, err = h.db.Exec(h.ctx, `UPDATE users SET current_balance = 1 WHERE id = $1`, h.userID)
	require.NoError(t, err)

	report, err = h.svc.Reconcile(h.ctx, h.userID, true)
	require.NoError(t, err)
	require.False(t, report.Consistent())
	require.False(t, report.BalanceConsistent())
	require.Len(t, report.Drifts, 1)
	require.Equal(t, EnvelopeBudget, report.Drifts[0].Kind)
	require.True(t, report.Drifts[0].Stored.Equal(dec("7")))
	require.True(t, report.Drifts[0].Derived.Equal(dec("100")))
	require.True(t, report.Fixed)

	b, err := h.svc.GetBudget(h.ctx, h.userID, budget.ID)
	require.NoError(t, err)
	require.True(t, b.CurrentAmount.Equal(dec("100")))
}

func TestRecomputeClosesExpiredEnvelopes(t *testing.T) {
	endedMessages := func(t *testing.T, h *harness) []string {
		t.Helper()
		notifications, _, err := h.svc.Notifications(h.ctx, h.userID)
		require.NoError(t, err)
		var ended []string
		for _, n := range notifications {
			if strings.Contains(n.Message, "has ended") {
				ended = append(ended, n.Message)
			}
		}
		return ended
	}

	t.Run("notes edit after the period ended", func(t *testing.T) {
		h := newHarness(t, 5000220)
		h.income(t, "1000")

		budget, err := h.svc.AddBudget(h.ctx, h.userID, NewBudget{
			CategoryID: h.food, AmountLimit: dec("500"), StartDate: jan1, EndDate: jan31,
		})
		require.NoError(t, err)
		expense, err := h.svc.AddTransaction(h.ctx, h.userID, NewTransaction{
			Type: models.TransactionExpense, Amount: dec("100"), CategoryID: h.food, BudgetID: &budget.ID,
		})
		require.NoError(t, err)
		goal, err := h.svc.AddSaving(h.ctx, h.userID, NewSaving{Title: "Trip", TargetAmount: dec("900"), EndDate: jan31})
		require.NoError(t, err)
		contribution, err := h.svc.AddTransaction(h.ctx, h.userID, NewTransaction{
			Type: models.TransactionSaving, Amount: dec("50"), SavingID: goal.ID,
		})
		require.NoError(t, err)

		h.clock.t = feb29
		_, err = h.svc.UpdateTransaction(h.ctx, h.userID, expense.ID, TransactionUpdate{Notes: ptr("groceries")})
		require.NoError(t, err)
		_, err = h.svc.UpdateTransaction(h.ctx, h.userID, contribution.ID, TransactionUpdate{Notes: ptr("first deposit")})
		require.NoError(t, err)

		ended := endedMessages(t, h)
		require.Len(t, ended, 2)
		require.Contains(t, ended[0], `"Trip"`)
		require.Contains(t, ended[1], "Food")

		b, err := h.svc.GetBudget(h.ctx, h.userID, budget.ID)
		require.NoError(t, err)
		require.Equal(t, models.BudgetStatusOver, b.Status)
		g, err := h.svc.GetSaving(h.ctx, h.userID, goal.ID)
		require.NoError(t, err)
		require.Equal(t, models.SavingStatusCompleted, g.Status)

		// Raising the limit or target of a closed envelope closes it again silently.
		_, err = h.svc.UpdateBudget(h.ctx, h.userID, budget.ID, BudgetUpdate{AmountLimit: ptr(dec("800"))})
		require.NoError(t, err)
		_, err = h.svc.UpdateSaving(h.ctx, h.userID, goal.ID, SavingUpdate{TargetAmount: ptr(dec("1200"))})
		require.NoError(t, err)
		require.Len(t, endedMessages(t, h), 2)
	})

	t.Run("reconcile fix after the period ended", func(t *testing.T) {
		h := newHarness(t, 5000221)
		h.income(t, "1000")

		budget, err := h.svc.AddBudget(h.ctx, h.userID, NewBudget{
			CategoryID: h.food, AmountLimit: dec("500"), StartDate: jan1, EndDate: jan31,
		})
		require.NoError(t, err)
		_, err = h.svc.AddTransaction(h.ctx, h.userID, NewTransaction{
			Type: models.TransactionExpense, Amount: dec("100"), CategoryID: h.food, BudgetID: &budget.ID,
		})
		require.NoError(t, err)
		_, err = h.db.Exec(h.ctx, `UPDATE budgets SET current_amount = 7 WHERE id = $1`, budget.ID)
		require.NoError(t, err)

		h.clock.t = feb29
		report, err := h.svc.Reconcile(h.ctx, h.userID, true)
		require.NoError(t, err)
		require.True(t, report.Fixed)

		ended := endedMessages(t, h)
		require.Len(t, ended, 1)
		require.Contains(t, ended[0], "spent 100.00 of 500.00")

		b, err := h.svc.GetBudget(h.ctx, h.userID, budget.ID)
		require.NoError(t, err)
		require.Equal(t, models.BudgetStatusOver, b.Status)
		require.Len(t, endedMessages(t, h), 1)
	})
}
