package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	jan1  = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan15 = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	jan31 = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
)

func newTestBudget(t *testing.T, limit string, start, end time.Time) *Budget {
	t.Helper()
	b, err := NewBudget(1, CategorySnapshot{ID: 10, Name: "Food"}, dec(limit), start, end)
	require.NoError(t, err)
	return b
}

func TestNewBudget(t *testing.T) {
	t.Parallel()

	t.Run("creates in-progress budget", func(t *testing.T) {
		t.Parallel()
		b := newTestBudget(t, "500", jan1, jan31)
		require.Equal(t, BudgetStatusInProgress, b.Status)
		require.True(t, b.CurrentAmount.IsZero())
	})

	t.Run("rejects non-positive limit", func(t *testing.T) {
		t.Parallel()
		_, err := NewBudget(1, CategorySnapshot{ID: 10}, decimal.Zero, jan1, jan31)
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects end before or equal to start", func(t *testing.T) {
		t.Parallel()
		_, err := NewBudget(1, CategorySnapshot{ID: 10}, dec("1"), jan31, jan1)
		require.ErrorIs(t, err, ErrValidation)
		_, err = NewBudget(1, CategorySnapshot{ID: 10}, dec("1"), jan1, jan1)
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects missing dates", func(t *testing.T) {
		t.Parallel()
		_, err := NewBudget(1, CategorySnapshot{ID: 10}, dec("1"), time.Time{}, jan31)
		require.ErrorIs(t, err, ErrValidation)
	})
}

func TestBudget_Overlaps(t *testing.T) {
	t.Parallel()
	base := newTestBudget(t, "100", jan1, jan31)

	tests := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"identical range", jan1, jan31, true},
		{"contained", jan15, jan15.Add(time.Hour), true},
		{"touching end day", jan31, jan31.AddDate(0, 1, 0), true},
		{"touching start day", jan1.AddDate(0, -1, 0), jan1, true},
		{"strictly after", jan31.Add(time.Second), jan31.AddDate(0, 1, 0), false},
		{"strictly before", jan1.AddDate(0, -1, 0), jan1.Add(-time.Second), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			other := newTestBudget(t, "100", tt.start, tt.end)
			require.Equal(t, tt.want, base.Overlaps(other))
			require.Equal(t, tt.want, other.Overlaps(base), "overlap must be symmetric")
		})
	}
}

func TestBudget_ApplyCurrentAmount(t *testing.T) {
	t.Parallel()

	t.Run("stays in progress under limit", func(t *testing.T) {
		t.Parallel()
		b := newTestBudget(t, "500", jan1, jan31)
		require.Equal(t, BudgetStatusInProgress, b.ApplyCurrentAmount(dec("499.99")))
	})

	t.Run("goes over at the limit", func(t *testing.T) {
		t.Parallel()
		b := newTestBudget(t, "500", jan1, jan31)
		require.Equal(t, BudgetStatusOver, b.ApplyCurrentAmount(dec("500")))
	})

	t.Run("does not reactivate by itself", func(t *testing.T) {
		t.Parallel()
		b := newTestBudget(t, "500", jan1, jan31)
		b.ApplyCurrentAmount(dec("600"))
		require.Equal(t, BudgetStatusOver, b.ApplyCurrentAmount(dec("10")))
		require.True(t, b.CurrentAmount.Equal(dec("10")))
	})
}

func TestBudget_Reactivate(t *testing.T) {
	t.Parallel()

	t.Run("under limit and running", func(t *testing.T) {
		t.Parallel()
		b := newTestBudget(t, "500", jan1, jan31)
		b.Status = BudgetStatusOver
		b.CurrentAmount = dec("100")
		b.Reactivate(jan15)
		require.Equal(t, BudgetStatusInProgress, b.Status)
	})

	t.Run("expired stays over", func(t *testing.T) {
		t.Parallel()
		b := newTestBudget(t, "500", jan1, jan31)
		b.Status = BudgetStatusOver
		b.Reactivate(jan31)
		require.Equal(t, BudgetStatusOver, b.Status)
	})
}

func TestBudget_CheckExpired(t *testing.T) {
	t.Parallel()

	t.Run("running budget is open", func(t *testing.T) {
		t.Parallel()
		b := newTestBudget(t, "500", jan1, jan31)
		closed, changed := b.CheckExpired(jan15)
		require.False(t, closed)
		require.False(t, changed)
	})

	t.Run("expired budget is forced over once", func(t *testing.T) {
		t.Parallel()
		b := newTestBudget(t, "500", jan1, jan31)

		closed, changed := b.CheckExpired(jan31.AddDate(0, 0, 1))
		require.True(t, closed)
		require.True(t, changed)
		require.Equal(t, BudgetStatusOver, b.Status)

		closed, changed = b.CheckExpired(jan31.AddDate(0, 0, 2))
		require.True(t, closed)
		require.False(t, changed, "second check must not request another write")
		require.Equal(t, BudgetStatusOver, b.Status)
	})

	t.Run("end date equal to now counts as expired", func(t *testing.T) {
		t.Parallel()
		b := newTestBudget(t, "500", jan1, jan31)
		closed, _ := b.CheckExpired(jan31)
		require.True(t, closed)
	})
}

func TestBudget_Updates(t *testing.T) {
	t.Parallel()

	t.Run("raising limit re-derives in progress", func(t *testing.T) {
		t.Parallel()
		b := newTestBudget(t, "500", jan1, jan31)
		b.ApplyCurrentAmount(dec("600"))
		require.NoError(t, b.SetAmountLimit(dec("700")))
		require.Equal(t, BudgetStatusInProgress, b.Status)
	})

	t.Run("lowering limit re-derives over", func(t *testing.T) {
		t.Parallel()
		b := newTestBudget(t, "500", jan1, jan31)
		b.ApplyCurrentAmount(dec("300"))
		require.NoError(t, b.SetAmountLimit(dec("300")))
		require.Equal(t, BudgetStatusOver, b.Status)
	})

	t.Run("rejects non-positive limit", func(t *testing.T) {
		t.Parallel()
		b := newTestBudget(t, "500", jan1, jan31)
		require.ErrorIs(t, b.SetAmountLimit(dec("-5")), ErrValidation)
		require.True(t, b.AmountLimit.Equal(dec("500")))
	})

	t.Run("end date can only grow", func(t *testing.T) {
		t.Parallel()
		b := newTestBudget(t, "500", jan1, jan31)
		require.ErrorIs(t, b.ExtendEndDate(jan15), ErrInvalidDateRange)
		require.ErrorIs(t, b.ExtendEndDate(jan31), ErrInvalidDateRange)
		require.NoError(t, b.ExtendEndDate(jan31.AddDate(0, 0, 1)))
	})
}

func TestBudget_ComputedProperties(t *testing.T) {
	t.Parallel()
	b := newTestBudget(t, "500", jan1, jan31)
	b.ApplyCurrentAmount(dec("600"))

	require.Equal(t, 120, b.UtilizationPercentage())
	require.True(t, b.RemainingAmount().IsZero())
	require.Equal(t, 16, b.DaysRemaining(jan15))
	require.Equal(t, 0, b.DaysRemaining(jan31.AddDate(0, 0, 3)))
	require.True(t, b.Contains(jan31))
	require.False(t, b.Contains(jan31.Add(time.Nanosecond)))
	require.True(t, b.HasStarted(jan1))
	require.False(t, b.HasStarted(jan1.Add(-time.Second)))
}
