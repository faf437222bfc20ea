package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetStatus is the lifecycle state of a budget.
type BudgetStatus string

// Budget statuses.
const (
	BudgetStatusInProgress BudgetStatus = "in-progress"
	BudgetStatusOver       BudgetStatus = "over"
)

// Budget is a capped spending envelope for one category over a date range.
type Budget struct {
	ID            int64
	UserID        int64
	Category      CategorySnapshot
	AmountLimit   decimal.Decimal
	CurrentAmount decimal.Decimal
	StartDate     time.Time
	EndDate       time.Time
	Status        BudgetStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewBudget validates the fields and returns an in-progress budget.
func NewBudget(userID int64, category CategorySnapshot, limit decimal.Decimal, start, end time.Time) (*Budget, error) {
	if err := ValidateMoney("amount limit", limit); err != nil {
		return nil, err
	}
	if start.IsZero() || end.IsZero() {
		return nil, Validationf("start date and end date are required")
	}
	if !end.After(start) {
		return nil, Validationf("end date must be after start date")
	}
	return &Budget{
		UserID:        userID,
		Category:      category,
		AmountLimit:   limit,
		CurrentAmount: decimal.Zero,
		StartDate:     start,
		EndDate:       end,
		Status:        BudgetStatusInProgress,
	}, nil
}

// Overlaps reports whether the closed date ranges of b and other intersect.
func (b *Budget) Overlaps(other *Budget) bool {
	return !other.StartDate.After(b.EndDate) && !other.EndDate.Before(b.StartDate)
}

// Contains reports whether t falls inside the budget's closed date range.
func (b *Budget) Contains(t time.Time) bool {
	return !t.Before(b.StartDate) && !t.After(b.EndDate)
}

// ApplyCurrentAmount stores a recomputed total and marks the budget over
// when the limit is reached. It never moves the budget back to in-progress.
func (b *Budget) ApplyCurrentAmount(total decimal.Decimal) BudgetStatus {
	b.CurrentAmount = total
	if b.CurrentAmount.GreaterThanOrEqual(b.AmountLimit) {
		b.Status = BudgetStatusOver
	}
	return b.Status
}

// Reactivate moves an over budget back to in-progress when it is under its
// limit and has not ended yet.
func (b *Budget) Reactivate(now time.Time) {
	if b.AmountLimit.GreaterThan(b.CurrentAmount) && b.EndDate.After(now) {
		b.Status = BudgetStatusInProgress
	}
}

// CheckExpired reports whether the budget is closed. The second result is
// true only when this call moved the budget to over and it must be stored.
func (b *Budget) CheckExpired(now time.Time) (closed, changed bool) {
	if b.Status == BudgetStatusOver {
		return true, false
	}
	if !b.EndDate.After(now) {
		b.Status = BudgetStatusOver
		return true, true
	}
	return false, false
}

// HasStarted reports whether now is on or after the start date.
func (b *Budget) HasStarted(now time.Time) bool {
	return !now.Before(b.StartDate)
}

// SetAmountLimit replaces the limit and re-derives the status.
func (b *Budget) SetAmountLimit(limit decimal.Decimal) error {
	if err := ValidateMoney("amount limit", limit); err != nil {
		return err
	}
	b.AmountLimit = limit
	if b.CurrentAmount.GreaterThanOrEqual(b.AmountLimit) {
		b.Status = BudgetStatusOver
	} else {
		b.Status = BudgetStatusInProgress
	}
	return nil
}

// ExtendEndDate moves the end date later. Shrinking is rejected.
func (b *Budget) ExtendEndDate(end time.Time) error {
	if !end.After(b.EndDate) {
		return Conflictf(ErrInvalidDateRange, "the new end date must be after the current end date %s", b.EndDate.Format("2006-01-02"))
	}
	b.EndDate = end
	return nil
}

// UtilizationPercentage is current spend as a rounded percentage of the limit.
func (b *Budget) UtilizationPercentage() int {
	return percentOf(b.CurrentAmount, b.AmountLimit)
}

// RemainingAmount is the unspent part of the limit, never negative.
func (b *Budget) RemainingAmount() decimal.Decimal {
	return decimal.Max(decimal.Zero, b.AmountLimit.Sub(b.CurrentAmount))
}

// DaysRemaining is the number of days until the end date, rounded up.
func (b *Budget) DaysRemaining(now time.Time) int {
	return daysUntil(b.EndDate, now)
}
