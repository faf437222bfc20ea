package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SavingStatus is the lifecycle state of a saving goal.
type SavingStatus string

// Saving statuses.
const (
	SavingStatusActive    SavingStatus = "active"
	SavingStatusPaused    SavingStatus = "paused"
	SavingStatusCompleted SavingStatus = "completed"
)

// Saving is a target-amount envelope over a date range.
type Saving struct {
	ID            int64
	UserID        int64
	Title         string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	StartDate     time.Time
	EndDate       time.Time
	Status        SavingStatus
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewSaving validates the fields and returns an active goal starting at now.
func NewSaving(userID int64, title string, target decimal.Decimal, end time.Time, notes string, now time.Time) (*Saving, error) {
	title = strings.TrimSpace(title)
	notes = strings.TrimSpace(notes)
	switch {
	case title == "":
		return nil, Validationf("saving title is required")
	case len(title) > MaxSavingTitleLength:
		return nil, Validationf("title cannot exceed %d characters", MaxSavingTitleLength)
	case len(notes) > MaxNotesLength:
		return nil, Validationf("notes cannot exceed %d characters", MaxNotesLength)
	case end.IsZero():
		return nil, Validationf("end date is required")
	case !end.After(now):
		return nil, Validationf("end date must be after start date")
	}
	if err := ValidateMoney("target amount", target); err != nil {
		return nil, err
	}
	return &Saving{
		UserID:        userID,
		Title:         title,
		TargetAmount:  target,
		CurrentAmount: decimal.Zero,
		StartDate:     now,
		EndDate:       end,
		Status:        SavingStatusActive,
		Notes:         notes,
	}, nil
}

// Snapshot returns the denormalized copy stored on saving transactions.
func (s *Saving) Snapshot() SavingSnapshot {
	return SavingSnapshot{ID: s.ID, Title: s.Title}
}

// ApplyCurrentAmount stores a recomputed total and completes the goal when
// the target is reached.
func (s *Saving) ApplyCurrentAmount(total decimal.Decimal) SavingStatus {
	s.CurrentAmount = total
	if s.CurrentAmount.GreaterThanOrEqual(s.TargetAmount) {
		s.Status = SavingStatusCompleted
	}
	return s.Status
}

// Reactivate moves a completed goal back to active when it is under target
// and has not ended yet. Paused goals stay paused.
func (s *Saving) Reactivate(now time.Time) {
	if s.Status != SavingStatusCompleted {
		return
	}
	if s.TargetAmount.GreaterThan(s.CurrentAmount) && s.EndDate.After(now) {
		s.Status = SavingStatusActive
	}
}

// CheckExpired reports whether the goal no longer accepts contributions.
// The second result is true only when this call completed the goal.
func (s *Saving) CheckExpired(now time.Time) (closed, changed bool) {
	if s.Status == SavingStatusCompleted || s.Status == SavingStatusPaused {
		return true, false
	}
	if !s.EndDate.After(now) {
		s.Status = SavingStatusCompleted
		return true, true
	}
	return false, false
}

// Contains reports whether t falls inside the goal's closed date range.
func (s *Saving) Contains(t time.Time) bool {
	return !t.Before(s.StartDate) && !t.After(s.EndDate)
}

// Pause stops contributions until Resume is called.
func (s *Saving) Pause() error {
	if s.Status == SavingStatusCompleted {
		return Conflictf(ErrInvalidState, "cannot pause a completed saving")
	}
	s.Status = SavingStatusPaused
	return nil
}

// Resume reactivates the goal with a new end date no earlier than the current one.
func (s *Saving) Resume(end time.Time) error {
	if s.Status == SavingStatusCompleted {
		return Conflictf(ErrInvalidState, "cannot resume a completed saving")
	}
	if end.IsZero() {
		return Validationf("end date is required")
	}
	if end.Before(s.EndDate) {
		return Conflictf(ErrInvalidDateRange, "the new end date must not be before %s", s.EndDate.Format("2006-01-02"))
	}
	s.Status = SavingStatusActive
	s.EndDate = end
	return nil
}

// SetTargetAmount replaces the target and re-derives the status. A paused
// goal stays paused unless the new target is already reached.
func (s *Saving) SetTargetAmount(target decimal.Decimal) error {
	if err := ValidateMoney("target amount", target); err != nil {
		return err
	}
	s.TargetAmount = target
	switch {
	case s.CurrentAmount.GreaterThanOrEqual(s.TargetAmount):
		s.Status = SavingStatusCompleted
	case s.Status != SavingStatusPaused:
		s.Status = SavingStatusActive
	}
	return nil
}

// ExtendEndDate moves the end date later. Shrinking is rejected.
func (s *Saving) ExtendEndDate(end time.Time) error {
	if !end.After(s.EndDate) {
		return Conflictf(ErrInvalidDateRange, "the new end date must be after the current end date %s", s.EndDate.Format("2006-01-02"))
	}
	s.EndDate = end
	return nil
}

// SetNotes replaces the notes.
func (s *Saving) SetNotes(notes string) error {
	notes = strings.TrimSpace(notes)
	if len(notes) > MaxNotesLength {
		return Validationf("notes cannot exceed %d characters", MaxNotesLength)
	}
	s.Notes = notes
	return nil
}

// ProgressPercentage is progress towards the target, rounded and capped at 100.
func (s *Saving) ProgressPercentage() int {
	return min(100, percentOf(s.CurrentAmount, s.TargetAmount))
}

// RemainingAmount is what is left to reach the target, never negative.
func (s *Saving) RemainingAmount() decimal.Decimal {
	return decimal.Max(decimal.Zero, s.TargetAmount.Sub(s.CurrentAmount))
}

// DaysRemaining is the number of days until the end date, rounded up.
func (s *Saving) DaysRemaining(now time.Time) int {
	return daysUntil(s.EndDate, now)
}

// DailySavingsNeeded is the remaining amount spread over the remaining days.
func (s *Saving) DailySavingsNeeded(now time.Time) decimal.Decimal {
	days := s.DaysRemaining(now)
	if days <= 0 {
		return decimal.Zero
	}
	return s.RemainingAmount().Div(decimal.NewFromInt(int64(days))).Round(2)
}
