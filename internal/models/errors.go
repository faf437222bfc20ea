package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies domain errors so callers can map them to responses.
type ErrorKind int

// Error kinds.
const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindConflict
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a typed domain error. Two errors match under errors.Is when
// their codes are equal, so wrapped and re-worded errors still compare
// against the sentinels below.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target carries the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinel errors returned by the ledger engine.
var (
	ErrValidation          = &Error{Kind: KindValidation, Code: "validation", Message: "invalid input"}
	ErrNotFound            = &Error{Kind: KindNotFound, Code: "not_found", Message: "not found"}
	ErrOverlap             = &Error{Kind: KindConflict, Code: "overlap", Message: "budget overlaps with another budget for this category"}
	ErrCategoryInUse       = &Error{Kind: KindConflict, Code: "category_in_use", Message: "category is in use"}
	ErrBudgetClosed        = &Error{Kind: KindConflict, Code: "budget_closed", Message: "cannot add transaction to an expired budget"}
	ErrBudgetNotStarted    = &Error{Kind: KindConflict, Code: "budget_not_started", Message: "cannot add transaction to a budget that hasn't started yet"}
	ErrGoalClosed          = &Error{Kind: KindConflict, Code: "goal_closed", Message: "cannot add transaction to an expired or paused saving goal"}
	ErrGoalPaused          = &Error{Kind: KindConflict, Code: "goal_paused", Message: "saving goal is paused"}
	ErrInsufficientBalance = &Error{Kind: KindConflict, Code: "insufficient_balance", Message: "you don't have sufficient balance"}
	ErrInsufficientSavings = &Error{Kind: KindConflict, Code: "insufficient_savings", Message: "you don't have sufficient savings"}
	ErrInvalidDateRange    = &Error{Kind: KindConflict, Code: "invalid_date_range", Message: "invalid date range"}
	ErrInvalidState        = &Error{Kind: KindConflict, Code: "invalid_state", Message: "operation not allowed in current state"}
)

// Validationf returns a validation error with a formatted message.
func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Code: ErrValidation.Code, Message: fmt.Sprintf(format, args...)}
}

// NotFound returns a not-found error naming the missing entity.
func NotFound(entity string) error {
	return &Error{Kind: KindNotFound, Code: ErrNotFound.Code, Message: entity + " not found"}
}

// Conflictf re-words a sentinel while keeping its code.
func Conflictf(sentinel *Error, format string, args ...any) error {
	return &Error{Kind: sentinel.Kind, Code: sentinel.Code, Message: fmt.Sprintf(format, args...)}
}

// KindOf classifies err. Anything that is not a domain error is internal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
