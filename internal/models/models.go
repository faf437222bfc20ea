// Package models defines the domain entities for the finance ledger.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the default display currency for new users.
const DefaultCurrency = "SGD"

// Field length limits.
const (
	MaxCategoryNameLength = 50
	MaxSavingTitleLength  = 100
	MaxNotesLength        = 500
	MaxNotificationLength = 500
)

// MaxNotifications is the number of notifications kept per user.
const MaxNotifications = 20

// PageSize is the number of rows returned by paginated listings.
const PageSize = 10

// DefaultCategories are created for every newly registered user.
var DefaultCategories = []string{
	"Salary",
	"Food - Dining Out",
	"Food - Grocery",
	"Transportation",
	"Housing",
	"Utilities",
	"Health and Wellness",
	"Entertainment",
	"Others",
}

// User is a registered user together with their ledger account.
type User struct {
	ID        int64
	Username  string
	FirstName string
	Currency  string
	Account   Account
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Notification is a message appended when an envelope crosses a threshold.
type Notification struct {
	ID      int64
	Message string
	Date    time.Time
	Read    bool
}

// Category is a user-defined transaction category.
type Category struct {
	ID        int64
	UserID    int64
	Name      string
	CreatedAt time.Time
}

// Snapshot returns the denormalized copy stored on budgets and transactions.
func (c Category) Snapshot() CategorySnapshot {
	return CategorySnapshot{ID: c.ID, Name: c.Name}
}

// CategorySnapshot is a category's display fields frozen at write time.
type CategorySnapshot struct {
	ID   int64
	Name string
}

// SavingSnapshot is a saving goal's display fields frozen at write time.
type SavingSnapshot struct {
	ID    int64
	Title string
}

// TypeTotal is one row of a per-type transaction summary.
type TypeTotal struct {
	Type  TransactionType
	Total decimal.Decimal
	Count int
}

// CategoryTotal is one row of a per-category expense breakdown.
type CategoryTotal struct {
	Category CategorySnapshot
	Total    decimal.Decimal
	Count    int
}

// daysUntil returns the whole days left until end, rounded up and never negative.
func daysUntil(end, now time.Time) int {
	diff := end.Sub(now)
	if diff <= 0 {
		return 0
	}
	days := int(diff / (24 * time.Hour))
	if diff%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// percentOf returns part/whole as a rounded whole percentage.
func percentOf(part, whole decimal.Decimal) int {
	if whole.IsZero() {
		return 0
	}
	return int(part.Div(whole).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}
