package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Account holds a user's running balance and total savings.
//
// The mutators only change the in-memory value; the caller persists the
// account once the whole command has been applied.
type Account struct {
	UserID         int64
	CurrentBalance decimal.Decimal
	TotalSavings   decimal.Decimal
	Notifications  []Notification
}

func requireMoney(amount decimal.Decimal) error {
	return ValidateMoney("amount", amount)
}

// IncrementBalance adds amount to the current balance.
func (a *Account) IncrementBalance(amount decimal.Decimal) error {
	if err := requireMoney(amount); err != nil {
		return err
	}
	a.CurrentBalance = a.CurrentBalance.Add(amount)
	return nil
}

// DecrementBalance removes amount from the current balance if it is covered.
func (a *Account) DecrementBalance(amount decimal.Decimal) error {
	if err := requireMoney(amount); err != nil {
		return err
	}
	if a.CurrentBalance.Sub(amount).IsNegative() {
		return ErrInsufficientBalance
	}
	a.CurrentBalance = a.CurrentBalance.Sub(amount)
	return nil
}

// IncrementTotalSaving moves amount from the balance into savings.
func (a *Account) IncrementTotalSaving(amount decimal.Decimal) error {
	if err := requireMoney(amount); err != nil {
		return err
	}
	if a.CurrentBalance.LessThan(amount) {
		return ErrInsufficientBalance
	}
	a.CurrentBalance = a.CurrentBalance.Sub(amount)
	a.TotalSavings = a.TotalSavings.Add(amount)
	return nil
}

// DecrementTotalSaving moves amount from savings back into the balance.
func (a *Account) DecrementTotalSaving(amount decimal.Decimal) error {
	if err := requireMoney(amount); err != nil {
		return err
	}
	if a.TotalSavings.LessThan(amount) {
		return ErrInsufficientSavings
	}
	a.TotalSavings = a.TotalSavings.Sub(amount)
	a.CurrentBalance = a.CurrentBalance.Add(amount)
	return nil
}

// Net returns balance plus savings.
func (a *Account) Net() decimal.Decimal {
	return a.CurrentBalance.Add(a.TotalSavings)
}

// AddNotification prepends an unread notification and keeps the newest
// MaxNotifications entries.
func (a *Account) AddNotification(message string, at time.Time) {
	message = strings.TrimSpace(message)
	if len(message) > MaxNotificationLength {
		message = message[:MaxNotificationLength]
	}
	n := Notification{Message: message, Date: at}
	a.Notifications = append([]Notification{n}, a.Notifications...)
	if len(a.Notifications) > MaxNotifications {
		a.Notifications = a.Notifications[:MaxNotifications]
	}
}

// PendingNotifications returns notifications that have not been stored yet.
func (a *Account) PendingNotifications() []Notification {
	var pending []Notification
	for _, n := range a.Notifications {
		if n.ID == 0 {
			pending = append(pending, n)
		}
	}
	return pending
}
