package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the kind of ledger event.
type TransactionType string

// Transaction types.
const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
	TransactionSaving  TransactionType = "saving"
)

// ParseTransactionType converts user input into a TransactionType.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(strings.ToLower(strings.TrimSpace(s))); t {
	case TransactionIncome, TransactionExpense, TransactionSaving:
		return t, nil
	default:
		return "", Validationf("type must be either income or expense or saving")
	}
}

// Transaction is a single ledger event. Only Amount and Notes change after
// creation.
type Transaction struct {
	ID        int64
	UserID    int64
	Amount    decimal.Decimal
	Date      time.Time
	Type      TransactionType
	Notes     string
	Category  *CategorySnapshot
	BudgetID  *int64
	Saving    *SavingSnapshot
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the amount, notes and the type-dependent references.
func (t *Transaction) Validate() error {
	if err := ValidateMoney("amount", t.Amount); err != nil {
		return err
	}
	if len(t.Notes) > MaxNotesLength {
		return Validationf("notes cannot exceed %d characters", MaxNotesLength)
	}
	switch t.Type {
	case TransactionSaving:
		if t.Saving == nil {
			return Validationf("saving transactions must reference a saving goal")
		}
		if t.Category != nil || t.BudgetID != nil {
			return Validationf("category and budget references are only allowed for income and expense transactions")
		}
	case TransactionIncome:
		if t.Category == nil {
			return Validationf("income transactions must reference a category")
		}
		if t.Saving != nil || t.BudgetID != nil {
			return Validationf("income transactions cannot reference a saving goal or a budget")
		}
	case TransactionExpense:
		if t.Category == nil {
			return Validationf("expense transactions must reference a category")
		}
		if t.Saving != nil {
			return Validationf("saving reference is only allowed for saving transactions")
		}
	default:
		return Validationf("type must be either income or expense or saving")
	}
	return nil
}

// SignedAmount is the amount as seen by the balance: expenses are negative.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// ApplyTo applies the transaction's effect to the account.
func (t *Transaction) ApplyTo(a *Account) error {
	return applyEffect(a, t.Type, t.Amount)
}

// ReverseFrom undoes the transaction's effect on the account.
func (t *Transaction) ReverseFrom(a *Account) error {
	return applyEffect(a, t.Type, t.Amount.Neg())
}

// ApplyAmountChange applies the difference between the current amount and
// newAmount to the account. The transaction itself is left untouched.
func (t *Transaction) ApplyAmountChange(a *Account, newAmount decimal.Decimal) error {
	if err := ValidateMoney("amount", newAmount); err != nil {
		return err
	}
	delta := newAmount.Sub(t.Amount)
	if delta.IsZero() {
		return nil
	}
	return applyEffect(a, t.Type, delta)
}

// applyEffect applies a signed amount of the given type. A positive amount
// is the create direction, a negative one the reverse direction.
func applyEffect(a *Account, typ TransactionType, signed decimal.Decimal) error {
	abs := signed.Abs()
	forward := signed.IsPositive()
	switch typ {
	case TransactionSaving:
		if forward {
			return a.IncrementTotalSaving(abs)
		}
		return a.DecrementTotalSaving(abs)
	case TransactionIncome:
		if forward {
			return a.IncrementBalance(abs)
		}
		return a.DecrementBalance(abs)
	case TransactionExpense:
		if forward {
			return a.DecrementBalance(abs)
		}
		return a.IncrementBalance(abs)
	default:
		return Validationf("unknown transaction type %q", typ)
	}
}
