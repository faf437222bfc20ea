package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/finance-ledger/internal/models"
)

// EnvelopeKind names the two kinds of envelope.
type EnvelopeKind string

// Envelope kinds.
const (
	EnvelopeBudget EnvelopeKind = "budget"
	EnvelopeSaving EnvelopeKind = "saving"
)

// Drift is an envelope whose stored amount differs from the sum of its
// transactions.
type Drift struct {
	Kind    EnvelopeKind
	ID      int64
	Name    string
	Stored  decimal.Decimal
	Derived decimal.Decimal
}

// ReconcileReport compares stored aggregates with values derived from the
// transaction log.
type ReconcileReport struct {
	UserID         int64
	Envelopes      int
	Drifts         []Drift
	StoredBalance  decimal.Decimal
	DerivedBalance decimal.Decimal
	StoredSavings  decimal.Decimal
	DerivedSavings decimal.Decimal
	Fixed          bool
}

// BalanceConsistent reports whether the account matches the transaction log.
func (r *ReconcileReport) BalanceConsistent() bool {
	return r.StoredBalance.Equal(r.DerivedBalance) && r.StoredSavings.Equal(r.DerivedSavings)
}

// Consistent reports whether nothing drifted.
func (r *ReconcileReport) Consistent() bool {
	return len(r.Drifts) == 0 && r.BalanceConsistent()
}

// Reconcile recomputes every envelope of the user from the transaction log
// and reports where stored amounts differ. With fix set, drifted envelopes
// are rewritten; account balances are only reported.
func (s *Service) Reconcile(ctx context.Context, userID int64, fix bool) (*ReconcileReport, error) {
	var report *ReconcileReport
	err := s.withUser(ctx, "reconcile", userID, func(c *command) error {
		r := &ReconcileReport{
			UserID:        userID,
			StoredBalance: c.account.CurrentBalance,
			StoredSavings: c.account.TotalSavings,
		}

		budgets, err := c.budgets.GetAllByUser(c.ctx, userID)
		if err != nil {
			return err
		}
		for i := range budgets {
			b := &budgets[i]
			derived, err := c.transactions.SumForBudget(c.ctx, b)
			if err != nil {
				return err
			}
			r.Envelopes++
			if derived.Equal(b.CurrentAmount) {
				continue
			}
			r.Drifts = append(r.Drifts, Drift{
				Kind: EnvelopeBudget, ID: b.ID, Name: b.Category.Name,
				Stored: b.CurrentAmount, Derived: derived,
			})
			if fix {
				if err := c.recomputeBudget(b, b.Status); err != nil {
					return err
				}
			}
		}

		savings, err := c.savings.GetAllByUser(c.ctx, userID)
		if err != nil {
			return err
		}
		for i := range savings {
			sv := &savings[i]
			derived, err := c.transactions.SumForSaving(c.ctx, sv)
			if err != nil {
				return err
			}
			r.Envelopes++
			if derived.Equal(sv.CurrentAmount) {
				continue
			}
			r.Drifts = append(r.Drifts, Drift{
				Kind: EnvelopeSaving, ID: sv.ID, Name: sv.Title,
				Stored: sv.CurrentAmount, Derived: derived,
			})
			if fix {
				if err := c.recomputeSaving(sv, sv.Status); err != nil {
					return err
				}
			}
		}

		totals, err := c.transactions.Summary(c.ctx, userID, nil, nil)
		if err != nil {
			return err
		}
		for _, t := range totals {
			switch t.Type {
			case models.TransactionIncome:
				r.DerivedBalance = r.DerivedBalance.Add(t.Total)
			case models.TransactionExpense:
				r.DerivedBalance = r.DerivedBalance.Sub(t.Total)
			case models.TransactionSaving:
				r.DerivedBalance = r.DerivedBalance.Sub(t.Total)
				r.DerivedSavings = r.DerivedSavings.Add(t.Total)
			}
		}

		r.Fixed = fix && len(r.Drifts) > 0
		report = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}
