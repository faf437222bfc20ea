package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/finance-ledger/internal/models"
)

// NewTransaction is the input of AddTransaction. Income and expense carry a
// CategoryID, saving carries a SavingID. Only expenses may carry a BudgetID.
type NewTransaction struct {
	Type       models.TransactionType
	Amount     decimal.Decimal
	CategoryID int64
	SavingID   int64
	BudgetID   *int64
	Notes      string
	// Date defaults to now. A transaction linked to a budget or saving goal
	// must be dated inside that envelope's period.
	Date time.Time
}

func (in NewTransaction) validate() error {
	if err := models.ValidateMoney("amount", in.Amount); err != nil {
		return err
	}
	if len(strings.TrimSpace(in.Notes)) > models.MaxNotesLength {
		return models.Validationf("notes cannot exceed %d characters", models.MaxNotesLength)
	}
	switch in.Type {
	case models.TransactionSaving:
		if in.SavingID == 0 {
			return models.Validationf("saving transactions must reference a saving goal")
		}
		if in.CategoryID != 0 || in.BudgetID != nil {
			return models.Validationf("category and budget references are only allowed for income and expense transactions")
		}
	case models.TransactionIncome:
		if in.CategoryID == 0 {
			return models.Validationf("income transactions must reference a category")
		}
		if in.SavingID != 0 || in.BudgetID != nil {
			return models.Validationf("income transactions cannot reference a saving goal or a budget")
		}
	case models.TransactionExpense:
		if in.CategoryID == 0 {
			return models.Validationf("expense transactions must reference a category")
		}
		if in.SavingID != 0 {
			return models.Validationf("saving reference is only allowed for saving transactions")
		}
	default:
		return models.Validationf("type must be either income or expense or saving")
	}
	return nil
}

// AddTransaction records a transaction, applies it to the user's account and
// recomputes the envelope it belongs to.
func (s *Service) AddTransaction(ctx context.Context, userID int64, in NewTransaction) (*models.Transaction, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var created *models.Transaction
	err := s.withUser(ctx, "add_transaction", userID, func(c *command) error {
		tx := &models.Transaction{
			UserID:   userID,
			Amount:   in.Amount,
			Date:     in.Date,
			Type:     in.Type,
			Notes:    strings.TrimSpace(in.Notes),
			BudgetID: in.BudgetID,
		}
		if tx.Date.IsZero() {
			tx.Date = c.now
		}

		var (
			saving *models.Saving
			budget *models.Budget
		)
		if in.Type == models.TransactionSaving {
			var err error
			saving, err = c.savings.GetByID(c.ctx, userID, in.SavingID)
			if err != nil {
				return err
			}
			closed, err := c.expireSaving(saving)
			if err != nil {
				return err
			}
			if closed {
				return models.ErrGoalClosed
			}
			if !saving.Contains(tx.Date) {
				return models.Validationf("transaction date %s is outside the saving goal period %s to %s",
					tx.Date.Format(time.DateOnly), saving.StartDate.Format(time.DateOnly), saving.EndDate.Format(time.DateOnly))
			}
			if err := c.account.IncrementTotalSaving(tx.Amount); err != nil {
				return err
			}
			snap := saving.Snapshot()
			tx.Saving = &snap
		} else {
			category, err := c.categories.GetByID(c.ctx, userID, in.CategoryID)
			if err != nil {
				return err
			}
			snap := category.Snapshot()
			tx.Category = &snap

			if in.Type == models.TransactionIncome {
				if err := c.account.IncrementBalance(tx.Amount); err != nil {
					return err
				}
			} else {
				if in.BudgetID != nil {
					if budget, err = c.openBudgetFor(userID, *in.BudgetID, snap); err != nil {
						return err
					}
					if !budget.Contains(tx.Date) {
						return models.Validationf("transaction date %s is outside the budget period %s to %s",
							tx.Date.Format(time.DateOnly), budget.StartDate.Format(time.DateOnly), budget.EndDate.Format(time.DateOnly))
					}
				}
				if err := c.account.DecrementBalance(tx.Amount); err != nil {
					return err
				}
			}
		}

		if err := tx.Validate(); err != nil {
			return err
		}
		if err := c.transactions.Create(c.ctx, tx); err != nil {
			return err
		}

		if saving != nil {
			if err := c.recomputeSaving(saving, saving.Status); err != nil {
				return err
			}
		}
		if budget != nil {
			if err := c.recomputeBudget(budget, budget.Status); err != nil {
				return err
			}
		}
		created = tx
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// openBudgetFor resolves a budget that can accept a new expense of the given
// category.
func (c *command) openBudgetFor(userID, budgetID int64, category models.CategorySnapshot) (*models.Budget, error) {
	budget, err := c.budgets.GetByID(c.ctx, userID, budgetID)
	if err != nil {
		return nil, err
	}
	closed, err := c.expireBudget(budget)
	if err != nil {
		return nil, err
	}
	if closed {
		return nil, models.ErrBudgetClosed
	}
	if !budget.HasStarted(c.now) {
		return nil, models.ErrBudgetNotStarted
	}
	if budget.Category.ID != category.ID {
		return nil, models.Validationf("budget is for category %s, not %s", budget.Category.Name, category.Name)
	}
	return budget, nil
}

// TransactionUpdate holds the mutable fields of a transaction. Nil fields
// are left unchanged.
type TransactionUpdate struct {
	Amount *decimal.Decimal
	Notes  *string
}

// UpdateTransaction changes a transaction's amount and/or notes and applies
// the difference to the account and the owning envelope.
func (s *Service) UpdateTransaction(ctx context.Context, userID, id int64, in TransactionUpdate) (*models.Transaction, error) {
	var updated *models.Transaction
	err := s.withUser(ctx, "update_transaction", userID, func(c *command) error {
		tx, err := c.transactions.GetByID(c.ctx, userID, id)
		if err != nil {
			return err
		}

		if in.Notes != nil {
			notes := strings.TrimSpace(*in.Notes)
			if len(notes) > models.MaxNotesLength {
				return models.Validationf("notes cannot exceed %d characters", models.MaxNotesLength)
			}
			tx.Notes = notes
		}

		saving, budget, err := c.envelopesOf(tx)
		if err != nil {
			return err
		}

		if in.Amount != nil && !in.Amount.Equal(tx.Amount) {
			if saving != nil && saving.Status == models.SavingStatusPaused {
				return models.ErrGoalPaused
			}
			if err := tx.ApplyAmountChange(c.account, *in.Amount); err != nil {
				return err
			}
			tx.Amount = *in.Amount
		}

		if err := c.transactions.UpdateAmountNotes(c.ctx, tx); err != nil {
			return err
		}
		if err := c.recomputeEnvelopes(saving, budget); err != nil {
			return err
		}
		updated = tx
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTransaction removes a transaction and reverses its effect on the
// account and the owning envelope.
func (s *Service) DeleteTransaction(ctx context.Context, userID, id int64) error {
	return s.withUser(ctx, "delete_transaction", userID, func(c *command) error {
		tx, err := c.transactions.GetByID(c.ctx, userID, id)
		if err != nil {
			return err
		}
		saving, budget, err := c.envelopesOf(tx)
		if err != nil {
			return err
		}
		if saving != nil && saving.Status == models.SavingStatusPaused {
			return models.ErrGoalPaused
		}

		if err := tx.ReverseFrom(c.account); err != nil {
			return err
		}
		if err := c.transactions.Delete(c.ctx, userID, tx.ID); err != nil {
			return err
		}
		return c.recomputeEnvelopes(saving, budget)
	})
}

// envelopesOf loads the saving goal or budget a transaction belongs to.
func (c *command) envelopesOf(tx *models.Transaction) (*models.Saving, *models.Budget, error) {
	switch {
	case tx.Saving != nil:
		saving, err := c.savings.GetByID(c.ctx, tx.UserID, tx.Saving.ID)
		return saving, nil, err
	case tx.BudgetID != nil:
		budget, err := c.budgets.GetByID(c.ctx, tx.UserID, *tx.BudgetID)
		return nil, budget, err
	default:
		return nil, nil, nil
	}
}

func (c *command) recomputeEnvelopes(saving *models.Saving, budget *models.Budget) error {
	if saving != nil {
		if err := c.recomputeSaving(saving, saving.Status); err != nil {
			return err
		}
	}
	if budget != nil {
		return c.recomputeBudget(budget, budget.Status)
	}
	return nil
}

// ListTransactions returns one page of the user's transactions, newest first.
func (s *Service) ListTransactions(ctx context.Context, userID int64, page int) (Page[models.Transaction], error) {
	var result Page[models.Transaction]
	err := s.withTx(ctx, "list_transactions", func(c *command) error {
		txs, total, err := c.transactions.List(c.ctx, userID, page)
		if err != nil {
			return err
		}
		result = newPage(txs, page, total)
		return nil
	})
	return result, err
}

// GetTransaction returns one of the user's transactions.
func (s *Service) GetTransaction(ctx context.Context, userID, id int64) (*models.Transaction, error) {
	var tx *models.Transaction
	err := s.withTx(ctx, "get_transaction", func(c *command) error {
		var err error
		tx, err = c.transactions.GetByID(c.ctx, userID, id)
		return err
	})
	return tx, err
}

// TransactionsBetween returns the user's transactions dated within
// [from, to], oldest first.
func (s *Service) TransactionsBetween(ctx context.Context, userID int64, from, to time.Time) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.withTx(ctx, "transactions_between", func(c *command) error {
		var err error
		txs, err = c.transactions.ListBetween(c.ctx, userID, from, to)
		return err
	})
	return txs, err
}

// Summary totals the user's transactions per type between from and to.
// Nil bounds are open.
func (s *Service) Summary(ctx context.Context, userID int64, from, to *time.Time) ([]models.TypeTotal, error) {
	var totals []models.TypeTotal
	err := s.withTx(ctx, "summary", func(c *command) error {
		var err error
		totals, err = c.transactions.Summary(c.ctx, userID, from, to)
		return err
	})
	return totals, err
}

// CategorySpending totals the user's expenses per category between from and
// to, largest first.
func (s *Service) CategorySpending(ctx context.Context, userID int64, from, to *time.Time) ([]models.CategoryTotal, error) {
	var totals []models.CategoryTotal
	err := s.withTx(ctx, "category_spending", func(c *command) error {
		var err error
		totals, err = c.transactions.CategorySpending(c.ctx, userID, from, to)
		return err
	})
	return totals, err
}
