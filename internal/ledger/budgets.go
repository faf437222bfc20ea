package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/finance-ledger/internal/models"
)

// NewBudget is the input of AddBudget.
type NewBudget struct {
	CategoryID  int64
	AmountLimit decimal.Decimal
	StartDate   time.Time
	EndDate     time.Time
}

// AddBudget creates a budget, attaches the matching expenses recorded before
// it existed and computes its spend. A budget that overlaps another budget
// of the same category is rolled back with ErrOverlap.
func (s *Service) AddBudget(ctx context.Context, userID int64, in NewBudget) (*models.Budget, error) {
	var created *models.Budget
	err := s.withUser(ctx, "add_budget", userID, func(c *command) error {
		category, err := c.categories.GetByID(c.ctx, userID, in.CategoryID)
		if err != nil {
			return err
		}
		b, err := models.NewBudget(userID, category.Snapshot(), in.AmountLimit, in.StartDate, in.EndDate)
		if err != nil {
			return err
		}
		if err := c.budgets.Create(c.ctx, b); err != nil {
			return err
		}
		if err := c.attachAndRecompute(b, b.Status); err != nil {
			return err
		}
		created = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// attachAndRecompute rejects b if it overlaps a sibling, then backfills
// unattached expenses and recomputes it.
func (c *command) attachAndRecompute(b *models.Budget, before models.BudgetStatus) error {
	overlaps, err := c.budgets.ExistsOverlap(c.ctx, b)
	if err != nil {
		return err
	}
	if overlaps {
		return models.ErrOverlap
	}
	if _, err := c.transactions.AttachUnassigned(c.ctx, b); err != nil {
		return err
	}
	return c.recomputeBudget(b, before)
}

// BudgetUpdate holds the mutable fields of a budget. Nil fields are left
// unchanged.
type BudgetUpdate struct {
	AmountLimit *decimal.Decimal
	EndDate     *time.Time
	CategoryID  *int64
}

// UpdateBudget applies the limit, end date and category changes in that
// order. The end date can only move later and the category can only change
// while no transaction is attached.
func (s *Service) UpdateBudget(ctx context.Context, userID, id int64, in BudgetUpdate) (*models.Budget, error) {
	var updated *models.Budget
	err := s.withUser(ctx, "update_budget", userID, func(c *command) error {
		b, err := c.budgets.GetByID(c.ctx, userID, id)
		if err != nil {
			return err
		}
		before := b.Status

		if in.AmountLimit != nil {
			if err := b.SetAmountLimit(*in.AmountLimit); err != nil {
				return err
			}
		}
		rangeChanged := false
		if in.EndDate != nil {
			if err := b.ExtendEndDate(*in.EndDate); err != nil {
				return err
			}
			rangeChanged = true
		}
		if in.CategoryID != nil && *in.CategoryID != b.Category.ID {
			attached, err := c.transactions.ExistsAttachedToBudget(c.ctx, b)
			if err != nil {
				return err
			}
			if attached {
				return models.ErrCategoryInUse
			}
			category, err := c.categories.GetByID(c.ctx, userID, *in.CategoryID)
			if err != nil {
				return err
			}
			b.Category = category.Snapshot()
			rangeChanged = true
		}

		if rangeChanged {
			// Store the new category or range before backfilling against it.
			if err := c.budgets.Update(c.ctx, b); err != nil {
				return err
			}
			if err := c.attachAndRecompute(b, before); err != nil {
				return err
			}
		} else if err := c.recomputeBudget(b, before); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteBudget detaches the budget's transactions and removes it.
func (s *Service) DeleteBudget(ctx context.Context, userID, id int64) error {
	return s.withUser(ctx, "delete_budget", userID, func(c *command) error {
		if _, err := c.budgets.GetByID(c.ctx, userID, id); err != nil {
			return err
		}
		if _, err := c.transactions.DetachFromBudget(c.ctx, userID, id); err != nil {
			return err
		}
		return c.budgets.Delete(c.ctx, userID, id)
	})
}

// GetBudget returns one budget after closing it if its period has ended.
func (s *Service) GetBudget(ctx context.Context, userID, id int64) (*models.Budget, error) {
	var b *models.Budget
	err := s.withUser(ctx, "get_budget", userID, func(c *command) error {
		var err error
		if b, err = c.budgets.GetByID(c.ctx, userID, id); err != nil {
			return err
		}
		_, err = c.expireBudget(b)
		return err
	})
	return b, err
}

// ListBudgets returns one page of the user's budgets ordered by end date.
// Budgets whose period has ended are closed on the way.
func (s *Service) ListBudgets(ctx context.Context, userID int64, page int) (Page[models.Budget], error) {
	var result Page[models.Budget]
	err := s.withUser(ctx, "list_budgets", userID, func(c *command) error {
		budgets, total, err := c.budgets.List(c.ctx, userID, page)
		if err != nil {
			return err
		}
		for i := range budgets {
			if _, err := c.expireBudget(&budgets[i]); err != nil {
				return err
			}
		}
		result = newPage(budgets, page, total)
		return nil
	})
	return result, err
}

// InProgressBudgets returns the open budgets of a category that cover now.
func (s *Service) InProgressBudgets(ctx context.Context, userID, categoryID int64) ([]models.Budget, error) {
	var open []models.Budget
	err := s.withUser(ctx, "in_progress_budgets", userID, func(c *command) error {
		budgets, err := c.budgets.ListInProgress(c.ctx, userID, categoryID, c.now)
		if err != nil {
			return err
		}
		for i := range budgets {
			closed, err := c.expireBudget(&budgets[i])
			if err != nil {
				return err
			}
			if !closed {
				open = append(open, budgets[i])
			}
		}
		return nil
	})
	return open, err
}
