package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/finance-ledger/internal/models"
)

// NewSaving is the input of AddSaving. The goal starts now.
type NewSaving struct {
	Title        string
	TargetAmount decimal.Decimal
	EndDate      time.Time
	Notes        string
}

// AddSaving creates an active saving goal.
func (s *Service) AddSaving(ctx context.Context, userID int64, in NewSaving) (*models.Saving, error) {
	var created *models.Saving
	err := s.withUser(ctx, "add_saving", userID, func(c *command) error {
		goal, err := models.NewSaving(userID, in.Title, in.TargetAmount, in.EndDate, in.Notes, c.now)
		if err != nil {
			return err
		}
		if err := c.savings.Create(c.ctx, goal); err != nil {
			return err
		}
		created = goal
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// SavingUpdate holds the mutable fields of a saving goal. Nil fields are
// left unchanged.
type SavingUpdate struct {
	TargetAmount *decimal.Decimal
	EndDate      *time.Time
	Notes        *string
}

// UpdateSaving changes the target, end date or notes of a goal and
// re-derives its status.
func (s *Service) UpdateSaving(ctx context.Context, userID, id int64, in SavingUpdate) (*models.Saving, error) {
	var updated *models.Saving
	err := s.withUser(ctx, "update_saving", userID, func(c *command) error {
		goal, err := c.savings.GetByID(c.ctx, userID, id)
		if err != nil {
			return err
		}
		before := goal.Status

		if in.TargetAmount != nil {
			if err := goal.SetTargetAmount(*in.TargetAmount); err != nil {
				return err
			}
		}
		if in.EndDate != nil {
			if err := goal.ExtendEndDate(*in.EndDate); err != nil {
				return err
			}
		}
		if in.Notes != nil {
			if err := goal.SetNotes(*in.Notes); err != nil {
				return err
			}
		}
		if err := c.recomputeSaving(goal, before); err != nil {
			return err
		}
		updated = goal
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteSaving moves everything contributed to the goal back to the balance,
// then removes its transactions and the goal.
func (s *Service) DeleteSaving(ctx context.Context, userID, id int64) error {
	return s.withUser(ctx, "delete_saving", userID, func(c *command) error {
		if _, err := c.savings.GetByID(c.ctx, userID, id); err != nil {
			return err
		}
		total, err := c.transactions.SumAllForSaving(c.ctx, userID, id)
		if err != nil {
			return err
		}
		if total.IsPositive() {
			if err := c.account.DecrementTotalSaving(total); err != nil {
				return err
			}
		}
		if _, err := c.transactions.DeleteBySaving(c.ctx, userID, id); err != nil {
			return err
		}
		return c.savings.Delete(c.ctx, userID, id)
	})
}

// PauseSaving stops contributions to a goal.
func (s *Service) PauseSaving(ctx context.Context, userID, id int64) (*models.Saving, error) {
	var goal *models.Saving
	err := s.withUser(ctx, "pause_saving", userID, func(c *command) error {
		var err error
		if goal, err = c.savings.GetByID(c.ctx, userID, id); err != nil {
			return err
		}
		if err := goal.Pause(); err != nil {
			return err
		}
		return c.savings.Update(c.ctx, goal)
	})
	if err != nil {
		return nil, err
	}
	return goal, nil
}

// ResumeSaving reactivates a paused goal with an end date no earlier than
// the current one.
func (s *Service) ResumeSaving(ctx context.Context, userID, id int64, endDate time.Time) (*models.Saving, error) {
	var goal *models.Saving
	err := s.withUser(ctx, "resume_saving", userID, func(c *command) error {
		var err error
		if goal, err = c.savings.GetByID(c.ctx, userID, id); err != nil {
			return err
		}
		if err := goal.Resume(endDate); err != nil {
			return err
		}
		return c.savings.Update(c.ctx, goal)
	})
	if err != nil {
		return nil, err
	}
	return goal, nil
}

// GetSaving returns one goal after closing it if its period has ended.
func (s *Service) GetSaving(ctx context.Context, userID, id int64) (*models.Saving, error) {
	var goal *models.Saving
	err := s.withUser(ctx, "get_saving", userID, func(c *command) error {
		var err error
		if goal, err = c.savings.GetByID(c.ctx, userID, id); err != nil {
			return err
		}
		_, err = c.expireSaving(goal)
		return err
	})
	return goal, err
}

// ListSavings returns one page of the user's goals ordered by end date.
// Goals whose period has ended are completed on the way.
func (s *Service) ListSavings(ctx context.Context, userID int64, page int) (Page[models.Saving], error) {
	var result Page[models.Saving]
	err := s.withUser(ctx, "list_savings", userID, func(c *command) error {
		savings, total, err := c.savings.List(c.ctx, userID, page)
		if err != nil {
			return err
		}
		for i := range savings {
			if _, err := c.expireSaving(&savings[i]); err != nil {
				return err
			}
		}
		result = newPage(savings, page, total)
		return nil
	})
	return result, err
}

// ActiveSavings returns the goals that currently accept contributions.
func (s *Service) ActiveSavings(ctx context.Context, userID int64) ([]models.Saving, error) {
	var open []models.Saving
	err := s.withUser(ctx, "active_savings", userID, func(c *command) error {
		savings, err := c.savings.ListActive(c.ctx, userID, c.now)
		if err != nil {
			return err
		}
		for i := range savings {
			closed, err := c.expireSaving(&savings[i])
			if err != nil {
				return err
			}
			if !closed {
				open = append(open, savings[i])
			}
		}
		return nil
	})
	return open, err
}
