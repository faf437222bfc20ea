package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"gitlab.com/yelinaung/finance-ledger/internal/logger"
	"gitlab.com/yelinaung/finance-ledger/internal/models"
	"gitlab.com/yelinaung/finance-ledger/internal/repository"
)

// DefaultSweepBatch bounds how many envelopes of each kind one sweep visits.
const DefaultSweepBatch = 500

// SweepResult counts the envelopes a sweep closed.
type SweepResult struct {
	Budgets int
	Savings int
}

// SweepExpired closes in-progress budgets and active goals whose period has
// ended and notifies their owners. Users are processed one at a time under
// their account lock; a failure for one user does not stop the others.
func (s *Service) SweepExpired(ctx context.Context, batch int) (SweepResult, error) {
	if batch <= 0 {
		batch = DefaultSweepBatch
	}
	now := s.now()

	budgets, err := repository.NewBudgetRepository(s.db).ListExpired(ctx, now, batch)
	if err != nil {
		return SweepResult{}, err
	}
	savings, err := repository.NewSavingRepository(s.db).ListExpired(ctx, now, batch)
	if err != nil {
		return SweepResult{}, err
	}

	type due struct{ budgets, savings []int64 }
	byUser := make(map[int64]*due)
	get := func(userID int64) *due {
		d, ok := byUser[userID]
		if !ok {
			d = &due{}
			byUser[userID] = d
		}
		return d
	}
	for _, b := range budgets {
		get(b.UserID).budgets = append(get(b.UserID).budgets, b.ID)
	}
	for _, sv := range savings {
		get(sv.UserID).savings = append(get(sv.UserID).savings, sv.ID)
	}

	userIDs := make([]int64, 0, len(byUser))
	for id := range byUser {
		userIDs = append(userIDs, id)
	}
	slices.Sort(userIDs)

	var (
		result SweepResult
		errs   []error
	)
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		d := byUser[userID]
		var closed SweepResult
		err := s.withUser(ctx, "sweep_user", userID, func(c *command) error {
			closed = SweepResult{}
			for _, id := range d.budgets {
				b, err := c.budgets.GetByID(c.ctx, userID, id)
				if err != nil {
					return err
				}
				if b.Status == models.BudgetStatusOver {
					continue
				}
				if _, err := c.expireBudget(b); err != nil {
					return err
				}
				if b.Status == models.BudgetStatusOver {
					closed.Budgets++
				}
			}
			for _, id := range d.savings {
				sv, err := c.savings.GetByID(c.ctx, userID, id)
				if err != nil {
					return err
				}
				if sv.Status != models.SavingStatusActive {
					continue
				}
				if _, err := c.expireSaving(sv); err != nil {
					return err
				}
				if sv.Status == models.SavingStatusCompleted {
					closed.Savings++
				}
			}
			return nil
		})
		if err != nil {
			logger.Log.Error().Err(err).Str("user", logger.HashUserID(userID)).Msg("Failed to sweep expired envelopes")
			errs = append(errs, fmt.Errorf("sweep user %s: %w", logger.HashUserID(userID), err))
			continue
		}
		result.Budgets += closed.Budgets
		result.Savings += closed.Savings
	}

	if result.Budgets > 0 || result.Savings > 0 {
		logger.Log.Info().
			Int("budgets", result.Budgets).
			Int("savings", result.Savings).
			Int("users", len(userIDs)).
			Msg("Closed expired envelopes")
	}
	return result, errors.Join(errs...)
}
