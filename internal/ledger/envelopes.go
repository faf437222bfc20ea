package ledger

import (
	"fmt"

	"gitlab.com/yelinaung/finance-ledger/internal/models"
)

// recomputeBudget re-sums the budget from its attached expenses, re-derives
// its status and stores it. A notification is queued when the budget was not
// over before and now is over its limit, or when this recompute is what
// closed it at the end of its period.
func (c *command) recomputeBudget(b *models.Budget, before models.BudgetStatus) error {
	total, err := c.transactions.SumForBudget(c.ctx, b)
	if err != nil {
		return err
	}
	b.ApplyCurrentAmount(total)
	b.Reactivate(c.now)
	_, expired := b.CheckExpired(c.now)

	if err := c.budgets.Update(c.ctx, b); err != nil {
		return err
	}
	if before == models.BudgetStatusOver || b.Status != models.BudgetStatusOver {
		return nil
	}
	if expired {
		c.notifyBudgetEnded(b)
		return nil
	}
	c.notify(fmt.Sprintf("Your budget for %s has exceeded its limit of %s (spent %s).",
		b.Category.Name, b.AmountLimit.StringFixed(2), b.CurrentAmount.StringFixed(2)))
	return nil
}

// recomputeSaving re-sums the goal from its contributions, re-derives its
// status and stores it. A notification is queued when the goal was not
// completed before and its target is now reached, or when this recompute is
// what closed it at the end of its period.
func (c *command) recomputeSaving(s *models.Saving, before models.SavingStatus) error {
	total, err := c.transactions.SumForSaving(c.ctx, s)
	if err != nil {
		return err
	}
	s.ApplyCurrentAmount(total)
	s.Reactivate(c.now)
	_, expired := s.CheckExpired(c.now)

	if err := c.savings.Update(c.ctx, s); err != nil {
		return err
	}
	if before == models.SavingStatusCompleted || s.Status != models.SavingStatusCompleted {
		return nil
	}
	if expired {
		c.notifySavingEnded(s)
		return nil
	}
	c.notify(fmt.Sprintf("Congratulations! You reached your saving goal %q of %s.",
		s.Title, s.TargetAmount.StringFixed(2)))
	return nil
}

// expireBudget closes a budget whose period has ended. It reports whether
// the budget is closed; the row is written only when its status changed.
func (c *command) expireBudget(b *models.Budget) (bool, error) {
	closed, changed := b.CheckExpired(c.now)
	if !changed {
		return closed, nil
	}
	if err := c.budgets.Update(c.ctx, b); err != nil {
		return closed, err
	}
	c.notifyBudgetEnded(b)
	return closed, nil
}

// expireSaving closes a goal whose period has ended. Paused and completed
// goals count as closed without a write.
func (c *command) expireSaving(s *models.Saving) (bool, error) {
	closed, changed := s.CheckExpired(c.now)
	if !changed {
		return closed, nil
	}
	if err := c.savings.Update(c.ctx, s); err != nil {
		return closed, err
	}
	c.notifySavingEnded(s)
	return closed, nil
}

func (c *command) notifyBudgetEnded(b *models.Budget) {
	c.notify(fmt.Sprintf("Your budget period for %s has ended (spent %s of %s).",
		b.Category.Name, b.CurrentAmount.StringFixed(2), b.AmountLimit.StringFixed(2)))
}

func (c *command) notifySavingEnded(s *models.Saving) {
	c.notify(fmt.Sprintf("Your saving goal period for %q has ended (saved %s of %s).",
		s.Title, s.CurrentAmount.StringFixed(2), s.TargetAmount.StringFixed(2)))
}
