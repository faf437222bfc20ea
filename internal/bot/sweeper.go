package bot

import (
	"context"
	"time"

	"gitlab.com/yelinaung/finance-ledger/internal/ledger"
	"gitlab.com/yelinaung/finance-ledger/internal/logger"
)

// SweepTimeout is the maximum time a single sweep can take.
const SweepTimeout = 2 * time.Minute

// startSweepLoop periodically closes budgets and saving goals whose period
// has ended, so their owners are notified without having to touch them.
func (b *Bot) startSweepLoop(ctx context.Context) {
	if !b.cfg.SweepEnabled {
		logger.Log.Info().Msg("Expiry sweeper is disabled")
		return
	}

	interval := b.cfg.SweepInterval
	if interval <= 0 {
		interval = time.Hour
	}
	logger.Log.Info().Dur("interval", interval).Msg("Expiry sweeper started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	select {
	case <-ctx.Done():
		logger.Log.Info().Msg("Expiry sweeper stopped")
		return
	default:
	}

	// Run once immediately so envelopes that ended while the process was
	// down are closed on startup.
	b.runSweep(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info().Msg("Expiry sweeper stopped")
			return
		case <-ticker.C:
			b.runSweep(ctx)
		}
	}
}

// runSweep runs one bounded sweep and logs its outcome.
func (b *Bot) runSweep(ctx context.Context) ledger.SweepResult {
	sweepCtx, cancel := context.WithTimeout(ctx, SweepTimeout)
	defer cancel()

	result, err := b.ledger.SweepExpired(sweepCtx, ledger.DefaultSweepBatch)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Expiry sweep failed")
		return result
	}
	if result.Budgets > 0 || result.Savings > 0 {
		logger.Log.Info().
			Int("budgets", result.Budgets).
			Int("savings", result.Savings).
			Msg("Closed expired envelopes")
	}
	return result
}
