package bot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/finance-ledger/internal/config"
	"gitlab.com/yelinaung/finance-ledger/internal/database"
	"gitlab.com/yelinaung/finance-ledger/internal/models"
)

func TestStartSweepLoop_Disabled(t *testing.T) {
	t.Parallel()

	b := &Bot{cfg: &config.Config{SweepEnabled: false}}

	done := make(chan struct{})
	go func() {
		b.startSweepLoop(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled sweeper should return immediately")
	}
}

func TestStartSweepLoop_StopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	b := &Bot{cfg: &config.Config{SweepEnabled: true, SweepInterval: time.Hour}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		b.startSweepLoop(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper should stop when the context is already cancelled")
	}
}

func TestRunSweep(t *testing.T) {
	t.Parallel()

	tx := database.TestTx(t)
	ctx := context.Background()
	userID := int64(6000010)

	during := newTestBot(tx, testNow)
	registerTestUser(t, during, userID)
	send(t, during.handleIncomeCore, userID, "/income 100 Salary")
	send(t, during.handleBudgetCore, userID, "/budget 50 2024-01-01 2024-01-31 Food - Grocery")
	send(t, during.handleGoalCore, userID, "/goal 500 2024-01-31 Bike")

	after := newTestBot(tx, time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC))
	result := after.runSweep(ctx)
	require.GreaterOrEqual(t, result.Budgets, 1)
	require.GreaterOrEqual(t, result.Savings, 1)

	notifications, unread, err := after.ledger.Notifications(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 2, unread)
	for _, n := range notifications {
		require.Contains(t, n.Message, "has ended")
	}

	page, err := after.ledger.ListBudgets(ctx, userID, 1)
	require.NoError(t, err)
	require.Equal(t, models.BudgetStatusOver, page.Items[0].Status)
}
