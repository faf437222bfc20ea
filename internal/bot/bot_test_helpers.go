package bot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/finance-ledger/internal/config"
	"gitlab.com/yelinaung/finance-ledger/internal/database"
	"gitlab.com/yelinaung/finance-ledger/internal/ledger"
	"gitlab.com/yelinaung/finance-ledger/internal/models"
)

// testNow is the fixed ledger clock used by handler tests.
var testNow = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

// setupTestBot creates a Bot backed by a ledger on a rolled-back test
// transaction. Skips when TEST_DATABASE_URL is not set.
func setupTestBot(t *testing.T) *Bot {
	t.Helper()
	return newTestBot(database.TestTx(t), testNow)
}

// newTestBot creates a Bot whose ledger runs on db with a fixed clock.
func newTestBot(db database.DB, now time.Time) *Bot {
	cfg := &config.Config{
		TelegramBotToken:   "test-token",
		DefaultCurrency:    "SGD",
		WhitelistedUserIDs: []int64{6000001},
		CommandTimeout:     5 * time.Second,
	}

	return &Bot{
		cfg:    cfg,
		ledger: ledger.New(db, ledger.WithClock(func() time.Time { return now })),
	}
}

// registerTestUser registers userID with the default categories.
func registerTestUser(t *testing.T, b *Bot, userID int64) {
	t.Helper()
	_, err := b.ledger.RegisterUser(context.Background(), &models.User{
		ID:        userID,
		Username:  "testuser",
		FirstName: "Test",
	})
	require.NoError(t, err)
}
