package database

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TestDB returns a database connection pool for testing.
// Skips the test if TEST_DATABASE_URL is not set.
func TestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	pool, err := Connect(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
	})

	return pool
}

// CreateTestUser inserts a bare user row with zero balances.
func CreateTestUser(t *testing.T, db PGXDB, id int64) {
	t.Helper()

	_, err := db.Exec(context.Background(),
		`INSERT INTO users (id, username, first_name) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO NOTHING`,
		id, "tester", "Test",
	)
	if err != nil {
		t.Fatalf("failed to create test user %d: %v", id, err)
	}
}
