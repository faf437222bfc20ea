package database

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/finance-ledger/internal/models"
)

// RunMigrations creates the database schema.
func RunMigrations(ctx context.Context, db PGXDB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY,
			username TEXT,
			first_name TEXT,
			currency TEXT NOT NULL DEFAULT 'SGD',
			current_balance NUMERIC(14, 2) NOT NULL DEFAULT 0,
			total_savings NUMERIC(14, 2) NOT NULL DEFAULT 0 CHECK (total_savings >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			message TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			read BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications(user_id, created_at DESC, id DESC)`,

		`CREATE TABLE IF NOT EXISTS categories (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_user_name ON categories(user_id, LOWER(name))`,

		`CREATE TABLE IF NOT EXISTS budgets (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			category_id BIGINT NOT NULL REFERENCES categories(id),
			category_name TEXT NOT NULL,
			amount_limit NUMERIC(14, 2) NOT NULL CHECK (amount_limit > 0),
			current_amount NUMERIC(14, 2) NOT NULL DEFAULT 0 CHECK (current_amount >= 0),
			start_date TIMESTAMPTZ NOT NULL,
			end_date TIMESTAMPTZ NOT NULL,
			status TEXT NOT NULL DEFAULT 'in-progress' CHECK (status IN ('in-progress', 'over')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CHECK (end_date > start_date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_budgets_user_category ON budgets(user_id, category_id)`,
		`CREATE INDEX IF NOT EXISTS idx_budgets_status_end ON budgets(status, end_date)`,

		`CREATE TABLE IF NOT EXISTS savings (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			target_amount NUMERIC(14, 2) NOT NULL CHECK (target_amount > 0),
			current_amount NUMERIC(14, 2) NOT NULL DEFAULT 0 CHECK (current_amount >= 0),
			start_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			end_date TIMESTAMPTZ NOT NULL,
			status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'paused', 'completed')),
			notes TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CHECK (end_date > start_date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_savings_user_id ON savings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_savings_status_end ON savings(status, end_date)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			amount NUMERIC(14, 2) NOT NULL CHECK (amount > 0),
			date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			type TEXT NOT NULL CHECK (type IN ('income', 'expense', 'saving')),
			notes TEXT NOT NULL DEFAULT '',
			category_id BIGINT REFERENCES categories(id),
			category_name TEXT,
			budget_id BIGINT REFERENCES budgets(id),
			saving_id BIGINT REFERENCES savings(id),
			saving_title TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CHECK (
				(type = 'saving' AND saving_id IS NOT NULL AND category_id IS NULL AND budget_id IS NULL) OR
				(type = 'income' AND category_id IS NOT NULL AND saving_id IS NULL AND budget_id IS NULL) OR
				(type = 'expense' AND category_id IS NOT NULL AND saving_id IS NULL)
			)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions(user_id, date DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_budget_id ON transactions(budget_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_saving_id ON transactions(saving_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_category_id ON transactions(category_id)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

// SeedCategories inserts the default categories for a user. Existing names
// are left alone.
func SeedCategories(ctx context.Context, db PGXDB, userID int64) error {
	for _, cat := range models.DefaultCategories {
		_, err := db.Exec(ctx,
			`INSERT INTO categories (user_id, name) VALUES ($1, $2)
			 ON CONFLICT (user_id, LOWER(name)) DO NOTHING`,
			userID, cat,
		)
		if err != nil {
			return fmt.Errorf("failed to seed category %q: %w", cat, err)
		}
	}

	return nil
}
