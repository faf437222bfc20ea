package repository

import (
	"context"
	"fmt"
	"time"

	"gitlab.com/yelinaung/finance-ledger/internal/database"
	"gitlab.com/yelinaung/finance-ledger/internal/models"
)

const budgetColumns = `id, user_id, category_id, category_name, amount_limit, current_amount,
	start_date, end_date, status, created_at, updated_at`

// BudgetRepository handles budget database operations.
type BudgetRepository struct {
	db database.PGXDB
}

// NewBudgetRepository creates a new BudgetRepository.
func NewBudgetRepository(db database.PGXDB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

func scanBudget(row rowScanner, b *models.Budget) error {
	return row.Scan(&b.ID, &b.UserID, &b.Category.ID, &b.Category.Name, &b.AmountLimit, &b.CurrentAmount,
		&b.StartDate, &b.EndDate, &b.Status, &b.CreatedAt, &b.UpdatedAt)
}

// Create inserts a budget and fills in its ID and timestamps.
func (r *BudgetRepository) Create(ctx context.Context, b *models.Budget) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO budgets (user_id, category_id, category_name, amount_limit, current_amount, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, b.UserID, b.Category.ID, b.Category.Name, b.AmountLimit, b.CurrentAmount,
		b.StartDate, b.EndDate, b.Status,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create budget: %w", err)
	}
	return nil
}

// GetByID retrieves one of the user's budgets.
func (r *BudgetRepository) GetByID(ctx context.Context, userID, id int64) (*models.Budget, error) {
	var b models.Budget
	err := scanBudget(r.db.QueryRow(ctx, `
		SELECT `+budgetColumns+` FROM budgets WHERE user_id = $1 AND id = $2
	`, userID, id), &b)
	if err != nil {
		return nil, wrapGet(err, "budget")
	}
	return &b, nil
}

// List returns one page of the user's budgets ordered by end date, and the
// total number of budgets.
func (r *BudgetRepository) List(ctx context.Context, userID int64, page int) ([]models.Budget, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM budgets WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count budgets: %w", err)
	}

	budgets, err := r.query(ctx, `
		SELECT `+budgetColumns+` FROM budgets
		WHERE user_id = $1
		ORDER BY end_date ASC, id ASC
		LIMIT $2 OFFSET $3
	`, userID, models.PageSize, offset(page, models.PageSize))
	if err != nil {
		return nil, 0, err
	}
	return budgets, total, nil
}

// GetAllByUser returns every budget of the user.
func (r *BudgetRepository) GetAllByUser(ctx context.Context, userID int64) ([]models.Budget, error) {
	return r.query(ctx, `
		SELECT `+budgetColumns+` FROM budgets WHERE user_id = $1 ORDER BY id
	`, userID)
}

// ListInProgress returns the user's in-progress budgets for a category that
// cover now.
func (r *BudgetRepository) ListInProgress(ctx context.Context, userID, categoryID int64, now time.Time) ([]models.Budget, error) {
	return r.query(ctx, `
		SELECT `+budgetColumns+` FROM budgets
		WHERE user_id = $1 AND category_id = $2 AND status = $3
		  AND start_date <= $4 AND end_date >= $4
		ORDER BY end_date ASC, id ASC
	`, userID, categoryID, models.BudgetStatusInProgress, now)
}

// ListExpired returns in-progress budgets of all users whose end date is at
// or before now.
func (r *BudgetRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]models.Budget, error) {
	return r.query(ctx, `
		SELECT `+budgetColumns+` FROM budgets
		WHERE status = $1 AND end_date <= $2
		ORDER BY end_date ASC, id ASC
		LIMIT $3
	`, models.BudgetStatusInProgress, now, limit)
}

// ExistsOverlap reports whether another budget of the same user and category
// intersects b's closed date range.
func (r *BudgetRepository) ExistsOverlap(ctx context.Context, b *models.Budget) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM budgets
			WHERE user_id = $1 AND category_id = $2 AND id <> $3
			  AND start_date <= $5 AND end_date >= $4
		)
	`, b.UserID, b.Category.ID, b.ID, b.StartDate, b.EndDate).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check budget overlap: %w", err)
	}
	return exists, nil
}

// Update stores every mutable field of b.
func (r *BudgetRepository) Update(ctx context.Context, b *models.Budget) error {
	err := r.db.QueryRow(ctx, `
		UPDATE budgets SET
			category_id = $3,
			category_name = $4,
			amount_limit = $5,
			current_amount = $6,
			end_date = $7,
			status = $8,
			updated_at = NOW()
		WHERE user_id = $1 AND id = $2
		RETURNING updated_at
	`, b.UserID, b.ID, b.Category.ID, b.Category.Name, b.AmountLimit, b.CurrentAmount,
		b.EndDate, b.Status).Scan(&b.UpdatedAt)
	if err != nil {
		return wrapUpdate(err, "budget")
	}
	return nil
}

// Delete removes a budget by ID.
func (r *BudgetRepository) Delete(ctx context.Context, userID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM budgets WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.NotFound("budget")
	}
	return nil
}

func (r *BudgetRepository) query(ctx context.Context, sql string, args ...any) ([]models.Budget, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer rows.Close()

	var budgets []models.Budget
	for rows.Next() {
		var b models.Budget
		if err := scanBudget(rows, &b); err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budgets: %w", err)
	}
	return budgets, nil
}
