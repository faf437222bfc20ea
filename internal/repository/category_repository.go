package repository

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/finance-ledger/internal/database"
	"gitlab.com/yelinaung/finance-ledger/internal/models"
)

// CategoryRepository handles per-user category operations.
type CategoryRepository struct {
	db database.PGXDB
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db database.PGXDB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// GetAll retrieves all categories of a user ordered by name.
func (r *CategoryRepository) GetAll(ctx context.Context, userID int64) ([]models.Category, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, name, created_at FROM categories
		WHERE user_id = $1
		ORDER BY name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.UserID, &cat.Name, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

// GetByID retrieves one of the user's categories.
func (r *CategoryRepository) GetByID(ctx context.Context, userID, id int64) (*models.Category, error) {
	var cat models.Category
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, name, created_at FROM categories WHERE user_id = $1 AND id = $2
	`, userID, id).Scan(&cat.ID, &cat.UserID, &cat.Name, &cat.CreatedAt)
	if err != nil {
		return nil, wrapGet(err, "category")
	}
	return &cat, nil
}

// GetByName retrieves a category by name (case-insensitive).
func (r *CategoryRepository) GetByName(ctx context.Context, userID int64, name string) (*models.Category, error) {
	var cat models.Category
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, name, created_at FROM categories
		WHERE user_id = $1 AND LOWER(name) = LOWER($2)
	`, userID, name).Scan(&cat.ID, &cat.UserID, &cat.Name, &cat.CreatedAt)
	if err != nil {
		return nil, wrapGet(err, "category")
	}
	return &cat, nil
}

// Create adds a new category for the user.
func (r *CategoryRepository) Create(ctx context.Context, userID int64, name string) (*models.Category, error) {
	var cat models.Category
	err := r.db.QueryRow(ctx, `
		INSERT INTO categories (user_id, name) VALUES ($1, $2)
		RETURNING id, user_id, name, created_at
	`, userID, name).Scan(&cat.ID, &cat.UserID, &cat.Name, &cat.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.Validationf("category %q already exists", name)
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &cat, nil
}

// Update renames a category. Snapshots on budgets and transactions keep
// the old name.
func (r *CategoryRepository) Update(ctx context.Context, userID, id int64, name string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE categories SET name = $3 WHERE user_id = $1 AND id = $2
	`, userID, id, name)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Validationf("category %q already exists", name)
		}
		return fmt.Errorf("failed to update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.NotFound("category")
	}
	return nil
}

// Delete removes a category by ID.
func (r *CategoryRepository) Delete(ctx context.Context, userID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.NotFound("category")
	}
	return nil
}

// IsInUse reports whether any transaction or budget references the category.
func (r *CategoryRepository) IsInUse(ctx context.Context, userID, id int64) (bool, error) {
	var inUse bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM transactions WHERE user_id = $1 AND category_id = $2)
		    OR EXISTS (SELECT 1 FROM budgets WHERE user_id = $1 AND category_id = $2)
	`, userID, id).Scan(&inUse)
	if err != nil {
		return false, fmt.Errorf("failed to check category usage: %w", err)
	}
	return inUse, nil
}
