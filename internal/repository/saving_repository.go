package repository

import (
	"context"
	"fmt"
	"time"

	"gitlab.com/yelinaung/finance-ledger/internal/database"
	"gitlab.com/yelinaung/finance-ledger/internal/models"
)

const savingColumns = `id, user_id, title, target_amount, current_amount, start_date, end_date,
	status, notes, created_at, updated_at`

// SavingRepository handles saving goal database operations.
type SavingRepository struct {
	db database.PGXDB
}

// NewSavingRepository creates a new SavingRepository.
func NewSavingRepository(db database.PGXDB) *SavingRepository {
	return &SavingRepository{db: db}
}

func scanSaving(row rowScanner, s *models.Saving) error {
	return row.Scan(&s.ID, &s.UserID, &s.Title, &s.TargetAmount, &s.CurrentAmount, &s.StartDate, &s.EndDate,
		&s.Status, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
}

// Create inserts a saving goal and fills in its ID and timestamps.
func (r *SavingRepository) Create(ctx context.Context, s *models.Saving) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO savings (user_id, title, target_amount, current_amount, start_date, end_date, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, s.UserID, s.Title, s.TargetAmount, s.CurrentAmount, s.StartDate, s.EndDate, s.Status, s.Notes,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create saving: %w", err)
	}
	return nil
}

// GetByID retrieves one of the user's saving goals.
func (r *SavingRepository) GetByID(ctx context.Context, userID, id int64) (*models.Saving, error) {
	var s models.Saving
	err := scanSaving(r.db.QueryRow(ctx, `
		SELECT `+savingColumns+` FROM savings WHERE user_id = $1 AND id = $2
	`, userID, id), &s)
	if err != nil {
		return nil, wrapGet(err, "saving")
	}
	return &s, nil
}

// List returns one page of the user's goals ordered by end date, and the
// total number of goals.
func (r *SavingRepository) List(ctx context.Context, userID int64, page int) ([]models.Saving, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM savings WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count savings: %w", err)
	}

	savings, err := r.query(ctx, `
		SELECT `+savingColumns+` FROM savings
		WHERE user_id = $1
		ORDER BY end_date ASC, id ASC
		LIMIT $2 OFFSET $3
	`, userID, models.PageSize, offset(page, models.PageSize))
	if err != nil {
		return nil, 0, err
	}
	return savings, total, nil
}

// GetAllByUser returns every goal of the user.
func (r *SavingRepository) GetAllByUser(ctx context.Context, userID int64) ([]models.Saving, error) {
	return r.query(ctx, `
		SELECT `+savingColumns+` FROM savings WHERE user_id = $1 ORDER BY id
	`, userID)
}

// ListActive returns the user's active goals that cover now.
func (r *SavingRepository) ListActive(ctx context.Context, userID int64, now time.Time) ([]models.Saving, error) {
	return r.query(ctx, `
		SELECT `+savingColumns+` FROM savings
		WHERE user_id = $1 AND status = $2 AND start_date <= $3 AND end_date >= $3
		ORDER BY end_date ASC, id ASC
	`, userID, models.SavingStatusActive, now)
}

// ListExpired returns active goals of all users whose end date is at or
// before now.
func (r *SavingRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]models.Saving, error) {
	return r.query(ctx, `
		SELECT `+savingColumns+` FROM savings
		WHERE status = $1 AND end_date <= $2
		ORDER BY end_date ASC, id ASC
		LIMIT $3
	`, models.SavingStatusActive, now, limit)
}

// Update stores every mutable field of s.
func (r *SavingRepository) Update(ctx context.Context, s *models.Saving) error {
	err := r.db.QueryRow(ctx, `
		UPDATE savings SET
			target_amount = $3,
			current_amount = $4,
			end_date = $5,
			status = $6,
			notes = $7,
			updated_at = NOW()
		WHERE user_id = $1 AND id = $2
		RETURNING updated_at
	`, s.UserID, s.ID, s.TargetAmount, s.CurrentAmount, s.EndDate, s.Status, s.Notes).Scan(&s.UpdatedAt)
	if err != nil {
		return wrapUpdate(err, "saving")
	}
	return nil
}

// Delete removes a saving goal by ID.
func (r *SavingRepository) Delete(ctx context.Context, userID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM savings WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete saving: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.NotFound("saving")
	}
	return nil
}

func (r *SavingRepository) query(ctx context.Context, sql string, args ...any) ([]models.Saving, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query savings: %w", err)
	}
	defer rows.Close()

	var savings []models.Saving
	for rows.Next() {
		var s models.Saving
		if err := scanSaving(rows, &s); err != nil {
			return nil, fmt.Errorf("failed to scan saving: %w", err)
		}
		savings = append(savings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating savings: %w", err)
	}
	return savings, nil
}
