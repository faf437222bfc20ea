package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/finance-ledger/internal/database"
	"gitlab.com/yelinaung/finance-ledger/internal/models"
)

const transactionColumns = `id, user_id, amount, date, type, notes, category_id, category_name,
	budget_id, saving_id, saving_title, created_at, updated_at`

// TransactionRepository handles transaction database operations and the
// scoped sums envelopes are derived from.
type TransactionRepository struct {
	db database.PGXDB
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db database.PGXDB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func scanTransaction(row rowScanner, tx *models.Transaction) error {
	var (
		categoryID, savingID     *int64
		categoryName, savingName *string
	)
	if err := row.Scan(&tx.ID, &tx.UserID, &tx.Amount, &tx.Date, &tx.Type, &tx.Notes,
		&categoryID, &categoryName, &tx.BudgetID, &savingID, &savingName,
		&tx.CreatedAt, &tx.UpdatedAt); err != nil {
		return err
	}
	tx.Category = nil
	if categoryID != nil {
		tx.Category = &models.CategorySnapshot{ID: *categoryID}
		if categoryName != nil {
			tx.Category.Name = *categoryName
		}
	}
	tx.Saving = nil
	if savingID != nil {
		tx.Saving = &models.SavingSnapshot{ID: *savingID}
		if savingName != nil {
			tx.Saving.Title = *savingName
		}
	}
	return nil
}

// Create inserts a transaction with its snapshots.
func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	var (
		categoryID, savingID     *int64
		categoryName, savingName *string
	)
	if tx.Category != nil {
		categoryID, categoryName = &tx.Category.ID, &tx.Category.Name
	}
	if tx.Saving != nil {
		savingID, savingName = &tx.Saving.ID, &tx.Saving.Title
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO transactions (user_id, amount, date, type, notes, category_id, category_name,
		                          budget_id, saving_id, saving_title)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`, tx.UserID, tx.Amount, tx.Date, tx.Type, tx.Notes, categoryID, categoryName,
		tx.BudgetID, savingID, savingName,
	).Scan(&tx.ID, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetByID retrieves one of the user's transactions.
func (r *TransactionRepository) GetByID(ctx context.Context, userID, id int64) (*models.Transaction, error) {
	var tx models.Transaction
	err := scanTransaction(r.db.QueryRow(ctx, `
		SELECT `+transactionColumns+` FROM transactions WHERE user_id = $1 AND id = $2
	`, userID, id), &tx)
	if err != nil {
		return nil, wrapGet(err, "transaction")
	}
	return &tx, nil
}

// List returns one page of the user's transactions, newest first, and the
// total number of transactions.
func (r *TransactionRepository) List(ctx context.Context, userID int64, page int) ([]models.Transaction, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE user_id = $1
		ORDER BY date DESC, id DESC
		LIMIT $2 OFFSET $3
	`, userID, models.PageSize, offset(page, models.PageSize))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		if err := scanTransaction(rows, &tx); err != nil {
			return nil, 0, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txs, total, nil
}

// ListBetween returns every transaction of the user dated within [from, to],
// oldest first.
func (r *TransactionRepository) ListBetween(ctx context.Context, userID int64, from, to time.Time) ([]models.Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE user_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC, id ASC
	`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		if err := scanTransaction(rows, &tx); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txs, nil
}

// UpdateAmountNotes stores the only two mutable fields of a transaction.
func (r *TransactionRepository) UpdateAmountNotes(ctx context.Context, tx *models.Transaction) error {
	err := r.db.QueryRow(ctx, `
		UPDATE transactions SET amount = $3, notes = $4, updated_at = NOW()
		WHERE user_id = $1 AND id = $2
		RETURNING updated_at
	`, tx.UserID, tx.ID, tx.Amount, tx.Notes).Scan(&tx.UpdatedAt)
	if err != nil {
		return wrapUpdate(err, "transaction")
	}
	return nil
}

// Delete removes a transaction by ID.
func (r *TransactionRepository) Delete(ctx context.Context, userID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM transactions WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.NotFound("transaction")
	}
	return nil
}

// SumForBudget sums the expenses attached to b that match its category and
// fall inside its date range.
func (r *TransactionRepository) SumForBudget(ctx context.Context, b *models.Budget) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM transactions
		WHERE user_id = $1 AND type = $2 AND budget_id = $3 AND category_id = $4
		  AND date >= $5 AND date <= $6
	`, b.UserID, models.TransactionExpense, b.ID, b.Category.ID, b.StartDate, b.EndDate).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum budget transactions: %w", err)
	}
	return total, nil
}

// SumForSaving sums the contributions to s inside its date range.
func (r *TransactionRepository) SumForSaving(ctx context.Context, s *models.Saving) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM transactions
		WHERE user_id = $1 AND type = $2 AND saving_id = $3
		  AND date >= $4 AND date <= $5
	`, s.UserID, models.TransactionSaving, s.ID, s.StartDate, s.EndDate).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum saving transactions: %w", err)
	}
	return total, nil
}

// SumAllForSaving sums every contribution to a goal regardless of date.
func (r *TransactionRepository) SumAllForSaving(ctx context.Context, userID, savingID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM transactions
		WHERE user_id = $1 AND type = $2 AND saving_id = $3
	`, userID, models.TransactionSaving, savingID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum saving transactions: %w", err)
	}
	return total, nil
}

// ExistsAttachedToBudget reports whether any in-range expense of the
// budget's category is attached to it.
func (r *TransactionRepository) ExistsAttachedToBudget(ctx context.Context, b *models.Budget) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE user_id = $1 AND type = $2 AND budget_id = $3 AND category_id = $4
			  AND date >= $5 AND date <= $6
		)
	`, b.UserID, models.TransactionExpense, b.ID, b.Category.ID, b.StartDate, b.EndDate).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check attached transactions: %w", err)
	}
	return exists, nil
}

// AttachUnassigned stamps b's ID on unattached in-range expenses of its
// category and returns how many were attached.
func (r *TransactionRepository) AttachUnassigned(ctx context.Context, b *models.Budget) (int, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE transactions SET budget_id = $3, updated_at = NOW()
		WHERE user_id = $1 AND type = $2 AND budget_id IS NULL AND category_id = $4
		  AND date >= $5 AND date <= $6
	`, b.UserID, models.TransactionExpense, b.ID, b.Category.ID, b.StartDate, b.EndDate)
	if err != nil {
		return 0, fmt.Errorf("failed to attach transactions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// DetachFromBudget clears the budget link of every transaction that
// references budgetID.
func (r *TransactionRepository) DetachFromBudget(ctx context.Context, userID, budgetID int64) (int, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE transactions SET budget_id = NULL, updated_at = NOW()
		WHERE user_id = $1 AND budget_id = $2
	`, userID, budgetID)
	if err != nil {
		return 0, fmt.Errorf("failed to detach transactions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// DeleteBySaving removes every transaction that references a goal.
func (r *TransactionRepository) DeleteBySaving(ctx context.Context, userID, savingID int64) (int, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM transactions WHERE user_id = $1 AND saving_id = $2
	`, userID, savingID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete saving transactions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Summary totals the user's transactions per type. Nil bounds are open.
func (r *TransactionRepository) Summary(ctx context.Context, userID int64, from, to *time.Time) ([]models.TypeTotal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT type, COALESCE(SUM(amount), 0), COUNT(*) FROM transactions
		WHERE user_id = $1
		  AND ($2::timestamptz IS NULL OR date >= $2)
		  AND ($3::timestamptz IS NULL OR date <= $3)
		GROUP BY type
		ORDER BY type
	`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query summary: %w", err)
	}
	defer rows.Close()

	var totals []models.TypeTotal
	for rows.Next() {
		var t models.TypeTotal
		if err := rows.Scan(&t.Type, &t.Total, &t.Count); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating summary: %w", err)
	}
	return totals, nil
}

// CategorySpending totals the user's expenses per category snapshot, largest
// first. Nil bounds are open.
func (r *TransactionRepository) CategorySpending(ctx context.Context, userID int64, from, to *time.Time) ([]models.CategoryTotal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT category_id, category_name, COALESCE(SUM(amount), 0) AS total, COUNT(*) FROM transactions
		WHERE user_id = $1 AND type = $2
		  AND ($3::timestamptz IS NULL OR date >= $3)
		  AND ($4::timestamptz IS NULL OR date <= $4)
		GROUP BY category_id, category_name
		ORDER BY total DESC, category_name
	`, userID, models.TransactionExpense, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query category spending: %w", err)
	}
	defer rows.Close()

	var totals []models.CategoryTotal
	for rows.Next() {
		var t models.CategoryTotal
		if err := rows.Scan(&t.Category.ID, &t.Category.Name, &t.Total, &t.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category spending: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category spending: %w", err)
	}
	return totals, nil
}
