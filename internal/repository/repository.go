// Package repository provides database access for domain entities.
package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"gitlab.com/yelinaung/finance-ledger/internal/models"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// wrapGet maps a missing row to the entity's NotFound error.
func wrapGet(err error, entity string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NotFound(entity)
	}
	return fmt.Errorf("failed to get %s: %w", entity, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// offset converts a 1-based page number to a row offset.
func offset(page, size int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * size
}

// wrapUpdate maps an UPDATE ... RETURNING that matched nothing to NotFound.
func wrapUpdate(err error, entity string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NotFound(entity)
	}
	return fmt.Errorf("failed to update %s: %w", entity, err)
}
