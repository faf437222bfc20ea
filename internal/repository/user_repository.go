package repository

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/finance-ledger/internal/database"
	"gitlab.com/yelinaung/finance-ledger/internal/models"
)

// UserRepository handles user, account and notification operations.
type UserRepository struct {
	db database.PGXDB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db database.PGXDB) *UserRepository {
	return &UserRepository{db: db}
}

// UpsertUser creates or updates a user's profile fields. It reports whether
// the row was newly inserted. Balances are never touched.
func (r *UserRepository) UpsertUser(ctx context.Context, user *models.User) (bool, error) {
	if user.Currency == "" {
		user.Currency = models.DefaultCurrency
	}
	var inserted bool
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (id, username, first_name, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			updated_at = NOW()
		RETURNING (xmax = 0), currency, current_balance, total_savings, created_at, updated_at
	`, user.ID, user.Username, user.FirstName, user.Currency).Scan(
		&inserted, &user.Currency, &user.Account.CurrentBalance, &user.Account.TotalSavings,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert user: %w", err)
	}
	user.Account.UserID = user.ID
	return inserted, nil
}

// GetUserByID retrieves a user by their Telegram ID, including balances.
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.db.QueryRow(ctx, `
		SELECT id, COALESCE(username, ''), COALESCE(first_name, ''), currency,
		       current_balance, total_savings, created_at, updated_at
		FROM users WHERE id = $1
	`, id).Scan(&user.ID, &user.Username, &user.FirstName, &user.Currency,
		&user.Account.CurrentBalance, &user.Account.TotalSavings, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, wrapGet(err, "user")
	}
	user.Account.UserID = user.ID
	return &user, nil
}

// LockAccount loads a user's account and holds a row lock on it until the
// surrounding transaction ends. Notifications are not loaded.
func (r *UserRepository) LockAccount(ctx context.Context, userID int64) (*models.Account, error) {
	account := models.Account{UserID: userID}
	err := r.db.QueryRow(ctx, `
		SELECT current_balance, total_savings FROM users WHERE id = $1 FOR UPDATE
	`, userID).Scan(&account.CurrentBalance, &account.TotalSavings)
	if err != nil {
		return nil, wrapGet(err, "user")
	}
	return &account, nil
}

// SaveAccount stores the balances and any pending notifications, then trims
// the user's notifications to the newest MaxNotifications.
func (r *UserRepository) SaveAccount(ctx context.Context, account *models.Account) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET current_balance = $2, total_savings = $3, updated_at = NOW()
		WHERE id = $1
	`, account.UserID, account.CurrentBalance, account.TotalSavings)
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.NotFound("user")
	}

	pending := account.PendingNotifications()
	if len(pending) == 0 {
		return nil
	}

	// Oldest first so that ids grow with recency.
	for i := len(pending) - 1; i >= 0; i-- {
		n := pending[i]
		if _, err := r.db.Exec(ctx, `
			INSERT INTO notifications (user_id, message, created_at, read)
			VALUES ($1, $2, $3, $4)
		`, account.UserID, n.Message, n.Date, n.Read); err != nil {
			return fmt.Errorf("failed to insert notification: %w", err)
		}
	}

	_, err = r.db.Exec(ctx, `
		DELETE FROM notifications
		WHERE user_id = $1 AND id NOT IN (
			SELECT id FROM notifications WHERE user_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		)
	`, account.UserID, models.MaxNotifications)
	if err != nil {
		return fmt.Errorf("failed to trim notifications: %w", err)
	}
	return nil
}

// ListNotifications returns the user's notifications, newest first.
func (r *UserRepository) ListNotifications(ctx context.Context, userID int64) ([]models.Notification, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, message, created_at, read FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, models.MaxNotifications)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.Message, &n.Date, &n.Read); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}
	return notifications, nil
}

// CountUnread returns the number of unread notifications.
func (r *UserRepository) CountUnread(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT read
	`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return n, nil
}

// MarkNotificationRead marks one of the user's notifications as read.
func (r *UserRepository) MarkNotificationRead(ctx context.Context, userID, id int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE notifications SET read = TRUE WHERE user_id = $1 AND id = $2
	`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.NotFound("notification")
	}
	return nil
}

// MarkAllNotificationsRead marks every unread notification as read and
// returns how many changed.
func (r *UserRepository) MarkAllNotificationsRead(ctx context.Context, userID int64) (int, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE notifications SET read = TRUE WHERE user_id = $1 AND NOT read
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
