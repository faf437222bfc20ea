package ledger

import (
	"context"

	"gitlab.com/yelinaung/finance-ledger/internal/database"
	"gitlab.com/yelinaung/finance-ledger/internal/logger"
	"gitlab.com/yelinaung/finance-ledger/internal/models"
)

// RegisterUser creates the user with zero balances and the default
// categories, or refreshes the profile of a known user. It reports whether
// the user is new.
func (s *Service) RegisterUser(ctx context.Context, user *models.User) (bool, error) {
	var created bool
	err := s.withTx(ctx, "register_user", func(c *command) error {
		var err error
		if created, err = c.users.UpsertUser(c.ctx, user); err != nil {
			return err
		}
		if !created {
			return nil
		}
		return database.SeedCategories(c.ctx, c.db, user.ID)
	})
	if err != nil {
		return false, err
	}
	if created {
		logger.Log.Info().Str("user", logger.HashUserID(user.ID)).Msg("Registered new user")
	}
	return created, nil
}

// Account returns the user with their balances and notifications.
func (s *Service) Account(ctx context.Context, userID int64) (*models.User, error) {
	var user *models.User
	err := s.withTx(ctx, "account", func(c *command) error {
		var err error
		if user, err = c.users.GetUserByID(c.ctx, userID); err != nil {
			return err
		}
		user.Account.Notifications, err = c.users.ListNotifications(c.ctx, userID)
		return err
	})
	return user, err
}

// Notifications returns the user's notifications, newest first, and how many
// are unread.
func (s *Service) Notifications(ctx context.Context, userID int64) ([]models.Notification, int, error) {
	var (
		notifications []models.Notification
		unread        int
	)
	err := s.withTx(ctx, "notifications", func(c *command) error {
		var err error
		if notifications, err = c.users.ListNotifications(c.ctx, userID); err != nil {
			return err
		}
		unread, err = c.users.CountUnread(c.ctx, userID)
		return err
	})
	return notifications, unread, err
}

// MarkNotificationRead marks one notification as read.
func (s *Service) MarkNotificationRead(ctx context.Context, userID, id int64) error {
	return s.withTx(ctx, "mark_notification_read", func(c *command) error {
		return c.users.MarkNotificationRead(c.ctx, userID, id)
	})
}

// MarkAllNotificationsRead marks every notification as read and returns how
// many changed.
func (s *Service) MarkAllNotificationsRead(ctx context.Context, userID int64) (int, error) {
	var n int
	err := s.withTx(ctx, "mark_all_notifications_read", func(c *command) error {
		var err error
		n, err = c.users.MarkAllNotificationsRead(c.ctx, userID)
		return err
	})
	return n, err
}
