package ledger

import (
	"context"
	"strings"

	"gitlab.com/yelinaung/finance-ledger/internal/models"
)

func validateCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", models.Validationf("category name is required")
	case len(name) > models.MaxCategoryNameLength:
		return "", models.Validationf("category name cannot exceed %d characters", models.MaxCategoryNameLength)
	}
	return name, nil
}

// Categories returns the user's categories ordered by name.
func (s *Service) Categories(ctx context.Context, userID int64) ([]models.Category, error) {
	var categories []models.Category
	err := s.withTx(ctx, "list_categories", func(c *command) error {
		var err error
		categories, err = c.categories.GetAll(c.ctx, userID)
		return err
	})
	return categories, err
}

// ResolveCategory returns the category snapshot for an ID.
func (s *Service) ResolveCategory(ctx context.Context, userID, id int64) (models.CategorySnapshot, error) {
	var snap models.CategorySnapshot
	err := s.withTx(ctx, "resolve_category", func(c *command) error {
		cat, err := c.categories.GetByID(c.ctx, userID, id)
		if err != nil {
			return err
		}
		snap = cat.Snapshot()
		return nil
	})
	return snap, err
}

// CategoryByName looks a category up by name, ignoring case.
func (s *Service) CategoryByName(ctx context.Context, userID int64, name string) (*models.Category, error) {
	var cat *models.Category
	err := s.withTx(ctx, "category_by_name", func(c *command) error {
		var err error
		cat, err = c.categories.GetByName(c.ctx, userID, strings.TrimSpace(name))
		return err
	})
	return cat, err
}

// AddCategory creates a category for the user.
func (s *Service) AddCategory(ctx context.Context, userID int64, name string) (*models.Category, error) {
	name, err := validateCategoryName(name)
	if err != nil {
		return nil, err
	}
	var cat *models.Category
	err = s.withUser(ctx, "add_category", userID, func(c *command) error {
		var err error
		cat, err = c.categories.Create(c.ctx, userID, name)
		return err
	})
	return cat, err
}

// RenameCategory renames a category. Existing snapshots keep the old name.
func (s *Service) RenameCategory(ctx context.Context, userID, id int64, name string) error {
	name, err := validateCategoryName(name)
	if err != nil {
		return err
	}
	return s.withUser(ctx, "rename_category", userID, func(c *command) error {
		return c.categories.Update(c.ctx, userID, id, name)
	})
}

// DeleteCategory removes a category that no transaction or budget uses.
func (s *Service) DeleteCategory(ctx context.Context, userID, id int64) error {
	return s.withUser(ctx, "delete_category", userID, func(c *command) error {
		if _, err := c.categories.GetByID(c.ctx, userID, id); err != nil {
			return err
		}
		inUse, err := c.categories.IsInUse(c.ctx, userID, id)
		if err != nil {
			return err
		}
		if inUse {
			return models.ErrCategoryInUse
		}
		return c.categories.Delete(c.ctx, userID, id)
	})
}

// IsCategoryInUse reports whether any transaction or budget references the
// category.
func (s *Service) IsCategoryInUse(ctx context.Context, userID, id int64) (bool, error) {
	var inUse bool
	err := s.withTx(ctx, "category_in_use", func(c *command) error {
		var err error
		inUse, err = c.categories.IsInUse(c.ctx, userID, id)
		return err
	})
	return inUse, err
}
