// Package catalog serves the category list and its per-locale names.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/manoela-fs/blog/database"
	"github.com/manoela-fs/blog/errs"
	"gorm.io/gorm"
)

type Catalog struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

// ListTranslated returns the names of every category in locale, ordered by name.
func (c *Catalog) ListTranslated(ctx context.Context, locale string) ([]database.CategoryTranslation, error) {
	var out []database.CategoryTranslation
	err := c.db.WithContext(ctx).
		Where("locale = ?", locale).
		Order("name").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return out, nil
}

func (c *Catalog) TranslatedNameFor(ctx context.Context, categoryID uint, locale string) (database.CategoryTranslation, error) {
	var out database.CategoryTranslation
	err := c.db.WithContext(ctx).
		First(&out, "category_id = ? AND locale = ?", categoryID, locale).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return out, fmt.Errorf("category %d in %s: %w", categoryID, locale, errs.ErrNotFound)
	}
	return out, err
}

func (c *Catalog) ByID(ctx context.Context, categoryID uint) (database.Category, error) {
	var out database.Category
	err := c.db.WithContext(ctx).First(&out, categoryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return out, fmt.Errorf("category %d: %w", categoryID, errs.ErrNotFound)
	}
	return out, err
}

// NamesFor maps category id to its name in locale.
func (c *Catalog) NamesFor(ctx context.Context, locale string) (map[uint]string, error) {
	rows, err := c.ListTranslated(ctx, locale)
	if err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(rows))
	for _, r := range rows {
		names[r.CategoryID] = r.Name
	}
	return names, nil
}

// CategoryCount is one row of a per-category aggregate.
type CategoryCount struct {
	CategoryID uint
	Count      int64
}
