// Package likes records which user liked which post.
package likes

import (
	"context"
	"fmt"

	"github.com/manoela-fs/blog/catalog"
	"github.com/manoela-fs/blog/database"
	"github.com/manoela-fs/blog/errs"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger stores at most one like per (user, post); the row's presence is the liked state.
type Ledger struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// WithTx returns a ledger bound to tx.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{db: tx}
}

// Toggle flips the like of userID on postID and returns the new state.
func (l *Ledger) Toggle(ctx context.Context, userID, postID string) (bool, error) {
	var liked bool
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist(tx, &database.Post{}, postID, "post"); err != nil {
			return err
		}
		if err := mustExist(tx, &database.User{}, userID, "user"); err != nil {
			return err
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&database.Like{UserID: userID, PostID: postID})
		if res.Error != nil {
			return fmt.Errorf("inserting like: %w", res.Error)
		}
		if res.RowsAffected == 1 {
			liked = true
			return nil
		}

		if err := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&database.Like{}).Error; err != nil {
			return fmt.Errorf("removing like: %w", err)
		}
		liked = false
		return nil
	})
	return liked, err
}

func mustExist(tx *gorm.DB, model any, id, what string) error {
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, errs.ErrNotFound)
	}
	return nil
}

func (l *Ledger) CountFor(ctx context.Context, postID string) (int64, error) {
	var n int64
	err := l.db.WithContext(ctx).Model(&database.Like{}).Where("post_id = ?", postID).Count(&n).Error
	return n, err
}

// CountForMany returns a count for every requested id, zero when the post has no likes.
func (l *Ledger) CountForMany(ctx context.Context, postIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}
	for _, id := range postIDs {
		counts[id] = 0
	}

	var rows []struct {
		PostID string
		Total  int64
	}
	err := l.db.WithContext(ctx).Model(&database.Like{}).
		Select("post_id, COUNT(*) AS total").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("counting likes: %w", err)
	}
	for _, r := range rows {
		counts[r.PostID] = r.Total
	}
	return counts, nil
}

func (l *Ledger) IsLikedBy(ctx context.Context, userID, postID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	var n int64
	err := l.db.WithContext(ctx).Model(&database.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&n).Error
	return n > 0, err
}

// LikedSubsetOf returns the ids among postIDs that userID has liked.
func (l *Ledger) LikedSubsetOf(ctx context.Context, userID string, postIDs []string) (map[string]bool, error) {
	liked := make(map[string]bool)
	if userID == "" || len(postIDs) == 0 {
		return liked, nil
	}
	var ids []string
	err := l.db.WithContext(ctx).Model(&database.Like{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("loading liked posts: %w", err)
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

// LikesByCategoryFor counts the likes userID gave, grouped by the liked post's
// category, largest first.
func (l *Ledger) LikesByCategoryFor(ctx context.Context, userID string) ([]catalog.CategoryCount, error) {
	var rows []struct {
		CategoryID uint
		Total      int64
	}
	err := l.db.WithContext(ctx).Model(&database.Like{}).
		Select("posts.category_id AS category_id, COUNT(*) AS total").
		Joins("JOIN posts ON posts.id = likes.post_id").
		Where("likes.user_id = ?", userID).
		Group("posts.category_id").
		Order("total DESC, category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("aggregating likes: %w", err)
	}
	out := make([]catalog.CategoryCount, len(rows))
	for i, r := range rows {
		out[i] = catalog.CategoryCount{CategoryID: r.CategoryID, Count: r.Total}
	}
	return out, nil
}

func (l *Ledger) DeleteForPost(ctx context.Context, postID string) error {
	if err := l.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&database.Like{}).Error; err != nil {
		return fmt.Errorf("deleting likes: %w", err)
	}
	return nil
}
