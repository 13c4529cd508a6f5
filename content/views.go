package content

import (
	"context"
	"fmt"
	"time"

	"github.com/manoela-fs/blog/catalog"
	"github.com/manoela-fs/blog/constants"
	"github.com/manoela-fs/blog/database"
	"github.com/manoela-fs/blog/errs"
	"gorm.io/gorm"
)

// PostView is a post as shown to one viewer in one locale.
type PostView struct {
	ID           string
	Title        string
	Content      string
	SourceLocale string
	// Untranslated is set when some text is shown in the source locale
	// because the requested translation is not available.
	Untranslated bool

	Image     *string
	CreatedAt time.Time
	UpdatedAt time.Time

	Likes         int64
	LikedByViewer bool

	AuthorID     string
	AuthorName   string
	AuthorAvatar *string

	CategoryID   uint
	CategoryName string
}

func (s *Store) ListAll(ctx context.Context, locale, viewerID string) ([]PostView, error) {
	return s.list(ctx, locale, viewerID, func(q *gorm.DB) *gorm.DB { return q })
}

func (s *Store) ListForUser(ctx context.Context, userID, locale, viewerID string) ([]PostView, error) {
	return s.list(ctx, locale, viewerID, func(q *gorm.DB) *gorm.DB {
		return q.Where("posts.user_id = ?", userID)
	})
}

func (s *Store) ListByCategory(ctx context.Context, categoryID uint, locale, viewerID string) ([]PostView, error) {
	if _, err := s.catalog.ByID(ctx, categoryID); err != nil {
		return nil, err
	}
	return s.list(ctx, locale, viewerID, func(q *gorm.DB) *gorm.DB {
		return q.Where("posts.category_id = ?", categoryID)
	})
}

func (s *Store) GetOne(ctx context.Context, id, locale, viewerID string) (PostView, error) {
	views, err := s.list(ctx, locale, viewerID, func(q *gorm.DB) *gorm.DB {
		return q.Where("posts.id = ?", id)
	})
	if err != nil {
		return PostView{}, err
	}
	if len(views) == 0 {
		return PostView{}, fmt.Errorf("post %s: %w", id, errs.ErrNotFound)
	}
	return views[0], nil
}

// PostsByCategoryFor counts the posts userID wrote per category, largest first.
func (s *Store) PostsByCategoryFor(ctx context.Context, userID string) ([]catalog.CategoryCount, error) {
	var rows []struct {
		CategoryID uint
		Total      int64
	}
	err := s.db.WithContext(ctx).Model(&database.Post{}).
		Select("category_id, COUNT(*) AS total").
		Where("user_id = ?", userID).
		Group("category_id").
		Order("total DESC, category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("aggregating posts: %w", err)
	}
	out := make([]catalog.CategoryCount, len(rows))
	for i, r := range rows {
		out[i] = catalog.CategoryCount{CategoryID: r.CategoryID, Count: r.Total}
	}
	return out, nil
}

func (s *Store) list(ctx context.Context, locale, viewerID string, scope func(*gorm.DB) *gorm.DB) ([]PostView, error) {
	db := s.db.WithContext(ctx)

	var posts []database.Post
	err := scope(db.Model(&database.Post{})).
		Preload("User").
		Order("posts.created_at DESC").
		Limit(constants.MAX_POSTS_TO_SHOW).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	if len(posts) == 0 {
		return []PostView{}, nil
	}

	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	texts, err := s.textsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	counts, err := s.likes.CountForMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	liked, err := s.likes.LikedSubsetOf(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	categories, err := s.catalog.NamesFor(ctx, locale)
	if err != nil {
		return nil, err
	}

	views := make([]PostView, len(posts))
	for i, p := range posts {
		v := PostView{
			ID:            p.ID,
			SourceLocale:  p.SourceLocale,
			Image:         p.Image,
			CreatedAt:     p.CreatedAt,
			UpdatedAt:     p.UpdatedAt,
			Likes:         counts[p.ID],
			LikedByViewer: liked[p.ID],
			AuthorID:      p.UserID,
			AuthorName:    p.User.Name,
			AuthorAvatar:  p.User.Avatar,
			CategoryID:    p.CategoryID,
			CategoryName:  categories[p.CategoryID],
		}

		byLocale := texts[p.ID]
		wanted, original := byLocale[locale], byLocale[p.SourceLocale]
		v.Title, v.Untranslated = pick(wanted.Title, original.Title)
		var contentFallback bool
		v.Content, contentFallback = pick(wanted.Content, original.Content)
		v.Untranslated = v.Untranslated || contentFallback

		views[i] = v
	}
	return views, nil
}

// pick prefers the requested text and reports whether it fell back to the original.
func pick(wanted, original *string) (string, bool) {
	if wanted != nil {
		return *wanted, false
	}
	if original != nil {
		return *original, true
	}
	return "", false
}

func (s *Store) textsFor(ctx context.Context, postIDs []string) (map[string]map[string]database.PostTranslation, error) {
	var rows []database.PostTranslation
	if err := s.db.WithContext(ctx).Where("post_id IN ?", postIDs).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("loading post text: %w", err)
	}
	out := make(map[string]map[string]database.PostTranslation, len(postIDs))
	for _, r := range rows {
		if out[r.PostID] == nil {
			out[r.PostID] = make(map[string]database.PostTranslation)
		}
		out[r.PostID][r.Locale] = r
	}
	return out, nil
}
