// Package content owns posts and their per-locale text.
package content

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/manoela-fs/blog/catalog"
	"github.com/manoela-fs/blog/constants"
	"github.com/manoela-fs/blog/database"
	"github.com/manoela-fs/blog/errs"
	"github.com/manoela-fs/blog/likes"
	"github.com/manoela-fs/blog/locales"
	"github.com/manoela-fs/blog/storage"
	"github.com/manoela-fs/blog/translation"
	"gorm.io/gorm"
)

// Waker is told when new translation work was queued.
type Waker interface {
	Wake()
}

type Store struct {
	db      *gorm.DB
	files   *storage.FileStore
	catalog *catalog.Catalog
	likes   *likes.Ledger
	queue   *translation.Queue
	worker  Waker
}

func New(db *gorm.DB, files *storage.FileStore, cat *catalog.Catalog, ledger *likes.Ledger, queue *translation.Queue, worker Waker) *Store {
	return &Store{
		db:      db,
		files:   files,
		catalog: cat,
		likes:   ledger,
		queue:   queue,
		worker:  worker,
	}
}

type NewPost struct {
	CategoryID uint
	Title      string
	Content    string
	Image      *storage.Upload
}

type PostEdit struct {
	CategoryID uint
	Title      string
	Content    string
	Image      *storage.Upload
}

func validate(categoryID uint, title, content string) error {
	var v errs.Validator
	v.Check(categoryID != 0, "category", "required")
	v.Check(strings.TrimSpace(title) != "", "title", "required")
	v.Check(utf8.RuneCountInString(title) <= constants.MAX_TITLE_LENGTH, "title", "too_long")
	v.Check(strings.TrimSpace(content) != "", "content", "required")
	v.Check(utf8.RuneCountInString(content) <= constants.MAX_CONTENT_LENGTH, "content", "too_long")
	return v.Err()
}

func allFields() []string {
	return []string{database.FieldTitle, database.FieldContent}
}

func sourceLocaleOf(u database.User) string {
	if locales.IsSupported(u.Locale) {
		return u.Locale
	}
	return locales.Default
}

// CreatePost stores the post with its text in the author's locale and queues
// a translation into every other supported locale.
func (s *Store) CreatePost(ctx context.Context, in NewPost, author database.User) (database.Post, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validate(in.CategoryID, in.Title, in.Content); err != nil {
		return database.Post{}, err
	}
	if _, err := s.catalog.ByID(ctx, in.CategoryID); err != nil {
		return database.Post{}, err
	}

	imageName, err := s.saveImage(in.Image)
	if err != nil {
		return database.Post{}, err
	}

	source := sourceLocaleOf(author)
	post := database.Post{
		CategoryID:   in.CategoryID,
		UserID:       author.ID,
		SourceLocale: source,
	}
	if imageName != "" {
		post.Image = &imageName
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("User", "Category").Create(&post).Error; err != nil {
			return fmt.Errorf("creating post: %w", err)
		}
		original := database.PostTranslation{
			PostID:  post.ID,
			Locale:  source,
			Title:   &in.Title,
			Content: &in.Content,
		}
		if err := tx.Create(&original).Error; err != nil {
			return fmt.Errorf("creating %s text: %w", source, err)
		}
		for _, target := range locales.Others(source) {
			if err := s.queue.Enqueue(tx, post.ID, target, allFields()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.removeImage(imageName)
		return database.Post{}, err
	}

	s.wake()
	return post, nil
}

// EditPost applies edit on behalf of requester. Only the fields whose text
// changed are translated again, unless the edit is written in a different
// locale than the post, in which case every other locale is redone.
func (s *Store) EditPost(ctx context.Context, id string, edit PostEdit, requester database.User) error {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if post.UserID != requester.ID {
		return fmt.Errorf("editing post %s: %w", id, errs.ErrPermissionDenied)
	}

	edit.Title = strings.TrimSpace(edit.Title)
	if err := validate(edit.CategoryID, edit.Title, edit.Content); err != nil {
		return err
	}
	if edit.CategoryID != post.CategoryID {
		if _, err := s.catalog.ByID(ctx, edit.CategoryID); err != nil {
			return err
		}
	}

	current, err := s.SourceTranslation(ctx, id)
	if err != nil {
		return err
	}

	newImage, err := s.saveImage(edit.Image)
	if err != nil {
		return err
	}

	source := sourceLocaleOf(requester)
	var changed []string
	if source != post.SourceLocale {
		changed = allFields()
	} else {
		if deref(current.Title) != edit.Title {
			changed = append(changed, database.FieldTitle)
		}
		if deref(current.Content) != edit.Content {
			changed = append(changed, database.FieldContent)
		}
	}

	updates := map[string]any{
		"category_id":   edit.CategoryID,
		"source_locale": source,
	}
	if newImage != "" {
		updates["image"] = newImage
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&database.Post{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("updating post: %w", err)
		}

		text := database.PostTranslation{PostID: id, Locale: source, Title: &edit.Title, Content: &edit.Content}
		if err := tx.Save(&text).Error; err != nil {
			return fmt.Errorf("saving %s text: %w", source, err)
		}
		if len(changed) == 0 {
			return nil
		}
		// the new source row may still have a job from when it was a target
		if err := tx.Where("post_id = ? AND target_locale = ?", id, source).Delete(&database.TranslationJob{}).Error; err != nil {
			return err
		}
		for _, target := range locales.Others(source) {
			if err := s.queue.Enqueue(tx, id, target, changed); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.removeImage(newImage)
		return err
	}

	if newImage != "" && post.Image != nil {
		s.removeImage(*post.Image)
	}
	if len(changed) > 0 {
		s.wake()
	}
	return nil
}

// DeletePost removes the post together with its text, likes and pending jobs.
func (s *Store) DeletePost(ctx context.Context, id string, requester database.User) error {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if post.UserID != requester.ID {
		return fmt.Errorf("deleting post %s: %w", id, errs.ErrPermissionDenied)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.likes.WithTx(tx).DeleteForPost(ctx, id); err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&database.PostTranslation{}).Error; err != nil {
			return fmt.Errorf("deleting translations: %w", err)
		}
		if err := s.queue.CancelForPost(tx, id); err != nil {
			return err
		}
		if err := tx.Delete(&database.Post{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("deleting post: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if post.Image != nil {
		s.removeImage(*post.Image)
	}
	return nil
}

func (s *Store) GetPost(ctx context.Context, id string) (database.Post, error) {
	var post database.Post
	err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return post, fmt.Errorf("post %s: %w", id, errs.ErrNotFound)
	}
	return post, err
}

// SourceTranslation returns the text of the post as its author wrote it.
func (s *Store) SourceTranslation(ctx context.Context, id string) (database.PostTranslation, error) {
	var out database.PostTranslation
	err := s.db.WithContext(ctx).
		Joins("JOIN posts ON posts.id = post_translations.post_id AND posts.source_locale = post_translations.locale").
		Where("post_translations.post_id = ?", id).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return out, fmt.Errorf("text of post %s: %w", id, errs.ErrNotFound)
	}
	return out, err
}

func (s *Store) saveImage(up *storage.Upload) (string, error) {
	if up == nil || up.Reader == nil {
		return "", nil
	}
	name, err := s.files.Save(up.Name, up.Reader)
	if errors.Is(err, storage.ErrNotImage) {
		return "", &errs.ValidationError{Fields: map[string]string{"image": "not_an_image"}}
	}
	if err != nil {
		return "", fmt.Errorf("saving image: %w", err)
	}
	return name, nil
}

func (s *Store) removeImage(name string) {
	if name == "" {
		return
	}
	if err := s.files.Delete(name); err != nil {
		log.Printf("Failed to remove image %s: %v", name, err)
	}
}

func (s *Store) wake() {
	if s.worker != nil {
		s.worker.Wake()
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
