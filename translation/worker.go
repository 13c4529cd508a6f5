package translation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/manoela-fs/blog/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WorkerOptions struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	RetryBackoff time.Duration
}

// Worker drains the translation queue in the background.
type Worker struct {
	db         *gorm.DB
	translator Translator
	opts       WorkerOptions
	wake       chan struct{}
	now        func() time.Time
}

func NewWorker(db *gorm.DB, translator Translator, opts WorkerOptions) *Worker {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 5 * time.Second
	}
	return &Worker{
		db:         db,
		translator: translator,
		opts:       opts,
		wake:       make(chan struct{}, 1),
		now:        time.Now,
	}
}

// Wake asks a running worker to start a pass now. It never blocks.
func (w *Worker) Wake() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Run processes jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	log.Printf("[worker] started, polling every %s", w.opts.PollInterval)
	for {
		n, err := w.RunOnce(ctx)
		if ctx.Err() != nil {
			log.Printf("[worker] stopped")
			return nil
		}
		if err != nil {
			log.Printf("[worker] pass failed: %v", err)
		}
		if err == nil && n >= w.opts.BatchSize {
			continue
		}

		select {
		case <-ctx.Done():
			log.Printf("[worker] stopped")
			return nil
		case <-w.wake:
		case <-ticker.C:
		}
	}
}

// RunOnce handles up to BatchSize due jobs and reports how many it picked up.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	var jobs []database.TranslationJob
	err := w.db.WithContext(ctx).
		Where("status = ? AND not_before <= ?", database.JobPending, w.now()).
		Order("not_before, id").
		Limit(w.opts.BatchSize).
		Find(&jobs).Error
	if err != nil {
		return 0, fmt.Errorf("loading due jobs: %w", err)
	}

	for i := range jobs {
		if ctx.Err() != nil {
			return i, ctx.Err()
		}
		if err := w.process(ctx, &jobs[i]); err != nil {
			log.Printf("[worker] job %d (post %s, %s): %v", jobs[i].ID, jobs[i].PostID, jobs[i].TargetLocale, err)
		}
	}
	return len(jobs), nil
}

func (w *Worker) process(ctx context.Context, job *database.TranslationJob) error {
	db := w.db.WithContext(ctx)

	var post database.Post
	err := db.Select("id", "source_locale").First(&post, "id = ?", job.PostID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return w.drop(db, job)
	}
	if err != nil {
		return err
	}
	if post.SourceLocale == job.TargetLocale {
		return w.drop(db, job)
	}

	var source database.PostTranslation
	err = db.First(&source, "post_id = ? AND locale = ?", post.ID, post.SourceLocale).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return w.drop(db, job)
	}
	if err != nil {
		return err
	}

	done := make(map[string]any)
	var failed []string
	for _, field := range job.FieldNames() {
		column, ok := fieldColumns[field]
		if !ok {
			continue
		}
		text, ok := w.translator.Translate(ctx, sourceText(&source, field), post.SourceLocale, job.TargetLocale)
		if !ok {
			failed = append(failed, field)
			continue
		}
		done[column] = text
	}

	return db.Transaction(func(tx *gorm.DB) error {
		// a newer edit re-enqueued the pair; our text may be stale
		var current database.TranslationJob
		err := tx.Select("id", "revision").First(&current, "id = ?", job.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if current.Revision != job.Revision {
			return nil
		}

		if len(done) > 0 {
			row := database.PostTranslation{PostID: job.PostID, Locale: job.TargetLocale}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
				return err
			}
			err := tx.Model(&database.PostTranslation{}).
				Where("post_id = ? AND locale = ?", job.PostID, job.TargetLocale).
				Updates(done).Error
			if err != nil {
				return err
			}
		}

		if len(failed) == 0 {
			return tx.Delete(&database.TranslationJob{}, job.ID).Error
		}
		return w.reschedule(tx, job, failed)
	})
}

func (w *Worker) reschedule(tx *gorm.DB, job *database.TranslationJob, failed []string) error {
	attempts := job.Attempts + 1
	status := database.JobPending
	if attempts >= w.opts.MaxAttempts {
		status = database.JobFailed
		log.Printf("[worker] giving up on post %s (%s) after %d attempts", job.PostID, job.TargetLocale, attempts)
	}
	return tx.Model(&database.TranslationJob{}).
		Where("id = ?", job.ID).
		Updates(map[string]any{
			"fields":     database.FieldsJSON(failed),
			"status":     status,
			"attempts":   attempts,
			"last_error": "translation unavailable for " + strings.Join(failed, ", "),
			"not_before": w.now().Add(w.backoff(attempts)),
		}).Error
}

// backoff grows quadratically: base, 4*base, 9*base...
func (w *Worker) backoff(attempts int) time.Duration {
	return w.opts.RetryBackoff * time.Duration(attempts*attempts)
}

func (w *Worker) drop(db *gorm.DB, job *database.TranslationJob) error {
	return db.Where("id = ? AND revision = ?", job.ID, job.Revision).Delete(&database.TranslationJob{}).Error
}

func sourceText(t *database.PostTranslation, field string) string {
	var p *string
	switch field {
	case database.FieldTitle:
		p = t.Title
	case database.FieldContent:
		p = t.Content
	}
	if p == nil {
		return ""
	}
	return *p
}
