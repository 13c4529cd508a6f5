package translation

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/manoela-fs/blog/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Queue records which fields of a post still need translating into which locale.
// All methods run on the caller's transaction so a post and its jobs commit together.
type Queue struct {
	now func() time.Time
}

func NewQueue() *Queue {
	return &Queue{now: time.Now}
}

var fieldColumns = map[string]string{
	database.FieldTitle:   "title",
	database.FieldContent: "content",
}

// Enqueue schedules fields of postID for translation into target. The target
// row is created if missing and the listed fields are cleared until the
// worker fills them again. An existing job for the same pair absorbs the new
// fields and restarts from zero attempts.
func (q *Queue) Enqueue(tx *gorm.DB, postID, target string, fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	for _, f := range fields {
		if _, ok := fieldColumns[f]; !ok {
			return fmt.Errorf("unknown translation field %q", f)
		}
	}

	if err := q.clearTarget(tx, postID, target, fields); err != nil {
		return err
	}

	var job database.TranslationJob
	err := tx.Where("post_id = ? AND target_locale = ?", postID, target).First(&job).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return q.create(tx, postID, target, fields)
	case err != nil:
		return fmt.Errorf("loading translation job: %w", err)
	}

	merged := union(job.FieldNames(), fields)
	res := tx.Model(&database.TranslationJob{}).
		Where("id = ?", job.ID).
		Updates(map[string]any{
			"fields":     database.FieldsJSON(merged),
			"status":     database.JobPending,
			"attempts":   0,
			"revision":   gorm.Expr("revision + 1"),
			"last_error": "",
			"not_before": q.now(),
		})
	if res.Error != nil {
		return fmt.Errorf("updating translation job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// the worker finished the old job in between
		return q.create(tx, postID, target, merged)
	}
	return nil
}

func (q *Queue) create(tx *gorm.DB, postID, target string, fields []string) error {
	job := database.TranslationJob{
		PostID:       postID,
		TargetLocale: target,
		Fields:       database.FieldsJSON(union(nil, fields)),
		Status:       database.JobPending,
		NotBefore:    q.now(),
	}
	if err := tx.Create(&job).Error; err != nil {
		return fmt.Errorf("creating translation job: %w", err)
	}
	return nil
}

func (q *Queue) clearTarget(tx *gorm.DB, postID, target string, fields []string) error {
	placeholder := database.PostTranslation{PostID: postID, Locale: target}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&placeholder).Error; err != nil {
		return fmt.Errorf("creating %s translation row: %w", target, err)
	}

	cleared := make(map[string]any, len(fields))
	for _, f := range fields {
		cleared[fieldColumns[f]] = nil
	}
	err := tx.Model(&database.PostTranslation{}).
		Where("post_id = ? AND locale = ?", postID, target).
		Updates(cleared).Error
	if err != nil {
		return fmt.Errorf("clearing %s translation: %w", target, err)
	}
	return nil
}

// CancelForPost drops every pending or failed job of postID.
func (q *Queue) CancelForPost(tx *gorm.DB, postID string) error {
	if err := tx.Where("post_id = ?", postID).Delete(&database.TranslationJob{}).Error; err != nil {
		return fmt.Errorf("cancelling translation jobs: %w", err)
	}
	return nil
}

// Pending returns the jobs of postID, oldest first.
func (q *Queue) Pending(tx *gorm.DB, postID string) ([]database.TranslationJob, error) {
	var jobs []database.TranslationJob
	err := tx.Where("post_id = ?", postID).Order("id").Find(&jobs).Error
	return jobs, err
}

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string{}, a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
