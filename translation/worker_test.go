package translation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/manoela-fs/blog/database"
	"github.com/manoela-fs/blog/database/databasetest"
	"gorm.io/gorm"
)

type fakeTranslator struct {
	mu     sync.Mutex
	fail   map[string]bool // target locales that fail
	calls  int
	before func()
}

func (f *fakeTranslator) Translate(ctx context.Context, text, source, target string) (string, bool) {
	f.mu.Lock()
	f.calls++
	hook := f.before
	f.before = nil
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if f.fail[target] {
		return "", false
	}
	return "[" + target + "] " + text, true
}

func strptr(s string) *string { return &s }

func newPost(t *testing.T, db *gorm.DB, locale, title, content string) database.Post {
	t.Helper()
	author := databasetest.CreateUser(t, db, "Ana "+t.Name(), locale)
	p := database.Post{
		CategoryID:   databasetest.FirstCategoryID(t, db),
		UserID:       author.ID,
		SourceLocale: locale,
	}
	if err := db.Omit("User", "Category").Create(&p).Error; err != nil {
		t.Fatal(err)
	}
	src := database.PostTranslation{PostID: p.ID, Locale: locale, Title: strptr(title), Content: strptr(content)}
	if err := db.Create(&src).Error; err != nil {
		t.Fatal(err)
	}
	return p
}

func translationOf(t *testing.T, db *gorm.DB, postID, locale string) database.PostTranslation {
	t.Helper()
	var tr database.PostTranslation
	if err := db.First(&tr, "post_id = ? AND locale = ?", postID, locale).Error; err != nil {
		t.Fatalf("loading %s translation: %v", locale, err)
	}
	return tr
}

func jobsOf(t *testing.T, db *gorm.DB, postID string) []database.TranslationJob {
	t.Helper()
	jobs, err := NewQueue().Pending(db, postID)
	if err != nil {
		t.Fatal(err)
	}
	return jobs
}

func all() []string { return []string{database.FieldTitle, database.FieldContent} }

func TestEnqueueMergesFields(t *testing.T) {
	db := databasetest.New(t)
	p := newPost(t, db, "en", "Hello", "World")
	q := NewQueue()

	if err := q.Enqueue(db, p.ID, "es", []string{database.FieldTitle}); err != nil {
		t.Fatal(err)
	}
	if err := q.Enqueue(db, p.ID, "es", []string{database.FieldContent}); err != nil {
		t.Fatal(err)
	}

	jobs := jobsOf(t, db, p.ID)
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	got := jobs[0].FieldNames()
	if len(got) != 2 || got[0] != database.FieldContent || got[1] != database.FieldTitle {
		t.Fatalf("fields = %v", got)
	}
	if jobs[0].Revision != 1 {
		t.Fatalf("revision = %d, want 1", jobs[0].Revision)
	}
}

func TestEnqueueClearsOnlyListedFields(t *testing.T) {
	db := databasetest.New(t)
	p := newPost(t, db, "en", "Hello", "World")
	old := database.PostTranslation{PostID: p.ID, Locale: "es", Title: strptr("Hola"), Content: strptr("Mundo")}
	if err := db.Create(&old).Error; err != nil {
		t.Fatal(err)
	}

	if err := NewQueue().Enqueue(db, p.ID, "es", []string{database.FieldTitle}); err != nil {
		t.Fatal(err)
	}

	tr := translationOf(t, db, p.ID, "es")
	if tr.Title != nil {
		t.Fatalf("title should be cleared, got %q", *tr.Title)
	}
	if tr.Content == nil || *tr.Content != "Mundo" {
		t.Fatalf("content should be kept, got %v", tr.Content)
	}
}

func TestEnqueueRejectsUnknownField(t *testing.T) {
	db := databasetest.New(t)
	p := newPost(t, db, "en", "Hello", "World")
	if err := NewQueue().Enqueue(db, p.ID, "es", []string{"summary"}); err == nil {
		t.Fatal("expected an error for an unknown field")
	}
}

func TestWorkerFillsTranslations(t *testing.T) {
	db := databasetest.New(t)
	p := newPost(t, db, "en", "Hello", "World")
	q := NewQueue()
	for _, target := range []string{"pt-BR", "es"} {
		if err := q.Enqueue(db, p.ID, target, all()); err != nil {
			t.Fatal(err)
		}
	}

	tr := &fakeTranslator{}
	w := NewWorker(db, tr, WorkerOptions{})
	n, err := w.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("processed %d jobs, want 2", n)
	}

	es := translationOf(t, db, p.ID, "es")
	if es.Title == nil || *es.Title != "[es] Hello" || es.Content == nil || *es.Content != "[es] World" {
		t.Fatalf("unexpected es translation: %+v", es)
	}
	pt := translationOf(t, db, p.ID, "pt-BR")
	if pt.Title == nil || *pt.Title != "[pt-BR] Hello" {
		t.Fatalf("unexpected pt-BR translation: %+v", pt)
	}
	if jobs := jobsOf(t, db, p.ID); len(jobs) != 0 {
		t.Fatalf("expected queue to be empty, got %d jobs", len(jobs))
	}
	if tr.calls != 4 {
		t.Fatalf("translator called %d times, want 4", tr.calls)
	}
}

func TestWorkerRetriesThenGivesUp(t *testing.T) {
	db := databasetest.New(t)
	p := newPost(t, db, "en", "Hello", "World")
	if err := NewQueue().Enqueue(db, p.ID, "es", all()); err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	w := NewWorker(db, &fakeTranslator{fail: map[string]bool{"es": true}}, WorkerOptions{
		MaxAttempts:  2,
		RetryBackoff: time.Minute,
	})
	w.now = func() time.Time { return now }

	if _, err := w.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	jobs := jobsOf(t, db, p.ID)
	if len(jobs) != 1 || jobs[0].Attempts != 1 || jobs[0].Status != database.JobPending {
		t.Fatalf("unexpected job after first failure: %+v", jobs)
	}

	// not due yet
	if n, _ := w.RunOnce(context.Background()); n != 0 {
		t.Fatalf("job should wait for its backoff, processed %d", n)
	}

	now = now.Add(2 * time.Minute)
	if _, err := w.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	jobs = jobsOf(t, db, p.ID)
	if len(jobs) != 1 || jobs[0].Status != database.JobFailed || jobs[0].Attempts != 2 {
		t.Fatalf("expected a failed job after 2 attempts, got %+v", jobs)
	}

	es := translationOf(t, db, p.ID, "es")
	if es.Title != nil || es.Content != nil {
		t.Fatalf("failed translation must stay empty: %+v", es)
	}
}

func TestWorkerDropsJobsOfMissingPosts(t *testing.T) {
	db := databasetest.New(t)
	p := newPost(t, db, "en", "Hello", "World")
	if err := NewQueue().Enqueue(db, p.ID, "es", all()); err != nil {
		t.Fatal(err)
	}
	if err := db.Delete(&database.Post{}, "id = ?", p.ID).Error; err != nil {
		t.Fatal(err)
	}

	tr := &fakeTranslator{}
	if _, err := NewWorker(db, tr, WorkerOptions{}).RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if jobs := jobsOf(t, db, p.ID); len(jobs) != 0 {
		t.Fatalf("expected job to be dropped, got %d", len(jobs))
	}
	if tr.calls != 0 {
		t.Fatalf("translator should not be called, got %d calls", tr.calls)
	}
}

func TestWorkerKeepsJobReenqueuedMeanwhile(t *testing.T) {
	db := databasetest.New(t)
	p := newPost(t, db, "en", "Hello", "World")
	q := NewQueue()
	if err := q.Enqueue(db, p.ID, "es", []string{database.FieldTitle}); err != nil {
		t.Fatal(err)
	}

	tr := &fakeTranslator{}
	tr.before = func() {
		if err := q.Enqueue(db, p.ID, "es", []string{database.FieldContent}); err != nil {
			t.Error(err)
		}
	}
	w := NewWorker(db, tr, WorkerOptions{})
	if _, err := w.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}

	jobs := jobsOf(t, db, p.ID)
	if len(jobs) != 1 || jobs[0].Revision != 1 {
		t.Fatalf("re-enqueued job should survive, got %+v", jobs)
	}
	if es := translationOf(t, db, p.ID, "es"); es.Title != nil {
		t.Fatalf("stale translation must not be written, got %q", *es.Title)
	}

	if _, err := w.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	es := translationOf(t, db, p.ID, "es")
	if es.Title == nil || es.Content == nil {
		t.Fatalf("expected both fields after the second pass: %+v", es)
	}
}

func TestCancelForPost(t *testing.T) {
	db := databasetest.New(t)
	p := newPost(t, db, "en", "Hello", "World")
	q := NewQueue()
	for _, target := range []string{"pt-BR", "es"} {
		if err := q.Enqueue(db, p.ID, target, all()); err != nil {
			t.Fatal(err)
		}
	}
	if err := q.CancelForPost(db, p.ID); err != nil {
		t.Fatal(err)
	}
	if jobs := jobsOf(t, db, p.ID); len(jobs) != 0 {
		t.Fatalf("expected no jobs, got %d", len(jobs))
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	db := databasetest.New(t)
	w := NewWorker(db, &fakeTranslator{}, WorkerOptions{PollInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	w.Wake()
	w.Wake()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
