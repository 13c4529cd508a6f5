package content

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/manoela-fs/blog/catalog"
	"github.com/manoela-fs/blog/database"
	"github.com/manoela-fs/blog/database/databasetest"
	"github.com/manoela-fs/blog/errs"
	"github.com/manoela-fs/blog/likes"
	"github.com/manoela-fs/blog/storage"
	"github.com/manoela-fs/blog/translation"
	"gorm.io/gorm"
)

type fakeTranslator struct {
	fail  map[string]bool
	calls int
}

func (f *fakeTranslator) Translate(ctx context.Context, text, source, target string) (string, bool) {
	f.calls++
	if f.fail[target] {
		return "", false
	}
	return "[" + target + "] " + text, true
}

const (
	pngImage  = "\x89PNG\r\n\x1a\n" + "png"
	jpegImage = "\xff\xd8\xff\xe0" + "jpeg"
)

type countingWaker struct{ n int }

func (w *countingWaker) Wake() { w.n++ }

type fixture struct {
	db         *gorm.DB
	store      *Store
	files      *storage.FileStore
	ledger     *likes.Ledger
	worker     *translation.Worker
	translator *fakeTranslator
	waker      *countingWaker
	categoryID uint
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := databasetest.New(t)
	f := &fixture{
		db:         db,
		files:      storage.NewFileStore(t.TempDir()),
		ledger:     likes.New(db),
		translator: &fakeTranslator{fail: map[string]bool{}},
		waker:      &countingWaker{},
		categoryID: databasetest.FirstCategoryID(t, db),
	}
	f.store = New(db, f.files, catalog.New(db), f.ledger, translation.NewQueue(), f.waker)
	f.worker = translation.NewWorker(db, f.translator, translation.WorkerOptions{})
	return f
}

func (f *fixture) drain(t *testing.T) {
	t.Helper()
	if _, err := f.worker.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) create(t *testing.T, author database.User, title, body string) database.Post {
	t.Helper()
	p, err := f.store.CreatePost(context.Background(), NewPost{CategoryID: f.categoryID, Title: title, Content: body}, author)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func (f *fixture) texts(t *testing.T, postID string) map[string]database.PostTranslation {
	t.Helper()
	var rows []database.PostTranslation
	if err := f.db.Where("post_id = ?", postID).Find(&rows).Error; err != nil {
		t.Fatal(err)
	}
	out := make(map[string]database.PostTranslation)
	for _, r := range rows {
		out[r.Locale] = r
	}
	return out
}

func str(p *string) string {
	if p == nil {
		return "<nil>"
	}
	return *p
}

func TestCreatePostFansOutToEveryLocale(t *testing.T) {
	f := newFixture(t)
	author := databasetest.CreateUser(t, f.db, "Author", "en")

	p := f.create(t, author, "Hello", "World")
	if p.SourceLocale != "en" {
		t.Fatalf("source locale = %q", p.SourceLocale)
	}
	if f.waker.n != 1 {
		t.Fatalf("worker woken %d times, want 1", f.waker.n)
	}
	f.drain(t)

	texts := f.texts(t, p.ID)
	if len(texts) != 3 {
		t.Fatalf("expected 3 translation rows, got %d", len(texts))
	}
	if str(texts["en"].Title) != "Hello" || str(texts["en"].Content) != "World" {
		t.Fatalf("source row changed: %+v", texts["en"])
	}
	for _, locale := range []string{"pt-BR", "es"} {
		want := "[" + locale + "] Hello"
		if str(texts[locale].Title) != want {
			t.Errorf("%s title = %s, want %s", locale, str(texts[locale].Title), want)
		}
	}
	if f.translator.calls != 4 {
		t.Fatalf("translator called %d times, want 4", f.translator.calls)
	}
}

func TestCreatePostSurvivesTranslationFailure(t *testing.T) {
	f := newFixture(t)
	f.translator.fail["es"] = true
	author := databasetest.CreateUser(t, f.db, "Author", "en")

	p := f.create(t, author, "Hello", "World")
	f.drain(t)

	texts := f.texts(t, p.ID)
	es, ok := texts["es"]
	if !ok {
		t.Fatal("es row should exist even when translation failed")
	}
	if es.Title != nil || es.Content != nil {
		t.Fatalf("es row should be empty, got %s / %s", str(es.Title), str(es.Content))
	}

	view, err := f.store.GetOne(context.Background(), p.ID, "es", "")
	if err != nil {
		t.Fatal(err)
	}
	if view.Title != "Hello" || view.Content != "World" || !view.Untranslated {
		t.Fatalf("expected fallback to the original text, got %+v", view)
	}

	pt, err := f.store.GetOne(context.Background(), p.ID, "pt-BR", "")
	if err != nil {
		t.Fatal(err)
	}
	if pt.Untranslated || pt.Title != "[pt-BR] Hello" {
		t.Fatalf("unexpected pt-BR view %+v", pt)
	}
}

func TestCreatePostRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	author := databasetest.CreateUser(t, f.db, "Author", "en")
	ctx := context.Background()

	_, err := f.store.CreatePost(ctx, NewPost{CategoryID: 9999, Title: "t", Content: "c"}, author)
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("unknown category: expected ErrNotFound, got %v", err)
	}

	_, err = f.store.CreatePost(ctx, NewPost{CategoryID: f.categoryID, Title: "  ", Content: strings.Repeat("x", 6000)}, author)
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	fields := errs.Fields(err)
	if fields["title"] != "required" || fields["content"] != "too_long" {
		t.Fatalf("unexpected field errors %v", fields)
	}

	var n int64
	f.db.Model(&database.Post{}).Count(&n)
	if n != 0 {
		t.Fatalf("no post should be stored, got %d", n)
	}
}

func TestEditPostChangesCategoryOnly(t *testing.T) {
	f := newFixture(t)
	author := databasetest.CreateUser(t, f.db, "Author", "en")
	p := f.create(t, author, "Hello", "World")
	f.drain(t)

	var other database.Category
	if err := f.db.Where("id <> ?", f.categoryID).First(&other).Error; err != nil {
		t.Fatal(err)
	}

	calls := f.translator.calls
	err := f.store.EditPost(context.Background(), p.ID, PostEdit{CategoryID: other.ID, Title: "Hello", Content: "World"}, author)
	if err != nil {
		t.Fatal(err)
	}
	f.drain(t)

	got, err := f.store.GetPost(context.Background(), p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != p.ID || got.CategoryID != other.ID || !got.CreatedAt.Equal(p.CreatedAt) {
		t.Fatalf("unexpected post after edit: %+v (before %+v)", got, p)
	}
	if f.translator.calls != calls {
		t.Fatalf("unchanged text should not be translated again")
	}
}

func TestEditPostRetranslatesChangedFields(t *testing.T) {
	f := newFixture(t)
	author := databasetest.CreateUser(t, f.db, "Author", "en")
	p := f.create(t, author, "Hello", "World")
	f.drain(t)

	err := f.store.EditPost(context.Background(), p.ID, PostEdit{CategoryID: f.categoryID, Title: "Hello", Content: "Everyone"}, author)
	if err != nil {
		t.Fatal(err)
	}

	texts := f.texts(t, p.ID)
	if str(texts["es"].Title) != "[es] Hello" {
		t.Fatalf("unchanged title should be kept, got %s", str(texts["es"].Title))
	}
	if texts["es"].Content != nil {
		t.Fatalf("changed content should wait for the worker, got %s", str(texts["es"].Content))
	}

	f.drain(t)
	texts = f.texts(t, p.ID)
	if str(texts["es"].Content) != "[es] Everyone" || str(texts["pt-BR"].Content) != "[pt-BR] Everyone" {
		t.Fatalf("content not re-translated: %+v", texts)
	}
	if str(texts["en"].Content) != "Everyone" {
		t.Fatalf("source content = %s", str(texts["en"].Content))
	}
}

func TestEditPostInAnotherLocaleRedoesEverything(t *testing.T) {
	f := newFixture(t)
	author := databasetest.CreateUser(t, f.db, "Author", "en")
	p := f.create(t, author, "Hello", "World")
	f.drain(t)

	author.Locale = "es"
	err := f.store.EditPost(context.Background(), p.ID, PostEdit{CategoryID: f.categoryID, Title: "Hola", Content: "Mundo"}, author)
	if err != nil {
		t.Fatal(err)
	}
	f.drain(t)

	got, _ := f.store.GetPost(context.Background(), p.ID)
	if got.SourceLocale != "es" {
		t.Fatalf("source locale = %q, want es", got.SourceLocale)
	}
	texts := f.texts(t, p.ID)
	if str(texts["es"].Title) != "Hola" {
		t.Fatalf("es should hold the edited text, got %s", str(texts["es"].Title))
	}
	if str(texts["en"].Title) != "[en] Hola" || str(texts["pt-BR"].Content) != "[pt-BR] Mundo" {
		t.Fatalf("other locales not re-translated: %+v", texts)
	}
}

func TestOnlyOwnerCanEditOrDelete(t *testing.T) {
	f := newFixture(t)
	author := databasetest.CreateUser(t, f.db, "Author", "en")
	intruder := databasetest.CreateUser(t, f.db, "Intruder", "en")
	p := f.create(t, author, "Hello", "World")
	ctx := context.Background()

	err := f.store.EditPost(ctx, p.ID, PostEdit{CategoryID: f.categoryID, Title: "Hacked", Content: "Hacked"}, intruder)
	if !errors.Is(err, errs.ErrPermissionDenied) {
		t.Fatalf("edit: expected ErrPermissionDenied, got %v", err)
	}
	if err := f.store.DeletePost(ctx, p.ID, intruder); !errors.Is(err, errs.ErrPermissionDenied) {
		t.Fatalf("delete: expected ErrPermissionDenied, got %v", err)
	}

	src, err := f.store.SourceTranslation(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if str(src.Title) != "Hello" {
		t.Fatalf("post changed by non-owner: %s", str(src.Title))
	}

	if err := f.store.EditPost(ctx, "missing", PostEdit{CategoryID: f.categoryID, Title: "a", Content: "b"}, author); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a missing post, got %v", err)
	}
}

func TestDeletePostRemovesEverything(t *testing.T) {
	f := newFixture(t)
	author := databasetest.CreateUser(t, f.db, "Author", "en")
	reader := databasetest.CreateUser(t, f.db, "Reader", "es")
	ctx := context.Background()

	p, err := f.store.CreatePost(ctx, NewPost{
		CategoryID: f.categoryID,
		Title:      "Hello",
		Content:    "World",
		Image:      &storage.Upload{Name: "cat.png", Reader: strings.NewReader(pngImage)},
	}, author)
	if err != nil {
		t.Fatal(err)
	}
	if p.Image == nil {
		t.Fatal("image name should be stored on the post")
	}
	imagePath := filepath.Join(f.files.Dir(), *p.Image)
	if _, err := os.Stat(imagePath); err != nil {
		t.Fatalf("image not saved: %v", err)
	}
	if _, err := f.ledger.Toggle(ctx, reader.ID, p.ID); err != nil {
		t.Fatal(err)
	}

	if err := f.store.DeletePost(ctx, p.ID, author); err != nil {
		t.Fatal(err)
	}

	if _, err := f.store.GetOne(ctx, p.ID, "en", ""); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if _, err := os.Stat(imagePath); !os.IsNotExist(err) {
		t.Fatalf("image should be removed, stat err = %v", err)
	}
	for _, model := range []any{&database.PostTranslation{}, &database.Like{}, &database.TranslationJob{}} {
		var n int64
		f.db.Model(model).Where("post_id = ?", p.ID).Count(&n)
		if n != 0 {
			t.Fatalf("%T rows left: %d", model, n)
		}
	}
	var users int64
	f.db.Model(&database.User{}).Count(&users)
	if users != 2 {
		t.Fatalf("users must survive post deletion, got %d", users)
	}
}

func TestEditPostReplacesImage(t *testing.T) {
	f := newFixture(t)
	author := databasetest.CreateUser(t, f.db, "Author", "en")
	ctx := context.Background()

	p, err := f.store.CreatePost(ctx, NewPost{
		CategoryID: f.categoryID, Title: "Hello", Content: "World",
		Image: &storage.Upload{Name: "old.jpg", Reader: strings.NewReader(jpegImage)},
	}, author)
	if err != nil {
		t.Fatal(err)
	}

	err = f.store.EditPost(ctx, p.ID, PostEdit{
		CategoryID: f.categoryID, Title: "Hello", Content: "World",
		Image: &storage.Upload{Name: "new.jpg", Reader: strings.NewReader(jpegImage)},
	}, author)
	if err != nil {
		t.Fatal(err)
	}

	got, _ := f.store.GetPost(ctx, p.ID)
	if got.Image == nil || *got.Image == *p.Image || !strings.HasSuffix(*got.Image, "_new.jpg") {
		t.Fatalf("unexpected image after edit: %v", str(got.Image))
	}
	if _, err := os.Stat(filepath.Join(f.files.Dir(), *p.Image)); !os.IsNotExist(err) {
		t.Fatalf("old image should be removed, stat err = %v", err)
	}
}

func TestCreatePostRejectsNonImageUpload(t *testing.T) {
	f := newFixture(t)
	author := databasetest.CreateUser(t, f.db, "Author", "en")

	_, err := f.store.CreatePost(context.Background(), NewPost{
		CategoryID: f.categoryID, Title: "Hello", Content: "World",
		Image: &storage.Upload{Name: "evil.html", Reader: strings.NewReader("<script>alert(1)</script>")},
	}, author)
	if !errors.Is(err, errs.ErrValidation) || errs.Fields(err)["image"] != "not_an_image" {
		t.Fatalf("expected an image validation error, got %v", err)
	}

	var posts int64
	f.db.Model(&database.Post{}).Count(&posts)
	if posts != 0 {
		t.Fatalf("no post should be created, got %d", posts)
	}
	entries, _ := os.ReadDir(f.files.Dir())
	if len(entries) != 0 {
		t.Fatalf("nothing should be written to the upload dir, got %d files", len(entries))
	}
}

func TestEditPostChecksOwnerBeforeInput(t *testing.T) {
	f := newFixture(t)
	author := databasetest.CreateUser(t, f.db, "Author", "en")
	intruder := databasetest.CreateUser(t, f.db, "Intruder", "en")
	ctx := context.Background()

	p, err := f.store.CreatePost(ctx, NewPost{CategoryID: f.categoryID, Title: "Hello", Content: "World"}, author)
	if err != nil {
		t.Fatal(err)
	}

	err = f.store.EditPost(ctx, p.ID, PostEdit{CategoryID: f.categoryID, Title: "", Content: ""}, intruder)
	if !errors.Is(err, errs.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied for an invalid edit by another user, got %v", err)
	}

	err = f.store.EditPost(ctx, p.ID, PostEdit{CategoryID: f.categoryID, Title: "", Content: ""}, author)
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected ErrValidation for the owner, got %v", err)
	}
}
