package likes

import (
	"context"
	"errors"
	"testing"

	"github.com/manoela-fs/blog/database"
	"github.com/manoela-fs/blog/database/databasetest"
	"github.com/manoela-fs/blog/errs"
	"gorm.io/gorm"
)

func newPost(t *testing.T, db *gorm.DB, author database.User, categoryID uint) database.Post {
	t.Helper()
	p := database.Post{CategoryID: categoryID, UserID: author.ID, SourceLocale: author.Locale}
	if err := db.Omit("User", "Category").Create(&p).Error; err != nil {
		t.Fatal(err)
	}
	return p
}

func TestToggleRoundTrip(t *testing.T) {
	db := databasetest.New(t)
	author := databasetest.CreateUser(t, db, "Author", "en")
	reader := databasetest.CreateUser(t, db, "Reader", "es")
	p := newPost(t, db, author, databasetest.FirstCategoryID(t, db))
	l := New(db)
	ctx := context.Background()

	liked, err := l.Toggle(ctx, reader.ID, p.ID)
	if err != nil || !liked {
		t.Fatalf("first toggle = %v, %v", liked, err)
	}
	if n, _ := l.CountFor(ctx, p.ID); n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
	if ok, _ := l.IsLikedBy(ctx, reader.ID, p.ID); !ok {
		t.Fatal("expected post to be liked")
	}

	liked, err = l.Toggle(ctx, reader.ID, p.ID)
	if err != nil || liked {
		t.Fatalf("second toggle = %v, %v", liked, err)
	}
	if n, _ := l.CountFor(ctx, p.ID); n != 0 {
		t.Fatalf("count = %d, want 0", n)
	}
	if ok, _ := l.IsLikedBy(ctx, reader.ID, p.ID); ok {
		t.Fatal("expected post not to be liked")
	}
}

func TestToggleUnknownPost(t *testing.T) {
	db := databasetest.New(t)
	reader := databasetest.CreateUser(t, db, "Reader", "es")

	_, err := New(db).Toggle(context.Background(), reader.ID, "missing")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var n int64
	db.Model(&database.Like{}).Count(&n)
	if n != 0 {
		t.Fatalf("no like should be stored, got %d", n)
	}
}

func TestCountForManyDefaultsToZero(t *testing.T) {
	db := databasetest.New(t)
	author := databasetest.CreateUser(t, db, "Author", "en")
	a := databasetest.CreateUser(t, db, "A", "en")
	b := databasetest.CreateUser(t, db, "B", "en")
	cat := databasetest.FirstCategoryID(t, db)
	p1 := newPost(t, db, author, cat)
	p2 := newPost(t, db, author, cat)
	l := New(db)
	ctx := context.Background()

	for _, u := range []database.User{a, b} {
		if _, err := l.Toggle(ctx, u.ID, p1.ID); err != nil {
			t.Fatal(err)
		}
	}

	got, err := l.CountForMany(ctx, []string{p1.ID, p2.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[p1.ID] != 2 || got[p2.ID] != 0 {
		t.Fatalf("CountForMany = %v", got)
	}
	if _, ok := got[p2.ID]; !ok {
		t.Fatal("every requested id must be present")
	}
}

func TestLikedSubsetOf(t *testing.T) {
	db := databasetest.New(t)
	author := databasetest.CreateUser(t, db, "Author", "en")
	reader := databasetest.CreateUser(t, db, "Reader", "en")
	cat := databasetest.FirstCategoryID(t, db)
	p1 := newPost(t, db, author, cat)
	p2 := newPost(t, db, author, cat)
	l := New(db)
	ctx := context.Background()

	if _, err := l.Toggle(ctx, reader.ID, p2.ID); err != nil {
		t.Fatal(err)
	}

	got, err := l.LikedSubsetOf(ctx, reader.ID, []string{p1.ID, p2.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !got[p2.ID] {
		t.Fatalf("LikedSubsetOf = %v", got)
	}

	anon, err := l.LikedSubsetOf(ctx, "", []string{p1.ID, p2.ID})
	if err != nil || len(anon) != 0 {
		t.Fatalf("anonymous viewer = %v, %v", anon, err)
	}
}

func TestLikesByCategoryFor(t *testing.T) {
	db := databasetest.New(t)
	author := databasetest.CreateUser(t, db, "Author", "en")
	reader := databasetest.CreateUser(t, db, "Reader", "en")

	var cats []database.Category
	if err := db.Order("id").Limit(2).Find(&cats).Error; err != nil || len(cats) < 2 {
		t.Fatalf("need two categories: %v", err)
	}
	first := newPost(t, db, author, cats[0].ID)
	second1 := newPost(t, db, author, cats[1].ID)
	second2 := newPost(t, db, author, cats[1].ID)

	l := New(db)
	ctx := context.Background()
	for _, p := range []database.Post{first, second1, second2} {
		if _, err := l.Toggle(ctx, reader.ID, p.ID); err != nil {
			t.Fatal(err)
		}
	}

	got, err := l.LikesByCategoryFor(ctx, reader.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 categories, got %+v", got)
	}
	if got[0].CategoryID != cats[1].ID || got[0].Count != 2 || got[1].CategoryID != cats[0].ID || got[1].Count != 1 {
		t.Fatalf("unexpected aggregate %+v", got)
	}
}

func TestDeleteForPostInTransaction(t *testing.T) {
	db := databasetest.New(t)
	author := databasetest.CreateUser(t, db, "Author", "en")
	reader := databasetest.CreateUser(t, db, "Reader", "en")
	p := newPost(t, db, author, databasetest.FirstCategoryID(t, db))
	l := New(db)
	ctx := context.Background()

	if _, err := l.Toggle(ctx, reader.ID, p.ID); err != nil {
		t.Fatal(err)
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		return l.WithTx(tx).DeleteForPost(ctx, p.ID)
	})
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := l.CountFor(ctx, p.ID); n != 0 {
		t.Fatalf("count = %d after delete", n)
	}
}
