// Package databasetest opens throwaway sqlite databases for package tests.
package databasetest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/manoela-fs/blog/database"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New returns a migrated and seeded in-memory database private to t.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatal(err)
	}
	if err := database.SeedCategories(db); err != nil {
		t.Fatal(err)
	}
	return db
}

// CreateUser inserts a user with the given locale and returns it.
func CreateUser(t testing.TB, db *gorm.DB, name, locale string) database.User {
	t.Helper()
	u := database.User{
		Name:         name,
		Email:        strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		PasswordHash: "x",
		Locale:       locale,
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("creating user %s: %v", name, err)
	}
	return u
}

// FirstCategoryID returns the id of the first seeded category.
func FirstCategoryID(t testing.TB, db *gorm.DB) uint {
	t.Helper()
	var c database.Category
	if err := db.Order("id").First(&c).Error; err != nil {
		t.Fatal(err)
	}
	return c.ID
}
