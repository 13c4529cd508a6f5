package database

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	ID           string `gorm:"primaryKey;size:36"`
	Name         string `gorm:"size:100;not null"`
	Email        string `gorm:"size:254;uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Avatar       *string
	Locale       string  `gorm:"size:8;not null"`
	SessionToken *string `gorm:"size:64;uniqueIndex"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

type Category struct {
	ID           uint `gorm:"primaryKey"`
	CreatedAt    time.Time
	Translations []CategoryTranslation `gorm:"foreignKey:CategoryID"`
}

type CategoryTranslation struct {
	CategoryID uint   `gorm:"primaryKey;autoIncrement:false"`
	Locale     string `gorm:"primaryKey;size:8"`
	Name       string `gorm:"size:100;not null"`
}

type Post struct {
	ID           string `gorm:"primaryKey;size:36"`
	Image        *string
	CategoryID   uint     `gorm:"index;not null"`
	Category     Category `gorm:"foreignKey:CategoryID"`
	UserID       string   `gorm:"size:36;index;not null"`
	User         User     `gorm:"foreignKey:UserID"`
	SourceLocale string   `gorm:"size:8;not null"`
	CreatedAt    time.Time `gorm:"index"`
	UpdatedAt    time.Time
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// PostTranslation is one locale variant of a post. A nil Title or Content means
// the translation is not available (yet).
type PostTranslation struct {
	PostID  string `gorm:"primaryKey;size:36"`
	Locale  string `gorm:"primaryKey;size:8"`
	Title   *string
	Content *string `gorm:"type:text"`
}

// Like presence is the liked state; the composite key allows one per pair.
type Like struct {
	UserID    string `gorm:"primaryKey;size:36"`
	PostID    string `gorm:"primaryKey;size:36;index"`
	CreatedAt time.Time
}

const (
	JobPending = "pending"
	JobFailed  = "failed"
)

const (
	FieldTitle   = "title"
	FieldContent = "content"
)

type TranslationJob struct {
	ID           uint           `gorm:"primaryKey"`
	PostID       string         `gorm:"size:36;not null;uniqueIndex:idx_job_post_locale"`
	TargetLocale string         `gorm:"size:8;not null;uniqueIndex:idx_job_post_locale"`
	Fields       datatypes.JSON `gorm:"not null"`
	Status       string         `gorm:"size:16;index;not null"`
	Attempts     int
	Revision     int
	LastError    string
	NotBefore    time.Time `gorm:"index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (j *TranslationJob) FieldNames() []string {
	var names []string
	if len(j.Fields) == 0 {
		return names
	}
	if err := json.Unmarshal(j.Fields, &names); err != nil {
		return nil
	}
	return names
}

func FieldsJSON(names []string) datatypes.JSON {
	b, _ := json.Marshal(names)
	return datatypes.JSON(b)
}

// AllModels lists every table owned by the application, in migration order.
func AllModels() []any {
	return []any{
		&User{},
		&Category{},
		&CategoryTranslation{},
		&Post{},
		&PostTranslation{},
		&Like{},
		&TranslationJob{},
	}
}
