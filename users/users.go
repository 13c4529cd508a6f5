// Package users handles accounts, sign-in sessions and profile edits.
package users

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/manoela-fs/blog/constants"
	"github.com/manoela-fs/blog/database"
	"github.com/manoela-fs/blog/errs"
	"github.com/manoela-fs/blog/locales"
	"github.com/manoela-fs/blog/storage"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	files *storage.FileStore
}

func New(db *gorm.DB, files *storage.FileStore) *Service {
	return &Service{db: db, files: files}
}

type Registration struct {
	Name     string
	Email    string
	Password string
	Locale   string
	Avatar   *storage.Upload
}

type ProfileEdit struct {
	Name            string
	Email           string
	Locale          string
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
	Avatar          *storage.Upload
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkProfile(v *errs.Validator, name, email, locale string) {
	v.Check(name != "", "name", "required")
	v.Check(utf8.RuneCountInString(name) <= constants.MAX_NAME_LENGTH, "name", "too_long")
	v.Check(email != "", "email", "required")
	v.Check(len(email) <= constants.MAX_EMAIL_LENGTH, "email", "too_long")
	if email != "" {
		addr, err := mail.ParseAddress(email)
		v.Check(err == nil && addr.Address == email, "email", "invalid_email")
	}
	v.Check(locales.IsSupported(locale), "locale", "unsupported_locale")
}

func (s *Service) Register(ctx context.Context, in Registration) (database.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)

	var v errs.Validator
	checkProfile(&v, in.Name, in.Email, in.Locale)
	v.Check(in.Password != "", "password", "required")
	v.Check(utf8.RuneCountInString(in.Password) >= constants.MIN_PASSWORD_LEN, "password", "password_too_short")
	if err := v.Err(); err != nil {
		return database.User{}, err
	}

	taken, err := s.emailTaken(ctx, in.Email, "")
	if err != nil {
		return database.User{}, err
	}
	if taken {
		return database.User{}, errs.ErrDuplicateEmail
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return database.User{}, fmt.Errorf("hashing password: %w", err)
	}

	user := database.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hashedPassword),
		Locale:       in.Locale,
	}
	if in.Avatar != nil && in.Avatar.Reader != nil {
		name, err := s.saveAvatar(in.Avatar)
		if err != nil {
			return database.User{}, err
		}
		user.Avatar = &name
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if user.Avatar != nil {
			s.files.Delete(*user.Avatar)
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return database.User{}, errs.ErrDuplicateEmail
		}
		return database.User{}, fmt.Errorf("creating user: %w", err)
	}
	return user, nil
}

// Authenticate returns the user owning email when password matches.
func (s *Service) Authenticate(ctx context.Context, email, password string) (database.User, error) {
	var user database.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", normalizeEmail(email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, errs.ErrInvalidCredential
	}
	if err != nil {
		return user, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return database.User{}, errs.ErrInvalidCredential
	}
	return user, nil
}

func generateAuthToken() (string, error) {
	const tokenLength = 32
	tokenBytes := make([]byte, tokenLength)
	_, err := rand.Read(tokenBytes)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(tokenBytes), nil
}

// StartSession issues a new token for userID, replacing any previous one.
func (s *Service) StartSession(ctx context.Context, userID string) (string, error) {
	token, err := generateAuthToken()
	if err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	res := s.db.WithContext(ctx).Model(&database.User{}).Where("id = ?", userID).Update("session_token", token)
	if res.Error != nil {
		return "", fmt.Errorf("storing session token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return "", fmt.Errorf("user %s: %w", userID, errs.ErrNotFound)
	}
	return token, nil
}

func (s *Service) UserBySession(ctx context.Context, token string) (database.User, error) {
	var user database.User
	if token == "" {
		return user, errs.ErrNotFound
	}
	err := s.db.WithContext(ctx).First(&user, "session_token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, errs.ErrNotFound
	}
	return user, err
}

func (s *Service) EndSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.db.WithContext(ctx).Model(&database.User{}).
		Where("session_token = ?", token).
		Update("session_token", nil).Error
}

func (s *Service) ByID(ctx context.Context, id string) (database.User, error) {
	var user database.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, fmt.Errorf("user %s: %w", id, errs.ErrNotFound)
	}
	return user, err
}

// EditProfile updates the profile of userID. The current password must
// match; a new password is only set when given together with a matching
// confirmation.
func (s *Service) EditProfile(ctx context.Context, userID string, in ProfileEdit) (database.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)

	var v errs.Validator
	checkProfile(&v, in.Name, in.Email, in.Locale)
	v.Check(in.CurrentPassword != "", "current_password", "required")
	if in.NewPassword != "" {
		v.Check(utf8.RuneCountInString(in.NewPassword) >= constants.MIN_PASSWORD_LEN, "new_password", "password_too_short")
		v.Check(in.NewPassword == in.ConfirmPassword, "confirm_password", "password_mismatch")
	}
	if err := v.Err(); err != nil {
		return database.User{}, err
	}

	user, err := s.ByID(ctx, userID)
	if err != nil {
		return user, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)) != nil {
		return database.User{}, errs.ErrInvalidCredential
	}

	taken, err := s.emailTaken(ctx, in.Email, user.ID)
	if err != nil {
		return database.User{}, err
	}
	if taken {
		return database.User{}, errs.ErrDuplicateEmail
	}

	updates := map[string]any{
		"name":   in.Name,
		"email":  in.Email,
		"locale": in.Locale,
	}
	if in.NewPassword != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return database.User{}, fmt.Errorf("hashing password: %w", err)
		}
		updates["password_hash"] = string(hashed)
	}

	var newAvatar string
	if in.Avatar != nil && in.Avatar.Reader != nil {
		newAvatar, err = s.saveAvatar(in.Avatar)
		if err != nil {
			return database.User{}, err
		}
		updates["avatar"] = newAvatar
	}

	if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
		if newAvatar != "" {
			s.files.Delete(newAvatar)
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return database.User{}, errs.ErrDuplicateEmail
		}
		return database.User{}, fmt.Errorf("updating profile: %w", err)
	}

	if newAvatar != "" && user.Avatar != nil {
		if err := s.files.Delete(*user.Avatar); err != nil {
			log.Printf("Failed to remove old avatar of %s: %v", user.ID, err)
		}
	}
	return s.ByID(ctx, userID)
}

func (s *Service) emailTaken(ctx context.Context, email, exceptID string) (bool, error) {
	q := s.db.WithContext(ctx).Model(&database.User{}).Where("email = ?", email)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Service) saveAvatar(up *storage.Upload) (string, error) {
	name, err := s.files.Save(up.Name, up.Reader)
	if errors.Is(err, storage.ErrNotImage) {
		return "", &errs.ValidationError{Fields: map[string]string{"avatar": "not_an_image"}}
	}
	if err != nil {
		return "", fmt.Errorf("saving avatar: %w", err)
	}
	return name, nil
}
