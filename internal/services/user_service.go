package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/notula/internal/models"
	"github.com/charlesng35/notula/pkg/crypto"
	apperrors "github.com/charlesng35/notula/pkg/errors"
	"github.com/charlesng35/notula/pkg/metrics"
)

// RegisterInput describes the fields accepted when signing up.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// UpdateProfileInput enumerates the mutable profile attributes.
type UpdateProfileInput struct {
	Name  *string
	Email *string
}

// UserService manages accounts and credential checks.
type UserService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewUserService constructs a UserService instance.
func NewUserService(db *gorm.DB) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db, now: time.Now}, nil
}

// Register creates a regular user with a hashed password.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)
	if name == "" {
		return nil, apperrors.NewBadRequest("name is required")
	}
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		switch {
		case errors.Is(err, crypto.ErrEmptyPassword):
			return nil, apperrors.NewBadRequest("password is required")
		case errors.Is(err, crypto.ErrPasswordTooLong):
			return nil, apperrors.NewBadRequest("password must be at most 72 bytes")
		}
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	user := &models.User{
		Name:     name,
		Email:    email,
		Password: hashed,
		Role:     models.RoleUser,
		IsActive: true,
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("user service: create user: %w", err)
	}
	return user, nil
}

// Authenticate verifies the credential pair and stamps the login time.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if err != nil {
		if isNotFound(err) {
			metrics.AuthAttempts.WithLabelValues("failure").Inc()
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("user service: load user: %w", err)
	}

	if !crypto.VerifyPassword(user.Password, password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, ErrAccountDisabled
	}

	now := s.now().UTC()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, fmt.Errorf("user service: stamp login: %w", err)
	}
	user.LastLoginAt = &now

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return &user, nil
}

// Get loads a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user service: get user: %w", err)
	}
	return &user, nil
}

// UpdateProfile changes the name and/or email of a user.
func (s *UserService) UpdateProfile(ctx context.Context, id string, input UpdateProfileInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewBadRequest("name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if email == "" {
			return nil, apperrors.NewBadRequest("email cannot be empty")
		}
		updates["email"] = email
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("user service: update profile: %w", err)
	}
	return s.Get(ctx, id)
}

// ChangePassword replaces the password after verifying the current one.
func (s *UserService) ChangePassword(ctx context.Context, id, current, next string) error {
	ctx = ensureContext(ctx)

	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !crypto.VerifyPassword(user.Password, current) {
		return ErrIncorrectPassword
	}

	hashed, err := crypto.HashPassword(next)
	if err != nil {
		switch {
		case errors.Is(err, crypto.ErrEmptyPassword):
			return apperrors.NewBadRequest("new password is required")
		case errors.Is(err, crypto.ErrPasswordTooLong):
			return apperrors.NewBadRequest("new password must be at most 72 bytes")
		}
		return fmt.Errorf("user service: hash password: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(user).Update("password", hashed).Error; err != nil {
		return fmt.Errorf("user service: change password: %w", err)
	}
	return nil
}

// resolveUserIDsByEmail maps lower-cased emails to registered user ids.
func resolveUserIDsByEmail(tx *gorm.DB, emails []string) (map[string]string, error) {
	emails = normaliseIDs(emails)
	if len(emails) == 0 {
		return map[string]string{}, nil
	}

	var rows []models.User
	if err := tx.Select("id", "email").Where("email IN ?", emails).Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[strings.ToLower(row.Email)] = row.ID
	}
	return out, nil
}

// existingUserIDs filters ids down to those that belong to registered users.
func existingUserIDs(tx *gorm.DB, ids []string) (map[string]struct{}, error) {
	ids = normaliseIDs(ids)
	out := make(map[string]struct{}, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var found []string
	if err := tx.Model(&models.User{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	for _, id := range found {
		out[id] = struct{}{}
	}
	return out, nil
}
