package client

import (
	"context"
	"time"

	"github.com/charlesng35/notula/internal/models"
)

// AuthService covers registration, login and the caller's profile.
type AuthService struct {
	client *Client
}

// Session is the result of a successful register or login.
type Session struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest changes the caller's name or email. Nil fields are left unchanged.
type UpdateProfileRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// Register creates an account and stores the issued token on the client.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	var session Session
	if err := s.client.post(ctx, "/api/auth/register", req, &session); err != nil {
		return nil, err
	}
	s.client.SetToken(session.Token)
	return &session, nil
}

// Login authenticates and stores the issued token on the client.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	body := map[string]string{"email": email, "password": password}
	if err := s.client.post(ctx, "/api/auth/login", body, &session); err != nil {
		return nil, err
	}
	s.client.SetToken(session.Token)
	return &session, nil
}

// Logout forgets the stored token. Tokens are stateless, so nothing is sent.
func (s *AuthService) Logout() {
	s.client.SetToken("")
}

// Profile returns the authenticated user.
func (s *AuthService) Profile(ctx context.Context) (*models.User, error) {
	var user models.User
	if _, err := s.client.get(ctx, "/api/auth/profile", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile changes the authenticated user's name or email.
func (s *AuthService) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*models.User, error) {
	var user models.User
	if err := s.client.put(ctx, "/api/auth/profile", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, current, next string) error {
	body := map[string]string{"current_password": current, "new_password": next}
	return s.client.put(ctx, "/api/auth/change-password", body, nil)
}
