// Package auth registers profiles, signs people in with email and password,
// and issues and revokes JWT sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"civicdesk/backend/internal/models"
	"civicdesk/backend/internal/storage"

	"go.uber.org/zap"
)

// DefaultLanguage is stored when registration names no language.
const DefaultLanguage = "en"

// RegisterInput is the registration form.
type RegisterInput struct {
	Email      string
	Password   string
	FullName   string
	Role       string
	Department string
	Language   string
}

// Session is a successful sign-in.
type Session struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Profile   *models.Profile `json:"profile"`
}

type Service struct {
	Storage storage.Storage
	Tokens  *Tokens
	Logger  *zap.Logger
	Now     func() time.Time
}

func NewService(s storage.Storage, tokens *Tokens, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{Storage: s, Tokens: tokens, Logger: logger, Now: time.Now}
}

// Register creates a profile. Department is only accepted for staff roles.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.Profile, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: email is not valid", ErrInvalidInput)
	}
	if len(in.Password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	role, err := models.ParseRole(in.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	p := &models.Profile{
		Email:    email,
		FullName: strings.TrimSpace(in.FullName),
		Role:     role,
		Language: strings.ToLower(strings.TrimSpace(in.Language)),
	}
	if p.Language == "" {
		p.Language = DefaultLanguage
	}
	if dept := strings.TrimSpace(in.Department); dept != "" {
		if !role.Staff() {
			return nil, fmt.Errorf("%w: only officers and workers have a department", ErrInvalidInput)
		}
		p.Department = &dept
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	p.PasswordHash = hash

	if err := s.Storage.CreateProfile(ctx, p); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	s.Logger.Info("profile registered", zap.String("user_id", p.UserID), zap.String("role", string(p.Role)))
	return p, nil
}

// SignIn checks the password and that the selected role is the registered one,
// then refreshes last_seen and issues a token.
func (s *Service) SignIn(ctx context.Context, email, password, selectedRole string) (*Session, error) {
	p, err := s.Storage.GetProfileByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &AuthError{Message: "Invalid email or password", Err: ErrInvalidCredentials}
		}
		return nil, err
	}
	if err := VerifyPassword(p.PasswordHash, password); err != nil {
		return nil, &AuthError{Message: "Invalid email or password", Err: ErrInvalidCredentials}
	}

	if role, err := models.ParseRole(selectedRole); err != nil || role != p.Role {
		return nil, &AuthError{
			Message: fmt.Sprintf("Invalid role. You are registered as a %s", p.Role),
			Err:     ErrRoleMismatch,
		}
	}

	now := s.Now().UTC()
	if err := s.Storage.TouchLastSeen(ctx, p.UserID, now); err != nil {
		return nil, err
	}
	p.LastSeen = now

	token, claims, err := s.Tokens.Issue(p.UserID, p.Role)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: claims.ExpiresAt.Time, Profile: p}, nil
}

// Authenticate validates a token and rejects revoked ones.
func (s *Service) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.Tokens.Parse(token)
	if err != nil {
		return nil, &AuthError{Message: "Invalid or expired session", Err: err}
	}
	revoked, err := s.Storage.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, &AuthError{Message: "Session has been signed out", Err: ErrRevokedToken}
	}
	return claims, nil
}

// SignOut revokes the token until it would have expired.
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := s.Tokens.Parse(token)
	if err != nil {
		return &AuthError{Message: "Invalid or expired session", Err: err}
	}
	ttl := claims.ExpiresAt.Time.Sub(s.Now())
	return s.Storage.RevokeToken(ctx, claims.ID, ttl)
}
