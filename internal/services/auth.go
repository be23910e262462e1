package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"iplocator/internal/logging"
	"iplocator/internal/models"
	"iplocator/internal/repository"
	"iplocator/pkg/utils"
)

const (
	SessionTTL        = 7 * 24 * time.Hour
	MinPasswordLength = 8
)

var (
	ErrUsernameRequired = errors.New("username is required")
	ErrUsernameTaken    = errors.New("username already exists")
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
)

type AuthService struct {
	admins   *repository.AdminStore
	sessions *repository.SessionStore
	logger   logging.Logger
	now      func() time.Time
}

func NewAuthService(admins *repository.AdminStore, sessions *repository.SessionStore, logger logging.Logger) *AuthService {
	return &AuthService{
		admins:   admins,
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
}

// Authenticate checks the credentials and opens a session. Unknown users and
// wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (string, *models.Admin, error) {
	admin, err := s.admins.FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if !utils.CheckPasswordHash(password, admin.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	now := s.now()
	session := &models.Session{
		AdminID:      admin.ID,
		SessionToken: utils.GenerateSessionToken(),
		ExpiresAt:    now.Add(SessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", nil, err
	}

	if err := s.admins.TouchLastLogin(ctx, admin.ID, now); err != nil {
		s.logger.Warn("Failed to update last login", "admin_id", admin.ID, "error", err)
	} else {
		admin.LastLoginAt = &now
	}

	return session.SessionToken, admin, nil
}

// Validate returns the admin owning token. Expired sessions are deleted on
// sight.
func (s *AuthService) Validate(ctx context.Context, token string) (*models.Admin, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	session, err := s.sessions.FindByToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	if session.Expired(s.now()) {
		if err := s.sessions.DeleteByID(ctx, session.ID); err != nil {
			s.logger.Warn("Failed to delete expired session", "session_id", session.ID, "error", err)
		}
		return nil, ErrUnauthorized
	}

	return session.Admin, nil
}

func (s *AuthService) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.DeleteByToken(ctx, token)
}

// CleanExpiredSessions deletes every expired session and returns how many
// were removed.
func (s *AuthService) CleanExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.now())
}

func (s *AuthService) CreateAdmin(ctx context.Context, username, password string) (*models.Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if len(password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	_, err := s.admins.FindByUsername(ctx, username)
	if err == nil {
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	admin := &models.Admin{Username: username, PasswordHash: hash}
	if err := s.admins.Create(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}
