package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"iplocator/internal/models"

	"gorm.io/gorm"
)

type SessionStore struct {
	db *gorm.DB
}

func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Create(ctx context.Context, session *models.Session) error {
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindByToken loads a session together with its admin.
func (s *SessionStore) FindByToken(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	err := s.db.WithContext(ctx).Preload("Admin").Where("session_token = ?", token).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session.Admin == nil {
		return nil, ErrNotFound
	}
	return &session, nil
}

func (s *SessionStore) DeleteByID(ctx context.Context, id uint) error {
	if err := s.db.WithContext(ctx).Delete(&models.Session{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) DeleteByToken(ctx context.Context, token string) error {
	if err := s.db.WithContext(ctx).Where("session_token = ?", token).Delete(&models.Session{}).Error; err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes every session that expired before now.
func (s *SessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.Session{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}
