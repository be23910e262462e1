package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"iplocator/internal/models"

	"gorm.io/gorm"
)

type AdminStore struct {
	db *gorm.DB
}

func NewAdminStore(db *gorm.DB) *AdminStore {
	return &AdminStore{db: db}
}

func (s *AdminStore) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	var admin models.Admin
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load admin: %w", err)
	}
	return &admin, nil
}

func (s *AdminStore) Create(ctx context.Context, admin *models.Admin) error {
	if err := s.db.WithContext(ctx).Create(admin).Error; err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	return nil
}

func (s *AdminStore) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	err := s.db.WithContext(ctx).Model(&models.Admin{}).Where("id = ?", id).Update("last_login_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}
