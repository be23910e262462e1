package repository

import (
	"context"
	"errors"
	"fmt"

	"iplocator/internal/models"

	"gorm.io/gorm"
)

// VisitStore is the persistence contract for page visits.
type VisitStore interface {
	Create(ctx context.Context, visit *models.Visit) error
	FindByID(ctx context.Context, id uint) (*models.Visit, error)
	SetPermission(ctx context.Context, id uint, status models.PermissionStatus, errorMessage *string) error
	SaveGPSFix(ctx context.Context, id uint, fix GPSFix) error
	List(ctx context.Context, limit, offset int) ([]models.Visit, int64, error)
}

// GPSFix is everything written on the granted path, in one update.
type GPSFix struct {
	Latitude         float64
	Longitude        float64
	Accuracy         *float64
	City             *string
	Region           *string
	RegionCode       *string
	Country          *string
	CountryCode      *string
	ZipCode          *string
	StreetAddress    *string
	PermissionStatus models.PermissionStatus
	ErrorMessage     *string
	DistanceKm       float64
}

type GormVisitStore struct {
	db *gorm.DB
}

func NewVisitStore(db *gorm.DB) *GormVisitStore {
	return &GormVisitStore{db: db}
}

func (s *GormVisitStore) Create(ctx context.Context, visit *models.Visit) error {
	if err := s.db.WithContext(ctx).Create(visit).Error; err != nil {
		return fmt.Errorf("failed to insert visit: %w", err)
	}
	return nil
}

func (s *GormVisitStore) FindByID(ctx context.Context, id uint) (*models.Visit, error) {
	var visit models.Visit
	err := s.db.WithContext(ctx).Where("id = ?", id).Limit(1).First(&visit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load visit %d: %w", id, err)
	}
	return &visit, nil
}

// SetPermission records a non-granted outcome and clears any fix saved by an
// earlier granted report.
func (s *GormVisitStore) SetPermission(ctx context.Context, id uint, status models.PermissionStatus, errorMessage *string) error {
	columns := map[string]any{
		"gps_permission_status": string(status),
		"gps_error_message":     errorMessage,
	}
	for _, column := range gpsFixColumns {
		columns[column] = nil
	}
	return s.update(ctx, id, columns)
}

// gpsFixColumns are only ever populated on the granted path.
var gpsFixColumns = []string{
	"gps_latitude",
	"gps_longitude",
	"gps_accuracy",
	"gps_city",
	"gps_region",
	"gps_region_code",
	"gps_country",
	"gps_country_code",
	"gps_zip_code",
	"gps_street_address",
	"location_distance",
}

func (s *GormVisitStore) SaveGPSFix(ctx context.Context, id uint, fix GPSFix) error {
	return s.update(ctx, id, map[string]any{
		"gps_latitude":          fix.Latitude,
		"gps_longitude":         fix.Longitude,
		"gps_accuracy":          fix.Accuracy,
		"gps_city":              fix.City,
		"gps_region":            fix.Region,
		"gps_region_code":       fix.RegionCode,
		"gps_country":           fix.Country,
		"gps_country_code":      fix.CountryCode,
		"gps_zip_code":          fix.ZipCode,
		"gps_street_address":    fix.StreetAddress,
		"gps_permission_status": string(fix.PermissionStatus),
		"gps_error_message":     fix.ErrorMessage,
		"location_distance":     fix.DistanceKm,
	})
}

func (s *GormVisitStore) update(ctx context.Context, id uint, columns map[string]any) error {
	result := s.db.WithContext(ctx).Model(&models.Visit{}).Where("id = ?", id).Updates(columns)
	if result.Error != nil {
		return fmt.Errorf("failed to update visit %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns a page of visits, newest first, and the total row count.
func (s *GormVisitStore) List(ctx context.Context, limit, offset int) ([]models.Visit, int64, error) {
	var visits []models.Visit
	if err := s.db.WithContext(ctx).Order("visited_at desc").Order("id desc").Limit(limit).Offset(offset).Find(&visits).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list visits: %w", err)
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Visit{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count visits: %w", err)
	}
	return visits, total, nil
}
