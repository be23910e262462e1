package services

import (
	"context"
	"errors"
	"fmt"

	"iplocator/internal/events"
	"iplocator/internal/geo"
	"iplocator/internal/logging"
	"iplocator/internal/models"
	"iplocator/internal/repository"
)

// GPSReport is what the browser sends after asking for device location.
type GPSReport struct {
	VisitID          uint
	Latitude         float64
	Longitude        float64
	Accuracy         *float64
	PermissionStatus models.PermissionStatus
	ErrorMessage     string
}

// GPSResult carries everything the caller renders after a report. Address
// and the coordinates are only set when permission was granted.
type GPSResult struct {
	PermissionStatus models.PermissionStatus
	Address          geo.Address
	Latitude         float64
	Longitude        float64
	Accuracy         *float64
	DistanceKm       float64
}

// Reconciler compares a visit's IP-derived location with a GPS fix reported
// by the browser.
type Reconciler struct {
	visits    repository.VisitStore
	geocoder  ReverseGeocoder
	publisher events.Publisher
	logger    logging.Logger
}

func NewReconciler(visits repository.VisitStore, geocoder ReverseGeocoder, publisher events.Publisher, logger logging.Logger) *Reconciler {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Reconciler{
		visits:    visits,
		geocoder:  geocoder,
		publisher: publisher,
		logger:    logger,
	}
}

// ReportGPS applies report to its visit. Non-granted reports record the
// permission outcome and clear any earlier fix. Granted reports are reverse geocoded and compared with
// the IP location, and everything is written in one update. A repeated report
// for the same visit overwrites the previous one.
func (r *Reconciler) ReportGPS(ctx context.Context, report GPSReport) (*GPSResult, error) {
	if !report.PermissionStatus.Valid() {
		return nil, fmt.Errorf("%w: unknown permission status %q", ErrInvalidInput, report.PermissionStatus)
	}

	visit, err := r.visits.FindByID(ctx, report.VisitID)
	if err != nil {
		return nil, r.storeError(err)
	}

	errorMessage := nonEmpty(report.ErrorMessage)

	if report.PermissionStatus != models.PermissionGranted {
		if err := r.visits.SetPermission(ctx, visit.ID, report.PermissionStatus, errorMessage); err != nil {
			return nil, r.storeError(err)
		}
		r.logger.Debug("GPS permission recorded", "visit_id", visit.ID, "status", report.PermissionStatus)
		return &GPSResult{PermissionStatus: report.PermissionStatus}, nil
	}

	geocoded, err := r.geocoder.Reverse(ctx, report.Latitude, report.Longitude)
	if err != nil {
		return nil, err
	}

	var raw *geo.RawAddress
	if geocoded != nil {
		raw = geocoded.Address
	}
	address := geo.NormalizeAddress(raw)

	ipLat, ipLon := 0.0, 0.0
	if visit.Latitude != nil {
		ipLat = *visit.Latitude
	}
	if visit.Longitude != nil {
		ipLon = *visit.Longitude
	}
	distance := geo.HaversineKm(ipLat, ipLon, report.Latitude, report.Longitude)

	fix := repository.GPSFix{
		Latitude:         report.Latitude,
		Longitude:        report.Longitude,
		Accuracy:         report.Accuracy,
		City:             address.City,
		Region:           address.Region,
		RegionCode:       address.RegionCode,
		Country:          address.Country,
		CountryCode:      address.CountryCode,
		ZipCode:          address.ZipCode,
		StreetAddress:    address.StreetAddress,
		PermissionStatus: report.PermissionStatus,
		ErrorMessage:     errorMessage,
		DistanceKm:       distance,
	}
	if err := r.visits.SaveGPSFix(ctx, visit.ID, fix); err != nil {
		return nil, r.storeError(err)
	}

	r.publisher.Publish(events.Event{
		Type:    events.VisitGPSReconciled,
		VisitID: visit.ID,
		Payload: map[string]any{
			"distanceKm":     distance,
			"gpsCountryCode": address.CountryCode,
			"ipCountryCode":  visit.CountryCode,
		},
	})

	r.logger.Info("GPS fix reconciled", "visit_id", visit.ID, "distance_km", distance)

	return &GPSResult{
		PermissionStatus: report.PermissionStatus,
		Address:          address,
		Latitude:         report.Latitude,
		Longitude:        report.Longitude,
		Accuracy:         report.Accuracy,
		DistanceKm:       distance,
	}, nil
}

func (r *Reconciler) storeError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrVisitNotFound
	}
	return fmt.Errorf("visit store: %w", err)
}
