package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"iplocator/internal/events"
	"iplocator/internal/logging"
	"iplocator/internal/models"
	"iplocator/internal/repository"

	"github.com/mssola/user_agent"
)

const (
	DefaultVisitLimit = 100
	MaxVisitLimit     = 1000
)

// RecordOutcome is either Persisted or PersistenceUnavailable.
type RecordOutcome interface {
	isRecordOutcome()
}

type Persisted struct {
	ID        uint
	VisitedAt time.Time
}

// PersistenceUnavailable means the lookup succeeded but the visit could not
// be stored. Callers still have the location to return.
type PersistenceUnavailable struct {
	Err error
}

func (Persisted) isRecordOutcome()              {}
func (PersistenceUnavailable) isRecordOutcome() {}

type VisitPage struct {
	Visits []models.Visit `json:"visits"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type VisitService struct {
	locator   GeoLocator
	visits    repository.VisitStore
	publisher events.Publisher
	logger    logging.Logger
}

func NewVisitService(locator GeoLocator, visits repository.VisitStore, publisher events.Publisher, logger logging.Logger) *VisitService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &VisitService{
		locator:   locator,
		visits:    visits,
		publisher: publisher,
		logger:    logger,
	}
}

// Locate looks up clientIP and records the visit. A lookup failure is
// returned as an error and nothing is stored.
func (s *VisitService) Locate(ctx context.Context, clientIP, userAgent string) (*IPLocation, RecordOutcome, error) {
	loc, err := s.locator.Lookup(ctx, clientIP)
	if err != nil {
		return nil, nil, err
	}
	return loc, s.RecordVisit(ctx, loc, userAgent), nil
}

// RecordVisit inserts a visit for loc. Storage errors are reported through
// the outcome rather than as an error.
func (s *VisitService) RecordVisit(ctx context.Context, loc *IPLocation, userAgent string) RecordOutcome {
	visit := newVisit(loc, userAgent)

	if err := s.visits.Create(ctx, visit); err != nil {
		s.logger.Error("Failed to store visit", "ip", visit.IPAddress, "error", err)
		return PersistenceUnavailable{Err: err}
	}

	s.publisher.Publish(events.Event{
		Type:    events.VisitRecorded,
		VisitID: visit.ID,
		Payload: map[string]any{
			"ipAddress":   visit.IPAddress,
			"countryCode": visit.CountryCode,
			"city":        visit.City,
		},
	})

	s.logger.Debug("Visit recorded", "visit_id", visit.ID, "ip", visit.IPAddress)
	return Persisted{ID: visit.ID, VisitedAt: visit.VisitedAt}
}

func newVisit(loc *IPLocation, userAgent string) *models.Visit {
	visit := &models.Visit{
		IPAddress:   loc.Query,
		City:        nonEmpty(loc.City),
		Region:      nonEmpty(loc.RegionName),
		RegionCode:  nonEmpty(loc.Region),
		Country:     nonEmpty(loc.Country),
		CountryCode: nonEmpty(loc.CountryCode),
		ZipCode:     nonEmpty(loc.Zip),
		Latitude:    loc.Lat,
		Longitude:   loc.Lon,
		Timezone:    nonEmpty(loc.Timezone),
		ISP:         nonEmpty(loc.ISP),
		Org:         nonEmpty(loc.Org),
		ASNumber:    nonEmpty(loc.AS),
		UserAgent:   nonEmpty(userAgent),
	}
	enrichUserAgent(visit)
	return visit
}

// enrichUserAgent fills the browser, OS and device columns from the raw
// user agent.
func enrichUserAgent(visit *models.Visit) {
	if visit.UserAgent == nil {
		return
	}

	ua := user_agent.New(*visit.UserAgent)
	browserName, browserVer := ua.Browser()
	visit.Browser = nonEmpty(strings.TrimSpace(browserName + " " + browserVer))
	visit.OS = nonEmpty(ua.OS())

	deviceType := "Desktop"
	if ua.Bot() {
		deviceType = "Bot"
	} else if ua.Mobile() {
		deviceType = "Mobile"
	}
	visit.DeviceType = &deviceType
}

// ListVisits returns a page of visits, newest first. Out-of-range limit and
// offset values are clamped.
func (s *VisitService) ListVisits(ctx context.Context, limit, offset int) (*VisitPage, error) {
	limit = ClampLimit(limit)
	offset = ClampOffset(offset)

	visits, total, err := s.visits.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	if visits == nil {
		visits = []models.Visit{}
	}

	return &VisitPage{Visits: visits, Total: total, Limit: limit, Offset: offset}, nil
}

func ClampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxVisitLimit {
		return MaxVisitLimit
	}
	return limit
}

func ClampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
