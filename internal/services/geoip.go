package services

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"iplocator/internal/config"
	"iplocator/internal/logging"

	"github.com/oschwald/geoip2-golang"
	"github.com/oschwald/maxminddb-golang"
)

type geoIPReader interface {
	City(ip net.IP) (*geoip2.City, error)
	Metadata() maxminddb.Metadata
	Close() error
}

// GeoIPService answers lookups from a local GeoLite2 City database. It is
// selected with GEO_PROVIDER=maxmind.
type GeoIPService struct {
	cfg       config.Config
	logger    logging.Logger
	geoReader geoIPReader
	geoLock   sync.RWMutex
}

func NewGeoIPService(cfg config.Config, logger logging.Logger) *GeoIPService {
	return &GeoIPService{
		cfg:    cfg,
		logger: logger,
	}
}

// Init opens the database, downloading it first when it is missing and
// MaxMind credentials are configured.
func (s *GeoIPService) Init() {
	dbPath := s.cfg.MaxMindDBPath

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		if !s.canUpdate() {
			s.logger.Warn("GeoIP: Database missing and MaxMind credentials not set. Lookups will fail.", "path", dbPath)
			return
		}

		dbDir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			s.logger.Error("GeoIP: Failed to create directory", "dir", dbDir, "error", err)
			return
		}

		s.logger.Info("GeoIP: Database missing, downloading...")
		if err := s.updateGeoDB(); err != nil {
			s.logger.Error("GeoIP: Initial download failed", "error", err)
		}
	}

	s.reloadReader(dbPath)
}

func (s *GeoIPService) canUpdate() bool {
	return s.cfg.MaxMindAccountID != "" && s.cfg.MaxMindLicenseKey != ""
}

func (s *GeoIPService) StartUpdater(ctx context.Context) {
	s.StartUpdaterWithInterval(ctx, 24*time.Hour)
}

// StartUpdaterWithInterval refreshes and reloads the database on every tick
// until ctx is cancelled. Without credentials it returns immediately.
func (s *GeoIPService) StartUpdaterWithInterval(ctx context.Context, interval time.Duration) {
	if !s.canUpdate() {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.logger.Info("GeoIP: Running scheduled update...")
			if err := s.updateGeoDB(); err != nil {
				s.logger.Error("GeoIP: Update failed", "error", err)
				continue
			}
			s.reloadReader(s.cfg.MaxMindDBPath)
		case <-ctx.Done():
			s.logger.Info("GeoIP: Updater stopping")
			return
		}
	}
}

func (s *GeoIPService) updateGeoDB() error {
	dbDir := filepath.Dir(s.cfg.MaxMindDBPath)
	confPath := filepath.Join(dbDir, "GeoIP.conf")

	content := fmt.Sprintf("AccountID %s\nLicenseKey %s\nEditionIDs %s\nDatabaseDirectory %s\n",
		s.cfg.MaxMindAccountID, s.cfg.MaxMindLicenseKey, s.cfg.MaxMindEditionIDs, dbDir)

	if err := os.WriteFile(confPath, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write GeoIP.conf: %w", err)
	}
	defer os.Remove(confPath)

	cmd := exec.Command("geoipupdate", "-v", "-f", confPath, "-d", dbDir)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("geoipupdate failed: %w, output: %s", err, string(output))
	}

	s.logger.Info("GeoIP: Database updated successfully")
	return nil
}

func (s *GeoIPService) reloadReader(path string) {
	s.geoLock.Lock()
	defer s.geoLock.Unlock()

	if s.geoReader != nil {
		s.geoReader.Close()
		s.geoReader = nil
	}

	reader, err := geoip2.Open(path)
	if err != nil {
		s.logger.Error("GeoIP: Failed to open database", "path", path, "error", err)
		return
	}
	s.geoReader = reader

	meta := reader.Metadata()
	s.logger.Info("GeoIP: Loaded database", "type", meta.DatabaseType, "epoch", meta.BuildEpoch)
}

func (s *GeoIPService) Close() error {
	s.geoLock.Lock()
	defer s.geoLock.Unlock()

	if s.geoReader == nil {
		return nil
	}
	err := s.geoReader.Close()
	s.geoReader = nil
	return err
}

// Lookup implements GeoLocator. A local database cannot locate the server
// itself, so loopback addresses fail the way ip-api fails reserved ranges.
func (s *GeoIPService) Lookup(ctx context.Context, ipStr string) (*IPLocation, error) {
	query := LookupQuery(ipStr)
	if query == "" {
		return nil, &UpstreamError{Service: "maxmind", Message: "reserved range"}
	}
	ip := net.ParseIP(query)
	if ip.IsPrivate() {
		return nil, &UpstreamError{Service: "maxmind", Message: "private range"}
	}

	s.geoLock.RLock()
	defer s.geoLock.RUnlock()

	if s.geoReader == nil {
		return nil, &UpstreamError{Service: "maxmind", Message: "database not loaded"}
	}

	record, err := s.geoReader.City(ip)
	if err != nil {
		return nil, &UpstreamError{Service: "maxmind", Message: "lookup failed", Err: err}
	}

	return cityToLocation(query, record), nil
}

func cityToLocation(query string, record *geoip2.City) *IPLocation {
	loc := &IPLocation{
		Status:      "success",
		Query:       query,
		CountryCode: record.Country.IsoCode,
		Zip:         record.Postal.Code,
		Timezone:    record.Location.TimeZone,
	}

	if name, ok := record.Country.Names["en"]; ok {
		loc.Country = name
	} else {
		loc.Country = record.Country.IsoCode
	}

	if len(record.Subdivisions) > 0 {
		loc.Region = record.Subdivisions[0].IsoCode
		loc.RegionName = record.Subdivisions[0].Names["en"]
	}

	if name, ok := record.City.Names["en"]; ok {
		loc.City = name
	}

	// The reader reports 0,0 when the record has no location.
	if record.Location.Latitude != 0 || record.Location.Longitude != 0 {
		lat, lon := record.Location.Latitude, record.Location.Longitude
		loc.Lat = &lat
		loc.Lon = &lon
	}

	return loc
}
