package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"iplocator/internal/config"
	"iplocator/internal/logging"
	"iplocator/internal/repository"
)

const (
	ipLookupFields   = "status,message,country,countryCode,region,regionName,city,zip,lat,lon,timezone,isp,org,as,query"
	ipLookupCacheTTL = time.Hour
)

// IPLocation is the coarse location of an address in ip-api's wire shape.
// Region holds the subdivision code and RegionName its display name.
type IPLocation struct {
	Status      string   `json:"status"`
	Message     string   `json:"message,omitempty"`
	Query       string   `json:"query"`
	Country     string   `json:"country,omitempty"`
	CountryCode string   `json:"countryCode,omitempty"`
	Region      string   `json:"region,omitempty"`
	RegionName  string   `json:"regionName,omitempty"`
	City        string   `json:"city,omitempty"`
	Zip         string   `json:"zip,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
	Timezone    string   `json:"timezone,omitempty"`
	ISP         string   `json:"isp,omitempty"`
	Org         string   `json:"org,omitempty"`
	AS          string   `json:"as,omitempty"`
}

// GeoLocator resolves a client IP to a coarse location. An empty ip asks the
// provider to locate the caller itself.
type GeoLocator interface {
	Lookup(ctx context.Context, ip string) (*IPLocation, error)
}

// LookupQuery maps a client address onto the query sent upstream. Loopback
// and missing addresses become the empty query.
func LookupQuery(ip string) string {
	ip = strings.TrimSpace(ip)
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.IsLoopback() {
		return ""
	}
	return ip
}

type IPAPIClient struct {
	baseURL    string
	httpClient *http.Client
	cache      *repository.GeoCache
	logger     logging.Logger
}

func NewIPAPIClient(cfg config.Config, cache *repository.GeoCache, logger logging.Logger) *IPAPIClient {
	return &IPAPIClient{
		baseURL:    strings.TrimRight(cfg.IPAPIBaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.GeoHTTPTimeout},
		cache:      cache,
		logger:     logger,
	}
}

func (c *IPAPIClient) Lookup(ctx context.Context, ip string) (*IPLocation, error) {
	query := LookupQuery(ip)
	cacheKey := "geo:ip:" + query
	if query == "" {
		cacheKey = "geo:ip:self"
	}

	var cached IPLocation
	if c.cache.Get(ctx, cacheKey, &cached) {
		c.logger.Debug("IP lookup cache hit", "ip", query)
		return &cached, nil
	}

	endpoint := fmt.Sprintf("%s/json/%s?fields=%s", c.baseURL, url.PathEscape(query), ipLookupFields)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build ip lookup request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Service: "ip-api", Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Service: "ip-api", Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	var loc IPLocation
	if err := json.NewDecoder(resp.Body).Decode(&loc); err != nil {
		return nil, &UpstreamError{Service: "ip-api", Message: "invalid response", Err: err}
	}

	if loc.Status != "success" {
		msg := loc.Message
		if msg == "" {
			msg = "Failed to fetch location"
		}
		return nil, &UpstreamError{Service: "ip-api", Message: msg}
	}

	c.cache.Set(ctx, cacheKey, loc, ipLookupCacheTTL)
	return &loc, nil
}
