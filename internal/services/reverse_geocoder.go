package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"iplocator/internal/config"
	"iplocator/internal/geo"
	"iplocator/internal/logging"
	"iplocator/internal/repository"
)

const reverseGeocodeCacheTTL = 24 * time.Hour

// ReverseGeocodeResult is the subset of a Nominatim reverse response we use.
// Address is nil when the service found nothing at the point.
type ReverseGeocodeResult struct {
	Address     *geo.RawAddress `json:"address,omitempty"`
	DisplayName string          `json:"display_name,omitempty"`
}

type ReverseGeocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (*ReverseGeocodeResult, error)
}

type NominatimClient struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	cache      *repository.GeoCache
	logger     logging.Logger
}

func NewNominatimClient(cfg config.Config, cache *repository.GeoCache, logger logging.Logger) *NominatimClient {
	return &NominatimClient{
		baseURL:    strings.TrimRight(cfg.NominatimBaseURL, "/"),
		userAgent:  cfg.GeoUserAgent,
		httpClient: &http.Client{Timeout: cfg.GeoHTTPTimeout},
		cache:      cache,
		logger:     logger,
	}
}

// reverseCacheKey rounds to 5 decimals, roughly one metre.
func reverseCacheKey(lat, lon float64) string {
	return fmt.Sprintf("geo:rev:%.5f:%.5f", round5(lat), round5(lon))
}

func round5(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}

func (c *NominatimClient) Reverse(ctx context.Context, lat, lon float64) (*ReverseGeocodeResult, error) {
	cacheKey := reverseCacheKey(lat, lon)
	var cached ReverseGeocodeResult
	if c.cache.Get(ctx, cacheKey, &cached) {
		c.logger.Debug("Reverse geocode cache hit", "key", cacheKey)
		return &cached, nil
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("format", "json")
	params.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build reverse geocode request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Service: "nominatim", Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Service: "nominatim", Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	var result ReverseGeocodeResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &UpstreamError{Service: "nominatim", Message: "invalid response", Err: err}
	}

	c.cache.Set(ctx, cacheKey, result, reverseGeocodeCacheTTL)
	return &result, nil
}
