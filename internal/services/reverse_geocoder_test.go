package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"iplocator/internal/config"
	"iplocator/internal/logging"
	"iplocator/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNominatimClient(baseURL string) *NominatimClient {
	cfg := config.Config{NominatimBaseURL: baseURL, GeoUserAgent: "IP-Locator-App/1.0", GeoHTTPTimeout: 2 * time.Second}
	return NewNominatimClient(cfg, repository.NewGeoCache(nil, logging.Discard()), logging.Discard())
}

func TestReverseCacheKey(t *testing.T) {
	assert.Equal(t, "geo:rev:40.00000:-75.00000", reverseCacheKey(40.0, -75.0))
	assert.Equal(t, reverseCacheKey(40.123454, -75.1), reverseCacheKey(40.123451, -75.1))
	assert.NotEqual(t, reverseCacheKey(40.12345, -75.1), reverseCacheKey(40.12346, -75.1))
}

func TestNominatimClient_Reverse(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/reverse", r.URL.Path)
			q := r.URL.Query()
			assert.Equal(t, "40", q.Get("lat"))
			assert.Equal(t, "-75.5", q.Get("lon"))
			assert.Equal(t, "json", q.Get("format"))
			assert.Equal(t, "1", q.Get("addressdetails"))
			assert.Equal(t, "IP-Locator-App/1.0", r.Header.Get("User-Agent"))
			_, _ = w.Write([]byte(`{"display_name":"1500, Market Street","address":{"house_number":"1500","road":"Market Street","city":"Philadelphia","state":"Pennsylvania","ISO3166-2-lvl4":"US-PA","postcode":"19102","country":"United States","country_code":"us"}}`))
		}))
		defer server.Close()

		result, err := newTestNominatimClient(server.URL).Reverse(context.Background(), 40, -75.5)
		require.NoError(t, err)
		require.NotNil(t, result.Address)
		assert.Equal(t, "US-PA", *result.Address.ISO3166Lvl4)
		assert.Equal(t, "us", *result.Address.CountryCode)
		assert.Nil(t, result.Address.Town)
		assert.Equal(t, "1500, Market Street", result.DisplayName)
	})

	t.Run("Nothing Found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
		}))
		defer server.Close()

		result, err := newTestNominatimClient(server.URL).Reverse(context.Background(), 0, 0)
		require.NoError(t, err)
		assert.Nil(t, result.Address)
	})

	t.Run("HTTP Error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		_, err := newTestNominatimClient(server.URL).Reverse(context.Background(), 1, 1)
		assert.ErrorIs(t, err, ErrUpstream)
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer server.Close()

		_, err := newTestNominatimClient(server.URL).Reverse(context.Background(), 1, 1)
		var upstream *UpstreamError
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, "nominatim", upstream.Service)
	})
}
