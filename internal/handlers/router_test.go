package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"iplocator/internal/logging"
	"iplocator/internal/services"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestRouter_Health(t *testing.T) {
	env := setupTestHandler(t)
	r := setupTestRouter(env.h)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestRouter_RateLimit(t *testing.T) {
	env := setupTestHandler(t)
	limiter := services.NewIPRateLimiter(rate.Limit(0.001), 1, logging.Discard())
	r := env.h.SetupRouter(limiter)

	w1 := doJSON(r, "POST", "/api/auth/login", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w1.Code)

	w2 := doJSON(r, "POST", "/api/auth/login", map[string]string{})
	assert.Equal(t, http.StatusTooManyRequests, w2.Code)

	// Health is not limited
	w3 := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w3, req)
	assert.Equal(t, http.StatusOK, w3.Code)
}

func TestRouter_RateLimitIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	env := setupTestHandler(t)
	limiter := services.NewIPRateLimiter(rate.Limit(0.001), 1, logging.Discard())
	r := env.h.SetupRouter(limiter)

	allowed := 0
	for i := 1; i <= 50; i++ {
		req, _ := http.NewRequest("POST", "/api/auth/login", strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "198.51.100.20:5000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusTooManyRequests {
			allowed++
		}
	}
	assert.Equal(t, 1, allowed)
}

func TestRouter_UnknownRoute(t *testing.T) {
	env := setupTestHandler(t)
	r := setupTestRouter(env.h)

	w := doJSON(r, "GET", "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
