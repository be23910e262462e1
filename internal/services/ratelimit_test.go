package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"iplocator/internal/logging"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestNewIPRateLimiter(t *testing.T) {
	r := rate.Limit(10)
	b := 5
	limiter := NewIPRateLimiter(r, b, logging.Discard())

	assert.NotNil(t, limiter)
	assert.Equal(t, r, limiter.r)
	assert.Equal(t, b, limiter.b)
	assert.NotNil(t, limiter.ips)
}

func TestIPRateLimiter_GetLimiter(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(10), 5, logging.Discard())
	ip := "192.168.1.1"

	l1 := limiter.GetLimiter(ip)
	assert.NotNil(t, l1)
	assert.Equal(t, rate.Limit(10), l1.Limit())
	assert.Equal(t, 5, l1.Burst())

	// Get again should return same limiter
	l2 := limiter.GetLimiter(ip)
	assert.Same(t, l1, l2)

	// Different IP should return different limiter
	l3 := limiter.GetLimiter("1.1.1.1")
	assert.NotSame(t, l1, l3)
}

func TestIPRateLimiter_Allow(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(0.001), 2, logging.Discard())

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.2"))
}

func TestIPRateLimiter_StartCleanup(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(1), 1, logging.Discard())

	// Fill the map to trigger cleanup
	for i := 0; i < maxTrackedIPs+1; i++ {
		limiter.GetLimiter(fmt.Sprintf("ip-%d", i))
	}

	assert.Equal(t, maxTrackedIPs+1, len(limiter.ips))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go limiter.StartCleanup(ctx, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		limiter.mu.RLock()
		defer limiter.mu.RUnlock()
		return len(limiter.ips) == 0
	}, time.Second, 10*time.Millisecond)
}
