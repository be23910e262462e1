package services

import (
	"context"
	"sync"
	"time"

	"iplocator/internal/logging"

	"golang.org/x/time/rate"
)

const maxTrackedIPs = 10000

// IPRateLimiter hands out one token bucket per client address.
type IPRateLimiter struct {
	ips    map[string]*rate.Limiter
	mu     sync.RWMutex
	r      rate.Limit
	b      int
	logger logging.Logger
}

func NewIPRateLimiter(r rate.Limit, b int, logger logging.Logger) *IPRateLimiter {
	return &IPRateLimiter{
		ips:    make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
		logger: logger,
	}
}

// StartCleanup resets the bucket map whenever it grows past maxTrackedIPs.
// It returns when ctx is cancelled.
func (i *IPRateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			i.mu.Lock()
			if len(i.ips) > maxTrackedIPs {
				i.logger.Info("Cleaning up rate limiter map", "count", len(i.ips))
				i.ips = make(map[string]*rate.Limiter)
			}
			i.mu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, exists := i.ips[ip]
	if !exists {
		limiter = rate.NewLimiter(i.r, i.b)
		i.ips[ip] = limiter
	}

	return limiter
}

// Allow reports whether ip may make another request now.
func (i *IPRateLimiter) Allow(ip string) bool {
	return i.GetLimiter(ip).Allow()
}
