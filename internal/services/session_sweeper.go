package services

import (
	"context"
	"time"

	"iplocator/internal/logging"
)

// SessionSweeper periodically removes expired sessions. Validation already
// rejects them, so the sweep only keeps the table small.
type SessionSweeper struct {
	auth     *AuthService
	interval time.Duration
	logger   logging.Logger
}

func NewSessionSweeper(auth *AuthService, interval time.Duration, logger logging.Logger) *SessionSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &SessionSweeper{auth: auth, interval: interval, logger: logger}
}

func (s *SessionSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			s.logger.Info("Session sweeper stopping")
			return
		}
	}
}

func (s *SessionSweeper) sweep(ctx context.Context) {
	removed, err := s.auth.CleanExpiredSessions(ctx)
	if err != nil {
		s.logger.Error("Session sweep failed", "error", err)
		return
	}
	if removed > 0 {
		s.logger.Info("Removed expired sessions", "count", removed)
	}
}
