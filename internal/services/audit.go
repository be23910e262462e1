package services

import (
	"context"
	"encoding/json"
	"time"
	"unicode/utf8"

	"iplocator/internal/logging"
	"iplocator/internal/models"

	"gorm.io/gorm"
)

// Column widths of audit_logs.entity_id and audit_logs.ip_address.
const (
	maxAuditEntityIDLength = 50
	maxAuditIPLength       = 45
)

// AuditService writes audit rows from a background worker so request
// handlers never wait on it.
type AuditService struct {
	db      *gorm.DB
	logger  logging.Logger
	entries chan models.AuditLog
}

func NewAuditService(db *gorm.DB, logger logging.Logger) *AuditService {
	return &AuditService{
		db:      db,
		logger:  logger,
		entries: make(chan models.AuditLog, 100),
	}
}

func (s *AuditService) Start(ctx context.Context) {
	s.logger.Info("Audit worker starting")
	for {
		select {
		case entry := <-s.entries:
			if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
				s.logger.Error("Failed to write audit log", "action", entry.Action, "error", err)
			}
		case <-ctx.Done():
			s.logger.Info("Audit worker stopping")
			return
		}
	}
}

// LogAction queues an audit entry. It drops the entry when the queue is full.
func (s *AuditService) LogAction(adminID *uint, action, entityID string, details any, ip string) {
	var detailText string
	if details != nil {
		detailBytes, _ := json.Marshal(details)
		detailText = string(detailBytes)
	}

	entry := models.AuditLog{
		AdminID:   adminID,
		Action:    action,
		EntityID:  truncateRunes(entityID, maxAuditEntityIDLength),
		Details:   detailText,
		IPAddress: truncateRunes(ip, maxAuditIPLength),
		Timestamp: time.Now(),
	}

	select {
	case s.entries <- entry:
	default:
		s.logger.Warn("Audit channel full, dropping log", "action", action)
	}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
