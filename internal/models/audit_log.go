package models

import (
	"time"
)

const (
	ActionLogin         = "LOGIN"
	ActionLoginFailed   = "LOGIN_FAILED"
	ActionLogout        = "LOGOUT"
	ActionGPSReconciled = "GPS_RECONCILED"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AdminID   *uint     `gorm:"index" json:"adminId"`               // null for anonymous events such as failed logins
	Action    string    `gorm:"size:50;not null" json:"action"`     // one of the Action* constants
	EntityID  string    `gorm:"size:50" json:"entityId"`            // username or visit id
	Details   string    `gorm:"type:text" json:"details"`           // JSON
	IPAddress string    `gorm:"size:45" json:"ipAddress"`
	Timestamp time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"timestamp"`
}
