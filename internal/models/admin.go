package models

import (
	"time"
)

type Admin struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"unique;not null;size:50" json:"username"`
	PasswordHash string     `gorm:"not null;size:255" json:"-"`
	CreatedAt    time.Time  `gorm:"not null;autoCreateTime" json:"createdAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt"`
}

// Session is a server-side login. The token is the only thing the browser holds.
type Session struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AdminID      uint      `gorm:"not null;index" json:"adminId"`
	Admin        *Admin    `gorm:"foreignKey:AdminID;constraint:OnDelete:CASCADE" json:"-"`
	SessionToken string    `gorm:"unique;not null;size:255" json:"-"`
	ExpiresAt    time.Time `gorm:"not null;index" json:"expiresAt"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
