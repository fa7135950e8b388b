// Package models contains domain entities and business models for the QR code platform
package models

import (
	"encoding/json"
	"time"

	"github.com/scanlytic/scanlytic/utils"
)

type CustomerSession struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	CustomerID     uint            `gorm:"not null;index:idx_sessions_customer_id" json:"customer_id"`
	Customer       Customer        `gorm:"foreignKey:CustomerID;references:ID" json:"customer,omitempty"`
	SessionToken   string          `gorm:"size:255;not null;uniqueIndex:idx_sessions_session_token" json:"-"` // Never serialize token
	RefreshToken   *string         `gorm:"size:255;uniqueIndex:idx_sessions_refresh_token" json:"-"`          // Never serialize refresh token
	DeviceInfo     json.RawMessage `gorm:"type:jsonb" json:"device_info,omitempty"`
	IPAddress      *string         `gorm:"type:inet;index:idx_sessions_ip_address" json:"ip_address,omitempty"`
	UserAgent      *string         `gorm:"type:text" json:"user_agent,omitempty"`
	IsActive       *bool           `gorm:"default:true;index:idx_sessions_is_active" json:"is_active"`
	CreatedAt      time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	LastAccessedAt time.Time       `gorm:"default:CURRENT_TIMESTAMP;index:idx_sessions_last_accessed" json:"last_accessed_at"`
	ExpiresAt      time.Time       `gorm:"not null;index:idx_sessions_expires_at" json:"expires_at"`
}

func (CustomerSession) TableName() string {
	return "customer_sessions"
}

// IsExpired checks if the session has expired
func (s *CustomerSession) IsExpired() bool {
	return utils.IsExpired(s.ExpiresAt)
}

// IsUsable reports whether the session is active and not expired
func (s *CustomerSession) IsUsable() bool {
	return utils.IsTrue(s.IsActive) && !s.IsExpired()
}

// CustomerSessionFilter represents filter criteria for session queries
type CustomerSessionFilter struct {
	ID            *uint
	CustomerID    *uint
	IsActive      *bool
	IPAddress     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	ExpiresAfter  *time.Time
	ExpiresBefore *time.Time
	IsExpired     *bool // Helper to filter expired sessions
}
