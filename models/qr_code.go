// Package models contains domain entities and business models for the QR code platform
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/scanlytic/scanlytic/utils"
)

// QR payload kinds
const (
	QRTypeURL   = "url"
	QRTypeEmail = "email"
	QRTypePhone = "phone"
	QRTypeSMS   = "sms"
	QRTypeWiFi  = "wifi"
	QRTypeVCard = "vcard"
	QRTypeText  = "text"
)

// QR style variants
const (
	QRStyleClassic = "classic"
	QRStyleRounded = "rounded"
	QRStyleDots    = "dots"
	QRStyleClassy  = "classy"
)

// QRCode represents one dynamic QR code record.
// ShortCode is the opaque token embedded in the printed code; it is unique
// and immutable once issued. DestinationURL is the fully-formed payload the
// redirect resolves to (or, for non-url types, the encoded payload string).
type QRCode struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UUID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_qr_codes_uuid" json:"uuid"`
	CustomerID uint      `gorm:"not null;index:idx_qr_codes_customer_id" json:"customer_id"`
	Customer   Customer  `gorm:"foreignKey:CustomerID;references:ID" json:"-"`

	Name           string  `gorm:"size:255;not null" json:"name"`
	ShortCode      string  `gorm:"size:8;not null;uniqueIndex:uk_qr_codes_short_code" json:"short_code"`
	QRType         string  `gorm:"size:20;not null;default:url" json:"qr_type"`
	DestinationURL string  `gorm:"type:text;not null" json:"destination_url"`
	OriginalURL    *string `gorm:"type:text" json:"original_url,omitempty"`

	// Visual customization
	ColorFg         string `gorm:"size:7;not null;default:#000000" json:"color_fg"`
	ColorBg         string `gorm:"size:7;not null;default:#FFFFFF" json:"color_bg"`
	Style           string `gorm:"size:20;not null;default:classic" json:"style"`
	ErrorCorrection string `gorm:"size:1;not null;default:M" json:"error_correction"`

	// Lifecycle
	IsActive     *bool      `gorm:"default:true;index:idx_qr_codes_is_active" json:"is_active"`
	PasswordHash *string    `gorm:"size:255" json:"-"`
	ExpiresAt    *time.Time `gorm:"index:idx_qr_codes_expires_at" json:"expires_at,omitempty"`
	MaxScans     *int       `json:"max_scans,omitempty"`
	CurrentScans int        `gorm:"not null;default:0" json:"current_scans"`

	CreatedAt     time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_qr_codes_created_at" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
	LastScannedAt *time.Time `json:"last_scanned_at,omitempty"`

	Scans []QRScan `gorm:"foreignKey:QRCodeID" json:"-"`
}

func (QRCode) TableName() string { return "qr_codes" }

// IsExpired reports whether the expiry is set and in the past
func (q *QRCode) IsExpired() bool {
	return utils.IsExpiredPtr(q.ExpiresAt)
}

// ScanLimitReached reports whether the scan budget is set and used up
func (q *QRCode) ScanLimitReached() bool {
	return q.MaxScans != nil && q.CurrentScans >= *q.MaxScans
}

// IsPasswordProtected reports whether a password gate is configured
func (q *QRCode) IsPasswordProtected() bool {
	return q.PasswordHash != nil && *q.PasswordHash != ""
}

// QRCodeFilter provides filter fields for repository queries
type QRCodeFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	CustomerID    *uint
	ShortCode     *string
	QRType        *string
	IsActive      *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
