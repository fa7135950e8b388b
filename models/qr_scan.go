// Package models contains domain entities and business models for the QR code platform
package models

import "time"

// Device type classifications derived from the user-agent
const (
	DeviceTypeMobile  = "mobile"
	DeviceTypeTablet  = "tablet"
	DeviceTypeDesktop = "desktop"
)

// QRScan represents a single resolved redirect of a QR code.
// Rows are append-only; they are never mutated or deleted by the service.
// Country and City are reserved for a geo enrichment pipeline and are not
// populated by the resolver.
type QRScan struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	QRCodeID uint   `gorm:"not null;index:idx_qr_scans_qr_code_id" json:"qr_code_id"`
	QRCode   QRCode `gorm:"foreignKey:QRCodeID;references:ID" json:"-"`

	IPAddress *string `gorm:"size:64" json:"ip_address,omitempty"`
	UserAgent *string `gorm:"type:text" json:"user_agent,omitempty"`

	DeviceType *string `gorm:"size:10;index:idx_qr_scans_device_type" json:"device_type,omitempty"`
	OS         *string `gorm:"size:20" json:"os,omitempty"`
	Browser    *string `gorm:"size:20" json:"browser,omitempty"`

	VisitorFingerprint *string `gorm:"size:32;index:idx_qr_scans_visitor_fingerprint" json:"visitor_fingerprint,omitempty"`

	Country  *string `gorm:"size:100" json:"country,omitempty"`
	City     *string `gorm:"size:100" json:"city,omitempty"`
	Referrer *string `gorm:"type:text" json:"referrer,omitempty"`

	ScannedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_qr_scans_scanned_at" json:"scanned_at"`
}

func (QRScan) TableName() string { return "qr_scans" }

// QRScanFilter provides filter fields for repository queries
type QRScanFilter struct {
	ID                 *uint
	QRCodeID           *uint
	DeviceType         *string
	VisitorFingerprint *string
	ScannedAfter       *time.Time
	ScannedBefore      *time.Time
}
