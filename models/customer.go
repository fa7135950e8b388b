// Package models contains domain entities and business models for the QR code platform
package models

import (
	"time"

	"github.com/google/uuid"
)

type Customer struct {
	ID    uint      `gorm:"primaryKey" json:"id"`
	UUID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_customers_uuid;index:idx_customers_uuid" json:"uuid"`
	Email string    `gorm:"size:255;not null;uniqueIndex:idx_customers_email" json:"email"`
	Name  *string   `gorm:"size:255" json:"name,omitempty"`

	PasswordHash string `gorm:"size:255;not null" json:"-"` // Never serialize password hash

	// Subscription and quota
	SubscriptionStatus string `gorm:"size:20;not null;default:free;index:idx_customers_subscription_status" json:"subscription_status"`
	QRQuota            int    `gorm:"not null;default:5" json:"qr_quota"`
	QRUsed             int    `gorm:"not null;default:0" json:"qr_used"`

	IsActive *bool `gorm:"default:true;index:idx_customers_is_active" json:"is_active"`

	// Timestamps
	CreatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_customers_created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
	LastLoginAt *time.Time `gorm:"index:idx_customers_last_login_at" json:"last_login_at,omitempty"`

	// Relations
	QRCodes   []QRCode          `gorm:"foreignKey:CustomerID" json:"-"`
	Sessions  []CustomerSession `gorm:"foreignKey:CustomerID" json:"-"`
	AuditLogs []AuditLog        `gorm:"foreignKey:CustomerID" json:"-"`
}

func (Customer) TableName() string {
	return "customers"
}

// IsFreeTier reports whether the customer is on the free plan.
// Paid tiers are never subject to the QR quota.
func (c *Customer) IsFreeTier() bool {
	return c.SubscriptionStatus == "free" || c.SubscriptionStatus == ""
}

// RemainingQuota returns how many more QR codes the customer may create.
func (c *Customer) RemainingQuota() int {
	return c.QRQuota - c.QRUsed
}

// CustomerFilter represents filter criteria for customer queries
type CustomerFilter struct {
	ID                 *uint
	UUID               *uuid.UUID
	Email              *string
	SubscriptionStatus *string
	IsActive           *bool
	CreatedAfter       *time.Time
	CreatedBefore      *time.Time
}
