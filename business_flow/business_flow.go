// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/scanlytic/scanlytic/app/dto"
	"github.com/scanlytic/scanlytic/models"
)

// ClientMetadata holds all client-related information for audit logging and scan tracking
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	Referrer  string `json:"referrer,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// SetReferrer sets the referrer header value
func (cm *ClientMetadata) SetReferrer(referrer string) {
	cm.Referrer = referrer
}

// ToCustomerDTO converts a customer model to CustomerDTO for API responses
func ToCustomerDTO(c *models.Customer) dto.CustomerDTO {
	out := dto.CustomerDTO{
		ID:                 c.ID,
		UUID:               c.UUID.String(),
		Email:              c.Email,
		Name:               c.Name,
		SubscriptionStatus: c.SubscriptionStatus,
		QRQuota:            c.QRQuota,
		QRUsed:             c.QRUsed,
		IsActive:           c.IsActive,
		CreatedAt:          c.CreatedAt.Format(time.RFC3339),
	}
	return out
}

// ToQRCodeDTO converts a QR code model to its API representation.
// Locked is a dashboard-visibility flag only; it never affects redirects.
func ToQRCodeDTO(q *models.QRCode, locked bool) dto.QRCodeDTO {
	out := dto.QRCodeDTO{
		UUID:            q.UUID.String(),
		Name:            q.Name,
		ShortCode:       q.ShortCode,
		QRType:          q.QRType,
		DestinationURL:  q.DestinationURL,
		OriginalURL:     q.OriginalURL,
		ColorFg:         q.ColorFg,
		ColorBg:         q.ColorBg,
		Style:           q.Style,
		ErrorCorrection: q.ErrorCorrection,
		IsActive:        q.IsActive,
		ExpiresAt:       q.ExpiresAt,
		MaxScans:        q.MaxScans,
		CurrentScans:    q.CurrentScans,
		IsLocked:        locked,
		CreatedAt:       q.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       q.UpdatedAt.Format(time.RFC3339),
		LastScannedAt:   q.LastScannedAt,
	}
	return out
}
