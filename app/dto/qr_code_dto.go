package dto

import (
	"time"
)

// QRContentDTO is the typed content for a QR code. Which fields are
// consulted depends on Type; the payload builder rejects missing or
// malformed required fields per type.
type QRContentDTO struct {
	Type string `json:"type" validate:"required,oneof=url email phone sms wifi vcard text" example:"url"`

	// url
	URL string `json:"url,omitempty" example:"https://example.com/landing"`

	// email
	Email   string `json:"email,omitempty" example:"hello@example.com"`
	Subject string `json:"subject,omitempty" example:"Inquiry"`
	Body    string `json:"body,omitempty" example:"Hi there"`

	// phone / sms
	Phone   string `json:"phone,omitempty" example:"+14155552671"`
	Message string `json:"message,omitempty" example:"Text me back"`

	// wifi
	SSID       string `json:"ssid,omitempty" example:"GuestNetwork"`
	Password   string `json:"password,omitempty" example:"hunter22"`
	Encryption string `json:"encryption,omitempty" validate:"omitempty,oneof=WPA WEP nopass" example:"WPA"`
	Hidden     bool   `json:"hidden,omitempty" example:"false"`

	// vcard
	FirstName string `json:"first_name,omitempty" example:"Jane"`
	LastName  string `json:"last_name,omitempty" example:"Doe"`
	Company   string `json:"company,omitempty" example:"Acme Inc"`
	Title     string `json:"title,omitempty" example:"CTO"`
	Website   string `json:"website,omitempty" example:"https://acme.example"`
	Address   string `json:"address,omitempty" example:"1 Main St, Springfield"`

	// text
	Text string `json:"text,omitempty" example:"Scan me"`
}

// CreateQRCodeRequest represents the request payload for creating a QR code
type CreateQRCodeRequest struct {
	Name            string        `json:"name" validate:"required,min=1,max=255" example:"Menu QR"`
	Content         *QRContentDTO `json:"content" validate:"required"`
	ColorFg         string        `json:"color_fg" validate:"omitempty,hexcolor" example:"#000000"`
	ColorBg         string        `json:"color_bg" validate:"omitempty,hexcolor" example:"#FFFFFF"`
	Style           string        `json:"style" validate:"omitempty,oneof=classic rounded dots classy" example:"classic"`
	ErrorCorrection string        `json:"error_correction" validate:"omitempty,oneof=L M Q H" example:"M"`
	Password        *string       `json:"password,omitempty" validate:"omitempty,min=4,max=100"`
	ExpiresAt       *time.Time    `json:"expires_at,omitempty" example:"2024-12-31T23:59:59Z"`
	MaxScans        *int          `json:"max_scans,omitempty" validate:"omitempty,min=1" example:"1000"`
	IsActive        *bool         `json:"is_active,omitempty" example:"true"`
}

// CreateQRCodeResponse carries the new code plus the remaining quota
type CreateQRCodeResponse struct {
	QRCode          QRCodeDTO `json:"qr_code"`
	QuotaRemaining  int       `json:"quota_remaining" example:"3"`
	LowQuotaWarning *string   `json:"low_quota_warning,omitempty" example:"Only 2 QR code slots remaining on the free plan"`
}

// UpdateQRCodeRequest represents a partial update; nil fields are unchanged.
// Password set to the empty string removes the password gate.
type UpdateQRCodeRequest struct {
	Name            *string       `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Content         *QRContentDTO `json:"content,omitempty"`
	ShortCode       *string       `json:"short_code,omitempty"`
	ColorFg         *string       `json:"color_fg,omitempty" validate:"omitempty,hexcolor"`
	ColorBg         *string       `json:"color_bg,omitempty" validate:"omitempty,hexcolor"`
	Style           *string       `json:"style,omitempty" validate:"omitempty,oneof=classic rounded dots classy"`
	ErrorCorrection *string       `json:"error_correction,omitempty" validate:"omitempty,oneof=L M Q H"`
	Password        *string       `json:"password,omitempty" validate:"omitempty,max=100"`
	ExpiresAt       *time.Time    `json:"expires_at,omitempty"`
	MaxScans        *int          `json:"max_scans,omitempty" validate:"omitempty,min=1"`
	IsActive        *bool         `json:"is_active,omitempty"`
}

// QRCodeDTO represents a QR code in API responses
type QRCodeDTO struct {
	UUID            string     `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name            string     `json:"name" example:"Menu QR"`
	ShortCode       string     `json:"short_code" example:"x7k2p9"`
	QRType          string     `json:"qr_type" example:"url"`
	DestinationURL  string     `json:"destination_url" example:"https://example.com/landing"`
	OriginalURL     *string    `json:"original_url,omitempty" example:"https://example.com/landing"`
	ColorFg         string     `json:"color_fg" example:"#000000"`
	ColorBg         string     `json:"color_bg" example:"#FFFFFF"`
	Style           string     `json:"style" example:"classic"`
	ErrorCorrection string     `json:"error_correction" example:"M"`
	IsActive        *bool      `json:"is_active" example:"true"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	MaxScans        *int       `json:"max_scans,omitempty" example:"1000"`
	CurrentScans    int        `json:"current_scans" example:"42"`
	IsLocked        bool       `json:"is_locked" example:"false"`
	CreatedAt       string     `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt       string     `json:"updated_at" example:"2024-01-15T10:30:00Z"`
	LastScannedAt   *time.Time `json:"last_scanned_at,omitempty"`
}

// ListQRCodesResponse is the paged listing with quota state
type ListQRCodesResponse struct {
	Items []QRCodeDTO `json:"items"`
	Total int64       `json:"total" example:"7"`
	Quota QuotaDTO    `json:"quota"`
}

// QuotaDTO represents the customer's quota state
type QuotaDTO struct {
	Limit              int    `json:"limit" example:"5"`
	Used               int    `json:"used" example:"5"`
	Remaining          int    `json:"remaining" example:"0"`
	SubscriptionStatus string `json:"subscription_status" example:"free"`
}

// PurchaseQuotaRequest represents a quota add-on purchase
type PurchaseQuotaRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=100" example:"5"`
}

// PurchaseQuotaResponse confirms the applied quota add-on
type PurchaseQuotaResponse struct {
	Message string   `json:"message" example:"Quota increased by 5"`
	Quota   QuotaDTO `json:"quota"`
}
