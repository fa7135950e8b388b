// Package dto contains Data Transfer Objects for API request and response structures
package dto

// SignupRequest represents the request payload for account registration
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=255" example:"user@example.com"`
	Password string `json:"password" validate:"required,min=8,max=100" example:"SecurePass123!"`
	Name     string `json:"name" validate:"omitempty,max=255" example:"Jane Doe"`
}

// LoginRequest represents the request payload for user login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255" example:"user@example.com"`
	Password string `json:"password" validate:"required,min=8,max=100" example:"SecurePass123!"`
}

// RefreshTokenRequest represents the request to rotate a token pair
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// AuthResponse is the shared payload for signup, login and refresh
type AuthResponse struct {
	Customer     CustomerDTO `json:"customer"`
	AccessToken  string      `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	RefreshToken string      `json:"refresh_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ExpiresAt    string      `json:"expires_at" example:"2024-01-15T16:30:00Z"`
}

// CustomerDTO represents customer account information in API responses
type CustomerDTO struct {
	ID                 uint    `json:"id" example:"123"`
	UUID               string  `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Email              string  `json:"email" example:"user@example.com"`
	Name               *string `json:"name,omitempty" example:"Jane Doe"`
	SubscriptionStatus string  `json:"subscription_status" example:"free"`
	QRQuota            int     `json:"qr_quota" example:"5"`
	QRUsed             int     `json:"qr_used" example:"2"`
	IsActive           *bool   `json:"is_active" example:"true"`
	CreatedAt          string  `json:"created_at" example:"2024-01-15T10:30:00Z"`
}
