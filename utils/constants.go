package utils

import (
	"time"
)

// ContextKey is the type for request-scoped context values
type ContextKey string

const (
	RequestIDKey  ContextKey = "request_id"
	UserAgentKey  ContextKey = "user_agent"
	IPAddressKey  ContextKey = "ip_address"
	EndpointKey   ContextKey = "endpoint"
	TimeoutKey    ContextKey = "timeout"
	CancelFuncKey ContextKey = "cancel_func"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour

	// SessionTimeout is the default session timeout (24 hours)
	SessionTimeout = 24 * time.Hour
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Short code and quota constants
const (
	// ShortCodeAlphabet is the symbol set for generated short codes
	ShortCodeAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

	// ShortCodeLength is the standard generated short code length
	ShortCodeLength = 6

	// ShortCodeFallbackLength is used once the collision retry budget is exhausted
	ShortCodeFallbackLength = 8

	// ShortCodeMaxAttempts is the collision retry budget for standard-length codes
	ShortCodeMaxAttempts = 10

	// FreeTierQuota is the number of QR codes a free account may hold by default
	FreeTierQuota = 5

	// LowQuotaWarningThreshold triggers a non-blocking warning when the
	// remaining free-tier quota drops to this value or below
	LowQuotaWarningThreshold = 2

	// FingerprintLength is the stored length of the visitor fingerprint
	FingerprintLength = 32
)

// Cache keys
const (
	// QRCodeCacheKeyPrefix prefixes the short-code lookup cache entries
	QRCodeCacheKeyPrefix = "qr:code:"
)

// Subscription statuses
const (
	SubscriptionFree    = "free"
	SubscriptionMonthly = "monthly"
	SubscriptionYearly  = "yearly"
)
