// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/scanlytic/scanlytic/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

// ErrScanLimitReached is returned by RecordScan when the guarded scan
// counter update matches no row, meaning the scan budget was used up by a
// concurrent request between the validity read and this write.
var ErrScanLimitReached = errors.New("scan limit reached")

// ErrQuotaExhausted is returned by ConsumeQuota when the guarded quota
// update matches no row on a free-tier account.
var ErrQuotaExhausted = errors.New("qr quota exhausted")

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// CustomerRepository defines operations for customers
type CustomerRepository interface {
	Repository[models.Customer, models.CustomerFilter]
	ByEmail(ctx context.Context, email string) (*models.Customer, error)
	ByUUID(ctx context.Context, uuid string) (*models.Customer, error)
	UpdatePassword(ctx context.Context, customerID uint, passwordHash string) error
	UpdateLastLogin(ctx context.Context, customerID uint, at time.Time) error
	// ConsumeQuota atomically increments qr_used. When enforceQuota is set
	// the update is guarded by qr_used < qr_quota and ErrQuotaExhausted is
	// returned if the guard rejects the row.
	ConsumeQuota(ctx context.Context, customerID uint, enforceQuota bool) error
	// AddQuota atomically raises qr_quota by n (purchased add-ons).
	AddQuota(ctx context.Context, customerID uint, n int) error
}

// CustomerSessionRepository defines operations for customer sessions
type CustomerSessionRepository interface {
	Repository[models.CustomerSession, models.CustomerSessionFilter]
	BySessionToken(ctx context.Context, token string) (*models.CustomerSession, error)
	ByRefreshToken(ctx context.Context, token string) (*models.CustomerSession, error)
	ExpireSession(ctx context.Context, sessionID uint) error
	ExpireAllCustomerSessions(ctx context.Context, customerID uint) error
	CleanupExpiredSessions(ctx context.Context) error
}

// QRCodeRepository defines operations for QR codes
type QRCodeRepository interface {
	Repository[models.QRCode, models.QRCodeFilter]
	ByUUID(ctx context.Context, uuid string) (*models.QRCode, error)
	ByShortCode(ctx context.Context, shortCode string) (*models.QRCode, error)
	ShortCodeExists(ctx context.Context, shortCode string) (bool, error)
	ListByCustomer(ctx context.Context, customerID uint, orderBy string) ([]*models.QRCode, error)
	Update(ctx context.Context, code *models.QRCode) error
	Delete(ctx context.Context, id uint) error
	// RecordScan appends the scan event and bumps current_scans and
	// last_scanned_at in one transaction. The counter update is guarded by
	// max_scans; if the guard matches no row the whole transaction is
	// rolled back and ErrScanLimitReached is returned.
	RecordScan(ctx context.Context, scan *models.QRScan) error
	// ReconcileScanCounts recomputes current_scans from the scan event
	// table for drift repair. Returns the number of corrected rows.
	ReconcileScanCounts(ctx context.Context) (int64, error)
}

// QRScanRepository defines operations for scan events
type QRScanRepository interface {
	Repository[models.QRScan, models.QRScanFilter]
	ListByQRCode(ctx context.Context, qrCodeID uint, orderBy string, limit, offset int) ([]*models.QRScan, error)
	CountByCustomer(ctx context.Context, customerID uint) (int64, error)
	CountByCustomerSince(ctx context.Context, customerID uint, since time.Time) (int64, error)
	CountUniqueVisitors(ctx context.Context, customerID uint) (int64, error)
	CountByDevice(ctx context.Context, customerID uint) (map[string]int64, error)
	TopQRCodes(ctx context.Context, customerID uint, limit int) ([]*QRCodeScanCount, error)
	ScansPerDay(ctx context.Context, customerID uint, days int) ([]*DailyScanCount, error)
}

// QRCodeScanCount is an aggregate row for the top-codes dashboard widget
type QRCodeScanCount struct {
	QRCodeID uint   `json:"qr_code_id"`
	Name     string `json:"name"`
	Scans    int64  `json:"scans"`
}

// DailyScanCount is an aggregate row for the scans-over-time chart
type DailyScanCount struct {
	Day   time.Time `json:"day"`
	Scans int64     `json:"scans"`
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByCustomer(ctx context.Context, customerID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
	ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}
