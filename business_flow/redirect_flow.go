package businessflow

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/scanlytic/scanlytic/config"
	"github.com/scanlytic/scanlytic/models"
	"github.com/scanlytic/scanlytic/repository"
	"github.com/scanlytic/scanlytic/utils"
)

// Redirect outcomes. Every scan resolves to exactly one of these; the
// handler maps it to a Location header, so the scanner always gets a 302.
const (
	RedirectOutcomeOK           = "ok"
	RedirectOutcomePassword     = "password_required"
	RedirectOutcomeNotFound     = "qr_not_found"
	RedirectOutcomeInactive     = "qr_inactive"
	RedirectOutcomeExpired      = "qr_expired"
	RedirectOutcomeLimitReached = "qr_limit_reached"
	RedirectOutcomeServerError  = "server_error"
)

// RedirectResult is the decision for a single scan of a short code.
type RedirectResult struct {
	Outcome        string
	DestinationURL string
	ShortCode      string
}

// RedirectFlow resolves a scanned short code and tracks the scan.
// Public flow, no authentication required.
type RedirectFlow interface {
	Resolve(ctx context.Context, shortCode string, metadata *ClientMetadata) *RedirectResult
}

type RedirectFlowImpl struct {
	qrCodeRepo  repository.QRCodeRepository
	rc          *redis.Client
	cacheConfig *config.CacheConfig
}

func NewRedirectFlow(
	qrCodeRepo repository.QRCodeRepository,
	rc *redis.Client,
	cacheConfig *config.CacheConfig,
) RedirectFlow {
	return &RedirectFlowImpl{
		qrCodeRepo:  qrCodeRepo,
		rc:          rc,
		cacheConfig: cacheConfig,
	}
}

// Resolve looks up the short code, validates it, records the scan, and
// decides where the scanner goes. It never returns an error: lookup or
// tracking failures degrade to a server_error outcome so the handler can
// still redirect.
func (f *RedirectFlowImpl) Resolve(ctx context.Context, shortCode string, metadata *ClientMetadata) *RedirectResult {
	result := &RedirectResult{ShortCode: shortCode}

	qrCode, err := f.lookup(ctx, shortCode)
	if err != nil {
		result.Outcome = RedirectOutcomeServerError
		return result
	}
	if qrCode == nil {
		result.Outcome = RedirectOutcomeNotFound
		return result
	}

	// The active flag is checked before expiry: a paused expired code
	// reports qr_inactive.
	if !utils.IsTrue(qrCode.IsActive) {
		result.Outcome = RedirectOutcomeInactive
		return result
	}
	if qrCode.IsExpired() {
		result.Outcome = RedirectOutcomeExpired
		return result
	}
	if qrCode.ScanLimitReached() {
		result.Outcome = RedirectOutcomeLimitReached
		return result
	}

	scan := f.buildScan(qrCode.ID, metadata)
	if err := f.qrCodeRepo.RecordScan(ctx, scan); err != nil {
		// Cached rows can trail the real counter, the guarded update is
		// the authority on the scan limit.
		if errors.Is(err, repository.ErrScanLimitReached) {
			f.invalidate(ctx, shortCode)
			result.Outcome = RedirectOutcomeLimitReached
			return result
		}
		result.Outcome = RedirectOutcomeServerError
		return result
	}

	// The scan is recorded before the password gate: the owner sees the
	// scan attempt even when the visitor never unlocks the destination.
	if qrCode.IsPasswordProtected() {
		result.Outcome = RedirectOutcomePassword
		return result
	}

	result.Outcome = RedirectOutcomeOK
	result.DestinationURL = qrCode.DestinationURL
	return result
}

// lookup fetches a QR code by short code, trying Redis before Postgres.
// Only found rows are cached; misses always hit the database so freshly
// created codes resolve immediately.
func (f *RedirectFlowImpl) lookup(ctx context.Context, shortCode string) (*models.QRCode, error) {
	cacheKey := f.cacheKey(shortCode)

	if f.cacheEnabled() {
		if bs, err := f.rc.Get(ctx, cacheKey).Bytes(); err == nil && len(bs) > 0 {
			var cached models.QRCode
			if err := json.Unmarshal(bs, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	qrCode, err := f.qrCodeRepo.ByShortCode(ctx, shortCode)
	if err != nil {
		return nil, NewBusinessError("QR_CODE_LOOKUP_FAILED", "Failed to lookup QR code", err)
	}
	if qrCode == nil {
		return nil, nil
	}

	if f.cacheEnabled() {
		if bs, err := json.Marshal(qrCode); err == nil {
			_ = f.rc.Set(ctx, cacheKey, bs, f.cacheConfig.DefaultTTL).Err()
		}
	}
	return qrCode, nil
}

func (f *RedirectFlowImpl) buildScan(qrCodeID uint, metadata *ClientMetadata) *models.QRScan {
	scan := &models.QRScan{
		QRCodeID:  qrCodeID,
		ScannedAt: utils.UTCNow(),
	}
	if metadata == nil {
		return scan
	}

	if metadata.IPAddress != "" {
		scan.IPAddress = utils.ToPtr(metadata.IPAddress)
	}
	if metadata.UserAgent != "" {
		scan.UserAgent = utils.ToPtr(metadata.UserAgent)
	}
	if metadata.Referrer != "" {
		scan.Referrer = utils.ToPtr(metadata.Referrer)
	}

	device := ClassifyUserAgent(metadata.UserAgent)
	scan.DeviceType = utils.ToPtr(device.DeviceType)
	scan.OS = utils.ToPtr(device.OS)
	scan.Browser = utils.ToPtr(device.Browser)

	fingerprint := VisitorFingerprint(metadata.IPAddress, metadata.UserAgent)
	if fingerprint != "" {
		scan.VisitorFingerprint = utils.ToPtr(fingerprint)
	}
	return scan
}

// invalidate drops the cached row for a short code so the next scan sees
// the current database state.
func (f *RedirectFlowImpl) invalidate(ctx context.Context, shortCode string) {
	if !f.cacheEnabled() {
		return
	}
	_ = f.rc.Del(ctx, f.cacheKey(shortCode)).Err()
}

func (f *RedirectFlowImpl) cacheEnabled() bool {
	return f.rc != nil && f.cacheConfig != nil && f.cacheConfig.Enabled
}

func (f *RedirectFlowImpl) cacheKey(shortCode string) string {
	return redisKey(f.cacheConfig, utils.QRCodeCacheKeyPrefix+shortCode)
}

func redisKey(cfg *config.CacheConfig, key string) string {
	if cfg == nil || cfg.RedisPrefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", cfg.RedisPrefix, key)
}

// VisitorFingerprint derives an anonymous visitor identity from the client
// IP and user agent. Same input always yields the same fingerprint, so
// repeat scans from one device collapse into one unique visitor.
func VisitorFingerprint(ip, userAgent string) string {
	if ip == "" && userAgent == "" {
		return ""
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(ip + ":" + userAgent))
	if len(encoded) > utils.FingerprintLength {
		encoded = encoded[:utils.FingerprintLength]
	}
	return encoded
}
