package businessflow

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/scanlytic/scanlytic/models"
	"github.com/scanlytic/scanlytic/repository"
	"github.com/scanlytic/scanlytic/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQRCodeRepo backs the redirect flow without a database. Only the
// methods the flow touches carry behavior.
type fakeQRCodeRepo struct {
	repository.QRCodeRepository

	byShortCode   map[string]*models.QRCode
	lookupErr     error
	recordScanErr error
	recordedScans []*models.QRScan
}

func (f *fakeQRCodeRepo) ByShortCode(ctx context.Context, shortCode string) (*models.QRCode, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.byShortCode[shortCode], nil
}

func (f *fakeQRCodeRepo) RecordScan(ctx context.Context, scan *models.QRScan) error {
	if f.recordScanErr != nil {
		return f.recordScanErr
	}
	f.recordedScans = append(f.recordedScans, scan)
	return nil
}

func activeQRCode(shortCode string) *models.QRCode {
	return &models.QRCode{
		ID:             42,
		UUID:           uuid.New(),
		CustomerID:     7,
		Name:           "Menu",
		ShortCode:      shortCode,
		QRType:         models.QRTypeURL,
		DestinationURL: "https://example.com/menu",
		IsActive:       utils.ToPtr(true),
	}
}

func scannerMetadata() *ClientMetadata {
	return NewClientMetadata(
		"203.0.113.10",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Safari/604.1",
	)
}

func TestRedirectFlowResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("ActiveCodeRedirectsAndRecordsScan", func(t *testing.T) {
		repo := &fakeQRCodeRepo{byShortCode: map[string]*models.QRCode{
			"abc123": activeQRCode("abc123"),
		}}
		flow := NewRedirectFlow(repo, nil, nil)

		result := flow.Resolve(ctx, "abc123", scannerMetadata())
		assert.Equal(t, RedirectOutcomeOK, result.Outcome)
		assert.Equal(t, "https://example.com/menu", result.DestinationURL)

		require.Len(t, repo.recordedScans, 1)
		scan := repo.recordedScans[0]
		assert.Equal(t, uint(42), scan.QRCodeID)
		require.NotNil(t, scan.DeviceType)
		assert.Equal(t, models.DeviceTypeMobile, *scan.DeviceType)
		require.NotNil(t, scan.OS)
		assert.Equal(t, "iOS", *scan.OS)
		require.NotNil(t, scan.VisitorFingerprint)
	})

	t.Run("UnknownCodeIsNotFound", func(t *testing.T) {
		repo := &fakeQRCodeRepo{byShortCode: map[string]*models.QRCode{}}
		flow := NewRedirectFlow(repo, nil, nil)

		result := flow.Resolve(ctx, "zzzzzz", scannerMetadata())
		assert.Equal(t, RedirectOutcomeNotFound, result.Outcome)
		assert.Empty(t, result.DestinationURL)
		assert.Empty(t, repo.recordedScans)
	})

	t.Run("InactiveCodeIsNotScanned", func(t *testing.T) {
		code := activeQRCode("abc123")
		code.IsActive = utils.ToPtr(false)
		repo := &fakeQRCodeRepo{byShortCode: map[string]*models.QRCode{"abc123": code}}
		flow := NewRedirectFlow(repo, nil, nil)

		result := flow.Resolve(ctx, "abc123", scannerMetadata())
		assert.Equal(t, RedirectOutcomeInactive, result.Outcome)
		assert.Empty(t, repo.recordedScans)
	})

	t.Run("ExpiredCode", func(t *testing.T) {
		code := activeQRCode("abc123")
		code.ExpiresAt = utils.ToPtr(time.Now().UTC().Add(-time.Hour))
		repo := &fakeQRCodeRepo{byShortCode: map[string]*models.QRCode{"abc123": code}}
		flow := NewRedirectFlow(repo, nil, nil)

		result := flow.Resolve(ctx, "abc123", scannerMetadata())
		assert.Equal(t, RedirectOutcomeExpired, result.Outcome)
		assert.Empty(t, repo.recordedScans)
	})

	t.Run("InactiveWinsOverExpired", func(t *testing.T) {
		code := activeQRCode("abc123")
		code.IsActive = utils.ToPtr(false)
		code.ExpiresAt = utils.ToPtr(time.Now().UTC().Add(-time.Hour))
		repo := &fakeQRCodeRepo{byShortCode: map[string]*models.QRCode{"abc123": code}}
		flow := NewRedirectFlow(repo, nil, nil)

		result := flow.Resolve(ctx, "abc123", scannerMetadata())
		assert.Equal(t, RedirectOutcomeInactive, result.Outcome)
		assert.Empty(t, repo.recordedScans)
	})

	t.Run("ScanLimitReachedOnRead", func(t *testing.T) {
		code := activeQRCode("abc123")
		code.MaxScans = utils.ToPtr(10)
		code.CurrentScans = 10
		repo := &fakeQRCodeRepo{byShortCode: map[string]*models.QRCode{"abc123": code}}
		flow := NewRedirectFlow(repo, nil, nil)

		result := flow.Resolve(ctx, "abc123", scannerMetadata())
		assert.Equal(t, RedirectOutcomeLimitReached, result.Outcome)
		assert.Empty(t, repo.recordedScans)
	})

	t.Run("ScanLimitReachedOnGuardedWrite", func(t *testing.T) {
		// The read shows headroom but the guarded counter update loses the
		// race, the limit outcome still wins.
		code := activeQRCode("abc123")
		code.MaxScans = utils.ToPtr(10)
		code.CurrentScans = 9
		repo := &fakeQRCodeRepo{
			byShortCode:   map[string]*models.QRCode{"abc123": code},
			recordScanErr: repository.ErrScanLimitReached,
		}
		flow := NewRedirectFlow(repo, nil, nil)

		result := flow.Resolve(ctx, "abc123", scannerMetadata())
		assert.Equal(t, RedirectOutcomeLimitReached, result.Outcome)
	})

	t.Run("PasswordProtectedRecordsScanButWithholdsDestination", func(t *testing.T) {
		code := activeQRCode("abc123")
		code.PasswordHash = utils.ToPtr("$2a$10$hash")
		repo := &fakeQRCodeRepo{byShortCode: map[string]*models.QRCode{"abc123": code}}
		flow := NewRedirectFlow(repo, nil, nil)

		result := flow.Resolve(ctx, "abc123", scannerMetadata())
		assert.Equal(t, RedirectOutcomePassword, result.Outcome)
		assert.Empty(t, result.DestinationURL)
		assert.Len(t, repo.recordedScans, 1)
	})

	t.Run("LookupFailureDegradesToServerError", func(t *testing.T) {
		repo := &fakeQRCodeRepo{lookupErr: errors.New("connection refused")}
		flow := NewRedirectFlow(repo, nil, nil)

		result := flow.Resolve(ctx, "abc123", scannerMetadata())
		assert.Equal(t, RedirectOutcomeServerError, result.Outcome)
	})

	t.Run("TrackingFailureDegradesToServerError", func(t *testing.T) {
		repo := &fakeQRCodeRepo{
			byShortCode:   map[string]*models.QRCode{"abc123": activeQRCode("abc123")},
			recordScanErr: errors.New("deadlock detected"),
		}
		flow := NewRedirectFlow(repo, nil, nil)

		result := flow.Resolve(ctx, "abc123", scannerMetadata())
		assert.Equal(t, RedirectOutcomeServerError, result.Outcome)
	})

	t.Run("NilMetadataStillRecordsScan", func(t *testing.T) {
		repo := &fakeQRCodeRepo{byShortCode: map[string]*models.QRCode{
			"abc123": activeQRCode("abc123"),
		}}
		flow := NewRedirectFlow(repo, nil, nil)

		result := flow.Resolve(ctx, "abc123", nil)
		assert.Equal(t, RedirectOutcomeOK, result.Outcome)
		require.Len(t, repo.recordedScans, 1)
		assert.Nil(t, repo.recordedScans[0].IPAddress)
	})
}

func TestVisitorFingerprint(t *testing.T) {
	t.Run("Deterministic", func(t *testing.T) {
		a := VisitorFingerprint("203.0.113.10", "Mozilla/5.0")
		b := VisitorFingerprint("203.0.113.10", "Mozilla/5.0")
		assert.Equal(t, a, b)
		assert.NotEmpty(t, a)
	})

	t.Run("TruncatedToFixedLength", func(t *testing.T) {
		fp := VisitorFingerprint("203.0.113.10", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15) long agent string")
		assert.Len(t, fp, utils.FingerprintLength)
	})

	t.Run("ShortInputKeptWhole", func(t *testing.T) {
		fp := VisitorFingerprint("a", "b")
		expected := base64.StdEncoding.EncodeToString([]byte("a:b"))
		assert.Equal(t, expected, fp)
	})

	t.Run("EmptyInputsYieldEmpty", func(t *testing.T) {
		assert.Empty(t, VisitorFingerprint("", ""))
	})
}
