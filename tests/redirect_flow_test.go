package tests

import (
	"testing"

	businessflow "github.com/scanlytic/scanlytic/business_flow"
	"github.com/scanlytic/scanlytic/models"
	"github.com/scanlytic/scanlytic/repository"
	testingutil "github.com/scanlytic/scanlytic/testing"
	"github.com/scanlytic/scanlytic/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedirectFlow(testDB *testingutil.TestDB) businessflow.RedirectFlow {
	return businessflow.NewRedirectFlow(repository.NewQRCodeRepository(testDB.DB), nil, nil)
}

func TestRedirectFlowAgainstDatabase(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		qrCodeFlow := newQRCodeFlow(testDB)
		redirectFlow := newRedirectFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("SingleScanCodeLocksAfterFirstResolve", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer()
			require.NoError(t, err)

			req := urlCreateRequest("One-shot coupon")
			req.MaxScans = utils.ToPtr(1)
			created, err := qrCodeFlow.Create(ctx, customer.ID, req, testMetadata())
			require.NoError(t, err)

			first := redirectFlow.Resolve(ctx, created.QRCode.ShortCode, testMetadata())
			assert.Equal(t, businessflow.RedirectOutcomeOK, first.Outcome)
			assert.Equal(t, "https://example.com/landing", first.DestinationURL)

			second := redirectFlow.Resolve(ctx, created.QRCode.ShortCode, testMetadata())
			assert.Equal(t, businessflow.RedirectOutcomeLimitReached, second.Outcome)
			assert.Empty(t, second.DestinationURL)

			var scanCount int64
			require.NoError(t, testDB.DB.Model(&models.QRScan{}).
				Where("qr_code_id = (SELECT id FROM qr_codes WHERE short_code = ?)", created.QRCode.ShortCode).
				Count(&scanCount).Error)
			assert.Equal(t, int64(1), scanCount)
		})

		t.Run("UnlimitedCodeRecordsEveryResolve", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer()
			require.NoError(t, err)

			created, err := qrCodeFlow.Create(ctx, customer.ID, urlCreateRequest("Menu"), testMetadata())
			require.NoError(t, err)

			for i := 0; i < 3; i++ {
				result := redirectFlow.Resolve(ctx, created.QRCode.ShortCode, testMetadata())
				assert.Equal(t, businessflow.RedirectOutcomeOK, result.Outcome)
			}

			var qrCode models.QRCode
			require.NoError(t, testDB.DB.Where("short_code = ?", created.QRCode.ShortCode).First(&qrCode).Error)
			assert.Equal(t, 3, qrCode.CurrentScans)
			assert.Equal(t, created.QRCode.ShortCode, qrCode.ShortCode)

			var scanCount int64
			require.NoError(t, testDB.DB.Model(&models.QRScan{}).
				Where("qr_code_id = ?", qrCode.ID).Count(&scanCount).Error)
			assert.Equal(t, int64(3), scanCount)
		})

		t.Run("ProtectedCodeRecordsScanAndWithholdsDestination", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer()
			require.NoError(t, err)

			req := urlCreateRequest("Members area")
			req.Password = utils.ToPtr("hunter2")
			created, err := qrCodeFlow.Create(ctx, customer.ID, req, testMetadata())
			require.NoError(t, err)

			result := redirectFlow.Resolve(ctx, created.QRCode.ShortCode, testMetadata())
			assert.Equal(t, businessflow.RedirectOutcomePassword, result.Outcome)
			assert.Empty(t, result.DestinationURL)

			var qrCode models.QRCode
			require.NoError(t, testDB.DB.Where("short_code = ?", created.QRCode.ShortCode).First(&qrCode).Error)
			assert.Equal(t, 1, qrCode.CurrentScans)
		})

		return nil
	})
	require.NoError(t, err)
}
