// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/scanlytic/scanlytic/models"
	"github.com/scanlytic/scanlytic/repository"
	testingutil "github.com/scanlytic/scanlytic/testing"
	"github.com/scanlytic/scanlytic/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewCustomerRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("ByEmail", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer()
			require.NoError(t, err)

			found, err := repo.ByEmail(ctx, customer.Email)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, customer.ID, found.ID)
		})

		t.Run("ByEmailNotFound", func(t *testing.T) {
			found, err := repo.ByEmail(ctx, "nobody@example.com")
			assert.NoError(t, err)
			assert.Nil(t, found)
		})

		t.Run("ByUUID", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer()
			require.NoError(t, err)

			found, err := repo.ByUUID(ctx, customer.UUID.String())
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, customer.Email, found.Email)
		})

		t.Run("ConsumeQuotaEnforced", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer()
			require.NoError(t, err)

			// The default free-tier quota allows exactly FreeTierQuota slots
			for i := 0; i < utils.FreeTierQuota; i++ {
				require.NoError(t, repo.ConsumeQuota(ctx, customer.ID, true))
			}

			err = repo.ConsumeQuota(ctx, customer.ID, true)
			assert.ErrorIs(t, err, repository.ErrQuotaExhausted)

			reloaded, err := repo.ByID(ctx, customer.ID)
			require.NoError(t, err)
			assert.Equal(t, utils.FreeTierQuota, reloaded.QRUsed)
		})

		t.Run("ConsumeQuotaUnenforcedRunsOverQuota", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer()
			require.NoError(t, err)

			// Paid tiers keep counting usage past the stored quota
			for i := 0; i < utils.FreeTierQuota+3; i++ {
				require.NoError(t, repo.ConsumeQuota(ctx, customer.ID, false))
			}

			reloaded, err := repo.ByID(ctx, customer.ID)
			require.NoError(t, err)
			assert.Equal(t, utils.FreeTierQuota+3, reloaded.QRUsed)
		})

		t.Run("AddQuota", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer()
			require.NoError(t, err)

			require.NoError(t, repo.AddQuota(ctx, customer.ID, 10))

			reloaded, err := repo.ByID(ctx, customer.ID)
			require.NoError(t, err)
			assert.Equal(t, utils.FreeTierQuota+10, reloaded.QRQuota)
		})

		t.Run("AddQuotaRejectsNonPositive", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer()
			require.NoError(t, err)

			assert.Error(t, repo.AddQuota(ctx, customer.ID, 0))
			assert.Error(t, repo.AddQuota(ctx, customer.ID, -5))
		})

		t.Run("UpdateLastLogin", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer()
			require.NoError(t, err)

			at := utils.UTCNow()
			require.NoError(t, repo.UpdateLastLogin(ctx, customer.ID, at))

			reloaded, err := repo.ByID(ctx, customer.ID)
			require.NoError(t, err)
			require.NotNil(t, reloaded.LastLoginAt)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestQRCodeRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewQRCodeRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		customer, err := fixtures.CreateTestCustomer()
		require.NoError(t, err)

		t.Run("ByShortCode", func(t *testing.T) {
			qrCode, err := fixtures.CreateTestQRCode(customer.ID)
			require.NoError(t, err)

			found, err := repo.ByShortCode(ctx, qrCode.ShortCode)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, qrCode.ID, found.ID)

			missing, err := repo.ByShortCode(ctx, "nosuch")
			assert.NoError(t, err)
			assert.Nil(t, missing)
		})

		t.Run("ShortCodeExists", func(t *testing.T) {
			qrCode, err := fixtures.CreateTestQRCode(customer.ID)
			require.NoError(t, err)

			exists, err := repo.ShortCodeExists(ctx, qrCode.ShortCode)
			require.NoError(t, err)
			assert.True(t, exists)

			exists, err = repo.ShortCodeExists(ctx, "nosuch")
			require.NoError(t, err)
			assert.False(t, exists)
		})

		t.Run("RecordScanBumpsCounter", func(t *testing.T) {
			qrCode, err := fixtures.CreateTestQRCode(customer.ID)
			require.NoError(t, err)

			scan := &models.QRScan{QRCodeID: qrCode.ID, ScannedAt: utils.UTCNow()}
			require.NoError(t, repo.RecordScan(ctx, scan))
			assert.NotZero(t, scan.ID)

			reloaded, err := repo.ByID(ctx, qrCode.ID)
			require.NoError(t, err)
			assert.Equal(t, 1, reloaded.CurrentScans)
			assert.NotNil(t, reloaded.LastScannedAt)
		})

		t.Run("RecordScanGuardRejectsAtLimit", func(t *testing.T) {
			qrCode, err := fixtures.CreateTestQRCode(customer.ID)
			require.NoError(t, err)

			qrCode.MaxScans = utils.ToPtr(1)
			require.NoError(t, repo.Update(ctx, qrCode))

			require.NoError(t, repo.RecordScan(ctx, &models.QRScan{QRCodeID: qrCode.ID, ScannedAt: utils.UTCNow()}))

			err = repo.RecordScan(ctx, &models.QRScan{QRCodeID: qrCode.ID, ScannedAt: utils.UTCNow()})
			assert.ErrorIs(t, err, repository.ErrScanLimitReached)

			// The rejected scan must not leave an orphan event row behind
			scanRepo := repository.NewQRScanRepository(testDB.DB)
			scans, err := scanRepo.ListByQRCode(ctx, qrCode.ID, "", 0, 0)
			require.NoError(t, err)
			assert.Len(t, scans, 1)

			reloaded, err := repo.ByID(ctx, qrCode.ID)
			require.NoError(t, err)
			assert.Equal(t, 1, reloaded.CurrentScans)
		})

		t.Run("ReconcileScanCounts", func(t *testing.T) {
			qrCode, err := fixtures.CreateTestQRCode(customer.ID)
			require.NoError(t, err)

			_, err = fixtures.CreateTestScan(qrCode.ID, models.DeviceTypeMobile)
			require.NoError(t, err)
			_, err = fixtures.CreateTestScan(qrCode.ID, models.DeviceTypeDesktop)
			require.NoError(t, err)

			// Fixture scans bypass RecordScan, so the counter now trails
			// the event table by two
			repaired, err := repo.ReconcileScanCounts(ctx)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, repaired, int64(1))

			reloaded, err := repo.ByID(ctx, qrCode.ID)
			require.NoError(t, err)
			assert.Equal(t, 2, reloaded.CurrentScans)
		})

		t.Run("DeleteRemovesRow", func(t *testing.T) {
			qrCode, err := fixtures.CreateTestQRCode(customer.ID)
			require.NoError(t, err)

			require.NoError(t, repo.Delete(ctx, qrCode.ID))

			found, err := repo.ByID(ctx, qrCode.ID)
			assert.NoError(t, err)
			assert.Nil(t, found)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestQRScanRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewQRScanRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		customer, err := fixtures.CreateTestCustomer()
		require.NoError(t, err)
		qrCode, err := fixtures.CreateTestQRCode(customer.ID)
		require.NoError(t, err)

		_, err = fixtures.CreateTestScan(qrCode.ID, models.DeviceTypeMobile)
		require.NoError(t, err)
		_, err = fixtures.CreateTestScan(qrCode.ID, models.DeviceTypeMobile)
		require.NoError(t, err)
		_, err = fixtures.CreateTestScan(qrCode.ID, models.DeviceTypeDesktop)
		require.NoError(t, err)

		t.Run("CountByCustomer", func(t *testing.T) {
			count, err := repo.CountByCustomer(ctx, customer.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(3), count)
		})

		t.Run("CountByCustomerSince", func(t *testing.T) {
			count, err := repo.CountByCustomerSince(ctx, customer.ID, utils.UTCNow().Add(-time.Hour))
			require.NoError(t, err)
			assert.Equal(t, int64(3), count)

			count, err = repo.CountByCustomerSince(ctx, customer.ID, utils.UTCNow().Add(time.Hour))
			require.NoError(t, err)
			assert.Equal(t, int64(0), count)
		})

		t.Run("CountByDevice", func(t *testing.T) {
			counts, err := repo.CountByDevice(ctx, customer.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(2), counts[models.DeviceTypeMobile])
			assert.Equal(t, int64(1), counts[models.DeviceTypeDesktop])
		})

		t.Run("TopQRCodes", func(t *testing.T) {
			top, err := repo.TopQRCodes(ctx, customer.ID, 5)
			require.NoError(t, err)
			require.NotEmpty(t, top)
			assert.Equal(t, qrCode.ID, top[0].QRCodeID)
			assert.Equal(t, int64(3), top[0].Scans)
		})

		t.Run("ScansPerDay", func(t *testing.T) {
			days, err := repo.ScansPerDay(ctx, customer.ID, 30)
			require.NoError(t, err)
			require.NotEmpty(t, days)

			var total int64
			for _, d := range days {
				total += d.Scans
			}
			assert.Equal(t, int64(3), total)
		})

		t.Run("ListByQRCodePagination", func(t *testing.T) {
			page, err := repo.ListByQRCode(ctx, qrCode.ID, "scanned_at ASC", 2, 0)
			require.NoError(t, err)
			assert.Len(t, page, 2)

			page, err = repo.ListByQRCode(ctx, qrCode.ID, "scanned_at ASC", 2, 2)
			require.NoError(t, err)
			assert.Len(t, page, 1)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestCustomerSessionRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewCustomerSessionRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		customer, err := fixtures.CreateTestCustomer()
		require.NoError(t, err)

		t.Run("BySessionToken", func(t *testing.T) {
			session, err := fixtures.CreateTestSession(customer.ID)
			require.NoError(t, err)

			found, err := repo.BySessionToken(ctx, session.SessionToken)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, session.ID, found.ID)
		})

		t.Run("ByRefreshToken", func(t *testing.T) {
			session, err := fixtures.CreateTestSession(customer.ID)
			require.NoError(t, err)

			found, err := repo.ByRefreshToken(ctx, *session.RefreshToken)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, session.ID, found.ID)
		})

		t.Run("ExpireSession", func(t *testing.T) {
			session, err := fixtures.CreateTestSession(customer.ID)
			require.NoError(t, err)

			require.NoError(t, repo.ExpireSession(ctx, session.ID))

			found, err := repo.ByID(ctx, session.ID)
			require.NoError(t, err)
			assert.False(t, found.IsUsable())
		})

		t.Run("ExpireAllCustomerSessions", func(t *testing.T) {
			other, err := fixtures.CreateTestCustomer()
			require.NoError(t, err)

			s1, err := fixtures.CreateTestSession(other.ID)
			require.NoError(t, err)
			s2, err := fixtures.CreateTestSession(other.ID)
			require.NoError(t, err)

			require.NoError(t, repo.ExpireAllCustomerSessions(ctx, other.ID))

			for _, id := range []uint{s1.ID, s2.ID} {
				found, err := repo.ByID(ctx, id)
				require.NoError(t, err)
				assert.False(t, found.IsUsable())
			}
		})

		return nil
	})
	require.NoError(t, err)
}

func TestModelHelpers(t *testing.T) {
	t.Run("QRCodeIsExpired", func(t *testing.T) {
		code := &models.QRCode{}
		assert.False(t, code.IsExpired())

		code.ExpiresAt = utils.ToPtr(time.Now().UTC().Add(-time.Minute))
		assert.True(t, code.IsExpired())

		code.ExpiresAt = utils.ToPtr(time.Now().UTC().Add(time.Minute))
		assert.False(t, code.IsExpired())
	})

	t.Run("QRCodeScanLimitReached", func(t *testing.T) {
		code := &models.QRCode{CurrentScans: 100}
		assert.False(t, code.ScanLimitReached())

		code.MaxScans = utils.ToPtr(100)
		assert.True(t, code.ScanLimitReached())

		code.MaxScans = utils.ToPtr(101)
		assert.False(t, code.ScanLimitReached())
	})

	t.Run("CustomerFreeTierAndQuota", func(t *testing.T) {
		customer := &models.Customer{SubscriptionStatus: utils.SubscriptionFree, QRQuota: 5, QRUsed: 3}
		assert.True(t, customer.IsFreeTier())
		assert.Equal(t, 2, customer.RemainingQuota())

		customer.SubscriptionStatus = utils.SubscriptionYearly
		assert.False(t, customer.IsFreeTier())
	})

	t.Run("CustomerUUIDAssigned", func(t *testing.T) {
		id := uuid.New()
		customer := &models.Customer{UUID: id}
		assert.Equal(t, id, customer.UUID)
	})
}
