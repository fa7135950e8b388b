package tests

import (
	"testing"

	"github.com/scanlytic/scanlytic/app/dto"
	businessflow "github.com/scanlytic/scanlytic/business_flow"
	"github.com/scanlytic/scanlytic/config"
	"github.com/scanlytic/scanlytic/repository"
	testingutil "github.com/scanlytic/scanlytic/testing"
	"github.com/scanlytic/scanlytic/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQRCodeFlow(testDB *testingutil.TestDB) businessflow.QRCodeFlow {
	return businessflow.NewQRCodeFlow(
		repository.NewQRCodeRepository(testDB.DB),
		repository.NewCustomerRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		nil,
		&config.CacheConfig{Enabled: false},
		testDB.DB,
	)
}

func urlCreateRequest(name string) *dto.CreateQRCodeRequest {
	return &dto.CreateQRCodeRequest{
		Name: name,
		Content: &dto.QRContentDTO{
			Type: "url",
			URL:  "https://example.com/landing",
		},
	}
}

func testMetadata() *businessflow.ClientMetadata {
	return businessflow.NewClientMetadata("203.0.113.10", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)")
}

func TestQRCodeFlowCreate(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newQRCodeFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("CreateIssuesShortCodeAndConsumesQuota", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer()
			require.NoError(t, err)

			resp, err := flow.Create(ctx, customer.ID, urlCreateRequest("Menu"), testMetadata())
			require.NoError(t, err)
			assert.Len(t, resp.QRCode.ShortCode, utils.ShortCodeLength)
			assert.Equal(t, "https://example.com/landing", resp.QRCode.DestinationURL)
			assert.Equal(t, utils.FreeTierQuota-1, resp.QuotaRemaining)
			assert.Nil(t, resp.LowQuotaWarning)

			customerRepo := repository.NewCustomerRepository(testDB.DB)
			reloaded, err := customerRepo.ByID(ctx, customer.ID)
			require.NoError(t, err)
			assert.Equal(t, 1, reloaded.QRUsed)
		})

		t.Run("LowQuotaWarningNearLimit", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer()
			require.NoError(t, err)

			var resp *dto.CreateQRCodeResponse
			for i := 0; i < utils.FreeTierQuota-utils.LowQuotaWarningThreshold; i++ {
				resp, err = flow.Create(ctx, customer.ID, urlCreateRequest("Menu"), testMetadata())
				require.NoError(t, err)
			}
			require.NotNil(t, resp.LowQuotaWarning)
		})

		t.Run("QuotaExceededOnFreeTier", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer()
			require.NoError(t, err)

			for i := 0; i < utils.FreeTierQuota; i++ {
				_, err = flow.Create(ctx, customer.ID, urlCreateRequest("Menu"), testMetadata())
				require.NoError(t, err)
			}

			_, err = flow.Create(ctx, customer.ID, urlCreateRequest("One Too Many"), testMetadata())
			assert.ErrorIs(t, err, businessflow.ErrQuotaExceeded)
		})

		t.Run("PaidTierIgnoresQuota", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer()
			require.NoError(t, err)
			customer.SubscriptionStatus = utils.SubscriptionMonthly
			require.NoError(t, testDB.DB.Save(customer).Error)

			for i := 0; i < utils.FreeTierQuota+2; i++ {
				_, err = flow.Create(ctx, customer.ID, urlCreateRequest("Campaign"), testMetadata())
				require.NoError(t, err)
			}
		})

		t.Run("NameRequired", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer()
			require.NoError(t, err)

			_, err = flow.Create(ctx, customer.ID, urlCreateRequest("  "), testMetadata())
			assert.ErrorIs(t, err, businessflow.ErrQRCodeNameRequired)
		})

		t.Run("NameIsTrimmed", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer()
			require.NoError(t, err)

			created, err := flow.Create(ctx, customer.ID, urlCreateRequest("  Menu  "), testMetadata())
			require.NoError(t, err)
			assert.Equal(t, "Menu", created.QRCode.Name)
		})

		t.Run("InvalidStyleRejected", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer()
			require.NoError(t, err)

			req := urlCreateRequest("Menu")
			req.Style = "neon"
			_, err = flow.Create(ctx, customer.ID, req, testMetadata())
			assert.ErrorIs(t, err, businessflow.ErrInvalidStyle)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestQRCodeFlowUpdateAndDelete(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newQRCodeFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("UpdateRewritesDestinationKeepsShortCode", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer()
			require.NoError(t, err)

			created, err := flow.Create(ctx, customer.ID, urlCreateRequest("Menu"), testMetadata())
			require.NoError(t, err)

			updated, err := flow.Update(ctx, customer.ID, created.QRCode.UUID, &dto.UpdateQRCodeRequest{
				Content: &dto.QRContentDTO{Type: "url", URL: "https://example.com/v2"},
			}, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, "https://example.com/v2", updated.DestinationURL)
			assert.Equal(t, created.QRCode.ShortCode, updated.ShortCode)
		})

		t.Run("ShortCodeIsImmutable", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer()
			require.NoError(t, err)

			created, err := flow.Create(ctx, customer.ID, urlCreateRequest("Menu"), testMetadata())
			require.NoError(t, err)

			_, err = flow.Update(ctx, customer.ID, created.QRCode.UUID, &dto.UpdateQRCodeRequest{
				ShortCode: utils.ToPtr("hijack"),
			}, testMetadata())
			assert.ErrorIs(t, err, businessflow.ErrShortCodeImmutable)
		})

		t.Run("UpdateRejectsBlankName", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer()
			require.NoError(t, err)

			created, err := flow.Create(ctx, customer.ID, urlCreateRequest("Menu"), testMetadata())
			require.NoError(t, err)

			_, err = flow.Update(ctx, customer.ID, created.QRCode.UUID, &dto.UpdateQRCodeRequest{
				Name: utils.ToPtr("   "),
			}, testMetadata())
			assert.ErrorIs(t, err, businessflow.ErrQRCodeNameRequired)
		})

		t.Run("ForeignCodeAnswersNotFound", func(t *testing.T) {
			owner, err := fixtures.CreateTestCustomer()
			require.NoError(t, err)
			stranger, err := fixtures.CreateTestCustomer()
			require.NoError(t, err)

			created, err := flow.Create(ctx, owner.ID, urlCreateRequest("Menu"), testMetadata())
			require.NoError(t, err)

			_, err = flow.Get(ctx, stranger.ID, created.QRCode.UUID)
			assert.ErrorIs(t, err, businessflow.ErrQRCodeAccessDenied)
		})

		t.Run("DeleteDoesNotRecycleQuota", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer()
			require.NoError(t, err)

			created, err := flow.Create(ctx, customer.ID, urlCreateRequest("Menu"), testMetadata())
			require.NoError(t, err)

			require.NoError(t, flow.Delete(ctx, customer.ID, created.QRCode.UUID, testMetadata()))

			// The consumed slot stays consumed after deletion
			customerRepo := repository.NewCustomerRepository(testDB.DB)
			reloaded, err := customerRepo.ByID(ctx, customer.ID)
			require.NoError(t, err)
			assert.Equal(t, 1, reloaded.QRUsed)

			_, err = flow.Get(ctx, customer.ID, created.QRCode.UUID)
			assert.ErrorIs(t, err, businessflow.ErrQRCodeNotFound)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestQRCodeFlowQuotaPurchaseAndLocking(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newQRCodeFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("PurchaseRaisesQuota", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer()
			require.NoError(t, err)

			resp, err := flow.PurchaseQuota(ctx, customer.ID, &dto.PurchaseQuotaRequest{Quantity: 10}, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, utils.FreeTierQuota+10, resp.Quota.Limit)
		})

		t.Run("ListMarksOverQuotaCodesLocked", func(t *testing.T) {
			customer, err := fixtures.CreateTestCustomer()
			require.NoError(t, err)

			// Fill the free quota, buy one slot, fill it, then shrink the
			// quota back down so the account is over quota
			for i := 0; i < utils.FreeTierQuota; i++ {
				_, err = flow.Create(ctx, customer.ID, urlCreateRequest("Menu"), testMetadata())
				require.NoError(t, err)
			}
			_, err = flow.PurchaseQuota(ctx, customer.ID, &dto.PurchaseQuotaRequest{Quantity: 2}, testMetadata())
			require.NoError(t, err)
			for i := 0; i < 2; i++ {
				_, err = flow.Create(ctx, customer.ID, urlCreateRequest("Promo"), testMetadata())
				require.NoError(t, err)
			}

			require.NoError(t, testDB.DB.Model(customer).Update("qr_quota", utils.FreeTierQuota).Error)

			listed, err := flow.List(ctx, customer.ID, 0, 0)
			require.NoError(t, err)
			require.Len(t, listed.Items, utils.FreeTierQuota+2)

			var lockedCount int
			for _, item := range listed.Items {
				if item.IsLocked {
					lockedCount++
				}
			}
			assert.Equal(t, 2, lockedCount)

			// Newest codes stay usable, the oldest carry the lock
			assert.False(t, listed.Items[0].IsLocked)
		})

		return nil
	})
	require.NoError(t, err)
}
