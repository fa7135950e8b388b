package tests

import (
	"testing"
	"time"

	"github.com/scanlytic/scanlytic/app/dto"
	"github.com/scanlytic/scanlytic/app/services"
	businessflow "github.com/scanlytic/scanlytic/business_flow"
	"github.com/scanlytic/scanlytic/repository"
	testingutil "github.com/scanlytic/scanlytic/testing"
	"github.com/scanlytic/scanlytic/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFlow(t *testing.T, testDB *testingutil.TestDB) businessflow.AuthFlow {
	tokenService, err := services.NewTokenService(
		time.Hour,
		24*time.Hour,
		"scanlytic-test",
		"scanlytic-test-clients",
		false,
		"",
		"",
		"test-secret-key-with-enough-entropy",
	)
	require.NoError(t, err)

	return businessflow.NewAuthFlow(
		repository.NewCustomerRepository(testDB.DB),
		repository.NewCustomerSessionRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		tokenService,
		testDB.DB,
	)
}

func TestAuthFlowSignupAndLogin(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newAuthFlow(t, testDB)
		ctx := testingutil.CreateTestContext()

		signupReq := &dto.SignupRequest{
			Email:    "Owner@Example.COM",
			Password: "SuperSecret9",
			Name:     "Cafe Owner",
		}

		t.Run("SignupIssuesTokensAndFreeQuota", func(t *testing.T) {
			resp, err := flow.Signup(ctx, signupReq, testMetadata())
			require.NoError(t, err)
			assert.NotEmpty(t, resp.AccessToken)
			assert.NotEmpty(t, resp.RefreshToken)
			// Email is stored lowercased
			assert.Equal(t, "owner@example.com", resp.Customer.Email)
			assert.Equal(t, utils.SubscriptionFree, resp.Customer.SubscriptionStatus)
			assert.Equal(t, utils.FreeTierQuota, resp.Customer.QRQuota)
			assert.Equal(t, 0, resp.Customer.QRUsed)
		})

		t.Run("DuplicateEmailRejected", func(t *testing.T) {
			_, err := flow.Signup(ctx, &dto.SignupRequest{
				Email:    "owner@example.com",
				Password: "AnotherSecret9",
			}, testMetadata())
			assert.ErrorIs(t, err, businessflow.ErrEmailAlreadyExists)
		})

		t.Run("LoginWithCorrectPassword", func(t *testing.T) {
			resp, err := flow.Login(ctx, &dto.LoginRequest{
				Email:    "owner@example.com",
				Password: "SuperSecret9",
			}, testMetadata())
			require.NoError(t, err)
			assert.NotEmpty(t, resp.AccessToken)
		})

		t.Run("LoginWithWrongPassword", func(t *testing.T) {
			_, err := flow.Login(ctx, &dto.LoginRequest{
				Email:    "owner@example.com",
				Password: "WrongSecret9",
			}, testMetadata())
			assert.ErrorIs(t, err, businessflow.ErrIncorrectPassword)
		})

		t.Run("LoginUnknownEmail", func(t *testing.T) {
			_, err := flow.Login(ctx, &dto.LoginRequest{
				Email:    "ghost@example.com",
				Password: "SuperSecret9",
			}, testMetadata())
			assert.ErrorIs(t, err, businessflow.ErrCustomerNotFound)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestAuthFlowRefreshToken(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newAuthFlow(t, testDB)
		ctx := testingutil.CreateTestContext()

		signup, err := flow.Signup(ctx, &dto.SignupRequest{
			Email:    "refresh@example.com",
			Password: "SuperSecret9",
		}, testMetadata())
		require.NoError(t, err)

		t.Run("RefreshIssuesNewPair", func(t *testing.T) {
			resp, err := flow.RefreshToken(ctx, &dto.RefreshTokenRequest{
				RefreshToken: signup.RefreshToken,
			}, testMetadata())
			require.NoError(t, err)
			assert.NotEmpty(t, resp.AccessToken)
			assert.NotEqual(t, signup.RefreshToken, resp.RefreshToken)
		})

		t.Run("RefreshTokenIsSingleUse", func(t *testing.T) {
			_, err := flow.RefreshToken(ctx, &dto.RefreshTokenRequest{
				RefreshToken: signup.RefreshToken,
			}, testMetadata())
			assert.ErrorIs(t, err, businessflow.ErrSessionExpired)
		})

		t.Run("UnknownRefreshToken", func(t *testing.T) {
			_, err := flow.RefreshToken(ctx, &dto.RefreshTokenRequest{
				RefreshToken: "not-a-real-token",
			}, testMetadata())
			assert.ErrorIs(t, err, businessflow.ErrSessionNotFound)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestAuthFlowGetProfile(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newAuthFlow(t, testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		customer, err := fixtures.CreateTestCustomer()
		require.NoError(t, err)

		t.Run("ProfileFound", func(t *testing.T) {
			profile, err := flow.GetProfile(ctx, customer.ID)
			require.NoError(t, err)
			assert.Equal(t, customer.Email, profile.Email)
			assert.Equal(t, utils.FreeTierQuota, profile.QRQuota)
		})

		t.Run("ProfileNotFound", func(t *testing.T) {
			_, err := flow.GetProfile(ctx, 999999)
			assert.ErrorIs(t, err, businessflow.ErrCustomerNotFound)
		})

		return nil
	})
	require.NoError(t, err)
}
