package businessflow

import (
	"testing"
	"time"

	"github.com/scanlytic/scanlytic/models"
	"github.com/scanlytic/scanlytic/utils"
	"github.com/stretchr/testify/assert"
)

func freeTierCustomer(quota int) *models.Customer {
	return &models.Customer{
		ID:                 1,
		SubscriptionStatus: utils.SubscriptionFree,
		QRQuota:            quota,
		IsActive:           utils.ToPtr(true),
	}
}

func codeCreatedAt(id uint, createdAt time.Time) *models.QRCode {
	return &models.QRCode{ID: id, CustomerID: 1, CreatedAt: createdAt}
}

func TestComputeLockedIDs(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("WithinQuotaNothingLocked", func(t *testing.T) {
		codes := []*models.QRCode{
			codeCreatedAt(1, base),
			codeCreatedAt(2, base.Add(time.Hour)),
		}
		locked := ComputeLockedIDs(freeTierCustomer(5), codes)
		assert.Empty(t, locked)
	})

	t.Run("OldestCodesBeyondQuotaAreLocked", func(t *testing.T) {
		var codes []*models.QRCode
		for i := uint(1); i <= 7; i++ {
			codes = append(codes, codeCreatedAt(i, base.Add(time.Duration(i)*time.Hour)))
		}
		locked := ComputeLockedIDs(freeTierCustomer(5), codes)

		// Seven codes against a quota of five: the two oldest are locked,
		// the five newest stay usable.
		assert.Len(t, locked, 2)
		assert.True(t, locked[1])
		assert.True(t, locked[2])
		assert.False(t, locked[7])
	})

	t.Run("CreatedAtTiesBreakOnHigherID", func(t *testing.T) {
		codes := []*models.QRCode{
			codeCreatedAt(1, base),
			codeCreatedAt(2, base),
			codeCreatedAt(3, base),
		}
		locked := ComputeLockedIDs(freeTierCustomer(2), codes)
		assert.Len(t, locked, 1)
		assert.True(t, locked[1])
	})

	t.Run("PaidTierNeverLocked", func(t *testing.T) {
		customer := freeTierCustomer(1)
		customer.SubscriptionStatus = utils.SubscriptionMonthly
		var codes []*models.QRCode
		for i := uint(1); i <= 10; i++ {
			codes = append(codes, codeCreatedAt(i, base.Add(time.Duration(i)*time.Hour)))
		}
		locked := ComputeLockedIDs(customer, codes)
		assert.Empty(t, locked)
	})

	t.Run("NilCustomer", func(t *testing.T) {
		locked := ComputeLockedIDs(nil, []*models.QRCode{codeCreatedAt(1, base)})
		assert.Empty(t, locked)
	})
}
