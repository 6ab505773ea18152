package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewLeaseForCopiesPricing(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	property := &Property{ID: 9, PricePerMonth: 1200, SecurityDeposit: 2400}

	lease := NewLeaseFor(property, "tenant-1", now)

	assert.Equal(t, 1200.0, lease.Rent)
	assert.Equal(t, 2400.0, lease.Deposit)
	assert.Equal(t, uint(9), lease.PropertyID)
	assert.Equal(t, "tenant-1", lease.TenantCognitoID)
	assert.Equal(t, now.AddDate(1, 0, 0), lease.EndDate)

	// later price changes do not reach the lease
	property.PricePerMonth = 1500
	assert.Equal(t, 1200.0, lease.Rent)
}

func TestNextPaymentDate(t *testing.T) {
	start := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	lease := &Lease{StartDate: start}

	cases := []struct {
		now  time.Time
		want time.Time
	}{
		{time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), start},
		{start, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, lease.NextPaymentDate(tc.now), tc.now.String())
	}
}

func TestPaymentIsOverdue(t *testing.T) {
	now := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	due := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, (&Payment{AmountDue: 1000, DueDate: due, PaymentStatus: PaymentStatusPending}).IsOverdue(now))
	assert.True(t, (&Payment{AmountDue: 1000, AmountPaid: 400, DueDate: due, PaymentStatus: PaymentStatusPartiallyPaid}).IsOverdue(now))
	assert.False(t, (&Payment{AmountDue: 1000, AmountPaid: 1000, DueDate: due, PaymentStatus: PaymentStatusPaid}).IsOverdue(now))
	assert.False(t, (&Payment{AmountDue: 1000, DueDate: now.AddDate(0, 0, 1)}).IsOverdue(now))
}

func TestEnumValidation(t *testing.T) {
	assert.True(t, PropertyTypeApartment.Valid())
	assert.False(t, PropertyType("Castle").Valid())
	assert.True(t, AmenityPool.Valid())
	assert.False(t, Amenity("Helipad").Valid())

	assert.False(t, ApplicationStatusPending.IsTerminal())
	assert.True(t, ApplicationStatusApproved.IsTerminal())
	assert.True(t, ApplicationStatusRejected.IsTerminal())
}
