package database

import (
	"context"
	"fmt"
	"time"

	"github.com/CyberPidgi/rentiful/internal/apperr"
	"github.com/CyberPidgi/rentiful/internal/models"
)

// ListLeases returns a tenant's leases, or the leases on a manager's
// properties
func (db *DB) ListLeases(ctx context.Context, userID, userType string) ([]models.Lease, error) {
	q := db.gorm.WithContext(ctx).Order("leases.id")

	switch userType {
	case models.RoleTenant:
		q = q.Where("leases.tenant_cognito_id = ?", userID)
	case models.RoleManager:
		q = q.Joins("JOIN properties ON properties.id = leases.property_id").
			Where("properties.manager_cognito_id = ?", userID)
	default:
		return nil, apperr.Validation("userType", "must be tenant or manager")
	}

	leases := []models.Lease{}
	if err := q.Find(&leases).Error; err != nil {
		return nil, classify("list leases", "lease", err)
	}
	return leases, nil
}

// LeasePayments returns the payments of a lease by due date
func (db *DB) LeasePayments(ctx context.Context, leaseID uint) ([]models.Payment, error) {
	var count int64
	if err := db.gorm.WithContext(ctx).Model(&models.Lease{}).Where("id = ?", leaseID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check lease: %w", err)
	}
	if count == 0 {
		return nil, apperr.NotFound("lease")
	}

	payments := []models.Payment{}
	err := db.gorm.WithContext(ctx).Where("lease_id = ?", leaseID).Order("due_date").Find(&payments).Error
	if err != nil {
		return nil, classify("lease payments", "payment", err)
	}
	return payments, nil
}

// MarkOverduePayments flags every unsettled payment due before now
func (db *DB) MarkOverduePayments(ctx context.Context, now time.Time) (int64, error) {
	result := db.gorm.WithContext(ctx).Model(&models.Payment{}).
		Where("payment_status IN ? AND due_date < ? AND amount_paid < amount_due",
			[]models.PaymentStatus{models.PaymentStatusPending, models.PaymentStatusPartiallyPaid}, now).
		Update("payment_status", models.PaymentStatusOverdue)
	if result.Error != nil {
		return 0, fmt.Errorf("mark overdue payments: %w", result.Error)
	}
	return result.RowsAffected, nil
}
