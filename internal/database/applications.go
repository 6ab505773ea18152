package database

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/CyberPidgi/rentiful/internal/apperr"
	"github.com/CyberPidgi/rentiful/internal/models"
)

// ListApplications returns the applications visible to a tenant (their own)
// or a manager (those for their properties)
func (db *DB) ListApplications(ctx context.Context, userID, userType string) ([]models.Application, error) {
	q := db.gorm.WithContext(ctx).
		Preload("Property.Location").
		Preload("Lease").
		Order("applications.id")

	switch userType {
	case models.RoleTenant:
		q = q.Where("applications.tenant_cognito_id = ?", userID)
	case models.RoleManager:
		q = q.Joins("JOIN properties ON properties.id = applications.property_id").
			Where("properties.manager_cognito_id = ?", userID)
	default:
		return nil, apperr.Validation("userType", "must be tenant or manager")
	}

	applications := []models.Application{}
	if err := q.Find(&applications).Error; err != nil {
		return nil, classify("list applications", "application", err)
	}
	return applications, nil
}

// CreateApplication stores a new Pending application. No lease exists
// until a manager approves it.
func (db *DB) CreateApplication(ctx context.Context, app *models.Application, now time.Time) error {
	if _, err := db.GetPropertyByID(ctx, app.PropertyID); err != nil {
		return err
	}

	app.ID = 0
	app.Status = models.ApplicationStatusPending
	app.LeaseID = nil
	app.Lease = nil
	app.Property = nil
	if app.ApplicationDate.IsZero() {
		app.ApplicationDate = now
	}

	return classify("create application", "application", db.gorm.WithContext(ctx).Create(app).Error)
}

// ApproveApplication creates the lease, associates the tenant with the
// property and marks the application Approved, all or nothing. An empty
// managerCognitoID skips the ownership check.
func (db *DB) ApproveApplication(ctx context.Context, id uint, managerCognitoID string, now time.Time) (*models.Application, error) {
	var app models.Application

	err := transaction(db.gorm.WithContext(ctx), "approve application", func(tx *gorm.DB) error {
		property, err := lockPending(tx, &app, id, managerCognitoID)
		if err != nil {
			return err
		}

		lease := models.NewLeaseFor(property, app.TenantCognitoID, now)
		if err := tx.Create(lease).Error; err != nil {
			return err
		}

		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.PropertyTenant{
			PropertyID:      property.ID,
			TenantCognitoID: app.TenantCognitoID,
		}).Error; err != nil {
			return err
		}

		if err := tx.Model(&app).Updates(map[string]interface{}{
			"status":   models.ApplicationStatusApproved,
			"lease_id": lease.ID,
		}).Error; err != nil {
			return err
		}

		app.Status = models.ApplicationStatusApproved
		app.LeaseID = &lease.ID
		app.Lease = lease
		app.Property = property
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// RejectApplication marks a Pending application Rejected
func (db *DB) RejectApplication(ctx context.Context, id uint, managerCognitoID string) (*models.Application, error) {
	var app models.Application

	err := transaction(db.gorm.WithContext(ctx), "reject application", func(tx *gorm.DB) error {
		if _, err := lockPending(tx, &app, id, managerCognitoID); err != nil {
			return err
		}
		if err := tx.Model(&app).Update("status", models.ApplicationStatusRejected).Error; err != nil {
			return err
		}
		app.Status = models.ApplicationStatusRejected
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// UpdateApplicationStatus applies a manager decision
func (db *DB) UpdateApplicationStatus(ctx context.Context, id uint, status models.ApplicationStatus, managerCognitoID string) (*models.Application, error) {
	switch status {
	case models.ApplicationStatusApproved:
		return db.ApproveApplication(ctx, id, managerCognitoID, time.Now().UTC())
	case models.ApplicationStatusRejected:
		return db.RejectApplication(ctx, id, managerCognitoID)
	default:
		return nil, apperr.Validation("status", "must be Approved or Rejected")
	}
}

// lockPending loads the application FOR UPDATE and its property, and
// checks that the decision is still open
func lockPending(tx *gorm.DB, app *models.Application, id uint, managerCognitoID string) (*models.Property, error) {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(app, id).Error
	if err != nil {
		return nil, classify("lock application", "application", err)
	}
	if !app.IsPending() {
		return nil, apperr.Conflict("application is already " + string(app.Status))
	}

	var property models.Property
	if err := tx.First(&property, app.PropertyID).Error; err != nil {
		return nil, classify("load property", "property", err)
	}
	if managerCognitoID != "" && property.ManagerCognitoID != managerCognitoID {
		return nil, apperr.Forbidden("property belongs to another manager")
	}
	return &property, nil
}
