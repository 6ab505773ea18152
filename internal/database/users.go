package database

import (
	"context"

	"gorm.io/gorm"

	"github.com/CyberPidgi/rentiful/internal/apperr"
	"github.com/CyberPidgi/rentiful/internal/models"
)

// ContactUpdate holds the editable fields of a manager or tenant
type ContactUpdate struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

func (u ContactUpdate) columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if u.Name != "" {
		cols["name"] = u.Name
	}
	if u.Email != "" {
		cols["email"] = u.Email
	}
	if u.PhoneNumber != "" {
		cols["phone_number"] = u.PhoneNumber
	}
	return cols
}

// GetManager retrieves a manager by cognito id
func (db *DB) GetManager(ctx context.Context, cognitoID string) (*models.Manager, error) {
	var m models.Manager
	err := db.gorm.WithContext(ctx).Where("cognito_id = ?", cognitoID).First(&m).Error
	if err != nil {
		return nil, classify("get manager", "manager", err)
	}
	return &m, nil
}

// CreateManager inserts m. A duplicate cognito id is a conflict.
func (db *DB) CreateManager(ctx context.Context, m *models.Manager) error {
	return classify("create manager", "manager", db.gorm.WithContext(ctx).Create(m).Error)
}

// UpdateManager applies the non-empty fields of u
func (db *DB) UpdateManager(ctx context.Context, cognitoID string, u ContactUpdate) (*models.Manager, error) {
	m, err := db.GetManager(ctx, cognitoID)
	if err != nil {
		return nil, err
	}
	if err := updateContact(ctx, db.gorm, m, u); err != nil {
		return nil, classify("update manager", "manager", err)
	}
	return m, nil
}

// GetTenant retrieves a tenant with their favorite ids
func (db *DB) GetTenant(ctx context.Context, cognitoID string) (*models.Tenant, error) {
	var t models.Tenant
	err := db.gorm.WithContext(ctx).Where("cognito_id = ?", cognitoID).First(&t).Error
	if err != nil {
		return nil, classify("get tenant", "tenant", err)
	}

	if t.FavoriteIDs, err = db.FavoriteIDs(ctx, cognitoID); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTenant inserts t. A duplicate cognito id is a conflict.
func (db *DB) CreateTenant(ctx context.Context, t *models.Tenant) error {
	if err := db.gorm.WithContext(ctx).Create(t).Error; err != nil {
		return classify("create tenant", "tenant", err)
	}
	t.FavoriteIDs = []uint{}
	return nil
}

// UpdateTenant applies the non-empty fields of u
func (db *DB) UpdateTenant(ctx context.Context, cognitoID string, u ContactUpdate) (*models.Tenant, error) {
	t, err := db.GetTenant(ctx, cognitoID)
	if err != nil {
		return nil, err
	}
	if err := updateContact(ctx, db.gorm, t, u); err != nil {
		return nil, classify("update tenant", "tenant", err)
	}
	return t, nil
}

func updateContact(ctx context.Context, db *gorm.DB, model interface{}, u ContactUpdate) error {
	cols := u.columns()
	if len(cols) == 0 {
		return apperr.Validation("name", "nothing to update")
	}
	return db.WithContext(ctx).Model(model).Updates(cols).Error
}
