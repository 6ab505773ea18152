package database

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/CyberPidgi/rentiful/internal/apperr"
	"github.com/CyberPidgi/rentiful/internal/models"
)

// CreateProperty saves the location and the property in one transaction
func (db *DB) CreateProperty(ctx context.Context, p *models.Property) error {
	if !p.Location.Coordinates.Valid() {
		return apperr.Validation("coordinates", "longitude and latitude are required")
	}
	if p.PropertyType == "" {
		return apperr.Validation("propertyType", "is required")
	}
	if !p.PropertyType.Valid() {
		return apperr.Validation("propertyType", "unknown property type")
	}

	return transaction(db.gorm.WithContext(ctx), "create property", func(tx *gorm.DB) error {
		if err := tx.Create(&p.Location).Error; err != nil {
			return err
		}
		p.LocationID = p.Location.ID

		return tx.Omit(clause.Associations).Create(p).Error
	})
}

// GetPropertyByID retrieves a property and its location
func (db *DB) GetPropertyByID(ctx context.Context, id uint) (*models.Property, error) {
	var property models.Property
	err := db.gorm.WithContext(ctx).Preload("Location").First(&property, id).Error
	if err != nil {
		return nil, classify("get property", "property", err)
	}
	return &property, nil
}

// GetAllProperties retrieves every property with its location, for indexing
func (db *DB) GetAllProperties(ctx context.Context) ([]models.Property, error) {
	var properties []models.Property
	err := db.gorm.WithContext(ctx).Preload("Location").Order("id").Find(&properties).Error
	return properties, err
}

// ResidenceIDs returns the ids of the properties a tenant occupies
func (db *DB) ResidenceIDs(ctx context.Context, tenantCognitoID string) ([]uint, error) {
	var ids []uint
	err := db.gorm.WithContext(ctx).Model(&models.PropertyTenant{}).
		Where("tenant_cognito_id = ?", tenantCognitoID).
		Order("property_id").
		Pluck("property_id", &ids).Error
	return ids, err
}
