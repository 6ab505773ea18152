package database

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/CyberPidgi/rentiful/internal/apperr"
	"github.com/CyberPidgi/rentiful/internal/models"
)

// FavoriteIDs returns a tenant's favorite property ids in ascending order
func (db *DB) FavoriteIDs(ctx context.Context, tenantCognitoID string) ([]uint, error) {
	ids := []uint{}
	err := db.gorm.WithContext(ctx).Model(&models.TenantFavorite{}).
		Where("tenant_cognito_id = ?", tenantCognitoID).
		Order("property_id").
		Pluck("property_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("favorite ids: %w", err)
	}
	return ids, nil
}

// AddFavorite marks a property as a tenant favorite. Adding an existing
// favorite changes nothing and is not an error.
func (db *DB) AddFavorite(ctx context.Context, tenantCognitoID string, propertyID uint) (bool, error) {
	var count int64
	err := db.gorm.WithContext(ctx).Model(&models.Property{}).Where("id = ?", propertyID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check property: %w", err)
	}
	if count == 0 {
		return false, apperr.NotFound("property")
	}

	result := db.gorm.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.TenantFavorite{TenantCognitoID: tenantCognitoID, PropertyID: propertyID})
	if result.Error != nil {
		return false, classify("add favorite", "favorite", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// RemoveFavorite unmarks a favorite. Removing a favorite that was never
// added changes nothing and is not an error.
func (db *DB) RemoveFavorite(ctx context.Context, tenantCognitoID string, propertyID uint) (bool, error) {
	result := db.gorm.WithContext(ctx).
		Where("tenant_cognito_id = ? AND property_id = ?", tenantCognitoID, propertyID).
		Delete(&models.TenantFavorite{})
	if result.Error != nil {
		return false, classify("remove favorite", "favorite", result.Error)
	}
	return result.RowsAffected > 0, nil
}
