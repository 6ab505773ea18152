package models

import "time"

// Manager owns and lists properties. CognitoID is the subject claim of the
// externally issued identity token.
type Manager struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CognitoID   string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"cognitoId"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Email       string    `gorm:"type:varchar(255);not null" json:"email"`
	PhoneNumber string    `gorm:"type:varchar(50);not null" json:"phoneNumber"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName specifies the table name
func (Manager) TableName() string {
	return "managers"
}

// Tenant rents properties and keeps favorites
type Tenant struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CognitoID   string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"cognitoId"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Email       string    `gorm:"type:varchar(255);not null" json:"email"`
	PhoneNumber string    `gorm:"type:varchar(50);not null" json:"phoneNumber"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	// Filled from tenant_favorites, not a column
	FavoriteIDs []uint `gorm:"-" json:"favoriteIds"`
}

// TableName specifies the table name
func (Tenant) TableName() string {
	return "tenants"
}

// TenantFavorite marks a listing as a tenant's favorite. Existence is the
// whole signal.
type TenantFavorite struct {
	TenantCognitoID string    `gorm:"type:varchar(64);primaryKey" json:"tenantCognitoId"`
	PropertyID      uint      `gorm:"primaryKey;index" json:"propertyId"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (TenantFavorite) TableName() string {
	return "tenant_favorites"
}
