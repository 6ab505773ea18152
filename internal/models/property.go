package models

import (
	"time"

	"github.com/lib/pq"
)

// Property is a rentable listing
type Property struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`

	// Pricing
	PricePerMonth   float64 `gorm:"type:double precision;not null;index" json:"pricePerMonth"`
	SecurityDeposit float64 `gorm:"type:double precision;not null" json:"securityDeposit"`
	ApplicationFee  float64 `gorm:"type:double precision;not null" json:"applicationFee"`

	// Filterable attributes
	PhotoURLs         pq.StringArray `gorm:"type:text[]" json:"photoUrls"`
	Amenities         pq.StringArray `gorm:"type:text[]" json:"amenities"`
	Highlights        pq.StringArray `gorm:"type:text[]" json:"highlights"`
	IsPetsAllowed     bool           `gorm:"not null;default:false" json:"isPetsAllowed"`
	IsParkingIncluded bool           `gorm:"not null;default:false" json:"isParkingIncluded"`
	Beds              int            `gorm:"not null;index" json:"beds"`
	Baths             float64        `gorm:"type:double precision;not null;index" json:"baths"`
	SquareFeet        int            `gorm:"not null" json:"squareFeet"`
	PropertyType      PropertyType   `gorm:"type:varchar(20);not null;index" json:"propertyType"`

	// Stored review aggregates
	AverageRating   *float64 `gorm:"type:double precision" json:"averageRating"`
	NumberOfReviews int      `gorm:"not null;default:0" json:"numberOfReviews"`

	PostedDate time.Time `gorm:"not null;autoCreateTime" json:"postedDate"`

	LocationID       uint     `gorm:"not null;uniqueIndex" json:"locationId"`
	Location         Location `gorm:"foreignKey:LocationID;constraint:OnDelete:RESTRICT" json:"location"`
	ManagerCognitoID string   `gorm:"type:varchar(64);not null;index" json:"managerCognitoId"`
}

// TableName specifies the table name
func (Property) TableName() string {
	return "properties"
}

// PropertyTenant associates a tenant with a listing they occupy
type PropertyTenant struct {
	PropertyID      uint      `gorm:"primaryKey" json:"propertyId"`
	TenantCognitoID string    `gorm:"type:varchar(64);primaryKey" json:"tenantCognitoId"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (PropertyTenant) TableName() string {
	return "property_tenants"
}
