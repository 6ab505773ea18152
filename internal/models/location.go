package models

import "github.com/CyberPidgi/rentiful/internal/geo"

// Location is the address and position of exactly one property.
// Coordinates live only in the geometry column.
type Location struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Address     string    `gorm:"type:text;not null" json:"address"`
	City        string    `gorm:"type:varchar(100);not null;index" json:"city"`
	State       string    `gorm:"type:varchar(100);not null" json:"state"`
	Country     string    `gorm:"type:varchar(100);not null" json:"country"`
	PostalCode  string    `gorm:"type:varchar(20);not null" json:"postalCode"`
	Coordinates geo.Point `gorm:"type:geometry(Point,4326);not null;index:idx_locations_coordinates,type:gist" json:"coordinates"`
}

// TableName specifies the table name
func (Location) TableName() string {
	return "locations"
}
