package models

import "time"

// Application is a tenant's request to occupy a property. Approved and
// Rejected are terminal; approval always carries a lease.
type Application struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	ApplicationDate time.Time         `gorm:"type:timestamptz;not null" json:"applicationDate"`
	Status          ApplicationStatus `gorm:"type:varchar(20);not null;default:'Pending';index" json:"status"`
	PropertyID      uint              `gorm:"not null;index" json:"propertyId"`
	TenantCognitoID string            `gorm:"type:varchar(64);not null;index" json:"tenantCognitoId"`
	Name            string            `gorm:"type:varchar(255);not null" json:"name"`
	Email           string            `gorm:"type:varchar(255);not null" json:"email"`
	PhoneNumber     string            `gorm:"type:varchar(50);not null" json:"phoneNumber"`
	Message         string            `gorm:"type:text" json:"message,omitempty"`
	LeaseID         *uint             `gorm:"uniqueIndex" json:"leaseId"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updatedAt"`

	Property *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	Lease    *Lease    `gorm:"foreignKey:LeaseID" json:"lease,omitempty"`
}

// TableName specifies the table name
func (Application) TableName() string {
	return "applications"
}

// IsPending reports whether the application can still transition
func (a *Application) IsPending() bool {
	return a.Status == ApplicationStatusPending
}
