package models

import "time"

// Lease is an approved occupancy. Rent and Deposit are copied from the
// property at approval time.
type Lease struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	StartDate       time.Time `gorm:"type:timestamptz;not null;index" json:"startDate"`
	EndDate         time.Time `gorm:"type:timestamptz;not null" json:"endDate"`
	Rent            float64   `gorm:"type:double precision;not null" json:"rent"`
	Deposit         float64   `gorm:"type:double precision;not null" json:"deposit"`
	PropertyID      uint      `gorm:"not null;index" json:"propertyId"`
	TenantCognitoID string    `gorm:"type:varchar(64);not null;index" json:"tenantCognitoId"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"createdAt"`

	Payments []Payment `gorm:"foreignKey:LeaseID" json:"payments,omitempty"`
}

// TableName specifies the table name
func (Lease) TableName() string {
	return "leases"
}

// LeaseTerm is the default duration of a new lease
const LeaseTerm = 1 // years

// NewLeaseFor builds the lease created when an application is approved
func NewLeaseFor(property *Property, tenantCognitoID string, now time.Time) *Lease {
	return &Lease{
		StartDate:       now,
		EndDate:         now.AddDate(LeaseTerm, 0, 0),
		Rent:            property.PricePerMonth,
		Deposit:         property.SecurityDeposit,
		PropertyID:      property.ID,
		TenantCognitoID: tenantCognitoID,
	}
}

// NextPaymentDate returns the first due date strictly after now. Payments
// fall due on the start date and every monthly anniversary of it.
func (l *Lease) NextPaymentDate(now time.Time) time.Time {
	next := l.StartDate
	for months := 1; !next.After(now); months++ {
		next = l.StartDate.AddDate(0, months, 0)
	}
	return next
}

// Payment is one monthly installment of a lease
type Payment struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	AmountDue     float64       `gorm:"type:double precision;not null" json:"amountDue"`
	AmountPaid    float64       `gorm:"type:double precision;not null;default:0" json:"amountPaid"`
	DueDate       time.Time     `gorm:"type:timestamptz;not null;index" json:"dueDate"`
	PaymentDate   *time.Time    `gorm:"type:timestamptz" json:"paymentDate,omitempty"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null;default:'Pending';index" json:"paymentStatus"`
	LeaseID       uint          `gorm:"not null;index" json:"leaseId"`
}

// TableName specifies the table name
func (Payment) TableName() string {
	return "payments"
}

// IsOverdue reports whether the payment is unsettled past its due date
func (p *Payment) IsOverdue(now time.Time) bool {
	if p.PaymentStatus == PaymentStatusPaid {
		return false
	}
	return now.After(p.DueDate) && p.AmountPaid < p.AmountDue
}
