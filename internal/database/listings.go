package database

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/CyberPidgi/rentiful/internal/search"
)

// ListingRow is one row of the listing search projection. Coordinates is
// the location geometry as WKT.
type ListingRow struct {
	ID                uint           `db:"id" json:"id"`
	Name              string         `db:"name" json:"name"`
	Description       string         `db:"description" json:"description"`
	PricePerMonth     float64        `db:"price_per_month" json:"pricePerMonth"`
	SecurityDeposit   float64        `db:"security_deposit" json:"securityDeposit"`
	ApplicationFee    float64        `db:"application_fee" json:"applicationFee"`
	PhotoURLs         pq.StringArray `db:"photo_urls" json:"photoUrls"`
	Amenities         pq.StringArray `db:"amenities" json:"amenities"`
	Highlights        pq.StringArray `db:"highlights" json:"highlights"`
	IsPetsAllowed     bool           `db:"is_pets_allowed" json:"isPetsAllowed"`
	IsParkingIncluded bool           `db:"is_parking_included" json:"isParkingIncluded"`
	Beds              int            `db:"beds" json:"beds"`
	Baths             float64        `db:"baths" json:"baths"`
	SquareFeet        int            `db:"square_feet" json:"squareFeet"`
	PropertyType      string         `db:"property_type" json:"propertyType"`
	AverageRating     *float64       `db:"average_rating" json:"averageRating"`
	NumberOfReviews   int            `db:"number_of_reviews" json:"numberOfReviews"`
	PostedDate        time.Time      `db:"posted_date" json:"postedDate"`
	LocationID        uint           `db:"location_id" json:"locationId"`
	ManagerCognitoID  string         `db:"manager_cognito_id" json:"managerCognitoId"`

	Address     string `db:"address" json:"address"`
	City        string `db:"city" json:"city"`
	State       string `db:"state" json:"state"`
	Country     string `db:"country" json:"country"`
	PostalCode  string `db:"postal_code" json:"postalCode"`
	Coordinates string `db:"coordinates" json:"coordinates"`
}

// SearchListings executes a compiled listing query
func (db *DB) SearchListings(ctx context.Context, q search.Query) ([]ListingRow, error) {
	rows := []ListingRow{}
	if err := db.sqlx.SelectContext(ctx, &rows, q.SQL, q.Args...); err != nil {
		return nil, fmt.Errorf("search listings: %w", err)
	}
	return rows, nil
}

// ListingsByManager returns the listings a manager owns
func (db *DB) ListingsByManager(ctx context.Context, managerCognitoID string) ([]ListingRow, error) {
	q, err := search.Compile([]search.Predicate{
		{Field: search.FieldManager, Op: search.OpEq, Value: managerCognitoID},
	})
	if err != nil {
		return nil, err
	}
	return db.SearchListings(ctx, q)
}

// ListingsByIDs returns the listings with the given ids, ordered by id
func (db *DB) ListingsByIDs(ctx context.Context, ids []uint) ([]ListingRow, error) {
	if len(ids) == 0 {
		return []ListingRow{}, nil
	}
	q, err := search.Compile(search.IDPredicates(ids))
	if err != nil {
		return nil, err
	}
	return db.SearchListings(ctx, q)
}

// TenantResidences returns the listings a tenant currently occupies
func (db *DB) TenantResidences(ctx context.Context, tenantCognitoID string) ([]ListingRow, error) {
	if _, err := db.GetTenant(ctx, tenantCognitoID); err != nil {
		return nil, err
	}
	ids, err := db.ResidenceIDs(ctx, tenantCognitoID)
	if err != nil {
		return nil, fmt.Errorf("residence ids: %w", err)
	}
	return db.ListingsByIDs(ctx, ids)
}
