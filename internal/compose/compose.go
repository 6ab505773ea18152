// Package compose turns raw listing rows into the listing shape clients
// render.
package compose

import (
	"fmt"
	"strconv"
	"time"

	"github.com/CyberPidgi/rentiful/internal/database"
	"github.com/CyberPidgi/rentiful/internal/geo"
	"github.com/CyberPidgi/rentiful/internal/models"
)

// NoRating is displayed for listings without reviews
const NoRating = "N/A"

type Coordinates = geo.Coordinates

type Location struct {
	ID          uint        `json:"id"`
	Address     string      `json:"address"`
	City        string      `json:"city"`
	State       string      `json:"state"`
	Country     string      `json:"country"`
	PostalCode  string      `json:"postalCode"`
	Coordinates Coordinates `json:"coordinates"`
}

// Rating carries the stored review aggregates. Display is the formatted
// average, or NoRating.
type Rating struct {
	Average *float64 `json:"average"`
	Count   int      `json:"count"`
	Display string   `json:"display"`
}

// Listing is the composed search result
type Listing struct {
	ID                uint      `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	PricePerMonth     float64   `json:"pricePerMonth"`
	SecurityDeposit   float64   `json:"securityDeposit"`
	ApplicationFee    float64   `json:"applicationFee"`
	PhotoURLs         []string  `json:"photoUrls"`
	Amenities         []string  `json:"amenities"`
	Highlights        []string  `json:"highlights"`
	IsPetsAllowed     bool      `json:"isPetsAllowed"`
	IsParkingIncluded bool      `json:"isParkingIncluded"`
	Beds              int       `json:"beds"`
	Baths             float64   `json:"baths"`
	SquareFeet        int       `json:"squareFeet"`
	PropertyType      string    `json:"propertyType"`
	PostedDate        time.Time `json:"postedDate"`
	ManagerCognitoID  string    `json:"managerCognitoId"`
	AverageRating     *float64  `json:"averageRating"`
	NumberOfReviews   int       `json:"numberOfReviews"`
	Rating            Rating    `json:"rating"`
	Location          Location  `json:"location"`

	// nil for anonymous callers
	IsFavorite *bool `json:"isFavorite,omitempty"`
}

// FavoriteSet holds a tenant's favorite ids. A nil set means the caller
// has no favorites concept (anonymous or manager).
type FavoriteSet map[uint]struct{}

func NewFavoriteSet(ids []uint) FavoriteSet {
	set := make(FavoriteSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (s FavoriteSet) Has(id uint) bool {
	_, ok := s[id]
	return ok
}

// Compose builds listings from rows without modifying them. A row whose
// geometry cannot be decoded fails the whole composition.
func Compose(rows []database.ListingRow, favorites FavoriteSet) ([]Listing, error) {
	out := make([]Listing, 0, len(rows))
	for i := range rows {
		l, err := ComposeRow(rows[i], favorites)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func ComposeRow(row database.ListingRow, favorites FavoriteSet) (Listing, error) {
	p, err := geo.DecodeWKT(row.Coordinates)
	if err != nil {
		return Listing{}, fmt.Errorf("listing %d: %w", row.ID, err)
	}

	l := Listing{
		ID:                row.ID,
		Name:              row.Name,
		Description:       row.Description,
		PricePerMonth:     row.PricePerMonth,
		SecurityDeposit:   row.SecurityDeposit,
		ApplicationFee:    row.ApplicationFee,
		PhotoURLs:         copyStrings(row.PhotoURLs),
		Amenities:         copyStrings(row.Amenities),
		Highlights:        copyStrings(row.Highlights),
		IsPetsAllowed:     row.IsPetsAllowed,
		IsParkingIncluded: row.IsParkingIncluded,
		Beds:              row.Beds,
		Baths:             row.Baths,
		SquareFeet:        row.SquareFeet,
		PropertyType:      row.PropertyType,
		PostedDate:        row.PostedDate,
		ManagerCognitoID:  row.ManagerCognitoID,
		AverageRating:     copyFloat(row.AverageRating),
		NumberOfReviews:   row.NumberOfReviews,
		Rating:            NewRating(row.AverageRating, row.NumberOfReviews),
		Location: Location{
			ID:          row.LocationID,
			Address:     row.Address,
			City:        row.City,
			State:       row.State,
			Country:     row.Country,
			PostalCode:  row.PostalCode,
			Coordinates: p.Coordinates(),
		},
	}
	l.IsFavorite = favoriteFlag(favorites, row.ID)
	return l, nil
}

// FromProperty composes a listing from an entity loaded through gorm,
// whose geometry was decoded on scan
func FromProperty(p *models.Property, favorites FavoriteSet) Listing {
	return Listing{
		ID:                p.ID,
		Name:              p.Name,
		Description:       p.Description,
		PricePerMonth:     p.PricePerMonth,
		SecurityDeposit:   p.SecurityDeposit,
		ApplicationFee:    p.ApplicationFee,
		PhotoURLs:         copyStrings(p.PhotoURLs),
		Amenities:         copyStrings(p.Amenities),
		Highlights:        copyStrings(p.Highlights),
		IsPetsAllowed:     p.IsPetsAllowed,
		IsParkingIncluded: p.IsParkingIncluded,
		Beds:              p.Beds,
		Baths:             p.Baths,
		SquareFeet:        p.SquareFeet,
		PropertyType:      string(p.PropertyType),
		PostedDate:        p.PostedDate,
		ManagerCognitoID:  p.ManagerCognitoID,
		AverageRating:     copyFloat(p.AverageRating),
		NumberOfReviews:   p.NumberOfReviews,
		Rating:            NewRating(p.AverageRating, p.NumberOfReviews),
		Location: Location{
			ID:          p.Location.ID,
			Address:     p.Location.Address,
			City:        p.Location.City,
			State:       p.Location.State,
			Country:     p.Location.Country,
			PostalCode:  p.Location.PostalCode,
			Coordinates: p.Location.Coordinates.Coordinates(),
		},
		IsFavorite: favoriteFlag(favorites, p.ID),
	}
}

// NewRating formats stored aggregates. Nothing is recomputed here.
func NewRating(average *float64, count int) Rating {
	r := Rating{Average: copyFloat(average), Count: count, Display: NoRating}
	if average != nil && count > 0 {
		r.Display = strconv.FormatFloat(*average, 'f', 1, 64)
	}
	return r
}

func favoriteFlag(favorites FavoriteSet, id uint) *bool {
	if favorites == nil {
		return nil
	}
	fav := favorites.Has(id)
	return &fav
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	return &f
}
