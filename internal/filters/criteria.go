// Package filters holds the client-side search intent: the canonical
// filter criteria, the store that owns them, and their URL representation.
package filters

import (
	"time"

	"github.com/CyberPidgi/rentiful/internal/models"
)

// Any is the explicit "no constraint" token used in URLs and selects
const Any = "any"

// AnyPropertyType leaves the property type unconstrained
const AnyPropertyType models.PropertyType = Any

// Range is an optional numeric interval. min <= max is not enforced.
type Range struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// IsZero reports whether neither bound is set
func (r Range) IsZero() bool {
	return r.Min == nil && r.Max == nil
}

// Coordinates is the map center used by the radius filter
type Coordinates struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Criteria is the current search intent.
// Nil pointers, empty strings, the Any sentinel and empty sets mean
// "no constraint" for their dimension.
type Criteria struct {
	Location      string              `json:"location"`
	PriceRange    Range               `json:"priceRange"`
	SquareFeet    Range               `json:"squareFeet"`
	Beds          *float64            `json:"beds,omitempty"`
	Baths         *float64            `json:"baths,omitempty"`
	PropertyType  models.PropertyType `json:"propertyType"`
	Amenities     []models.Amenity    `json:"amenities,omitempty"`
	AvailableFrom *time.Time          `json:"availableFrom,omitempty"`
	Coordinates   *Coordinates        `json:"coordinates,omitempty"`
	FavoriteIDs   []uint              `json:"favoriteIds,omitempty"`
}

// Default is the state at application start
func Default() Criteria {
	return Criteria{
		Location:     "Los Angeles",
		PropertyType: AnyPropertyType,
		Coordinates:  &Coordinates{Longitude: -118.25, Latitude: 34.05},
	}
}

// HasPropertyType reports whether a concrete property type is selected
func (c Criteria) HasPropertyType() bool {
	return c.PropertyType != "" && c.PropertyType != AnyPropertyType
}

// Clone returns a deep copy
func (c Criteria) Clone() Criteria {
	out := c
	out.PriceRange = cloneRange(c.PriceRange)
	out.SquareFeet = cloneRange(c.SquareFeet)
	out.Beds = cloneFloat(c.Beds)
	out.Baths = cloneFloat(c.Baths)
	if c.Amenities != nil {
		out.Amenities = append([]models.Amenity(nil), c.Amenities...)
	}
	if c.AvailableFrom != nil {
		t := *c.AvailableFrom
		out.AvailableFrom = &t
	}
	if c.Coordinates != nil {
		coords := *c.Coordinates
		out.Coordinates = &coords
	}
	if c.FavoriteIDs != nil {
		out.FavoriteIDs = append([]uint(nil), c.FavoriteIDs...)
	}
	return out
}

func cloneRange(r Range) Range {
	return Range{Min: cloneFloat(r.Min), Max: cloneFloat(r.Max)}
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	return &f
}

// Float returns a pointer to v, for building criteria literals
func Float(v float64) *float64 {
	return &v
}

// Date returns a pointer to the UTC calendar date of y-m-d
func Date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}
