// Package search turns listing filter parameters into predicate descriptors
// and compiles them for PostGIS and for the Meilisearch keyword index.
package search

import (
	"net/url"
	"time"

	"github.com/CyberPidgi/rentiful/internal/filters"
	"github.com/CyberPidgi/rentiful/internal/geo"
	"github.com/CyberPidgi/rentiful/internal/models"
)

// Params are the server-side filter parameters. Every field is optional;
// nil or empty means the dimension is unconstrained.
type Params struct {
	PriceMin      *float64
	PriceMax      *float64
	SquareFeetMin *float64
	SquareFeetMax *float64
	Beds          *float64
	Baths         *float64
	PropertyType  *models.PropertyType
	Amenities     []models.Amenity
	AvailableFrom *time.Time
	Center        *geo.Point
	RadiusKm      float64
	FavoriteIDs   []uint
}

// ParseParams validates query parameters and converts them to Params
func ParseParams(values url.Values) (Params, error) {
	c, err := filters.Decode(values)
	if err != nil {
		return Params{}, err
	}
	return FromCriteria(c), nil
}

// FromCriteria converts client criteria to Params. The location text is
// not a filter; clients resolve it to coordinates.
func FromCriteria(c filters.Criteria) Params {
	p := Params{
		PriceMin:      c.PriceRange.Min,
		PriceMax:      c.PriceRange.Max,
		SquareFeetMin: c.SquareFeet.Min,
		SquareFeetMax: c.SquareFeet.Max,
		Beds:          c.Beds,
		Baths:         c.Baths,
		Amenities:     c.Amenities,
		AvailableFrom: c.AvailableFrom,
		RadiusKm:      geo.DefaultSearchRadiusKm,
		FavoriteIDs:   c.FavoriteIDs,
	}
	if c.HasPropertyType() {
		pt := c.PropertyType
		p.PropertyType = &pt
	}
	if c.Coordinates != nil {
		p.Center = &geo.Point{Longitude: c.Coordinates.Longitude, Latitude: c.Coordinates.Latitude}
	}
	return p
}

// Field names a filterable listing attribute
type Field string

const (
	FieldID           Field = "id"
	FieldPrice        Field = "pricePerMonth"
	FieldSquareFeet   Field = "squareFeet"
	FieldBeds         Field = "beds"
	FieldBaths        Field = "baths"
	FieldPropertyType Field = "propertyType"
	FieldAmenities    Field = "amenities"
	FieldLeaseStart   Field = "leaseStartDate"
	FieldCoordinates  Field = "coordinates"
	FieldManager      Field = "managerCognitoId"
)

// Op is a comparison applied to a field
type Op string

const (
	OpGTE Op = ">="
	OpLTE Op = "<="
	OpEq  Op = "="
	// OpContains holds when the field contains every value
	OpContains Op = "@>"
	OpIn       Op = "IN"
	// OpExistsOnOrBefore holds when some related row has field <= value
	OpExistsOnOrBefore Op = "EXISTS<="
	OpWithinRadius     Op = "WITHIN"
)

// Radius is the value of an OpWithinRadius predicate
type Radius struct {
	Center geo.Point
	Km     float64
}

// Predicate is one typed filter condition. Values are never rendered into
// SQL text; compilers bind them.
type Predicate struct {
	Field Field
	Op    Op
	Value interface{}
}

// Predicates builds the descriptor list for p in a fixed dimension order
func Predicates(p Params) []Predicate {
	var out []Predicate
	out = append(out, RangePredicates(FieldPrice, p.PriceMin, p.PriceMax)...)
	out = append(out, RangePredicates(FieldSquareFeet, p.SquareFeetMin, p.SquareFeetMax)...)
	out = append(out, AtLeastPredicates(FieldBeds, p.Beds)...)
	out = append(out, AtLeastPredicates(FieldBaths, p.Baths)...)
	out = append(out, PropertyTypePredicates(p.PropertyType)...)
	out = append(out, AmenityPredicates(p.Amenities)...)
	out = append(out, AvailableFromPredicates(p.AvailableFrom)...)
	out = append(out, IDPredicates(p.FavoriteIDs)...)
	out = append(out, RadiusPredicates(p.Center, p.RadiusKm)...)
	return out
}

// RangePredicates bounds field below by min and above by max. min > max is
// not corrected.
func RangePredicates(field Field, min, max *float64) []Predicate {
	var out []Predicate
	if min != nil {
		out = append(out, Predicate{Field: field, Op: OpGTE, Value: *min})
	}
	if max != nil {
		out = append(out, Predicate{Field: field, Op: OpLTE, Value: *max})
	}
	return out
}

// AtLeastPredicates requires field >= v
func AtLeastPredicates(field Field, v *float64) []Predicate {
	if v == nil {
		return nil
	}
	return []Predicate{{Field: field, Op: OpGTE, Value: *v}}
}

func PropertyTypePredicates(pt *models.PropertyType) []Predicate {
	if pt == nil {
		return nil
	}
	return []Predicate{{Field: FieldPropertyType, Op: OpEq, Value: string(*pt)}}
}

// AmenityPredicates requires every listed amenity
func AmenityPredicates(amenities []models.Amenity) []Predicate {
	if len(amenities) == 0 {
		return nil
	}
	names := make([]string, len(amenities))
	for i, a := range amenities {
		names[i] = string(a)
	}
	return []Predicate{{Field: FieldAmenities, Op: OpContains, Value: names}}
}

// AvailableFromPredicates keeps listings with a lease that started on or
// before date
func AvailableFromPredicates(date *time.Time) []Predicate {
	if date == nil {
		return nil
	}
	return []Predicate{{Field: FieldLeaseStart, Op: OpExistsOnOrBefore, Value: date.UTC()}}
}

// IDPredicates restricts results to ids. An empty list adds nothing.
func IDPredicates(ids []uint) []Predicate {
	if len(ids) == 0 {
		return nil
	}
	return []Predicate{{Field: FieldID, Op: OpIn, Value: append([]uint(nil), ids...)}}
}

func RadiusPredicates(center *geo.Point, km float64) []Predicate {
	if center == nil {
		return nil
	}
	if km <= 0 {
		km = geo.DefaultSearchRadiusKm
	}
	return []Predicate{{Field: FieldCoordinates, Op: OpWithinRadius, Value: Radius{Center: *center, Km: km}}}
}
