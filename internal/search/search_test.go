package search

import (
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CyberPidgi/rentiful/internal/apperr"
	"github.com/CyberPidgi/rentiful/internal/filters"
	"github.com/CyberPidgi/rentiful/internal/geo"
	"github.com/CyberPidgi/rentiful/internal/models"
)

func TestParseParamsAllSentinels(t *testing.T) {
	p, err := ParseParams(url.Values{
		"beds":          {"any"},
		"baths":         {"any"},
		"propertyType":  {"any"},
		"amenities":     {"any"},
		"availableFrom": {"any"},
		"priceMin":      {""},
	})
	require.NoError(t, err)
	assert.Empty(t, Predicates(p))

	q, err := Build(p)
	require.NoError(t, err)
	assert.NotContains(t, q.SQL, "WHERE")
	assert.True(t, strings.HasSuffix(q.SQL, "ORDER BY p.id"))
	assert.Empty(t, q.Args)
}

func TestParseParamsValidation(t *testing.T) {
	cases := []struct {
		name  string
		query string
		field string
	}{
		{"bad date", "availableFrom=soon", "availableFrom"},
		{"bad latitude", "latitude=north&longitude=1", "latitude"},
		{"longitude out of range", "latitude=1&longitude=200", "longitude"},
		{"bad price", "priceMax=lots", "priceMax"},
		{"unknown type", "propertyType=Castle", "propertyType"},
		{"unknown amenity", "amenities=Moat", "amenities"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			values, err := url.ParseQuery(tc.query)
			require.NoError(t, err)
			_, err = ParseParams(values)
			e, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, apperr.KindValidation, e.Kind)
			assert.Equal(t, tc.field, e.Field)
		})
	}
}

func TestBuildBindsEveryValue(t *testing.T) {
	// values chosen so they cannot appear by accident in the SQL text
	p, err := ParseParams(url.Values{
		"priceMin":      {"1234.5"},
		"priceMax":      {"9876"},
		"squareFeetMin": {"517"},
		"beds":          {"3"},
		"baths":         {"2.5"},
		"propertyType":  {"Villa"},
		"amenities":     {"Pool,Gym"},
		"availableFrom": {"2031-07-04"},
		"latitude":      {"34.05"},
		"longitude":     {"-118.25"},
		"favoriteIds":   {"71,72"},
	})
	require.NoError(t, err)

	q, err := Build(p)
	require.NoError(t, err)

	for _, literal := range []string{"1234.5", "9876", "517", "Villa", "Pool", "2031", "34.05", "118.25"} {
		assert.NotContains(t, q.SQL, literal)
	}

	assert.Contains(t, q.SQL, "p.price_per_month >= $1")
	assert.Contains(t, q.SQL, "p.price_per_month <= $2")
	assert.Contains(t, q.SQL, "p.square_feet >= $3")
	assert.Contains(t, q.SQL, "p.beds >= $4")
	assert.Contains(t, q.SQL, "p.baths >= $5")
	assert.Contains(t, q.SQL, "p.property_type = $6")
	assert.Contains(t, q.SQL, "p.amenities @> $7::text[]")
	assert.Contains(t, q.SQL, "le.start_date <= $8")
	assert.Contains(t, q.SQL, "p.id IN ($9, $10)")
	assert.Contains(t, q.SQL, "ST_DWithin(l.coordinates::geometry, ST_SetSRID(ST_MakePoint($11, $12), 4326), $13)")
	assert.Contains(t, q.SQL, "ST_AsText(l.coordinates)")

	require.Len(t, q.Args, 13)
	assert.Equal(t, 1234.5, q.Args[0])
	assert.Equal(t, "Villa", q.Args[5])
	assert.Equal(t, time.Date(2031, 7, 4, 0, 0, 0, 0, time.UTC), q.Args[7])
	assert.Equal(t, int64(71), q.Args[8])
	assert.Equal(t, -118.25, q.Args[10])
	assert.Equal(t, 34.05, q.Args[11])
	assert.InDelta(t, 1000.0/111.0, q.Args[12], 1e-9)
}

func TestCompileRejectsUnknownDescriptors(t *testing.T) {
	_, err := Compile([]Predicate{{Field: "rent", Op: OpGTE, Value: 1.0}})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = Compile([]Predicate{{Field: FieldPrice, Op: "LIKE", Value: 1.0}})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = Compile([]Predicate{{Field: FieldAmenities, Op: OpContains, Value: "Pool"}})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

type listing struct {
	id        uint
	price     float64
	beds      float64
	baths     float64
	sqft      float64
	ptype     string
	amenities []string
	leases    []time.Time
	at        geo.Point
}

// matches evaluates preds the way the compiled SQL does
func matches(l listing, preds []Predicate) bool {
	for _, p := range preds {
		var ok bool
		switch p.Field {
		case FieldPrice:
			ok = compare(l.price, p)
		case FieldBeds:
			ok = compare(l.beds, p)
		case FieldBaths:
			ok = compare(l.baths, p)
		case FieldSquareFeet:
			ok = compare(l.sqft, p)
		case FieldPropertyType:
			ok = l.ptype == p.Value.(string)
		case FieldAmenities:
			ok = true
			for _, want := range p.Value.([]string) {
				found := false
				for _, have := range l.amenities {
					found = found || have == want
				}
				ok = ok && found
			}
		case FieldLeaseStart:
			for _, start := range l.leases {
				ok = ok || !start.After(p.Value.(time.Time))
			}
		case FieldID:
			for _, id := range p.Value.([]uint) {
				ok = ok || id == l.id
			}
		case FieldCoordinates:
			r := p.Value.(Radius)
			dx, dy := l.at.Longitude-r.Center.Longitude, l.at.Latitude-r.Center.Latitude
			deg := geo.KilometersToDegrees(r.Km)
			ok = dx*dx+dy*dy <= deg*deg
		default:
			panic(fmt.Sprintf("unhandled field %s", p.Field))
		}
		if !ok {
			return false
		}
	}
	return true
}

func compare(v float64, p Predicate) bool {
	bound := p.Value.(float64)
	switch p.Op {
	case OpGTE:
		return v >= bound
	case OpLTE:
		return v <= bound
	}
	return v == bound
}

func filter(all []listing, p Params) []uint {
	var ids []uint
	for _, l := range all {
		if matches(l, Predicates(p)) {
			ids = append(ids, l.id)
		}
	}
	return ids
}

func TestPredicatesPriceAndBeds(t *testing.T) {
	prices := []float64{900, 1500, 2000, 2100, 1800}
	beds := []float64{2, 2, 1, 2, 3}
	var all []listing
	for i := range prices {
		all = append(all, listing{id: uint(i + 1), price: prices[i], beds: beds[i]})
	}

	p := FromCriteria(filters.Criteria{
		PriceRange:   filters.Range{Min: filters.Float(1000), Max: filters.Float(2000)},
		Beds:         filters.Float(2),
		PropertyType: filters.AnyPropertyType,
	})

	// 1500 and 1800
	assert.Equal(t, []uint{2, 5}, filter(all, p))

	// every bound is inclusive
	p = FromCriteria(filters.Criteria{PriceRange: filters.Range{Min: filters.Float(2000), Max: filters.Float(2000)}})
	assert.Equal(t, []uint{3}, filter(all, p))

	// inverted range passes through and matches nothing
	p = FromCriteria(filters.Criteria{PriceRange: filters.Range{Min: filters.Float(2000), Max: filters.Float(1000)}})
	assert.Empty(t, filter(all, p))
}

func TestPredicatesAmenitiesLeasesAndRadius(t *testing.T) {
	la := geo.Point{Longitude: -118.25, Latitude: 34.05}
	nyc := geo.Point{Longitude: -74.0, Latitude: 40.7}
	all := []listing{
		{id: 1, amenities: []string{"Pool", "Gym", "WiFi"}, at: la, leases: []time.Time{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}},
		{id: 2, amenities: []string{"Pool"}, at: la},
		{id: 3, amenities: []string{"Gym", "Pool"}, at: nyc, leases: []time.Time{time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}},
	}

	p := Params{Amenities: []models.Amenity{models.AmenityPool, models.AmenityGym}}
	assert.Equal(t, []uint{1, 3}, filter(all, p))

	p = Params{AvailableFrom: filters.Date(2024, time.March, 1)}
	assert.Equal(t, []uint{1}, filter(all, p))

	p = Params{Center: &la, RadiusKm: geo.DefaultSearchRadiusKm}
	assert.Equal(t, []uint{1, 2}, filter(all, p))

	p = Params{FavoriteIDs: []uint{3, 99}}
	assert.Equal(t, []uint{3}, filter(all, p))
}

func TestMeiliFilter(t *testing.T) {
	pt := models.PropertyTypeApartment
	preds := Predicates(Params{
		PriceMin:     filters.Float(1000),
		Beds:         filters.Float(2),
		PropertyType: &pt,
		Amenities:    []models.Amenity{models.AmenityPool, models.AmenityWiFi},
		FavoriteIDs:  []uint{4, 8},
		Center:       &geo.Point{Longitude: -118.25, Latitude: 34.05},
		RadiusKm:     5,
	})

	got, err := Meili(preds)
	require.NoError(t, err)
	assert.Equal(t,
		`pricePerMonth >= 1000 AND beds >= 2 AND propertyType = "Apartment" AND `+
			`(amenities = "Pool" AND amenities = "WiFi") AND id IN [4, 8] AND `+
			`_geoRadius(34.05, -118.25, 5000)`,
		got)

	empty, err := Meili(nil)
	require.NoError(t, err)
	assert.Equal(t, "", empty)
}

func TestMeiliRejectsLeasePredicate(t *testing.T) {
	preds := Predicates(Params{AvailableFrom: filters.Date(2024, time.May, 1), Beds: filters.Float(1)})

	_, err := Meili(preds)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	got, err := Meili(Indexable(preds))
	require.NoError(t, err)
	assert.Equal(t, "beds >= 1", got)
}

func TestQuoteEscapes(t *testing.T) {
	assert.Equal(t, `"say \"hi\" \\ bye"`, quote(`say "hi" \ bye`))
}
