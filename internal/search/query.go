package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/CyberPidgi/rentiful/internal/apperr"
	"github.com/CyberPidgi/rentiful/internal/geo"
)

// Query is a compiled listing search. Args hold every filter value.
type Query struct {
	SQL  string
	Args []interface{}
}

const listingSelect = `SELECT
  p.id, p.name, p.description, p.price_per_month, p.security_deposit,
  p.application_fee, p.photo_urls, p.amenities, p.highlights,
  p.is_pets_allowed, p.is_parking_included, p.beds, p.baths, p.square_feet,
  p.property_type, p.average_rating, p.number_of_reviews, p.posted_date,
  p.location_id, p.manager_cognito_id,
  l.address, l.city, l.state, l.country, l.postal_code,
  ST_AsText(l.coordinates) AS coordinates
FROM properties p
JOIN locations l ON p.location_id = l.id`

var columns = map[Field]string{
	FieldID:           "p.id",
	FieldPrice:        "p.price_per_month",
	FieldSquareFeet:   "p.square_feet",
	FieldBeds:         "p.beds",
	FieldBaths:        "p.baths",
	FieldPropertyType: "p.property_type",
	FieldAmenities:    "p.amenities",
	FieldLeaseStart:   "start_date",
	FieldCoordinates:  "l.coordinates",
	FieldManager:      "p.manager_cognito_id",
}

// Build compiles p into one parameterized query
func Build(p Params) (Query, error) {
	return Compile(Predicates(p))
}

// Compile renders preds as an ANDed WHERE clause with $n placeholders.
// No predicates means no WHERE clause. Rows are ordered by id.
func Compile(preds []Predicate) (Query, error) {
	c := &compiler{}
	clauses := make([]string, 0, len(preds))
	for _, pred := range preds {
		clause, err := c.clause(pred)
		if err != nil {
			return Query{}, err
		}
		clauses = append(clauses, clause)
	}

	var b strings.Builder
	b.WriteString(listingSelect)
	if len(clauses) > 0 {
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(clauses, "\n  AND "))
	}
	b.WriteString("\nORDER BY p.id")

	return Query{SQL: b.String(), Args: c.args}, nil
}

type compiler struct {
	args []interface{}
}

// bind appends v and returns its placeholder
func (c *compiler) bind(v interface{}) string {
	c.args = append(c.args, v)
	return fmt.Sprintf("$%d", len(c.args))
}

func (c *compiler) clause(pred Predicate) (string, error) {
	col, ok := columns[pred.Field]
	if !ok {
		return "", apperr.Validation(string(pred.Field), "unknown filter field")
	}

	switch pred.Op {
	case OpGTE, OpLTE, OpEq:
		return fmt.Sprintf("%s %s %s", col, pred.Op, c.bind(pred.Value)), nil

	case OpContains:
		values, ok := pred.Value.([]string)
		if !ok {
			return "", invalidValue(pred)
		}
		return fmt.Sprintf("%s @> %s::text[]", col, c.bind(pq.Array(values))), nil

	case OpIn:
		ids, ok := pred.Value.([]uint)
		if !ok || len(ids) == 0 {
			return "", invalidValue(pred)
		}
		placeholders := make([]string, len(ids))
		for i, id := range ids {
			placeholders[i] = c.bind(int64(id))
		}
		return fmt.Sprintf("%s IN (%s)", col, strings.Join(placeholders, ", ")), nil

	case OpExistsOnOrBefore:
		date, ok := pred.Value.(time.Time)
		if !ok {
			return "", invalidValue(pred)
		}
		return fmt.Sprintf(
			"EXISTS (SELECT 1 FROM leases le WHERE le.property_id = p.id AND le.%s <= %s)",
			col, c.bind(date),
		), nil

	case OpWithinRadius:
		r, ok := pred.Value.(Radius)
		if !ok {
			return "", invalidValue(pred)
		}
		lon := c.bind(r.Center.Longitude)
		lat := c.bind(r.Center.Latitude)
		deg := c.bind(geo.KilometersToDegrees(r.Km))
		return fmt.Sprintf(
			"ST_DWithin(%s::geometry, ST_SetSRID(ST_MakePoint(%s, %s), %d), %s)",
			col, lon, lat, geo.SRID, deg,
		), nil
	}

	return "", apperr.Validation(string(pred.Field), fmt.Sprintf("unsupported operator %q", pred.Op))
}

func invalidValue(pred Predicate) error {
	return apperr.Validation(string(pred.Field), fmt.Sprintf("invalid value for %s", pred.Op))
}
