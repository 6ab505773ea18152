// Package geo is the single conversion boundary between the location
// geometry column and the {latitude, longitude} pairs handed to clients.
package geo

import (
	"context"
	"database/sql/driver"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SRID of every stored point (WGS 84)
const SRID = 4326

// DefaultSearchRadiusKm is the radius of the "search near me" filter
const DefaultSearchRadiusKm = 1000.0

// kmPerDegree approximates one degree of arc on the earth's surface
const kmPerDegree = 111.0

var ErrInvalidGeometry = errors.New("invalid point geometry")

// Point is a longitude/latitude pair stored as a PostGIS point
type Point struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Coordinates is the flat pair clients consume
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Coordinates returns the point as a latitude/longitude pair
func (p Point) Coordinates() Coordinates {
	return Coordinates{Latitude: p.Latitude, Longitude: p.Longitude}
}

// Valid reports whether both axes are finite and within WGS 84 bounds
func (p Point) Valid() bool {
	if math.IsNaN(p.Longitude) || math.IsNaN(p.Latitude) || math.IsInf(p.Longitude, 0) || math.IsInf(p.Latitude, 0) {
		return false
	}
	return p.Longitude >= -180 && p.Longitude <= 180 && p.Latitude >= -90 && p.Latitude <= 90
}

// KilometersToDegrees converts a radius to the geometry's native degree unit
func KilometersToDegrees(km float64) float64 {
	return km / kmPerDegree
}

// EncodeWKT renders the point as well-known text, POINT(lon lat)
func EncodeWKT(p Point) string {
	return "POINT(" + formatFloat(p.Longitude) + " " + formatFloat(p.Latitude) + ")"
}

// EncodeEWKT renders the point with its SRID prefix
func EncodeEWKT(p Point) string {
	return fmt.Sprintf("SRID=%d;%s", SRID, EncodeWKT(p))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// DecodeWKT parses POINT(x y), optionally prefixed with SRID=n;
func DecodeWKT(s string) (Point, error) {
	text := strings.TrimSpace(s)
	if i := strings.Index(text, ";"); i >= 0 && strings.HasPrefix(strings.ToUpper(text), "SRID=") {
		text = strings.TrimSpace(text[i+1:])
	}

	upper := strings.ToUpper(text)
	if !strings.HasPrefix(upper, "POINT") {
		return Point{}, fmt.Errorf("%w: %q", ErrInvalidGeometry, s)
	}
	body := strings.TrimSpace(text[len("POINT"):])
	if !strings.HasPrefix(body, "(") || !strings.HasSuffix(body, ")") {
		return Point{}, fmt.Errorf("%w: %q", ErrInvalidGeometry, s)
	}

	fields := strings.Fields(body[1 : len(body)-1])
	if len(fields) != 2 {
		return Point{}, fmt.Errorf("%w: expected 2 coordinates in %q", ErrInvalidGeometry, s)
	}

	lon, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return Point{}, fmt.Errorf("%w: longitude %q", ErrInvalidGeometry, fields[0])
	}
	lat, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Point{}, fmt.Errorf("%w: latitude %q", ErrInvalidGeometry, fields[1])
	}

	return Point{Longitude: lon, Latitude: lat}, nil
}

// EWKB type flags
const (
	wkbPoint    = 1
	ewkbZFlag   = 0x80000000
	ewkbMFlag   = 0x40000000
	ewkbSRIDFlg = 0x20000000
)

// DecodeEWKBHex parses the hex-encoded (E)WKB PostGIS returns for a point column
func DecodeEWKBHex(s string) (Point, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return Point{}, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	return DecodeEWKB(raw)
}

// DecodeEWKB parses a binary (E)WKB point
func DecodeEWKB(raw []byte) (Point, error) {
	if len(raw) < 5 {
		return Point{}, fmt.Errorf("%w: short buffer", ErrInvalidGeometry)
	}

	var order binary.ByteOrder
	switch raw[0] {
	case 0:
		order = binary.BigEndian
	case 1:
		order = binary.LittleEndian
	default:
		return Point{}, fmt.Errorf("%w: byte order %d", ErrInvalidGeometry, raw[0])
	}

	typ := order.Uint32(raw[1:5])
	offset := 5
	if typ&ewkbSRIDFlg != 0 {
		offset += 4
	}
	dims := 2
	if typ&ewkbZFlag != 0 {
		dims++
	}
	if typ&ewkbMFlag != 0 {
		dims++
	}
	if typ&0xffff != wkbPoint {
		return Point{}, fmt.Errorf("%w: geometry type %d is not a point", ErrInvalidGeometry, typ&0xffff)
	}
	if len(raw) < offset+8*dims {
		return Point{}, fmt.Errorf("%w: short buffer", ErrInvalidGeometry)
	}

	x := math.Float64frombits(order.Uint64(raw[offset : offset+8]))
	y := math.Float64frombits(order.Uint64(raw[offset+8 : offset+16]))
	return Point{Longitude: x, Latitude: y}, nil
}

// Scan reads WKT text or hex EWKB
func (p *Point) Scan(src interface{}) error {
	var text string
	switch v := src.(type) {
	case nil:
		return fmt.Errorf("%w: NULL", ErrInvalidGeometry)
	case string:
		text = v
	case []byte:
		text = string(v)
	default:
		return fmt.Errorf("%w: unsupported source %T", ErrInvalidGeometry, src)
	}

	upper := strings.ToUpper(strings.TrimSpace(text))
	var (
		point Point
		err   error
	)
	if strings.HasPrefix(upper, "POINT") || strings.HasPrefix(upper, "SRID=") {
		point, err = DecodeWKT(text)
	} else {
		point, err = DecodeEWKBHex(text)
	}
	if err != nil {
		return err
	}
	*p = point
	return nil
}

// Value writes the point as EWKT, which PostGIS accepts for geometry input
func (p Point) Value() (driver.Value, error) {
	return EncodeEWKT(p), nil
}

// GormValue builds the point server-side from bound scalars
func (p Point) GormValue(ctx context.Context, db *gorm.DB) clause.Expr {
	return clause.Expr{
		SQL:  "ST_SetSRID(ST_MakePoint(?, ?), ?)",
		Vars: []interface{}{p.Longitude, p.Latitude, SRID},
	}
}
