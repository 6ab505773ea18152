package filters

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/CyberPidgi/rentiful/internal/apperr"
	"github.com/CyberPidgi/rentiful/internal/models"
)

// Query-string keys shared by the client and the search endpoint
const (
	KeyLocation      = "location"
	KeyPriceMin      = "priceMin"
	KeyPriceMax      = "priceMax"
	KeySquareFeetMin = "squareFeetMin"
	KeySquareFeetMax = "squareFeetMax"
	KeyBeds          = "beds"
	KeyBaths         = "baths"
	KeyPropertyType  = "propertyType"
	KeyAmenities     = "amenities"
	KeyAvailableFrom = "availableFrom"
	KeyLatitude      = "latitude"
	KeyLongitude     = "longitude"
	KeyFavoriteIDs   = "favoriteIds"

	// accepted on input only
	keyFavoritesAlias = "favorites"
)

const dateLayout = "2006-01-02"

// Encode maps criteria to query parameters, omitting every unset dimension
func Encode(c Criteria) url.Values {
	v := url.Values{}

	if loc := strings.TrimSpace(c.Location); loc != "" {
		v.Set(KeyLocation, loc)
	}
	setFloat(v, KeyPriceMin, c.PriceRange.Min)
	setFloat(v, KeyPriceMax, c.PriceRange.Max)
	setFloat(v, KeySquareFeetMin, c.SquareFeet.Min)
	setFloat(v, KeySquareFeetMax, c.SquareFeet.Max)
	setFloat(v, KeyBeds, c.Beds)
	setFloat(v, KeyBaths, c.Baths)

	if c.HasPropertyType() {
		v.Set(KeyPropertyType, string(c.PropertyType))
	}
	if len(c.Amenities) > 0 {
		names := make([]string, len(c.Amenities))
		for i, a := range c.Amenities {
			names[i] = string(a)
		}
		v.Set(KeyAmenities, strings.Join(names, ","))
	}
	if c.AvailableFrom != nil {
		v.Set(KeyAvailableFrom, formatDate(*c.AvailableFrom))
	}
	if c.Coordinates != nil {
		v.Set(KeyLatitude, formatFloat(c.Coordinates.Latitude))
		v.Set(KeyLongitude, formatFloat(c.Coordinates.Longitude))
	}
	if len(c.FavoriteIDs) > 0 {
		ids := make([]string, len(c.FavoriteIDs))
		for i, id := range c.FavoriteIDs {
			ids[i] = strconv.FormatUint(uint64(id), 10)
		}
		v.Set(KeyFavoriteIDs, strings.Join(ids, ","))
	}

	return v
}

// Canonical is the sorted, encoded query string for c
func Canonical(c Criteria) string {
	return Encode(c).Encode()
}

// Decode restores criteria from query parameters. Absent keys, "" and "any"
// leave their dimension unset.
func Decode(v url.Values) (Criteria, error) {
	c := Criteria{
		Location:     strings.TrimSpace(v.Get(KeyLocation)),
		PropertyType: AnyPropertyType,
	}

	var err error
	if c.PriceRange.Min, err = parseFloat(v, KeyPriceMin); err != nil {
		return Criteria{}, err
	}
	if c.PriceRange.Max, err = parseFloat(v, KeyPriceMax); err != nil {
		return Criteria{}, err
	}
	if c.SquareFeet.Min, err = parseFloat(v, KeySquareFeetMin); err != nil {
		return Criteria{}, err
	}
	if c.SquareFeet.Max, err = parseFloat(v, KeySquareFeetMax); err != nil {
		return Criteria{}, err
	}
	if c.Beds, err = parseFloat(v, KeyBeds); err != nil {
		return Criteria{}, err
	}
	if c.Baths, err = parseFloat(v, KeyBaths); err != nil {
		return Criteria{}, err
	}

	if raw := value(v, KeyPropertyType); raw != "" {
		pt := models.PropertyType(raw)
		if !pt.Valid() {
			return Criteria{}, apperr.Validation(KeyPropertyType, "unknown property type "+strconv.Quote(raw))
		}
		c.PropertyType = pt
	}

	if c.Amenities, err = parseAmenities(value(v, KeyAmenities)); err != nil {
		return Criteria{}, err
	}

	if raw := value(v, KeyAvailableFrom); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return Criteria{}, apperr.Validation(KeyAvailableFrom, "invalid date "+strconv.Quote(raw))
		}
		c.AvailableFrom = &t
	}

	if c.Coordinates, err = parseCoordinates(v); err != nil {
		return Criteria{}, err
	}

	favorites := value(v, KeyFavoriteIDs)
	if favorites == "" {
		favorites = value(v, keyFavoritesAlias)
	}
	if c.FavoriteIDs, err = parseIDs(favorites); err != nil {
		return Criteria{}, err
	}

	return c, nil
}

// value returns the trimmed parameter, or "" for the any sentinel
func value(v url.Values, key string) string {
	raw := strings.TrimSpace(v.Get(key))
	if strings.EqualFold(raw, Any) {
		return ""
	}
	return raw
}

func setFloat(v url.Values, key string, f *float64) {
	if f != nil {
		v.Set(key, formatFloat(*f))
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func parseFloat(v url.Values, key string) (*float64, error) {
	raw := value(v, key)
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, apperr.Validation(key, "must be a number")
	}
	if f < 0 {
		return nil, apperr.Validation(key, "must not be negative")
	}
	return &f, nil
}

func parseAmenities(raw string) ([]models.Amenity, error) {
	if raw == "" {
		return nil, nil
	}
	var out []models.Amenity
	seen := make(map[models.Amenity]bool)
	for _, part := range strings.Split(raw, ",") {
		a := models.Amenity(strings.TrimSpace(part))
		if a == "" || seen[a] {
			continue
		}
		if !a.Valid() {
			return nil, apperr.Validation(KeyAmenities, "unknown amenity "+strconv.Quote(string(a)))
		}
		seen[a] = true
		out = append(out, a)
	}
	return out, nil
}

func parseIDs(raw string) ([]uint, error) {
	if raw == "" {
		return nil, nil
	}
	var out []uint
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 0)
		if err != nil {
			return nil, apperr.Validation(KeyFavoriteIDs, "invalid id "+strconv.Quote(part))
		}
		out = append(out, uint(id))
	}
	return out, nil
}

func parseCoordinates(v url.Values) (*Coordinates, error) {
	latRaw, lonRaw := value(v, KeyLatitude), value(v, KeyLongitude)
	if latRaw == "" && lonRaw == "" {
		return nil, nil
	}

	var lat, lon float64
	var err error
	if latRaw != "" {
		if lat, err = strconv.ParseFloat(latRaw, 64); err != nil || math.IsNaN(lat) || lat < -90 || lat > 90 {
			return nil, apperr.Validation(KeyLatitude, "invalid latitude")
		}
	}
	if lonRaw != "" {
		if lon, err = strconv.ParseFloat(lonRaw, 64); err != nil || math.IsNaN(lon) || lon < -180 || lon > 180 {
			return nil, apperr.Validation(KeyLongitude, "invalid longitude")
		}
	}

	// the radius filter needs both axes
	if latRaw == "" || lonRaw == "" {
		return nil, nil
	}
	return &Coordinates{Longitude: lon, Latitude: lat}, nil
}

func formatDate(t time.Time) string {
	u := t.UTC()
	if u.Hour() == 0 && u.Minute() == 0 && u.Second() == 0 && u.Nanosecond() == 0 {
		return u.Format(dateLayout)
	}
	return u.Format(time.RFC3339Nano)
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
