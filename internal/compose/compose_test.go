package compose

import (
	"encoding/json"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CyberPidgi/rentiful/internal/database"
	"github.com/CyberPidgi/rentiful/internal/geo"
	"github.com/CyberPidgi/rentiful/internal/models"
)

func rating(v float64) *float64 { return &v }

func sampleRows() []database.ListingRow {
	return []database.ListingRow{
		{
			ID:              1,
			Name:            "Sunset Loft",
			PricePerMonth:   1500,
			Amenities:       pq.StringArray{"Pool", "Gym"},
			AverageRating:   rating(4.3),
			NumberOfReviews: 8,
			LocationID:      10,
			City:            "Los Angeles",
			Coordinates:     "POINT(-118.25 34.05)",
		},
		{
			ID:            2,
			Name:          "Quiet Cottage",
			PricePerMonth: 1800,
			LocationID:    11,
			Coordinates:   "SRID=4326;POINT(-118.3 34.1)",
		},
	}
}

func TestComposeDecodesCoordinatesAndFavorites(t *testing.T) {
	listings, err := Compose(sampleRows(), NewFavoriteSet([]uint{2}))
	require.NoError(t, err)
	require.Len(t, listings, 2)

	assert.Equal(t, Coordinates{Latitude: 34.05, Longitude: -118.25}, listings[0].Location.Coordinates)
	assert.Equal(t, Coordinates{Latitude: 34.1, Longitude: -118.3}, listings[1].Location.Coordinates)

	require.NotNil(t, listings[0].IsFavorite)
	assert.False(t, *listings[0].IsFavorite)
	require.NotNil(t, listings[1].IsFavorite)
	assert.True(t, *listings[1].IsFavorite)
}

func TestComposeAnonymousOmitsFavorite(t *testing.T) {
	listings, err := Compose(sampleRows(), nil)
	require.NoError(t, err)

	for _, l := range listings {
		assert.Nil(t, l.IsFavorite)
	}
	raw, err := json.Marshal(listings[0])
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "isFavorite")
	assert.Contains(t, string(raw), `"coordinates":{"latitude":34.05,"longitude":-118.25}`)
}

func TestComposeRating(t *testing.T) {
	listings, err := Compose(sampleRows(), nil)
	require.NoError(t, err)

	assert.Equal(t, "4.3", listings[0].Rating.Display)
	assert.Equal(t, 8, listings[0].Rating.Count)
	assert.Equal(t, NoRating, listings[1].Rating.Display)
	assert.Nil(t, listings[1].Rating.Average)

	// a stale average without reviews still shows no rating
	assert.Equal(t, NoRating, NewRating(rating(3), 0).Display)
}

func TestComposeDoesNotMutateRows(t *testing.T) {
	rows := sampleRows()
	before := sampleRows()

	listings, err := Compose(rows, NewFavoriteSet([]uint{1}))
	require.NoError(t, err)
	assert.Equal(t, before, rows)

	listings[0].Amenities[0] = "Sauna"
	*listings[0].AverageRating = 1
	assert.Equal(t, before, rows)
}

func TestComposeFailsOnBadGeometry(t *testing.T) {
	rows := sampleRows()
	rows[1].Coordinates = "LINESTRING(0 0, 1 1)"

	_, err := Compose(rows, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, geo.ErrInvalidGeometry)
}

func TestFromProperty(t *testing.T) {
	p := &models.Property{
		ID:              5,
		Name:            "Villa",
		PropertyType:    models.PropertyTypeVilla,
		NumberOfReviews: 0,
		Location: models.Location{
			ID:          9,
			City:        "Malibu",
			Coordinates: geo.Point{Longitude: -118.78, Latitude: 34.03},
		},
	}

	l := FromProperty(p, NewFavoriteSet(nil))
	assert.Equal(t, Coordinates{Latitude: 34.03, Longitude: -118.78}, l.Location.Coordinates)
	assert.Equal(t, "Villa", l.PropertyType)
	assert.Equal(t, NoRating, l.Rating.Display)
	require.NotNil(t, l.IsFavorite)
	assert.False(t, *l.IsFavorite)
	assert.Equal(t, []string{}, l.Amenities)
}
