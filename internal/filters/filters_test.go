package filters

import (
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CyberPidgi/rentiful/internal/apperr"
	"github.com/CyberPidgi/rentiful/internal/models"
)

func TestEncodeOmitsUnsetDimensions(t *testing.T) {
	c := Criteria{PropertyType: AnyPropertyType}
	assert.Empty(t, Encode(c))
	assert.Equal(t, "", Canonical(c))

	c = Default()
	assert.Equal(t, "latitude=34.05&location=Los+Angeles&longitude=-118.25", Canonical(c))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []Criteria{
		Default(),
		{PropertyType: AnyPropertyType},
		{
			Location:      "Santa Monica",
			PriceRange:    Range{Min: Float(1200), Max: Float(2500.5)},
			SquareFeet:    Range{Max: Float(900)},
			Beds:          Float(2),
			Baths:         Float(1.5),
			PropertyType:  models.PropertyTypeApartment,
			Amenities:     []models.Amenity{models.AmenityPool, models.AmenityGym},
			AvailableFrom: Date(2024, time.March, 1),
			Coordinates:   &Coordinates{Longitude: -118.4912, Latitude: 34.0195},
			FavoriteIDs:   []uint{3, 7, 11},
		},
		{
			// min > max passes through verbatim
			PriceRange:   Range{Min: Float(3000), Max: Float(1000)},
			PropertyType: AnyPropertyType,
		},
	}

	for _, want := range cases {
		got, err := Decode(Encode(want))
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, Canonical(want), Canonical(got))
	}
}

func TestDecodeTreatsAnyAsUnset(t *testing.T) {
	values := url.Values{
		KeyBeds:          {"any"},
		KeyBaths:         {"ANY"},
		KeyPropertyType:  {"any"},
		KeyAmenities:     {"any"},
		KeyAvailableFrom: {"any"},
		KeyPriceMin:      {""},
	}
	c, err := Decode(values)
	require.NoError(t, err)
	assert.Nil(t, c.Beds)
	assert.Nil(t, c.Baths)
	assert.False(t, c.HasPropertyType())
	assert.Empty(t, c.Amenities)
	assert.Nil(t, c.AvailableFrom)
	assert.True(t, c.PriceRange.IsZero())
}

func TestDecodeAcceptsFavoritesAlias(t *testing.T) {
	c, err := Decode(url.Values{"favorites": {"4, 9"}})
	require.NoError(t, err)
	assert.Equal(t, []uint{4, 9}, c.FavoriteIDs)
}

func TestDecodeIgnoresSingleAxis(t *testing.T) {
	c, err := Decode(url.Values{KeyLatitude: {"34.05"}})
	require.NoError(t, err)
	assert.Nil(t, c.Coordinates)
}

func TestDecodeRejectsMalformedValues(t *testing.T) {
	cases := map[string]url.Values{
		KeyPriceMin:      {KeyPriceMin: {"cheap"}},
		KeyBeds:          {KeyBeds: {"-1"}},
		KeyPropertyType:  {KeyPropertyType: {"Castle"}},
		KeyAmenities:     {KeyAmenities: {"Pool,Helipad"}},
		KeyAvailableFrom: {KeyAvailableFrom: {"next week"}},
		KeyLatitude:      {KeyLatitude: {"91"}, KeyLongitude: {"0"}},
		KeyLongitude:     {KeyLatitude: {"0"}, KeyLongitude: {"east"}},
		KeyFavoriteIDs:   {KeyFavoriteIDs: {"1,x"}},
	}

	for field, values := range cases {
		_, err := Decode(values)
		require.Error(t, err, field)
		e, ok := apperr.As(err)
		require.True(t, ok, field)
		assert.Equal(t, apperr.KindValidation, e.Kind, field)
		assert.Equal(t, field, e.Field)
	}
}

func TestDecodeDateTime(t *testing.T) {
	c, err := Decode(url.Values{KeyAvailableFrom: {"2024-03-01T10:30:00+02:00"}})
	require.NoError(t, err)
	require.NotNil(t, c.AvailableFrom)
	assert.Equal(t, time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC), *c.AvailableFrom)
	assert.Equal(t, "2024-03-01T08:30:00Z", Encode(c).Get(KeyAvailableFrom))
}

func TestStoreReplacesWholesale(t *testing.T) {
	s := NewStore(Default())

	var got []Criteria
	s.Subscribe(func(c Criteria) { got = append(got, c) })

	next := s.Filters()
	next.Beds = Float(3)
	next.Location = ""
	s.SetFilters(next)

	assert.Equal(t, next, s.Filters())
	require.Len(t, got, 1)
	assert.Equal(t, next, got[0])

	// the returned copy is detached from the store
	cp := s.Filters()
	*cp.Beds = 9
	assert.Equal(t, 3.0, *s.Filters().Beds)
}

func TestStoreNotifiesEachSubscriberWithOwnCopy(t *testing.T) {
	s := NewStore(Default())

	var first, second Criteria
	s.Subscribe(func(c Criteria) {
		first = c
		c.Amenities = append(c.Amenities, models.AmenityPool)
		*c.Beds = 7
	})
	s.Subscribe(func(c Criteria) { second = c })

	next := s.Filters()
	next.Beds = Float(2)
	s.SetFilters(next)

	require.NotNil(t, second.Beds)
	assert.Equal(t, 2.0, *second.Beds)
	assert.Equal(t, 2.0, *s.Filters().Beds)
	assert.Equal(t, 7.0, *first.Beds)
	assert.Empty(t, second.Amenities)
}

func TestStoreSubscribeDuringNotify(t *testing.T) {
	s := NewStore(Default())

	late := 0
	s.Subscribe(func(c Criteria) {
		s.Subscribe(func(Criteria) { late++ })
	})

	s.SetFilters(Default())
	assert.Equal(t, 0, late)

	s.SetFilters(Default())
	assert.Equal(t, 1, late)
}

func TestStoreViewModeAndPanel(t *testing.T) {
	s := NewStore(Default())
	assert.Equal(t, ViewGrid, s.State().ViewMode)

	s.SetViewMode(ViewList)
	assert.Equal(t, ViewList, s.State().ViewMode)

	assert.True(t, s.ToggleFiltersPanel())
	assert.False(t, s.ToggleFiltersPanel())
}

type recorder struct {
	mu      sync.Mutex
	queries []string
}

func (r *recorder) Navigate(q string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, q)
	return nil
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queries...)
}

func TestURLSyncCoalescesBursts(t *testing.T) {
	s := NewStore(Default())
	nav := &recorder{}
	us := NewURLSync(s, nav, 20*time.Millisecond)
	defer us.Stop()

	for _, beds := range []float64{1, 2, 3} {
		c := s.Filters()
		c.Beds = Float(beds)
		s.SetFilters(c)
	}

	assert.Eventually(t, func() bool { return len(nav.all()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)

	queries := nav.all()
	require.Len(t, queries, 1)
	values, err := url.ParseQuery(queries[0])
	require.NoError(t, err)
	assert.Equal(t, "3", values.Get(KeyBeds))
}

func TestURLSyncFlushAndUnchanged(t *testing.T) {
	s := NewStore(Default())
	nav := &recorder{}
	us := NewURLSync(s, nav, time.Hour)
	defer us.Stop()

	// same canonical query as the initial state
	s.SetFilters(Default())
	us.Flush()
	assert.Empty(t, nav.all())

	c := Default()
	c.PropertyType = models.PropertyTypeVilla
	s.SetFilters(c)
	us.Flush()
	assert.Equal(t, []string{Canonical(c)}, nav.all())
}

func TestURLSyncRestore(t *testing.T) {
	s := NewStore(Default())
	nav := &recorder{}
	us := NewURLSync(s, nav, time.Hour)
	defer us.Stop()

	want := Criteria{
		PriceRange:   Range{Min: Float(1000)},
		PropertyType: models.PropertyTypeTownhouse,
		Amenities:    []models.Amenity{models.AmenityWiFi},
	}
	got, err := us.Restore("?" + Canonical(want))
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, want, s.Filters())

	us.Flush()
	assert.Empty(t, nav.all(), "restore must not navigate")

	got, err = us.Restore("")
	require.NoError(t, err)
	assert.Equal(t, Default(), got)

	_, err = us.Restore("beds=lots")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, Default(), s.Filters())
}

func TestURLSyncStop(t *testing.T) {
	s := NewStore(Default())
	nav := &recorder{}
	us := NewURLSync(s, nav, 10*time.Millisecond)

	c := Default()
	c.Beds = Float(2)
	s.SetFilters(c)
	us.Stop()

	time.Sleep(40 * time.Millisecond)
	assert.Empty(t, nav.all())
}
