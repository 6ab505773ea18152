package geo

import (
	"encoding/binary"
	"encoding/hex"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWKTRoundTripIsExact(t *testing.T) {
	points := []Point{
		{Longitude: -118.25, Latitude: 34.05},
		{Longitude: -118.24368, Latitude: 34.052235},
		{Longitude: 0.1 + 0.2, Latitude: -33.868820000000001},
		{Longitude: 180, Latitude: -90},
		{Longitude: 1e-9, Latitude: 12.345678901234567},
	}
	for _, p := range points {
		got, err := DecodeWKT(EncodeWKT(p))
		require.NoError(t, err)
		assert.Equal(t, p, got, EncodeWKT(p))
	}
}

func TestDecodeWKTVariants(t *testing.T) {
	cases := map[string]Point{
		"POINT(-118.25 34.05)":           {Longitude: -118.25, Latitude: 34.05},
		"  point ( 1.5   2.5 ) ":         {Longitude: 1.5, Latitude: 2.5},
		"SRID=4326;POINT(10 20)":         {Longitude: 10, Latitude: 20},
		"POINT(-7.0000000000001 3e-05)": {Longitude: -7.0000000000001, Latitude: 3e-05},
	}
	for in, want := range cases {
		got, err := DecodeWKT(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestDecodeWKTRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "POINT EMPTY", "LINESTRING(0 0, 1 1)", "POINT(1)", "POINT(a b)", "POINT(1 2 3)"} {
		_, err := DecodeWKT(in)
		assert.ErrorIs(t, err, ErrInvalidGeometry, in)
	}
}

func ewkbHex(order binary.AppendByteOrder, withSRID bool, x, y float64) string {
	buf := make([]byte, 0, 25)
	if order == binary.LittleEndian {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	typ := uint32(wkbPoint)
	if withSRID {
		typ |= ewkbSRIDFlg
	}
	buf = order.AppendUint32(buf, typ)
	if withSRID {
		buf = order.AppendUint32(buf, SRID)
	}
	buf = order.AppendUint64(buf, math.Float64bits(x))
	buf = order.AppendUint64(buf, math.Float64bits(y))
	return hex.EncodeToString(buf)
}

func TestDecodeEWKBHex(t *testing.T) {
	// PostGIS output for ST_SetSRID(ST_MakePoint(-118.25, 34.05), 4326)
	p, err := DecodeEWKBHex("0101000020E61000000000000000905DC06666666666064140")
	require.NoError(t, err)
	assert.Equal(t, Point{Longitude: -118.25, Latitude: 34.05}, p)

	for _, order := range []binary.AppendByteOrder{binary.LittleEndian, binary.BigEndian} {
		for _, srid := range []bool{true, false} {
			got, err := DecodeEWKBHex(ewkbHex(order, srid, 151.2093, -33.8688))
			require.NoError(t, err)
			assert.Equal(t, Point{Longitude: 151.2093, Latitude: -33.8688}, got)
		}
	}
}

func TestDecodeEWKBRejectsNonPoint(t *testing.T) {
	buf := []byte{1}
	buf = binary.LittleEndian.AppendUint32(buf, 2) // linestring
	buf = append(buf, make([]byte, 16)...)
	_, err := DecodeEWKB(buf)
	assert.ErrorIs(t, err, ErrInvalidGeometry)

	_, err = DecodeEWKBHex("zz")
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestScanAcceptsBothRepresentations(t *testing.T) {
	var p Point
	require.NoError(t, p.Scan([]byte("POINT(2.3522 48.8566)")))
	assert.Equal(t, Point{Longitude: 2.3522, Latitude: 48.8566}, p)

	require.NoError(t, p.Scan(ewkbHex(binary.LittleEndian, true, -0.1276, 51.5072)))
	assert.Equal(t, Point{Longitude: -0.1276, Latitude: 51.5072}, p)

	assert.Error(t, p.Scan(nil))
	assert.Error(t, p.Scan(42))
}

func TestValueIsEWKT(t *testing.T) {
	v, err := Point{Longitude: -118.25, Latitude: 34.05}.Value()
	require.NoError(t, err)
	assert.Equal(t, "SRID=4326;POINT(-118.25 34.05)", v)
}

func TestKilometersToDegrees(t *testing.T) {
	assert.InDelta(t, 9.009009, KilometersToDegrees(DefaultSearchRadiusKm), 1e-6)
	assert.Equal(t, 1.0, KilometersToDegrees(111))
}

func TestValid(t *testing.T) {
	assert.True(t, Point{Longitude: -180, Latitude: 90}.Valid())
	assert.False(t, Point{Longitude: 181, Latitude: 0}.Valid())
	assert.False(t, Point{Longitude: 0, Latitude: math.NaN()}.Valid())
}
