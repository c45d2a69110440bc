package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineReflexive(t *testing.T) {
	coords := [][2]float64{
		{0, 0},
		{47.6097, -122.3331},
		{-33.8688, 151.2093},
		{89.9, 179.9},
	}
	for _, c := range coords {
		assert.Zero(t, Haversine(c[0], c[1], c[0], c[1]))
	}
}

func TestHaversineSymmetric(t *testing.T) {
	d1 := Haversine(47.6097, -122.3331, 47.6205, -122.3493)
	d2 := Haversine(47.6205, -122.3493, 47.6097, -122.3331)
	assert.InDelta(t, d1, d2, 1e-9)
}

func TestHaversineKnownDistance(t *testing.T) {
	// One degree of latitude on a 6371km sphere is pi*R/180 meters.
	d := Haversine(47.0, 10.0, 48.0, 10.0)
	assert.InDelta(t, 111194.93, d, 0.5)

	// Short hop, roughly 11.1m per 1e-4 degrees of latitude.
	d = Haversine(47.0, 10.0, 47.0001, 10.0)
	assert.InDelta(t, 11.12, d, 0.05)
}

func TestTrackCenter(t *testing.T) {
	_, ok := TrackCenter(nil)
	assert.False(t, ok)

	center, ok := TrackCenter([]Point{
		{Lon: 10, Lat: 40},
		{Lon: 12, Lat: 42},
	})
	require.True(t, ok)
	assert.InDelta(t, 11.0, center.Lon, 1e-9)
	assert.InDelta(t, 41.0, center.Lat, 1e-9)
}

func TestTrackBounds(t *testing.T) {
	assert.Nil(t, TrackBounds(nil))

	b := TrackBounds([]Point{
		{Lon: 10, Lat: 42},
		{Lon: 12, Lat: 40},
		{Lon: 11, Lat: 41},
	})
	require.NotNil(t, b)
	assert.Equal(t, 10.0, b.MinLon)
	assert.Equal(t, 12.0, b.MaxLon)
	assert.Equal(t, 40.0, b.MinLat)
	assert.Equal(t, 42.0, b.MaxLat)
}

func TestCatmullRomSmoothPassthrough(t *testing.T) {
	track := []Point{
		{Lon: 10, Lat: 40},
		{Lon: 10.001, Lat: 40.001},
		{Lon: 10.002, Lat: 40.001},
	}

	// Zero resolution means no insertions.
	assert.Equal(t, track, CatmullRomSmooth(track, 0))

	// Degenerate inputs pass through verbatim.
	assert.Equal(t, track[:2], CatmullRomSmooth(track[:2], 5))
	assert.Empty(t, CatmullRomSmooth(nil, 5))
}

func TestCatmullRomSmoothInsertsPoints(t *testing.T) {
	track := []Point{
		{Lon: 10, Lat: 40, Height: 0},
		{Lon: 10.001, Lat: 40.001, Height: 10},
		{Lon: 10.002, Lat: 40.001, Height: 20},
		{Lon: 10.003, Lat: 40.000, Height: 5},
	}

	res := 4
	smoothed := CatmullRomSmooth(track, res)

	// n originals plus resolution points per segment.
	assert.Len(t, smoothed, len(track)+(len(track)-1)*res)

	// The spline passes through the original points, in order.
	assert.Equal(t, track[0], smoothed[0])
	assert.Equal(t, track[1], smoothed[res+1])
	assert.Equal(t, track[len(track)-1], smoothed[len(smoothed)-1])
}

func TestCatmullRomSmoothDeterministic(t *testing.T) {
	track := []Point{
		{Lon: 10, Lat: 40},
		{Lon: 10.002, Lat: 40.002, Height: 15},
		{Lon: 10.004, Lat: 40.001, Height: 30},
	}
	assert.Equal(t, CatmullRomSmooth(track, 3), CatmullRomSmooth(track, 3))
}

func TestBearing(t *testing.T) {
	// Due north and due east from the same origin.
	assert.InDelta(t, 0.0, Bearing(47.0, 10.0, 48.0, 10.0), 1e-6)
	assert.InDelta(t, 90.0, Bearing(0.0, 10.0, 0.0, 11.0), 0.5)
}
