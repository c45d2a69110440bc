package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelari/skylog/internal/flight"
	"github.com/avelari/skylog/internal/geo"
)

func ip(v int) *int { return &v }

func TestDistanceToHomeNoPositions(t *testing.T) {
	s := &flight.Series{
		Time:      []float64{0, 1, 2},
		Latitude:  []*float64{nil, nil, nil},
		Longitude: []*float64{nil, nil, nil},
	}

	dists := DistanceToHome(s)
	require.Len(t, dists, 3)
	for _, d := range dists {
		assert.Nil(t, d)
	}
	assert.Nil(t, MaxDistanceFromHome(s))
}

func TestDistanceToHomeLateFix(t *testing.T) {
	// GPS fix arrives at index 2; that sample becomes home.
	s := &flight.Series{
		Time:      []float64{0, 1, 2, 3, 4},
		Latitude:  []*float64{nil, nil, fp(47.0), fp(47.0005), nil},
		Longitude: []*float64{nil, nil, fp(-122.0), fp(-122.0), nil},
	}

	dists := DistanceToHome(s)
	require.Len(t, dists, 5)

	assert.Nil(t, dists[0])
	assert.Nil(t, dists[1])
	assert.Nil(t, dists[4])

	require.NotNil(t, dists[2])
	assert.Zero(t, *dists[2], "home point is zero meters from itself")

	require.NotNil(t, dists[3])
	assert.InDelta(t, 55.6, *dists[3], 0.2)

	max := MaxDistanceFromHome(s)
	require.NotNil(t, max)
	assert.Equal(t, *dists[3], *max)
}

func TestComputeStats(t *testing.T) {
	s := &flight.Series{
		Time:      []float64{0, 1, 2},
		Latitude:  []*float64{fp(47.0), fp(47.0001), fp(47.0002)},
		Longitude: []*float64{fp(-122.0), fp(-122.0), fp(-122.0)},
		Height:    []*float64{fp(0), fp(35), fp(10)},
		Speed:     []*float64{fp(0), fp(12.5), fp(3)},
	}

	st := ComputeStats(s)
	assert.InDelta(t, 22.2, st.TotalDistanceM, 0.2)
	assert.Equal(t, 35.0, st.MaxAltitudeM)
	assert.Equal(t, 12.5, st.MaxSpeedMS)
	assert.InDelta(t, 22.2, st.MaxDistanceM, 0.2)
}

func TestBatteryEndpoints(t *testing.T) {
	s := &flight.Series{
		Time:           []float64{0, 1, 2, 3},
		BatteryPercent: []*int{nil, ip(98), ip(60), nil},
	}
	takeoff, landing := BatteryEndpoints(s)
	require.NotNil(t, takeoff)
	require.NotNil(t, landing)
	assert.Equal(t, 98, *takeoff)
	assert.Equal(t, 60, *landing)

	none, _ := BatteryEndpoints(&flight.Series{Time: []float64{0}})
	assert.Nil(t, none)
}

func TestPathColorsConstantValue(t *testing.T) {
	// Constant height must not divide by zero: every point maps to the
	// ramp's zero-intensity color.
	points := []geo.Point{
		{Lon: 10, Lat: 40, Height: 10},
		{Lon: 10.001, Lat: 40.001, Height: 10},
		{Lon: 10.002, Lat: 40.002, Height: 10},
	}

	colors := PathColors(points, ColorByHeight, nil)
	require.Len(t, colors, 3)
	for _, c := range colors {
		assert.Equal(t, "#2866df", c)
	}
}

func TestPathColorsProgress(t *testing.T) {
	points := []geo.Point{
		{Lon: 10, Lat: 40},
		{Lon: 10.001, Lat: 40.001},
		{Lon: 10.002, Lat: 40.002},
	}

	colors := PathColors(points, ColorByProgress, nil)
	require.Len(t, colors, 3)
	assert.Equal(t, "#2866df", colors[0]) // first ramp stop
	assert.Equal(t, "#e53935", colors[2]) // last ramp stop
	assert.NotEqual(t, colors[0], colors[1])
}

func TestPathColorsDistanceWithoutHome(t *testing.T) {
	points := []geo.Point{{Lon: 10, Lat: 40}, {Lon: 10.01, Lat: 40.01}}
	colors := PathColors(points, ColorByDistance, nil)
	require.Len(t, colors, 2)
	// No home means a constant zero scalar.
	assert.Equal(t, colors[0], colors[1])
}

func TestRampColorClamps(t *testing.T) {
	assert.Equal(t, "#2866df", rampColor(DefaultRamp, -0.5))
	assert.Equal(t, "#e53935", rampColor(DefaultRamp, 1.5))
}
