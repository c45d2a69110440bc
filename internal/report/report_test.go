package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelari/skylog/internal/flight"
	"github.com/avelari/skylog/internal/weather"
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

func testFlight(name string, start *time.Time) *flight.Flight {
	return &flight.Flight{
		DisplayName:    name,
		DroneModel:     "Mini 4 Pro",
		StartTime:      start,
		DurationSecs:   600,
		TotalDistanceM: 2500,
		MaxAltitudeM:   80,
		MaxSpeedMS:     15,
		MaxDistanceM:   400,
		HomeLat:        fp(52.52),
		HomeLon:        fp(13.405),
		PointCount:     100,
	}
}

func at(y int, m time.Month, d, hh, mm int) *time.Time {
	t := time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
	return &t
}

func defaultOptions() Options {
	return Options{
		Fields:      DefaultFieldToggles(),
		GeneratedAt: time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestBuildGroupsByDayAndSortsUnknownLast(t *testing.T) {
	entries := []Entry{
		{Flight: testFlight("No date", nil)},
		{Flight: testFlight("June 15", at(2024, 6, 15, 9, 0))},
		{Flight: testFlight("June 14 late", at(2024, 6, 14, 18, 0))},
		{Flight: testFlight("June 14 early", at(2024, 6, 14, 8, 0))},
	}

	out, err := Build(entries, defaultOptions())
	require.NoError(t, err)

	first := strings.Index(out, "Saturday, June 15, 2024")
	second := strings.Index(out, "Friday, June 14, 2024")
	unknown := strings.Index(out, "Unknown date")
	require.Positive(t, second)
	assert.Less(t, second, first)
	assert.Greater(t, unknown, first)

	// Within a day, flights sort by start time.
	assert.Less(t, strings.Index(out, "June 14 early"), strings.Index(out, "June 14 late"))
}

func TestBuildTotals(t *testing.T) {
	entries := []Entry{
		{Flight: testFlight("A", at(2024, 6, 14, 9, 0))},
		{Flight: testFlight("B", at(2024, 6, 15, 9, 0))},
	}

	out, err := Build(entries, defaultOptions())
	require.NoError(t, err)

	assert.Contains(t, out, "2 flights")
	assert.Contains(t, out, "20m 0s")
	assert.Contains(t, out, "5.00 km")
}

func TestBuildImperialUnits(t *testing.T) {
	opts := defaultOptions()
	opts.Imperial = true

	out, err := Build([]Entry{{Flight: testFlight("A", at(2024, 6, 14, 9, 0))}}, opts)
	require.NoError(t, err)

	assert.Contains(t, out, "1.55 mi")  // 2500 m
	assert.Contains(t, out, "262 ft")   // 80 m
	assert.Contains(t, out, "33.6 mph") // 15 m/s
	assert.NotContains(t, out, "km/h")
}

func TestBuildWeatherGroupSuppressedWhenEmpty(t *testing.T) {
	entries := []Entry{
		{Flight: testFlight("No weather", at(2024, 6, 14, 9, 0))},
		{Flight: testFlight("Empty weather", at(2024, 6, 14, 10, 0)), Weather: &weather.Observation{}},
	}

	out, err := Build(entries, defaultOptions())
	require.NoError(t, err)
	assert.NotContains(t, out, "Weather")
}

func TestBuildWeatherGroupRendered(t *testing.T) {
	obs := &weather.Observation{
		TemperatureC: fp(21.5),
		WindSpeedKMH: fp(18),
	}
	out, err := Build([]Entry{{Flight: testFlight("A", at(2024, 6, 14, 9, 0)), Weather: obs}}, defaultOptions())
	require.NoError(t, err)

	assert.Contains(t, out, "Weather")
	assert.Contains(t, out, "21.5 °C")
	assert.Contains(t, out, "18.0 km/h")
	// Quantities the provider did not report render as unknown.
	assert.Contains(t, out, unknownValue)
}

func TestBuildDisabledGroupOmitted(t *testing.T) {
	opts := defaultOptions()
	opts.Fields.TotalDistance = false
	opts.Fields.MaxAltitude = false
	opts.Fields.MaxSpeed = false
	opts.Fields.MaxDistance = false
	opts.Fields.TakeoffBattery = false
	opts.Fields.LandingBattery = false

	out, err := Build([]Entry{{Flight: testFlight("A", at(2024, 6, 14, 9, 0))}}, opts)
	require.NoError(t, err)
	assert.NotContains(t, out, "Performance")
}

func TestBuildBatteryEndpointsFromTelemetry(t *testing.T) {
	s := &flight.Series{
		Time:           []float64{0, 1, 2},
		BatteryPercent: []*int{nil, ip(96), ip(71)},
	}
	out, err := Build([]Entry{{Flight: testFlight("A", at(2024, 6, 14, 9, 0)), Series: s}}, defaultOptions())
	require.NoError(t, err)

	assert.Contains(t, out, "Takeoff battery")
	assert.Contains(t, out, "96%")
	assert.Contains(t, out, "71%")
}

func TestBuildEquipmentNameLookup(t *testing.T) {
	f := testFlight("A", at(2024, 6, 14, 9, 0))
	f.DroneSerial = "SN123"
	f.BatterySerial = "BAT9"
	e := Entry{
		Flight:         f,
		EquipmentNames: map[string]string{"SN123": "My Mini", "BAT9": "Battery #2"},
	}

	out, err := Build([]Entry{e}, defaultOptions())
	require.NoError(t, err)
	assert.Contains(t, out, "My Mini")
	assert.Contains(t, out, "Battery #2")
}

func TestBuildMediaCountsEvents(t *testing.T) {
	s := &flight.Series{
		Time:    []float64{0, 1, 2, 3, 4, 5},
		IsPhoto: []bool{false, true, false, true, false, false},
		IsVideo: []bool{false, false, true, true, true, false},
	}
	out, err := Build([]Entry{{Flight: testFlight("A", at(2024, 6, 14, 9, 0)), Series: s}}, defaultOptions())
	require.NoError(t, err)

	assert.Contains(t, out, "Photos")
	assert.Contains(t, out, ">2<")
	assert.Contains(t, out, "Video recordings")
	assert.Contains(t, out, ">1<")
}

func TestBuildEscapesUserText(t *testing.T) {
	f := testFlight(`<script>alert("x")</script>`, at(2024, 6, 14, 9, 0))
	out, err := Build([]Entry{{Flight: f}}, defaultOptions())
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestBuildRejectsNilFlight(t *testing.T) {
	_, err := Build([]Entry{{}}, defaultOptions())
	assert.Error(t, err)
}

func TestBuildSelfContained(t *testing.T) {
	out, err := Build([]Entry{{Flight: testFlight("A", at(2024, 6, 14, 9, 0))}}, defaultOptions())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.NotContains(t, out, "http://")
	assert.NotContains(t, out, "https://")
	assert.NotContains(t, out, "<link")
}
