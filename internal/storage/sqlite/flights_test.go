package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelari/skylog/internal/flight"
	"github.com/avelari/skylog/pkg/logger"
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

func newTestStorage(t *testing.T) *FlightStorage {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "skylog-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	require.NoError(t, err)

	storage, err := NewFlightStorage(db, log)
	require.NoError(t, err)
	return storage
}

func testRecords(n int) []flight.Record {
	records := make([]flight.Record, n)
	for i := range records {
		records[i] = flight.Record{
			TimestampMS:    int64(i * 100),
			Latitude:       fp(52.52 + float64(i)*0.0001),
			Longitude:      fp(13.405),
			Height:         fp(float64(i)),
			Speed:          fp(5),
			BatteryPercent: ip(100 - i%50),
		}
	}
	return records
}

func testStoredFlight() *flight.Flight {
	start := time.Date(2024, 6, 14, 10, 30, 0, 0, time.UTC)
	return &flight.Flight{
		FileName:       "DJIFlightRecord_2024-06-14.txt",
		DisplayName:    "Morning flight",
		FileHash:       "abc123",
		DroneModel:     "Mini 4 Pro",
		DroneSerial:    "SN123",
		StartTime:      &start,
		DurationSecs:   600,
		TotalDistanceM: 2500,
		MaxAltitudeM:   80,
		MaxSpeedMS:     15,
		MaxDistanceM:   400,
		HomeLat:        fp(52.52),
		HomeLon:        fp(13.405),
		Notes:          "windy",
		Tags:           []flight.Tag{{Text: "Mini 4 Pro", Auto: true}, {Text: "sunset"}},
	}
}

func TestStoreAndGetFlight(t *testing.T) {
	s := newTestStorage(t)

	id, err := s.StoreFlight(testStoredFlight(), testRecords(10), []flight.Message{
		{OffsetSecs: 1.5, Severity: "warning", Text: "Strong wind"},
	})
	require.NoError(t, err)
	require.Positive(t, id)

	f, err := s.GetFlight(id)
	require.NoError(t, err)
	assert.Equal(t, "Morning flight", f.DisplayName)
	assert.Equal(t, "Mini 4 Pro", f.DroneModel)
	assert.Equal(t, 10, f.PointCount)
	assert.Equal(t, 2500.0, f.TotalDistanceM)
	require.NotNil(t, f.StartTime)
	assert.Equal(t, time.Date(2024, 6, 14, 10, 30, 0, 0, time.UTC), f.StartTime.UTC())
	require.NotNil(t, f.HomeLat)
	assert.Equal(t, 52.52, *f.HomeLat)
	require.Len(t, f.Tags, 2)
	assert.True(t, f.Tags[0].Auto)
}

func TestGetFlightNotFound(t *testing.T) {
	s := newTestStorage(t)
	_, err := s.GetFlight(42)
	assert.ErrorIs(t, err, ErrFlightNotFound)
}

func TestStoreFlightRejectsDuplicateHash(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.StoreFlight(testStoredFlight(), testRecords(5), nil)
	require.NoError(t, err)

	_, err = s.StoreFlight(testStoredFlight(), testRecords(5), nil)
	assert.ErrorIs(t, err, ErrDuplicateFlight)
}

func TestStoreFlightAllowsEmptyHash(t *testing.T) {
	s := newTestStorage(t)

	manual := &flight.Flight{DisplayName: "Manual A"}
	_, err := s.StoreFlight(manual, nil, nil)
	require.NoError(t, err)

	manual2 := &flight.Flight{DisplayName: "Manual B"}
	_, err = s.StoreFlight(manual2, nil, nil)
	require.NoError(t, err)
}

func TestGetAllFlightsOrdering(t *testing.T) {
	s := newTestStorage(t)

	older := testStoredFlight()
	older.FileHash = "h1"
	older.DisplayName = "Older"
	earlier := older.StartTime.Add(-24 * time.Hour)
	older.StartTime = &earlier

	newer := testStoredFlight()
	newer.FileHash = "h2"
	newer.DisplayName = "Newer"

	undated := testStoredFlight()
	undated.FileHash = "h3"
	undated.DisplayName = "Undated"
	undated.StartTime = nil

	for _, f := range []*flight.Flight{older, newer, undated} {
		_, err := s.StoreFlight(f, nil, nil)
		require.NoError(t, err)
	}

	flights, err := s.GetAllFlights()
	require.NoError(t, err)
	require.Len(t, flights, 3)
	assert.Equal(t, "Newer", flights[0].DisplayName)
	assert.Equal(t, "Older", flights[1].DisplayName)
	assert.Equal(t, "Undated", flights[2].DisplayName)
}

func TestUpdateDisplayNameAndNotes(t *testing.T) {
	s := newTestStorage(t)
	id, err := s.StoreFlight(testStoredFlight(), nil, nil)
	require.NoError(t, err)

	require.NoError(t, s.UpdateDisplayName(id, "Renamed"))
	require.NoError(t, s.UpdateNotes(id, "calm evening"))

	f, err := s.GetFlight(id)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", f.DisplayName)
	assert.Equal(t, "calm evening", f.Notes)

	assert.ErrorIs(t, s.UpdateDisplayName(999, "x"), ErrFlightNotFound)
}

func TestSetTags(t *testing.T) {
	s := newTestStorage(t)
	id, err := s.StoreFlight(testStoredFlight(), nil, nil)
	require.NoError(t, err)

	require.NoError(t, s.SetTags(id, []flight.Tag{{Text: "replaced"}}))

	f, err := s.GetFlight(id)
	require.NoError(t, err)
	require.Len(t, f.Tags, 1)
	assert.Equal(t, "replaced", f.Tags[0].Text)

	assert.ErrorIs(t, s.SetTags(999, nil), ErrFlightNotFound)
}

func TestDeleteFlightCascades(t *testing.T) {
	s := newTestStorage(t)
	id, err := s.StoreFlight(testStoredFlight(), testRecords(20), []flight.Message{
		{OffsetSecs: 0, Severity: "tip", Text: "Takeoff"},
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteFlight(id))

	_, err = s.GetFlight(id)
	assert.ErrorIs(t, err, ErrFlightNotFound)

	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM telemetry`).Scan(&n))
	assert.Zero(t, n)
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&n))
	assert.Zero(t, n)

	assert.ErrorIs(t, s.DeleteFlight(id), ErrFlightNotFound)
}

func TestDeleteAllFlights(t *testing.T) {
	s := newTestStorage(t)
	for _, hash := range []string{"h1", "h2"} {
		f := testStoredFlight()
		f.FileHash = hash
		_, err := s.StoreFlight(f, testRecords(5), nil)
		require.NoError(t, err)
	}

	require.NoError(t, s.DeleteAllFlights())

	flights, err := s.GetAllFlights()
	require.NoError(t, err)
	assert.Empty(t, flights)
}

func TestGetFlightDataRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	id, err := s.StoreFlight(testStoredFlight(), testRecords(50), []flight.Message{
		{OffsetSecs: 2, Severity: "warning", Text: "Wind"},
	})
	require.NoError(t, err)

	d, err := s.GetFlightData(id, 0)
	require.NoError(t, err)
	require.NotNil(t, d.Series)
	assert.Equal(t, 50, d.Series.Len())
	require.NoError(t, d.Series.Validate())

	// Time converts from stored milliseconds to seconds from start.
	assert.Equal(t, 0.0, d.Series.Time[0])
	assert.Equal(t, 0.1, d.Series.Time[1])

	require.NotNil(t, d.Series.Latitude[0])
	assert.Equal(t, 52.52, *d.Series.Latitude[0])

	require.Len(t, d.Messages, 1)
	assert.Equal(t, "Wind", d.Messages[0].Text)
	assert.NotEmpty(t, d.Track)
}

func TestGetFlightDataDownsamples(t *testing.T) {
	s := newTestStorage(t)
	id, err := s.StoreFlight(testStoredFlight(), testRecords(500), nil)
	require.NoError(t, err)

	d, err := s.GetFlightData(id, 100)
	require.NoError(t, err)
	assert.LessOrEqual(t, d.Series.Len(), 100)
	require.NoError(t, d.Series.Validate())

	// Endpoints survive the reduction.
	assert.Equal(t, 0.0, d.Series.Time[0])
	assert.Equal(t, 49.9, d.Series.Time[d.Series.Len()-1])

	// The track is cut from the reduced series, never longer than it.
	assert.LessOrEqual(t, len(d.Track), d.Series.Len())
}

func TestGetOverview(t *testing.T) {
	s := newTestStorage(t)

	a := testStoredFlight()
	a.FileHash = "h1"
	a.BatterySerial = "BAT1"
	b := testStoredFlight()
	b.FileHash = "h2"
	b.DroneModel = "Air 3"
	b.DurationSecs = 1200
	b.MaxAltitudeM = 110
	later := b.StartTime.Add(48 * time.Hour)
	b.StartTime = &later

	idA, err := s.StoreFlight(a, testRecords(10), nil)
	require.NoError(t, err)
	idB, err := s.StoreFlight(b, nil, nil)
	require.NoError(t, err)

	o, err := s.GetOverview()
	require.NoError(t, err)
	assert.Equal(t, 2, o.TotalFlights)
	assert.Equal(t, 1800.0, o.TotalDurationSecs)
	assert.Equal(t, 5000.0, o.TotalDistanceM)
	assert.Equal(t, 110.0, o.MaxAltitudeM)
	assert.Equal(t, 1200.0, o.LongestFlightSecs)
	require.NotNil(t, o.FirstFlight)
	require.NotNil(t, o.LastFlight)
	assert.True(t, o.FirstFlight.Before(*o.LastFlight))
	require.Len(t, o.Drones, 2)

	// Battery telemetry ran 100% down to 91% over 10 minutes of flight.
	require.Len(t, o.Batteries, 1)
	assert.Equal(t, "BAT1", o.Batteries[0].Serial)
	assert.Equal(t, 1, o.Batteries[0].Flights)
	require.NotNil(t, o.Batteries[0].AvgDischargePerMin)
	assert.InDelta(t, 0.9, *o.Batteries[0].AvgDischargePerMin, 1e-9)

	require.Len(t, o.FlightsByDate, 2)
	assert.Equal(t, "2024-06-14", o.FlightsByDate[0].Date)
	assert.Equal(t, 1, o.FlightsByDate[0].Flights)

	require.Len(t, o.TopByDuration, 2)
	assert.Equal(t, idB, o.TopByDuration[0].ID)
	assert.Equal(t, 1200.0, o.TopByDuration[0].Value)

	// Equal max distance ranks by id.
	require.Len(t, o.TopByDistance, 2)
	assert.Equal(t, idA, o.TopByDistance[0].ID)
}

func TestGetOverviewEmpty(t *testing.T) {
	s := newTestStorage(t)

	o, err := s.GetOverview()
	require.NoError(t, err)
	assert.Zero(t, o.TotalFlights)
	assert.Nil(t, o.FirstFlight)
	assert.Empty(t, o.Drones)
}
