package importer

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelari/skylog/internal/export"
	"github.com/avelari/skylog/internal/flight"
	"github.com/avelari/skylog/internal/storage/sqlite"
	"github.com/avelari/skylog/pkg/logger"
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

func newTestImporter(t *testing.T) (*Importer, *sqlite.FlightStorage) {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "skylog-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	require.NoError(t, err)

	storage, err := sqlite.NewFlightStorage(db, log)
	require.NoError(t, err)

	return New(storage, log, NewJSONParser()), storage
}

func exportedFlight(t *testing.T) []byte {
	t.Helper()
	start := time.Date(2024, 6, 14, 10, 30, 0, 0, time.UTC)
	s := &flight.Series{
		Time:           []float64{0, 1, 2},
		Latitude:       []*float64{fp(52.52), fp(52.5205), fp(52.521)},
		Longitude:      []*float64{fp(13.405), fp(13.405), fp(13.405)},
		Height:         []*float64{fp(0), fp(30), fp(10)},
		Speed:          []*float64{fp(0), fp(12), fp(5)},
		BatteryPercent: []*int{ip(100), ip(97), ip(95)},
	}
	d := &flight.Data{
		Flight: &flight.Flight{
			ID:          99,
			DisplayName: "Exported flight",
			DroneModel:  "Mini 4 Pro",
			StartTime:   &start,
			PointCount:  3,
		},
		Series:   s,
		Messages: []flight.Message{{OffsetSecs: 1, Severity: "tip", Text: "Takeoff"}},
	}
	out, err := export.BuildJSON(d, export.Meta{AppVersion: "1.0.0", GeneratedAt: start})
	require.NoError(t, err)
	return out
}

func TestImportFileJSONRoundTrip(t *testing.T) {
	im, storage := newTestImporter(t)

	f, err := im.ImportFile("backup.json", exportedFlight(t))
	require.NoError(t, err)
	assert.NotEqual(t, int64(99), f.ID) // fresh identity, not the exported one
	assert.Equal(t, "Exported flight", f.DisplayName)
	assert.Equal(t, 3, f.PointCount)

	d, err := storage.GetFlightData(f.ID, 0)
	require.NoError(t, err)
	require.Equal(t, 3, d.Series.Len())
	require.NotNil(t, d.Series.BatteryPercent[2])
	assert.Equal(t, 95, *d.Series.BatteryPercent[2])
	require.Len(t, d.Messages, 1)

	// Derived stats were computed at import time.
	assert.Equal(t, 30.0, d.Flight.MaxAltitudeM)
	assert.Equal(t, 12.0, d.Flight.MaxSpeedMS)
	assert.Greater(t, d.Flight.TotalDistanceM, 0.0)
	assert.Greater(t, d.Flight.MaxDistanceM, 0.0)
	require.NotNil(t, d.Flight.HomeLat)
	assert.Equal(t, 52.52, *d.Flight.HomeLat)

	// The drone model becomes an auto tag.
	require.NotEmpty(t, d.Flight.Tags)
	assert.Equal(t, "Mini 4 Pro", d.Flight.Tags[0].Text)
	assert.True(t, d.Flight.Tags[0].Auto)
}

func TestImportFileRejectsDuplicate(t *testing.T) {
	im, _ := newTestImporter(t)
	data := exportedFlight(t)

	_, err := im.ImportFile("backup.json", data)
	require.NoError(t, err)

	_, err = im.ImportFile("backup-copy.json", data)
	assert.ErrorIs(t, err, sqlite.ErrDuplicateFlight)
}

func TestImportFileNoParser(t *testing.T) {
	im, _ := newTestImporter(t)
	_, err := im.ImportFile("video.mp4", []byte("not a log"))
	assert.Error(t, err)
}

func TestImportFileMalformedJSON(t *testing.T) {
	im, _ := newTestImporter(t)

	_, err := im.ImportFile("broken.json", []byte(`{"format": "something-else"}`))
	assert.Error(t, err)

	_, err = im.ImportFile("invalid.json", []byte(`{`))
	assert.Error(t, err)
}

func TestCreateManualEntry(t *testing.T) {
	im, storage := newTestImporter(t)

	start := time.Date(2024, 6, 14, 18, 0, 0, 0, time.UTC)
	f, err := im.CreateManualEntry(ManualEntry{
		DisplayName:  "Evening practice",
		StartTime:    &start,
		DurationSecs: 300,
		DroneModel:   "Air 3",
		HomeLat:      fp(48.2),
		HomeLon:      fp(16.37),
		MaxAltitudeM: 40,
	})
	require.NoError(t, err)
	assert.True(t, f.Manual())

	stored, err := storage.GetFlight(f.ID)
	require.NoError(t, err)
	assert.Equal(t, "Evening practice", stored.DisplayName)
	assert.Equal(t, 0, stored.PointCount)
	assert.Equal(t, 300.0, stored.DurationSecs)
	require.NotEmpty(t, stored.Tags)
	assert.Equal(t, "Air 3", stored.Tags[0].Text)
}

func TestCreateManualEntryValidation(t *testing.T) {
	im, _ := newTestImporter(t)

	_, err := im.CreateManualEntry(ManualEntry{})
	assert.Error(t, err)

	_, err = im.CreateManualEntry(ManualEntry{DisplayName: "x", DurationSecs: -1})
	assert.Error(t, err)
}

func TestJSONParserCanParse(t *testing.T) {
	p := NewJSONParser()
	assert.True(t, p.CanParse("flight.json"))
	assert.True(t, p.CanParse("FLIGHT.JSON"))
	assert.False(t, p.CanParse("flight.txt"))
}
