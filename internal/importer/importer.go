// Package importer turns uploaded log files into stored flights. Parsing is
// pluggable: each source format implements Parser, and the importer owns
// everything format-independent (dedup hashing, derived stats, default
// naming, auto tags, persistence).
package importer

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avelari/skylog/internal/flight"
	"github.com/avelari/skylog/internal/storage/sqlite"
	"github.com/avelari/skylog/internal/telemetry"
	"github.com/avelari/skylog/pkg/logger"
)

// Parser decodes one source log format into the domain model.
type Parser interface {
	// CanParse reports whether this parser handles the given file name.
	CanParse(filename string) bool
	// Parse decodes the file. Returned flight metadata may be partial; the
	// importer fills derived fields before storing.
	Parse(r io.Reader) (*Result, error)
}

// Result is a parsed but not yet stored flight.
type Result struct {
	Flight   *flight.Flight
	Records  []flight.Record
	Messages []flight.Message
}

// Importer coordinates parsers and storage.
type Importer struct {
	storage *sqlite.FlightStorage
	parsers []Parser
	logger  *logger.Logger
}

// New creates an importer backed by the given storage and parser set.
func New(storage *sqlite.FlightStorage, log *logger.Logger, parsers ...Parser) *Importer {
	return &Importer{
		storage: storage,
		parsers: parsers,
		logger:  log.Named("importer"),
	}
}

// ImportFile parses and stores one uploaded log file. A file whose content
// hash matches an already-imported flight is rejected with
// sqlite.ErrDuplicateFlight before any parsing happens.
func (im *Importer) ImportFile(filename string, data []byte) (*flight.Flight, error) {
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	exists, err := im.storage.HasFileHash(hash)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, sqlite.ErrDuplicateFlight
	}

	parser := im.parserFor(filename)
	if parser == nil {
		return nil, fmt.Errorf("no parser for file %q", filename)
	}

	res, err := parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %q: %w", filename, err)
	}

	f := res.Flight
	if f == nil {
		f = &flight.Flight{}
	}
	f.FileName = filepath.Base(filename)
	f.FileHash = hash
	finalize(f, res.Records)

	id, err := im.storage.StoreFlight(f, res.Records, res.Messages)
	if err != nil {
		return nil, err
	}
	f.ID = id
	f.PointCount = len(res.Records)

	im.logger.Info("Imported flight",
		logger.Int64("flight_id", id),
		logger.String("file", f.FileName),
		logger.Int("points", len(res.Records)),
	)
	return f, nil
}

// ManualEntry is a logbook-only flight created without a source log.
type ManualEntry struct {
	DisplayName  string     `json:"display_name"`
	StartTime    *time.Time `json:"start_time"`
	DurationSecs float64    `json:"duration_secs"`
	DroneModel   string     `json:"drone_model"`
	AircraftName string     `json:"aircraft_name"`
	HomeLat      *float64   `json:"home_lat"`
	HomeLon      *float64   `json:"home_lon"`
	MaxAltitudeM float64    `json:"max_altitude_m"`
	Notes        string     `json:"notes"`
}

// CreateManualEntry stores a flight with no telemetry. The synthetic file
// name keeps manual entries unique without occupying the hash-dedup space.
func (im *Importer) CreateManualEntry(entry ManualEntry) (*flight.Flight, error) {
	if entry.DisplayName == "" {
		return nil, fmt.Errorf("manual entry requires a display name")
	}
	if entry.DurationSecs < 0 {
		return nil, fmt.Errorf("manual entry duration must not be negative")
	}

	f := &flight.Flight{
		FileName:     "manual-" + uuid.NewString(),
		DisplayName:  entry.DisplayName,
		DroneModel:   entry.DroneModel,
		AircraftName: entry.AircraftName,
		StartTime:    entry.StartTime,
		DurationSecs: entry.DurationSecs,
		MaxAltitudeM: entry.MaxAltitudeM,
		HomeLat:      entry.HomeLat,
		HomeLon:      entry.HomeLon,
		Notes:        entry.Notes,
		ImportedAt:   time.Now(),
	}
	if entry.DroneModel != "" {
		f.Tags = []flight.Tag{{Text: entry.DroneModel, Auto: true}}
	}

	id, err := im.storage.StoreFlight(f, nil, nil)
	if err != nil {
		return nil, err
	}
	f.ID = id

	im.logger.Info("Created manual entry",
		logger.Int64("flight_id", id),
		logger.String("display_name", f.DisplayName),
	)
	return f, nil
}

func (im *Importer) parserFor(filename string) Parser {
	for _, p := range im.parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// finalize fills the derived and defaulted flight fields from the parsed
// telemetry: aggregate stats, home position, duration, display name and the
// drone-model auto tag.
func finalize(f *flight.Flight, records []flight.Record) {
	series := flight.FromRecords(records)

	stats := telemetry.ComputeStats(series)
	if f.TotalDistanceM == 0 {
		f.TotalDistanceM = stats.TotalDistanceM
	}
	if f.MaxAltitudeM == 0 {
		f.MaxAltitudeM = stats.MaxAltitudeM
	}
	if f.MaxSpeedMS == 0 {
		f.MaxSpeedMS = stats.MaxSpeedMS
	}
	if f.MaxDistanceM == 0 {
		f.MaxDistanceM = stats.MaxDistanceM
	}

	if f.HomeLat == nil || f.HomeLon == nil {
		if lat, lon, ok := telemetry.HomePoint(series); ok {
			f.HomeLat, f.HomeLon = &lat, &lon
		}
	}

	if f.DurationSecs == 0 && series.Len() > 0 {
		f.DurationSecs = series.Time[series.Len()-1]
	}

	if f.DisplayName == "" {
		if f.StartTime != nil {
			f.DisplayName = "Flight " + f.StartTime.Format("2006-01-02 15:04")
		} else {
			f.DisplayName = strings.TrimSuffix(f.FileName, filepath.Ext(f.FileName))
		}
	}

	if f.DroneModel != "" && !hasTag(f.Tags, f.DroneModel) {
		f.Tags = append(f.Tags, flight.Tag{Text: f.DroneModel, Auto: true})
	}

	if f.ImportedAt.IsZero() {
		f.ImportedAt = time.Now()
	}
}

func hasTag(tags []flight.Tag, text string) bool {
	for _, t := range tags {
		if t.Text == text {
			return true
		}
	}
	return false
}
