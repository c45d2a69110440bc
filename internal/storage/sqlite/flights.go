package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avelari/skylog/internal/flight"
	"github.com/avelari/skylog/pkg/logger"
)

// Sentinel errors surfaced to the API layer.
var (
	ErrFlightNotFound  = errors.New("flight not found")
	ErrDuplicateFlight = errors.New("flight already imported")
)

// FlightStorage handles storage of flights and their telemetry
type FlightStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewFlightStorage creates a new SQLite flight storage
func NewFlightStorage(db *sql.DB, log *logger.Logger) (*FlightStorage, error) {
	storage := &FlightStorage{
		db:     db,
		logger: log.Named("sqlite-flights"),
	}

	if err := storage.initDB(); err != nil {
		return nil, fmt.Errorf("failed to initialize flight storage: %w", err)
	}

	return storage, nil
}

// initDB initializes the database tables
func (s *FlightStorage) initDB() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS flights (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			file_name TEXT NOT NULL,
			display_name TEXT NOT NULL,
			file_hash TEXT,
			drone_model TEXT,
			drone_serial TEXT,
			aircraft_name TEXT,
			battery_serial TEXT,
			start_time TIMESTAMP,
			duration_secs REAL NOT NULL DEFAULT 0,
			total_distance REAL NOT NULL DEFAULT 0,
			max_altitude REAL NOT NULL DEFAULT 0,
			max_speed REAL NOT NULL DEFAULT 0,
			max_distance REAL NOT NULL DEFAULT 0,
			home_lat REAL,
			home_lon REAL,
			point_count INTEGER NOT NULL DEFAULT 0,
			imported_at TIMESTAMP NOT NULL,
			notes TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS telemetry (
			flight_id INTEGER NOT NULL,
			timestamp_ms INTEGER NOT NULL,
			latitude REAL,
			longitude REAL,
			altitude REAL,
			altitude_abs REAL,
			height REAL,
			vps_height REAL,
			speed REAL,
			velocity_x REAL,
			velocity_y REAL,
			velocity_z REAL,
			pitch REAL,
			roll REAL,
			yaw REAL,
			gimbal_pitch REAL,
			battery_percent INTEGER,
			battery_voltage REAL,
			cell_voltage REAL,
			battery_temp REAL,
			satellites INTEGER,
			rc_signal INTEGER,
			rc_uplink INTEGER,
			rc_downlink INTEGER,
			flight_mode TEXT,
			is_photo INTEGER NOT NULL DEFAULT 0,
			is_video INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (flight_id, timestamp_ms),
			FOREIGN KEY (flight_id) REFERENCES flights(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			flight_id INTEGER NOT NULL,
			offset_secs REAL NOT NULL,
			severity TEXT NOT NULL,
			text TEXT NOT NULL,
			FOREIGN KEY (flight_id) REFERENCES flights(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS tags (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			flight_id INTEGER NOT NULL,
			text TEXT NOT NULL,
			auto INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (flight_id) REFERENCES flights(id) ON DELETE CASCADE
		)`,
	}
	for _, tableSQL := range tables {
		if _, err := s.db.Exec(tableSQL); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_flights_start_time ON flights(start_time)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_flights_file_hash ON flights(file_hash) WHERE file_hash != ''`,
		`CREATE INDEX IF NOT EXISTS idx_telemetry_flight_id ON telemetry(flight_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_flight_id ON messages(flight_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tags_flight_id ON tags(flight_id)`,
	}
	for _, indexSQL := range indexes {
		if _, err := s.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

const flightColumns = `id, file_name, display_name, file_hash, drone_model, drone_serial,
	aircraft_name, battery_serial, start_time, duration_secs, total_distance,
	max_altitude, max_speed, max_distance, home_lat, home_lon, point_count,
	imported_at, notes`

// StoreFlight inserts the flight, its telemetry, messages and tags in one
// transaction. A flight whose file hash is already present is rejected with
// ErrDuplicateFlight.
func (s *FlightStorage) StoreFlight(f *flight.Flight, records []flight.Record, messages []flight.Message) (int64, error) {
	if f.FileHash != "" {
		exists, err := s.HasFileHash(f.FileHash)
		if err != nil {
			return 0, err
		}
		if exists {
			return 0, ErrDuplicateFlight
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var startTime interface{}
	if f.StartTime != nil {
		startTime = f.StartTime.UTC().Format(time.RFC3339)
	}
	importedAt := f.ImportedAt
	if importedAt.IsZero() {
		importedAt = time.Now()
	}

	result, err := tx.Exec(
		`INSERT INTO flights
		(file_name, display_name, file_hash, drone_model, drone_serial, aircraft_name,
		battery_serial, start_time, duration_secs, total_distance, max_altitude,
		max_speed, max_distance, home_lat, home_lon, point_count, imported_at, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.FileName, f.DisplayName, f.FileHash, f.DroneModel, f.DroneSerial,
		f.AircraftName, f.BatterySerial, startTime, f.DurationSecs,
		f.TotalDistanceM, f.MaxAltitudeM, f.MaxSpeedMS, f.MaxDistanceM,
		f.HomeLat, f.HomeLon, len(records), importedAt.UTC().Format(time.RFC3339), f.Notes,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert flight: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	if err := insertTelemetry(tx, id, records); err != nil {
		return 0, err
	}

	for _, m := range messages {
		if _, err := tx.Exec(
			`INSERT INTO messages (flight_id, offset_secs, severity, text) VALUES (?, ?, ?, ?)`,
			id, m.OffsetSecs, m.Severity, m.Text,
		); err != nil {
			return 0, fmt.Errorf("failed to insert message: %w", err)
		}
	}

	for _, t := range f.Tags {
		if _, err := tx.Exec(
			`INSERT INTO tags (flight_id, text, auto) VALUES (?, ?, ?)`,
			id, t.Text, t.Auto,
		); err != nil {
			return 0, fmt.Errorf("failed to insert tag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit flight: %w", err)
	}

	s.logger.Info("Stored flight",
		logger.Int64("flight_id", id),
		logger.String("display_name", f.DisplayName),
		logger.Int("points", len(records)),
	)
	return id, nil
}

// insertTelemetry bulk-inserts telemetry rows via a prepared statement
// inside the caller's transaction.
func insertTelemetry(tx *sql.Tx, flightID int64, records []flight.Record) error {
	if len(records) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(
		`INSERT INTO telemetry
		(flight_id, timestamp_ms, latitude, longitude, altitude, altitude_abs,
		height, vps_height, speed, velocity_x, velocity_y, velocity_z,
		pitch, roll, yaw, gimbal_pitch, battery_percent, battery_voltage,
		cell_voltage, battery_temp, satellites, rc_signal, rc_uplink,
		rc_downlink, flight_mode, is_photo, is_video)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare telemetry insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.Exec(
			flightID, r.TimestampMS, r.Latitude, r.Longitude, r.Altitude,
			r.AltitudeAbs, r.Height, r.VPSHeight, r.Speed, r.VelocityX,
			r.VelocityY, r.VelocityZ, r.Pitch, r.Roll, r.Yaw, r.GimbalPitch,
			r.BatteryPercent, r.BatteryVoltage, r.CellVoltage, r.BatteryTemp,
			r.Satellites, r.RCSignal, r.RCUplink, r.RCDownlink, r.FlightMode,
			r.IsPhoto, r.IsVideo,
		); err != nil {
			return fmt.Errorf("failed to insert telemetry row %d: %w", i, err)
		}
	}
	return nil
}

// HasFileHash reports whether a flight with the given source file hash
// already exists.
func (s *FlightStorage) HasFileHash(hash string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM flights WHERE file_hash = ?`, hash).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check file hash: %w", err)
	}
	return n > 0, nil
}

// GetAllFlights returns every flight's metadata, newest first, with undated
// flights last. Telemetry is not loaded.
func (s *FlightStorage) GetAllFlights() ([]*flight.Flight, error) {
	rows, err := s.db.Query(
		`SELECT ` + flightColumns + `
		FROM flights
		ORDER BY start_time IS NULL, start_time DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query flights: %w", err)
	}
	defer rows.Close()

	flights, err := s.scanFlightRows(rows)
	if err != nil {
		return nil, err
	}
	for _, f := range flights {
		if f.Tags, err = s.getTags(f.ID); err != nil {
			return nil, err
		}
	}
	return flights, nil
}

// GetFlight returns one flight's metadata, or ErrFlightNotFound.
func (s *FlightStorage) GetFlight(id int64) (*flight.Flight, error) {
	rows, err := s.db.Query(
		`SELECT `+flightColumns+` FROM flights WHERE id = ?`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query flight: %w", err)
	}
	defer rows.Close()

	flights, err := s.scanFlightRows(rows)
	if err != nil {
		return nil, err
	}
	if len(flights) == 0 {
		return nil, ErrFlightNotFound
	}
	f := flights[0]
	if f.Tags, err = s.getTags(f.ID); err != nil {
		return nil, err
	}
	return f, nil
}

// UpdateDisplayName renames a flight.
func (s *FlightStorage) UpdateDisplayName(id int64, name string) error {
	return s.updateField(id, `UPDATE flights SET display_name = ? WHERE id = ?`, name)
}

// UpdateNotes replaces a flight's notes.
func (s *FlightStorage) UpdateNotes(id int64, notes string) error {
	return s.updateField(id, `UPDATE flights SET notes = ? WHERE id = ?`, notes)
}

func (s *FlightStorage) updateField(id int64, query, value string) error {
	result, err := s.db.Exec(query, value, id)
	if err != nil {
		return fmt.Errorf("failed to update flight: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return ErrFlightNotFound
	}
	return nil
}

// SetTags replaces a flight's tags with the given set.
func (s *FlightStorage) SetTags(id int64, tags []flight.Tag) error {
	if _, err := s.GetFlight(id); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tags WHERE flight_id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear tags: %w", err)
	}
	for _, t := range tags {
		if _, err := tx.Exec(
			`INSERT INTO tags (flight_id, text, auto) VALUES (?, ?, ?)`,
			id, t.Text, t.Auto,
		); err != nil {
			return fmt.Errorf("failed to insert tag: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tags: %w", err)
	}
	return nil
}

// DeleteFlight removes one flight and, via cascade, its telemetry, messages
// and tags.
func (s *FlightStorage) DeleteFlight(id int64) error {
	result, err := s.db.Exec(`DELETE FROM flights WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete flight: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return ErrFlightNotFound
	}
	s.logger.Info("Deleted flight", logger.Int64("flight_id", id))
	return nil
}

// DeleteAllFlights removes every flight in one transaction.
func (s *FlightStorage) DeleteAllFlights() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"telemetry", "messages", "tags", "flights"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete all: %w", err)
	}
	s.logger.Info("Deleted all flights")
	return nil
}

func (s *FlightStorage) getTags(flightID int64) ([]flight.Tag, error) {
	rows, err := s.db.Query(`SELECT text, auto FROM tags WHERE flight_id = ? ORDER BY id`, flightID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	var tags []flight.Tag
	for rows.Next() {
		var t flight.Tag
		if err := rows.Scan(&t.Text, &t.Auto); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (s *FlightStorage) getMessages(flightID int64) ([]flight.Message, error) {
	rows, err := s.db.Query(
		`SELECT offset_secs, severity, text FROM messages WHERE flight_id = ? ORDER BY offset_secs`,
		flightID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []flight.Message
	for rows.Next() {
		var m flight.Message
		if err := rows.Scan(&m.OffsetSecs, &m.Severity, &m.Text); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// scanFlightRows scans database rows into Flight structs
func (s *FlightStorage) scanFlightRows(rows *sql.Rows) ([]*flight.Flight, error) {
	var flights []*flight.Flight
	for rows.Next() {
		var f flight.Flight
		var startTime sql.NullString
		var importedAt string
		var fileHash, droneModel, droneSerial, aircraftName, batterySerial sql.NullString

		if err := rows.Scan(
			&f.ID, &f.FileName, &f.DisplayName, &fileHash, &droneModel,
			&droneSerial, &aircraftName, &batterySerial, &startTime,
			&f.DurationSecs, &f.TotalDistanceM, &f.MaxAltitudeM, &f.MaxSpeedMS,
			&f.MaxDistanceM, &f.HomeLat, &f.HomeLon, &f.PointCount,
			&importedAt, &f.Notes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan flight: %w", err)
		}

		f.FileHash = fileHash.String
		f.DroneModel = droneModel.String
		f.DroneSerial = droneSerial.String
		f.AircraftName = aircraftName.String
		f.BatterySerial = batterySerial.String

		if startTime.Valid {
			t, err := time.Parse(time.RFC3339, startTime.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse start_time: %w", err)
			}
			f.StartTime = &t
		}
		t, err := time.Parse(time.RFC3339, importedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse imported_at: %w", err)
		}
		f.ImportedAt = t

		flights = append(flights, &f)
	}
	return flights, rows.Err()
}
