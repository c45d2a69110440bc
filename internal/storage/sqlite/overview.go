package sqlite

import (
	"database/sql"
	"fmt"
	"time"
)

// topFlightLimit caps the "top flights" lists on the dashboard.
const topFlightLimit = 5

// Overview is the aggregate logbook summary shown on the dashboard.
type Overview struct {
	TotalFlights      int          `json:"total_flights"`
	TotalDurationSecs float64      `json:"total_duration_secs"`
	TotalDistanceM    float64      `json:"total_distance_m"`
	MaxAltitudeM      float64      `json:"max_altitude_m"`
	MaxSpeedMS        float64      `json:"max_speed_ms"`
	LongestFlightSecs float64      `json:"longest_flight_secs"`
	FirstFlight       *time.Time   `json:"first_flight"`
	LastFlight        *time.Time   `json:"last_flight"`
	Drones            []DroneUsage `json:"drones"`

	Batteries     []BatteryUsage `json:"batteries"`
	FlightsByDate []DateCount    `json:"flights_by_date"`
	TopByDuration []FlightRef    `json:"top_by_duration"`
	TopByDistance []FlightRef    `json:"top_by_distance"`
}

// DroneUsage counts flights per drone model.
type DroneUsage struct {
	Model   string `json:"model"`
	Flights int    `json:"flights"`
}

// BatteryUsage aggregates flights per battery serial. AvgDischargePerMin is
// the mean battery percentage consumed per minute of flight, computed from
// the telemetry endpoints; nil when no flight on this battery carried battery
// telemetry.
type BatteryUsage struct {
	Serial             string   `json:"serial"`
	Flights            int      `json:"flights"`
	TotalDurationSecs  float64  `json:"total_duration_secs"`
	AvgDischargePerMin *float64 `json:"avg_discharge_per_min"`
}

// DateCount counts flights per calendar day.
type DateCount struct {
	Date    string `json:"date"` // YYYY-MM-DD
	Flights int    `json:"flights"`
}

// FlightRef points at a flight from a ranked dashboard list.
type FlightRef struct {
	ID          int64   `json:"id"`
	DisplayName string  `json:"display_name"`
	Value       float64 `json:"value"`
}

// GetOverview computes the aggregates in SQL; the per-flight stats were
// already cached at import time, so this stays cheap at any logbook size.
func (s *FlightStorage) GetOverview() (*Overview, error) {
	var o Overview
	var first, last sql.NullString

	err := s.db.QueryRow(
		`SELECT COUNT(*),
			COALESCE(SUM(duration_secs), 0),
			COALESCE(SUM(total_distance), 0),
			COALESCE(MAX(max_altitude), 0),
			COALESCE(MAX(max_speed), 0),
			COALESCE(MAX(duration_secs), 0),
			MIN(start_time),
			MAX(start_time)
		FROM flights`,
	).Scan(
		&o.TotalFlights, &o.TotalDurationSecs, &o.TotalDistanceM,
		&o.MaxAltitudeM, &o.MaxSpeedMS, &o.LongestFlightSecs, &first, &last,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query overview: %w", err)
	}

	if first.Valid {
		if t, err := time.Parse(time.RFC3339, first.String); err == nil {
			o.FirstFlight = &t
		}
	}
	if last.Valid {
		if t, err := time.Parse(time.RFC3339, last.String); err == nil {
			o.LastFlight = &t
		}
	}

	if o.Drones, err = s.droneUsage(); err != nil {
		return nil, err
	}
	if o.Batteries, err = s.batteryUsage(); err != nil {
		return nil, err
	}
	if o.FlightsByDate, err = s.flightsByDate(); err != nil {
		return nil, err
	}
	if o.TopByDuration, err = s.topFlights("duration_secs"); err != nil {
		return nil, err
	}
	if o.TopByDistance, err = s.topFlights("max_distance"); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *FlightStorage) droneUsage() ([]DroneUsage, error) {
	rows, err := s.db.Query(
		`SELECT drone_model, COUNT(*)
		FROM flights
		WHERE drone_model IS NOT NULL AND drone_model != ''
		GROUP BY drone_model
		ORDER BY COUNT(*) DESC, drone_model`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query drone usage: %w", err)
	}
	defer rows.Close()

	var drones []DroneUsage
	for rows.Next() {
		var d DroneUsage
		if err := rows.Scan(&d.Model, &d.Flights); err != nil {
			return nil, fmt.Errorf("failed to scan drone usage: %w", err)
		}
		drones = append(drones, d)
	}
	return drones, rows.Err()
}

// batteryUsage aggregates per-serial flight counts and the mean discharge
// rate. The telemetry endpoints come from correlated subqueries so one pass
// covers every flight.
func (s *FlightStorage) batteryUsage() ([]BatteryUsage, error) {
	rows, err := s.db.Query(
		`SELECT f.battery_serial, f.duration_secs,
			(SELECT t.battery_percent FROM telemetry t
				WHERE t.flight_id = f.id AND t.battery_percent IS NOT NULL
				ORDER BY t.timestamp_ms ASC LIMIT 1),
			(SELECT t.battery_percent FROM telemetry t
				WHERE t.flight_id = f.id AND t.battery_percent IS NOT NULL
				ORDER BY t.timestamp_ms DESC LIMIT 1)
		FROM flights f
		WHERE f.battery_serial IS NOT NULL AND f.battery_serial != ''`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query battery usage: %w", err)
	}
	defer rows.Close()

	type acc struct {
		flights      int
		durationSecs float64
		rateSum      float64
		rateCount    int
	}
	bySerial := make(map[string]*acc)
	var order []string

	for rows.Next() {
		var serial string
		var durationSecs float64
		var takeoff, landing *int
		if err := rows.Scan(&serial, &durationSecs, &takeoff, &landing); err != nil {
			return nil, fmt.Errorf("failed to scan battery usage: %w", err)
		}

		a, ok := bySerial[serial]
		if !ok {
			a = &acc{}
			bySerial[serial] = a
			order = append(order, serial)
		}
		a.flights++
		a.durationSecs += durationSecs

		if takeoff != nil && landing != nil && durationSecs > 0 {
			a.rateSum += float64(*takeoff-*landing) / (durationSecs / 60.0)
			a.rateCount++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	batteries := make([]BatteryUsage, 0, len(order))
	for _, serial := range order {
		a := bySerial[serial]
		b := BatteryUsage{
			Serial:            serial,
			Flights:           a.flights,
			TotalDurationSecs: a.durationSecs,
		}
		if a.rateCount > 0 {
			rate := a.rateSum / float64(a.rateCount)
			b.AvgDischargePerMin = &rate
		}
		batteries = append(batteries, b)
	}
	return batteries, nil
}

func (s *FlightStorage) flightsByDate() ([]DateCount, error) {
	rows, err := s.db.Query(
		`SELECT DATE(start_time), COUNT(*)
		FROM flights
		WHERE start_time IS NOT NULL
		GROUP BY DATE(start_time)
		ORDER BY DATE(start_time)`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query flights by date: %w", err)
	}
	defer rows.Close()

	var counts []DateCount
	for rows.Next() {
		var d DateCount
		if err := rows.Scan(&d.Date, &d.Flights); err != nil {
			return nil, fmt.Errorf("failed to scan flights by date: %w", err)
		}
		counts = append(counts, d)
	}
	return counts, rows.Err()
}

// topFlights ranks flights by one of the cached stat columns. The column name
// comes from a fixed caller-side set, never from user input.
func (s *FlightStorage) topFlights(column string) ([]FlightRef, error) {
	rows, err := s.db.Query(
		`SELECT id, display_name, ` + column + `
		FROM flights
		WHERE ` + column + ` > 0
		ORDER BY ` + column + ` DESC, id
		LIMIT ` + fmt.Sprint(topFlightLimit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query top flights by %s: %w", column, err)
	}
	defer rows.Close()

	var refs []FlightRef
	for rows.Next() {
		var ref FlightRef
		if err := rows.Scan(&ref.ID, &ref.DisplayName, &ref.Value); err != nil {
			return nil, fmt.Errorf("failed to scan top flight: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
