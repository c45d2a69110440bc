package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/avelari/skylog/internal/flight"
	"github.com/avelari/skylog/internal/telemetry"
	"github.com/avelari/skylog/pkg/logger"
)

// GetFlightData returns the full bundle for a flight: metadata, telemetry
// series, map track and log messages. When maxPoints > 0 and the stored
// series is longer, it is downsampled before return; the track is always cut
// from the same reduced series, so track and telemetry stay index-aligned.
func (s *FlightStorage) GetFlightData(id int64, maxPoints int) (*flight.Data, error) {
	f, err := s.GetFlight(id)
	if err != nil {
		return nil, err
	}

	records, err := s.getRecords(id)
	if err != nil {
		return nil, err
	}

	series := flight.FromRecords(records)
	if maxPoints > 0 {
		reduced, err := telemetry.Downsample(series, maxPoints)
		if err != nil {
			return nil, fmt.Errorf("failed to downsample flight %d: %w", id, err)
		}
		if reduced.Len() < series.Len() {
			s.logger.Debug("Downsampled telemetry",
				logger.Int64("flight_id", id),
				logger.Int("stored", series.Len()),
				logger.Int("returned", reduced.Len()),
			)
		}
		series = reduced
	}

	messages, err := s.getMessages(id)
	if err != nil {
		return nil, err
	}

	return &flight.Data{
		Flight:   f,
		Series:   series,
		Track:    series.ExtractTrack(0),
		Messages: messages,
	}, nil
}

// getRecords loads a flight's telemetry rows ordered by timestamp.
func (s *FlightStorage) getRecords(flightID int64) ([]flight.Record, error) {
	rows, err := s.db.Query(
		`SELECT timestamp_ms, latitude, longitude, altitude, altitude_abs,
			height, vps_height, speed, velocity_x, velocity_y, velocity_z,
			pitch, roll, yaw, gimbal_pitch, battery_percent, battery_voltage,
			cell_voltage, battery_temp, satellites, rc_signal, rc_uplink,
			rc_downlink, flight_mode, is_photo, is_video
		FROM telemetry
		WHERE flight_id = ?
		ORDER BY timestamp_ms`,
		flightID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query telemetry: %w", err)
	}
	defer rows.Close()

	var records []flight.Record
	for rows.Next() {
		var r flight.Record
		var flightMode sql.NullString
		if err := rows.Scan(
			&r.TimestampMS, &r.Latitude, &r.Longitude, &r.Altitude,
			&r.AltitudeAbs, &r.Height, &r.VPSHeight, &r.Speed, &r.VelocityX,
			&r.VelocityY, &r.VelocityZ, &r.Pitch, &r.Roll, &r.Yaw,
			&r.GimbalPitch, &r.BatteryPercent, &r.BatteryVoltage,
			&r.CellVoltage, &r.BatteryTemp, &r.Satellites, &r.RCSignal,
			&r.RCUplink, &r.RCDownlink, &flightMode, &r.IsPhoto, &r.IsVideo,
		); err != nil {
			return nil, fmt.Errorf("failed to scan telemetry row: %w", err)
		}
		if flightMode.Valid {
			r.FlightMode = &flightMode.String
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
