// Package flight defines the core domain model: flight metadata, the
// parallel-array telemetry series, the map track and log messages. Telemetry
// is immutable once imported; derived values are computed on demand and never
// written back.
package flight

import (
	"time"

	"github.com/avelari/skylog/internal/geo"
)

// Flight is one imported or manually created flight session.
type Flight struct {
	ID            int64      `json:"id"`
	FileName      string     `json:"file_name"`
	DisplayName   string     `json:"display_name"`
	FileHash      string     `json:"file_hash,omitempty"`
	DroneModel    string     `json:"drone_model,omitempty"`
	DroneSerial   string     `json:"drone_serial,omitempty"`
	AircraftName  string     `json:"aircraft_name,omitempty"`
	BatterySerial string     `json:"battery_serial,omitempty"`
	StartTime     *time.Time `json:"start_time"`
	DurationSecs  float64    `json:"duration_secs"`

	// Aggregate stats, computed once at import time.
	TotalDistanceM float64 `json:"total_distance_m"`
	MaxAltitudeM   float64 `json:"max_altitude_m"`
	MaxSpeedMS     float64 `json:"max_speed_ms"`
	MaxDistanceM   float64 `json:"max_distance_m"` // max distance from home

	HomeLat    *float64  `json:"home_lat"`
	HomeLon    *float64  `json:"home_lon"`
	PointCount int       `json:"point_count"`
	ImportedAt time.Time `json:"imported_at"`
	Notes      string    `json:"notes,omitempty"`
	Tags       []Tag     `json:"tags,omitempty"`
}

// Manual reports whether this is a manual logbook entry with no telemetry.
func (f *Flight) Manual() bool { return f.PointCount == 0 }

// LandingTime is start time plus duration, or nil when the start is unknown.
func (f *Flight) LandingTime() *time.Time {
	if f.StartTime == nil {
		return nil
	}
	t := f.StartTime.Add(time.Duration(f.DurationSecs * float64(time.Second)))
	return &t
}

// Tag is a piece of flight metadata, either generated at import time or
// entered by the user.
type Tag struct {
	Text string `json:"text"`
	Auto bool   `json:"auto"`
}

// Message is a timestamped tip or warning emitted by the source log. Messages
// are passthrough data: stored at import, included in exports, never mutated.
type Message struct {
	OffsetSecs float64 `json:"offset_secs"`
	Severity   string  `json:"severity"` // tip, warning, error
	Text       string  `json:"text"`
}

// Record is one telemetry sample as stored. Nil pointers mean the sensor
// produced no value for that sample.
type Record struct {
	TimestampMS    int64    `json:"timestamp_ms"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	Altitude       *float64 `json:"altitude"`
	AltitudeAbs    *float64 `json:"altitude_abs"`
	Height         *float64 `json:"height"`
	VPSHeight      *float64 `json:"vps_height"`
	Speed          *float64 `json:"speed"`
	VelocityX      *float64 `json:"velocity_x"`
	VelocityY      *float64 `json:"velocity_y"`
	VelocityZ      *float64 `json:"velocity_z"`
	Pitch          *float64 `json:"pitch"`
	Roll           *float64 `json:"roll"`
	Yaw            *float64 `json:"yaw"`
	GimbalPitch    *float64 `json:"gimbal_pitch"`
	BatteryPercent *int     `json:"battery_percent"`
	BatteryVoltage *float64 `json:"battery_voltage"`
	CellVoltage    *float64 `json:"cell_voltage"`
	BatteryTemp    *float64 `json:"battery_temp"`
	Satellites     *int     `json:"satellites"`
	RCSignal       *int     `json:"rc_signal"`
	RCUplink       *int     `json:"rc_uplink"`
	RCDownlink     *int     `json:"rc_downlink"`
	FlightMode     *string  `json:"flight_mode"`
	IsPhoto        bool     `json:"is_photo"`
	IsVideo        bool     `json:"is_video"`
}

// Track is the ordered lon/lat/height path used for map rendering. When its
// length equals the telemetry length the two are positionally aligned;
// otherwise it is an independently sampled path and must not be zipped
// index-by-index with the series.
type Track []geo.Point

// Data is the bundle handed to encoders and the report builder.
type Data struct {
	Flight   *Flight   `json:"flight"`
	Series   *Series   `json:"telemetry"`
	Track    Track     `json:"track"`
	Messages []Message `json:"messages"`
}
