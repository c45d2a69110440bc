package report

import "time"

// FieldToggles enumerates every displayable field with an independent
// switch. The UI persists this client-side and hands the builder a fully
// resolved snapshot; the builder holds no persistence of its own.
type FieldToggles struct {
	// General
	StartTime   bool `json:"start_time"`
	LandingTime bool `json:"landing_time"`
	Duration    bool `json:"duration"`
	Location    bool `json:"location"`
	Notes       bool `json:"notes"`

	// Equipment
	DroneModel    bool `json:"drone_model"`
	AircraftName  bool `json:"aircraft_name"`
	BatterySerial bool `json:"battery_serial"`

	// Performance
	TotalDistance  bool `json:"total_distance"`
	MaxAltitude    bool `json:"max_altitude"`
	MaxSpeed       bool `json:"max_speed"`
	MaxDistance    bool `json:"max_distance"`
	TakeoffBattery bool `json:"takeoff_battery"`
	LandingBattery bool `json:"landing_battery"`

	// Weather
	Temperature   bool `json:"temperature"`
	WindSpeed     bool `json:"wind_speed"`
	WindGusts     bool `json:"wind_gusts"`
	WindDirection bool `json:"wind_direction"`
	Humidity      bool `json:"humidity"`
	Precipitation bool `json:"precipitation"`
	CloudCover    bool `json:"cloud_cover"`

	// Media
	PhotoCount bool `json:"photo_count"`
	VideoCount bool `json:"video_count"`
}

// DefaultFieldToggles enables everything; the UI narrows from there.
func DefaultFieldToggles() FieldToggles {
	return FieldToggles{
		StartTime: true, LandingTime: true, Duration: true, Location: true, Notes: true,
		DroneModel: true, AircraftName: true, BatterySerial: true,
		TotalDistance: true, MaxAltitude: true, MaxSpeed: true, MaxDistance: true,
		TakeoffBattery: true, LandingBattery: true,
		Temperature: true, WindSpeed: true, WindGusts: true, WindDirection: true,
		Humidity: true, Precipitation: true, CloudCover: true,
		PhotoCount: true, VideoCount: true,
	}
}

// Options configures one report build.
type Options struct {
	Title       string       `json:"title"`
	Imperial    bool         `json:"imperial"`
	Fields      FieldToggles `json:"fields"`
	GeneratedAt time.Time    `json:"generated_at"`
}
