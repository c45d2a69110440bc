package flight

import (
	"fmt"

	"github.com/avelari/skylog/internal/geo"
)

// Series is the telemetry bundle as parallel, time-indexed arrays. Time is
// seconds from flight start. Every other array is either nil (sensor absent
// from the source log) or exactly as long as Time, with nil entries marking
// individually missing samples.
type Series struct {
	Time []float64 `json:"time"`

	Latitude    []*float64 `json:"latitude,omitempty"`
	Longitude   []*float64 `json:"longitude,omitempty"`
	Altitude    []*float64 `json:"altitude,omitempty"`
	AltitudeAbs []*float64 `json:"altitude_abs,omitempty"`
	Height      []*float64 `json:"height,omitempty"`
	VPSHeight   []*float64 `json:"vps_height,omitempty"`

	Speed     []*float64 `json:"speed,omitempty"`
	VelocityX []*float64 `json:"velocity_x,omitempty"`
	VelocityY []*float64 `json:"velocity_y,omitempty"`
	VelocityZ []*float64 `json:"velocity_z,omitempty"`

	Pitch       []*float64 `json:"pitch,omitempty"`
	Roll        []*float64 `json:"roll,omitempty"`
	Yaw         []*float64 `json:"yaw,omitempty"`
	GimbalPitch []*float64 `json:"gimbal_pitch,omitempty"`

	BatteryPercent []*int     `json:"battery_percent,omitempty"`
	BatteryVoltage []*float64 `json:"battery_voltage,omitempty"`
	CellVoltage    []*float64 `json:"cell_voltage,omitempty"`
	BatteryTemp    []*float64 `json:"battery_temp,omitempty"`

	Satellites []*int `json:"satellites,omitempty"`
	RCSignal   []*int `json:"rc_signal,omitempty"`
	RCUplink   []*int `json:"rc_uplink,omitempty"`
	RCDownlink []*int `json:"rc_downlink,omitempty"`

	FlightMode []*string `json:"flight_mode,omitempty"`
	IsPhoto    []bool    `json:"is_photo,omitempty"`
	IsVideo    []bool    `json:"is_video,omitempty"`
}

// Len returns the number of samples in the series.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Time)
}

// Validate checks the index-alignment invariant: every present array must be
// exactly as long as the time array.
func (s *Series) Validate() error {
	n := s.Len()
	check := func(name string, l int) error {
		if l != 0 && l != n {
			return fmt.Errorf("telemetry array %s has %d samples, time has %d", name, l, n)
		}
		return nil
	}

	for _, c := range []struct {
		name string
		len  int
	}{
		{"latitude", len(s.Latitude)},
		{"longitude", len(s.Longitude)},
		{"altitude", len(s.Altitude)},
		{"altitude_abs", len(s.AltitudeAbs)},
		{"height", len(s.Height)},
		{"vps_height", len(s.VPSHeight)},
		{"speed", len(s.Speed)},
		{"velocity_x", len(s.VelocityX)},
		{"velocity_y", len(s.VelocityY)},
		{"velocity_z", len(s.VelocityZ)},
		{"pitch", len(s.Pitch)},
		{"roll", len(s.Roll)},
		{"yaw", len(s.Yaw)},
		{"gimbal_pitch", len(s.GimbalPitch)},
		{"battery_percent", len(s.BatteryPercent)},
		{"battery_voltage", len(s.BatteryVoltage)},
		{"cell_voltage", len(s.CellVoltage)},
		{"battery_temp", len(s.BatteryTemp)},
		{"satellites", len(s.Satellites)},
		{"rc_signal", len(s.RCSignal)},
		{"rc_uplink", len(s.RCUplink)},
		{"rc_downlink", len(s.RCDownlink)},
		{"flight_mode", len(s.FlightMode)},
		{"is_photo", len(s.IsPhoto)},
		{"is_video", len(s.IsVideo)},
	} {
		if err := check(c.name, c.len); err != nil {
			return err
		}
	}
	return nil
}

// Select returns a new series holding the samples at the given indices, in
// order, cutting every parallel array with the same index set.
func (s *Series) Select(indices []int) *Series {
	out := &Series{Time: make([]float64, len(indices))}
	for i, idx := range indices {
		out.Time[i] = s.Time[idx]
	}

	out.Latitude = selectFloats(s.Latitude, indices)
	out.Longitude = selectFloats(s.Longitude, indices)
	out.Altitude = selectFloats(s.Altitude, indices)
	out.AltitudeAbs = selectFloats(s.AltitudeAbs, indices)
	out.Height = selectFloats(s.Height, indices)
	out.VPSHeight = selectFloats(s.VPSHeight, indices)
	out.Speed = selectFloats(s.Speed, indices)
	out.VelocityX = selectFloats(s.VelocityX, indices)
	out.VelocityY = selectFloats(s.VelocityY, indices)
	out.VelocityZ = selectFloats(s.VelocityZ, indices)
	out.Pitch = selectFloats(s.Pitch, indices)
	out.Roll = selectFloats(s.Roll, indices)
	out.Yaw = selectFloats(s.Yaw, indices)
	out.GimbalPitch = selectFloats(s.GimbalPitch, indices)
	out.BatteryVoltage = selectFloats(s.BatteryVoltage, indices)
	out.CellVoltage = selectFloats(s.CellVoltage, indices)
	out.BatteryTemp = selectFloats(s.BatteryTemp, indices)

	out.BatteryPercent = selectInts(s.BatteryPercent, indices)
	out.Satellites = selectInts(s.Satellites, indices)
	out.RCSignal = selectInts(s.RCSignal, indices)
	out.RCUplink = selectInts(s.RCUplink, indices)
	out.RCDownlink = selectInts(s.RCDownlink, indices)

	out.FlightMode = selectStrings(s.FlightMode, indices)
	out.IsPhoto = selectBools(s.IsPhoto, indices)
	out.IsVideo = selectBools(s.IsVideo, indices)

	return out
}

// Position returns the lat/lon at index i, or false when either is missing.
func (s *Series) Position(i int) (lat, lon float64, ok bool) {
	if len(s.Latitude) <= i || len(s.Longitude) <= i {
		return 0, 0, false
	}
	if s.Latitude[i] == nil || s.Longitude[i] == nil {
		return 0, 0, false
	}
	return *s.Latitude[i], *s.Longitude[i], true
}

// FromRecords converts stored telemetry rows into the parallel-array form.
func FromRecords(records []Record) *Series {
	n := len(records)
	s := &Series{
		Time:           make([]float64, n),
		Latitude:       make([]*float64, n),
		Longitude:      make([]*float64, n),
		Altitude:       make([]*float64, n),
		AltitudeAbs:    make([]*float64, n),
		Height:         make([]*float64, n),
		VPSHeight:      make([]*float64, n),
		Speed:          make([]*float64, n),
		VelocityX:      make([]*float64, n),
		VelocityY:      make([]*float64, n),
		VelocityZ:      make([]*float64, n),
		Pitch:          make([]*float64, n),
		Roll:           make([]*float64, n),
		Yaw:            make([]*float64, n),
		GimbalPitch:    make([]*float64, n),
		BatteryPercent: make([]*int, n),
		BatteryVoltage: make([]*float64, n),
		CellVoltage:    make([]*float64, n),
		BatteryTemp:    make([]*float64, n),
		Satellites:     make([]*int, n),
		RCSignal:       make([]*int, n),
		RCUplink:       make([]*int, n),
		RCDownlink:     make([]*int, n),
		FlightMode:     make([]*string, n),
		IsPhoto:        make([]bool, n),
		IsVideo:        make([]bool, n),
	}

	for i, r := range records {
		s.Time[i] = float64(r.TimestampMS) / 1000.0
		s.Latitude[i] = r.Latitude
		s.Longitude[i] = r.Longitude
		s.Altitude[i] = r.Altitude
		s.AltitudeAbs[i] = r.AltitudeAbs
		s.Height[i] = r.Height
		s.VPSHeight[i] = r.VPSHeight
		s.Speed[i] = r.Speed
		s.VelocityX[i] = r.VelocityX
		s.VelocityY[i] = r.VelocityY
		s.VelocityZ[i] = r.VelocityZ
		s.Pitch[i] = r.Pitch
		s.Roll[i] = r.Roll
		s.Yaw[i] = r.Yaw
		s.GimbalPitch[i] = r.GimbalPitch
		s.BatteryPercent[i] = r.BatteryPercent
		s.BatteryVoltage[i] = r.BatteryVoltage
		s.CellVoltage[i] = r.CellVoltage
		s.BatteryTemp[i] = r.BatteryTemp
		s.Satellites[i] = r.Satellites
		s.RCSignal[i] = r.RCSignal
		s.RCUplink[i] = r.RCUplink
		s.RCDownlink[i] = r.RCDownlink
		s.FlightMode[i] = r.FlightMode
		s.IsPhoto[i] = r.IsPhoto
		s.IsVideo[i] = r.IsVideo
	}

	return s
}

// ToRecords converts the series back into storage rows, the inverse of
// FromRecords. Sample offsets convert from seconds back to milliseconds.
func (s *Series) ToRecords() []Record {
	records := make([]Record, s.Len())
	for i := range records {
		r := &records[i]
		r.TimestampMS = int64(s.Time[i] * 1000.0)
		r.Latitude = at(s.Latitude, i)
		r.Longitude = at(s.Longitude, i)
		r.Altitude = at(s.Altitude, i)
		r.AltitudeAbs = at(s.AltitudeAbs, i)
		r.Height = at(s.Height, i)
		r.VPSHeight = at(s.VPSHeight, i)
		r.Speed = at(s.Speed, i)
		r.VelocityX = at(s.VelocityX, i)
		r.VelocityY = at(s.VelocityY, i)
		r.VelocityZ = at(s.VelocityZ, i)
		r.Pitch = at(s.Pitch, i)
		r.Roll = at(s.Roll, i)
		r.Yaw = at(s.Yaw, i)
		r.GimbalPitch = at(s.GimbalPitch, i)
		r.BatteryPercent = at(s.BatteryPercent, i)
		r.BatteryVoltage = at(s.BatteryVoltage, i)
		r.CellVoltage = at(s.CellVoltage, i)
		r.BatteryTemp = at(s.BatteryTemp, i)
		r.Satellites = at(s.Satellites, i)
		r.RCSignal = at(s.RCSignal, i)
		r.RCUplink = at(s.RCUplink, i)
		r.RCDownlink = at(s.RCDownlink, i)
		r.FlightMode = at(s.FlightMode, i)
		if len(s.IsPhoto) > i {
			r.IsPhoto = s.IsPhoto[i]
		}
		if len(s.IsVideo) > i {
			r.IsVideo = s.IsVideo[i]
		}
	}
	return records
}

func at[T any](src []*T, i int) *T {
	if len(src) <= i {
		return nil
	}
	return src[i]
}

// ExtractTrack builds the map track from the position arrays, dropping
// samples with missing coordinates and the (0,0) missing-fix sentinel. When
// the result exceeds maxPoints it is stride-reduced with both endpoints kept.
func (s *Series) ExtractTrack(maxPoints int) Track {
	if s.Len() == 0 {
		return nil
	}

	track := make(Track, 0, s.Len())
	for i := 0; i < s.Len(); i++ {
		lat, lon, ok := s.Position(i)
		if !ok || (lat == 0 && lon == 0) {
			continue
		}
		var height float64
		if len(s.Height) > i && s.Height[i] != nil {
			height = *s.Height[i]
		} else if len(s.Altitude) > i && s.Altitude[i] != nil {
			height = *s.Altitude[i]
		}
		track = append(track, geo.Point{Lon: lon, Lat: lat, Height: height})
	}

	if maxPoints <= 0 || len(track) <= maxPoints {
		return track
	}

	reduced := make(Track, 0, maxPoints)
	stride := float64(len(track)-1) / float64(maxPoints-1)
	for i := 0; i < maxPoints; i++ {
		reduced = append(reduced, track[int(float64(i)*stride+0.5)])
	}
	reduced[len(reduced)-1] = track[len(track)-1]
	return reduced
}

func selectFloats(src []*float64, indices []int) []*float64 {
	if src == nil {
		return nil
	}
	out := make([]*float64, len(indices))
	for i, idx := range indices {
		out[i] = src[idx]
	}
	return out
}

func selectInts(src []*int, indices []int) []*int {
	if src == nil {
		return nil
	}
	out := make([]*int, len(indices))
	for i, idx := range indices {
		out[i] = src[idx]
	}
	return out
}

func selectStrings(src []*string, indices []int) []*string {
	if src == nil {
		return nil
	}
	out := make([]*string, len(indices))
	for i, idx := range indices {
		out[i] = src[idx]
	}
	return out
}

func selectBools(src []bool, indices []int) []bool {
	if src == nil {
		return nil
	}
	out := make([]bool, len(indices))
	for i, idx := range indices {
		out[i] = src[idx]
	}
	return out
}
