package telemetry

import (
	"github.com/avelari/skylog/internal/flight"
	"github.com/avelari/skylog/internal/geo"
)

// HomePoint returns the first sample with both latitude and longitude
// present. That sample anchors every distance-to-home computation. The
// second return value is false when no valid position exists in the series.
func HomePoint(s *flight.Series) (lat, lon float64, ok bool) {
	for i := 0; i < s.Len(); i++ {
		if lat, lon, ok = s.Position(i); ok {
			return lat, lon, true
		}
	}
	return 0, 0, false
}

// DistanceToHome computes the great-circle distance from the home point to
// every sample. Samples with missing positions yield nil, not zero. A series
// with no valid position at all yields an all-nil array of the same length
// as the time array.
func DistanceToHome(s *flight.Series) []*float64 {
	out := make([]*float64, s.Len())

	homeLat, homeLon, ok := HomePoint(s)
	if !ok {
		return out
	}

	for i := 0; i < s.Len(); i++ {
		lat, lon, ok := s.Position(i)
		if !ok {
			continue
		}
		d := geo.Haversine(homeLat, homeLon, lat, lon)
		out[i] = &d
	}
	return out
}

// MaxDistanceFromHome returns the maximum over the non-nil distance-to-home
// entries, or nil when the series has no valid positions.
func MaxDistanceFromHome(s *flight.Series) *float64 {
	var max *float64
	for _, d := range DistanceToHome(s) {
		if d == nil {
			continue
		}
		if max == nil || *d > *max {
			v := *d
			max = &v
		}
	}
	return max
}

// Stats are the aggregate values cached on the flight row at import time.
type Stats struct {
	TotalDistanceM float64
	MaxAltitudeM   float64
	MaxSpeedMS     float64
	MaxDistanceM   float64
}

// ComputeStats derives the import-time aggregates in one pass over the
// series plus the distance-to-home pass.
func ComputeStats(s *flight.Series) Stats {
	var st Stats

	var prevLat, prevLon float64
	havePrev := false
	for i := 0; i < s.Len(); i++ {
		if lat, lon, ok := s.Position(i); ok && !(lat == 0 && lon == 0) {
			if havePrev {
				st.TotalDistanceM += geo.Haversine(prevLat, prevLon, lat, lon)
			}
			prevLat, prevLon = lat, lon
			havePrev = true
		}
		if len(s.Height) > i && s.Height[i] != nil && *s.Height[i] > st.MaxAltitudeM {
			st.MaxAltitudeM = *s.Height[i]
		}
		if len(s.Speed) > i && s.Speed[i] != nil && *s.Speed[i] > st.MaxSpeedMS {
			st.MaxSpeedMS = *s.Speed[i]
		}
	}

	if max := MaxDistanceFromHome(s); max != nil {
		st.MaxDistanceM = *max
	}
	return st
}

// BatteryEndpoints returns the first and last non-nil battery samples, for
// takeoff/landing battery display. Either value may be nil.
func BatteryEndpoints(s *flight.Series) (takeoff, landing *int) {
	for i := 0; i < len(s.BatteryPercent); i++ {
		if s.BatteryPercent[i] != nil {
			takeoff = s.BatteryPercent[i]
			break
		}
	}
	for i := len(s.BatteryPercent) - 1; i >= 0; i-- {
		if s.BatteryPercent[i] != nil {
			landing = s.BatteryPercent[i]
			break
		}
	}
	return takeoff, landing
}
