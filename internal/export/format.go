package export

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Conversion factors shared by the encoders and the report builder, so the
// printed report and the live UI agree on every number.
const (
	FeetPerMeter  = 3.28084
	MilesPerMeter = 0.000621371
	MPHPerMS      = 2.23694
	KMHPerMS      = 3.6
)

func MetersToFeet(m float64) float64  { return m * FeetPerMeter }
func MetersToMiles(m float64) float64 { return m * MilesPerMeter }
func MSToMPH(ms float64) float64      { return ms * MPHPerMS }
func MSToKMH(ms float64) float64      { return ms * KMHPerMS }

// formatSeconds renders a time offset as an integer when whole, otherwise
// with one decimal, which is enough for sub-second sample rates.
func formatSeconds(secs float64) string {
	if secs == math.Trunc(secs) {
		return strconv.FormatInt(int64(secs), 10)
	}
	return strconv.FormatFloat(secs, 'f', 1, 64)
}

// formatCoord renders latitude/longitude at full double precision.
// Coordinates are the one field class where rounding loses real information.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatFixed renders a channel value with a fixed decimal count, hiding the
// representation noise of single-precision source values.
func formatFixed(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

// FormatDuration renders a duration as "1h 2m 3s" (hours omitted when zero).
func FormatDuration(secs float64) string {
	if secs < 0 || math.IsNaN(secs) {
		return "0s"
	}
	d := time.Duration(secs * float64(time.Second)).Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatDistance renders meters as m/km or ft/mi.
func FormatDistance(meters float64, imperial bool) string {
	if imperial {
		if ft := MetersToFeet(meters); ft < 5280 {
			return fmt.Sprintf("%.0f ft", ft)
		}
		return fmt.Sprintf("%.2f mi", MetersToMiles(meters))
	}
	if meters < 1000 {
		return fmt.Sprintf("%.0f m", meters)
	}
	return fmt.Sprintf("%.2f km", meters/1000)
}

// FormatAltitude renders meters as m or ft.
func FormatAltitude(meters float64, imperial bool) string {
	if imperial {
		return fmt.Sprintf("%.0f ft", MetersToFeet(meters))
	}
	return fmt.Sprintf("%.1f m", meters)
}

// FormatSpeed renders m/s as km/h or mph.
func FormatSpeed(ms float64, imperial bool) string {
	if imperial {
		return fmt.Sprintf("%.1f mph", MSToMPH(ms))
	}
	return fmt.Sprintf("%.1f km/h", MSToKMH(ms))
}

// FormatTemperature renders Celsius as C or F.
func FormatTemperature(celsius float64, imperial bool) string {
	if imperial {
		return fmt.Sprintf("%.1f °F", celsius*9/5+32)
	}
	return fmt.Sprintf("%.1f °C", celsius)
}
