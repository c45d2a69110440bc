package telemetry

import (
	"fmt"
	"math"

	"github.com/avelari/skylog/internal/geo"
)

// ColorMode selects the scalar used to color the flight path on the map.
type ColorMode string

const (
	ColorByProgress ColorMode = "progress" // index fraction along the path
	ColorByHeight   ColorMode = "height"   // raw point height
	ColorBySpeed    ColorMode = "speed"    // speed inferred from consecutive points
	ColorByDistance ColorMode = "distance" // distance from home
)

// RampStop is one fixed stop of the path color gradient.
type RampStop struct {
	Pos     float64 // position in [0,1]
	R, G, B uint8
}

// DefaultRamp is the cold-to-hot gradient used for path coloring.
var DefaultRamp = []RampStop{
	{0.00, 0x28, 0x66, 0xdf}, // blue
	{0.25, 0x12, 0xb8, 0x86}, // teal
	{0.50, 0x7a, 0xc7, 0x0c}, // green
	{0.75, 0xf5, 0xa6, 0x23}, // amber
	{1.00, 0xe5, 0x39, 0x35}, // red
}

// PathColors classifies every track point into a hex color for gradient path
// rendering. The per-point scalar depends on mode; values are min-max
// normalized over the track before being mapped through the ramp. A constant
// scalar (max == min) maps every point to the ramp's zero-intensity color.
//
// home anchors the distance mode; when nil the distance scalar is zero
// everywhere. Speed is inferred from consecutive-point haversine distance
// assuming a uniform time step, which holds for smoothed tracks.
func PathColors(points []geo.Point, mode ColorMode, home *geo.Point) []string {
	values := pathScalars(points, mode, home)

	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	span := max - min
	if !(span > 0) {
		span = 1 // constant channel: everything maps to the first stop
	}

	colors := make([]string, len(values))
	for i, v := range values {
		colors[i] = rampColor(DefaultRamp, (v-min)/span)
	}
	return colors
}

func pathScalars(points []geo.Point, mode ColorMode, home *geo.Point) []float64 {
	values := make([]float64, len(points))

	switch mode {
	case ColorByHeight:
		for i, p := range points {
			values[i] = p.Height
		}
	case ColorBySpeed:
		// Segment length stands in for speed; uniform time step assumed.
		for i := 1; i < len(points); i++ {
			values[i] = geo.Haversine(points[i-1].Lat, points[i-1].Lon, points[i].Lat, points[i].Lon)
		}
		if len(points) > 1 {
			values[0] = values[1]
		}
	case ColorByDistance:
		if home != nil {
			for i, p := range points {
				values[i] = geo.Haversine(home.Lat, home.Lon, p.Lat, p.Lon)
			}
		}
	default: // progress
		if len(points) > 1 {
			for i := range points {
				values[i] = float64(i) / float64(len(points)-1)
			}
		}
	}
	return values
}

// rampColor maps t in [0,1] through the ramp with piecewise-linear
// interpolation between stops.
func rampColor(ramp []RampStop, t float64) string {
	t = math.Max(0, math.Min(1, t))

	for i := 1; i < len(ramp); i++ {
		if t > ramp[i].Pos {
			continue
		}
		lo, hi := ramp[i-1], ramp[i]
		f := 0.0
		if hi.Pos > lo.Pos {
			f = (t - lo.Pos) / (hi.Pos - lo.Pos)
		}
		return fmt.Sprintf("#%02x%02x%02x",
			lerpByte(lo.R, hi.R, f),
			lerpByte(lo.G, hi.G, f),
			lerpByte(lo.B, hi.B, f))
	}

	last := ramp[len(ramp)-1]
	return fmt.Sprintf("#%02x%02x%02x", last.R, last.G, last.B)
}

func lerpByte(a, b uint8, f float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
}
