// Package geo contains the pure geometry kernels used by the telemetry
// pipeline and the export encoders: great-circle distance, track extents
// and Catmull-Rom path smoothing. Everything here is stateless.
package geo

import "math"

// EarthRadiusM is the mean Earth radius in meters.
const EarthRadiusM = 6371000.0

// Point is a single track coordinate. Height is meters above takeoff and may
// be zero when the source log carried no altitude for the sample.
type Point struct {
	Lon    float64 `json:"lon"`
	Lat    float64 `json:"lat"`
	Height float64 `json:"height"`
}

// Bounds is an axis-aligned lon/lat bounding box.
type Bounds struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// Haversine calculates the great-circle distance in meters between two
// lat/lon points. Sub-meter accurate for the distances a drone flight covers.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180.0

	lat1Rad := lat1 * rad
	lat2Rad := lat2 * rad
	dlat := (lat2 - lat1) * rad
	dlon := (lon2 - lon1) * rad

	a := math.Pow(math.Sin(dlat/2), 2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Pow(math.Sin(dlon/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusM * c
}

// Bearing calculates the initial bearing in degrees from point 1 to point 2.
// Returns a value in [0, 360) where 0 is north and 90 is east.
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180.0

	lat1Rad := lat1 * rad
	lat2Rad := lat2 * rad
	dlon := (lon2 - lon1) * rad

	y := math.Sin(dlon) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) - math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(dlon)
	bearing := math.Atan2(y, x) / rad

	return math.Mod(bearing+360.0, 360.0)
}

// TrackCenter returns the arithmetic mean of the track coordinates. The
// second return value is false for an empty track; callers must treat that
// as "no track" rather than a coordinate.
func TrackCenter(points []Point) (Point, bool) {
	if len(points) == 0 {
		return Point{}, false
	}

	var sumLon, sumLat float64
	for _, p := range points {
		sumLon += p.Lon
		sumLat += p.Lat
	}

	n := float64(len(points))
	return Point{Lon: sumLon / n, Lat: sumLat / n}, true
}

// TrackBounds returns the bounding box of the track, or nil for an empty one.
func TrackBounds(points []Point) *Bounds {
	if len(points) == 0 {
		return nil
	}

	b := Bounds{
		MinLon: points[0].Lon, MaxLon: points[0].Lon,
		MinLat: points[0].Lat, MaxLat: points[0].Lat,
	}
	for _, p := range points[1:] {
		b.MinLon = math.Min(b.MinLon, p.Lon)
		b.MaxLon = math.Max(b.MaxLon, p.Lon)
		b.MinLat = math.Min(b.MinLat, p.Lat)
		b.MaxLat = math.Max(b.MaxLat, p.Lat)
	}
	return &b
}

// CatmullRomSmooth interpolates a track with a Catmull-Rom cubic spline,
// inserting resolution extra points between each consecutive pair. The first
// and last points are duplicated as virtual control points, so the output
// passes through every input point and always ends on the original last
// point. Tracks shorter than 3 points (or resolution <= 0) are returned
// unchanged.
func CatmullRomSmooth(points []Point, resolution int) []Point {
	if len(points) < 3 || resolution <= 0 {
		return points
	}

	out := make([]Point, 0, len(points)+(len(points)-1)*resolution)

	for i := 0; i < len(points)-1; i++ {
		p0 := points[clampIndex(i-1, len(points))]
		p1 := points[i]
		p2 := points[i+1]
		p3 := points[clampIndex(i+2, len(points))]

		out = append(out, p1)
		for j := 1; j <= resolution; j++ {
			t := float64(j) / float64(resolution+1)
			out = append(out, Point{
				Lon:    catmullRom(p0.Lon, p1.Lon, p2.Lon, p3.Lon, t),
				Lat:    catmullRom(p0.Lat, p1.Lat, p2.Lat, p3.Lat, t),
				Height: catmullRom(p0.Height, p1.Height, p2.Height, p3.Height, t),
			})
		}
	}
	out = append(out, points[len(points)-1])

	return out
}

// catmullRom evaluates the uniform Catmull-Rom basis at t in [0,1].
func catmullRom(v0, v1, v2, v3, t float64) float64 {
	t2 := t * t
	t3 := t2 * t
	return 0.5 * ((2 * v1) +
		(-v0+v2)*t +
		(2*v0-5*v1+4*v2-v3)*t2 +
		(-v0+3*v1-3*v2+v3)*t3)
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
