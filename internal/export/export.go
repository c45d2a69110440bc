// Package export renders a flight bundle into the interchange formats the
// UI offers for download: CSV, JSON, GPX, KML and XLSX. Encoders are pure:
// they consume a validated bundle and return complete payload bytes, or an
// error before any output is produced. Manual logbook entries (no telemetry)
// degrade to minimal single-point documents instead of failing.
package export

import (
	"fmt"
	"time"

	"github.com/avelari/skylog/internal/flight"
)

// Format identifies an export encoder.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatGPX  Format = "gpx"
	FormatKML  Format = "kml"
	FormatXLSX Format = "xlsx"
)

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	case FormatGPX, FormatKML:
		return "application/xml"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/octet-stream"
}

// ParseFormat validates a format string from the API.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, FormatJSON, FormatGPX, FormatKML, FormatXLSX:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// Meta is the export envelope metadata stamped into JSON exports and
// creator attributes. GeneratedAt is the only wall-clock input to any
// encoder; everything else is a pure function of the bundle.
type Meta struct {
	AppVersion  string
	GeneratedAt time.Time
}

// Encode dispatches to the encoder for the given format.
func Encode(format Format, d *flight.Data, meta Meta) ([]byte, error) {
	if err := validate(d); err != nil {
		return nil, err
	}
	switch format {
	case FormatCSV:
		return BuildCSV(d)
	case FormatJSON:
		return BuildJSON(d, meta)
	case FormatGPX:
		return BuildGPX(d, meta)
	case FormatKML:
		return BuildKML(d, meta)
	case FormatXLSX:
		return BuildXLSX(d)
	}
	return nil, fmt.Errorf("unknown export format %q", format)
}

// validate fails fast on caller contract violations. Missing telemetry is a
// defined manual-entry case, a malformed bundle is a bug upstream.
func validate(d *flight.Data) error {
	if d == nil || d.Flight == nil {
		return fmt.Errorf("export: nil flight bundle")
	}
	if d.Series != nil {
		if err := d.Series.Validate(); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}
	return nil
}

// absoluteTime converts a seconds-from-start offset into an absolute UTC
// timestamp, or false when the flight's start time is unknown.
func absoluteTime(f *flight.Flight, offsetSecs float64) (time.Time, bool) {
	if f.StartTime == nil {
		return time.Time{}, false
	}
	return f.StartTime.Add(time.Duration(offsetSecs * float64(time.Second))).UTC(), true
}

// pointAltitude picks the best altitude for a sample: absolute altitude,
// then height above takeoff, then VPS height, then zero.
func pointAltitude(s *flight.Series, i int) float64 {
	for _, ch := range [][]*float64{s.AltitudeAbs, s.Height, s.VPSHeight} {
		if len(ch) > i && ch[i] != nil {
			return *ch[i]
		}
	}
	return 0
}
