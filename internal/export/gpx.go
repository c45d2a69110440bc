package export

import (
	"bytes"
	"fmt"

	"github.com/avelari/skylog/internal/flight"
)

const gpxTimeLayout = "2006-01-02T15:04:05.000Z"

// BuildGPX renders the flight as a GPX 1.1 document: one track with one
// segment, one trackpoint per telemetry sample that carries a position.
// Samples with missing coordinates are skipped, never emitted empty. Manual
// entries with home coordinates become a single waypoint; entries with no
// location at all become a metadata-only shell.
func BuildGPX(d *flight.Data, meta Meta) ([]byte, error) {
	var buf bytes.Buffer

	name := xmlEscape(d.Flight.DisplayName)

	fmt.Fprint(&buf, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	fmt.Fprintf(&buf, "<gpx version=\"1.1\" creator=\"Skylog %s\"\n", xmlEscape(meta.AppVersion))
	fmt.Fprint(&buf, "     xmlns=\"http://www.topografix.com/GPX/1/1\"\n")
	fmt.Fprint(&buf, "     xmlns:xsi=\"http://www.w3.org/2001/XMLSchema-instance\"\n")
	fmt.Fprint(&buf, "     xsi:schemaLocation=\"http://www.topografix.com/GPX/1/1 ")
	fmt.Fprint(&buf, "http://www.topografix.com/GPX/1/1/gpx.xsd\">\n")

	fmt.Fprint(&buf, "  <metadata>\n")
	fmt.Fprintf(&buf, "    <name>%s</name>\n", name)
	if d.Flight.DroneModel != "" {
		fmt.Fprintf(&buf, "    <desc>%s</desc>\n", xmlEscape(d.Flight.DroneModel))
	}
	if d.Flight.StartTime != nil {
		fmt.Fprintf(&buf, "    <time>%s</time>\n", d.Flight.StartTime.UTC().Format(gpxTimeLayout))
	}
	fmt.Fprint(&buf, "  </metadata>\n")

	if d.Series.Len() == 0 {
		// Manual entry: a waypoint when the home position is known,
		// otherwise just the metadata shell above.
		if d.Flight.HomeLat != nil && d.Flight.HomeLon != nil {
			fmt.Fprintf(&buf, "  <wpt lat=\"%s\" lon=\"%s\">\n",
				formatCoord(*d.Flight.HomeLat), formatCoord(*d.Flight.HomeLon))
			fmt.Fprintf(&buf, "    <name>%s</name>\n", name)
			fmt.Fprint(&buf, "  </wpt>\n")
		}
		fmt.Fprint(&buf, "</gpx>\n")
		return buf.Bytes(), nil
	}

	fmt.Fprint(&buf, "  <trk>\n")
	fmt.Fprintf(&buf, "    <name>%s</name>\n", name)
	fmt.Fprint(&buf, "    <trkseg>\n")

	s := d.Series
	for i := 0; i < s.Len(); i++ {
		lat, lon, ok := s.Position(i)
		if !ok {
			continue
		}
		fmt.Fprintf(&buf, "      <trkpt lat=\"%s\" lon=\"%s\">\n",
			formatCoord(lat), formatCoord(lon))
		fmt.Fprintf(&buf, "        <ele>%.2f</ele>\n", pointAltitude(s, i))
		if ts, ok := absoluteTime(d.Flight, s.Time[i]); ok {
			fmt.Fprintf(&buf, "        <time>%s</time>\n", ts.Format(gpxTimeLayout))
		}
		if len(s.Satellites) > i && s.Satellites[i] != nil {
			fmt.Fprintf(&buf, "        <sat>%d</sat>\n", *s.Satellites[i])
		}
		fmt.Fprint(&buf, "      </trkpt>\n")
	}

	fmt.Fprint(&buf, "    </trkseg>\n")
	fmt.Fprint(&buf, "  </trk>\n")
	fmt.Fprint(&buf, "</gpx>\n")

	return buf.Bytes(), nil
}
