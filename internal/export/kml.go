package export

import (
	"bytes"
	"fmt"

	"github.com/avelari/skylog/internal/flight"
)

// BuildKML renders the flight path as a KML 2.2 document with a single
// styled LineString placemark. Per-point altitude prefers absolute altitude,
// then height above takeoff, then VPS height, then zero. Points at exactly
// (0,0) are missing-fix sentinels and are filtered out. Manual entries fall
// back to a Point placemark at the home coordinates, or a bare document
// shell when no location is known.
func BuildKML(d *flight.Data, meta Meta) ([]byte, error) {
	var buf bytes.Buffer

	name := xmlEscape(d.Flight.DisplayName)

	fmt.Fprint(&buf, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	fmt.Fprint(&buf, "<kml xmlns=\"http://www.opengis.net/kml/2.2\">\n")
	fmt.Fprint(&buf, "  <Document>\n")
	fmt.Fprintf(&buf, "    <name>%s</name>\n", name)
	if d.Flight.DroneModel != "" {
		fmt.Fprintf(&buf, "    <description>%s</description>\n", xmlEscape(d.Flight.DroneModel))
	}
	fmt.Fprint(&buf, "    <Style id=\"flightPath\">\n")
	fmt.Fprint(&buf, "      <LineStyle>\n")
	fmt.Fprint(&buf, "        <color>ff3539e5</color>\n") // aabbggrr
	fmt.Fprint(&buf, "        <width>3</width>\n")
	fmt.Fprint(&buf, "      </LineStyle>\n")
	fmt.Fprint(&buf, "    </Style>\n")

	s := d.Series
	if s.Len() == 0 {
		if d.Flight.HomeLat != nil && d.Flight.HomeLon != nil {
			fmt.Fprint(&buf, "    <Placemark>\n")
			fmt.Fprintf(&buf, "      <name>%s</name>\n", name)
			fmt.Fprint(&buf, "      <Point>\n")
			fmt.Fprintf(&buf, "        <coordinates>%s,%s,0</coordinates>\n",
				formatCoord(*d.Flight.HomeLon), formatCoord(*d.Flight.HomeLat))
			fmt.Fprint(&buf, "      </Point>\n")
			fmt.Fprint(&buf, "    </Placemark>\n")
		}
		fmt.Fprint(&buf, "  </Document>\n")
		fmt.Fprint(&buf, "</kml>\n")
		return buf.Bytes(), nil
	}

	fmt.Fprint(&buf, "    <Placemark>\n")
	fmt.Fprintf(&buf, "      <name>%s</name>\n", name)
	fmt.Fprint(&buf, "      <styleUrl>#flightPath</styleUrl>\n")
	fmt.Fprint(&buf, "      <LineString>\n")
	fmt.Fprint(&buf, "        <tessellate>1</tessellate>\n")
	fmt.Fprint(&buf, "        <altitudeMode>relativeToGround</altitudeMode>\n")
	fmt.Fprint(&buf, "        <coordinates>\n")

	for i := 0; i < s.Len(); i++ {
		lat, lon, ok := s.Position(i)
		if !ok || (lat == 0 && lon == 0) {
			continue
		}
		fmt.Fprintf(&buf, "          %s,%s,%.2f\n",
			formatCoord(lon), formatCoord(lat), pointAltitude(s, i))
	}

	fmt.Fprint(&buf, "        </coordinates>\n")
	fmt.Fprint(&buf, "      </LineString>\n")
	fmt.Fprint(&buf, "    </Placemark>\n")
	fmt.Fprint(&buf, "  </Document>\n")
	fmt.Fprint(&buf, "</kml>\n")

	return buf.Bytes(), nil
}
