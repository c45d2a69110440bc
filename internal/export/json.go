package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/avelari/skylog/internal/flight"
	"github.com/avelari/skylog/internal/telemetry"
)

// JSONFormatName identifies Skylog's lossless JSON export envelope. The
// importer accepts this format back, so it must stay a superset of every
// other export.
const JSONFormatName = "skylog.flight.v1"

// JSONExport is the envelope written by BuildJSON.
type JSONExport struct {
	Format      string    `json:"format"`
	AppVersion  string    `json:"app_version"`
	GeneratedAt time.Time `json:"generated_at"`

	Flight    *flight.Flight   `json:"flight"`
	Telemetry *flight.Series   `json:"telemetry"`
	Track     flight.Track     `json:"track,omitempty"`
	Messages  []flight.Message `json:"messages,omitempty"`

	Derived JSONDerived `json:"derived"`
}

// JSONDerived carries the computed series that are not stored verbatim.
type JSONDerived struct {
	DistanceHomeM    []*float64 `json:"distance_home_m"`
	MaxDistanceHomeM *float64   `json:"max_distance_home_m"`
}

// BuildJSON renders the full bundle without any rounding beyond what storage
// already applied, plus the derived distance-to-home series.
func BuildJSON(d *flight.Data, meta Meta) ([]byte, error) {
	series := d.Series
	if series == nil {
		series = &flight.Series{Time: []float64{}}
	}

	doc := JSONExport{
		Format:      JSONFormatName,
		AppVersion:  meta.AppVersion,
		GeneratedAt: meta.GeneratedAt.UTC(),
		Flight:      d.Flight,
		Telemetry:   series,
		Track:       d.Track,
		Messages:    d.Messages,
		Derived: JSONDerived{
			DistanceHomeM:    telemetry.DistanceToHome(series),
			MaxDistanceHomeM: telemetry.MaxDistanceFromHome(series),
		},
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON export: %w", err)
	}
	return out, nil
}
