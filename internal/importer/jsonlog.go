package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/avelari/skylog/internal/export"
)

// JSONParser re-imports flights from Skylog's own JSON export envelope. This
// is the restore path for backups and for moving a logbook between machines:
// the JSON export is lossless, so the round trip preserves every stored
// channel.
type JSONParser struct{}

// NewJSONParser creates the JSON re-import parser.
func NewJSONParser() *JSONParser { return &JSONParser{} }

// CanParse accepts .json files.
func (p *JSONParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".json")
}

// Parse decodes the export envelope. Only the stored fields come back; the
// derived section and envelope metadata are recomputed on the next export.
func (p *JSONParser) Parse(r io.Reader) (*Result, error) {
	var doc export.JSONExport
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode JSON export: %w", err)
	}

	if doc.Format != export.JSONFormatName {
		return nil, fmt.Errorf("unsupported JSON format %q", doc.Format)
	}
	if doc.Flight == nil {
		return nil, fmt.Errorf("JSON export has no flight object")
	}
	if doc.Telemetry != nil {
		if err := doc.Telemetry.Validate(); err != nil {
			return nil, fmt.Errorf("JSON export telemetry is malformed: %w", err)
		}
	}

	// The stored identity is assigned fresh on import; carrying the source
	// database ID over would collide.
	f := *doc.Flight
	f.ID = 0
	f.FileHash = ""

	return &Result{
		Flight:   &f,
		Records:  doc.Telemetry.ToRecords(),
		Messages: doc.Messages,
	}, nil
}
