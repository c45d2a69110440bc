package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"github.com/avelari/skylog/internal/config"
	"github.com/avelari/skylog/internal/export"
	"github.com/avelari/skylog/internal/flight"
	"github.com/avelari/skylog/internal/geo"
	"github.com/avelari/skylog/internal/importer"
	"github.com/avelari/skylog/internal/report"
	"github.com/avelari/skylog/internal/storage/sqlite"
	"github.com/avelari/skylog/internal/telemetry"
	"github.com/avelari/skylog/internal/weather"
	"github.com/avelari/skylog/pkg/logger"
)

// maxUploadBytes caps import uploads. The largest DJI logs are a few tens of
// megabytes.
const maxUploadBytes = 128 << 20

// Handler implements the API endpoints.
type Handler struct {
	storage  *sqlite.FlightStorage
	importer *importer.Importer
	weather  *weather.Client // nil when disabled
	config   *config.Config
	version  string
	logger   *logger.Logger
}

// NewHandler creates a new API handler.
func NewHandler(storage *sqlite.FlightStorage, imp *importer.Importer, wx *weather.Client, cfg *config.Config, version string, log *logger.Logger) *Handler {
	return &Handler{
		storage:  storage,
		importer: imp,
		weather:  wx,
		config:   cfg,
		version:  version,
		logger:   log.Named("api-handler"),
	}
}

// GetAllFlights returns every flight's metadata.
func (h *Handler) GetAllFlights(w http.ResponseWriter, r *http.Request) {
	flights, err := h.storage.GetAllFlights()
	if err != nil {
		h.respondError(w, err)
		return
	}
	if flights == nil {
		flights = []*flight.Flight{}
	}
	h.respondJSON(w, http.StatusOK, flights)
}

// GetFlight returns one flight's metadata.
func (h *Handler) GetFlight(w http.ResponseWriter, r *http.Request) {
	id, ok := h.flightID(w, r)
	if !ok {
		return
	}
	f, err := h.storage.GetFlight(id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, f)
}

// GetFlightData returns the full bundle. The optional max_points query
// parameter caps the series length; it defaults to the configured limit, and
// max_points=0 requests full resolution.
func (h *Handler) GetFlightData(w http.ResponseWriter, r *http.Request) {
	id, ok := h.flightID(w, r)
	if !ok {
		return
	}

	maxPoints := h.config.Export.MaxTelemetryPoints
	if raw := r.URL.Query().Get("max_points"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.respondBadRequest(w, "max_points must be a non-negative integer")
			return
		}
		maxPoints = n
	}

	d, err := h.storage.GetFlightData(id, maxPoints)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, d)
}

// ExportFlight streams a flight in the requested format as a download.
// Exports always run on the full-resolution series.
func (h *Handler) ExportFlight(w http.ResponseWriter, r *http.Request) {
	id, ok := h.flightID(w, r)
	if !ok {
		return
	}

	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		h.respondBadRequest(w, err.Error())
		return
	}

	d, err := h.storage.GetFlightData(id, 0)
	if err != nil {
		h.respondError(w, err)
		return
	}

	out, err := export.Encode(format, d, export.Meta{
		AppVersion:  h.version,
		GeneratedAt: time.Now(),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}

	filename := fmt.Sprintf("%s.%s", sanitizeFilename(d.Flight.DisplayName), format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.Write(out)
}

// trackResponse pairs the (optionally smoothed) map path with per-point
// colors for the selected classification mode.
type trackResponse struct {
	Points []geo.Point `json:"points"`
	Colors []string    `json:"colors"`
	Bounds *geo.Bounds `json:"bounds"`
}

// GetFlightTrack returns the map path. The optional smooth parameter inserts
// N interpolated points per segment; color selects the classification mode
// (progress, height, speed, distance).
func (h *Handler) GetFlightTrack(w http.ResponseWriter, r *http.Request) {
	id, ok := h.flightID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	mode := telemetry.ColorByProgress
	if raw := q.Get("color"); raw != "" {
		mode = telemetry.ColorMode(raw)
		switch mode {
		case telemetry.ColorByProgress, telemetry.ColorByHeight,
			telemetry.ColorBySpeed, telemetry.ColorByDistance:
		default:
			h.respondBadRequest(w, "unknown color mode")
			return
		}
	}
	smooth := 0
	if raw := q.Get("smooth"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > 16 {
			h.respondBadRequest(w, "smooth must be an integer between 0 and 16")
			return
		}
		smooth = n
	}

	d, err := h.storage.GetFlightData(id, h.config.Export.MaxTelemetryPoints)
	if err != nil {
		h.respondError(w, err)
		return
	}

	points := []geo.Point(d.Track)
	if smooth > 0 {
		points = geo.CatmullRomSmooth(points, smooth)
	}

	var home *geo.Point
	if d.Flight.HomeLat != nil && d.Flight.HomeLon != nil {
		home = &geo.Point{Lat: *d.Flight.HomeLat, Lon: *d.Flight.HomeLon}
	}

	h.respondJSON(w, http.StatusOK, trackResponse{
		Points: points,
		Colors: telemetry.PathColors(points, mode, home),
		Bounds: geo.TrackBounds(points),
	})
}

// DeleteFlight removes one flight.
func (h *Handler) DeleteFlight(w http.ResponseWriter, r *http.Request) {
	id, ok := h.flightID(w, r)
	if !ok {
		return
	}
	if err := h.storage.DeleteFlight(id); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// DeleteAllFlights clears the logbook.
func (h *Handler) DeleteAllFlights(w http.ResponseWriter, r *http.Request) {
	if err := h.storage.DeleteAllFlights(); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// UpdateFlightName renames a flight.
func (h *Handler) UpdateFlightName(w http.ResponseWriter, r *http.Request) {
	id, ok := h.flightID(w, r)
	if !ok {
		return
	}
	var body struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.DisplayName == "" {
		h.respondBadRequest(w, "display_name is required")
		return
	}
	if err := h.storage.UpdateDisplayName(id, body.DisplayName); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

// UpdateFlightNotes replaces a flight's notes.
func (h *Handler) UpdateFlightNotes(w http.ResponseWriter, r *http.Request) {
	id, ok := h.flightID(w, r)
	if !ok {
		return
	}
	var body struct {
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respondBadRequest(w, "invalid request body")
		return
	}
	if err := h.storage.UpdateNotes(id, body.Notes); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

// UpdateFlightTags replaces a flight's tags.
func (h *Handler) UpdateFlightTags(w http.ResponseWriter, r *http.Request) {
	id, ok := h.flightID(w, r)
	if !ok {
		return
	}
	var body struct {
		Tags []flight.Tag `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respondBadRequest(w, "invalid request body")
		return
	}
	if err := h.storage.SetTags(id, body.Tags); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

// CreateManualEntry stores a logbook-only flight.
func (h *Handler) CreateManualEntry(w http.ResponseWriter, r *http.Request) {
	var entry importer.ManualEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		h.respondBadRequest(w, "invalid request body")
		return
	}
	f, err := h.importer.CreateManualEntry(entry)
	if err != nil {
		h.respondBadRequest(w, err.Error())
		return
	}
	h.respondJSON(w, http.StatusCreated, f)
}

// ImportFlight accepts a multipart upload with a single "file" part.
func (h *Handler) ImportFlight(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondBadRequest(w, "multipart upload with a \"file\" part is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.respondBadRequest(w, "failed to read uploaded file")
		return
	}

	h.logger.Info("Received upload",
		logger.String("file", header.Filename),
		logger.String("size", humanize.Bytes(uint64(len(data)))),
	)

	f, err := h.importer.ImportFile(header.Filename, data)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, f)
}

// reportRequest is the body of POST /reports.
type reportRequest struct {
	FlightIDs      []int64           `json:"flight_ids"`
	Options        report.Options    `json:"options"`
	EquipmentNames map[string]string `json:"equipment_names,omitempty"`
	IncludeWeather bool              `json:"include_weather"`
}

// BuildReport composes the printable HTML report for the requested flights.
// Weather lookups that fail degrade to unknown placeholders.
func (h *Handler) BuildReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondBadRequest(w, "invalid request body")
		return
	}
	if len(req.FlightIDs) == 0 {
		h.respondBadRequest(w, "flight_ids must not be empty")
		return
	}

	entries := make([]report.Entry, 0, len(req.FlightIDs))
	for _, id := range req.FlightIDs {
		d, err := h.storage.GetFlightData(id, 0)
		if err != nil {
			h.respondError(w, err)
			return
		}
		entry := report.Entry{
			Flight:         d.Flight,
			Series:         d.Series,
			EquipmentNames: req.EquipmentNames,
		}
		if req.IncludeWeather {
			entry.Weather = h.lookupWeather(r, d.Flight)
		}
		entries = append(entries, entry)
	}

	if req.Options.GeneratedAt.IsZero() {
		req.Options.GeneratedAt = time.Now()
	}
	html, err := report.Build(entries, req.Options)
	if err != nil {
		h.respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}

// lookupWeather fetches the observation for a flight's takeoff, or nil when
// the provider is disabled, the flight lacks a location or time, or the
// fetch fails.
func (h *Handler) lookupWeather(r *http.Request, f *flight.Flight) *weather.Observation {
	if h.weather == nil || f.HomeLat == nil || f.HomeLon == nil || f.StartTime == nil {
		return nil
	}
	obs, err := h.weather.At(r.Context(), *f.HomeLat, *f.HomeLon, *f.StartTime)
	if err != nil {
		h.logger.Warn("Weather lookup failed",
			logger.Int64("flight_id", f.ID),
			logger.Error(err),
		)
		return nil
	}
	return obs
}

// GetOverview returns the aggregate logbook summary.
func (h *Handler) GetOverview(w http.ResponseWriter, r *http.Request) {
	o, err := h.storage.GetOverview()
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, o)
}

// GetWeather returns the observation at the given coordinates and time.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	if h.weather == nil {
		h.respondJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "weather provider disabled"})
		return
	}

	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
	if errLat != nil || errLon != nil {
		h.respondBadRequest(w, "lat and lon query parameters are required")
		return
	}
	at := time.Now()
	if raw := q.Get("time"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.respondBadRequest(w, "time must be RFC 3339")
			return
		}
		at = t
	}

	obs, err := h.weather.At(r.Context(), lat, lon, at)
	if err != nil {
		h.respondJSON(w, http.StatusBadGateway, errorResponse{Error: "weather provider unavailable"})
		return
	}
	h.respondJSON(w, http.StatusOK, obs)
}

// GetHealth reports service liveness and version.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.version,
	})
}

// flightID parses the {id} URL parameter.
func (h *Handler) flightID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.respondBadRequest(w, "invalid flight id")
		return 0, false
	}
	return id, true
}

// sanitizeFilename keeps download names filesystem-safe.
func sanitizeFilename(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '.', r == ' ':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "flight"
	}
	return string(out)
}
