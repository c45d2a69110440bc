package weather

import (
	"sync"
	"time"
)

// Observation represents the historical weather conditions at a flight's
// takeoff location and time. Nil fields mean the provider did not report
// that quantity; the report renders them as unknown.
type Observation struct {
	TemperatureC     *float64  `json:"temperature_c,omitempty"`
	WindSpeedKMH     *float64  `json:"wind_speed_kmh,omitempty"`
	WindGustsKMH     *float64  `json:"wind_gusts_kmh,omitempty"`
	WindDirectionDeg *float64  `json:"wind_direction_deg,omitempty"`
	HumidityPct      *float64  `json:"humidity_pct,omitempty"`
	PrecipitationMM  *float64  `json:"precipitation_mm,omitempty"`
	CloudCoverPct    *float64  `json:"cloud_cover_pct,omitempty"`
	ObservedAt       time.Time `json:"observed_at"`
}

// Empty reports whether the provider returned no usable quantity at all.
func (o *Observation) Empty() bool {
	return o == nil || (o.TemperatureC == nil && o.WindSpeedKMH == nil &&
		o.WindGustsKMH == nil && o.WindDirectionDeg == nil &&
		o.HumidityPct == nil && o.PrecipitationMM == nil && o.CloudCoverPct == nil)
}

// observationCache holds fetched observations keyed by rounded location and
// date, so re-generating a report does not re-query the provider.
type observationCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

type cacheEntry struct {
	obs       *Observation
	expiresAt time.Time
}

func newObservationCache(ttl time.Duration) *observationCache {
	return &observationCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

// Get returns the cached observation for the key, or nil when absent or
// expired (thread-safe).
func (c *observationCache) Get(key string) *Observation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil
	}
	return entry.obs
}

// Set stores an observation under the key (thread-safe).
func (c *observationCache) Set(key string, obs *Observation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{obs: obs, expiresAt: time.Now().Add(c.ttl)}
}

// archiveResponse mirrors the hourly block of the Open-Meteo archive API.
type archiveResponse struct {
	Hourly struct {
		Time             []string  `json:"time"`
		Temperature2M    []float64 `json:"temperature_2m"`
		RelativeHumidity []float64 `json:"relative_humidity_2m"`
		Precipitation    []float64 `json:"precipitation"`
		CloudCover       []float64 `json:"cloud_cover"`
		WindSpeed10M     []float64 `json:"wind_speed_10m"`
		WindGusts10M     []float64 `json:"wind_gusts_10m"`
		WindDirection10M []float64 `json:"wind_direction_10m"`
	} `json:"hourly"`
}
