// Package weather fetches historical conditions for a flight's takeoff
// location and time from the Open-Meteo archive API. The provider is
// optional: callers must treat a nil observation as "unknown" and keep
// going, never fail a report because the network was down.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avelari/skylog/pkg/logger"
)

// DefaultBaseURL is the public Open-Meteo historical archive endpoint.
const DefaultBaseURL = "https://archive-api.open-meteo.com"

const hourlyFields = "temperature_2m,relative_humidity_2m,precipitation," +
	"cloud_cover,wind_speed_10m,wind_gusts_10m,wind_direction_10m"

// Config holds the weather client settings.
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
	MaxRetries     int
	CacheTTL       time.Duration
}

// Client queries the archive API with retries and caches observations per
// location/date so repeated report builds stay off the network.
type Client struct {
	baseURL    string
	maxRetries int
	httpClient *http.Client
	cache      *observationCache
	logger     *logger.Logger
}

// NewClient creates a new archive API client.
func NewClient(cfg Config, log *logger.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		cache:      newObservationCache(cfg.CacheTTL),
		logger:     log.Named("weather-client"),
	}
}

// At returns the observation closest to the given instant at the given
// coordinates. Historical data never changes, so cache hits are served
// without revalidation.
func (c *Client) At(ctx context.Context, lat, lon float64, t time.Time) (*Observation, error) {
	day := t.UTC().Format("2006-01-02")
	key := fmt.Sprintf("%.2f,%.2f,%s", lat, lon, day)

	if obs := c.cache.Get(key); obs != nil {
		return obs, nil
	}

	url := fmt.Sprintf(
		"%s/v1/archive?latitude=%.4f&longitude=%.4f&start_date=%s&end_date=%s&hourly=%s&timezone=UTC",
		c.baseURL, lat, lon, day, day, hourlyFields,
	)

	body, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	var resp archiveResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}

	obs, err := nearestObservation(&resp, t.UTC())
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, obs)
	return obs, nil
}

// fetch executes the request with retries and exponential backoff.
func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	retryDelay := 1 * time.Second

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		resp, err := c.httpClient.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, fmt.Errorf("failed to read weather response: %w", err)
			}
			return body, nil
		}

		if resp != nil {
			resp.Body.Close()
		}

		if attempt == c.maxRetries-1 {
			if err != nil {
				return nil, fmt.Errorf("failed to fetch weather after %d attempts: %w", c.maxRetries, err)
			}
			return nil, fmt.Errorf("unexpected weather API status after %d attempts: %d", c.maxRetries, resp.StatusCode)
		}

		c.logger.Warn("Retrying weather fetch",
			logger.String("url", url),
			logger.Int("attempt", attempt+1),
			logger.Int("max_attempts", c.maxRetries),
			logger.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
			retryDelay *= 2
		}
	}
	return nil, fmt.Errorf("failed to fetch weather after %d attempts", c.maxRetries)
}

// nearestObservation picks the hourly sample closest to the target instant.
func nearestObservation(resp *archiveResponse, target time.Time) (*Observation, error) {
	h := &resp.Hourly
	if len(h.Time) == 0 {
		return nil, fmt.Errorf("weather response contained no hourly samples")
	}

	best := -1
	var bestDiff time.Duration
	for i, raw := range h.Time {
		ts, err := time.Parse("2006-01-02T15:04", raw)
		if err != nil {
			continue
		}
		diff := target.Sub(ts)
		if diff < 0 {
			diff = -diff
		}
		if best == -1 || diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	if best == -1 {
		return nil, fmt.Errorf("weather response contained no parseable timestamps")
	}

	obs := &Observation{}
	if ts, err := time.Parse("2006-01-02T15:04", h.Time[best]); err == nil {
		obs.ObservedAt = ts.UTC()
	}
	obs.TemperatureC = sampleAt(h.Temperature2M, best)
	obs.HumidityPct = sampleAt(h.RelativeHumidity, best)
	obs.PrecipitationMM = sampleAt(h.Precipitation, best)
	obs.CloudCoverPct = sampleAt(h.CloudCover, best)
	obs.WindSpeedKMH = sampleAt(h.WindSpeed10M, best)
	obs.WindGustsKMH = sampleAt(h.WindGusts10M, best)
	obs.WindDirectionDeg = sampleAt(h.WindDirection10M, best)
	return obs, nil
}

func sampleAt(series []float64, i int) *float64 {
	if i < 0 || i >= len(series) {
		return nil
	}
	v := series[i]
	return &v
}
