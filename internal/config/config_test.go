package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, 8420, cfg.Server.Port)
	assert.Equal(t, "skylog.db", cfg.Database.Path)
	assert.Equal(t, 5000, cfg.Export.MaxTelemetryPoints)
	assert.True(t, cfg.Weather.Enabled)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = 9000

[export]
max_telemetry_points = 2000
imperial_units = true

[logging]
level = "debug"
format = "json"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 2000, cfg.Export.MaxTelemetryPoints)
	assert.True(t, cfg.Export.ImperialUnits)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Untouched sections keep their defaults.
	assert.Equal(t, "skylog.db", cfg.Database.Path)
	assert.Equal(t, 10, cfg.Weather.RequestTimeoutSeconds)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := map[string]string{
		"bad port":    "[server]\nport = -1\n",
		"bad level":   "[logging]\nlevel = \"verbose\"\n",
		"bad format":  "[logging]\nformat = \"xml\"\n",
		"empty db":    "[database]\npath = \"\"\n",
		"bad timeout": "[weather]\nenabled = true\nrequest_timeout_seconds = 0\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestWeatherDurations(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "10s", cfg.Weather.RequestTimeout().String())
	assert.Equal(t, "24h0m0s", cfg.Weather.CacheExpiry().String())
}
