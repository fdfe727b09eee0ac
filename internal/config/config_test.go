package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "treeshop.db", cfg.Store.SQLitePath)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, 20.0, cfg.Server.RateLimit, 0.001)
	assert.Equal(t, 40, cfg.Server.RateBurst)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.InDelta(t, 1.7, cfg.Pricing.BurdenMultiplier, 0.001)
	assert.InDelta(t, 35.0, cfg.Pricing.DefaultMarginPercent, 0.001)
	assert.InDelta(t, 10.0, cfg.Pricing.BufferPercent, 0.001)
	assert.Equal(t, 5, cfg.Calibration.MinJobsRequired)
	assert.Equal(t, 365, cfg.Calibration.WindowDays)
	assert.InDelta(t, 10.0, cfg.Calibration.ConfidenceScale, 0.001)
	assert.Equal(t, 4, cfg.Calibration.MaxConcurrent)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.False(t, cfg.Monitoring.Enabled)
	assert.Equal(t, 30, cfg.Monitoring.LookbackDays)
	assert.InDelta(t, 60.0, cfg.Monitoring.ScoreThreshold, 0.001)
	assert.Equal(t, 24, cfg.Monitoring.RepeatAlertHours)
	assert.NoError(t, cfg.Validate("serve"))
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/treeshop
log:
  level: debug
  format: console
pricing:
  burden_multiplier: 1.85
calibration:
  min_jobs_required: 8
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/treeshop", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.InDelta(t, 1.85, cfg.Pricing.BurdenMultiplier, 0.001)
	assert.Equal(t, 8, cfg.Calibration.MinJobsRequired)
	// Defaults still apply for unset values
	assert.Equal(t, 365, cfg.Calibration.WindowDays)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("TREESHOP_STORE_DRIVER", "sqlite")
	t.Setenv("TREESHOP_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("TREESHOP_SERVER_PORT", "3000")
	t.Setenv("TREESHOP_CALIBRATION_WINDOW_DAYS", "90")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 90, cfg.Calibration.WindowDays)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadFromExplicitFile(t *testing.T) {
	chdirTemp(t)
	path := filepath.Join(t.TempDir(), "crew.yaml")
	require.NoError(t, os.WriteFile(path, []byte("calibration:\n  window_days: 180\nmonitoring:\n  repeat_alert_hours: 6\n"), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 180, cfg.Calibration.WindowDays)
	assert.Equal(t, 6, cfg.Monitoring.RepeatAlertHours)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
}

func TestLoadFromMissingFile(t *testing.T) {
	chdirTemp(t)
	_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.SQLitePath = "treeshop.db"
	cfg.Server.Port = 8080
	cfg.Pricing.BurdenMultiplier = 1.7
	cfg.Pricing.DefaultMarginPercent = 35
	cfg.Pricing.BufferPercent = 10
	cfg.Calibration.MinJobsRequired = 5
	cfg.Calibration.WindowDays = 365
	cfg.Calibration.ConfidenceScale = 10
	cfg.Calibration.MaxConcurrent = 4
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", "serve", func(*Config) {}, ""},
		{"postgres without url", "migrate", func(c *Config) { c.Store.Driver = "postgres" }, "store.database_url is required"},
		{"postgres with url", "migrate", func(c *Config) {
			c.Store.Driver = "postgres"
			c.Store.DatabaseURL = "postgres://localhost/treeshop"
		}, ""},
		{"unknown driver", "migrate", func(c *Config) { c.Store.Driver = "mysql" }, "must be sqlite or postgres"},
		{"margin at 100", "price", func(c *Config) { c.Pricing.DefaultMarginPercent = 100 }, "default_margin_percent"},
		{"burden below one", "price", func(c *Config) { c.Pricing.BurdenMultiplier = 0.5 }, "burden_multiplier"},
		{"negative buffer", "estimate", func(c *Config) { c.Pricing.BufferPercent = -1 }, "buffer_percent"},
		{"zero min jobs", "calibrate", func(c *Config) { c.Calibration.MinJobsRequired = 0 }, "min_jobs_required"},
		{"zero confidence scale", "calibrate", func(c *Config) { c.Calibration.ConfidenceScale = 0 }, "confidence_scale"},
		{"bad port on serve", "serve", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"monitoring without lookback", "serve", func(c *Config) {
			c.Monitoring.Enabled = true
			c.Monitoring.LookbackDays = 0
		}, "monitoring.lookback_days"},
		{"negative repeat window", "serve", func(c *Config) {
			c.Monitoring.RepeatAlertHours = -1
		}, "monitoring.repeat_alert_hours"},
		{"bad port ignored outside serve", "calibrate", func(c *Config) { c.Server.Port = 0 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			tt.mutate(cfg)
			err := cfg.Validate(tt.mode)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
