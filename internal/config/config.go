package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Pricing     PricingConfig     `yaml:"pricing" mapstructure:"pricing"`
	Calibration CalibrationConfig `yaml:"calibration" mapstructure:"calibration"`
	Retry       RetryConfig       `yaml:"retry" mapstructure:"retry"`
	Monitoring  MonitoringConfig  `yaml:"monitoring" mapstructure:"monitoring"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	MaxConns    int    `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int    `yaml:"min_conns" mapstructure:"min_conns"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	RateLimit   float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst   int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// PricingConfig holds organization pricing defaults.
type PricingConfig struct {
	BurdenMultiplier     float64 `yaml:"burden_multiplier" mapstructure:"burden_multiplier"`
	DefaultMarginPercent float64 `yaml:"default_margin_percent" mapstructure:"default_margin_percent"`
	BufferPercent        float64 `yaml:"buffer_percent" mapstructure:"buffer_percent"`
	CatalogFile          string  `yaml:"catalog_file" mapstructure:"catalog_file"`
	RatesFile            string  `yaml:"rates_file" mapstructure:"rates_file"`
}

// CalibrationConfig controls template recalibration.
type CalibrationConfig struct {
	MinJobsRequired int     `yaml:"min_jobs_required" mapstructure:"min_jobs_required"`
	WindowDays      int     `yaml:"window_days" mapstructure:"window_days"`
	ConfidenceScale float64 `yaml:"confidence_scale" mapstructure:"confidence_scale"`
	MaxConcurrent   int     `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// RetryConfig controls retries of storage I/O.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// MonitoringConfig controls performance drift alerts.
type MonitoringConfig struct {
	Enabled               bool    `yaml:"enabled" mapstructure:"enabled"`
	WebhookURL            string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs     int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackDays          int     `yaml:"lookback_days" mapstructure:"lookback_days"`
	MinJobs               int     `yaml:"min_jobs" mapstructure:"min_jobs"`
	ScoreThreshold        float64 `yaml:"score_threshold" mapstructure:"score_threshold"`
	MarginShortfallPoints float64 `yaml:"margin_shortfall_points" mapstructure:"margin_shortfall_points"`
	// RepeatAlertHours is how long an alert for one service type and kind
	// stays quiet after it was raised. 0 raises it on every check.
	RepeatAlertHours int `yaml:"repeat_alert_hours" mapstructure:"repeat_alert_hours"`
}

// Load reads configuration from an optional config.yaml in the working
// directory and the environment.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom is Load with an explicit config file. A named file must exist.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("TREESHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "treeshop.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("pricing.burden_multiplier", 1.7)
	v.SetDefault("pricing.default_margin_percent", 35.0)
	v.SetDefault("pricing.buffer_percent", 10.0)
	v.SetDefault("calibration.min_jobs_required", 5)
	v.SetDefault("calibration.window_days", 365)
	v.SetDefault("calibration.confidence_scale", 10.0)
	v.SetDefault("calibration.max_concurrent", 4)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 50)
	v.SetDefault("retry.max_backoff_ms", 2000)
	v.SetDefault("monitoring.enabled", false)
	v.SetDefault("monitoring.check_interval_secs", 3600)
	v.SetDefault("monitoring.lookback_days", 30)
	v.SetDefault("monitoring.min_jobs", 3)
	v.SetDefault("monitoring.score_threshold", 60.0)
	v.SetDefault("monitoring.margin_shortfall_points", 10.0)
	v.SetDefault("monitoring.repeat_alert_hours", 24)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command depends on. mode is the command
// name; "serve" additionally checks the server section.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.SQLitePath == "" {
			problems = append(problems, "store.sqlite_path is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for the postgres driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("store.driver %q must be sqlite or postgres", c.Store.Driver))
	}

	if c.Pricing.BurdenMultiplier < 1 {
		problems = append(problems, "pricing.burden_multiplier must be >= 1")
	}
	if c.Pricing.DefaultMarginPercent >= 100 {
		problems = append(problems, "pricing.default_margin_percent must be < 100")
	}
	if c.Pricing.BufferPercent < 0 {
		problems = append(problems, "pricing.buffer_percent must be >= 0")
	}
	if c.Calibration.MinJobsRequired < 1 {
		problems = append(problems, "calibration.min_jobs_required must be >= 1")
	}
	if c.Calibration.WindowDays < 1 {
		problems = append(problems, "calibration.window_days must be >= 1")
	}
	if c.Calibration.ConfidenceScale <= 0 {
		problems = append(problems, "calibration.confidence_scale must be > 0")
	}
	if c.Calibration.MaxConcurrent < 1 {
		problems = append(problems, "calibration.max_concurrent must be >= 1")
	}

	if c.Monitoring.Enabled && c.Monitoring.LookbackDays < 1 {
		problems = append(problems, "monitoring.lookback_days must be >= 1")
	}
	if c.Monitoring.RepeatAlertHours < 0 {
		problems = append(problems, "monitoring.repeat_alert_hours must be >= 0")
	}

	if mode == "serve" {
		if c.Server.Port < 1 || c.Server.Port > 65535 {
			problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
		}
		if c.Server.RateLimit < 0 {
			problems = append(problems, "server.rate_limit must be >= 0")
		}
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid for %s: %s", mode, strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
