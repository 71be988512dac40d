// Package config provides configuration management for the simulation engine.
package config

import (
	"time"

	"github.com/baseball-sim/sim-engine/distribution"
	"github.com/baseball-sim/sim-engine/simulation"
)

// Config represents the complete application configuration
type Config struct {
	App         AppConfig                            `mapstructure:"app" validate:"required"`
	Server      ServerConfig                         `mapstructure:"server" validate:"required"`
	Database    DatabaseConfig                       `mapstructure:"database"`
	Weather     WeatherConfig                        `mapstructure:"weather"`
	Secrets     SecretsConfig                        `mapstructure:"secrets"`
	Simulation  SimulationConfig                     `mapstructure:"simulation" validate:"required"`
	Engine      simulation.Params                    `mapstructure:"engine"`
	Calibration distribution.Calibration             `mapstructure:"calibration"`
	Lines       map[string]distribution.SegmentLines `mapstructure:"lines"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// ServerConfig represents the HTTP listener
type ServerConfig struct {
	Port                int      `mapstructure:"port" validate:"required,min=1,max=65535"`
	ReadTimeoutSeconds  int      `mapstructure:"read_timeout_seconds" validate:"gte=0"`
	WriteTimeoutSeconds int      `mapstructure:"write_timeout_seconds" validate:"gte=0"`
	AllowedOrigins      []string `mapstructure:"allowed_origins" validate:"dive,required"`
}

// DatabaseConfig represents the optional run store
type DatabaseConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	URL            string `mapstructure:"url" validate:"required_if=Enabled true"`
	MaxConnections int32  `mapstructure:"max_connections" validate:"gte=0"`
}

// SecretsConfig points at an AWS Secrets Manager overlay for credentials
type SecretsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Region     string `mapstructure:"region" validate:"required_if=Enabled true"`
	SecretName string `mapstructure:"secret_name" validate:"required_if=Enabled true"`
}

// WeatherConfig represents the forecast service
type WeatherConfig struct {
	APIKey          string  `mapstructure:"api_key"`
	BaseURL         string  `mapstructure:"base_url" validate:"omitempty,url"`
	CacheTTLMinutes int     `mapstructure:"cache_ttl_minutes" validate:"gt=0"`
	TimeoutSeconds  int     `mapstructure:"timeout_seconds" validate:"gt=0"`
	MaxRetries      int     `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RateLimit       float64 `mapstructure:"rate_limit" validate:"gte=0"`
}

// SimulationConfig represents the default batch for each run
type SimulationConfig struct {
	Trials            int    `mapstructure:"trials" validate:"required,min=1,max=1000000"`
	Workers           int    `mapstructure:"workers" validate:"required,min=1,max=256"`
	Seed              uint64 `mapstructure:"seed"`
	Noise             bool   `mapstructure:"noise"`
	ShareReliefUsage  bool   `mapstructure:"share_relief_usage"`
	RunRetentionHours int    `mapstructure:"run_retention_hours" validate:"gt=0"`
	CleanupSchedule   string `mapstructure:"cleanup_schedule"`
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// RunOptions converts the simulation section into driver options
func (c *Config) RunOptions() simulation.RunOptions {
	return simulation.RunOptions{
		Trials:           c.Simulation.Trials,
		Workers:          c.Simulation.Workers,
		Seed:             c.Simulation.Seed,
		Noise:            c.Simulation.Noise,
		ShareReliefUsage: c.Simulation.ShareReliefUsage,
	}
}

// RunRetention returns how long finished runs stay in memory
func (c *Config) RunRetention() time.Duration {
	return time.Duration(c.Simulation.RunRetentionHours) * time.Hour
}

// CleanupSchedule returns the cron spec for pruning finished runs
func (c *Config) CleanupSchedule() string {
	if c.Simulation.CleanupSchedule == "" {
		return "@hourly"
	}
	return c.Simulation.CleanupSchedule
}

// WeatherCacheTTL returns the forecast cache lifetime
func (c *Config) WeatherCacheTTL() time.Duration {
	return time.Duration(c.Weather.CacheTTLMinutes) * time.Minute
}

// WeatherTimeout returns the forecast request timeout
func (c *Config) WeatherTimeout() time.Duration {
	return time.Duration(c.Weather.TimeoutSeconds) * time.Second
}
