/*
Package config loads engine configuration from the environment.

PURPOSE:
  One place for every tunable the engine exposes. Values come from
  environment variables (optionally via a .env file) with sane defaults,
  so deployments configure the engine without code changes or CLI flags.

CONFIGURATION SURFACE:
  PORT                       HTTP server port            (default 8080)
  DB_PATH                    SQLite database path        (default journeys.db)
  MAX_SHIFT_DURATION_HOURS   Auto-close threshold        (default 8)
  GEOFENCE_TOLERANCE_METERS  Zone radius fallback        (default 10)
  SWEEP_INTERVAL_MINUTES     Scheduler tick interval     (default 60)
  SCHEDULER_ENABLED          Background sweep on/off     (default true)

SEE ALSO:
  - cmd/server/main.go: Consumes Config at startup
  - api/scheduler.go: Uses the sweep and threshold settings
*/
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port   int
	DBPath string

	MaxShiftDuration  time.Duration
	GeofenceTolerance float64
	SweepInterval     time.Duration
	SchedulerEnabled  bool
}

// Load reads configuration from environment variables and a .env file if
// one is present. Actual environment variables win over .env values.
func Load() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PORT", 8080)
	v.SetDefault("DB_PATH", "journeys.db")
	v.SetDefault("MAX_SHIFT_DURATION_HOURS", 8.0)
	v.SetDefault("GEOFENCE_TOLERANCE_METERS", 10.0)
	v.SetDefault("SWEEP_INTERVAL_MINUTES", 60)
	v.SetDefault("SCHEDULER_ENABLED", true)
	v.AutomaticEnv()

	cfg := &Config{
		Port:              v.GetInt("PORT"),
		DBPath:            v.GetString("DB_PATH"),
		MaxShiftDuration:  time.Duration(v.GetFloat64("MAX_SHIFT_DURATION_HOURS") * float64(time.Hour)),
		GeofenceTolerance: v.GetFloat64("GEOFENCE_TOLERANCE_METERS"),
		SweepInterval:     time.Duration(v.GetInt("SWEEP_INTERVAL_MINUTES")) * time.Minute,
		SchedulerEnabled:  v.GetBool("SCHEDULER_ENABLED"),
	}

	if cfg.MaxShiftDuration <= 0 {
		return nil, fmt.Errorf("MAX_SHIFT_DURATION_HOURS must be positive, got %v", cfg.MaxShiftDuration)
	}
	if cfg.GeofenceTolerance <= 0 {
		return nil, fmt.Errorf("GEOFENCE_TOLERANCE_METERS must be positive, got %v", cfg.GeofenceTolerance)
	}
	if cfg.SweepInterval <= 0 {
		return nil, fmt.Errorf("SWEEP_INTERVAL_MINUTES must be positive, got %v", cfg.SweepInterval)
	}

	return cfg, nil
}

// MaxShiftHours returns the auto-close threshold in hours.
func (c *Config) MaxShiftHours() float64 {
	return c.MaxShiftDuration.Hours()
}
