// Package config handles application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"
	_ "time/tzdata" // Zone data for hosts without a system database

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds all application configuration.
// Fields are populated from environment variables.
type Config struct {
	// Server settings (airac serve)
	Port int    // HTTP port to listen on
	Env  string // development, staging, production

	// Database
	DatabasePath string // Path to SQLite file holding recorded cycles

	// Cycle resolution
	Timezone        string // IANA location used to decide today's date
	RefreshSchedule string // Cron spec for the rollover job

	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text
}

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// LoadFrom reads configuration through getenv.
// A variable getenv leaves empty falls back to the .env file in the working
// directory, if any. The process environment is never modified.
func LoadFrom(getenv func(string) string) (*Config, error) {
	// Ignore error if the file doesn't exist
	dotenv, _ := godotenv.Read()
	getenv = withFallback(getenv, dotenv)

	cfg := &Config{}

	// Server settings
	cfg.Port = getEnvInt(getenv, "PORT", 8080)
	cfg.Env = getEnv(getenv, "ENV", EnvDevelopment)

	// Database
	cfg.DatabasePath = getEnv(getenv, "DATABASE_PATH", "./data/airac.db")

	// Cycle resolution
	cfg.Timezone = getEnv(getenv, "AIRAC_TIMEZONE", "UTC")
	cfg.RefreshSchedule = getEnv(getenv, "REFRESH_SCHEDULE", "5 0 * * *")

	// Logging. Default to warn so the emitter only writes its three lines.
	cfg.LogLevel = getEnv(getenv, "LOG_LEVEL", "warn")
	cfg.LogFormat = getEnv(getenv, "LOG_FORMAT", "text")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}

	switch c.Env {
	case EnvDevelopment, EnvStaging, EnvProduction:
		// Valid
	default:
		errs = append(errs, fmt.Errorf("ENV must be one of: development, staging, production; got %q", c.Env))
	}

	if c.DatabasePath == "" {
		errs = append(errs, errors.New("DATABASE_PATH is required"))
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("AIRAC_TIMEZONE %q: %w", c.Timezone, err))
	}

	if _, err := cron.ParseStandard(c.RefreshSchedule); err != nil {
		errs = append(errs, fmt.Errorf("REFRESH_SCHEDULE %q: %w", c.RefreshSchedule, err))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
		// Valid
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error; got %q", c.LogLevel))
	}

	switch c.LogFormat {
	case "json", "text":
		// Valid
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be one of: json, text; got %q", c.LogFormat))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Location returns the configured time zone.
// Falls back to UTC if the zone cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// withFallback consults fallback for keys getenv leaves empty.
func withFallback(getenv func(string) string, fallback map[string]string) func(string) string {
	if len(fallback) == 0 {
		return getenv
	}
	return func(key string) string {
		if value := getenv(key); value != "" {
			return value
		}
		return fallback[key]
	}
}

// getEnv reads an environment variable with a default fallback.
func getEnv(getenv func(string) string, key, defaultValue string) string {
	if value := getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt reads an environment variable as an integer with a default fallback.
func getEnvInt(getenv func(string) string, key string, defaultValue int) int {
	if value := getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
