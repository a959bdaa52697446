// Package config loads application configuration from environment
// variables, with .env support for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	// Load environment variables from .env files when present.
	_ "github.com/joho/godotenv/autoload"

	"github.com/orcafacil/backend/internal/domain/importer/normalizer"
)

// Config holds all application configuration
type Config struct {
	Database      DatabaseConfig
	Import        ImportConfig
	Cron          CronConfig
	Observability ObservabilityConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// ImportConfig tunes the file import pipeline.
type ImportConfig struct {
	BatchSize    int
	ValidityDays int
	CentsMode    normalizer.CentsMode
	DateFormat   string
	Timezone     string
	InboxDir     string
}

type CronConfig struct {
	// ExpirySchedule is the cron expression for the quote validity sweep.
	ExpirySchedule string
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	MetricsPort    int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "orcafacil-dev"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Import: ImportConfig{
			BatchSize:    getEnvAsInt("IMPORT_BATCH_SIZE", 500),
			ValidityDays: getEnvAsInt("IMPORT_VALIDITY_DAYS", 15),
			DateFormat:   getEnv("IMPORT_DATE_FORMAT", ""),
			Timezone:     getEnv("IMPORT_TIMEZONE", "America/Sao_Paulo"),
			InboxDir:     getEnv("IMPORT_INBOX_DIR", "./imports"),
		},
		Cron: CronConfig{
			ExpirySchedule: getEnv("CRON_EXPIRY_SCHEDULE", "0 3 * * *"),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
		},
	}

	mode, err := parseCentsMode(getEnv("IMPORT_CENTS_MODE", "off"))
	if err != nil {
		return nil, err
	}
	cfg.Import.CentsMode = mode

	if _, err := time.LoadLocation(cfg.Import.Timezone); err != nil {
		return nil, fmt.Errorf("invalid IMPORT_TIMEZONE %q: %w", cfg.Import.Timezone, err)
	}

	return cfg, nil
}

// Location resolves the configured import timezone. Load has already
// verified it parses.
func (c *ImportConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func parseCentsMode(raw string) (normalizer.CentsMode, error) {
	switch raw {
	case "off", "":
		return normalizer.CentsModeOff, nil
	case "warn":
		return normalizer.CentsModeWarn, nil
	case "force":
		return normalizer.CentsModeForce, nil
	default:
		return 0, fmt.Errorf("invalid IMPORT_CENTS_MODE %q (want off, warn or force)", raw)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
