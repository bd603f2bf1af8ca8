package config

import (
	"errors"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all run settings, populated from environment variables.
type Config struct {
	DataRoot  string
	PlotsFile string
	OutputDir string
	LogLevel  string
	LogFormat string

	// ShutdownTimeout bounds the final exports after an interrupt.
	ShutdownTimeout time.Duration

	// MinDirectionPoints is how many rows a profile must keep after
	// cast-direction filtering.
	MinDirectionPoints int

	// Optional outputs; empty disables.
	MetricsTextfile string
	ExportSQLite    string
	ExportCSVDir    string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	minPoints, err := strconv.Atoi(sharedcfg.EnvOrDefault("MIN_DIRECTION_POINTS", "10"))
	if err != nil || minPoints <= 0 {
		return nil, errors.New("invalid MIN_DIRECTION_POINTS: must be a positive integer")
	}

	cfg := &Config{
		DataRoot:           sharedcfg.EnvOrDefault("DATA_ROOT", "./data"),
		PlotsFile:          sharedcfg.EnvOrDefault("PLOTS_FILE", "plots.yaml"),
		OutputDir:          sharedcfg.EnvOrDefault("OUTPUT_DIR", "plots"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          strings.ToLower(sharedcfg.EnvOrDefault("LOG_FORMAT", "json")),
		ShutdownTimeout:    shutdownTimeout,
		MinDirectionPoints: minPoints,
		MetricsTextfile:    sharedcfg.EnvOrDefault("METRICS_TEXTFILE", ""),
		ExportSQLite:       sharedcfg.EnvOrDefault("EXPORT_SQLITE", ""),
		ExportCSVDir:       sharedcfg.EnvOrDefault("EXPORT_CSV_DIR", ""),
	}

	if cfg.DataRoot == "" {
		return nil, errors.New("DATA_ROOT is required")
	}
	if cfg.PlotsFile == "" {
		return nil, errors.New("PLOTS_FILE is required")
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, errors.New("LOG_FORMAT must be json or text")
	}

	return cfg, nil
}
