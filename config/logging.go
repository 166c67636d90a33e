package config

import (
	"fmt"

	"github.com/rs/zerolog"
)

// LoggingConfig defines the level and output format of the application logs.
type LoggingConfig struct {
	// Level is a zerolog level name: trace, debug, info, warn, error.
	Level string `json:"level"`
	// Format selects "json" or "console" output. Empty lets APP_ENV=dev
	// pick console.
	Format string `json:"format"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

// Validate checks mandatory fields.
func (c LoggingConfig) Validate() error {
	if _, err := zerolog.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("unknown level %s", c.Level)
	}
	if c.Format != "" && c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("unknown format %s", c.Format)
	}
	return nil
}

// AnalysisConfig tunes batch analysis.
type AnalysisConfig struct {
	// Workers bounds the number of logs analysed in parallel.
	Workers int `json:"workers"`
}

// SetDefaults applies sane defaults.
func (c *AnalysisConfig) SetDefaults() {
	if c.Workers <= 0 {
		c.Workers = 4
	}
}

// Validate checks mandatory fields.
func (c AnalysisConfig) Validate() error {
	if c.Workers > 256 {
		return fmt.Errorf("workers must be at most 256, got %d", c.Workers)
	}
	return nil
}
