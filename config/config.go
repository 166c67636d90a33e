package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/mfragab5890/ev-stats/core/battery"
	"github.com/mfragab5890/ev-stats/core/metrics"
)

// EnvPrefix prefixes every environment override. Nested keys use a double
// underscore, e.g. EVSTATS_THRESHOLDS__MAX_CELL_VOLTAGE.
const EnvPrefix = "EVSTATS_"

type Config struct {
	Thresholds battery.Thresholds `json:"thresholds"`
	Logging    LoggingConfig      `json:"logging"`
	Analysis   AnalysisConfig     `json:"analysis"`
	Metrics    metrics.Config     `json:"metrics"`
}

// Load reads the configuration file at path, applies environment overrides
// and fills defaults. An empty path skips the file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	prefix := strings.ToLower(EnvPrefix)
	// The callback rewrites "__" to the koanf delimiter, so keys are split on ".".
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), prefix)
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file or environment is given.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Thresholds.SetDefaults()
	c.Logging.SetDefaults()
	c.Analysis.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Analysis.Validate(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	for i, s := range c.Metrics.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics: sinks[%d] type is required", i)
		}
	}
	return nil
}
