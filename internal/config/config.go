// Package config loads crossmap settings from a YAML file, an optional .env
// file and CROSSMAP_* environment variables, in that order of precedence
// (later wins).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"crossmap/internal/discover"
	"crossmap/internal/equation"
	"crossmap/internal/hierarchy"
	"crossmap/internal/match"
)

// Environment variables read by Load.
const (
	EnvLogLevel           = "CROSSMAP_LOG_LEVEL"
	EnvLogFormat          = "CROSSMAP_LOG_FORMAT"
	EnvStorePath          = "CROSSMAP_STORE_PATH"
	EnvDiscoveryThreshold = "CROSSMAP_DISCOVERY_THRESHOLD"
	EnvDiscoveryWorkers   = "CROSSMAP_DISCOVERY_WORKERS"
	EnvTolerance          = "CROSSMAP_TOLERANCE"
)

// Config is the full application configuration.
type Config struct {
	Discovery  discover.Options  `yaml:"discovery"`
	Rollup     Rollup            `yaml:"rollup"`
	Validation Validation        `yaml:"validation"`
	Hierarchy  hierarchy.Options `yaml:"hierarchy"`
	Log        Log               `yaml:"log"`
	Store      Store             `yaml:"store"`
}

// Rollup settings.
type Rollup struct {
	// Threshold is the minimum definition confidence and fuzzy value score.
	Threshold float64 `yaml:"threshold"`
}

// Validation settings.
type Validation struct {
	// Tolerance is a decimal string so YAML never rounds it through a float.
	Tolerance string `yaml:"tolerance"`
}

// ToleranceValue parses Tolerance.
func (v Validation) ToleranceValue() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(v.Tolerance))
	if err != nil {
		return decimal.Zero, fmt.Errorf("tolerance %q: %w", v.Tolerance, err)
	}

	return d, nil
}

// Log settings.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Store settings.
type Store struct {
	Path string `yaml:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Discovery:  discover.DefaultOptions(),
		Rollup:     Rollup{Threshold: match.DefaultThreshold},
		Validation: Validation{Tolerance: equation.DefaultTolerance.String()},
		Log:        Log{Level: "info", Format: "json"},
		Store:      Store{Path: "crossmap.db"},
	}
}

// Load reads path over the defaults, then applies the .env files and the
// environment. An empty path or a missing file leaves the defaults in place.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)

		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := loadDotEnv(envFiles...); err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadDotEnv loads .env files without overriding variables already set.
// Missing files are ignored.
func loadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}

	return nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.Log.Level = v
	}

	if v, ok := os.LookupEnv(EnvLogFormat); ok {
		c.Log.Format = v
	}

	if v, ok := os.LookupEnv(EnvStorePath); ok {
		c.Store.Path = v
	}

	if v, ok := os.LookupEnv(EnvTolerance); ok {
		c.Validation.Tolerance = v
	}

	if v, ok := os.LookupEnv(EnvDiscoveryThreshold); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDiscoveryThreshold, err)
		}

		c.Discovery.Threshold = f
	}

	if v, ok := os.LookupEnv(EnvDiscoveryWorkers); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDiscoveryWorkers, err)
		}

		c.Discovery.Workers = n
	}

	return nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error

	if c.Discovery.Threshold < 0 || c.Discovery.Threshold > 1 {
		errs = append(errs, fmt.Errorf("discovery.threshold %v outside [0,1]", c.Discovery.Threshold))
	}

	if c.Discovery.NameWeight < 0 || c.Discovery.NameWeight > 1 {
		errs = append(errs, fmt.Errorf("discovery.name_weight %v outside [0,1]", c.Discovery.NameWeight))
	}

	if c.Discovery.Workers < 1 {
		errs = append(errs, fmt.Errorf("discovery.workers must be at least 1, got %d", c.Discovery.Workers))
	}

	if c.Discovery.Timeout < 0 {
		errs = append(errs, fmt.Errorf("discovery.timeout %v is negative", c.Discovery.Timeout))
	}

	if c.Rollup.Threshold < 0 || c.Rollup.Threshold > 1 {
		errs = append(errs, fmt.Errorf("rollup.threshold %v outside [0,1]", c.Rollup.Threshold))
	}

	if tol, err := c.Validation.ToleranceValue(); err != nil {
		errs = append(errs, fmt.Errorf("validation.%w", err))
	} else if tol.IsNegative() {
		errs = append(errs, fmt.Errorf("validation.tolerance %s is negative", tol))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not json or console", c.Log.Format))
	}

	return errors.Join(errs...)
}
