package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pratik-anurag/openport/internal/logging"
	"github.com/pratik-anurag/openport/internal/model"
	"github.com/pratik-anurag/openport/internal/report"
	"github.com/pratik-anurag/openport/internal/risk"
)

// Config holds scan settings. Zero fields are filled by Load.
type Config struct {
	LogFile     string       `yaml:"log_file"`
	LogLevel    string       `yaml:"log_level"`
	LogJSON     bool         `yaml:"log_json"`
	CSVPath     string       `yaml:"csv_path"`
	JSONPath    string       `yaml:"json_path"`
	DBPath      string       `yaml:"db_path"`
	MetricsFile string       `yaml:"metrics_file"`
	Color       string       `yaml:"color"` // auto|always|never
	OSFamily    string       `yaml:"os_family"`
	Catalog     []risk.Entry `yaml:"catalog"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		LogFile:  logging.DefaultFile,
		LogLevel: "info",
		CSVPath:  report.DefaultCSVPattern,
		Color:    "auto",
	}
}

// Load reads path (if non-empty) over the defaults, then applies env
// overrides. OPENPORT_CONFIG is used when path is empty.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("OPENPORT_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	// Env overrides
	if v := os.Getenv("OPENPORT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("OPENPORT_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("OPENPORT_OS_FAMILY"); v != "" {
		cfg.OSFamily = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the scan pipeline cannot use.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.Color) {
	case "", "auto", "always", "never":
	default:
		return fmt.Errorf("invalid color %q (auto|always|never)", c.Color)
	}
	if c.OSFamily != "" {
		if _, ok := model.ParseOSFamily(c.OSFamily); !ok {
			return fmt.Errorf("invalid os_family %q (windows|linux|other)", c.OSFamily)
		}
	}
	if c.CSVPath == "" {
		return errors.New("csv_path must not be empty")
	}
	return nil
}

// BuildCatalog returns the built-in catalog extended by the configured entries.
func (c *Config) BuildCatalog() (*risk.Catalog, error) {
	if len(c.Catalog) == 0 {
		return risk.DefaultCatalog(), nil
	}
	return risk.DefaultCatalog().Merge(c.Catalog)
}
