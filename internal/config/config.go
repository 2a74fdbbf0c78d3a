// Package config loads the service configuration from YAML, .env files and
// environment variables.
//
// Precedence, lowest to highest: built-in defaults, the YAML file, the
// environment (including variables loaded from .env).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/ocr-som/internal/logging"
	"github.com/ironsheep/ocr-som/internal/ocr"
	"github.com/ironsheep/ocr-som/internal/som"
)

// Environment variables read by ApplyEnv and Resolve.
const (
	EnvConfig         = "SOM_CONFIG"
	EnvLogLevel       = "SOM_LOG_LEVEL"
	EnvLogFile        = "SOM_LOG_FILE"
	EnvOCRLang        = "SOM_OCR_LANG"
	EnvTessdataPrefix = "SOM_TESSDATA_PREFIX"
	EnvOCREnabled     = "SOM_OCR_ENABLED"
)

// OCRConfig configures the text recognizer.
type OCRConfig struct {
	ocr.Config `yaml:",inline"`

	// Enabled turns text recognition on (default true). When off, runs
	// report no text elements.
	Enabled *bool `yaml:"enabled,omitempty" json:"enabled,omitempty"`

	// Preload builds the recognizer at startup instead of on first use.
	Preload bool `yaml:"preload,omitempty" json:"preload,omitempty"`
}

// IsEnabled reports whether text recognition is on.
func (c OCRConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Config is the full service configuration.
type Config struct {
	logging.Config `yaml:",inline"`

	OCR OCRConfig `yaml:"ocr" json:"ocr"`

	// Detection holds the default pipeline options. Request options
	// override them field by field.
	Detection som.Options `yaml:"detection" json:"detection"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Config: logging.Config{Level: "info"},
		OCR:    OCRConfig{Config: ocr.DefaultConfig()},
	}
}

// Load reads a YAML configuration file over the defaults. An empty path or
// a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.OCR.Config = cfg.OCR.Config.WithDefaults()
	return cfg, nil
}

// Save writes the configuration as YAML. The write is atomic: the data goes
// to a temporary file that is then renamed over path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// into the process environment. Missing files are ignored; variables that
// are already set are not overwritten.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides configuration values from environment variables.
// getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvLogLevel); v != "" {
		c.Level = strings.ToLower(v)
	}
	if v := getenv(EnvLogFile); v != "" {
		c.File = v
	}
	if v := getenv(EnvOCRLang); v != "" {
		c.OCR.Languages = splitLanguages(v)
	}
	if v := getenv(EnvTessdataPrefix); v != "" {
		c.OCR.TessdataPrefix = v
	}
	if v := getenv(EnvOCREnabled); v != "" {
		switch strings.ToLower(v) {
		case "0", "false", "no", "off":
			c.OCR.Enabled = som.Bool(false)
		default:
			c.OCR.Enabled = som.Bool(true)
		}
	}
}

var validate = validator.New()

// Validate checks the configuration, including the detection defaults.
func (c *Config) Validate() error {
	if err := validate.Struct(c.Config); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}
	if err := validate.Struct(c.OCR.Config); err != nil {
		return fmt.Errorf("invalid ocr config: %w", err)
	}
	if err := c.Detection.Validate(); err != nil {
		return fmt.Errorf("invalid detection config: %w", err)
	}
	return nil
}

// Resolve loads .env, then the YAML file at path (or $SOM_CONFIG when path
// is empty), applies environment overrides and validates the result. It
// returns the configuration and the file path that was consulted.
func Resolve(path string) (*Config, string, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, "", err
	}
	if path == "" {
		path = os.Getenv(EnvConfig)
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

func splitLanguages(v string) []string {
	fields := strings.FieldsFunc(v, func(r rune) bool {
		return r == '+' || r == ',' || r == ' '
	})
	return fields
}
