// Package config loads control's user settings.
//
// Settings live in a YAML file under the user configuration directory
// (os.UserConfigDir()/control/config.yml). Environment variables prefixed
// CONTROL_ override file values, and built-in defaults fill the rest:
//
//	CONTROL_OUTPUT_FILE=.control-log
//	CONTROL_LEDGER=$HOME/.local/share/control/ledger.db
//	CONTROL_WORKERS=8
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrUnknownKey indicates a setting name control does not recognise.
	ErrUnknownKey = errors.New("unknown config key")

	// ErrInvalidValue indicates a value that cannot be stored for its key.
	ErrInvalidValue = errors.New("invalid config value")
)

// Setting names.
const (
	KeyOutputFile = "output_file"
	KeyLedger     = "ledger"
	KeyExclude    = "exclude"
	KeyGitignore  = "gitignore"
	KeyWorkers    = "workers"
	KeyFilter     = "filter"
)

// Keys lists every setting name in display order.
var Keys = []string{KeyOutputFile, KeyLedger, KeyExclude, KeyGitignore, KeyWorkers, KeyFilter}

// DefaultOutputFile is the snapshot path used when none is configured.
const DefaultOutputFile = ".control-log"

// Config holds user settings.
type Config struct {
	// OutputFile is the default snapshot path for `control code`.
	OutputFile string `yaml:"output_file" mapstructure:"output_file"`
	// Ledger is the SQLite path recording runs. Empty disables the ledger.
	Ledger string `yaml:"ledger" mapstructure:"ledger"`
	// Exclude holds glob patterns skipped during discovery.
	Exclude []string `yaml:"exclude" mapstructure:"exclude"`
	// Gitignore enables .gitignore handling during discovery.
	Gitignore bool `yaml:"gitignore" mapstructure:"gitignore"`
	// Workers bounds parallel extraction. Zero means one per CPU; one
	// disables parallelism.
	Workers int `yaml:"workers" mapstructure:"workers"`
	// Filter is a Risor script deciding which regions are recorded.
	Filter string `yaml:"filter" mapstructure:"filter"`
}

// DefaultPath returns os.UserConfigDir()/control/config.yml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(dir, "control", "config.yml"), nil
}

// Load reads settings from path, or from DefaultPath when path is empty.
// A missing file is not an error: defaults and environment apply.
func Load(path string) (*Config, error) {
	path, err := resolve(path)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yml")

	v.SetEnvPrefix("CONTROL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Set stores one setting in the file at path (DefaultPath when empty),
// creating the file and its directory as needed. Other settings in the file
// are preserved.
func Set(path, key, value string) error {
	path, err := resolve(path)
	if err != nil {
		return err
	}
	parsed, err := parseValue(key, value)
	if err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yml")
	if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	v.Set(key, parsed)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Get returns the named setting of cfg formatted for display.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case KeyOutputFile:
		return c.OutputFile, nil
	case KeyLedger:
		return c.Ledger, nil
	case KeyExclude:
		return strings.Join(c.Exclude, ","), nil
	case KeyGitignore:
		return strconv.FormatBool(c.Gitignore), nil
	case KeyWorkers:
		return strconv.Itoa(c.Workers), nil
	case KeyFilter:
		return c.Filter, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

// Validate checks that cfg holds usable values.
func Validate(cfg *Config) error {
	if cfg.OutputFile == "" {
		return fmt.Errorf("%w: %s must not be empty", ErrInvalidValue, KeyOutputFile)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("%w: %s must be >= 0, got %d", ErrInvalidValue, KeyWorkers, cfg.Workers)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyOutputFile, DefaultOutputFile)
	v.SetDefault(KeyLedger, "")
	v.SetDefault(KeyExclude, []string{})
	v.SetDefault(KeyGitignore, true)
	v.SetDefault(KeyWorkers, 0)
	v.SetDefault(KeyFilter, "")
}

func parseValue(key, value string) (any, error) {
	if !slices.Contains(Keys, key) {
		return nil, fmt.Errorf("%w: %q (valid keys: %s)", ErrUnknownKey, key, strings.Join(Keys, ", "))
	}
	switch key {
	case KeyOutputFile:
		if strings.TrimSpace(value) == "" {
			return nil, fmt.Errorf("%w: %s must not be empty", ErrInvalidValue, key)
		}
		return value, nil
	case KeyExclude:
		var patterns []string
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				patterns = append(patterns, p)
			}
		}
		return patterns, nil
	case KeyGitignore:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects true or false, got %q", ErrInvalidValue, key, value)
		}
		return b, nil
	case KeyWorkers:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %s expects a non-negative integer, got %q", ErrInvalidValue, key, value)
		}
		return n, nil
	}
	return value, nil
}

func resolve(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return DefaultPath()
}

// isNotFound reports whether err means the config file does not exist.
// SetConfigFile makes viper surface the raw os error instead of
// ConfigFileNotFoundError.
func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}
