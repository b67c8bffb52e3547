// Package config loads pwvault settings.
//
// Settings come from, in increasing precedence:
//   - built-in defaults
//   - $XDG_CONFIG_HOME/pwvault/config.toml (or the platform equivalent)
//   - PWVAULT_* environment variables
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/illarion/pwvault/internal/logging"
	"github.com/illarion/pwvault/internal/pws3"
	"github.com/illarion/pwvault/internal/vault"
)

const (
	appDir         = "pwvault"
	configFileName = "config.toml"
	indexFileName  = "index.db"

	DefaultAutoLock = 30 * time.Minute
)

// Environment variables overriding file settings
const (
	EnvAutoLock   = "PWVAULT_AUTOLOCK"
	EnvIterations = "PWVAULT_ITERATIONS"
	EnvIndex      = "PWVAULT_INDEX"
	EnvLogLevel   = "PWVAULT_LOG_LEVEL"
	EnvNoKeyring  = "PWVAULT_NO_KEYRING"
)

// Duration is a time.Duration written as a string ("30m") in TOML
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config holds user settings. Nothing in it is secret.
type Config struct {
	// Idle time after which an unlocked vault locks itself; 0 disables
	AutoLock Duration `toml:"auto_lock"`

	// Key-stretch iterations for new vaults and passphrase changes
	Iterations uint32 `toml:"iterations"`

	// bbolt index of known vault files; empty disables the index
	IndexPath string `toml:"index_path"`

	// Cache passphrases in the OS keyring
	Keyring bool `toml:"keyring"`

	LogLevel    string `toml:"log_level"`
	DefaultSort string `toml:"default_sort"`
}

// Default returns the built-in configuration
func Default() *Config {
	index := ""
	if dir, err := os.UserConfigDir(); err == nil {
		index = filepath.Join(dir, appDir, indexFileName)
	}
	return &Config{
		AutoLock:    Duration{DefaultAutoLock},
		Iterations:  pws3.DefaultIterations,
		IndexPath:   index,
		Keyring:     true,
		LogLevel:    "warn",
		DefaultSort: "title",
	}
}

// DefaultPath returns the location of the config file
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, appDir, configFileName), nil
}

// Load reads the config file at path over the defaults, applies environment
// overrides and validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from PWVAULT_* variables
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAutoLock); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvAutoLock, err)
		}
		c.AutoLock = Duration{d}
	}
	if v, ok := lookup(EnvIterations); ok && v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvIterations, err)
		}
		c.Iterations = uint32(n)
	}
	if v, ok := lookup(EnvIndex); ok {
		c.IndexPath = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvNoKeyring); ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "", "0", "false", "no":
		default:
			c.Keyring = false
		}
	}
	return nil
}

// ValidationError names the offending setting
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() error {
	var errs []error
	if c.AutoLock.Duration < 0 {
		errs = append(errs, ValidationError{"auto_lock", "must not be negative"})
	}
	if c.Iterations < pws3.MinIterations {
		errs = append(errs, ValidationError{"iterations", fmt.Sprintf("must be at least %d", pws3.MinIterations)})
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, ValidationError{"log_level", err.Error()})
	}
	if _, err := vault.ParseSortSpec(c.DefaultSort); err != nil {
		errs = append(errs, ValidationError{"default_sort", err.Error()})
	}
	return errors.Join(errs...)
}
