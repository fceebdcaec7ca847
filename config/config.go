// Package config loads getfavicon settings from a YAML file and the environment.
//
// Precedence, lowest first: defaults, config file, environment, command line flags.
// Flags are applied by the cli package.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/ka2n/getfavicon/api"
	"github.com/morikuni/failure/v2"
	"gopkg.in/yaml.v3"
)

// ErrorCode defines error types for configuration loading
type ErrorCode string

const (
	// ErrConfigNotFound is returned when an explicitly given config file does not exist
	ErrConfigNotFound ErrorCode = "ConfigNotFound"
	// ErrInvalidConfig is returned when the config file cannot be read or parsed
	ErrInvalidConfig ErrorCode = "InvalidConfig"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}

const (
	// AppName is the directory name used under the XDG base directories
	AppName = "getfavicon"
	// FileName is the config file name inside the XDG config directory
	FileName = "config.yaml"

	// EnvIdentifyCommand overrides the identify executable
	EnvIdentifyCommand = "GETFAVICON_IDENTIFY_BIN"
	// EnvConvertCommand overrides the convert executable
	EnvConvertCommand = "GETFAVICON_CONVERT_BIN"
)

// Config holds user settings
type Config struct {
	IdentifyBin string        `yaml:"identify_bin"`
	ConvertBin  string        `yaml:"convert_bin"`
	UserAgent   string        `yaml:"user_agent"`
	Timeout     time.Duration `yaml:"timeout"`
	Size        int           `yaml:"size"`
	Cache       bool          `yaml:"cache"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
	TempDir     string        `yaml:"temp_dir"`
}

// Default returns the built-in settings. A zero Timeout means no timeout.
func Default() *Config {
	return &Config{
		Size: 16,
	}
}

// Find returns the config file path to use. An explicit path is returned as is;
// otherwise the XDG config directories are searched and "" means none was found.
func Find(explicit string) string {
	if explicit != "" {
		return explicit
	}
	path, err := xdg.SearchConfigFile(filepath.Join(AppName, FileName))
	if err != nil {
		return ""
	}
	return path
}

// Load reads the config file at path on top of the defaults and then applies the
// environment. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, failure.New(ErrConfigNotFound,
					failure.Message("Configuration file not found"),
					failure.Context{"path": path})
			}
			return nil, failure.Wrap(err, failure.WithCode(ErrInvalidConfig),
				failure.Message("Failed to read configuration file"),
				failure.Context{"path": path})
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, failure.Wrap(err, failure.WithCode(ErrInvalidConfig),
				failure.Message("Failed to parse configuration file"),
				failure.Context{"path": path})
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvIdentifyCommand); v != "" {
		c.IdentifyBin = v
	}
	if v := os.Getenv(EnvConvertCommand); v != "" {
		c.ConvertBin = v
	}
}

// Options converts the settings into api.Options
func (c *Config) Options() api.Options {
	return api.Options{
		UserAgent:       c.UserAgent,
		IdentifyCommand: c.IdentifyBin,
		ConvertCommand:  c.ConvertBin,
		Size:            c.Size,
		TempDir:         c.TempDir,
		Cache:           c.Cache,
		CacheTTL:        c.CacheTTL,
	}
}
