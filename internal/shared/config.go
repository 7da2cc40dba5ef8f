package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/go-homedir"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Analysis AnalysisConfig `toml:"analysis"`
	Log      LogConfig      `toml:"log"`
}

// DatabaseConfig contains settings for the sqlite token cache.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local OAuth callback server.
type ServerConfig struct {
	AuthTimeoutSeconds int `toml:"auth_timeout_seconds"`
}

// AnalysisConfig tunes the playlist analysis pipeline.
type AnalysisConfig struct {
	TopN              int     `toml:"top_n"`
	BatchConcurrency  int     `toml:"batch_concurrency"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	RetryAttempts     uint    `toml:"retry_attempts"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// ResolvedPath expands a leading ~ in the database path.
func (d DatabaseConfig) ResolvedPath() (string, error) {
	if d.Path == ":memory:" {
		return d.Path, nil
	}
	path, err := homedir.Expand(d.Path)
	if err != nil {
		return "", fmt.Errorf("%w: database path %q: %v", ErrInvalidConfig, d.Path, err)
	}
	return path, nil
}

// AuthTimeout returns the callback wait as a [time.Duration], two minutes when unset.
func (s ServerConfig) AuthTimeout() time.Duration {
	if s.AuthTimeoutSeconds <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(s.AuthTimeoutSeconds) * time.Second
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// LoadConfigOrDefault loads path when it exists and falls back to [DefaultConfig] otherwise.
func LoadConfigOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
