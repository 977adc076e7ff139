package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Methods  MethodsConfig  `toml:"methods"`
	Proxy    ProxyConfig    `toml:"proxy"`
	Playback PlaybackConfig `toml:"playback"`
	Database DatabaseConfig `toml:"database"`
}

// MethodsConfig points at the configuration service that serves method
// descriptors and the combined parse endpoint.
type MethodsConfig struct {
	BaseURL string `toml:"base_url"`
}

// ProxyConfig contains CORS relay settings.
//
// When Custom is set it replaces the whole built-in relay list; the two are
// never blended.
type ProxyConfig struct {
	Custom string `toml:"custom"`
}

// PlaybackConfig contains playback defaults.
type PlaybackConfig struct {
	Quality string `toml:"quality"`
}

// DatabaseConfig contains settings for the local key-value store.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
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
