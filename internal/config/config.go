// Package config provides configuration management for spry using Viper for
// flexible loading from files, environment variables, and command-line flags.
//
// The configuration system supports YAML files (.spry.yml), environment
// variable overrides with the SPRY_ prefix, and validation. It manages the
// HTTP server settings, the file-watch pipeline, and the reload stream.
package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Watch  WatchConfig  `yaml:"watch" mapstructure:"watch"`
	Reload ReloadConfig `yaml:"reload" mapstructure:"reload"`
}

type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	Host           string   `yaml:"host" mapstructure:"host"`
	Open           bool     `yaml:"open" mapstructure:"open"`
	Environment    string   `yaml:"environment" mapstructure:"environment"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

type WatchConfig struct {
	// Debounce is the window within which raw filesystem events are
	// coalesced into a single reload signal.
	Debounce time.Duration `yaml:"debounce" mapstructure:"debounce"`
	// RetryInitial and RetryMax bound the backoff used when binding the
	// filesystem watch fails.
	RetryInitial time.Duration `yaml:"retry_initial" mapstructure:"retry_initial"`
	RetryMax     time.Duration `yaml:"retry_max" mapstructure:"retry_max"`
	// Ignore lists directory names excluded from the recursive watch.
	Ignore []string `yaml:"ignore" mapstructure:"ignore"`
}

type ReloadConfig struct {
	// KeepAlive is the interval between heartbeats on the reload stream.
	KeepAlive time.Duration `yaml:"keep_alive" mapstructure:"keep_alive"`
	// StopGrace is how long the Stop command waits before exiting, so the
	// response can flow back to the caller.
	StopGrace time.Duration `yaml:"stop_grace" mapstructure:"stop_grace"`
}

// Load builds a Config from viper state and applies defaults.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Default returns a Config with every default applied, independent of viper.
func Default() *Config {
	var config Config
	applyDefaults(&config)
	return &config
}

func applyDefaults(config *Config) {
	if config.Server.Port == 0 {
		config.Server.Port = 3000
	}
	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if config.Server.Environment == "" {
		config.Server.Environment = "development"
	}

	if config.Watch.Debounce == 0 {
		config.Watch.Debounce = 300 * time.Millisecond
	}
	if config.Watch.RetryInitial == 0 {
		config.Watch.RetryInitial = time.Second
	}
	if config.Watch.RetryMax == 0 {
		config.Watch.RetryMax = 30 * time.Second
	}
	if len(config.Watch.Ignore) == 0 {
		config.Watch.Ignore = []string{".git", "node_modules"}
	}

	if config.Reload.KeepAlive == 0 {
		config.Reload.KeepAlive = 15 * time.Second
	}
	if config.Reload.StopGrace == 0 {
		config.Reload.StopGrace = 2 * time.Second
	}
}
