// Package config defines the data structures related to configuration and
// includes functions for loading and parsing the config.
package config

import (
	"fmt"
	"io"

	"github.com/iwvelando/portfolio-optimizer/internal/governor"
	"github.com/iwvelando/portfolio-optimizer/pkg/constants"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for portfolio-optimizer.
type Configuration struct {
	Server   ServerConfig    `yaml:"server,omitempty"`
	Governor governor.Config `yaml:"governor,omitempty"`
	Logging  LoggingConfig   `yaml:"logging,omitempty"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Address      string          `yaml:"address,omitempty"`
	MaxBodyBytes int64           `yaml:"maxBodyBytes,omitempty"`
	RateLimit    RateLimitConfig `yaml:"rateLimit,omitempty"`
}

// RateLimitConfig holds the optional token-bucket limiter in front of the
// optimize endpoint. A zero RequestsPerSecond disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requestsPerSecond,omitempty"`
	Burst             int     `yaml:"burst,omitempty"`
}

// LoggingConfig holds logging configuration options.
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()

	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	configuration.applyDefaults()
	if err := configuration.Validate(); err != nil {
		return nil, err
	}
	return &configuration, nil
}

// LoadConfigurationFromReader loads YAML configuration from an arbitrary
// reader; used by tests and embedded callers.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yml")

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	configuration.applyDefaults()
	if err := configuration.Validate(); err != nil {
		return nil, err
	}
	return &configuration, nil
}

// Default returns the configuration used when no config file is provided.
func Default() *Configuration {
	var configuration Configuration
	configuration.applyDefaults()
	return &configuration
}

func (c *Configuration) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = constants.DefaultServerAddress
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = constants.DefaultMaxBodyBytes
	}
	if c.Server.RateLimit.RequestsPerSecond > 0 && c.Server.RateLimit.Burst <= 0 {
		c.Server.RateLimit.Burst = 1
	}
	c.Governor = c.Governor.WithDefaults()
}

// Validate rejects configurations that cannot produce a working service.
func (c *Configuration) Validate() error {
	if c.Server.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("server.rateLimit.requestsPerSecond must be non-negative, got %v", c.Server.RateLimit.RequestsPerSecond)
	}
	if c.Governor.Swarm.Particles < 0 {
		return fmt.Errorf("governor.swarm.particles must be non-negative, got %d", c.Governor.Swarm.Particles)
	}
	if c.Governor.Swarm.MaxIterations < 0 {
		return fmt.Errorf("governor.swarm.maxIterations must be non-negative, got %d", c.Governor.Swarm.MaxIterations)
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
