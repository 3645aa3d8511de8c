package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// Config holds the complete application configuration
type Config struct {
	// Application information
	Name    string `yaml:"name" json:"name"`
	Version string `yaml:"version" json:"version"`

	// NS API configuration
	API APIConfig `yaml:"api" json:"api"`

	// Logging configuration
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// APIConfig holds the upstream NS API configuration
type APIConfig struct {
	// Subscription key for the NS API portal. Required; never logged.
	Key string `yaml:"key" json:"key"`

	BaseURL     string        `yaml:"base_url" json:"base_url"`
	Environment string        `yaml:"environment" json:"environment"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Name:    "NS Bridge",
		Version: "1.0.0",
		API: APIConfig{
			BaseURL:     "https://gateway.apiportal.ns.nl",
			Environment: "production",
			Timeout:     30 * time.Second,
		},
		LogLevel: "info",
	}
}

// LoadConfig loads configuration from a file
func LoadConfig(configPath string) (*Config, error) {
	// Check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse based on file extension
	config := DefaultConfig()
	ext := filepath.Ext(configPath)

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return config, nil
}

// ApplyEnv overlays environment variables onto the configuration.
// Environment variables take precedence over config file values.
func (c *Config) ApplyEnv() {
	if key := os.Getenv("NS_API_KEY"); key != "" {
		c.API.Key = key
	}
	if baseURL := os.Getenv("NS_API_BASE_URL"); baseURL != "" {
		c.API.BaseURL = baseURL
	}
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		c.API.Environment = env
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
}

// Validate validates the configuration. A missing API key is a startup
// failure, not something deferred to the first tool call.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name is required")
	}

	if c.Version == "" {
		return fmt.Errorf("application version is required")
	}

	if c.API.Key == "" {
		return fmt.Errorf("NS API key is required (set NS_API_KEY)")
	}

	if c.API.BaseURL == "" {
		return fmt.Errorf("NS API base URL is required")
	}

	if c.API.Timeout <= 0 {
		return fmt.Errorf("API timeout must be positive")
	}

	return nil
}

// IsDevelopment reports whether the configured environment is development.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.API.Environment, "development")
}
