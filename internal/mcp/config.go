package mcp

import (
	"ns-bridge/internal/config"
)

// Config holds the configuration for the MCP server surface: identity plus
// the caps applied to tool result sizes.
type Config struct {
	// Server information
	Name        string
	Version     string
	Description string

	// Result caps per tool. Callers may ask for less, never for more.
	MaxStationResults int
	MaxTrips          int
	MaxDepartures     int

	// Default result counts when the caller does not specify one.
	DefaultStationResults int
	DefaultTrips          int
	DefaultDepartures     int

	// Resource configuration
	EnableResources bool

	// Logging configuration
	LogLevel string
}

// NewConfigFromApp derives the MCP server configuration from the unified
// application config.
func NewConfigFromApp(cfg *config.Config) *Config {
	serverConfig := DefaultConfig()
	serverConfig.Name = cfg.Name
	serverConfig.Version = cfg.Version
	serverConfig.LogLevel = cfg.LogLevel
	return serverConfig
}

// DefaultConfig returns a default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:                  "NS Bridge",
		Version:               "1.0.0",
		Description:           "MCP server for Dutch railway travel information",
		MaxStationResults:     100,
		MaxTrips:              10,
		MaxDepartures:         40,
		DefaultStationResults: 10,
		DefaultTrips:          5,
		DefaultDepartures:     10,
		EnableResources:       true,
		LogLevel:              "info",
	}
}
