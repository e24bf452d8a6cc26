// Package config provides configuration types and loading for the driver
// station client.
package config

import "time"

// Config represents the complete application configuration.
type Config struct {
	Station  StationConfig  `mapstructure:"station"`
	Network  NetworkConfig  `mapstructure:"network"`
	Backoff  BackoffConfig  `mapstructure:"backoff"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// StationConfig identifies the team and alliance this client represents.
type StationConfig struct {
	TeamNumber  int    `mapstructure:"team_number"`
	Alliance    string `mapstructure:"alliance"` // red1, red2, red3, blue1, blue2, blue3
	Simulation  bool   `mapstructure:"simulation"`
	UseLoopback bool   `mapstructure:"use_loopback"`
}

// NetworkConfig carries the network-facing settings of the connection tasks:
// the timezone name sent in answer to a need_date request. Ports and read
// timeouts are not configurable here.
type NetworkConfig struct {
	TimezoneName string `mapstructure:"timezone_name"`
}

// BackoffConfig caps the send task's reconnect backoff.
type BackoffConfig struct {
	MaxWait time.Duration `mapstructure:"max_wait"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Station: StationConfig{
			TeamNumber: 1114,
			Alliance:   "red1",
		},
		Network: NetworkConfig{
			TimezoneName: "UTC",
		},
		Backoff: BackoffConfig{
			MaxWait: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
