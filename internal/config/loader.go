package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/fieldcontrol/ds-client/pkg/wire"
)

// Load reads the configuration from viper and returns a Config struct.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	cfg.Station.TeamNumber = viper.GetInt("station.team_number")
	if cfg.Station.TeamNumber == 0 {
		cfg.Station.TeamNumber = 1114
	}
	cfg.Station.Alliance = viper.GetString("station.alliance")
	if cfg.Station.Alliance == "" {
		cfg.Station.Alliance = "red1"
	}
	cfg.Station.Simulation = viper.GetBool("station.simulation")
	cfg.Station.UseLoopback = viper.GetBool("station.use_loopback")

	cfg.Network.TimezoneName = viper.GetString("network.timezone_name")
	if cfg.Network.TimezoneName == "" {
		cfg.Network.TimezoneName = "UTC"
	}

	if raw := viper.GetString("backoff.max_wait"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("config: invalid backoff.max_wait %q: %w", raw, err)
		}
		cfg.Backoff.MaxWait = d
	} else {
		cfg.Backoff.MaxWait = 5 * time.Second
	}

	cfg.Logging.Level = viper.GetString("logging.level")
	cfg.Logging.Format = viper.GetString("logging.format")
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Station.TeamNumber < 1 || c.Station.TeamNumber > 9999 {
		return fmt.Errorf("station.team_number must be in 1-9999, got %d", c.Station.TeamNumber)
	}
	if _, err := AllianceFromString(c.Station.Alliance); err != nil {
		return err
	}
	if c.Backoff.MaxWait <= 0 {
		return fmt.Errorf("backoff.max_wait must be positive")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level is invalid: %s", c.Logging.Level)
	}
	return nil
}

// AllianceFromString parses the config's alliance string ("red1".."blue3")
// into a wire.Alliance.
func AllianceFromString(s string) (wire.Alliance, error) {
	switch strings.ToLower(s) {
	case "red1":
		return wire.Red1, nil
	case "red2":
		return wire.Red2, nil
	case "red3":
		return wire.Red3, nil
	case "blue1":
		return wire.Blue1, nil
	case "blue2":
		return wire.Blue2, nil
	case "blue3":
		return wire.Blue3, nil
	default:
		return 0, fmt.Errorf("station.alliance is invalid: %q (want red1, red2, red3, blue1, blue2, or blue3)", s)
	}
}
