package config

import (
	"log/slog"
	"os"

	"github.com/RevCBH/lastsignal/internal/duration"
)

// envOverrides maps environment variables to config field setters.
var envOverrides = []struct {
	envVar string
	apply  func(*Config, string)
}{
	{
		envVar: "LASTSIGNAL_DATA_DIR",
		apply: func(c *Config, v string) {
			c.App.DataDirectory = v
		},
	},
	{
		envVar: "LASTSIGNAL_LOG_LEVEL",
		apply: func(c *Config, v string) {
			c.App.LogLevel = v
		},
	},
	{
		envVar: "LASTSIGNAL_LOG_FORMAT",
		apply: func(c *Config, v string) {
			c.App.LogFormat = v
		},
	},
	{
		envVar: "LASTSIGNAL_CHECK_INTERVAL",
		apply: func(c *Config, v string) {
			d, err := duration.Parse(v)
			if err != nil {
				slog.Warn("ignoring invalid LASTSIGNAL_CHECK_INTERVAL", "value", v, "error", err)
				return
			}
			c.App.CheckInterval = d
		},
	},
}

// applyEnvOverrides modifies config in place with environment variable values.
func applyEnvOverrides(cfg *Config) {
	for _, override := range envOverrides {
		if val := os.Getenv(override.envVar); val != "" {
			override.apply(cfg, val)
		}
	}
}
