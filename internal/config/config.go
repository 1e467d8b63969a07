package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/RevCBH/lastsignal/internal/duration"
)

// OutputType names a concrete channel implementation.
type OutputType string

const (
	OutputEmail             OutputType = "email"
	OutputFacebookMessenger OutputType = "facebook_messenger"
	OutputDiscord           OutputType = "discord"
	OutputSlack             OutputType = "slack"
	OutputWebhook           OutputType = "webhook"
	OutputConsole           OutputType = "console"
	OutputWhoop             OutputType = "whoop"
)

// Config holds all configuration for lastsignal.
// It is immutable after creation via LoadConfig().
type Config struct {
	// Checkin controls how often the monitored person is asked to check in
	Checkin CheckinConfig `yaml:"checkin"`

	// Recipient controls the emergency broadcast
	Recipient RecipientConfig `yaml:"recipient"`

	// LastSignal selects where the emergency message text comes from
	LastSignal LastSignalConfig `yaml:"last_signal"`

	// App contains process-level settings
	App AppConfig `yaml:"app"`
}

// CheckinConfig controls check-in requests.
type CheckinConfig struct {
	// DurationBetweenCheckins is how long without a check-in before a request is sent
	DurationBetweenCheckins duration.Duration `yaml:"duration_between_checkins"`

	// OutputRetryDelay spaces repeated check-in requests
	OutputRetryDelay duration.Duration `yaml:"output_retry_delay"`

	// Outputs are tried in order; the first one that delivers wins.
	// Bidirectional outputs are also polled for replies.
	Outputs []OutputConfig `yaml:"outputs"`
}

// RecipientConfig controls the emergency broadcast.
type RecipientConfig struct {
	// MaxTimeSinceLastCheckin is how long without a check-in before the
	// broadcast fires. It also acts as the re-fire cool-down.
	MaxTimeSinceLastCheckin duration.Duration `yaml:"max_time_since_last_checkin"`

	// OutputRetryDelay is reported in status output only
	OutputRetryDelay duration.Duration `yaml:"output_retry_delay"`

	// LastSignalOutputs each receive the broadcast exactly once
	LastSignalOutputs []OutputConfig `yaml:"last_signal_outputs"`
}

// LastSignalConfig selects the escalation message source.
type LastSignalConfig struct {
	// AdapterType is the message source kind. Only "file" is supported.
	AdapterType string `yaml:"adapter_type"`

	// MessageFile is the message path. Relative paths resolve inside the data directory.
	MessageFile string `yaml:"message_file"`
}

// AppConfig holds process-level settings.
type AppConfig struct {
	// DataDirectory holds state.json, tokens, history and the pid file
	DataDirectory string `yaml:"data_directory"`

	// LogLevel controls log verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogFormat is "text" or "json"
	LogFormat string `yaml:"log_format"`

	// CheckInterval is the pause between scheduler cycles
	CheckInterval duration.Duration `yaml:"check_interval"`

	// RetryCooldown is the pause after a cycle fails
	RetryCooldown duration.Duration `yaml:"retry_cooldown"`

	// History enables the sqlite delivery history
	History bool `yaml:"history"`
}

// OutputConfig describes one configured channel.
type OutputConfig struct {
	// Type selects the channel implementation
	Type OutputType `yaml:"type"`

	// Config holds type-specific settings such as addresses and tokens
	Config map[string]string `yaml:"config"`

	// Bidirectional enables reply polling on channels that support it
	Bidirectional bool `yaml:"bidirectional,omitempty"`
}

// Get returns a type-specific setting, or fallback when it is unset.
func (o OutputConfig) Get(key, fallback string) string {
	if v, ok := o.Config[key]; ok && v != "" {
		return v
	}
	return fallback
}

// DataDir returns the expanded data directory, creating it if needed.
func (c *Config) DataDir() (string, error) {
	dir, err := expandHome(c.App.DataDirectory)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create data directory %s: %w", dir, err)
	}
	return dir, nil
}

// MessageFilePath resolves the escalation message file.
func (c *Config) MessageFilePath() (string, error) {
	path := c.LastSignal.MessageFile
	if filepath.IsAbs(path) || strings.HasPrefix(path, "~") {
		return expandHome(path)
	}
	dir, err := c.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, path), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
