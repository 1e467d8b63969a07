package config

import "github.com/RevCBH/lastsignal/internal/duration"

const (
	DefaultDataDirectory = "~/.lastsignal"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
	DefaultAdapterType   = "file"
	DefaultMessageFile   = "message.txt"
	DefaultSubjectPrefix = "LastSignal"
)

var (
	DefaultDurationBetweenCheckins = duration.FromDays(7)
	DefaultCheckinRetryDelay       = duration.FromHours(24)
	DefaultMaxTimeSinceLastCheckin = duration.FromDays(14)
	DefaultRecipientRetryDelay     = duration.FromHours(12)
	DefaultCheckInterval           = duration.FromHours(1)
	DefaultRetryCooldown           = duration.FromMinutes(5)
)

// DefaultConfig returns a Config with all default values applied.
// Outputs have no defaults and must come from the config file.
func DefaultConfig() *Config {
	return &Config{
		Checkin: CheckinConfig{
			DurationBetweenCheckins: DefaultDurationBetweenCheckins,
			OutputRetryDelay:        DefaultCheckinRetryDelay,
		},
		Recipient: RecipientConfig{
			MaxTimeSinceLastCheckin: DefaultMaxTimeSinceLastCheckin,
			OutputRetryDelay:        DefaultRecipientRetryDelay,
		},
		LastSignal: LastSignalConfig{
			AdapterType: DefaultAdapterType,
			MessageFile: DefaultMessageFile,
		},
		App: AppConfig{
			DataDirectory: DefaultDataDirectory,
			LogLevel:      DefaultLogLevel,
			LogFormat:     DefaultLogFormat,
			CheckInterval: DefaultCheckInterval,
			RetryCooldown: DefaultRetryCooldown,
			History:       true,
		},
	}
}
