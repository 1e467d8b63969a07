package config

import (
	"errors"
	"fmt"
	"strconv"
)

// ValidationError contains details about what failed validation.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config.%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// requiredFields lists mandatory config keys per output type.
var requiredFields = map[OutputType][]string{
	OutputEmail:             {"to", "smtp_host", "smtp_port", "username", "password"},
	OutputFacebookMessenger: {"user_id", "access_token"},
	OutputDiscord:           {"bot_token", "user_id"},
	OutputSlack:             {"url"},
	OutputWebhook:           {"url"},
	OutputConsole:           nil,
	OutputWhoop:             {"client_id", "client_secret"},
}

// validateConfig checks all config values for validity.
// Returns nil if valid, or joined errors for all validation failures.
func validateConfig(cfg *Config) error {
	var errs []error

	if cfg.Checkin.DurationBetweenCheckins.IsZero() {
		errs = append(errs, &ValidationError{
			Field:   "checkin.duration_between_checkins",
			Value:   cfg.Checkin.DurationBetweenCheckins,
			Message: "must be greater than 0",
		})
	}

	if cfg.Recipient.MaxTimeSinceLastCheckin.IsZero() {
		errs = append(errs, &ValidationError{
			Field:   "recipient.max_time_since_last_checkin",
			Value:   cfg.Recipient.MaxTimeSinceLastCheckin,
			Message: "must be greater than 0",
		})
	}

	if cfg.App.CheckInterval.IsZero() {
		errs = append(errs, &ValidationError{
			Field:   "app.check_interval",
			Value:   cfg.App.CheckInterval,
			Message: "must be greater than 0",
		})
	}

	if cfg.App.RetryCooldown.IsZero() {
		errs = append(errs, &ValidationError{
			Field:   "app.retry_cooldown",
			Value:   cfg.App.RetryCooldown,
			Message: "must be greater than 0",
		})
	}

	if len(cfg.Checkin.Outputs) == 0 {
		errs = append(errs, &ValidationError{
			Field:   "checkin.outputs",
			Value:   0,
			Message: "at least one checkin output must be configured",
		})
	}
	for i, out := range cfg.Checkin.Outputs {
		errs = append(errs, validateOutput(fmt.Sprintf("checkin.outputs[%d]", i), out)...)
	}

	if len(cfg.Recipient.LastSignalOutputs) == 0 {
		errs = append(errs, &ValidationError{
			Field:   "recipient.last_signal_outputs",
			Value:   0,
			Message: "at least one last signal output must be configured",
		})
	}
	for i, out := range cfg.Recipient.LastSignalOutputs {
		field := fmt.Sprintf("recipient.last_signal_outputs[%d]", i)
		errs = append(errs, validateOutput(field, out)...)
		if out.Type == OutputWhoop {
			errs = append(errs, &ValidationError{
				Field:   field + ".type",
				Value:   out.Type,
				Message: "whoop is detection-only and cannot receive the last signal",
			})
		}
	}

	if cfg.LastSignal.AdapterType != "file" {
		errs = append(errs, &ValidationError{
			Field:   "last_signal.adapter_type",
			Value:   cfg.LastSignal.AdapterType,
			Message: "must be 'file'",
		})
	}
	if cfg.LastSignal.MessageFile == "" {
		errs = append(errs, &ValidationError{
			Field:   "last_signal.message_file",
			Value:   cfg.LastSignal.MessageFile,
			Message: "must not be empty",
		})
	}

	if cfg.App.DataDirectory == "" {
		errs = append(errs, &ValidationError{
			Field:   "app.data_directory",
			Value:   cfg.App.DataDirectory,
			Message: "must not be empty",
		})
	}

	// LogLevel must be one of: debug, info, warn, error (case-sensitive)
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.App.LogLevel] {
		errs = append(errs, &ValidationError{
			Field:   "app.log_level",
			Value:   cfg.App.LogLevel,
			Message: "must be one of: debug, info, warn, error",
		})
	}

	if cfg.App.LogFormat != "text" && cfg.App.LogFormat != "json" {
		errs = append(errs, &ValidationError{
			Field:   "app.log_format",
			Value:   cfg.App.LogFormat,
			Message: "must be 'text' or 'json'",
		})
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func validateOutput(field string, out OutputConfig) []error {
	required, known := requiredFields[out.Type]
	if !known {
		return []error{&ValidationError{
			Field:   field + ".type",
			Value:   out.Type,
			Message: "unknown output type",
		}}
	}

	var errs []error
	for _, key := range required {
		if out.Config[key] == "" {
			errs = append(errs, &ValidationError{
				Field:   fmt.Sprintf("%s.config.%s", field, key),
				Value:   "",
				Message: fmt.Sprintf("%s output requires '%s'", out.Type, key),
			})
		}
	}

	switch out.Type {
	case OutputEmail:
		if port := out.Config["smtp_port"]; port != "" {
			if _, err := strconv.ParseUint(port, 10, 16); err != nil {
				errs = append(errs, &ValidationError{
					Field:   field + ".config.smtp_port",
					Value:   port,
					Message: "must be a port number",
				})
			}
		}
		if port := out.Config["imap_port"]; port != "" {
			if _, err := strconv.ParseUint(port, 10, 16); err != nil {
				errs = append(errs, &ValidationError{
					Field:   field + ".config.imap_port",
					Value:   port,
					Message: "must be a port number",
				})
			}
		}
	case OutputWhoop:
		if hours := out.Config["max_hours_since_activity"]; hours != "" {
			if n, err := strconv.Atoi(hours); err != nil || n <= 0 {
				errs = append(errs, &ValidationError{
					Field:   field + ".config.max_hours_since_activity",
					Value:   hours,
					Message: "must be a positive number of hours",
				})
			}
		}
	}

	return errs
}
