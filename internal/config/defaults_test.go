package config

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Checkin.DurationBetweenCheckins.String() != "7d" {
		t.Errorf("expected 7d between checkins, got %s", cfg.Checkin.DurationBetweenCheckins)
	}
	if cfg.Recipient.MaxTimeSinceLastCheckin.String() != "14d" {
		t.Errorf("expected 14d before last signal, got %s", cfg.Recipient.MaxTimeSinceLastCheckin)
	}
	if cfg.App.CheckInterval.String() != "1h" {
		t.Errorf("expected 1h check interval, got %s", cfg.App.CheckInterval)
	}
	if cfg.App.RetryCooldown.String() != "5m" {
		t.Errorf("expected 5m retry cooldown, got %s", cfg.App.RetryCooldown)
	}
	if cfg.LastSignal.AdapterType != DefaultAdapterType {
		t.Errorf("expected adapter %q, got %q", DefaultAdapterType, cfg.LastSignal.AdapterType)
	}
	if !cfg.App.History {
		t.Error("expected history to be enabled by default")
	}
	if len(cfg.Checkin.Outputs) != 0 || len(cfg.Recipient.LastSignalOutputs) != 0 {
		t.Error("expected no default outputs")
	}
}
