package config

import (
	"os"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Queue.MaxRetries != 3 {
		t.Errorf("expected default max retries 3, got %d", cfg.Queue.MaxRetries)
	}
	if cfg.Checkpoint.IntervalItems != 50 {
		t.Errorf("expected default checkpoint interval 50, got %d", cfg.Checkpoint.IntervalItems)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Logging.Level)
	}
}

func TestClampOutOfRangeValuesInsteadOfErroring(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Queue.ReadinessTimeoutSeconds = 99999
	cfg.Queue.MaxRetries = -5
	cfg.Checkpoint.IntervalItems = 1

	cfg.clamp()

	if cfg.Queue.ReadinessTimeoutSeconds != readinessTimeoutBounds[1] {
		t.Errorf("expected readiness timeout clamped to %d, got %d", readinessTimeoutBounds[1], cfg.Queue.ReadinessTimeoutSeconds)
	}
	if cfg.Queue.MaxRetries != maxRetriesBounds[0] {
		t.Errorf("expected max retries clamped to %d, got %d", maxRetriesBounds[0], cfg.Queue.MaxRetries)
	}
	if cfg.Checkpoint.IntervalItems != checkpointBounds[0] {
		t.Errorf("expected checkpoint interval clamped to %d, got %d", checkpointBounds[0], cfg.Checkpoint.IntervalItems)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	os.Setenv("BDLAW_QUEUE_MAX_RETRIES", "7")
	os.Setenv("BDLAW_LOG_LEVEL", "debug")
	defer func() {
		os.Unsetenv("BDLAW_QUEUE_MAX_RETRIES")
		os.Unsetenv("BDLAW_LOG_LEVEL")
	}()

	cfg := DefaultConfig()
	cfg.applyEnvironmentOverrides()

	if cfg.Queue.MaxRetries != 7 {
		t.Errorf("expected env override to set max retries to 7, got %d", cfg.Queue.MaxRetries)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected env override to set log level to debug, got %s", cfg.Logging.Level)
	}
}

func TestValidateRejectsMissingPostgresDSN(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Backend = "postgres"
	cfg.Storage.DSN = ""

	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for postgres backend without dsn")
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}
}
