// Package config loads pipeline configuration from defaults, an optional
// JSON or YAML file, and BDLAW_* environment variable overrides, clamping
// out-of-range numeric values to their nearest bound instead of failing.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// QueueConfig controls the Queue Processor's timing and retry behavior.
type QueueConfig struct {
	ReadinessTimeoutSeconds int `json:"readiness_timeout_seconds" yaml:"readiness_timeout_seconds"`
	ExtractionDelayMillis   int `json:"extraction_delay_millis" yaml:"extraction_delay_millis"`
	MaxRetries              int `json:"max_retries" yaml:"max_retries"`
	RetryBaseSeconds        int `json:"retry_base_seconds" yaml:"retry_base_seconds"`
	MinContentThreshold     int `json:"min_content_threshold" yaml:"min_content_threshold"`
}

// CheckpointConfig sets how many acts may be persisted before the
// checkpoint manager recommends an export.
type CheckpointConfig struct {
	IntervalItems int `json:"interval_items" yaml:"interval_items"`
}

// LoggingConfig controls the corplog output.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	Backend    string `json:"backend" yaml:"backend"` // "memory" or "postgres"
	DSN        string `json:"dsn" yaml:"dsn"`
	WALPath    string `json:"wal_path" yaml:"wal_path"`
}

// Config is the top-level pipeline configuration.
type Config struct {
	Queue      QueueConfig      `json:"queue" yaml:"queue"`
	Checkpoint CheckpointConfig `json:"checkpoint" yaml:"checkpoint"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging"`
	Storage    StorageConfig    `json:"storage" yaml:"storage"`
	ExportDir  string           `json:"export_dir" yaml:"export_dir"`
}

// Bounds for clamped fields: [min, max].
var (
	readinessTimeoutBounds = [2]int{5, 120}
	extractionDelayBounds  = [2]int{0, 5000}
	maxRetriesBounds       = [2]int{0, 10}
	retryBaseBounds        = [2]int{1, 300}
	contentThresholdBounds = [2]int{0, 10000}
	checkpointBounds       = [2]int{10, 200}
)

// DefaultConfig returns sensible defaults matching §4.6/§4.7's parameter
// defaults and the checkpoint threshold default of 50.
func DefaultConfig() *Config {
	return &Config{
		Queue: QueueConfig{
			ReadinessTimeoutSeconds: 30,
			ExtractionDelayMillis:   3000,
			MaxRetries:              3,
			RetryBaseSeconds:        5,
			MinContentThreshold:     100,
		},
		Checkpoint: CheckpointConfig{IntervalItems: 50},
		Logging:    LoggingConfig{Level: "info", Format: "text"},
		Storage:    StorageConfig{Backend: "memory", WALPath: "wal.log"},
		ExportDir:  "./export",
	}
}

// Load builds a Config from defaults, an optional file at path (JSON or
// YAML, selected by extension), and environment overrides, clamping any
// out-of-range numeric field to its nearest bound.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	cfg.applyEnvironmentOverrides()
	cfg.clamp()

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		return yaml.Unmarshal(data, c)
	}
	return json.Unmarshal(data, c)
}

func (c *Config) applyEnvironmentOverrides() {
	if v := os.Getenv("BDLAW_QUEUE_READINESS_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Queue.ReadinessTimeoutSeconds = n
		}
	}
	if v := os.Getenv("BDLAW_QUEUE_EXTRACTION_DELAY_MILLIS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Queue.ExtractionDelayMillis = n
		}
	}
	if v := os.Getenv("BDLAW_QUEUE_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Queue.MaxRetries = n
		}
	}
	if v := os.Getenv("BDLAW_QUEUE_RETRY_BASE_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Queue.RetryBaseSeconds = n
		}
	}
	if v := os.Getenv("BDLAW_QUEUE_MIN_CONTENT_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Queue.MinContentThreshold = n
		}
	}
	if v := os.Getenv("BDLAW_CHECKPOINT_INTERVAL_ITEMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Checkpoint.IntervalItems = n
		}
	}
	if v := os.Getenv("BDLAW_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("BDLAW_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("BDLAW_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("BDLAW_STORAGE_DSN"); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv("BDLAW_STORAGE_WAL_PATH"); v != "" {
		c.Storage.WALPath = v
	}
	if v := os.Getenv("BDLAW_EXPORT_DIR"); v != "" {
		c.ExportDir = v
	}
}

func clampInt(v int, bounds [2]int) int {
	if v < bounds[0] {
		return bounds[0]
	}
	if v > bounds[1] {
		return bounds[1]
	}
	return v
}

// clamp enforces every bounded numeric field rather than rejecting the
// configuration, per the out-of-range clamping convention.
func (c *Config) clamp() {
	c.Queue.ReadinessTimeoutSeconds = clampInt(c.Queue.ReadinessTimeoutSeconds, readinessTimeoutBounds)
	c.Queue.ExtractionDelayMillis = clampInt(c.Queue.ExtractionDelayMillis, extractionDelayBounds)
	c.Queue.MaxRetries = clampInt(c.Queue.MaxRetries, maxRetriesBounds)
	c.Queue.RetryBaseSeconds = clampInt(c.Queue.RetryBaseSeconds, retryBaseBounds)
	c.Queue.MinContentThreshold = clampInt(c.Queue.MinContentThreshold, contentThresholdBounds)
	c.Checkpoint.IntervalItems = clampInt(c.Checkpoint.IntervalItems, checkpointBounds)
}

// ReadinessTimeout returns the configured readiness timeout as a Duration.
func (c *Config) ReadinessTimeout() time.Duration {
	return time.Duration(c.Queue.ReadinessTimeoutSeconds) * time.Second
}

// ExtractionDelay returns the configured post-readiness extraction delay.
func (c *Config) ExtractionDelay() time.Duration {
	return time.Duration(c.Queue.ExtractionDelayMillis) * time.Millisecond
}

// RetryBase returns the configured retry backoff base duration.
func (c *Config) RetryBase() time.Duration {
	return time.Duration(c.Queue.RetryBaseSeconds) * time.Second
}

// Validate reports structural problems that clamping cannot fix.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory", "postgres":
	default:
		return fmt.Errorf("unknown storage backend: %s", c.Storage.Backend)
	}
	if c.Storage.Backend == "postgres" && c.Storage.DSN == "" {
		return fmt.Errorf("storage.dsn is required for the postgres backend")
	}
	if c.ExportDir == "" {
		return fmt.Errorf("export_dir cannot be empty")
	}
	return nil
}
