package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Sequencer SequencerConfig `toml:"sequencer"`
	Queue     QueueConfig     `toml:"queue"`
	Ranker    RankerConfig    `toml:"ranker"`
	Catalog   CatalogConfig   `toml:"catalog"`
	Cache     CacheConfig     `toml:"cache"`
	Health    HealthConfig    `toml:"health"`
	Database  DatabaseConfig  `toml:"database"`
	Server    ServerConfig    `toml:"server"`
}

// SequencerConfig tunes the heuristic baseline ordering.
type SequencerConfig struct {
	// PopularPercentile is the popularity cutoff for the popular tier
	// expressed as a fraction (0.8 means "top 20%").
	PopularPercentile float64 `toml:"popular_percentile"`
	// Seed drives the shuffle step. Zero seeds from the clock.
	Seed int64 `toml:"seed"`
}

// QueueConfig tunes the admission-controlled verification queue.
//
// The reference constants are empirically chosen, not derived; treat them as
// tunables.
type QueueConfig struct {
	MaxConcurrent     int `toml:"max_concurrent"`
	MaxWaiting        int `toml:"max_waiting"`
	WaitTimeoutSecs   int `toml:"wait_timeout_secs"`
	DispatchBatch     int `toml:"dispatch_batch"`
	DispatchStaggerMS int `toml:"dispatch_stagger_ms"`
	StressThresholdMS int `toml:"stress_threshold_ms"`
	StressCooldownSec int `toml:"stress_cooldown_secs"`
}

// RankerConfig contains settings for the external ranking provider.
type RankerConfig struct {
	BaseURL             string `toml:"base_url"`
	APIKey              string `toml:"api_key"`
	PrimaryModel        string `toml:"primary_model"`
	FallbackModel       string `toml:"fallback_model"`
	PrimaryTimeoutSecs  int    `toml:"primary_timeout_secs"`
	FallbackTimeoutSecs int    `toml:"fallback_timeout_secs"`
}

// CatalogConfig contains settings for the target platform's track catalog.
type CatalogConfig struct {
	BaseURL  string `toml:"base_url"`
	Platform string `toml:"platform"`
}

// CacheConfig tunes the platform-identity cache.
type CacheConfig struct {
	TTLSecs           int     `toml:"ttl_secs"`
	MaxEntries        int     `toml:"max_entries"`
	LookupConcurrency int     `toml:"lookup_concurrency"`
	LookupRateLimit   float64 `toml:"lookup_rate_limit"`
}

// HealthConfig tunes the periodic health reporter.
type HealthConfig struct {
	IntervalSecs   int    `toml:"interval_secs"`
	DedupeSecs     int    `toml:"dedupe_secs"`
	NtfyTopic      string `toml:"ntfy_topic"`
	NtfyTimeoutSec int    `toml:"ntfy_timeout_secs"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains diagnostic HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// WaitTimeout returns the queue wait timeout as a [time.Duration].
func (q QueueConfig) WaitTimeout() time.Duration {
	return time.Duration(q.WaitTimeoutSecs) * time.Second
}

// DispatchStagger returns the inter-dispatch delay as a [time.Duration].
func (q QueueConfig) DispatchStagger() time.Duration {
	return time.Duration(q.DispatchStaggerMS) * time.Millisecond
}

// StressThreshold returns the rolling-latency stress cutoff as a [time.Duration].
func (q QueueConfig) StressThreshold() time.Duration {
	return time.Duration(q.StressThresholdMS) * time.Millisecond
}

// StressCooldown returns the automatic stress recovery delay as a [time.Duration].
func (q QueueConfig) StressCooldown() time.Duration {
	return time.Duration(q.StressCooldownSec) * time.Second
}

// TTL returns the in-process cache entry lifetime as a [time.Duration].
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSecs) * time.Second
}

// PrimaryTimeout returns the primary model call timeout as a [time.Duration].
func (r RankerConfig) PrimaryTimeout() time.Duration {
	return time.Duration(r.PrimaryTimeoutSecs) * time.Second
}

// FallbackTimeout returns the fallback model call timeout as a [time.Duration].
func (r RankerConfig) FallbackTimeout() time.Duration {
	return time.Duration(r.FallbackTimeoutSecs) * time.Second
}

// Interval returns the health evaluation period as a [time.Duration].
func (h HealthConfig) Interval() time.Duration {
	return time.Duration(h.IntervalSecs) * time.Second
}

// DedupeWindow returns the alert deduplication window as a [time.Duration].
func (h HealthConfig) DedupeWindow() time.Duration {
	return time.Duration(h.DedupeSecs) * time.Second
}

// NtfyTimeout returns the alert delivery timeout as a [time.Duration].
func (h HealthConfig) NtfyTimeout() time.Duration {
	return time.Duration(h.NtfyTimeoutSec) * time.Second
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
