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
	Credentials CredentialsConfig `toml:"credentials"`
	Cache       CacheConfig       `toml:"cache"`
	API         APIConfig         `toml:"api"`
	Validation  ValidationConfig  `toml:"validation"`
	Analytics   AnalyticsConfig   `toml:"analytics"`
	Workers     WorkersConfig     `toml:"workers"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials for the client-credentials flow.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// CacheConfig contains settings for the SQLite-backed cache store.
type CacheConfig struct {
	Path                   string `toml:"path"`
	TTLHours               int    `toml:"ttl_hours"`
	CleanupIntervalSeconds int    `toml:"cleanup_interval_seconds"`
	MaxOpenConns           int    `toml:"max_open_conns"`
	MaxIdleConns           int    `toml:"max_idle_conns"`
}

// TTL returns the configured entry lifetime as a [time.Duration].
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// CleanupInterval returns the sweep frequency as a [time.Duration].
func (c CacheConfig) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalSeconds) * time.Second
}

// APIConfig contains outbound request budget settings.
type APIConfig struct {
	RateLimitPerMinute int     `toml:"rate_limit_per_minute"`
	TimeoutSeconds     int     `toml:"timeout_seconds"`
	ProbeRatePerSecond float64 `toml:"probe_rate_per_second"`
}

// ValidationConfig contains business rules for track, clip and feature validation.
type ValidationConfig struct {
	MinPreviewDurationSeconds float64  `toml:"min_preview_duration_seconds"`
	MaxPreviewDurationSeconds float64  `toml:"max_preview_duration_seconds"`
	RequiredAudioFeatures     []string `toml:"required_audio_features"`
	MinTrackPopularity        int      `toml:"min_track_popularity"`
}

// AnalyticsConfig contains metric collection settings.
//
// MaxSamples bounds the per-endpoint and per-feature sample buffers;
// zero means unbounded.
type AnalyticsConfig struct {
	EnableMetrics bool `toml:"enable_metrics"`
	MaxSamples    int  `toml:"max_samples"`
}

// WorkersConfig bounds concurrency for bulk operations.
type WorkersConfig struct {
	Playlists int `toml:"playlists"`
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
		return fmt.Errorf("config file already exists at %s: %w", path, ErrInvalidArgument)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
