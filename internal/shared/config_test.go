package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Cache.Path != "./tracklab.db" {
			t.Errorf("expected cache path ./tracklab.db, got %s", config.Cache.Path)
		}

		if config.Cache.TTLHours != 24 {
			t.Errorf("expected ttl_hours 24, got %d", config.Cache.TTLHours)
		}

		if config.API.RateLimitPerMinute != 100 {
			t.Errorf("expected rate_limit_per_minute 100, got %d", config.API.RateLimitPerMinute)
		}

		if config.Validation.MinTrackPopularity != 10 {
			t.Errorf("expected min_track_popularity 10, got %d", config.Validation.MinTrackPopularity)
		}

		if len(config.Validation.RequiredAudioFeatures) != 3 {
			t.Errorf("expected 3 required audio features, got %d", len(config.Validation.RequiredAudioFeatures))
		}

		if config.Credentials.Spotify.ClientID != "your_spotify_client_id" {
			t.Errorf("expected spotify client_id your_spotify_client_id, got %s", config.Credentials.Spotify.ClientID)
		}
	})

	t.Run("DurationAccessors", func(t *testing.T) {
		cache := CacheConfig{TTLHours: 24, CleanupIntervalSeconds: 3600}

		if cache.TTL() != 24*time.Hour {
			t.Errorf("expected TTL 24h, got %v", cache.TTL())
		}

		if cache.CleanupInterval() != time.Hour {
			t.Errorf("expected cleanup interval 1h, got %v", cache.CleanupInterval())
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Cache.Path != defaultConfig.Cache.Path {
			t.Errorf("created config cache path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[cache]
path = "/custom/path.db"
ttl_hours = 48
cleanup_interval_seconds = 600
max_open_conns = 20
max_idle_conns = 10

[api]
rate_limit_per_minute = 30
timeout_seconds = 10
probe_rate_per_second = 2.0

[validation]
min_preview_duration_seconds = 5
max_preview_duration_seconds = 90
required_audio_features = ["danceability", "energy"]
min_track_popularity = 25

[analytics]
enable_metrics = false
max_samples = 500

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Cache.Path != "/custom/path.db" {
			t.Errorf("expected cache path /custom/path.db, got %s", config.Cache.Path)
		}

		if config.API.RateLimitPerMinute != 30 {
			t.Errorf("expected rate_limit_per_minute 30, got %d", config.API.RateLimitPerMinute)
		}

		if config.Analytics.EnableMetrics {
			t.Error("expected enable_metrics false")
		}

		if config.Analytics.MaxSamples != 500 {
			t.Errorf("expected max_samples 500, got %d", config.Analytics.MaxSamples)
		}

		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig("/nonexistent/config.toml"); err == nil {
			t.Error("expected error for missing config file")
		}
	})
}
