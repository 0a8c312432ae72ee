package config

import (
	"path/filepath"
	"time"
)

// TestConfig returns a config suitable for testing. Paths live under dir so
// each test gets isolated storage.
func TestConfig(dir string) *Config {
	cfg := defaultConfig()
	cfg.Database = DatabaseConfig{
		Path:    filepath.Join(dir, "test.db"),
		Timeout: 1 * time.Second,
	}
	cfg.Feed.HTTPTimeout = 5 * time.Second
	cfg.Feed.UserAgent = "bytenews-test/1.0"
	cfg.Feed.MaxPerSourcePerRun = 0
	cfg.Feed.AllowPrivateHosts = true
	cfg.Sources = nil
	cfg.Audio.Dir = filepath.Join(dir, "audio")
	cfg.Audio.HTTPTimeout = 5 * time.Second
	cfg.Server.ScrapeSchedule = ""
	cfg.Log.Level = "off"
	return cfg
}
