package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Sources  []SourceConfig `mapstructure:"sources"`
	Summary  SummaryConfig  `mapstructure:"summary"`
	Audio    AudioConfig    `mapstructure:"audio"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Media    MediaConfig    `mapstructure:"media"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SearchIndex string        `mapstructure:"search_index"`
}

type FeedConfig struct {
	HTTPTimeout          time.Duration `mapstructure:"http_timeout"`
	UserAgent            string        `mapstructure:"user_agent"`
	EntryLimit           int           `mapstructure:"entry_limit"`
	MaxPerSourcePerRun   int           `mapstructure:"max_per_source_per_run"`
	MinArticleLength     int           `mapstructure:"min_article_length"`
	MinExcerptLength     int           `mapstructure:"min_excerpt_length"`
	DefaultCategory      string        `mapstructure:"default_category"`
	MaxConcurrentSources int           `mapstructure:"max_concurrent_sources"`
	AllowPrivateHosts    bool          `mapstructure:"allow_private_hosts"`
}

// SourceConfig is one feed to scrape.
type SourceConfig struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

type SummaryConfig struct {
	Sentences int `mapstructure:"sentences"`
}

type AudioConfig struct {
	Backend     string        `mapstructure:"backend"` // "local" or "gcs"
	Dir         string        `mapstructure:"dir"`
	BaseURL     string        `mapstructure:"base_url"`
	Bucket      string        `mapstructure:"bucket"`
	Language    string        `mapstructure:"language"`
	MaxChars    int           `mapstructure:"max_chars"`
	Endpoint    string        `mapstructure:"endpoint"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

type ServerConfig struct {
	Addr           string `mapstructure:"addr"`
	ScrapeSchedule string `mapstructure:"scrape_schedule"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type MediaConfig struct {
	Darwin        []string `mapstructure:"darwin"`
	Linux         []string `mapstructure:"linux"`
	Windows       []string `mapstructure:"windows"`
	DefaultOpener string   `mapstructure:"default_opener"`
}

// DefaultSources are the feeds scraped when the config names none.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{Name: "BBC News", URL: "https://feeds.bbci.co.uk/news/rss.xml"},
		{Name: "CNN", URL: "http://rss.cnn.com/rss/cnn_topstories.rss"},
		{Name: "NDTV", URL: "https://feeds.feedburner.com/ndtvnews-top-stories"},
		{Name: "Al Jazeera", URL: "https://www.aljazeera.com/xml/rss/all.xml"},
	}
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".bytenews")

	return &Config{
		Database: DatabaseConfig{
			Path:        filepath.Join(dataDir, "bytenews.db"),
			Timeout:     1 * time.Second,
			SearchIndex: filepath.Join(dataDir, "index.bleve"),
		},
		Feed: FeedConfig{
			HTTPTimeout:          20 * time.Second,
			UserAgent:            "Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
			EntryLimit:           3,
			MaxPerSourcePerRun:   1,
			MinArticleLength:     200,
			MinExcerptLength:     50,
			DefaultCategory:      "General",
			MaxConcurrentSources: 4,
		},
		Sources: DefaultSources(),
		Summary: SummaryConfig{
			Sentences: 3,
		},
		Audio: AudioConfig{
			Backend:     "local",
			Dir:         filepath.Join(dataDir, "media", "audio"),
			BaseURL:     "/media/audio/",
			Language:    "en",
			MaxChars:    5000,
			Endpoint:    "https://translate.google.com/translate_tts",
			HTTPTimeout: 30 * time.Second,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			ScrapeSchedule: "@every 1h",
		},
		Log: LogConfig{
			Level: "info",
		},
		Media: MediaConfig{
			Darwin:        []string{"afplay", "mpv", "vlc"},
			Linux:         []string{"mpv", "ffplay", "vlc", "mplayer"},
			Windows:       []string{"mpv", "vlc"},
			DefaultOpener: getDefaultOpener(),
		},
	}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "start"
	default:
		return "open"
	}
}

// Load reads configuration from configPath, or from config.toml in
// ~/.config/bytenews and the working directory. Values from a .env file and
// BYTENEWS_* environment variables override the file.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "bytenews")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("BYTENEWS")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Decoding onto the defaults keeps every key the file leaves out. Sources
	// are replaced wholesale, never merged element by element.
	config := defaultConfig()
	config.Sources = nil
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if !v.IsSet("sources") {
		config.Sources = DefaultSources()
	}

	applyEnvOverrides(config)
	expandPaths(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides covers the settings operators commonly set per host.
// AutomaticEnv only sees keys that already appear in a config file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BYTENEWS_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("BYTENEWS_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("BYTENEWS_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("BYTENEWS_AUDIO_BUCKET"); v != "" {
		cfg.Audio.Bucket = v
	}
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Feed.HTTPTimeout <= 0 {
		return &Error{Field: "feed.http_timeout", Message: "must be positive"}
	}
	if c.Feed.MaxPerSourcePerRun < 0 {
		return &Error{Field: "feed.max_per_source_per_run", Message: "must not be negative"}
	}
	for i, src := range c.Sources {
		if src.Name == "" || src.URL == "" {
			return &Error{Field: fmt.Sprintf("sources[%d]", i), Message: "name and url are required"}
		}
	}
	switch c.Audio.Backend {
	case "local", "":
	case "gcs":
		if c.Audio.Bucket == "" {
			return &Error{Field: "audio.bucket", Message: "required for the gcs backend"}
		}
	default:
		return &Error{Field: "audio.backend", Message: fmt.Sprintf("unknown backend %q", c.Audio.Backend)}
	}
	return nil
}

// Error describes an invalid configuration value.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return "config " + e.Field + ": " + e.Message
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Database.SearchIndex = expandPath(cfg.Database.SearchIndex)
	cfg.Audio.Dir = expandPath(cfg.Audio.Dir)
	cfg.Log.File = expandPath(cfg.Log.File)
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Durations as strings for TOML readability
	dbCfg := map[string]any{
		"path":         config.Database.Path,
		"timeout":      config.Database.Timeout.String(),
		"search_index": config.Database.SearchIndex,
	}

	feedCfg := map[string]any{
		"http_timeout":           config.Feed.HTTPTimeout.String(),
		"user_agent":             config.Feed.UserAgent,
		"entry_limit":            config.Feed.EntryLimit,
		"max_per_source_per_run": config.Feed.MaxPerSourcePerRun,
		"min_article_length":     config.Feed.MinArticleLength,
		"min_excerpt_length":     config.Feed.MinExcerptLength,
		"default_category":       config.Feed.DefaultCategory,
		"max_concurrent_sources": config.Feed.MaxConcurrentSources,
		"allow_private_hosts":    config.Feed.AllowPrivateHosts,
	}

	sources := make([]map[string]any, 0, len(config.Sources))
	for _, src := range config.Sources {
		sources = append(sources, map[string]any{"name": src.Name, "url": src.URL})
	}

	audioCfg := map[string]any{
		"backend":      config.Audio.Backend,
		"dir":          config.Audio.Dir,
		"base_url":     config.Audio.BaseURL,
		"bucket":       config.Audio.Bucket,
		"language":     config.Audio.Language,
		"max_chars":    config.Audio.MaxChars,
		"endpoint":     config.Audio.Endpoint,
		"http_timeout": config.Audio.HTTPTimeout.String(),
	}

	v.Set("database", dbCfg)
	v.Set("feed", feedCfg)
	v.Set("sources", sources)
	v.Set("summary", map[string]any{"sentences": config.Summary.Sentences})
	v.Set("audio", audioCfg)
	v.Set("server", map[string]any{
		"addr":            config.Server.Addr,
		"scrape_schedule": config.Server.ScrapeSchedule,
	})
	v.Set("log", map[string]any{"level": config.Log.Level, "file": config.Log.File})
	v.Set("media", map[string]any{
		"darwin":         config.Media.Darwin,
		"linux":          config.Media.Linux,
		"windows":        config.Media.Windows,
		"default_opener": config.Media.DefaultOpener,
	})

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
