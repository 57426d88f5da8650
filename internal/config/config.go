package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	API    APIConfig    `mapstructure:"api"`
	Feed   FeedConfig   `mapstructure:"feed"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Search SearchConfig `mapstructure:"search"`
	UI     UIConfig     `mapstructure:"ui"`
	Media  MediaConfig  `mapstructure:"media"`
	Keys   KeyConfig    `mapstructure:"keys"`
	Log    LogConfig    `mapstructure:"log"`
}

type APIConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Key           string        `mapstructure:"key"`
	PerPage       int           `mapstructure:"per_page"`
	SafeSearch    bool          `mapstructure:"safe_search"`
	EditorsChoice bool          `mapstructure:"editors_choice"`
	Timeout       time.Duration `mapstructure:"timeout"`
	UserAgent     string        `mapstructure:"user_agent"`
}

type FeedConfig struct {
	SearchDebounce  time.Duration `mapstructure:"search_debounce"`
	MinSearchLength int           `mapstructure:"min_search_length"`
	EndThreshold    int           `mapstructure:"end_threshold"`
	DiscardStale    bool          `mapstructure:"discard_stale"`
}

type CacheConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Path          string        `mapstructure:"path"`
	TTL           time.Duration `mapstructure:"ttl"`
	MemoryEntries int           `mapstructure:"memory_entries"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type SearchConfig struct {
	IndexPath string `mapstructure:"index_path"`
}

type UIConfig struct {
	Colors  UIColors `mapstructure:"colors"`
	Columns int      `mapstructure:"columns"`
}

type UIColors struct {
	Primary    string `mapstructure:"primary"`
	Secondary  string `mapstructure:"secondary"`
	Accent     string `mapstructure:"accent"`
	Background string `mapstructure:"background"`
	Surface    string `mapstructure:"surface"`
	Text       string `mapstructure:"text"`
	Muted      string `mapstructure:"muted"`
	Error      string `mapstructure:"error"`
	Success    string `mapstructure:"success"`
}

type MediaConfig struct {
	Darwin        []string `mapstructure:"darwin"`
	Linux         []string `mapstructure:"linux"`
	Windows       []string `mapstructure:"windows"`
	DefaultOpener string   `mapstructure:"default_opener"`
	DownloadDir   string   `mapstructure:"download_dir"`
}

// Viewers returns the image viewers configured for the running OS.
func (m MediaConfig) Viewers() []string {
	switch runtime.GOOS {
	case "darwin":
		return m.Darwin
	case "windows":
		return m.Windows
	default:
		return m.Linux
	}
}

type KeyConfig struct {
	Modifier string `mapstructure:"modifier"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".pixels")

	return &Config{
		API: APIConfig{
			BaseURL:       "https://pixabay.com/api/",
			PerPage:       25,
			SafeSearch:    true,
			EditorsChoice: true,
			Timeout:       30 * time.Second,
			UserAgent:     "pixels/1.0 (https://github.com/pders01/pixels)",
		},
		Feed: FeedConfig{
			SearchDebounce:  400 * time.Millisecond,
			MinSearchLength: 3,
			EndThreshold:    1,
		},
		Cache: CacheConfig{
			Enabled:       true,
			Path:          filepath.Join(dataDir, "cache.db"),
			TTL:           24 * time.Hour,
			MemoryEntries: 256,
			Timeout:       1 * time.Second,
		},
		Search: SearchConfig{
			IndexPath: filepath.Join(dataDir, "index.bleve"),
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:    "#FF6B6B",
				Secondary:  "#4ECDC4",
				Accent:     "#95E1D3",
				Background: "#1A1A2E",
				Surface:    "#16213E",
				Text:       "#EAEAEA",
				Muted:      "#94A3B8",
				Error:      "#F87171",
				Success:    "#4ADE80",
			},
		},
		Media: MediaConfig{
			Darwin:        []string{"qlmanage", "open"},
			Linux:         []string{"imv", "sxiv", "feh", "eog", "xdg-open"},
			Windows:       []string{"start"},
			DefaultOpener: getDefaultOpener(),
			DownloadDir:   filepath.Join(homeDir, "Pictures", "pixels"),
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
		},
		Log: LogConfig{
			Level: "off",
			File:  filepath.Join(dataDir, "pixels.log"),
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

// Validate reports the first setting that would make the app misbehave.
func (c *Config) Validate() error {
	if c.API.PerPage < 3 || c.API.PerPage > 200 {
		return fmt.Errorf("api.per_page must be between 3 and 200, got %d", c.API.PerPage)
	}
	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be positive")
	}
	if c.Feed.SearchDebounce < 0 {
		return errors.New("feed.search_debounce must not be negative")
	}
	if c.Feed.MinSearchLength < 1 {
		return fmt.Errorf("feed.min_search_length must be at least 1, got %d", c.Feed.MinSearchLength)
	}
	if c.Feed.EndThreshold < 0 {
		return fmt.Errorf("feed.end_threshold must not be negative, got %d", c.Feed.EndThreshold)
	}
	if c.UI.Columns < 0 || c.UI.Columns > 8 {
		return fmt.Errorf("ui.columns must be between 0 and 8, got %d", c.UI.Columns)
	}
	switch strings.ToLower(c.Keys.Modifier) {
	case "ctrl", "alt":
	default:
		return fmt.Errorf("keys.modifier must be ctrl or alt, got %q", c.Keys.Modifier)
	}
	return nil
}

// setDefaults registers every leaf key so AutomaticEnv can override any of
// them individually (PIXELS_FEED_SEARCH_DEBOUNCE and so on).
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.key", cfg.API.Key)
	v.SetDefault("api.per_page", cfg.API.PerPage)
	v.SetDefault("api.safe_search", cfg.API.SafeSearch)
	v.SetDefault("api.editors_choice", cfg.API.EditorsChoice)
	v.SetDefault("api.timeout", cfg.API.Timeout)
	v.SetDefault("api.user_agent", cfg.API.UserAgent)

	v.SetDefault("feed.search_debounce", cfg.Feed.SearchDebounce)
	v.SetDefault("feed.min_search_length", cfg.Feed.MinSearchLength)
	v.SetDefault("feed.end_threshold", cfg.Feed.EndThreshold)
	v.SetDefault("feed.discard_stale", cfg.Feed.DiscardStale)

	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.path", cfg.Cache.Path)
	v.SetDefault("cache.ttl", cfg.Cache.TTL)
	v.SetDefault("cache.memory_entries", cfg.Cache.MemoryEntries)
	v.SetDefault("cache.timeout", cfg.Cache.Timeout)

	v.SetDefault("search.index_path", cfg.Search.IndexPath)

	v.SetDefault("ui.columns", cfg.UI.Columns)
	c := cfg.UI.Colors
	v.SetDefault("ui.colors.primary", c.Primary)
	v.SetDefault("ui.colors.secondary", c.Secondary)
	v.SetDefault("ui.colors.accent", c.Accent)
	v.SetDefault("ui.colors.background", c.Background)
	v.SetDefault("ui.colors.surface", c.Surface)
	v.SetDefault("ui.colors.text", c.Text)
	v.SetDefault("ui.colors.muted", c.Muted)
	v.SetDefault("ui.colors.error", c.Error)
	v.SetDefault("ui.colors.success", c.Success)

	v.SetDefault("media.darwin", cfg.Media.Darwin)
	v.SetDefault("media.linux", cfg.Media.Linux)
	v.SetDefault("media.windows", cfg.Media.Windows)
	v.SetDefault("media.default_opener", cfg.Media.DefaultOpener)
	v.SetDefault("media.download_dir", cfg.Media.DownloadDir)

	v.SetDefault("keys.modifier", cfg.Keys.Modifier)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v, defaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "pixels")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("PIXELS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("api.key", "PIXELS_API_KEY", "PIXABAY_API_KEY"); err != nil {
		return nil, fmt.Errorf("binding api key: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&config)

	return &config, nil
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
	cfg.Cache.Path = expandPath(cfg.Cache.Path)
	cfg.Search.IndexPath = expandPath(cfg.Search.IndexPath)
	cfg.Media.DownloadDir = expandPath(cfg.Media.DownloadDir)
	cfg.Log.File = expandPath(cfg.Log.File)
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Durations as strings for TOML readability
	apiCfg := map[string]any{
		"base_url":       config.API.BaseURL,
		"key":            config.API.Key,
		"per_page":       config.API.PerPage,
		"safe_search":    config.API.SafeSearch,
		"editors_choice": config.API.EditorsChoice,
		"timeout":        config.API.Timeout.String(),
		"user_agent":     config.API.UserAgent,
	}

	feedCfg := map[string]any{
		"search_debounce":   config.Feed.SearchDebounce.String(),
		"min_search_length": config.Feed.MinSearchLength,
		"end_threshold":     config.Feed.EndThreshold,
		"discard_stale":     config.Feed.DiscardStale,
	}

	cacheCfg := map[string]any{
		"enabled":        config.Cache.Enabled,
		"path":           config.Cache.Path,
		"ttl":            config.Cache.TTL.String(),
		"memory_entries": config.Cache.MemoryEntries,
		"timeout":        config.Cache.Timeout.String(),
	}

	c := config.UI.Colors
	uiCfg := map[string]any{
		"columns": config.UI.Columns,
		"colors": map[string]any{
			"primary":    c.Primary,
			"secondary":  c.Secondary,
			"accent":     c.Accent,
			"background": c.Background,
			"surface":    c.Surface,
			"text":       c.Text,
			"muted":      c.Muted,
			"error":      c.Error,
			"success":    c.Success,
		},
	}

	mediaCfg := map[string]any{
		"darwin":         config.Media.Darwin,
		"linux":          config.Media.Linux,
		"windows":        config.Media.Windows,
		"default_opener": config.Media.DefaultOpener,
		"download_dir":   config.Media.DownloadDir,
	}

	v.Set("api", apiCfg)
	v.Set("feed", feedCfg)
	v.Set("cache", cacheCfg)
	v.Set("search", map[string]any{"index_path": config.Search.IndexPath})
	v.Set("ui", uiCfg)
	v.Set("media", mediaCfg)
	v.Set("keys", map[string]any{"modifier": config.Keys.Modifier})
	v.Set("log", map[string]any{"level": config.Log.Level, "file": config.Log.File})

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
