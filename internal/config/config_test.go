package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestGetDefaultOpener(t *testing.T) {
	expected := map[string]string{
		"darwin":  "open",
		"linux":   "xdg-open",
		"windows": "start",
	}

	opener := getDefaultOpener()

	if expectedOpener, ok := expected[runtime.GOOS]; ok {
		if opener != expectedOpener {
			t.Errorf("getDefaultOpener() = %s, want %s for %s", opener, expectedOpener, runtime.GOOS)
		}
	} else if opener != "open" {
		t.Errorf("getDefaultOpener() = %s, want 'open' for unknown OS", opener)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.API.BaseURL != "https://pixabay.com/api/" {
		t.Errorf("API.BaseURL = %s", cfg.API.BaseURL)
	}
	if cfg.API.PerPage != 25 {
		t.Errorf("API.PerPage = %d, want 25", cfg.API.PerPage)
	}
	if !cfg.API.SafeSearch || !cfg.API.EditorsChoice {
		t.Error("safe_search and editors_choice should default to true")
	}
	if cfg.Feed.SearchDebounce != 400*time.Millisecond {
		t.Errorf("Feed.SearchDebounce = %v, want 400ms", cfg.Feed.SearchDebounce)
	}
	if cfg.Feed.MinSearchLength != 3 {
		t.Errorf("Feed.MinSearchLength = %d, want 3", cfg.Feed.MinSearchLength)
	}
	if cfg.Feed.EndThreshold != 1 {
		t.Errorf("Feed.EndThreshold = %d, want 1", cfg.Feed.EndThreshold)
	}
	if cfg.Feed.DiscardStale {
		t.Error("Feed.DiscardStale should default to false")
	}
	if cfg.Cache.TTL != 24*time.Hour {
		t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
	}
	if cfg.Keys.Modifier != "ctrl" {
		t.Errorf("Keys.Modifier = %s, want 'ctrl'", cfg.Keys.Modifier)
	}
	if cfg.Log.Level != "off" {
		t.Errorf("Log.Level = %s, want 'off'", cfg.Log.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_DefaultConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Feed.SearchDebounce != 400*time.Millisecond {
		t.Errorf("Feed.SearchDebounce = %v, want 400ms", cfg.Feed.SearchDebounce)
	}
	if len(cfg.Media.Linux) == 0 {
		t.Error("media viewer defaults missing")
	}
}

func TestLoad_FromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "test-config.toml")
	configContent := `
[api]
key = "abc123"
per_page = 50
safe_search = false
timeout = "10s"

[feed]
search_debounce = "250ms"
min_search_length = 2
discard_stale = true

[cache]
path = "/tmp/pixels-test.db"

[ui.colors]
primary = "#FF0000"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.Key != "abc123" {
		t.Errorf("API.Key = %s, want abc123", cfg.API.Key)
	}
	if cfg.API.PerPage != 50 {
		t.Errorf("API.PerPage = %d, want 50", cfg.API.PerPage)
	}
	if cfg.API.SafeSearch {
		t.Error("API.SafeSearch should be false")
	}
	if !cfg.API.EditorsChoice {
		t.Error("API.EditorsChoice should keep its default")
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Errorf("API.Timeout = %v, want 10s", cfg.API.Timeout)
	}
	if cfg.Feed.SearchDebounce != 250*time.Millisecond {
		t.Errorf("Feed.SearchDebounce = %v, want 250ms", cfg.Feed.SearchDebounce)
	}
	if cfg.Feed.MinSearchLength != 2 || !cfg.Feed.DiscardStale {
		t.Errorf("unexpected feed config: %+v", cfg.Feed)
	}
	if cfg.Cache.Path != "/tmp/pixels-test.db" {
		t.Errorf("Cache.Path = %s", cfg.Cache.Path)
	}
	if cfg.UI.Colors.Primary != "#FF0000" {
		t.Errorf("UI.Colors.Primary = %s, want '#FF0000'", cfg.UI.Colors.Primary)
	}
	if cfg.UI.Colors.Secondary != "#4ECDC4" {
		t.Errorf("UI.Colors.Secondary = %s, want default", cfg.UI.Colors.Secondary)
	}
}

func TestLoad_APIKeyFromEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PIXABAY_API_KEY", "from-env")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.Key != "from-env" {
		t.Errorf("API.Key = %q, want from-env", cfg.API.Key)
	}
}

func TestLoad_PrefixedEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PIXELS_FEED_MIN_SEARCH_LENGTH", "5")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Feed.MinSearchLength != 5 {
		t.Errorf("Feed.MinSearchLength = %d, want 5", cfg.Feed.MinSearchLength)
	}
}

func TestLoad_ExpandsTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	configPath := filepath.Join(t.TempDir(), "tilde.toml")
	content := "[media]\ndownload_dir = \"~/shots\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Media.DownloadDir != filepath.Join(home, "shots") {
		t.Errorf("Media.DownloadDir = %s", cfg.Media.DownloadDir)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"per page too small", func(c *Config) { c.API.PerPage = 2 }, true},
		{"per page too large", func(c *Config) { c.API.PerPage = 201 }, true},
		{"per page upper bound", func(c *Config) { c.API.PerPage = 200 }, false},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }, true},
		{"negative debounce", func(c *Config) { c.Feed.SearchDebounce = -time.Millisecond }, true},
		{"zero debounce", func(c *Config) { c.Feed.SearchDebounce = 0 }, false},
		{"min search zero", func(c *Config) { c.Feed.MinSearchLength = 0 }, true},
		{"negative threshold", func(c *Config) { c.Feed.EndThreshold = -1 }, true},
		{"too many columns", func(c *Config) { c.UI.Columns = 9 }, true},
		{"alt modifier", func(c *Config) { c.Keys.Modifier = "alt" }, false},
		{"bad modifier", func(c *Config) { c.Keys.Modifier = "hyper" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSave(t *testing.T) {
	cfg := defaultConfig()
	cfg.API.Key = "saved-key"
	cfg.API.UserAgent = "test-save-agent"
	cfg.Feed.SearchDebounce = 750 * time.Millisecond
	cfg.Cache.Path = "/test/cache.db"
	cfg.Media.DefaultOpener = "test-opener"
	cfg.Keys.Modifier = "alt"

	savePath := filepath.Join(t.TempDir(), "saved-config.toml")
	if err := Save(cfg, savePath); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := os.Stat(savePath); os.IsNotExist(err) {
		t.Fatal("Save() did not create config file")
	}

	loaded, err := Load(savePath)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}

	if loaded.API.Key != cfg.API.Key {
		t.Errorf("Loaded API.Key = %s, want %s", loaded.API.Key, cfg.API.Key)
	}
	if loaded.API.UserAgent != cfg.API.UserAgent {
		t.Errorf("Loaded API.UserAgent = %s, want %s", loaded.API.UserAgent, cfg.API.UserAgent)
	}
	if loaded.Feed.SearchDebounce != cfg.Feed.SearchDebounce {
		t.Errorf("Loaded Feed.SearchDebounce = %v, want %v", loaded.Feed.SearchDebounce, cfg.Feed.SearchDebounce)
	}
	if loaded.Cache.Path != cfg.Cache.Path {
		t.Errorf("Loaded Cache.Path = %s, want %s", loaded.Cache.Path, cfg.Cache.Path)
	}
	if loaded.Media.DefaultOpener != cfg.Media.DefaultOpener {
		t.Errorf("Loaded Media.DefaultOpener = %s, want %s", loaded.Media.DefaultOpener, cfg.Media.DefaultOpener)
	}
	if loaded.Keys.Modifier != cfg.Keys.Modifier {
		t.Errorf("Loaded Keys.Modifier = %s, want %s", loaded.Keys.Modifier, cfg.Keys.Modifier)
	}
}

func TestGenerateDefaultConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "generated.toml")
	if err := GenerateDefaultConfig(configPath); err != nil {
		t.Fatalf("GenerateDefaultConfig() error = %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load generated config: %v", err)
	}
	if cfg.Keys.Modifier != "ctrl" {
		t.Errorf("Generated config has Keys.Modifier = %s, want 'ctrl'", cfg.Keys.Modifier)
	}
	if cfg.API.PerPage != 25 {
		t.Errorf("Generated config has API.PerPage = %d, want 25", cfg.API.PerPage)
	}
}

func TestTestConfig(t *testing.T) {
	cfg := TestConfig()

	if cfg == nil {
		t.Fatal("TestConfig() returned nil")
	}
	if cfg.Cache.Enabled {
		t.Error("TestConfig should disable the disk cache")
	}
	if cfg.Search.IndexPath != "" {
		t.Errorf("TestConfig Search.IndexPath = %s, want in-memory", cfg.Search.IndexPath)
	}
	if cfg.API.UserAgent != "pixels-test/1.0" {
		t.Errorf("TestConfig API.UserAgent = %s, want 'pixels-test/1.0'", cfg.API.UserAgent)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("TestConfig should validate: %v", err)
	}
}
