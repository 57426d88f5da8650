package config

import "time"

// TestConfig returns a config suitable for testing: no disk cache, an
// in-memory search index and a short debounce.
func TestConfig() *Config {
	def := defaultConfig()
	return &Config{
		API: APIConfig{
			BaseURL:       "http://127.0.0.1/api/",
			Key:           "test-key",
			PerPage:       25,
			SafeSearch:    true,
			EditorsChoice: true,
			Timeout:       5 * time.Second,
			UserAgent:     "pixels-test/1.0",
		},
		Feed: FeedConfig{
			SearchDebounce:  10 * time.Millisecond,
			MinSearchLength: 3,
			EndThreshold:    1,
		},
		Cache: CacheConfig{
			Enabled:       false,
			TTL:           time.Minute,
			MemoryEntries: 16,
			Timeout:       1 * time.Second,
		},
		Search: SearchConfig{IndexPath: ""},
		UI:     def.UI,
		Media:  def.Media,
		Keys:   def.Keys,
		Log:    LogConfig{Level: "off"},
	}
}
