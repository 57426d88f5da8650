package main

import (
	"fmt"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/pixels/internal/cache"
	"github.com/pders01/pixels/internal/config"
	"github.com/pders01/pixels/internal/debuglog"
	"github.com/pders01/pixels/internal/feed"
	"github.com/pders01/pixels/internal/media"
	"github.com/pders01/pixels/internal/pixabay"
	"github.com/pders01/pixels/internal/search"
	"github.com/pders01/pixels/internal/storage"
	"github.com/pders01/pixels/internal/tui"
	"github.com/pders01/pixels/internal/validation"
)

// Version is the version of the application, set at build time
var Version = "dev"

var (
	configPath string
	dbPath     string
	logLevel   string
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:          "pixels",
	Short:        "Browse Pixabay images in the terminal",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to response cache database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: off, error, warn, info, debug")
	rootCmd.Flags().BoolVar(&quiet, "quiet", false, "Skip startup banner")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies the global flags to it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbPath != "" {
		cfg.Cache.Path = dbPath
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if _, err := validation.NewPermissiveURLValidator().ValidateAndNormalize(cfg.API.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid api.base_url: %w", err)
	}
	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.File); err != nil {
		return nil, err
	}
	return cfg, nil
}

// services is everything a search needs, opened from the config.
type services struct {
	client  *pixabay.Client
	store   *storage.Store
	engine  search.Engine
	closers []func() error
}

func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			debuglog.Warnf("close: %v", err)
		}
	}
}

// openServices opens the response cache and the history index. Neither is
// required: a cache that cannot be opened is skipped and a locked index is
// replaced with an in-memory one.
func openServices(cfg *config.Config, withIndex bool) *services {
	s := &services{}
	paths := validation.NewSecurePathHandler(cfg.Cache.Path, cfg.Search.IndexPath)

	var respCache pixabay.Cache
	if cfg.Cache.Enabled {
		p, err := paths.CachePath(cfg.Cache.Path)
		if err == nil {
			s.store, err = storage.NewStore(p, cfg.Cache.Timeout)
		}
		if err != nil {
			debuglog.Warnf("response cache disabled: %v", err)
		} else {
			s.closers = append(s.closers, s.store.Close)
			respCache = cache.New(s.store, cfg.Cache.TTL, cfg.Cache.MemoryEntries)
		}
	}

	s.client = pixabay.NewClient(cfg.API.BaseURL, cfg.API.Key, pixabay.Options{
		PerPage:       cfg.API.PerPage,
		SafeSearch:    cfg.API.SafeSearch,
		EditorsChoice: cfg.API.EditorsChoice,
		UserAgent:     cfg.API.UserAgent,
	}, &http.Client{Timeout: cfg.API.Timeout}, respCache)

	if !withIndex {
		return s
	}
	p, err := paths.IndexPath(cfg.Search.IndexPath)
	if err == nil {
		s.engine, err = search.NewBleveEngine(p)
	}
	if err != nil {
		debuglog.Warnf("history index unavailable, keeping it in memory: %v", err)
		s.engine = search.NewMemoryEngine()
	}
	s.closers = append(s.closers, s.engine.Close)
	return s
}

func runTUI() error {
	if !quiet {
		tui.ShowBanner(Version)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer debuglog.Close()
	if cfg.API.Key == "" {
		fmt.Fprintln(os.Stderr, "warning: no API key configured; set PIXABAY_API_KEY or api.key")
	}
	tui.ApplyTheme(cfg.UI.Colors)

	svc := openServices(cfg, true)
	defer svc.Close()

	coord := feed.NewCoordinator(svc.client, svc.engine)
	ctrl := feed.NewController(coord, feed.Settings{
		MinSearchLength: cfg.Feed.MinSearchLength,
		EndThreshold:    cfg.Feed.EndThreshold,
		DiscardStale:    cfg.Feed.DiscardStale,
	})

	launcher := media.NewLauncher(cfg.Media)
	debuglog.Infof("image viewer: %q", launcher.Viewer())
	downloader := media.NewDownloader(&http.Client{}, cfg.API.UserAgent, cfg.Media.DownloadDir)

	app := tui.NewApp(cfg, ctrl, svc.engine, launcher, downloader)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
