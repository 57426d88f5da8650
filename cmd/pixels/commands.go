package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pders01/pixels/internal/config"
	"github.com/pders01/pixels/internal/feed"
	"github.com/pders01/pixels/internal/options"
	"github.com/pders01/pixels/internal/query"
	"github.com/pders01/pixels/internal/storage"
	"github.com/pders01/pixels/internal/validation"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pixels %s\n", Version)
		fmt.Println("Pixabay image browser")
		fmt.Println("github.com/pders01/pixels")
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configGenCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the default configuration to ~/.config/pixels/config.toml",
	Run: func(cmd *cobra.Command, args []string) {
		home, _ := os.UserHomeDir()
		configFile := filepath.Join(home, ".config", "pixels", "config.toml")
		if err := config.GenerateDefaultConfig(configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Generated default configuration at: %s\n", configFile)
	},
}

var searchFlags struct {
	category    string
	order       string
	orientation string
	imageType   string
	color       string
	page        int
	pages       int
}

var searchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Search images and print one tab-separated line per result",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := ""
		if len(args) == 1 {
			text = strings.TrimSpace(args[0])
		}
		params, err := searchParams(text)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if n := len([]rune(text)); n > 0 && n < cfg.Feed.MinSearchLength {
			return fmt.Errorf("search text must be at least %d characters", cfg.Feed.MinSearchLength)
		}

		svc := openServices(cfg, false)
		defer svc.Close()

		coord := feed.NewCoordinator(svc.client)
		return runSearch(cmd.Context(), coord, params, searchFlags.pages, cfg.API.Timeout, cmd.OutOrStdout())
	},
}

// searchParams checks the search flags and builds the first page's
// parameters.
func searchParams(text string) (query.Params, error) {
	if c := searchFlags.category; c != "" && !options.IsCategory(c) {
		return query.Params{}, fmt.Errorf("unknown category %q", c)
	}
	if searchFlags.page < 1 {
		return query.Params{}, errors.New("--page must be at least 1")
	}
	if searchFlags.pages < 1 {
		return query.Params{}, errors.New("--pages must be at least 1")
	}

	filters := query.FilterSet{}
	for key, value := range map[options.FilterKey]string{
		options.Order:       searchFlags.order,
		options.Orientation: searchFlags.orientation,
		options.Type:        searchFlags.imageType,
		options.Color:       searchFlags.color,
	} {
		if value == "" {
			continue
		}
		if !options.Valid(key, value) {
			return query.Params{}, fmt.Errorf("invalid %s %q (want one of %s)", key, value, strings.Join(options.Values(key), ", "))
		}
		filters.Set(key, value)
	}
	return query.Build(text, searchFlags.category, filters, searchFlags.page), nil
}

// runSearch fetches up to pages pages starting at params.Page and writes
// each image as it arrives. An empty page ends the run early.
func runSearch(ctx context.Context, coord *feed.Coordinator, params query.Params, pages int, timeout time.Duration, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	store := feed.NewStore()
	first := params.Page
	for page := first; page < first+pages; page++ {
		fetchCtx, cancel := context.WithTimeout(ctx, timeout)
		before := store.Len()
		res := coord.FetchPage(fetchCtx, store, params.WithPage(page), page > first)
		cancel()

		switch res.Outcome {
		case feed.OutcomeFailure:
			return fmt.Errorf("page %d: %w", page, res.Err)
		case feed.OutcomeEmpty:
			return nil
		}
		for _, img := range store.Items()[before:] {
			fmt.Fprintln(w, formatImage(img))
		}
		if res.TotalHits > 0 && store.Len() >= res.TotalHits {
			return nil
		}
	}
	return nil
}

func formatImage(img storage.Image) string {
	return strings.Join([]string{
		img.ID,
		fmt.Sprintf("%dx%d", img.Width, img.Height),
		fmt.Sprintf("%d", img.Likes),
		img.User,
		img.Tags,
		img.LargeImageURL,
	}, "\t")
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the response cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove expired responses",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCacheStore(func(s *storage.Store) error {
			n, err := s.PurgeExpired(time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired responses\n", n)
			return nil
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached response",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCacheStore(func(s *storage.Store) error {
			n, err := s.CountResponses()
			if err != nil {
				return err
			}
			if err := s.ClearResponses(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached responses\n", n)
			return nil
		})
	},
}

func withCacheStore(fn func(*storage.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := validation.NewSecurePathHandler(cfg.Cache.Path).CachePath(cfg.Cache.Path)
	if err != nil {
		return fmt.Errorf("cache path: %w", err)
	}
	s, err := storage.NewStore(p, cfg.Cache.Timeout)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func init() {
	searchCmd.Flags().StringVar(&searchFlags.category, "category", "", "Category, one of: "+strings.Join(options.Categories(), ", "))
	searchCmd.Flags().StringVar(&searchFlags.order, "order", "", "Order: popular or latest")
	searchCmd.Flags().StringVar(&searchFlags.orientation, "orientation", "", "Orientation: horizontal or vertical")
	searchCmd.Flags().StringVar(&searchFlags.imageType, "type", "", "Image type: photo, illustration or vector")
	searchCmd.Flags().StringVar(&searchFlags.color, "color", "", "Color filter")
	searchCmd.Flags().IntVar(&searchFlags.page, "page", 1, "First page to fetch")
	searchCmd.Flags().IntVar(&searchFlags.pages, "pages", 1, "Number of pages to fetch")

	configCmd.AddCommand(configGenCmd)
	cacheCmd.AddCommand(cachePurgeCmd, cacheClearCmd)
	rootCmd.AddCommand(versionCmd, configCmd, searchCmd, cacheCmd)
}
