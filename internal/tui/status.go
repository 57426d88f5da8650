package tui

import (
	"fmt"
	"path/filepath"
)

// Short status messages used across the app.
const (
	MsgLoading        = "Loading…"
	MsgLoadingMore    = "Loading more…"
	MsgNoResults      = "No results"
	MsgNoMoreResults  = "No more results"
	MsgDownloading    = "Downloading…"
	MsgOpening        = "Opening viewer…"
	MsgSearchTooShort = "Type at least %d characters to search"
)

func MsgResultsCount(shown, total int) string {
	if total <= 0 {
		return fmt.Sprintf("%d images", shown)
	}
	return fmt.Sprintf("%d of %s images", shown, humanCount(total))
}

func MsgDownloaded(path string) string {
	return "Saved " + filepath.Base(path)
}

func MsgFiltersApplied(n int) string {
	switch n {
	case 0:
		return "Filters cleared"
	case 1:
		return "1 filter applied"
	default:
		return fmt.Sprintf("%d filters applied", n)
	}
}

func MsgHistoryCount(n int) string {
	if n == 1 {
		return "1 match"
	}
	return fmt.Sprintf("%d matches", n)
}
