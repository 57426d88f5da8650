// Package search recalls images seen during the session by tag or user.
package search

import "github.com/pders01/pixels/internal/storage"

// Searcher is the search API used by the history view.
type Searcher interface {
	Search(query string, limit int) ([]storage.Image, error)
}

// Indexer takes images as they are fetched. Both engines implement it, and
// both satisfy feed.Listener through OnImagesFetched.
type Indexer interface {
	Index(images []storage.Image) error
	OnImagesFetched(images []storage.Image)
}

// DebugStatser provides lightweight stats for visibility/debugging.
type DebugStatser interface {
	DocCount() (int, error)
}

// Engine is everything the app needs from a search backend.
type Engine interface {
	Searcher
	Indexer
	DebugStatser
	Close() error
}
