package tui

import (
	"github.com/pders01/pixels/internal/feed"
	"github.com/pders01/pixels/internal/storage"
)

type View int

const (
	ViewGrid View = iota
	ViewFilters
	ViewDetail
	ViewHistory
)

func (v View) String() string {
	switch v {
	case ViewGrid:
		return "grid"
	case ViewFilters:
		return "filters"
	case ViewDetail:
		return "detail"
	case ViewHistory:
		return "history"
	default:
		return "unknown"
	}
}

type fetchResultMsg struct {
	result feed.Result
}

type searchDebounceFireMsg struct {
	token feed.Token
}

type detailRenderedMsg struct {
	id      string
	content string
}

type historyResultsMsg struct {
	query  string
	images []storage.Image
	err    error
}

type downloadedMsg struct {
	path string
	err  error
}

type openedMsg struct {
	err error
}

type statusClearMsg struct {
	seq int
}

// historyItem is one local search hit in the history list.
type historyItem struct {
	image storage.Image
}

func (i historyItem) Title() string {
	tags := i.image.Tags
	if tags == "" {
		tags = "untitled"
	}
	return tags
}

func (i historyItem) Description() string {
	return renderMuted(i.image.User + " • " + dimensions(i.image) + " • ♥ " + humanCount(i.image.Likes))
}

func (i historyItem) FilterValue() string { return i.image.Tags + " " + i.image.User }
