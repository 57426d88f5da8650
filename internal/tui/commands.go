package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/pixels/internal/feed"
	"github.com/pders01/pixels/internal/storage"
)

const historyLimit = 50

// fetch runs req off the event loop. A nil request needs no fetch.
func (a *App) fetch(req *feed.Request) tea.Cmd {
	if req == nil {
		return nil
	}
	r := *req
	coord := a.ctrl.Coordinator()
	timeout := a.config.API.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return fetchResultMsg{result: coord.Fetch(ctx, r)}
	}
}

// scheduleSearch arms the debounce timer for the current search text.
func (a *App) scheduleSearch(text string) tea.Cmd {
	tok := a.debounce.Schedule(text)
	return tea.Tick(a.config.Feed.SearchDebounce, func(time.Time) tea.Msg {
		return searchDebounceFireMsg{token: tok}
	})
}

// commitSearch hands text to the controller and starts the resulting fetch.
func (a *App) commitSearch(text string) tea.Cmd {
	req := a.ctrl.SetSearch(text)
	if req == nil {
		return a.setStatus(fmt.Sprintf(MsgSearchTooShort, a.config.Feed.MinSearchLength), StatusInfo, 2*time.Second)
	}
	return a.startFetch(req, MsgLoading)
}

// startFetch refreshes the grid for a reset feed and runs req.
func (a *App) startFetch(req *feed.Request, status string) tea.Cmd {
	if req == nil {
		return nil
	}
	if !req.Append {
		a.selected = 0
		a.grid.GotoTop()
	}
	a.refreshGrid()
	return tea.Batch(a.fetch(req), a.setStatus(status, StatusInfo, 0), a.spinner.Tick)
}

func (a *App) renderDetail(img storage.Image) tea.Cmd {
	width := a.width
	return func() tea.Msg {
		r, err := a.getRenderer(width)
		if err != nil {
			return detailRenderedMsg{id: img.ID, content: "Error initializing renderer: " + err.Error()}
		}
		out, err := r.Render(detailMarkdown(img))
		if err != nil {
			return detailRenderedMsg{id: img.ID, content: fmt.Sprintf("Failed to render image details: %v", err)}
		}
		return detailRenderedMsg{id: img.ID, content: out}
	}
}

func detailMarkdown(img storage.Image) string {
	var b strings.Builder
	title := "Untitled"
	if tags := img.TagList(); len(tags) > 0 {
		title = strings.Join(tags, ", ")
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "*by %s*\n\n", img.User)

	b.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Type | %s |\n", img.Type)
	fmt.Fprintf(&b, "| Size | %s |\n", dimensions(img))
	fmt.Fprintf(&b, "| Views | %s |\n", humanCount(img.Views))
	fmt.Fprintf(&b, "| Downloads | %s |\n", humanCount(img.Downloads))
	fmt.Fprintf(&b, "| Likes | %s |\n\n", humanCount(img.Likes))

	if tags := img.TagList(); len(tags) > 0 {
		b.WriteString("**Tags:** ")
		for i, t := range tags {
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "`%s`", t)
		}
		b.WriteString("\n\n")
	}

	b.WriteString("---\n\n")
	if img.PageURL != "" {
		fmt.Fprintf(&b, "- [Pixabay page](%s)\n", img.PageURL)
	}
	if img.LargeImageURL != "" {
		fmt.Fprintf(&b, "- [Full size](%s)\n", img.LargeImageURL)
	}
	if u := img.DisplayURL(); u != "" {
		fmt.Fprintf(&b, "- [Preview](%s)\n", u)
	}
	return b.String()
}

func (a *App) searchHistory(q string) tea.Cmd {
	if a.history == nil {
		return nil
	}
	history := a.history
	return func() tea.Msg {
		images, err := history.Search(q, historyLimit)
		return historyResultsMsg{query: q, images: images, err: err}
	}
}

func (a *App) openImage(img storage.Image) tea.Cmd {
	if a.opener == nil {
		return a.setStatus("no image viewer configured", StatusError, 3*time.Second)
	}
	target := img.LargeImageURL
	if target == "" {
		target = img.DisplayURL()
	}
	opener := a.opener
	return tea.Batch(a.setStatus(MsgOpening, StatusInfo, 0), func() tea.Msg {
		return openedMsg{err: opener.Open(target)}
	})
}

func (a *App) downloadImage(img storage.Image) tea.Cmd {
	if a.downloader == nil {
		return a.setStatus("downloads are not configured", StatusError, 3*time.Second)
	}
	dl := a.downloader
	dir := a.config.Media.DownloadDir
	return tea.Batch(a.setStatus(MsgDownloading, StatusInfo, 0), a.spinner.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		path, err := dl.Download(ctx, img, dir)
		return downloadedMsg{path: path, err: err}
	})
}

// setStatus shows text in the status bar. A positive ttl clears it again
// unless a newer status replaced it first.
func (a *App) setStatus(text string, kind StatusKind, ttl time.Duration) tea.Cmd {
	a.statusSeq++
	a.status = text
	a.statusKind = kind
	if ttl <= 0 {
		return nil
	}
	seq := a.statusSeq
	return tea.Tick(ttl, func(time.Time) tea.Msg { return statusClearMsg{seq: seq} })
}
