package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/pders01/pixels/internal/config"
	"github.com/pders01/pixels/internal/feed"
	"github.com/pders01/pixels/internal/options"
	"github.com/pders01/pixels/internal/search"
	"github.com/pders01/pixels/internal/storage"
)

// chromeLines is everything on the grid screen except the grid itself:
// header, framed search box, category strip, chips, separator, status bar.
const chromeLines = 8

// Opener shows an image in an external program.
type Opener interface {
	Open(target string) error
}

// Downloader saves an image into a directory.
type Downloader interface {
	Download(ctx context.Context, img storage.Image, dir string) (string, error)
}

type App struct {
	config     *config.Config
	ctrl       *feed.Controller
	history    search.Searcher
	opener     Opener
	downloader Downloader
	keyHandler *KeyHandler
	debounce   feed.Debouncer

	searchInput  textinput.Model
	grid         viewport.Model
	detail       viewport.Model
	historyInput textinput.Model
	historyList  list.Model
	spinner      spinner.Model
	help         help.Model

	view         View
	previousView View
	width        int
	height       int

	layout         masonry
	selected       int
	categoryCursor int
	panelSection   int
	panelOption    int

	current       *storage.Image
	detailLoading bool

	status     string
	statusKind StatusKind
	statusSeq  int

	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
}

// NewApp builds the TUI around ctrl. history, opener and downloader may be
// nil; the matching actions then report that they are unavailable.
func NewApp(cfg *config.Config, ctrl *feed.Controller, history search.Searcher, opener Opener, downloader Downloader) *App {
	si := textinput.New()
	si.Placeholder = "Search images…"
	si.Prompt = "⌕ "
	si.CharLimit = 100

	hi := textinput.New()
	hi.Placeholder = "Search images you have seen…"
	hi.Prompt = "› "

	hl := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	hl.Title = "› history"
	hl.SetShowStatusBar(false)
	hl.SetFilteringEnabled(false)
	hl.SetShowHelp(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = HeaderStyle

	app := &App{
		config:       cfg,
		ctrl:         ctrl,
		history:      history,
		opener:       opener,
		downloader:   downloader,
		searchInput:  si,
		grid:         viewport.New(0, 0),
		detail:       viewport.New(0, 0),
		historyInput: hi,
		historyList:  hl,
		spinner:      sp,
		help:         help.New(),
		view:         ViewGrid,
		previousView: ViewGrid,
	}
	app.keyHandler = NewKeyHandler(app, cfg)
	return app
}

func (a *App) getRenderer(width int) (*glamour.TermRenderer, error) {
	wrap := min(max((width*9)/10, 40), 100)
	if width > 0 && width < 50 {
		wrap = max(width-4, 20)
	}
	if a.glamourRenderer == nil || abs(a.rendererWidth-wrap) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrap),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wrap
	}
	return a.glamourRenderer, nil
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		a.startFetch(a.ctrl.Start(), MsgLoading),
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, a.reportScroll()

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		switch a.view {
		case ViewGrid:
			a.grid, cmd = a.grid.Update(msg)
			return a, tea.Batch(cmd, a.reportScroll())
		case ViewDetail:
			a.detail, cmd = a.detail.Update(msg)
			return a, cmd
		}
		return a, nil

	case fetchResultMsg:
		return a, a.handleFetchResult(msg.result)

	case searchDebounceFireMsg:
		if text, ok := a.debounce.Fire(msg.token); ok {
			return a, a.commitSearch(text)
		}
		return a, nil

	case detailRenderedMsg:
		if a.current != nil && a.current.ID == msg.id {
			a.detail.SetContent(msg.content)
			a.detail.GotoTop()
			a.detailLoading = false
		}
		return a, nil

	case historyResultsMsg:
		return a, a.handleHistoryResults(msg)

	case downloadedMsg:
		if msg.err != nil {
			return a, a.setStatus(wrapErr("download failed", msg.err).Error(), StatusError, 0)
		}
		return a, a.setStatus(MsgDownloaded(msg.path), StatusSuccess, 0)

	case openedMsg:
		if msg.err != nil {
			return a, a.setStatus(wrapErr("open failed", msg.err).Error(), StatusError, 0)
		}
		return a, a.setStatus("", StatusInfo, 0)

	case statusClearMsg:
		if msg.seq == a.statusSeq {
			a.status = ""
		}
		return a, nil

	case spinner.TickMsg:
		if !a.busy() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	// Cursor blink and other input housekeeping.
	var cmd tea.Cmd
	switch {
	case a.view == ViewGrid && a.searchInput.Focused():
		a.searchInput, cmd = a.searchInput.Update(msg)
	case a.view == ViewHistory:
		a.historyInput, cmd = a.historyInput.Update(msg)
	}
	return a, cmd
}

func (a *App) resize(width, height int) {
	a.width, a.height = width, height

	a.grid.Width = width
	a.grid.Height = max(height-chromeLines, 3)
	a.detail.Width = width
	a.detail.Height = max(height-3, 3)
	a.searchInput.Width = max(width-8, 10)
	a.historyInput.Width = max(width-8, 10)
	a.historyList.SetSize(width, max(height-7, 5))
	a.help.Width = width
	a.refreshGrid()
}

func (a *App) handleFetchResult(res feed.Result) tea.Cmd {
	a.ctrl.Reconcile(res)
	a.refreshGrid()

	var status tea.Cmd
	switch res.Outcome {
	case feed.OutcomeSuccess:
		status = a.setStatus(MsgResultsCount(len(a.ctrl.Items()), a.ctrl.TotalHits()), StatusInfo, 0)
	case feed.OutcomeEmpty:
		if len(a.ctrl.Items()) == 0 {
			status = a.setStatus(MsgNoResults, StatusWarn, 0)
		} else {
			status = a.setStatus(MsgNoMoreResults, StatusInfo, 0)
		}
	case feed.OutcomeFailure:
		status = a.setStatus(describeFetchErr(res.Err), StatusError, 0)
	}
	return tea.Batch(status, a.reportScroll())
}

func (a *App) handleHistoryResults(msg historyResultsMsg) tea.Cmd {
	if msg.query != strings.TrimSpace(a.historyInput.Value()) {
		return nil
	}
	if msg.err != nil {
		return a.setStatus(wrapErr("history search", msg.err).Error(), StatusError, 0)
	}
	items := make([]list.Item, len(msg.images))
	for i, img := range msg.images {
		items[i] = historyItem{image: img}
	}
	a.historyList.SetItems(items)
	return a.setStatus(MsgHistoryCount(len(items)), StatusInfo, 0)
}

// reportScroll hands the grid position to the controller and runs the next
// page fetch when one is due. An empty feed has nothing to scroll; a page
// that does not fill the viewport counts as scrolled to the end.
func (a *App) reportScroll() tea.Cmd {
	if a.view != ViewGrid || len(a.ctrl.Items()) == 0 {
		return nil
	}
	req := a.ctrl.Scroll(a.grid.YOffset, a.grid.TotalLineCount(), a.grid.Height)
	return a.startFetch(req, MsgLoadingMore)
}

// refreshGrid lays the current items out again and redraws the grid.
func (a *App) refreshGrid() {
	items := a.ctrl.Items()
	if a.selected >= len(items) {
		a.selected = max(len(items)-1, 0)
	}

	cols := columnCount(a.width, a.config.UI.Columns)
	a.layout = layoutMasonry(items, cols)
	colWidth := 24
	if a.width > 0 {
		colWidth = max(a.width/cols, 12)
	}

	content := renderGrid(items, a.layout, colWidth, a.selected)
	if footer := a.gridFooter(); footer != "" {
		content += "\n" + footer
	}
	a.grid.SetContent(content)
}

func (a *App) gridFooter() string {
	switch {
	case a.ctrl.Loading():
		return renderMuted(MsgLoadingMore)
	case len(a.ctrl.Items()) == 0:
		return renderMuted(MsgNoResults)
	case a.ctrl.Exhausted():
		return renderMuted("· end of results ·")
	}
	return ""
}

// moveSelection selects index and scrolls the grid so the card is visible.
func (a *App) moveSelection(index int) tea.Cmd {
	if index < 0 || index >= len(a.layout.byIndex) {
		return nil
	}
	a.selected = index
	p := a.layout.byIndex[index]
	switch {
	case p.top < a.grid.YOffset:
		a.grid.SetYOffset(p.top)
	case p.top+p.height > a.grid.YOffset+a.grid.Height:
		a.grid.SetYOffset(p.top + p.height - a.grid.Height)
	}
	a.refreshGrid()
	return a.reportScroll()
}

func (a *App) selectedImage() (storage.Image, bool) {
	items := a.ctrl.Items()
	if a.selected < 0 || a.selected >= len(items) {
		return storage.Image{}, false
	}
	return items[a.selected], true
}

func (a *App) moveCategoryCursor(delta int) {
	n := len(options.Categories())
	a.categoryCursor = (a.categoryCursor + delta + n) % n
}

func (a *App) openDetail(img storage.Image, from View) tea.Cmd {
	a.current = &img
	a.previousView = from
	a.detailLoading = true
	a.view = ViewDetail
	return a.renderDetail(img)
}

func (a *App) enterHistory() tea.Cmd {
	if a.history == nil {
		return a.setStatus("history search is unavailable", StatusError, 0)
	}
	a.searchInput.Blur()
	a.view = ViewHistory
	return focusHistory(a)
}

// searchValue is the search box text with control characters removed.
func (a *App) searchValue() string {
	return strings.TrimSpace(sanitizeSearch(a.searchInput.Value()))
}

func (a *App) busy() bool {
	return a.ctrl.Loading() || a.status == MsgDownloading || a.detailLoading
}
