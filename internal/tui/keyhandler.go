package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/pixels/internal/config"
	"github.com/pders01/pixels/internal/options"
)

type KeyHandler struct {
	app         *App
	keys        KeyMap
	modifierKey string
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	return &KeyHandler{
		app:         app,
		keys:        NewKeyMap(cfg.Keys.Modifier),
		modifierKey: cfg.Keys.Modifier + "+",
	}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return kh.app, tea.Quit
	}
	switch kh.app.view {
	case ViewFilters:
		return kh.handleFilterKeys(msg)
	case ViewDetail:
		return kh.handleDetailKeys(msg)
	case ViewHistory:
		return kh.handleHistoryKeys(msg)
	default:
		if kh.app.searchInput.Focused() {
			return kh.handleSearchInput(msg)
		}
		return kh.handleGridKeys(msg)
	}
}

// handleSearchInput feeds keys to the search box and debounces the text.
func (kh *KeyHandler) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch msg.String() {
	case "esc":
		a.searchInput.Blur()
		return a, nil
	case "enter":
		a.searchInput.Blur()
		if text, ok := a.debounce.Flush(); ok {
			return a, a.commitSearch(text)
		}
		if text := a.searchValue(); text != a.ctrl.Search() {
			return a, a.commitSearch(text)
		}
		return a, nil
	}

	prev := a.searchInput.Value()
	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	if a.searchInput.Value() == prev {
		return a, cmd
	}
	return a, tea.Batch(cmd, a.scheduleSearch(a.searchValue()))
}

func (kh *KeyHandler) handleGridKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	k := kh.keys

	switch {
	case key.Matches(msg, k.Quit):
		return a, tea.Quit
	case key.Matches(msg, k.FocusSearch):
		return a, a.searchInput.Focus()
	case key.Matches(msg, k.Filters):
		a.ctrl.OpenFilters()
		a.panelSection, a.panelOption = 0, 0
		a.view = ViewFilters
		return a, nil
	case key.Matches(msg, k.History):
		return a, a.enterHistory()
	case key.Matches(msg, k.Up):
		return a, a.moveSelection(a.layout.neighbour(a.selected, -1))
	case key.Matches(msg, k.Down):
		return a, a.moveSelection(a.layout.neighbour(a.selected, 1))
	case key.Matches(msg, k.NextColumn):
		return a, a.moveSelection(a.layout.across(a.selected, 1))
	case key.Matches(msg, k.PrevColumn):
		return a, a.moveSelection(a.layout.across(a.selected, -1))
	case key.Matches(msg, k.PageDown):
		a.grid.ScrollDown(max(a.grid.Height, 1))
		return a, a.reportScroll()
	case key.Matches(msg, k.PageUp):
		a.grid.ScrollUp(max(a.grid.Height, 1))
		return a, a.reportScroll()
	case key.Matches(msg, k.Top):
		a.grid.GotoTop()
		a.selected = 0
		a.refreshGrid()
		return a, a.reportScroll()
	case key.Matches(msg, k.CategoryPrev):
		a.moveCategoryCursor(-1)
		return a, nil
	case key.Matches(msg, k.CategoryNext):
		a.moveCategoryCursor(1)
		return a, nil
	case key.Matches(msg, k.Toggle):
		return a, kh.toggleCategory()
	case key.Matches(msg, k.ClearChip):
		return a, kh.clearChip(msg.String())
	case key.Matches(msg, k.Submit):
		if img, ok := a.selectedImage(); ok {
			return a, a.openDetail(img, ViewGrid)
		}
		return a, nil
	case key.Matches(msg, k.Open):
		if img, ok := a.selectedImage(); ok {
			return a, a.openImage(img)
		}
		return a, nil
	case key.Matches(msg, k.Download):
		if img, ok := a.selectedImage(); ok {
			return a, a.downloadImage(img)
		}
		return a, nil
	}
	return a, nil
}

// toggleCategory selects the category under the cursor, or deselects it
// when it is already active.
func (kh *KeyHandler) toggleCategory() tea.Cmd {
	a := kh.app
	cats := options.Categories()
	if a.categoryCursor < 0 || a.categoryCursor >= len(cats) {
		return nil
	}
	name := cats[a.categoryCursor]
	if name == a.ctrl.Category() {
		name = ""
	}
	req := a.ctrl.SelectCategory(name)
	if a.ctrl.SearchCleared() {
		a.debounce.Cancel()
		a.searchInput.SetValue("")
	}
	return a.startFetch(req, MsgLoading)
}

func (kh *KeyHandler) clearChip(digit string) tea.Cmd {
	a := kh.app
	keys := a.ctrl.Filters().SortedKeys()
	i := int(digit[0] - '1')
	if i < 0 || i >= len(keys) {
		return nil
	}
	return a.startFetch(a.ctrl.ClearFilter(keys[i]), MsgLoading)
}

func (kh *KeyHandler) handleFilterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	k := kh.keys
	sections := options.Keys()

	switch {
	case key.Matches(msg, k.Back):
		a.ctrl.DismissFilters()
		a.view = ViewGrid
		return a, nil
	case key.Matches(msg, k.SectionUp):
		a.panelSection = (a.panelSection + len(sections) - 1) % len(sections)
		a.panelOption = 0
	case key.Matches(msg, k.SectionDown):
		a.panelSection = (a.panelSection + 1) % len(sections)
		a.panelOption = 0
	case key.Matches(msg, k.OptionPrev):
		n := len(options.Values(sections[a.panelSection]))
		a.panelOption = (a.panelOption + n - 1) % n
	case key.Matches(msg, k.OptionNext):
		n := len(options.Values(sections[a.panelSection]))
		a.panelOption = (a.panelOption + 1) % n
	case key.Matches(msg, k.Toggle):
		section := sections[a.panelSection]
		value := options.Values(section)[a.panelOption]
		if err := a.ctrl.ToggleFilter(section, value); err != nil {
			return a, a.setStatus(err.Error(), StatusError, 3*time.Second)
		}
	case key.Matches(msg, k.Reset):
		a.view = ViewGrid
		return a, tea.Batch(a.startFetch(a.ctrl.ResetFilters(), MsgLoading), a.setStatus(MsgFiltersApplied(0), StatusSuccess, 2*time.Second))
	case msg.String() == "enter":
		a.view = ViewGrid
		req := a.ctrl.ApplyFilters()
		return a, tea.Batch(a.startFetch(req, MsgLoading), a.setStatus(MsgFiltersApplied(a.ctrl.Filters().Len()), StatusSuccess, 2*time.Second))
	case key.Matches(msg, k.Quit):
		return a, tea.Quit
	}
	return a, nil
}

func (kh *KeyHandler) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	k := kh.keys

	switch {
	case key.Matches(msg, k.Back):
		a.view = a.previousView
		a.current = nil
		return a, nil
	case key.Matches(msg, k.Open):
		if a.current != nil {
			return a, a.openImage(*a.current)
		}
		return a, nil
	case key.Matches(msg, k.Download):
		if a.current != nil {
			return a, a.downloadImage(*a.current)
		}
		return a, nil
	case key.Matches(msg, k.Quit):
		return a, tea.Quit
	}

	var cmd tea.Cmd
	a.detail, cmd = a.detail.Update(msg)
	return a, cmd
}

func (kh *KeyHandler) handleHistoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app

	switch msg.String() {
	case "esc":
		a.historyInput.Blur()
		a.view = ViewGrid
		return a, nil
	case "enter":
		if item, ok := a.historyList.SelectedItem().(historyItem); ok {
			return a, a.openDetail(item.image, ViewHistory)
		}
		return a, nil
	case "up", "down", "pgup", "pgdown":
		var cmd tea.Cmd
		a.historyList, cmd = a.historyList.Update(msg)
		return a, cmd
	}

	prev := a.historyInput.Value()
	var cmd tea.Cmd
	a.historyInput, cmd = a.historyInput.Update(msg)
	q := strings.TrimSpace(a.historyInput.Value())
	if q == strings.TrimSpace(prev) {
		return a, cmd
	}
	if len([]rune(q)) < 2 {
		a.historyList.SetItems(nil)
		return a, cmd
	}
	return a, tea.Batch(cmd, a.searchHistory(q))
}

// GetHelpForCurrentView lists the key hints shown in the status bar.
func (kh *KeyHandler) GetHelpForCurrentView() viewHelp {
	return kh.keys.helpFor(kh.app.view, kh.app.searchInput.Focused())
}

func focusHistory(a *App) tea.Cmd {
	a.historyInput.SetValue("")
	a.historyList.SetItems(nil)
	return tea.Batch(a.historyInput.Focus(), textinput.Blink)
}
