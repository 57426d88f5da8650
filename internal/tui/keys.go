package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap holds every binding. Bindings that use the modifier are built
// from the configured modifier key.
type KeyMap struct {
	Quit         key.Binding
	Back         key.Binding
	FocusSearch  key.Binding
	Submit       key.Binding
	Up           key.Binding
	Down         key.Binding
	NextColumn   key.Binding
	PrevColumn   key.Binding
	PageUp       key.Binding
	PageDown     key.Binding
	Top          key.Binding
	CategoryPrev key.Binding
	CategoryNext key.Binding
	Toggle       key.Binding
	ClearChip    key.Binding
	Filters      key.Binding
	History      key.Binding
	Open         key.Binding
	Download     key.Binding
	Reset        key.Binding
	SectionUp    key.Binding
	SectionDown  key.Binding
	OptionPrev   key.Binding
	OptionNext   key.Binding
}

func NewKeyMap(modifier string) KeyMap {
	mod := modifier + "+"
	return KeyMap{
		Quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Back:         key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		FocusSearch:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Submit:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Up:           key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:         key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		NextColumn:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next column")),
		PrevColumn:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev column")),
		PageUp:       key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDown:     key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
		Top:          key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "top")),
		CategoryPrev: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "category")),
		CategoryNext: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "category")),
		Toggle:       key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		ClearChip:    key.NewBinding(key.WithKeys("1", "2", "3", "4"), key.WithHelp("1-4", "remove filter")),
		Filters:      key.NewBinding(key.WithKeys(mod+"f"), key.WithHelp(mod+"f", "filters")),
		History:      key.NewBinding(key.WithKeys(mod+"s"), key.WithHelp(mod+"s", "history")),
		Open:         key.NewBinding(key.WithKeys(mod+"o"), key.WithHelp(mod+"o", "open")),
		Download:     key.NewBinding(key.WithKeys(mod+"d"), key.WithHelp(mod+"d", "download")),
		Reset:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		SectionUp:    key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/↓", "section")),
		SectionDown:  key.NewBinding(key.WithKeys("down", "j")),
		OptionPrev:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/→", "option")),
		OptionNext:   key.NewBinding(key.WithKeys("right", "l")),
	}
}

// viewHelp implements help.KeyMap for one view.
type viewHelp []key.Binding

func (h viewHelp) ShortHelp() []key.Binding { return h }

func (h viewHelp) FullHelp() [][]key.Binding { return [][]key.Binding{h} }

func (k KeyMap) helpFor(v View, searching bool) viewHelp {
	switch v {
	case ViewFilters:
		apply := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply"))
		return viewHelp{k.SectionUp, k.OptionPrev, k.Toggle, apply, k.Reset, k.Back}
	case ViewDetail:
		return viewHelp{k.Open, k.Download, k.Up, k.Down, k.Back}
	case ViewHistory:
		return viewHelp{k.Up, k.Down, k.Submit, k.Back}
	default:
		if searching {
			commit := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search now"))
			done := key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "done"))
			return viewHelp{commit, done}
		}
		return viewHelp{k.FocusSearch, k.Down, k.CategoryNext, k.Toggle, k.ClearChip, k.Filters, k.History, k.Submit, k.Quit}
	}
}
