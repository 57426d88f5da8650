package feed

import (
	"errors"
	"fmt"

	"github.com/pders01/pixels/internal/options"
	"github.com/pders01/pixels/internal/query"
)

var ErrPanelClosed = errors.New("filter panel is not open")

// FilterPanel holds the draft filters being edited in the panel. The draft
// only becomes the committed set through Controller.ApplyFilters.
type FilterPanel struct {
	open  bool
	draft query.FilterSet
}

// Open seeds the draft from the committed filters.
func (p *FilterPanel) Open(committed query.FilterSet) {
	p.draft = committed.Clone()
	p.open = true
}

// Toggle selects value for key, or clears key when value is already
// selected.
func (p *FilterPanel) Toggle(key options.FilterKey, value string) error {
	if !p.open {
		return ErrPanelClosed
	}
	if !options.Valid(key, value) {
		return fmt.Errorf("invalid %s filter value %q", key, value)
	}
	if cur, ok := p.draft.Get(key); ok && cur == value {
		p.draft.Delete(key)
		return nil
	}
	p.draft.Set(key, value)
	return nil
}

// Clear empties the draft without closing the panel.
func (p *FilterPanel) Clear() {
	p.draft = query.FilterSet{}
}

// Dismiss closes the panel and drops the draft.
func (p *FilterPanel) Dismiss() {
	p.open = false
	p.draft = nil
}

func (p *FilterPanel) IsOpen() bool { return p.open }

// Draft returns a copy of the filters being edited.
func (p *FilterPanel) Draft() query.FilterSet { return p.draft.Clone() }

// Selected reports whether value is the draft selection for key.
func (p *FilterPanel) Selected(key options.FilterKey, value string) bool {
	cur, ok := p.draft.Get(key)
	return ok && cur == value
}
