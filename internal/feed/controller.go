package feed

import (
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pders01/pixels/internal/debuglog"
	"github.com/pders01/pixels/internal/options"
	"github.com/pders01/pixels/internal/query"
	"github.com/pders01/pixels/internal/storage"
)

type Settings struct {
	// MinSearchLength is the shortest search text that is committed.
	MinSearchLength int
	// EndThreshold is the scroll trigger's distance from the end.
	EndThreshold int
	// DiscardStale drops results of requests issued before the last reset
	// instead of applying them in arrival order.
	DiscardStale bool
}

func DefaultSettings() Settings {
	return Settings{MinSearchLength: 3, EndThreshold: 1}
}

// Controller is the image feed screen: committed search text, category and
// filters, plus the store and scroll trigger they drive. Every operation
// that needs a fetch returns the Request to run; the caller runs it through
// the Coordinator and hands the Result back to Reconcile. A Controller is
// not safe for concurrent use.
type Controller struct {
	coord    *Coordinator
	settings Settings

	store   *Store
	trigger *Trigger
	panel   FilterPanel

	search   string
	category string
	filters  query.FilterSet

	generation uint64
	seq        uint64
	inFlight   int

	exhausted     bool
	totalHits     int
	searchCleared bool
	lastOutcome   Outcome
	lastErr       error
}

func NewController(coord *Coordinator, settings Settings) *Controller {
	if settings.MinSearchLength < 1 {
		settings.MinSearchLength = 1
	}
	return &Controller{
		coord:    coord,
		settings: settings,
		store:    NewStore(),
		trigger:  NewTrigger(settings.EndThreshold),
		filters:  query.FilterSet{},
	}
}

// Start requests the first page onto the empty feed.
func (c *Controller) Start() *Request {
	return c.request(true)
}

// SetSearch commits text as the search query when it is long enough, or
// clears the search when text is empty. Shorter text is ignored, so no
// later page fetch ever carries it.
func (c *Controller) SetSearch(text string) *Request {
	if n := utf8.RuneCountInString(text); n > 0 && n < c.settings.MinSearchLength {
		return nil
	}
	c.search = text
	c.category = ""
	c.resetFeed()
	return c.request(false)
}

// SelectCategory switches to name, or to no category when name is empty.
// The search text is cleared; SearchCleared reports it to the view.
func (c *Controller) SelectCategory(name string) *Request {
	c.category = name
	c.search = ""
	c.searchCleared = true
	c.resetFeed()
	return c.request(false)
}

// SearchCleared reports, once, that the controller cleared the search text
// and the view should empty its input.
func (c *Controller) SearchCleared() bool {
	cleared := c.searchCleared
	c.searchCleared = false
	return cleared
}

// OpenFilters opens the panel with a draft of the committed filters.
func (c *Controller) OpenFilters() {
	c.panel.Open(c.filters)
}

func (c *Controller) ToggleFilter(key options.FilterKey, value string) error {
	return c.panel.Toggle(key, value)
}

// DismissFilters closes the panel without committing the draft.
func (c *Controller) DismissFilters() {
	c.panel.Dismiss()
}

// ApplyFilters commits the panel draft and restarts the feed.
func (c *Controller) ApplyFilters() *Request {
	c.filters = c.panel.Draft()
	c.panel.Dismiss()
	c.resetFeed()
	return c.request(false)
}

// ResetFilters clears both the draft and the committed filters and restarts
// the feed.
func (c *Controller) ResetFilters() *Request {
	c.filters = query.FilterSet{}
	c.panel.Dismiss()
	c.resetFeed()
	return c.request(false)
}

// ClearFilter removes one committed filter and restarts the feed. Clearing
// a key that is not set does nothing.
func (c *Controller) ClearFilter(key options.FilterKey) *Request {
	if !c.filters.Has(key) {
		return nil
	}
	c.filters.Delete(key)
	c.resetFeed()
	return c.request(false)
}

// Scroll reports a viewport position. It returns a next-page request when
// the position first crosses the end threshold and more results remain.
func (c *Controller) Scroll(offset, contentHeight, viewportHeight int) *Request {
	if !c.trigger.Observe(offset, contentHeight, viewportHeight) {
		return nil
	}
	if c.exhausted {
		return nil
	}
	c.store.NextPage()
	return c.request(true)
}

// Reconcile applies a fetch result. It runs on the goroutine that owns the
// controller, in the order results arrive.
func (c *Controller) Reconcile(res Result) {
	if c.inFlight > 0 {
		c.inFlight--
	}
	log := debuglog.WithFields(res.Request.fields())

	stale := res.Request.Generation != c.generation
	if stale {
		if c.settings.DiscardStale {
			log.Warnf("discarding stale %s result (current gen %d)", res.Outcome, c.generation)
			return
		}
		log.Warnf("applying stale %s result (current gen %d)", res.Outcome, c.generation)
	}

	c.coord.Apply(c.store, res)
	c.lastOutcome = res.Outcome
	c.lastErr = res.Err
	if stale {
		return
	}

	switch res.Outcome {
	case OutcomeSuccess:
		c.totalHits = res.TotalHits
		if c.totalHits > 0 && c.store.Len() >= c.totalHits {
			c.exhausted = true
		}
	case OutcomeEmpty:
		c.exhausted = true
	case OutcomeFailure:
		// Step back so the next trigger asks for the same page again.
		if res.Request.Append && res.Request.Params.Page > 1 && c.store.Page() == res.Request.Params.Page {
			c.store.SetPage(res.Request.Params.Page - 1)
		}
	}
}

func (c *Controller) resetFeed() {
	c.store.Reset()
	c.trigger.Reset()
	c.generation++
	c.exhausted = false
	c.totalHits = 0
}

func (c *Controller) request(appendMode bool) *Request {
	c.seq++
	c.inFlight++
	return &Request{
		ID:         uuid.NewString(),
		Seq:        c.seq,
		Generation: c.generation,
		Params:     c.Params(),
		Append:     appendMode,
	}
}

// Params builds the parameters for the current page.
func (c *Controller) Params() query.Params {
	return query.Build(c.search, c.category, c.filters, c.store.Page())
}

func (c *Controller) Coordinator() *Coordinator { return c.coord }

func (c *Controller) Items() []storage.Image { return c.store.Items() }

func (c *Controller) Page() int { return c.store.Page() }

func (c *Controller) Search() string { return c.search }

func (c *Controller) Category() string { return c.category }

// Filters returns a copy of the committed filters.
func (c *Controller) Filters() query.FilterSet { return c.filters.Clone() }

func (c *Controller) Panel() *FilterPanel { return &c.panel }

func (c *Controller) Exhausted() bool { return c.exhausted }

func (c *Controller) Loading() bool { return c.inFlight > 0 }

func (c *Controller) TotalHits() int { return c.totalHits }

func (c *Controller) Generation() uint64 { return c.generation }

func (c *Controller) TriggerState() TriggerState { return c.trigger.State() }

// LastOutcome is the outcome of the most recently applied result.
func (c *Controller) LastOutcome() Outcome { return c.lastOutcome }

func (c *Controller) LastError() error { return c.lastErr }
