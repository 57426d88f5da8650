package feed

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/pders01/pixels/internal/debuglog"
	"github.com/pders01/pixels/internal/pixabay"
	"github.com/pders01/pixels/internal/query"
	"github.com/pders01/pixels/internal/storage"
)

// Source is the remote search API. *pixabay.Client satisfies it.
type Source interface {
	Search(ctx context.Context, p query.Params) (*pixabay.Result, error)
}

// Listener is told about every page fetched successfully.
type Listener interface {
	OnImagesFetched(images []storage.Image)
}

type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeEmpty
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeEmpty:
		return "empty"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Request is one page fetch. Seq orders requests from the same controller
// and Generation ties the request to the feed reset that produced it.
type Request struct {
	ID         string
	Seq        uint64
	Generation uint64
	Params     query.Params
	Append     bool
}

func (r Request) fields() debuglog.Fields {
	return debuglog.Fields{
		"req":    r.ID,
		"seq":    r.Seq,
		"gen":    r.Generation,
		"page":   r.Params.Page,
		"append": r.Append,
	}
}

type Result struct {
	Request   Request
	Outcome   Outcome
	Images    []storage.Image
	Total     int
	TotalHits int
	Err       error
}

// Coordinator issues page fetches and applies their results to a Store.
// Fetch is safe to call from any goroutine; Apply must run on the goroutine
// that owns the Store.
type Coordinator struct {
	source Source

	mu        sync.RWMutex
	listeners []Listener
}

func NewCoordinator(source Source, listeners ...Listener) *Coordinator {
	return &Coordinator{source: source, listeners: listeners}
}

func (c *Coordinator) AddListener(l Listener) {
	c.mu.Lock()
	c.listeners = append(c.listeners, l)
	c.mu.Unlock()
}

// Fetch issues exactly one request and classifies the reply. Nothing is
// retried and in-flight requests are not de-duplicated.
func (c *Coordinator) Fetch(ctx context.Context, req Request) Result {
	log := debuglog.WithFields(req.fields())
	log.Debugf("fetch %s", req.Params)

	res := Result{Request: req}
	page, err := c.source.Search(ctx, req.Params)
	switch {
	case errors.Is(err, pixabay.ErrPageOutOfRange):
		res.Outcome = OutcomeEmpty
	case err != nil:
		res.Outcome = OutcomeFailure
		res.Err = err
		log.Warnf("fetch failed: %v", err)
		return res
	case page == nil:
		res.Outcome = OutcomeEmpty
	case len(page.Images) == 0:
		res.Outcome = OutcomeEmpty
		res.Total, res.TotalHits = page.Total, page.TotalHits
	default:
		res.Outcome = OutcomeSuccess
		res.Images = page.Images
		res.Total, res.TotalHits = page.Total, page.TotalHits
		c.notify(page.Images)
	}

	log.Debugf("fetch %s: %d images, %d hits", res.Outcome, len(res.Images), res.TotalHits)
	return res
}

func (c *Coordinator) notify(images []storage.Image) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, l := range c.listeners {
		l.OnImagesFetched(images)
	}
}

// Apply appends or replaces the store contents for a successful result and
// reports whether the store changed. Empty and failed results leave the
// store as it was.
func (c *Coordinator) Apply(store *Store, res Result) bool {
	if res.Outcome != OutcomeSuccess {
		return false
	}
	if res.Request.Append {
		store.Append(res.Images)
	} else {
		store.Replace(res.Images)
	}
	return true
}

// FetchPage fetches params and applies the result to store in one step.
func (c *Coordinator) FetchPage(ctx context.Context, store *Store, params query.Params, appendMode bool) Result {
	req := Request{ID: uuid.NewString(), Params: params, Append: appendMode}
	res := c.Fetch(ctx, req)
	c.Apply(store, res)
	return res
}
