package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/pixels/internal/options"
	"github.com/pders01/pixels/internal/pixabay"
	"github.com/pders01/pixels/internal/query"
	"github.com/pders01/pixels/internal/storage"
)

func images(ids ...string) []storage.Image {
	out := make([]storage.Image, 0, len(ids))
	for _, id := range ids {
		out = append(out, storage.Image{ID: id, Width: 640, Height: 480})
	}
	return out
}

func ids(items []storage.Image) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

// fakeSource answers by page number and records every request.
type fakeSource struct {
	mu        sync.Mutex
	pages     map[int][]storage.Image
	totalHits int
	err       error
	calls     []query.Params
}

func (f *fakeSource) Search(_ context.Context, p query.Params) (*pixabay.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, p)
	if f.err != nil {
		return nil, f.err
	}
	imgs, ok := f.pages[p.Page]
	if !ok {
		return nil, pixabay.ErrPageOutOfRange
	}
	return &pixabay.Result{Total: f.totalHits, TotalHits: f.totalHits, Images: imgs}, nil
}

type recordingListener struct {
	got [][]storage.Image
}

func (r *recordingListener) OnImagesFetched(imgs []storage.Image) {
	r.got = append(r.got, imgs)
}

func TestStore(t *testing.T) {
	s := NewStore()
	assert.Equal(t, 1, s.Page())
	assert.Empty(t, s.Items())

	s.Append(images("a", "b"))
	s.Append(images("b", "c"))
	assert.Equal(t, []string{"a", "b", "b", "c"}, ids(s.Items()), "duplicates are kept")

	assert.Equal(t, 2, s.NextPage())
	assert.Equal(t, 3, s.NextPage())

	s.Replace(images("z"))
	assert.Equal(t, []string{"z"}, ids(s.Items()))
	assert.Equal(t, 3, s.Page(), "replace does not move the cursor")

	s.SetPage(0)
	assert.Equal(t, 1, s.Page())

	s.SetPage(5)
	s.Reset()
	assert.Equal(t, 1, s.Page())
	assert.Equal(t, 0, s.Len())
}

func TestTrigger_FiresOncePerCrossing(t *testing.T) {
	tr := NewTrigger(1)

	// content 100, viewport 20: near end from offset 79.
	assert.False(t, tr.Observe(10, 100, 20))
	assert.False(t, tr.Observe(78, 100, 20))
	assert.True(t, tr.Observe(79, 100, 20))
	assert.Equal(t, NearEnd, tr.State())
	assert.False(t, tr.Observe(80, 100, 20))
	assert.False(t, tr.Observe(79, 100, 20))

	assert.False(t, tr.Observe(50, 100, 20))
	assert.Equal(t, Idle, tr.State())
	assert.True(t, tr.Observe(80, 100, 20))

	tr.Reset()
	assert.Equal(t, Idle, tr.State())
	assert.True(t, tr.Observe(80, 100, 20))
}

func TestTrigger_ShortContentIsNearEnd(t *testing.T) {
	tr := NewTrigger(1)
	assert.True(t, tr.Observe(0, 10, 40))
}

func TestFilterPanel(t *testing.T) {
	var p FilterPanel
	assert.ErrorIs(t, p.Toggle(options.Order, "latest"), ErrPanelClosed)

	committed := query.FilterSet{options.Order: "popular"}
	p.Open(committed)
	require.True(t, p.IsOpen())

	require.NoError(t, p.Toggle(options.Order, "latest"))
	require.NoError(t, p.Toggle(options.Color, "red"))
	assert.Equal(t, "popular", committed[options.Order], "draft edits never touch the committed set")
	assert.True(t, p.Selected(options.Order, "latest"))

	// Toggling the selected value removes the key.
	require.NoError(t, p.Toggle(options.Color, "red"))
	assert.False(t, p.Draft().Has(options.Color))

	err := p.Toggle(options.Color, "chartreuse")
	assert.ErrorContains(t, err, "invalid color")
	assert.Equal(t, query.FilterSet{options.Order: "latest"}, p.Draft())

	p.Clear()
	assert.Equal(t, 0, p.Draft().Len())

	p.Dismiss()
	assert.False(t, p.IsOpen())
	assert.Equal(t, 0, p.Draft().Len())
}

func TestDebouncer(t *testing.T) {
	var d Debouncer
	_, ok := d.Flush()
	assert.False(t, ok)

	t1 := d.Schedule("c")
	t2 := d.Schedule("ca")
	t3 := d.Schedule("cat")

	_, ok = d.Fire(t1)
	assert.False(t, ok)
	_, ok = d.Fire(t2)
	assert.False(t, ok)

	v, ok := d.Fire(t3)
	require.True(t, ok)
	assert.Equal(t, "cat", v)

	_, ok = d.Fire(t3)
	assert.False(t, ok, "a token fires once")

	t4 := d.Schedule("dog")
	v, ok = d.Flush()
	require.True(t, ok)
	assert.Equal(t, "dog", v)
	_, ok = d.Fire(t4)
	assert.False(t, ok, "flush cancels the timer")

	t5 := d.Schedule("x")
	d.Cancel()
	assert.False(t, d.Pending())
	_, ok = d.Fire(t5)
	assert.False(t, ok)
}

func TestCoordinator_Outcomes(t *testing.T) {
	src := &fakeSource{pages: map[int][]storage.Image{1: images("a"), 2: {}}, totalHits: 1}
	listener := &recordingListener{}
	coord := NewCoordinator(src, listener)
	store := NewStore()

	res := coord.FetchPage(context.Background(), store, query.Build("", "", nil, 1), true)
	assert.Equal(t, OutcomeSuccess, res.Outcome)
	assert.Equal(t, []string{"a"}, ids(store.Items()))
	require.Len(t, listener.got, 1)

	res = coord.FetchPage(context.Background(), store, query.Build("", "", nil, 2), true)
	assert.Equal(t, OutcomeEmpty, res.Outcome, "decodable page with no hits")

	res = coord.FetchPage(context.Background(), store, query.Build("", "", nil, 3), true)
	assert.Equal(t, OutcomeEmpty, res.Outcome, "out of range reply")
	assert.NoError(t, res.Err)

	src.err = &pixabay.StatusError{Code: 500}
	res = coord.FetchPage(context.Background(), store, query.Build("", "", nil, 1), false)
	assert.Equal(t, OutcomeFailure, res.Outcome)
	var se *pixabay.StatusError
	assert.True(t, errors.As(res.Err, &se))

	assert.Equal(t, []string{"a"}, ids(store.Items()), "only success changes the store")
	assert.Len(t, listener.got, 1)
	assert.Len(t, src.calls, 4, "one request per fetch, no retries")
}

func TestCoordinator_FetchDoesNotTouchStore(t *testing.T) {
	src := &fakeSource{pages: map[int][]storage.Image{1: images("a", "b")}}
	coord := NewCoordinator(src)
	store := NewStore()
	store.Append(images("x"))

	res := coord.Fetch(context.Background(), Request{Params: query.Build("", "", nil, 1)})
	assert.Equal(t, []string{"x"}, ids(store.Items()))

	assert.True(t, coord.Apply(store, res))
	assert.Equal(t, []string{"a", "b"}, ids(store.Items()), "replace mode")
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "empty", OutcomeEmpty.String())
	assert.Equal(t, "failure", OutcomeFailure.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}

// run executes req synchronously the way the TUI does off-loop.
func run(t *testing.T, c *Controller, req *Request) {
	t.Helper()
	require.NotNil(t, req)
	c.Reconcile(c.Coordinator().Fetch(context.Background(), *req))
}

func newTestController(src *fakeSource) *Controller {
	return NewController(NewCoordinator(src), DefaultSettings())
}

func pagedSource() *fakeSource {
	pages := map[int][]storage.Image{}
	for p := 1; p <= 4; p++ {
		pages[p] = images(fmt.Sprintf("p%d-1", p), fmt.Sprintf("p%d-2", p))
	}
	return &fakeSource{pages: pages, totalHits: 8}
}

func TestController_StartAppendsFirstPage(t *testing.T) {
	c := newTestController(pagedSource())
	req := c.Start()
	require.NotNil(t, req)
	assert.True(t, req.Append)
	assert.Equal(t, 1, req.Params.Page)
	assert.True(t, c.Loading())
	assert.NotEmpty(t, req.ID)

	run(t, c, req)
	assert.False(t, c.Loading())
	assert.Equal(t, []string{"p1-1", "p1-2"}, ids(c.Items()))
	assert.Equal(t, 8, c.TotalHits())
}

// Every mutation of the effective query resets to page 1 with an empty
// feed before its fetch resolves.
func TestController_MutationsResetFeed(t *testing.T) {
	mutations := map[string]func(t *testing.T, c *Controller) *Request{
		"search":        func(_ *testing.T, c *Controller) *Request { return c.SetSearch("cat") },
		"clear search":  func(_ *testing.T, c *Controller) *Request { return c.SetSearch("") },
		"category":      func(_ *testing.T, c *Controller) *Request { return c.SelectCategory("nature") },
		"reset filters": func(_ *testing.T, c *Controller) *Request { return c.ResetFilters() },
		"apply filters": func(t *testing.T, c *Controller) *Request {
			c.OpenFilters()
			require.NoError(t, c.ToggleFilter(options.Order, "latest"))
			return c.ApplyFilters()
		},
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			c := newTestController(pagedSource())
			run(t, c, c.Start())
			run(t, c, c.Scroll(100, 100, 20))
			require.Equal(t, 2, c.Page())
			require.Len(t, c.Items(), 4)
			gen := c.Generation()

			req := mutate(t, c)
			require.NotNil(t, req)
			assert.Equal(t, 1, req.Params.Page)
			assert.False(t, req.Append)
			assert.Empty(t, c.Items())
			assert.Equal(t, 1, c.Page())
			assert.Equal(t, gen+1, c.Generation())
			assert.Equal(t, Idle, c.TriggerState())
		})
	}
}

func TestController_CategoryAndSearchAreExclusive(t *testing.T) {
	c := newTestController(pagedSource())

	c.SelectCategory("animals")
	assert.True(t, c.SearchCleared())
	assert.False(t, c.SearchCleared(), "reported once")

	req := c.SetSearch("cat")
	assert.Equal(t, "", c.Category())
	assert.Equal(t, "cat", req.Params.Query)
	assert.Equal(t, "", req.Params.Category)

	req = c.SelectCategory("nature")
	assert.Equal(t, "", c.Search())
	assert.Equal(t, "", req.Params.Query)
	assert.Equal(t, "nature", req.Params.Category)
}

func TestController_ShortSearchIsNotCommitted(t *testing.T) {
	c := newTestController(pagedSource())
	c.SelectCategory("music")

	assert.Nil(t, c.SetSearch("c"))
	assert.Nil(t, c.SetSearch("ca"))
	assert.Equal(t, "", c.Search())
	assert.Equal(t, "music", c.Category(), "uncommitted text leaves the category alone")

	req := c.Scroll(100, 100, 20)
	require.NotNil(t, req)
	assert.Equal(t, "", req.Params.Query, "later pages never carry uncommitted text")

	// Multi-byte runes count as one character each.
	assert.NotNil(t, c.SetSearch("猫猫猫"))
}

func TestController_ScrollFiresOncePastThreshold(t *testing.T) {
	src := pagedSource()
	c := newTestController(src)
	run(t, c, c.Start())

	var reqs []*Request
	for i := 0; i < 10; i++ {
		if r := c.Scroll(80+i, 100, 20); r != nil {
			reqs = append(reqs, r)
		}
	}
	require.Len(t, reqs, 1)
	assert.Equal(t, 2, reqs[0].Params.Page)
	assert.True(t, reqs[0].Append)
}

func TestController_ClearFilter(t *testing.T) {
	c := newTestController(pagedSource())
	c.OpenFilters()
	require.NoError(t, c.ToggleFilter(options.Order, "latest"))
	require.NoError(t, c.ToggleFilter(options.Color, "red"))
	require.NoError(t, c.ToggleFilter(options.Orientation, "vertical"))
	run(t, c, c.ApplyFilters())
	require.Equal(t, 3, c.Filters().Len())

	req := c.ClearFilter(options.Color)
	require.NotNil(t, req)
	assert.False(t, req.Append)
	assert.Equal(t, 2, c.Filters().Len())
	assert.False(t, c.Filters().Has(options.Color))
	assert.False(t, req.Params.Filters.Has(options.Color))
	assert.Equal(t, "latest", req.Params.Filter(options.Order))

	gen := c.Generation()
	assert.Nil(t, c.ClearFilter(options.Type), "absent key")
	assert.Equal(t, gen, c.Generation())
}

func TestController_DismissDiscardsDraft(t *testing.T) {
	c := newTestController(pagedSource())
	c.OpenFilters()
	require.NoError(t, c.ToggleFilter(options.Type, "vector"))
	c.DismissFilters()

	assert.Equal(t, 0, c.Filters().Len())
	c.OpenFilters()
	assert.Equal(t, 0, c.Panel().Draft().Len())
}

func TestController_ResetFiltersClearsCommitted(t *testing.T) {
	c := newTestController(pagedSource())
	c.OpenFilters()
	require.NoError(t, c.ToggleFilter(options.Type, "photo"))
	c.ApplyFilters()

	c.OpenFilters()
	req := c.ResetFilters()
	assert.Equal(t, 0, c.Filters().Len())
	assert.Equal(t, 0, req.Params.Filters.Len())
	assert.False(t, c.Panel().IsOpen())
}

func TestController_SearchThenCategoryParams(t *testing.T) {
	c := newTestController(pagedSource())
	c.OpenFilters()
	require.NoError(t, c.ToggleFilter(options.Order, "latest"))
	c.ApplyFilters()

	req := c.SetSearch("cat")
	assert.Equal(t, query.Params{Page: 1, Query: "cat", Filters: query.FilterSet{options.Order: "latest"}}, req.Params)

	req = c.SelectCategory("nature")
	assert.Equal(t, "", c.Search())
	assert.Equal(t, query.Params{Page: 1, Category: "nature", Filters: query.FilterSet{options.Order: "latest"}}, req.Params)
}

func TestController_NextPageAppends(t *testing.T) {
	src := &fakeSource{pages: map[int][]storage.Image{
		1: images("A", "B"),
		2: images("C", "D"),
	}, totalHits: 10}
	c := newTestController(src)
	run(t, c, c.Start())
	require.Equal(t, []string{"A", "B"}, ids(c.Items()))

	req := c.Scroll(100, 100, 20)
	require.NotNil(t, req)
	assert.Equal(t, 2, req.Params.Page)
	assert.True(t, req.Append)

	run(t, c, req)
	assert.Equal(t, []string{"A", "B", "C", "D"}, ids(c.Items()))
}

func TestController_ExhaustedStopsPaging(t *testing.T) {
	src := &fakeSource{pages: map[int][]storage.Image{1: images("A", "B")}, totalHits: 50}
	c := newTestController(src)
	run(t, c, c.Start())

	run(t, c, c.Scroll(100, 100, 20))
	assert.True(t, c.Exhausted(), "page 2 is out of range")
	assert.Equal(t, []string{"A", "B"}, ids(c.Items()))

	c.Scroll(0, 100, 20)
	assert.Nil(t, c.Scroll(100, 100, 20))
	assert.Len(t, src.calls, 2)

	c.SetSearch("dog")
	assert.False(t, c.Exhausted(), "a reset clears exhaustion")
}

func TestController_ExhaustedAtTotalHits(t *testing.T) {
	src := &fakeSource{pages: map[int][]storage.Image{1: images("A", "B")}, totalHits: 2}
	c := newTestController(src)
	run(t, c, c.Start())
	assert.True(t, c.Exhausted())
	assert.Nil(t, c.Scroll(100, 100, 20))
}

func TestController_FailedPageRollsBack(t *testing.T) {
	src := pagedSource()
	c := newTestController(src)
	run(t, c, c.Start())

	src.err = errors.New("connection reset")
	run(t, c, c.Scroll(100, 100, 20))
	assert.Equal(t, OutcomeFailure, c.LastOutcome())
	assert.Error(t, c.LastError())
	assert.Equal(t, 1, c.Page())
	assert.Len(t, c.Items(), 2)

	src.err = nil
	c.Scroll(0, 100, 20)
	req := c.Scroll(100, 100, 20)
	require.NotNil(t, req)
	assert.Equal(t, 2, req.Params.Page, "the failed page is requested again")
}

func TestController_StaleResults(t *testing.T) {
	build := func(discard bool) (*Controller, *Request) {
		src := pagedSource()
		s := DefaultSettings()
		s.DiscardStale = discard
		c := NewController(NewCoordinator(src), s)
		first := c.Start()
		return c, first
	}

	t.Run("applied by default", func(t *testing.T) {
		c, first := build(false)
		search := c.SetSearch("cat")
		assert.Greater(t, search.Seq, first.Seq)

		// The older request resolves after the reset.
		run(t, c, first)
		assert.Len(t, c.Items(), 2)
		assert.Equal(t, 0, c.TotalHits(), "stale results do not update paging state")
		assert.True(t, c.Loading())

		run(t, c, search)
		assert.Len(t, c.Items(), 2, "replace-mode result replaces")
		assert.False(t, c.Loading())
	})

	t.Run("discarded when configured", func(t *testing.T) {
		c, first := build(true)
		c.SetSearch("cat")
		run(t, c, first)
		assert.Empty(t, c.Items())
	})
}
