package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pders01/pixels/internal/cache"
	"github.com/pders01/pixels/internal/feed"
	"github.com/pders01/pixels/internal/options"
	"github.com/pders01/pixels/internal/pixabay"
	"github.com/pders01/pixels/internal/search"
	"github.com/pders01/pixels/internal/storage"
)

const (
	totalHits = 7
	perPage   = 3
)

var (
	apiServer *httptest.Server
	apiHits   atomic.Int64
)

func TestMain(m *testing.M) {
	apiServer = httptest.NewServer(http.HandlerFunc(serveSearch))
	code := m.Run()
	apiServer.Close()
	os.Exit(code)
}

// serveSearch imitates the search API: totalHits images split into pages of
// perPage, tagged with the query's category and order so tests can see what
// was asked for.
func serveSearch(w http.ResponseWriter, r *http.Request) {
	apiHits.Add(1)
	q := r.URL.Query()
	if q.Get("key") == "" {
		http.Error(w, "[ERROR 400] Invalid or missing API key", http.StatusBadRequest)
		return
	}
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	start := (page - 1) * perPage
	if start >= totalHits {
		http.Error(w, `[ERROR 400] "page" is out of valid range.`, http.StatusBadRequest)
		return
	}

	tag := strings.Join(nonEmpty(q.Get("q"), q.Get("category"), q.Get("order")), ", ")
	var hits []string
	for i := start; i < min(start+perPage, totalHits); i++ {
		hits = append(hits, fmt.Sprintf(
			`{"id":%d,"tags":%q,"user":"carol","imageWidth":800,"imageHeight":600,"largeImageURL":"https://cdn.example.com/%d.jpg"}`,
			i+1, tag, i+1))
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"total":%d,"totalHits":%d,"hits":[%s]}`, totalHits, totalHits, strings.Join(hits, ","))
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

type stack struct {
	store  *storage.Store
	client *pixabay.Client
	engine search.Engine
	ctrl   *feed.Controller
}

func newStack(t *testing.T, dbPath string) *stack {
	t.Helper()
	store, err := storage.NewStore(dbPath, time.Second)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	engine, err := search.NewBleveEngine("")
	if err != nil {
		t.Fatalf("Failed to create index: %v", err)
	}
	t.Cleanup(func() { engine.Close() })

	client := pixabay.NewClient(apiServer.URL+"/api/", "test-key",
		pixabay.Options{PerPage: perPage, UserAgent: "pixels-integration"},
		apiServer.Client(), cache.New(store, time.Hour, 16))

	ctrl := feed.NewController(feed.NewCoordinator(client, engine), feed.Settings{
		MinSearchLength: 3,
		EndThreshold:    1,
	})
	return &stack{store: store, client: client, engine: engine, ctrl: ctrl}
}

// run fetches req synchronously and reconciles it, the way the TUI does
// across two event loop turns.
func (s *stack) run(t *testing.T, req *feed.Request) feed.Result {
	t.Helper()
	if req == nil {
		t.Fatal("expected a request")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res := s.ctrl.Coordinator().Fetch(ctx, *req)
	s.ctrl.Reconcile(res)
	return res
}

func TestInfiniteScrollUntilExhausted(t *testing.T) {
	s := newStack(t, filepath.Join(t.TempDir(), "cache.db"))

	s.run(t, s.ctrl.Start())
	if got := len(s.ctrl.Items()); got != perPage {
		t.Fatalf("Expected %d items after first page, got %d", perPage, got)
	}

	// Scroll to the end, back up, and down again for each further page.
	for !s.ctrl.Exhausted() {
		req := s.ctrl.Scroll(100, 100, 10)
		if req == nil {
			t.Fatalf("Expected a next-page request at page %d", s.ctrl.Page())
		}
		if !req.Append {
			t.Fatalf("Next-page request must append")
		}
		s.run(t, req)
		s.ctrl.Scroll(0, 100, 10)
	}

	if got := len(s.ctrl.Items()); got != totalHits {
		t.Fatalf("Expected %d items, got %d", totalHits, got)
	}
	for i, img := range s.ctrl.Items() {
		if img.ID != strconv.Itoa(i+1) {
			t.Errorf("Item %d has ID %s, pages arrived out of order", i, img.ID)
		}
	}
	if req := s.ctrl.Scroll(100, 100, 10); req != nil {
		t.Errorf("Expected no request after the feed is exhausted, got page %d", req.Params.Page)
	}

	n, err := s.engine.DocCount()
	if err != nil {
		t.Fatalf("DocCount: %v", err)
	}
	if n != totalHits {
		t.Errorf("Expected %d indexed images, got %d", totalHits, n)
	}
}

func TestSearchCategoryAndFilters(t *testing.T) {
	s := newStack(t, filepath.Join(t.TempDir(), "cache.db"))

	s.ctrl.OpenFilters()
	if err := s.ctrl.ToggleFilter(options.Order, "latest"); err != nil {
		t.Fatalf("ToggleFilter: %v", err)
	}
	s.run(t, s.ctrl.ApplyFilters())

	s.run(t, s.ctrl.SetSearch("sunset"))
	if tags := s.ctrl.Items()[0].Tags; tags != "sunset, latest" {
		t.Errorf("Expected search and order in the request, got tags %q", tags)
	}

	s.run(t, s.ctrl.SelectCategory("nature"))
	if s.ctrl.Search() != "" {
		t.Errorf("Expected category selection to clear the search, got %q", s.ctrl.Search())
	}
	if tags := s.ctrl.Items()[0].Tags; tags != "nature, latest" {
		t.Errorf("Expected category and order in the request, got tags %q", tags)
	}

	hits, err := s.engine.Search("sunset", 10)
	if err != nil {
		t.Fatalf("history search: %v", err)
	}
	if len(hits) == 0 {
		t.Error("Expected earlier search results in the history index")
	}
}

func TestResponsesAreCachedOnDisk(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")

	first := newStack(t, dbPath)
	first.run(t, first.ctrl.SetSearch("harbour"))
	cached, err := first.store.CountResponses()
	if err != nil {
		t.Fatalf("CountResponses: %v", err)
	}
	if cached != 1 {
		t.Fatalf("Expected 1 cached response, got %d", cached)
	}
	first.store.Close()

	before := apiHits.Load()
	second := newStack(t, dbPath)
	res := second.run(t, second.ctrl.SetSearch("harbour"))
	if res.Outcome != feed.OutcomeSuccess {
		t.Fatalf("Expected success from cache, got %s (%v)", res.Outcome, res.Err)
	}
	if apiHits.Load() != before {
		t.Errorf("Expected the reopened cache to answer without a request")
	}
}

func TestMissingKeyFails(t *testing.T) {
	client := pixabay.NewClient(apiServer.URL+"/api/", "", pixabay.Options{}, apiServer.Client(), nil)
	ctrl := feed.NewController(feed.NewCoordinator(client), feed.DefaultSettings())

	res := ctrl.Coordinator().Fetch(context.Background(), *ctrl.Start())
	ctrl.Reconcile(res)
	if res.Outcome != feed.OutcomeFailure {
		t.Fatalf("Expected failure, got %s", res.Outcome)
	}
	if len(ctrl.Items()) != 0 {
		t.Errorf("Expected failed fetch to leave the feed empty")
	}
	if ctrl.LastError() == nil {
		t.Errorf("Expected the error to be kept for the status bar")
	}
}
