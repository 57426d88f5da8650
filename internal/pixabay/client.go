// Package pixabay is a small client for the Pixabay image search API.
package pixabay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pders01/pixels/internal/query"
	"github.com/pders01/pixels/internal/storage"
)

const DefaultBaseURL = "https://pixabay.com/api/"

// ErrPageOutOfRange is returned when the API rejects a page past the last
// one it will serve for a query. Callers treat it as an empty page.
var ErrPageOutOfRange = errors.New("page is out of valid range")

// StatusError is a non-2xx reply other than the out-of-range one.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("search failed with status %d", e.Code)
	}
	return fmt.Sprintf("search failed with status %d: %s", e.Code, e.Body)
}

// Cache stores raw 200 bodies by request key. *cache.ResponseCache
// satisfies it.
type Cache interface {
	Get(key string) ([]byte, bool)
	Put(key string, body []byte)
}

type Options struct {
	PerPage       int
	SafeSearch    bool
	EditorsChoice bool
	UserAgent     string
}

// Result is one decoded page.
type Result struct {
	Total     int
	TotalHits int
	Images    []storage.Image
}

type Client struct {
	baseURL string
	key     string
	opts    Options
	http    *http.Client
	cache   Cache
}

func NewClient(baseURL, key string, opts Options, httpClient *http.Client, cache Cache) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.PerPage <= 0 {
		opts.PerPage = 25
	}
	return &Client{
		baseURL: baseURL,
		key:     key,
		opts:    opts,
		http:    httpClient,
		cache:   cache,
	}
}

type searchResponse struct {
	Total     int   `json:"total"`
	TotalHits int   `json:"totalHits"`
	Hits      []hit `json:"hits"`
}

type hit struct {
	ID            int64  `json:"id"`
	PageURL       string `json:"pageURL"`
	Type          string `json:"type"`
	Tags          string `json:"tags"`
	PreviewURL    string `json:"previewURL"`
	WebformatURL  string `json:"webformatURL"`
	LargeImageURL string `json:"largeImageURL"`
	ImageWidth    int    `json:"imageWidth"`
	ImageHeight   int    `json:"imageHeight"`
	Views         int    `json:"views"`
	Downloads     int    `json:"downloads"`
	Likes         int    `json:"likes"`
	User          string `json:"user"`
}

func (h hit) image() storage.Image {
	return storage.Image{
		ID:            strconv.FormatInt(h.ID, 10),
		PageURL:       h.PageURL,
		Type:          h.Type,
		Tags:          h.Tags,
		PreviewURL:    h.PreviewURL,
		WebformatURL:  h.WebformatURL,
		LargeImageURL: h.LargeImageURL,
		Width:         h.ImageWidth,
		Height:        h.ImageHeight,
		Views:         h.Views,
		Downloads:     h.Downloads,
		Likes:         h.Likes,
		User:          h.User,
	}
}

// Search requests one page of results for p. A cached body for the same
// parameters is decoded without touching the network.
func (c *Client) Search(ctx context.Context, p query.Params) (*Result, error) {
	cacheKey := c.cacheKey(p)
	if c.cache != nil {
		if body, ok := c.cache.Get(cacheKey); ok {
			if res, err := decode(body); err == nil {
				return res, nil
			}
		}
	}

	req, err := c.newRequest(ctx, p)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(excerpt))
		if resp.StatusCode == http.StatusBadRequest && strings.Contains(msg, "out of valid range") {
			return nil, ErrPageOutOfRange
		}
		return nil, &StatusError{Code: resp.StatusCode, Body: msg}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading search response: %w", err)
	}
	res, err := decode(body)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.Put(cacheKey, body)
	}
	return res, nil
}

func decode(body []byte) (*Result, error) {
	var sr searchResponse
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	res := &Result{
		Total:     sr.Total,
		TotalHits: sr.TotalHits,
		Images:    make([]storage.Image, 0, len(sr.Hits)),
	}
	for _, h := range sr.Hits {
		res.Images = append(res.Images, h.image())
	}
	return res, nil
}

func (c *Client) newRequest(ctx context.Context, p query.Params) (*http.Request, error) {
	q := p.Values()
	q.Set("key", c.key)
	q.Set("per_page", strconv.Itoa(c.opts.PerPage))
	q.Set("safesearch", strconv.FormatBool(c.opts.SafeSearch))
	q.Set("editors_choice", strconv.FormatBool(c.opts.EditorsChoice))

	sep := "?"
	if strings.Contains(c.baseURL, "?") {
		sep = "&"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+sep+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}
	return req, nil
}

// cacheKey extends the parameter key with the client options that change
// the reply, so per_page or safesearch edits never serve stale pages. The
// API key is left out.
func (c *Client) cacheKey(p query.Params) string {
	return fmt.Sprintf("%s&per_page=%d&safesearch=%t&editors_choice=%t",
		p.CacheKey(), c.opts.PerPage, c.opts.SafeSearch, c.opts.EditorsChoice)
}
