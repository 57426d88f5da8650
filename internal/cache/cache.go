// Package cache keeps recent search API responses in memory and on disk so
// paging back through a query, or reopening the app, does not refetch.
package cache

import (
	"errors"
	"time"

	memcache "github.com/apibillme/cache"

	"github.com/pders01/pixels/internal/debuglog"
	"github.com/pders01/pixels/internal/storage"
)

// Backend is the persistent tier. *storage.Store satisfies it.
type Backend interface {
	GetResponse(key string, now time.Time) ([]byte, error)
	PutResponse(key string, body []byte, expires time.Time) error
}

type ResponseCache struct {
	mem     memcache.Cache
	backend Backend
	ttl     time.Duration
	now     func() time.Time
}

// New returns a cache holding up to memoryEntries bodies in memory for ttl,
// backed by backend. A nil backend keeps everything in memory only.
func New(backend Backend, ttl time.Duration, memoryEntries int) *ResponseCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if memoryEntries <= 0 {
		memoryEntries = 256
	}
	return &ResponseCache{
		mem:     memcache.New(memoryEntries, memcache.WithTTL(ttl)),
		backend: backend,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the body stored under key. A disk hit is promoted to memory.
func (c *ResponseCache) Get(key string) ([]byte, bool) {
	if v, ok := c.mem.Get(key); ok {
		if body, isBytes := v.([]byte); isBytes {
			return body, true
		}
	}
	if c.backend == nil {
		return nil, false
	}
	body, err := c.backend.GetResponse(key, c.now())
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			debuglog.Warnf("cache read %q: %v", key, err)
		}
		return nil, false
	}
	c.mem.Set(key, body)
	return body, true
}

// Put stores body under key in both tiers. Disk failures are logged and do
// not fail the caller.
func (c *ResponseCache) Put(key string, body []byte) {
	c.mem.Set(key, body)
	if c.backend == nil {
		return
	}
	expires := c.now().Add(c.ttl)
	if err := retryOperation(func() error { return c.backend.PutResponse(key, body, expires) }); err != nil {
		debuglog.Warnf("cache write %q: %v", key, err)
	}
}

// retryOperation retries a database operation up to 3 times with exponential backoff
func retryOperation(operation func() error) error {
	maxRetries := 3
	baseDelay := 50 * time.Millisecond

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if err := operation(); err != nil {
			lastErr = err
			if i < maxRetries-1 {
				time.Sleep(baseDelay * time.Duration(1<<i))
			}
			continue
		}
		return nil
	}
	return lastErr
}
