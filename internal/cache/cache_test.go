package cache

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/pixels/internal/storage"
)

type flakyBackend struct {
	failures int
	puts     int
	data     map[string][]byte
}

func (f *flakyBackend) GetResponse(key string, _ time.Time) ([]byte, error) {
	if b, ok := f.data[key]; ok {
		return b, nil
	}
	return nil, storage.ErrNotFound
}

func (f *flakyBackend) PutResponse(key string, body []byte, _ time.Time) error {
	f.puts++
	if f.failures > 0 {
		f.failures--
		return errors.New("database locked")
	}
	if f.data == nil {
		f.data = map[string][]byte{}
	}
	f.data[key] = body
	return nil
}

func TestResponseCache_MemoryOnly(t *testing.T) {
	c := New(nil, time.Hour, 8)

	_, ok := c.Get("page=1")
	assert.False(t, ok)

	c.Put("page=1", []byte("body"))
	got, ok := c.Get("page=1")
	require.True(t, ok)
	assert.Equal(t, []byte("body"), got)
}

func TestResponseCache_PromotesDiskHits(t *testing.T) {
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "cache.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.PutResponse("page=2&q=dog", []byte("from disk"), time.Now().Add(time.Hour)))

	c := New(store, time.Hour, 8)
	got, ok := c.Get("page=2&q=dog")
	require.True(t, ok)
	assert.Equal(t, []byte("from disk"), got)

	// Served from memory once promoted, even after the disk copy is gone.
	require.NoError(t, store.ClearResponses())
	got, ok = c.Get("page=2&q=dog")
	require.True(t, ok)
	assert.Equal(t, []byte("from disk"), got)
}

func TestResponseCache_WritesThroughToDisk(t *testing.T) {
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "cache.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	New(store, time.Hour, 8).Put("k", []byte("v"))

	// A fresh cache has an empty memory tier.
	got, ok := New(store, time.Hour, 8).Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}

func TestResponseCache_RetriesDiskWrites(t *testing.T) {
	backend := &flakyBackend{failures: 2}
	c := New(backend, time.Hour, 8)

	c.Put("k", []byte("v"))

	assert.Equal(t, 3, backend.puts)
	assert.Equal(t, []byte("v"), backend.data["k"])
}

func TestResponseCache_GivesUpAfterThreeAttempts(t *testing.T) {
	backend := &flakyBackend{failures: 5}
	c := New(backend, time.Hour, 8)

	c.Put("k", []byte("v"))

	assert.Equal(t, 3, backend.puts)
	_, onDisk := backend.data["k"]
	assert.False(t, onDisk)

	// Still served from memory.
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}
