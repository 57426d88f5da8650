package storage

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/andybalholm/brotli"
	bolt "go.etcd.io/bbolt"
)

var responsesBucket = []byte("responses")

// ErrNotFound is returned when no unexpired entry exists for a key.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *bolt.DB
}

func NewStore(dbPath string, timeout time.Duration) (*Store, error) {
	if timeout <= 0 {
		timeout = 1 * time.Second
	}
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(responsesBucket)
		return createErr
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// PutResponse stores body under key until expires. The body is brotli
// compressed on disk.
func (s *Store) PutResponse(key string, body []byte, expires time.Time) error {
	compressed, err := compress(body)
	if err != nil {
		return fmt.Errorf("compressing response: %w", err)
	}
	entry := CachedResponse{
		Key:      key,
		Body:     compressed,
		StoredAt: time.Now(),
		Expires:  expires,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(responsesBucket).Put(hashKey(key), data)
	})
}

// GetResponse returns the decompressed body for key when it has not expired
// at now. Expired entries are reported as ErrNotFound and left for
// PurgeExpired.
func (s *Store) GetResponse(key string, now time.Time) ([]byte, error) {
	var entry CachedResponse
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(responsesBucket).Get(hashKey(key))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return nil, err
	}
	if !entry.Expires.After(now) {
		return nil, ErrNotFound
	}
	body, err := decompress(entry.Body)
	if err != nil {
		return nil, fmt.Errorf("decompressing response: %w", err)
	}
	return body, nil
}

// PurgeExpired deletes every entry that expired at or before now and returns
// how many were removed. Undecodable entries are removed too.
func (s *Store) PurgeExpired(now time.Time) (int, error) {
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(responsesBucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var entry CachedResponse
			if err := json.Unmarshal(v, &entry); err == nil && entry.Expires.After(now) {
				continue
			}
			if err := c.Delete(); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}

// ClearResponses drops all cached responses.
func (s *Store) ClearResponses() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(responsesBucket); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(responsesBucket)
		return err
	})
}

// CountResponses returns the number of stored entries, expired ones included.
func (s *Store) CountResponses() (int, error) {
	n := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(responsesBucket).ForEach(func(_, _ []byte) error {
			n++
			return nil
		})
	})
	return n, err
}

func hashKey(key string) []byte {
	sum := sha256.Sum256([]byte(key))
	return []byte(hex.EncodeToString(sum[:]))
}

func compress(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, brotli.DefaultCompression)
	if _, err := w.Write(body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	return io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
}
