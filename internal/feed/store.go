package feed

import "github.com/pders01/pixels/internal/storage"

// Store is the ordered list of fetched images plus the page cursor. One
// screen owns one Store; it does no de-duplication, so an image the API
// returns twice is shown twice.
type Store struct {
	items []storage.Image
	page  int
}

func NewStore() *Store {
	return &Store{page: 1}
}

// Reset clears the items and moves the cursor back to page 1.
func (s *Store) Reset() {
	s.items = nil
	s.page = 1
}

// Append adds images after the current items in arrival order.
func (s *Store) Append(images []storage.Image) {
	s.items = append(s.items, images...)
}

// Replace discards the current items.
func (s *Store) Replace(images []storage.Image) {
	s.items = append([]storage.Image(nil), images...)
}

// NextPage advances the cursor and returns the new page.
func (s *Store) NextPage() int {
	s.page++
	return s.page
}

func (s *Store) SetPage(n int) {
	if n < 1 {
		n = 1
	}
	s.page = n
}

func (s *Store) Page() int { return s.page }

func (s *Store) Len() int { return len(s.items) }

// Items returns the current images. The slice must not be modified.
func (s *Store) Items() []storage.Image { return s.items }
