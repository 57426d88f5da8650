package search

import (
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/pders01/pixels/internal/storage"
)

// MemoryEngine scores images held in memory without an index. It backs the
// history view when the bleve index cannot be opened, for example when
// another pixels process holds its lock.
type MemoryEngine struct {
	mu     sync.RWMutex
	images map[string]storage.Image
	order  []string
}

func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{images: make(map[string]storage.Image)}
}

// Index stores images by ID; a repeated ID replaces the earlier record.
func (e *MemoryEngine) Index(images []storage.Image) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, img := range images {
		if _, seen := e.images[img.ID]; !seen {
			e.order = append(e.order, img.ID)
		}
		e.images[img.ID] = img
	}
	return nil
}

func (e *MemoryEngine) OnImagesFetched(images []storage.Image) {
	_ = e.Index(images)
}

func (e *MemoryEngine) DocCount() (int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.images), nil
}

func (e *MemoryEngine) Close() error { return nil }

type scored struct {
	img   storage.Image
	score float64
	seq   int
}

// Search ranks images by tag matches (weight 3) and user matches (weight 1).
func (e *MemoryEngine) Search(query string, limit int) ([]storage.Image, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []storage.Image{}, nil
	}
	terms := tokenize(query)
	if len(terms) == 0 {
		return []storage.Image{}, nil
	}

	e.mu.RLock()
	var results []scored
	for i, id := range e.order {
		img := e.images[id]
		score := scoreField(img.Tags, terms, 3.0) + scoreField(img.User, terms, 1.0)
		if score > 0 {
			results = append(results, scored{img: img, score: score, seq: i})
		}
	}
	e.mu.RUnlock()

	// Highest score first; ties keep the order images were seen in.
	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].seq < results[j].seq
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	out := make([]storage.Image, 0, len(results))
	for _, r := range results {
		out = append(out, r.img)
	}
	return out, nil
}

// scoreField calculates relevance score for a field
func scoreField(text string, terms []string, weight float64) float64 {
	if text == "" {
		return 0
	}

	lower := strings.ToLower(text)
	words := tokenize(text)
	if len(words) == 0 {
		return 0
	}

	var score float64
	matchedTerms := 0

	for _, term := range terms {
		if strings.Contains(lower, term) {
			score += 2.0
			matchedTerms++
		}

		for _, word := range words {
			switch {
			case word == term:
				score += 1.5
				matchedTerms++
			case strings.HasPrefix(word, term):
				score += 1.0
				matchedTerms++
			}
		}
	}
	if matchedTerms == 0 {
		return 0
	}

	// Boost score if multiple terms match
	if len(terms) > 1 && matchedTerms > 1 {
		score *= 1.0 + float64(matchedTerms)/float64(len(terms))
	}

	tf := float64(matchedTerms) / float64(len(words))
	score *= 1.0 + math.Log(1.0+tf)

	return score * weight
}

// tokenize breaks text into lower-case searchable terms
func tokenize(text string) []string {
	var terms []string
	current := strings.Builder{}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else if current.Len() > 0 {
			if term := current.String(); len(term) > 1 {
				terms = append(terms, term)
			}
			current.Reset()
		}
	}

	if current.Len() > 1 {
		terms = append(terms, current.String())
	}

	return terms
}
