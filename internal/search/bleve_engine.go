package search

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/pixels/internal/debuglog"
	"github.com/pders01/pixels/internal/storage"
)

type bleveEngine struct {
	idx bleve.Index
}

// storedFields are read back to rebuild an image from a hit.
var storedFields = []string{
	"tags", "user", "type", "page_url", "preview_url", "webformat_url",
	"large_image_url", "width", "height", "likes", "views", "downloads",
}

// NewBleveEngine opens the index at indexPath, creating it when missing. An
// empty path keeps the index in memory for the life of the process.
func NewBleveEngine(indexPath string) (Engine, error) {
	if indexPath == "" {
		idx, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("creating in-memory index: %w", err)
		}
		return &bleveEngine{idx: idx}, nil
	}

	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	idx, err := bleve.Open(indexPath)
	if err != nil {
		idx, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("opening index %s: %w", indexPath, err)
		}
	}
	return &bleveEngine{idx: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	tags := bleve.NewTextFieldMapping()
	tags.Analyzer = standard.Name
	tags.Store = true
	tags.IncludeTermVectors = true

	user := bleve.NewTextFieldMapping()
	user.Analyzer = standard.Name
	user.Store = true

	kind := bleve.NewTextFieldMapping()
	kind.Analyzer = keyword.Name
	kind.Store = true

	// URLs are only stored, never searched.
	stored := bleve.NewTextFieldMapping()
	stored.Index = false
	stored.Store = true

	num := bleve.NewNumericFieldMapping()
	num.Index = false
	num.Store = true

	dm.AddFieldMappingsAt("tags", tags)
	dm.AddFieldMappingsAt("user", user)
	dm.AddFieldMappingsAt("type", kind)
	for _, f := range []string{"page_url", "preview_url", "webformat_url", "large_image_url"} {
		dm.AddFieldMappingsAt(f, stored)
	}
	for _, f := range []string{"width", "height", "likes", "views", "downloads"} {
		dm.AddFieldMappingsAt(f, num)
	}

	im.DefaultMapping = dm
	return im
}

func document(img storage.Image) map[string]any {
	return map[string]any{
		"tags":            img.Tags,
		"user":            img.User,
		"type":            img.Type,
		"page_url":        img.PageURL,
		"preview_url":     img.PreviewURL,
		"webformat_url":   img.WebformatURL,
		"large_image_url": img.LargeImageURL,
		"width":           img.Width,
		"height":          img.Height,
		"likes":           img.Likes,
		"views":           img.Views,
		"downloads":       img.Downloads,
	}
}

// Index adds or replaces images in one batch.
func (b *bleveEngine) Index(images []storage.Image) error {
	if len(images) == 0 {
		return nil
	}
	batch := b.idx.NewBatch()
	for _, img := range images {
		if img.ID == "" {
			continue
		}
		if err := batch.Index(docIDForImage(img.ID), document(img)); err != nil {
			return fmt.Errorf("indexing image %s: %w", img.ID, err)
		}
	}
	return b.idx.Batch(batch)
}

// OnImagesFetched indexes a freshly fetched page.
func (b *bleveEngine) OnImagesFetched(images []storage.Image) {
	if err := b.Index(images); err != nil {
		debuglog.Warnf("search index update failed: %v", err)
	}
}

func (b *bleveEngine) Search(query string, limit int) ([]storage.Image, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []storage.Image{}, nil
	}
	if limit <= 0 {
		limit = 50
	}
	// Tokenize input and build an OR of per-term matches with boosts
	tokens := tokenize(query)
	var qs []bleveQuery.Query
	for _, tok := range tokens {
		// tags^3
		qt := bleve.NewMatchQuery(tok)
		qt.SetField("tags")
		qt.SetBoost(3.0)
		qs = append(qs, qt)
		qtp := bleve.NewPrefixQuery(tok)
		qtp.SetField("tags")
		qtp.SetBoost(2.5)
		qs = append(qs, qtp)
		// user^1
		qu := bleve.NewMatchQuery(tok)
		qu.SetField("user")
		qu.SetBoost(1.0)
		qs = append(qs, qu)
		qup := bleve.NewPrefixQuery(tok)
		qup.SetField("user")
		qup.SetBoost(0.8)
		qs = append(qs, qup)
	}
	if len(qs) == 0 {
		return []storage.Image{}, nil
	}

	q := bleve.NewDisjunctionQuery(qs...)
	srch := bleve.NewSearchRequestOptions(q, limit, 0, false)
	srch.Fields = storedFields
	res, err := b.idx.Search(srch)
	if err != nil {
		return nil, err
	}

	out := make([]storage.Image, 0, len(res.Hits))
	for _, h := range res.Hits {
		img := storage.Image{ID: strings.TrimPrefix(h.ID, "image:")}
		img.Tags = stringField(h.Fields, "tags")
		img.User = stringField(h.Fields, "user")
		img.Type = stringField(h.Fields, "type")
		img.PageURL = stringField(h.Fields, "page_url")
		img.PreviewURL = stringField(h.Fields, "preview_url")
		img.WebformatURL = stringField(h.Fields, "webformat_url")
		img.LargeImageURL = stringField(h.Fields, "large_image_url")
		img.Width = intField(h.Fields, "width")
		img.Height = intField(h.Fields, "height")
		img.Likes = intField(h.Fields, "likes")
		img.Views = intField(h.Fields, "views")
		img.Downloads = intField(h.Fields, "downloads")
		out = append(out, img)
	}
	return out, nil
}

// DocCount reports total documents in the index.
func (b *bleveEngine) DocCount() (int, error) {
	n, err := b.idx.DocCount()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (b *bleveEngine) Close() error {
	return b.idx.Close()
}

func stringField(fields map[string]any, name string) string {
	s, _ := fields[name].(string)
	return s
}

// intField reads a stored numeric field; bleve hands numbers back as float64.
func intField(fields map[string]any, name string) int {
	switch v := fields[name].(type) {
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}

func docIDForImage(id string) string { return "image:" + id }
