// Package query builds the request parameters for one page of image search
// results from the screen's search text, category and filters.
package query

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/pders01/pixels/internal/options"
)

// Params is the parameter set for a single page request. It is derived on
// demand and never persisted.
type Params struct {
	Page     int
	Query    string
	Category string
	Filters  FilterSet
}

// Build merges search text, category and filters into the parameters for
// page. Query is set only for non-empty search text and Category only for a
// non-empty category; filters are copied verbatim without validation.
func Build(search, category string, filters FilterSet, page int) Params {
	if page < 1 {
		page = 1
	}
	p := Params{
		Page:    page,
		Filters: filters.Clone(),
	}
	if len(search) > 0 {
		p.Query = search
	}
	if category != "" {
		p.Category = category
	}
	return p
}

// WithPage returns a copy of p for another page.
func (p Params) WithPage(page int) Params {
	return Build(p.Query, p.Category, p.Filters, page)
}

// Values encodes p using the search API's parameter names.
func (p Params) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(p.Page))
	if p.Query != "" {
		v.Set("q", p.Query)
	}
	if p.Category != "" {
		v.Set("category", p.Category)
	}
	for _, k := range p.Filters.SortedKeys() {
		v.Set(k.Param(), p.Filters[k])
	}
	return v
}

// CacheKey is a canonical form of p; equal parameter sets produce equal keys
// regardless of map iteration order.
func (p Params) CacheKey() string {
	return p.Values().Encode()
}

// String renders p for logs and the status bar.
func (p Params) String() string {
	parts := []string{"page=" + strconv.Itoa(p.Page)}
	if p.Query != "" {
		parts = append(parts, "q="+strconv.Quote(p.Query))
	}
	if p.Category != "" {
		parts = append(parts, "category="+p.Category)
	}
	for _, k := range p.Filters.SortedKeys() {
		parts = append(parts, string(k)+"="+p.Filters[k])
	}
	return strings.Join(parts, " ")
}

// Filter returns the value for key, if set.
func (p Params) Filter(key options.FilterKey) string {
	return p.Filters[key]
}
