package query

import (
	"sort"

	"github.com/pders01/pixels/internal/options"
)

// FilterSet maps a filter key to its selected value. An absent key means
// no constraint on that dimension.
type FilterSet map[options.FilterKey]string

// Clone returns an independent copy. Cloning a nil set yields an empty set.
func (f FilterSet) Clone() FilterSet {
	out := make(FilterSet, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

func (f FilterSet) Get(key options.FilterKey) (string, bool) {
	v, ok := f[key]
	return v, ok
}

func (f FilterSet) Has(key options.FilterKey) bool {
	_, ok := f[key]
	return ok
}

// Set assigns value to key. An empty value removes the key.
func (f FilterSet) Set(key options.FilterKey, value string) {
	if value == "" {
		delete(f, key)
		return
	}
	f[key] = value
}

// Delete removes key and reports whether it was present.
func (f FilterSet) Delete(key options.FilterKey) bool {
	if _, ok := f[key]; !ok {
		return false
	}
	delete(f, key)
	return true
}

func (f FilterSet) Len() int { return len(f) }

// SortedKeys returns the present keys in the panel's display order, with
// unknown keys sorted alphabetically after the known ones.
func (f FilterSet) SortedKeys() []options.FilterKey {
	keys := make([]options.FilterKey, 0, len(f))
	for _, k := range options.Keys() {
		if f.Has(k) {
			keys = append(keys, k)
		}
	}
	var extra []options.FilterKey
	for k := range f {
		if options.Values(k) == nil {
			extra = append(extra, k)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(keys, extra...)
}

// Equal reports whether both sets hold the same keys and values.
func (f FilterSet) Equal(other FilterSet) bool {
	if len(f) != len(other) {
		return false
	}
	for k, v := range f {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}
