// Package options holds the fixed option lists the search API accepts:
// filter keys with their valid values, and the category names.
package options

import (
	"fmt"
	"strings"
)

// FilterKey identifies one filter dimension.
type FilterKey string

const (
	Order       FilterKey = "order"
	Orientation FilterKey = "orientation"
	Type        FilterKey = "type"
	Color       FilterKey = "color"
)

var filterKeys = []FilterKey{Order, Orientation, Type, Color}

var filterValues = map[FilterKey][]string{
	Order:       {"popular", "latest"},
	Orientation: {"horizontal", "vertical"},
	Type:        {"photo", "illustration", "vector"},
	Color: {
		"red",
		"orange",
		"yellow",
		"green",
		"turquoise",
		"blue",
		"pink",
		"gray",
		"black",
		"brown",
		"white",
	},
}

var categories = []string{
	"backgrounds",
	"fashion",
	"nature",
	"science",
	"education",
	"feelings",
	"health",
	"people",
	"religion",
	"places",
	"animals",
	"industry",
	"computer",
	"food",
	"sports",
	"transportation",
	"travel",
	"buildings",
	"business",
	"music",
}

// Keys returns the filter keys in display order.
func Keys() []FilterKey {
	return append([]FilterKey(nil), filterKeys...)
}

// Values returns the valid values for key, or nil for an unknown key.
func Values(key FilterKey) []string {
	v, ok := filterValues[key]
	if !ok {
		return nil
	}
	return append([]string(nil), v...)
}

// Valid reports whether value is one of the listed values for key.
func Valid(key FilterKey, value string) bool {
	for _, v := range filterValues[key] {
		if v == value {
			return true
		}
	}
	return false
}

// Categories returns the category names in display order.
func Categories() []string {
	return append([]string(nil), categories...)
}

// IsCategory reports whether name is a known category.
func IsCategory(name string) bool {
	for _, c := range categories {
		if c == name {
			return true
		}
	}
	return false
}

// ParseKey maps a user supplied name to a FilterKey. The API parameter
// names (image_type, colors) are accepted as aliases.
func ParseKey(s string) (FilterKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "order":
		return Order, nil
	case "orientation":
		return Orientation, nil
	case "type", "image_type":
		return Type, nil
	case "color", "colors":
		return Color, nil
	}
	return "", fmt.Errorf("unknown filter %q", s)
}

// Param returns the query parameter name the search API expects for k.
func (k FilterKey) Param() string {
	switch k {
	case Type:
		return "image_type"
	case Color:
		return "colors"
	default:
		return string(k)
	}
}

// Title is the section heading used by the filter panel.
func (k FilterKey) Title() string {
	switch k {
	case Order:
		return "Order"
	case Orientation:
		return "Orientation"
	case Type:
		return "Type"
	case Color:
		return "Colors"
	default:
		return string(k)
	}
}
