package storage

import (
	"strings"
	"time"
)

// Image is one search hit. Records are never modified after they are
// fetched.
type Image struct {
	ID            string `json:"id"`
	PageURL       string `json:"page_url"`
	Type          string `json:"type"`
	Tags          string `json:"tags"`
	PreviewURL    string `json:"preview_url"`
	WebformatURL  string `json:"webformat_url"`
	LargeImageURL string `json:"large_image_url"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Views         int    `json:"views"`
	Downloads     int    `json:"downloads"`
	Likes         int    `json:"likes"`
	User          string `json:"user"`
}

// Aspect returns width/height, or 1 when a dimension is unknown.
func (i Image) Aspect() float64 {
	if i.Width <= 0 || i.Height <= 0 {
		return 1
	}
	return float64(i.Width) / float64(i.Height)
}

// DisplayURL is the URL shown in the grid.
func (i Image) DisplayURL() string {
	if i.WebformatURL != "" {
		return i.WebformatURL
	}
	return i.PreviewURL
}

// TagList splits the comma separated tag string.
func (i Image) TagList() []string {
	var out []string
	for _, t := range strings.Split(i.Tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// CachedResponse is the envelope stored for a cached API response body.
type CachedResponse struct {
	Key      string    `json:"key"`
	Body     []byte    `json:"body"`
	StoredAt time.Time `json:"stored_at"`
	Expires  time.Time `json:"expires"`
}
