package tui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/pixels/internal/storage"
)

func TestColumnCount(t *testing.T) {
	tests := []struct {
		width, override, want int
	}{
		{0, 0, 2},
		{79, 0, 2},
		{80, 0, 3},
		{119, 0, 3},
		{120, 0, 4},
		{300, 0, 4},
		{60, 5, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, columnCount(tt.width, tt.override), "width=%d override=%d", tt.width, tt.override)
	}
}

func TestCardHeight(t *testing.T) {
	tests := map[string]struct {
		w, h int
		want int
	}{
		"landscape": {1920, 1080, landscapeLines + captionLines},
		"portrait":  {1080, 1920, portraitLines + captionLines},
		"square":    {1000, 1000, squareLines + captionLines},
		"near":      {1050, 1000, squareLines + captionLines},
		"unknown":   {0, 0, squareLines + captionLines},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, cardHeight(storage.Image{Width: tt.w, Height: tt.h}))
		})
	}
}

func sized(dims ...[2]int) []storage.Image {
	out := make([]storage.Image, len(dims))
	for i, d := range dims {
		out[i] = storage.Image{Width: d[0], Height: d[1]}
	}
	return out
}

var (
	wide = [2]int{200, 100}
	tall = [2]int{100, 200}
)

func TestLayoutMasonryShortestColumn(t *testing.T) {
	// Heights: wide 6, tall 9.
	m := layoutMasonry(sized(tall, wide, wide, wide, wide), 2)

	cols := func(c int) []int {
		var out []int
		for _, p := range m.columns[c] {
			out = append(out, p.index)
		}
		return out
	}
	// 0 -> col0 (9); 1 -> col1 (6); 2 -> col1 (12); 3 -> col0 (15); 4 -> col1 (18)
	assert.Equal(t, []int{0, 3}, cols(0))
	assert.Equal(t, []int{1, 2, 4}, cols(1))
	assert.Equal(t, []int{15, 18}, m.heights)
	assert.Equal(t, 18, m.contentHeight())

	assert.Equal(t, 9, m.byIndex[3].top)
	assert.Equal(t, 12, m.byIndex[4].top)
}

func TestLayoutMasonryEmpty(t *testing.T) {
	m := layoutMasonry(nil, 0)
	assert.Len(t, m.columns, 1)
	assert.Equal(t, 0, m.contentHeight())
	assert.Equal(t, 0, m.neighbour(0, 1))
	assert.Equal(t, 0, m.across(0, 1))
}

func TestMasonryNavigation(t *testing.T) {
	m := layoutMasonry(sized(tall, wide, wide, wide, wide), 2)

	assert.Equal(t, 3, m.neighbour(0, 1))
	assert.Equal(t, 0, m.neighbour(3, -1))
	assert.Equal(t, 3, m.neighbour(3, 1), "bottom of the column stays put")
	assert.Equal(t, 0, m.neighbour(0, -1), "top of the column stays put")
	assert.Equal(t, 2, m.neighbour(1, 1))

	// 3 starts at line 9; in column 1, card 2 starts at 6 and card 4 at 12.
	assert.Equal(t, 2, m.across(3, 1))
	assert.Equal(t, 0, m.across(1, -1))
	assert.Equal(t, 3, m.across(4, -1))
	assert.Equal(t, 4, m.across(4, 1), "no column to the right")
}

func TestRenderGridHeight(t *testing.T) {
	imgs := testImages("a", 6)
	m := layoutMasonry(imgs, 3)
	out := renderGrid(imgs, m, 30, 0)

	require.NotEmpty(t, out)
	assert.Len(t, strings.Split(out, "\n"), m.contentHeight())
	assert.Contains(t, out, "#flower")
	assert.Contains(t, out, "alice")
}

func TestDimensions(t *testing.T) {
	assert.Equal(t, "1920×1080", dimensions(storage.Image{Width: 1920, Height: 1080}))
	assert.Equal(t, "?×?", dimensions(storage.Image{}))
}
