package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/pixels/internal/storage"
)

const (
	landscapeLines = 5
	portraitLines  = 8
	squareLines    = 6
	captionLines   = 1
)

// columnCount picks the number of grid columns for a terminal width. A
// positive override wins.
func columnCount(width, override int) int {
	if override > 0 {
		return override
	}
	switch {
	case width < 80:
		return 2
	case width < 120:
		return 3
	default:
		return 4
	}
}

// cardHeight is the number of lines one image card takes, caption included.
func cardHeight(img storage.Image) int {
	a := img.Aspect()
	switch {
	case a > 1.1:
		return landscapeLines + captionLines
	case a < 0.9:
		return portraitLines + captionLines
	default:
		return squareLines + captionLines
	}
}

type placement struct {
	index  int
	column int
	top    int
	height int
}

// masonry is a column layout where every card went to the column that was
// shortest when it was placed.
type masonry struct {
	columns [][]placement
	heights []int
	byIndex []placement
}

func layoutMasonry(images []storage.Image, cols int) masonry {
	if cols < 1 {
		cols = 1
	}
	m := masonry{
		columns: make([][]placement, cols),
		heights: make([]int, cols),
		byIndex: make([]placement, len(images)),
	}
	for i, img := range images {
		col := 0
		for c := 1; c < cols; c++ {
			if m.heights[c] < m.heights[col] {
				col = c
			}
		}
		p := placement{index: i, column: col, top: m.heights[col], height: cardHeight(img)}
		m.columns[col] = append(m.columns[col], p)
		m.heights[col] += p.height
		m.byIndex[i] = p
	}
	return m
}

func (m masonry) contentHeight() int {
	h := 0
	for _, v := range m.heights {
		h = max(h, v)
	}
	return h
}

// neighbour returns the card above (delta -1) or below (delta 1) index in
// the same column, or index itself at the column's edge.
func (m masonry) neighbour(index, delta int) int {
	if index < 0 || index >= len(m.byIndex) {
		return index
	}
	p := m.byIndex[index]
	col := m.columns[p.column]
	for pos, q := range col {
		if q.index != index {
			continue
		}
		if next := pos + delta; next >= 0 && next < len(col) {
			return col[next].index
		}
		return index
	}
	return index
}

// across returns the card in the column delta steps away whose top is
// closest to index's top.
func (m masonry) across(index, delta int) int {
	if index < 0 || index >= len(m.byIndex) || len(m.columns) < 2 {
		return index
	}
	p := m.byIndex[index]
	target := p.column + delta
	if target < 0 || target >= len(m.columns) || len(m.columns[target]) == 0 {
		return index
	}
	best := m.columns[target][0]
	for _, q := range m.columns[target] {
		if abs(q.top-p.top) < abs(best.top-p.top) {
			best = q
		}
	}
	return best.index
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// renderGrid draws the cards column by column. Each column is colWidth wide.
func renderGrid(images []storage.Image, m masonry, colWidth, selected int) string {
	cols := make([]string, len(m.columns))
	for c, column := range m.columns {
		cards := make([]string, 0, len(column))
		for _, p := range column {
			cards = append(cards, renderCard(images[p.index], p.height, colWidth, p.index == selected))
		}
		cols[c] = lipgloss.NewStyle().Width(colWidth).Render(lipgloss.JoinVertical(lipgloss.Left, cards...))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func renderCard(img storage.Image, height, width int, selected bool) string {
	style := CardStyle
	if selected {
		style = SelectedCardStyle
	}
	// The border takes two lines and two columns.
	inner := max(width-2, 1)
	bodyLines := max(height-captionLines-2, 1)

	lines := []string{
		truncateEnd(fmt.Sprintf("▣ %s %s", img.Type, dimensions(img)), inner),
	}
	for _, tag := range img.TagList() {
		if len(lines) >= bodyLines {
			break
		}
		lines = append(lines, truncateEnd("#"+tag, inner))
	}
	for len(lines) < bodyLines {
		lines = append(lines, "")
	}

	body := style.Width(inner).Render(strings.Join(lines, "\n"))
	caption := CaptionStyle.Render(truncateEnd(fmt.Sprintf("♥ %s  %s", humanCount(img.Likes), img.User), width))
	return lipgloss.JoinVertical(lipgloss.Left, body, caption)
}

func dimensions(img storage.Image) string {
	if img.Width <= 0 || img.Height <= 0 {
		return "?×?"
	}
	return fmt.Sprintf("%d×%d", img.Width, img.Height)
}
