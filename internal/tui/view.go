package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/pixels/internal/options"
)

func (a *App) View() string {
	var content string
	switch a.view {
	case ViewFilters:
		content = lipgloss.JoinVertical(lipgloss.Left, a.renderTop(), a.renderFilterPanel())
	case ViewDetail:
		content = a.renderDetailView()
	case ViewHistory:
		content = a.renderHistoryView()
	default:
		content = lipgloss.JoinVertical(lipgloss.Left, a.renderTop(), a.grid.View())
	}

	separator := SeparatorStyle.Render(strings.Repeat("─", max(a.width, 1)))
	return lipgloss.JoinVertical(lipgloss.Left, content, separator, a.renderStatusBar())
}

// renderTop is the header, search box, category strip and filter chips.
func (a *App) renderTop() string {
	subtitle := MsgResultsCount(len(a.ctrl.Items()), a.ctrl.TotalHits())
	if q := a.ctrl.Search(); q != "" {
		subtitle = fmt.Sprintf("%q • %s", q, subtitle)
	}
	return lipgloss.JoinVertical(
		lipgloss.Left,
		renderHeader(CompactLogo, subtitle, a.width),
		renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), max(a.width-6, 10)),
		a.renderCategories(),
		a.renderChips(),
	)
}

// renderCategories draws the strip scrolled so the cursor stays visible.
func (a *App) renderCategories() string {
	cats := options.Categories()
	rendered := make([]string, len(cats))
	for i, c := range cats {
		style := CategoryStyle
		switch {
		case c == a.ctrl.Category():
			style = ActiveCategory
		case i == a.categoryCursor:
			style = CategoryCursor
		}
		rendered[i] = style.Render(c)
	}

	width := a.width
	if width <= 0 {
		return strings.Join(rendered, "")
	}
	start := 0
	for start < a.categoryCursor && lipgloss.Width(strings.Join(rendered[start:a.categoryCursor+1], "")) > width-2 {
		start++
	}
	var b strings.Builder
	used := 0
	if start > 0 {
		b.WriteString(renderMuted("‹"))
		used++
	}
	for _, r := range rendered[start:] {
		w := lipgloss.Width(r)
		if used+w > width-1 {
			b.WriteString(renderMuted("›"))
			break
		}
		b.WriteString(r)
		used += w
	}
	return b.String()
}

func (a *App) renderChips() string {
	filters := a.ctrl.Filters()
	if filters.Len() == 0 {
		return renderHelp("no filters • " + a.keyHandler.keys.Filters.Help().Key + " to add")
	}
	var chips []string
	for i, k := range filters.SortedKeys() {
		v, _ := filters.Get(k)
		chips = append(chips, ChipStyle.Render(fmt.Sprintf("%d %s:%s ×", i+1, k, v)))
	}
	return strings.Join(chips, " ")
}

func (a *App) renderFilterPanel() string {
	panel := a.ctrl.Panel()
	var rows []string
	rows = append(rows, HeaderStyle.Render("› filters"), "")
	for si, k := range options.Keys() {
		label := k.Title()
		if si == a.panelSection {
			label = "▸ " + label
		} else {
			label = "  " + label
		}
		var opts []string
		for oi, v := range options.Values(k) {
			style := OptionStyle
			switch {
			case panel.Selected(k, v):
				style = SelectedOption
			case si == a.panelSection && oi == a.panelOption:
				style = FocusedOption
			}
			opts = append(opts, style.Render(v))
		}
		rows = append(rows,
			lipgloss.NewStyle().Foreground(TextColor).Bold(si == a.panelSection).Render(label),
			lipgloss.NewStyle().Width(max(a.width-4, 20)).PaddingLeft(2).Render(strings.Join(opts, " ")),
			"")
	}
	rows = append(rows, renderHelp(fmt.Sprintf("%d selected", panel.Draft().Len())))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder(), true, false, false, false).
		BorderForeground(AccentColor).
		Width(max(a.width, 20)).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a *App) renderDetailView() string {
	title := "› image"
	if a.current != nil {
		title = fmt.Sprintf("› image %s", a.current.ID)
	}
	subtitle := ""
	if a.current != nil {
		subtitle = truncateMiddle(a.current.PageURL, max(a.width-len(title)-4, 10))
	}
	header := renderHeader(title, subtitle, a.width)
	if a.detailLoading {
		return lipgloss.JoinVertical(lipgloss.Left, header,
			renderCentered(a.width, max(a.height-3, 1), a.spinner.View()+" Loading…"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, a.detail.View())
}

func (a *App) renderHistoryView() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		renderHeader("› history", "images seen in earlier searches", a.width),
		renderInputFrame(a.historyInput.View(), a.historyInput.Focused(), max(a.width-6, 10)),
		a.historyList.View(),
	)
}

func (a *App) renderStatusBar() string {
	hints := a.help.ShortHelpView(a.keyHandler.GetHelpForCurrentView())
	if a.status == "" {
		return StatusInfoStyle.Padding(0, 1).Render(hints)
	}
	status := a.statusKind.style().Render(a.status)
	if a.busy() {
		status = a.spinner.View() + " " + status
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(status + renderMuted("  │  ") + hints)
}
