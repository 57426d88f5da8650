package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/pixels/internal/config"
)

const AppName = "pixels"

var LogoLines = []string{
	"█▀▀▄ ▀ ▀▄ ▄▀ █▀▀ █   █▀▀▀",
	"█▄▄▀ █   █   █▀▀ █   ▀▀▀▄",
	"█    █ ▄▀ ▀▄ █▄▄ █▄▄ ▄▄▄█",
}

const CompactLogo = `pixels ›`

var BannerColors = []lipgloss.Color{
	lipgloss.Color("#FF6B6B"),
	lipgloss.Color("#FFA86B"),
	lipgloss.Color("#4ECDC4"),
}

var (
	PrimaryColor   = lipgloss.Color("#FF6B6B")
	SecondaryColor = lipgloss.Color("#4ECDC4")
	AccentColor    = lipgloss.Color("#95E1D3")

	BackgroundColor = lipgloss.Color("#1A1A2E")
	SurfaceColor    = lipgloss.Color("#16213E")
	TextColor       = lipgloss.Color("#EAEAEA")
	MutedColor      = lipgloss.Color("#94A3B8")

	WarnColor    = lipgloss.Color("#FFE66D")
	ErrorColor   = lipgloss.Color("#F87171")
	SuccessColor = lipgloss.Color("#4ADE80")
)

var (
	LogoStyle          lipgloss.Style
	HeaderStyle        lipgloss.Style
	HelpStyle          lipgloss.Style
	CardStyle          lipgloss.Style
	SelectedCardStyle  lipgloss.Style
	CaptionStyle       lipgloss.Style
	CategoryStyle      lipgloss.Style
	ActiveCategory     lipgloss.Style
	CategoryCursor     lipgloss.Style
	ChipStyle          lipgloss.Style
	OptionStyle        lipgloss.Style
	SelectedOption     lipgloss.Style
	FocusedOption      lipgloss.Style
	SeparatorStyle     lipgloss.Style
	StatusInfoStyle    lipgloss.Style
	StatusSuccessStyle lipgloss.Style
	StatusWarnStyle    lipgloss.Style
	StatusErrorStyle   lipgloss.Style
)

func init() { buildStyles() }

// ApplyTheme replaces the palette with the configured colors. Empty entries
// keep the built-in color.
func ApplyTheme(c config.UIColors) {
	set := func(dst *lipgloss.Color, v string) {
		if v != "" {
			*dst = lipgloss.Color(v)
		}
	}
	set(&PrimaryColor, c.Primary)
	set(&SecondaryColor, c.Secondary)
	set(&AccentColor, c.Accent)
	set(&BackgroundColor, c.Background)
	set(&SurfaceColor, c.Surface)
	set(&TextColor, c.Text)
	set(&MutedColor, c.Muted)
	set(&ErrorColor, c.Error)
	set(&SuccessColor, c.Success)
	buildStyles()
}

func buildStyles() {
	LogoStyle = lipgloss.NewStyle().Foreground(PrimaryColor).Bold(true)
	HeaderStyle = lipgloss.NewStyle().Foreground(SecondaryColor).Bold(true)
	HelpStyle = lipgloss.NewStyle().Foreground(MutedColor).Italic(true)

	CardStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Foreground(TextColor)
	SelectedCardStyle = CardStyle.BorderForeground(AccentColor).Bold(true)
	CaptionStyle = lipgloss.NewStyle().Foreground(MutedColor)

	CategoryStyle = lipgloss.NewStyle().Foreground(MutedColor).Padding(0, 1)
	ActiveCategory = lipgloss.NewStyle().
		Foreground(BackgroundColor).
		Background(SecondaryColor).
		Bold(true).
		Padding(0, 1)
	CategoryCursor = CategoryStyle.Foreground(TextColor).Underline(true)

	ChipStyle = lipgloss.NewStyle().
		Foreground(BackgroundColor).
		Background(AccentColor).
		Padding(0, 1)

	OptionStyle = lipgloss.NewStyle().Foreground(MutedColor).Padding(0, 1)
	SelectedOption = lipgloss.NewStyle().
		Foreground(BackgroundColor).
		Background(PrimaryColor).
		Bold(true).
		Padding(0, 1)
	FocusedOption = OptionStyle.Foreground(TextColor).Underline(true)

	SeparatorStyle = lipgloss.NewStyle().Foreground(MutedColor)
	StatusInfoStyle = lipgloss.NewStyle().Foreground(MutedColor)
	StatusSuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor)
	StatusWarnStyle = lipgloss.NewStyle().Foreground(WarnColor)
	StatusErrorStyle = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
}

func GetCompactBanner(message string) string {
	var colored []string
	for _, line := range LogoLines {
		colored = append(colored, LogoStyle.Render(line))
	}
	return lipgloss.JoinVertical(
		lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, colored...),
		"",
		HelpStyle.Render(message),
	)
}

// BannerText is the banner printed by `pixels version`.
func BannerText(version string) string {
	lines := append([]string(nil), LogoLines...)
	lines = append(lines, "")

	tag := "Pixabay image browser"
	if version != "" && version != "dev" {
		if version[0] != 'v' && version[0] != 'V' {
			version = "v" + version
		}
		tag = fmt.Sprintf("%s %s", tag, version)
	}
	lines = append(lines, tag)

	var colored []string
	for i, line := range lines {
		if line == "" {
			colored = append(colored, line)
			continue
		}
		style := lipgloss.NewStyle().
			Foreground(BannerColors[i%len(BannerColors)]).
			Bold(i < len(LogoLines))
		colored = append(colored, style.Render(line))
	}

	border := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(SecondaryColor).
		Padding(1, 3).
		MarginTop(1)

	return lipgloss.NewStyle().
		Width(60).
		Align(lipgloss.Center).
		Render(border.Render(lipgloss.JoinVertical(lipgloss.Center, colored...)))
}

func ShowBanner(version string) {
	fmt.Println(BannerText(version))
}
