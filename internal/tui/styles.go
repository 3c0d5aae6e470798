// Package tui provides the interactive terminal screens for genaiprobe.
package tui

import "github.com/charmbracelet/lipgloss"

// Tokyo Night palette
var (
	colorBorder    = lipgloss.Color("#3b4261")
	colorPrimary   = lipgloss.Color("#7aa2f7")
	colorSecondary = lipgloss.Color("#bb9af7")
	colorAccent    = lipgloss.Color("#7dcfff")
	colorSuccess   = lipgloss.Color("#9ece6a")
	colorError     = lipgloss.Color("#f7768e")
	colorText      = lipgloss.Color("#c0caf5")
	colorTextDim   = lipgloss.Color("#565f89")
	colorTextMute  = lipgloss.Color("#414868")
)

var (
	headerStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 2).
			MarginBottom(1)

	titleStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(colorTextMute).
			Italic(true)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	focusedPanelStyle = panelStyle.
				BorderForeground(colorPrimary)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true)

	menuItemStyle = lipgloss.NewStyle().
			Foreground(colorText)

	menuSelectedStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	enabledStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	disabledStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	pathStyle = lipgloss.NewStyle().
			Foreground(colorTextDim).
			Italic(true)

	feedbackStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	statusKeyStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	statusDescStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorTextDim).
			MarginTop(1)
)

type shortcut struct {
	key  string
	desc string
}

// renderStatusBar renders key hints centered across width
func renderStatusBar(width int, shortcuts []shortcut) string {
	items := make([]string, 0, len(shortcuts))
	for _, s := range shortcuts {
		items = append(items, lipgloss.JoinHorizontal(
			lipgloss.Center,
			statusKeyStyle.Render(s.key),
			statusDescStyle.Render(" "+s.desc),
		))
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Center, joinWith(items, "  │  ")...)
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(bar)
}

func joinWith(items []string, sep string) []string {
	out := make([]string, 0, 2*len(items))
	for i, item := range items {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, item)
	}
	return out
}
