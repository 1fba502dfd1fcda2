package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/throwmail/internal/theme"
)

// Layout manages the terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	h := l.Height - l.HeaderHeight - l.StatusBarHeight
	if h < 0 {
		return 0
	}
	return h
}

// RenderHeader renders the top bar with the address on the left and the
// sync indicator on the right.
func (l Layout) RenderHeader(title string, sync string, syncStyle lipgloss.Style) string {
	titleRendered := theme.HeaderStyle.Render(title)
	syncRendered := syncStyle.Render(sync)
	return l.fill(theme.HeaderStyle, titleRendered, syncRendered)
}

// RenderStatusBar renders the bottom bar. An error replaces the hints and
// is drawn in the error style.
func (l Layout) RenderStatusBar(hints string, errMsg string) string {
	if errMsg != "" {
		return l.fill(theme.ErrorBarStyle, theme.ErrorBarStyle.Render("✗ "+errMsg), "")
	}
	return l.fill(theme.StatusBarStyle, theme.StatusBarStyle.Render(hints), "")
}

// fill pads the space between left and right with the background of style
// so the bar spans the full width.
func (l Layout) fill(style lipgloss.Style, left, right string) string {
	gap := l.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")
	return lipgloss.JoinHorizontal(lipgloss.Top, left, filler, right)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, and status bar.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	content = lipgloss.NewStyle().
		Height(l.ContentHeight()).
		MaxHeight(l.ContentHeight()).
		Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}
