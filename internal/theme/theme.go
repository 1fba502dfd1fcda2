package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for the top bar holding the active address.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// ErrorBarStyle replaces StatusBarStyle while an error is shown.
var ErrorBarStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FFFFFF")).
	Background(ColorRed).
	Padding(0, 1)

// PanelStyle wraps full-screen content such as the message view.
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// LabelStyle is used for header field names in the message view.
var LabelStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorGray).
	Width(9)

// SubjectStyle is used for the subject line of the open message.
var SubjectStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// EmptyStyle is used for placeholder text such as an empty inbox.
var EmptyStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true).
	Padding(1, 2)

// UnreadDot marks messages that have not been opened.
var UnreadDot = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorBlue).
	Render("●")

// SyncStyle returns the style of the sync indicator in the header.
func SyncStyle(refreshing bool, failed bool) lipgloss.Style {
	base := HeaderStyle.Bold(false)
	switch {
	case failed:
		return base.Foreground(ColorYellow)
	case refreshing:
		return base.Foreground(ColorGreen)
	default:
		return base
	}
}
