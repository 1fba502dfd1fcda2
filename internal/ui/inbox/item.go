package inbox

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/throwmail/internal/model"
	"github.com/nhle/throwmail/internal/render"
	"github.com/nhle/throwmail/internal/theme"
)

// MessageItem wraps a model.Message so it can be used in a bubbles/list.
type MessageItem struct {
	Message model.Message
	Now     time.Time
}

// FilterValue returns the string used for fuzzy filtering.
func (i MessageItem) FilterValue() string {
	return i.Message.Subject + " " + i.Message.From.String()
}

// Title returns the subject, or a placeholder for messages without one.
func (i MessageItem) Title() string {
	if s := strings.TrimSpace(i.Message.Subject); s != "" {
		return s
	}
	return "(no subject)"
}

// Description returns the sender and the age of the message.
func (i MessageItem) Description() string {
	return fmt.Sprintf("%s · %s", sender(i.Message.From), render.Since(i.Message.CreatedAt, i.Now))
}

func sender(a model.Address) string {
	if a.Name != "" {
		return a.Name
	}
	return a.Address
}

// ItemDelegate renders a message as a two-line entry: sender, subject and
// age on the first line, the intro on the second.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 2 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 1 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single list item.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	mi, ok := item.(MessageItem)
	if !ok {
		return
	}
	width := m.Width()
	isSelected := index == m.Index()

	marker := " "
	if !mi.Message.Seen {
		marker = theme.UnreadDot
	}

	from := lipgloss.NewStyle().Width(24).MaxWidth(24).Render(truncate(sender(mi.Message.From), 23))
	age := theme.HelpStyle.Render(render.Since(mi.Message.CreatedAt, mi.Now))
	attach := ""
	if mi.Message.HasAttachments {
		attach = " 📎"
	}

	subjectWidth := width - lipgloss.Width(from) - lipgloss.Width(age) - 8
	subjectStyle := lipgloss.NewStyle()
	if !mi.Message.Seen {
		subjectStyle = subjectStyle.Bold(true)
	}
	subject := subjectStyle.Render(truncate(mi.Title(), subjectWidth) + attach)

	first := fmt.Sprintf("%s %s %s  %s", marker, from, subject, age)
	second := "  " + theme.HelpStyle.Render(truncate(mi.Message.Intro, width-6))

	lineStyle := lipgloss.NewStyle().PaddingLeft(1)
	if isSelected {
		lineStyle = lipgloss.NewStyle().
			Foreground(theme.ColorBlue).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(theme.ColorBlue)
	}
	fmt.Fprint(w, lineStyle.Render(first+"\n"+second))
}

// truncate shortens s to at most n runes, ending with an ellipsis when cut.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
