package message

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/throwmail/internal/keys"
	"github.com/nhle/throwmail/internal/model"
	"github.com/nhle/throwmail/internal/render"
	"github.com/nhle/throwmail/internal/theme"
)

// BackMsg signals the parent to return to the inbox.
type BackMsg struct{}

// DeleteMsg asks the parent to delete the open message.
type DeleteMsg struct {
	ID string
}

// Model is the message view component.
type Model struct {
	msg      *model.MessageDetails
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
	loading  bool
}

// New creates a new message view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// SetMessage shows d. While loading is true and d is nil, a loading
// placeholder is shown instead. The scroll position resets only when a
// different message is shown.
func (m *Model) SetMessage(d *model.MessageDetails, loading bool) {
	m.loading = loading && d == nil
	changed := d == nil || m.msg == nil || m.msg.ID != d.ID
	m.msg = d
	if d == nil {
		return
	}
	m.viewport.SetContent(m.renderContent())
	if changed {
		m.viewport.GotoTop()
	}
}

// ID returns the id of the message shown, if any.
func (m Model) ID() string {
	if m.msg == nil {
		return ""
	}
	return m.msg.ID
}

// Update handles messages for the message view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.Delete):
			if m.msg != nil {
				id := m.msg.ID
				return m, func() tea.Msg { return DeleteMsg{ID: id} }
			}
			return m, nil
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the message view.
func (m Model) View() string {
	placeholder := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.loading {
		return placeholder.Render("Loading message…")
	}
	if m.msg == nil {
		return placeholder.Render("No message selected")
	}
	return m.viewport.View()
}

// renderContent builds the header block and body for the viewport.
func (m Model) renderContent() string {
	d := m.msg
	var b strings.Builder

	b.WriteString(theme.SubjectStyle.Render(subject(d.Subject)))
	b.WriteString("\n\n")

	field := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(theme.LabelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}
	field("From", d.From.String())
	field("To", d.Recipients())
	field("Cc", joinAddresses(d.CC))
	field("Date", render.Stamp(d.CreatedAt))
	if d.Size > 0 {
		field("Size", render.Size(d.Size))
	}

	if len(d.Attachments) > 0 {
		names := make([]string, len(d.Attachments))
		for i, a := range d.Attachments {
			names[i] = fmt.Sprintf("%s (%s)", a.Filename, render.Size(a.Size))
		}
		field("Files", strings.Join(names, ", "))
	}

	width := m.width - 2
	if width < 20 {
		width = 20
	}
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorSubtle).Render(strings.Repeat("─", width)))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Width(width).Render(render.Body(d)))
	return b.String()
}

func subject(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(no subject)"
	}
	return s
}

func joinAddresses(addrs []model.Address) string {
	parts := make([]string, len(addrs))
	for i, a := range addrs {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	if m.msg != nil {
		m.viewport.SetContent(m.renderContent())
	}
}
