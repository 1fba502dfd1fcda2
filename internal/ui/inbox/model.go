package inbox

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/throwmail/internal/keys"
	"github.com/nhle/throwmail/internal/model"
	"github.com/nhle/throwmail/internal/theme"
)

// EmptyText is shown when the inbox has no messages.
const EmptyText = "No messages yet"

// SelectedMsg is sent when the user opens a message.
type SelectedMsg struct {
	ID string
}

// DeleteMsg is sent when the user asks to delete the focused message.
type DeleteMsg struct {
	ID string
}

// Model is the inbox list view. It holds no state of its own beyond the
// cursor; the messages come from the mailbox snapshot.
type Model struct {
	list    list.Model
	keys    *keys.KeyMap
	address string
	loaded  bool
	width   int
	height  int
}

// New creates a new inbox model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height)
	l.Title = "Inbox"
	l.SetShowStatusBar(true)
	l.SetStatusBarItemName("message", "messages")
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.DisableQuitKeybindings()
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		keys:   k,
		width:  width,
		height: height,
	}
}

// SetMessages replaces the listed messages. A nil slice means the inbox
// has not been fetched yet. The cursor stays on the same message when it
// is still present.
func (m *Model) SetMessages(address string, msgs []model.Message, now time.Time) tea.Cmd {
	m.address = address
	m.loaded = msgs != nil

	focused := m.FocusedID()
	items := make([]list.Item, len(msgs))
	cursor := 0
	for i, msg := range msgs {
		items[i] = MessageItem{Message: msg, Now: now}
		if msg.ID == focused {
			cursor = i
		}
	}
	cmd := m.list.SetItems(items)
	m.list.Select(cursor)
	return cmd
}

// FocusedID returns the id of the message under the cursor.
func (m Model) FocusedID() string {
	item, ok := m.list.SelectedItem().(MessageItem)
	if !ok {
		return ""
	}
	return item.Message.ID
}

// Filtering reports whether the filter input has focus, in which case
// global key bindings must not be applied.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// Update handles messages for the inbox view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && !m.Filtering() {
		switch {
		case key.Matches(msg, m.keys.Select):
			id := m.FocusedID()
			if id == "" {
				return m, nil
			}
			return m, func() tea.Msg { return SelectedMsg{ID: id} }

		case key.Matches(msg, m.keys.Delete):
			id := m.FocusedID()
			if id == "" {
				return m, nil
			}
			return m, func() tea.Msg { return DeleteMsg{ID: id} }
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the inbox.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

// renderEmptyState shows a placeholder while the inbox is empty.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if !m.loaded {
		return style.Render("Loading inbox…")
	}
	return style.Render(
		EmptyText + "\n\n" +
			"Mail sent to " + m.address + " will appear here.",
	)
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}
