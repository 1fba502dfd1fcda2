package help

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/throwmail/internal/keys"
	"github.com/nhle/throwmail/internal/theme"
	"github.com/nhle/throwmail/internal/ui/command"
)

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	h.ShowAll = true
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay: key bindings followed by the commands
// accepted by the palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	m.help.Width = m.width - 4
	bindings := m.help.View(m.keys)

	cmds := make([]string, 0, len(command.Commands))
	for _, c := range command.Commands {
		cmds = append(cmds, lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width(10).Bold(true).Render(c.Name),
			theme.HelpStyle.Render(c.Help),
		))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Keyboard Shortcuts"),
		bindings,
		"",
		titleStyle.Render("Commands"),
		lipgloss.JoinVertical(lipgloss.Left, cmds...),
	)

	return theme.PanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
