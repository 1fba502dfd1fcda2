package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/throwmail/internal/theme"
)

// Command describes an entry accepted by the palette.
type Command struct {
	Name string
	Help string
}

// Commands lists the palette commands in display order.
var Commands = []Command{
	{Name: "refresh", Help: "fetch the inbox now"},
	{Name: "new", Help: "create another address"},
	{Name: "copy", Help: "copy the address to the clipboard"},
	{Name: "logout", Help: "forget the current address"},
	{Name: "quit", Help: "exit"},
}

// CommandMsg is emitted when the user executes a known command.
type CommandMsg string

// UnknownMsg is emitted when the input matches no command.
type UnknownMsg string

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command..."
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	names := make([]string, len(Commands))
	for i, c := range Commands {
		names[i] = c.Name
	}
	ti.SetSuggestions(names)
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		text := strings.ToLower(strings.TrimSpace(m.input.Value()))
		m.input.Reset()
		if text == "" {
			return m, nil
		}
		name := Resolve(text)
		return m, func() tea.Msg {
			if name == "" {
				return UnknownMsg(text)
			}
			return CommandMsg(name)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// Resolve returns the command named by text, accepting any unambiguous
// prefix. It returns "" when nothing matches.
func Resolve(text string) string {
	var match string
	for _, c := range Commands {
		if c.Name == text {
			return c.Name
		}
		if strings.HasPrefix(c.Name, text) {
			if match != "" {
				return ""
			}
			match = c.Name
		}
	}
	return match
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Command Palette"),
		m.input.View(),
	)

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	m.input.Reset()
	return m.input.Focus()
}
