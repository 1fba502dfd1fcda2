package accountform

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/throwmail/internal/keys"
	"github.com/nhle/throwmail/internal/theme"
)

// CreateMsg is dispatched when the create form is submitted.
type CreateMsg struct {
	Username string
	Domain   string
	Password string
}

// LoginMsg is dispatched when the login form is submitted.
type LoginMsg struct {
	Address  string
	Password string
}

// CancelMsg is dispatched when the user leaves the form.
type CancelMsg struct{}

var usernamePattern = regexp.MustCompile(`^[a-z0-9._-]+$`)

// toggleLogin switches between creating an address and logging in.
var toggleLogin = key.NewBinding(
	key.WithKeys("ctrl+l"),
	key.WithHelp("ctrl+l", "create / log in"),
)

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	username string
	domain   string
	address  string
	password string
}

// Model is the Bubble Tea model for the create-address and login forms.
type Model struct {
	form            *huh.Form
	fb              *formBindings
	keys            *keys.KeyMap
	generate        func() string
	defaultPassword string
	domains         []string
	login           bool
	width           int
	height          int
}

// New creates a form model. generate supplies random usernames.
func New(k *keys.KeyMap, generate func() string, defaultPassword string, width, height int) Model {
	return Model{
		fb:              &formBindings{},
		keys:            k,
		generate:        generate,
		defaultPassword: defaultPassword,
		width:           width,
		height:          height,
	}
}

// SetDomains sets the selectable domains. The form is rebuilt when it is
// showing and the list changed, keeping the values typed so far.
func (m *Model) SetDomains(domains []string) tea.Cmd {
	if slices.Equal(m.domains, domains) {
		return nil
	}
	m.domains = append([]string(nil), domains...)
	if m.form == nil || m.login {
		return nil
	}
	if !slices.Contains(m.domains, m.fb.domain) && len(m.domains) > 0 {
		m.fb.domain = m.domains[0]
	}
	m.form = m.buildCreateForm()
	return m.form.Init()
}

// StartCreate resets the form to create a new address with a random
// username and the default password.
func (m *Model) StartCreate() tea.Cmd {
	m.login = false
	m.fb.username = m.generate()
	m.fb.password = m.defaultPassword
	if len(m.domains) > 0 && !slices.Contains(m.domains, m.fb.domain) {
		m.fb.domain = m.domains[0]
	}
	m.form = m.buildCreateForm()
	return m.form.Init()
}

// StartLogin resets the form to log into an existing address.
func (m *Model) StartLogin() tea.Cmd {
	m.login = true
	m.fb.address = ""
	m.fb.password = ""
	m.form = m.buildLoginForm()
	return m.form.Init()
}

// Resume rebuilds the current form keeping the values entered so far,
// e.g. after a failed submit.
func (m *Model) Resume() tea.Cmd {
	if m.login {
		m.form = m.buildLoginForm()
	} else {
		m.form = m.buildCreateForm()
	}
	return m.form.Init()
}

// Update handles messages for the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return CancelMsg{} }

		case key.Matches(msg, toggleLogin):
			if m.login {
				return m, m.StartCreate()
			}
			return m, m.StartLogin()

		case key.Matches(msg, m.keys.Shuffle) && !m.login:
			m.fb.username = m.generate()
			m.form = m.buildCreateForm()
			return m, m.form.Init()
		}
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.form = nil
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// Active reports whether a form is being shown.
func (m Model) Active() bool {
	return m.form != nil
}

// View renders the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Address"
	hint := "ctrl+r random username · ctrl+l log in instead · esc back"
	if m.login {
		titleText = "Log In"
		hint = "ctrl+l create instead · esc back"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(titleText),
		m.form.View(),
		theme.HelpStyle.Render(hint),
	)

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(m.formWidth()).WithHeight(m.formHeight())
	}
}

func (m *Model) buildCreateForm() *huh.Form {
	var domainField huh.Field
	if len(m.domains) > 0 {
		opts := make([]huh.Option[string], len(m.domains))
		for i, d := range m.domains {
			opts[i] = huh.NewOption("@"+d, d)
		}
		domainField = huh.NewSelect[string]().
			Title("Domain").
			Options(opts...).
			Value(&m.fb.domain)
	} else {
		domainField = huh.NewInput().
			Title("Domain").
			Placeholder("loading domains…").
			Value(&m.fb.domain).
			Validate(validateRequired("Domain"))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&m.fb.username).
				Validate(validateUsername),
			domainField,
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(validatePassword),
		),
	).WithShowHelp(false).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m *Model) buildLoginForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Address").
				Placeholder("name@domain").
				Value(&m.fb.address).
				Validate(validateAddress),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(validatePassword),
		),
	).WithShowHelp(false).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) handleSubmit() tea.Cmd {
	if m.login {
		msg := LoginMsg{
			Address:  strings.TrimSpace(m.fb.address),
			Password: m.fb.password,
		}
		return func() tea.Msg { return msg }
	}
	msg := CreateMsg{
		Username: strings.ToLower(strings.TrimSpace(m.fb.username)),
		Domain:   strings.TrimSpace(m.fb.domain),
		Password: m.fb.password,
	}
	return func() tea.Msg { return msg }
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 80 {
		w = 80
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 6
	if h < 10 {
		h = 10
	}
	return h
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateUsername(s string) error {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return fmt.Errorf("Username is required")
	}
	if !usernamePattern.MatchString(s) {
		return fmt.Errorf("use letters, digits, dots, dashes or underscores")
	}
	return nil
}

func validateAddress(s string) error {
	s = strings.TrimSpace(s)
	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return fmt.Errorf("enter a full address like name@domain")
	}
	return nil
}

func validatePassword(s string) error {
	if len(s) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	return nil
}
