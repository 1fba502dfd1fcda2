package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/throwmail/internal/keys"
	"github.com/nhle/throwmail/internal/mailbox"
	"github.com/nhle/throwmail/internal/model"
	"github.com/nhle/throwmail/internal/theme"
	"github.com/nhle/throwmail/internal/ui"
	"github.com/nhle/throwmail/internal/ui/accountform"
	"github.com/nhle/throwmail/internal/ui/command"
	helpview "github.com/nhle/throwmail/internal/ui/help"
	"github.com/nhle/throwmail/internal/ui/inbox"
	"github.com/nhle/throwmail/internal/ui/message"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewCreate ViewState = iota
	ViewInbox
	ViewMessage
	ViewHelp
	ViewCommand
)

// clockInterval is how often relative timestamps are redrawn.
const clockInterval = 30 * time.Second

// Model is the root Bubble Tea model. It owns no mailbox state: every
// render reads a snapshot from the mailbox, and every user intent is
// forwarded to a mailbox operation.
type Model struct {
	ctx          context.Context
	mb           *mailbox.Mailbox
	snap         mailbox.Snapshot
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap
	inbox        inbox.Model
	message      message.Model
	form         accountform.Model
	helpView     helpview.Model
	commandView  command.Model
	notice       string
	restored     bool
	ready        bool
	now          func() time.Time
}

// New creates the root model around mb. ctx bounds every operation the
// UI starts.
func New(ctx context.Context, mb *mailbox.Mailbox, cfg *model.AppConfig) Model {
	k := keys.DefaultKeyMap()
	return Model{
		ctx:         ctx,
		mb:          mb,
		currentView: ViewCreate,
		keys:        k,
		inbox:       inbox.New(k, 80, 22),
		message:     message.New(k, 80, 22),
		form:        accountform.New(k, mb.GenerateUsername, cfg.Display.DefaultPassword, 80, 22),
		helpView:    helpview.New(k, 80, 22),
		commandView: command.New(80, 22),
		now:         time.Now,
	}
}

// Init restores the saved session, loads the domain list and subscribes
// to mailbox events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.restore(),
		m.loadDomains(),
		waitForEvent(m.mb.Events()),
		tickClock(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.Width, m.layout.ContentHeight()
		m.inbox.SetSize(w, h)
		m.message.SetSize(w, h)
		m.form.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		return m, nil

	case eventMsg:
		cmd := m.sync()
		return m, tea.Batch(cmd, waitForEvent(m.mb.Events()))

	case clockMsg:
		return m, tea.Batch(m.sync(), tickClock())

	case restoredMsg:
		m.restored = true
		cmd := m.sync()
		if m.snap.State == mailbox.Active {
			m.currentView = ViewInbox
			return m, cmd
		}
		m.currentView = ViewCreate
		return m, tea.Batch(cmd, m.form.StartCreate())

	case opDoneMsg:
		return m.handleOpDone(msg)

	case accountform.CreateMsg:
		m.notice = ""
		return m, m.createAccount(msg)

	case accountform.LoginMsg:
		m.notice = ""
		return m, m.login(msg)

	case accountform.CancelMsg:
		if m.snap.State == mailbox.Active {
			m.currentView = ViewInbox
			return m, nil
		}
		return m, m.form.Resume()

	case inbox.SelectedMsg:
		m.previousView = ViewInbox
		m.currentView = ViewMessage
		m.message.SetMessage(nil, true)
		return m, m.selectMessage(msg.ID)

	case inbox.DeleteMsg:
		return m, m.removeMessage(msg.ID)

	case message.DeleteMsg:
		return m, m.removeMessage(msg.ID)

	case message.BackMsg:
		m.mb.ClearSelection()
		m.currentView = ViewInbox
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(string(msg))

	case command.UnknownMsg:
		m.currentView = m.previousView
		m.notice = fmt.Sprintf("Unknown command %q", string(msg))
		return m, nil

	case tea.KeyMsg:
		if handled, next, cmd := m.handleGlobalKey(msg); handled {
			return next, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKey applies bindings that work outside text inputs.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.mb.Close()
		return true, m, tea.Quit
	}

	// Text entry owns the keyboard.
	if m.currentView == ViewCreate || m.currentView == ViewCommand ||
		(m.currentView == ViewInbox && m.inbox.Filtering()) {
		return false, m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return true, m, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return true, m, nil

	case m.currentView == ViewHelp && key.Matches(msg, m.keys.Back):
		m.currentView = m.previousView
		return true, m, nil

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return true, m, m.commandView.Focus()

	case key.Matches(msg, m.keys.Quit) && m.currentView == ViewInbox:
		m.mb.Close()
		return true, m, tea.Quit

	case key.Matches(msg, m.keys.Refresh):
		m.mb.TriggerRefresh()
		return true, m, nil

	case key.Matches(msg, m.keys.Copy):
		return true, m, m.copyAddress()

	case key.Matches(msg, m.keys.New):
		m.notice = ""
		m.currentView = ViewCreate
		return true, m, m.form.StartCreate()

	case key.Matches(msg, m.keys.Logout):
		return true, m, m.logout()
	}
	return false, m, nil
}

// handleOpDone reacts to the end of a mailbox operation started by the UI.
// Failures are already in the mailbox error slot.
func (m Model) handleOpDone(msg opDoneMsg) (tea.Model, tea.Cmd) {
	cmd := m.sync()
	switch msg.op {
	case opCreate, opLogin:
		if msg.err == nil {
			m.currentView = ViewInbox
			m.notice = ""
			return m, cmd
		}
		if m.currentView == ViewCreate {
			return m, tea.Batch(cmd, m.form.Resume())
		}

	case opSelect:
		if msg.err != nil && m.snap.Selected == nil && m.currentView == ViewMessage {
			m.currentView = ViewInbox
		}

	case opRemove:
		if msg.err == nil && m.currentView == ViewMessage && m.snap.Selected == nil {
			m.currentView = ViewInbox
		}

	case opCopy:
		if msg.err == nil {
			m.notice = "Address copied to clipboard"
		}

	case opLogout:
		m.notice = ""
		m.currentView = ViewCreate
		return m, tea.Batch(cmd, m.form.StartCreate())
	}
	return m, cmd
}

// sync pulls a fresh snapshot and pushes it into the views.
func (m *Model) sync() tea.Cmd {
	m.snap = m.mb.Snapshot()

	var cmds []tea.Cmd
	address := ""
	if m.snap.Account != nil {
		address = m.snap.Account.Address
	}
	cmds = append(cmds, m.inbox.SetMessages(address, m.snap.Messages, m.now()))
	cmds = append(cmds, m.form.SetDomains(m.snap.Domains))

	if m.currentView == ViewMessage {
		m.message.SetMessage(m.snap.Selected, m.snap.SelectTarget != "")
	}

	// The session ended underneath us, e.g. from the CLI or a failed
	// restore.
	if m.restored && m.snap.State == mailbox.Anonymous &&
		(m.currentView == ViewInbox || m.currentView == ViewMessage) {
		m.currentView = ViewCreate
		cmds = append(cmds, m.form.StartCreate())
	}
	return tea.Batch(cmds...)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewCreate:
		m.form, cmd = m.form.Update(msg)
	case ViewInbox:
		m.inbox, cmd = m.inbox.Update(msg)
	case ViewMessage:
		m.message, cmd = m.message.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		if k, ok := msg.(tea.KeyMsg); ok && key.Matches(k, m.keys.Back) {
			m.currentView = m.previousView
			return m, nil
		}
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.title(), m.syncStatus(), theme.SyncStyle(m.snap.Refreshing, m.snap.Error != ""))
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.snap.Error)

	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewCreate:
		return m.form.View()
	case ViewInbox:
		return m.inbox.View()
	case ViewMessage:
		return m.message.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// title returns the header text: the active address and unread count.
func (m Model) title() string {
	if m.snap.Account == nil {
		return "throwmail"
	}
	unread := 0
	for _, msg := range m.snap.Messages {
		if !msg.Seen {
			unread++
		}
	}
	if unread > 0 {
		return fmt.Sprintf("throwmail · %s [%d new]", m.snap.Account.Address, unread)
	}
	return "throwmail · " + m.snap.Account.Address
}

// syncStatus returns a short string describing the polling state.
func (m Model) syncStatus() string {
	switch {
	case m.snap.State == mailbox.Anonymous && m.snap.Creating:
		return "creating…"
	case m.snap.State == mailbox.Anonymous:
		return "no address"
	case m.snap.Refreshing:
		return "⟳ syncing"
	case m.snap.Error != "":
		return "⚠ check status"
	default:
		return "● live"
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.notice != "" {
		return m.notice
	}

	switch m.currentView {
	case ViewCreate:
		if m.snap.Creating {
			return "Creating address…"
		}
		return "enter next | ctrl+r shuffle | ctrl+l log in | esc back"
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewMessage:
		return "esc back | d delete | j/k scroll | c copy address"
	default:
		return "q quit | ? help | enter open | d delete | c copy | r refresh | n new"
	}
}

// executeCommand handles a command from the command palette.
func (m *Model) executeCommand(name string) tea.Cmd {
	switch name {
	case "refresh":
		m.mb.TriggerRefresh()
		return nil
	case "new":
		m.currentView = ViewCreate
		return m.form.StartCreate()
	case "copy":
		return m.copyAddress()
	case "logout":
		return m.logout()
	case "quit":
		m.mb.Close()
		return tea.Quit
	default:
		return nil
	}
}
