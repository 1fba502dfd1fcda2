package app

import (
	"context"
	"testing"
	"time"

	"github.com/99designs/keyring"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/throwmail/internal/gateway"
	"github.com/nhle/throwmail/internal/gateway/gatewaytest"
	"github.com/nhle/throwmail/internal/mailbox"
	"github.com/nhle/throwmail/internal/model"
	"github.com/nhle/throwmail/internal/session"
	"github.com/nhle/throwmail/internal/ui/command"
	"github.com/nhle/throwmail/internal/ui/inbox"
	"github.com/nhle/throwmail/internal/ui/message"
)

const testAddr = "brightfox421@mailtm.example"

func newTestModel(t *testing.T) (Model, *mailbox.Mailbox, *gatewaytest.Server) {
	t.Helper()
	srv := gatewaytest.NewServer(t, "mailtm.example")
	store := session.NewKeyringStoreWith(keyring.NewArrayKeyring(nil))
	mb := mailbox.New(gateway.NewClient(srv.URL), store,
		mailbox.WithPollInterval(time.Hour),
		mailbox.WithLogger(zerolog.Nop()),
	)
	t.Cleanup(mb.Close)

	m := New(context.Background(), mb, model.DefaultAppConfig())
	m.now = func() time.Time { return time.Date(2024, 5, 1, 12, 5, 0, 0, time.UTC) }
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model), mb, srv
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// activate creates the test account and waits for the first inbox fetch.
func activate(t *testing.T, mb *mailbox.Mailbox, srv *gatewaytest.Server) {
	t.Helper()
	require.NoError(t, mb.CreateAccount(context.Background(), "brightfox421", "mailtm.example", "password123"))
	require.Eventually(t, func() bool {
		return srv.Calls("GET /messages") >= 1 && !mb.Snapshot().Loading
	}, 2*time.Second, 5*time.Millisecond)
}

func TestRestoreWithoutSessionShowsCreateForm(t *testing.T) {
	m, _, _ := newTestModel(t)

	m, _ = update(t, m, restoredMsg{})
	assert.Equal(t, ViewCreate, m.currentView)
	assert.True(t, m.form.Active())
	assert.Contains(t, m.View(), "New Address")
	assert.Contains(t, m.View(), "no address")
}

func TestRestoreWithSessionShowsEmptyInbox(t *testing.T) {
	m, mb, srv := newTestModel(t)
	activate(t, mb, srv)

	m, _ = update(t, m, restoredMsg{})
	assert.Equal(t, ViewInbox, m.currentView)

	view := m.View()
	assert.Contains(t, view, testAddr)
	assert.Contains(t, view, inbox.EmptyText)
}

func TestOpenAndCloseMessage(t *testing.T) {
	m, mb, srv := newTestModel(t)
	srv.SetMessages(testAddr, model.MessageDetails{
		Message: model.Message{
			ID:        "m1",
			From:      model.Address{Address: "sender@example.org", Name: "Sender"},
			Subject:   "Verify your email",
			CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		},
		Text: "Your code is 123456",
	})
	activate(t, mb, srv)

	m, _ = update(t, m, restoredMsg{})
	assert.Contains(t, m.View(), "Verify your email")
	assert.Contains(t, m.View(), "[1 new]")

	m, cmd := update(t, m, inbox.SelectedMsg{ID: "m1"})
	assert.Equal(t, ViewMessage, m.currentView)
	require.NotNil(t, cmd)

	m, _ = update(t, m, cmd())
	view := m.View()
	assert.Contains(t, view, "Your code is 123456")
	assert.Contains(t, view, "Sender <sender@example.org>")
	assert.NotContains(t, view, "[1 new]")

	m, _ = update(t, m, message.BackMsg{})
	assert.Equal(t, ViewInbox, m.currentView)
	assert.Nil(t, mb.Snapshot().Selected)
}

func TestDeleteOpenMessageReturnsToInbox(t *testing.T) {
	m, mb, srv := newTestModel(t)
	srv.SetMessages(testAddr, model.MessageDetails{Message: model.Message{ID: "m1", Subject: "Hi"}})
	activate(t, mb, srv)
	m, _ = update(t, m, restoredMsg{})

	m, cmd := update(t, m, inbox.SelectedMsg{ID: "m1"})
	m, _ = update(t, m, cmd())

	m, cmd = update(t, m, message.DeleteMsg{ID: "m1"})
	m, _ = update(t, m, cmd())
	assert.Equal(t, ViewInbox, m.currentView)
	assert.Contains(t, m.View(), inbox.EmptyText)
}

func TestErrorSlotShownInStatusBar(t *testing.T) {
	m, mb, srv := newTestModel(t)
	activate(t, mb, srv)
	m, _ = update(t, m, restoredMsg{})

	m, cmd := update(t, m, inbox.DeleteMsg{ID: "ghost"})
	m, _ = update(t, m, cmd())
	assert.Contains(t, m.View(), "Failed to delete message")
}

func TestUnknownCommandSetsNotice(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.currentView = ViewInbox
	m.previousView = ViewInbox

	m, _ = update(t, m, command.UnknownMsg("frobnicate"))
	assert.Equal(t, ViewInbox, m.currentView)
	assert.Contains(t, m.View(), `Unknown command "frobnicate"`)
}

func TestLogoutReturnsToCreateForm(t *testing.T) {
	m, mb, srv := newTestModel(t)
	activate(t, mb, srv)
	m, _ = update(t, m, restoredMsg{})

	cmd := m.executeCommand("logout")
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.Equal(t, ViewCreate, m.currentView)
	assert.Equal(t, mailbox.Anonymous, mb.Snapshot().State)
	assert.NotContains(t, m.View(), testAddr)
}

func TestHelpToggle(t *testing.T) {
	m, mb, srv := newTestModel(t)
	activate(t, mb, srv)
	m, _ = update(t, m, restoredMsg{})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	assert.Equal(t, ViewHelp, m.currentView)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewInbox, m.currentView)
}
