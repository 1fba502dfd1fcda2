package app

import (
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/nhle/throwmail/internal/mailbox"
	"github.com/nhle/throwmail/internal/ui/accountform"
)

type opKind int

const (
	opDomains opKind = iota
	opCreate
	opLogin
	opSelect
	opRemove
	opCopy
	opLogout
)

// opDoneMsg is sent when a mailbox operation started by the UI returns.
type opDoneMsg struct {
	op  opKind
	err error
}

// restoredMsg is sent once the saved session has been looked up.
type restoredMsg struct{ err error }

// eventMsg wraps a mailbox change notification.
type eventMsg mailbox.Event

// clockMsg redraws relative timestamps.
type clockMsg time.Time

// waitForEvent returns a command that blocks until the mailbox publishes
// a change.
func waitForEvent(events <-chan mailbox.Event) tea.Cmd {
	return func() tea.Msg {
		return eventMsg(<-events)
	}
}

func tickClock() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}

// run wraps a blocking mailbox call. Busy and stale results are expected
// under normal use and are not logged.
func run(op opKind, fn func() error) tea.Cmd {
	return func() tea.Msg {
		err := fn()
		if err != nil && !errors.Is(err, mailbox.ErrBusy) && !errors.Is(err, mailbox.ErrStale) {
			log.Debug().Str("component", "app").Err(err).Int("op", int(op)).Msg("Operation failed")
		}
		return opDoneMsg{op: op, err: err}
	}
}

func (m *Model) restore() tea.Cmd {
	mb, ctx := m.mb, m.ctx
	return func() tea.Msg {
		return restoredMsg{err: mb.Restore(ctx)}
	}
}

func (m *Model) loadDomains() tea.Cmd {
	mb, ctx := m.mb, m.ctx
	return run(opDomains, func() error { return mb.LoadDomains(ctx) })
}

func (m *Model) createAccount(req accountform.CreateMsg) tea.Cmd {
	mb, ctx := m.mb, m.ctx
	return run(opCreate, func() error {
		return mb.CreateAccount(ctx, req.Username, req.Domain, req.Password)
	})
}

func (m *Model) login(req accountform.LoginMsg) tea.Cmd {
	mb, ctx := m.mb, m.ctx
	return run(opLogin, func() error { return mb.Login(ctx, req.Address, req.Password) })
}

func (m *Model) selectMessage(id string) tea.Cmd {
	mb, ctx := m.mb, m.ctx
	return run(opSelect, func() error { return mb.Select(ctx, id) })
}

func (m *Model) removeMessage(id string) tea.Cmd {
	mb, ctx := m.mb, m.ctx
	return run(opRemove, func() error { return mb.Remove(ctx, id) })
}

func (m *Model) copyAddress() tea.Cmd {
	mb := m.mb
	return run(opCopy, mb.CopyAddress)
}

func (m *Model) logout() tea.Cmd {
	mb, ctx := m.mb, m.ctx
	return run(opLogout, func() error { return mb.Logout(ctx) })
}
