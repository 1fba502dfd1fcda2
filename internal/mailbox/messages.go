package mailbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/throwmail/internal/gateway"
	"github.com/nhle/throwmail/internal/model"
)

// Refresh fetches the first page of the inbox and replaces the message
// list wholesale. It returns ErrNoSession when Anonymous and ErrBusy when
// a refresh for the same session is already running.
func (m *Mailbox) Refresh(ctx context.Context) error {
	m.mu.Lock()
	if m.account == nil {
		m.mu.Unlock()
		return ErrNoSession
	}
	if m.refreshingEpoch == m.epoch {
		m.mu.Unlock()
		return ErrBusy
	}
	token, issued := m.account.Token, m.epoch
	m.refreshingEpoch = issued
	m.inflight++
	m.mu.Unlock()
	m.publish(EventBusy)

	defer m.done(func() {
		if m.refreshingEpoch == issued {
			m.refreshingEpoch = ""
		}
	})

	msgs, err := m.gw.Messages(ctx, token, 1)

	m.mu.Lock()
	if m.epoch != issued {
		m.mu.Unlock()
		m.logger.Debug().Msg("Discarding inbox from a previous session")
		return ErrStale
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			m.mu.Unlock()
			return err
		}
		if gateway.IsAuthError(err) {
			m.errMsg = msgSessionExpired
		} else {
			m.errMsg = msgRefreshFailed
		}
		m.mu.Unlock()
		m.publish(EventError)
		return fmt.Errorf("refreshing messages: %w", err)
	}
	m.messages = msgs
	m.errMsg = ""
	m.mu.Unlock()

	m.publish(EventMessages)
	return nil
}

// Select fetches the full content of message id and makes it the selected
// message. A result is applied only if the session and the selection
// target are unchanged when it arrives; otherwise ErrStale is returned.
func (m *Mailbox) Select(ctx context.Context, id string) error {
	m.mu.Lock()
	if m.account == nil {
		m.mu.Unlock()
		return ErrNoSession
	}
	if m.indexOf(id) < 0 {
		m.mu.Unlock()
		return ErrUnknownMessage
	}
	token, issued := m.account.Token, m.epoch
	m.selectTarget = id
	m.inflight++
	m.mu.Unlock()
	m.publish(EventSelection)

	defer m.finish()

	details, err := m.gw.Message(ctx, token, id)

	m.mu.Lock()
	if m.epoch != issued || m.selectTarget != id {
		m.mu.Unlock()
		m.logger.Debug().Str("id", id).Msg("Discarding superseded message details")
		return ErrStale
	}
	if err != nil {
		m.errMsg = msgDetailsFailed
		m.selectTarget = ""
		if m.selected != nil {
			m.selectTarget = m.selected.ID
		}
		m.mu.Unlock()
		m.publish(EventError)
		return fmt.Errorf("fetching message %s: %w", id, err)
	}

	wasSeen := details.Seen
	details.Seen = true
	m.selected = details
	if i := m.indexOf(id); i >= 0 {
		m.messages[i].Seen = true
	}
	m.errMsg = ""
	m.mu.Unlock()
	m.publish(EventSelection)

	if !wasSeen {
		if err := m.gw.MarkSeen(ctx, token, id); err != nil {
			m.logger.Warn().Err(err).Str("id", id).Msg("Failed to mark message as seen")
		}
	}
	return nil
}

// ClearSelection drops the selected message and returns to the inbox. No
// network call is made.
func (m *Mailbox) ClearSelection() {
	m.mu.Lock()
	m.selected = nil
	m.selectTarget = ""
	m.mu.Unlock()
	m.publish(EventSelection)
}

// Remove deletes message id on the service and then drops it from the
// local list, clearing the selection if it was the selected message.
func (m *Mailbox) Remove(ctx context.Context, id string) error {
	acct, issued, err := m.begin()
	if err != nil {
		return err
	}
	defer m.finish()

	err = m.gw.DeleteMessage(ctx, acct.Token, id)

	m.mu.Lock()
	if m.epoch != issued {
		m.mu.Unlock()
		return ErrStale
	}
	if err != nil {
		m.errMsg = msgDeleteFailed
		m.mu.Unlock()
		m.publish(EventError)
		return fmt.Errorf("deleting message %s: %w", id, err)
	}

	kept := make([]model.Message, 0, len(m.messages))
	for _, msg := range m.messages {
		if msg.ID != id {
			kept = append(kept, msg)
		}
	}
	m.messages = kept
	if m.selected != nil && m.selected.ID == id {
		m.selected = nil
	}
	if m.selectTarget == id {
		m.selectTarget = ""
	}
	m.errMsg = ""
	m.mu.Unlock()

	m.publish(EventMessages)
	return nil
}

// Source downloads the raw RFC 822 source of message id. The session
// state other than the error slot is not changed.
func (m *Mailbox) Source(ctx context.Context, id string) (string, error) {
	acct, issued, err := m.begin()
	if err != nil {
		return "", err
	}
	defer m.finish()

	src, err := m.gw.Source(ctx, acct.Token, id)
	if err != nil {
		m.applyError(issued, msgSourceFailed)
		return "", fmt.Errorf("downloading source of %s: %w", id, err)
	}
	m.applyError(issued, "")
	return src.Data, nil
}

// indexOf returns the position of id in the message list. The caller
// holds m.mu.
func (m *Mailbox) indexOf(id string) int {
	for i, msg := range m.messages {
		if msg.ID == id {
			return i
		}
	}
	return -1
}
