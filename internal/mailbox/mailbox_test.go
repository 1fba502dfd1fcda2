package mailbox_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/throwmail/internal/gateway"
	"github.com/nhle/throwmail/internal/gateway/gatewaytest"
	"github.com/nhle/throwmail/internal/mailbox"
	"github.com/nhle/throwmail/internal/model"
	"github.com/nhle/throwmail/internal/session"
)

const (
	testDomain = "mailtm.example"
	testAddr   = "brightfox421@mailtm.example"
	testPass   = "password123"
)

type fakeClipboard struct {
	mu   sync.Mutex
	text string
	err  error
}

func (c *fakeClipboard) WriteAll(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

type fixture struct {
	srv   *gatewaytest.Server
	store session.Store
	clip  *fakeClipboard
	mb    *mailbox.Mailbox
}

func newFixture(t *testing.T, opts ...mailbox.Option) *fixture {
	t.Helper()
	f := &fixture{
		srv:   gatewaytest.NewServer(t, testDomain),
		store: session.NewKeyringStoreWith(keyring.NewArrayKeyring(nil)),
		clip:  &fakeClipboard{},
	}
	base := []mailbox.Option{
		mailbox.WithPollInterval(time.Hour),
		mailbox.WithClipboard(f.clip),
		mailbox.WithLogger(zerolog.Nop()),
	}
	f.mb = mailbox.New(gateway.NewClient(f.srv.URL), f.store, append(base, opts...)...)
	t.Cleanup(f.mb.Close)
	return f
}

// settle waits until the initial refresh of a new session has completed.
func (f *fixture) settle(t *testing.T, fetches int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return f.srv.Calls("GET /messages") >= fetches && !f.mb.Snapshot().Loading
	}, 2*time.Second, 5*time.Millisecond)
}

// active creates testAddr and waits for its first inbox fetch.
func (f *fixture) active(t *testing.T) {
	t.Helper()
	require.NoError(t, f.mb.CreateAccount(context.Background(), "brightfox421", testDomain, testPass))
	f.settle(t, 1)
}

func details(id, subject string) model.MessageDetails {
	return model.MessageDetails{
		Message: model.Message{
			ID:        id,
			From:      model.Address{Address: "sender@example.org", Name: "Sender"},
			To:        []model.Address{{Address: testAddr}},
			Subject:   subject,
			Intro:     subject + " intro",
			CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		},
		Text: subject + " body",
	}
}

func ids(msgs []model.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func TestNewMailboxIsAnonymous(t *testing.T) {
	f := newFixture(t)

	snap := f.mb.Snapshot()
	assert.Equal(t, mailbox.Anonymous, snap.State)
	assert.Nil(t, snap.Account)
	assert.Nil(t, snap.Messages)
	assert.Nil(t, snap.Selected)
	assert.Empty(t, snap.Error)
	assert.Nil(t, f.mb.Account())
}

func TestCreateAccountSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.mb.CreateAccount(ctx, "brightfox421", testDomain, testPass))
	f.settle(t, 1)

	snap := f.mb.Snapshot()
	assert.Equal(t, mailbox.Active, snap.State)
	require.NotNil(t, snap.Account)
	assert.Equal(t, testAddr, snap.Account.Address)
	assert.Equal(t, testPass, snap.Account.Password)
	assert.NotEmpty(t, snap.Account.Token)
	assert.NotEmpty(t, snap.Account.ID)
	assert.Empty(t, snap.Error)
	assert.False(t, snap.Creating)

	// The first refresh of an empty inbox yields an empty, non-nil list.
	assert.NotNil(t, snap.Messages)
	assert.Empty(t, snap.Messages)

	saved, err := f.store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, *snap.Account, *saved)
}

func TestCreateAccountRejectsEmptyInput(t *testing.T) {
	f := newFixture(t)

	for _, tc := range []struct{ user, domain string }{
		{"", testDomain},
		{"brightfox421", ""},
		{"   ", "  "},
	} {
		err := f.mb.CreateAccount(context.Background(), tc.user, tc.domain, testPass)
		assert.ErrorIs(t, err, mailbox.ErrInvalidInput)
	}
	assert.Zero(t, f.srv.TotalCalls())
	assert.Empty(t, f.mb.Snapshot().Error)
}

func TestCreateAccountFailureKeepsState(t *testing.T) {
	t.Run("server description", func(t *testing.T) {
		f := newFixture(t)
		f.srv.AddAccount(testAddr, "other")

		err := f.mb.CreateAccount(context.Background(), "brightfox421", testDomain, testPass)
		require.Error(t, err)

		snap := f.mb.Snapshot()
		assert.Equal(t, mailbox.Anonymous, snap.State)
		assert.Equal(t, "address: This value is already used.", snap.Error)
		assert.False(t, snap.Creating)

		_, err = f.store.Load(context.Background())
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("generic text", func(t *testing.T) {
		f := newFixture(t)
		f.srv.Fail("POST /accounts", 500, "")

		err := f.mb.CreateAccount(context.Background(), "brightfox421", testDomain, testPass)
		require.Error(t, err)
		assert.Equal(t, "Failed to create account", f.mb.Snapshot().Error)
	})

	t.Run("active session survives", func(t *testing.T) {
		f := newFixture(t)
		f.active(t)
		f.srv.Fail("POST /accounts", 500, "")

		err := f.mb.CreateAccount(context.Background(), "calmowl7", testDomain, testPass)
		require.Error(t, err)

		snap := f.mb.Snapshot()
		assert.Equal(t, mailbox.Active, snap.State)
		assert.Equal(t, testAddr, snap.Account.Address)

		saved, err := f.store.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, testAddr, saved.Address)
	})
}

func TestCreateAccountWhileCreatingIsBusy(t *testing.T) {
	f := newFixture(t)
	gate := f.srv.Hold("POST /accounts")

	done := make(chan error, 1)
	go func() {
		done <- f.mb.CreateAccount(context.Background(), "brightfox421", testDomain, testPass)
	}()
	<-gate.Entered()

	assert.True(t, f.mb.Snapshot().Creating)
	err := f.mb.CreateAccount(context.Background(), "calmowl7", testDomain, testPass)
	assert.ErrorIs(t, err, mailbox.ErrBusy)

	gate.Release()
	require.NoError(t, <-done)

	assert.Equal(t, 1, f.srv.Calls("POST /accounts"))
	assert.Equal(t, testAddr, f.mb.Snapshot().Account.Address)
}

func TestCreateAccountReplacesSession(t *testing.T) {
	f := newFixture(t)
	f.active(t)
	f.srv.SetMessages(testAddr, details("m1", "Welcome"))
	require.NoError(t, f.mb.Refresh(context.Background()))
	require.NoError(t, f.mb.Select(context.Background(), "m1"))

	require.NoError(t, f.mb.CreateAccount(context.Background(), "calmowl7", testDomain, testPass))
	f.settle(t, 3)

	snap := f.mb.Snapshot()
	assert.Equal(t, "calmowl7@"+testDomain, snap.Account.Address)
	assert.Empty(t, snap.Messages)
	assert.Nil(t, snap.Selected)

	saved, err := f.store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "calmowl7@"+testDomain, saved.Address)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	id, _ := f.srv.AddAccount(testAddr, testPass)

	t.Run("wrong password", func(t *testing.T) {
		err := f.mb.Login(context.Background(), testAddr, "nope")
		require.Error(t, err)
		assert.True(t, gateway.IsAuthError(err))
		assert.Equal(t, "Invalid credentials.", f.mb.Snapshot().Error)
		assert.Equal(t, mailbox.Anonymous, f.mb.Snapshot().State)
	})

	t.Run("invalid address", func(t *testing.T) {
		assert.ErrorIs(t, f.mb.Login(context.Background(), "nobody", testPass), mailbox.ErrInvalidInput)
	})

	t.Run("success", func(t *testing.T) {
		require.NoError(t, f.mb.Login(context.Background(), testAddr, testPass))
		f.settle(t, 1)

		snap := f.mb.Snapshot()
		assert.Equal(t, mailbox.Active, snap.State)
		assert.Equal(t, id, snap.Account.ID)
		assert.Empty(t, snap.Error)
	})
}

func TestRefreshReplacesListWholesale(t *testing.T) {
	f := newFixture(t)
	f.active(t)
	ctx := context.Background()

	f.srv.SetMessages(testAddr, details("m1", "One"), details("m2", "Two"))
	require.NoError(t, f.mb.Refresh(ctx))
	assert.Equal(t, []string{"m1", "m2"}, ids(f.mb.Snapshot().Messages))

	f.srv.SetMessages(testAddr, details("m3", "Three"))
	require.NoError(t, f.mb.Refresh(ctx))
	assert.Equal(t, []string{"m3"}, ids(f.mb.Snapshot().Messages))
}

func TestRefreshFailureKeepsMessages(t *testing.T) {
	f := newFixture(t)
	f.active(t)
	ctx := context.Background()

	f.srv.SetMessages(testAddr, details("m1", "One"))
	require.NoError(t, f.mb.Refresh(ctx))

	f.srv.Fail("GET /messages", 500, "")
	require.Error(t, f.mb.Refresh(ctx))
	snap := f.mb.Snapshot()
	assert.Equal(t, "Failed to fetch messages", snap.Error)
	assert.Equal(t, []string{"m1"}, ids(snap.Messages))

	f.srv.ClearFailures()
	require.NoError(t, f.mb.Refresh(ctx))
	assert.Empty(t, f.mb.Snapshot().Error)
}

func TestRefreshMalformedListKeepsMessages(t *testing.T) {
	f := newFixture(t)
	f.active(t)
	ctx := context.Background()

	f.srv.SetMessages(testAddr, details("m1", "One"))
	require.NoError(t, f.mb.Refresh(ctx))

	f.srv.Respond("GET /messages", `{"unexpected":true}`)
	err := f.mb.Refresh(ctx)
	var bad *gateway.MalformedError
	require.ErrorAs(t, err, &bad)

	snap := f.mb.Snapshot()
	assert.Equal(t, "Failed to fetch messages", snap.Error)
	assert.Equal(t, []string{"m1"}, ids(snap.Messages))
}

func TestRefreshExpiredToken(t *testing.T) {
	f := newFixture(t)
	f.active(t)
	f.srv.Fail("GET /messages", 401, "")

	err := f.mb.Refresh(context.Background())
	assert.True(t, gateway.IsAuthError(err))
	assert.Equal(t, "Session expired. Log out and create a new address.", f.mb.Snapshot().Error)
	assert.Equal(t, mailbox.Active, f.mb.Snapshot().State)
}

func TestRefreshWhenAnonymous(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.mb.Refresh(context.Background()), mailbox.ErrNoSession)
	assert.Zero(t, f.srv.TotalCalls())
}

func TestRefreshOverlapIsSkipped(t *testing.T) {
	f := newFixture(t)
	f.active(t)
	gate := f.srv.Hold("GET /messages")

	done := make(chan error, 1)
	go func() { done <- f.mb.Refresh(context.Background()) }()
	<-gate.Entered()

	assert.True(t, f.mb.Snapshot().Refreshing)
	assert.ErrorIs(t, f.mb.Refresh(context.Background()), mailbox.ErrBusy)

	gate.Release()
	require.NoError(t, <-done)
	assert.Equal(t, 2, f.srv.Calls("GET /messages"))
}

func TestSelectMarksSeen(t *testing.T) {
	f := newFixture(t)
	f.srv.SetMessages(testAddr, details("m1", "Welcome"))
	f.active(t)

	require.NoError(t, f.mb.Select(context.Background(), "m1"))

	snap := f.mb.Snapshot()
	require.NotNil(t, snap.Selected)
	assert.Equal(t, "m1", snap.Selected.ID)
	assert.Equal(t, "Welcome body", snap.Selected.Text)
	assert.True(t, snap.Selected.Seen)
	assert.True(t, snap.Messages[0].Seen)
	assert.Equal(t, "m1", snap.SelectTarget)
	assert.Equal(t, 1, f.srv.Calls("PATCH /messages/m1"))
	assert.True(t, f.srv.Messages(testAddr)[0].Seen)

	// Already seen messages are not patched again.
	require.NoError(t, f.mb.Select(context.Background(), "m1"))
	assert.Equal(t, 1, f.srv.Calls("PATCH /messages/m1"))

	f.mb.ClearSelection()
	snap = f.mb.Snapshot()
	assert.Nil(t, snap.Selected)
	assert.Empty(t, snap.SelectTarget)
}

func TestSelectFailureKeepsSelection(t *testing.T) {
	f := newFixture(t)
	f.srv.SetMessages(testAddr, details("m1", "One"), details("m2", "Two"))
	f.active(t)
	ctx := context.Background()

	require.NoError(t, f.mb.Select(ctx, "m1"))
	f.srv.Fail("GET /messages/m2", 500, "")

	require.Error(t, f.mb.Select(ctx, "m2"))
	snap := f.mb.Snapshot()
	assert.Equal(t, "Failed to fetch message details", snap.Error)
	require.NotNil(t, snap.Selected)
	assert.Equal(t, "m1", snap.Selected.ID)
	assert.Equal(t, "m1", snap.SelectTarget)
}

func TestSelectMalformedDetailsKeepsSelection(t *testing.T) {
	f := newFixture(t)
	f.srv.SetMessages(testAddr, details("m1", "One"), details("m2", "Two"))
	f.active(t)
	ctx := context.Background()

	require.NoError(t, f.mb.Select(ctx, "m1"))
	f.srv.Respond("GET /messages/m2", `{}`)

	err := f.mb.Select(ctx, "m2")
	var bad *gateway.MalformedError
	require.ErrorAs(t, err, &bad)

	snap := f.mb.Snapshot()
	assert.Equal(t, "Failed to fetch message details", snap.Error)
	require.NotNil(t, snap.Selected)
	assert.Equal(t, "m1", snap.Selected.ID)
	assert.Equal(t, "m1", snap.SelectTarget)
	for _, msg := range snap.Messages {
		if msg.ID == "m2" {
			assert.False(t, msg.Seen)
		}
	}
	assert.Zero(t, f.srv.Calls("PATCH /messages/m2"))
}

func TestSelectUnknownMessage(t *testing.T) {
	f := newFixture(t)
	f.active(t)

	assert.ErrorIs(t, f.mb.Select(context.Background(), "ghost"), mailbox.ErrUnknownMessage)
	assert.Zero(t, f.srv.Calls("GET /messages/ghost"))
}

func TestSelectLatestTargetWins(t *testing.T) {
	f := newFixture(t)
	f.srv.SetMessages(testAddr, details("a", "Alpha"), details("b", "Bravo"))
	f.active(t)
	gate := f.srv.Hold("GET /messages/a")

	done := make(chan error, 1)
	go func() { done <- f.mb.Select(context.Background(), "a") }()
	<-gate.Entered()

	require.NoError(t, f.mb.Select(context.Background(), "b"))
	gate.Release()
	assert.ErrorIs(t, <-done, mailbox.ErrStale)

	snap := f.mb.Snapshot()
	require.NotNil(t, snap.Selected)
	assert.Equal(t, "b", snap.Selected.ID)
	assert.Equal(t, "b", snap.SelectTarget)
}

func TestRemove(t *testing.T) {
	f := newFixture(t)
	f.srv.SetMessages(testAddr, details("m1", "One"), details("m2", "Two"))
	f.active(t)
	ctx := context.Background()

	require.NoError(t, f.mb.Select(ctx, "m2"))

	// Deleting another message leaves the selection alone.
	require.NoError(t, f.mb.Remove(ctx, "m1"))
	snap := f.mb.Snapshot()
	assert.Equal(t, []string{"m2"}, ids(snap.Messages))
	require.NotNil(t, snap.Selected)
	assert.Equal(t, "m2", snap.Selected.ID)

	// Deleting the selected message clears the selection.
	require.NoError(t, f.mb.Remove(ctx, "m2"))
	snap = f.mb.Snapshot()
	assert.Empty(t, snap.Messages)
	assert.Nil(t, snap.Selected)
	assert.Empty(t, snap.SelectTarget)
}

func TestRemoveFailureKeepsList(t *testing.T) {
	f := newFixture(t)
	f.srv.SetMessages(testAddr, details("m1", "One"))
	f.active(t)

	err := f.mb.Remove(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, gateway.IsNotFound(err))

	snap := f.mb.Snapshot()
	assert.Equal(t, "Failed to delete message", snap.Error)
	assert.Equal(t, []string{"m1"}, ids(snap.Messages))
}

func TestLogoutStopsPolling(t *testing.T) {
	f := newFixture(t, mailbox.WithPollInterval(10*time.Millisecond))
	f.active(t)
	ctx := context.Background()

	require.Eventually(t, func() bool {
		return f.srv.Calls("GET /messages") >= 3
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, f.mb.Logout(ctx))
	after := f.srv.Calls("GET /messages")
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, after, f.srv.Calls("GET /messages"))

	snap := f.mb.Snapshot()
	assert.Equal(t, mailbox.Anonymous, snap.State)
	assert.Nil(t, snap.Account)
	assert.Nil(t, snap.Messages)
	assert.Nil(t, snap.Selected)

	_, err := f.store.Load(ctx)
	assert.ErrorIs(t, err, session.ErrNotFound)

	// The account still exists on the service.
	assert.True(t, f.srv.HasAccount(testAddr))
}

func TestLogoutDiscardsInFlightResults(t *testing.T) {
	f := newFixture(t)
	f.srv.SetMessages(testAddr, details("m1", "One"))
	f.active(t)
	gate := f.srv.Hold("DELETE /messages/m1")

	done := make(chan error, 1)
	go func() { done <- f.mb.Remove(context.Background(), "m1") }()
	<-gate.Entered()

	require.NoError(t, f.mb.Logout(context.Background()))
	gate.Release()
	assert.ErrorIs(t, <-done, mailbox.ErrStale)

	snap := f.mb.Snapshot()
	assert.Equal(t, mailbox.Anonymous, snap.State)
	assert.Nil(t, snap.Messages)
	assert.Empty(t, snap.Error)
}

func TestLogoutCancelsPendingRefresh(t *testing.T) {
	f := newFixture(t)
	gate := f.srv.Hold("GET /messages")

	require.NoError(t, f.mb.CreateAccount(context.Background(), "brightfox421", testDomain, testPass))
	<-gate.Entered()

	require.NoError(t, f.mb.Logout(context.Background()))
	snap := f.mb.Snapshot()
	assert.Nil(t, snap.Messages)
	assert.Empty(t, snap.Error)
	assert.False(t, snap.Refreshing)
}

func TestRestore(t *testing.T) {
	t.Run("saved account", func(t *testing.T) {
		f := newFixture(t)
		_, token := f.srv.AddAccount(testAddr, testPass)
		f.srv.SetMessages(testAddr, details("m1", "One"))
		require.NoError(t, f.store.Save(context.Background(), model.Account{
			ID: "acc-1", Address: testAddr, Password: testPass, Token: token,
		}))

		require.NoError(t, f.mb.Restore(context.Background()))
		f.settle(t, 1)

		snap := f.mb.Snapshot()
		assert.Equal(t, mailbox.Active, snap.State)
		assert.Equal(t, testAddr, snap.Account.Address)
		assert.Equal(t, []string{"m1"}, ids(snap.Messages))
	})

	t.Run("nothing saved", func(t *testing.T) {
		f := newFixture(t)

		require.NoError(t, f.mb.Restore(context.Background()))
		assert.Equal(t, mailbox.Anonymous, f.mb.Snapshot().State)
		assert.Zero(t, f.srv.TotalCalls())
	})
}

func TestLoadDomains(t *testing.T) {
	f := newFixture(t)
	f.srv.AddDomain("private.example", true)
	f.srv.AddDomain("second.example", false)

	require.NoError(t, f.mb.LoadDomains(context.Background()))
	assert.Equal(t, []string{testDomain, "second.example"}, f.mb.Snapshot().Domains)

	f.srv.Fail("GET /domains", 503, "")
	require.Error(t, f.mb.LoadDomains(context.Background()))
	snap := f.mb.Snapshot()
	assert.Equal(t, "Failed to fetch domains", snap.Error)
	assert.Equal(t, []string{testDomain, "second.example"}, snap.Domains)
}

func TestCopyAddress(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.mb.CopyAddress(), mailbox.ErrNoSession)

	f.active(t)
	require.NoError(t, f.mb.CopyAddress())
	assert.Equal(t, testAddr, f.clip.text)

	f.clip.err = errors.New("no display")
	require.Error(t, f.mb.CopyAddress())
	snap := f.mb.Snapshot()
	assert.Equal(t, "Failed to copy to clipboard", snap.Error)
	assert.Equal(t, mailbox.Active, snap.State)
}

func TestErrorSlotLastWriteWins(t *testing.T) {
	f := newFixture(t)
	f.srv.SetMessages(testAddr, details("m1", "One"))
	f.active(t)
	ctx := context.Background()

	require.Error(t, f.mb.Remove(ctx, "ghost"))
	assert.Equal(t, "Failed to delete message", f.mb.Snapshot().Error)

	f.srv.Fail("GET /messages/m1", 500, "")
	require.Error(t, f.mb.Select(ctx, "m1"))
	assert.Equal(t, "Failed to fetch message details", f.mb.Snapshot().Error)

	require.NoError(t, f.mb.Refresh(ctx))
	assert.Empty(t, f.mb.Snapshot().Error)
}

func TestDeleteAccount(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.mb.DeleteAccount(context.Background()), mailbox.ErrNoSession)

	f.active(t)
	require.NoError(t, f.mb.DeleteAccount(context.Background()))

	assert.False(t, f.srv.HasAccount(testAddr))
	assert.Equal(t, mailbox.Anonymous, f.mb.Snapshot().State)
	_, err := f.store.Load(context.Background())
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestSource(t *testing.T) {
	f := newFixture(t)
	f.srv.SetMessages(testAddr, details("m1", "One"))
	raw := "From: a@example.org\r\nSubject: One\r\n\r\nbody\r\n"
	f.srv.SetSource("m1", raw)
	f.active(t)

	got, err := f.mb.Source(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	_, err = f.mb.Source(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, "Failed to download message source", f.mb.Snapshot().Error)
}

func TestSnapshotIsACopy(t *testing.T) {
	f := newFixture(t)
	f.srv.SetMessages(testAddr, details("m1", "One"))
	f.active(t)

	snap := f.mb.Snapshot()
	snap.Messages[0].Subject = "changed"
	snap.Account.Address = "changed"

	again := f.mb.Snapshot()
	assert.Equal(t, "One", again.Messages[0].Subject)
	assert.Equal(t, testAddr, again.Account.Address)
}

func TestEventsArePublished(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.mb.LoadDomains(context.Background()))

	seen := map[mailbox.EventKind]bool{}
	for {
		select {
		case ev := <-f.mb.Events():
			seen[ev.Kind] = true
			continue
		default:
		}
		break
	}
	assert.True(t, seen[mailbox.EventBusy])
	assert.True(t, seen[mailbox.EventDomains])
}

func TestWithoutPollingNeedsExplicitRefresh(t *testing.T) {
	f := newFixture(t, mailbox.WithoutPolling())
	f.srv.SetMessages(testAddr, details("m1", "One"))

	require.NoError(t, f.mb.CreateAccount(context.Background(), "brightfox421", testDomain, testPass))
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, f.srv.Calls("GET /messages"))
	assert.Nil(t, f.mb.Snapshot().Messages)

	// Trigger is a no-op without a poller.
	f.mb.TriggerRefresh()

	require.NoError(t, f.mb.Refresh(context.Background()))
	assert.Equal(t, []string{"m1"}, ids(f.mb.Snapshot().Messages))
}
