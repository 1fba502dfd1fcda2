// Package mailbox holds the session state machine of the client: the
// active disposable account, its inbox, the selected message and the
// last error. Every operation is safe to call from any goroutine.
package mailbox

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nhle/throwmail/internal/gateway"
	"github.com/nhle/throwmail/internal/model"
	"github.com/nhle/throwmail/internal/session"
)

// State is the lifecycle state of a Mailbox.
type State int

const (
	// Anonymous means no account is active.
	Anonymous State = iota
	// Active means an account is held and its inbox is being polled.
	Active
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	default:
		return "anonymous"
	}
}

// EventKind identifies what changed.
type EventKind int

const (
	EventAccount EventKind = iota
	EventMessages
	EventSelection
	EventDomains
	EventError
	EventBusy
)

// Event is published after every state mutation. Consumers re-read the
// Snapshot rather than relying on the kind alone.
type Event struct {
	Kind EventKind
}

// Snapshot is a copy of the observable state taken under the lock.
type Snapshot struct {
	State        State
	Account      *model.Account
	Messages     []model.Message
	Selected     *model.MessageDetails
	SelectTarget string
	Domains      []string
	Creating     bool
	Refreshing   bool
	Loading      bool
	Error        string
}

// Option configures a Mailbox.
type Option func(*Mailbox)

// WithPollInterval sets how often an active inbox is refreshed.
func WithPollInterval(d time.Duration) Option {
	return func(m *Mailbox) {
		m.interval = d
	}
}

// WithoutPolling disables the background poller. Refresh must then be
// called explicitly, as one-shot command line tools do.
func WithoutPolling() Option {
	return func(m *Mailbox) {
		m.manual = true
	}
}

// WithClipboard sets the capability used by CopyAddress.
func WithClipboard(c Clipboard) Option {
	return func(m *Mailbox) {
		m.clip = c
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Mailbox) {
		m.logger = l
	}
}

// WithRand sets the random source used for username generation.
func WithRand(r *rand.Rand) Option {
	return func(m *Mailbox) {
		m.rng = r
	}
}

// Mailbox is the session state machine. Create one with New and share the
// pointer; there is no package-level instance.
type Mailbox struct {
	gw       gateway.Gateway
	store    session.Store
	clip     Clipboard
	interval time.Duration
	manual   bool
	logger   zerolog.Logger
	events   chan Event

	rngMu sync.Mutex
	rng   *rand.Rand

	// lifecycle serializes transitions between Anonymous and Active,
	// including the session store I/O that goes with them.
	lifecycle sync.Mutex

	mu              sync.Mutex
	account         *model.Account
	epoch           string
	messages        []model.Message
	selected        *model.MessageDetails
	selectTarget    string
	domains         []string
	errMsg          string
	creating        bool
	refreshingEpoch string
	loadingDomains  bool
	inflight        int
	poller          *Poller
}

// New creates an Anonymous mailbox backed by gw and store.
func New(gw gateway.Gateway, store session.Store, opts ...Option) *Mailbox {
	m := &Mailbox{
		gw:       gw,
		store:    store,
		interval: DefaultPollInterval,
		logger:   log.With().Str("component", "mailbox").Logger(),
		events:   make(chan Event, 64),
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
		epoch:    uuid.NewString(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Events returns the change notification channel. Sends never block; when
// the buffer is full the event is dropped.
func (m *Mailbox) Events() <-chan Event {
	return m.events
}

// Snapshot returns a copy of the current state.
func (m *Mailbox) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		State:        Anonymous,
		SelectTarget: m.selectTarget,
		Creating:     m.creating,
		Refreshing:   m.refreshingEpoch != "" && m.refreshingEpoch == m.epoch,
		Loading:      m.inflight > 0,
		Error:        m.errMsg,
	}
	if m.account != nil {
		acct := *m.account
		s.State = Active
		s.Account = &acct
	}
	if m.messages != nil {
		s.Messages = make([]model.Message, len(m.messages))
		for i, msg := range m.messages {
			s.Messages[i] = cloneMessage(msg)
		}
	}
	if m.selected != nil {
		s.Selected = cloneDetails(m.selected)
	}
	if m.domains != nil {
		s.Domains = append([]string(nil), m.domains...)
	}
	return s
}

// Account returns a copy of the active account, or nil when Anonymous.
func (m *Mailbox) Account() *model.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.account == nil {
		return nil
	}
	acct := *m.account
	return &acct
}

// GenerateUsername returns a random mailbox name.
func (m *Mailbox) GenerateUsername() string {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	return GenerateUsername(m.rng)
}

// Restore loads a persisted account, if any, and enters Active without
// validating the token against the service.
func (m *Mailbox) Restore(ctx context.Context) error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	acct, err := m.store.Load(ctx)
	if errors.Is(err, session.ErrNotFound) {
		m.logger.Debug().Msg("No saved session")
		return nil
	}
	if err != nil {
		m.setError(msgLoadFailed)
		return fmt.Errorf("loading session: %w", err)
	}

	m.enter(*acct)
	m.logger.Info().Str("address", acct.Address).Msg("Session restored")
	return nil
}

// LoadDomains fetches the address suffixes offered by the service and
// keeps the active public ones in server order.
func (m *Mailbox) LoadDomains(ctx context.Context) error {
	m.mu.Lock()
	if m.loadingDomains {
		m.mu.Unlock()
		return ErrBusy
	}
	m.loadingDomains = true
	m.inflight++
	m.mu.Unlock()
	m.publish(EventBusy)

	defer m.done(func() { m.loadingDomains = false })

	domains, err := m.gw.Domains(ctx)
	if err != nil {
		m.setError(gateway.Describe(err, msgDomainsFailed))
		return fmt.Errorf("fetching domains: %w", err)
	}

	names := make([]string, 0, len(domains))
	for _, d := range domains {
		if d.Usable() {
			names = append(names, d.Domain)
		}
	}

	m.mu.Lock()
	m.domains = names
	m.errMsg = ""
	m.mu.Unlock()
	m.publish(EventDomains)
	return nil
}

// CreateAccount registers username@domain with password, obtains a token
// and makes the new account the active one. Any previous session is
// replaced. On failure the state is left as it was.
func (m *Mailbox) CreateAccount(ctx context.Context, username, domain, password string) error {
	username = strings.TrimSpace(username)
	domain = strings.TrimSpace(domain)
	if username == "" || domain == "" {
		return ErrInvalidInput
	}
	address := username + "@" + domain

	return m.authenticate(ctx, msgCreateFailed, func() (*model.Account, error) {
		info, err := m.gw.CreateAccount(ctx, address, password)
		if err != nil {
			return nil, fmt.Errorf("creating account: %w", err)
		}
		tok, err := m.gw.Token(ctx, address, password)
		if err != nil {
			return nil, fmt.Errorf("obtaining token: %w", err)
		}
		return &model.Account{
			ID:       info.ID,
			Address:  address,
			Password: password,
			Token:    tok.Token,
		}, nil
	})
}

// Login obtains a token for an existing account and makes it the active
// one, with the same contract as CreateAccount.
func (m *Mailbox) Login(ctx context.Context, address, password string) error {
	address = strings.TrimSpace(address)
	if address == "" || !strings.Contains(address, "@") {
		return ErrInvalidInput
	}

	return m.authenticate(ctx, msgLoginFailed, func() (*model.Account, error) {
		tok, err := m.gw.Token(ctx, address, password)
		if err != nil {
			return nil, fmt.Errorf("obtaining token: %w", err)
		}
		id := tok.ID
		if id == "" {
			me, err := m.gw.Me(ctx, tok.Token)
			if err != nil {
				return nil, fmt.Errorf("fetching account: %w", err)
			}
			id = me.ID
		}
		return &model.Account{
			ID:       id,
			Address:  address,
			Password: password,
			Token:    tok.Token,
		}, nil
	})
}

// authenticate runs obtain under the create busy flag and activates the
// account it returns.
func (m *Mailbox) authenticate(
	ctx context.Context,
	fallback string,
	obtain func() (*model.Account, error),
) error {
	m.mu.Lock()
	if m.creating {
		m.mu.Unlock()
		return ErrBusy
	}
	m.creating = true
	m.inflight++
	issued := m.epoch
	m.mu.Unlock()
	m.publish(EventBusy)

	defer m.done(func() { m.creating = false })

	acct, err := obtain()
	if err != nil {
		if !m.applyError(issued, gateway.Describe(err, fallback)) {
			return ErrStale
		}
		m.logger.Warn().Err(err).Msg("Authentication failed")
		return err
	}

	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	if !m.current(issued) {
		m.logger.Debug().Str("address", acct.Address).Msg("Discarding account from a previous session")
		return ErrStale
	}
	if err := m.store.Save(ctx, *acct); err != nil {
		m.setError(msgSaveFailed)
		return fmt.Errorf("saving session: %w", err)
	}

	m.enter(*acct)
	m.logger.Info().Str("address", acct.Address).Msg("Account active")
	return nil
}

// enter switches to Active with acct. The caller holds m.lifecycle.
func (m *Mailbox) enter(acct model.Account) {
	m.mu.Lock()
	old := m.poller
	m.account = &acct
	m.epoch = uuid.NewString()
	m.messages = nil
	m.selected = nil
	m.selectTarget = ""
	m.errMsg = ""
	m.poller = nil
	m.mu.Unlock()

	if old != nil {
		old.Stop()
	}

	if !m.manual {
		p := StartPoller(m.interval, m.Refresh, m.logger)
		m.mu.Lock()
		m.poller = p
		m.mu.Unlock()
	}

	m.publish(EventAccount)
}

// Logout forgets the active account locally and clears the persisted
// session. The account on the service is left untouched.
func (m *Mailbox) Logout(ctx context.Context) error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	m.mu.Lock()
	p := m.poller
	addr := ""
	if m.account != nil {
		addr = m.account.Address
	}
	m.account = nil
	m.epoch = uuid.NewString()
	m.messages = nil
	m.selected = nil
	m.selectTarget = ""
	m.errMsg = ""
	m.poller = nil
	m.mu.Unlock()

	if p != nil {
		p.Stop()
	}
	m.publish(EventAccount)

	if err := m.store.Clear(ctx); err != nil {
		m.setError(msgClearFailed)
		return fmt.Errorf("clearing session: %w", err)
	}
	if addr != "" {
		m.logger.Info().Str("address", addr).Msg("Logged out")
	}
	return nil
}

// DeleteAccount removes the active account from the service and then
// logs out.
func (m *Mailbox) DeleteAccount(ctx context.Context) error {
	acct, issued, err := m.begin()
	if err != nil {
		return err
	}

	err = m.gw.DeleteAccount(ctx, acct.Token, acct.ID)
	m.finish()
	if err != nil {
		if !m.applyError(issued, gateway.Describe(err, msgAccountFailed)) {
			return ErrStale
		}
		return fmt.Errorf("deleting account: %w", err)
	}

	m.logger.Info().Str("address", acct.Address).Msg("Account deleted")
	return m.Logout(ctx)
}

// CopyAddress writes the active address to the clipboard.
func (m *Mailbox) CopyAddress() error {
	acct := m.Account()
	if acct == nil {
		return ErrNoSession
	}
	if m.clip == nil {
		m.setError(msgCopyFailed)
		return errors.New("no clipboard available")
	}
	if err := m.clip.WriteAll(acct.Address); err != nil {
		m.setError(msgCopyFailed)
		return fmt.Errorf("copying address: %w", err)
	}
	m.setError("")
	return nil
}

// TriggerRefresh asks the poller for an immediate refresh without
// waiting for it. It does nothing when Anonymous.
func (m *Mailbox) TriggerRefresh() {
	m.mu.Lock()
	p := m.poller
	m.mu.Unlock()
	if p != nil {
		p.Trigger()
	}
}

// Close stops background polling. The state is kept.
func (m *Mailbox) Close() {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	m.mu.Lock()
	p := m.poller
	m.poller = nil
	m.mu.Unlock()
	if p != nil {
		p.Stop()
	}
}

// begin captures the active account and epoch for a session-bound request
// and marks it in flight.
func (m *Mailbox) begin() (model.Account, string, error) {
	m.mu.Lock()
	if m.account == nil {
		m.mu.Unlock()
		return model.Account{}, "", ErrNoSession
	}
	acct := *m.account
	issued := m.epoch
	m.inflight++
	m.mu.Unlock()
	m.publish(EventBusy)
	return acct, issued, nil
}

// finish undoes the in-flight mark taken by begin.
func (m *Mailbox) finish() {
	m.done(nil)
}

// done clears a busy flag and the in-flight mark.
func (m *Mailbox) done(clear func()) {
	m.mu.Lock()
	if clear != nil {
		clear()
	}
	m.inflight--
	m.mu.Unlock()
	m.publish(EventBusy)
}

// current reports whether issued is still the session epoch.
func (m *Mailbox) current(issued string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch == issued
}

// applyError sets the error slot if issued is still current.
func (m *Mailbox) applyError(issued, msg string) bool {
	m.mu.Lock()
	if m.epoch != issued {
		m.mu.Unlock()
		return false
	}
	m.errMsg = msg
	m.mu.Unlock()
	m.publish(EventError)
	return true
}

func (m *Mailbox) setError(msg string) {
	m.mu.Lock()
	m.errMsg = msg
	m.mu.Unlock()
	m.publish(EventError)
}

func (m *Mailbox) publish(kind EventKind) {
	select {
	case m.events <- Event{Kind: kind}:
	default:
	}
}

func cloneMessage(msg model.Message) model.Message {
	msg.To = append([]model.Address(nil), msg.To...)
	return msg
}

func cloneDetails(d *model.MessageDetails) *model.MessageDetails {
	c := *d
	c.Message = cloneMessage(d.Message)
	c.CC = append([]model.Address(nil), d.CC...)
	c.BCC = append([]model.Address(nil), d.BCC...)
	c.HTML = append([]string(nil), d.HTML...)
	c.Attachments = append([]model.Attachment(nil), d.Attachments...)
	return &c
}
