package mailbox

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultPollInterval is how often an active mailbox re-fetches its inbox.
const DefaultPollInterval = 10 * time.Second

// Poller calls a refresh function on a fixed interval until stopped. The
// first refresh runs as soon as the poller starts.
type Poller struct {
	interval  time.Duration
	refresh   func(ctx context.Context) error
	logger    zerolog.Logger
	triggerCh chan struct{}
	stopCh    chan struct{}
	done      chan struct{}
	cancel    context.CancelFunc
	stopOnce  sync.Once
}

// StartPoller launches the polling goroutine and returns its handle.
func StartPoller(
	interval time.Duration,
	refresh func(ctx context.Context) error,
	logger zerolog.Logger,
) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Poller{
		interval:  interval,
		refresh:   refresh,
		logger:    logger,
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
		cancel:    cancel,
	}
	go p.run(ctx)
	return p
}

// Trigger requests an immediate refresh. It never blocks; a trigger that
// arrives while one is already pending is dropped.
func (p *Poller) Trigger() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

// Stop cancels any in-flight refresh and waits for the goroutine to exit.
// It is safe to call more than once.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
		p.cancel()
	})
	<-p.done
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.poll(ctx)
		case <-p.triggerCh:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	select {
	case <-p.stopCh:
		return
	default:
	}

	err := p.refresh(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrBusy):
		p.logger.Debug().Msg("Refresh already in flight, skipping tick")
	case errors.Is(err, ErrStale), errors.Is(err, context.Canceled):
	default:
		p.logger.Warn().Err(err).Msg("Poll failed")
	}
}
