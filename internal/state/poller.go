package state

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultPollInterval is the pause between the end of one refresh and the
// start of the next.
const DefaultPollInterval = 20 * time.Second

// PollState is the lifecycle of a Poller.
type PollState int

const (
	PollIdle PollState = iota
	PollActive
	PollStopped
)

func (s PollState) String() string {
	switch s {
	case PollIdle:
		return "idle"
	case PollActive:
		return "active"
	case PollStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Refresher is what the poller drives. *Store implements it.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// ErrPollerUsed is returned by Start on a poller that already ran.
var ErrPollerUsed = errors.New("poller already started")

// Poller refreshes a Refresher on a fixed period. It moves Idle -> Active ->
// Stopped and never leaves Stopped: the first failed refresh ends it.
type Poller struct {
	refresher Refresher
	interval  time.Duration
	onRefresh func(error)

	mu      sync.Mutex
	state   PollState
	lastErr error
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewPoller creates an idle poller. A non-positive interval uses
// DefaultPollInterval.
func NewPoller(r Refresher, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{refresher: r, interval: interval, done: make(chan struct{})}
}

// OnRefresh registers fn to be called after every scheduled refresh with its
// result. It must be set before Start.
func (p *Poller) OnRefresh(fn func(error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onRefresh = fn
}

// Start activates the poller when session has at least one wallet. It returns
// false, leaving the poller idle, when there is nothing to poll with. The first
// refresh runs immediately; each following one is armed only after the
// previous call returned, so refreshes never overlap.
func (p *Poller) Start(ctx context.Context, session Session) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != PollIdle {
		return false, ErrPollerUsed
	}
	if !session.HasWallets() {
		return false, nil
	}

	schedule, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.state = PollActive
	go p.run(ctx, schedule)
	return true, nil
}

// run refreshes with ctx and waits on schedule. Stop cancels only schedule, so
// an in-flight refresh completes and its result is still applied.
func (p *Poller) run(ctx, schedule context.Context) {
	defer close(p.done)
	defer p.cancel()

	for {
		err := p.refresher.Refresh(ctx)
		if schedule.Err() != nil {
			p.stop(nil)
			return
		}
		p.notify(err)
		if err != nil {
			log.Error().Err(err).Msg("refresh failed; polling stopped")
			p.stop(err)
			return
		}

		timer := time.NewTimer(p.interval)
		select {
		case <-schedule.Done():
			timer.Stop()
			p.stop(nil)
			return
		case <-timer.C:
		}
	}
}

func (p *Poller) notify(err error) {
	p.mu.Lock()
	fn := p.onRefresh
	p.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}

func (p *Poller) stop(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = PollStopped
	if err != nil {
		p.lastErr = err
	}
}

// Stop cancels the schedule. An in-flight refresh is not interrupted; no
// further refresh is armed after it.
func (p *Poller) Stop() {
	p.mu.Lock()
	switch p.state {
	case PollIdle:
		p.state = PollStopped
		close(p.done)
		p.mu.Unlock()
		return
	case PollStopped:
		p.mu.Unlock()
		return
	}
	p.state = PollStopped
	cancel := p.cancel
	p.mu.Unlock()
	cancel()
}

// State returns the current lifecycle state.
func (p *Poller) State() PollState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Err returns the refresh error that stopped the poller, if any.
func (p *Poller) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Done is closed once the poller has stopped.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

// Interval returns the configured period.
func (p *Poller) Interval() time.Duration {
	return p.interval
}
