package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type scriptedRefresher struct {
	mu       sync.Mutex
	calls    int
	inFlight int
	maxIn    int
	failAt   int // 1-based call number that fails; 0 never fails
	delay    time.Duration
}

func (r *scriptedRefresher) Refresh(context.Context) error {
	r.mu.Lock()
	r.calls++
	n := r.calls
	r.inFlight++
	if r.inFlight > r.maxIn {
		r.maxIn = r.inFlight
	}
	r.mu.Unlock()

	if r.delay > 0 {
		time.Sleep(r.delay)
	}

	r.mu.Lock()
	r.inFlight--
	r.mu.Unlock()

	if r.failAt > 0 && n >= r.failAt {
		return errors.New("server unavailable")
	}
	return nil
}

func (r *scriptedRefresher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func waitDone(t *testing.T, p *Poller) {
	t.Helper()
	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("poller did not stop; state = %s", p.State())
	}
}

func TestPollerStopsOnFirstFailure(t *testing.T) {
	r := &scriptedRefresher{failAt: 3}
	p := NewPoller(r, time.Millisecond)

	var mu sync.Mutex
	var results []error
	p.OnRefresh(func(err error) {
		mu.Lock()
		results = append(results, err)
		mu.Unlock()
	})

	started, err := p.Start(context.Background(), testSession())
	if err != nil || !started {
		t.Fatalf("Start() = %v, %v, want true, nil", started, err)
	}
	waitDone(t, p)

	if p.State() != PollStopped {
		t.Fatalf("State() = %s, want stopped", p.State())
	}
	if p.Err() == nil {
		t.Fatalf("Err() = nil, want the refresh failure")
	}
	if got := r.count(); got != 3 {
		t.Fatalf("refresh calls = %d, want 3", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(results) != 3 || results[0] != nil || results[2] == nil {
		t.Fatalf("OnRefresh results = %v, want nil, nil, error", results)
	}
}

func TestPollerDoesNotResumeAfterManualRefresh(t *testing.T) {
	r := &scriptedRefresher{failAt: 1}
	p := NewPoller(r, time.Millisecond)
	if _, err := p.Start(context.Background(), testSession()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitDone(t, p)

	// A manual refresh that now succeeds is not a schedule.
	r.mu.Lock()
	r.failAt = 0
	r.mu.Unlock()
	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("manual refresh: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	if got := r.count(); got != 2 {
		t.Fatalf("refresh calls = %d, want 2", got)
	}
	if p.State() != PollStopped {
		t.Fatalf("State() = %s, want stopped", p.State())
	}
	if _, err := p.Start(context.Background(), testSession()); !errors.Is(err, ErrPollerUsed) {
		t.Fatalf("restart error = %v, want ErrPollerUsed", err)
	}
}

func TestPollerNeverOverlapsRefreshes(t *testing.T) {
	r := &scriptedRefresher{delay: 3 * time.Millisecond}
	p := NewPoller(r, time.Millisecond)
	if _, err := p.Start(context.Background(), testSession()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for r.count() < 5 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	p.Stop()
	waitDone(t, p)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls < 5 {
		t.Fatalf("refresh calls = %d, want at least 5", r.calls)
	}
	if r.maxIn != 1 {
		t.Fatalf("max concurrent refreshes = %d, want 1", r.maxIn)
	}
}

func TestPollerStaysIdleWithoutWallets(t *testing.T) {
	r := &scriptedRefresher{}
	p := NewPoller(r, time.Millisecond)

	started, err := p.Start(context.Background(), Session{})
	if err != nil || started {
		t.Fatalf("Start() = %v, %v, want false, nil", started, err)
	}
	time.Sleep(10 * time.Millisecond)
	if p.State() != PollIdle {
		t.Fatalf("State() = %s, want idle", p.State())
	}
	if r.count() != 0 {
		t.Fatalf("refresh calls = %d, want 0", r.count())
	}

	p.Stop()
	waitDone(t, p)
	if p.State() != PollStopped {
		t.Fatalf("State() after Stop = %s, want stopped", p.State())
	}
}

func TestPollerStop(t *testing.T) {
	r := &scriptedRefresher{}
	p := NewPoller(r, time.Hour)
	if _, err := p.Start(context.Background(), testSession()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for r.count() < 1 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	p.Stop()
	p.Stop()
	waitDone(t, p)

	if p.State() != PollStopped {
		t.Fatalf("State() = %s, want stopped", p.State())
	}
	if p.Err() != nil {
		t.Fatalf("Err() = %v, want nil after Stop", p.Err())
	}
	if r.count() != 1 {
		t.Fatalf("refresh calls = %d, want 1", r.count())
	}
}

func TestPollerStopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPoller(&scriptedRefresher{}, time.Hour)
	if _, err := p.Start(ctx, testSession()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()
	waitDone(t, p)
	if p.State() != PollStopped {
		t.Fatalf("State() = %s, want stopped", p.State())
	}
}

func TestNewPollerDefaultInterval(t *testing.T) {
	if got := NewPoller(nil, 0).Interval(); got != DefaultPollInterval {
		t.Fatalf("Interval() = %v, want %v", got, DefaultPollInterval)
	}
	if PollActive.String() != "active" {
		t.Fatalf("PollActive.String() = %q", PollActive.String())
	}
}
