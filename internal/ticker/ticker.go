// Package ticker drives passive income: every interval it credits the
// engine with one interval's worth of yield.
package ticker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is short enough to feel continuous without flooding observers
const DefaultInterval = 100 * time.Millisecond

// ErrRunning is returned by Start when the ticker is already running
var ErrRunning = errors.New("ticker already running")

// Accruer credits passive yield for an elapsed duration and returns the
// amount credited
type Accruer interface {
	AccruePassive(elapsed time.Duration) float64
}

// Ticker periodically calls AccruePassive with a fixed interval. Each tick
// credits exactly one interval, so restarts never double-credit.
type Ticker struct {
	accruer  Accruer
	interval time.Duration
	log      *zap.Logger

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// New creates a stopped ticker. A non-positive interval uses DefaultInterval.
func New(accruer Accruer, interval time.Duration, logger *zap.Logger) *Ticker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ticker{accruer: accruer, interval: interval, log: logger}
}

// Interval returns the tick period
func (t *Ticker) Interval() time.Duration {
	return t.interval
}

// Start launches the loop. It runs until Stop is called or ctx is done.
func (t *Ticker) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stop != nil {
		return ErrRunning
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	t.stop = stop
	t.done = done

	go t.run(ctx, stop, done)
	t.log.Debug("Ticker started", zap.Duration("interval", t.interval))
	return nil
}

// Stop ends the loop and waits for it to exit. No credit is applied after
// Stop returns. Stopping a stopped ticker is a no-op.
func (t *Ticker) Stop() {
	t.mu.Lock()
	stop, done := t.stop, t.done
	t.stop, t.done = nil, nil
	t.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
	t.log.Debug("Ticker stopped")
}

// Running reports whether the loop is active
func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}

// Tick performs one credit step synchronously
func (t *Ticker) Tick() float64 {
	return t.accruer.AccruePassive(t.interval)
}

func (t *Ticker) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	tk := time.NewTicker(t.interval)
	defer tk.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			t.detach(stop)
			return
		case <-tk.C:
			// A stop racing with this tick wins.
			select {
			case <-stop:
				return
			default:
			}
			t.Tick()
		}
	}
}

// detach clears the running state after a context cancellation so the
// ticker can be started again
func (t *Ticker) detach(stop <-chan struct{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop == stop {
		t.stop, t.done = nil, nil
	}
}
