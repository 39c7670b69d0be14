// Package poller runs a cancellable repeating fetch loop. Polling is the
// runtime's only freshness mechanism; each surface owns one loop and
// tolerates skipped cycles.
package poller

import (
	"context"
	"log"
	"strings"
	"sync/atomic"
	"time"
)

const defaultInterval = 30 * time.Second

// Func runs one poll cycle. Errors are logged and the next tick retries;
// there is no backoff for this low-frequency convenience polling.
type Func func(ctx context.Context) error

// Poller repeatedly invokes a fetch function on an interval and on explicit
// triggers.
type Poller struct {
	name     string
	interval atomic.Int64
	run      Func
	trigger  chan struct{}
}

// New builds a poller. Name appears in log lines; a non-positive interval
// falls back to a conservative default.
func New(name string, interval time.Duration, run Func) *Poller {
	if interval <= 0 {
		interval = defaultInterval
	}
	p := &Poller{
		name:    strings.TrimSpace(name),
		run:     run,
		trigger: make(chan struct{}, 1),
	}
	p.interval.Store(int64(interval))
	return p
}

// SetInterval changes the poll cadence. The running loop picks the new
// interval up after its next cycle; a no-op change is ignored. Safe from any
// goroutine.
func (p *Poller) SetInterval(interval time.Duration) {
	if p == nil || interval <= 0 {
		return
	}
	p.interval.Store(int64(interval))
}

// Trigger requests an immediate cycle ahead of the next tick, coalescing
// with any already-pending trigger. Safe from any goroutine.
func (p *Poller) Trigger() {
	if p == nil {
		return
	}
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Run executes the loop until ctx is cancelled. The first cycle runs
// immediately rather than waiting for the first tick.
func (p *Poller) Run(ctx context.Context) {
	if p == nil || p.run == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	p.cycle(ctx)

	interval := time.Duration(p.interval.Load())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.cycle(ctx)
		case <-p.trigger:
			p.cycle(ctx)
		}
		if next := time.Duration(p.interval.Load()); next != interval {
			interval = next
			ticker.Reset(interval)
		}
	}
}

// Start launches Run on its own goroutine and returns a cancel function plus
// a channel closed when the loop exits.
func (p *Poller) Start(ctx context.Context) (context.CancelFunc, chan struct{}) {
	if p == nil || p.run == nil {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(runCtx)
	}()
	return cancel, done
}

func (p *Poller) cycle(ctx context.Context) {
	if err := p.run(ctx); err != nil && ctx.Err() == nil {
		log.Printf("%s poll failed: %v", p.name, err)
	}
}
