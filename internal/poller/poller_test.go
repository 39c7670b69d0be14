package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunExecutesImmediatelyAndOnTicks(t *testing.T) {
	t.Parallel()

	var cycles atomic.Int64
	p := New("test", 10*time.Millisecond, func(ctx context.Context) error {
		cycles.Add(1)
		return nil
	})

	cancel, done := p.Start(context.Background())
	defer cancel()

	deadline := time.After(2 * time.Second)
	for cycles.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 cycles, got %d", cycles.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestTriggerRunsAheadOfTick(t *testing.T) {
	t.Parallel()

	var cycles atomic.Int64
	p := New("test", time.Hour, func(ctx context.Context) error {
		cycles.Add(1)
		return nil
	})

	cancel, done := p.Start(context.Background())
	defer cancel()

	// Wait for the immediate first cycle.
	deadline := time.After(2 * time.Second)
	for cycles.Load() < 1 {
		select {
		case <-deadline:
			t.Fatal("first cycle never ran")
		case <-time.After(time.Millisecond):
		}
	}

	p.Trigger()
	for cycles.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("trigger cycle never ran, cycles=%d", cycles.Load())
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestErrorsDoNotStopTheLoop(t *testing.T) {
	t.Parallel()

	var cycles atomic.Int64
	p := New("test", 5*time.Millisecond, func(ctx context.Context) error {
		cycles.Add(1)
		return errors.New("transient")
	})

	cancel, done := p.Start(context.Background())
	defer cancel()

	deadline := time.After(2 * time.Second)
	for cycles.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected loop to keep running after errors, got %d cycles", cycles.Load())
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestCancelStopsLoop(t *testing.T) {
	t.Parallel()

	p := New("test", time.Millisecond, func(ctx context.Context) error { return nil })
	cancel, done := p.Start(context.Background())
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after cancel")
	}
}

func TestSetIntervalTakesEffectAfterNextCycle(t *testing.T) {
	t.Parallel()

	var cycles atomic.Int64
	p := New("test", time.Hour, func(ctx context.Context) error {
		cycles.Add(1)
		return nil
	})

	cancel, done := p.Start(context.Background())
	defer cancel()

	deadline := time.After(5 * time.Second)
	for cycles.Load() < 1 {
		select {
		case <-deadline:
			t.Fatal("first cycle never ran")
		case <-time.After(time.Millisecond):
		}
	}

	// The triggered cycle lets the loop observe the shorter interval; the
	// following cycles must then arrive on ticks well inside the original
	// hour-long cadence.
	p.SetInterval(5 * time.Millisecond)
	p.Trigger()
	for cycles.Load() < 4 {
		select {
		case <-deadline:
			t.Fatalf("ticks never sped up, cycles=%d", cycles.Load())
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestTriggerCoalesces(t *testing.T) {
	t.Parallel()

	p := New("test", time.Hour, func(ctx context.Context) error { return nil })
	// Without a running loop both sends must be non-blocking.
	p.Trigger()
	p.Trigger()
}
