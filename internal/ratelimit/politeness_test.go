package ratelimit

import (
	"context"
	"testing"
	"time"
)

// fetch simulates one polite fetch taking d.
func fetch(t *testing.T, p *Politeness, d time.Duration) {
	t.Helper()
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	time.Sleep(d)
	p.Done()
}

func TestPoliteness_SpacesFetches(t *testing.T) {
	p := NewPoliteness(50 * time.Millisecond)

	start := time.Now()
	for i := 0; i < 3; i++ {
		fetch(t, p, 0)
	}
	elapsed := time.Since(start)

	// first fetch is free, the next two wait one delay each
	if elapsed < 90*time.Millisecond {
		t.Errorf("3 fetches took %v, want at least ~100ms", elapsed)
	}
}

func TestPoliteness_PauseAfterSlowFetch(t *testing.T) {
	p := NewPoliteness(100 * time.Millisecond)

	fetch(t, p, 150*time.Millisecond)

	end := time.Now()
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if pause := time.Since(end); pause < 90*time.Millisecond {
		t.Errorf("pause after a slow fetch = %v, want ~100ms", pause)
	}
}

func TestPoliteness_WaitWithoutDoneDoesNotPause(t *testing.T) {
	p := NewPoliteness(time.Hour)

	start := time.Now()
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Error("first Wait() should not block")
	}
}

func TestPoliteness_ZeroDelay(t *testing.T) {
	p := NewPoliteness(0)

	start := time.Now()
	for i := 0; i < 100; i++ {
		fetch(t, p, 0)
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Error("zero delay should never block")
	}
	if p.Delay() != 0 {
		t.Errorf("Delay() = %v, want 0", p.Delay())
	}
}

func TestPoliteness_ContextCancel(t *testing.T) {
	p := NewPoliteness(time.Hour)
	fetch(t, p, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := p.Wait(ctx); err == nil {
		t.Error("Wait() should fail when the context ends before the delay")
	}
}
