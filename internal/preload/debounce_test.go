package preload

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerCoalescesBursts(t *testing.T) {
	d := &Debouncer{delay: 20 * time.Millisecond}
	var calls atomic.Int32
	for i := 0; i < 10; i++ {
		d.Trigger(func() { calls.Add(1) })
		time.Sleep(2 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1 (burst should coalesce to a single fire)", got)
	}
}

func TestDebouncerCancel(t *testing.T) {
	d := &Debouncer{delay: 10 * time.Millisecond}
	var fired atomic.Bool
	d.Trigger(func() { fired.Store(true) })
	d.Cancel()
	time.Sleep(30 * time.Millisecond)
	if fired.Load() {
		t.Fatal("expected cancel to prevent the fire")
	}
}
