package workers

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmitRunsJob(t *testing.T) {
	epoch := &atomic.Uint64{}
	p := New(2, epoch)
	defer p.Stop(500 * time.Millisecond)

	var ran atomic.Bool
	var wg sync.WaitGroup
	wg.Add(1)
	p.Submit(func(h *Handle) {
		ran.Store(true)
		wg.Done()
	})
	wg.Wait()
	if !ran.Load() {
		t.Fatal("expected submitted job to run")
	}
}

func TestSubmitEpochDropsStale(t *testing.T) {
	epoch := &atomic.Uint64{}
	p := New(2, epoch)
	defer p.Stop(500 * time.Millisecond)

	var ran atomic.Bool
	staleEpoch := epoch.Load()
	epoch.Add(1) // bump before the job even gets a chance to check

	var wg sync.WaitGroup
	wg.Add(1)
	p.SubmitEpoch(staleEpoch, func(h *Handle) {
		ran.Store(true)
	})
	// Submit a second, current-epoch job to synchronize on completion.
	p.Submit(func(h *Handle) {
		wg.Done()
	})
	wg.Wait()
	time.Sleep(10 * time.Millisecond)
	if ran.Load() {
		t.Fatal("expected stale-epoch job to be dropped")
	}
}

func TestSubmitEpochRunsCurrent(t *testing.T) {
	epoch := &atomic.Uint64{}
	p := New(2, epoch)
	defer p.Stop(500 * time.Millisecond)

	var wg sync.WaitGroup
	wg.Add(1)
	p.SubmitEpoch(epoch.Load(), func(h *Handle) {
		wg.Done()
	})
	wg.Wait()
}

func TestSubmitLocalRunsOnSameWorker(t *testing.T) {
	epoch := &atomic.Uint64{}
	p := New(1, epoch)
	defer p.Stop(500 * time.Millisecond)

	var wg sync.WaitGroup
	wg.Add(1)
	p.Submit(func(h *Handle) {
		h.SubmitLocal(func(h2 *Handle) {
			wg.Done()
		})
	})
	wg.Wait()
}

func TestPanicIsRecovered(t *testing.T) {
	epoch := &atomic.Uint64{}
	p := New(1, epoch)
	defer p.Stop(500 * time.Millisecond)

	var caught atomic.Bool
	SetPanicLogger(func(r any) { caught.Store(true) })
	defer SetPanicLogger(func(r any) {})

	var wg sync.WaitGroup
	wg.Add(1)
	p.Submit(func(h *Handle) {
		defer wg.Done()
		panic("boom")
	})
	wg.Wait()
	time.Sleep(10 * time.Millisecond)
	if !caught.Load() {
		t.Fatal("expected panic to be caught by the worker guard")
	}

	// Pool should still be able to run jobs after a panic.
	var wg2 sync.WaitGroup
	wg2.Add(1)
	p.Submit(func(h *Handle) { wg2.Done() })
	wg2.Wait()
}

func TestStopDrainsWorkers(t *testing.T) {
	epoch := &atomic.Uint64{}
	p := New(4, epoch)
	var n atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		p.Submit(func(h *Handle) {
			n.Add(1)
			wg.Done()
		})
	}
	wg.Wait()
	p.Stop(500 * time.Millisecond)
	if n.Load() != 50 {
		t.Fatalf("n = %d, want 50", n.Load())
	}
}
