// Package workers implements the work-stealing thread pool described in
// spec §4.3: a fixed number of goroutines, each owning a local deque, plus
// one global injector queue, with epoch-based cooperative cancellation.
//
// Translated from the teacher's corpus reference point, the original
// Rust implementation's crossbeam Injector/Worker deque
// (original_source/src/core/workers.rs), into Go idiom: Go has no
// lock-free work-stealing deque in the retrieval pack, so each worker's
// local deque is a short mutex-guarded slice (documented stdlib choice,
// see DESIGN.md) used as a LIFO stack; the injector is a buffered channel
// drained FIFO.
package workers

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// Job is a boxed one-shot unit of work. It receives a Handle bound to the
// worker currently running it, so a job may fan out follow-up work onto
// its own worker's local deque (e.g. a CompNode composing a frame can push
// its per-layer child computes locally, so they run next on the same
// worker for cache locality — spec §4.3 step 1's rationale for LIFO
// local-deque ordering) instead of always round-tripping through the
// injector.
type Job func(h *Handle)

// Handle is passed to a running Job, scoped to the worker executing it.
type Handle struct {
	pool     *Pool
	workerID int
}

// SubmitLocal pushes j onto the calling worker's own deque (LIFO: it will
// be the next job that worker pops, ahead of injector/stolen work).
func (h *Handle) SubmitLocal(j Job) {
	h.pool.deques[h.workerID].pushFront(j)
}

// Pool returns the pool this handle belongs to, for submitting
// epoch-tagged follow-up work via the normal injector path.
func (h *Handle) Pool() *Pool {
	return h.pool
}

// pollInterval is how long an idle worker sleeps between steal attempts
// (spec §4.3 step 5).
const pollInterval = time.Millisecond

// localDeque is a mutex-guarded LIFO slice standing in for a lock-free
// work-stealing deque (see package doc).
type localDeque struct {
	mu    sync.Mutex
	items []Job
}

func (d *localDeque) pushFront(j Job) {
	d.mu.Lock()
	d.items = append(d.items, j)
	d.mu.Unlock()
}

// popFront pops the most recently pushed job (LIFO, for cache locality).
func (d *localDeque) popFront() (Job, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(d.items)
	if n == 0 {
		return nil, false
	}
	j := d.items[n-1]
	d.items = d.items[:n-1]
	return j, true
}

// stealFromBack steals the oldest job in the deque (FIFO order for
// stolen work, per spec §4.3 step 3).
func (d *localDeque) stealFromBack() (Job, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.items) == 0 {
		return nil, false
	}
	j := d.items[0]
	d.items = d.items[1:]
	return j, true
}

// Pool is Workers: a fixed-size work-stealing pool sharing an epoch
// counter with the rest of the core.
type Pool struct {
	injector chan Job
	deques   []*localDeque

	epoch    *atomic.Uint64 // shared with cachemgr.Manager
	shutdown atomic.Bool
	wg       sync.WaitGroup

	sem *semaphore.Weighted // bounds concurrent in-flight steals
}

// DefaultThreadCount returns fraction of hardware concurrency, minimum 1
// (spec §4.3's recommended sizing, default fraction 0.75 via
// config.Config.WorkerThreadFraction).
func DefaultThreadCount(fraction float64) int {
	n := int(float64(runtime.NumCPU()) * fraction)
	if n < 1 {
		return 1
	}
	return n
}

// New creates and starts a pool of numThreads workers sharing epoch as the
// cancellation token.
func New(numThreads int, epoch *atomic.Uint64) *Pool {
	if numThreads < 1 {
		numThreads = 1
	}
	p := &Pool{
		injector: make(chan Job, 4096),
		deques:   make([]*localDeque, numThreads),
		epoch:    epoch,
		sem:      semaphore.NewWeighted(int64(numThreads)),
	}
	for i := range p.deques {
		p.deques[i] = &localDeque{}
	}
	for i := 0; i < numThreads; i++ {
		p.wg.Add(1)
		go p.loop(i)
	}
	return p
}

func (p *Pool) loop(id int) {
	defer p.wg.Done()
	own := p.deques[id]
	h := &Handle{pool: p, workerID: id}
	for {
		if j, ok := own.popFront(); ok {
			p.run(j, h)
			continue
		}
		if j, ok := p.tryInjector(); ok {
			p.run(j, h)
			continue
		}
		if j, ok := p.stealFromPeers(id); ok {
			p.run(j, h)
			continue
		}
		if p.shutdown.Load() {
			return
		}
		time.Sleep(pollInterval)
	}
}

func (p *Pool) tryInjector() (Job, bool) {
	select {
	case j := <-p.injector:
		return j, true
	default:
		return nil, false
	}
}

func (p *Pool) stealFromPeers(skip int) (Job, bool) {
	for i, d := range p.deques {
		if i == skip {
			continue
		}
		if j, ok := d.stealFromBack(); ok {
			return j, true
		}
	}
	return nil, false
}

func (p *Pool) run(j Job, h *Handle) {
	// Acquire never blocks meaningfully here: sem's weight equals the
	// worker count, so each worker's own run() call always has a unit
	// available. It caps concurrently running jobs at the worker count;
	// submitters (including the preloader) never acquire it.
	_ = p.sem.Acquire(context.Background(), 1)
	defer p.sem.Release(1)
	runGuarded(j, h)
}

// runGuarded executes j inside a panic guard; a panicking job is logged and
// the worker thread continues (spec §7: "worker panics are caught at the
// worker boundary").
func runGuarded(j Job, h *Handle) {
	defer func() {
		if r := recover(); r != nil {
			panicLogger(r)
		}
	}()
	j(h)
}

// panicLogger is overridable by tests; production wiring installs
// log.Printf via SetPanicLogger.
var panicLogger = func(r any) {}

// SetPanicLogger installs the callback invoked when a job panics.
func SetPanicLogger(f func(r any)) {
	panicLogger = f
}

// Submit pushes a job to the global injector (spec §4.3).
func (p *Pool) Submit(j Job) {
	if p.shutdown.Load() {
		return // ShutdownInProgress: drop silently, spec §7
	}
	p.injector <- j
}

// SubmitEpoch wraps j so it first reads the shared current epoch; if it
// differs from the carried epoch, the job is silently dropped (spec §4.3,
// §5: "the only cancellation mechanism").
func (p *Pool) SubmitEpoch(epoch uint64, j Job) {
	p.Submit(func(h *Handle) {
		if p.epoch.Load() == epoch {
			j(h)
		}
	})
}

// CurrentEpoch returns the shared epoch value.
func (p *Pool) CurrentEpoch() uint64 {
	return p.epoch.Load()
}

// Stop signals shutdown and waits up to deadline for workers to drain,
// then abandons remaining goroutines to process termination (spec §4.3,
// config.Config.ShutdownDeadline).
func (p *Pool) Stop(deadline time.Duration) {
	p.shutdown.Store(true)
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(deadline):
	}
}
