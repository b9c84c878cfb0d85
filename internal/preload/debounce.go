package preload

import (
	"sync"
	"time"
)

// Debouncer coalesces repeated Trigger calls into a single delayed fire,
// so a slider scrub doesn't thrash the worker pool with discarded
// full-radius preloads. Grounded on willow/fps.go's tick/interval
// bookkeeping style, generalized from a per-frame accumulator to a
// resettable one-shot timer.
type Debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
	delay time.Duration
}

// NewDebouncer creates a Debouncer that waits delay after the last Trigger
// call before firing (spec §4.7's ~500ms default, config.Config.DebounceInterval).
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger (re)starts the delay window; fn runs once after the window
// elapses without an intervening Trigger call. A call arriving during the
// window cancels the previous timer before it fires.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Cancel stops any pending fire without running fn.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
