// Package cachemgr implements CacheManager: the process-wide, lock-free
// memory accountant and epoch counter shared by FrameCache and Workers
// (spec §4.1). It is never a singleton — one instance is created at
// startup and passed into every consumer, the same non-global-state
// discipline the teacher applies to its Scene/Camera wiring.
package cachemgr

import "sync/atomic"

const (
	// DefaultMemoryFraction is the fraction of currently-available system
	// memory the cache budget is derived from.
	DefaultMemoryFraction = 0.75
	// DefaultReservedFloor never counts toward the budget.
	DefaultReservedFloor = 2 << 30 // 2 GB
)

// Manager is CacheManager: atomic counters only, no locks.
type Manager struct {
	used      atomic.Int64
	limit     atomic.Int64
	epoch     atomic.Uint64
	evictions atomic.Uint64
	evictedBy atomic.Int64 // bytes evicted, lifetime total
}

// New creates a Manager with the given byte limit. Callers typically derive
// limit from internal/sysmem's available-memory probe via
// sysmem.BudgetBytes, as cmd/playa does.
func New(limitBytes int64) *Manager {
	m := &Manager{}
	m.limit.Store(limitBytes)
	return m
}

// Add accounts for bytes just inserted into the cache.
func (m *Manager) Add(n int64) {
	m.used.Add(n)
}

// Free accounts for bytes just evicted or released from the cache.
func (m *Manager) Free(n int64) {
	m.used.Add(-n)
	m.evictions.Add(1)
	m.evictedBy.Add(n)
}

// Used returns the currently accounted byte usage.
func (m *Manager) Used() int64 {
	return m.used.Load()
}

// Limit returns the configured byte budget.
func (m *Manager) Limit() int64 {
	return m.limit.Load()
}

// SetLimit updates the budget, e.g. in response to a user preference change.
func (m *Manager) SetLimit(n int64) {
	m.limit.Store(n)
}

// OverLimit reports whether usage currently exceeds the budget. Insertion
// may briefly exceed the limit while eviction catches up (spec §4.1); this
// is the check FrameCache polls to decide whether to keep evicting.
func (m *Manager) OverLimit() bool {
	return m.Used() > m.Limit()
}

// Epoch returns the current epoch token.
func (m *Manager) Epoch() uint64 {
	return m.epoch.Load()
}

// BumpEpoch monotonically increases the epoch, cancelling all future work
// items carrying an older epoch (spec §4.1, §5).
func (m *Manager) BumpEpoch() uint64 {
	return m.epoch.Add(1)
}

// Evictions returns the lifetime count of evicted cache entries
// (SPEC_FULL §12 addition, for the status-bar memory display).
func (m *Manager) Evictions() uint64 {
	return m.evictions.Load()
}

// BytesEvictedTotal returns the lifetime sum of evicted bytes.
func (m *Manager) BytesEvictedTotal() int64 {
	return m.evictedBy.Load()
}
