// Package sysmem probes currently-available system memory so CacheManager
// can derive its byte budget from a configured fraction of it, with a
// reserved floor that never counts toward the budget (spec §4.1).
package sysmem

// BudgetBytes returns the cache byte budget: fraction of (currently
// available system memory minus the reserved floor), never negative. When
// available is 0 or less (unknown), the reserved floor itself is returned
// as a fixed fallback budget. available is the raw system probe result
// (see Available()).
func BudgetBytes(available int64, fraction float64, reservedFloor int64) int64 {
	if available <= 0 {
		return reservedFloor
	}
	usable := available - reservedFloor
	if usable < 0 {
		usable = 0
	}
	budget := int64(float64(usable) * fraction)
	if budget < 0 {
		return 0
	}
	return budget
}

// Available returns the current available physical memory in bytes, using
// the most specific probe the platform build provides (see sysmem_linux.go,
// sysmem_other.go). Returns 0 if it cannot be determined, in which case
// callers should fall back to a fixed default budget.
func Available() int64 {
	return available()
}
