//go:build !linux

package sysmem

// available has no portable syscall route outside Linux in this build; the
// caller falls back to a fixed default budget when it returns 0 (see
// BudgetBytes).
func available() int64 {
	return 0
}
