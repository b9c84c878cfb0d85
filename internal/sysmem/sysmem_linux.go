//go:build linux

package sysmem

import "golang.org/x/sys/unix"

// available reads /proc-free physical memory via the Sysinfo syscall
// (golang.org/x/sys/unix), approximating "available" as free + buffer
// memory, in bytes; page cache is not counted.
func available() int64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0
	}
	unit := uint64(info.Unit)
	if unit == 0 {
		unit = 1
	}
	freeBytes := uint64(info.Freeram) * unit
	bufferBytes := uint64(info.Bufferram) * unit
	return int64(freeBytes + bufferBytes)
}
