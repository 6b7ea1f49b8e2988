//go:build linux

package cpu

import "golang.org/x/sys/unix"

// HostMemoryMB reports the total physical memory of the host in megabytes.
// It returns 0 when the kernel query fails.
func HostMemoryMB() int {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0
	}
	unit := uint64(info.Unit)
	if unit == 0 {
		unit = 1
	}
	return int(uint64(info.Totalram) * unit / (1 << 20))
}
