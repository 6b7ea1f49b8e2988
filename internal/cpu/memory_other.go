//go:build !linux

package cpu

// HostMemoryMB returns 0 on platforms without a memory query.
func HostMemoryMB() int {
	return 0
}
