// Package gpu defines the accelerator backend used by algolinalg objects.
//
// A Backend enumerates devices and opens a Context on one of them. The
// context allocates typed device buffers, creates execution streams and
// builds LU plans that factorize and solve CSR systems resident in device
// buffers. Buffers that also implement AsyncBuffer can transfer on a stream
// without blocking the caller; Stream.Synchronize is the join point.
//
// Real device backends are selected with build tags (cuda, hip, opencl) and are
// currently stubs. MockBackend keeps "device" memory in separate host
// allocations and runs transfers on a background goroutine, which makes it
// suitable for exercising relocation logic in tests.
package gpu
