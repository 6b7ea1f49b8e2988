package gpu

import "sync"

// Backend is implemented by GPU backends (CUDA, ROCm, Metal, Vulkan, etc.).
// It is responsible for device discovery and context creation.
type Backend interface {
	Info() BackendInfo
	Available() bool
	Devices() ([]DeviceInfo, error)
	NewContext(deviceIndex int) (Context, error)
}

// Context represents a backend-specific GPU context tied to a device.
type Context interface {
	Device() DeviceInfo
	// NewBuffer allocates a device buffer of elemCount elements.
	NewBuffer(elemCount int, kind ElemKind) (Buffer, error)
	// NewStream creates an execution stream/queue.
	NewStream() (Stream, error)
	// NewLUPlan creates a sparse LU plan for n×n systems with values of the given kind.
	NewLUPlan(n int, kind ElemKind) (LUPlan, error)
	Close() error
}

// Buffer is a device buffer.
type Buffer interface {
	Len() int
	Kind() ElemKind
	// Upload copies from host to device.
	Upload(src any) error
	// Download copies from device to host.
	Download(dst any) error
	Close() error
}

// AsyncBuffer is a Buffer whose transfers can be queued on a stream.
// The host slice must stay untouched until the stream is synchronized.
type AsyncBuffer interface {
	Buffer
	UploadAsync(src any, s Stream) (Event, error)
	DownloadAsync(dst any, s Stream) (Event, error)
}

// Event completes when one queued operation has run.
type Event interface {
	// Wait blocks until the operation has run and returns its error.
	Wait() error
}

// Stream represents an execution queue/stream.
type Stream interface {
	// Synchronize blocks until all queued work has finished. Failures of
	// individual operations are reported by their Event, not here.
	Synchronize() error
	Close() error
}

// LUPlan factorizes a CSR matrix held in device buffers and solves
// systems against the factorization.
type LUPlan interface {
	Len() int
	Kind() ElemKind
	// Factor factorizes the matrix given by rowPtr, colInd (int32) and values.
	Factor(rowPtr, colInd, values Buffer) error
	// Solve writes the solution of A·dst = src into dst.
	Solve(dst, src Buffer) error
	Close() error
}

// SpMVContext is implemented by contexts that can run sparse
// matrix-vector products on the device: dst = alpha·A·src + beta·dst.
type SpMVContext interface {
	SpMV(dst Buffer, rowPtr, colInd, values Buffer, src Buffer, alpha, beta float64) error
}

var (
	backendMu sync.RWMutex
	backend   Backend
)

// RegisterBackend registers a GPU backend. Passing nil clears the backend.
func RegisterBackend(b Backend) {
	backendMu.Lock()
	backend = b
	backendMu.Unlock()
}

// CurrentBackendInfo reports the currently registered backend, if any.
func CurrentBackendInfo() (BackendInfo, bool) {
	b := Current()
	if b == nil {
		return BackendInfo{}, false
	}
	return b.Info(), true
}

// Current returns the registered backend or nil.
func Current() Backend {
	backendMu.RLock()
	b := backend
	backendMu.RUnlock()
	return b
}
