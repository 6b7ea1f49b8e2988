package gpu

import "errors"

var (
	// ErrNoBackend is returned when no GPU backend is registered.
	ErrNoBackend = errors.New("algolinalg/gpu: no backend registered")

	// ErrBackendUnavailable is returned when the backend is registered but not available
	// on the current system (e.g., no device, driver missing).
	ErrBackendUnavailable = errors.New("algolinalg/gpu: backend unavailable")

	// ErrNotImplemented is returned by stubbed operations.
	ErrNotImplemented = errors.New("algolinalg/gpu: not implemented")

	// ErrInvalidLength is returned for negative buffer sizes or empty plans.
	ErrInvalidLength = errors.New("algolinalg/gpu: invalid length")

	// ErrLengthMismatch is returned when host slices are shorter than the buffer.
	ErrLengthMismatch = errors.New("algolinalg/gpu: length mismatch")

	// ErrTypeMismatch is returned when a host slice or buffer has the wrong element kind.
	ErrTypeMismatch = errors.New("algolinalg/gpu: element type mismatch")

	// ErrForeignBuffer is returned when a buffer from another context is passed in.
	ErrForeignBuffer = errors.New("algolinalg/gpu: buffer belongs to another context")

	// ErrBufferClosed is returned when a closed buffer is used.
	ErrBufferClosed = errors.New("algolinalg/gpu: buffer closed")

	// ErrStreamClosed is returned when work is enqueued on a closed stream.
	ErrStreamClosed = errors.New("algolinalg/gpu: stream closed")

	// ErrOutOfMemory is returned when the device cannot hold another allocation.
	ErrOutOfMemory = errors.New("algolinalg/gpu: out of device memory")

	// ErrNotFactored is returned when an LU plan is solved before Factor.
	ErrNotFactored = errors.New("algolinalg/gpu: plan not factored")
)
