//go:build cuda

package gpu

// NewCUDABackend returns the CUDA backend stub enabled with the "cuda" build tag.
// It does not provide a working implementation yet.
func NewCUDABackend() Backend {
	return NewUnavailableBackend(BackendInfo{
		Name:        "cuda",
		Version:     "stub",
		Description: "CUDA sparse backend stub (no implementation)",
	})
}

// RegisterCUDABackend registers the CUDA backend stub.
func RegisterCUDABackend() {
	RegisterBackend(NewCUDABackend())
}
