//go:build hip

package gpu

// NewHIPBackend returns the HIP/ROCm backend stub enabled with the "hip" build tag.
// It does not provide a working implementation yet.
func NewHIPBackend() Backend {
	return NewUnavailableBackend(BackendInfo{
		Name:        "hip",
		Version:     "stub",
		Description: "HIP sparse backend stub (no implementation)",
	})
}

// RegisterHIPBackend registers the HIP backend stub.
func RegisterHIPBackend() {
	RegisterBackend(NewHIPBackend())
}
