//go:build opencl

package gpu

// NewOpenCLBackend returns the OpenCL backend stub enabled with the "opencl" build tag.
// It does not provide a working implementation yet.
func NewOpenCLBackend() Backend {
	return NewUnavailableBackend(BackendInfo{
		Name:        "opencl",
		Version:     "stub",
		Description: "OpenCL sparse backend stub (no implementation)",
	})
}

// RegisterOpenCLBackend registers the OpenCL backend stub.
func RegisterOpenCLBackend() {
	RegisterBackend(NewOpenCLBackend())
}
