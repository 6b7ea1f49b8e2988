package gpu

// NewUnavailableBackend returns a backend that registers under info but never
// reports a usable device. Device builds use it until a real implementation
// lands; it is also handy for exercising the unavailable path.
func NewUnavailableBackend(info BackendInfo) Backend {
	return &stubBackend{info: info}
}

type stubBackend struct {
	info BackendInfo
}

func (b *stubBackend) Info() BackendInfo {
	return b.info
}

func (b *stubBackend) Available() bool {
	return false
}

func (b *stubBackend) Devices() ([]DeviceInfo, error) {
	return nil, ErrBackendUnavailable
}

func (b *stubBackend) NewContext(_ int) (Context, error) {
	return nil, ErrBackendUnavailable
}
