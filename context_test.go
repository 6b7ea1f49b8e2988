package algolinalg

import (
	"errors"
	"strings"
	"testing"

	"github.com/cwbudde/algo-linalg/gpu"
)

func TestHostContext(t *testing.T) {
	t.Parallel()

	ctx := HostContext()
	if ctx != HostContext() {
		t.Fatal("HostContext() returned different contexts")
	}
	if ctx.AcceleratorAvailable() {
		t.Error("AcceleratorAvailable() = true, want false")
	}
	if ctx.AsyncSupported() {
		t.Error("AsyncSupported() = true, want false")
	}
	if _, ok := ctx.Device(); ok {
		t.Error("Device() ok = true, want false")
	}
	if info := ctx.Info(); !strings.Contains(info, "accelerator backend={none}") {
		t.Errorf("Info() = %q, want no accelerator", info)
	}

	err := ctx.requireAccelerator()
	if !errors.Is(err, ErrBackendUnavailable) || !errors.Is(err, gpu.ErrNoBackend) {
		t.Errorf("requireAccelerator() = %v, want ErrBackendUnavailable wrapping gpu.ErrNoBackend", err)
	}
}

func TestNewContextUnavailableBackend(t *testing.T) {
	t.Parallel()

	ctx, err := NewContext(ContextOptions{
		Backend: gpu.NewUnavailableBackend(gpu.BackendInfo{Name: "cuda"}),
	})
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	if ctx.AcceleratorAvailable() {
		t.Error("AcceleratorAvailable() = true, want false")
	}
	if info := ctx.Info(); !strings.Contains(info, "cuda unavailable") {
		t.Errorf("Info() = %q, want cuda unavailable", info)
	}

	err = ctx.requireAccelerator()
	if !errors.Is(err, ErrBackendUnavailable) || !errors.Is(err, gpu.ErrBackendUnavailable) {
		t.Errorf("requireAccelerator() = %v, want ErrBackendUnavailable", err)
	}
	if err := ctx.Close(); err != nil {
		t.Errorf("Close() = %v, want nil", err)
	}
}

func TestNewContextMock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		opts      gpu.MockOptions
		disable   bool
		wantAsync bool
	}{
		{name: "async", wantAsync: true},
		{name: "disabled", disable: true, wantAsync: false},
		{name: "synchronous buffers", opts: gpu.MockOptions{Synchronous: true}, wantAsync: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			backend := gpu.NewMockBackendWithOptions(tt.opts)
			ctx, err := NewContext(ContextOptions{Backend: backend, DisableAsync: tt.disable})
			if err != nil {
				t.Fatalf("NewContext: %v", err)
			}
			defer ctx.Close()

			if !ctx.AcceleratorAvailable() {
				t.Fatal("AcceleratorAvailable() = false, want true")
			}
			if got := ctx.AsyncSupported(); got != tt.wantAsync {
				t.Errorf("AsyncSupported() = %v, want %v", got, tt.wantAsync)
			}
			dev, ok := ctx.Device()
			if !ok || dev.Name != "MockGPU" {
				t.Errorf("Device() = %+v, %v; want MockGPU", dev, ok)
			}
			if info := ctx.Info(); !strings.Contains(info, "mock") || !strings.Contains(info, "MockGPU") {
				t.Errorf("Info() = %q, want mock backend and device", info)
			}
			if n := backend.LiveBuffers(); n != 0 {
				t.Errorf("LiveBuffers() after probe = %d, want 0", n)
			}
		})
	}
}

func TestNewContextBadDevice(t *testing.T) {
	t.Parallel()

	_, err := NewContext(ContextOptions{Backend: gpu.NewMockBackend(), DeviceIndex: 3})
	if err == nil {
		t.Fatal("NewContext(device 3) succeeded, want error")
	}
}

func TestContextCloseTwice(t *testing.T) {
	t.Parallel()

	ctx, err := NewContext(ContextOptions{Backend: gpu.NewMockBackend()})
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	if err := ctx.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if err := ctx.Close(); err != nil {
		t.Fatalf("second Close() = %v", err)
	}
	if ctx.AcceleratorAvailable() {
		t.Error("AcceleratorAvailable() after Close = true, want false")
	}
}

func TestContextHost(t *testing.T) {
	t.Parallel()

	h := HostContext().Host()
	if h.NumCPU < 1 {
		t.Errorf("NumCPU = %d, want >= 1", h.NumCPU)
	}
	if h.Architecture == "" || h.SIMD == "" {
		t.Errorf("Host() = %+v, want architecture and SIMD set", h)
	}
}
