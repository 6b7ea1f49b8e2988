package cpu

import (
	"runtime"
	"testing"
)

func TestDetectFeatures(t *testing.T) {
	t.Parallel()

	f := DetectFeatures()
	if f.Architecture != runtime.GOARCH {
		t.Errorf("Architecture = %q, want %q", f.Architecture, runtime.GOARCH)
	}
	if f.NumCPU < 1 {
		t.Errorf("NumCPU = %d, want >= 1", f.NumCPU)
	}
	if f.SIMD() == "" {
		t.Error("SIMD() returned empty string")
	}
}

func TestFeaturesSIMD(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		f    Features
		want string
	}{
		{"none", Features{}, "generic"},
		{"sse2", Features{HasSSE2: true}, "sse2"},
		{"x86", Features{HasSSE2: true, HasAVX2: true, HasFMA: true}, "sse2,avx2,fma"},
		{"arm", Features{HasNEON: true}, "neon"},
	}
	for _, tt := range tests {
		if got := tt.f.SIMD(); got != tt.want {
			t.Errorf("%s: SIMD() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestHostMemoryMB(t *testing.T) {
	t.Parallel()

	mb := HostMemoryMB()
	if mb < 0 {
		t.Fatalf("HostMemoryMB() = %d, want >= 0", mb)
	}
	if runtime.GOOS == "linux" && mb == 0 {
		t.Error("HostMemoryMB() = 0 on linux")
	}
}
