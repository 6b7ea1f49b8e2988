// Package cpu describes the host processor the library runs on.
package cpu

import (
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"
)

// Features describes host CPU capabilities reported in device info.
type Features struct {
	HasSSE2      bool
	HasAVX2      bool
	HasAVX512    bool
	HasFMA       bool
	HasNEON      bool
	Architecture string
	NumCPU       int
}

// DetectFeatures reports the available CPU features for the current process.
func DetectFeatures() Features {
	return Features{
		HasSSE2:      cpu.X86.HasSSE2,
		HasAVX2:      cpu.X86.HasAVX2,
		HasAVX512:    cpu.X86.HasAVX512,
		HasFMA:       cpu.X86.HasFMA,
		HasNEON:      cpu.ARM64.HasASIMD,
		Architecture: runtime.GOARCH,
		NumCPU:       runtime.NumCPU(),
	}
}

// SIMD returns the detected vector extensions as a comma-separated list,
// or "generic" when none were found.
func (f Features) SIMD() string {
	var ext []string
	if f.HasSSE2 {
		ext = append(ext, "sse2")
	}
	if f.HasAVX2 {
		ext = append(ext, "avx2")
	}
	if f.HasAVX512 {
		ext = append(ext, "avx512")
	}
	if f.HasFMA {
		ext = append(ext, "fma")
	}
	if f.HasNEON {
		ext = append(ext, "neon")
	}
	if len(ext) == 0 {
		return "generic"
	}
	return strings.Join(ext, ",")
}
