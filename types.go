package algolinalg

import (
	"github.com/cwbudde/algo-linalg/gpu"
	"github.com/cwbudde/algo-linalg/internal/lintypes"
)

// Float is the value type constraint for vectors, matrices and solvers.
// The canonical definition is in internal/lintypes.
type Float = lintypes.Float

// StencilKind selects the finite-difference stencil of a Stencil.
type StencilKind = lintypes.StencilKind

// Supported stencils.
const (
	StencilLaplace1D = lintypes.StencilLaplace1D
	StencilLaplace2D = lintypes.StencilLaplace2D
	StencilLaplace3D = lintypes.StencilLaplace3D
)

// Location identifies the backend an object's data currently resides on.
type Location uint8

const (
	Host Location = iota
	Accelerator
)

func (l Location) String() string {
	switch l {
	case Host:
		return "host"
	case Accelerator:
		return "accelerator"
	default:
		return "unknown"
	}
}

// elemKind maps a value type to its device buffer element kind.
func elemKind[T Float]() gpu.ElemKind {
	var zero T
	if _, ok := any(zero).(float32); ok {
		return gpu.ElemFloat32
	}
	return gpu.ElemFloat64
}

// precisionBits reports the value size in bits for diagnostics.
func precisionBits[T Float]() int {
	return elemKind[T]().Size() * 8
}

func toFloat64[T Float](src []T) []float64 {
	out := make([]float64, len(src))
	for i, v := range src {
		out[i] = float64(v)
	}
	return out
}

func fromFloat64[T Float](dst []T, src []float64) {
	for i := range dst {
		dst[i] = T(src[i])
	}
}
