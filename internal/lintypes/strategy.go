package lintypes

// StencilKind selects the finite-difference stencil of a stencil operator.
type StencilKind uint8

const (
	StencilLaplace1D StencilKind = iota + 1 // 3-point
	StencilLaplace2D                        // 5-point
	StencilLaplace3D                        // 7-point
)

// NDim reports the number of grid dimensions the stencil operates on.
func (k StencilKind) NDim() int {
	switch k {
	case StencilLaplace1D:
		return 1
	case StencilLaplace2D:
		return 2
	case StencilLaplace3D:
		return 3
	default:
		return 0
	}
}

// String returns a human-readable name for the stencil kind.
func (k StencilKind) String() string {
	switch k {
	case StencilLaplace1D:
		return "laplace1d"
	case StencilLaplace2D:
		return "laplace2d"
	case StencilLaplace3D:
		return "laplace3d"
	default:
		return "unknown"
	}
}
