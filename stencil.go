package algolinalg

import (
	"fmt"
)

// Stencil is a matrix-free Laplace operator on a regular grid with
// homogeneous Dirichlet boundaries. Stencils live on the host only:
// MoveToAccelerator reports ErrNotImplemented and leaves the stencil where
// it is.
type Stencil[T Float] struct {
	Object

	kind StencilKind
	size int64
}

// NewStencil returns a stencil of the given kind bound to ctx, with an
// empty grid. A nil ctx selects HostContext().
func NewStencil[T Float](ctx *Context, name string, kind StencilKind) (*Stencil[T], error) {
	if kind.NDim() == 0 {
		return nil, fmt.Errorf("%w: stencil kind %d", ErrNotImplemented, kind)
	}
	s := &Stencil[T]{kind: kind}
	s.init(ctx, name)
	s.track(s)
	s.logger().V(4).Info("Stencil created", "name", name, "kind", kind)
	return s, nil
}

// Kind returns the stencil kind.
func (s *Stencil[T]) Kind() StencilKind {
	return s.kind
}

// NDim returns the grid dimension.
func (s *Stencil[T]) NDim() int {
	return s.kind.NDim()
}

// SetGrid sets the number of grid points per dimension.
func (s *Stencil[T]) SetGrid(size int64) error {
	if size < 0 {
		return violationf(ErrDimensionMismatch, "negative grid size %d", size)
	}
	s.size = size
	return nil
}

// Grid returns the number of grid points per dimension.
func (s *Stencil[T]) Grid() int64 {
	return s.size
}

// M returns the number of rows of the equivalent matrix.
func (s *Stencil[T]) M() int64 {
	if s == nil {
		return 0
	}
	return ipow(s.size, s.NDim())
}

// N returns the number of columns of the equivalent matrix.
func (s *Stencil[T]) N() int64 {
	return s.M()
}

// Nnz returns the number of nonzeros of the equivalent matrix: one
// diagonal entry per point plus one entry per interior grid edge, counted
// in both directions.
func (s *Stencil[T]) Nnz() int64 {
	if s == nil || s.size == 0 {
		return 0
	}
	d := int64(s.NDim())
	edges := d * (s.size - 1) * ipow(s.size, int(d)-1)
	return s.M() + 2*edges
}

func ipow(base int64, exp int) int64 {
	r := int64(1)
	for range exp {
		r *= base
	}
	return r
}

func (s *Stencil[T]) isHost() bool  { return true }
func (s *Stencil[T]) isAccel() bool { return false }

// Apply computes out = L·in.
func (s *Stencil[T]) Apply(in, out *Vector[T]) error {
	return s.apply(in, out, 1, 0)
}

// ApplyAdd computes out += scalar·L·in.
func (s *Stencil[T]) ApplyAdd(in *Vector[T], scalar T, out *Vector[T]) error {
	return s.apply(in, out, scalar, 1)
}

func (s *Stencil[T]) apply(in, out *Vector[T], alpha, beta T) error {
	if in == nil || out == nil {
		return violation(ErrNilVector)
	}
	if in == out {
		return violation(ErrAliasedVectors)
	}
	if err := in.Sync(); err != nil {
		return err
	}
	if err := out.Sync(); err != nil {
		return err
	}

	m := s.M()
	if in.Len() != m {
		return violationf(ErrDimensionMismatch, "input has %d elements, %s has %d points", in.Len(), s.name, m)
	}
	if out.Len() == 0 && m > 0 {
		if err := out.Allocate(m); err != nil {
			return err
		}
	}
	if out.Len() != m {
		return violationf(ErrDimensionMismatch, "output has %d elements, %s has %d points", out.Len(), s.name, m)
	}
	if !in.isHost() || !out.isHost() {
		return violationf(ErrResidencyMismatch, "stencil %s requires host vectors", s.name)
	}

	x, y := in.hostData(), out.hostData()
	ndim := s.NDim()
	diag := T(2 * ndim)

	// stride of dimension k is size^k
	for i := range m {
		sum := diag * x[i]
		stride := int64(1)
		for range ndim {
			coord := (i / stride) % s.size
			if coord > 0 {
				sum -= x[i-stride]
			}
			if coord < s.size-1 {
				sum -= x[i+stride]
			}
			stride *= s.size
		}
		y[i] = alpha*sum + beta*y[i]
	}
	return nil
}

// MoveToAccelerator returns ErrNotImplemented; stencils have no device
// representation.
func (s *Stencil[T]) MoveToAccelerator() error {
	return fmt.Errorf("%w: stencil %s on accelerator", ErrNotImplemented, s.name)
}

// MoveToAcceleratorAsync returns ErrNotImplemented.
func (s *Stencil[T]) MoveToAcceleratorAsync() error {
	return s.MoveToAccelerator()
}

// MoveToHost is a no-op.
func (s *Stencil[T]) MoveToHost() error { return nil }

// MoveToHostAsync is a no-op.
func (s *Stencil[T]) MoveToHostAsync() error { return nil }

// Sync is a no-op.
func (s *Stencil[T]) Sync() error { return nil }

// CloneBackend adopts the binding of src. The stencil stays on the host
// even when src resides on the accelerator.
func (s *Stencil[T]) CloneBackend(src Binder) error {
	b := src.Binding()
	if b.ctx == nil {
		b = Binding{ctx: HostContext()}
	}
	s.binding = b
	return nil
}

// Clear resets the grid.
func (s *Stencil[T]) Clear() {
	s.size = 0
}

// Close clears the stencil and unregisters it.
func (s *Stencil[T]) Close() error {
	s.Clear()
	s.untrack(s)
	return nil
}

// Info describes the stencil.
func (s *Stencil[T]) Info() string {
	return fmt.Sprintf("Stencil name=%s; kind=%s; ndim=%d; size=%d; rows=%d; nnz=%d; prec=%dbit; host backend only",
		s.name, s.kind, s.NDim(), s.size, s.M(), s.Nnz(), precisionBits[T]())
}
