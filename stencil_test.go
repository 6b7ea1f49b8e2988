package algolinalg

import (
	"errors"
	"strings"
	"testing"

	"github.com/cwbudde/algo-linalg/gpu"
)

func TestStencilDimensions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind    StencilKind
		size    int64
		wantM   int64
		wantNnz int64
	}{
		{kind: StencilLaplace1D, size: 4, wantM: 4, wantNnz: 10},
		{kind: StencilLaplace2D, size: 3, wantM: 9, wantNnz: 33},
		{kind: StencilLaplace3D, size: 2, wantM: 8, wantNnz: 32},
		{kind: StencilLaplace2D, size: 0, wantM: 0, wantNnz: 0},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			t.Parallel()

			s, err := NewStencil[float64](nil, "L", tt.kind)
			if err != nil {
				t.Fatalf("NewStencil: %v", err)
			}
			if err := s.SetGrid(tt.size); err != nil {
				t.Fatalf("SetGrid: %v", err)
			}
			if s.M() != tt.wantM || s.N() != tt.wantM {
				t.Errorf("M() x N() = %d x %d, want %d x %d", s.M(), s.N(), tt.wantM, tt.wantM)
			}
			if s.Nnz() != tt.wantNnz {
				t.Errorf("Nnz() = %d, want %d", s.Nnz(), tt.wantNnz)
			}
			if s.NDim() != tt.kind.NDim() {
				t.Errorf("NDim() = %d, want %d", s.NDim(), tt.kind.NDim())
			}
		})
	}
}

func TestStencilApply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		kind StencilKind
		size int64
		in   []float64
		want []float64
	}{
		{name: "1d", kind: StencilLaplace1D, size: 3, in: []float64{1, 2, 3}, want: []float64{0, 0, 4}},
		{name: "2d", kind: StencilLaplace2D, size: 2, in: []float64{1, 2, 3, 4}, want: []float64{-1, 3, 7, 11}},
		{name: "3d constant", kind: StencilLaplace3D, size: 2, in: []float64{1, 1, 1, 1, 1, 1, 1, 1}, want: []float64{3, 3, 3, 3, 3, 3, 3, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, err := NewStencil[float64](nil, "L", tt.kind)
			if err != nil {
				t.Fatalf("NewStencil: %v", err)
			}
			if err := s.SetGrid(tt.size); err != nil {
				t.Fatalf("SetGrid: %v", err)
			}
			in := newTestVector(t, nil, "in", tt.in)
			out := NewVector[float64](nil, "out")

			if err := s.Apply(in, out); err != nil {
				t.Fatalf("Apply: %v", err)
			}
			assertValues(t, out, tt.want, 1e-12)

			if err := s.ApplyAdd(in, -1, out); err != nil {
				t.Fatalf("ApplyAdd: %v", err)
			}
			assertValues(t, out, make([]float64, len(tt.want)), 1e-12)
		})
	}
}

// The stencil agrees with the assembled tridiagonal Laplacian.
func TestStencilMatchesMatrix(t *testing.T) {
	t.Parallel()

	const n = 6
	s, err := NewStencil[float64](nil, "L", StencilLaplace1D)
	if err != nil {
		t.Fatalf("NewStencil: %v", err)
	}
	if err := s.SetGrid(n); err != nil {
		t.Fatalf("SetGrid: %v", err)
	}

	var rows, cols []int64
	var vals []float64
	for i := range int64(n) {
		rows, cols, vals = append(rows, i), append(cols, i), append(vals, 2)
		if i > 0 {
			rows, cols, vals = append(rows, i), append(cols, i-1), append(vals, -1)
		}
		if i < n-1 {
			rows, cols, vals = append(rows, i), append(cols, i+1), append(vals, -1)
		}
	}
	a := NewMatrix[float64](nil, "A")
	if err := a.Assemble(rows, cols, vals, n, n); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if a.Nnz() != s.Nnz() {
		t.Fatalf("Nnz: matrix %d, stencil %d", a.Nnz(), s.Nnz())
	}

	in := newTestVector(t, nil, "in", []float64{0.5, -1, 2, 3, -4, 1.5})
	want := NewVector[float64](nil, "want")
	got := NewVector[float64](nil, "got")
	if err := a.Apply(in, want); err != nil {
		t.Fatalf("matrix Apply: %v", err)
	}
	if err := s.Apply(in, got); err != nil {
		t.Fatalf("stencil Apply: %v", err)
	}
	ref, err := want.Values()
	if err != nil {
		t.Fatalf("Values: %v", err)
	}
	assertValues(t, got, ref, 1e-12)
}

func TestStencilHostOnly(t *testing.T) {
	t.Parallel()

	ctx, _ := newMockContext(t, gpu.MockOptions{})
	s, err := NewStencil[float32](ctx, "L", StencilLaplace2D)
	if err != nil {
		t.Fatalf("NewStencil: %v", err)
	}
	if err := s.SetGrid(2); err != nil {
		t.Fatalf("SetGrid: %v", err)
	}

	for name, move := range map[string]func() error{
		"sync":  s.MoveToAccelerator,
		"async": s.MoveToAcceleratorAsync,
	} {
		if err := move(); !errors.Is(err, ErrNotImplemented) {
			t.Errorf("%s MoveToAccelerator = %v, want ErrNotImplemented", name, err)
		}
	}
	if !s.isHost() || s.isAccel() {
		t.Fatal("stencil left the host")
	}

	in := newTestVector(t, ctx, "in", []float32{1, 2, 3, 4})
	place(t, in, true)
	out := NewVector[float32](ctx, "out")
	assertContract(t, s.Apply(in, out), ErrResidencyMismatch)

	// CloneBackend adopts the binding but stays on the host
	if err := s.CloneBackend(in); err != nil {
		t.Fatalf("CloneBackend: %v", err)
	}
	if !s.isHost() || s.Binding().Context() != ctx {
		t.Fatal("CloneBackend did not keep the stencil on the host under the new binding")
	}
	if info := s.Info(); !strings.Contains(info, "laplace2d") || !strings.Contains(info, "host backend only") {
		t.Errorf("Info() = %q", info)
	}
}

func TestStencilContract(t *testing.T) {
	t.Parallel()

	if _, err := NewStencil[float64](nil, "bad", StencilKind(0)); !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("NewStencil(0) = %v, want ErrNotImplemented", err)
	}

	s, err := NewStencil[float64](nil, "L", StencilLaplace1D)
	if err != nil {
		t.Fatalf("NewStencil: %v", err)
	}
	assertContract(t, s.SetGrid(-1), ErrDimensionMismatch)
	if err := s.SetGrid(3); err != nil {
		t.Fatalf("SetGrid: %v", err)
	}

	short := newTestVector(t, nil, "short", []float64{1, 2})
	out := NewVector[float64](nil, "out")
	assertContract(t, s.Apply(short, out), ErrDimensionMismatch)
	assertContract(t, s.Apply(nil, out), ErrNilVector)
	assertContract(t, s.Apply(out, out), ErrAliasedVectors)

	s.Clear()
	if s.M() != 0 {
		t.Fatalf("M() after Clear = %d, want 0", s.M())
	}
}
