package algolinalg

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-linalg/gpu"
)

// Shared test helper functions used across multiple test files

// testBackend names a context flavour the lifecycle tests run against.
type testBackend struct {
	name  string
	accel bool
	opts  gpu.MockOptions
}

var testBackends = []testBackend{
	{name: "host"},
	{name: "mock", accel: true},
	{name: "mock-sync", accel: true, opts: gpu.MockOptions{Synchronous: true}},
}

// newTestContext returns a context for tb. The mock backend is returned as
// well so callers can check for leaked buffers; it is nil for "host".
func newTestContext(t *testing.T, tb testBackend) (*Context, *gpu.MockBackend) {
	t.Helper()

	if !tb.accel {
		ctx, err := NewContext(ContextOptions{
			Backend: gpu.NewUnavailableBackend(gpu.BackendInfo{Name: "none"}),
		})
		if err != nil {
			t.Fatalf("NewContext: %v", err)
		}
		return ctx, nil
	}
	return newMockContext(t, tb.opts)
}

func newMockContext(t *testing.T, opts gpu.MockOptions) (*Context, *gpu.MockBackend) {
	t.Helper()

	backend := gpu.NewMockBackendWithOptions(opts)
	ctx, err := NewContext(ContextOptions{Backend: backend})
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	t.Cleanup(func() {
		if err := ctx.Close(); err != nil {
			t.Errorf("Context.Close: %v", err)
		}
	})
	return ctx, backend
}

// place moves obj to the accelerator when accel is set.
func place(t *testing.T, obj NumericObject, accel bool) {
	t.Helper()

	if !accel {
		return
	}
	if err := obj.MoveToAccelerator(); err != nil {
		t.Fatalf("%s.MoveToAccelerator: %v", obj.Name(), err)
	}
}

func newTestVector[T Float](t *testing.T, ctx *Context, name string, values []T) *Vector[T] {
	t.Helper()

	v := NewVector[T](ctx, name)
	if err := v.SetValues(values); err != nil {
		t.Fatalf("SetValues: %v", err)
	}
	return v
}

// newDiagMatrix returns the diagonal matrix diag(d...).
func newDiagMatrix[T Float](t *testing.T, ctx *Context, name string, d ...T) *Matrix[T] {
	t.Helper()

	n := len(d)
	rowPtr := make([]int32, n+1)
	colInd := make([]int32, n)
	for i := range n {
		rowPtr[i+1] = int32(i + 1)
		colInd[i] = int32(i)
	}
	m := NewMatrix[T](ctx, name)
	if err := m.SetDataCSR(rowPtr, colInd, d, int64(n), int64(n)); err != nil {
		t.Fatalf("SetDataCSR: %v", err)
	}
	return m
}

// newTridiagMatrix returns the n×n matrix with 4 on the diagonal and -1 on
// both off-diagonals.
func newTridiagMatrix[T Float](t *testing.T, ctx *Context, name string, n int) *Matrix[T] {
	t.Helper()

	var rows, cols []int64
	var vals []T
	for i := range int64(n) {
		rows, cols, vals = append(rows, i), append(cols, i), append(vals, 4)
		if i > 0 {
			rows, cols, vals = append(rows, i), append(cols, i-1), append(vals, -1)
		}
		if i < int64(n)-1 {
			rows, cols, vals = append(rows, i), append(cols, i+1), append(vals, -1)
		}
	}
	m := NewMatrix[T](ctx, name)
	if err := m.Assemble(rows, cols, vals, int64(n), int64(n)); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return m
}

func assertValues[T Float](t *testing.T, v *Vector[T], want []T, tol float64) {
	t.Helper()

	got, err := v.Values()
	if err != nil {
		t.Fatalf("%s.Values: %v", v.Name(), err)
	}
	if len(got) != len(want) {
		t.Fatalf("%s: len = %d, want %d", v.Name(), len(got), len(want))
	}
	for i := range want {
		if math.Abs(float64(got[i])-float64(want[i])) > tol {
			t.Fatalf("%s[%d] = %v, want %v", v.Name(), i, got[i], want[i])
		}
	}
}

func assertContract(t *testing.T, err, kind error) {
	t.Helper()

	if !errors.Is(err, ErrContract) || !errors.Is(err, kind) {
		t.Fatalf("err = %v, want contract violation %v", err, kind)
	}
}

func assertNoLiveBuffers(t *testing.T, b *gpu.MockBackend) {
	t.Helper()

	if b == nil {
		return
	}
	if n := b.LiveBuffers(); n != 0 {
		t.Fatalf("LiveBuffers() = %d, want 0", n)
	}
}
