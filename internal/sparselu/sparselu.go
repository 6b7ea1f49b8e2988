// Package sparselu factorizes square CSR matrices with a sparse LU kernel.
//
// The kernel works in float64 and on 1-based right-hand-side and solution
// vectors of length n+1; this package hides both conventions behind
// 0-based CSR input and caller-owned output slices.
package sparselu

import (
	"errors"
	"fmt"

	"github.com/edp1096/sparse"
)

var (
	// ErrInvalidPattern is returned when the CSR arrays are inconsistent.
	ErrInvalidPattern = errors.New("sparselu: invalid CSR pattern")

	// ErrLengthMismatch is returned when a vector does not have length n.
	ErrLengthMismatch = errors.New("sparselu: vector length mismatch")

	// ErrReleased is returned when a released factorization is used.
	ErrReleased = errors.New("sparselu: factorization released")
)

// Factorization is an LU decomposition of an n×n matrix.
type Factorization struct {
	n      int
	matrix *sparse.Matrix
	rhs    []float64 // 1-based scratch
}

func newConfig() *sparse.Configuration {
	return &sparse.Configuration{
		Real:                    true,
		Complex:                 false,
		SeparatedComplexVectors: false,
		Expandable:              true,
		Translate:               false,
		ModifiedNodal:           false,
		TiesMultiplier:          5,
		PrinterWidth:            140,
		Annotate:                0,
	}
}

// Validate checks that rowPtr, colInd and the value count describe an n×n
// CSR matrix.
func Validate(n int, rowPtr, colInd []int32, nnz int) error {
	if n < 1 {
		return fmt.Errorf("%w: size %d", ErrInvalidPattern, n)
	}
	if len(rowPtr) != n+1 {
		return fmt.Errorf("%w: len(rowPtr)=%d, want %d", ErrInvalidPattern, len(rowPtr), n+1)
	}
	if len(colInd) != nnz || int(rowPtr[n]) != nnz || rowPtr[0] != 0 {
		return fmt.Errorf("%w: nnz=%d rowPtr[n]=%d len(colInd)=%d", ErrInvalidPattern, nnz, rowPtr[n], len(colInd))
	}
	for i := range n {
		if rowPtr[i+1] < rowPtr[i] {
			return fmt.Errorf("%w: rowPtr decreases at row %d", ErrInvalidPattern, i)
		}
	}
	for k, c := range colInd {
		if c < 0 || int(c) >= n {
			return fmt.Errorf("%w: column %d out of range at %d", ErrInvalidPattern, c, k)
		}
	}
	return nil
}

// Factor builds and factorizes the matrix given in CSR form. Values are
// copied; the caller keeps ownership of all slices.
func Factor(n int, rowPtr, colInd []int32, values []float64) (*Factorization, error) {
	if err := Validate(n, rowPtr, colInd, len(values)); err != nil {
		return nil, err
	}

	mat, err := sparse.Create(int64(n), newConfig())
	if err != nil {
		return nil, fmt.Errorf("sparselu: creating matrix: %w", err)
	}

	for i := range n {
		for k := rowPtr[i]; k < rowPtr[i+1]; k++ {
			mat.GetElement(int64(i+1), int64(colInd[k])+1).Real += values[k]
		}
	}

	if err := mat.Factor(); err != nil {
		mat.Destroy()
		return nil, fmt.Errorf("sparselu: factorization failed: %w", err)
	}

	return &Factorization{
		n:      n,
		matrix: mat,
		rhs:    make([]float64, n+1),
	}, nil
}

// Len returns the dimension of the factorized matrix.
func (f *Factorization) Len() int {
	if f == nil {
		return 0
	}
	return f.n
}

// Solve writes the solution of A·x = b into x. b is not modified.
func (f *Factorization) Solve(x, b []float64) error {
	if f == nil || f.matrix == nil {
		return ErrReleased
	}
	if len(b) != f.n || len(x) != f.n {
		return fmt.Errorf("%w: len(b)=%d len(x)=%d, want %d", ErrLengthMismatch, len(b), len(x), f.n)
	}

	f.rhs[0] = 0
	copy(f.rhs[1:], b)

	solution, err := f.matrix.Solve(f.rhs)
	if err != nil {
		return fmt.Errorf("sparselu: solve failed: %w", err)
	}
	copy(x, solution[1:f.n+1])
	return nil
}

// Release frees the kernel matrix. It is safe to call more than once.
func (f *Factorization) Release() {
	if f == nil || f.matrix == nil {
		return
	}
	f.matrix.Destroy()
	f.matrix = nil
	f.rhs = nil
}
