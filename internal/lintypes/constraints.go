// Package lintypes holds the type constraints shared by the public package
// and the internal kernels.
package lintypes

// Float is the value type constraint for vectors, matrices and solvers.
type Float interface {
	float32 | float64
}

// Index is the integer type used for CSR row pointers and column indices.
type Index = int32
