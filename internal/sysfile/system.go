// Package sysfile loads linear systems A·x = b described in YAML.
//
// A system gives its matrix either as a diagonal or as coordinate entries
// (duplicates are summed on assembly):
//
//	name: diag
//	precision: float64
//	rows: 3
//	cols: 3
//	diagonal: [2, 4, 5]
//	rhs: [2, 8, 15]
//	expect: [1, 2, 3]
package sysfile

// Precision is the value type a system is solved in.
type Precision string

const (
	Float32 Precision = "float32"
	Float64 Precision = "float64"
)

// System is a validated linear system in coordinate form.
type System struct {
	Name      string
	Precision Precision
	Rows      int64
	Cols      int64

	RowIdx []int64
	ColIdx []int64
	Values []float64

	RHS []float64
	// Expect is the known solution, if the file provides one.
	Expect []float64
}

// Nnz returns the number of coordinate entries.
func (s System) Nnz() int {
	return len(s.Values)
}
