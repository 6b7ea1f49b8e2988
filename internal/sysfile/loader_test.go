package sysfile

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestLoadDiagonal(t *testing.T) {
	path := filepath.Join("testdata", "diag.yaml")
	sys, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sys.Name != "diag" || sys.Precision != Float64 {
		t.Fatalf("got name %q precision %q", sys.Name, sys.Precision)
	}
	if sys.Rows != 3 || sys.Cols != 3 || sys.Nnz() != 3 {
		t.Fatalf("got %dx%d nnz=%d, want 3x3 nnz=3", sys.Rows, sys.Cols, sys.Nnz())
	}
	if !slices.Equal(sys.RowIdx, []int64{0, 1, 2}) || !slices.Equal(sys.ColIdx, []int64{0, 1, 2}) {
		t.Fatalf("diagonal mapped to rows %v cols %v", sys.RowIdx, sys.ColIdx)
	}
	if !slices.Equal(sys.Values, []float64{2, 4, 5}) {
		t.Fatalf("values = %v", sys.Values)
	}
	if !slices.Equal(sys.RHS, []float64{2, 8, 15}) || !slices.Equal(sys.Expect, []float64{1, 2, 3}) {
		t.Fatalf("rhs = %v expect = %v", sys.RHS, sys.Expect)
	}
}

func TestLoadEntries(t *testing.T) {
	path := filepath.Join("testdata", "tridiag.yaml")
	sys, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sys.Name != "tridiag" {
		t.Fatalf("expected name from file, got %q", sys.Name)
	}
	if sys.Precision != Float32 {
		t.Fatalf("expected float32, got %q", sys.Precision)
	}
	if sys.Nnz() != 8 {
		t.Fatalf("expected duplicates kept for assembly, got nnz=%d", sys.Nnz())
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		file  string
		field string
	}{
		{file: "bad_rhs.yaml", field: "rhs"},
		{file: "bad_entry.yaml", field: "entries[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			path := filepath.Join("testdata", tt.file)
			_, err := Load(path)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !IsKind(err, KindInvalidSystem) || !errors.Is(err, ErrInvalidSystem) {
				t.Fatalf("expected invalid system, got %v", err)
			}
			if !strings.Contains(err.Error(), "field "+tt.field) {
				t.Fatalf("expected field %s in error, got %v", tt.field, err)
			}
			if !strings.Contains(err.Error(), path) {
				t.Fatalf("expected path in error, got %v", err)
			}
		})
	}
}

func TestLoadMalformed(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "malformed.yaml"))
	if !IsKind(err, KindInvalidSystem) {
		t.Fatalf("expected invalid system, got %v", err)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "nope.yaml"))
	if !IsKind(err, KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
