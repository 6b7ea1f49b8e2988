package sysfile

import (
	"strings"
	"testing"
)

func ptr[T any](v T) *T { return &v }

func TestMapSystemErrors(t *testing.T) {
	base := func() YAMLSystem {
		return YAMLSystem{Rows: 2, Cols: 2, Diagonal: []float64{1, 1}, RHS: []float64{1, 1}}
	}

	tests := []struct {
		name   string
		mutate func(*YAMLSystem)
		field  string
	}{
		{name: "precision", mutate: func(y *YAMLSystem) { y.Precision = "complex128" }, field: "precision"},
		{name: "rows", mutate: func(y *YAMLSystem) { y.Rows = 0 }, field: "rows"},
		{name: "cols", mutate: func(y *YAMLSystem) { y.Cols = -1 }, field: "cols"},
		{name: "no matrix", mutate: func(y *YAMLSystem) { y.Diagonal = nil }, field: "entries"},
		{name: "both", mutate: func(y *YAMLSystem) {
			y.Entries = []YAMLEntry{{Row: ptr[int64](0), Col: ptr[int64](0), Value: ptr(1.0)}}
		}, field: "entries"},
		{name: "short diagonal", mutate: func(y *YAMLSystem) { y.Diagonal = []float64{1} }, field: "diagonal"},
		{name: "incomplete entry", mutate: func(y *YAMLSystem) {
			y.Diagonal = nil
			y.Entries = []YAMLEntry{{Row: ptr[int64](0), Value: ptr(1.0)}}
		}, field: "entries[0]"},
		{name: "expect", mutate: func(y *YAMLSystem) { y.Expect = []float64{1, 2, 3} }, field: "expect"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y := base()
			tt.mutate(&y)
			_, err := MapSystem("sys.yaml", y)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), "field "+tt.field+":") {
				t.Fatalf("expected field %s in error, got %v", tt.field, err)
			}
		})
	}
}

func TestMapSystemDefaults(t *testing.T) {
	sys, err := MapSystem("dir/my-system.yml", YAMLSystem{
		Rows:     2,
		Cols:     3,
		Diagonal: []float64{7, 8},
		RHS:      []float64{1, 2},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sys.Name != "my-system" {
		t.Fatalf("expected name from path, got %q", sys.Name)
	}
	if sys.Precision != Float64 {
		t.Fatalf("expected float64 default, got %q", sys.Precision)
	}
	if sys.Expect != nil {
		t.Fatalf("expected no solution, got %v", sys.Expect)
	}
}
