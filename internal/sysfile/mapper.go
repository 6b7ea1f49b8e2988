package sysfile

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MapSystem validates ys and converts it to a System. path names the file
// in errors and supplies the default system name.
func MapSystem(path string, ys YAMLSystem) (System, error) {
	name := strings.TrimSpace(ys.Name)
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	prec, err := parsePrecision(ys.Precision)
	if err != nil {
		return System{}, invalidField(path, "precision", err.Error())
	}
	if ys.Rows <= 0 {
		return System{}, invalidField(path, "rows", "rows must be positive")
	}
	if ys.Cols <= 0 {
		return System{}, invalidField(path, "cols", "cols must be positive")
	}

	sys := System{
		Name:      name,
		Precision: prec,
		Rows:      ys.Rows,
		Cols:      ys.Cols,
	}

	switch {
	case ys.Diagonal != nil && ys.Entries != nil:
		return System{}, invalidField(path, "entries", "diagonal and entries are mutually exclusive")
	case ys.Diagonal != nil:
		n := min(ys.Rows, ys.Cols)
		if int64(len(ys.Diagonal)) != n {
			return System{}, invalidField(path, "diagonal", fmt.Sprintf("got %d values, want %d", len(ys.Diagonal), n))
		}
		for i, v := range ys.Diagonal {
			sys.RowIdx = append(sys.RowIdx, int64(i))
			sys.ColIdx = append(sys.ColIdx, int64(i))
			sys.Values = append(sys.Values, v)
		}
	case len(ys.Entries) > 0:
		for i, e := range ys.Entries {
			field := fmt.Sprintf("entries[%d]", i)
			if e.Row == nil || e.Col == nil || e.Value == nil {
				return System{}, invalidField(path, field, "row, col and value are required")
			}
			if *e.Row < 0 || *e.Row >= ys.Rows || *e.Col < 0 || *e.Col >= ys.Cols {
				return System{}, invalidField(path, field, fmt.Sprintf("(%d,%d) outside %dx%d", *e.Row, *e.Col, ys.Rows, ys.Cols))
			}
			sys.RowIdx = append(sys.RowIdx, *e.Row)
			sys.ColIdx = append(sys.ColIdx, *e.Col)
			sys.Values = append(sys.Values, *e.Value)
		}
	default:
		return System{}, invalidField(path, "entries", "diagonal or entries is required")
	}

	if int64(len(ys.RHS)) != ys.Rows {
		return System{}, invalidField(path, "rhs", fmt.Sprintf("got %d values, want %d", len(ys.RHS), ys.Rows))
	}
	sys.RHS = ys.RHS

	if ys.Expect != nil {
		if int64(len(ys.Expect)) != ys.Cols {
			return System{}, invalidField(path, "expect", fmt.Sprintf("got %d values, want %d", len(ys.Expect), ys.Cols))
		}
		sys.Expect = ys.Expect
	}

	return sys, nil
}

func parsePrecision(p string) (Precision, error) {
	switch Precision(strings.ToLower(strings.TrimSpace(p))) {
	case "", Float64:
		return Float64, nil
	case Float32:
		return Float32, nil
	default:
		return "", fmt.Errorf("unsupported precision %q", p)
	}
}

func invalidField(path, field, msg string) error {
	return &OpError{
		Op:   "sysfile.map",
		Kind: KindInvalidSystem,
		Path: path,
		Err:  fmt.Errorf("field %s: %s: %w", field, msg, ErrInvalidSystem),
	}
}
