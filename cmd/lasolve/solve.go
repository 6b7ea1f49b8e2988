package main

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	algolinalg "github.com/cwbudde/algo-linalg"
	"github.com/cwbudde/algo-linalg/internal/sysfile"
)

var errMismatch = errors.New("solution does not match expect")

func solveCmd(bf *backendFlags) *cobra.Command {
	var tol float64

	c := &cobra.Command{
		Use:   "solve FILE",
		Short: "Factorize the system matrix and solve for the right-hand side",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sys, err := sysfile.Load(args[0])
			if err != nil {
				return err
			}

			tracker := algolinalg.NewTracker()
			bf.registry = tracker
			ctx, err := bf.openContext()
			if err != nil {
				return err
			}
			defer ctx.Close()

			switch sys.Precision {
			case sysfile.Float32:
				err = solveSystem[float32](ctx, sys, tol, cmd.OutOrStdout())
			default:
				err = solveSystem[float64](ctx, sys, tol, cmd.OutOrStdout())
			}

			if n := tracker.Len(); n != 0 {
				klog.Background().Error(nil, "objects left open", "count", n, "objects", tracker.Info())
			}
			return err
		},
	}

	c.Flags().Float64Var(&tol, "tol", 1e-6, "absolute tolerance when checking against expect")
	return c
}

func convert[T algolinalg.Float](in []float64) []T {
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = T(v)
	}
	return out
}

func solveSystem[T algolinalg.Float](ctx *algolinalg.Context, sys sysfile.System, tol float64, out io.Writer) (err error) {
	a := algolinalg.NewMatrix[T](ctx, sys.Name)
	b := algolinalg.NewVector[T](ctx, "rhs")
	x := algolinalg.NewVector[T](ctx, "x")
	r := algolinalg.NewVector[T](ctx, "residual")
	lu := algolinalg.NewLU[T](ctx, "lu")
	defer func() {
		for _, obj := range []algolinalg.NumericObject{lu, r, x, b, a} {
			err = errors.Join(err, obj.Close())
		}
	}()

	if err := a.Assemble(sys.RowIdx, sys.ColIdx, convert[T](sys.Values), sys.Rows, sys.Cols); err != nil {
		return err
	}
	if err := b.SetValues(convert[T](sys.RHS)); err != nil {
		return err
	}

	if ctx.AcceleratorAvailable() {
		for _, obj := range []algolinalg.NumericObject{lu, b, x} {
			if err := obj.MoveToAcceleratorAsync(); err != nil {
				return err
			}
		}
	}

	if err := lu.SetOperator(a); err != nil {
		return err
	}
	if err := lu.Build(); err != nil {
		return err
	}
	if err := lu.Solve(b, x); err != nil {
		return err
	}

	// residual on the host, where the operator lives
	if err := x.MoveToHost(); err != nil {
		return err
	}
	if err := b.MoveToHost(); err != nil {
		return err
	}
	if err := r.CopyFrom(b); err != nil {
		return err
	}
	if err := a.ApplyAdd(x, -1, r); err != nil {
		return err
	}

	sol, err := x.Values()
	if err != nil {
		return err
	}
	res, err := r.Values()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "system %s: %dx%d, nnz=%d, %s\n", sys.Name, a.M(), a.N(), a.Nnz(), sys.Precision)
	for i, v := range sol {
		fmt.Fprintf(out, "x[%d] = %g\n", i, v)
	}
	fmt.Fprintf(out, "residual = %.3g\n", maxAbs(res))

	if sys.Expect != nil {
		for i, want := range sys.Expect {
			if d := math.Abs(float64(sol[i]) - want); d > tol {
				return fmt.Errorf("%w: x[%d] = %g, want %g", errMismatch, i, sol[i], want)
			}
		}
		fmt.Fprintln(out, "matches expect")
	}
	return nil
}

func maxAbs[T algolinalg.Float](v []T) float64 {
	var m float64
	for _, x := range v {
		m = max(m, math.Abs(float64(x)))
	}
	return m
}
