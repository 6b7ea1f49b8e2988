package algolinalg

// LUMethod returns the LU factorization method: Factorize runs
// LUFactorize on the owned copy, Solve runs LUSolve.
func LUMethod[Op Operator[Op, V], V SolverVector]() DirectMethod[Op, V] {
	return DirectMethod[Op, V]{
		Name: "LU",
		Factorize: func(lu Op) error {
			return lu.LUFactorize()
		},
		Solve: func(lu Op, rhs, x V) error {
			return lu.LUSolve(rhs, x)
		},
	}
}

// NewLU returns an LU direct solver over sparse matrices bound to ctx.
//
//	lu := algolinalg.NewLU[float64](ctx, "lu")
//	lu.SetOperator(a)
//	lu.Build()
//	lu.Solve(b, x)
func NewLU[T Float](ctx *Context, name string) *DirectSolver[*Matrix[T], *Vector[T]] {
	return NewDirectSolver(ctx, name, LUMethod[*Matrix[T], *Vector[T]](), NewMatrix[T])
}
