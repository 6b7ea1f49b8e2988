package algolinalg

import (
	"fmt"
)

// Operator is the capability a direct solver needs from its operator type:
// dimensions, deep copy, and the factorization entry points. *Matrix[T]
// satisfies Operator[*Matrix[T], *Vector[T]].
type Operator[Op any, V any] interface {
	comparable
	NumericObject

	M() int64
	N() int64
	Nnz() int64
	CloneFrom(src Op) error
	LUFactorize() error
	LUSolve(rhs, x V) error
}

// SolverVector is the capability a direct solver needs from its vector
// type. Vectors are compared by identity.
type SolverVector interface {
	comparable
	NumericObject

	Len() int64
}

// SolverState is the build state of a DirectSolver.
type SolverState uint8

const (
	SolverEmpty SolverState = iota // no operator
	SolverReady                    // operator set, not built
	SolverBuilt                    // factorization computed
)

func (s SolverState) String() string {
	switch s {
	case SolverEmpty:
		return "empty"
	case SolverReady:
		return "ready"
	case SolverBuilt:
		return "built"
	default:
		return "unknown"
	}
}

// DirectMethod is the factorization a DirectSolver applies to its owned
// copy of the operator.
type DirectMethod[Op Operator[Op, V], V SolverVector] struct {
	Name      string
	Factorize func(lu Op) error
	Solve     func(lu Op, rhs, x V) error
}

// DirectSolver solves A·x = b by factorizing a private copy of A once
// (Build) and reusing the factors for any number of Solve calls.
//
// The solver does not own its operator; the caller keeps it alive between
// SetOperator and Build. The factorized copy is owned and always resides
// where the solver resides.
type DirectSolver[Op Operator[Op, V], V SolverVector] struct {
	Object

	method      DirectMethod[Op, V]
	newOperator func(ctx *Context, name string) Op

	op       Op
	lu       Op
	built    bool
	location Location
}

// NewDirectSolver returns an empty solver bound to ctx. newOperator
// allocates the owned factorized operator on first Build.
func NewDirectSolver[Op Operator[Op, V], V SolverVector](ctx *Context, name string, method DirectMethod[Op, V], newOperator func(ctx *Context, name string) Op) *DirectSolver[Op, V] {
	s := &DirectSolver[Op, V]{method: method, newOperator: newOperator}
	s.init(ctx, name)
	s.track(s)
	s.logger().V(4).Info("solver created", "name", name, "method", method.Name)
	return s
}

// State returns the current build state.
func (s *DirectSolver[Op, V]) State() SolverState {
	var zero Op
	switch {
	case s.built:
		return SolverBuilt
	case s.op != zero:
		return SolverReady
	default:
		return SolverEmpty
	}
}

// Operator returns the associated operator and whether one is set.
func (s *DirectSolver[Op, V]) Operator() (Op, bool) {
	var zero Op
	return s.op, s.op != zero
}

// Factorized returns the owned factorized operator while the solver is built.
func (s *DirectSolver[Op, V]) Factorized() (Op, bool) {
	if !s.built {
		var zero Op
		return zero, false
	}
	return s.lu, true
}

// SetOperator associates op with the solver without taking ownership. It
// is a contract violation while the solver is built; Clear first.
func (s *DirectSolver[Op, V]) SetOperator(op Op) error {
	var zero Op
	if op == zero {
		return violationf(ErrNoOperator, "%s: nil operator", s.name)
	}
	if s.built {
		return violationf(ErrAlreadyBuilt, "%s: clear before replacing the operator", s.name)
	}
	s.op = op
	s.logger().V(4).Info("solver operator set", "name", s.name, "operator", op.Name())
	return nil
}

// Build factorizes a deep copy of the operator. Building a built solver
// clears it first. On failure the solver is left unbuilt.
func (s *DirectSolver[Op, V]) Build() error {
	s.logger().V(4).Info("solver build begin", "name", s.name, "method", s.method.Name, "built", s.built)

	if err := s.Sync(); err != nil {
		return err
	}
	if s.built {
		s.Clear()
	}

	var zero Op
	if s.op == zero {
		return violationf(ErrNoOperator, "%s", s.name)
	}
	if err := s.op.Sync(); err != nil {
		return err
	}
	if m, n := s.op.M(), s.op.N(); m != n {
		return violationf(ErrNotSquare, "%s: operator %s is %dx%d", s.name, s.op.Name(), m, n)
	}
	if s.op.M() == 0 {
		return violationf(ErrEmptyOperator, "%s: operator %s", s.name, s.op.Name())
	}

	if s.lu == zero {
		s.lu = s.newOperator(s.context(), s.name+"/factors")
	}
	if err := s.factorize(); err != nil {
		s.lu.Clear()
		return fmt.Errorf("algolinalg: %s build: %w", s.name, err)
	}
	s.built = true

	s.logger().V(4).Info("solver build end", "name", s.name, "rows", s.lu.M(), "nnz", s.lu.Nnz(), "location", s.location)
	return nil
}

func (s *DirectSolver[Op, V]) factorize() error {
	if err := s.lu.CloneFrom(s.op); err != nil {
		return err
	}
	// the copy follows the operator; bring it to the solver
	if err := s.lu.CloneBackend(s); err != nil {
		return err
	}
	return s.method.Factorize(s.lu)
}

// Solve writes the solution of A·x = rhs into x. rhs and the
// factorization are not modified.
func (s *DirectSolver[Op, V]) Solve(rhs, x V) error {
	if err := s.Sync(); err != nil {
		return err
	}
	if !s.built {
		return violationf(ErrNotBuilt, "%s", s.name)
	}

	var zero V
	if x == zero || rhs == zero {
		return violationf(ErrNilVector, "%s", s.name)
	}
	if x == rhs {
		return violationf(ErrAliasedVectors, "%s: %s", s.name, x.Name())
	}

	s.PrintStart()
	if err := s.method.Solve(s.lu, rhs, x); err != nil {
		return err
	}
	s.PrintEnd()
	return nil
}

// Clear releases the factorization. The operator association is kept.
func (s *DirectSolver[Op, V]) Clear() {
	s.logger().V(4).Info("solver clear", "name", s.name, "built", s.built)
	if !s.built {
		return
	}
	s.lu.Clear()
	s.built = false
}

func (s *DirectSolver[Op, V]) isHost() bool  { return s.location == Host }
func (s *DirectSolver[Op, V]) isAccel() bool { return s.location == Accelerator }

// Location returns where the solver, and the factorization when built,
// resides.
func (s *DirectSolver[Op, V]) Location() Location {
	return s.location
}

// MoveToHost implements NumericObject.
func (s *DirectSolver[Op, V]) MoveToHost() error {
	if err := s.Sync(); err != nil {
		return err
	}
	if s.built {
		if err := s.lu.MoveToHost(); err != nil {
			return err
		}
	}
	s.location = Host
	return nil
}

// MoveToAccelerator implements NumericObject. Before Build only the
// solver location changes; the factorization follows on the next Build.
func (s *DirectSolver[Op, V]) MoveToAccelerator() error {
	if err := s.Sync(); err != nil {
		return err
	}
	if err := s.context().requireAccelerator(); err != nil {
		return err
	}
	if s.built {
		if err := s.lu.MoveToAccelerator(); err != nil {
			return err
		}
	}
	s.location = Accelerator
	return nil
}

// MoveToHostAsync implements NumericObject.
func (s *DirectSolver[Op, V]) MoveToHostAsync() error {
	if err := s.Sync(); err != nil {
		return err
	}
	if s.built {
		if err := s.lu.MoveToHostAsync(); err != nil {
			return err
		}
	}
	s.location = Host
	s.followFactors()
	return nil
}

// MoveToAcceleratorAsync implements NumericObject.
func (s *DirectSolver[Op, V]) MoveToAcceleratorAsync() error {
	if err := s.Sync(); err != nil {
		return err
	}
	if err := s.context().requireAccelerator(); err != nil {
		return err
	}
	if s.built {
		if err := s.lu.MoveToAcceleratorAsync(); err != nil {
			return err
		}
	}
	s.location = Accelerator
	s.followFactors()
	return nil
}

// followFactors leaves the solver pending while the factor move is queued.
// A move that completed synchronously leaves nothing to wait for.
func (s *DirectSolver[Op, V]) followFactors() {
	if s.built && s.lu.AsyncPending() {
		s.setPending(s.location, nil, s.lu.Sync, nil)
	}
}

// Sync implements NumericObject.
func (s *DirectSolver[Op, V]) Sync() error {
	return s.syncPending()
}

// CloneBackend adopts the binding and residency of src. A built solver
// takes its factorization along.
func (s *DirectSolver[Op, V]) CloneBackend(src Binder) error {
	if err := s.Sync(); err != nil {
		return err
	}
	b := src.Binding()
	if b.ctx == nil {
		b = Binding{ctx: HostContext()}
	}
	s.binding = b
	s.location = Host
	if src.isAccel() {
		s.location = Accelerator
	}
	if s.built {
		return s.lu.CloneBackend(s)
	}
	return nil
}

// Info describes the solver.
func (s *DirectSolver[Op, V]) Info() string {
	info := fmt.Sprintf("%s solver name=%s; state=%s; location=%s", s.method.Name, s.name, s.State(), s.location)
	if s.built {
		info += "; factors={" + s.lu.Info() + "}"
	}
	return info
}

// Print writes a one-line description of the solver to the context logger.
func (s *DirectSolver[Op, V]) Print() {
	s.logger().Info("direct solver", "method", s.method.Name, "name", s.name, "state", s.State(), "location", s.location)
}

// PrintStart logs the start of a solve.
func (s *DirectSolver[Op, V]) PrintStart() {
	s.logger().V(2).Info("direct solver starts", "method", s.method.Name, "name", s.name)
}

// PrintEnd logs the end of a solve.
func (s *DirectSolver[Op, V]) PrintEnd() {
	s.logger().V(2).Info("direct solver ends", "method", s.method.Name, "name", s.name)
}

// Close clears the solver, releases the owned operator and unregisters the
// solver.
func (s *DirectSolver[Op, V]) Close() error {
	if err := s.Sync(); err != nil {
		s.logger().Error(err, "solver close: pending relocation failed", "name", s.name)
	}
	s.Clear()
	var zero Op
	var err error
	if s.lu != zero {
		err = s.lu.Close()
		s.lu = zero
	}
	s.untrack(s)
	return err
}
