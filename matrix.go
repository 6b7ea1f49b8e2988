package algolinalg

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/cwbudde/algo-linalg/gpu"
	"github.com/cwbudde/algo-linalg/internal/sparselu"
)

// Matrix is a sparse matrix in CSR format living in host memory or in
// accelerator buffers. It is the operator type of the LU solver: it can be
// deep-copied, factorized in place and solved against.
//
// A factorized matrix stays factorized across relocation; the factors are
// rebuilt from the CSR values on the target backend.
type Matrix[T Float] struct {
	Object

	rows, cols int64
	store      matrixStorage[T]
	factored   bool
}

type matrixStorage[T Float] interface {
	nnz() int64
	location() Location
	release()
}

type hostCSR[T Float] struct {
	rowPtr []int32
	colInd []int32
	val    []T
	fact   *sparselu.Factorization
}

func (h *hostCSR[T]) nnz() int64         { return int64(len(h.val)) }
func (h *hostCSR[T]) location() Location { return Host }

func (h *hostCSR[T]) release() {
	h.fact.Release()
	h.fact = nil
	h.rowPtr, h.colInd, h.val = nil, nil, nil
}

type accelCSR[T Float] struct {
	rowPtr, colInd, val gpu.Buffer // nil for an empty matrix
	count               int64
	plan                gpu.LUPlan
}

func (a *accelCSR[T]) nnz() int64         { return a.count }
func (a *accelCSR[T]) location() Location { return Accelerator }

func (a *accelCSR[T]) release() {
	if a.plan != nil {
		_ = a.plan.Close()
		a.plan = nil
	}
	closeBuffers(a.rowPtr, a.colInd, a.val)
	a.rowPtr, a.colInd, a.val = nil, nil, nil
	a.count = 0
}

// NewMatrix returns an empty host matrix bound to ctx. A nil ctx selects
// HostContext().
func NewMatrix[T Float](ctx *Context, name string) *Matrix[T] {
	m := &Matrix[T]{store: &hostCSR[T]{}}
	m.init(ctx, name)
	m.track(m)
	m.logger().V(4).Info("Matrix created", "name", name)
	return m
}

// M returns the number of rows.
func (m *Matrix[T]) M() int64 {
	if m == nil {
		return 0
	}
	return m.rows
}

// N returns the number of columns.
func (m *Matrix[T]) N() int64 {
	if m == nil {
		return 0
	}
	return m.cols
}

// Nnz returns the number of stored entries.
func (m *Matrix[T]) Nnz() int64 {
	if m == nil {
		return 0
	}
	return m.store.nnz()
}

// Factored reports whether LUFactorize has run on the current contents.
func (m *Matrix[T]) Factored() bool {
	return m != nil && m.factored
}

func (m *Matrix[T]) isHost() bool  { return m.store.location() == Host }
func (m *Matrix[T]) isAccel() bool { return m.store.location() == Accelerator }

func validateCSR(rowPtr, colInd []int32, nnz int, rows, cols int64) error {
	if rows < 0 || cols < 0 {
		return fmt.Errorf("%w: negative size %dx%d", ErrInvalidPattern, rows, cols)
	}
	if int64(len(rowPtr)) != rows+1 {
		return fmt.Errorf("%w: len(rowPtr)=%d, want %d", ErrInvalidPattern, len(rowPtr), rows+1)
	}
	if len(colInd) != nnz || rowPtr[0] != 0 || int(rowPtr[rows]) != nnz {
		return fmt.Errorf("%w: nnz=%d rowPtr[m]=%d len(colInd)=%d", ErrInvalidPattern, nnz, rowPtr[rows], len(colInd))
	}
	for i := range rows {
		if rowPtr[i+1] < rowPtr[i] {
			return fmt.Errorf("%w: rowPtr decreases at row %d", ErrInvalidPattern, i)
		}
	}
	for k, c := range colInd {
		if c < 0 || int64(c) >= cols {
			return fmt.Errorf("%w: column %d out of range at entry %d", ErrInvalidPattern, c, k)
		}
	}
	return nil
}

// SetDataCSR replaces the contents with a copy of the given CSR arrays,
// keeping the current location. Any factorization is dropped.
func (m *Matrix[T]) SetDataCSR(rowPtr, colInd []int32, val []T, rows, cols int64) error {
	if err := validateCSR(rowPtr, colInd, len(val), rows, cols); err != nil {
		return err
	}
	if err := m.Sync(); err != nil {
		return err
	}

	h := &hostCSR[T]{
		rowPtr: slices.Clone(rowPtr),
		colInd: slices.Clone(colInd),
		val:    slices.Clone(val),
	}
	return m.install(h, rows, cols)
}

// Assemble builds the matrix from coordinate triplets. Duplicate entries
// are summed; entries within a row are sorted by column.
func (m *Matrix[T]) Assemble(rowIdx, colIdx []int64, val []T, rows, cols int64) error {
	if len(rowIdx) != len(val) || len(colIdx) != len(val) {
		return fmt.Errorf("%w: %d rows, %d cols, %d values", ErrInvalidPattern, len(rowIdx), len(colIdx), len(val))
	}
	if rows < 0 || cols < 0 || rows > 1<<31-1 || cols > 1<<31-1 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidPattern, rows, cols)
	}

	order := make([]int, len(val))
	for k := range order {
		if rowIdx[k] < 0 || rowIdx[k] >= rows || colIdx[k] < 0 || colIdx[k] >= cols {
			return fmt.Errorf("%w: entry (%d,%d) outside %dx%d", ErrInvalidPattern, rowIdx[k], colIdx[k], rows, cols)
		}
		order[k] = k
	}
	slices.SortStableFunc(order, func(a, b int) int {
		if c := cmp.Compare(rowIdx[a], rowIdx[b]); c != 0 {
			return c
		}
		return cmp.Compare(colIdx[a], colIdx[b])
	})

	h := &hostCSR[T]{rowPtr: make([]int32, rows+1)}
	for i, k := range order {
		r, c := rowIdx[k], int32(colIdx[k])
		last := len(h.val) - 1
		if i > 0 && rowIdx[order[i-1]] == r && h.colInd[last] == c {
			h.val[last] += val[k]
			continue
		}
		h.colInd = append(h.colInd, c)
		h.val = append(h.val, val[k])
		h.rowPtr[r+1]++
	}
	for i := range rows {
		h.rowPtr[i+1] += h.rowPtr[i]
	}

	if err := m.Sync(); err != nil {
		return err
	}
	return m.install(h, rows, cols)
}

// install replaces the storage with h at the current location.
func (m *Matrix[T]) install(h *hostCSR[T], rows, cols int64) error {
	if m.isAccel() {
		next, err := m.uploadStorage(h, nil)
		if err != nil {
			return err
		}
		m.store.release()
		m.store = next
	} else {
		m.store.release()
		m.store = h
	}
	m.rows, m.cols = rows, cols
	m.factored = false
	return nil
}

// CSR returns host copies of the row pointers, column indices and values.
func (m *Matrix[T]) CSR() (rowPtr, colInd []int32, val []T, err error) {
	if err := m.Sync(); err != nil {
		return nil, nil, nil, err
	}
	h, err := m.hostCopy()
	if err != nil {
		return nil, nil, nil, err
	}
	return h.rowPtr, h.colInd, h.val, nil
}

// hostCopy returns a freshly allocated host CSR of the current contents.
func (m *Matrix[T]) hostCopy() (*hostCSR[T], error) {
	switch s := m.store.(type) {
	case *hostCSR[T]:
		return &hostCSR[T]{
			rowPtr: slices.Clone(s.rowPtr),
			colInd: slices.Clone(s.colInd),
			val:    slices.Clone(s.val),
		}, nil
	case *accelCSR[T]:
		return m.downloadStorage(s, nil)
	default:
		return nil, ErrNotImplemented
	}
}

func (m *Matrix[T]) uploadStorage(h *hostCSR[T], q *transfers) (*accelCSR[T], error) {
	ctx := m.context()
	if err := ctx.requireAccelerator(); err != nil {
		return nil, err
	}
	if h.rowPtr == nil {
		return &accelCSR[T]{}, nil
	}

	a := &accelCSR[T]{count: h.nnz()}
	var err error
	if a.rowPtr, err = upload(ctx, h.rowPtr, gpu.ElemInt32, q); err != nil {
		return nil, err
	}
	if a.colInd, err = upload(ctx, h.colInd, gpu.ElemInt32, q); err != nil {
		_ = q.wait()
		a.release()
		return nil, err
	}
	if a.val, err = upload(ctx, h.val, elemKind[T](), q); err != nil {
		// queued copies still target the buffers
		_ = q.wait()
		a.release()
		return nil, err
	}
	return a, nil
}

func (m *Matrix[T]) downloadStorage(a *accelCSR[T], q *transfers) (*hostCSR[T], error) {
	if a.rowPtr == nil {
		return &hostCSR[T]{}, nil
	}
	ctx := m.context()
	h := &hostCSR[T]{}
	var err error
	if h.rowPtr, err = download[int32](ctx, a.rowPtr, int(m.rows)+1, q); err != nil {
		return nil, err
	}
	if h.colInd, err = download[int32](ctx, a.colInd, int(a.count), q); err != nil {
		return nil, err
	}
	if h.val, err = download[T](ctx, a.val, int(a.count), q); err != nil {
		return nil, err
	}
	return h, nil
}

// CloneFrom deep-copies src into m: contents and backend binding. The
// copy is not factorized. m follows the residency of src.
func (m *Matrix[T]) CloneFrom(src *Matrix[T]) error {
	if src == nil {
		return violationf(ErrEmptyOperator, "clone from nil matrix")
	}
	if src == m {
		return nil
	}
	if err := m.Sync(); err != nil {
		return err
	}
	if err := src.Sync(); err != nil {
		return err
	}

	h, err := src.hostCopy()
	if err != nil {
		return err
	}

	m.store.release()
	m.store = h
	m.rows, m.cols = src.rows, src.cols
	m.factored = false
	m.binding = src.binding

	if src.isAccel() {
		if err := m.MoveToAccelerator(); err != nil {
			return err
		}
	}

	m.logger().V(4).Info("Matrix cloned", "name", m.name, "from", src.name, "rows", m.rows, "nnz", m.Nnz())
	return nil
}

// LUFactorize computes the LU factorization of the matrix in place on the
// backend it resides on.
func (m *Matrix[T]) LUFactorize() error {
	if err := m.Sync(); err != nil {
		return err
	}
	if m.rows != m.cols {
		return violationf(ErrNotSquare, "%s is %dx%d", m.name, m.rows, m.cols)
	}
	if m.rows == 0 {
		return violationf(ErrEmptyOperator, "%s has no rows", m.name)
	}

	switch s := m.store.(type) {
	case *hostCSR[T]:
		fact, err := sparselu.Factor(int(m.rows), s.rowPtr, s.colInd, toFloat64(s.val))
		if err != nil {
			return fmt.Errorf("algolinalg: factorizing %s: %w", m.name, err)
		}
		s.fact.Release()
		s.fact = fact
	case *accelCSR[T]:
		plan, err := m.factorOnDevice(s)
		if err != nil {
			return err
		}
		if s.plan != nil {
			_ = s.plan.Close()
		}
		s.plan = plan
	}
	m.factored = true

	m.logger().V(4).Info("Matrix factorized", "name", m.name, "rows", m.rows, "nnz", m.Nnz(), "location", m.store.location())
	return nil
}

func (m *Matrix[T]) factorOnDevice(a *accelCSR[T]) (gpu.LUPlan, error) {
	plan, err := m.context().newLUPlan(int(m.rows), elemKind[T]())
	if err != nil {
		return nil, fmt.Errorf("algolinalg: factorizing %s: %w", m.name, err)
	}
	if err := plan.Factor(a.rowPtr, a.colInd, a.val); err != nil {
		_ = plan.Close()
		return nil, fmt.Errorf("algolinalg: factorizing %s: %w", m.name, err)
	}
	return plan, nil
}

// checkOperands validates the in/out vectors of a matrix operation and
// brings them up to date.
func (m *Matrix[T]) checkOperands(in, out *Vector[T]) error {
	if in == nil || out == nil {
		return violation(ErrNilVector)
	}
	if in == out {
		return violation(ErrAliasedVectors)
	}
	if err := in.Sync(); err != nil {
		return err
	}
	if err := out.Sync(); err != nil {
		return err
	}
	if in.Len() != m.cols {
		return violationf(ErrDimensionMismatch, "input has %d elements, %s has %d columns", in.Len(), m.name, m.cols)
	}
	if out.Len() == 0 && m.rows > 0 {
		if err := out.Allocate(m.rows); err != nil {
			return err
		}
	}
	if out.Len() != m.rows {
		return violationf(ErrDimensionMismatch, "output has %d elements, %s has %d rows", out.Len(), m.name, m.rows)
	}
	loc := m.store.location()
	if in.store.location() != loc || out.store.location() != loc {
		return violationf(ErrResidencyMismatch, "%s on %s, in on %s, out on %s",
			m.name, loc, in.store.location(), out.store.location())
	}
	if loc == Accelerator && (in.context() != m.context() || out.context() != m.context()) {
		return violationf(ErrResidencyMismatch, "%s, %s and %s are on different accelerator contexts",
			m.name, in.name, out.name)
	}
	return nil
}

// LUSolve solves A·x = rhs with the factorization computed by LUFactorize.
// rhs is not modified. An empty x is allocated to the right size.
func (m *Matrix[T]) LUSolve(rhs, x *Vector[T]) error {
	if err := m.Sync(); err != nil {
		return err
	}
	if !m.factored {
		return violationf(ErrNotFactored, "%s", m.name)
	}
	if err := m.checkOperands(rhs, x); err != nil {
		return err
	}

	switch s := m.store.(type) {
	case *hostCSR[T]:
		sol := make([]float64, m.rows)
		if err := s.fact.Solve(sol, toFloat64(rhs.hostData())); err != nil {
			return fmt.Errorf("algolinalg: solving with %s: %w", m.name, err)
		}
		fromFloat64(x.hostData(), sol)
	case *accelCSR[T]:
		if err := s.plan.Solve(x.deviceBuffer(), rhs.deviceBuffer()); err != nil {
			return fmt.Errorf("algolinalg: solving with %s: %w", m.name, err)
		}
	}
	return nil
}

// Apply computes out = A·in.
func (m *Matrix[T]) Apply(in, out *Vector[T]) error {
	return m.apply(in, out, 1, 0)
}

// ApplyAdd computes out += scalar·A·in.
func (m *Matrix[T]) ApplyAdd(in *Vector[T], scalar T, out *Vector[T]) error {
	return m.apply(in, out, scalar, 1)
}

func (m *Matrix[T]) apply(in, out *Vector[T], alpha, beta T) error {
	if err := m.Sync(); err != nil {
		return err
	}
	if err := m.checkOperands(in, out); err != nil {
		return err
	}

	switch s := m.store.(type) {
	case *hostCSR[T]:
		x, y := in.hostData(), out.hostData()
		for i := range m.rows {
			var sum T
			for k := s.rowPtr[i]; k < s.rowPtr[i+1]; k++ {
				sum += s.val[k] * x[s.colInd[k]]
			}
			y[i] = alpha*sum + beta*y[i]
		}
		return nil
	case *accelCSR[T]:
		k, err := m.context().spmv()
		if err != nil {
			return err
		}
		if s.rowPtr == nil {
			return nil
		}
		return k.SpMV(out.deviceBuffer(), s.rowPtr, s.colInd, s.val, in.deviceBuffer(), float64(alpha), float64(beta))
	default:
		return ErrNotImplemented
	}
}

// MoveToAccelerator implements NumericObject. A factorized matrix is
// refactorized on the device.
func (m *Matrix[T]) MoveToAccelerator() error {
	if err := m.Sync(); err != nil {
		return err
	}
	if m.isAccel() {
		return nil
	}

	h := m.store.(*hostCSR[T])
	next, err := m.uploadStorage(h, nil)
	if err != nil {
		return err
	}
	if err := m.commitAccel(h, next); err != nil {
		return err
	}

	m.logger().V(4).Info("Matrix moved to accelerator", "name", m.name, "nnz", next.count, "factored", m.factored)
	return nil
}

func (m *Matrix[T]) commitAccel(h *hostCSR[T], next *accelCSR[T]) error {
	if m.factored && next.rowPtr != nil {
		plan, err := m.factorOnDevice(next)
		if err != nil {
			next.release()
			return err
		}
		next.plan = plan
	}
	m.store = next
	h.release()
	return nil
}

// MoveToHost implements NumericObject. A factorized matrix is
// refactorized on the host.
func (m *Matrix[T]) MoveToHost() error {
	if err := m.Sync(); err != nil {
		return err
	}
	if m.isHost() {
		return nil
	}

	a := m.store.(*accelCSR[T])
	next, err := m.downloadStorage(a, nil)
	if err != nil {
		return err
	}
	if err := m.commitHost(a, next); err != nil {
		return err
	}

	m.logger().V(4).Info("Matrix moved to host", "name", m.name, "nnz", next.nnz(), "factored", m.factored)
	return nil
}

func (m *Matrix[T]) commitHost(a *accelCSR[T], next *hostCSR[T]) error {
	if m.factored && next.rowPtr != nil {
		fact, err := sparselu.Factor(int(m.rows), next.rowPtr, next.colInd, toFloat64(next.val))
		if err != nil {
			return fmt.Errorf("algolinalg: factorizing %s: %w", m.name, err)
		}
		next.fact = fact
	}
	m.store = next
	a.release()
	return nil
}

// MoveToAcceleratorAsync implements NumericObject.
func (m *Matrix[T]) MoveToAcceleratorAsync() error {
	if err := m.Sync(); err != nil {
		return err
	}
	if m.isAccel() {
		return nil
	}
	if !m.context().AsyncSupported() {
		return m.MoveToAccelerator()
	}

	h := m.store.(*hostCSR[T])
	q := &transfers{}
	next, err := m.uploadStorage(h, q)
	if err != nil {
		return err
	}
	m.setPending(Accelerator, q, func() error { return m.commitAccel(h, next) }, next.release)

	m.logger().V(4).Info("Matrix queued move to accelerator", "name", m.name, "nnz", next.count)
	return nil
}

// MoveToHostAsync implements NumericObject.
func (m *Matrix[T]) MoveToHostAsync() error {
	if err := m.Sync(); err != nil {
		return err
	}
	if m.isHost() {
		return nil
	}
	if !m.context().AsyncSupported() {
		return m.MoveToHost()
	}

	a := m.store.(*accelCSR[T])
	q := &transfers{}
	next, err := m.downloadStorage(a, q)
	if err != nil {
		return err
	}
	m.setPending(Host, q, func() error { return m.commitHost(a, next) }, nil)

	m.logger().V(4).Info("Matrix queued move to host", "name", m.name, "nnz", a.count)
	return nil
}

// Sync implements NumericObject.
func (m *Matrix[T]) Sync() error {
	return m.syncPending()
}

// CloneBackend implements NumericObject.
func (m *Matrix[T]) CloneBackend(src Binder) error {
	return cloneBackend(m, &m.Object, src)
}

// Clear releases all storage, including a factorization. The matrix stays
// at its current location.
func (m *Matrix[T]) Clear() {
	if err := m.Sync(); err != nil {
		m.logger().Error(err, "Matrix clear: pending relocation failed", "name", m.name)
	}
	loc := m.store.location()
	m.store.release()
	if loc == Accelerator {
		m.store = &accelCSR[T]{}
	} else {
		m.store = &hostCSR[T]{}
	}
	m.rows, m.cols = 0, 0
	m.factored = false
	m.logger().V(4).Info("Matrix cleared", "name", m.name)
}

// Close clears the matrix and unregisters it.
func (m *Matrix[T]) Close() error {
	m.Clear()
	m.untrack(m)
	return nil
}

// Info describes the matrix.
func (m *Matrix[T]) Info() string {
	return fmt.Sprintf("Matrix name=%s; rows=%d; cols=%d; nnz=%d; prec=%dbit; format=CSR; factorized=%t; %s; current=%s",
		m.name, m.rows, m.cols, m.Nnz(), precisionBits[T](), m.factored, m.context().Info(), m.store.location())
}
