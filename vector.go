package algolinalg

import (
	"fmt"

	"github.com/cwbudde/algo-linalg/gpu"
)

// Vector is a dense vector whose values live either in host memory or in
// an accelerator buffer. Relocation swaps the storage wholesale.
type Vector[T Float] struct {
	Object

	store vectorStorage[T]
}

// vectorStorage is the active representation of a vector.
type vectorStorage[T Float] interface {
	size() int64
	location() Location
	release()
}

type hostVector[T Float] struct {
	data []T
}

func (h *hostVector[T]) size() int64        { return int64(len(h.data)) }
func (h *hostVector[T]) location() Location { return Host }
func (h *hostVector[T]) release()           { h.data = nil }

type accelVector[T Float] struct {
	buf gpu.Buffer // nil for an empty vector
	n   int64
}

func (a *accelVector[T]) size() int64        { return a.n }
func (a *accelVector[T]) location() Location { return Accelerator }

func (a *accelVector[T]) release() {
	closeBuffers(a.buf)
	a.buf = nil
	a.n = 0
}

// NewVector returns an empty host vector bound to ctx. A nil ctx selects
// HostContext().
func NewVector[T Float](ctx *Context, name string) *Vector[T] {
	v := &Vector[T]{store: &hostVector[T]{}}
	v.init(ctx, name)
	v.track(v)
	v.logger().V(4).Info("Vector created", "name", name)
	return v
}

// Len returns the number of elements. A nil vector has length 0.
func (v *Vector[T]) Len() int64 {
	if v == nil {
		return 0
	}
	return v.store.size()
}

func (v *Vector[T]) isHost() bool  { return v.store.location() == Host }
func (v *Vector[T]) isAccel() bool { return v.store.location() == Accelerator }

// Allocate replaces the contents with n zeros at the current location.
func (v *Vector[T]) Allocate(n int64) error {
	if n < 0 {
		return violationf(ErrDimensionMismatch, "negative vector size %d", n)
	}
	return v.SetValues(make([]T, n))
}

// Zeros sets every element to zero.
func (v *Vector[T]) Zeros() error {
	return v.Allocate(v.Len())
}

// SetValues replaces the contents with a copy of values, keeping the
// current location.
func (v *Vector[T]) SetValues(values []T) error {
	if err := v.Sync(); err != nil {
		return err
	}

	data := make([]T, len(values))
	copy(data, values)

	if v.isHost() {
		v.store.release()
		v.store = &hostVector[T]{data: data}
		return nil
	}

	next, err := v.uploadStorage(data, nil)
	if err != nil {
		return err
	}
	v.store.release()
	v.store = next
	return nil
}

// Values returns a host copy of the contents, downloading them if the
// vector lives on the accelerator.
func (v *Vector[T]) Values() ([]T, error) {
	if err := v.Sync(); err != nil {
		return nil, err
	}
	switch s := v.store.(type) {
	case *hostVector[T]:
		out := make([]T, len(s.data))
		copy(out, s.data)
		return out, nil
	case *accelVector[T]:
		return download[T](v.context(), s.buf, int(s.n), nil)
	default:
		return nil, ErrNotImplemented
	}
}

// CopyFrom copies the values of src into v. v keeps its own location; an
// empty v takes the size of src.
func (v *Vector[T]) CopyFrom(src *Vector[T]) error {
	if src == nil {
		return violation(ErrNilVector)
	}
	if src == v {
		return nil
	}
	if v.Len() != 0 && v.Len() != src.Len() {
		return violationf(ErrDimensionMismatch, "copy %d elements into %d", src.Len(), v.Len())
	}
	values, err := src.Values()
	if err != nil {
		return err
	}
	return v.SetValues(values)
}

// hostData returns the host slice of a host-resident vector.
func (v *Vector[T]) hostData() []T {
	return v.store.(*hostVector[T]).data
}

// deviceBuffer returns the buffer of an accelerator-resident vector.
func (v *Vector[T]) deviceBuffer() gpu.Buffer {
	return v.store.(*accelVector[T]).buf
}

func (v *Vector[T]) uploadStorage(data []T, q *transfers) (*accelVector[T], error) {
	if len(data) == 0 {
		if err := v.context().requireAccelerator(); err != nil {
			return nil, err
		}
		return &accelVector[T]{}, nil
	}
	buf, err := upload(v.context(), data, elemKind[T](), q)
	if err != nil {
		return nil, err
	}
	return &accelVector[T]{buf: buf, n: int64(len(data))}, nil
}

// MoveToAccelerator implements NumericObject.
func (v *Vector[T]) MoveToAccelerator() error {
	if err := v.Sync(); err != nil {
		return err
	}
	if v.isAccel() {
		return nil
	}

	host := v.store.(*hostVector[T])
	next, err := v.uploadStorage(host.data, nil)
	if err != nil {
		return err
	}
	v.store = next
	host.release()

	v.logger().V(4).Info("Vector moved to accelerator", "name", v.name, "size", next.n)
	return nil
}

// MoveToHost implements NumericObject.
func (v *Vector[T]) MoveToHost() error {
	if err := v.Sync(); err != nil {
		return err
	}
	if v.isHost() {
		return nil
	}

	acc := v.store.(*accelVector[T])
	data, err := download[T](v.context(), acc.buf, int(acc.n), nil)
	if err != nil {
		return err
	}
	v.store = &hostVector[T]{data: data}
	acc.release()

	v.logger().V(4).Info("Vector moved to host", "name", v.name, "size", len(data))
	return nil
}

// MoveToAcceleratorAsync implements NumericObject.
func (v *Vector[T]) MoveToAcceleratorAsync() error {
	if err := v.Sync(); err != nil {
		return err
	}
	if v.isAccel() {
		return nil
	}
	if !v.context().AsyncSupported() || v.Len() == 0 {
		return v.MoveToAccelerator()
	}

	host := v.store.(*hostVector[T])
	q := &transfers{}
	next, err := v.uploadStorage(host.data, q)
	if err != nil {
		return err
	}
	v.setPending(Accelerator, q, func() error {
		v.store = next
		host.release()
		return nil
	}, next.release)

	v.logger().V(4).Info("Vector queued move to accelerator", "name", v.name, "size", next.n)
	return nil
}

// MoveToHostAsync implements NumericObject.
func (v *Vector[T]) MoveToHostAsync() error {
	if err := v.Sync(); err != nil {
		return err
	}
	if v.isHost() {
		return nil
	}
	if !v.context().AsyncSupported() || v.Len() == 0 {
		return v.MoveToHost()
	}

	acc := v.store.(*accelVector[T])
	q := &transfers{}
	data, err := download[T](v.context(), acc.buf, int(acc.n), q)
	if err != nil {
		return err
	}
	v.setPending(Host, q, func() error {
		v.store = &hostVector[T]{data: data}
		acc.release()
		return nil
	}, nil)

	v.logger().V(4).Info("Vector queued move to host", "name", v.name, "size", acc.n)
	return nil
}

// Sync implements NumericObject.
func (v *Vector[T]) Sync() error {
	return v.syncPending()
}

// CloneBackend implements NumericObject.
func (v *Vector[T]) CloneBackend(src Binder) error {
	return cloneBackend(v, &v.Object, src)
}

// Clear releases the storage. The vector stays at its current location.
func (v *Vector[T]) Clear() {
	if err := v.Sync(); err != nil {
		v.logger().Error(err, "Vector clear: pending relocation failed", "name", v.name)
	}
	loc := v.store.location()
	v.store.release()
	if loc == Accelerator {
		v.store = &accelVector[T]{}
	} else {
		v.store = &hostVector[T]{}
	}
	v.logger().V(4).Info("Vector cleared", "name", v.name)
}

// Close clears the vector and unregisters it.
func (v *Vector[T]) Close() error {
	v.Clear()
	v.untrack(v)
	return nil
}

// Info describes the vector.
func (v *Vector[T]) Info() string {
	return fmt.Sprintf("Vector name=%s; size=%d; prec=%dbit; %s; current=%s",
		v.name, v.Len(), precisionBits[T](), v.context().Info(), v.store.location())
}
