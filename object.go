package algolinalg

import (
	"fmt"

	"k8s.io/klog/v2"
)

// Binding is the backend descriptor of a numeric object: the context (and
// through it the device and transfer stream) the object is bound to. It
// carries no payload and can be copied between objects of any value type.
type Binding struct {
	ctx *Context
}

// Context returns the bound context.
func (b Binding) Context() *Context {
	return b.ctx
}

// DeviceIndex returns the device index of the bound context.
func (b Binding) DeviceIndex() int {
	if b.ctx == nil {
		return 0
	}
	return b.ctx.deviceIndex
}

// Binder is implemented by every numeric object. It exposes the binding
// metadata and residency of an object without its payload, which lets
// CloneBackend work across value types.
type Binder interface {
	Binding() Binding
	isAccel() bool
}

// NumericObject is the lifecycle shared by vectors, matrices, stencils and
// solvers: backend residency, synchronous and asynchronous relocation, and
// backend cloning. Relocation never changes the logical value of an object.
type NumericObject interface {
	Binder

	Name() string

	// MoveToHost relocates all storage to host memory.
	MoveToHost() error
	// MoveToAccelerator relocates all storage to the accelerator of the
	// bound context. It fails with ErrBackendUnavailable if there is none.
	MoveToAccelerator() error
	// MoveToHostAsync queues the relocation to the host. Sync completes it.
	MoveToHostAsync() error
	// MoveToAcceleratorAsync queues the relocation to the accelerator.
	MoveToAcceleratorAsync() error
	// Sync waits for a queued relocation and completes it.
	Sync() error
	// AsyncPending reports whether a queued relocation awaits Sync.
	AsyncPending() bool

	// CloneBackend binds the object to the backend of src and follows its
	// residency. Values are kept.
	CloneBackend(src Binder) error

	Info() string
	// Clear releases all storage and returns the object to its empty state.
	Clear()
	Close() error

	isHost() bool
}

// Object holds the state every numeric object shares. It is embedded by
// the concrete types.
type Object struct {
	name     string
	binding  Binding
	pending  *pendingMove
	registry Registry
}

// pendingMove is an asynchronous relocation waiting for its stream.
type pendingMove struct {
	target Location
	// queued holds the copies this move owns; nil for moves that only
	// forward to other objects.
	queued *transfers
	// commit swaps in the new storage once the transfers have completed.
	commit func() error
	// abort releases the half-built storage when the transfers failed.
	abort func()
}

func (o *Object) init(ctx *Context, name string) {
	if ctx == nil {
		ctx = HostContext()
	}
	o.name = name
	o.binding = Binding{ctx: ctx}
}

// Name returns the label of the object.
func (o *Object) Name() string {
	return o.name
}

// Binding returns the backend descriptor of the object.
func (o *Object) Binding() Binding {
	return o.binding
}

// AsyncPending reports whether a relocation is queued and not yet synced.
func (o *Object) AsyncPending() bool {
	return o.pending != nil
}

func (o *Object) context() *Context {
	return o.binding.ctx
}

func (o *Object) logger() klog.Logger {
	return o.binding.ctx.logger
}

func (o *Object) setPending(target Location, q *transfers, commit func() error, abort func()) {
	o.pending = &pendingMove{target: target, queued: q, commit: commit, abort: abort}
}

// syncPending waits for the bound stream and commits a queued relocation.
// Only failures of the object's own copies abort the move. It is a no-op
// when nothing is pending.
func (o *Object) syncPending() error {
	p := o.pending
	if p == nil {
		return nil
	}
	o.pending = nil

	err := o.binding.ctx.synchronize()
	if err == nil {
		err = p.queued.wait()
	}
	if err != nil {
		if p.abort != nil {
			p.abort()
		}
		return fmt.Errorf("algolinalg: sync %s to %s: %w", o.name, p.target, err)
	}
	if err := p.commit(); err != nil {
		return fmt.Errorf("algolinalg: sync %s to %s: %w", o.name, p.target, err)
	}
	o.logger().V(4).Info("relocation completed", "object", o.name, "location", p.target)
	return nil
}

func (o *Object) track(self Tracked) {
	if r := o.binding.ctx.registry; r != nil {
		r.Register(self)
		o.registry = r
	}
}

func (o *Object) untrack(self Tracked) {
	if o.registry != nil {
		o.registry.Unregister(self)
		o.registry = nil
	}
}

// cloneBackend rebinds obj to the backend of src. Accelerator storage that
// belongs to another context is brought back to the host first; afterwards
// obj follows the residency of src under the new binding.
func cloneBackend(obj NumericObject, o *Object, src Binder) error {
	if err := obj.Sync(); err != nil {
		return err
	}

	b := src.Binding()
	if b.ctx == nil {
		b = Binding{ctx: HostContext()}
	}

	if !obj.isHost() && b.ctx != o.binding.ctx {
		if err := obj.MoveToHost(); err != nil {
			return err
		}
	}

	o.binding = b
	o.logger().V(4).Info("cloned backend", "object", o.name, "accelerator", src.isAccel())

	if src.isAccel() {
		return obj.MoveToAccelerator()
	}
	return obj.MoveToHost()
}
