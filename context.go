package algolinalg

import (
	"errors"
	"fmt"
	"sync"

	"k8s.io/klog/v2"

	"github.com/cwbudde/algo-linalg/gpu"
	"github.com/cwbudde/algo-linalg/internal/cpu"
)

// ContextOptions controls backend context creation.
type ContextOptions struct {
	// Backend selects the accelerator backend. Nil uses the backend registered
	// with gpu.RegisterBackend; with neither, the context is host-only.
	Backend gpu.Backend

	// DeviceIndex selects which device to use (0 = default).
	DeviceIndex int

	// DisableAsync turns the MoveTo*Async calls into their synchronous variants.
	DisableAsync bool

	// Logger receives diagnostics. The zero value uses klog's background logger.
	Logger klog.Logger

	// Registry, if set, is notified when objects bound to the context are
	// created and closed.
	Registry Registry
}

// Context is the backend context numeric objects are bound to: the active
// accelerator device (if any), its transfer stream, the diagnostic sink and
// the optional object registry.
//
// A Context is shared by every object bound to it and must outlive them;
// Close it after closing the objects.
type Context struct {
	info        gpu.BackendInfo
	hasBackend  bool
	device      gpu.Context
	stream      gpu.Stream
	deviceIndex int
	async       bool
	logger      klog.Logger
	registry    Registry
}

// HostInfo describes the host processor.
type HostInfo struct {
	Architecture string
	NumCPU       int
	SIMD         string
	MemoryMB     int
}

var hostContext = sync.OnceValue(func() *Context {
	return &Context{logger: defaultLogger()}
})

// HostContext returns the shared host-only context used by objects created
// with a nil context.
func HostContext() *Context {
	return hostContext()
}

func defaultLogger() klog.Logger {
	return klog.Background().WithName("algolinalg")
}

// NewContext opens a backend context. When the selected backend reports no
// usable device, the context is host-only and moves to the accelerator fail
// with ErrBackendUnavailable.
func NewContext(opts ContextOptions) (*Context, error) {
	c := &Context{
		deviceIndex: opts.DeviceIndex,
		logger:      opts.Logger,
		registry:    opts.Registry,
	}
	if c.logger.GetSink() == nil {
		c.logger = defaultLogger()
	}

	backend := opts.Backend
	if backend == nil {
		backend = gpu.Current()
	}
	if backend == nil {
		c.logger.V(2).Info("no accelerator backend registered, using host only")
		return c, nil
	}

	c.info = backend.Info()
	c.hasBackend = true
	if !backend.Available() {
		c.logger.V(2).Info("accelerator backend unavailable, using host only", "backend", c.info.Name)
		return c, nil
	}

	device, err := backend.NewContext(opts.DeviceIndex)
	if err != nil {
		return nil, fmt.Errorf("algolinalg: opening %s device %d: %w", c.info.Name, opts.DeviceIndex, err)
	}

	stream, err := device.NewStream()
	if err != nil {
		_ = device.Close()
		return nil, fmt.Errorf("algolinalg: creating %s stream: %w", c.info.Name, err)
	}

	c.device = device
	c.stream = stream
	c.async = !opts.DisableAsync && probeAsync(device)

	c.logger.V(2).Info("opened accelerator context",
		"backend", c.info.Name,
		"device", device.Device().Name,
		"index", opts.DeviceIndex,
		"async", c.async)

	return c, nil
}

// probeAsync reports whether buffers of the device support queued transfers.
func probeAsync(device gpu.Context) bool {
	probe, err := device.NewBuffer(0, gpu.ElemFloat64)
	if err != nil {
		return false
	}
	_, ok := probe.(gpu.AsyncBuffer)
	_ = probe.Close()
	return ok
}

// AcceleratorAvailable reports whether objects bound to c can move to the accelerator.
func (c *Context) AcceleratorAvailable() bool {
	return c != nil && c.device != nil
}

// AsyncSupported reports whether MoveTo*Async calls are truly asynchronous.
func (c *Context) AsyncSupported() bool {
	return c.AcceleratorAvailable() && c.async
}

// DeviceIndex returns the index of the device the context was opened on.
func (c *Context) DeviceIndex() int {
	return c.deviceIndex
}

// Device describes the accelerator device, if any.
func (c *Context) Device() (gpu.DeviceInfo, bool) {
	if !c.AcceleratorAvailable() {
		return gpu.DeviceInfo{}, false
	}
	return c.device.Device(), true
}

// Logger returns the diagnostic sink of the context.
func (c *Context) Logger() klog.Logger {
	return c.logger
}

// Host describes the host processor.
func (c *Context) Host() HostInfo {
	f := cpu.DetectFeatures()
	return HostInfo{
		Architecture: f.Architecture,
		NumCPU:       f.NumCPU,
		SIMD:         f.SIMD(),
		MemoryMB:     cpu.HostMemoryMB(),
	}
}

// Info returns a one-line description of the host and accelerator backends.
func (c *Context) Info() string {
	h := c.Host()
	s := fmt.Sprintf("host backend={CPU %s, %d threads, simd=%s, %d MB}", h.Architecture, h.NumCPU, h.SIMD, h.MemoryMB)
	switch {
	case c.AcceleratorAvailable():
		d := c.device.Device()
		s += fmt.Sprintf("; accelerator backend={%s %s, device %d %q, async=%t}", c.info.Name, c.info.Version, c.deviceIndex, d.Name, c.async)
	case c.hasBackend:
		s += fmt.Sprintf("; accelerator backend={%s unavailable}", c.info.Name)
	default:
		s += "; accelerator backend={none}"
	}
	return s
}

// Close releases the stream and device context.
func (c *Context) Close() error {
	if c == nil || c.device == nil {
		return nil
	}
	var errs []error
	if c.stream != nil {
		errs = append(errs, c.stream.Close())
		c.stream = nil
	}
	errs = append(errs, c.device.Close())
	c.device = nil
	return errors.Join(errs...)
}

func (c *Context) requireAccelerator() error {
	if c.AcceleratorAvailable() {
		return nil
	}
	if c.hasBackend {
		return fmt.Errorf("%w: %s: %w", ErrBackendUnavailable, c.info.Name, gpu.ErrBackendUnavailable)
	}
	return fmt.Errorf("%w: %w", ErrBackendUnavailable, gpu.ErrNoBackend)
}

func (c *Context) newBuffer(n int, kind gpu.ElemKind) (gpu.Buffer, error) {
	if err := c.requireAccelerator(); err != nil {
		return nil, err
	}
	buf, err := c.device.NewBuffer(n, kind)
	if err != nil {
		return nil, fmt.Errorf("algolinalg: allocating %d %s elements: %w", n, kind, err)
	}
	return buf, nil
}

// transfers collects the events of copies queued for one relocation.
// A nil *transfers means copy synchronously.
type transfers struct {
	events []gpu.Event
}

func (q *transfers) add(ev gpu.Event) {
	q.events = append(q.events, ev)
}

// wait blocks for every queued copy and joins their errors.
func (q *transfers) wait() error {
	if q == nil {
		return nil
	}
	var errs []error
	for _, ev := range q.events {
		if err := ev.Wait(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// upload allocates a device buffer holding a copy of data. With q set the
// copy is queued on the context stream and its event recorded in q.
func upload[E any](c *Context, data []E, kind gpu.ElemKind, q *transfers) (gpu.Buffer, error) {
	buf, err := c.newBuffer(len(data), kind)
	if err != nil {
		return nil, err
	}
	if ab, ok := buf.(gpu.AsyncBuffer); ok && q != nil {
		var ev gpu.Event
		if ev, err = ab.UploadAsync(data, c.stream); err == nil {
			q.add(ev)
		}
	} else {
		err = buf.Upload(data)
	}
	if err != nil {
		_ = buf.Close()
		return nil, err
	}
	return buf, nil
}

// download copies buf into a new host slice of n elements.
func download[E any](c *Context, buf gpu.Buffer, n int, q *transfers) ([]E, error) {
	out := make([]E, n)
	if buf == nil {
		return out, nil
	}
	var err error
	if ab, ok := buf.(gpu.AsyncBuffer); ok && q != nil {
		var ev gpu.Event
		if ev, err = ab.DownloadAsync(out, c.stream); err == nil {
			q.add(ev)
		}
	} else {
		err = buf.Download(out)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Context) synchronize() error {
	if c.stream == nil {
		return nil
	}
	return c.stream.Synchronize()
}

func (c *Context) newLUPlan(n int, kind gpu.ElemKind) (gpu.LUPlan, error) {
	if err := c.requireAccelerator(); err != nil {
		return nil, err
	}
	return c.device.NewLUPlan(n, kind)
}

func (c *Context) spmv() (gpu.SpMVContext, error) {
	if err := c.requireAccelerator(); err != nil {
		return nil, err
	}
	k, ok := c.device.(gpu.SpMVContext)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no SpMV kernel", ErrNotImplemented, c.info.Name)
	}
	return k, nil
}

func closeBuffers(bufs ...gpu.Buffer) {
	for _, b := range bufs {
		if b != nil {
			_ = b.Close()
		}
	}
}
