package gpu

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-linalg/internal/sparselu"
)

// MockOptions configures a MockBackend.
type MockOptions struct {
	// Synchronous makes allocated buffers plain Buffers without AsyncBuffer
	// support, as on a device without copy engines.
	Synchronous bool

	// Latency delays every operation queued on a stream.
	Latency time.Duration

	// MaxBuffers caps the number of live buffers; 0 means no limit.
	// Allocations beyond it fail with ErrOutOfMemory.
	MaxBuffers int
}

// MockBackend is a CPU-backed GPU backend for development and tests.
// Device memory is a separate host allocation, so data only reaches it
// through Upload/Download; LU plans run through the host sparse kernel.
type MockBackend struct {
	device    DeviceInfo
	opts      MockOptions
	live      atomic.Int64
	transfers atomic.Int64
}

// NewMockBackend returns a mock backend with a single fake device.
func NewMockBackend() *MockBackend {
	return NewMockBackendWithOptions(MockOptions{})
}

// NewMockBackendWithOptions returns a mock backend configured by opts.
func NewMockBackendWithOptions(opts MockOptions) *MockBackend {
	return &MockBackend{
		device: DeviceInfo{
			Name:       "MockGPU",
			Vendor:     "algolinalg",
			Driver:     "mock",
			MemoryMB:   0,
			ComputeCap: "cpu",
		},
		opts: opts,
	}
}

func (b *MockBackend) Info() BackendInfo {
	return BackendInfo{
		Name:        "mock",
		Version:     "0.2",
		Description: "CPU-backed mock GPU backend",
	}
}

func (b *MockBackend) Available() bool {
	return true
}

func (b *MockBackend) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{b.device}, nil
}

func (b *MockBackend) NewContext(deviceIndex int) (Context, error) {
	if deviceIndex != 0 {
		return nil, fmt.Errorf("mock backend: device index %d out of range", deviceIndex)
	}
	return &mockContext{backend: b, device: b.device}, nil
}

// LiveBuffers reports how many buffers are allocated and not yet closed.
func (b *MockBackend) LiveBuffers() int64 {
	return b.live.Load()
}

// Transfers reports the number of completed host/device copies.
func (b *MockBackend) Transfers() int64 {
	return b.transfers.Load()
}

// RegisterMockBackend registers the mock backend as the active backend.
func RegisterMockBackend() {
	RegisterBackend(NewMockBackend())
}

type mockContext struct {
	backend *MockBackend
	device  DeviceInfo
}

func (c *mockContext) Device() DeviceInfo {
	return c.device
}

func (c *mockContext) NewBuffer(elemCount int, kind ElemKind) (Buffer, error) {
	if elemCount < 0 {
		return nil, ErrInvalidLength
	}

	var data any
	switch kind {
	case ElemFloat32:
		data = make([]float32, elemCount)
	case ElemFloat64:
		data = make([]float64, elemCount)
	case ElemInt32:
		data = make([]int32, elemCount)
	default:
		return nil, ErrNotImplemented
	}

	if n := c.backend.live.Add(1); c.backend.opts.MaxBuffers > 0 && n > int64(c.backend.opts.MaxBuffers) {
		c.backend.live.Add(-1)
		return nil, ErrOutOfMemory
	}
	buf := &mockBuffer{ctx: c, kind: kind, len: elemCount, data: data}
	if c.backend.opts.Synchronous {
		return syncOnlyBuffer{Buffer: buf}, nil
	}
	return buf, nil
}

func (c *mockContext) NewStream() (Stream, error) {
	return newMockStream(c.backend.opts.Latency), nil
}

func (c *mockContext) NewLUPlan(n int, kind ElemKind) (LUPlan, error) {
	if n < 1 {
		return nil, ErrInvalidLength
	}
	if kind != ElemFloat32 && kind != ElemFloat64 {
		return nil, ErrTypeMismatch
	}
	return &mockLUPlan{ctx: c, n: n, kind: kind}, nil
}

func (c *mockContext) SpMV(dst Buffer, rowPtr, colInd, values Buffer, src Buffer, alpha, beta float64) error {
	y, err := c.own(dst)
	if err != nil {
		return err
	}
	x, err := c.own(src)
	if err != nil {
		return err
	}
	rp, ci, err := c.pattern(rowPtr, colInd)
	if err != nil {
		return err
	}
	v, err := c.own(values)
	if err != nil {
		return err
	}

	vals, err := v.floats()
	if err != nil {
		return err
	}
	in, err := x.floats()
	if err != nil {
		return err
	}
	out, err := y.floats()
	if err != nil {
		return err
	}
	rows := len(rp) - 1
	if rows != len(out) || len(vals) != len(ci) {
		return ErrLengthMismatch
	}

	for i := range rows {
		var sum float64
		for k := rp[i]; k < rp[i+1]; k++ {
			col := int(ci[k])
			if col >= len(in) {
				return ErrLengthMismatch
			}
			sum += vals[k] * in[col]
		}
		out[i] = alpha*sum + beta*out[i]
	}
	return y.storeFloats(out)
}

func (c *mockContext) Close() error {
	return nil
}

// own resolves b to a live buffer allocated by this context.
func (c *mockContext) own(b Buffer) (*mockBuffer, error) {
	var mb *mockBuffer
	switch v := b.(type) {
	case *mockBuffer:
		mb = v
	case syncOnlyBuffer:
		inner, ok := v.Buffer.(*mockBuffer)
		if !ok {
			return nil, ErrForeignBuffer
		}
		mb = inner
	default:
		return nil, ErrForeignBuffer
	}
	if mb.ctx != c {
		return nil, ErrForeignBuffer
	}
	if mb.closed {
		return nil, ErrBufferClosed
	}
	return mb, nil
}

func (c *mockContext) pattern(rowPtr, colInd Buffer) ([]int32, []int32, error) {
	rb, err := c.own(rowPtr)
	if err != nil {
		return nil, nil, err
	}
	cb, err := c.own(colInd)
	if err != nil {
		return nil, nil, err
	}
	rp, ok := rb.data.([]int32)
	if !ok {
		return nil, nil, ErrTypeMismatch
	}
	ci, ok := cb.data.([]int32)
	if !ok {
		return nil, nil, ErrTypeMismatch
	}
	return rp, ci, nil
}

type mockBuffer struct {
	ctx    *mockContext
	kind   ElemKind
	len    int
	data   any
	closed bool
}

// syncOnlyBuffer hides the AsyncBuffer methods of the wrapped buffer.
type syncOnlyBuffer struct {
	Buffer
}

func (b *mockBuffer) Len() int {
	return b.len
}

func (b *mockBuffer) Kind() ElemKind {
	return b.kind
}

func (b *mockBuffer) Upload(src any) error {
	if b.closed {
		return ErrBufferClosed
	}

	var err error
	switch data := b.data.(type) {
	case []float32:
		err = copyIn(data, src)
	case []float64:
		err = copyIn(data, src)
	case []int32:
		err = copyIn(data, src)
	default:
		err = ErrNotImplemented
	}
	if err == nil {
		b.ctx.backend.transfers.Add(1)
	}
	return err
}

func (b *mockBuffer) Download(dst any) error {
	if b.closed {
		return ErrBufferClosed
	}

	var err error
	switch data := b.data.(type) {
	case []float32:
		err = copyOut(dst, data)
	case []float64:
		err = copyOut(dst, data)
	case []int32:
		err = copyOut(dst, data)
	default:
		err = ErrNotImplemented
	}
	if err == nil {
		b.ctx.backend.transfers.Add(1)
	}
	return err
}

func (b *mockBuffer) UploadAsync(src any, s Stream) (Event, error) {
	ms, ok := s.(*mockStream)
	if !ok {
		return nil, ErrNotImplemented
	}
	if b.closed {
		return nil, ErrBufferClosed
	}
	return ms.enqueue(func() error { return b.Upload(src) })
}

func (b *mockBuffer) DownloadAsync(dst any, s Stream) (Event, error) {
	ms, ok := s.(*mockStream)
	if !ok {
		return nil, ErrNotImplemented
	}
	if b.closed {
		return nil, ErrBufferClosed
	}
	return ms.enqueue(func() error { return b.Download(dst) })
}

func (b *mockBuffer) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.data = nil
	b.len = 0
	b.ctx.backend.live.Add(-1)
	return nil
}

// floats returns a float64 copy of a floating-point buffer.
func (b *mockBuffer) floats() ([]float64, error) {
	switch data := b.data.(type) {
	case []float64:
		out := make([]float64, len(data))
		copy(out, data)
		return out, nil
	case []float32:
		out := make([]float64, len(data))
		for i, v := range data {
			out[i] = float64(v)
		}
		return out, nil
	default:
		return nil, ErrTypeMismatch
	}
}

func (b *mockBuffer) storeFloats(values []float64) error {
	switch data := b.data.(type) {
	case []float64:
		copy(data, values)
		return nil
	case []float32:
		for i := range data {
			data[i] = float32(values[i])
		}
		return nil
	default:
		return ErrTypeMismatch
	}
}

func copyIn[E any](dst []E, src any) error {
	data, ok := src.([]E)
	if !ok {
		return ErrTypeMismatch
	}
	if len(data) < len(dst) {
		return ErrLengthMismatch
	}
	copy(dst, data[:len(dst)])
	return nil
}

func copyOut[E any](dst any, src []E) error {
	data, ok := dst.([]E)
	if !ok {
		return ErrTypeMismatch
	}
	if len(data) < len(src) {
		return ErrLengthMismatch
	}
	copy(data[:len(src)], src)
	return nil
}

// mockStream executes queued work in order on its own goroutine.
type mockStream struct {
	latency time.Duration
	queue   chan func()
	pending sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// mockEvent carries the outcome of one queued operation.
type mockEvent struct {
	done chan struct{}
	err  error
}

func (e *mockEvent) Wait() error {
	<-e.done
	return e.err
}

func newMockStream(latency time.Duration) *mockStream {
	s := &mockStream{
		latency: latency,
		queue:   make(chan func(), 16),
	}
	go s.run()
	return s
}

func (s *mockStream) run() {
	for job := range s.queue {
		if s.latency > 0 {
			time.Sleep(s.latency)
		}
		job()
		s.pending.Done()
	}
}

func (s *mockStream) enqueue(fn func() error) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStreamClosed
	}
	ev := &mockEvent{done: make(chan struct{})}
	s.pending.Add(1)
	s.queue <- func() {
		ev.err = fn()
		close(ev.done)
	}
	return ev, nil
}

func (s *mockStream) Synchronize() error {
	s.pending.Wait()
	return nil
}

func (s *mockStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()
	s.pending.Wait()
	return nil
}

type mockLUPlan struct {
	ctx  *mockContext
	n    int
	kind ElemKind
	fact *sparselu.Factorization
}

func (p *mockLUPlan) Len() int {
	return p.n
}

func (p *mockLUPlan) Kind() ElemKind {
	return p.kind
}

func (p *mockLUPlan) Factor(rowPtr, colInd, values Buffer) error {
	rp, ci, err := p.ctx.pattern(rowPtr, colInd)
	if err != nil {
		return err
	}
	vb, err := p.ctx.own(values)
	if err != nil {
		return err
	}
	if vb.kind != p.kind {
		return ErrTypeMismatch
	}
	vals, err := vb.floats()
	if err != nil {
		return err
	}

	fact, err := sparselu.Factor(p.n, rp, ci, vals)
	if err != nil {
		return err
	}
	p.fact.Release()
	p.fact = fact
	return nil
}

func (p *mockLUPlan) Solve(dst, src Buffer) error {
	if p.fact == nil {
		return ErrNotFactored
	}
	xb, err := p.ctx.own(dst)
	if err != nil {
		return err
	}
	bb, err := p.ctx.own(src)
	if err != nil {
		return err
	}
	if xb.len != p.n || bb.len != p.n {
		return ErrLengthMismatch
	}

	rhs, err := bb.floats()
	if err != nil {
		return err
	}
	x := make([]float64, p.n)
	if err := p.fact.Solve(x, rhs); err != nil {
		return err
	}
	return xb.storeFloats(x)
}

func (p *mockLUPlan) Close() error {
	p.fact.Release()
	p.fact = nil
	return nil
}
