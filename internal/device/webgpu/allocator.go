//go:build windows

package webgpu

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"
	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/born-ml/viewcast/internal/device"
)

// Verify that the WebGPU types implement the device interfaces.
var (
	_ device.Allocator = (*Allocator)(nil)
	_ device.Storage   = (*Buffer)(nil)
)

const storageUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst

// Buffer is float32 storage resident in GPU memory.
type Buffer struct {
	id     uuid.UUID
	owner  *Allocator
	buffer *wgpu.Buffer
	n      int
	refs   int
}

func (b *Buffer) ID() uuid.UUID          { return b.id }
func (b *Buffer) Device() device.Device  { return device.WebGPU }
func (b *Buffer) DType() device.DataType { return device.Float32 }
func (b *Buffer) Len() int               { return b.n }
func (b *Buffer) ByteSize() int          { return b.n * 4 }

// Allocator hands out GPU storage buffers backed by a recycling pool.
type Allocator struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	pool     *BufferPool

	mu      sync.Mutex // guards Buffer.refs
	tracker device.Tracker
}

// New creates an allocator on the default high-performance adapter.
// Returns an error wrapping device.ErrDeviceUnavailable if WebGPU cannot start.
func New() (a *Allocator, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			a = nil
			err = fmt.Errorf("webgpu: native library not available: %v: %w", r, device.ErrDeviceUnavailable)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request adapter: %w: %w", err, device.ErrDeviceUnavailable)
	}

	dev, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request device: %w: %w", err, device.ErrDeviceUnavailable)
	}

	queue := dev.GetQueue()
	if queue == nil {
		dev.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to get queue: %w", device.ErrDeviceUnavailable)
	}

	return &Allocator{
		instance: instance,
		adapter:  adapter,
		device:   dev,
		queue:    queue,
		pool:     NewBufferPool(dev),
	}, nil
}

// Device returns WebGPU.
func (a *Allocator) Device() device.Device {
	return device.WebGPU
}

// Allocate returns a zero-filled GPU buffer of n float32 elements.
func (a *Allocator) Allocate(n int) (device.Storage, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d elements", device.ErrInvalidSize, n)
	}
	buf := &Buffer{
		id:     uuid.New(),
		owner:  a,
		buffer: a.pool.Acquire(uint64(n)*4, storageUsage), //nolint:gosec // n validated positive
		n:      n,
		refs:   1,
	}
	// Pooled buffers keep the contents of their previous owner.
	if err := a.upload(buf.buffer, 0, make([]float32, n)); err != nil {
		a.pool.Release(buf.buffer, uint64(n)*4, storageUsage) //nolint:gosec // n validated positive
		return nil, err
	}
	a.tracker.Alloc(buf.ByteSize())
	klog.V(2).Infof("webgpu: allocated buffer %s (%d elements)", buf.id, n)
	return buf, nil
}

// Free releases one reference to s and returns its buffer to the pool on the last one.
func (a *Allocator) Free(s device.Storage) error {
	buf, err := a.own(s)
	if err != nil {
		return err
	}

	a.mu.Lock()
	buf.refs--
	last := buf.refs == 0
	a.mu.Unlock()

	if last {
		a.pool.Release(buf.buffer, uint64(buf.ByteSize()), storageUsage) //nolint:gosec // size validated positive
		a.tracker.Free(buf.ByteSize())
		klog.V(2).Infof("webgpu: freed buffer %s", buf.id)
	}
	return nil
}

// CopyHostToDevice uploads src into dst starting at element dstOffset.
func (a *Allocator) CopyHostToDevice(dst device.Storage, dstOffset int, src []float32) error {
	buf, err := a.own(dst)
	if err != nil {
		return err
	}
	if err := checkRange(buf, dstOffset, len(src)); err != nil {
		return err
	}
	return a.upload(buf.buffer, uint64(dstOffset)*4, src) //nolint:gosec // offset checked above
}

// CopyDeviceToHost downloads len(dst) elements of src starting at srcOffset.
func (a *Allocator) CopyDeviceToHost(dst []float32, src device.Storage, srcOffset int) error {
	buf, err := a.own(src)
	if err != nil {
		return err
	}
	if err := checkRange(buf, srcOffset, len(dst)); err != nil {
		return err
	}
	if len(dst) == 0 {
		return nil
	}

	size := uint64(len(dst)) * 4
	// Storage buffers can't be mapped directly; read through a staging buffer.
	staging := a.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	encoder := a.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(buf.buffer, uint64(srcOffset)*4, staging, 0, size) //nolint:gosec // offset checked above
	a.queue.Submit(encoder.Finish(nil))

	if err := staging.MapAsync(a.device, wgpu.MapModeRead, 0, size); err != nil {
		return fmt.Errorf("webgpu: failed to map staging buffer: %w", err)
	}
	mapped := staging.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	copy(dst, unsafe.Slice((*float32)(mapped), len(dst)))
	staging.Unmap()
	return nil
}

// Stats returns the allocator's counters.
func (a *Allocator) Stats() device.Stats {
	return a.tracker.Snapshot()
}

// Release destroys pooled buffers and the WebGPU device.
// Storage still held by views becomes invalid.
func (a *Allocator) Release() {
	if hits, misses, idle := a.pool.Stats(); klog.V(2).Enabled() {
		klog.Infof("webgpu: releasing allocator (pool hits %d, misses %d, idle %d; %s)", hits, misses, idle, a.Stats())
	}
	a.pool.Clear()
	a.queue.Release()
	a.device.Release()
	a.adapter.Release()
	a.instance.Release()
}

// upload writes data at byte offset off of dst through a mapped staging buffer.
func (a *Allocator) upload(dst *wgpu.Buffer, off uint64, data []float32) error {
	if len(data) == 0 {
		return nil
	}
	size := uint64(len(data)) * 4

	staging := a.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageCopySrc,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	if staging == nil {
		return fmt.Errorf("webgpu: failed to create staging buffer of %d bytes", size)
	}
	defer staging.Release()

	mapped := staging.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	copy(unsafe.Slice((*float32)(mapped), len(data)), data)
	staging.Unmap()

	encoder := a.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(staging, 0, dst, off, size)
	a.queue.Submit(encoder.Finish(nil))
	return nil
}

func (a *Allocator) own(s device.Storage) (*Buffer, error) {
	buf, ok := s.(*Buffer)
	if !ok || buf.owner != a {
		return nil, device.ErrInvalidStorage
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if buf.refs <= 0 {
		klog.Warningf("webgpu: use of freed buffer %s", buf.id)
		return nil, device.ErrInvalidStorage
	}
	return buf, nil
}

func checkRange(buf *Buffer, offset, count int) error {
	if offset < 0 || offset+count > buf.n {
		return fmt.Errorf("%w: [%d, %d) of %d elements", device.ErrOutOfBounds, offset, offset+count, buf.n)
	}
	return nil
}
