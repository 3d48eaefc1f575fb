package device

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/google/uuid"
	"github.com/x448/float16"
	"k8s.io/klog/v2"
)

// Verify that the host types implement the device interfaces.
var (
	_ Allocator    = (*HostAllocator)(nil)
	_ Storage      = (*hostBuffer)(nil)
	_ HostAccessor = (*hostBuffer)(nil)
)

// hostBuffer is a reference-counted element buffer in host memory.
// The memory is dropped when the last reference is released.
type hostBuffer struct {
	id       uuid.UUID
	owner    *HostAllocator
	dtype    DataType
	n        int
	data     []byte
	f32      []float32 // aliases data when dtype == Float32
	f16      []uint16  // aliases data when dtype == Float16
	refCount atomic.Int32
	mu       sync.Mutex // For safe deallocation
}

func newHostBuffer(owner *HostAllocator, dtype DataType, n int) *hostBuffer {
	buf := &hostBuffer{
		id:    uuid.New(),
		owner: owner,
		dtype: dtype,
		n:     n,
		data:  make([]byte, n*dtype.Size()),
	}
	switch dtype {
	case Float32:
		//nolint:gosec // unsafe.Slice for zero-copy element access, length fixed by n
		buf.f32 = unsafe.Slice((*float32)(unsafe.Pointer(&buf.data[0])), n)
	case Float16:
		//nolint:gosec // unsafe.Slice for zero-copy element access, length fixed by n
		buf.f16 = unsafe.Slice((*uint16)(unsafe.Pointer(&buf.data[0])), n)
	}
	buf.refCount.Store(1)
	return buf
}

func (b *hostBuffer) ID() uuid.UUID   { return b.id }
func (b *hostBuffer) Device() Device  { return CPU }
func (b *hostBuffer) DType() DataType { return b.dtype }
func (b *hostBuffer) Len() int        { return b.n }
func (b *hostBuffer) ByteSize() int   { return b.n * b.dtype.Size() }

// Load returns element i converted to float32.
// Panics if i is out of range or the buffer was freed. Callers must not
// race Load with the Free that drops the last reference.
func (b *hostBuffer) Load(i int) float32 {
	if !b.live() {
		panic(fmt.Sprintf("load: use of freed buffer %s", b.id))
	}
	if i < 0 || i >= b.n {
		panic(fmt.Sprintf("load: index %d out of range [0, %d)", i, b.n))
	}
	if b.dtype == Float16 {
		return float16.Frombits(b.f16[i]).Float32()
	}
	return b.f32[i]
}

// Store writes v to element i, rounding to the buffer's element type.
// Panics under the same conditions as Load.
func (b *hostBuffer) Store(i int, v float32) {
	if !b.live() {
		panic(fmt.Sprintf("store: use of freed buffer %s", b.id))
	}
	if i < 0 || i >= b.n {
		panic(fmt.Sprintf("store: index %d out of range [0, %d)", i, b.n))
	}
	if b.dtype == Float16 {
		b.f16[i] = float16.Fromfloat32(v).Bits()
		return
	}
	b.f32[i] = v
}

func (b *hostBuffer) live() bool {
	return b.refCount.Load() > 0
}

func (b *hostBuffer) addRef() bool {
	for {
		n := b.refCount.Load()
		if n <= 0 {
			return false
		}
		if b.refCount.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// release drops one reference and reports whether it was the last one.
func (b *hostBuffer) release() (bool, error) {
	for {
		n := b.refCount.Load()
		if n <= 0 {
			return false, ErrInvalidStorage
		}
		if !b.refCount.CompareAndSwap(n, n-1) {
			continue
		}
		if n > 1 {
			return false, nil
		}
		b.mu.Lock()
		b.data, b.f32, b.f16 = nil, nil, nil
		b.mu.Unlock()
		return true, nil
	}
}

// HostAllocator simulates device memory in host memory.
// It is safe for concurrent use.
type HostAllocator struct {
	dtype   DataType
	tracker Tracker
}

// NewHostAllocator creates an allocator whose buffers hold elements of dtype.
func NewHostAllocator(dtype DataType) *HostAllocator {
	return &HostAllocator{dtype: dtype}
}

// Device returns CPU.
func (a *HostAllocator) Device() Device {
	return CPU
}

// DType returns the element type of every buffer this allocator creates.
func (a *HostAllocator) DType() DataType {
	return a.dtype
}

// Allocate returns a zero-filled buffer of n elements with one reference.
func (a *HostAllocator) Allocate(n int) (Storage, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d elements", ErrInvalidSize, n)
	}
	buf := newHostBuffer(a, a.dtype, n)
	a.tracker.Alloc(buf.ByteSize())
	klog.V(2).Infof("device: allocated %s buffer %s (%d elements)", a.dtype, buf.id, n)
	return buf, nil
}

// Retain adds a reference to s so that it survives one more Free.
func (a *HostAllocator) Retain(s Storage) error {
	buf, err := a.own(s)
	if err != nil {
		return err
	}
	if !buf.addRef() {
		return ErrInvalidStorage
	}
	return nil
}

// Free releases one reference to s and drops its memory on the last one.
func (a *HostAllocator) Free(s Storage) error {
	buf, err := a.own(s)
	if err != nil {
		return err
	}
	last, err := buf.release()
	if err != nil {
		klog.Warningf("device: free of released buffer %s", buf.id)
		return err
	}
	if last {
		a.tracker.Free(buf.ByteSize())
		klog.V(2).Infof("device: freed buffer %s", buf.id)
	}
	return nil
}

// CopyHostToDevice copies src into dst starting at element dstOffset.
func (a *HostAllocator) CopyHostToDevice(dst Storage, dstOffset int, src []float32) error {
	buf, err := a.own(dst)
	if err != nil {
		return err
	}
	if err := checkRange(buf, dstOffset, len(src)); err != nil {
		return err
	}
	if buf.dtype == Float32 {
		copy(buf.f32[dstOffset:], src)
		return nil
	}
	for i, v := range src {
		buf.Store(dstOffset+i, v)
	}
	return nil
}

// CopyDeviceToHost fills dst with elements of src starting at srcOffset.
func (a *HostAllocator) CopyDeviceToHost(dst []float32, src Storage, srcOffset int) error {
	buf, err := a.own(src)
	if err != nil {
		return err
	}
	if err := checkRange(buf, srcOffset, len(dst)); err != nil {
		return err
	}
	if buf.dtype == Float32 {
		copy(dst, buf.f32[srcOffset:])
		return nil
	}
	for i := range dst {
		dst[i] = buf.Load(srcOffset + i)
	}
	return nil
}

// Stats returns the allocator's counters.
func (a *HostAllocator) Stats() Stats {
	return a.tracker.Snapshot()
}

func (a *HostAllocator) own(s Storage) (*hostBuffer, error) {
	buf, ok := s.(*hostBuffer)
	if !ok || buf.owner != a {
		klog.Warningf("device: storage %T does not belong to this allocator", s)
		return nil, ErrInvalidStorage
	}
	if !buf.live() {
		return nil, ErrInvalidStorage
	}
	return buf, nil
}

func checkRange(buf *hostBuffer, offset, count int) error {
	if offset < 0 || offset+count > buf.n {
		return fmt.Errorf("%w: [%d, %d) of %d elements", ErrOutOfBounds, offset, offset+count, buf.n)
	}
	return nil
}
