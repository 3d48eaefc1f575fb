// Package tensor provides strided tensor views over device storage and the
// rank casts that reinterpret them without copying.
package tensor

import (
	"fmt"

	"github.com/born-ml/viewcast/internal/device"
)

// MaxDims is the highest rank a View can describe.
const MaxDims = 8

// Dims is a fixed-capacity sequence of (size, stride) pairs.
// Copying a Dims never allocates.
type Dims struct {
	n      int
	size   [MaxDims]int
	stride [MaxDims]int
}

// Rank returns the number of dimensions.
func (d *Dims) Rank() int {
	return d.n
}

// Sizes returns the live part of the size array.
// The slice aliases d and must not be retained past d's lifetime.
func (d *Dims) Sizes() []int {
	return d.size[:d.n]
}

// Strides returns the live part of the stride array, aliasing d like Sizes.
func (d *Dims) Strides() []int {
	return d.stride[:d.n]
}

// View addresses elements of a flat storage buffer as an N-dimensional array.
// Element idx lives at Offset() + Σ idx[d]*Stride(d).
//
// A View is a value: casting or copying it never touches the storage, and
// the storage's lifetime is not tied to any view that references it.
type View struct {
	storage device.Storage
	offset  int
	dims    Dims
}

// NewView wraps storage s with explicit sizes and strides.
// The addressed range must fit inside s; this is the only bounds check a view gets.
func NewView(s device.Storage, offset int, sizes, strides []int) (View, error) {
	if len(sizes) < 1 || len(sizes) > MaxDims {
		return View{}, fmt.Errorf("%w: rank %d outside [1, %d]", ErrDimensionMismatch, len(sizes), MaxDims)
	}
	if len(strides) != len(sizes) {
		return View{}, fmt.Errorf("%w: %d sizes but %d strides", ErrInvalidView, len(sizes), len(strides))
	}
	if s == nil {
		return View{}, fmt.Errorf("%w: nil storage", ErrInvalidView)
	}
	if offset < 0 {
		return View{}, fmt.Errorf("%w: negative offset %d", ErrInvalidView, offset)
	}
	extent, err := Shape(sizes).layoutExtent(strides)
	if err != nil {
		return View{}, fmt.Errorf("%w: %w", ErrInvalidView, err)
	}
	if extent > s.Len()-offset {
		return View{}, fmt.Errorf("%w: layout spans %d elements from offset %d but storage holds %d",
			ErrInvalidView, extent, offset, s.Len())
	}

	v := View{storage: s, offset: offset}
	v.dims.n = len(sizes)
	copy(v.dims.size[:], sizes)
	copy(v.dims.stride[:], strides)
	return v, nil
}

// NewContiguous wraps storage s with canonical row-major strides.
func NewContiguous(s device.Storage, offset int, sizes ...int) (View, error) {
	return NewView(s, offset, sizes, Shape(sizes).ComputeStrides())
}

// Rank returns the number of dimensions.
func (v View) Rank() int {
	return v.dims.n
}

// Size returns the number of elements along dimension d.
func (v View) Size(d int) int {
	v.checkDim(d)
	return v.dims.size[d]
}

// Stride returns the element step along dimension d.
func (v View) Stride(d int) int {
	v.checkDim(d)
	return v.dims.stride[d]
}

// Sizes returns a copy of the per-dimension sizes.
func (v View) Sizes() []int {
	return append([]int(nil), v.dims.Sizes()...)
}

// Strides returns a copy of the per-dimension strides.
func (v View) Strides() []int {
	return append([]int(nil), v.dims.Strides()...)
}

// Dims returns the view's (size, stride) sequence by value.
func (v View) Dims() Dims {
	return v.dims
}

// Offset returns the storage element holding index (0, ..., 0).
func (v View) Offset() int {
	return v.offset
}

// Storage returns the buffer the view addresses.
func (v View) Storage() device.Storage {
	return v.storage
}

// NumElements returns the number of addressable index tuples.
func (v View) NumElements() int {
	if v.dims.n == 0 {
		return 0
	}
	return Shape(v.dims.Sizes()).NumElements()
}

// Extent returns one past the largest storage offset the view addresses.
func (v View) Extent() int {
	return v.offset + Shape(v.dims.Sizes()).Extent(v.dims.Strides())
}

// IsContiguous reports whether the view is fully contiguous:
// no gaps between dimensions and a unit innermost stride.
func (v View) IsContiguous() bool {
	return IsFullyContiguous(v.dims.Sizes(), v.dims.Strides())
}

// IsValid reports whether v was built by a constructor or cast (the zero View is not).
func (v View) IsValid() bool {
	return v.dims.n > 0 && v.storage != nil
}

// Index returns the storage offset of the element at idx.
// Panics if idx has the wrong length or is out of bounds.
func (v View) Index(idx ...int) int {
	if len(idx) != v.dims.n {
		panic(fmt.Sprintf("expected %d indices, got %d", v.dims.n, len(idx)))
	}
	off := v.offset
	for d, i := range idx {
		if i < 0 || i >= v.dims.size[d] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", i, d, v.dims.size[d]))
		}
		off += i * v.dims.stride[d]
	}
	return off
}

// Equal reports whether both views address the same storage with the same layout.
func (v View) Equal(other View) bool {
	return v.storage == other.storage && v.offset == other.offset && v.dims == other.dims
}

// String returns a human-readable description of the view.
func (v View) String() string {
	if !v.IsValid() {
		return "View[invalid]"
	}
	return fmt.Sprintf("View%v strides %v offset %d on %s",
		v.dims.Sizes(), v.dims.Strides(), v.offset, v.storage.Device())
}

func (v View) checkDim(d int) {
	if d < 0 || d >= v.dims.n {
		panic(fmt.Sprintf("dimension %d out of range for rank %d", d, v.dims.n))
	}
}
