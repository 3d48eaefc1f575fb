package tensor

import (
	"fmt"

	"github.com/born-ml/viewcast/internal/device"
)

// Alloc allocates storage for a view with the given sizes and strides and wraps it.
// A nil strides slice means canonical row-major strides. Padded layouts get
// storage large enough to hold their gaps.
//
// Example:
//
//	a := device.NewHostAllocator(device.Float32)
//	v, _ := tensor.Alloc(a, []int{11, 7, 5}, []int{200, 6, 1})
//	// v.Storage().Len() == 2025
func Alloc(a device.Allocator, sizes, strides []int) (View, error) {
	if strides == nil {
		strides = Shape(sizes).ComputeStrides()
	}
	if len(sizes) != len(strides) {
		return View{}, fmt.Errorf("%w: %d sizes but %d strides", ErrInvalidView, len(sizes), len(strides))
	}
	if len(sizes) < 1 || len(sizes) > MaxDims {
		return View{}, fmt.Errorf("%w: rank %d outside [1, %d]", ErrDimensionMismatch, len(sizes), MaxDims)
	}
	extent, err := Shape(sizes).layoutExtent(strides)
	if err != nil {
		return View{}, fmt.Errorf("%w: %w", ErrInvalidView, err)
	}

	s, err := a.Allocate(extent)
	if err != nil {
		return View{}, fmt.Errorf("alloc: %w", err)
	}
	v, err := NewView(s, 0, sizes, strides)
	if err != nil {
		_ = a.Free(s)
		return View{}, err
	}
	return v, nil
}
