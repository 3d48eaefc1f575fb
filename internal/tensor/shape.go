package tensor

import (
	"fmt"
	"math"
)

// Shape represents the sizes of a tensor, outermost dimension first.
type Shape []int

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// ComputeStrides calculates row-major strides for the shape.
// Strides define memory layout: stride[i] = product of all dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// Extent returns the number of storage elements a layout with these sizes
// and strides spans from its base offset: the largest addressed offset plus one.
func (s Shape) Extent(strides []int) int {
	last := 0
	for i, dim := range s {
		last += (dim - 1) * strides[i]
	}
	return last + 1
}

// layoutExtent validates a layout and returns its Extent.
// Sizes must be positive, strides non-negative, and both the element count
// and the extent must fit in an int.
func (s Shape) layoutExtent(strides []int) (int, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	n := 1
	for _, dim := range s {
		if n > math.MaxInt/dim {
			return 0, fmt.Errorf("element count of %v overflows int", []int(s))
		}
		n *= dim
	}

	last := 0
	for i, dim := range s {
		st := strides[i]
		if st < 0 {
			return 0, fmt.Errorf("negative stride %d at dimension %d", st, i)
		}
		if dim == 1 || st == 0 {
			continue
		}
		if st > (math.MaxInt-1-last)/(dim-1) {
			return 0, fmt.Errorf("stride %d at dimension %d overflows the addressable range", st, i)
		}
		last += (dim - 1) * st
	}
	return last + 1, nil
}
