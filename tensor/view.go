// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/viewcast/internal/tensor"
)

// MaxDims is the largest rank a view can have.
const MaxDims = tensor.MaxDims

// View is a strided window onto device storage.
//
// View is a small value type. Copying it copies the layout, not the data.
//
// Example:
//
//	s, _ := alloc.Allocate(24)
//	v, _ := tensor.NewView(s, 0, []int{2, 3, 4}, []int{12, 4, 1})
//	off := v.Index(1, 2, 3) // 23
type View = tensor.View

// Dims holds the sizes and strides of a view.
type Dims = tensor.Dims

// Shape represents tensor dimensions.
type Shape = tensor.Shape

// CastError describes a failed rank cast. It matches ErrDimensionMismatch
// or ErrIllegalPadding under errors.Is.
type CastError = tensor.CastError

// Errors reported by view construction and casts.
var (
	ErrInvalidView       = tensor.ErrInvalidView
	ErrDimensionMismatch = tensor.ErrDimensionMismatch
	ErrIllegalPadding    = tensor.ErrIllegalPadding
)

// NewView creates a view of s with explicit sizes and strides.
func NewView(s Storage, offset int, sizes, strides []int) (View, error) {
	return tensor.NewView(s, offset, sizes, strides)
}

// NewContiguous creates a row-major view of s starting at offset.
func NewContiguous(s Storage, offset int, sizes ...int) (View, error) {
	return tensor.NewContiguous(s, offset, sizes...)
}

// Alloc allocates storage large enough for the layout and returns a view of it.
// Nil strides select the canonical row-major layout.
func Alloc(a Allocator, sizes, strides []int) (View, error) {
	return tensor.Alloc(a, sizes, strides)
}

// ForEachIndex calls fn for every element of v in lexicographic index order.
func ForEachIndex(v View, fn func(idx []int, off int)) {
	tensor.ForEachIndex(v, fn)
}

// Offsets returns the storage offset of every element of v in index order.
func Offsets(v View) []int {
	return tensor.Offsets(v)
}
