// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/viewcast/device"
	"github.com/born-ml/viewcast/internal/tensor"
)

// Storage is the device buffer a view addresses.
type Storage = device.Storage

// Allocator creates storage on one device.
type Allocator = device.Allocator

// Cast returns a view of the same memory with the given rank.
// A smaller rank merges leading dimensions, a larger one prepends unit
// dimensions and an equal rank returns v unchanged.
func Cast(v View, rank int) (View, error) {
	return tensor.Cast(v, rank)
}

// Downcast merges the leading dimensions of v until it has the given rank.
func Downcast(v View, rank int) (View, error) {
	return tensor.Downcast(v, rank)
}

// Upcast prepends unit dimensions to v until it has the given rank.
func Upcast(v View, rank int) (View, error) {
	return tensor.Upcast(v, rank)
}

// IsContiguousRun reports whether dimensions [i, j) of a layout nest without gaps.
func IsContiguousRun(sizes, strides []int, i, j int) bool {
	return tensor.IsContiguousRun(sizes, strides, i, j)
}

// CanCollapseTo reports whether a layout can be downcast to targetRank.
func CanCollapseTo(sizes, strides []int, targetRank int) bool {
	return tensor.CanCollapseTo(sizes, strides, targetRank)
}

// IsFullyContiguous reports whether a layout is dense row-major.
func IsFullyContiguous(sizes, strides []int) bool {
	return tensor.IsFullyContiguous(sizes, strides)
}
