// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides strided tensor views and rank casting.
//
// # Overview
//
// A View describes how a region of device storage is addressed: an offset
// plus per-dimension sizes and strides. Views never own data. Many views may
// share one storage buffer.
//
// Kernels are written against a fixed rank. Cast adapts a view to that rank:
//   - Upcast prepends unit dimensions and always succeeds for a larger rank.
//   - Downcast merges the leading dimensions and fails with ErrIllegalPadding
//     when the merged dimensions are not laid out contiguously.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/viewcast/device"
//	    "github.com/born-ml/viewcast/tensor"
//	)
//
//	func main() {
//	    alloc := device.NewHostAllocator(device.Float32)
//
//	    // 2x3x4 view with canonical strides [12 4 1].
//	    v, _ := tensor.Alloc(alloc, []int{2, 3, 4}, nil)
//
//	    // Merge into a 6x4 view over the same memory.
//	    flat, err := tensor.Cast(v, 2)
//	    if errors.Is(err, tensor.ErrIllegalPadding) {
//	        // v has gaps between rows and cannot be merged.
//	    }
//	}
//
// # Limits
//
// Views have at most MaxDims dimensions. Sizes are positive and strides
// non-negative; bounds are checked once, when a view is created.
package tensor
