// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package device provides the storage buffers that tensor views address.
//
// Storage is allocated and released through an Allocator. The host allocator
// is always available; GPU allocators are opened by the viewcast command
// when the platform supports them.
//
// Example:
//
//	alloc := device.NewHostAllocator(device.Float32)
//	s, _ := alloc.Allocate(24)
//	defer alloc.Free(s)
//
//	_ = alloc.CopyHostToDevice(s, 0, []float32{1, 2, 3})
//	fmt.Println(alloc.Stats()) // 1 live buffers, 96 B live, ...
package device

import (
	"github.com/born-ml/viewcast/internal/device"
)

// Device represents the compute device that holds a storage buffer.
type Device = device.Device

// Supported compute devices.
const (
	CPU    = device.CPU
	CUDA   = device.CUDA
	Vulkan = device.Vulkan
	Metal  = device.Metal
	WebGPU = device.WebGPU
)

// DataType is the element encoding of a storage buffer.
type DataType = device.DataType

// Supported element types.
const (
	Float32 = device.Float32
	Float16 = device.Float16
)

// Storage is a flat buffer of elements shared by any number of views.
type Storage = device.Storage

// HostAccessor is implemented by storage the host can address element by element.
type HostAccessor = device.HostAccessor

// Allocator creates and releases storage and moves data between host and device.
type Allocator = device.Allocator

// Stats reports an allocator's buffer counts and byte totals.
type Stats = device.Stats

// HostAllocator allocates reference-counted storage in host memory.
type HostAllocator = device.HostAllocator

// Errors reported by allocators.
var (
	ErrInvalidSize       = device.ErrInvalidSize
	ErrInvalidStorage    = device.ErrInvalidStorage
	ErrOutOfBounds       = device.ErrOutOfBounds
	ErrDeviceUnavailable = device.ErrDeviceUnavailable
)

// NewHostAllocator creates a host allocator for elements of the given type.
func NewHostAllocator(dtype DataType) *HostAllocator {
	return device.NewHostAllocator(dtype)
}

// ParseDataType maps "float32", "f32", "float16", "f16" or "half" to a DataType.
func ParseDataType(s string) (DataType, error) {
	return device.ParseDataType(s)
}
