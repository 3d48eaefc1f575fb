// Package device provides flat element storage and the allocators that own it.
//
// The tensor view layer only ever reads a Storage reference and its element
// count; allocation, copies and release live here.
package device

import (
	"fmt"

	"github.com/google/uuid"
)

// Device represents the compute device that holds a storage buffer.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
	CUDA
	Vulkan
	Metal
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case CUDA:
		return "CUDA"
	case Vulkan:
		return "Vulkan"
	case Metal:
		return "Metal"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}

// DataType is the element encoding of a storage buffer.
type DataType int

// Supported element types.
const (
	Float32 DataType = iota
	Float16
)

// Size returns the byte size of one element.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float16:
		return 2
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float16:
		return "float16"
	default:
		return "unknown"
	}
}

// ParseDataType maps a name produced by DataType.String back to its value.
func ParseDataType(s string) (DataType, error) {
	switch s {
	case "float32", "f32":
		return Float32, nil
	case "float16", "f16", "half":
		return Float16, nil
	default:
		return 0, fmt.Errorf("unknown data type %q", s)
	}
}

// Storage is a flat buffer of elements living on some device.
//
// A Storage is shared by reference: any number of tensor views may address
// it at the same time, and none of them controls its lifetime.
type Storage interface {
	ID() uuid.UUID
	Device() Device
	DType() DataType
	// Len returns the number of elements in the buffer.
	Len() int
	ByteSize() int
}

// HostAccessor is implemented by storage the host can address element by element.
// CPU kernels read and write exclusively through it.
type HostAccessor interface {
	Load(i int) float32
	Store(i int, v float32)
}

// Allocator creates and releases storage and moves data between host and device.
type Allocator interface {
	// Allocate returns a zero-filled buffer of n elements.
	Allocate(n int) (Storage, error)
	// Free releases one reference to s.
	Free(s Storage) error
	CopyHostToDevice(dst Storage, dstOffset int, src []float32) error
	CopyDeviceToHost(dst []float32, src Storage, srcOffset int) error
	Device() Device
	Stats() Stats
}
