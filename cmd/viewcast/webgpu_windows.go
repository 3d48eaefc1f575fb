//go:build windows

package main

import (
	"github.com/born-ml/viewcast/internal/device"
	"github.com/born-ml/viewcast/internal/device/webgpu"
)

// openWebGPU opens the WebGPU allocator. The returned func releases the device.
func openWebGPU() (device.Allocator, func(), error) {
	a, err := webgpu.New()
	if err != nil {
		return nil, nil, err
	}
	return a, a.Release, nil
}
