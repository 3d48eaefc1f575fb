//go:build !windows

package main

import (
	"fmt"
	"runtime"

	"github.com/born-ml/viewcast/internal/device"
)

func openWebGPU() (device.Allocator, func(), error) {
	return nil, nil, fmt.Errorf("webgpu on %s: %w", runtime.GOOS, device.ErrDeviceUnavailable)
}
