// Package webgpu allocates tensor storage in GPU memory through WebGPU.
//
// Uses go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO bindings. The
// allocator is only built on Windows, where the wgpu_native library ships
// alongside the binary. Its storage is not host accessible: data moves in
// and out through CopyHostToDevice and CopyDeviceToHost.
package webgpu
