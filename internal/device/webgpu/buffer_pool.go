//go:build windows

package webgpu

import (
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
)

// sizeClass buckets buffers so small requests never scan large buffers.
type sizeClass int

const (
	smallClass sizeClass = iota // < 4KB
	mediumClass                 // 4KB-1MB
	largeClass                  // > 1MB
)

const (
	smallThreshold  = 4 * 1024    // 4KB
	mediumThreshold = 1024 * 1024 // 1MB
	maxPoolSize     = 100         // Max idle buffers per class
)

type pooledBuffer struct {
	buffer *wgpu.Buffer
	size   uint64
	usage  wgpu.BufferUsage
}

// BufferPool recycles freed storage buffers.
// Buffers are matched by size class, capacity and usage flags.
type BufferPool struct {
	device *wgpu.Device
	idle   [3][]*pooledBuffer
	mu     sync.Mutex

	hits   uint64
	misses uint64
}

// NewBufferPool creates an empty pool for device.
func NewBufferPool(device *wgpu.Device) *BufferPool {
	return &BufferPool{device: device}
}

// Acquire returns an idle buffer of at least size bytes with the given usage,
// or creates a new one.
func (p *BufferPool) Acquire(size uint64, usage wgpu.BufferUsage) *wgpu.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()

	class := classify(size)
	for i, pb := range p.idle[class] {
		if pb.size >= size && pb.usage&usage == usage {
			p.idle[class] = append(p.idle[class][:i], p.idle[class][i+1:]...)
			p.hits++
			return pb.buffer
		}
	}

	p.misses++
	return p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: usage,
		Size:  size,
	})
}

// Release returns a buffer to the pool, or destroys it when its class is full.
func (p *BufferPool) Release(buffer *wgpu.Buffer, size uint64, usage wgpu.BufferUsage) {
	p.mu.Lock()
	defer p.mu.Unlock()

	class := classify(size)
	if len(p.idle[class]) >= maxPoolSize {
		buffer.Release()
		return
	}
	p.idle[class] = append(p.idle[class], &pooledBuffer{buffer: buffer, size: size, usage: usage})
}

// Clear destroys every idle buffer.
func (p *BufferPool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for class := range p.idle {
		for _, pb := range p.idle[class] {
			pb.buffer.Release()
		}
		p.idle[class] = nil
	}
}

// Stats returns pool hits, misses and the number of idle buffers.
func (p *BufferPool) Stats() (hits, misses uint64, idle int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for class := range p.idle {
		idle += len(p.idle[class])
	}
	return p.hits, p.misses, idle
}

func classify(size uint64) sizeClass {
	switch {
	case size < smallThreshold:
		return smallClass
	case size < mediumThreshold:
		return mediumClass
	default:
		return largeClass
	}
}
