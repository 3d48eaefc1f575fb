// Package kernel launches fixed-rank compute kernels on tensor views.
//
// A kernel sees only the view's sizes, strides and offset, so it behaves the
// same whether the view came from an allocation or from a rank cast.
package kernel

import (
	"github.com/born-ml/viewcast/internal/device"
	"github.com/born-ml/viewcast/internal/parallel"
	"github.com/born-ml/viewcast/internal/tensor"
)

// Kernel is a compute routine written against one fixed rank.
type Kernel interface {
	Name() string
	// Rank is the exact view rank Run accepts.
	Rank() int
	// Run reads and writes the elements v addresses through mem.
	// The launcher guarantees v.Rank() == Rank().
	Run(v tensor.View, mem device.HostAccessor, cfg parallel.Config) error
}

// RunFunc is the body of a kernel built with New.
type RunFunc func(v tensor.View, mem device.HostAccessor, cfg parallel.Config) error

// ElementFunc computes the new value of the element at idx from its old value.
// It is called concurrently and must not retain idx.
type ElementFunc func(v tensor.View, idx []int, old float32) float32

type funcKernel struct {
	name string
	rank int
	run  RunFunc
}

// New wraps a function as a Kernel of the given name and rank.
func New(name string, rank int, run RunFunc) Kernel {
	return &funcKernel{name: name, rank: rank, run: run}
}

func (k *funcKernel) Name() string { return k.name }
func (k *funcKernel) Rank() int    { return k.rank }

func (k *funcKernel) Run(v tensor.View, mem device.HostAccessor, cfg parallel.Config) error {
	return k.run(v, mem, cfg)
}

// Map returns a kernel that rewrites every addressed element with fn.
// Work is split over the outermost dimension. Views whose outer rows share
// storage offsets are processed on one goroutine.
func Map(name string, rank int, fn ElementFunc) Kernel {
	return New(name, rank, func(v tensor.View, mem device.HostAccessor, cfg parallel.Config) error {
		if rowsOverlap(v) {
			cfg = parallel.Sequential()
		}
		rowSize := v.NumElements() / v.Size(0)
		parallel.ForRange(v.Size(0), rowSize, func(start, end int) {
			tensor.ForEach(v, start, end, func(idx []int, off int) {
				mem.Store(off, fn(v, idx, mem.Load(off)))
			})
		}, cfg)
		return nil
	})
}

// rowsOverlap reports whether two outer indices of v may address the same offset.
func rowsOverlap(v tensor.View) bool {
	if v.Size(0) == 1 {
		return false
	}
	if v.Rank() == 1 {
		return v.Stride(0) == 0
	}
	inner := tensor.Shape(v.Sizes()[1:]).Extent(v.Strides()[1:])
	return v.Stride(0) < inner
}

// Fill sets every element addressed by a rank-dimensional view to value.
func Fill(rank int, value float32) Kernel {
	return Map("fill", rank, func(tensor.View, []int, float32) float32 {
		return value
	})
}

// Assign1D writes each element's index: v[i] = i.
func Assign1D() Kernel {
	return Map("assign1d", 1, func(_ tensor.View, idx []int, _ float32) float32 {
		return float32(idx[0])
	})
}

// Assign3D writes v[k, j, i] = k*size0 + j*size1 + i*size2.
// With pairwise distinct prime sizes every element gets a distinct value.
func Assign3D() Kernel {
	return Map("assign3d", 3, func(v tensor.View, idx []int, _ float32) float32 {
		return float32(idx[0]*v.Size(0) + idx[1]*v.Size(1) + idx[2]*v.Size(2))
	})
}

// Iota writes each element's position in lexicographic index order.
func Iota(rank int) Kernel {
	return Map("iota", rank, func(v tensor.View, idx []int, _ float32) float32 {
		pos := 0
		for d, i := range idx {
			pos = pos*v.Size(d) + i
		}
		return float32(pos)
	})
}
