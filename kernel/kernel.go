// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package kernel runs fixed-rank compute kernels on tensor views.
//
// A kernel declares the one rank it accepts. Launch requires the view to
// already have that rank; LaunchCast casts it first, so a rank-2 kernel can
// run on any rank-3 view whose leading dimensions merge cleanly.
//
// Example:
//
//	l := kernel.NewLauncher(kernel.DefaultConfig())
//	v, _ := tensor.Alloc(alloc, []int{2, 3, 4}, nil)
//
//	// Fill(2, ...) sees v as a 6x4 view.
//	if err := l.LaunchCast(ctx, kernel.Fill(2, 1), v); err != nil {
//	    return err
//	}
package kernel

import (
	"github.com/born-ml/viewcast/internal/kernel"
	"github.com/born-ml/viewcast/internal/parallel"
)

// Kernel is a compute routine written against one fixed rank.
type Kernel = kernel.Kernel

// RunFunc is the body of a kernel built with New.
type RunFunc = kernel.RunFunc

// ElementFunc computes the new value of one element from its index and old value.
type ElementFunc = kernel.ElementFunc

// Launcher runs kernels on views.
type Launcher = kernel.Launcher

// Launch pairs a kernel with the view it runs on, for LaunchAll.
type Launch = kernel.Launch

// Config controls how kernels split work across goroutines.
type Config = parallel.Config

// ErrNotHostAccessible is returned when a CPU kernel is launched on GPU storage.
var ErrNotHostAccessible = kernel.ErrNotHostAccessible

// DefaultConfig returns a parallel configuration sized to the machine.
func DefaultConfig() Config {
	return parallel.DefaultConfig()
}

// Sequential returns a configuration that runs kernels on the calling goroutine.
func Sequential() Config {
	return parallel.Sequential()
}

// NewLauncher creates a launcher that splits kernel work according to cfg.
func NewLauncher(cfg Config) *Launcher {
	return kernel.NewLauncher(cfg)
}

// New wraps a function as a Kernel of the given name and rank.
func New(name string, rank int, run RunFunc) Kernel {
	return kernel.New(name, rank, run)
}

// Map returns a kernel that rewrites every element of its view with fn.
func Map(name string, rank int, fn ElementFunc) Kernel {
	return kernel.Map(name, rank, fn)
}

// Fill sets every element of a rank-dimensional view to value.
func Fill(rank int, value float32) Kernel {
	return kernel.Fill(rank, value)
}

// Assign1D writes v[i] = i.
func Assign1D() Kernel {
	return kernel.Assign1D()
}

// Assign3D writes v[k, j, i] = k*size0 + j*size1 + i*size2.
func Assign3D() Kernel {
	return kernel.Assign3D()
}

// Iota writes each element's position in lexicographic index order.
func Iota(rank int) Kernel {
	return kernel.Iota(rank)
}
