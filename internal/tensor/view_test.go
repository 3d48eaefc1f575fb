package tensor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/viewcast/internal/device"
)

func TestNewContiguous(t *testing.T) {
	s, err := device.NewHostAllocator(device.Float32).Allocate(385)
	require.NoError(t, err)

	v, err := NewContiguous(s, 0, 11, 7, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, v.Rank())
	assert.Equal(t, []int{11, 7, 5}, v.Sizes())
	assert.Equal(t, []int{35, 5, 1}, v.Strides())
	assert.Equal(t, 385, v.NumElements())
	assert.Equal(t, 385, v.Extent())
	assert.True(t, v.IsContiguous())
	assert.Equal(t, "View[11 7 5] strides [35 5 1] offset 0 on CPU", v.String())
}

func TestNewViewValidation(t *testing.T) {
	s, err := device.NewHostAllocator(device.Float32).Allocate(24)
	require.NoError(t, err)

	tests := []struct {
		name    string
		s       device.Storage
		offset  int
		sizes   []int
		strides []int
		want    error
	}{
		{"rank zero", s, 0, nil, nil, ErrDimensionMismatch},
		{"rank too high", s, 0, make([]int, MaxDims+1), make([]int, MaxDims+1), ErrDimensionMismatch},
		{"length mismatch", s, 0, []int{2, 3}, []int{3}, ErrInvalidView},
		{"nil storage", nil, 0, []int{2}, []int{1}, ErrInvalidView},
		{"zero size", s, 0, []int{2, 0}, []int{1, 1}, ErrInvalidView},
		{"negative stride", s, 0, []int{2, 3}, []int{-3, 1}, ErrInvalidView},
		{"negative offset", s, -1, []int{2}, []int{1}, ErrInvalidView},
		{"exceeds storage", s, 0, []int{2, 3, 4}, []int{16, 4, 1}, ErrInvalidView},
		{"offset exceeds storage", s, 1, []int{2, 3, 4}, []int{12, 4, 1}, ErrInvalidView},
		{"extent overflows", s, 0, []int{2, 2}, []int{math.MaxInt/2 + 1, math.MaxInt/2 + 1}, ErrInvalidView},
		{"element count overflows", s, 0, []int{1 << 20, 1 << 20, 1 << 20, 1 << 20}, []int{0, 0, 0, 0}, ErrInvalidView},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewView(tt.s, tt.offset, tt.sizes, tt.strides)
			assert.ErrorIs(t, err, tt.want)
			assert.False(t, v.IsValid())
		})
	}
}

func TestViewSharesStorage(t *testing.T) {
	s, err := device.NewHostAllocator(device.Float32).Allocate(48)
	require.NoError(t, err)

	first, err := NewContiguous(s, 0, 2, 3, 4)
	require.NoError(t, err)
	second, err := NewContiguous(s, 24, 6, 4)
	require.NoError(t, err)

	mem := s.(device.HostAccessor)
	mem.Store(second.Index(0, 0), 3)
	mem.Store(first.Index(1, 2, 3), 7)

	assert.Equal(t, float32(3), mem.Load(24))
	assert.Equal(t, float32(7), mem.Load(23))
	assert.False(t, first.Equal(second))
}

func TestViewIndex(t *testing.T) {
	v := mustAlloc(t, []int{11, 7, 5}, []int{200, 6, 1})

	assert.Equal(t, 0, v.Index(0, 0, 0))
	assert.Equal(t, 2000+36+4, v.Index(10, 6, 4))
	assert.Equal(t, 2041, v.Extent())
	assert.Equal(t, 2041, v.Storage().Len())

	assert.Panics(t, func() { v.Index(0, 0) })
	assert.Panics(t, func() { v.Index(11, 0, 0) })
	assert.Panics(t, func() { v.Index(0, -1, 0) })
	assert.Panics(t, func() { v.Size(3) })
	assert.Panics(t, func() { v.Stride(-1) })
}

func TestViewAccessorsReturnCopies(t *testing.T) {
	v := mustAlloc(t, []int{2, 3}, nil)

	sizes := v.Sizes()
	sizes[0] = 100
	strides := v.Strides()
	strides[0] = 100

	assert.Equal(t, 2, v.Size(0))
	assert.Equal(t, 3, v.Stride(0))
}

func TestZeroView(t *testing.T) {
	var v View
	assert.False(t, v.IsValid())
	assert.Zero(t, v.NumElements())
	assert.Equal(t, "View[invalid]", v.String())
	assert.Empty(t, Offsets(v))
}

func TestAlloc(t *testing.T) {
	a := device.NewHostAllocator(device.Float32)

	v, err := Alloc(a, []int{2, 3, 4}, []int{150, 40, 15})
	require.NoError(t, err)
	assert.Equal(t, 150+80+45+1, v.Storage().Len())

	_, err = Alloc(a, []int{2, 3}, []int{1})
	assert.ErrorIs(t, err, ErrInvalidView)
	_, err = Alloc(a, []int{2, -3}, nil)
	assert.ErrorIs(t, err, ErrInvalidView)
	_, err = Alloc(a, []int{2, 3}, []int{-3, 1})
	assert.ErrorIs(t, err, ErrInvalidView)
	_, err = Alloc(a, []int{2, 2}, []int{math.MaxInt/2 + 1, math.MaxInt/2 + 1})
	assert.ErrorIs(t, err, ErrInvalidView)
	_, err = Alloc(a, nil, nil)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	assert.Equal(t, 1, a.Stats().LiveBuffers)
}

func TestShape(t *testing.T) {
	s := Shape{2, 3, 4}
	assert.Equal(t, 24, s.NumElements())
	assert.Equal(t, 1, Shape{}.NumElements())
	assert.Equal(t, []int{12, 4, 1}, s.ComputeStrides())
	assert.Equal(t, 24, s.Extent(s.ComputeStrides()))
	assert.NoError(t, s.Validate())
	assert.Error(t, Shape{2, 0}.Validate())
}

func TestShapeLayoutExtent(t *testing.T) {
	tests := []struct {
		name    string
		sizes   Shape
		strides []int
		want    int
		wantErr bool
	}{
		{"contiguous", Shape{2, 3, 4}, []int{12, 4, 1}, 24, false},
		{"padded", Shape{11, 7, 5}, []int{200, 6, 1}, 2025, false},
		{"unit dimension ignores stride", Shape{1, 4}, []int{math.MaxInt, 1}, 4, false},
		{"broadcast", Shape{1 << 10, 1 << 10}, []int{0, 0}, 1, false},
		{"largest extent", Shape{2}, []int{math.MaxInt - 1}, math.MaxInt, false},
		{"extent overflows", Shape{2}, []int{math.MaxInt}, 0, true},
		{"summed extent overflows", Shape{2, 2}, []int{math.MaxInt/2 + 1, math.MaxInt/2 + 1}, 0, true},
		{"element count overflows", Shape{1 << 20, 1 << 20, 1 << 20, 1 << 20}, []int{0, 0, 0, 0}, 0, true},
		{"negative stride", Shape{2}, []int{-1}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.sizes.layoutExtent(tt.strides)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
