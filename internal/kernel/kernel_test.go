package kernel

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/viewcast/internal/device"
	"github.com/born-ml/viewcast/internal/parallel"
	"github.com/born-ml/viewcast/internal/tensor"
)

var testConfigs = map[string]parallel.Config{
	"sequential": parallel.Sequential(),
	"parallel":   {Enabled: true, NumWorkers: 4, MinChunkSize: 2},
}

// readback copies the whole storage behind v to the host.
func readback(t *testing.T, a device.Allocator, v tensor.View) []float32 {
	t.Helper()
	host := make([]float32, v.Storage().Len())
	require.NoError(t, a.CopyDeviceToHost(host, v.Storage(), 0))
	return host
}

// verify3d checks the Assign3D pattern through the view's own strides.
func verify3d(t *testing.T, host []float32, v tensor.View) {
	t.Helper()
	for k := 0; k < v.Size(0); k++ {
		for j := 0; j < v.Size(1); j++ {
			for i := 0; i < v.Size(2); i++ {
				want := float32(k*v.Size(0) + j*v.Size(1) + i*v.Size(2))
				off := v.Offset() + k*v.Stride(0) + j*v.Stride(1) + i*v.Stride(2)
				require.Equal(t, want, host[off], "element (%d, %d, %d)", k, j, i)
			}
		}
	}
}

func TestWrite3d(t *testing.T) {
	for name, cfg := range testConfigs {
		t.Run(name, func(t *testing.T) {
			for _, dtype := range []device.DataType{device.Float32, device.Float16} {
				a := device.NewHostAllocator(dtype)
				v, err := tensor.Alloc(a, []int{11, 7, 5}, nil)
				require.NoError(t, err)
				require.Equal(t, []int{35, 5, 1}, v.Strides())

				require.NoError(t, NewLauncher(cfg).Launch(context.Background(), Assign3D(), v))
				verify3d(t, readback(t, a, v), v)
			}
		})
	}
}

func TestWrite3dNonTrivialStride(t *testing.T) {
	for name, cfg := range testConfigs {
		t.Run(name, func(t *testing.T) {
			a := device.NewHostAllocator(device.Float32)
			v, err := tensor.Alloc(a, []int{11, 7, 5}, []int{200, 6, 1})
			require.NoError(t, err)

			require.NoError(t, NewLauncher(cfg).Launch(context.Background(), Assign3D(), v))

			host := readback(t, a, v)
			verify3d(t, host, v)

			addressed := make(map[int]bool)
			for _, off := range tensor.Offsets(v) {
				addressed[off] = true
			}
			for off, got := range host {
				if !addressed[off] {
					require.Zero(t, got, "padding at %d was written", off)
				}
			}
		})
	}
}

func TestWrite1d(t *testing.T) {
	a := device.NewHostAllocator(device.Float32)
	s, err := a.Allocate(3)
	require.NoError(t, err)
	v, err := tensor.NewView(s, 0, []int{3}, []int{1})
	require.NoError(t, err)

	l := NewLauncher(parallel.DefaultConfig())
	require.NoError(t, l.Launch(context.Background(), Fill(1, 0), v))
	require.NoError(t, l.Launch(context.Background(), Assign1D(), v))

	assert.Equal(t, []float32{0, 1, 2}, readback(t, a, v))
}

func TestLaunchDimensionMismatch(t *testing.T) {
	a := device.NewHostAllocator(device.Float32)
	l := NewLauncher(parallel.DefaultConfig())

	for _, sizes := range [][]int{{1, 2, 3, 4}, {1}} {
		v, err := tensor.Alloc(a, sizes, nil)
		require.NoError(t, err)

		err = l.Launch(context.Background(), Assign3D(), v)
		assert.ErrorIs(t, err, tensor.ErrDimensionMismatch, "sizes %v", sizes)
	}
}

func TestLaunchCastUpcast(t *testing.T) {
	layouts := []struct {
		sizes   []int
		strides []int
	}{
		{[]int{3, 2, 1}, nil},
		// With padding.
		{[]int{4, 3, 2}, []int{150, 40, 15}},
	}

	for _, layout := range layouts {
		a := device.NewHostAllocator(device.Float32)
		v, err := tensor.Alloc(a, layout.sizes, layout.strides)
		require.NoError(t, err)

		require.NoError(t, NewLauncher(parallel.DefaultConfig()).LaunchCast(context.Background(), Fill(4, 2), v))

		host := readback(t, a, v)
		written := 0
		for _, got := range host {
			if got == 2 {
				written++
			}
		}
		assert.Equal(t, v.NumElements(), written)
		for _, off := range tensor.Offsets(v) {
			assert.Equal(t, float32(2), host[off])
		}
	}
}

func TestLaunchCastDowncastWrites(t *testing.T) {
	a := device.NewHostAllocator(device.Float32)
	v, err := tensor.Alloc(a, []int{2, 3, 4}, nil)
	require.NoError(t, err)

	require.NoError(t, NewLauncher(parallel.DefaultConfig()).LaunchCast(context.Background(), Fill(2, 1), v))

	// In the downcast view every value of the 3-D view is overwritten.
	host := readback(t, a, v)
	for k := 0; k < v.Size(0); k++ {
		for j := 0; j < v.Size(1); j++ {
			for i := 0; i < v.Size(2); i++ {
				assert.Equal(t, float32(1), host[v.Index(k, j, i)])
			}
		}
	}
}

func TestLaunchCastIllegalPaddingWritesNothing(t *testing.T) {
	a := device.NewHostAllocator(device.Float32)
	v, err := tensor.Alloc(a, []int{2, 3, 4}, []int{16, 4, 1})
	require.NoError(t, err)

	err = NewLauncher(parallel.DefaultConfig()).LaunchCast(context.Background(), Fill(2, 1), v)
	require.ErrorIs(t, err, tensor.ErrIllegalPadding)

	var castErr *tensor.CastError
	require.True(t, errors.As(err, &castErr))
	assert.Equal(t, 2, castErr.To)

	for _, got := range readback(t, a, v) {
		require.Zero(t, got)
	}
}

func TestKernelsAreObliviousToViewOrigin(t *testing.T) {
	// A rank-2 kernel must produce identical memory whether its view was
	// allocated as rank 2 or downcast from rank 3, and likewise for upcasts.
	l := NewLauncher(testConfigs["parallel"])
	ctx := context.Background()

	a := device.NewHostAllocator(device.Float32)
	native, err := tensor.Alloc(a, []int{6, 4}, []int{5, 1})
	require.NoError(t, err)
	require.NoError(t, l.Launch(ctx, Iota(2), native))

	b := device.NewHostAllocator(device.Float32)
	source, err := tensor.Alloc(b, []int{2, 3, 4}, []int{15, 5, 1})
	require.NoError(t, err)
	require.NoError(t, l.LaunchCast(ctx, Iota(2), source))

	if diff := cmp.Diff(readback(t, a, native), readback(t, b, source)); diff != "" {
		t.Errorf("downcast view produced different memory (-native +cast):\n%s", diff)
	}

	c := device.NewHostAllocator(device.Float32)
	native4, err := tensor.Alloc(c, []int{1, 1, 6, 4}, nil)
	require.NoError(t, err)
	require.NoError(t, l.Launch(ctx, Iota(4), native4))

	d := device.NewHostAllocator(device.Float32)
	source2, err := tensor.Alloc(d, []int{6, 4}, nil)
	require.NoError(t, err)
	require.NoError(t, l.LaunchCast(ctx, Iota(4), source2))

	assert.Equal(t, readback(t, c, native4), readback(t, d, source2))
}

func TestMapOverlappingRows(t *testing.T) {
	increment := Map("increment", 2, func(_ tensor.View, _ []int, old float32) float32 {
		return old + 1
	})
	cfg := parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}

	tests := []struct {
		name    string
		sizes   []int
		strides []int
		want    []float32
	}{
		// Every row is the same three elements.
		{"broadcast rows", []int{4, 3}, []int{0, 1}, []float32{4, 4, 4}},
		// Offset k is reached by every (i, j) with i+j == k.
		{"sliding rows", []int{4, 3}, []int{1, 1}, []float32{1, 2, 3, 3, 2, 1}},
		{"disjoint rows", []int{4, 3}, []int{3, 1}, []float32{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := device.NewHostAllocator(device.Float32)
			v, err := tensor.Alloc(a, tt.sizes, tt.strides)
			require.NoError(t, err)

			require.NoError(t, NewLauncher(cfg).Launch(context.Background(), increment, v))
			assert.Equal(t, tt.want, readback(t, a, v))
		})
	}
}

func TestRowsOverlap(t *testing.T) {
	tests := []struct {
		sizes   []int
		strides []int
		want    bool
	}{
		{[]int{4}, []int{0}, true},
		{[]int{4}, []int{1}, false},
		{[]int{1, 3}, []int{0, 1}, false},
		{[]int{4, 3}, []int{2, 1}, true},
		{[]int{4, 3}, []int{3, 1}, false},
		{[]int{2, 3, 4}, []int{16, 4, 1}, false},
		{[]int{2, 3, 4}, []int{8, 4, 1}, true},
	}

	a := device.NewHostAllocator(device.Float32)
	for _, tt := range tests {
		v, err := tensor.Alloc(a, tt.sizes, tt.strides)
		require.NoError(t, err)
		assert.Equal(t, tt.want, rowsOverlap(v), "sizes %v strides %v", tt.sizes, tt.strides)
	}
}

type deviceOnlyStorage struct{}

func (deviceOnlyStorage) ID() uuid.UUID          { return uuid.Nil }
func (deviceOnlyStorage) Device() device.Device  { return device.WebGPU }
func (deviceOnlyStorage) DType() device.DataType { return device.Float32 }
func (deviceOnlyStorage) Len() int               { return 64 }
func (deviceOnlyStorage) ByteSize() int          { return 256 }

func TestLaunchRequiresHostAccess(t *testing.T) {
	v, err := tensor.NewContiguous(deviceOnlyStorage{}, 0, 4, 4)
	require.NoError(t, err)

	err = NewLauncher(parallel.DefaultConfig()).Launch(context.Background(), Fill(2, 1), v)
	assert.ErrorIs(t, err, ErrNotHostAccessible)
	assert.Contains(t, err.Error(), "WebGPU")
}

func TestLaunchInvalidView(t *testing.T) {
	err := NewLauncher(parallel.DefaultConfig()).Launch(context.Background(), Fill(1, 1), tensor.View{})
	assert.ErrorIs(t, err, tensor.ErrInvalidView)
}

func TestLaunchCanceled(t *testing.T) {
	a := device.NewHostAllocator(device.Float32)
	v, err := tensor.Alloc(a, []int{4}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = NewLauncher(parallel.DefaultConfig()).Launch(ctx, Fill(1, 9), v)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []float32{0, 0, 0, 0}, readback(t, a, v))
}

func TestLaunchPropagatesKernelError(t *testing.T) {
	a := device.NewHostAllocator(device.Float32)
	v, err := tensor.Alloc(a, []int{4}, nil)
	require.NoError(t, err)

	boom := errors.New("boom")
	k := New("failing", 1, func(tensor.View, device.HostAccessor, parallel.Config) error {
		return boom
	})

	err = NewLauncher(parallel.DefaultConfig()).Launch(context.Background(), k, v)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "launch failing: boom", err.Error())
}

func TestLaunchAll(t *testing.T) {
	a := device.NewHostAllocator(device.Float32)
	s, err := a.Allocate(48)
	require.NoError(t, err)

	// Two disjoint views over one storage.
	first, err := tensor.NewContiguous(s, 0, 2, 3, 4)
	require.NoError(t, err)
	second, err := tensor.NewContiguous(s, 24, 24)
	require.NoError(t, err)

	l := NewLauncher(testConfigs["parallel"])
	require.NoError(t, l.LaunchAll(context.Background(),
		Launch{Kernel: Fill(1, 3), View: first, Cast: true},
		Launch{Kernel: Assign1D(), View: second},
	))

	host := make([]float32, 48)
	require.NoError(t, a.CopyDeviceToHost(host, s, 0))
	for i := 0; i < 24; i++ {
		assert.Equal(t, float32(3), host[i])
		assert.Equal(t, float32(i), host[24+i])
	}
}

func TestLaunchAllFirstError(t *testing.T) {
	a := device.NewHostAllocator(device.Float32)
	padded, err := tensor.Alloc(a, []int{2, 3, 4}, []int{16, 4, 1})
	require.NoError(t, err)
	flat, err := tensor.Alloc(a, []int{8}, nil)
	require.NoError(t, err)

	err = NewLauncher(parallel.DefaultConfig()).LaunchAll(context.Background(),
		Launch{Kernel: Fill(1, 1), View: padded, Cast: true},
		Launch{Kernel: Assign1D(), View: flat},
	)
	assert.ErrorIs(t, err, tensor.ErrIllegalPadding)
}

func TestKernelMetadata(t *testing.T) {
	assert.Equal(t, "assign3d", Assign3D().Name())
	assert.Equal(t, 3, Assign3D().Rank())
	assert.Equal(t, 1, Assign1D().Rank())
	assert.Equal(t, 5, Fill(5, 0).Rank())
	assert.Equal(t, "iota", Iota(2).Name())
}
