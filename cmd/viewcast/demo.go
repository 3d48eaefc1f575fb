package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/born-ml/viewcast/internal/config"
	"github.com/born-ml/viewcast/internal/device"
	"github.com/born-ml/viewcast/internal/kernel"
	"github.com/born-ml/viewcast/internal/tensor"
)

func newDemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run kernels on contiguous, padded and cast views and verify the results",
		Args:  cobra.NoArgs,
		RunE:  demoHandler,
	}
	cmd.Flags().String("device", "cpu", "Also round-trip results through this device (cpu or webgpu)")
	return cmd
}

type scenario struct {
	name    string
	sizes   []int
	strides []int
}

var demoScenarios = []scenario{
	{"contiguous", []int{11, 7, 5}, nil},
	{"padded", []int{11, 7, 5}, []int{200, 6, 1}},
}

func demoHandler(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	deviceName, err := cmd.Flags().GetString("device")
	if err != nil {
		return err
	}

	alloc := device.NewHostAllocator(config.DType())
	l := kernel.NewLauncher(config.Parallel())

	results := make(map[string][]float32)
	mismatches := 0
	for _, sc := range demoScenarios {
		v, err := tensor.Alloc(alloc, sc.sizes, sc.strides)
		if err != nil {
			return fmt.Errorf("%s: %w", sc.name, err)
		}
		if err := l.Launch(ctx, kernel.Assign3D(), v); err != nil {
			return fmt.Errorf("%s: %w", sc.name, err)
		}
		host := make([]float32, v.Storage().Len())
		if err := alloc.CopyDeviceToHost(host, v.Storage(), 0); err != nil {
			return err
		}
		bad := verifyAssign3D(host, v)
		mismatches += bad
		results[sc.name] = host
		fmt.Fprintf(out, "%-12s %v: %s elements, %d mismatches\n", sc.name, v, humanize.Comma(int64(v.NumElements())), bad)
		if err := alloc.Free(v.Storage()); err != nil {
			return err
		}
	}

	if err := demoCasts(ctx, out, l, alloc); err != nil {
		return err
	}

	if deviceName != "cpu" {
		bad, err := roundTrip(out, deviceName, results["padded"])
		if err != nil {
			return err
		}
		mismatches += bad
	}

	fmt.Fprintf(out, "host allocator: %s\n", alloc.Stats())
	if mismatches > 0 {
		return fmt.Errorf("demo found %d mismatched elements", mismatches)
	}
	return nil
}

// verifyAssign3D counts elements of v that don't hold the Assign3D pattern.
func verifyAssign3D(host []float32, v tensor.View) int {
	bad := 0
	tensor.ForEachIndex(v, func(idx []int, off int) {
		want := float32(idx[0]*v.Size(0) + idx[1]*v.Size(1) + idx[2]*v.Size(2))
		if host[off] != want {
			klog.V(1).Infof("demo: element %v at offset %d is %v, want %v", idx, off, host[off], want)
			bad++
		}
	})
	return bad
}

// demoCasts launches kernels through rank casts, including one that must fail.
func demoCasts(ctx context.Context, out io.Writer, l *kernel.Launcher, alloc device.Allocator) error {
	// A rank-2 fill merges the outer dimensions of a contiguous 2x3x4 view.
	dense, err := tensor.Alloc(alloc, []int{2, 3, 4}, nil)
	if err != nil {
		return err
	}
	defer alloc.Free(dense.Storage()) //nolint:errcheck
	if err := l.LaunchCast(ctx, kernel.Fill(2, 1), dense); err != nil {
		return err
	}
	fmt.Fprintf(out, "%-12s rank-2 fill on %v: ok\n", "downcast", dense)

	// Gaps between the rows of the merged block make the same launch illegal.
	padded, err := tensor.Alloc(alloc, []int{2, 3, 4}, []int{16, 4, 1})
	if err != nil {
		return err
	}
	defer alloc.Free(padded.Storage()) //nolint:errcheck
	err = l.LaunchCast(ctx, kernel.Fill(2, 1), padded)
	if !errors.Is(err, tensor.ErrIllegalPadding) {
		return fmt.Errorf("rank-2 fill on %v: expected illegal padding, got %v", padded, err)
	}
	fmt.Fprintf(out, "%-12s rank-2 fill on %v: %v\n", "padding", padded, err)

	// A rank-3 kernel runs on a 1-D view once unit dimensions are prepended.
	line, err := tensor.Alloc(alloc, []int{5}, nil)
	if err != nil {
		return err
	}
	defer alloc.Free(line.Storage()) //nolint:errcheck
	if err := l.LaunchCast(ctx, kernel.Assign3D(), line); err != nil {
		return err
	}
	fmt.Fprintf(out, "%-12s rank-3 assign on %v: ok\n", "upcast", line)
	return nil
}

// roundTrip copies data to storage on the named device and back, returning
// the number of elements that changed.
func roundTrip(out io.Writer, name string, data []float32) (int, error) {
	if name != "webgpu" {
		return 0, fmt.Errorf("unknown device %q", name)
	}
	alloc, release, err := openWebGPU()
	if err != nil {
		return 0, err
	}
	defer release()

	s, err := alloc.Allocate(len(data))
	if err != nil {
		return 0, err
	}
	defer alloc.Free(s) //nolint:errcheck

	if err := alloc.CopyHostToDevice(s, 0, data); err != nil {
		return 0, err
	}
	back := make([]float32, len(data))
	if err := alloc.CopyDeviceToHost(back, s, 0); err != nil {
		return 0, err
	}

	bad := 0
	for i := range data {
		if back[i] != data[i] {
			bad++
		}
	}
	fmt.Fprintf(out, "%-12s %s through %s storage: %d mismatches (%s)\n",
		"round trip", humanize.IBytes(uint64(s.ByteSize())), alloc.Device(), bad, alloc.Stats()) //nolint:gosec // ByteSize is positive
	return bad, nil
}
