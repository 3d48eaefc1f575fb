package kernel

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/born-ml/viewcast/internal/device"
	"github.com/born-ml/viewcast/internal/parallel"
	"github.com/born-ml/viewcast/internal/tensor"
)

// ErrNotHostAccessible is returned when a CPU kernel is launched on storage
// the host cannot address directly.
var ErrNotHostAccessible = errors.New("storage is not host accessible")

// Launcher runs kernels on views. It holds no per-launch state and is safe
// for concurrent use.
type Launcher struct {
	cfg parallel.Config
}

// NewLauncher creates a launcher that splits kernel work according to cfg.
func NewLauncher(cfg parallel.Config) *Launcher {
	return &Launcher{cfg: cfg}
}

// Launch runs k on v. The view's rank must equal the kernel's rank.
func (l *Launcher) Launch(ctx context.Context, k Kernel, v tensor.View) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !v.IsValid() {
		return fmt.Errorf("launch %s: %w", k.Name(), tensor.ErrInvalidView)
	}
	if v.Rank() != k.Rank() {
		return fmt.Errorf("launch %s: kernel expects rank %d, view has rank %d: %w",
			k.Name(), k.Rank(), v.Rank(), tensor.ErrDimensionMismatch)
	}
	mem, ok := v.Storage().(device.HostAccessor)
	if !ok {
		return fmt.Errorf("launch %s on %s storage: %w", k.Name(), v.Storage().Device(), ErrNotHostAccessible)
	}

	klog.V(1).Infof("kernel: launching %s on %v", k.Name(), v)
	if err := k.Run(v, mem, l.cfg); err != nil {
		return fmt.Errorf("launch %s: %w", k.Name(), err)
	}
	return nil
}

// LaunchCast casts v to the kernel's rank and runs k on the result.
// Cast failures are returned as is; nothing is written in that case.
func (l *Launcher) LaunchCast(ctx context.Context, k Kernel, v tensor.View) error {
	cv, err := tensor.Cast(v, k.Rank())
	if err != nil {
		return fmt.Errorf("launch %s: %w", k.Name(), err)
	}
	return l.Launch(ctx, k, cv)
}

// Launch pairs a kernel with the view it runs on.
type Launch struct {
	Kernel Kernel
	View   tensor.View
	// Cast casts View to the kernel's rank before launching.
	Cast bool
}

// LaunchAll runs independent launches concurrently and returns the first error.
// Launches that have not started when an error occurs are skipped.
// Callers are responsible for launches whose views overlap.
func (l *Launcher) LaunchAll(ctx context.Context, launches ...Launch) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, ln := range launches {
		g.Go(func() error {
			if ln.Cast {
				return l.LaunchCast(ctx, ln.Kernel, ln.View)
			}
			return l.Launch(ctx, ln.Kernel, ln.View)
		})
	}
	return g.Wait()
}
