// Package config reads viewcast settings from the environment.
//
// Every accessor reads its variable on each call, so tests and long-running
// processes observe changes without a reload step. Malformed values are
// logged and replaced by the default.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"k8s.io/klog/v2"

	"github.com/born-ml/viewcast/internal/device"
	"github.com/born-ml/viewcast/internal/parallel"
)

// Var returns an environment variable stripped of whitespace and quotes.
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}

// BoolWithDefault returns a reader for a boolean variable.
func BoolWithDefault(key string) func(defaultValue bool) bool {
	return func(defaultValue bool) bool {
		if s := Var(key); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				klog.Warningf("invalid environment variable %s=%q, using default %t", key, s, defaultValue)
				return defaultValue
			}
			return b
		}
		return defaultValue
	}
}

// Uint returns a reader for an unsigned integer variable.
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			n, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				klog.Warningf("invalid environment variable %s=%q, using default %d", key, s, defaultValue)
				return defaultValue
			}
			return uint(n)
		}
		return defaultValue
	}
}

var (
	// NumWorkers is the number of goroutines a kernel launch may fan out to.
	NumWorkers = Uint("VIEWCAST_NUM_WORKERS", uint(runtime.NumCPU())) //nolint:gosec // NumCPU is positive
	// MinChunk is the smallest number of elements handed to one worker.
	MinChunk = Uint("VIEWCAST_MIN_CHUNK", 64)
	// LogLevel is the klog verbosity used by cmd/viewcast when -v is not given.
	LogLevel = Uint("VIEWCAST_DEBUG", 0)

	parallelEnabled = BoolWithDefault("VIEWCAST_PARALLEL")
)

// ParallelEnabled reports whether kernels may run on more than one goroutine.
// Defaults to true on multi-core machines.
func ParallelEnabled() bool {
	return parallelEnabled(runtime.NumCPU() > 1)
}

// DType returns the element type for storage allocated by the host allocator.
func DType() device.DataType {
	s := Var("VIEWCAST_DTYPE")
	if s == "" {
		return device.Float32
	}
	dt, err := device.ParseDataType(strings.ToLower(s))
	if err != nil {
		klog.Warningf("invalid environment variable VIEWCAST_DTYPE=%q, using default float32", s)
		return device.Float32
	}
	return dt
}

// Parallel assembles the worker configuration for kernel launches.
func Parallel() parallel.Config {
	return parallel.Config{
		Enabled:      ParallelEnabled(),
		NumWorkers:   max(int(NumWorkers()), 1), //nolint:gosec // bounded by user input
		MinChunkSize: max(int(MinChunk()), 1),   //nolint:gosec // bounded by user input
	}
}

// EnvVar describes one configuration variable.
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap returns every configuration variable with its current value.
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"VIEWCAST_NUM_WORKERS": {"VIEWCAST_NUM_WORKERS", NumWorkers(), "Goroutines per kernel launch (default: number of CPUs)"},
		"VIEWCAST_MIN_CHUNK":   {"VIEWCAST_MIN_CHUNK", MinChunk(), "Minimum elements per worker (default: 64)"},
		"VIEWCAST_PARALLEL":    {"VIEWCAST_PARALLEL", ParallelEnabled(), "Run kernels on multiple goroutines"},
		"VIEWCAST_DTYPE":       {"VIEWCAST_DTYPE", DType(), "Element type of host storage: float32 or float16"},
		"VIEWCAST_DEBUG":       {"VIEWCAST_DEBUG", LogLevel(), "Log verbosity (0-2)"},
	}
}

// Values returns every configuration value rendered as a string.
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
