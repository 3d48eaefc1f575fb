// Package parallel splits kernel work across goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum elements per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64, // Typical cache line aware chunk.
	}
}

// Sequential returns a config that runs everything on the calling goroutine.
func Sequential() Config {
	return Config{Enabled: false, NumWorkers: 1, MinChunkSize: 1}
}

// ForRange calls f over disjoint [start, end) sub-ranges covering [0, n).
// Each of the n items costs itemSize elements of work; chunks never hold fewer
// than MinChunkSize elements. Falls back to a single call when parallelism is
// disabled or the work is too small to split.
func ForRange(n, itemSize int, f func(start, end int), cfg Config) {
	if n <= 0 {
		return
	}
	itemSize = max(itemSize, 1)
	workers := max(cfg.NumWorkers, 1)
	if !cfg.Enabled || workers == 1 || n*itemSize < 2*cfg.MinChunkSize || n == 1 {
		f(0, n)
		return
	}

	minItems := (cfg.MinChunkSize + itemSize - 1) / itemSize
	chunk := max((n+workers-1)/workers, minItems, 1)

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			f(s, e)
		}(start, end)
	}
	wg.Wait()
}
