package device

import (
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"
)

// Stats is a snapshot of an allocator's bookkeeping.
type Stats struct {
	LiveBuffers int
	LiveBytes   uint64
	PeakBytes   uint64
	Allocations uint64
	Frees       uint64
}

// String renders the snapshot with human-readable byte counts.
func (s Stats) String() string {
	return fmt.Sprintf("%d live buffers, %s live, %s peak, %d allocations, %d frees",
		s.LiveBuffers, humanize.IBytes(s.LiveBytes), humanize.IBytes(s.PeakBytes), s.Allocations, s.Frees)
}

// Tracker accumulates Stats for an allocator. The zero value is ready to use.
type Tracker struct {
	mu    sync.Mutex
	stats Stats
}

// Alloc records a new live buffer of the given byte size.
func (t *Tracker) Alloc(bytes int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.LiveBuffers++
	t.stats.LiveBytes += uint64(bytes) //nolint:gosec // sizes are validated positive
	t.stats.Allocations++
	t.stats.PeakBytes = max(t.stats.PeakBytes, t.stats.LiveBytes)
}

// Free records the release of a live buffer of the given byte size.
func (t *Tracker) Free(bytes int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.LiveBuffers--
	t.stats.LiveBytes -= uint64(bytes) //nolint:gosec // sizes are validated positive
	t.stats.Frees++
}

// Snapshot returns the current counters.
func (t *Tracker) Snapshot() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}
