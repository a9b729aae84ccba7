package internal

import (
	"sync"

	"github.com/davecgh/go-spew/spew"
)

// History is the ring buffer backing introspection.enable_history (spec
// §6): a bounded log of recent triggers, for tooling to dump when a test
// or a host wants to see "what changed leading up to this effect run".
type History struct {
	mu      sync.Mutex
	entries []HistoryEntry
	size    int
	next    int
	full    bool
}

type HistoryEntry struct {
	Raw  any
	Evo  Evolution
	Gath LineageGathering
}

func newHistory(size int) *History {
	if size <= 0 {
		size = 1
	}
	return &History{entries: make([]HistoryEntry, size), size: size}
}

func (h *History) record(e HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[h.next] = e
	h.next = (h.next + 1) % h.size
	if h.next == 0 {
		h.full = true
	}
}

// Snapshot returns the buffer's entries in chronological order.
func (h *History) Snapshot() []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.full {
		out := make([]HistoryEntry, h.next)
		copy(out, h.entries[:h.next])
		return out
	}
	out := make([]HistoryEntry, h.size)
	copy(out, h.entries[h.next:])
	copy(out[h.size-h.next:], h.entries[:h.next])
	return out
}

// Dump renders entries with go-spew, for diagnostics and for the payload
// attached to a CycleDetectedError/MaxDepthExceededError report when a
// host wants to print what led to it — the same role go-spew plays in the
// teacher's tests for dumping unexpected Computed/Signal state.
func (h *History) Dump() string {
	return spew.Sdump(h.Snapshot())
}

// DumpCycle renders a cycle path (internal/scheduler.go's handleCycle) for
// diagnostic hooks that want more than CycleDetectedError's plain slice.
func DumpCycle(err *CycleDetectedError) string {
	return spew.Sdump(err.Cycle)
}

// recordHistory is called from trigger() (internal/view.go) whenever
// introspection is enabled.
func (r *Runtime) recordHistory(raw any, evo Evolution) {
	if r.history == nil {
		return
	}
	r.history.record(HistoryEntry{Raw: raw, Evo: evo, Gath: r.options.Introspection.GatherLineages})
}
