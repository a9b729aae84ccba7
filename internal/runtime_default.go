//go:build !wasm

package internal

import (
	"sync"

	"github.com/petermattis/goid"
)

var runtimes sync.Map

// GetRuntime returns the Runtime owned by the calling goroutine, creating
// it on first use. Keyed by goroutine id via petermattis/goid, matching
// the teacher's pattern for pinning reactive state to "the" thread of
// execution the spec assumes (spec §5).
func GetRuntime() *Runtime {
	gid := goid.Get()

	if r, ok := runtimes.Load(gid); ok {
		return r.(*Runtime)
	}

	r := NewRuntime()
	runtimes.Store(gid, r)
	return r
}
