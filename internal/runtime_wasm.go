//go:build wasm

package internal

import "sync"

var once sync.Once
var globalRuntime *Runtime

// GetRuntime returns the single process-wide Runtime. wasm builds are
// single-threaded by construction, so there is no goroutine-id keying to
// do (mirrors the teacher's wasm build).
func GetRuntime() *Runtime {
	once.Do(func() {
		globalRuntime = NewRuntime()
	})

	return globalRuntime
}
