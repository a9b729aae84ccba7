package internal

import (
	"runtime"
	"sync"
)

// Runtime bundles every subsystem (C1-C8) that a single logical thread of
// reactive execution needs. Exactly one Runtime exists per goroutine that
// touches this package (see runtime_default.go/runtime_wasm.go), matching
// spec §5's single-threaded-cooperative execution model: within a Runtime,
// ordinary reads/writes/schedules need no locking at all, since only the
// owning goroutine ever calls them.
//
// mu is the one exception: it guards the documented cross-goroutine
// hand-off points (Access.Tracked, AsyncToken.Settle) so an async effect's
// worker goroutine can safely rejoin this Runtime once its suspending work
// completes (spec §5).
type Runtime struct {
	mu sync.Mutex

	tracker    *Tracker
	registry   *Registry
	classifier *Classifier
	ownership  *Ownership
	scheduler  *Scheduler
	deepWatch  *DeepWatch
	history    *History

	options *Options

	orphansMu sync.Mutex
	orphans   map[*Effect]struct{}
}

func NewRuntime() *Runtime {
	r := &Runtime{
		tracker:    NewTracker(),
		registry:   NewRegistry(),
		classifier: DefaultClassifier(),
		ownership:  DefaultOwnership(),
		options:    GlobalOptions().Clone(),
		orphans:    make(map[*Effect]struct{}),
	}
	r.scheduler = NewScheduler(r)
	r.deepWatch = newDeepWatch(r)
	if r.options.Introspection.EnableHistory {
		r.history = newHistory(r.options.Introspection.HistorySize)
	}
	return r
}

func (r *Runtime) Options() *Options { return r.options }

func (r *Runtime) SetOptions(o *Options) { r.options = o }

// Schedule enqueues target (caused by source, or nil for an external
// write) and flushes immediately unless a batch is currently open. Only
// ever called from the owning goroutine (spec §5: writes happen on the
// single logical thread of execution), so it needs no locking of its own.
//
// A write outside any Batch/Flush call has no error return of its own to
// report a scheduler failure (MaxDepthExceeded, a CycleThrow/CycleStrict
// detection, …) through, so per spec §7's propagation policy such an
// error panics here, at the outermost scheduler call for this write.
// Reentrant calls made while a flush is already in progress see flush
// return nil (internal/scheduler.go's flushing guard), so only the
// write that actually started the flush can panic.
func (r *Runtime) Schedule(source, target *Effect) {
	r.scheduler.Enqueue(source, target)
	if !r.scheduler.IsBatching() {
		if err := r.scheduler.flush(); err != nil {
			panic(err)
		}
	}
}

// Flush runs every pending effect now, in height order, regardless of
// batching depth. Exposed for tests and for hosts that want explicit
// control over when reactions run, and for a host's main loop to drain
// effects an async run queued via AsyncToken.Settle from another
// goroutine (Settle only records the pending state under Runtime.mu; it
// never runs effect bodies itself, since those must only ever run on the
// owning goroutine).
func (r *Runtime) Flush() error {
	return r.scheduler.flush()
}

// Batch defers flushing until fn (and any nested Batch calls) return
// (spec §4.6 batch()).
func (r *Runtime) Batch(fn func()) error {
	return r.scheduler.Batch(fn)
}

// CurrentEffect returns the effect currently executing on this Runtime, if
// any.
func (r *Runtime) CurrentEffect() *Effect {
	return r.tracker.Current()
}

// Untracked runs fn without registering any dependencies for the currently
// active effect (spec §4.6 untracked()).
func (r *Runtime) Untracked(fn func()) {
	r.tracker.RunUntracked(fn)
}

// registerOrphan arranges for a root effect (one created with no active
// parent effect) to be disposed once it becomes unreachable from user code,
// per spec §4.6/§9's "effects are garbage collected like any other object"
// rule. The teacher's original had no equivalent — its owners were always
// torn down explicitly as part of a component tree — so this uses Go
// 1.24's runtime.AddCleanup, the stdlib's GC-participating finalizer, to
// approximate it without pinning the effect in memory.
func (r *Runtime) registerOrphan(e *Effect) {
	r.orphansMu.Lock()
	r.orphans[e] = struct{}{}
	r.orphansMu.Unlock()

	sentinel := new(orphanSentinel)
	runtime.AddCleanup(sentinel, r.collectOrphan, e)
	e.orphanSentinel = sentinel
}

// orphanSentinel is a tiny allocation whose only purpose is to be the
// object runtime.AddCleanup watches: attaching the cleanup to e itself
// would never fire, since e is reachable from the cleanup's own closure.
type orphanSentinel struct{}

func (r *Runtime) collectOrphan(e *Effect) {
	r.orphansMu.Lock()
	_, live := r.orphans[e]
	delete(r.orphans, e)
	r.orphansMu.Unlock()

	if !live || e.stopped {
		return
	}

	if hook := r.options.Hooks.GarbageCollected; hook != nil {
		hook(e.Name())
	}
	e.Stop()
}

// forgetOrphan removes e from the pending-orphan set once it is explicitly
// stopped, so collectOrphan's eventual finalizer call is a no-op.
func (r *Runtime) forgetOrphan(e *Effect) {
	r.orphansMu.Lock()
	delete(r.orphans, e)
	r.orphansMu.Unlock()
}
