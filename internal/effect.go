package internal

import (
	"context"
	"sync/atomic"
)

// Access is the {tracked, ascend, reaction} object an effect body receives
// (spec §4.6).
type Access struct {
	effect *Effect
}

// Tracked runs cb with this effect active again. Used after an async
// suspension point: Go's goroutines, unlike a single-threaded event loop,
// do not preserve "the active effect" automatically, so a continuation
// resumed on a worker goroutine has lost it. Tracked is the documented,
// mandatory hand-off back onto ground the Runtime considers safe for that
// continuation to touch reactive state (spec §5: "user code must call
// tracked(cb) within continuations"). It shares Runtime.mu with
// AsyncToken.Settle (Runtime.Schedule takes no lock), which is what makes this one
// legitimate cross-goroutine interaction safe without making the engine
// generally thread-safe (spec §5 "since execution is single-threaded, no
// locking is required" — this is the documented exception).
func (a Access) Tracked(cb func()) {
	e := a.effect
	e.runtime.mu.Lock()
	defer e.runtime.mu.Unlock()
	e.runtime.tracker.RunWithEffect(e, cb)
}

// Ascend runs cb with the effect stack captured at this effect's creation
// time, not the stack currently active. This is how a child effect can be
// created so its dependencies are tracked against the *outer* effect
// (spec §4.6).
func (a Access) Ascend(cb func()) {
	e := a.effect
	e.runtime.tracker.RunWithStack(e.creationStack, cb)
}

// Reaction is false on the first execution, true on every re-run.
func (a Access) Reaction() bool {
	return a.effect.reaction
}

// EffectOptions configures a single effect (spec §6 effect(fn, opts?)).
type EffectOptions struct {
	Name      string
	Opaque    bool // see spec §4.5.2 "Opaque identity"
	AsyncMode AsyncMode
	Defer     bool // skip the synchronous first run
}

// AsyncToken is handed to an async effect body alongside Access. The body
// spawns its own goroutine for the suspending part of the work (the Go
// analogue of "await") and must call Settle once that goroutine is done,
// which is what lets the scheduler honor asyncMode (cancel/queue/ignore)
// with respect to the previous in-flight run (spec §5).
type AsyncToken struct {
	ctx     context.Context
	cancel  context.CancelFunc
	effect  *Effect
	settled atomic.Bool
}

func (t *AsyncToken) Context() context.Context { return t.ctx }

// Canceled reports whether this run was superseded (AsyncCancel mode) and
// should abandon its work without touching reactive state.
func (t *AsyncToken) Canceled() bool { return t.ctx.Err() != nil }

// Err is the Go analogue of a rejected promise chain (spec §7's
// EffectCanceled row): nil while this run is still current, an
// EffectCanceledError once a newer trigger has superseded it under
// AsyncCancel mode.
func (t *AsyncToken) Err() error {
	if t.ctx.Err() == nil {
		return nil
	}
	return &EffectCanceledError{Effect: t.effect.Name()}
}

// Settle marks this async run complete and, under AsyncQueue, records any
// deferred re-run as pending. It never runs effect bodies itself — that
// still only ever happens on the owning goroutine, the next time it calls
// Schedule/Flush/Batch. Safe to call from any goroutine, any number of
// times (only the first call has an effect).
func (t *AsyncToken) Settle() {
	if !t.settled.CompareAndSwap(false, true) {
		return
	}

	e := t.effect
	e.runtime.mu.Lock()
	defer e.runtime.mu.Unlock()

	if e.asyncToken != t {
		return // superseded by a later run already
	}

	e.asyncInFlight = false
	if e.asyncMode == AsyncQueue && e.asyncQueuedRerun {
		e.asyncQueuedRerun = false
		e.runtime.scheduler.enqueueLocked(e)
	}
}

// AsyncFunc is the body of an async effect (spec §4.6/§5).
type AsyncFunc func(a Access, token *AsyncToken) func()

// Effect is a single reactive computation (C8 "effect node").
//
// Grounded on the teacher's internal/effect.go ("an effect is just a
// computed that returns a cleanup function"), but Effect no longer embeds
// a Computed/Signal — this redesign has no general memoized-derivation
// concept in the core (spec §1 explicitly keeps "concrete reactive
// container classes ... beyond the interface they present to the core"
// out of scope), so Effect is its own node directly.
type Effect struct {
	*Owner

	runtime *Runtime

	name   string
	opaque bool

	fn      func(Access) func() // sync body; nil for async effects
	asyncFn AsyncFunc            // async body; nil for sync effects

	asyncMode AsyncMode

	cleanup  func()
	stopped  bool
	running  bool
	reaction bool

	creationStack []*Effect

	// scheduler bookkeeping (C7)
	height       int
	queued       bool
	triggerCount int
	nextHeap     *Effect
	prevHeap     *Effect

	// diagnostics
	trackOnce []func(obj any, evo Evolution)

	// async bookkeeping
	asyncToken       *AsyncToken
	asyncInFlight    bool
	asyncQueuedRerun bool

	// orphanSentinel is non-nil only for root effects (no parent owner),
	// which are GC-tracked via Runtime.registerOrphan.
	orphanSentinel *orphanSentinel
}

// Name returns the effect's diagnostic label, defaulting to a generic tag.
func (e *Effect) Name() string {
	if e.name != "" {
		return e.name
	}
	return "effect"
}

func (e *Effect) Opaque() bool { return e.opaque }

func (e *Effect) Stopped() bool { return e.stopped }

// newEffect builds the common Effect skeleton shared by sync and async
// constructors; it does not run it yet.
func (r *Runtime) newEffect(opts EffectOptions) *Effect {
	current := r.tracker.Current()

	var parentOwner *Owner
	if current != nil {
		parentOwner = current.Owner
	}

	e := &Effect{
		runtime:   r,
		name:      opts.Name,
		opaque:    opts.Opaque,
		asyncMode: opts.AsyncMode,
	}
	if e.asyncMode == "" {
		e.asyncMode = r.options.AsyncMode
	}

	e.Owner = NewOwner(parentOwner)
	e.Owner.effect = e
	e.creationStack = r.tracker.Snapshot()

	e.Owner.OnCleanup(func() {
		e.stopped = true
		r.registry.ClearEffect(e)
		if e.asyncToken != nil {
			e.asyncToken.cancel()
		}
		if e.orphanSentinel != nil {
			r.forgetOrphan(e)
		}
	})

	if parentOwner == nil {
		r.registerOrphan(e)
	}

	return e
}

// NewEffect creates a synchronous effect (spec §4.6 effect(fn, opts?)).
func (r *Runtime) NewEffect(fn func(Access) func(), opts EffectOptions) *Effect {
	e := r.newEffect(opts)
	e.fn = fn

	if !opts.Defer {
		r.scheduler.runImmediate(e)
	}

	return e
}

// NewAsyncEffect creates an async effect (spec §4.6/§5).
func (r *Runtime) NewAsyncEffect(fn AsyncFunc, opts EffectOptions) *Effect {
	e := r.newEffect(opts)
	e.asyncFn = fn

	if !opts.Defer {
		r.scheduler.runImmediate(e)
	}

	return e
}

// Stop releases the effect: it and every descendant effect stop exactly
// once (invariant 6/7), and no new edges may be created for it afterward
// (invariant 4).
func (e *Effect) Stop() {
	e.Owner.Dispose()
}

// run executes (or re-executes) the effect body, per the ordered cleanup
// rule in spec §4.6: (1) previous cleanup, (2) stale dependency edges
// removed, (3) in-flight async canceled per policy, (4) children stopped.
func (e *Effect) run() {
	if e.stopped {
		return
	}

	if e.cleanup != nil {
		c := e.cleanup
		e.cleanup = nil
		c()
	}
	e.runtime.registry.ClearEffect(e)
	if e.asyncFn != nil && e.asyncMode == AsyncCancel && e.asyncToken != nil {
		e.asyncToken.cancel()
	}
	e.DisposeChildren()

	if e.asyncFn != nil {
		e.runAsync()
	} else {
		e.runSync()
	}

	e.reaction = true
}

func (e *Effect) runSync() {
	e.running = true
	access := Access{effect: e}

	defer func() {
		e.running = false
		if r := recover(); r != nil {
			e.Owner.Recover(r)
		}
	}()

	var cleanup func()
	e.runtime.tracker.RunWithEffect(e, func() {
		cleanup = e.fn(access)
	})
	e.cleanup = cleanup
}

// runAsync starts (or defers/cancels, per asyncMode) one async run. The
// previous run's cancellation (cancel mode) happens via its AsyncToken's
// context; its in-flight state is resolved later by AsyncToken.Settle,
// called by the user's own goroutine.
func (e *Effect) runAsync() {
	switch e.asyncMode {
	case AsyncIgnore:
		if e.asyncInFlight {
			return
		}
	case AsyncQueue:
		if e.asyncInFlight {
			e.asyncQueuedRerun = true
			return
		}
	case AsyncCancel:
		if e.asyncToken != nil {
			e.asyncToken.cancel()
		}
	case AsyncOff:
		// no cancellation offered; every trigger starts a fresh run.
	}

	ctx, cancel := context.WithCancel(context.Background())
	token := &AsyncToken{ctx: ctx, cancel: cancel, effect: e}
	e.asyncToken = token
	e.asyncInFlight = true

	e.running = true
	access := Access{effect: e}

	defer func() {
		e.running = false
		if r := recover(); r != nil {
			e.Owner.Recover(r)
		}
	}()

	var cleanup func()
	e.runtime.tracker.RunWithEffect(e, func() {
		cleanup = e.asyncFn(access, token)
	})
	e.cleanup = cleanup
}

// fireTrackers delivers (raw, evolution) to any one-shot track_effect
// callbacks registered on e, then discards them (spec §4.2 collect rule b).
func (e *Effect) fireTrackers(raw any, evo Evolution) {
	if len(e.trackOnce) == 0 {
		return
	}
	cbs := e.trackOnce
	e.trackOnce = nil
	for _, cb := range cbs {
		cb(raw, evo)
	}
}

// TrackEffect registers a one-shot trigger-inspection callback on the
// currently active effect (spec §4.6 track_effect).
func (r *Runtime) TrackEffect(cb func(obj any, evo Evolution)) error {
	e := r.tracker.Current()
	if e == nil {
		return &NoActiveEffectError{}
	}
	e.trackOnce = append(e.trackOnce, cb)
	return nil
}
