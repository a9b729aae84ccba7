package reactor

import (
	"context"

	"github.com/vellumkit/reactor/internal"
)

// Access is passed to every effect body: tracked() is the mandatory
// re-entry point for reactive reads from an async continuation, ascend()
// re-parents a nested effect's tracking onto the outer effect, and
// reaction() reports whether this is a re-run rather than the first run.
type Access = internal.Access

// AsyncToken is handed to an async effect body. Spawn your own goroutine
// for the suspending part of the work and call Settle on it when done;
// that is what lets AsyncMode (Cancel/Queue/Ignore) govern the next
// trigger correctly.
type AsyncToken = internal.AsyncToken

// EffectOptions configures a single Effect or AsyncEffect call.
type EffectOptions = internal.EffectOptions

// Effect is a live reactive computation.
type Effect = internal.Effect

// NewEffect creates and immediately runs a synchronous effect on the
// calling goroutine's runtime. It re-runs whenever any reactive value it
// read during its last run changes.
func NewEffect(fn func(Access) func(), opts EffectOptions) *Effect {
	return internal.GetRuntime().NewEffect(fn, opts)
}

// NewAsyncEffect creates an effect whose body may suspend: fn runs
// synchronously (tracked) up to the point where it spawns its own
// goroutine for the awaited work, and must call token.Settle once that
// goroutine completes.
func NewAsyncEffect(fn func(Access, *AsyncToken) func(), opts EffectOptions) *Effect {
	return internal.GetRuntime().NewAsyncEffect(fn, opts)
}

// Untracked runs fn without registering any dependencies for the
// currently active effect.
func Untracked(fn func()) {
	internal.GetRuntime().Untracked(fn)
}

// Batch defers flushing until fn (and any effects it schedules) complete,
// so several writes only cause one re-run per affected effect.
func Batch(fn func()) error {
	return internal.GetRuntime().Batch(fn)
}

// Flush runs every currently pending effect immediately.
func Flush() error {
	return internal.GetRuntime().Flush()
}

// TrackEffect registers a one-shot callback that inspects the very next
// trigger the currently active effect reacts to. Returns NoActiveEffectError
// outside of any effect.
func TrackEffect(cb func(obj any, evo internal.Evolution)) error {
	return internal.GetRuntime().TrackEffect(cb)
}

// OnCleanup registers fn to run when the currently active effect is
// stopped. It does not run between re-runs of the effect, and every run
// that calls OnCleanup adds another registration.
func OnCleanup(fn func()) error {
	e := internal.GetRuntime().CurrentEffect()
	if e == nil {
		return &internal.NoActiveEffectError{}
	}
	e.OnCleanup(fn)
	return nil
}

// Context returns ctx.Background with no special cancellation; exposed so
// call sites that want to pass a context into a non-reactive API from
// inside an async effect body don't need to import context separately.
func Context() context.Context { return context.Background() }
