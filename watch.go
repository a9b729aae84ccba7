package reactor

import (
	"time"

	"github.com/vellumkit/reactor/internal"
)

// Ref is a getter/setter pair over any reactive slot, the shape BiDi
// links together.
type Ref = internal.Ref

// Watch calls cb with the previous and current result of get whenever a
// dependency read inside get changes. get's first call establishes the
// baseline and does not call cb.
func Watch(get func() any, cb func(oldVal, newVal any)) *Effect {
	return internal.GetRuntime().Watch(get, cb, EffectOptions{Name: "watch"})
}

// When resolves the returned channel (with a nil error) the first time
// pred becomes true, or with a TimeoutExpiredError if timeout elapses
// first. Pass 0 for no timeout.
func When(pred func() bool, timeout time.Duration) <-chan error {
	return internal.GetRuntime().When(pred, timeout)
}

// DeepWatch calls cb whenever raw, or anything reactively nested under
// it, changes; origin is the value that actually changed. Returns a
// detach function.
func DeepWatch(raw any, cb func(origin any, evo internal.Evolution)) func() {
	return internal.GetRuntime().DeepWatchAttach(Unwrap(raw), cb)
}

// BiDi keeps two reactive slots equal, propagating whichever changes
// first to the other without looping.
func BiDi(a, b Ref) func() {
	return internal.GetRuntime().BiDi(a, b)
}
