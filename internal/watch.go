package internal

import "time"

// Watch runs get inside a tracked effect and calls cb with the previous
// and current result whenever a dependency of get changes (spec glossary
// "watch" derivative, built on top of effect()+Access.Reaction() rather
// than being its own primitive node, mirroring how the teacher's higher
// level sig package built Memo/Watch-style helpers on top of its Computed
// primitive instead of adding new engine concepts for each).
func (r *Runtime) Watch(get func() any, cb func(oldVal, newVal any), opts EffectOptions) *Effect {
	var prev any
	first := true

	return r.NewEffect(func(a Access) func() {
		cur := get()
		if first {
			first = false
			prev = cur
			return nil
		}
		if !reflectEqual(prev, cur) {
			old := prev
			prev = cur
			cb(old, cur)
		}
		return nil
	}, opts)
}

// When resolves (closes its returned channel, sending nil) the first time
// pred() becomes true inside a tracked effect, or sends a
// TimeoutExpiredError after timeout elapses, whichever happens first
// (spec glossary "when" derivative).
func (r *Runtime) When(pred func() bool, timeout time.Duration) <-chan error {
	out := make(chan error, 1)
	done := false

	var eff *Effect
	eff = r.NewEffect(func(a Access) func() {
		if done {
			return nil
		}
		if pred() {
			done = true
			out <- nil
			close(out)
			a.effect.Stop()
		}
		return nil
	}, EffectOptions{Name: "when"})

	if timeout > 0 {
		timer := time.AfterFunc(timeout, func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if done {
				return
			}
			done = true
			out <- &TimeoutExpiredError{Timeout: timeout.String()}
			close(out)
			eff.Stop()
		})
		eff.OnCleanup(func() { timer.Stop() })
	}

	return out
}

// Ref is a minimal getter/setter pair, the shape BiDi links together. It
// lets BiDi work over any reactive slot (a Struct field, an Object key, a
// plain Signal) without needing its own view type.
type Ref struct {
	Get func() any
	Set func(any)
}

// BiDi keeps a and b equal: whichever side changes first is propagated to
// the other. The suppressA/suppressB flags only cover a propagation that
// runs while the other side's Set call is still on the stack; when the
// other side's watch runs later in the same flush, the flag has already
// been cleared and that watch writes the value back. The echo then stops
// because writing an equal value is a no-op (Struct.Set, Object.Set), not
// because the re-triggered watch is removed from the pending batch.
func (r *Runtime) BiDi(a, b Ref) func() {
	suppressA := false
	suppressB := false

	stopA := r.Watch(a.Get, func(_, newVal any) {
		if suppressA {
			return
		}
		suppressB = true
		b.Set(newVal)
		suppressB = false
	}, EffectOptions{Name: "bidi"})

	stopB := r.Watch(b.Get, func(_, newVal any) {
		if suppressB {
			return
		}
		suppressA = true
		a.Set(newVal)
		suppressA = false
	}, EffectOptions{Name: "bidi"})

	return func() {
		stopA.Stop()
		stopB.Stop()
	}
}
