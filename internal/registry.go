package internal

import "sync"

// Registry implements C3: the two-way mapping between (raw object, key)
// and the set of effects that depend on it.
//
// Grounded on the teacher's internal/node.go (DependencyLink) generalized
// to per-key cells, and on the path-keyed DependencyGraph in
// other_examples/...yao__tui-framework-binding-store.go.go, which stores
// exactly this kind of "key -> dependents" map alongside a reverse map used
// to tear down a watcher's edges in bulk — the same role effectWatches
// plays here for Stop().
type Registry struct {
	mu sync.Mutex

	watchers      map[any]map[Key]*Cell
	effectWatches map[*Effect]map[*Cell]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		watchers:      make(map[any]map[Key]*Cell),
		effectWatches: make(map[*Effect]map[*Cell]struct{}),
	}
}

func (r *Registry) cellFor(raw any, key Key, create bool) *Cell {
	keys, ok := r.watchers[raw]
	if !ok {
		if !create {
			return nil
		}
		keys = make(map[Key]*Cell)
		r.watchers[raw] = keys
	}

	cell, ok := keys[key]
	if !ok {
		if !create {
			return nil
		}
		cell = newCell()
		keys[key] = cell
	}

	return cell
}

// Depend registers (raw, key) as a dependency of effect, if effect is
// non-nil and not stopped (invariant 4: a stopped effect never gains new
// edges).
func (r *Registry) Depend(effect *Effect, raw any, key Key) {
	if effect == nil || effect.stopped {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cell := r.cellFor(raw, key, true)
	cell.addSub(effect)

	watches, ok := r.effectWatches[effect]
	if !ok {
		watches = make(map[*Cell]struct{})
		r.effectWatches[effect] = watches
	}
	watches[cell] = struct{}{}
}

// Collect unions the effects subscribed to any of keys on raw into out,
// skipping effects that are currently running (reporting skipRunning for
// each) and firing each effect's one-shot trigger tracker at most once.
func (r *Registry) Collect(raw any, keys []Key, trigger Evolution, out map[*Effect]struct{}, skipRunning func(*Effect)) {
	r.mu.Lock()
	cells := make([]*Cell, 0, len(keys))
	for _, k := range keys {
		if c := r.cellFor(raw, k, false); c != nil {
			cells = append(cells, c)
		}
	}
	var effects []*Effect
	for _, c := range cells {
		effects = append(effects, c.snapshot()...)
	}
	r.mu.Unlock()

	for _, e := range effects {
		if e.stopped {
			continue
		}
		if e.running {
			if skipRunning != nil {
				skipRunning(e)
			}
			continue
		}
		if _, already := out[e]; !already {
			out[e] = struct{}{}
		}
		e.fireTrackers(raw, trigger)
	}
}

// DependentsOf returns the effects directly subscribed to any of keys on
// raw, with none of Collect's dispatch-time side effects (it fires no
// one-shot trackers and applies no running/skip semantics). Used by the
// recursive-diff notifier to compute the origin filter's `allowed` set
// (spec §4.5.2) without that computation itself counting as a dispatch.
func (r *Registry) DependentsOf(raw any, keys []Key) map[*Effect]struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[*Effect]struct{})
	for _, k := range keys {
		if c := r.cellFor(raw, k, false); c != nil {
			for e := range c.subs {
				out[e] = struct{}{}
			}
		}
	}
	return out
}

// ClearEffect removes every edge mentioning effect (spec §4.2 clear_effect,
// and the teardown half of invariant 8).
func (r *Registry) ClearEffect(effect *Effect) {
	r.mu.Lock()
	defer r.mu.Unlock()

	watches := r.effectWatches[effect]
	delete(r.effectWatches, effect)

	for cell := range watches {
		cell.removeSub(effect)
	}
}
