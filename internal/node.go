package internal

// Cell is a single dependency slot: one (raw object, key) pair inside the
// registry (C3). It is the data-side of a dependency edge; effects are the
// consumer side (internal/effect.go).
//
// The teacher's internal/node.go modeled this with a doubly linked
// DependencyLink list per node for O(1) removal. This redesign keeps that
// O(1)-removal property with plain Go maps instead: with reflection-based
// field access already dominating the cost of a reactive read, the linked
// list's main advantage (avoiding map allocation churn) does not pay for
// itself here, while the map keeps the registry trivially correct during
// single-threaded reentrant iteration (see internal/registry.go's
// snapshot-on-dispatch rule, spec §5).
type Cell struct {
	subs map[*Effect]struct{}
}

func newCell() *Cell {
	return &Cell{subs: make(map[*Effect]struct{})}
}

func (c *Cell) addSub(e *Effect) {
	c.subs[e] = struct{}{}
}

func (c *Cell) removeSub(e *Effect) {
	delete(c.subs, e)
}

func (c *Cell) empty() bool { return len(c.subs) == 0 }

// snapshot returns a copy of the current subscriber set so callers can
// iterate it while the registry is mutated concurrently with dispatch
// (spec §5 shared-resource rule: "implementations must iterate a snapshot").
func (c *Cell) snapshot() []*Effect {
	out := make([]*Effect, 0, len(c.subs))
	for e := range c.subs {
		out = append(out, e)
	}
	return out
}
