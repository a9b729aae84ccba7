package internal

import "sync"

// DeepWatch implements C6: the back-reference graph used to bubble a leaf
// mutation up to every ancestor that has a deep watcher attached, per
// spec §4.5.1. A container only pays for this bookkeeping once something
// actually calls DeepWatch — the active counter lets bubble() return
// before walking anything in the common case.
//
// Grounded on the teacher's internal/node.go dependency bookkeeping, with
// the back-reference direction reversed: C3's registry answers "who reads
// this key", while this graph answers "what contains this raw object",
// which only needs to exist where a deep watcher is actually listening.
type DeepWatch struct {
	mu sync.Mutex

	rt *Runtime

	watchers map[any][]deepWatcher  // raw -> callbacks registered directly on it
	parents  map[any]map[any]struct{} // child raw -> set of parent raws
	active   int                     // count of live deep watches, for the fast-path check
}

type deepWatcher struct {
	id int
	cb func(origin any, evo Evolution)
}

func newDeepWatch(rt *Runtime) *DeepWatch {
	return &DeepWatch{
		rt:       rt,
		watchers: make(map[any][]deepWatcher),
		parents:  make(map[any]map[any]struct{}),
	}
}

var deepWatchIDs int

// Attach registers cb to fire whenever raw, or anything nested underneath
// it, changes (spec §4.5.1 deep_watch). It returns a detach function.
//
// Before registering, it runs the step-2 attach-time traversal: visit
// every composite reachable from raw and back-fill any child->parent
// link that predates this attach call (spec §4.5.1: "ensure back-
// references from its composite children to itself exist"). Write-time
// Link/UnlinkChild calls (internal/view.go, internal/container.go)
// already keep this graph current for anything set after a container
// exists, so in practice this mostly matters for subtrees nested through
// means other than those calls; it costs one bounded walk per Attach.
func (d *DeepWatch) Attach(raw any, cb func(origin any, evo Evolution)) func() {
	d.rt.attachTraversal(raw, d.rt.options.MaxDeepWatchDepth)

	d.mu.Lock()
	defer d.mu.Unlock()

	deepWatchIDs++
	id := deepWatchIDs
	d.watchers[raw] = append(d.watchers[raw], deepWatcher{id: id, cb: cb})
	d.active++

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		list := d.watchers[raw]
		for i, w := range list {
			if w.id == id {
				d.watchers[raw] = append(list[:i], list[i+1:]...)
				d.active--
				break
			}
		}
		if len(d.watchers[raw]) == 0 {
			delete(d.watchers, raw)
		}
	}
}

// linkChild records that parentRaw now contains childRaw as a nested
// reactive value (called from Struct/Object/Array/Map/Set writes whenever
// the new value is itself a View), and unlinkChild the reverse when a
// slot's previous value stops being contained.
func (d *DeepWatch) linkChild(parentRaw, childRaw any) {
	if childRaw == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	set := d.parents[childRaw]
	if set == nil {
		set = make(map[any]struct{})
		d.parents[childRaw] = set
	}
	set[parentRaw] = struct{}{}
}

func (d *DeepWatch) unlinkChild(parentRaw, childRaw any) {
	if childRaw == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if set, ok := d.parents[childRaw]; ok {
		delete(set, parentRaw)
		if len(set) == 0 {
			delete(d.parents, childRaw)
		}
	}
}

// bubble walks from raw up through every recorded parent, firing any
// watcher found at each level with origin fixed to the raw that actually
// changed, per the origin-based filtering rule in spec §4.5.2 (a deep
// watcher sees where the change originated, not just that "something"
// changed underneath it).
func (d *DeepWatch) bubble(origin any, evo Evolution, maxDepth int) {
	if d.active == 0 {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	seen := map[any]bool{}
	var walk func(raw any, depth int)
	walk = func(raw any, depth int) {
		if depth > maxDepth || seen[raw] {
			return
		}
		seen[raw] = true

		for _, w := range d.watchers[raw] {
			w.cb(origin, evo)
		}
		for parent := range d.parents[raw] {
			walk(parent, depth+1)
		}
	}
	walk(origin, 0)
}

// attachTraversal walks every composite value reachable from raw (depth-
// bounded by maxDepth, same as the recursive-diff walk and for the same
// reason: an unbounded object graph must not hang deep_watch forever) and
// calls LinkChild for every nested reactive value found, so a subtree
// that was assembled before this attach ever ran still has a complete
// back-reference path for bubble() to climb.
func (r *Runtime) attachTraversal(raw any, maxDepth int) {
	seen := map[any]bool{}
	var walk func(v any, depth int)
	walk = func(v any, depth int) {
		if v == nil || depth > maxDepth || seen[v] {
			return
		}
		seen[v] = true

		switch o := v.(type) {
		case *Object:
			for _, child := range o.data {
				if IsReactive(child) {
					r.LinkChild(o.self, child)
				}
				walk(child, depth+1)
			}
		case *Array:
			for _, child := range o.data {
				if IsReactive(child) {
					r.LinkChild(o.self, child)
				}
				walk(child, depth+1)
			}
		case *MapView:
			for _, child := range o.data {
				if IsReactive(child) {
					r.LinkChild(o.self, child)
				}
				walk(child, depth+1)
			}
		case *SetView:
			for child := range o.data {
				if IsReactive(child) {
					r.LinkChild(o.self, child)
				}
				walk(child, depth+1)
			}
		case *Struct:
			t := o.elem.Type()
			for i := 0; i < t.NumField(); i++ {
				if t.Field(i).PkgPath != "" {
					continue
				}
				child := o.elem.Field(i).Interface()
				if IsReactive(child) {
					r.LinkChild(o.raw, child)
				}
				walk(child, depth+1)
			}
		}
	}
	walk(raw, 0)
}

// bubbleDeepWatch is trigger()'s entry point into C6.
func (r *Runtime) bubbleDeepWatch(raw any, evo Evolution) {
	r.deepWatch.bubble(raw, evo, r.options.MaxDeepWatchDepth)
}

// LinkChild/UnlinkChild expose the back-reference maintenance calls used
// by the view layer (internal/view.go) whenever a reactive value is
// stored into or removed from a container.
func (r *Runtime) LinkChild(parentRaw, childRaw any)   { r.deepWatch.linkChild(parentRaw, childRaw) }
func (r *Runtime) UnlinkChild(parentRaw, childRaw any) { r.deepWatch.unlinkChild(parentRaw, childRaw) }

// DeepWatchAttach is the public entry point for watch.go's DeepWatch().
func (r *Runtime) DeepWatchAttach(raw any, cb func(origin any, evo Evolution)) func() {
	return r.deepWatch.Attach(raw, cb)
}
