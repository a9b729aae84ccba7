package internal

import "reflect"

// RecursiveDiff implements C5's recursive-diff rule (spec §4.5.2): when a
// slot is replaced wholesale by another value of the same "prototype
// token" (this module's Open Question decision: reflect.Type identity,
// see DESIGN.md), the notifier walks both values field-by-field /
// index-by-index and emits one Evolution per differing leaf instead of a
// single opaque Set for the whole slot. Effects that only read one nested
// field of a large struct then don't re-run when a sibling field changes,
// even though the whole struct was reassigned at once.
//
// Every leaf notification is also run through dispatch_notifications'
// origin filter (spec §4.5.2 steps 1-3): an `allowed` set is computed once
// from the origin (obj,key) pair, the whole dispatch is skipped if it's
// empty, and each leaf is only delivered to effects that are themselves in
// `allowed` or have an ancestor effect in `allowed` — an effect that only
// reads the outer slot as a whole must not re-run just because one of its
// unread nested leaves changed underneath it.
//
// Grounded on spec §4.5.2 directly — the teacher has no analogous
// mechanism (its Computed/Signal model never reassigns whole composite
// values, only scalars) — written in the teacher's plain-function style
// rather than introducing a new exported type.
type recursiveDiffer struct {
	rt      *Runtime
	maxDiff int
	allowed map[*Effect]struct{}
}

// diffEligible reports whether oldVal/newVal share a shape diffAny can
// actually walk: the four internal View container types (compared by
// their own identity, since their fields are unexported even to
// reflect), or a plain Go struct/pointer/slice/array/map pair of the same
// concrete type.
func diffEligible(oldVal, newVal any) bool {
	if oldVal == nil || newVal == nil {
		return false
	}
	if reflect.TypeOf(oldVal) != reflect.TypeOf(newVal) {
		return false
	}
	switch oldVal.(type) {
	case *Object, *Array, *MapView, *SetView:
		return true
	}
	switch reflect.TypeOf(oldVal).Kind() {
	case reflect.Struct, reflect.Ptr, reflect.Slice, reflect.Array, reflect.Map:
		return true
	default:
		return false
	}
}

// diffAndTouch compares oldVal and newVal and, if RecursiveTouching is
// enabled and they share the same prototype token, dispatches one
// Evolution per differing nested leaf instead of a single top-level
// decision. It reports whether it was able to do a structural diff at
// all; callers fall back to a plain Set notification when it returns
// false (different shapes, or RecursiveTouching disabled).
func (r *Runtime) diffAndTouch(raw any, key Key, oldVal, newVal any) bool {
	if !r.options.RecursiveTouching {
		return false
	}
	if !diffEligible(oldVal, newVal) {
		return false
	}

	allowed := r.registry.DependentsOf(raw, []Key{key, ALL})

	// touched_opaque (testable property 8, "Opaque identity"): an opaque
	// effect cares about the origin's identity being replaced at all, not
	// about which leaf changed, so every opaque effect in allowed (a direct
	// reader of the origin slot) is scheduled here, whatever the leaf walk
	// below delivers.
	r.touchedOpaque(allowed)

	if len(allowed) == 0 {
		// Nothing reads through the origin at all: skip the whole
		// dispatch (spec §4.5.2 step 2).
		return true
	}

	d := &recursiveDiffer{rt: r, maxDiff: r.options.MaxDeepWatchDepth, allowed: allowed}
	d.diffAny(raw, key, oldVal, newVal, 0)
	return true
}

// touchedOpaque schedules every opaque effect in allowed, bypassing the
// ancestor-propagation filter entirely — opaque identity means "I want to
// know about every replacement of what I read", regardless of what the
// rest of dispatch_notifications decides about nested leaves.
func (r *Runtime) touchedOpaque(allowed map[*Effect]struct{}) {
	source := r.tracker.Current()
	for e := range allowed {
		if e.Opaque() {
			r.Schedule(source, e)
		}
	}
}

// isAllowed reports whether e, or any ancestor effect in its ownership
// chain, is in allowed — the "ancestor effect in allowed" half of the
// origin filter (spec §4.5.2 step 3). An effect created inside one that
// reads straight through the origin must still react even though its own
// tracked dependency is on a nested leaf, not the origin itself.
func isAllowed(e *Effect, allowed map[*Effect]struct{}) bool {
	for o := e.Owner; o != nil; o = o.Parent() {
		if eff := o.Effect(); eff != nil {
			if _, ok := allowed[eff]; ok {
				return true
			}
		}
	}
	return false
}

// emit delivers evo to the effects depending on keys on raw, filtered
// through the origin's allowed set (dispatch_notifications step 3). For
// the View containers and for values reached through a pointer, raw is
// the nested value's own identity — the one a real dependent like
// scenario S3's child effect is actually registered against. For a plain
// non-pointer struct, slice, array or map walked by diffReflect, raw stays
// the identity the walk started from, and nested keys are bare field
// names/indices under it (flat, not path-qualified).
func (d *recursiveDiffer) emit(raw any, keys []Key, evo Evolution) {
	d.rt.triggerKeys(raw, keys, evo, func(e *Effect) bool {
		return isAllowed(e, d.allowed)
	})
}

// diffAny dispatches on oldVal's concrete type: the four View containers
// get diffed directly against their own data fields (same package,
// unexported field access, since reflect cannot see into them), anything
// else falls through to the generic reflect-based walk.
func (d *recursiveDiffer) diffAny(raw any, key Key, oldVal, newVal any, depth int) {
	if depth > d.maxDiff {
		d.emit(raw, []Key{key, ALL}, InvalidateEvo(key))
		return
	}

	switch ov := oldVal.(type) {
	case *Object:
		if nv, ok := newVal.(*Object); ok {
			d.diffObject(ov, nv, depth)
			return
		}
	case *Array:
		if nv, ok := newVal.(*Array); ok {
			d.diffArray(ov, nv, depth)
			return
		}
	case *MapView:
		if nv, ok := newVal.(*MapView); ok {
			d.diffMapView(ov, nv, depth)
			return
		}
	case *SetView:
		if nv, ok := newVal.(*SetView); ok {
			d.diffSetView(ov, nv, depth)
			return
		}
	}

	d.diffReflect(raw, key, reflect.ValueOf(oldVal), reflect.ValueOf(newVal), depth)
}

// diffObject diffs two Object snapshots field by field. Nested
// notifications post under ov.self — the nested object's own raw
// identity — not the caller's raw, since that is what existing dependents
// of that nested object are actually registered against.
func (d *recursiveDiffer) diffObject(ov, nv *Object, depth int) {
	raw := ov.self
	seen := make(map[string]bool, len(ov.data))

	for k, oldv := range ov.data {
		seen[k] = true
		fk := StringKey(k)

		newv, existed := nv.data[k]
		if !existed {
			d.emit(raw, []Key{fk, KEYS, ALL}, DelEvo(fk))
			continue
		}
		if reflectEqual(oldv, newv) {
			continue
		}
		if diffEligible(oldv, newv) {
			d.diffAny(raw, fk, oldv, newv, depth+1)
		} else {
			d.emit(raw, []Key{fk, ALL}, SetEvo(fk))
		}
	}

	for k := range nv.data {
		if seen[k] {
			continue
		}
		fk := StringKey(k)
		d.emit(raw, []Key{fk, KEYS, ALL}, AddEvo(fk))
	}
}

func (d *recursiveDiffer) diffArray(ov, nv *Array, depth int) {
	raw := ov.self
	n := len(ov.data)
	if len(nv.data) > n {
		n = len(nv.data)
	}

	for i := 0; i < n; i++ {
		ik := IndexKey(i)
		switch {
		case i >= len(ov.data):
			d.emit(raw, []Key{ik, ALL}, AddEvo(ik))
		case i >= len(nv.data):
			d.emit(raw, []Key{ik, ALL}, DelEvo(ik))
		default:
			oldv, newv := ov.data[i], nv.data[i]
			if reflectEqual(oldv, newv) {
				continue
			}
			if diffEligible(oldv, newv) {
				d.diffAny(raw, ik, oldv, newv, depth+1)
			} else {
				d.emit(raw, []Key{ik, ALL}, SetEvo(ik))
			}
		}
	}

	if len(ov.data) != len(nv.data) {
		d.emit(raw, []Key{ALL}, BunchEvo("length"))
	}
}

func (d *recursiveDiffer) diffMapView(ov, nv *MapView, depth int) {
	raw := ov.self
	seen := make(map[any]bool, len(ov.data))

	for k, oldv := range ov.data {
		seen[k] = true
		mk := mapKey(k)

		newv, existed := nv.data[k]
		if !existed {
			d.emit(raw, []Key{mk, KEYS, ALL}, DelEvo(mk))
			continue
		}
		if reflectEqual(oldv, newv) {
			continue
		}
		if diffEligible(oldv, newv) {
			d.diffAny(raw, mk, oldv, newv, depth+1)
		} else {
			d.emit(raw, []Key{mk, ALL}, SetEvo(mk))
		}
	}

	for k := range nv.data {
		if seen[k] {
			continue
		}
		mk := mapKey(k)
		d.emit(raw, []Key{mk, KEYS, ALL}, AddEvo(mk))
	}
}

// diffSetView has no per-key identity beyond membership: each member is
// its own key (mapKey(value), the same scheme SetView.Add/Delete use
// directly), so a wholesale replacement becomes one Add/Del per member
// difference rather than a recursive walk into a member's own shape.
func (d *recursiveDiffer) diffSetView(ov, nv *SetView, depth int) {
	raw := ov.self
	for v := range ov.data {
		if _, ok := nv.data[v]; !ok {
			k := mapKey(v)
			d.emit(raw, []Key{k, ALL}, DelEvo(k))
		}
	}
	for v := range nv.data {
		if _, ok := ov.data[v]; !ok {
			k := mapKey(v)
			d.emit(raw, []Key{k, ALL}, AddEvo(k))
		}
	}
}

// diffReflect is the generic path for plain Go structs/pointers/slices/
// arrays/maps that aren't one of the four View containers (e.g. a
// Struct[T]'s own backing *T, or a plain value nested inside one). When it
// dereferences a pointer, raw is reassigned to that pointer itself: for an
// internal.Struct, the *T pointer IS its raw identity, so nested field
// notifications must post under it, not under whatever raw the walk
// started from.
func (d *recursiveDiffer) diffReflect(raw any, key Key, ov, nv reflect.Value, depth int) {
	if depth > d.maxDiff {
		d.emit(raw, []Key{key, ALL}, InvalidateEvo(key))
		return
	}

	for ov.Kind() == reflect.Ptr {
		if ov.IsNil() || nv.IsNil() {
			if ov.IsNil() != nv.IsNil() {
				d.emit(raw, []Key{key, ALL}, SetEvo(key))
			}
			return
		}
		raw = ov.Interface()
		ov = ov.Elem()
		nv = nv.Elem()
	}

	switch ov.Kind() {
	case reflect.Struct:
		t := ov.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" {
				continue
			}
			fk := StringKey(f.Name)
			ofv, nfv := ov.Field(i), nv.Field(i)
			if valuesEqual(ofv, nfv) {
				continue
			}
			if sameShape(ofv, nfv) && isComposite(ofv) {
				d.diffReflect(raw, fk, ofv, nfv, depth+1)
			} else {
				d.emit(raw, []Key{fk, ALL}, SetEvo(fk))
			}
		}
	case reflect.Slice, reflect.Array:
		n := ov.Len()
		if nv.Len() > n {
			n = nv.Len()
		}
		for i := 0; i < n; i++ {
			ik := IndexKey(i)
			switch {
			case i >= ov.Len():
				d.emit(raw, []Key{ik, ALL}, AddEvo(ik))
			case i >= nv.Len():
				d.emit(raw, []Key{ik, ALL}, DelEvo(ik))
			case !valuesEqual(ov.Index(i), nv.Index(i)):
				d.emit(raw, []Key{ik, ALL}, SetEvo(ik))
			}
		}
		if ov.Len() != nv.Len() {
			d.emit(raw, []Key{ALL}, BunchEvo("length"))
		}
	case reflect.Map:
		seen := map[any]bool{}
		for _, mkv := range ov.MapKeys() {
			seen[mkv.Interface()] = true
			k := mapKey(mkv.Interface())
			nvv := nv.MapIndex(mkv)
			if !nvv.IsValid() {
				d.emit(raw, []Key{k, ALL}, DelEvo(k))
			} else if !valuesEqual(ov.MapIndex(mkv), nvv) {
				d.emit(raw, []Key{k, ALL}, SetEvo(k))
			}
		}
		for _, mkv := range nv.MapKeys() {
			if !seen[mkv.Interface()] {
				k := mapKey(mkv.Interface())
				d.emit(raw, []Key{k, ALL}, AddEvo(k))
			}
		}
	default:
		if !valuesEqual(ov, nv) {
			d.emit(raw, []Key{key, ALL}, SetEvo(key))
		}
	}
}

func isComposite(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Struct, reflect.Slice, reflect.Array, reflect.Map, reflect.Ptr:
		return true
	default:
		return false
	}
}

func sameShape(a, b reflect.Value) bool {
	return a.IsValid() && b.IsValid() && a.Type() == b.Type()
}

func valuesEqual(a, b reflect.Value) bool {
	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}
	if !a.Type().Comparable() {
		return false
	}
	defer func() { recover() }()
	return a.Interface() == b.Interface()
}
