package internal

import (
	"reflect"
)

// View is the common interface every reactive wrapper satisfies: the
// engine only ever needs a view's raw identity (for C1's ownership map and
// C3's registry) and a way to deep-touch it (C5/C6).
type View interface {
	Raw() any
}

// track registers a dependency of the currently active effect on
// (raw, key). Nothing is registered outside an effect or inside
// Untracked. The deep-watch graph is not touched here; writes reach it
// through trigger.
func (r *Runtime) track(raw any, key Key) {
	if !r.tracker.IsTracking() {
		return
	}
	e := r.tracker.Current()
	r.registry.Depend(e, raw, key)
}

// trigger notifies every effect depending on (raw, key) that evo happened,
// scheduling each for re-run (C5's notify_property_change, spec §4.2).
func (r *Runtime) trigger(raw any, key Key, evo Evolution) {
	r.triggerKeys(raw, []Key{key, ALL}, evo, nil)
}

// triggerKeys is trigger generalized two ways the recursive-diff notifier
// needs (internal/notifier.go): keys lets a caller broaden beyond {key,
// ALL} (e.g. also notifying KEYS for an Add/Del), and keep, if non-nil,
// filters which of the collected effects actually get scheduled — the
// origin filter's allowed/ancestor-propagation rule (spec §4.5.2). A nil
// keep schedules every collected effect, matching plain trigger.
func (r *Runtime) triggerKeys(raw any, keys []Key, evo Evolution, keep func(*Effect) bool) {
	r.recordHistory(raw, evo)
	if hook := r.options.Hooks.Touched; hook != nil {
		hook(raw, evo)
	}

	source := r.tracker.Current()

	pending := make(map[*Effect]struct{})
	r.registry.Collect(raw, keys, evo, pending, r.reportSkippedRunning)

	for e := range pending {
		if keep != nil && !keep(e) {
			continue
		}
		r.Schedule(source, e)
	}

	r.bubbleDeepWatch(raw, evo)
}

func (r *Runtime) reportSkippedRunning(e *Effect) {
	if hook := r.options.Hooks.SkipRunningEffect; hook != nil {
		hook(e.Name())
	}
}

// Struct is the reflection-based reactive wrapper over a user's own *T
// (spec §9's suggested "ReactiveRef<T> handle with explicit get/set
// operations", adopted here in place of a language-level Proxy, which Go
// has no equivalent of). Its raw identity (C1) is the *T pointer itself.
//
// Grounded on the teacher's sig.Signal[T] for the Read/Write shape, and on
// other_examples/...yao__tui-framework-binding-store.go.go for the idea of
// keying dependencies by field path rather than by whole-object identity.
type Struct struct {
	rt       *Runtime
	raw      any // the *T pointer
	elem     reflect.Value
	accessor map[string]bool // not populated by any code path; Get and Set do not consult it
}

// NewStruct builds (or returns the existing) reactive view over ptr, which
// must be a non-nil pointer to a struct.
func (r *Runtime) NewStruct(ptr any) (*Struct, error) {
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil, &BadTargetError{Reason: "Struct requires a non-nil pointer to a struct"}
	}

	if existing, ok := r.ownership.Get(ptr); ok {
		return existing.(*Struct), nil
	}

	s := &Struct{rt: r, raw: ptr, elem: rv.Elem()}
	r.ownership.Set(ptr, s)
	return s, nil
}

func (s *Struct) Raw() any { return s.raw }

// Get reads field, tracking a dependency on it.
func (s *Struct) Get(field string) (any, error) {
	fv := s.elem.FieldByName(field)
	if !fv.IsValid() {
		return nil, &BadTargetError{Reason: "no such field: " + field}
	}

	s.rt.track(s.raw, StringKey(field))

	v := fv.Interface()
	if s.rt.classifier.IsNonReactive(v) {
		return v, nil
	}
	return s.rt.Reactive(v), nil
}

// Set assigns field and notifies dependents if the value actually changed.
// Writing a non-reactive equal value is a no-op (invariant 3: "a write that
// does not change the underlying value produces no notification").
func (s *Struct) Set(field string, value any) error {
	fv := s.elem.FieldByName(field)
	if !fv.IsValid() {
		return &BadTargetError{Reason: "no such field: " + field}
	}
	if !fv.CanSet() {
		return &BadTargetError{Reason: "field is unexported: " + field}
	}

	raw := Unwrap(value)
	old := fv.Interface()

	if reflectEqual(old, raw) {
		return nil
	}

	if IsReactive(value) {
		s.rt.LinkChild(s.raw, raw)
	}
	if oldRaw := Unwrap(old); oldRaw != nil && !reflectEqual(oldRaw, raw) {
		s.rt.UnlinkChild(s.raw, oldRaw)
	}

	fv.Set(reflect.ValueOf(raw))

	fieldKey := StringKey(field)
	if !s.rt.diffAndTouch(s.raw, fieldKey, old, raw) {
		s.rt.trigger(s.raw, fieldKey, SetEvo(fieldKey))
	}
	return nil
}

// Fields returns the struct's own field names, tracking a dependency on
// key enumeration (the KEYS symbol).
func (s *Struct) Fields() []string {
	s.rt.track(s.raw, KEYS)

	t := s.elem.Type()
	names := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" { // unexported
			continue
		}
		names = append(names, f.Name)
	}
	return names
}

func reflectEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	if av.Type() != bv.Type() {
		return false
	}
	if !av.Comparable() {
		return false
	}
	defer func() { recover() }()
	return av.Interface() == bv.Interface()
}

// Object is a dynamic, map-backed reactive record (spec §4.1's general
// "record" shape, for values that do not come from a fixed Go struct
// type) — e.g. results of Object literals or JSON-shaped payloads.
type Object struct {
	rt   *Runtime
	self *Object // used as this object's own raw identity
	data map[string]any
}

func (r *Runtime) NewObject(initial map[string]any) *Object {
	o := &Object{rt: r, data: make(map[string]any, len(initial))}
	o.self = o
	for k, v := range initial {
		raw := Unwrap(v)
		o.data[k] = raw
		if IsReactive(v) {
			r.LinkChild(o.self, raw)
		}
	}
	r.ownership.Set(o, o)
	return o
}

func (o *Object) Raw() any { return o.self }

func (o *Object) Get(key string) any {
	o.rt.track(o.self, StringKey(key))
	v := o.data[key]
	if o.rt.classifier.IsNonReactive(v) {
		return v
	}
	return o.rt.Reactive(v)
}

func (o *Object) Has(key string) bool {
	o.rt.track(o.self, StringKey(key))
	_, ok := o.data[key]
	return ok
}

func (o *Object) Set(key string, value any) {
	raw := Unwrap(value)
	old, existed := o.data[key]

	if existed && reflectEqual(old, raw) {
		return
	}

	if existed {
		if oldRaw := Unwrap(old); oldRaw != nil {
			o.rt.UnlinkChild(o.self, oldRaw)
		}
	}
	if IsReactive(value) {
		o.rt.LinkChild(o.self, raw)
	}

	o.data[key] = raw
	fieldKey := StringKey(key)

	if !existed {
		evo := AddEvo(fieldKey)
		o.rt.trigger(o.self, KEYS, evo)
		o.rt.trigger(o.self, fieldKey, evo)
		return
	}

	if !o.rt.diffAndTouch(o.self, fieldKey, old, raw) {
		o.rt.trigger(o.self, fieldKey, SetEvo(fieldKey))
	}
}

func (o *Object) Delete(key string) {
	old, ok := o.data[key]
	if !ok {
		return
	}
	delete(o.data, key)
	if oldRaw := Unwrap(old); oldRaw != nil {
		o.rt.UnlinkChild(o.self, oldRaw)
	}
	evo := DelEvo(StringKey(key))
	o.rt.trigger(o.self, StringKey(key), evo)
	o.rt.trigger(o.self, KEYS, evo)
}

func (o *Object) Keys() []string {
	o.rt.track(o.self, KEYS)
	keys := make([]string, 0, len(o.data))
	for k := range o.data {
		keys = append(keys, k)
	}
	return keys
}

// Array is a dynamic, slice-backed reactive sequence (spec §4.1). Index
// reads/writes track/notify per-index (C3); length-changing operations
// (Push/Pop/Splice) additionally touch the ALL key, since every consumer
// that iterated the whole sequence must re-run.
type Array struct {
	rt   *Runtime
	self *Array
	data []any
}

func (r *Runtime) NewArray(initial []any) *Array {
	a := &Array{rt: r, data: make([]any, len(initial))}
	a.self = a
	for i, v := range initial {
		raw := Unwrap(v)
		a.data[i] = raw
		if IsReactive(v) {
			r.LinkChild(a.self, raw)
		}
	}
	r.ownership.Set(a, a)
	return a
}

func (a *Array) Raw() any { return a.self }

func (a *Array) Len() int {
	a.rt.track(a.self, ALL)
	return len(a.data)
}

func (a *Array) Get(i int) (any, error) {
	if i < 0 || i >= len(a.data) {
		return nil, &BadTargetError{Reason: "array index out of range"}
	}
	a.rt.track(a.self, IndexKey(i))
	v := a.data[i]
	if a.rt.classifier.IsNonReactive(v) {
		return v, nil
	}
	return a.rt.Reactive(v), nil
}

func (a *Array) Set(i int, value any) error {
	if i < 0 || i >= len(a.data) {
		return &BadTargetError{Reason: "array index out of range"}
	}
	raw := Unwrap(value)
	old := a.data[i]
	if reflectEqual(old, raw) {
		return nil
	}
	if oldRaw := Unwrap(old); oldRaw != nil {
		a.rt.UnlinkChild(a.self, oldRaw)
	}
	if IsReactive(value) {
		a.rt.LinkChild(a.self, raw)
	}
	a.data[i] = raw
	a.rt.trigger(a.self, IndexKey(i), SetEvo(IndexKey(i)))
	return nil
}

func (a *Array) Push(values ...any) {
	if len(values) == 0 {
		return
	}
	for _, v := range values {
		raw := Unwrap(v)
		a.data = append(a.data, raw)
		if IsReactive(v) {
			a.rt.LinkChild(a.self, raw)
		}
	}
	a.rt.trigger(a.self, ALL, BunchEvo("push"))
}

func (a *Array) Pop() (any, bool) {
	if len(a.data) == 0 {
		return nil, false
	}
	last := a.data[len(a.data)-1]
	a.data = a.data[:len(a.data)-1]
	if oldRaw := Unwrap(last); oldRaw != nil {
		a.rt.UnlinkChild(a.self, oldRaw)
	}
	a.rt.trigger(a.self, ALL, BunchEvo("pop"))
	return last, true
}

func (a *Array) Splice(start, deleteCount int, insert ...any) []any {
	if start < 0 {
		start = 0
	}
	if start > len(a.data) {
		start = len(a.data)
	}
	end := start + deleteCount
	if end > len(a.data) {
		end = len(a.data)
	}

	removed := append([]any(nil), a.data[start:end]...)
	for _, v := range removed {
		if oldRaw := Unwrap(v); oldRaw != nil {
			a.rt.UnlinkChild(a.self, oldRaw)
		}
	}

	rawInsert := unwrapSlice(insert)
	for i, v := range insert {
		if IsReactive(v) {
			a.rt.LinkChild(a.self, rawInsert[i])
		}
	}

	tail := append([]any(nil), a.data[end:]...)
	a.data = append(a.data[:start], rawInsert...)
	a.data = append(a.data, tail...)

	a.rt.trigger(a.self, ALL, BunchEvo("splice"))
	return removed
}

// unwrapSlice returns a copy of vs with every element replaced by its raw
// value (Unwrap); a thin helper kept separate so Splice reads clearly.
func unwrapSlice(vs []any) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = Unwrap(v)
	}
	return out
}
