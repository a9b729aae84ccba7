package internal

import "fmt"

// MapView is the non-generic engine backing the public Map[K,V] sugar
// (internal/view.go's Object is string-keyed only; this supports arbitrary
// comparable key types, per the supplemented Map/Set feature documented in
// SPEC_FULL.md). Keys are boxed as `any` and compared with Go's native
// map-key equality, so K must be a comparable type — enforced at the
// public layer's generic constructor, not here.
type MapView struct {
	rt   *Runtime
	self *MapView
	data map[any]any
}

func (r *Runtime) NewMapView() *MapView {
	m := &MapView{rt: r, data: make(map[any]any)}
	m.self = m
	r.ownership.Set(m, m)
	return m
}

func (m *MapView) Raw() any { return m.self }

func (m *MapView) Get(key any) (any, bool) {
	m.rt.track(m.self, mapKey(key))
	v, ok := m.data[key]
	if !ok {
		return nil, false
	}
	if m.rt.classifier.IsNonReactive(v) {
		return v, true
	}
	return m.rt.Reactive(v), true
}

func (m *MapView) Has(key any) bool {
	m.rt.track(m.self, mapKey(key))
	_, ok := m.data[key]
	return ok
}

func (m *MapView) Set(key, value any) {
	raw := Unwrap(value)
	old, existed := m.data[key]

	if existed && reflectEqual(old, raw) {
		return
	}
	if existed {
		if oldRaw := Unwrap(old); oldRaw != nil {
			m.rt.UnlinkChild(m.self, oldRaw)
		}
	}
	if IsReactive(value) {
		m.rt.LinkChild(m.self, raw)
	}

	m.data[key] = raw

	evo := SetEvo(mapKey(key))
	if !existed {
		evo = AddEvo(mapKey(key))
		m.rt.trigger(m.self, KEYS, evo)
	}
	m.rt.trigger(m.self, mapKey(key), evo)
}

func (m *MapView) Delete(key any) bool {
	old, ok := m.data[key]
	if !ok {
		return false
	}
	delete(m.data, key)
	if oldRaw := Unwrap(old); oldRaw != nil {
		m.rt.UnlinkChild(m.self, oldRaw)
	}
	evo := DelEvo(mapKey(key))
	m.rt.trigger(m.self, mapKey(key), evo)
	m.rt.trigger(m.self, KEYS, evo)
	return true
}

func (m *MapView) Size() int {
	m.rt.track(m.self, ALL)
	return len(m.data)
}

func (m *MapView) Keys() []any {
	m.rt.track(m.self, KEYS)
	out := make([]any, 0, len(m.data))
	for k := range m.data {
		out = append(out, k)
	}
	return out
}

// mapKey turns an arbitrary comparable Go value into a Key usable by C3's
// registry. Map keys are not generally strings or ints, so they are kept
// as symbolic keys boxed around the original value rather than coerced
// into StringKey/IndexKey (which carry spec-specific string/index
// semantics for structs and arrays).
func mapKey(k any) Key {
	return Key{kind: kindSymbol, sym: mapKeySymbol, str: keyID(k)}
}

// mapKeySymbol is shared by every map/set key so that two mapKey calls for
// equal values yield equal Keys.
var mapKeySymbol = &symbol{name: "mapkey"}

// keyID gives map keys a stable string identity for the Key.kind==symbol
// comparison: two Go values equal under == produce the same Key only if
// their formatted representation matches, which holds for every
// comparable kind Go allows as a map key (the same constraint MapView
// itself inherits from Go's native maps).
func keyID(k any) string {
	return fmt.Sprintf("%T:%v", k, k)
}

// SetView is the engine backing the public Set[T] sugar: an unordered
// collection of distinct, comparable elements with Add/Delete/Has.
type SetView struct {
	rt   *Runtime
	self *SetView
	data map[any]struct{}
}

func (r *Runtime) NewSetView() *SetView {
	s := &SetView{rt: r, data: make(map[any]struct{})}
	s.self = s
	r.ownership.Set(s, s)
	return s
}

func (s *SetView) Raw() any { return s.self }

func (s *SetView) Has(v any) bool {
	s.rt.track(s.self, mapKey(v))
	_, ok := s.data[v]
	return ok
}

func (s *SetView) Add(v any) {
	raw := Unwrap(v)
	if _, ok := s.data[raw]; ok {
		return
	}
	s.data[raw] = struct{}{}
	if IsReactive(v) {
		s.rt.LinkChild(s.self, raw)
	}
	evo := AddEvo(mapKey(raw))
	s.rt.trigger(s.self, mapKey(raw), evo)
	s.rt.trigger(s.self, ALL, evo)
}

func (s *SetView) Delete(v any) bool {
	raw := Unwrap(v)
	if _, ok := s.data[raw]; !ok {
		return false
	}
	delete(s.data, raw)
	s.rt.UnlinkChild(s.self, raw)
	evo := DelEvo(mapKey(raw))
	s.rt.trigger(s.self, mapKey(raw), evo)
	s.rt.trigger(s.self, ALL, evo)
	return true
}

func (s *SetView) Size() int {
	s.rt.track(s.self, ALL)
	return len(s.data)
}

func (s *SetView) Values() []any {
	s.rt.track(s.self, ALL)
	out := make([]any, 0, len(s.data))
	for v := range s.data {
		out = append(out, v)
	}
	return out
}
