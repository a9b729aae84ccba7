package reactor

import "github.com/vellumkit/reactor/internal"

// Struct is a reactive view over *T: Get/Set by field name are tracked
// and notified exactly like a struct literal's fields would be under a
// host-language Proxy, without Go needing one.
type Struct[T any] struct {
	view *internal.Struct
}

// NewStruct builds a reactive view over ptr. ptr keeps its own identity —
// calling NewStruct twice on the same pointer returns views over the same
// underlying record.
func NewStruct[T any](ptr *T) (*Struct[T], error) {
	v, err := internal.GetRuntime().NewStruct(ptr)
	if err != nil {
		return nil, err
	}
	return &Struct[T]{view: v}, nil
}

func (s *Struct[T]) Get(field string) (any, error) { return s.view.Get(field) }
func (s *Struct[T]) Set(field string, value any) error { return s.view.Set(field, value) }
func (s *Struct[T]) Fields() []string { return s.view.Fields() }
func (s *Struct[T]) Raw() *T { return s.view.Raw().(*T) }

// Object is a dynamic, string-keyed reactive record.
type Object struct{ view *internal.Object }

func NewObject(initial map[string]any) *Object {
	return &Object{view: internal.GetRuntime().NewObject(initial)}
}

func (o *Object) Get(key string) any              { return o.view.Get(key) }
func (o *Object) Set(key string, value any)        { o.view.Set(key, value) }
func (o *Object) Has(key string) bool              { return o.view.Has(key) }
func (o *Object) Delete(key string)                { o.view.Delete(key) }
func (o *Object) Keys() []string                   { return o.view.Keys() }

// Raw exposes the underlying view's raw identity so nesting one container
// inside another (or inside a Struct field) links correctly for DeepWatch.
func (o *Object) Raw() any { return o.view.Raw() }

// Array is a dynamic reactive sequence.
type Array struct{ view *internal.Array }

func NewArray(initial ...any) *Array {
	return &Array{view: internal.GetRuntime().NewArray(initial)}
}

func (a *Array) Len() int                          { return a.view.Len() }
func (a *Array) Get(i int) (any, error)             { return a.view.Get(i) }
func (a *Array) Set(i int, value any) error         { return a.view.Set(i, value) }
func (a *Array) Push(values ...any)                 { a.view.Push(values...) }
func (a *Array) Pop() (any, bool)                   { return a.view.Pop() }
func (a *Array) Splice(start, deleteCount int, insert ...any) []any {
	return a.view.Splice(start, deleteCount, insert...)
}

// Raw exposes the underlying view's raw identity so nesting one container
// inside another (or inside a Struct field) links correctly for DeepWatch.
func (a *Array) Raw() any { return a.view.Raw() }

// Map is a reactive key/value collection over any comparable key type K.
type Map[K comparable, V any] struct{ view *internal.MapView }

func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{view: internal.GetRuntime().NewMapView()}
}

func (m *Map[K, V]) Get(key K) (V, bool) {
	v, ok := m.view.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	return v.(V), true
}

func (m *Map[K, V]) Set(key K, value V) { m.view.Set(key, value) }
func (m *Map[K, V]) Has(key K) bool     { return m.view.Has(key) }
func (m *Map[K, V]) Delete(key K) bool  { return m.view.Delete(key) }
func (m *Map[K, V]) Size() int          { return m.view.Size() }

func (m *Map[K, V]) Keys() []K {
	raw := m.view.Keys()
	out := make([]K, len(raw))
	for i, k := range raw {
		out[i] = k.(K)
	}
	return out
}

// Raw exposes the underlying view's raw identity so nesting one container
// inside another (or inside a Struct field) links correctly for DeepWatch.
func (m *Map[K, V]) Raw() any { return m.view.Raw() }

// Set is a reactive collection of distinct, comparable elements.
type Set[T comparable] struct{ view *internal.SetView }

func NewSet[T comparable]() *Set[T] {
	return &Set[T]{view: internal.GetRuntime().NewSetView()}
}

func (s *Set[T]) Add(v T) bool {
	before := s.view.Size()
	s.view.Add(v)
	return s.view.Size() != before
}

func (s *Set[T]) Has(v T) bool    { return s.view.Has(v) }
func (s *Set[T]) Delete(v T) bool { return s.view.Delete(v) }
func (s *Set[T]) Size() int       { return s.view.Size() }

func (s *Set[T]) Values() []T {
	raw := s.view.Values()
	out := make([]T, len(raw))
	for i, v := range raw {
		out[i] = v.(T)
	}
	return out
}

// Raw exposes the underlying view's raw identity so nesting one container
// inside another (or inside a Struct field) links correctly for DeepWatch.
func (s *Set[T]) Raw() any { return s.view.Raw() }
