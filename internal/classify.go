package internal

import (
	"reflect"
	"regexp"
	"sync"
	"time"
)

// Classifier implements C2: it decides whether a value must never
// participate in dependency tracking (spec §4.1 "Classification rules").
//
// Classification walks the Go analogue of a prototype chain: the dynamic
// reflect.Type of the value (and, for pointers, the pointee type) — never
// the reactive-view chain, so a value already wrapped by this engine is
// still classified by its own shape, not by what wraps it.
type Classifier struct {
	mu         sync.RWMutex
	types      map[reflect.Type]struct{}
	instances  map[any]struct{}
	predicates []func(any) bool
}

func NewClassifier() *Classifier {
	c := &Classifier{
		types:     make(map[reflect.Type]struct{}),
		instances: make(map[any]struct{}),
	}

	c.types[reflect.TypeOf(time.Time{})] = struct{}{}
	c.types[reflect.TypeOf(time.Duration(0))] = struct{}{}
	c.types[reflect.TypeOf(regexp.Regexp{})] = struct{}{}

	return c
}

var errorInterfaceType = reflect.TypeOf((*error)(nil)).Elem()

// IsNonReactive reports whether v must be returned untouched by Reactive()
// and never wrapped.
func (c *Classifier) IsNonReactive(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Invalid,
		reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128,
		reflect.Func, reflect.Chan, reflect.UnsafePointer:
		// Primitives, functions and channels (the closest Go analogue to a
		// host promise/thenable) are never reactive.
		return true
	}

	t := rv.Type()
	if t.Implements(errorInterfaceType) {
		return true
	}

	walk := t
	for walk.Kind() == reflect.Ptr {
		walk = walk.Elem()
	}

	c.mu.RLock()
	_, known := c.types[walk]
	_, knownPtr := c.types[t]
	c.mu.RUnlock()
	if known || knownPtr {
		return true
	}

	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		key := identityKey(v)
		c.mu.RLock()
		_, marked := c.instances[key]
		c.mu.RUnlock()
		if marked {
			return true
		}
	}

	c.mu.RLock()
	preds := c.predicates
	c.mu.RUnlock()
	for _, pred := range preds {
		if pred(v) {
			return true
		}
	}

	return false
}

// MarkInstances marks each given object as forever-non-reactive.
func (c *Classifier) MarkInstances(objs ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, o := range objs {
		if o == nil {
			continue
		}
		c.instances[identityKey(o)] = struct{}{}
	}
}

// MarkClass marks every instance of each sample's dynamic type (and, for a
// pointer sample, the pointee type too) as forever-non-reactive.
func (c *Classifier) MarkClass(samples ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range samples {
		if s == nil {
			continue
		}
		t := reflect.TypeOf(s)
		c.types[t] = struct{}{}
		walk := t
		for walk.Kind() == reflect.Ptr {
			walk = walk.Elem()
			c.types[walk] = struct{}{}
		}
	}
}

// AddPredicate registers a custom non-reactive predicate.
func (c *Classifier) AddPredicate(pred func(any) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.predicates = append(c.predicates, pred)
}

// identityKey turns a pointer-shaped value into a comparable map key distinct
// from the value's own (non-comparable, for maps/slices) representation.
func identityKey(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		return rv.Pointer()
	}
	return v
}

var defaultClassifier = NewClassifier()

func DefaultClassifier() *Classifier { return defaultClassifier }
