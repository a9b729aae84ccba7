package internal

import "reflect"

// Reactive wraps v in its reactive view if it is not already one and is
// not classified non-reactive (C2), returning v itself otherwise
// (spec §4.1 reactive()/NonReactive rules, invariant 2: "Reactive(v) is
// idempotent").
func (r *Runtime) Reactive(v any) any {
	if v == nil {
		return nil
	}
	if _, ok := v.(View); ok {
		return v // already a view
	}
	if r.classifier.IsNonReactive(v) {
		return v
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Ptr:
		if rv.Elem().Kind() == reflect.Struct {
			if existing, ok := r.ownership.Get(v); ok {
				return existing
			}
			s, err := r.NewStruct(v)
			if err != nil {
				return v
			}
			return s
		}
		return v
	case reflect.Map, reflect.Slice:
		// Go maps/slices carry no identity pointer to key the ownership
		// map on, so they are wrapped explicitly by the caller via
		// NewMapView/NewSetView/NewArray instead of implicitly here.
		return v
	default:
		return v
	}
}

// Unwrap returns the raw value behind a reactive view, or v itself if it
// is not a view (spec §4.1 unwrap()).
func Unwrap(v any) any {
	if view, ok := v.(View); ok {
		return view.Raw()
	}
	return v
}

// IsReactive reports whether v is itself a reactive view.
func IsReactive(v any) bool {
	_, ok := v.(View)
	return ok
}
