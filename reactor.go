// Package reactor is a fine-grained reactive runtime: plain Go values
// become reactive views whose reads are tracked and whose writes
// re-trigger exactly the effects that depend on them, in dependency
// order.
package reactor

import "github.com/vellumkit/reactor/internal"

// Reactive wraps ptr (a pointer to a struct, or an already-reactive
// value) in its reactive view, or returns v unchanged if it is classified
// non-reactive (NonReactive/NonReactiveClass, time.Time, functions,
// channels, errors, …). Calling Reactive on an existing view is a no-op.
func Reactive(v any) any {
	return internal.GetRuntime().Reactive(v)
}

// Unwrap returns the plain Go value behind a reactive view, or v itself
// if v is not one.
func Unwrap(v any) any { return internal.Unwrap(v) }

// IsReactive reports whether v is a reactive view.
func IsReactive(v any) bool { return internal.IsReactive(v) }

// NonReactive marks specific objects as forever-non-reactive: Reactive()
// will return them untouched even if their type would otherwise qualify.
func NonReactive(objs ...any) { internal.DefaultClassifier().MarkInstances(objs...) }

// NonReactiveClass marks every instance of each sample's type (and, for a
// pointer sample, its pointee type) as forever-non-reactive.
func NonReactiveClass(samples ...any) { internal.DefaultClassifier().MarkClass(samples...) }

// AddNonReactivePredicate registers a custom rule for NonReactive
// classification, evaluated after the built-in rules and any
// NonReactive/NonReactiveClass marks.
func AddNonReactivePredicate(pred func(v any) bool) {
	internal.DefaultClassifier().AddPredicate(pred)
}
