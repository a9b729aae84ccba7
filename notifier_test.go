package reactor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestOriginFilterSuppressesUnrelatedReaders exercises spec scenario S2: a
// recursive-diff replacement of a nested reference must not wake an effect
// that only reads the *slot* holding it, nor one that reads a field of the
// replaced value directly but was never nested under the slot at all.
func TestOriginFilterSuppressesUnrelatedReaders(t *testing.T) {
	A := NewObject(map[string]any{"x": 1, "y": 2})
	B := NewObject(map[string]any{"x": 10, "y": 20})
	C := NewObject(map[string]any{"something": A})

	r1, r2 := 0, 0
	NewEffect(func(a Access) func() {
		r1++
		C.Get("something")
		return nil
	}, EffectOptions{Name: "reads-slot"})
	NewEffect(func(a Access) func() {
		r2++
		A.Get("x")
		return nil
	}, EffectOptions{Name: "reads-A.x"})

	assert.Equal(t, 1, r1)
	assert.Equal(t, 1, r2)

	C.Set("something", B) // recursive-diff replacement, origin (C,"something")

	assert.Equal(t, 1, r1, "reader of the slot itself must not re-run")
	assert.Equal(t, 1, r2, "reader of the old value's field must not re-run")
}

// TestNestedEffectReRunsThroughOriginPermission exercises spec scenario S3:
// an effect created inside one that reads straight through the origin must
// still re-run when a leaf under the replacement changes, even though its
// own tracked dependency is on the nested value, never on the origin.
func TestNestedEffectReRunsThroughOriginPermission(t *testing.T) {
	A := NewObject(map[string]any{"x": 1})
	B := NewObject(map[string]any{"x": 2})
	C := NewObject(map[string]any{"something": A})

	parent, child := 0, 0
	NewEffect(func(a Access) func() {
		parent++
		C.Get("something")
		NewEffect(func(inner Access) func() {
			child++
			A.Get("x")
			return nil
		}, EffectOptions{Name: "child"})
		return nil
	}, EffectOptions{Name: "parent"})

	assert.Equal(t, 1, parent)
	assert.Equal(t, 1, child)

	C.Set("something", B)

	assert.Equal(t, 1, parent, "parent never read a field of something, so it does not re-run")
	assert.Equal(t, 2, child, "child re-runs because its ancestor (parent) depends on the origin")
}

// TestCycleUnderDefaultPolicyRaisesMaxDepthExceeded exercises spec scenario
// S5: two effects that keep writing into each other's dependency, created
// with bare NewEffect (no Batch), must surface MaxDepthExceeded instead of
// silently capping the chain.
func TestCycleUnderDefaultPolicyRaisesMaxDepthExceeded(t *testing.T) {
	s := NewObject(map[string]any{"a": 0, "b": 0})

	NewEffect(func(a Access) func() {
		av := s.Get("a").(int)
		s.Set("b", av+1)
		return nil
	}, EffectOptions{Name: "a-to-b"})

	var caught any
	func() {
		defer func() { caught = recover() }()
		NewEffect(func(a Access) func() {
			bv := s.Get("b").(int)
			s.Set("a", bv+1)
			return nil
		}, EffectOptions{Name: "b-to-a"})
	}()

	if assert.NotNil(t, caught, "expected the chain cap to panic out to the creation call") {
		err, ok := caught.(error)
		if assert.True(t, ok, "panic value should be an error") {
			var depthErr *MaxDepthExceededError
			assert.True(t, errors.As(err, &depthErr))
		}
	}
}
