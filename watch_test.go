package reactor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vellumkit/reactor/internal"
)

func TestWatchFiresOnlyOnChange(t *testing.T) {
	c := &counter{N: 0}
	view, _ := NewStruct(c)

	var transitions [][2]int
	Watch(func() any {
		n, _ := view.Get("N")
		return n
	}, func(oldVal, newVal any) {
		transitions = append(transitions, [2]int{oldVal.(int), newVal.(int)})
	})

	assert.Empty(t, transitions)

	view.Set("N", 1)
	view.Set("N", 1) // unchanged, Struct.Set already short-circuits
	view.Set("N", 2)

	assert.Equal(t, [][2]int{{0, 1}, {1, 2}}, transitions)
}

func TestWhenResolvesOncePredicateIsTrue(t *testing.T) {
	c := &counter{N: 0}
	view, _ := NewStruct(c)

	done := When(func() bool {
		n, _ := view.Get("N")
		return n.(int) >= 3
	}, time.Second)

	view.Set("N", 1)
	view.Set("N", 2)
	view.Set("N", 3)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("when() never resolved")
	}
}

func TestWhenTimesOut(t *testing.T) {
	c := &counter{N: 0}
	view, _ := NewStruct(c)

	done := When(func() bool {
		n, _ := view.Get("N")
		return n.(int) >= 100
	}, 10*time.Millisecond)

	select {
	case err := <-done:
		var timeoutErr *TimeoutExpiredError
		assert.ErrorAs(t, err, &timeoutErr)
	case <-time.After(time.Second):
		t.Fatal("when() never settled")
	}
}

func TestDeepWatchBubblesFromNestedObject(t *testing.T) {
	inner := NewObject(map[string]any{"v": 1})
	outer := NewObject(map[string]any{"inner": inner})

	var origins []any
	detach := DeepWatch(outer, func(origin any, evo internal.Evolution) {
		origins = append(origins, origin)
	})
	defer detach()

	inner.Set("v", 2)

	assert.Len(t, origins, 1)
}

func TestDeepWatchBubblesThroughTwoLevelsOfPreexistingNesting(t *testing.T) {
	profile := NewObject(map[string]any{"age": 30})
	user := NewObject(map[string]any{"profile": profile})
	o := NewObject(map[string]any{"user": user})

	hits := 0
	detach := DeepWatch(o, func(origin any, evo internal.Evolution) {
		hits++
	})
	defer detach()

	profile.Set("age", 31)

	assert.Equal(t, 1, hits)
}

func TestBiDiKeepsTwoSlotsEqualWithoutLooping(t *testing.T) {
	a := &counter{N: 1}
	b := &counter{N: 2}
	va, _ := NewStruct(a)
	vb, _ := NewStruct(b)

	detach := BiDi(
		Ref{
			Get: func() any { n, _ := va.Get("N"); return n },
			Set: func(v any) { va.Set("N", v) },
		},
		Ref{
			Get: func() any { n, _ := vb.Get("N"); return n },
			Set: func(v any) { vb.Set("N", v) },
		},
	)
	defer detach()

	va.Set("N", 42)
	nb, _ := vb.Get("N")
	assert.Equal(t, 42, nb)

	vb.Set("N", 7)
	na, _ := va.Get("N")
	assert.Equal(t, 7, na)
}
