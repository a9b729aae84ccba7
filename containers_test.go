package reactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectReactivity(t *testing.T) {
	obj := NewObject(map[string]any{"name": "ada"})

	runs := 0
	var seen any
	NewEffect(func(a Access) func() {
		seen = obj.Get("name")
		runs++
		return nil
	}, EffectOptions{})

	assert.Equal(t, "ada", seen)
	assert.Equal(t, 1, runs)

	obj.Set("name", "ada") // unchanged, no-op
	assert.Equal(t, 1, runs)

	obj.Set("name", "grace")
	assert.Equal(t, 2, runs)
	assert.Equal(t, "grace", seen)

	obj.Set("age", 30) // a different key: shouldn't re-run the name effect
	assert.Equal(t, 2, runs)
}

func TestObjectKeyEnumerationTracksAddDelete(t *testing.T) {
	obj := NewObject(nil)

	runs := 0
	var keys []string
	NewEffect(func(a Access) func() {
		keys = obj.Keys()
		runs++
		return nil
	}, EffectOptions{})

	assert.Equal(t, 1, runs)

	obj.Set("a", 1)
	assert.Equal(t, 2, runs)
	assert.ElementsMatch(t, []string{"a"}, keys)

	obj.Delete("a")
	assert.Equal(t, 3, runs)
	assert.Empty(t, keys)
}

func TestArrayPushPopTracksWholeSequence(t *testing.T) {
	arr := NewArray(1, 2, 3)

	runs := 0
	var length int
	NewEffect(func(a Access) func() {
		length = arr.Len()
		runs++
		return nil
	}, EffectOptions{})

	assert.Equal(t, 3, length)

	arr.Push(4)
	assert.Equal(t, 2, runs)
	assert.Equal(t, 4, length)

	arr.Pop()
	assert.Equal(t, 3, runs)
	assert.Equal(t, 3, length)
}

func TestArrayIndexedWritesOnlyNotifyThatIndex(t *testing.T) {
	arr := NewArray("a", "b", "c")

	runs0 := 0
	NewEffect(func(a Access) func() {
		v, _ := arr.Get(0)
		_ = v
		runs0++
		return nil
	}, EffectOptions{})

	runs1 := 0
	NewEffect(func(a Access) func() {
		v, _ := arr.Get(1)
		_ = v
		runs1++
		return nil
	}, EffectOptions{})

	err := arr.Set(1, "bb")
	assert.NoError(t, err)

	assert.Equal(t, 1, runs0)
	assert.Equal(t, 2, runs1)
}

func TestMapAndSetReactivity(t *testing.T) {
	m := NewMap[string, int]()
	runs := 0
	var got int
	var ok bool
	NewEffect(func(a Access) func() {
		got, ok = m.Get("x")
		runs++
		return nil
	}, EffectOptions{})

	assert.False(t, ok)

	m.Set("x", 42)
	assert.Equal(t, 2, runs)
	assert.Equal(t, 42, got)

	s := NewSet[int]()
	setRuns := 0
	NewEffect(func(a Access) func() {
		s.Has(7)
		setRuns++
		return nil
	}, EffectOptions{})

	s.Add(7)
	assert.Equal(t, 2, setRuns)
	assert.True(t, s.Has(7))
}
