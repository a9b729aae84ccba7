package reactor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type counter struct {
	N int
}

func TestEffectReactsToStructFields(t *testing.T) {
	t.Run("runs on write with cleanup", func(t *testing.T) {
		log := []string{}

		c := &counter{N: 0}
		view, err := NewStruct(c)
		assert.NoError(t, err)

		NewEffect(func(a Access) func() {
			n, _ := view.Get("N")
			log = append(log, fmt.Sprintf("changed %v", n))
			return func() { log = append(log, "cleanup") }
		}, EffectOptions{Name: "watcher"})

		view.Set("N", 10)
		view.Set("N", 20)

		assert.Equal(t, []string{
			"changed 0",
			"cleanup",
			"changed 10",
			"cleanup",
			"changed 20",
		}, log)
	})

	t.Run("write of an equal value is a no-op", func(t *testing.T) {
		runs := 0

		c := &counter{N: 5}
		view, err := NewStruct(c)
		assert.NoError(t, err)

		NewEffect(func(a Access) func() {
			view.Get("N")
			runs++
			return nil
		}, EffectOptions{})

		view.Set("N", 5)
		assert.Equal(t, 1, runs)
	})

	t.Run("stop prevents future reactions", func(t *testing.T) {
		runs := 0

		c := &counter{N: 0}
		view, _ := NewStruct(c)

		e := NewEffect(func(a Access) func() {
			view.Get("N")
			runs++
			return nil
		}, EffectOptions{})

		e.Stop()
		view.Set("N", 1)
		view.Set("N", 2)

		assert.Equal(t, 1, runs)
	})
}

func TestBatchCoalescesWrites(t *testing.T) {
	runs := 0

	a := &counter{N: 1}
	b := &counter{N: 2}
	va, _ := NewStruct(a)
	vb, _ := NewStruct(b)

	var sum int
	NewEffect(func(acc Access) func() {
		x, _ := va.Get("N")
		y, _ := vb.Get("N")
		sum = x.(int) + y.(int)
		runs++
		return nil
	}, EffectOptions{})

	assert.Equal(t, 1, runs)

	Batch(func() {
		va.Set("N", 10)
		vb.Set("N", 20)
	})

	assert.Equal(t, 2, runs)
	assert.Equal(t, 30, sum)
}

func TestUntrackedSkipsDependency(t *testing.T) {
	runs := 0

	c := &counter{N: 0}
	view, _ := NewStruct(c)

	NewEffect(func(a Access) func() {
		Untracked(func() {
			view.Get("N")
		})
		runs++
		return nil
	}, EffectOptions{})

	view.Set("N", 99)
	assert.Equal(t, 1, runs)
}

func TestParentChildOwnershipStopsTogether(t *testing.T) {
	log := []string{}

	c := &counter{N: 0}
	view, _ := NewStruct(c)

	var child *Effect
	parent := NewEffect(func(a Access) func() {
		view.Get("N")
		child = NewEffect(func(inner Access) func() {
			log = append(log, "child ran")
			return nil
		}, EffectOptions{})
		return nil
	}, EffectOptions{})

	assert.False(t, child.Stopped())

	parent.Stop()
	assert.True(t, child.Stopped())
	assert.Equal(t, []string{"child ran"}, log)
}
