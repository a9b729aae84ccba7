package internal

// effectHeap is a height-bucketed circular-list priority queue of pending
// effects (C7). Draining it in ascending height order is what gives the
// scheduler its topological-ish ordering: an effect scheduled by a write
// inside another effect's run gets one more height than its trigger, so it
// always drains after.
//
// Grounded on the teacher's internal/heap.go (PriorityHeap over *Computed),
// adapted to *Effect and to a dynamically sized bucket slice since this
// redesign has no static Computed dependency-height recomputation pass to
// bound the maximum height up front (spec §1 keeps memoized derivations out
// of the core).
type effectHeap struct {
	min int
	max int

	buckets []*Effect // buckets[height] = head of circular doubly-linked list
}

func newEffectHeap() *effectHeap {
	return &effectHeap{buckets: make([]*Effect, 16)}
}

func (h *effectHeap) growTo(height int) {
	if height < len(h.buckets) {
		return
	}
	next := make([]*Effect, height+1)
	copy(next, h.buckets)
	h.buckets = next
}

func (h *effectHeap) Insert(e *Effect) {
	if e.queued {
		return
	}
	e.queued = true

	h.growTo(e.height)

	head := h.buckets[e.height]
	if head == nil {
		e.nextHeap = e
		e.prevHeap = e
		h.buckets[e.height] = e
	} else {
		tail := head.prevHeap
		tail.nextHeap = e
		e.prevHeap = tail
		e.nextHeap = head
		head.prevHeap = e
	}

	if e.height > h.max {
		h.max = e.height
	}
}

func (h *effectHeap) Remove(e *Effect) {
	if !e.queued {
		return
	}
	e.queued = false

	head := h.buckets[e.height]

	if e.nextHeap == e {
		h.buckets[e.height] = nil
	} else {
		if head == e {
			h.buckets[e.height] = e.nextHeap
		}
		e.prevHeap.nextHeap = e.nextHeap
		e.nextHeap.prevHeap = e.prevHeap
	}

	e.nextHeap = nil
	e.prevHeap = nil
}

func (h *effectHeap) Empty() bool {
	for height := h.min; height <= h.max; height++ {
		if h.buckets[height] != nil {
			return false
		}
	}
	return true
}

// Drain runs process for every queued effect in ascending height order,
// re-checking each bucket after every call since process may enqueue more
// effects (including, potentially, into a bucket at or below the one being
// drained — those are picked up on the next pass since min only advances
// once a bucket is confirmed empty).
func (h *effectHeap) Drain(process func(*Effect) bool) bool {
	ok := true
	for h.min = 0; h.min <= h.max; h.min++ {
		for h.buckets[h.min] != nil {
			e := h.buckets[h.min]
			h.Remove(e)
			if !process(e) {
				ok = false
			}
		}
	}
	h.max = 0
	h.min = 0
	return ok
}
