package internal

import "fmt"

// Scheduler implements C7: it owns the pending-effect queue, batching
// depth, and the dynamic effect-edge graph used for cycle detection. One
// Scheduler lives per Runtime.
//
// Grounded on the teacher's internal/scheduler.go (atomic scheduled/running
// flags plus a clock) and internal/heap.go (height-bucketed drain), merged
// here into one type since this redesign has no separate Batcher/NodeQueue/
// EffectQueue split — with no memoized Computed layer, there is only one
// kind of pending work: effects.
type Scheduler struct {
	rt   *Runtime
	heap *effectHeap

	batchDepth int
	flushing   bool

	chainCount int
	lastErr    error

	// edges records, for the current flush only, which effect's run
	// scheduled which other effect. It is what cycle detection walks, and
	// it is reset at the start of every flush.
	edges map[*Effect]map[*Effect]struct{}
}

func NewScheduler(rt *Runtime) *Scheduler {
	return &Scheduler{rt: rt, heap: newEffectHeap()}
}

// runImmediate runs e synchronously right now (an effect's mandatory first
// execution, spec §4.6 "effect runs once immediately unless deferred"),
// then flushes anything that first run scheduled, unless a batch is open.
// Writes made during that first run are held until it returns, so the
// effects they trigger run after e has finished rather than while e is
// still marked running.
// Like Runtime.Schedule, this path has no error return of its own, so a
// scheduler error surfaces by panicking (spec §7 propagation policy).
func (s *Scheduler) runImmediate(e *Effect) {
	s.batchDepth++
	func() {
		defer func() { s.batchDepth-- }()
		s.runOne(e)
	}()
	if s.batchDepth == 0 {
		if err := s.flush(); err != nil {
			panic(err)
		}
	}
}

// enqueueLocked records e as pending from a foreign goroutine (an async
// continuation settling, spec §5). Caller must hold Runtime.mu. It does
// not flush: effect bodies must only ever run on the owning goroutine, so
// the pending effect sits in the heap until that goroutine next calls
// Schedule/Flush/Batch.
func (s *Scheduler) enqueueLocked(e *Effect) {
	s.enqueue(nil, e)
}

// Enqueue schedules target as a dependent of raw's mutation, attributing
// the edge to source (the effect currently running, or nil for an
// external write). Called by the reactive view layer after Registry.Collect.
func (s *Scheduler) Enqueue(source *Effect, target *Effect) {
	s.enqueue(source, target)
}

func (s *Scheduler) enqueue(source, target *Effect) {
	if target.stopped {
		return
	}

	if source != nil {
		if s.recordEdge(source, target) {
			s.handleCycle(source, target)
			return
		}
		target.height = source.height + 1
	} else {
		target.height = 0
	}

	target.triggerCount++
	if target.triggerCount > s.rt.options.MaxTriggerPerBatch {
		s.reportMaxTrigger(target)
		return
	}

	s.heap.Insert(target)
}

func (s *Scheduler) recordEdge(source, target *Effect) (cycle bool) {
	if s.edges == nil {
		s.edges = make(map[*Effect]map[*Effect]struct{})
	}
	set := s.edges[source]
	if set == nil {
		set = make(map[*Effect]struct{})
		s.edges[source] = set
	}
	set[target] = struct{}{}

	return s.reaches(target, source)
}

func (s *Scheduler) reaches(from, to *Effect) bool {
	seen := make(map[*Effect]bool)
	var dfs func(*Effect) bool
	dfs = func(n *Effect) bool {
		if n == to {
			return true
		}
		if seen[n] {
			return false
		}
		seen[n] = true
		for next := range s.edges[n] {
			if dfs(next) {
				return true
			}
		}
		return false
	}
	return dfs(from)
}

func (s *Scheduler) cyclePath(source, target *Effect) []string {
	path := []string{target.Name()}
	seen := map[*Effect]bool{target: true}
	cur := target
	for cur != source {
		advanced := false
		for next := range s.edges[cur] {
			if next == source || !seen[next] {
				path = append(path, next.Name())
				seen[next] = true
				cur = next
				advanced = true
				break
			}
		}
		if !advanced {
			break
		}
	}
	return path
}

// handleCycle applies options.CycleHandling (spec §6) once recordEdge has
// found that scheduling target from source would close a loop. "strict" is
// documented as a creation-time refusal in the spec; here it is applied at
// schedule time instead, the same as "throw" — see DESIGN.md.
func (s *Scheduler) handleCycle(source, target *Effect) {
	policy := s.rt.options.CycleHandling
	if policy == CycleNone {
		target.height = source.height + 1
		target.triggerCount++
		s.heap.Insert(target)
		return
	}

	path := s.cyclePath(source, target)

	switch policy {
	case CycleThrow, CycleStrict:
		s.lastErr = &CycleDetectedError{Cycle: path}
	case CycleWarn:
		if hook := s.rt.options.Hooks.Warn; hook != nil {
			hook(fmt.Sprintf("cycle detected: %v", path))
		}
	case CycleBreak:
		// silently drop the closing edge.
	}
}

func (s *Scheduler) reportMaxTrigger(e *Effect) {
	err := &MaxReactionExceededError{Effect: e.Name(), Limit: s.rt.options.MaxTriggerPerBatch}
	switch s.rt.options.MaxEffectReaction {
	case ReactThrow:
		s.lastErr = err
	case ReactWarn:
		if hook := s.rt.options.Hooks.Warn; hook != nil {
			hook(err.Error())
		}
	case ReactDebug:
		if hook := s.rt.options.Hooks.Warn; hook != nil {
			hook("debug: " + err.Error())
		}
	}
}

// Batch increments the batching depth for the duration of fn, deferring
// all flushing until the outermost Batch returns (spec §4.6 batch()).
func (s *Scheduler) Batch(fn func()) error {
	s.batchDepth++
	fn()
	s.batchDepth--

	if s.batchDepth == 0 {
		return s.flush()
	}
	return nil
}

func (s *Scheduler) IsBatching() bool { return s.batchDepth > 0 }

// flush drains the heap in height order, running each effect in turn,
// until no more effects are pending. Reentrant calls (an effect's run
// scheduling more effects) are handled by effectHeap.Drain re-checking
// each bucket rather than by recursion.
func (s *Scheduler) flush() error {
	if s.flushing {
		return nil
	}
	s.flushing = true
	s.chainCount = 0
	s.edges = nil
	s.lastErr = nil

	defer func() {
		s.flushing = false
	}()

	s.heap.Drain(func(e *Effect) bool {
		if s.lastErr != nil {
			return false
		}

		s.chainCount++
		if s.chainCount > s.rt.options.MaxEffectChain {
			s.lastErr = &MaxDepthExceededError{Limit: s.rt.options.MaxEffectChain, Ran: s.chainCount}
			return false
		}

		s.runOne(e)
		return s.lastErr == nil
	})

	return s.lastErr
}

func (s *Scheduler) runOne(e *Effect) {
	e.triggerCount = 0
	e.run()
}
