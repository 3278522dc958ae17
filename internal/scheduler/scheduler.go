// Package scheduler implements cooperative thread scheduling (spec §4.6):
// a round-robin runnable queue, a sleeping min-heap ordered by wake time,
// and a blocked set keyed by whatever a thread is waiting on. Time only
// advances between node-steps, so a snapshot taken right after a tick
// always lands on a clean boundary (spec §4.6, §4.7).
//
// The teacher has no scheduler to generalize from: its bytecode VM's Run
// (internal/bytecode/vm.go) executes a chunk synchronously to completion,
// with no budget parameter and no requeue mechanism for an unfinished
// frame. The round-robin runnable queue, per-tick step budget, and
// sleeping min-heap here are original design against spec §6's cooperative-
// scheduling requirements, not a port of teacher code.
package scheduler

import (
	"container/heap"

	"github.com/cwbudde/codecity/internal/engine"
)

// Status is a thread's scheduling state.
type Status int

const (
	Runnable Status = iota
	Sleeping
	Blocked
	Done
)

// ThreadEntry is the scheduler's bookkeeping record for one engine.Thread.
type ThreadEntry struct {
	Thread    *engine.Thread
	Status    Status
	WakeAt    int64 // logical tick this thread should wake at, when Sleeping
	BlockedOn any   // opaque blocker identity, when Blocked
}

// sleepHeap orders sleeping threads by WakeAt; container/heap backing store.
type sleepHeap []*ThreadEntry

func (h sleepHeap) Len() int            { return len(h) }
func (h sleepHeap) Less(i, j int) bool  { return h[i].WakeAt < h[j].WakeAt }
func (h sleepHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *sleepHeap) Push(x any)         { *h = append(*h, x.(*ThreadEntry)) }
func (h *sleepHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Scheduler drives a population of threads: a FIFO of runnable threads, a
// min-heap of sleeping threads, and a set of blocked threads keyed by
// blocker identity (spec §4.6).
type Scheduler struct {
	Engine *engine.Engine

	runnable []*ThreadEntry
	sleeping sleepHeap
	blocked  map[any][]*ThreadEntry
	byID     map[uint64]*ThreadEntry

	// now is the scheduler's own logical clock, advanced by Tick. It is
	// not wall-clock time — the host's Clock collaborator (internal/host)
	// owns that; "now" here is purely the ordering key sleeping threads
	// wake against.
	now int64

	// StepBudget bounds how many engine steps a single runnable thread gets
	// per turn before it's re-queued behind the others (spec §4.6's
	// "advance up to stepBudget" rule).
	StepBudget int
}

// New creates a scheduler with the given per-thread step budget.
func New(en *engine.Engine, stepBudget int) *Scheduler {
	if stepBudget <= 0 {
		stepBudget = 1000
	}
	return &Scheduler{
		Engine:     en,
		blocked:    make(map[any][]*ThreadEntry),
		byID:       make(map[uint64]*ThreadEntry),
		StepBudget: stepBudget,
	}
}

// Spawn enrolls a thread as runnable.
func (s *Scheduler) Spawn(th *engine.Thread) *ThreadEntry {
	e := &ThreadEntry{Thread: th, Status: Runnable}
	s.runnable = append(s.runnable, e)
	s.byID[th.ID] = e
	return e
}

// Sleep moves a running thread into the sleeping heap, to be requeued once
// Tick's logical clock reaches wakeAt.
func (s *Scheduler) Sleep(e *ThreadEntry, wakeAt int64) {
	e.Status = Sleeping
	e.WakeAt = wakeAt
	heap.Push(&s.sleeping, e)
}

// Block moves a running thread into the blocked set under the given
// blocker identity (e.g. a host socket descriptor, spec §4.9).
func (s *Scheduler) Block(e *ThreadEntry, blockerID any) {
	e.Status = Blocked
	e.BlockedOn = blockerID
	s.blocked[blockerID] = append(s.blocked[blockerID], e)
}

// Unblock moves every thread blocked on blockerID back to runnable,
// called by the host when the awaited condition (I/O ready, a signal)
// becomes true.
func (s *Scheduler) Unblock(blockerID any) {
	for _, e := range s.blocked[blockerID] {
		e.Status = Runnable
		e.BlockedOn = nil
		s.runnable = append(s.runnable, e)
	}
	delete(s.blocked, blockerID)
}

// Kill removes a thread from scheduling entirely, discarding its state
// tree without running any pending finally blocks (spec §9's kill-policy
// decision). The thread's engine-level Done flag is set so snapshot
// encoding skips it.
func (s *Scheduler) Kill(threadID uint64) {
	e, ok := s.byID[threadID]
	if !ok {
		return
	}
	e.Thread.Done = true
	e.Status = Done
	s.removeFromRunnable(threadID)
	for i, se := range s.sleeping {
		if se == e {
			heap.Remove(&s.sleeping, i)
			break
		}
	}
	if bucket, ok := s.blocked[e.BlockedOn]; ok {
		kept := bucket[:0]
		for _, be := range bucket {
			if be != e {
				kept = append(kept, be)
			}
		}
		s.blocked[e.BlockedOn] = kept
	}
	delete(s.byID, threadID)
}

func (s *Scheduler) removeFromRunnable(threadID uint64) {
	out := s.runnable[:0]
	for _, e := range s.runnable {
		if e.Thread.ID != threadID {
			out = append(out, e)
		}
	}
	s.runnable = out
}

// wake moves every sleeping thread whose WakeAt has arrived into the
// runnable queue.
func (s *Scheduler) wake() {
	for s.sleeping.Len() > 0 && s.sleeping[0].WakeAt <= s.now {
		e := heap.Pop(&s.sleeping).(*ThreadEntry)
		e.Status = Runnable
		s.runnable = append(s.runnable, e)
	}
}

// Tick advances the logical clock by one unit, wakes any threads whose
// time has come, and gives every currently runnable thread up to
// StepBudget engine steps in round-robin order. It returns the number of
// threads that made progress this tick (0 means every live thread is
// asleep or blocked — the host should wait for an external event).
func (s *Scheduler) Tick() int {
	s.now++
	s.wake()

	queue := s.runnable
	s.runnable = nil
	progressed := 0

	for _, e := range queue {
		if e.Status != Runnable {
			continue
		}
		budget := s.StepBudget
		for budget > 0 {
			if !s.Engine.Step(e.Thread) {
				break
			}
			budget--
		}
		progressed++
		if e.Thread.Done {
			e.Status = Done
			delete(s.byID, e.Thread.ID)
			continue
		}
		s.runnable = append(s.runnable, e)
	}
	return progressed
}

// Now returns the scheduler's logical clock value.
func (s *Scheduler) Now() int64 { return s.now }

// SetNow restores the logical clock, used by the snapshot decoder so a
// restored world's sleeping threads keep their original wake offsets
// relative to the clock instead of all waking up immediately.
func (s *Scheduler) SetNow(now int64) { s.now = now }

// Entries returns every thread entry the scheduler currently knows about,
// across all three queues, for the snapshot encoder to walk.
func (s *Scheduler) Entries() []*ThreadEntry {
	out := make([]*ThreadEntry, 0, len(s.runnable)+s.sleeping.Len())
	out = append(out, s.runnable...)
	out = append(out, s.sleeping...)
	for _, bucket := range s.blocked {
		out = append(out, bucket...)
	}
	return out
}

// Lookup resolves a thread ID to its scheduler entry.
func (s *Scheduler) Lookup(id uint64) (*ThreadEntry, bool) {
	e, ok := s.byID[id]
	return e, ok
}

// Reinstall is used by the snapshot decoder to re-register a restored
// thread in the appropriate queue, rebuilding the scheduler's invariants
// (heap order, byID index) from scratch after a bulk restore.
func (s *Scheduler) Reinstall(e *ThreadEntry) {
	s.byID[e.Thread.ID] = e
	switch e.Status {
	case Runnable:
		s.runnable = append(s.runnable, e)
	case Sleeping:
		heap.Push(&s.sleeping, e)
	case Blocked:
		s.blocked[e.BlockedOn] = append(s.blocked[e.BlockedOn], e)
	}
}
