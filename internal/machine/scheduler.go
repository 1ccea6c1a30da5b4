package machine

// Policy selects which of the two next-thread selection disciplines the
// scheduler uses.
type Policy int

const (
	// ProcessFair round-robins live processes and takes one ready thread
	// from each before moving to the next, so no single process with many
	// threads can starve a quieter sibling process of turns.
	ProcessFair Policy = iota
	// ThreadFair round-robins every ready thread directly, regardless of
	// which process owns it.
	ThreadFair
)

// Scheduler owns every list a running program's processes and threads can
// be on: the live process roster, the thread-fair ready queue, the global
// sleep list, and the deferred dead-process list. It never touches
// instruction or data memory directly; dispatch.go does that and calls back
// into the scheduler only to move threads and processes between lists.
type Scheduler struct {
	Policy      Policy
	Infanticide bool

	Processes    PCBList
	ThreadsReady TCBList
	Sleeping     TCBList
	Dead         PCBList

	// last is the process-fair policy's "last scheduled" PCB: the owner of
	// the thread most recently handed out by Next, held aside rather than
	// requeued immediately so the re-queue-or-reap decision can be deferred
	// to the start of the following Next call, per spec's "on re-entry"
	// wording.
	last *PCB
}

// NewScheduler creates an empty scheduler for one source file's run.
func NewScheduler(policy Policy, infanticide bool) *Scheduler {
	return &Scheduler{Policy: policy, Infanticide: infanticide}
}

// AddProcess registers a freshly created PCB (big-bang birth or fork) and
// its first thread.
func (s *Scheduler) AddProcess(pcb *PCB, first *TCB) {
	pcb.Threads = 1
	s.Processes.PushBack(pcb)
	s.Enqueue(first)
}

// Enqueue places a runnable thread on whichever ready queue the active
// policy uses.
func (s *Scheduler) Enqueue(t *TCB) {
	if s.Policy == ProcessFair {
		t.PCB.Ready.PushBack(t)
		return
	}
	s.ThreadsReady.PushBack(t)
}

// Next returns the next thread to run, or nil if every live process has an
// empty ready list (deadlock, or the program has simply run to quiescence).
func (s *Scheduler) Next() *TCB {
	if s.Policy == ProcessFair {
		return s.nextProcessFair()
	}
	return s.ThreadsReady.PopFront()
}

func (s *Scheduler) nextProcessFair() *TCB {
	if s.last != nil {
		pcb := s.last
		s.last = nil
		// Requeue first so that reap always finds pcb on the roster it
		// removes from.
		s.Processes.PushBack(pcb)
		if pcb.Threads == 0 {
			s.reap(pcb)
		}
	}

	// Each live process is tried at most once per call: a process with an
	// empty ready list is cycled to the tail so later processes get their
	// turn, but once every process currently in the roster has been tried
	// and found empty, further ready lists won't appear without another
	// thread running first, so this is the deadlock/quiescence case.
	attempts := s.Processes.Len()
	for i := 0; i < attempts; i++ {
		pcb := s.Processes.PopFront()
		if pcb.Ready.Empty() {
			s.Processes.PushBack(pcb)
			continue
		}
		t := pcb.Ready.PopFront()
		s.last = pcb
		return t
	}
	return nil
}

// OnThreadDied must be called once a thread's death has decremented its
// PCB's thread count to zero. Thread-fair reaps immediately, since it has no
// equivalent of process-fair's deferred last-scheduled check.
func (s *Scheduler) OnThreadDied(pcb *PCB) {
	if pcb.Threads > 0 {
		return
	}
	if s.Policy == ThreadFair {
		s.reap(pcb)
	}
	// Process-fair: left for nextProcessFair's "on re-entry" check, since
	// the dying thread's PCB is always s.last in that policy.
}

// reap removes pcb from the live roster once it has no threads left. With
// infanticide enabled its descendants are purged too; otherwise pcb is
// deferred to the dead-process list and its descendants survive, orphaned.
func (s *Scheduler) reap(pcb *PCB) {
	s.Processes.Remove(pcb)
	if s.Infanticide {
		s.reapDescendants(pcb)
	} else {
		s.Dead.PushBack(pcb)
	}
}

// reapDescendants finds every live PCB forked from pcb and purges it,
// recursively, so a dying ancestor takes its whole subtree with it.
func (s *Scheduler) reapDescendants(pcb *PCB) {
	var children []*PCB
	s.Processes.Each(func(p *PCB) {
		if p.ParentPCB == pcb {
			children = append(children, p)
		}
	})
	for _, child := range children {
		s.purge(child)
	}
}

// purge forcibly removes a doomed process and every one of its threads,
// wherever they currently sit (its own ready list, the thread-fair ready
// queue, or the sleep list), then recurses into its own children.
func (s *Scheduler) purge(pcb *PCB) {
	s.Processes.Remove(pcb)
	pcb.Ready = TCBList{}
	s.ThreadsReady.RemoveAll(func(t *TCB) bool { return t.PCB == pcb })
	s.Sleeping.RemoveAll(func(t *TCB) bool { return t.PCB == pcb })
	s.reapDescendants(pcb)
}

// LiveProcesses reports how many processes have not yet been reaped, with or
// without infanticide: the live roster plus the process-fair policy's
// held-aside last PCB. Unlike a separately maintained counter, this can never
// drift out of sync with what infanticide actually purged, since it is read
// straight off the same list reap/purge remove from.
func (s *Scheduler) LiveProcesses() int {
	n := s.Processes.Len()
	if s.last != nil {
		n++
	}
	return n
}

// LiveThreads reports how many threads belong to a still-live process,
// wherever they currently sit (a PCB's own ready list, the thread-fair ready
// queue, asleep, or executing). PCB.Threads is decremented only when a
// thread actually dies, so summing it over exactly the unreaped processes
// leaves out every thread infanticide purged along with its process.
func (s *Scheduler) LiveThreads() int {
	total := 0
	s.Processes.Each(func(p *PCB) { total += p.Threads })
	if s.last != nil {
		total += s.last.Threads
	}
	return total
}

// Sleep moves the currently executing thread t onto the global sleep list.
// It is woken again only by WakeOne matching its current segment and data
// pointer.
func (s *Scheduler) Sleep(t *TCB) {
	s.Sleeping.PushBack(t)
}

// WakeOne finds the first sleeper (in FIFO order) bound to the given segment
// and data pointer, moves it back onto a ready queue, and reports whether it
// found one.
func (s *Scheduler) WakeOne(seg Memory, dp uint32) bool {
	t := s.Sleeping.Find(func(t *TCB) bool {
		return t.DP == dp && sameSegment(t.Segment(), seg)
	})
	if t == nil {
		return false
	}
	s.Sleeping.Remove(t)
	s.Enqueue(t)
	return true
}
