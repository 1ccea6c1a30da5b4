// Package machine implements the runtime: data memory, process/thread
// control blocks, the scheduler, and the instruction dispatcher that
// together execute a compiled lang.Program to quiescence.
package machine

import (
	"io"
	"math/rand"

	"brains/internal/lang"
)

// Quantum selects how runQuantum's per-call cost budget is chosen.
// Negative means "fresh pseudorandom budget in [1,128] every slice", zero
// means "run until the next yield/sleep/death/separator", positive is a
// fixed cost budget per slice.
type Quantum int

// Machine owns one compiled program's entire run: the shared instruction
// memory, the process-wide system memory, the scheduler, and the I/O the
// dispatcher reads and writes through.
type Machine struct {
	Program lang.Program
	System  Memory

	Scheduler *Scheduler

	Quantum     Quantum
	Debug       bool
	Infanticide bool

	// MaxThreads and MaxProcesses cap how many live threads/processes '&'
	// and '%' may create; zero means unbounded. Without some cap, a
	// runaway spawn loop has no way to ever report "no mem" the way a call
	// stack naturally does, so both primitives need one to exercise the
	// same "allocation failure restores the speculative cell" path the
	// spec calls for. The caps are checked against Scheduler.LiveThreads/
	// LiveProcesses rather than a counter this type maintains itself, so
	// that infanticide purging a subtree is automatically reflected here
	// too instead of needing its own separate bookkeeping to stay in sync.
	MaxThreads   int
	MaxProcesses int
	nextPID      int

	Stdout io.Writer
	Stderr io.Writer
	Input  io.Reader

	rng *rand.Rand
}

// Options configures a Machine independently of the program it will run.
type Options struct {
	Policy       Policy
	Quantum      Quantum
	Infanticide  bool
	Debug        bool
	MaxThreads   int
	MaxProcesses int
	Seed         int64
}

// New creates a Machine ready to run prog: system memory is zeroed and one
// big-bang process is created per entry point, per spec's per-file "zero
// system memory" driver step.
func New(prog lang.Program, opts Options, stdout io.Writer, stderr io.Writer, input io.Reader) *Machine {
	m := &Machine{
		Program:     prog,
		System:      NewMemory(),
		Scheduler:   NewScheduler(opts.Policy, opts.Infanticide),
		Quantum:     opts.Quantum,
		Debug:       opts.Debug,
		Infanticide: opts.Infanticide,
		MaxThreads:  opts.MaxThreads,
		MaxProcesses: opts.MaxProcesses,
		Stdout:      stdout,
		Stderr:      stderr,
		Input:       input,
		rng:         rand.New(rand.NewSource(opts.Seed)),
	}

	for _, entry := range prog.Entries {
		m.nextPID++
		pcb := NewBigBangPCB(m.nextPID, m.System)
		t := NewTCB(pcb, entry)
		m.Scheduler.AddProcess(pcb, t)
	}

	return m
}

// sliceBudget resolves this slice's cost budget from the configured
// quantum policy.
func (m *Machine) sliceBudget() int {
	switch {
	case m.Quantum < 0:
		return 1 + m.rng.Intn(128)
	case m.Quantum == 0:
		return 0
	default:
		return int(m.Quantum)
	}
}

// Run drives the scheduler until no thread is runnable: either every
// process has died, or every remaining thread is asleep with no '^' ever
// able to reach it (a silent deadlock, which is correct behavior here, not
// an error).
func (m *Machine) Run() {
	for {
		t := m.Scheduler.Next()
		if t == nil {
			return
		}

		switch m.runQuantum(t, m.sliceBudget()) {
		case OutcomeDied:
			// die() already updated bookkeeping; the TCB is simply dropped.
		case OutcomeSlept:
			// Scheduler.Sleep already placed it on the sleep list.
		case OutcomeReschedule:
			m.Scheduler.Enqueue(t)
		}
	}
}
