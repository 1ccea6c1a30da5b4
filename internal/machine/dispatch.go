package machine

import (
	"fmt"

	"brains/internal/lang"
)

// Outcome reports why runQuantum returned control to the scheduler loop.
type Outcome int

const (
	// OutcomeReschedule means the thread is still alive and should go back
	// onto a ready queue: its quantum ran out, or it yielded explicitly.
	OutcomeReschedule Outcome = iota
	// OutcomeDied means the thread terminated (stack underflow on return,
	// or reaching the end-of-segment separator) and its PCB's thread count
	// has already been decremented.
	OutcomeDied
	// OutcomeSlept means the thread blocked on '_' and has already been
	// moved onto the scheduler's sleep list.
	OutcomeSlept
)

// die tears down a terminated thread's bookkeeping: it is the common path
// for stack-underflow on ';'/'$' and for running off the end of a segment
// via '@'.
func (m *Machine) die(t *TCB) Outcome {
	t.PCB.Threads--
	m.Scheduler.OnThreadDied(t.PCB)
	return OutcomeDied
}

// runQuantum executes t for up to budget cost units (budget <= 0 means "run
// until the next yield, sleep, death, or separator, however long that
// takes"), returning why it stopped. Cost itself resets to 1 at the start of
// every call and is only ever overridden by '=' for the rest of this one
// quantum, per spec's "for the rest of this quantum" wording.
func (m *Machine) runQuantum(t *TCB, budget int) Outcome {
	prog := m.Program.Words
	cost := 1
	spent := 0

	for {
		if budget > 0 && spent >= budget {
			return OutcomeReschedule
		}
		if int(t.PC) >= len(prog) {
			// A well-formed compiled segment always ends in a trailing
			// separator, so this only happens if execution ran off the end
			// some other way; treat it the same as hitting one.
			return m.die(t)
		}

		w := prog[t.PC]
		op := w.Op()
		n := w.Payload()
		t.PC++

		useCost := cost
		var result Outcome
		finished := false

		switch op {
		case lang.OpAdd:
			seg := t.Segment()
			seg[t.DP] = byte(uint32(seg[t.DP]) + n)
		case lang.OpSub:
			seg := t.Segment()
			seg[t.DP] = byte(uint32(seg[t.DP]) - n)
		case lang.OpRight:
			t.DP = (t.DP + n) & DMask
		case lang.OpLeft:
			t.DP = (t.DP - n) & DMask

		case lang.OpOutput:
			b := t.cell()
			for i := uint32(0); i < n; i++ {
				m.Stdout.Write([]byte{b})
			}
		case lang.OpInput:
			seg := t.Segment()
			var buf [1]byte
			for i := uint32(0); i < n; i++ {
				if _, err := m.Input.Read(buf[:]); err != nil {
					break
				}
				seg[t.DP] = buf[0]
			}

		case lang.OpLoop:
			if t.cell() == 0 {
				t.PC += n
			}
		case lang.OpEndLoop:
			if t.cell() != 0 {
				t.PC -= n
			}
		case lang.OpUntil:
			if t.cell() != 0 {
				t.PC += n
			}
		case lang.OpEndUntil:
			if t.cell() == 0 {
				t.PC -= n
			}

		case lang.OpIf:
			if t.cell() == 0 {
				t.PC += n
			}
		case lang.OpElse:
			t.PC += n
		case lang.OpEndIf:
			// no-op

		case lang.OpClear:
			t.setCell(0)

		case lang.OpProc:
			name, disp := lang.DecodeProcHeader(n)
			if idx, ok := lang.ProcIndex(name); ok {
				t.Procs[idx] = int32(t.PC)
			}
			t.PC += disp

		case lang.OpReturn:
			if addr, ok := t.pop(); ok {
				t.PC = addr
			} else {
				result, finished = m.die(t), true
			}

		case lang.OpYield:
			result, finished = OutcomeReschedule, true

		case lang.OpSeparate:
			result, finished = m.die(t), true

		case lang.OpCost:
			cost = int(n)

		case lang.OpSemUp:
			seg := t.Segment()
			t.setCell(byte(uint32(t.cell()) + n))
			for i := uint32(0); i < n; i++ {
				m.Scheduler.WakeOne(seg, t.DP)
			}

		case lang.OpSemDown:
			if uint32(t.cell()) < n {
				t.PC--
				m.Scheduler.Sleep(t)
				result, finished = OutcomeSlept, true
			} else {
				t.setCell(byte(uint32(t.cell()) - n))
			}

		case lang.OpSwap:
			if len(t.PCB.ParentMem) > 0 {
				t.OnParent = !t.OnParent
			}

		case lang.OpSpawn:
			m.spawn(t)

		case lang.OpFork:
			m.fork(t)

		case lang.OpTrace:
			useCost = 0
			if m.Debug {
				fmt.Fprintf(m.Stderr, "pc=%d dp=%d cell=%d proc=%d\n", t.PC-1, t.DP, t.cell(), t.PCB.ID)
			}

		default:
			useCost = m.call(t, op)
		}

		spent += useCost
		if finished {
			return result
		}
	}
}

// call performs the "anything else is a procedure invocation" dispatch row
// and reports the cost the instruction should be charged (zero if the
// identifier has no bound procedure).
func (m *Machine) call(t *TCB, op lang.Op) int {
	idx, ok := lang.ProcIndex(byte(op))
	if !ok {
		// Not a recognized token at all; the compiler never emits these, but
		// an unrecognized byte costs nothing rather than crashing the run.
		return 0
	}
	addr := t.Procs[idx]
	if addr < 0 {
		return 0
	}

	if int(t.PC) < len(m.Program.Words) && m.Program.Words[t.PC].Op() == lang.OpReturn {
		// Tail call: the caller's own frame is about to return anyway, so
		// jump straight there instead of growing the stack.
		t.PC = uint32(addr)
		return 1
	}

	if t.SP == 0 {
		fmt.Fprintln(m.Stderr, ErrNoMemForCall)
		return 1
	}

	t.push(t.PC)
	t.PC = uint32(addr)
	return 1
}

// spawn implements '&': a new thread in the same process, sharing the
// caller's current segment, with dp advanced by one past the caller's.
func (m *Machine) spawn(t *TCB) {
	seg := t.Segment()
	t.setCell(0)
	ndp := (t.DP + 1) & DMask
	seg[ndp] = 1

	if m.MaxThreads > 0 && m.Scheduler.LiveThreads() >= m.MaxThreads {
		seg[ndp] = 0
		return
	}

	child := &TCB{
		PCB:      t.PCB,
		Procs:    t.Procs,
		PC:       t.PC,
		DP:       ndp,
		OnParent: t.OnParent,
		Stack:    t.Stack,
		SP:       t.SP,
	}
	t.PCB.Threads++
	m.Scheduler.Enqueue(child)
}

// fork implements '%': a new process whose private memory is a copy of the
// forking thread's current segment, with parent memory pointing at the
// forking process's own memory.
func (m *Machine) fork(t *TCB) {
	seg := t.Segment()
	t.setCell(0)
	ndp := (t.DP + 1) & DMask
	seg[ndp] = 1

	if m.MaxProcesses > 0 && m.Scheduler.LiveProcesses() >= m.MaxProcesses {
		seg[ndp] = 0
		return
	}

	m.nextPID++
	own := seg.Clone()
	childPCB := NewForkedPCB(m.nextPID, t.PCB, own)

	child := &TCB{
		PCB: childPCB,
		// A forked child starts out viewing its own freshly copied memory,
		// not its parent's, regardless of which segment the forking thread
		// had selected.
		OnParent: false,
		Procs:    t.Procs,
		PC:       t.PC,
		DP:       ndp,
		Stack:    t.Stack,
		SP:       t.SP,
	}
	m.Scheduler.AddProcess(childPCB, child)
}
