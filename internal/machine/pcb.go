package machine

// PCB is a process control block: the identity of one process, which may
// own several cooperatively scheduled threads.
//
// ParentPCB is a non-owning reference to the process that forked this one
// (nil for a big-bang process born directly from an '@'-delimited source
// segment). It exists purely for infanticide's descendant walk; the
// dispatcher never follows it directly, because '~' operates on memory
// segments (ParentMem/Own), not on the process tree.
type PCB struct {
	ID int

	ParentPCB *PCB
	ParentMem Memory
	Own       Memory

	Ready   TCBList
	Threads int

	pcbPrev, pcbNext *PCB
}

// NewBigBangPCB creates the process for one '@'-delimited segment. Its
// parent memory aliases system memory directly, so that two independent
// big-bang processes '~'-swapped onto it observe each other's writes.
func NewBigBangPCB(id int, system Memory) *PCB {
	return &PCB{
		ID:        id,
		ParentMem: system,
		Own:       NewMemory(),
	}
}

// NewForkedPCB creates the child process for a '%' fork. own is the
// byte-for-byte copy of the forking thread's current segment; parentPCB is
// the forking process.
func NewForkedPCB(id int, parentPCB *PCB, own Memory) *PCB {
	return &PCB{
		ID:        id,
		ParentPCB: parentPCB,
		ParentMem: parentPCB.Own,
		Own:       own,
	}
}
