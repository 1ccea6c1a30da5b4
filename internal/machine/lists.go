package machine

// TCBList is an intrusive FIFO of thread control blocks: each TCB carries
// its own prev/next pointers, so membership transitions (ready -> sleeping
// -> executing) never allocate and a specific TCB can be spliced out of
// whichever list currently holds it in O(1), which infanticide needs.
type TCBList struct {
	head, tail *TCB
	size       int
}

// PushBack appends t at the tail. t must not already belong to a list.
func (l *TCBList) PushBack(t *TCB) {
	t.listPrev, t.listNext = nil, nil
	if l.tail == nil {
		l.head, l.tail = t, t
	} else {
		l.tail.listNext = t
		t.listPrev = l.tail
		l.tail = t
	}
	l.size++
}

// PopFront removes and returns the head, or nil if the list is empty.
func (l *TCBList) PopFront() *TCB {
	t := l.head
	if t == nil {
		return nil
	}
	l.Remove(t)
	return t
}

// Remove splices t out of the list. t must currently belong to this list.
func (l *TCBList) Remove(t *TCB) {
	if t.listPrev != nil {
		t.listPrev.listNext = t.listNext
	} else {
		l.head = t.listNext
	}
	if t.listNext != nil {
		t.listNext.listPrev = t.listPrev
	} else {
		l.tail = t.listPrev
	}
	t.listPrev, t.listNext = nil, nil
	l.size--
}

// Find returns the first TCB (in FIFO order) satisfying pred, without
// removing it, or nil if none match.
func (l *TCBList) Find(pred func(*TCB) bool) *TCB {
	for t := l.head; t != nil; t = t.listNext {
		if pred(t) {
			return t
		}
	}
	return nil
}

// RemoveAll splices out every TCB matching pred, wherever it sits in the
// list. Used by infanticide to purge a doomed process's threads out of
// whatever global list (ready or sleeping) currently holds them.
func (l *TCBList) RemoveAll(pred func(*TCB) bool) {
	var next *TCB
	for t := l.head; t != nil; t = next {
		next = t.listNext
		if pred(t) {
			l.Remove(t)
		}
	}
}

func (l *TCBList) Len() int    { return l.size }
func (l *TCBList) Empty() bool { return l.size == 0 }

// PCBList is the same intrusive-FIFO idiom, one level up: the live process
// roster and the deferred dead-process list.
type PCBList struct {
	head, tail *PCB
	size       int
}

func (l *PCBList) PushBack(p *PCB) {
	p.pcbPrev, p.pcbNext = nil, nil
	if l.tail == nil {
		l.head, l.tail = p, p
	} else {
		l.tail.pcbNext = p
		p.pcbPrev = l.tail
		l.tail = p
	}
	l.size++
}

func (l *PCBList) PopFront() *PCB {
	p := l.head
	if p == nil {
		return nil
	}
	l.Remove(p)
	return p
}

func (l *PCBList) Remove(p *PCB) {
	if p.pcbPrev != nil {
		p.pcbPrev.pcbNext = p.pcbNext
	} else {
		l.head = p.pcbNext
	}
	if p.pcbNext != nil {
		p.pcbNext.pcbPrev = p.pcbPrev
	} else {
		l.tail = p.pcbPrev
	}
	p.pcbPrev, p.pcbNext = nil, nil
	l.size--
}

// Each walks every PCB currently in the list, head to tail. fn must not
// mutate this list's membership while iterating; collect a slice first if
// it needs to remove entries.
func (l *PCBList) Each(fn func(*PCB)) {
	for p := l.head; p != nil; p = p.pcbNext {
		fn(p)
	}
}

func (l *PCBList) Len() int    { return l.size }
func (l *PCBList) Empty() bool { return l.size == 0 }
