package mir

import (
	"fmt"
	"sync"

	"fortio.org/safecast"
)

// Arena owns every MIR node built in a session. It only grows; ids are
// assigned in allocation order starting at 1.
type Arena struct {
	mu       sync.Mutex
	lvalues  []*Lvalue
	rvalues  []*Rvalue
	nextNode uint32
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

func (a *Arena) allocIDLocked() NodeID {
	next, err := safecast.Conv[uint32](uint64(a.nextNode) + 1)
	if err != nil {
		panic(fmt.Errorf("mir: node id overflow: %w", err))
	}
	a.nextNode = next
	return NodeID(next)
}

// AllocLvalue stores a copy of l under a fresh id.
func (a *Arena) AllocLvalue(l Lvalue) *Lvalue {
	a.mu.Lock()
	defer a.mu.Unlock()
	l.ID = a.allocIDLocked()
	p := &l
	a.lvalues = append(a.lvalues, p)
	return p
}

// AllocRvalue stores a copy of r under a fresh id.
func (a *Arena) AllocRvalue(r Rvalue) *Rvalue {
	a.mu.Lock()
	defer a.mu.Unlock()
	r.ID = a.allocIDLocked()
	p := &r
	a.rvalues = append(a.rvalues, p)
	return p
}

// Len returns the number of lvalues and rvalues allocated so far.
func (a *Arena) Len() (lvalues, rvalues int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.lvalues), len(a.rvalues)
}
