package driver

import (
	"time"

	"svir/internal/observ"
)

// PhaseStatus reports whether a phase started or finished.
type PhaseStatus int

const (
	// PhaseStart indicates that a phase has begun.
	PhaseStart PhaseStatus = iota
	PhaseEnd
)

// PhaseEvent describes a timing phase boundary.
type PhaseEvent struct {
	Name    string
	Status  PhaseStatus
	Elapsed time.Duration
}

// PhaseObserver receives phase events emitted during LowerDesign.
type PhaseObserver func(PhaseEvent)

// phases pairs the timer with the optional observer.
type phases struct {
	timer    *observ.Timer
	observer PhaseObserver
}

func (p phases) begin(name string) int {
	idx := p.timer.Begin(name)
	if p.observer != nil {
		p.observer(PhaseEvent{Name: name, Status: PhaseStart})
	}
	return idx
}

func (p phases) end(idx int, note string) {
	p.timer.End(idx, note)
	if p.observer == nil {
		return
	}
	ph, ok := p.timer.Phase(idx)
	if !ok {
		return
	}
	p.observer(PhaseEvent{Name: ph.Name, Status: PhaseEnd, Elapsed: ph.Dur})
}
