package driver

import "time"

// Stage names a step of lowering a design.
type Stage string

const (
	// StageLoad reads and builds the design description.
	StageLoad Stage = "load"
	// StageLower runs the lvalue or rvalue query of one root.
	StageLower Stage = "lower"
	// StageValidate checks the lowered tree.
	StageValidate Stage = "validate"
)

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for one root (or for the whole design when Root is
// empty).
type Event struct {
	Root    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. OnEvent is called from worker
// goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

func emit(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}
