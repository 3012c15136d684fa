package pipeline

import (
	"errors"
	"fmt"

	"github.com/gardar/gridocr/pkg/export"
	"github.com/gardar/gridocr/pkg/raster"
)

// ErrInvalidTransition is returned by Reduce for events the current phase
// does not accept.
var ErrInvalidTransition = errors.New("pipeline: invalid state transition")

// Phase is where the front end is in its Idle -> FileSelected -> Processing
// -> Succeeded|Failed -> Idle cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFileSelected
	PhaseProcessing
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFileSelected:
		return "file selected"
	case PhaseProcessing:
		return "processing"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is everything the front end shows. Range and Format survive a Reset
// so repeated runs keep the user's choices.
type State struct {
	Phase  Phase
	Input  string
	Range  raster.PageRange
	Format export.Format
	Output string // Written file, after success
	Err    error  // Cause, after failure
}

// NewState is the idle state with every page selected and text output.
func NewState() State {
	return State{Phase: PhaseIdle, Range: raster.AllPages, Format: export.FormatText}
}

// Event is something the user or the running job did.
type Event interface {
	event()
}

type (
	SelectFile      struct{ Path string }
	ChooseRange     struct{ Range raster.PageRange }
	ChooseFormat    struct{ Format export.Format }
	StartProcessing struct{}
	Finish          struct{ Output string }
	Fail            struct{ Err error }
	Reset           struct{}
)

func (SelectFile) event()      {}
func (ChooseRange) event()     {}
func (ChooseFormat) event()    {}
func (StartProcessing) event() {}
func (Finish) event()          {}
func (Fail) event()            {}
func (Reset) event()           {}

// Reduce applies ev to s. On ErrInvalidTransition s is returned unchanged.
func Reduce(s State, ev Event) (State, error) {
	invalid := func() (State, error) {
		return s, fmt.Errorf("%w: %T in %s", ErrInvalidTransition, ev, s.Phase)
	}
	editable := s.Phase == PhaseIdle || s.Phase == PhaseFileSelected

	switch e := ev.(type) {
	case SelectFile:
		if !editable || e.Path == "" {
			return invalid()
		}
		s.Phase = PhaseFileSelected
		s.Input = e.Path
	case ChooseRange:
		if !editable {
			return invalid()
		}
		s.Range = e.Range
	case ChooseFormat:
		if !editable {
			return invalid()
		}
		s.Format = e.Format
	case StartProcessing:
		if s.Phase != PhaseFileSelected {
			return invalid()
		}
		s.Phase = PhaseProcessing
	case Finish:
		if s.Phase != PhaseProcessing {
			return invalid()
		}
		s.Phase = PhaseSucceeded
		s.Output = e.Output
	case Fail:
		if s.Phase != PhaseProcessing && s.Phase != PhaseFileSelected {
			return invalid()
		}
		s.Phase = PhaseFailed
		s.Err = e.Err
	case Reset:
		if s.Phase == PhaseProcessing {
			return invalid()
		}
		s = State{Phase: PhaseIdle, Range: s.Range, Format: s.Format}
	default:
		return invalid()
	}
	return s, nil
}
