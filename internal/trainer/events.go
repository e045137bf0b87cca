package trainer

import (
	"github.com/park285/Cheese-opening-trainer/internal/chess"
	"github.com/park285/Cheese-opening-trainer/internal/repertoire"
)

type EventKind int

const (
	EventSessionStarted EventKind = iota
	EventVariationStarted
	EventMoveCommitted
	EventMoveJudged
	EventMoveRolledBack
	EventAwaitingUser
	EventHintShown
	EventVariationComplete
	EventDepthChanged
	EventSessionEnded
)

func (k EventKind) String() string {
	switch k {
	case EventSessionStarted:
		return "session_started"
	case EventVariationStarted:
		return "variation_started"
	case EventMoveCommitted:
		return "move_committed"
	case EventMoveJudged:
		return "move_judged"
	case EventMoveRolledBack:
		return "move_rolled_back"
	case EventAwaitingUser:
		return "awaiting_user"
	case EventHintShown:
		return "hint_shown"
	case EventVariationComplete:
		return "variation_complete"
	case EventDepthChanged:
		return "depth_changed"
	case EventSessionEnded:
		return "session_ended"
	}
	return "unknown"
}

type EndReason int

const (
	EndCompleted EndReason = iota
	EndStopped
	EndBroken
)

func (r EndReason) String() string {
	switch r {
	case EndStopped:
		return "stopped"
	case EndBroken:
		return "broken"
	}
	return "completed"
}

// Hint carries the highlighted squares. To is NoSquare after the first call.
type Hint struct {
	From chess.Square
	To   chess.Square
}

// Event is a single observable step of the trainer, consumed by the host.
type Event struct {
	Kind EventKind
	Node repertoire.NodeID

	// MoveCommitted
	Move chess.Record
	Cue  chess.Cue
	Bot  bool

	// MoveJudged
	Correct  bool
	Expected string

	Hint   Hint
	Status Status
	Reason EndReason
	Err    error
}
