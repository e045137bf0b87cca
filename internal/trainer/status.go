package trainer

import (
	"fmt"
	"strings"

	"github.com/park285/Cheese-opening-trainer/internal/repertoire"
)

type State int

const (
	Idle State = iota
	SessionBuilding
	AwaitingUserMove
	AwaitingBotMove
	VariationComplete
)

func (s State) String() string {
	switch s {
	case SessionBuilding:
		return "session_building"
	case AwaitingUserMove:
		return "awaiting_user_move"
	case AwaitingBotMove:
		return "awaiting_bot_move"
	case VariationComplete:
		return "variation_complete"
	}
	return "idle"
}

// RunStats accumulates over a whole training run.
type RunStats struct {
	Variations int
	Perfect    int
	Guessed    int
	Correct    int
	Hints      int
}

// Status is a snapshot of the trainer for display.
type Status struct {
	State  State
	Mode   repertoire.TrainerType
	Method repertoire.TrainingMethod

	// Index is 1-based.
	Index  int
	Total  int
	Failed int

	Cursor  int
	Length  int
	Perfect bool

	MarathonDepth int
	Redos         int

	Stats RunStats
}

// String renders the progress lines shown under the board.
func (s Status) String() string {
	var lines []string
	switch s.Mode {
	case repertoire.MarathonMode, repertoire.MarathonUnique:
		lines = append(lines, fmt.Sprintf("Marathon Depth %d", s.MarathonDepth))
	case repertoire.EvolutionMode:
		lines = append(lines, fmt.Sprintf("Redos %d", s.Redos), fmt.Sprintf("Current Depth %d", s.Length))
	}
	lines = append(lines, fmt.Sprintf("Variation %d / %d", s.Index, s.Total))
	return strings.Join(lines, "\n")
}
