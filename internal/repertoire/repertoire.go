package repertoire

import (
	"strings"

	"github.com/park285/Cheese-opening-trainer/internal/chess"
)

// TrainerType selects how training sessions are cut from the tree.
type TrainerType int

const (
	ByCompleteVariation TrainerType = iota
	ByMoveCount
	MarathonMode
	MarathonUnique
	EvolutionMode
)

var trainerTypeNames = []string{"ByCompleteVariation", "ByMoveCount", "MarathonMode", "MarathonUnique", "EvolutionMode"}

func (t TrainerType) String() string { return enumName(trainerTypeNames, int(t)) }

func ParseTrainerType(s string) (TrainerType, bool) {
	i, ok := enumIndex(trainerTypeNames, s)
	return TrainerType(i), ok
}

// StatsView selects which counters are shown for a node.
type StatsView int

const (
	ByMove StatsView = iota
	ByBranch
	ByVariation
)

var statsViewNames = []string{"ByMove", "ByBranch", "ByVariation"}

func (v StatsView) String() string { return enumName(statsViewNames, int(v)) }

func ParseStatsView(s string) (StatsView, bool) {
	i, ok := enumIndex(statsViewNames, s)
	return StatsView(i), ok
}

// TrainingMethod decides what happens to an imperfect variation.
type TrainingMethod int

const (
	RunOnce TrainingMethod = iota
	ReplayFailedMoves
	RepeatVariationOnFailed
)

var trainingMethodNames = []string{"RunOnce", "ReplayFailedMoves", "RepeatVariationOnFailed"}

func (m TrainingMethod) String() string { return enumName(trainingMethodNames, int(m)) }

func ParseTrainingMethod(s string) (TrainingMethod, bool) {
	i, ok := enumIndex(trainingMethodNames, s)
	return TrainingMethod(i), ok
}

func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return "Unknown"
	}
	return names[i]
}

// enumIndex matches names case-insensitively.
func enumIndex(names []string, s string) (int, bool) {
	s = strings.TrimSpace(s)
	for i, n := range names {
		if strings.EqualFold(n, s) {
			return i, true
		}
	}
	return 0, false
}

// Repertoire is a move tree plus the options used to train it.
type Repertoire struct {
	Color                 chess.Color
	Depth                 int
	DepthType             TrainerType
	Stats                 StatsView
	Method                TrainingMethod
	EvolutionAcceleration int
	Tree                  *Tree
}

// New returns an empty repertoire trained as White with no depth limit.
func New() *Repertoire {
	return &Repertoire{
		Color:                 chess.White,
		Depth:                 -1,
		DepthType:             ByCompleteVariation,
		Stats:                 ByMove,
		Method:                RunOnce,
		EvolutionAcceleration: 1,
		Tree:                  NewTree(),
	}
}

// Clone returns a deep copy.
func (r *Repertoire) Clone() *Repertoire {
	cp := *r
	cp.Tree = r.Tree.Clone()
	return &cp
}

// NodeStats returns the correct and guessed counts of id under the
// repertoire's stats view.
func (r *Repertoire) NodeStats(id NodeID) (correct, guessed int) {
	n := r.Tree.Node(id)
	if n == nil {
		return 0, 0
	}
	switch r.Stats {
	case ByBranch:
		return r.Tree.BranchStats(id)
	case ByVariation:
		return n.VariationTimesCorrect, n.VariationTimesGuessed
	}
	return n.TimesCorrect, n.TimesGuessed
}

// Trains reports whether the node is a move of the trained side.
func (r *Repertoire) Trains(id NodeID) bool {
	n := r.Tree.Node(id)
	return n != nil && id != Root && n.Color == r.Color
}
