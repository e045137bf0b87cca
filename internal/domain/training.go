package domain

import "time"

// TrainingRun is one finished training session.
type TrainingRun struct {
	ID         int64
	RunUUID    string
	PlayerHash string
	RoomHash   string
	Repertoire string
	Color      string
	Mode       string
	Method     string
	Result     string
	Variations int
	Perfect    int
	Guessed    int
	Correct    int
	Hints      int
	StartedAt  time.Time
	EndedAt    time.Time
	Duration   time.Duration
	LastLine   []string
}

// Accuracy is Correct/Guessed in percent; 0 when nothing was guessed.
func (r *TrainingRun) Accuracy() int {
	if r == nil || r.Guessed == 0 {
		return 0
	}
	return r.Correct * 100 / r.Guessed
}

// RepertoireInfo describes a stored repertoire without its tree.
type RepertoireInfo struct {
	Name      string
	Color     string
	Nodes     int
	Lines     int
	UpdatedAt time.Time
}
