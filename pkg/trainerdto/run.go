package trainerdto

import "time"

type TrainingRun struct {
	ID         int64
	RunUUID    string
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
	Accuracy   int
	StartedAt  time.Time
	EndedAt    time.Time
	Duration   time.Duration
	LastLine   []string
}
