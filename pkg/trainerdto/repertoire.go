package trainerdto

import "time"

type RepertoireSummary struct {
	Name      string
	Color     string
	Nodes     int
	Lines     int
	UpdatedAt time.Time
}

type Child struct {
	Notation string
	Correct  int
	Guessed  int
	Trained  bool
	Lines    int
}

// Node is a selected position of a repertoire tree with its continuations.
type Node struct {
	Repertoire string
	Stats      string
	Line       []string
	ECOCode    string
	ECOTitle   string
	Correct    int
	Guessed    int
	Children   []Child
}

type RepertoireOptions struct {
	Name   string
	Color  string
	Depth  int
	Mode   string
	Method string
	Stats  string
	Accel  int
}
