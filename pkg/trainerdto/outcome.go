package trainerdto

// Feedback is one trainer event flattened for rendering.
type Feedback struct {
	Kind     string
	SAN      string
	Cue      string
	Bot      bool
	Correct  bool
	Expected string
	HintFrom string
	HintTo   string
	Reason   string
	Perfect  bool
	Depth    int
}

type Progress struct {
	State         string
	Mode          string
	Method        string
	Index         int
	Total         int
	Failed        int
	Cursor        int
	Length        int
	MarathonDepth int
	Redos         int
	Summary       string
}

type Outcome struct {
	Room       string
	Repertoire string
	Color      string
	Feedback   []Feedback
	Progress   Progress
	FEN        string
	Line       []string
	Ended      bool
	Result     string
	Run        *TrainingRun
}
