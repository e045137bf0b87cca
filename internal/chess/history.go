package chess

// Record is one played move as it appears in the history.
type Record struct {
	Kind      Kind
	Color     Color
	From      Square
	To        Square
	Capture   bool
	Check     bool
	Castle    bool
	Promotion Kind
	// ByFile and ByRank name the origin coordinates notation needs to tell
	// this move apart from another piece of the same kind.
	ByFile bool
	ByRank bool
	// FEN is the position after the move.
	FEN string
}

// Cue is the single feedback category of a committed move.
type Cue uint8

const (
	CueMove Cue = iota
	CueCapture
	CueCastle
	CueCheck
	CuePromotion
)

func (c Cue) String() string {
	switch c {
	case CueCapture:
		return "capture"
	case CueCastle:
		return "castle"
	case CueCheck:
		return "check"
	case CuePromotion:
		return "promotion"
	}
	return "move"
}

// Cue picks the feedback for the move; check wins over castle, then
// capture, then promotion.
func (r Record) Cue() Cue {
	switch {
	case r.Check:
		return CueCheck
	case r.Castle:
		return CueCastle
	case r.Capture:
		return CueCapture
	case r.Promotion != NoKind:
		return CuePromotion
	}
	return CueMove
}

// UCI renders the move in coordinate form, e.g. "e7e8q".
func (r Record) UCI() string {
	s := r.From.String() + r.To.String()
	if r.Promotion != NoKind {
		s += string(r.Promotion.Letter() + ('a' - 'A'))
	}
	return s
}

// PlyPair groups a White move with the Black reply. White is nil when the
// history started with Black to move.
type PlyPair struct {
	Number int
	White  *Record
	Black  *Record
}

type history struct {
	start   string
	entries []Record
	cursor  int
}

// push drops any entries after the cursor before appending.
func (h *history) push(r Record) {
	h.entries = append(h.entries[:h.cursor], r)
	h.cursor++
}

func (h *history) fenAt(ply int) string {
	if ply == 0 {
		return h.start
	}
	return h.entries[ply-1].FEN
}

// StartFEN is the position the history starts from.
func (b *Board) StartFEN() string { return b.hist.start }

// Ply is the number of history entries in effect for the current position.
func (b *Board) Ply() int { return b.hist.cursor }

// HistoryLen counts every recorded entry, including ones stepped back over.
func (b *Board) HistoryLen() int { return len(b.hist.entries) }

// Records returns the entries up to the current position.
func (b *Board) Records() []Record {
	return append([]Record(nil), b.hist.entries[:b.hist.cursor]...)
}

// Last returns the most recent entry in effect.
func (b *Board) Last() (Record, bool) {
	if b.hist.cursor == 0 {
		return Record{}, false
	}
	return b.hist.entries[b.hist.cursor-1], true
}

// Moves returns the notation of the moves leading to the current position.
func (b *Board) Moves() []string {
	out := make([]string, 0, b.hist.cursor)
	for _, r := range b.hist.entries[:b.hist.cursor] {
		out = append(out, r.SAN())
	}
	return out
}

// Plies groups the entries up to the current position by move number.
func (b *Board) Plies() []PlyPair {
	var out []PlyPair
	entries := b.Records()
	for i := range entries {
		r := &entries[i]
		if r.Color == White || len(out) == 0 || out[len(out)-1].Black != nil {
			out = append(out, PlyPair{Number: len(out) + 1})
		}
		pair := &out[len(out)-1]
		if r.Color == White {
			pair.White = r
		} else {
			pair.Black = r
		}
	}
	return out
}

// StepBack moves the position one ply back without discarding the entry.
func (b *Board) StepBack() error {
	if b.hist.cursor == 0 {
		return ErrNoHistory
	}
	return b.GoTo(b.hist.cursor - 1)
}

// StepForward replays the next recorded entry.
func (b *Board) StepForward() error {
	if b.hist.cursor >= len(b.hist.entries) {
		return ErrNoHistory
	}
	return b.GoTo(b.hist.cursor + 1)
}

// GoTo restores the position after ply moves from its stored FEN.
func (b *Board) GoTo(ply int) error {
	if ply < 0 || ply > len(b.hist.entries) {
		return ErrNoHistory
	}
	pos, err := parseFEN(b.hist.fenAt(ply))
	if err != nil {
		return err
	}
	b.position = pos
	b.hist.cursor = ply
	return nil
}

// RemoveLast discards the latest entry in effect, and anything after it, and
// restores the position before it.
func (b *Board) RemoveLast() error {
	if b.hist.cursor == 0 {
		return ErrNoHistory
	}
	ply := b.hist.cursor - 1
	if err := b.GoTo(ply); err != nil {
		return err
	}
	b.hist.entries = b.hist.entries[:ply]
	return nil
}
