// Package trainer drills the lines of a repertoire: it builds sessions of
// variations, plays the opponent's moves after a delay and judges the
// trainee's moves against the tree.
package trainer

import (
	"errors"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/Cheese-opening-trainer/internal/chess"
	"github.com/park285/Cheese-opening-trainer/internal/repertoire"
)

const DefaultBotDelay = 250 * time.Millisecond

var (
	ErrNoVariations         = errors.New("trainer: no variations to train")
	ErrNotTraining          = errors.New("trainer: no training session")
	ErrTraining             = errors.New("trainer: training already running")
	ErrNotUserTurn          = errors.New("trainer: not waiting for a trainee move")
	ErrVariationNotComplete = errors.New("trainer: variation still in progress")
)

type Options struct {
	BotDelay time.Duration
	// AutoAdvance starts the next variation as soon as one completes instead
	// of waiting for Next.
	AutoAdvance bool
	Rand        *rand.Rand
	Logger      *zap.Logger
}

// Session is the queue of one build.
type Session struct {
	Variations []*Variation
	Failed     []*Variation
	Index      int
	Current    *Variation
}

// Trainer runs one training session over a repertoire. It is driven by
// explicit calls and is not safe for concurrent use.
type Trainer struct {
	rep    *repertoire.Repertoire
	opts   Options
	log    *zap.Logger
	rng    *rand.Rand
	board  *chess.Board
	policy policy

	from     repertoire.NodeID
	state    State
	session  *Session
	deadline time.Time
	hints    int
	stats    RunStats
}

func New(rep *repertoire.Repertoire, opts Options) *Trainer {
	if opts.BotDelay < 0 {
		opts.BotDelay = 0
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Trainer{rep: rep, opts: opts, log: log, rng: rng, board: chess.NewBoard(), from: repertoire.Root}
}

func (t *Trainer) State() State                       { return t.state }
func (t *Trainer) Repertoire() *repertoire.Repertoire { return t.rep }
func (t *Trainer) Stats() RunStats                    { return t.stats }
func (t *Trainer) Session() *Session                  { return t.session }

// Board is the live training board. Callers must not mutate it.
func (t *Trainer) Board() *chess.Board { return t.board }

// Deadline is when the pending bot move becomes due.
func (t *Trainer) Deadline() (time.Time, bool) {
	return t.deadline, t.state == AwaitingBotMove
}

// Expected returns the node the current variation expects next.
func (t *Trainer) Expected() (repertoire.NodeID, bool) {
	if t.session == nil || t.session.Current == nil {
		return repertoire.NoNode, false
	}
	v := t.session.Current
	if v.Cursor >= len(v.Moves) {
		return repertoire.NoNode, false
	}
	return v.Moves[v.Cursor], true
}

func (t *Trainer) Status() Status {
	s := Status{
		State:  t.state,
		Mode:   t.rep.DepthType,
		Method: t.rep.Method,
		Stats:  t.stats,
	}
	if t.session != nil {
		s.Index = t.session.Index + 1
		s.Total = len(t.session.Variations)
		s.Failed = len(t.session.Failed)
		if v := t.session.Current; v != nil {
			s.Cursor = v.Cursor
			s.Length = len(v.Moves)
			s.Perfect = v.WasPerfect
		}
	}
	if t.policy != nil {
		t.policy.describe(&s)
	}
	return s
}

// Start builds a session below from (the root when NoNode) and plays up to
// the first trainee move or bot deadline.
func (t *Trainer) Start(now time.Time, from repertoire.NodeID) ([]Event, error) {
	if t.state != Idle {
		return nil, ErrTraining
	}
	if from == repertoire.NoNode {
		from = repertoire.Root
	}
	if t.rep.Tree.Node(from) == nil {
		return nil, repertoire.ErrNoNode
	}
	t.state = SessionBuilding
	t.from = from
	t.stats = RunStats{}
	t.policy = newPolicy(t.rep)
	t.policy.setup()

	vs := t.policy.build(from)
	if len(vs) == 0 {
		t.state = Idle
		t.policy = nil
		return nil, ErrNoVariations
	}
	t.newSession(vs)
	t.log.Info("trainer_session_start",
		zap.String("mode", t.rep.DepthType.String()),
		zap.String("method", t.rep.Method.String()),
		zap.Int("variations", len(vs)),
	)

	events := []Event{{Kind: EventSessionStarted, Node: from, Status: t.Status()}}
	return append(events, t.setVariation(now)...), nil
}

// Stop ends the session and drops any pending bot move.
func (t *Trainer) Stop() []Event {
	if t.state == Idle {
		return nil
	}
	return t.end(EndStopped, nil)
}

func (t *Trainer) end(reason EndReason, err error) []Event {
	status := t.Status()
	status.State = Idle
	t.state = Idle
	t.deadline = time.Time{}
	t.session = nil
	t.hints = 0
	t.log.Info("trainer_session_end",
		zap.String("reason", reason.String()),
		zap.Int("variations", t.stats.Variations),
		zap.Int("perfect", t.stats.Perfect),
		zap.Error(err),
	)
	return []Event{{Kind: EventSessionEnded, Reason: reason, Status: status, Err: err}}
}

func (t *Trainer) newSession(vs []*Variation) {
	t.rng.Shuffle(len(vs), func(i, j int) { vs[i], vs[j] = vs[j], vs[i] })
	t.session = &Session{Variations: vs}
}

func (t *Trainer) setVariation(now time.Time) []Event {
	s := t.session
	s.Current = s.Variations[s.Index]
	s.Current.WasPerfect = true
	s.Current.Cursor = 0
	t.hints = 0
	t.board.Reset()
	events := []Event{{Kind: EventVariationStarted, Node: s.Current.last(), Status: t.Status()}}
	return append(events, t.advance(now)...)
}

// advance moves to the state implied by the cursor and the side to move.
func (t *Trainer) advance(now time.Time) []Event {
	v := t.session.Current
	if v.Cursor >= len(v.Moves) {
		t.state = VariationComplete
		t.deadline = time.Time{}
		events := []Event{{Kind: EventVariationComplete, Node: v.last(), Status: t.Status()}}
		if t.opts.AutoAdvance {
			events = append(events, t.nextVariation(now)...)
		}
		return events
	}
	if t.board.Turn() == t.rep.Color {
		t.state = AwaitingUserMove
		t.deadline = time.Time{}
		return []Event{{Kind: EventAwaitingUser, Node: v.Moves[v.Cursor], Status: t.Status()}}
	}
	t.state = AwaitingBotMove
	t.deadline = now.Add(t.opts.BotDelay)
	return nil
}

// Tick plays the pending bot move once its deadline has passed.
func (t *Trainer) Tick(now time.Time) []Event {
	if t.state != AwaitingBotMove || now.Before(t.deadline) {
		return nil
	}
	v := t.session.Current
	id := v.Moves[v.Cursor]
	node := t.rep.Tree.Node(id)
	rec, err := t.board.ApplySAN(node.Notation)
	if err != nil {
		t.log.Error("trainer_bot_move_invalid", zap.String("notation", node.Notation), zap.Error(err))
		return t.end(EndBroken, err)
	}
	v.Cursor++
	events := []Event{{Kind: EventMoveCommitted, Node: id, Move: rec, Cue: rec.Cue(), Bot: true}}
	return append(events, t.advance(now)...)
}

// UserMove judges a trainee move given by squares. An illegal move is
// rejected with no effect on counters.
func (t *Trainer) UserMove(now time.Time, from, to chess.Square, promo chess.Kind) ([]Event, error) {
	if err := t.userTurn(); err != nil {
		return nil, err
	}
	rec, err := t.board.ApplyMove(from, to, promo)
	if err != nil {
		return nil, err
	}
	return t.judge(now, rec), nil
}

// UserMoveText accepts algebraic or coordinate notation.
func (t *Trainer) UserMoveText(now time.Time, text string) ([]Event, error) {
	if err := t.userTurn(); err != nil {
		return nil, err
	}
	m, promo, err := t.board.Resolve(text)
	if err != nil {
		from, to, p, uerr := chess.ParseUCI(text)
		if uerr != nil {
			return nil, err
		}
		return t.UserMove(now, from, to, p)
	}
	return t.UserMove(now, m.From, m.To, promo)
}

func (t *Trainer) userTurn() error {
	switch t.state {
	case Idle:
		return ErrNotTraining
	case AwaitingUserMove:
		return nil
	}
	return ErrNotUserTurn
}

func sameMove(a, b string) bool {
	return strings.TrimRight(a, "+#!?") == strings.TrimRight(b, "+#!?")
}

func (t *Trainer) judge(now time.Time, rec chess.Record) []Event {
	t.hints = 0
	v := t.session.Current
	id := v.Moves[v.Cursor]
	node := t.rep.Tree.Node(id)
	node.TimesGuessed++
	t.stats.Guessed++

	events := []Event{{Kind: EventMoveCommitted, Node: id, Move: rec, Cue: rec.Cue()}}
	if sameMove(rec.SAN(), node.Notation) {
		node.TimesCorrect++
		t.stats.Correct++
		v.Cursor++
		events = append(events, Event{Kind: EventMoveJudged, Node: id, Move: rec, Correct: true, Expected: node.Notation})
		return append(events, t.advance(now)...)
	}

	t.markFailure()
	events = append(events, Event{Kind: EventMoveJudged, Node: id, Move: rec, Expected: node.Notation})
	if err := t.board.RemoveLast(); err != nil {
		t.log.Error("trainer_rollback_failed", zap.Error(err))
		return append(events, t.end(EndBroken, err)...)
	}
	events = append(events, Event{Kind: EventMoveRolledBack, Node: id, Move: rec, Status: t.Status()})
	return events
}

func (t *Trainer) markFailure() {
	v := t.session.Current
	v.WasPerfect = false
	v.WasPerfectThisIteration = false
	t.policy.failed()
}

// Hint reveals the origin square of the expected move and, on a second
// call, its destination. Only the first call counts as a guess.
func (t *Trainer) Hint() (Hint, []Event, error) {
	if err := t.userTurn(); err != nil {
		return Hint{}, nil, err
	}
	v := t.session.Current
	id := v.Moves[v.Cursor]
	node := t.rep.Tree.Node(id)

	from, _ := chess.ParseSquare(node.Hint1)
	to, _ := chess.ParseSquare(node.Hint2)
	if from == chess.NoSquare || to == chess.NoSquare {
		if m, _, err := t.board.Resolve(node.Notation); err == nil {
			from, to = m.From, m.To
		}
	}

	h := Hint{From: from, To: chess.NoSquare}
	if t.hints == 0 {
		node.TimesGuessed++
		t.stats.Guessed++
		t.stats.Hints++
		t.markFailure()
		t.hints = 1
	} else {
		h.To = to
		t.hints = 2
	}
	return h, []Event{{Kind: EventHintShown, Node: id, Hint: h, Status: t.Status()}}, nil
}

// Next records the finished variation and moves to the next one.
func (t *Trainer) Next(now time.Time) ([]Event, error) {
	switch t.state {
	case Idle:
		return nil, ErrNotTraining
	case VariationComplete:
		return t.nextVariation(now), nil
	}
	return nil, ErrVariationNotComplete
}

func (t *Trainer) nextVariation(now time.Time) []Event {
	s := t.session
	v := s.Current
	for _, id := range v.Moves {
		n := t.rep.Tree.Node(id)
		n.VariationTimesGuessed++
		if v.WasPerfect {
			n.VariationTimesCorrect++
		}
	}
	t.stats.Variations++
	if v.WasPerfect {
		t.stats.Perfect++
	}

	switch t.rep.Method {
	case repertoire.ReplayFailedMoves:
		if !v.WasPerfect {
			s.Failed = append(s.Failed, v)
		}
	case repertoire.RepeatVariationOnFailed:
		if !v.WasPerfect {
			return t.setVariation(now)
		}
	}

	s.Index++
	if s.Index < len(s.Variations) {
		return t.setVariation(now)
	}
	if t.rep.Method == repertoire.ReplayFailedMoves && len(s.Failed) > 0 {
		s.Variations = append(s.Variations, s.Failed...)
		s.Failed = nil
		return t.setVariation(now)
	}

	t.state = SessionBuilding
	vs := t.policy.rebuild(t.from)
	if len(vs) == 0 {
		return t.end(EndCompleted, nil)
	}
	t.newSession(vs)
	events := []Event{{Kind: EventDepthChanged, Status: t.Status()}}
	return append(events, t.setVariation(now)...)
}
