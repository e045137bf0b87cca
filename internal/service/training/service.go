package training

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/Cheese-opening-trainer/internal/chess"
	"github.com/park285/Cheese-opening-trainer/internal/chess/openingbook"
	"github.com/park285/Cheese-opening-trainer/internal/domain"
	"github.com/park285/Cheese-opening-trainer/internal/repertoire"
	"github.com/park285/Cheese-opening-trainer/internal/trainer"
)

var (
	ErrSessionNotFound    = errors.New("training session not found")
	ErrSessionInProgress  = errors.New("training session already in progress")
	ErrRepertoireNotFound = errors.New("repertoire not found")
	ErrRepertoireExists   = errors.New("repertoire already exists")
	ErrRoomNotAllowed     = errors.New("training room not allowed")
	ErrInvalidInput       = errors.New("invalid training input")
	ErrBookUnavailable    = errors.New("opening book not configured")
)

const (
	maxHistoryLimit    = 50
	nameRuneLimit      = 32
	defaultSessionIdle = time.Hour
	resultExpired      = "expired"
)

type SessionMeta struct {
	SessionID string
	Room      string
	Sender    string
}

// sessionIdentity keys live sessions by room and sender (PlayerHash) and
// repertoires and run history by sender alone (OwnerHash).
type sessionIdentity struct {
	SessionID  string
	RoomHash   string
	PlayerHash string
	OwnerHash  string
}

type Config struct {
	BotDelay     time.Duration
	AutoAdvance  bool
	SessionIdle  time.Duration
	HistoryLimit int
	AllowedRooms []string

	BookMaxPly    int
	BookMinWeight uint16
	BookMaxLines  int

	// Clock overrides time.Now.
	Clock func() time.Time
}

// Outcome is the result of one service call or tick for one session.
type Outcome struct {
	Meta       SessionMeta
	Repertoire string
	Color      chess.Color
	Events     []trainer.Event
	Status     trainer.Status
	FEN        string
	Line       []string
	Hint       *trainer.Hint
	Ended      bool
	Run        *domain.TrainingRun
}

// NodeView is a repertoire node with its children, for browsing.
type NodeView struct {
	Repertoire string
	Stats      repertoire.StatsView
	Line       []string
	ECOCode    string
	ECOTitle   string
	Correct    int
	Guessed    int
	Children   []ChildView
}

type ChildView struct {
	Notation string
	Correct  int
	Guessed  int
	Trained  bool
	Lines    int
}

// EventSink receives outcomes produced by background ticks.
type EventSink interface {
	Deliver(ctx context.Context, out *Outcome)
}

type EventSinkFunc func(ctx context.Context, out *Outcome)

func (f EventSinkFunc) Deliver(ctx context.Context, out *Outcome) { f(ctx, out) }

type liveSession struct {
	mu        sync.Mutex
	meta      SessionMeta
	identity  sessionIdentity
	name      string
	runUUID   string
	trainer   *trainer.Trainer
	startedAt time.Time
	touchedAt time.Time
	closed    bool
}

type Service struct {
	store        RepertoireStore
	repo         Repository
	book         *openingbook.Source
	cfg          Config
	allowedRooms map[string]struct{}
	logger       *zap.Logger

	mu       sync.Mutex
	sessions map[string]*liveSession
}

func NewService(store RepertoireStore, repo Repository, book *openingbook.Source, cfg Config, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("repertoire store is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("training repository is required")
	}
	if cfg.BotDelay < 0 {
		return nil, fmt.Errorf("bot delay must not be negative")
	}
	if cfg.SessionIdle <= 0 {
		cfg.SessionIdle = defaultSessionIdle
	}
	if cfg.HistoryLimit <= 0 || cfg.HistoryLimit > maxHistoryLimit {
		cfg.HistoryLimit = 10
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	allowedRooms := make(map[string]struct{})
	for _, room := range cfg.AllowedRooms {
		normalized := strings.ToLower(strings.TrimSpace(room))
		if normalized == "" {
			continue
		}
		allowedRooms[normalized] = struct{}{}
	}
	cfg.AllowedRooms = append([]string(nil), cfg.AllowedRooms...)

	return &Service{
		store:        store,
		repo:         repo,
		book:         book,
		cfg:          cfg,
		allowedRooms: allowedRooms,
		logger:       logger,
		sessions:     make(map[string]*liveSession),
	}, nil
}

func (s *Service) CreateRepertoire(ctx context.Context, meta SessionMeta, name string, color chess.Color) (*domain.RepertoireInfo, error) {
	identity, err := s.identify(meta)
	if err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	rep := repertoire.New()
	rep.Color = color
	if err := s.store.Create(ctx, identity.OwnerHash, name, rep); err != nil {
		return nil, err
	}
	s.logger.Info("repertoire_created",
		zap.String("player", identity.OwnerHash),
		zap.String("name", normalizeName(name)),
		zap.String("color", color.String()),
	)
	return &domain.RepertoireInfo{Name: normalizeName(name), Color: color.String(), UpdatedAt: s.cfg.Clock()}, nil
}

func (s *Service) DeleteRepertoire(ctx context.Context, meta SessionMeta, name string) error {
	identity, err := s.identify(meta)
	if err != nil {
		return err
	}
	if ls := s.lookup(identity); ls != nil && ls.name == normalizeName(name) {
		if _, err := s.Stop(ctx, meta); err != nil && !errors.Is(err, ErrSessionNotFound) {
			return err
		}
	}
	if err := s.store.Delete(ctx, identity.OwnerHash, name); err != nil {
		return err
	}
	s.logger.Info("repertoire_deleted", zap.String("player", identity.OwnerHash), zap.String("name", normalizeName(name)))
	return nil
}

func (s *Service) ListRepertoires(ctx context.Context, meta SessionMeta) ([]domain.RepertoireInfo, error) {
	identity, err := s.identify(meta)
	if err != nil {
		return nil, err
	}
	return s.store.List(ctx, identity.OwnerHash)
}

// AddLine parses movetext (SAN or coordinates, move numbers allowed) and
// inserts it into the named repertoire. It returns the canonical SAN line.
func (s *Service) AddLine(ctx context.Context, meta SessionMeta, name, text string) ([]string, error) {
	identity, err := s.identify(meta)
	if err != nil {
		return nil, err
	}
	tokens := repertoire.Tokens(text)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty line", ErrInvalidInput)
	}
	steps, err := repertoire.BuildLine(tokens)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	err = s.store.Update(ctx, identity.OwnerHash, name, func(rep *repertoire.Repertoire) error {
		rep.Tree.Insert(steps)
		return nil
	})
	if err != nil {
		return nil, err
	}
	line := make([]string, len(steps))
	for i, st := range steps {
		line[i] = st.Notation
	}
	s.logger.Info("repertoire_saved",
		zap.String("player", identity.OwnerHash),
		zap.String("name", normalizeName(name)),
		zap.Int("plies", len(line)),
	)
	return line, nil
}

// RemoveBranch drops the node reached by path and everything below it.
func (s *Service) RemoveBranch(ctx context.Context, meta SessionMeta, name string, path []string) error {
	identity, err := s.identify(meta)
	if err != nil {
		return err
	}
	if len(path) == 0 {
		return fmt.Errorf("%w: empty path", ErrInvalidInput)
	}
	return s.store.Update(ctx, identity.OwnerHash, name, func(rep *repertoire.Repertoire) error {
		id, ok := rep.Tree.Find(path)
		if !ok {
			return fmt.Errorf("%w: %w", ErrInvalidInput, repertoire.ErrNoNode)
		}
		return rep.Tree.RemoveBranch(id)
	})
}

// Combine merges every line of src into dst.
func (s *Service) Combine(ctx context.Context, meta SessionMeta, dst, src string) error {
	identity, err := s.identify(meta)
	if err != nil {
		return err
	}
	if normalizeName(dst) == normalizeName(src) {
		return fmt.Errorf("%w: cannot merge a repertoire into itself", ErrInvalidInput)
	}
	other, err := s.store.Load(ctx, identity.OwnerHash, src)
	if err != nil {
		return err
	}
	return s.store.Update(ctx, identity.OwnerHash, dst, func(rep *repertoire.Repertoire) error {
		rep.Tree.Combine(other.Tree)
		return nil
	})
}

// SetOption changes one training option of a repertoire.
func (s *Service) SetOption(ctx context.Context, meta SessionMeta, name, key, value string) (*repertoire.Repertoire, error) {
	identity, err := s.identify(meta)
	if err != nil {
		return nil, err
	}
	var updated *repertoire.Repertoire
	err = s.store.Update(ctx, identity.OwnerHash, name, func(rep *repertoire.Repertoire) error {
		if err := applyOption(rep, key, value); err != nil {
			return err
		}
		updated = rep
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Export(ctx context.Context, meta SessionMeta, name string) (string, error) {
	identity, err := s.identify(meta)
	if err != nil {
		return "", err
	}
	rep, err := s.store.Load(ctx, identity.OwnerHash, name)
	if err != nil {
		return "", err
	}
	return repertoire.Marshal(rep), nil
}

// Import replaces (or creates) a repertoire from its file format.
func (s *Service) Import(ctx context.Context, meta SessionMeta, name, text string) (*repertoire.Repertoire, error) {
	identity, err := s.identify(meta)
	if err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	rep, err := repertoire.Unmarshal(text, s.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := s.store.Save(ctx, identity.OwnerHash, name, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

// SeedFromBook inserts the opening book lines below prefix and returns how
// many lines were added.
func (s *Service) SeedFromBook(ctx context.Context, meta SessionMeta, name string, prefix []string) (int, error) {
	identity, err := s.identify(meta)
	if err != nil {
		return 0, err
	}
	if !s.book.Configured() {
		return 0, ErrBookUnavailable
	}
	book, err := s.book.Book()
	if err != nil {
		s.logger.Error("opening_book_load_error", zap.Error(err))
		return 0, ErrBookUnavailable
	}
	lines, err := openingbook.Lines(book, openingbook.Options{
		MaxPly:    s.cfg.BookMaxPly,
		MinWeight: s.cfg.BookMinWeight,
		MaxLines:  s.cfg.BookMaxLines,
		Prefix:    prefix,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	added := 0
	err = s.store.Update(ctx, identity.OwnerHash, name, func(rep *repertoire.Repertoire) error {
		added = 0
		for _, line := range lines {
			steps, err := repertoire.BuildLine(line.SAN())
			if err != nil {
				s.logger.Warn("opening_book_line_skipped", zap.Strings("line", line.SAN()), zap.Error(err))
				continue
			}
			rep.Tree.Insert(steps)
			added++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("repertoire_seeded",
		zap.String("player", identity.OwnerHash),
		zap.String("name", normalizeName(name)),
		zap.Int("lines", added),
	)
	return added, nil
}

// Select shows the node reached by path. A repertoire being trained is
// read from the live session so its counters are visible.
func (s *Service) Select(ctx context.Context, meta SessionMeta, name string, path []string) (*NodeView, error) {
	identity, err := s.identify(meta)
	if err != nil {
		return nil, err
	}
	if ls := s.lookup(identity); ls != nil && ls.name == normalizeName(name) {
		ls.mu.Lock()
		defer ls.mu.Unlock()
		return nodeView(ls.name, ls.trainer.Repertoire(), path)
	}
	rep, err := s.store.Load(ctx, identity.OwnerHash, name)
	if err != nil {
		return nil, err
	}
	return nodeView(normalizeName(name), rep, path)
}

func nodeView(name string, rep *repertoire.Repertoire, path []string) (*NodeView, error) {
	id, ok := rep.Tree.Find(path)
	if !ok {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, repertoire.ErrNoNode)
	}
	view := &NodeView{Repertoire: name, Stats: rep.Stats, Line: rep.Tree.Line(id)}
	view.Correct, view.Guessed = rep.NodeStats(id)
	view.ECOCode, view.ECOTitle = openingbook.Label(view.Line)
	for _, c := range rep.Tree.Children(id) {
		n := rep.Tree.Node(c)
		cv := ChildView{
			Notation: n.Notation,
			Trained:  rep.Trains(c),
			Lines:    len(rep.Tree.LeafChainsFrom(c)),
		}
		cv.Correct, cv.Guessed = rep.NodeStats(c)
		view.Children = append(view.Children, cv)
	}
	return view, nil
}

// Start begins training name from the node reached by path. An empty name
// picks the only repertoire of the player.
func (s *Service) Start(ctx context.Context, meta SessionMeta, name string, path []string) (*Outcome, error) {
	identity, err := s.identify(meta)
	if err != nil {
		return nil, err
	}
	if ls := s.lookup(identity); ls != nil {
		return nil, ErrSessionInProgress
	}

	if strings.TrimSpace(name) == "" {
		infos, err := s.store.List(ctx, identity.OwnerHash)
		if err != nil {
			return nil, err
		}
		if len(infos) != 1 {
			return nil, fmt.Errorf("%w: repertoire name required", ErrInvalidInput)
		}
		name = infos[0].Name
	}

	rep, err := s.store.Load(ctx, identity.OwnerHash, name)
	if err != nil {
		return nil, err
	}
	from, ok := rep.Tree.Find(path)
	if !ok {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, repertoire.ErrNoNode)
	}

	now := s.cfg.Clock()
	runUUID := uuid.NewString()
	ls := &liveSession{
		meta:      meta,
		identity:  identity,
		name:      normalizeName(name),
		runUUID:   runUUID,
		startedAt: now,
		touchedAt: now,
		trainer: trainer.New(rep, trainer.Options{
			BotDelay:    s.cfg.BotDelay,
			AutoAdvance: s.cfg.AutoAdvance,
			Logger:      s.logger.With(zap.String("run_uuid", runUUID)),
		}),
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	events, err := ls.trainer.Start(now, from)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if _, exists := s.sessions[identity.PlayerHash]; exists {
		s.mu.Unlock()
		return nil, ErrSessionInProgress
	}
	s.sessions[identity.PlayerHash] = ls
	s.mu.Unlock()

	return s.settle(ctx, ls, events, ""), nil
}

// Move judges a trainee move in SAN or coordinate notation.
func (s *Service) Move(ctx context.Context, meta SessionMeta, input string) (*Outcome, error) {
	return s.withSession(ctx, meta, func(ls *liveSession, now time.Time) (*Outcome, error) {
		events, err := ls.trainer.UserMoveText(now, strings.TrimSpace(input))
		if err != nil {
			return nil, mapTrainerError(err)
		}
		return s.settle(ctx, ls, events, ""), nil
	})
}

func (s *Service) Hint(ctx context.Context, meta SessionMeta) (*Outcome, error) {
	return s.withSession(ctx, meta, func(ls *liveSession, now time.Time) (*Outcome, error) {
		hint, events, err := ls.trainer.Hint()
		if err != nil {
			return nil, mapTrainerError(err)
		}
		out := s.settle(ctx, ls, events, "")
		out.Hint = &hint
		return out, nil
	})
}

func (s *Service) Next(ctx context.Context, meta SessionMeta) (*Outcome, error) {
	return s.withSession(ctx, meta, func(ls *liveSession, now time.Time) (*Outcome, error) {
		events, err := ls.trainer.Next(now)
		if err != nil {
			return nil, mapTrainerError(err)
		}
		return s.settle(ctx, ls, events, ""), nil
	})
}

func (s *Service) Stop(ctx context.Context, meta SessionMeta) (*Outcome, error) {
	return s.withSession(ctx, meta, func(ls *liveSession, now time.Time) (*Outcome, error) {
		return s.settle(ctx, ls, ls.trainer.Stop(), ""), nil
	})
}

// Status reports the live session without changing it.
func (s *Service) Status(ctx context.Context, meta SessionMeta) (*Outcome, error) {
	return s.withSession(ctx, meta, func(ls *liveSession, now time.Time) (*Outcome, error) {
		return s.outcome(ls, nil), nil
	})
}

// Legal lists the destination squares of the piece on square.
func (s *Service) Legal(ctx context.Context, meta SessionMeta, square string) ([]string, error) {
	sq, err := chess.ParseSquare(square)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	var dests []string
	_, err = s.withSession(ctx, meta, func(ls *liveSession, now time.Time) (*Outcome, error) {
		moves, err := ls.trainer.Board().LegalMoves(sq)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		seen := make(map[chess.Square]bool, len(moves))
		for _, m := range moves {
			if !seen[m.To] {
				seen[m.To] = true
				dests = append(dests, m.To.String())
			}
		}
		return nil, nil
	})
	return dests, err
}

func (s *Service) History(ctx context.Context, meta SessionMeta, limit int) ([]*domain.TrainingRun, error) {
	identity, err := s.identify(meta)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > s.cfg.HistoryLimit {
		limit = s.cfg.HistoryLimit
	}
	return s.repo.GetRecentRuns(ctx, identity.OwnerHash, limit)
}

// Tick plays due bot moves and expires idle sessions.
func (s *Service) Tick(ctx context.Context, now time.Time) []*Outcome {
	s.mu.Lock()
	live := make([]*liveSession, 0, len(s.sessions))
	for _, ls := range s.sessions {
		live = append(live, ls)
	}
	s.mu.Unlock()

	var outs []*Outcome
	for _, ls := range live {
		ls.mu.Lock()
		if ls.closed {
			ls.mu.Unlock()
			continue
		}
		var out *Outcome
		if now.Sub(ls.touchedAt) >= s.cfg.SessionIdle {
			s.logger.Info("training_session_expired", zap.String("run_uuid", ls.runUUID))
			out = s.settle(ctx, ls, ls.trainer.Stop(), resultExpired)
		} else if events := ls.trainer.Tick(now); len(events) > 0 {
			out = s.settle(ctx, ls, events, "")
		}
		ls.mu.Unlock()
		if out != nil {
			outs = append(outs, out)
		}
	}
	return outs
}

// Run calls Tick every interval until ctx is done.
func (s *Service) Run(ctx context.Context, interval time.Duration, sink EventSink) error {
	if interval <= 0 {
		return fmt.Errorf("tick interval must be greater than 0")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, out := range s.Tick(ctx, s.cfg.Clock()) {
				if sink != nil {
					sink.Deliver(ctx, out)
				}
			}
		}
	}
}

func (s *Service) withSession(ctx context.Context, meta SessionMeta, fn func(ls *liveSession, now time.Time) (*Outcome, error)) (*Outcome, error) {
	identity, err := s.identify(meta)
	if err != nil {
		return nil, err
	}
	ls := s.lookup(identity)
	if ls == nil {
		return nil, ErrSessionNotFound
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.closed {
		return nil, ErrSessionNotFound
	}
	now := s.cfg.Clock()
	ls.touchedAt = now
	return fn(ls, now)
}

// settle builds the outcome and, when the session ended, persists the run
// and drops the session. Callers hold ls.mu.
func (s *Service) settle(ctx context.Context, ls *liveSession, events []trainer.Event, result string) *Outcome {
	out := s.outcome(ls, events)
	var end *trainer.Event
	for i := range events {
		if events[i].Kind == trainer.EventSessionEnded {
			end = &events[i]
		}
	}
	if end == nil {
		return out
	}

	out.Ended = true
	out.Status = end.Status
	ls.closed = true
	s.mu.Lock()
	if s.sessions[ls.identity.PlayerHash] == ls {
		delete(s.sessions, ls.identity.PlayerHash)
	}
	s.mu.Unlock()

	if result == "" {
		result = end.Reason.String()
	}
	s.saveCounters(ctx, ls)
	out.Run = s.persistRun(ctx, ls, end.Status, result)
	return out
}

// saveCounters writes the trained tree's counters back to the stored
// repertoire so later Select and Stats calls see them.
func (s *Service) saveCounters(ctx context.Context, ls *liveSession) {
	trained := ls.trainer.Repertoire().Tree
	err := s.store.Update(ctx, ls.identity.OwnerHash, ls.name, func(rep *repertoire.Repertoire) error {
		rep.Tree.CopyCounters(trained)
		return nil
	})
	if err != nil {
		s.logger.Warn("training_counters_save_error",
			zap.String("session_id", ls.meta.SessionID),
			zap.String("name", ls.name),
			zap.Error(err),
		)
	}
}

func (s *Service) outcome(ls *liveSession, events []trainer.Event) *Outcome {
	tr := ls.trainer
	return &Outcome{
		Meta:       ls.meta,
		Repertoire: ls.name,
		Color:      tr.Repertoire().Color,
		Events:     events,
		Status:     tr.Status(),
		FEN:        tr.Board().FEN(),
		Line:       tr.Board().Moves(),
	}
}

func (s *Service) persistRun(ctx context.Context, ls *liveSession, status trainer.Status, result string) *domain.TrainingRun {
	now := s.cfg.Clock()
	rep := ls.trainer.Repertoire()
	run := &domain.TrainingRun{
		RunUUID:    ls.runUUID,
		PlayerHash: ls.identity.OwnerHash,
		RoomHash:   ls.identity.RoomHash,
		Repertoire: ls.name,
		Color:      rep.Color.String(),
		Mode:       rep.DepthType.String(),
		Method:     rep.Method.String(),
		Result:     result,
		Variations: status.Stats.Variations,
		Perfect:    status.Stats.Perfect,
		Guessed:    status.Stats.Guessed,
		Correct:    status.Stats.Correct,
		Hints:      status.Stats.Hints,
		StartedAt:  ls.startedAt,
		EndedAt:    now,
		Duration:   now.Sub(ls.startedAt),
		LastLine:   ls.trainer.Board().Moves(),
	}
	id, err := s.repo.InsertRun(ctx, run)
	if err != nil {
		s.logger.Error("training_run_persist_error", zap.String("run_uuid", run.RunUUID), zap.Error(err))
		return run
	}
	run.ID = id
	s.logger.Info("training_run_saved",
		zap.Int64("id", id),
		zap.String("run_uuid", run.RunUUID),
		zap.String("result", result),
		zap.Int("variations", run.Variations),
		zap.Int("perfect", run.Perfect),
	)
	return run
}

func (s *Service) lookup(identity sessionIdentity) *liveSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[identity.PlayerHash]
}

func (s *Service) identify(meta SessionMeta) (sessionIdentity, error) {
	if err := s.ensureRoomAllowed(meta); err != nil {
		return sessionIdentity{}, err
	}
	return deriveIdentity(meta), nil
}

func (s *Service) ensureRoomAllowed(meta SessionMeta) error {
	if len(s.allowedRooms) == 0 {
		return nil
	}

	room := strings.ToLower(strings.TrimSpace(meta.Room))
	if room == "" {
		room = "unknown-room"
	}

	if _, ok := s.allowedRooms[room]; ok {
		return nil
	}

	s.logger.Info("training room access denied",
		zap.String("room", room),
		zap.String("sender", strings.TrimSpace(meta.Sender)),
	)
	return ErrRoomNotAllowed
}

func mapTrainerError(err error) error {
	switch {
	case errors.Is(err, trainer.ErrNotTraining):
		return ErrSessionNotFound
	case errors.Is(err, chess.ErrIllegalMove),
		errors.Is(err, chess.ErrInvalidNotation),
		errors.Is(err, chess.ErrAmbiguousNotation),
		errors.Is(err, chess.ErrPromotionRequired),
		errors.Is(err, chess.ErrInvalidPromotion),
		errors.Is(err, chess.ErrInvalidSquare),
		errors.Is(err, chess.ErrNoPiece),
		errors.Is(err, chess.ErrWrongSide):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}

func applyOption(rep *repertoire.Repertoire, key, value string) error {
	value = strings.TrimSpace(value)
	bad := func() error {
		return fmt.Errorf("%w: %s=%q", ErrInvalidInput, key, value)
	}
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "depth", "깊이":
		n, err := strconv.Atoi(value)
		if err != nil {
			return bad()
		}
		rep.Depth = n
	case "type", "mode", "모드":
		t, ok := repertoire.ParseTrainerType(value)
		if !ok {
			return bad()
		}
		rep.DepthType = t
	case "stats", "view", "통계":
		v, ok := repertoire.ParseStatsView(value)
		if !ok {
			return bad()
		}
		rep.Stats = v
	case "method", "방식":
		m, ok := repertoire.ParseTrainingMethod(value)
		if !ok {
			return bad()
		}
		rep.Method = m
	case "accel", "acceleration", "가속":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return bad()
		}
		rep.EvolutionAcceleration = n
	case "color", "색":
		c, ok := ParseColor(value)
		if !ok {
			return bad()
		}
		rep.Color = c
	default:
		return fmt.Errorf("%w: unknown option %q", ErrInvalidInput, key)
	}
	return nil
}

// ParseColor accepts w/b, white/black and 백/흑.
func ParseColor(s string) (chess.Color, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "w", "white", "백":
		return chess.White, true
	case "b", "black", "흑":
		return chess.Black, true
	}
	return chess.White, false
}

func validateName(name string) error {
	n := normalizeName(name)
	switch {
	case n == "":
		return fmt.Errorf("%w: repertoire name required", ErrInvalidInput)
	case utf8.RuneCountInString(n) > nameRuneLimit:
		return fmt.Errorf("%w: repertoire name too long", ErrInvalidInput)
	case strings.ContainsAny(n, " \t\n:"):
		return fmt.Errorf("%w: repertoire name must be one word", ErrInvalidInput)
	}
	return nil
}

func deriveIdentity(meta SessionMeta) sessionIdentity {
	sessionID := strings.ToLower(strings.TrimSpace(meta.SessionID))
	room := strings.ToLower(strings.TrimSpace(meta.Room))
	sender := strings.ToLower(strings.TrimSpace(meta.Sender))

	return sessionIdentity{
		SessionID:  sessionID,
		RoomHash:   hashString(room),
		PlayerHash: hashString(room + ":" + sender),
		OwnerHash:  hashString(sender),
	}
}

func hashString(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
