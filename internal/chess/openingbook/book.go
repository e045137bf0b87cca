package openingbook

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	chesslib "github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"
)

const (
	DefaultMaxPly   = 8
	DefaultMaxLines = 256
)

var (
	ecoOnce sync.Once
	ecoBook *opening.BookECO
)

type LineMove struct {
	Ply    int    `json:"ply"`
	Color  string `json:"color"`
	Move   string `json:"move"`
	SAN    string `json:"san"`
	Weight int    `json:"weight"`
}

// Line is one path through the book from the initial position.
type Line struct {
	Moves       []LineMove `json:"moves"`
	FinalFEN    string     `json:"final_fen"`
	TotalWeight int        `json:"total_weight"`
	ECOCode     string     `json:"eco_code,omitempty"`
	ECOTitle    string     `json:"eco_title,omitempty"`
}

func (l Line) SAN() []string {
	out := make([]string, len(l.Moves))
	for i, mv := range l.Moves {
		out[i] = mv.SAN
	}
	return out
}

type Options struct {
	MaxPly    int
	MinWeight uint16
	// MaxLines stops the walk once that many lines were collected.
	MaxLines int
	// Prefix is a SAN line the walk starts from.
	Prefix []string
}

func (o Options) withDefaults() Options {
	if o.MaxPly <= 0 {
		o.MaxPly = DefaultMaxPly
	}
	if o.MinWeight == 0 {
		o.MinWeight = 1
	}
	if o.MaxLines <= 0 {
		o.MaxLines = DefaultMaxLines
	}
	return o
}

// Source loads a Polyglot book lazily on first use.
type Source struct {
	path string
	once sync.Once
	book *chesslib.PolyglotBook
	err  error
}

func NewSource(path string) *Source {
	return &Source{path: strings.TrimSpace(path)}
}

func (s *Source) Configured() bool { return s != nil && s.path != "" }

func (s *Source) Book() (*chesslib.PolyglotBook, error) {
	if !s.Configured() {
		return nil, fmt.Errorf("polyglot book path required")
	}
	s.once.Do(func() {
		s.book, s.err = LoadFromPath(s.path)
	})
	return s.book, s.err
}

func LoadFromPath(bookPath string) (*chesslib.PolyglotBook, error) {
	if strings.TrimSpace(bookPath) == "" {
		return nil, fmt.Errorf("polyglot book path required")
	}
	file, err := os.Open(bookPath)
	if err != nil {
		return nil, fmt.Errorf("open polyglot book %q: %w", bookPath, err)
	}
	defer file.Close()
	return Load(file)
}

func Load(r io.Reader) (*chesslib.PolyglotBook, error) {
	book, err := chesslib.LoadFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("load polyglot book: %w", err)
	}
	return book, nil
}

// Lines walks the book depth first and returns every line that reaches
// MaxPly or runs out of book moves, heaviest first.
func Lines(book *chesslib.PolyglotBook, opts Options) ([]Line, error) {
	if book == nil {
		return nil, fmt.Errorf("polyglot book is nil")
	}
	opts = opts.withDefaults()

	root, prefix, err := replay(opts.Prefix)
	if err != nil {
		return nil, err
	}

	hasher := chesslib.NewZobristHasher()
	uciNotation := chesslib.UCINotation{}
	algebraic := chesslib.AlgebraicNotation{}
	labels := eco()

	var out []Line
	var walk func(game *chesslib.Game, path []LineMove) error
	walk = func(game *chesslib.Game, path []LineMove) error {
		if len(out) >= opts.MaxLines {
			return nil
		}
		if len(path) >= opts.MaxPly {
			out = appendLine(out, game, path, labels)
			return nil
		}

		hashStr, err := hasher.HashPosition(game.FEN())
		if err != nil {
			return fmt.Errorf("compute polyglot hash: %w", err)
		}
		entries := book.FindMoves(chesslib.ZobristHashToUint64(hashStr))
		filtered := make([]chesslib.PolyglotEntry, 0, len(entries))
		for _, entry := range entries {
			if entry.Weight >= opts.MinWeight {
				filtered = append(filtered, entry)
			}
		}
		if len(filtered) == 0 {
			out = appendLine(out, game, path, labels)
			return nil
		}

		for _, entry := range filtered {
			move := chesslib.DecodeMove(entry.Move).ToMove()
			moveStr := move.String()
			lineMove := LineMove{
				Ply:    len(path) + 1,
				Color:  colorToString(game.Position().Turn()),
				Move:   moveStr,
				SAN:    algebraic.Encode(game.Position(), &move),
				Weight: int(entry.Weight),
			}

			child := game.Clone()
			if err := child.PushNotationMove(moveStr, uciNotation, nil); err != nil {
				return fmt.Errorf("apply move %q: %w", moveStr, err)
			}
			next := append(append([]LineMove(nil), path...), lineMove)
			if err := walk(child, next); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(root, prefix); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalWeight > out[j].TotalWeight
	})
	return out, nil
}

// Label names the opening reached by a SAN line. Empty results mean the line
// is unknown to the ECO table or does not replay.
func Label(san []string) (code, title string) {
	if len(san) == 0 {
		return "", ""
	}
	game, _, err := replay(san)
	if err != nil {
		return "", ""
	}
	if e := eco().Find(game.Moves()); e != nil {
		return e.Code(), e.Title()
	}
	return "", ""
}

func eco() *opening.BookECO {
	ecoOnce.Do(func() {
		ecoBook = opening.NewBookECO()
	})
	return ecoBook
}

func replay(san []string) (*chesslib.Game, []LineMove, error) {
	game := chesslib.NewGame()
	path := make([]LineMove, 0, len(san))
	for i, tok := range san {
		color := colorToString(game.Position().Turn())
		if err := game.PushNotationMove(tok, chesslib.AlgebraicNotation{}, nil); err != nil {
			return nil, nil, fmt.Errorf("apply move %q: %w", tok, err)
		}
		path = append(path, LineMove{Ply: i + 1, Color: color, SAN: tok})
	}
	moves := game.Moves()
	for i := range path {
		path[i].Move = moves[i].String()
	}
	return game, path, nil
}

func appendLine(out []Line, game *chesslib.Game, path []LineMove, labels *opening.BookECO) []Line {
	if len(path) == 0 {
		return out
	}
	line := Line{
		Moves:    append([]LineMove(nil), path...),
		FinalFEN: game.FEN(),
	}
	for _, mv := range path {
		line.TotalWeight += mv.Weight
	}
	if e := labels.Find(game.Moves()); e != nil {
		line.ECOCode = e.Code()
		line.ECOTitle = e.Title()
	}
	return append(out, line)
}

func colorToString(color chesslib.Color) string {
	switch color {
	case chesslib.White:
		return "white"
	case chesslib.Black:
		return "black"
	default:
		return "unknown"
	}
}
