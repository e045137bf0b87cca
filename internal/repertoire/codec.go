package repertoire

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/Cheese-opening-trainer/internal/chess"
)

// Version is written at the top of every encoded repertoire.
//
//	1: color, depth, depth type, tree
//	2: + stats view
//	3: + training method
//	4: + evolution acceleration
const Version = 4

var ErrFormat = errors.New("repertoire: format error")

// Encode writes r in the line-oriented repertoire format.
func Encode(w io.Writer, r *Repertoire) error {
	bw := bufio.NewWriter(w)
	color := "W"
	if r.Color == chess.Black {
		color = "B"
	}
	header := []string{
		strconv.Itoa(Version),
		color,
		strconv.Itoa(r.Depth),
		r.DepthType.String(),
		r.Stats.String(),
		r.Method.String(),
		strconv.Itoa(r.EvolutionAcceleration),
	}
	for _, line := range header {
		if _, err := fmt.Fprintln(bw, line); err != nil {
			return err
		}
	}
	var err error
	r.Tree.Walk(Root, func(id NodeID, _ int) bool {
		if err != nil {
			return false
		}
		n := r.Tree.nodes[id]
		_, err = fmt.Fprintf(bw, "-: \n hint1: %s\n hint2: %s\n Move: %s\n Count: %d\n",
			n.Hint1, n.Hint2, n.Notation, len(n.Children))
		return true
	})
	if err != nil {
		return err
	}
	return bw.Flush()
}

// Marshal encodes r into a string.
func Marshal(r *Repertoire) string {
	var buf bytes.Buffer
	_ = Encode(&buf, r)
	return buf.String()
}

type lineReader struct {
	sc   *bufio.Scanner
	line int
}

func (l *lineReader) next(what string) (string, error) {
	if !l.sc.Scan() {
		if err := l.sc.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("%w: line %d: missing %s", ErrFormat, l.line+1, what)
	}
	l.line++
	return strings.TrimSpace(l.sc.Text()), nil
}

func (l *lineReader) int(what string) (int, error) {
	s, err := l.next(what)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: line %d: %s %q is not a number", ErrFormat, l.line, what, s)
	}
	return n, nil
}

// field reads a "key: value" line and returns the value.
func (l *lineReader) field(key string) (string, error) {
	s, err := l.next(key)
	if err != nil {
		return "", err
	}
	prefix := key + ":"
	if !strings.HasPrefix(s, prefix) {
		return "", fmt.Errorf("%w: line %d: want %q, got %q", ErrFormat, l.line, prefix, s)
	}
	return strings.TrimSpace(s[len(prefix):]), nil
}

// Decode reads a repertoire written by Encode or by any earlier version.
// Fields newer than the stored version take their defaults. An unknown depth
// type is logged and defaulted, duplicate sibling moves are logged and merged;
// any other malformed or missing line fails the whole load.
func Decode(rd io.Reader, logger *zap.Logger) (*Repertoire, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	l := &lineReader{sc: sc}
	r := New()

	version, err := l.int("version")
	if err != nil {
		return nil, err
	}
	color, err := l.next("color")
	if err != nil {
		return nil, err
	}
	switch color {
	case "W":
		r.Color = chess.White
	case "B":
		r.Color = chess.Black
	default:
		return nil, fmt.Errorf("%w: line %d: color %q", ErrFormat, l.line, color)
	}
	if r.Depth, err = l.int("depth"); err != nil {
		return nil, err
	}

	depthType, err := l.next("depth type")
	if err != nil {
		return nil, err
	}
	if t, ok := ParseTrainerType(depthType); ok {
		r.DepthType = t
	} else {
		logger.Warn("repertoire_depth_type_unknown",
			zap.String("value", depthType),
			zap.String("default", r.DepthType.String()),
		)
	}

	if version >= 2 {
		s, err := l.next("stats view")
		if err != nil {
			return nil, err
		}
		v, ok := ParseStatsView(s)
		if !ok {
			return nil, fmt.Errorf("%w: line %d: stats view %q", ErrFormat, l.line, s)
		}
		r.Stats = v
	}
	if version >= 3 {
		s, err := l.next("training method")
		if err != nil {
			return nil, err
		}
		m, ok := ParseTrainingMethod(s)
		if !ok {
			return nil, fmt.Errorf("%w: line %d: training method %q", ErrFormat, l.line, s)
		}
		r.Method = m
	}
	if version >= 4 {
		if r.EvolutionAcceleration, err = l.int("evolution acceleration"); err != nil {
			return nil, err
		}
	}

	r.Tree = &Tree{}
	if err := decodeNode(l, r.Tree, NoNode, logger); err != nil {
		return nil, err
	}
	return r, nil
}

// Unmarshal decodes a repertoire from a string.
func Unmarshal(text string, logger *zap.Logger) (*Repertoire, error) {
	return Decode(strings.NewReader(text), logger)
}

func decodeNode(l *lineReader, t *Tree, parent NodeID, logger *zap.Logger) error {
	marker, err := l.next("node marker")
	if err != nil {
		return err
	}
	if marker != "-:" {
		return fmt.Errorf("%w: line %d: want node marker, got %q", ErrFormat, l.line, marker)
	}
	hint1, err := l.field("hint1")
	if err != nil {
		return err
	}
	hint2, err := l.field("hint2")
	if err != nil {
		return err
	}
	move, err := l.field("Move")
	if err != nil {
		return err
	}
	countText, err := l.field("Count")
	if err != nil {
		return err
	}
	count, err := strconv.Atoi(countText)
	if err != nil || count < 0 {
		return fmt.Errorf("%w: line %d: child count %q", ErrFormat, l.line, countText)
	}

	var id NodeID
	switch existing, dup := t.Child(parent, move); {
	case parent == NoNode:
		id = Root
		t.nodes = append(t.nodes, Node{Parent: NoNode, Notation: move, Hint1: hint1, Hint2: hint2, Color: chess.Black})
	case dup:
		// 같은 수가 두 번 적힌 파일은 하위 수를 합친다
		logger.Warn("repertoire_duplicate_sibling",
			zap.String("move", move),
			zap.Strings("line", t.Line(parent)),
			zap.Int("file_line", l.line),
		)
		id = existing
	default:
		id = t.addChild(parent, Step{Notation: move, Hint1: hint1, Hint2: hint2})
	}
	for i := 0; i < count; i++ {
		if err := decodeNode(l, t, id, logger); err != nil {
			return err
		}
	}
	return nil
}
