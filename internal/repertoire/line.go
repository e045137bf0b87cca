package repertoire

import (
	"fmt"
	"strings"

	"github.com/park285/Cheese-opening-trainer/internal/chess"
)

// Tokens splits movetext such as "1. e4 e5 2. Nf3 {main} Nc6 *" into move
// tokens. Move numbers, comments, NAG markers and results are dropped.
func Tokens(text string) []string {
	var out []string
	depth := 0
	for _, f := range strings.Fields(strings.NewReplacer("{", " { ", "}", " } ", "(", " ( ", ")", " ) ").Replace(text)) {
		switch f {
		case "{", "(":
			depth++
			continue
		case "}", ")":
			if depth > 0 {
				depth--
			}
			continue
		}
		if depth > 0 {
			continue
		}
		switch f {
		case "1-0", "0-1", "1/2-1/2", "*":
			continue
		}
		if strings.HasPrefix(f, "$") {
			continue
		}
		// "12." and "12..." and the "12.e4" shorthand
		if i := strings.LastIndexByte(f, '.'); i >= 0 && isMoveNumber(f[:i+1]) {
			f = f[i+1:]
			if f == "" {
				continue
			}
		}
		out = append(out, f)
	}
	return out
}

func isMoveNumber(s string) bool {
	digits := strings.TrimRight(s, ".")
	if digits == "" || len(digits) == len(s) {
		return false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// BuildLine replays tokens (SAN or coordinate notation) from the standard
// start and returns canonical steps with from/to hint squares.
func BuildLine(tokens []string) ([]Step, error) {
	return BuildLineFrom(chess.NewBoard(), tokens)
}

// BuildLineFrom replays tokens on a copy of b.
func BuildLineFrom(b *chess.Board, tokens []string) ([]Step, error) {
	board := b.Clone()
	steps := make([]Step, 0, len(tokens))
	for i, tok := range tokens {
		rec, err := board.ApplySAN(tok)
		if err != nil && chess.LooksLikeUCI(tok) {
			rec, err = board.ApplyUCI(tok)
		}
		if err != nil {
			return nil, fmt.Errorf("move %d %q: %w", i+1, tok, err)
		}
		steps = append(steps, Step{Notation: rec.SAN(), Hint1: rec.From.String(), Hint2: rec.To.String()})
	}
	return steps, nil
}
