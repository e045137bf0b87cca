package chess

import (
	"fmt"
	"strings"
)

// SAN renders the entry in standard algebraic notation.
func (r Record) SAN() string {
	var sb strings.Builder
	switch {
	case r.Castle && r.To.File() == 6:
		sb.WriteString("O-O")
	case r.Castle:
		sb.WriteString("O-O-O")
	default:
		if r.Kind == Pawn {
			if r.Capture {
				sb.WriteByte(byte('a' + r.From.File()))
			}
		} else {
			sb.WriteByte(r.Kind.Letter())
			if r.ByFile {
				sb.WriteByte(byte('a' + r.From.File()))
			}
			if r.ByRank {
				sb.WriteByte(byte('1' + r.From.Rank()))
			}
		}
		if r.Capture {
			sb.WriteByte('x')
		}
		sb.WriteString(r.To.String())
		if r.Promotion != NoKind {
			sb.WriteByte('=')
			sb.WriteByte(r.Promotion.Letter())
		}
	}
	if r.Check {
		sb.WriteByte('+')
	}
	return sb.String()
}

func notationErr(base error, san, format string, args ...any) error {
	return fmt.Errorf("%w: %q: %s", base, san, fmt.Sprintf(format, args...))
}

// Resolve finds the single legal move that san names without playing it.
// Zero or several candidates are reported as errors, never guessed.
func (b *Board) Resolve(san string) (Move, Kind, error) {
	s := strings.TrimRight(strings.TrimSpace(san), "+#!?")
	switch s {
	case "":
		return Move{}, NoKind, notationErr(ErrInvalidNotation, san, "empty")
	case "O-O", "0-0":
		m, err := b.resolveCastle(san, 6)
		return m, NoKind, err
	case "O-O-O", "0-0-0":
		m, err := b.resolveCastle(san, 2)
		return m, NoKind, err
	}

	promo := NoKind
	if i := strings.IndexByte(s, '='); i >= 0 {
		if i != len(s)-2 {
			return Move{}, NoKind, notationErr(ErrInvalidNotation, san, "malformed promotion")
		}
		promo = KindFromLetter(s[i+1])
		if !promo.CanPromoteTo() {
			return Move{}, NoKind, notationErr(ErrInvalidPromotion, san, "cannot promote to %q", s[i+1])
		}
		s = s[:i]
	}

	kind := Pawn
	if len(s) > 0 && strings.IndexByte("NBRQK", s[0]) >= 0 {
		kind = KindFromLetter(s[0])
		s = s[1:]
	}
	if len(s) < 2 {
		return Move{}, NoKind, notationErr(ErrInvalidNotation, san, "missing destination")
	}
	dest, err := ParseSquare(s[len(s)-2:])
	if err != nil {
		return Move{}, NoKind, notationErr(ErrInvalidNotation, san, "bad destination")
	}

	hint := strings.ReplaceAll(s[:len(s)-2], "x", "")
	if len(hint) > 2 {
		return Move{}, NoKind, notationErr(ErrInvalidNotation, san, "too many origin characters")
	}
	fromFile, fromRank := -1, -1
	for i := 0; i < len(hint); i++ {
		c := hint[i]
		switch {
		case c >= 'a' && c <= 'h' && fromFile < 0:
			fromFile = int(c - 'a')
		case c >= '1' && c <= '8' && fromRank < 0:
			fromRank = int(c - '1')
		default:
			return Move{}, NoKind, notationErr(ErrInvalidNotation, san, "bad origin %q", hint)
		}
	}
	if kind == Pawn && fromFile < 0 {
		fromFile = dest.File()
	}

	var (
		match Move
		count int
		buf   [32]Move
	)
	for id, pc := range b.pieces {
		if !pc.Square.Valid() || pc.Color != b.turn || pc.Kind != kind {
			continue
		}
		if fromFile >= 0 && pc.Square.File() != fromFile {
			continue
		}
		if fromRank >= 0 && pc.Square.Rank() != fromRank {
			continue
		}
		for _, m := range b.legalMoves(id, buf[:0]) {
			if m.To == dest {
				match = m
				count++
			}
		}
	}
	switch {
	case count == 0:
		return Move{}, NoKind, notationErr(ErrInvalidNotation, san, "no legal move matches")
	case count > 1:
		return Move{}, NoKind, notationErr(ErrAmbiguousNotation, san, "%d moves match", count)
	}
	if err := checkPromotion(match, promo); err != nil {
		return Move{}, NoKind, fmt.Errorf("%q: %w", san, err)
	}
	return match, promo, nil
}

func (b *Board) resolveCastle(san string, file int) (Move, error) {
	id := b.kings[b.turn]
	if id == noPiece {
		return Move{}, notationErr(ErrIllegalMove, san, "no king")
	}
	var buf [10]Move
	for _, m := range b.legalMoves(id, buf[:0]) {
		if m.Kind == MoveCastle && m.To.File() == file {
			return m, nil
		}
	}
	return Move{}, notationErr(ErrIllegalMove, san, "castling not allowed")
}

// ApplySAN resolves and plays a move given in algebraic notation.
func (b *Board) ApplySAN(san string) (Record, error) {
	m, promo, err := b.Resolve(san)
	if err != nil {
		return Record{}, err
	}
	return b.play(m, promo), nil
}

// ParseUCI splits coordinate notation like "e2e4" or "e7e8q".
func ParseUCI(text string) (from, to Square, promo Kind, err error) {
	text = strings.TrimSpace(text)
	if len(text) != 4 && len(text) != 5 {
		return NoSquare, NoSquare, NoKind, fmt.Errorf("%w: %q", ErrInvalidNotation, text)
	}
	if from, err = ParseSquare(text[0:2]); err != nil {
		return NoSquare, NoSquare, NoKind, fmt.Errorf("%w: %q", ErrInvalidNotation, text)
	}
	if to, err = ParseSquare(text[2:4]); err != nil {
		return NoSquare, NoSquare, NoKind, fmt.Errorf("%w: %q", ErrInvalidNotation, text)
	}
	if len(text) == 5 {
		promo = KindFromLetter(text[4])
		if !promo.CanPromoteTo() {
			return NoSquare, NoSquare, NoKind, fmt.Errorf("%w: %q", ErrInvalidPromotion, text)
		}
	}
	return from, to, promo, nil
}

// ApplyUCI plays a move given in coordinate notation.
func (b *Board) ApplyUCI(text string) (Record, error) {
	from, to, promo, err := ParseUCI(text)
	if err != nil {
		return Record{}, err
	}
	return b.ApplyMove(from, to, promo)
}

// LooksLikeUCI reports whether text has the shape of coordinate notation.
func LooksLikeUCI(text string) bool {
	_, _, _, err := ParseUCI(text)
	return err == nil
}
