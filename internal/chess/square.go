package chess

import "fmt"

// Square indexes the board as file + 8*rank (a1 = 0, h8 = 63).
type Square int8

// NoSquare marks an absent square (no en-passant target, empty hint).
const NoSquare Square = -1

func NewSquare(file, rank int) Square {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare
	}
	return Square(file + rank*8)
}

func (s Square) File() int { return int(s) & 7 }
func (s Square) Rank() int { return int(s) >> 3 }

func (s Square) Valid() bool { return s >= 0 && s < 64 }

// Offset returns the square df files and dr ranks away. ok is false when the
// result leaves the board; there is no wraparound between the a and h files.
func (s Square) Offset(df, dr int) (Square, bool) {
	if !s.Valid() {
		return NoSquare, false
	}
	f, r := s.File()+df, s.Rank()+dr
	if f < 0 || f > 7 || r < 0 || r > 7 {
		return NoSquare, false
	}
	return Square(f + r*8), true
}

func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	return string([]byte{byte('a' + s.File()), byte('1' + s.Rank())})
}

// ParseSquare reads a coordinate like "e4". Upper-case files are accepted.
func ParseSquare(text string) (Square, error) {
	if len(text) != 2 {
		return NoSquare, fmt.Errorf("%w: square %q", ErrInvalidSquare, text)
	}
	f := fileIndex(text[0])
	r := rankIndex(text[1])
	if f < 0 || r < 0 {
		return NoSquare, fmt.Errorf("%w: square %q", ErrInvalidSquare, text)
	}
	return Square(f + r*8), nil
}

func fileIndex(c byte) int {
	switch {
	case c >= 'a' && c <= 'h':
		return int(c - 'a')
	case c >= 'A' && c <= 'H':
		return int(c - 'A')
	}
	return -1
}

func rankIndex(c byte) int {
	if c >= '1' && c <= '8' {
		return int(c - '1')
	}
	return -1
}
