package chess

type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) Other() Color { return c ^ 1 }

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// Letter is the FEN side-to-move letter.
func (c Color) Letter() string {
	if c == White {
		return "w"
	}
	return "b"
}

// forward is the rank step of a pawn of this color.
func (c Color) forward() int {
	if c == White {
		return 1
	}
	return -1
}

func (c Color) homeRank() int {
	if c == White {
		return 0
	}
	return 7
}

// Kind is the closed set of piece kinds. NoKind doubles as "no promotion".
type Kind uint8

const (
	NoKind Kind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var kindLetters = [...]byte{NoKind: 0, Pawn: 'P', Knight: 'N', Bishop: 'B', Rook: 'R', Queen: 'Q', King: 'K'}

// Letter returns the upper-case notation letter ('P' for pawns).
func (k Kind) Letter() byte {
	if int(k) >= len(kindLetters) {
		return 0
	}
	return kindLetters[k]
}

func (k Kind) String() string {
	switch k {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	}
	return "none"
}

// KindFromLetter maps a notation letter of either case to a kind.
func KindFromLetter(c byte) Kind {
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	for k, l := range kindLetters {
		if l != 0 && l == c {
			return Kind(k)
		}
	}
	return NoKind
}

// CanPromoteTo reports whether a pawn may become k.
func (k Kind) CanPromoteTo() bool {
	return k == Knight || k == Bishop || k == Rook || k == Queen
}

// Piece is a value view of a piece in a position.
type Piece struct {
	Color  Color
	Kind   Kind
	Square Square
}

// FENLetter is upper case for white and lower case for black.
func (p Piece) FENLetter() byte {
	c := p.Kind.Letter()
	if p.Color == Black {
		c += 'a' - 'A'
	}
	return c
}

type CastlingRights uint8

const (
	WhiteKingSide CastlingRights = 1 << iota
	WhiteQueenSide
	BlackKingSide
	BlackQueenSide

	NoCastling CastlingRights = 0
)

func kingSideRight(c Color) CastlingRights {
	if c == White {
		return WhiteKingSide
	}
	return BlackKingSide
}

func queenSideRight(c Color) CastlingRights {
	if c == White {
		return WhiteQueenSide
	}
	return BlackQueenSide
}

func (r CastlingRights) Has(flag CastlingRights) bool { return r&flag == flag }

// String renders the rights in fixed KQkq order, "-" when empty.
func (r CastlingRights) String() string {
	out := make([]byte, 0, 4)
	if r.Has(WhiteKingSide) {
		out = append(out, 'K')
	}
	if r.Has(WhiteQueenSide) {
		out = append(out, 'Q')
	}
	if r.Has(BlackKingSide) {
		out = append(out, 'k')
	}
	if r.Has(BlackQueenSide) {
		out = append(out, 'q')
	}
	if len(out) == 0 {
		return "-"
	}
	return string(out)
}
