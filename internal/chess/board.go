package chess

const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -"

// pieceID indexes position.pieces. Captured pieces stay in the arena with
// their square set to NoSquare so ids held elsewhere never dangle.
type pieceID = int

const noPiece pieceID = -1

type position struct {
	pieces   []Piece
	grid     [64]pieceID
	turn     Color
	castling CastlingRights
	epPawn   pieceID
	kings    [2]pieceID
}

func emptyPosition() position {
	p := position{epPawn: noPiece, kings: [2]pieceID{noPiece, noPiece}}
	for i := range p.grid {
		p.grid[i] = noPiece
	}
	return p
}

func (p *position) clone() position {
	cp := *p
	cp.pieces = append([]Piece(nil), p.pieces...)
	return cp
}

func (p *position) at(sq Square) pieceID {
	if !sq.Valid() {
		return noPiece
	}
	return p.grid[sq]
}

func (p *position) place(c Color, k Kind, sq Square) pieceID {
	id := len(p.pieces)
	p.pieces = append(p.pieces, Piece{Color: c, Kind: k, Square: sq})
	p.grid[sq] = id
	return id
}

// remove takes a piece off the board and drops every handle that points at it.
func (p *position) remove(id pieceID) {
	sq := p.pieces[id].Square
	if sq.Valid() && p.grid[sq] == id {
		p.grid[sq] = noPiece
	}
	p.pieces[id].Square = NoSquare
	if p.epPawn == id {
		p.epPawn = noPiece
	}
}

func (p *position) relocate(id pieceID, to Square) {
	from := p.pieces[id].Square
	if from.Valid() && p.grid[from] == id {
		p.grid[from] = noPiece
	}
	p.grid[to] = id
	p.pieces[id].Square = to
}

func (p *position) kingSquare(c Color) Square {
	id := p.kings[c]
	if id == noPiece {
		return NoSquare
	}
	return p.pieces[id].Square
}

// epTarget is the square behind the en-passant-eligible pawn.
func (p *position) epTarget() Square {
	if p.epPawn == noPiece {
		return NoSquare
	}
	pc := p.pieces[p.epPawn]
	sq, _ := pc.Square.Offset(0, -pc.Color.forward())
	return sq
}

// Board is a mutable chess position plus the navigable history of moves
// played on it. A Board is not safe for concurrent use.
type Board struct {
	position
	hist history
}

// NewBoard returns a board set up at the standard starting position.
func NewBoard() *Board {
	b, err := FromFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return b
}

// FromFEN builds a board from a FEN string.
func FromFEN(fen string) (*Board, error) {
	b := &Board{}
	if err := b.LoadFEN(fen); err != nil {
		return nil, err
	}
	return b, nil
}

// LoadFEN replaces the position and clears the history. On error the board is
// left untouched.
func (b *Board) LoadFEN(fen string) error {
	pos, err := parseFEN(fen)
	if err != nil {
		return err
	}
	b.position = pos
	b.hist = history{start: pos.fen()}
	return nil
}

// Reset returns to the starting position of the current history.
func (b *Board) Reset() {
	start := b.hist.start
	if start == "" {
		start = StartFEN
	}
	_ = b.LoadFEN(start)
}

// Clone returns an independent copy including history.
func (b *Board) Clone() *Board {
	cp := &Board{position: b.position.clone(), hist: b.hist}
	cp.hist.entries = append([]Record(nil), b.hist.entries...)
	return cp
}

func (b *Board) Turn() Color                       { return b.turn }
func (b *Board) Castling() CastlingRights          { return b.castling }
func (b *Board) FEN() string                       { return b.position.fen() }
func (b *Board) EnPassantTarget() Square           { return b.epTarget() }
func (b *Board) KingSquare(c Color) Square         { return b.kingSquare(c) }
func (b *Board) InCheck() bool                     { return b.inCheck(b.turn) }
func (b *Board) Attacked(sq Square, by Color) bool { return b.attacked(sq, by) }

// PieceAt returns the piece on sq, if any.
func (b *Board) PieceAt(sq Square) (Piece, bool) {
	id := b.at(sq)
	if id == noPiece {
		return Piece{}, false
	}
	return b.pieces[id], true
}

// Pieces lists the pieces currently on the board, a1 to h8.
func (b *Board) Pieces() []Piece {
	out := make([]Piece, 0, 32)
	for _, id := range b.grid {
		if id != noPiece {
			out = append(out, b.pieces[id])
		}
	}
	return out
}

func (b *Board) inCheck(c Color) bool {
	k := b.kingSquare(c)
	return k.Valid() && b.attacked(k, c.Other())
}

// IsCheckmate reports whether the side to move is in check with no legal move.
func (b *Board) IsCheckmate() bool { return b.InCheck() && !b.hasLegalMove() }

// IsStalemate reports whether the side to move has no legal move and is not in check.
func (b *Board) IsStalemate() bool { return !b.InCheck() && !b.hasLegalMove() }
