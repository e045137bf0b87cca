package chess

type MoveKind uint8

const (
	MoveNormal MoveKind = iota
	MoveDoublePush
	MoveEnPassant
	MoveCastle
)

// Move is a candidate move of one piece. Promotes is set for pawn moves onto
// the last rank; the promotion piece is chosen when the move is applied.
type Move struct {
	From     Square
	To       Square
	Kind     MoveKind
	Promotes bool
}

// UCI renders the move in coordinate form without a promotion letter.
func (m Move) UCI() string { return m.From.String() + m.To.String() }

// pseudoMoves appends the pseudo-legal moves of piece id to dst.
func (p *position) pseudoMoves(id pieceID, dst []Move) []Move {
	pc := p.pieces[id]
	if !pc.Square.Valid() {
		return dst
	}
	switch pc.Kind {
	case Pawn:
		return p.pawnMoves(pc, dst)
	case Knight:
		return p.stepMoves(pc, knightOffsets[:], dst)
	case Bishop:
		return p.slideMoves(pc, diagonalRays[:], dst)
	case Rook:
		return p.slideMoves(pc, straightRays[:], dst)
	case Queen:
		dst = p.slideMoves(pc, diagonalRays[:], dst)
		return p.slideMoves(pc, straightRays[:], dst)
	case King:
		dst = p.stepMoves(pc, kingOffsets[:], dst)
		return p.castleMoves(pc, dst)
	}
	return dst
}

func (p *position) pawnMoves(pc Piece, dst []Move) []Move {
	fwd := pc.Color.forward()
	lastRank := pc.Color.Other().homeRank()
	startRank := pc.Color.homeRank() + fwd

	add := func(to Square, kind MoveKind) {
		dst = append(dst, Move{From: pc.Square, To: to, Kind: kind, Promotes: to.Rank() == lastRank})
	}

	if one, ok := pc.Square.Offset(0, fwd); ok && p.at(one) == noPiece {
		add(one, MoveNormal)
		if pc.Square.Rank() == startRank {
			if two, ok := pc.Square.Offset(0, 2*fwd); ok && p.at(two) == noPiece {
				add(two, MoveDoublePush)
			}
		}
	}

	for _, df := range [2]int{-1, 1} {
		to, ok := pc.Square.Offset(df, fwd)
		if !ok {
			continue
		}
		if id := p.at(to); id != noPiece {
			if p.pieces[id].Color != pc.Color {
				add(to, MoveNormal)
			}
			continue
		}
		if p.epPawn == noPiece {
			continue
		}
		ep := p.pieces[p.epPawn]
		beside, _ := pc.Square.Offset(df, 0)
		if ep.Color != pc.Color && ep.Square == beside {
			add(to, MoveEnPassant)
		}
	}
	return dst
}

func (p *position) stepMoves(pc Piece, offsets []offset, dst []Move) []Move {
	for _, o := range offsets {
		to, ok := pc.Square.Offset(o.df, o.dr)
		if !ok {
			continue
		}
		if id := p.at(to); id != noPiece && p.pieces[id].Color == pc.Color {
			continue
		}
		dst = append(dst, Move{From: pc.Square, To: to})
	}
	return dst
}

func (p *position) slideMoves(pc Piece, rays []offset, dst []Move) []Move {
	for _, o := range rays {
		cur := pc.Square
		for {
			next, ok := cur.Offset(o.df, o.dr)
			if !ok {
				break
			}
			cur = next
			id := p.grid[cur]
			if id == noPiece {
				dst = append(dst, Move{From: pc.Square, To: cur})
				continue
			}
			if p.pieces[id].Color != pc.Color {
				dst = append(dst, Move{From: pc.Square, To: cur})
			}
			break
		}
	}
	return dst
}

// castleMoves yields the king's castling moves. Every condition, including
// the squares the king crosses, is checked here so the legal filter can skip
// them.
func (p *position) castleMoves(pc Piece, dst []Move) []Move {
	home := NewSquare(4, pc.Color.homeRank())
	if pc.Square != home {
		return dst
	}
	enemy := pc.Color.Other()
	if p.attacked(home, enemy) {
		return dst
	}
	rank := pc.Color.homeRank()
	if p.castling.Has(kingSideRight(pc.Color)) && p.rookAt(NewSquare(7, rank), pc.Color) &&
		p.emptyFiles(rank, 5, 6) && !p.attackedFiles(rank, enemy, 5, 6) {
		dst = append(dst, Move{From: home, To: NewSquare(6, rank), Kind: MoveCastle})
	}
	if p.castling.Has(queenSideRight(pc.Color)) && p.rookAt(NewSquare(0, rank), pc.Color) &&
		p.emptyFiles(rank, 1, 2, 3) && !p.attackedFiles(rank, enemy, 3, 2) {
		dst = append(dst, Move{From: home, To: NewSquare(2, rank), Kind: MoveCastle})
	}
	return dst
}

func (p *position) rookAt(sq Square, c Color) bool {
	id := p.at(sq)
	return id != noPiece && p.pieces[id].Kind == Rook && p.pieces[id].Color == c
}

func (p *position) emptyFiles(rank int, files ...int) bool {
	for _, f := range files {
		if p.grid[NewSquare(f, rank)] != noPiece {
			return false
		}
	}
	return true
}

func (p *position) attackedFiles(rank int, by Color, files ...int) bool {
	for _, f := range files {
		if p.attacked(NewSquare(f, rank), by) {
			return true
		}
	}
	return false
}

// legalMoves filters the pseudo-legal moves of id by simulating each one on
// the grid and testing the mover's king.
func (p *position) legalMoves(id pieceID, dst []Move) []Move {
	pc := p.pieces[id]
	start := len(dst)
	dst = p.pseudoMoves(id, dst)
	out := dst[:start]
	for _, m := range dst[start:] {
		if m.Kind == MoveCastle || p.leavesKingSafe(pc, id, m) {
			out = append(out, m)
		}
	}
	return out
}

func (p *position) leavesKingSafe(pc Piece, id pieceID, m Move) bool {
	captured := m.To
	if m.Kind == MoveEnPassant {
		captured = p.pieces[p.epPawn].Square
	}
	savedTo := p.grid[m.To]
	savedCap := p.grid[captured]

	p.grid[captured] = noPiece
	p.grid[m.From] = noPiece
	p.grid[m.To] = id

	king := p.kingSquare(pc.Color)
	if pc.Kind == King {
		king = m.To
	}
	safe := !p.attacked(king, pc.Color.Other())

	p.grid[m.To] = savedTo
	p.grid[captured] = savedCap
	p.grid[m.From] = id
	return safe
}

// LegalMoves returns the legal moves of the piece on sq.
func (b *Board) LegalMoves(sq Square) ([]Move, error) {
	id := b.at(sq)
	if id == noPiece {
		return nil, ErrNoPiece
	}
	if b.pieces[id].Color != b.turn {
		return nil, ErrWrongSide
	}
	return b.legalMoves(id, nil), nil
}

// AllLegalMoves returns every legal move of the side to move.
func (b *Board) AllLegalMoves() []Move {
	var out []Move
	for _, id := range b.grid {
		if id != noPiece && b.pieces[id].Color == b.turn {
			out = b.legalMoves(id, out)
		}
	}
	return out
}

func (b *Board) hasLegalMove() bool {
	var buf [32]Move
	for _, id := range b.grid {
		if id != noPiece && b.pieces[id].Color == b.turn {
			if len(b.legalMoves(id, buf[:0])) > 0 {
				return true
			}
		}
	}
	return false
}
