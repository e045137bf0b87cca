package chess

import "fmt"

// ApplyMove plays the piece on from to to. promo names the promotion piece
// and must be set exactly when the move reaches the last rank. A rejected move
// leaves the board unchanged.
func (b *Board) ApplyMove(from, to Square, promo Kind) (Record, error) {
	m, err := b.findMove(from, to)
	if err != nil {
		return Record{}, err
	}
	if err := checkPromotion(m, promo); err != nil {
		return Record{}, err
	}
	return b.play(m, promo), nil
}

func (b *Board) findMove(from, to Square) (Move, error) {
	moves, err := b.LegalMoves(from)
	if err != nil {
		return Move{}, err
	}
	for _, m := range moves {
		if m.To == to {
			return m, nil
		}
	}
	return Move{}, fmt.Errorf("%w: %s%s", ErrIllegalMove, from, to)
}

func checkPromotion(m Move, promo Kind) error {
	switch {
	case m.Promotes && promo == NoKind:
		return ErrPromotionRequired
	case m.Promotes && !promo.CanPromoteTo():
		return fmt.Errorf("%w: %s", ErrInvalidPromotion, promo)
	case !m.Promotes && promo != NoKind:
		return fmt.Errorf("%w: %s is not a promotion square", ErrInvalidPromotion, m.To)
	}
	return nil
}

// play mutates the position for an already validated move and appends the
// history entry.
func (b *Board) play(m Move, promo Kind) Record {
	id := b.grid[m.From]
	pc := b.pieces[id]
	rec := Record{
		Kind:   pc.Kind,
		Color:  pc.Color,
		From:   m.From,
		To:     m.To,
		Castle: m.Kind == MoveCastle,
	}
	rec.ByFile, rec.ByRank = b.disambiguation(id, m.To)

	if victim := b.grid[m.To]; victim != noPiece {
		rec.Capture = true
		b.dropRookRight(b.pieces[victim])
		b.remove(victim)
	}
	if m.Kind == MoveEnPassant && b.epPawn != noPiece {
		rec.Capture = true
		b.remove(b.epPawn)
	}

	b.epPawn = noPiece
	b.relocate(id, m.To)
	if m.Kind == MoveDoublePush {
		b.epPawn = id
	}

	if m.Kind == MoveCastle {
		rank := pc.Color.homeRank()
		rookFrom, rookTo := NewSquare(7, rank), NewSquare(5, rank)
		if m.To.File() == 2 {
			rookFrom, rookTo = NewSquare(0, rank), NewSquare(3, rank)
		}
		if rook := b.grid[rookFrom]; rook != noPiece {
			b.relocate(rook, rookTo)
		}
	} else if promo != NoKind {
		b.remove(id)
		b.place(pc.Color, promo, m.To)
		rec.Promotion = promo
	}

	b.turn = b.turn.Other()

	switch pc.Kind {
	case King:
		b.castling &^= kingSideRight(pc.Color) | queenSideRight(pc.Color)
	case Rook:
		b.dropRookRight(Piece{Color: pc.Color, Kind: Rook, Square: m.From})
	}

	rec.Check = b.inCheck(b.turn)
	rec.FEN = b.position.fen()
	b.hist.push(rec)
	return rec
}

// dropRookRight clears the castling right tied to a rook standing on its
// home corner.
func (b *Board) dropRookRight(pc Piece) {
	if pc.Kind != Rook || pc.Square.Rank() != pc.Color.homeRank() {
		return
	}
	switch pc.Square.File() {
	case 7:
		b.castling &^= kingSideRight(pc.Color)
	case 0:
		b.castling &^= queenSideRight(pc.Color)
	}
}

// disambiguation decides which origin coordinates notation needs so that
// no other piece of the same kind and color could be meant.
func (b *Board) disambiguation(id pieceID, to Square) (byFile, byRank bool) {
	pc := b.pieces[id]
	if pc.Kind == Pawn || pc.Kind == King {
		return false, false
	}
	var buf [32]Move
	found, sameFile, sameRank := false, false, false
	for other, op := range b.pieces {
		if other == id || !op.Square.Valid() || op.Kind != pc.Kind || op.Color != pc.Color {
			continue
		}
		for _, m := range b.legalMoves(other, buf[:0]) {
			if m.To != to {
				continue
			}
			found = true
			sameFile = sameFile || op.Square.File() == pc.Square.File()
			sameRank = sameRank || op.Square.Rank() == pc.Square.Rank()
			break
		}
	}
	if !found {
		return false, false
	}
	return sameRank || !sameFile, sameFile
}
