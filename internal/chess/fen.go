package chess

import (
	"fmt"
	"strings"
)

// parseFEN builds a fresh position. Halfmove and fullmove counters are read
// past and ignored. Castling letters without the king and rook on their home
// squares are dropped; an en-passant square without a matching pawn is
// ignored.
func parseFEN(fen string) (position, error) {
	fields := strings.Fields(fen)
	if len(fields) < 2 || len(fields) > 6 {
		return position{}, fmt.Errorf("%w: want 2 to 6 fields, got %d", ErrInvalidFEN, len(fields))
	}
	pos := emptyPosition()

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return position{}, fmt.Errorf("%w: want 8 ranks, got %d", ErrInvalidFEN, len(ranks))
	}
	kings := [2]int{}
	for i, row := range ranks {
		rank := 7 - i
		file := 0
		for j := 0; j < len(row); j++ {
			c := row[j]
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}
			kind := KindFromLetter(c)
			if kind == NoKind || file > 7 {
				return position{}, fmt.Errorf("%w: bad rank %q", ErrInvalidFEN, row)
			}
			color := White
			if c >= 'a' && c <= 'z' {
				color = Black
			}
			id := pos.place(color, kind, NewSquare(file, rank))
			if kind == King {
				pos.kings[color] = id
				kings[color]++
			}
			file++
		}
		if file != 8 {
			return position{}, fmt.Errorf("%w: rank %q does not cover 8 files", ErrInvalidFEN, row)
		}
	}
	if kings[White] != 1 || kings[Black] != 1 {
		return position{}, fmt.Errorf("%w: want one king per side, got %d white and %d black", ErrInvalidPosition, kings[White], kings[Black])
	}

	switch fields[1] {
	case "w":
		pos.turn = White
	case "b":
		pos.turn = Black
	default:
		return position{}, fmt.Errorf("%w: side to move %q", ErrInvalidFEN, fields[1])
	}

	if len(fields) > 2 && fields[2] != "-" {
		for i := 0; i < len(fields[2]); i++ {
			var right CastlingRights
			var color Color
			var rookFile int
			switch fields[2][i] {
			case 'K':
				right, color, rookFile = WhiteKingSide, White, 7
			case 'Q':
				right, color, rookFile = WhiteQueenSide, White, 0
			case 'k':
				right, color, rookFile = BlackKingSide, Black, 7
			case 'q':
				right, color, rookFile = BlackQueenSide, Black, 0
			default:
				return position{}, fmt.Errorf("%w: castling %q", ErrInvalidFEN, fields[2])
			}
			rank := color.homeRank()
			if pos.kingSquare(color) == NewSquare(4, rank) && pos.rookAt(NewSquare(rookFile, rank), color) {
				pos.castling |= right
			}
		}
	}

	if len(fields) > 3 && fields[3] != "-" {
		target, err := ParseSquare(fields[3])
		if err != nil {
			return position{}, fmt.Errorf("%w: en passant %q", ErrInvalidFEN, fields[3])
		}
		// The pawn that just moved belongs to the side not on move and stands
		// one rank past the target in its own direction of travel.
		mover := pos.turn.Other()
		if sq, ok := target.Offset(0, mover.forward()); ok {
			if id := pos.at(sq); id != noPiece && pos.pieces[id].Kind == Pawn && pos.pieces[id].Color == mover {
				pos.epPawn = id
			}
		}
	}
	return pos, nil
}

// fen renders the four modeled fields.
func (p *position) fen() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			id := p.grid[NewSquare(file, rank)]
			if id == noPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(p.pieces[id].FENLetter())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}
	sb.WriteByte(' ')
	sb.WriteString(p.turn.Letter())
	sb.WriteByte(' ')
	sb.WriteString(p.castling.String())
	sb.WriteByte(' ')
	sb.WriteString(p.epTarget().String())
	return sb.String()
}

// NormalizeFEN parses and re-renders a FEN in the four-field form used by
// history snapshots.
func NormalizeFEN(fen string) (string, error) {
	pos, err := parseFEN(fen)
	if err != nil {
		return "", err
	}
	return pos.fen(), nil
}
