package chess

type offset struct{ df, dr int }

var (
	knightOffsets = [8]offset{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingOffsets   = [8]offset{{0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1}}
	diagonalRays  = [4]offset{{1, 1}, {1, -1}, {-1, -1}, {-1, 1}}
	straightRays  = [4]offset{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}
)

// attacked reports whether any piece of color by attacks sq, reading only the
// grid so that simulated moves are seen without touching piece records.
func (p *position) attacked(sq Square, by Color) bool {
	is := func(s Square, kinds ...Kind) bool {
		id := p.at(s)
		if id == noPiece || p.pieces[id].Color != by {
			return false
		}
		for _, k := range kinds {
			if p.pieces[id].Kind == k {
				return true
			}
		}
		return false
	}

	for _, o := range knightOffsets {
		if s, ok := sq.Offset(o.df, o.dr); ok && is(s, Knight) {
			return true
		}
	}
	if p.rayHits(sq, diagonalRays[:], by, Bishop, Queen) || p.rayHits(sq, straightRays[:], by, Rook, Queen) {
		return true
	}

	// A pawn of color by attacks from one rank behind sq relative to its own
	// direction of travel.
	for _, df := range [2]int{-1, 1} {
		if s, ok := sq.Offset(df, -by.forward()); ok && is(s, Pawn) {
			return true
		}
	}
	for _, o := range kingOffsets {
		if s, ok := sq.Offset(o.df, o.dr); ok && is(s, King) {
			return true
		}
	}
	return false
}

// rayHits walks each ray from sq and stops at the first occupied square.
func (p *position) rayHits(sq Square, rays []offset, by Color, a, b Kind) bool {
	for _, o := range rays {
		cur := sq
		for {
			next, ok := cur.Offset(o.df, o.dr)
			if !ok {
				break
			}
			cur = next
			id := p.grid[cur]
			if id == noPiece {
				continue
			}
			pc := p.pieces[id]
			if pc.Color == by && (pc.Kind == a || pc.Kind == b) {
				return true
			}
			break
		}
	}
	return false
}
