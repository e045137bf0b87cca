package chess

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
)

func mustBoard(t *testing.T, fen string) *Board {
	t.Helper()
	b, err := FromFEN(fen)
	if err != nil {
		t.Fatalf("FromFEN(%q): %v", fen, err)
	}
	return b
}

func playSAN(t *testing.T, b *Board, moves ...string) []Record {
	t.Helper()
	out := make([]Record, 0, len(moves))
	for _, mv := range moves {
		rec, err := b.ApplySAN(mv)
		if err != nil {
			t.Fatalf("ApplySAN(%q) at %s: %v", mv, b.FEN(), err)
		}
		out = append(out, rec)
	}
	return out
}

func sq(t *testing.T, s string) Square {
	t.Helper()
	v, err := ParseSquare(s)
	if err != nil {
		t.Fatalf("ParseSquare(%q): %v", s, err)
	}
	return v
}

func TestPawnDoublePushFromStart(t *testing.T) {
	b := NewBoard()
	rec, err := b.ApplyMove(sq(t, "e2"), sq(t, "e4"), NoKind)
	if err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	want := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3"
	if got := b.FEN(); got != want {
		t.Fatalf("fen = %q, want %q", got, want)
	}
	if rec.SAN() != "e4" || rec.Cue() != CueMove || rec.FEN != want {
		t.Fatalf("unexpected record %+v (san %q)", rec, rec.SAN())
	}
}

func TestCastleKingSide(t *testing.T) {
	b := mustBoard(t, "4k3/8/8/8/8/8/8/4K2R w K - 0 1")
	rec, err := b.ApplySAN("O-O")
	if err != nil {
		t.Fatalf("O-O: %v", err)
	}
	if p, ok := b.PieceAt(sq(t, "g1")); !ok || p.Kind != King {
		t.Fatalf("king not on g1: %v", b.FEN())
	}
	if p, ok := b.PieceAt(sq(t, "f1")); !ok || p.Kind != Rook {
		t.Fatalf("rook not on f1: %v", b.FEN())
	}
	if b.Castling().Has(WhiteKingSide) || b.Castling().Has(WhiteQueenSide) {
		t.Fatalf("white rights survived castling: %s", b.Castling())
	}
	if !rec.Castle || rec.SAN() != "O-O" || rec.Cue() != CueCastle {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestCastleQueenSideBlack(t *testing.T) {
	b := mustBoard(t, "r3k3/8/8/8/8/8/8/4K3 b q -")
	if _, err := b.ApplySAN("0-0-0"); err != nil {
		t.Fatalf("0-0-0: %v", err)
	}
	if got, want := b.FEN(), "2kr4/8/8/8/8/8/8/4K3 w - -"; got != want {
		t.Fatalf("fen = %q, want %q", got, want)
	}
}

func TestCastleRefused(t *testing.T) {
	cases := map[string]string{
		"transit attacked": "4k3/8/8/8/8/8/5r2/4K2R w K -",
		"king in check":    "4k3/8/8/8/8/8/8/r3K2R w K -",
		"path blocked":     "4k3/8/8/8/8/8/8/4KN1R w K -",
		"no right":         "4k3/8/8/8/8/8/8/4K2R w - -",
	}
	for name, fen := range cases {
		t.Run(name, func(t *testing.T) {
			b := mustBoard(t, fen)
			before := b.FEN()
			if _, err := b.ApplySAN("O-O"); !errors.Is(err, ErrIllegalMove) {
				t.Fatalf("err = %v, want ErrIllegalMove", err)
			}
			if b.FEN() != before {
				t.Fatalf("board changed after rejected castle")
			}
		})
	}
}

func TestRookCaptureDropsRight(t *testing.T) {
	b := mustBoard(t, "r3k3/8/8/8/8/8/8/R3K3 w Qq -")
	playSAN(t, b, "Rxa8+")
	if b.Castling().Has(BlackQueenSide) || b.Castling().Has(WhiteQueenSide) {
		t.Fatalf("rights = %s, want none", b.Castling())
	}
}

func TestEnPassantCapture(t *testing.T) {
	b := mustBoard(t, "4k3/3p4/8/4P3/8/8/8/4K3 b - -")
	playSAN(t, b, "d5")
	if b.EnPassantTarget() != sq(t, "d6") {
		t.Fatalf("ep target = %s, want d6", b.EnPassantTarget())
	}
	rec, err := b.ApplySAN("exd6")
	if err != nil {
		t.Fatalf("exd6: %v", err)
	}
	if !rec.Capture || rec.SAN() != "exd6" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if _, ok := b.PieceAt(sq(t, "d5")); ok {
		t.Fatalf("captured pawn still on d5")
	}
	if p, ok := b.PieceAt(sq(t, "d6")); !ok || p.Kind != Pawn || p.Color != White {
		t.Fatalf("white pawn not on d6")
	}
	if got, want := b.FEN(), "4k3/8/3P4/8/8/8/8/4K3 b - -"; got != want {
		t.Fatalf("fen = %q, want %q", got, want)
	}
}

func TestEnPassantWindowCloses(t *testing.T) {
	b := mustBoard(t, "4k3/3p4/8/4P3/8/8/8/4K3 b - -")
	playSAN(t, b, "d5", "Kd1")
	if b.EnPassantTarget() != NoSquare {
		t.Fatalf("ep target survived a move: %s", b.EnPassantTarget())
	}
	playSAN(t, b, "Ke7")
	moves, err := b.LegalMoves(sq(t, "e5"))
	if err != nil {
		t.Fatalf("LegalMoves: %v", err)
	}
	for _, m := range moves {
		if m.To == sq(t, "d6") {
			t.Fatalf("en passant still offered a move later")
		}
	}
}

func TestFENRoundTrip(t *testing.T) {
	cases := []struct{ in, want string }{
		{StartFEN, StartFEN},
		{"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", StartFEN},
		{"rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2", "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6"},
		{"r3k2r/8/8/8/8/8/8/R3K2R b Kq -", "r3k2r/8/8/8/8/8/8/R3K2R b Kq -"},
		{"4k3/8/8/8/8/8/8/4K3 w KQkq -", "4k3/8/8/8/8/8/8/4K3 w - -"},
		{"4k3/8/8/8/8/8/8/4K3 w - e6", "4k3/8/8/8/8/8/8/4K3 w - -"},
	}
	for _, tc := range cases {
		b := mustBoard(t, tc.in)
		if got := b.FEN(); got != tc.want {
			t.Fatalf("FEN(%q) = %q, want %q", tc.in, got, tc.want)
		}
		again := mustBoard(t, b.FEN())
		if again.FEN() != b.FEN() {
			t.Fatalf("round trip drifted: %q -> %q", b.FEN(), again.FEN())
		}
	}
}

func TestInvalidFEN(t *testing.T) {
	cases := []struct {
		fen  string
		want error
	}{
		{"8/8/8/8/8/8/8/8 w - -", ErrInvalidPosition},
		{"4k3/8/8/8/8/8/8/3KK3 w - -", ErrInvalidPosition},
		{"4k3/8/8/8/8/8/8/4K3 x - -", ErrInvalidFEN},
		{"4k3/8/8/8/8/8/4K3 w - -", ErrInvalidFEN},
		{"4k3/9/8/8/8/8/8/4K3 w - -", ErrInvalidFEN},
		{"4k3/8/8/8/8/8/8/4K3 w Z -", ErrInvalidFEN},
		{"", ErrInvalidFEN},
	}
	b := NewBoard()
	for _, tc := range cases {
		if err := b.LoadFEN(tc.fen); !errors.Is(err, tc.want) {
			t.Fatalf("LoadFEN(%q) err = %v, want %v", tc.fen, err, tc.want)
		}
		if b.FEN() != StartFEN {
			t.Fatalf("failed load changed the board to %q", b.FEN())
		}
	}
}

func TestCheckmateLeavesNoMoves(t *testing.T) {
	b := NewBoard()
	recs := playSAN(t, b, "f3", "e5", "g4", "Qh4")
	if last := recs[len(recs)-1]; !last.Check || last.SAN() != "Qh4+" {
		t.Fatalf("last record %+v, want check", last)
	}
	if !b.IsCheckmate() {
		t.Fatalf("expected checkmate at %s", b.FEN())
	}
	for _, p := range b.Pieces() {
		if p.Color != White {
			continue
		}
		moves, err := b.LegalMoves(p.Square)
		if err != nil {
			t.Fatalf("LegalMoves(%s): %v", p.Square, err)
		}
		if len(moves) != 0 {
			t.Fatalf("%s on %s has moves %v", p.Kind, p.Square, moves)
		}
	}
}

func TestStalemate(t *testing.T) {
	b := mustBoard(t, "7k/5Q2/6K1/8/8/8/8/8 b - -")
	if !b.IsStalemate() || b.IsCheckmate() {
		t.Fatalf("expected stalemate")
	}
}

func TestPinnedPieceHasNoMoves(t *testing.T) {
	b := mustBoard(t, "4k3/4r3/8/8/8/8/4B3/4K3 w - -")
	moves, err := b.LegalMoves(sq(t, "e2"))
	if err != nil {
		t.Fatalf("LegalMoves: %v", err)
	}
	if len(moves) != 0 {
		t.Fatalf("pinned bishop moves: %v", moves)
	}
}

func TestPawnAndKingAttacks(t *testing.T) {
	b := mustBoard(t, "4k3/8/8/8/8/3p4/8/4K3 w - -")
	if !b.Attacked(sq(t, "e2"), Black) || !b.Attacked(sq(t, "c2"), Black) {
		t.Fatalf("pawn diagonals not attacked")
	}
	if b.Attacked(sq(t, "d2"), Black) {
		t.Fatalf("square in front of pawn reported attacked")
	}
	moves, _ := b.LegalMoves(sq(t, "e1"))
	for _, m := range moves {
		if m.To == sq(t, "e2") {
			t.Fatalf("king allowed onto a pawn-attacked square")
		}
	}

	kings := mustBoard(t, "8/8/8/3k4/8/3K4/8/8 w - -")
	moves, _ = kings.LegalMoves(sq(t, "d3"))
	for _, m := range moves {
		if m.To.Rank() == 3 {
			t.Fatalf("king allowed next to the enemy king: %s", m.To)
		}
	}
}

func TestDisambiguation(t *testing.T) {
	cases := []struct {
		fen, san string
	}{
		{"4k3/8/8/8/8/8/K7/R6R w - -", "Rad1"},
		{"4k3/8/8/R7/8/8/7K/R7 w - -", "R1a3"},
		{"4k2K/8/8/8/8/Q7/8/Q1Q5 w - -", "Qa1b2"},
	}
	for _, tc := range cases {
		b := mustBoard(t, tc.fen)
		rec, err := b.ApplySAN(tc.san)
		if err != nil {
			t.Fatalf("ApplySAN(%q): %v", tc.san, err)
		}
		if rec.SAN() != tc.san {
			t.Fatalf("rendered %q, want %q", rec.SAN(), tc.san)
		}
	}

	b := mustBoard(t, "4k2K/8/8/8/8/Q7/8/Q1Q5 w - -")
	if _, _, err := b.Resolve("Qb2"); !errors.Is(err, ErrAmbiguousNotation) {
		t.Fatalf("Resolve(Qb2) err = %v, want ambiguous", err)
	}
}

func TestPromotion(t *testing.T) {
	b := mustBoard(t, "4k3/P7/8/8/8/8/8/4K3 w - -")
	before := b.FEN()
	if _, err := b.ApplyMove(sq(t, "a7"), sq(t, "a8"), NoKind); !errors.Is(err, ErrPromotionRequired) {
		t.Fatalf("err = %v, want ErrPromotionRequired", err)
	}
	if _, err := b.ApplyMove(sq(t, "a7"), sq(t, "a8"), King); !errors.Is(err, ErrInvalidPromotion) {
		t.Fatalf("err = %v, want ErrInvalidPromotion", err)
	}
	if b.FEN() != before {
		t.Fatalf("rejected promotion changed the board")
	}

	rec, err := b.ApplyMove(sq(t, "a7"), sq(t, "a8"), Knight)
	if err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	if rec.SAN() != "a8=N" || rec.Cue() != CuePromotion || rec.UCI() != "a7a8n" {
		t.Fatalf("unexpected record %q %v %q", rec.SAN(), rec.Cue(), rec.UCI())
	}

	b = mustBoard(t, "4k3/P7/8/8/8/8/8/4K3 w - -")
	rec = playSAN(t, b, "a8=Q+")[0]
	if rec.SAN() != "a8=Q+" || rec.Cue() != CueCheck {
		t.Fatalf("unexpected record %q %v", rec.SAN(), rec.Cue())
	}
}

func TestRejectedMovesLeaveBoardUnchanged(t *testing.T) {
	b := NewBoard()
	cases := []struct {
		from, to string
		want     error
	}{
		{"e4", "e5", ErrNoPiece},
		{"e7", "e5", ErrWrongSide},
		{"e2", "e5", ErrIllegalMove},
		{"g1", "g3", ErrIllegalMove},
	}
	for _, tc := range cases {
		if _, err := b.ApplyMove(sq(t, tc.from), sq(t, tc.to), NoKind); !errors.Is(err, tc.want) {
			t.Fatalf("%s%s err = %v, want %v", tc.from, tc.to, err, tc.want)
		}
	}
	for _, san := range []string{"Nf6", "e5", "Ke2", "O-O", "Qx", "e9", "Nbd2"} {
		if _, err := b.ApplySAN(san); err == nil {
			t.Fatalf("ApplySAN(%q) accepted", san)
		}
	}
	if b.FEN() != StartFEN || b.Ply() != 0 {
		t.Fatalf("board changed: %s", b.FEN())
	}
}

func TestNotationTolerance(t *testing.T) {
	b := NewBoard()
	playSAN(t, b, "e4!", "e5?", "Nf3!?", "Nc6")
	if got := b.Moves(); !reflect.DeepEqual(got, []string{"e4", "e5", "Nf3", "Nc6"}) {
		t.Fatalf("moves = %v", got)
	}
	if _, err := b.ApplyUCI("f1b5"); err != nil {
		t.Fatalf("ApplyUCI: %v", err)
	}
}

func TestHistoryNavigation(t *testing.T) {
	b := NewBoard()
	recs := playSAN(t, b, "e4", "e5", "Nf3", "Nc6")
	if n := len(b.Plies()); n != 2 {
		t.Fatalf("plies = %d, want 2", n)
	}

	if err := b.StepBack(); err != nil {
		t.Fatal(err)
	}
	if err := b.StepBack(); err != nil {
		t.Fatal(err)
	}
	if b.FEN() != recs[1].FEN {
		t.Fatalf("fen after two steps back = %q, want %q", b.FEN(), recs[1].FEN)
	}
	if got := b.Moves(); !reflect.DeepEqual(got, []string{"e4", "e5"}) {
		t.Fatalf("moves = %v", got)
	}
	if err := b.StepForward(); err != nil {
		t.Fatal(err)
	}
	if b.FEN() != recs[2].FEN {
		t.Fatalf("step forward fen = %q", b.FEN())
	}

	if err := b.GoTo(0); err != nil || b.FEN() != StartFEN {
		t.Fatalf("GoTo(0) = %v, fen %q", err, b.FEN())
	}
	if err := b.GoTo(4); err != nil || b.FEN() != recs[3].FEN {
		t.Fatalf("GoTo(4) = %v, fen %q", err, b.FEN())
	}
	if err := b.GoTo(5); !errors.Is(err, ErrNoHistory) {
		t.Fatalf("GoTo(5) err = %v", err)
	}

	if err := b.RemoveLast(); err != nil {
		t.Fatal(err)
	}
	if b.HistoryLen() != 3 || b.FEN() != recs[2].FEN {
		t.Fatalf("after RemoveLast len=%d fen=%q", b.HistoryLen(), b.FEN())
	}

	if err := b.StepBack(); err != nil {
		t.Fatal(err)
	}
	playSAN(t, b, "d4")
	if got := b.Moves(); !reflect.DeepEqual(got, []string{"e4", "e5", "d4"}) {
		t.Fatalf("moves after branching = %v", got)
	}
	if b.HistoryLen() != 3 {
		t.Fatalf("forward entries not truncated: %d", b.HistoryLen())
	}

	fresh := NewBoard()
	if err := fresh.RemoveLast(); !errors.Is(err, ErrNoHistory) {
		t.Fatalf("RemoveLast on empty history err = %v", err)
	}
}

func TestPliesStartingWithBlack(t *testing.T) {
	b := mustBoard(t, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3")
	playSAN(t, b, "e5", "Nf3")
	plies := b.Plies()
	if len(plies) != 2 || plies[0].White != nil || plies[0].Black == nil || plies[1].White == nil {
		t.Fatalf("unexpected plies %+v", plies)
	}
}

// Random games must never leave the mover in check, must round-trip through
// FEN, and must never regain a castling right.
func TestRandomPlayoutInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for game := 0; game < 60; game++ {
		b := NewBoard()
		for ply := 0; ply < 80; ply++ {
			moves := b.AllLegalMoves()
			if len(moves) == 0 {
				break
			}
			m := moves[rng.Intn(len(moves))]
			promo := NoKind
			if m.Promotes {
				promo = Queen
			}
			mover := b.Turn()
			before := b.Castling()
			if _, err := b.ApplyMove(m.From, m.To, promo); err != nil {
				t.Fatalf("legal move %s rejected: %v", m.UCI(), err)
			}
			if b.Attacked(b.KingSquare(mover), mover.Other()) {
				t.Fatalf("move %s left %s in check: %s", m.UCI(), mover, b.FEN())
			}
			if b.Castling()&^before != 0 {
				t.Fatalf("castling rights grew from %s to %s", before, b.Castling())
			}
			if again := mustBoard(t, b.FEN()); again.FEN() != b.FEN() {
				t.Fatalf("fen round trip drifted at %s", b.FEN())
			}
		}
	}
}
