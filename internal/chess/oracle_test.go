package chess

import (
	"strings"
	"testing"

	chesslib "github.com/corentings/chess/v2"
)

// Lines are replayed on both boards; placement, side to move and castling
// rights must agree after every ply and the rendered notation must match the
// input token.
func TestAgreesWithReferenceBoard(t *testing.T) {
	lines := []string{
		"e4 e5 Nf3 Nc6 Bb5 a6 Ba4 Nf6 O-O Be7 Re1 b5 Bb3 d6 c3 O-O h3",
		"d4 d5 c4 e6 Nc3 Nf6 Bg5 Be7 e3 O-O Nf3 Nbd7",
		"e4 d5 exd5 Qxd5 Nc3 Qa5 d4 Nf6 Nf3 Bf5",
		"e4 Nf6 e5 d5 exd6 exd6 d4 Be7 Bd3 O-O",
		"Nf3 d5 g3 c5 Bg2 Nc6 O-O e5 d3 Nf6 Nbd2 Be7 e4 O-O",
		"e4 c5 Nf3 d6 d4 cxd4 Nxd4 Nf6 Nc3 a6 Be3 e5 Nb3 Be6 f3 Be7 Qd2 O-O O-O-O Nbd7",
	}
	for _, line := range lines {
		b := NewBoard()
		ref := chesslib.NewGame()
		for _, tok := range strings.Fields(line) {
			rec, err := b.ApplySAN(tok)
			if err != nil {
				t.Fatalf("%s: ApplySAN(%q): %v", line, tok, err)
			}
			if err := ref.PushNotationMove(tok, chesslib.AlgebraicNotation{}, nil); err != nil {
				t.Fatalf("%s: reference rejected %q: %v", line, tok, err)
			}
			if rec.SAN() != tok {
				t.Fatalf("%s: rendered %q, want %q", line, rec.SAN(), tok)
			}
			got := strings.Fields(b.FEN())[:3]
			want := strings.Fields(ref.FEN())[:3]
			if strings.Join(got, " ") != strings.Join(want, " ") {
				t.Fatalf("%s: after %q fen %v, reference %v", line, tok, got, want)
			}
		}
	}
}
