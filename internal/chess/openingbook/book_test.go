package openingbook

import (
	"bytes"
	"encoding/binary"
	"sort"
	"strings"
	"testing"

	chesslib "github.com/corentings/chess/v2"
)

type rawEntry struct {
	key    uint64
	move   uint16
	weight uint16
}

func polyMove(uci string) uint16 {
	sq := func(s string) uint16 {
		return uint16(s[0]-'a') | uint16(s[1]-'1')<<3
	}
	return sq(uci[2:4]) | sq(uci[0:2])<<6
}

func keyAfter(t *testing.T, moves ...string) uint64 {
	t.Helper()
	game := chesslib.NewGame()
	for _, mv := range moves {
		if err := game.PushNotationMove(mv, chesslib.UCINotation{}, nil); err != nil {
			t.Fatalf("push %s: %v", mv, err)
		}
	}
	hash, err := chesslib.NewZobristHasher().HashPosition(game.FEN())
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return chesslib.ZobristHashToUint64(hash)
}

func testBook(t *testing.T) *chesslib.PolyglotBook {
	t.Helper()
	entries := []rawEntry{
		{keyAfter(t), polyMove("e2e4"), 10},
		{keyAfter(t), polyMove("d2d4"), 5},
		{keyAfter(t), polyMove("g1f3"), 0},
		{keyAfter(t, "e2e4"), polyMove("e7e5"), 3},
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	var buf bytes.Buffer
	for _, e := range entries {
		_ = binary.Write(&buf, binary.BigEndian, e.key)
		_ = binary.Write(&buf, binary.BigEndian, e.move)
		_ = binary.Write(&buf, binary.BigEndian, e.weight)
		_ = binary.Write(&buf, binary.BigEndian, uint32(0))
	}
	book, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return book
}

func TestLinesWalksBook(t *testing.T) {
	lines, err := Lines(testBook(t), Options{MaxPly: 4})
	if err != nil {
		t.Fatalf("Lines: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if got := strings.Join(lines[0].SAN(), " "); got != "e4 e5" {
		t.Fatalf("first line = %q", got)
	}
	if lines[0].TotalWeight != 13 || lines[0].Moves[1].Color != "black" {
		t.Fatalf("first line %+v", lines[0])
	}
	if got := strings.Join(lines[1].SAN(), " "); got != "d4" {
		t.Fatalf("second line = %q", got)
	}
}

func TestLinesRespectsLimits(t *testing.T) {
	book := testBook(t)
	lines, err := Lines(book, Options{MaxPly: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 || len(lines[0].Moves) != 1 {
		t.Fatalf("MaxPly 1 gave %+v", lines)
	}

	lines, err = Lines(book, Options{MaxPly: 4, MinWeight: 6})
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || strings.Join(lines[0].SAN(), " ") != "e4" {
		t.Fatalf("MinWeight 6 gave %+v", lines)
	}

	lines, err = Lines(book, Options{MaxPly: 4, Prefix: []string{"e4"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || strings.Join(lines[0].SAN(), " ") != "e4 e5" {
		t.Fatalf("prefix gave %+v", lines)
	}

	if _, err := Lines(book, Options{Prefix: []string{"e5"}}); err == nil {
		t.Fatal("illegal prefix accepted")
	}
}

func TestLabel(t *testing.T) {
	code, title := Label([]string{"e4", "e5", "Nf3", "Nc6", "Bb5"})
	if !strings.HasPrefix(code, "C") || title == "" {
		t.Fatalf("label = %q %q", code, title)
	}
	if code, _ := Label(nil); code != "" {
		t.Fatalf("empty line labelled %q", code)
	}
	if code, _ := Label([]string{"e4", "Ke7", "Kf9"}); code != "" {
		t.Fatalf("broken line labelled %q", code)
	}
}

func TestSourceRequiresPath(t *testing.T) {
	src := NewSource("  ")
	if src.Configured() {
		t.Fatal("blank path configured")
	}
	if _, err := src.Book(); err == nil {
		t.Fatal("expected error")
	}
	if _, err := NewSource(t.TempDir() + "/missing.bin").Book(); err == nil {
		t.Fatal("missing file loaded")
	}
}
