package repertoire

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/park285/Cheese-opening-trainer/internal/chess"
)

func line(t *testing.T, text string) []Step {
	t.Helper()
	steps, err := BuildLine(Tokens(text))
	if err != nil {
		t.Fatalf("BuildLine(%q): %v", text, err)
	}
	return steps
}

func sampleTree(t *testing.T) *Tree {
	t.Helper()
	tr := NewTree()
	tr.Insert(line(t, "e4 e5 Nf3 Nc6 Bb5"))
	tr.Insert(line(t, "e4 e5 Nf3 Nf6"))
	tr.Insert(line(t, "e4 c5"))
	tr.Insert(line(t, "d4 d5 c4"))
	return tr
}

func TestInsertSharesPrefixes(t *testing.T) {
	tr := sampleTree(t)
	if got := tr.Len(); got != 11 {
		t.Fatalf("Len = %d, want 11", got)
	}
	root := tr.Node(Root)
	if root.Notation != StartNotation || len(root.Children) != 2 {
		t.Fatalf("unexpected root %+v", root)
	}
	e4, ok := tr.Child(Root, "e4")
	if !ok {
		t.Fatal("e4 missing")
	}
	if n := tr.Node(e4); n.Color != chess.White || n.Hint1 != "e2" || n.Hint2 != "e4" {
		t.Fatalf("unexpected e4 node %+v", n)
	}
	if got := tr.Line(tr.Children(e4)[0]); !reflect.DeepEqual(got, []string{"e4", "e5"}) {
		t.Fatalf("first child line = %v", got)
	}
}

func TestInsertIsIdempotent(t *testing.T) {
	tr := sampleTree(t)
	before := Marshal(&Repertoire{Tree: tr, Depth: -1, EvolutionAcceleration: 1})
	tr.Insert(line(t, "e4 e5 Nf3 Nc6 Bb5"))
	tr.Insert(line(t, "e4 c5"))
	after := Marshal(&Repertoire{Tree: tr, Depth: -1, EvolutionAcceleration: 1})
	if before != after {
		t.Fatalf("re-inserting changed the tree:\n%s\n---\n%s", before, after)
	}
}

func TestLeafChains(t *testing.T) {
	tr := sampleTree(t)
	var lines []string
	for _, chain := range tr.LeafChains() {
		lines = append(lines, strings.Join(tr.Line(chain[len(chain)-1]), " "))
	}
	want := []string{"e4 e5 Nf3 Nc6 Bb5", "e4 e5 Nf3 Nf6", "e4 c5", "d4 d5 c4"}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("leaf chains = %v, want %v", lines, want)
	}

	nf3, _ := tr.Find([]string{"e4", "e5", "Nf3"})
	if got := len(tr.LeafChainsFrom(nf3)); got != 2 {
		t.Fatalf("chains below Nf3 = %d, want 2", got)
	}
	if d := tr.Depth(nf3); d != 3 {
		t.Fatalf("Depth(Nf3) = %d", d)
	}
	if d := tr.MaxDepth(Root); d != 5 {
		t.Fatalf("MaxDepth(root) = %d", d)
	}
}

func TestRemoveBranch(t *testing.T) {
	tr := sampleTree(t)
	e5, _ := tr.Find([]string{"e4", "e5"})
	if err := tr.RemoveBranch(e5); err != nil {
		t.Fatal(err)
	}
	if _, ok := tr.Find([]string{"e4", "e5", "Nf3"}); ok {
		t.Fatal("removed branch still reachable")
	}
	if tr.Node(e5) != nil {
		t.Fatal("removed node still returned")
	}
	if got := len(tr.LeafChains()); got != 2 {
		t.Fatalf("leaf chains = %d, want 2", got)
	}
	if err := tr.RemoveBranch(Root); !errors.Is(err, ErrRootRemove) {
		t.Fatalf("removing root err = %v", err)
	}
	if err := tr.RemoveBranch(e5); !errors.Is(err, ErrNoNode) {
		t.Fatalf("removing twice err = %v", err)
	}

	// tombstones are not written out
	r := New()
	r.Tree = tr
	back, err := Unmarshal(Marshal(r), nil)
	if err != nil {
		t.Fatal(err)
	}
	if back.Tree.Len() != tr.Len() {
		t.Fatalf("decoded %d nodes, want %d", back.Tree.Len(), tr.Len())
	}
}

func TestCombine(t *testing.T) {
	a := NewTree()
	a.Insert(line(t, "e4 e5 Nf3"))
	b := NewTree()
	b.Insert(line(t, "e4 e5 Bc4"))
	b.Insert(line(t, "c4"))
	a.Combine(b)
	a.Combine(b)
	if got := len(a.LeafChains()); got != 3 {
		t.Fatalf("leaf chains = %d, want 3", got)
	}
	if a.Len() != 6 {
		t.Fatalf("Len = %d, want 6", a.Len())
	}
}

func TestCodecRoundTrip(t *testing.T) {
	r := New()
	r.Color = chess.Black
	r.Depth = 3
	r.DepthType = EvolutionMode
	r.Stats = ByBranch
	r.Method = RepeatVariationOnFailed
	r.EvolutionAcceleration = 2
	r.Tree = sampleTree(t)

	text := Marshal(r)
	if !strings.HasPrefix(text, "4\nB\n3\nEvolutionMode\nByBranch\nRepeatVariationOnFailed\n2\n-: \n hint1: \n hint2: \n Move: Start Position\n Count: 2\n") {
		t.Fatalf("unexpected header:\n%s", text)
	}
	back, err := Unmarshal(text, nil)
	if err != nil {
		t.Fatal(err)
	}
	if back.Color != r.Color || back.Depth != r.Depth || back.DepthType != r.DepthType ||
		back.Stats != r.Stats || back.Method != r.Method || back.EvolutionAcceleration != r.EvolutionAcceleration {
		t.Fatalf("options drifted: %+v", back)
	}
	if Marshal(back) != text {
		t.Fatalf("second encoding differs")
	}
	bb5, ok := back.Tree.Find([]string{"e4", "e5", "Nf3", "Nc6", "Bb5"})
	if !ok {
		t.Fatal("Bb5 line lost")
	}
	if n := back.Tree.Node(bb5); n.Color != chess.White || n.Hint1 != "f1" || n.Hint2 != "b5" {
		t.Fatalf("unexpected Bb5 node %+v", n)
	}
}

func TestDecodeOlderVersions(t *testing.T) {
	v1 := "1\nW\n-1\nByMoveCount\n-: \n hint1: \n hint2: \n Move: Start Position\n Count: 1\n" +
		"-: \n hint1: e2\n hint2: e4\n Move: e4\n Count: 0\n"
	r, err := Unmarshal(v1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.DepthType != ByMoveCount || r.Stats != ByMove || r.Method != RunOnce || r.EvolutionAcceleration != 1 {
		t.Fatalf("defaults not applied: %+v", r)
	}
	if _, ok := r.Tree.Find([]string{"e4"}); !ok {
		t.Fatal("e4 missing")
	}

	v3 := "3\nB\n2\nMarathonMode\nByVariation\nReplayFailedMoves\n-: \n hint1: \n hint2: \n Move: Start Position\n Count: 0\n"
	r, err = Unmarshal(v3, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.Color != chess.Black || r.Method != ReplayFailedMoves || r.Stats != ByVariation || r.EvolutionAcceleration != 1 {
		t.Fatalf("unexpected v3 decode %+v", r)
	}
}

func TestDecodeUnknownDepthTypeWarns(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	text := "2\nW\n5\nSomethingElse\nByMove\n-: \n hint1: \n hint2: \n Move: Start Position\n Count: 0\n"
	r, err := Decode(strings.NewReader(text), zap.New(core))
	if err != nil {
		t.Fatal(err)
	}
	if r.DepthType != ByCompleteVariation {
		t.Fatalf("depth type = %v", r.DepthType)
	}
	if logs.FilterMessage("repertoire_depth_type_unknown").Len() != 1 {
		t.Fatalf("warning not logged: %v", logs.All())
	}
}

func TestDecodeDuplicateSiblingWarns(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	text := "1\nW\n-1\nByMoveCount\n-: \n hint1: \n hint2: \n Move: Start Position\n Count: 2\n" +
		"-: \n hint1: \n hint2: \n Move: e4\n Count: 1\n" +
		"-: \n hint1: \n hint2: \n Move: e5\n Count: 0\n" +
		"-: \n hint1: \n hint2: \n Move: e4\n Count: 1\n" +
		"-: \n hint1: \n hint2: \n Move: c5\n Count: 0\n"
	r, err := Decode(strings.NewReader(text), zap.New(core))
	if err != nil {
		t.Fatal(err)
	}
	if got := len(r.Tree.Children(Root)); got != 1 {
		t.Fatalf("root children = %d, want 1", got)
	}
	e4, _ := r.Tree.Find([]string{"e4"})
	if got := len(r.Tree.Children(e4)); got != 2 {
		t.Fatalf("e4 children = %d, want 2 after merge", got)
	}
	entries := logs.FilterMessage("repertoire_duplicate_sibling").All()
	if len(entries) != 1 {
		t.Fatalf("duplicate warning count = %d: %v", len(entries), logs.All())
	}
	if move := entries[0].ContextMap()["move"]; move != "e4" {
		t.Fatalf("move field = %v", move)
	}
}

func TestCountersPreOrderRestore(t *testing.T) {
	tr := sampleTree(t)
	nf3, _ := tr.Find([]string{"e4", "e5", "Nf3"})
	n := tr.Node(nf3)
	n.TimesGuessed, n.TimesCorrect = 3, 2
	n.VariationTimesGuessed, n.VariationTimesCorrect = 1, 1

	cs := tr.CountersPreOrder()
	if len(cs) != tr.Len() {
		t.Fatalf("counters = %d, want %d", len(cs), tr.Len())
	}

	r := New()
	r.Tree = tr
	back, err := Unmarshal(Marshal(r), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := back.Tree.RestoreCounters(cs); err != nil {
		t.Fatal(err)
	}
	id, _ := back.Tree.Find([]string{"e4", "e5", "Nf3"})
	if got := back.Tree.Node(id); got.TimesGuessed != 3 || got.TimesCorrect != 2 || got.VariationTimesCorrect != 1 {
		t.Fatalf("counters not restored: %+v", got)
	}

	if err := back.Tree.RestoreCounters(cs[:2]); !errors.Is(err, ErrFormat) {
		t.Fatalf("short slice err = %v, want ErrFormat", err)
	}
	if got := back.Tree.Node(id); got.TimesGuessed != 3 {
		t.Fatalf("rejected restore changed counters: %+v", got)
	}
}

func TestCopyCountersMatchesLines(t *testing.T) {
	src := sampleTree(t)
	c5, _ := src.Find([]string{"e4", "c5"})
	src.Node(c5).TimesCorrect = 4
	d4, _ := src.Find([]string{"d4"})
	src.Node(d4).TimesGuessed = 2

	dst := NewTree()
	dst.Insert(line(t, "d4 d5 c4"))
	dst.Insert(line(t, "e4 c5"))
	dst.CopyCounters(src)

	id, _ := dst.Find([]string{"e4", "c5"})
	if dst.Node(id).TimesCorrect != 4 {
		t.Fatalf("c5 counters = %+v", dst.Node(id))
	}
	id, _ = dst.Find([]string{"d4"})
	if dst.Node(id).TimesGuessed != 2 {
		t.Fatalf("d4 counters = %+v", dst.Node(id))
	}
	if dst.Len() != 6 {
		t.Fatalf("CopyCounters grew the tree: Len = %d", dst.Len())
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := map[string]string{
		"empty":           "",
		"bad version":     "x\n",
		"bad color":       "4\nX\n",
		"missing tree":    "4\nW\n-1\nByMoveCount\nByMove\nRunOnce\n1\n",
		"bad stats":       "2\nW\n-1\nByMoveCount\nNope\n",
		"truncated child": "1\nW\n-1\nByMoveCount\n-: \n hint1: \n hint2: \n Move: Start Position\n Count: 2\n-: \n hint1: \n hint2: \n Move: e4\n Count: 0\n",
		"bad count":       "1\nW\n-1\nByMoveCount\n-: \n hint1: \n hint2: \n Move: Start Position\n Count: many\n",
		"bad marker":      "1\nW\n-1\nByMoveCount\n+: \n",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Unmarshal(text, nil); !errors.Is(err, ErrFormat) {
				t.Fatalf("err = %v, want ErrFormat", err)
			}
		})
	}
}

func TestNodeStatsViews(t *testing.T) {
	r := New()
	r.Tree = sampleTree(t)
	e4, _ := r.Tree.Find([]string{"e4"})
	e5, _ := r.Tree.Find([]string{"e4", "e5"})
	r.Tree.Node(e4).TimesCorrect, r.Tree.Node(e4).TimesGuessed = 1, 2
	r.Tree.Node(e5).TimesCorrect, r.Tree.Node(e5).TimesGuessed = 3, 3
	r.Tree.Node(e4).VariationTimesCorrect, r.Tree.Node(e4).VariationTimesGuessed = 4, 5

	check := func(view StatsView, wantC, wantG int) {
		t.Helper()
		r.Stats = view
		c, g := r.NodeStats(e4)
		if c != wantC || g != wantG {
			t.Fatalf("%v: got %d/%d, want %d/%d", view, c, g, wantC, wantG)
		}
	}
	check(ByMove, 1, 2)
	check(ByBranch, 4, 5)
	check(ByVariation, 4, 5)
}

func TestTokens(t *testing.T) {
	got := Tokens("1. e4 e5 2.Nf3 {a comment} Nc6 (2... d6) 3. Bb5 $1 a6 1-0")
	want := []string{"e4", "e5", "Nf3", "Nc6", "Bb5", "a6"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokens = %v, want %v", got, want)
	}
}

func TestBuildLineAcceptsCoordinates(t *testing.T) {
	steps, err := BuildLine([]string{"e2e4", "e7e5", "g1f3"})
	if err != nil {
		t.Fatal(err)
	}
	if steps[2].Notation != "Nf3" || steps[2].Hint1 != "g1" {
		t.Fatalf("unexpected step %+v", steps[2])
	}
	if _, err := BuildLine([]string{"e4", "e4"}); err == nil {
		t.Fatal("illegal line accepted")
	}
}
