package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/park285/Cheese-opening-trainer/internal/repertoire"
	"go.uber.org/zap"
)

func init() {
	color.NoColor = true
}

func writeRepertoire(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	rep := repertoire.New()
	for _, l := range lines {
		steps, err := repertoire.BuildLine(repertoire.Tokens(l))
		if err != nil {
			t.Fatalf("build %q: %v", l, err)
		}
		rep.Tree.Insert(steps)
	}
	path := filepath.Join(dir, name)
	if err := save(path, rep); err != nil {
		t.Fatalf("save: %v", err)
	}
	return path
}

func TestCheckAndTree(t *testing.T) {
	dir := t.TempDir()
	path := writeRepertoire(t, dir, "main.rep", "1.e4 c5 2.Nf3", "1.e4 e5 2.Nf3 Nc6")

	var out bytes.Buffer
	if err := run([]string{"check", path}, &out, zap.NewNop()); err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out.String(), "✓") || !strings.Contains(out.String(), "6 moves, 2 lines") {
		t.Fatalf("check output = %q", out.String())
	}

	out.Reset()
	if err := run([]string{"tree", path, "e2e4"}, &out, zap.NewNop()); err != nil {
		t.Fatalf("tree: %v", err)
	}
	got := out.String()
	for _, want := range []string{"1...c5", "  2.Nf3", "1...e5", "    2...Nc6", "B20"} {
		if !strings.Contains(got, want) {
			t.Fatalf("tree missing %q:\n%s", want, got)
		}
	}

	out.Reset()
	if err := run([]string{"tree", "-depth", "1", path}, &out, zap.NewNop()); err != nil {
		t.Fatalf("tree depth: %v", err)
	}
	if strings.Contains(out.String(), "c5") {
		t.Fatalf("depth limit ignored:\n%s", out.String())
	}
}

func TestCheckReportsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.rep")
	if err := os.WriteFile(bad, []byte("not a repertoire\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := run([]string{"check", bad}, &out, zap.NewNop()); err == nil {
		t.Fatalf("broken file accepted")
	}
	if !strings.Contains(out.String(), "✗") {
		t.Fatalf("check output = %q", out.String())
	}
}

func TestAddAndMerge(t *testing.T) {
	dir := t.TempDir()
	dst := writeRepertoire(t, dir, "dst.rep", "1.d4 d5")
	src := writeRepertoire(t, dir, "src.rep", "1.e4 e5", "1.d4 Nf6")

	var out bytes.Buffer
	if err := run([]string{"add", dst, "1.d4", "d5", "2.c4"}, &out, zap.NewNop()); err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out.String(), "+ d4 d5 c4") {
		t.Fatalf("add output = %q", out.String())
	}

	out.Reset()
	if err := run([]string{"merge", dst, src}, &out, zap.NewNop()); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if !strings.Contains(out.String(), "1 -> 3 lines") {
		t.Fatalf("merge output = %q", out.String())
	}

	rep, err := load(dst, zap.NewNop())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if _, ok := rep.Tree.Find([]string{"d4", "d5", "c4"}); !ok {
		t.Fatalf("added line missing")
	}
	if _, ok := rep.Tree.Find([]string{"e4", "e5"}); !ok {
		t.Fatalf("merged line missing")
	}
}

func TestUsageErrors(t *testing.T) {
	for _, args := range [][]string{nil, {"nope"}, {"add", "x"}, {"merge", "a"}, {"book", "x"}} {
		if err := run(args, &bytes.Buffer{}, zap.NewNop()); !errors.Is(err, errUsage) {
			t.Fatalf("%v: err = %v", args, err)
		}
	}
	var out bytes.Buffer
	if err := run([]string{"add", filepath.Join(t.TempDir(), "missing.rep"), "e4"}, &out, zap.NewNop()); err == nil || errors.Is(err, errUsage) {
		t.Fatalf("missing file err = %v", err)
	}
}
