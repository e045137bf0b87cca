// Command repertoire inspects and edits repertoire files offline.
//
//	repertoire check <file>...
//	repertoire tree [-depth n] <file> [moves...]
//	repertoire add <file> <moves...>
//	repertoire merge <dst> <src>
//	repertoire book -book <path> [-plies n] [-min-weight w] <file> [moves...]
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/park285/Cheese-opening-trainer/internal/chess/openingbook"
	"github.com/park285/Cheese-opening-trainer/internal/obslog"
	"github.com/park285/Cheese-opening-trainer/internal/repertoire"
	"go.uber.org/zap"
)

var errUsage = errors.New("usage")

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer obslog.Sync()

	err := run(os.Args[1:], os.Stdout, obslog.L())
	if errors.Is(err, errUsage) {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
		obslog.Sync()
		os.Exit(1)
	}
}

const usage = `usage:
  repertoire check <file>...
  repertoire tree [-depth n] <file> [moves...]
  repertoire add <file> <moves...>
  repertoire merge <dst> <src>
  repertoire book -book <path> [-plies n] [-min-weight w] <file> [moves...]`

func run(args []string, out io.Writer, logger *zap.Logger) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]
	switch cmd {
	case "check":
		return runCheck(args, out, logger)
	case "tree":
		return runTree(args, out, logger)
	case "add":
		return runAdd(args, out, logger)
	case "merge":
		return runMerge(args, out, logger)
	case "book":
		return runBook(args, out, logger)
	default:
		return errUsage
	}
}

func runCheck(args []string, out io.Writer, logger *zap.Logger) error {
	if len(args) == 0 {
		return errUsage
	}
	failed := 0
	for _, path := range args {
		rep, err := load(path, logger)
		if err != nil {
			color.New(color.FgRed).Fprintf(out, "✗ %s: %v\n", path, err)
			failed++
			continue
		}
		color.New(color.FgGreen).Fprintf(out, "✓ %s", path)
		fmt.Fprintf(out, " %s\n", summary(rep))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

func runTree(args []string, out io.Writer, logger *zap.Logger) error {
	fs := flag.NewFlagSet("tree", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	depth := fs.Int("depth", 0, "stop after this many moves below the selected node (0 = all)")
	if err := fs.Parse(args); err != nil || fs.NArg() < 1 {
		return errUsage
	}
	rep, err := load(fs.Arg(0), logger)
	if err != nil {
		return err
	}
	path, err := canonical(fs.Args()[1:])
	if err != nil {
		return err
	}
	at, ok := rep.Tree.Find(path)
	if !ok {
		return fmt.Errorf("%s: line not in repertoire", strings.Join(path, " "))
	}
	fmt.Fprintln(out, summary(rep))
	printTree(out, rep, at, *depth)
	return nil
}

func runAdd(args []string, out io.Writer, logger *zap.Logger) error {
	if len(args) < 2 {
		return errUsage
	}
	rep, err := load(args[0], logger)
	if err != nil {
		return err
	}
	steps, err := repertoire.BuildLine(repertoire.Tokens(strings.Join(args[1:], " ")))
	if err != nil {
		return err
	}
	rep.Tree.Insert(steps)
	if err := save(args[0], rep); err != nil {
		return err
	}
	line := make([]string, len(steps))
	for i, s := range steps {
		line[i] = s.Notation
	}
	color.New(color.FgGreen).Fprintf(out, "+ %s\n", strings.Join(line, " "))
	return nil
}

func runMerge(args []string, out io.Writer, logger *zap.Logger) error {
	if len(args) != 2 {
		return errUsage
	}
	dst, err := load(args[0], logger)
	if err != nil {
		return err
	}
	src, err := load(args[1], logger)
	if err != nil {
		return err
	}
	before := len(dst.Tree.LeafChains())
	dst.Tree.Combine(src.Tree)
	if err := save(args[0], dst); err != nil {
		return err
	}
	fmt.Fprintf(out, "merged %s into %s: %d -> %d lines\n", args[1], args[0], before, len(dst.Tree.LeafChains()))
	return nil
}

func runBook(args []string, out io.Writer, logger *zap.Logger) error {
	fs := flag.NewFlagSet("book", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	bookPath := fs.String("book", os.Getenv("OPENING_BOOK_PATH"), "polyglot book file")
	plies := fs.Int("plies", openingbook.DefaultMaxPly, "maximum line length in plies")
	minWeight := fs.Uint("min-weight", 1, "skip book moves below this weight")
	maxLines := fs.Int("max-lines", openingbook.DefaultMaxLines, "stop after this many lines")
	if err := fs.Parse(args); err != nil || fs.NArg() < 1 || *bookPath == "" {
		return errUsage
	}
	if *minWeight > 0xffff {
		return fmt.Errorf("min-weight %d out of range", *minWeight)
	}
	rep, err := load(fs.Arg(0), logger)
	if err != nil {
		return err
	}
	prefix, err := canonical(fs.Args()[1:])
	if err != nil {
		return err
	}
	book, err := openingbook.LoadFromPath(*bookPath)
	if err != nil {
		return err
	}
	lines, err := openingbook.Lines(book, openingbook.Options{
		MaxPly:    *plies,
		MinWeight: uint16(*minWeight),
		MaxLines:  *maxLines,
		Prefix:    prefix,
	})
	if err != nil {
		return err
	}
	added := 0
	for _, l := range lines {
		steps, err := repertoire.BuildLine(l.SAN())
		if err != nil {
			logger.Warn("book_line_skipped", zap.Strings("line", l.SAN()), zap.Error(err))
			continue
		}
		rep.Tree.Insert(steps)
		added++
	}
	if err := save(fs.Arg(0), rep); err != nil {
		return err
	}
	fmt.Fprintf(out, "added %d book lines to %s\n", added, fs.Arg(0))
	return nil
}

func load(path string, logger *zap.Logger) (*repertoire.Repertoire, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rep, err := repertoire.Decode(f, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rep, nil
}

// save replaces path through a temp file so a failed write keeps the old copy.
func save(path string, rep *repertoire.Repertoire) error {
	var buf bytes.Buffer
	if err := repertoire.Encode(&buf, rep); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func canonical(args []string) ([]string, error) {
	tokens := repertoire.Tokens(strings.Join(args, " "))
	if len(tokens) == 0 {
		return nil, nil
	}
	steps, err := repertoire.BuildLine(tokens)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.Notation
	}
	return out, nil
}
