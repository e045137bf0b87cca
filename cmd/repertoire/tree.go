package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/park285/Cheese-opening-trainer/internal/chess"
	"github.com/park285/Cheese-opening-trainer/internal/chess/openingbook"
	"github.com/park285/Cheese-opening-trainer/internal/repertoire"
)

var (
	trainedColor = color.New(color.FgGreen, color.Bold)
	replyColor   = color.New(color.FgCyan)
	statsColor   = color.New(color.FgYellow)
	ecoColor     = color.New(color.Faint)
)

func summary(rep *repertoire.Repertoire) string {
	side := "white"
	if rep.Color == chess.Black {
		side = "black"
	}
	depth := "all"
	if rep.Depth >= 0 {
		depth = fmt.Sprint(rep.Depth)
	}
	return fmt.Sprintf("[%s depth=%s %s %s %s accel=%d] %d moves, %d lines, longest %d",
		side, depth, rep.DepthType, rep.Method, rep.Stats, rep.EvolutionAcceleration,
		rep.Tree.Len()-1, len(rep.Tree.LeafChains()), rep.Tree.MaxDepth(repertoire.Root))
}

// printTree dumps the subtree below at, one move per line. Trained moves are
// highlighted and a position is labelled when its ECO code differs from the
// parent's.
func printTree(w io.Writer, rep *repertoire.Repertoire, at repertoire.NodeID, maxDepth int) {
	base := rep.Tree.Depth(at)
	codes := map[repertoire.NodeID]string{}
	codes[at], _ = openingbook.Label(rep.Tree.Line(at))
	rep.Tree.Walk(at, func(id repertoire.NodeID, d int) bool {
		if id == at {
			return true
		}
		if maxDepth > 0 && d > maxDepth {
			return false
		}
		n := rep.Tree.Node(id)
		ply := base + d - 1
		label := moveNumber(ply) + n.Notation

		fmt.Fprint(w, strings.Repeat("  ", d-1))
		if rep.Trains(id) {
			trainedColor.Fprint(w, label)
		} else {
			replyColor.Fprint(w, label)
		}
		if correct, guessed := rep.NodeStats(id); guessed > 0 {
			statsColor.Fprintf(w, " %d/%d", correct, guessed)
		}
		code, title := openingbook.Label(rep.Tree.Line(id))
		codes[id] = code
		if code != "" && code != codes[n.Parent] {
			ecoColor.Fprintf(w, "  %s %s", code, title)
		}
		fmt.Fprintln(w)
		return true
	})
}

func moveNumber(ply int) string {
	if ply%2 == 0 {
		return fmt.Sprintf("%d.", ply/2+1)
	}
	return fmt.Sprintf("%d...", ply/2+1)
}
