package repertoire

import (
	"errors"
	"fmt"

	"github.com/park285/Cheese-opening-trainer/internal/chess"
)

// NodeID is a handle into a Tree's node arena.
type NodeID int

const (
	Root   NodeID = 0
	NoNode NodeID = -1
)

// StartNotation is the notation carried by the root sentinel.
const StartNotation = "Start Position"

var (
	ErrNoNode     = errors.New("repertoire: node not found")
	ErrRootRemove = errors.New("repertoire: the start position cannot be removed")
)

// Node is one move of the repertoire. Color is the side that played it; the
// root is treated as Black so that its children are White moves.
type Node struct {
	Parent   NodeID
	Children []NodeID
	Notation string
	Hint1    string
	Hint2    string
	Color    chess.Color

	TimesGuessed          int
	TimesCorrect          int
	VariationTimesGuessed int
	VariationTimesCorrect int

	removed bool
}

// Step is one move of a line being inserted.
type Step struct {
	Notation string
	Hint1    string
	Hint2    string
}

// Tree stores nodes in an arena; parent and child links are ids. Removed
// branches are tombstoned and skipped by every traversal.
type Tree struct {
	nodes []Node
}

func NewTree() *Tree {
	return &Tree{nodes: []Node{{Parent: NoNode, Notation: StartNotation, Color: chess.Black}}}
}

func (t *Tree) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes) && !t.nodes[id].removed
}

// Node returns the node for id, or nil when it does not exist.
func (t *Tree) Node(id NodeID) *Node {
	if !t.valid(id) {
		return nil
	}
	return &t.nodes[id]
}

func (t *Tree) Children(id NodeID) []NodeID {
	if !t.valid(id) {
		return nil
	}
	return append([]NodeID(nil), t.nodes[id].Children...)
}

// Len counts reachable nodes, the root included.
func (t *Tree) Len() int {
	n := 0
	t.Walk(Root, func(NodeID, int) bool { n++; return true })
	return n
}

// Child finds the child of id with the given notation.
func (t *Tree) Child(id NodeID, notation string) (NodeID, bool) {
	if !t.valid(id) {
		return NoNode, false
	}
	for _, c := range t.nodes[id].Children {
		if t.nodes[c].Notation == notation {
			return c, true
		}
	}
	return NoNode, false
}

func (t *Tree) addChild(parent NodeID, s Step) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, Node{
		Parent:   parent,
		Notation: s.Notation,
		Hint1:    s.Hint1,
		Hint2:    s.Hint2,
		Color:    t.nodes[parent].Color.Other(),
	})
	t.nodes[parent].Children = append(t.nodes[parent].Children, id)
	return id
}

// Insert adds a line from the root and returns its last node.
func (t *Tree) Insert(steps []Step) NodeID {
	return t.InsertAt(Root, steps)
}

// InsertAt walks matching children from at and branches off at the first
// step that has no matching child. Existing hints are kept; missing ones are
// filled in.
func (t *Tree) InsertAt(at NodeID, steps []Step) NodeID {
	if !t.valid(at) {
		return NoNode
	}
	cur := at
	for _, s := range steps {
		if next, ok := t.Child(cur, s.Notation); ok {
			n := &t.nodes[next]
			if n.Hint1 == "" {
				n.Hint1 = s.Hint1
			}
			if n.Hint2 == "" {
				n.Hint2 = s.Hint2
			}
			cur = next
			continue
		}
		cur = t.addChild(cur, s)
	}
	return cur
}

// Chain returns the nodes from the first move down to id, root excluded.
func (t *Tree) Chain(id NodeID) []NodeID {
	if !t.valid(id) {
		return nil
	}
	var rev []NodeID
	for cur := id; cur != Root && cur != NoNode; cur = t.nodes[cur].Parent {
		rev = append(rev, cur)
	}
	out := make([]NodeID, len(rev))
	for i, n := range rev {
		out[len(rev)-1-i] = n
	}
	return out
}

// Line returns the notation of Chain(id).
func (t *Tree) Line(id NodeID) []string {
	chain := t.Chain(id)
	out := make([]string, len(chain))
	for i, n := range chain {
		out[i] = t.nodes[n].Notation
	}
	return out
}

// Steps returns Chain(id) as insertable steps.
func (t *Tree) Steps(id NodeID) []Step {
	chain := t.Chain(id)
	out := make([]Step, len(chain))
	for i, n := range chain {
		nd := t.nodes[n]
		out[i] = Step{Notation: nd.Notation, Hint1: nd.Hint1, Hint2: nd.Hint2}
	}
	return out
}

// Find follows a notation path from the root.
func (t *Tree) Find(path []string) (NodeID, bool) {
	cur := Root
	for _, san := range path {
		next, ok := t.Child(cur, san)
		if !ok {
			return NoNode, false
		}
		cur = next
	}
	return cur, true
}

// Depth is the number of moves between the root and id.
func (t *Tree) Depth(id NodeID) int {
	return len(t.Chain(id))
}

// MaxDepth is the distance from id to its deepest descendant.
func (t *Tree) MaxDepth(id NodeID) int {
	best := 0
	t.Walk(id, func(_ NodeID, d int) bool {
		if d > best {
			best = d
		}
		return true
	})
	return best
}

// Walk visits id and its descendants in pre-order with their distance from
// id. Returning false from fn skips the children of that node.
func (t *Tree) Walk(id NodeID, fn func(id NodeID, depth int) bool) {
	if !t.valid(id) {
		return
	}
	var visit func(NodeID, int)
	visit = func(n NodeID, d int) {
		if !fn(n, d) {
			return
		}
		for _, c := range t.nodes[n].Children {
			visit(c, d+1)
		}
	}
	visit(id, 0)
}

// LeafChains lists every root-to-leaf line.
func (t *Tree) LeafChains() [][]NodeID {
	return t.LeafChainsFrom(Root)
}

// LeafChainsFrom lists the full chains of every leaf below id.
func (t *Tree) LeafChainsFrom(id NodeID) [][]NodeID {
	var out [][]NodeID
	t.Walk(id, func(n NodeID, _ int) bool {
		if len(t.nodes[n].Children) == 0 && n != Root {
			out = append(out, t.Chain(n))
		}
		return true
	})
	return out
}

// RemoveBranch detaches id and everything below it.
func (t *Tree) RemoveBranch(id NodeID) error {
	if id == Root {
		return ErrRootRemove
	}
	if !t.valid(id) {
		return ErrNoNode
	}
	parent := &t.nodes[t.nodes[id].Parent]
	for i, c := range parent.Children {
		if c == id {
			parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
			break
		}
	}
	t.Walk(id, func(n NodeID, _ int) bool {
		t.nodes[n].removed = true
		return true
	})
	t.nodes[id].removed = true
	return nil
}

// Combine inserts every line of other into t.
func (t *Tree) Combine(other *Tree) {
	if other == nil {
		return
	}
	for _, chain := range other.LeafChains() {
		t.Insert(other.Steps(chain[len(chain)-1]))
	}
}

// BranchStats sums the move counters of id and its descendants.
func (t *Tree) BranchStats(id NodeID) (correct, guessed int) {
	t.Walk(id, func(n NodeID, _ int) bool {
		correct += t.nodes[n].TimesCorrect
		guessed += t.nodes[n].TimesGuessed
		return true
	})
	return correct, guessed
}

// ResetCounters zeroes every counter below and including id.
func (t *Tree) ResetCounters(id NodeID) {
	t.Walk(id, func(n NodeID, _ int) bool {
		nd := &t.nodes[n]
		nd.TimesGuessed, nd.TimesCorrect = 0, 0
		nd.VariationTimesGuessed, nd.VariationTimesCorrect = 0, 0
		return true
	})
}

// Counters are the training counters of one node.
type Counters struct {
	Guessed          int `json:"g,omitempty"`
	Correct          int `json:"c,omitempty"`
	VariationGuessed int `json:"vg,omitempty"`
	VariationCorrect int `json:"vc,omitempty"`
}

func (n *Node) counters() Counters {
	return Counters{
		Guessed:          n.TimesGuessed,
		Correct:          n.TimesCorrect,
		VariationGuessed: n.VariationTimesGuessed,
		VariationCorrect: n.VariationTimesCorrect,
	}
}

func (n *Node) setCounters(c Counters) {
	n.TimesGuessed, n.TimesCorrect = c.Guessed, c.Correct
	n.VariationTimesGuessed, n.VariationTimesCorrect = c.VariationGuessed, c.VariationCorrect
}

// CountersPreOrder lists the counters of every reachable node in Walk order.
func (t *Tree) CountersPreOrder() []Counters {
	out := make([]Counters, 0, t.Len())
	t.Walk(Root, func(n NodeID, _ int) bool {
		out = append(out, t.nodes[n].counters())
		return true
	})
	return out
}

// RestoreCounters applies a CountersPreOrder result. A slice that does not
// match the tree's size is rejected and nothing changes.
func (t *Tree) RestoreCounters(cs []Counters) error {
	if len(cs) != t.Len() {
		return fmt.Errorf("%w: %d counters for %d nodes", ErrFormat, len(cs), t.Len())
	}
	i := 0
	t.Walk(Root, func(n NodeID, _ int) bool {
		t.nodes[n].setCounters(cs[i])
		i++
		return true
	})
	return nil
}

// CopyCounters copies the counters of src onto the nodes of t reached by the
// same line. Lines missing from t are skipped.
func (t *Tree) CopyCounters(src *Tree) {
	if src == nil {
		return
	}
	var visit func(dst, from NodeID)
	visit = func(dst, from NodeID) {
		t.nodes[dst].setCounters(src.nodes[from].counters())
		for _, c := range src.nodes[from].Children {
			if next, ok := t.Child(dst, src.nodes[c].Notation); ok {
				visit(next, c)
			}
		}
	}
	visit(Root, Root)
}

// Clone copies the reachable part of the tree; ids are preserved.
func (t *Tree) Clone() *Tree {
	cp := &Tree{nodes: make([]Node, len(t.nodes))}
	for i, n := range t.nodes {
		n.Children = append([]NodeID(nil), n.Children...)
		cp.nodes[i] = n
	}
	return cp
}
