package trainer

import (
	"github.com/park285/Cheese-opening-trainer/internal/repertoire"
)

// Variation is one drillable line: the full chain from the first move of the
// game down to its last node.
type Variation struct {
	Moves                   []repertoire.NodeID
	Cursor                  int
	WasPerfect              bool
	WasPerfectThisIteration bool
}

func newVariation(tr *repertoire.Tree, last repertoire.NodeID) *Variation {
	return &Variation{Moves: tr.Chain(last), WasPerfect: true, WasPerfectThisIteration: true}
}

func (v *Variation) last() repertoire.NodeID {
	if len(v.Moves) == 0 {
		return repertoire.Root
	}
	return v.Moves[len(v.Moves)-1]
}

// policy builds sessions for one trainer type.
type policy interface {
	setup()
	build(from repertoire.NodeID) []*Variation
	// rebuild is called once the queue is exhausted; nil ends the run.
	rebuild(from repertoire.NodeID) []*Variation
	failed()
	describe(*Status)
}

func newPolicy(rep *repertoire.Repertoire) policy {
	switch rep.DepthType {
	case repertoire.ByMoveCount:
		return &moveCountPolicy{rep: rep}
	case repertoire.MarathonMode:
		return &marathonPolicy{rep: rep}
	case repertoire.MarathonUnique:
		return &marathonPolicy{rep: rep, unique: true}
	case repertoire.EvolutionMode:
		return &evolutionPolicy{rep: rep}
	}
	return &completeVariationPolicy{rep: rep}
}

func resetNode(n *repertoire.Node) {
	n.TimesGuessed, n.TimesCorrect = 0, 0
	n.VariationTimesGuessed, n.VariationTimesCorrect = 0, 0
}

// completeVariationPolicy collects up to Depth full lines.
type completeVariationPolicy struct {
	rep *repertoire.Repertoire
}

func (p *completeVariationPolicy) setup()           {}
func (p *completeVariationPolicy) failed()          {}
func (p *completeVariationPolicy) describe(*Status) {}

func (p *completeVariationPolicy) rebuild(repertoire.NodeID) []*Variation { return nil }

func (p *completeVariationPolicy) build(from repertoire.NodeID) []*Variation {
	tr := p.rep.Tree
	limit := p.rep.Depth
	var out []*Variation
	tr.Walk(from, func(id repertoire.NodeID, _ int) bool {
		n := tr.Node(id)
		resetNode(n)
		if limit > 0 && len(out) >= limit {
			return false
		}
		if len(n.Children) == 0 && id != repertoire.Root {
			out = append(out, newVariation(tr, id))
		}
		return true
	})
	return out
}

// moveCountPolicy cuts every branch Depth moves below the start node.
type moveCountPolicy struct {
	rep *repertoire.Repertoire
}

func (p *moveCountPolicy) setup()           {}
func (p *moveCountPolicy) failed()          {}
func (p *moveCountPolicy) describe(*Status) {}

func (p *moveCountPolicy) rebuild(repertoire.NodeID) []*Variation { return nil }

func (p *moveCountPolicy) build(from repertoire.NodeID) []*Variation {
	out, _ := cutAt(p.rep.Tree, from, p.rep.Depth)
	return out
}

// cutAt collects the chains of nodes at exactly depth below from, plus any
// shallower leaf. depth <= 0 collects every leaf. maxSeen is the deepest
// distance visited.
func cutAt(tr *repertoire.Tree, from repertoire.NodeID, depth int) (out []*Variation, maxSeen int) {
	tr.Walk(from, func(id repertoire.NodeID, d int) bool {
		if d > maxSeen {
			maxSeen = d
		}
		n := tr.Node(id)
		resetNode(n)
		if id == repertoire.Root && len(n.Children) == 0 {
			return false
		}
		if (depth > 0 && d == depth) || len(n.Children) == 0 {
			out = append(out, newVariation(tr, id))
			return false
		}
		return true
	})
	return out, maxSeen
}

// marathonPolicy raises the cut depth by one after every session and
// replays the same depth when the session had a failure.
type marathonPolicy struct {
	rep    *repertoire.Repertoire
	unique bool

	index      int
	cut        int
	failedFlag bool
	maxSeen    int
}

func (p *marathonPolicy) setup() {
	p.index = max(p.rep.Depth, 1)
	p.maxSeen = 0
}

func (p *marathonPolicy) failed() { p.failedFlag = true }

func (p *marathonPolicy) build(from repertoire.NodeID) []*Variation {
	p.failedFlag = false
	p.cut = p.index
	out, maxSeen := cutAt(p.rep.Tree, from, p.cut)
	p.maxSeen = maxSeen
	p.index++

	if p.unique {
		base := p.rep.Tree.Depth(from)
		kept := out[:0]
		for _, v := range out {
			if len(v.Moves)-base == p.cut {
				kept = append(kept, v)
			}
		}
		out = kept
	}
	return out
}

func (p *marathonPolicy) rebuild(from repertoire.NodeID) []*Variation {
	if p.failedFlag {
		p.index--
	}
	out := p.build(from)
	if len(out) == 0 || p.index-1 > p.maxSeen {
		return nil
	}
	return out
}

func (p *marathonPolicy) describe(s *Status) { s.MarathonDepth = p.cut }

// evolutionPolicy grows every perfectly played line into its continuations
// and replays the others unchanged.
type evolutionPolicy struct {
	rep *repertoire.Repertoire

	initialized bool
	current     []*Variation
	redos       int
}

func (p *evolutionPolicy) setup() {
	p.initialized = false
	p.current = nil
	p.redos = 0
}

func (p *evolutionPolicy) failed() { p.redos++ }

func (p *evolutionPolicy) acceleration() int {
	if p.rep.EvolutionAcceleration <= 0 {
		return 1
	}
	return p.rep.EvolutionAcceleration
}

func (p *evolutionPolicy) evolve(tr *repertoire.Tree, parent repertoire.NodeID, limit int, out []*Variation) []*Variation {
	var walk func(id repertoire.NodeID, d int)
	walk = func(id repertoire.NodeID, d int) {
		n := tr.Node(id)
		if d >= limit || len(n.Children) == 0 {
			out = append(out, newVariation(tr, id))
			return
		}
		for _, c := range n.Children {
			walk(c, d+1)
		}
	}
	for _, c := range tr.Children(parent) {
		walk(c, 1)
	}
	return out
}

func (p *evolutionPolicy) build(from repertoire.NodeID) []*Variation {
	tr := p.rep.Tree
	if !p.initialized {
		p.current = p.evolve(tr, from, p.rep.Depth, nil)
		p.initialized = true
	} else {
		var next []*Variation
		for _, v := range p.current {
			if v.WasPerfectThisIteration {
				next = p.evolve(tr, v.last(), p.acceleration(), next)
				continue
			}
			next = append(next, newVariation(tr, v.last()))
		}
		p.current = next
	}
	return append([]*Variation(nil), p.current...)
}

func (p *evolutionPolicy) rebuild(from repertoire.NodeID) []*Variation {
	out := p.build(from)
	if len(out) == 0 {
		return nil
	}
	return out
}

func (p *evolutionPolicy) describe(s *Status) { s.Redos = p.redos }
