package depgraph

// Wave is one peeling step: every node evaluated at a given depth.
type Wave struct {
	Depth int      `json:"depth"`
	Paths []string `json:"paths"`
}

// Resolution is the outcome of peeling a Graph.
type Resolution struct {
	// Isolated lists, deepest first, the paths that need their own unit.
	Isolated []string `json:"isolated"`
	Waves    []Wave   `json:"waves"`
}

// leafSet is an insertion-ordered set of node ids.
type leafSet struct {
	ids []NodeID
	in  map[NodeID]bool
}

func (s *leafSet) add(id NodeID) {
	if s.in[id] {
		return
	}
	s.in[id] = true
	s.ids = append(s.ids, id)
}

// Resolve peels g from its deepest leaves toward the roots. A node with more
// than one distinct parent is isolated into its own unit; a node with a
// single parent is absorbed by its consumer. ignore, when non-nil, keeps
// matching paths out of the result.
func Resolve(g *Graph, ignore func(string) bool) *Resolution {
	res := &Resolution{}
	set := &leafSet{in: make(map[NodeID]bool)}
	for _, id := range g.leaves {
		set.add(id)
	}
	peeled := make(map[NodeID]bool, g.Len())

	maxDepth := 0
	for _, id := range set.ids {
		if d := g.nodes[id].Depth; d > maxDepth {
			maxDepth = d
		}
	}

	for len(set.ids) > 0 {
		var wave, rest []NodeID
		for _, id := range set.ids {
			// >= rather than == so a depth left stale by a cycle still drains.
			if g.nodes[id].Depth >= maxDepth {
				wave = append(wave, id)
			} else {
				rest = append(rest, id)
			}
		}
		set.ids = rest

		if len(wave) > 0 {
			w := Wave{Depth: maxDepth, Paths: make([]string, 0, len(wave))}
			for _, id := range wave {
				n := &g.nodes[id]
				w.Paths = append(w.Paths, n.Path)
				if len(n.parents) > 1 && (ignore == nil || !ignore(n.Path)) {
					res.Isolated = append(res.Isolated, n.Path)
				}
			}
			res.Waves = append(res.Waves, w)
		}

		for _, id := range wave {
			delete(set.in, id)
			peeled[id] = true
		}
		for _, id := range wave {
			for _, p := range g.nodes[id].parents {
				if !peeled[p] {
					set.add(p)
				}
			}
		}
		maxDepth--
	}
	return res
}
