package depgraph

// NodeID is the stable index of a node in its Graph's arena.
type NodeID int

// Node is one asset reachable from a shared root.
// Relations are stored as arena indices; the Graph owns every node.
type Node struct {
	Path  string
	Depth int // longest discovered distance from any root
	// Root marks a file enumerated directly from a shared folder.
	Root bool
	// Terminal marks a node inside a single-unit folder: referenced, never expanded.
	Terminal bool

	parents []NodeID // distinct dependents
	deps    []NodeID // forward, non-terminal dependencies
}

type edge struct{ from, to NodeID }

// Graph is the dependency graph of one build invocation.
// Edges point from a dependency to each of its parents.
type Graph struct {
	nodes   []Node
	index   map[string]NodeID
	parents map[edge]struct{}
	deps    map[edge]struct{}
	leaves  []NodeID
	isLeaf  map[NodeID]bool
}

// NewGraph allocates an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		index:   make(map[string]NodeID),
		parents: make(map[edge]struct{}),
		deps:    make(map[edge]struct{}),
		isLeaf:  make(map[NodeID]bool),
	}
}

// Len returns the number of nodes, terminal ones included.
func (g *Graph) Len() int { return len(g.nodes) }

// Lookup returns the node id registered for path.
func (g *Graph) Lookup(path string) (NodeID, bool) {
	id, ok := g.index[path]
	return id, ok
}

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) *Node { return &g.nodes[id] }

// Parents returns the distinct dependents of id.
func (g *Graph) Parents(id NodeID) []NodeID { return g.nodes[id].parents }

// ParentPaths returns the paths of id's dependents in discovery order.
func (g *Graph) ParentPaths(id NodeID) []string {
	out := make([]string, 0, len(g.nodes[id].parents))
	for _, p := range g.nodes[id].parents {
		out = append(out, g.nodes[p].Path)
	}
	return out
}

// Leaves returns the leaf set in insertion order.
func (g *Graph) Leaves() []NodeID {
	out := make([]NodeID, len(g.leaves))
	copy(out, g.leaves)
	return out
}

// Paths returns every node path in arena order.
func (g *Graph) Paths() []string {
	out := make([]string, len(g.nodes))
	for i := range g.nodes {
		out[i] = g.nodes[i].Path
	}
	return out
}

func (g *Graph) addNode(path string, depth int) NodeID {
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, Node{Path: path, Depth: depth})
	g.index[path] = id
	return id
}

// addParent records parent as a dependent of child, once.
func (g *Graph) addParent(child, parent NodeID) {
	e := edge{from: child, to: parent}
	if _, ok := g.parents[e]; ok {
		return
	}
	g.parents[e] = struct{}{}
	g.nodes[child].parents = append(g.nodes[child].parents, parent)
}

// addDep records a forward edge and reports whether it is new.
func (g *Graph) addDep(from, to NodeID) bool {
	e := edge{from: from, to: to}
	if _, ok := g.deps[e]; ok {
		return false
	}
	g.deps[e] = struct{}{}
	g.nodes[from].deps = append(g.nodes[from].deps, to)
	return true
}

func (g *Graph) markLeaf(id NodeID) {
	if g.isLeaf[id] {
		return
	}
	g.isLeaf[id] = true
	g.leaves = append(g.leaves, id)
}
