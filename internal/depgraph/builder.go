package depgraph

import (
	"fmt"

	"github.com/gyaneshwarpardhi/unitmap/internal/project"
)

// Boundary reports whether a path lies inside a single-unit folder.
type Boundary interface {
	Contains(path string) bool
}

// frame is one entry of the traversal worklist. An expansion frame walks
// the freshly queried dependencies of a node; a promotion frame re-walks the
// recorded forward dependencies of a node whose depth just increased.
type frame struct {
	id      NodeID
	promote bool
	deps    []string
	next    int
	forward int
}

// Builder constructs a Graph from a set of roots.
type Builder struct {
	src      project.Source
	boundary Boundary
	g        *Graph
	onStack  map[NodeID]bool
	stack    []*frame
}

// NewBuilder returns a Builder querying src. A nil boundary means no
// single-unit folders.
func NewBuilder(src project.Source, boundary Boundary) *Builder {
	return &Builder{
		src:      src,
		boundary: boundary,
		g:        NewGraph(),
		onStack:  make(map[NodeID]bool),
	}
}

// Graph returns the graph built so far.
func (b *Builder) Graph() *Graph { return b.g }

// AddRoot registers a shared-folder file and expands everything it reaches.
// Files inside a single-unit folder are skipped; files already discovered as
// a dependency keep their depth and are only flagged as roots.
func (b *Builder) AddRoot(path string) error {
	if b.inBoundary(path) {
		return nil
	}
	if id, ok := b.g.Lookup(path); ok {
		b.g.nodes[id].Root = true
		return nil
	}
	id := b.g.addNode(path, 0)
	b.g.nodes[id].Root = true
	if err := b.pushExpand(id); err != nil {
		return err
	}
	return b.run()
}

func (b *Builder) inBoundary(path string) bool {
	return b.boundary != nil && b.boundary.Contains(path)
}

func (b *Builder) pushExpand(id NodeID) error {
	p := b.g.nodes[id].Path
	deps, err := b.src.Dependencies(p)
	if err != nil {
		return fmt.Errorf("dependencies of %s: %w", p, err)
	}
	b.onStack[id] = true
	b.stack = append(b.stack, &frame{id: id, deps: deps})
	return nil
}

func (b *Builder) pushPromote(id NodeID) {
	b.onStack[id] = true
	b.stack = append(b.stack, &frame{id: id, promote: true})
}

func (b *Builder) pop() *frame {
	f := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	delete(b.onStack, f.id)
	return f
}

func (b *Builder) run() error {
	for len(b.stack) > 0 {
		f := b.stack[len(b.stack)-1]
		if f.promote {
			b.stepPromote(f)
			continue
		}
		if err := b.stepExpand(f); err != nil {
			b.stack = b.stack[:0]
			clear(b.onStack)
			return err
		}
	}
	return nil
}

// stepExpand handles one dependency of an expansion frame.
func (b *Builder) stepExpand(f *frame) error {
	if f.next >= len(f.deps) {
		b.pop()
		if f.forward == 0 {
			b.g.markLeaf(f.id)
		}
		return nil
	}
	dep := f.deps[f.next]
	f.next++

	if dep == b.g.nodes[f.id].Path {
		return nil
	}

	id, seen := b.g.Lookup(dep)
	if !seen {
		id = b.g.addNode(dep, b.g.nodes[f.id].Depth+1)
		b.g.addParent(id, f.id)
		if b.inBoundary(dep) {
			b.g.nodes[id].Terminal = true
			return nil
		}
		b.g.addDep(f.id, id)
		f.forward++
		return b.pushExpand(id)
	}

	b.g.addParent(id, f.id)
	if b.g.nodes[id].Terminal {
		return nil
	}
	if b.onStack[id] {
		// Back edge: dep is still being walked, following it would cycle.
		return nil
	}
	if b.g.addDep(f.id, id) {
		f.forward++
	}
	b.relax(f.id, id)
	return nil
}

// stepPromote pushes a promoted node's new depth onto one of its deps.
func (b *Builder) stepPromote(f *frame) {
	deps := b.g.nodes[f.id].deps
	if f.next >= len(deps) {
		b.pop()
		return
	}
	dep := deps[f.next]
	f.next++
	b.relax(f.id, dep)
}

// relax enforces depth(to) >= depth(from)+1, scheduling re-expansion of to
// when its depth grows.
func (b *Builder) relax(from, to NodeID) {
	if b.onStack[to] {
		return
	}
	want := b.g.nodes[from].Depth + 1
	if want <= b.g.nodes[to].Depth {
		return
	}
	b.g.nodes[to].Depth = want
	if len(b.g.nodes[to].deps) > 0 {
		b.pushPromote(to)
	}
}

// Build is a convenience wrapper expanding every root in order.
func Build(src project.Source, boundary Boundary, roots []string) (*Graph, error) {
	b := NewBuilder(src, boundary)
	for _, r := range roots {
		if err := b.AddRoot(r); err != nil {
			return nil, err
		}
	}
	return b.Graph(), nil
}
