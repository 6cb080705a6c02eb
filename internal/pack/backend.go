// Package pack turns unit-name assignments into packaged unit files.
package pack

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"sync"

	"github.com/gyaneshwarpardhi/unitmap/internal/naming"
	"github.com/gyaneshwarpardhi/unitmap/internal/project"
)

// Request is everything a backend needs to package one build.
type Request struct {
	BuildID     string
	OutputDir   string
	Platform    string
	Options     []string
	Assignments []naming.Assignment

	// Files reads asset content by project-relative path.
	Files fs.FS
	// Source, when set, pulls unassigned transitive dependencies into the
	// unit of their consumer.
	Source project.Source
	// Ignore keeps matching paths out of every unit.
	Ignore func(string) bool
}

// Unit is one packaged unit.
type Unit struct {
	Key      string   `json:"key" toml:"key"`
	Name     string   `json:"name" toml:"name"`
	Variant  string   `json:"variant,omitempty" toml:"variant,omitempty"`
	File     string   `json:"file,omitempty" toml:"file,omitempty"` // relative to the output directory
	Size     int64    `json:"size" toml:"size"`
	Assets   []string `json:"assets" toml:"assets"`
	Absorbed []string `json:"absorbed,omitempty" toml:"absorbed,omitempty"`
}

// Manifest describes the units a backend produced.
type Manifest struct {
	BuildID  string `json:"build_id"`
	Backend  string `json:"backend"`
	Platform string `json:"platform,omitempty"`
	Units    []Unit `json:"units"`
}

// Names returns the unit keys in manifest order.
func (m *Manifest) Names() []string {
	out := make([]string, 0, len(m.Units))
	for _, u := range m.Units {
		out = append(out, u.Key)
	}
	return out
}

// Backend packages a build.
type Backend interface {
	Name() string
	Pack(ctx context.Context, req Request) (*Manifest, error)
}

// Group collects assignments into units in first-seen order and resolves
// the assets each unit absorbs.
func Group(req Request) ([]Unit, error) {
	assigned := make(map[string]bool, len(req.Assignments))
	for _, a := range req.Assignments {
		assigned[a.Path] = true
	}

	var units []Unit
	byKey := make(map[string]int)
	for _, a := range req.Assignments {
		key := naming.UnitKey(a.Unit, a.Variant)
		i, ok := byKey[key]
		if !ok {
			i = len(units)
			byKey[key] = i
			units = append(units, Unit{Key: key, Name: a.Unit, Variant: a.Variant})
		}
		units[i].Assets = append(units[i].Assets, a.Path)
	}

	if req.Source == nil {
		return units, nil
	}
	for i := range units {
		absorbed, err := absorb(req, units[i].Assets, assigned)
		if err != nil {
			return nil, err
		}
		units[i].Absorbed = absorbed
	}
	return units, nil
}

// absorb walks the dependencies of assets and returns every reachable path
// that has no unit of its own.
func absorb(req Request, assets []string, assigned map[string]bool) ([]string, error) {
	seen := make(map[string]bool)
	stack := append([]string(nil), assets...)
	var out []string
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		deps, err := req.Source.Dependencies(p)
		if err != nil {
			return nil, fmt.Errorf("dependencies of %s: %w", p, err)
		}
		for _, d := range deps {
			if assigned[d] || seen[d] || (req.Ignore != nil && req.Ignore(d)) {
				continue
			}
			seen[d] = true
			out = append(out, d)
			stack = append(stack, d)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Registry maps backend names to implementations.
// It is safe for concurrent reads; Register should only be called at startup.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

// DefaultRegistry holds the archive and dryrun backends.
func DefaultRegistry(workers int) *Registry {
	r := NewRegistry()
	r.Register(NewArchive(workers))
	r.Register(DryRun{})
	return r
}

// Register adds a backend. Panics on duplicate name to surface misconfiguration early.
func (r *Registry) Register(b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.backends[b.Name()]; exists {
		panic(fmt.Sprintf("pack registry: duplicate backend %q", b.Name()))
	}
	r.backends[b.Name()] = b
}

// Get returns the backend registered under name.
func (r *Registry) Get(name string) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("no packaging backend registered as %q", name)
	}
	return b, nil
}

// Names returns all registered backend names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.backends))
	for k := range r.backends {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
