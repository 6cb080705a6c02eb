// Package naming attaches unit names to the paths selected by a build plan.
package naming

import (
	"fmt"

	"github.com/gyaneshwarpardhi/unitmap/internal/collect"
	"github.com/gyaneshwarpardhi/unitmap/internal/project"
)

// Why a path received its own unit.
const (
	ReasonExplicit = "explicit"
	ReasonIsolated = "isolated"
	ReasonRoot     = "root"
)

// Input is the part of a plan the assigner consumes.
type Input struct {
	Explicit []string
	Isolated []string
	Roots    []string
}

// Assignment is one path and the unit it was given.
type Assignment struct {
	Path    string `json:"path"`
	Unit    string `json:"unit"`
	Variant string `json:"variant,omitempty"`
	Reason  string `json:"reason"`
}

// Assigner writes unit names into a Store.
type Assigner struct {
	store      Store
	prefix     string
	boundaries *collect.Boundaries
}

// NewAssigner returns an Assigner. boundaries supplies the folder policy of
// explicit files; prefix is stripped from every derived name.
func NewAssigner(store Store, prefix string, boundaries *collect.Boundaries) *Assigner {
	return &Assigner{store: store, prefix: prefix, boundaries: boundaries}
}

// Apply replaces every existing assignment with the plan's paths in a single
// store write. Explicit files take their folder's name; isolated and root
// files are named after their own path. A path listed twice keeps its first
// assignment. If the write fails the previous assignments stay in place.
func (a *Assigner) Apply(in Input) ([]Assignment, error) {
	n := len(in.Explicit) + len(in.Isolated) + len(in.Roots)
	labels := make(map[string]Label, n)
	out := make([]Assignment, 0, n)
	add := func(as Assignment) {
		if _, ok := labels[as.Path]; ok {
			return
		}
		labels[as.Path] = Label{Unit: as.Unit, Variant: as.Variant}
		out = append(out, as)
	}

	for _, p := range in.Explicit {
		add(a.explicit(p))
	}
	for _, p := range in.Isolated {
		add(Assignment{Path: p, Unit: a.FileUnit(p), Reason: ReasonIsolated})
	}
	for _, p := range in.Roots {
		add(Assignment{Path: p, Unit: a.FileUnit(p), Reason: ReasonRoot})
	}

	if err := a.store.Replace(labels); err != nil {
		return nil, fmt.Errorf("assign unit names: %w", err)
	}
	return out, nil
}

func (a *Assigner) explicit(p string) Assignment {
	f, ok := a.boundaries.Folder(p)
	if !ok {
		return Assignment{Path: p, Unit: a.FileUnit(p), Reason: ReasonExplicit}
	}
	name := f.UnitName
	if name == "" {
		name = project.TrimPrefix(f.Path, a.prefix)
	}
	return Assignment{Path: p, Unit: name, Variant: f.Variant, Reason: ReasonExplicit}
}

// FileUnit is the file-path-derived unit name of p.
func (a *Assigner) FileUnit(p string) string {
	return project.TrimPrefix(p, a.prefix)
}

// UnitKey identifies a packaged unit: the name, plus the variant when set.
func UnitKey(unit, variant string) string {
	if variant == "" {
		return unit
	}
	return unit + "." + variant
}
