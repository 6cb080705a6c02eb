package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/unitmap/internal/collect"
	"github.com/gyaneshwarpardhi/unitmap/internal/config"
	"github.com/gyaneshwarpardhi/unitmap/internal/depgraph"
	"github.com/gyaneshwarpardhi/unitmap/internal/metrics"
	"github.com/gyaneshwarpardhi/unitmap/internal/naming"
	"github.com/gyaneshwarpardhi/unitmap/internal/project"
)

// Plan is the build assignment computed by one invocation.
type Plan struct {
	BuildID string `json:"build_id"`
	// Explicit files of single-unit folders, each named after its folder.
	Explicit []string `json:"explicit"`
	// Isolated shared files referenced by more than one consumer, deepest first.
	Isolated []string `json:"isolated"`
	// Roots are shared files nothing else references.
	Roots          []string        `json:"roots"`
	Waves          []depgraph.Wave `json:"waves"`
	Nodes          int             `json:"nodes"`
	MissingFolders []string        `json:"missing_folders,omitempty"`
}

// Empty reports whether the plan selects no unit at all.
func (p *Plan) Empty() bool {
	return len(p.Explicit)+len(p.Isolated)+len(p.Roots) == 0
}

// invocation carries the state of one Plan, AssignNames or Build call.
// Nothing in it outlives the call.
type invocation struct {
	id         string
	cfg        *config.BuildConfig
	project    *project.Project
	filter     *collect.Filter
	boundaries *collect.Boundaries
	source     project.Source
	logger     *slog.Logger
}

func (e *Engine) newInvocation() (*invocation, error) {
	cfg := e.cfg.Load()
	id := uuid.New().String()
	inv := &invocation{
		id:         id,
		cfg:        cfg,
		project:    project.New(cfg.Project.Root, cfg.Project.AssetsPrefix),
		filter:     collect.NewFilter(cfg.Build.Ignore),
		boundaries: collect.NewBoundaries(cfg.Folders),
		logger:     e.logger.With("build_id", id),
	}

	src := e.deps.Source
	if src == nil {
		var err error
		if src, err = newSource(cfg, inv.project); err != nil {
			return nil, err
		}
	}
	cached, err := project.NewCachedSource(src, cfg.Project.CacheSize)
	if err != nil {
		return nil, err
	}
	inv.source = cached
	return inv, nil
}

func newSource(cfg *config.BuildConfig, p *project.Project) (project.Source, error) {
	switch cfg.Project.Dependencies {
	case config.DependenciesStatic:
		return project.LoadStaticSource(cfg.Project.DependencyFile)
	case config.DependenciesGUID, "":
		return project.NewGUIDSource(p)
	default:
		return nil, fmt.Errorf("unknown dependency mode %q", cfg.Project.Dependencies)
	}
}

func (inv *invocation) plan(ctx context.Context) (*Plan, error) {
	c := collect.New(inv.project, inv.filter, inv.logger)
	explicit, missingSingle, err := c.Single(inv.cfg.SingleFolders())
	if err != nil {
		return nil, fmt.Errorf("collect single-unit folders: %w", err)
	}
	roots, missingShared, err := c.Roots(inv.cfg.SharedFolders())
	if err != nil {
		return nil, fmt.Errorf("collect shared folders: %w", err)
	}

	b := depgraph.NewBuilder(inv.source, inv.boundaries)
	for _, r := range roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := b.AddRoot(r); err != nil {
			return nil, fmt.Errorf("build dependency graph: %w", err)
		}
	}
	g := b.Graph()
	res := depgraph.Resolve(g, inv.filter.Ignored)

	plan := &Plan{
		BuildID:        inv.id,
		Explicit:       explicit,
		Isolated:       res.Isolated,
		Waves:          res.Waves,
		Nodes:          g.Len(),
		MissingFolders: append(missingSingle, missingShared...),
	}
	for _, r := range roots {
		if id, ok := g.Lookup(r); ok && len(g.Parents(id)) == 0 {
			plan.Roots = append(plan.Roots, r)
		}
	}

	metrics.PlansComputed.Inc()
	metrics.GraphNodes.Set(float64(plan.Nodes))
	metrics.UnitsPlanned.WithLabelValues(naming.ReasonExplicit).Add(float64(len(plan.Explicit)))
	metrics.UnitsPlanned.WithLabelValues(naming.ReasonIsolated).Add(float64(len(plan.Isolated)))
	metrics.UnitsPlanned.WithLabelValues(naming.ReasonRoot).Add(float64(len(plan.Roots)))
	inv.logger.Info("plan computed",
		"nodes", plan.Nodes,
		"explicit", len(plan.Explicit),
		"isolated", len(plan.Isolated),
		"roots", len(plan.Roots),
		"missing_folders", len(plan.MissingFolders),
	)
	return plan, nil
}

// assign clears the store and writes the plan's unit names.
func (inv *invocation) assign(store naming.Store, plan *Plan) ([]naming.Assignment, error) {
	a := naming.NewAssigner(store, inv.project.Prefix, inv.boundaries)
	return a.Apply(naming.Input{
		Explicit: plan.Explicit,
		Isolated: plan.Isolated,
		Roots:    plan.Roots,
	})
}
