package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gyaneshwarpardhi/unitmap/internal/config"
	"github.com/gyaneshwarpardhi/unitmap/internal/metrics"
	"github.com/gyaneshwarpardhi/unitmap/internal/naming"
	"github.com/gyaneshwarpardhi/unitmap/internal/pack"
	"github.com/gyaneshwarpardhi/unitmap/internal/project"
	"github.com/gyaneshwarpardhi/unitmap/internal/release"
)

// ErrPackagingFailed is returned by Build when the backend fails. Release
// bookkeeping and unit callbacks are skipped.
var ErrPackagingFailed = errors.New("packaging failed")

// ErrBuildInProgress is returned by Build when another build or name
// assignment holds the engine.
var ErrBuildInProgress = errors.New("a build is already running")

// Publisher receives the units of a successful build.
type Publisher interface {
	Publish(ctx context.Context, outputDir string, m *pack.Manifest) ([]string, error)
}

// Deps are the collaborators of an Engine. Zero values select defaults
// derived from the config.
type Deps struct {
	Logger    *slog.Logger
	Registry  *pack.Registry
	Store     naming.Store
	Publisher Publisher
	// Source overrides the dependency source built from the config.
	Source project.Source
	Now    func() time.Time
}

// Result is the outcome of one Build.
type Result struct {
	BuildID      string              `json:"build_id"`
	Plan         *Plan               `json:"plan"`
	Assignments  []naming.Assignment `json:"assignments"`
	Manifest     *pack.Manifest      `json:"manifest,omitempty"`
	Version      *release.Version    `json:"version,omitempty"`
	Published    []string            `json:"published,omitempty"`
	PublishError string              `json:"publish_error,omitempty"`
	DurationMs   int64               `json:"duration_ms"`
}

// Engine runs build invocations against the current config.
type Engine struct {
	cfg      atomic.Pointer[config.BuildConfig]
	deps     Deps
	logger   *slog.Logger
	registry *pack.Registry
	store    naming.Store

	mu       sync.Mutex // serializes invocations that touch unit names
	building atomic.Bool
}

// New creates an Engine for cfg.
func New(cfg *config.BuildConfig, deps Deps) *Engine {
	e := &Engine{deps: deps, logger: deps.Logger, registry: deps.Registry, store: deps.Store}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.registry == nil {
		e.registry = pack.DefaultRegistry(cfg.Build.Workers)
	}
	if e.store == nil {
		if cfg.Build.LabelsFile != "" {
			e.store = naming.NewFileStore(cfg.Build.LabelsFile)
		} else {
			e.store = naming.NewMemoryStore()
		}
	}
	if e.deps.Now == nil {
		e.deps.Now = time.Now
	}
	e.cfg.Store(cfg)
	return e
}

// SwapConfig atomically replaces the config (used on hot-reload). Running
// invocations keep the config they started with.
func (e *Engine) SwapConfig(cfg *config.BuildConfig) {
	e.cfg.Store(cfg)
}

// Config returns the current config.
func (e *Engine) Config() *config.BuildConfig {
	return e.cfg.Load()
}

// Building reports whether a build is running.
func (e *Engine) Building() bool {
	return e.building.Load()
}

// Labels returns the current unit-name assignments.
func (e *Engine) Labels() (map[string]naming.Label, error) {
	return e.store.All()
}

// Plan computes the build plan without touching unit names.
func (e *Engine) Plan(ctx context.Context) (*Plan, error) {
	inv, err := e.newInvocation()
	if err != nil {
		return nil, err
	}
	return inv.plan(ctx)
}

// AssignNames computes the plan and rewrites unit names without packaging.
func (e *Engine) AssignNames(ctx context.Context) (*Plan, []naming.Assignment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	inv, err := e.newInvocation()
	if err != nil {
		return nil, nil, err
	}
	plan, err := inv.plan(ctx)
	if err != nil {
		return nil, nil, err
	}
	assignments, err := inv.assign(e.store, plan)
	if err != nil {
		return plan, nil, err
	}
	return plan, assignments, nil
}

// Build runs one full invocation: plan, assign names, package, then release
// bookkeeping, publishing and one onUnit call per produced unit. It does not
// wait for a running invocation and returns ErrBuildInProgress instead.
// The dryrun backend assigns names into a scratch store, leaving the
// engine's store untouched.
func (e *Engine) Build(ctx context.Context, onUnit func(unit string)) (*Result, error) {
	if !e.mu.TryLock() {
		return nil, ErrBuildInProgress
	}
	defer e.mu.Unlock()
	e.building.Store(true)
	defer e.building.Store(false)

	began := time.Now()
	res, err := e.build(ctx, e.deps.Now(), onUnit)
	elapsed := time.Since(began).Milliseconds()
	metrics.BuildDuration.Observe(float64(elapsed))
	if res != nil {
		res.DurationMs = elapsed
	}
	return res, err
}

func (e *Engine) build(ctx context.Context, start time.Time, onUnit func(string)) (*Result, error) {
	inv, err := e.newInvocation()
	if err != nil {
		metrics.BuildsFinished.WithLabelValues("error").Inc()
		return nil, err
	}
	plan, err := inv.plan(ctx)
	if err != nil {
		metrics.BuildsFinished.WithLabelValues("error").Inc()
		return nil, err
	}
	res := &Result{BuildID: inv.id, Plan: plan}
	cfg := inv.cfg

	store := e.store
	if cfg.Build.Backend == pack.DryRunBackend {
		store = naming.NewMemoryStore()
	}
	res.Assignments, err = inv.assign(store, plan)
	if err != nil {
		metrics.BuildsFinished.WithLabelValues("error").Inc()
		return res, err
	}
	if plan.Empty() {
		inv.logger.Info("nothing to build")
		metrics.BuildsFinished.WithLabelValues("empty").Inc()
		return res, nil
	}

	backend, err := e.registry.Get(cfg.Build.Backend)
	if err != nil {
		metrics.BuildsFinished.WithLabelValues("error").Inc()
		return res, err
	}
	manifest, err := backend.Pack(ctx, pack.Request{
		BuildID:     inv.id,
		OutputDir:   cfg.Build.OutputDirectory,
		Platform:    cfg.Build.Platform,
		Options:     cfg.Build.Options,
		Assignments: res.Assignments,
		Files:       os.DirFS(inv.project.Root),
		Source:      inv.source,
		Ignore:      inv.filter.Ignored,
	})
	if err != nil {
		inv.logger.Error("packaging failed", "backend", backend.Name(), "err", err)
		metrics.BuildsFinished.WithLabelValues("failed").Inc()
		return res, fmt.Errorf("%w: %w", ErrPackagingFailed, err)
	}
	res.Manifest = manifest
	inv.logger.Info("units packed", "backend", backend.Name(), "units", len(manifest.Units))

	if cfg.Release.Enabled && hasFiles(manifest) {
		v, err := release.Write(cfg.Build.OutputDirectory, cfg.Release.MajorVersion, start, manifest)
		if err != nil {
			metrics.BuildsFinished.WithLabelValues("error").Inc()
			return res, fmt.Errorf("release bookkeeping: %w", err)
		}
		res.Version = v
		inv.logger.Info("release recorded", "version", v.String())
	}

	if e.deps.Publisher != nil && hasFiles(manifest) {
		keys, err := e.deps.Publisher.Publish(ctx, cfg.Build.OutputDirectory, manifest)
		res.Published = keys
		if err != nil {
			inv.logger.Error("publishing failed", "err", err)
			res.PublishError = err.Error()
		}
	}

	if onUnit != nil {
		for _, u := range manifest.Units {
			onUnit(u.Key)
		}
	}
	metrics.BuildsFinished.WithLabelValues("success").Inc()
	return res, nil
}

func hasFiles(m *pack.Manifest) bool {
	for _, u := range m.Units {
		if u.File != "" {
			return true
		}
	}
	return false
}
