package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PlansComputed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unitmap_plans_computed_total",
		Help: "Total number of build plans resolved.",
	})

	BuildsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unitmap_builds_finished_total",
		Help: "Total number of build invocations, labelled by status.",
	}, []string{"status"})

	MissingFolders = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unitmap_missing_folders_total",
		Help: "Total number of declared build folders not found on disk.",
	})

	GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "unitmap_graph_nodes",
		Help: "Number of nodes in the most recently built dependency graph.",
	})

	UnitsPlanned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unitmap_units_planned_total",
		Help: "Total number of paths planned into their own unit, labelled by reason.",
	}, []string{"reason"})

	UnitsPacked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unitmap_units_packed_total",
		Help: "Total number of unit files written by packaging backends.",
	})

	DependencyLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unitmap_dependency_lookups_total",
		Help: "Dependency queries served by the cache, labelled by result.",
	}, []string{"result"})

	BuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "unitmap_build_duration_ms",
		Help:    "End-to-end build invocation latency in milliseconds.",
		Buckets: []float64{5, 25, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
	})

	UnitsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unitmap_units_published_total",
		Help: "Total number of unit uploads to the object store, labelled by status.",
	}, []string{"status"})
)
