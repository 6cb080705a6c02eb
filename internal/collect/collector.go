// Package collect enumerates the files declared by build folders.
package collect

import (
	"errors"
	"log/slog"

	"github.com/gyaneshwarpardhi/unitmap/internal/config"
	"github.com/gyaneshwarpardhi/unitmap/internal/metrics"
	"github.com/gyaneshwarpardhi/unitmap/internal/project"
)

// Collector walks build folders through a project.Files implementation.
type Collector struct {
	files  project.Files
	filter *Filter
	logger *slog.Logger
}

// New returns a Collector. A nil logger logs to slog.Default.
func New(files project.Files, filter *Filter, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{files: files, filter: filter, logger: logger}
}

// Single returns every file of the given single-unit folders; each becomes
// a unit without taking part in the dependency graph.
func (c *Collector) Single(folders []config.Folder) (paths, missing []string, err error) {
	return c.collect(folders)
}

// Roots returns every file of the given shared folders, deduplicated across
// overlapping declarations.
func (c *Collector) Roots(folders []config.Folder) (paths, missing []string, err error) {
	return c.collect(folders)
}

func (c *Collector) collect(folders []config.Folder) (paths, missing []string, err error) {
	seen := make(map[string]bool)
	for _, f := range folders {
		files, err := c.files.Files(f.Path)
		if err != nil {
			if errors.Is(err, project.ErrFolderNotFound) {
				c.logger.Error("build folder does not exist", "folder", f.Path)
				metrics.MissingFolders.Inc()
				missing = append(missing, f.Path)
				continue
			}
			return nil, nil, err
		}
		for _, p := range files {
			if c.filter.Ignored(p) || seen[p] {
				continue
			}
			seen[p] = true
			paths = append(paths, p)
		}
	}
	return paths, missing, nil
}
