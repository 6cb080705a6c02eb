package collect

import (
	"sort"
	"strings"

	"github.com/gyaneshwarpardhi/unitmap/internal/config"
)

// Boundaries indexes single-unit folders. They are traversal boundaries for
// the shared graph and carry the unit-name policy of their files.
type Boundaries struct {
	folders []config.Folder // longest path first
}

// NewBoundaries builds an index over the single-unit folders in folders.
func NewBoundaries(folders []config.Folder) *Boundaries {
	var single []config.Folder
	for _, f := range folders {
		if f.SingleUnit {
			single = append(single, f)
		}
	}
	sort.SliceStable(single, func(i, j int) bool {
		return len(single[i].Path) > len(single[j].Path)
	})
	return &Boundaries{folders: single}
}

// Folder returns the innermost single-unit folder containing p.
func (b *Boundaries) Folder(p string) (config.Folder, bool) {
	if b == nil {
		return config.Folder{}, false
	}
	for _, f := range b.folders {
		if p == f.Path || strings.HasPrefix(p, f.Path+"/") {
			return f, true
		}
	}
	return config.Folder{}, false
}

// Contains reports whether p lies inside a single-unit folder.
func (b *Boundaries) Contains(p string) bool {
	_, ok := b.Folder(p)
	return ok
}
