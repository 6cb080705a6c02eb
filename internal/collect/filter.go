package collect

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar"
)

// ignoredSuffixes reject generated metadata, OS artifacts and source code.
var ignoredSuffixes = []string{".meta", ".DS_Store", ".cs"}

// Filter decides which files never become part of a unit.
type Filter struct {
	patterns []string
}

// NewFilter returns a Filter rejecting the fixed suffixes plus any path
// matching one of the doublestar glob patterns. Malformed patterns never match.
func NewFilter(patterns []string) *Filter {
	return &Filter{patterns: patterns}
}

// Ignored reports whether a project-relative path must be skipped.
func (f *Filter) Ignored(p string) bool {
	base := path.Base(p)
	for _, s := range ignoredSuffixes {
		if strings.HasSuffix(base, s) {
			return true
		}
	}
	if f == nil {
		return false
	}
	for _, pat := range f.patterns {
		if ok, _ := doublestar.Match(pat, p); ok {
			return true
		}
	}
	return false
}
