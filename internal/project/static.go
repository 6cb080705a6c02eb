package project

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StaticSource serves dependencies declared up front, keyed by path.
// Paths without an entry have no dependencies.
type StaticSource map[string][]string

// LoadStaticSource reads a YAML mapping of path -> list of dependency paths.
func LoadStaticSource(file string) (StaticSource, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read dependency file %s: %w", file, err)
	}
	var s StaticSource
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse dependency file %s: %w", file, err)
	}
	if s == nil {
		s = StaticSource{}
	}
	return s, nil
}

// Dependencies implements Source.
func (s StaticSource) Dependencies(p string) ([]string, error) {
	deps := s[p]
	out := make([]string, len(deps))
	copy(out, deps)
	return out, nil
}
