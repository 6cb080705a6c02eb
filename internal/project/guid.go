package project

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const metaSuffix = ".meta"

// sniffLen is how much of a file is inspected to decide if it is binary.
const sniffLen = 8000

var guidRef = regexp.MustCompile(`guid: ?([0-9a-fA-F]{32})`)

// metaFile is the part of a sidecar .meta file the index needs.
type metaFile struct {
	GUID string `yaml:"guid"`
}

// GUIDSource resolves dependencies the way a Unity project stores them: every
// asset has a sidecar .meta file declaring its guid, and text assets reference
// other assets by that guid.
type GUIDSource struct {
	project *Project
	paths   map[string]string // guid -> project-relative asset path
}

// NewGUIDSource indexes every .meta file under the project's assets prefix.
func NewGUIDSource(p *Project) (*GUIDSource, error) {
	s := &GUIDSource{project: p, paths: make(map[string]string)}
	root := p.Abs(p.Prefix)
	err := filepath.WalkDir(root, func(fp string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), metaSuffix) {
			return nil
		}
		assetPath := strings.TrimSuffix(fp, metaSuffix)
		info, err := os.Stat(assetPath)
		if err != nil || info.IsDir() {
			return nil
		}
		guid, err := readGUID(fp)
		if err != nil {
			return err
		}
		if guid == "" {
			return nil
		}
		rel, err := p.Rel(assetPath)
		if err != nil {
			return err
		}
		if prev, ok := s.paths[guid]; ok && prev != rel {
			return fmt.Errorf("guid %s claimed by both %s and %s", guid, prev, rel)
		}
		s.paths[guid] = rel
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("index guids: %w", err)
	}
	return s, nil
}

func readGUID(metaPath string) (string, error) {
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", metaPath, err)
	}
	var m metaFile
	if err := yaml.Unmarshal(data, &m); err != nil {
		return "", fmt.Errorf("parse %s: %w", metaPath, err)
	}
	return strings.ToLower(m.GUID), nil
}

// Len returns the number of indexed assets.
func (s *GUIDSource) Len() int { return len(s.paths) }

// PathOf returns the asset path registered for guid.
func (s *GUIDSource) PathOf(guid string) (string, bool) {
	p, ok := s.paths[strings.ToLower(guid)]
	return p, ok
}

// Dependencies scans a text asset for guid references. Binary assets have no
// dependencies. References to guids outside the project (built-in resources)
// are dropped, as are self references.
func (s *GUIDSource) Dependencies(p string) ([]string, error) {
	data, err := os.ReadFile(s.project.Abs(p))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	if isBinary(data) {
		return nil, nil
	}

	var deps []string
	seen := make(map[string]bool)
	for _, m := range guidRef.FindAllSubmatch(data, -1) {
		dep, ok := s.PathOf(string(m[1]))
		if !ok || dep == p || seen[dep] {
			continue
		}
		seen[dep] = true
		deps = append(deps, dep)
	}
	return deps, nil
}

func isBinary(data []byte) bool {
	if len(data) > sniffLen {
		data = data[:sniffLen]
	}
	return bytes.IndexByte(data, 0) >= 0
}
