// Package project is the on-disk model of an asset project: file
// enumeration under the assets tree and the dependency queries the graph
// builder consumes.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrFolderNotFound is returned by Files when a declared folder is missing.
var ErrFolderNotFound = errors.New("folder not found")

// Source answers "given a file, return its direct content dependencies".
// Paths in and out are project-relative and '/'-separated.
type Source interface {
	Dependencies(p string) ([]string, error)
}

// Files enumerates every file beneath a project-relative folder.
type Files interface {
	Files(folder string) ([]string, error)
}

// Project is a directory on disk holding an assets tree such as Assets/.
type Project struct {
	Root   string // filesystem directory containing the assets prefix
	Prefix string // first path segment of every project-relative path
}

// New returns a Project rooted at dir.
func New(dir, prefix string) *Project {
	if prefix == "" {
		prefix = "Assets"
	}
	return &Project{Root: dir, Prefix: strings.Trim(prefix, "/")}
}

// Abs converts a project-relative path into a filesystem path.
func (p *Project) Abs(rel string) string {
	return filepath.Join(p.Root, filepath.FromSlash(rel))
}

// Rel converts a filesystem path under Root into a project-relative path.
func (p *Project) Rel(abs string) (string, error) {
	rel, err := filepath.Rel(p.Root, abs)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// Files walks folder recursively and returns project-relative file paths in
// lexical walk order.
func (p *Project) Files(folder string) ([]string, error) {
	dir := p.Abs(folder)
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", folder, ErrFolderNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w", folder, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", folder)
	}

	var files []string
	err = filepath.WalkDir(dir, func(fp string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := p.Rel(fp)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", folder, err)
	}
	return files, nil
}

// TrimPrefix strips the assets prefix and its separator from a
// project-relative path. Paths outside the prefix are returned unchanged.
func (p *Project) TrimPrefix(rel string) string {
	return TrimPrefix(rel, p.Prefix)
}

// TrimPrefix strips prefix plus one '/' from rel.
func TrimPrefix(rel, prefix string) string {
	rel = path.Clean(rel)
	if rest, ok := strings.CutPrefix(rel, prefix+"/"); ok {
		return rest
	}
	return rel
}
