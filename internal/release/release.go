// Package release writes the version bookkeeping files that accompany a
// successful build.
package release

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/gyaneshwarpardhi/unitmap/internal/atomicfile"
	"github.com/gyaneshwarpardhi/unitmap/internal/pack"
)

// File names written into the output directory.
const (
	VersionFile = "version.toml"
	UpdateFile  = "update.toml"
)

// minorLayout renders a build time as yyMMddHHmm.
const minorLayout = "0601021504"

// Version identifies a build.
type Version struct {
	Major   int       `toml:"major" json:"major"`
	Minor   int64     `toml:"minor" json:"minor"`
	BuildID string    `toml:"build_id" json:"build_id"`
	BuiltAt time.Time `toml:"built_at" json:"built_at"`
}

// String formats the version as major.minor.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Update lists the units a client must fetch for a minor version.
type Update struct {
	Minor   int64       `toml:"minor"`
	BuildID string      `toml:"build_id"`
	Units   []pack.Unit `toml:"units"`
}

// MinorAt derives the minor version from a build time.
func MinorAt(t time.Time) int64 {
	n, _ := strconv.ParseInt(t.UTC().Format(minorLayout), 10, 64)
	return n
}

// Write records m as the current release in dir.
func Write(dir string, major int, at time.Time, m *pack.Manifest) (*Version, error) {
	v := &Version{Major: major, Minor: MinorAt(at), BuildID: m.BuildID, BuiltAt: at.UTC().Truncate(time.Second)}
	if err := writeTOML(dir, VersionFile, v); err != nil {
		return nil, err
	}
	u := &Update{Minor: v.Minor, BuildID: m.BuildID, Units: m.Units}
	if err := writeTOML(dir, UpdateFile, u); err != nil {
		return nil, err
	}
	return v, nil
}

// ReadVersion returns the version recorded in dir, or nil when none exists.
func ReadVersion(dir string) (*Version, error) {
	var v Version
	if _, err := toml.DecodeFile(filepath.Join(dir, VersionFile), &v); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read version: %w", err)
	}
	return &v, nil
}

// ReadUpdate returns the update list recorded in dir.
func ReadUpdate(dir string) (*Update, error) {
	var u Update
	if _, err := toml.DecodeFile(filepath.Join(dir, UpdateFile), &u); err != nil {
		return nil, fmt.Errorf("read update: %w", err)
	}
	return &u, nil
}

// writeTOML atomically writes v as dir/name.
func writeTOML(dir, name string, v any) error {
	_, err := atomicfile.Write(filepath.Join(dir, name), func(w io.Writer) error {
		return toml.NewEncoder(w).Encode(v)
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
