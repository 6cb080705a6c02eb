package collect_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/unitmap/internal/collect"
	"github.com/gyaneshwarpardhi/unitmap/internal/config"
	"github.com/gyaneshwarpardhi/unitmap/internal/project"
)

func touch(t *testing.T, root string, rels ...string) {
	t.Helper()
	for _, rel := range rels {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(rel), 0o644))
	}
}

func TestFilter_Ignored(t *testing.T) {
	f := collect.NewFilter([]string{"**/*.tmp", "Assets/Scratch/**", "[unterminated"})

	cases := map[string]bool{
		"Assets/A.prefab":          false,
		"Assets/A.prefab.meta":     true,
		"Assets/Dir/.DS_Store":     true,
		"Assets/Scripts/Thing.cs":  true,
		"Assets/Scripts/Thing.csv": false,
		"Assets/Deep/x/y.tmp":      true,
		"Assets/Scratch/a.png":     true,
	}
	for p, want := range cases {
		require.Equal(t, want, f.Ignored(p), p)
	}
}

func TestBoundaries(t *testing.T) {
	b := collect.NewBoundaries([]config.Folder{
		{Path: "Assets/UI", SingleUnit: true, UnitName: "ui"},
		{Path: "Assets/UI/Icons", SingleUnit: true},
		{Path: "Assets/Shared"},
	})

	f, ok := b.Folder("Assets/UI/Icons/a.png")
	require.True(t, ok)
	require.Equal(t, "Assets/UI/Icons", f.Path, "innermost folder wins")

	f, ok = b.Folder("Assets/UI/panel.prefab")
	require.True(t, ok)
	require.Equal(t, "ui", f.UnitName)

	require.False(t, b.Contains("Assets/UIKit/x.png"), "prefix must match whole segments")
	require.False(t, b.Contains("Assets/Shared/x.png"))
}

func TestCollector_SingleAndRoots(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"Assets/UI/a.png", "Assets/UI/a.png.meta", "Assets/UI/sub/b.png",
		"Assets/Shared/c.prefab", "Assets/Shared/Logic.cs", "Assets/Shared/.DS_Store",
	)
	p := project.New(root, "Assets")
	c := collect.New(p, nil, nil)
	cfg := &config.BuildConfig{Folders: []config.Folder{
		{Path: "Assets/UI", SingleUnit: true},
		{Path: "Assets/Missing", SingleUnit: true},
		{Path: "Assets/Shared"},
		{Path: "Assets/Shared"},
	}}

	single, missing, err := c.Single(cfg.SingleFolders())
	require.NoError(t, err)
	require.Equal(t, []string{"Assets/UI/a.png", "Assets/UI/sub/b.png"}, single)
	require.Equal(t, []string{"Assets/Missing"}, missing)

	roots, missing, err := c.Roots(cfg.SharedFolders())
	require.NoError(t, err)
	require.Equal(t, []string{"Assets/Shared/c.prefab"}, roots)
	require.Empty(t, missing)
}
