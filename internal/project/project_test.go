package project_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/unitmap/internal/project"
)

const (
	guidMat = "0123456789abcdef0123456789abcdef"
	guidTex = "fedcba9876543210fedcba9876543210"
	guidA   = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

func write(t *testing.T, root, rel, body string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
}

func meta(guid string) string {
	return "fileFormatVersion: 2\nguid: " + guid + "\nNativeFormatImporter:\n  userData: \n"
}

func newFixture(t *testing.T) *project.Project {
	t.Helper()
	root := t.TempDir()
	write(t, root, "Assets/Prefabs/A.prefab", "%YAML 1.1\n--- !u!1 &1\n  m_Material: {fileID: 2100000, guid: "+guidMat+", type: 2}\n  m_Self: {guid: "+guidA+"}\n  m_Builtin: {fileID: 10303, guid: 0000000000000000f000000000000000, type: 0}\n  m_Again: {guid: "+guidMat+"}\n")
	write(t, root, "Assets/Prefabs/A.prefab.meta", meta(guidA))
	write(t, root, "Assets/Materials/M.mat", "m_Texture: {fileID: 2800000, guid: "+guidTex+", type: 3}\n")
	write(t, root, "Assets/Materials/M.mat.meta", meta(guidMat))
	write(t, root, "Assets/Textures/T.png", "\x89PNG\x00\x00guid: "+guidA)
	write(t, root, "Assets/Textures/T.png.meta", meta(guidTex))
	write(t, root, "Assets/Textures.meta", meta("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"))
	return project.New(root, "")
}

func TestGUIDSource_Dependencies(t *testing.T) {
	p := newFixture(t)
	src, err := project.NewGUIDSource(p)
	require.NoError(t, err)
	require.Equal(t, 3, src.Len(), "folder metas are not indexed")

	deps, err := src.Dependencies("Assets/Prefabs/A.prefab")
	require.NoError(t, err)
	require.Equal(t, []string{"Assets/Materials/M.mat"}, deps)

	deps, err = src.Dependencies("Assets/Materials/M.mat")
	require.NoError(t, err)
	require.Equal(t, []string{"Assets/Textures/T.png"}, deps)

	deps, err = src.Dependencies("Assets/Textures/T.png")
	require.NoError(t, err)
	require.Empty(t, deps, "binary assets have no dependencies")

	_, err = src.Dependencies("Assets/Missing.prefab")
	require.Error(t, err)
}

func TestGUIDSource_DuplicateGUID(t *testing.T) {
	p := newFixture(t)
	write(t, p.Root, "Assets/Copy.mat", "")
	write(t, p.Root, "Assets/Copy.mat.meta", meta(guidMat))

	_, err := project.NewGUIDSource(p)
	require.ErrorContains(t, err, "claimed by both")
}

func TestProject_Files(t *testing.T) {
	p := newFixture(t)

	files, err := p.Files("Assets/Materials")
	require.NoError(t, err)
	require.Equal(t, []string{"Assets/Materials/M.mat", "Assets/Materials/M.mat.meta"}, files)

	_, err = p.Files("Assets/Nowhere")
	require.True(t, errors.Is(err, project.ErrFolderNotFound))
}

func TestTrimPrefix(t *testing.T) {
	require.Equal(t, "UI/Icons", project.TrimPrefix("Assets/UI/Icons", "Assets"))
	require.Equal(t, "Other/x.png", project.TrimPrefix("Other/x.png", "Assets"))
	require.Equal(t, "AssetsX/y", project.TrimPrefix("AssetsX/y", "Assets"))
}

type countingSource struct {
	calls int
	deps  []string
}

func (c *countingSource) Dependencies(string) ([]string, error) {
	c.calls++
	return c.deps, nil
}

func TestCachedSource(t *testing.T) {
	inner := &countingSource{deps: []string{"x"}}
	c, err := project.NewCachedSource(inner, 0)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		deps, err := c.Dependencies("a")
		require.NoError(t, err)
		require.Equal(t, []string{"x"}, deps)
	}
	require.Equal(t, 1, inner.calls)
}

func TestStaticSource(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "deps.yaml", "Assets/A.prefab: [Assets/B.mat, Assets/C.png]\nAssets/B.mat: [Assets/C.png]\n")

	src, err := project.LoadStaticSource(filepath.Join(dir, "deps.yaml"))
	require.NoError(t, err)

	deps, err := src.Dependencies("Assets/A.prefab")
	require.NoError(t, err)
	require.Equal(t, []string{"Assets/B.mat", "Assets/C.png"}, deps)

	deps, err = src.Dependencies("Assets/C.png")
	require.NoError(t, err)
	require.Empty(t, deps)
}
