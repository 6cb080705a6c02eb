package pack_test

import (
	"archive/tar"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/unitmap/internal/naming"
	"github.com/gyaneshwarpardhi/unitmap/internal/pack"
	"github.com/gyaneshwarpardhi/unitmap/internal/project"
)

func fixture() pack.Request {
	return pack.Request{
		BuildID:  "b1",
		Platform: "linux64",
		Files: fstest.MapFS{
			"Assets/Shared/A.prefab": {Data: []byte("A")},
			"Assets/Shared/B.prefab": {Data: []byte("B")},
			"Assets/Shared/C.mat":    {Data: []byte("C")},
			"Assets/Shared/D.png":    {Data: []byte("DDDD")},
			"Assets/Shared/E.png":    {Data: []byte("E")},
			"Assets/UI/a.png":        {Data: []byte("a")},
			"Assets/UI/b.png":        {Data: []byte("b")},
		},
		Source: project.StaticSource{
			"Assets/Shared/A.prefab": {"Assets/Shared/C.mat", "Assets/Shared/E.png"},
			"Assets/Shared/B.prefab": {"Assets/Shared/C.mat"},
			"Assets/Shared/C.mat":    {"Assets/Shared/D.png", "Assets/Shared/C.mat.meta"},
		},
		Ignore: func(p string) bool { return filepath.Ext(p) == ".meta" },
		Assignments: []naming.Assignment{
			{Path: "Assets/UI/a.png", Unit: "ui", Variant: "hd"},
			{Path: "Assets/UI/b.png", Unit: "ui", Variant: "hd"},
			{Path: "Assets/Shared/C.mat", Unit: "Shared/C.mat"},
			{Path: "Assets/Shared/A.prefab", Unit: "Shared/A.prefab"},
			{Path: "Assets/Shared/B.prefab", Unit: "Shared/B.prefab"},
		},
	}
}

func TestGroup(t *testing.T) {
	units, err := pack.Group(fixture())
	require.NoError(t, err)
	require.Len(t, units, 4)

	require.Equal(t, "ui.hd", units[0].Key)
	require.Equal(t, []string{"Assets/UI/a.png", "Assets/UI/b.png"}, units[0].Assets)
	require.Empty(t, units[0].Absorbed)

	require.Equal(t, "Shared/C.mat", units[1].Key)
	require.Equal(t, []string{"Assets/Shared/D.png"}, units[1].Absorbed, "ignored dependency is skipped")

	require.Equal(t, "Shared/A.prefab", units[2].Key)
	require.Equal(t, []string{"Assets/Shared/E.png"}, units[2].Absorbed, "assigned dependency keeps its own unit")
}

func readArchive(t *testing.T, file string) map[string]string {
	t.Helper()
	f, err := os.Open(file)
	require.NoError(t, err)
	defer f.Close()
	dec, err := zstd.NewReader(f)
	require.NoError(t, err)
	defer dec.Close()

	out := make(map[string]string)
	tr := tar.NewReader(dec)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		body, err := io.ReadAll(tr)
		require.NoError(t, err)
		out[hdr.Name] = string(body)
	}
	return out
}

func TestArchive_Pack(t *testing.T) {
	req := fixture()
	req.OutputDir = filepath.Join(t.TempDir(), "out", "nested")
	req.Options = []string{"level=best"}

	m, err := pack.NewArchive(2).Pack(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "archive", m.Backend)
	require.Equal(t, []string{"ui.hd", "Shared/C.mat", "Shared/A.prefab", "Shared/B.prefab"}, m.Names())

	c := m.Units[1]
	require.Equal(t, "Shared/C.mat"+pack.ExtCompressed, c.File)
	info, err := os.Stat(filepath.Join(req.OutputDir, filepath.FromSlash(c.File)))
	require.NoError(t, err)
	require.Equal(t, info.Size(), c.Size)

	require.Equal(t, map[string]string{
		"Assets/Shared/C.mat": "C",
		"Assets/Shared/D.png": "DDDD",
	}, readArchive(t, filepath.Join(req.OutputDir, filepath.FromSlash(c.File))))
}

func TestArchive_Uncompressed(t *testing.T) {
	req := fixture()
	req.OutputDir = t.TempDir()
	req.Options = []string{pack.OptionUncompressed}

	m, err := pack.NewArchive(1).Pack(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "ui.hd"+pack.ExtUncompressed, m.Units[0].File)

	f, err := os.Open(filepath.Join(req.OutputDir, m.Units[0].File))
	require.NoError(t, err)
	defer f.Close()
	hdr, err := tar.NewReader(f).Next()
	require.NoError(t, err)
	require.Equal(t, "Assets/UI/a.png", hdr.Name)
}

func TestArchive_Errors(t *testing.T) {
	req := fixture()
	req.OutputDir = t.TempDir()

	req.Options = []string{"chunked"}
	_, err := pack.NewArchive(1).Pack(context.Background(), req)
	require.ErrorContains(t, err, "unknown archive option")

	req.Options = nil
	req.Assignments = append(req.Assignments, naming.Assignment{Path: "Assets/Gone.png", Unit: "Gone.png"})
	_, err = pack.NewArchive(2).Pack(context.Background(), req)
	require.ErrorContains(t, err, "unit Gone.png")
}

func TestArchive_UnitNameEscapingOutput(t *testing.T) {
	root := t.TempDir()
	req := fixture()
	req.OutputDir = filepath.Join(root, "a", "out")
	req.Assignments = []naming.Assignment{{Path: "Assets/UI/a.png", Unit: "../../escaped"}}

	_, err := pack.NewArchive(1).Pack(context.Background(), req)
	require.ErrorContains(t, err, "escapes the output directory")

	_, err = os.Stat(filepath.Join(root, "escaped"+pack.ExtCompressed))
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDryRun_WritesNothing(t *testing.T) {
	req := fixture()
	req.OutputDir = filepath.Join(t.TempDir(), "never")

	m, err := pack.DryRun{}.Pack(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, m.Units, 4)
	require.Empty(t, m.Units[0].File)

	_, err = os.Stat(req.OutputDir)
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRegistry(t *testing.T) {
	r := pack.DefaultRegistry(2)
	require.Equal(t, []string{"archive", "dryrun"}, r.Names())

	b, err := r.Get("dryrun")
	require.NoError(t, err)
	require.Equal(t, "dryrun", b.Name())

	_, err = r.Get("bundle")
	require.Error(t, err)

	require.Panics(t, func() { r.Register(pack.DryRun{}) })
}
