package naming_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/unitmap/internal/collect"
	"github.com/gyaneshwarpardhi/unitmap/internal/config"
	"github.com/gyaneshwarpardhi/unitmap/internal/naming"
)

func boundaries() *collect.Boundaries {
	return collect.NewBoundaries([]config.Folder{
		{Path: "Assets/UI", SingleUnit: true, UnitName: "ui", Variant: "hd"},
		{Path: "Assets/Audio/Music", SingleUnit: true},
	})
}

func TestAssigner_Apply(t *testing.T) {
	store := naming.NewMemoryStore()
	a := naming.NewAssigner(store, "Assets", boundaries())

	got, err := a.Apply(naming.Input{
		Explicit: []string{"Assets/UI/a.png", "Assets/Audio/Music/theme.ogg"},
		Isolated: []string{"Assets/Shared/C.mat"},
		Roots:    []string{"Assets/Shared/A.prefab", "Assets/Shared/C.mat"},
	})
	require.NoError(t, err)
	require.Equal(t, []naming.Assignment{
		{Path: "Assets/UI/a.png", Unit: "ui", Variant: "hd", Reason: naming.ReasonExplicit},
		{Path: "Assets/Audio/Music/theme.ogg", Unit: "Audio/Music", Reason: naming.ReasonExplicit},
		{Path: "Assets/Shared/C.mat", Unit: "Shared/C.mat", Reason: naming.ReasonIsolated},
		{Path: "Assets/Shared/A.prefab", Unit: "Shared/A.prefab", Reason: naming.ReasonRoot},
	}, got)

	labels, err := store.All()
	require.NoError(t, err)
	require.Len(t, labels, 4)
	require.Equal(t, naming.Label{Unit: "ui", Variant: "hd"}, labels["Assets/UI/a.png"])
}

func TestAssigner_ClearsStaleNames(t *testing.T) {
	store := naming.NewMemoryStore()
	require.NoError(t, store.Replace(map[string]naming.Label{"Assets/Old/gone.png": {Unit: "Old/gone.png"}}))

	a := naming.NewAssigner(store, "Assets", nil)
	_, err := a.Apply(naming.Input{Isolated: []string{"Assets/Shared/C.mat"}})
	require.NoError(t, err)

	labels, err := store.All()
	require.NoError(t, err)
	require.Equal(t, map[string]naming.Label{"Assets/Shared/C.mat": {Unit: "Shared/C.mat"}}, labels)
}

func TestAssigner_Idempotent(t *testing.T) {
	stores := map[string]naming.Store{
		"memory": naming.NewMemoryStore(),
		"file":   naming.NewFileStore(filepath.Join(t.TempDir(), "state", "labels.yaml")),
	}
	in := naming.Input{
		Explicit: []string{"Assets/UI/a.png"},
		Isolated: []string{"Assets/Shared/C.mat"},
		Roots:    []string{"Assets/Shared/A.prefab"},
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			a := naming.NewAssigner(store, "Assets", boundaries())

			first, err := a.Apply(in)
			require.NoError(t, err)
			before, err := store.All()
			require.NoError(t, err)

			second, err := a.Apply(in)
			require.NoError(t, err)
			after, err := store.All()
			require.NoError(t, err)

			require.Equal(t, first, second)
			require.Equal(t, before, after)
		})
	}
}

// countingStore counts Replace calls and can be told to fail them.
type countingStore struct {
	naming.Store
	replaces int
	fail     error
}

func (s *countingStore) Replace(labels map[string]naming.Label) error {
	s.replaces++
	if s.fail != nil {
		return s.fail
	}
	return s.Store.Replace(labels)
}

func TestAssigner_SingleWrite(t *testing.T) {
	store := &countingStore{Store: naming.NewFileStore(filepath.Join(t.TempDir(), "labels.yaml"))}
	a := naming.NewAssigner(store, "Assets", nil)

	var in naming.Input
	for i := 0; i < 1000; i++ {
		in.Isolated = append(in.Isolated, fmt.Sprintf("Assets/Shared/%04d.mat", i))
	}
	got, err := a.Apply(in)
	require.NoError(t, err)
	require.Len(t, got, 1000)
	require.Equal(t, 1, store.replaces)

	labels, err := store.All()
	require.NoError(t, err)
	require.Len(t, labels, 1000)
}

func TestAssigner_FailedWriteKeepsPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.yaml")
	previous := map[string]naming.Label{"Assets/Old.png": {Unit: "Old.png"}}
	require.NoError(t, naming.NewFileStore(path).Replace(previous))

	boom := errors.New("disk full")
	store := &countingStore{Store: naming.NewFileStore(path), fail: boom}
	a := naming.NewAssigner(store, "Assets", nil)

	_, err := a.Apply(naming.Input{Isolated: []string{"Assets/Shared/C.mat", "Assets/Shared/D.mat"}})
	require.ErrorIs(t, err, boom)

	labels, err := naming.NewFileStore(path).All()
	require.NoError(t, err)
	require.Equal(t, previous, labels)
}

func TestFileStore_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.yaml")
	s := naming.NewFileStore(path)

	all, err := s.All()
	require.NoError(t, err)
	require.Empty(t, all, "missing file reads as empty")

	require.NoError(t, s.Replace(map[string]naming.Label{
		"Assets/B.png": {Unit: "B.png"},
		"Assets/A.png": {Unit: "ui", Variant: "sd"},
	}))

	reopened := naming.NewFileStore(path)
	all, err = reopened.All()
	require.NoError(t, err)
	require.Equal(t, []string{"Assets/A.png", "Assets/B.png"}, naming.Sorted(all))
	require.Equal(t, "sd", all["Assets/A.png"].Variant)

	require.NoError(t, reopened.Replace(nil))
	all, err = s.All()
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestUnitKey(t *testing.T) {
	require.Equal(t, "ui", naming.UnitKey("ui", ""))
	require.Equal(t, "ui.hd", naming.UnitKey("ui", "hd"))
}
