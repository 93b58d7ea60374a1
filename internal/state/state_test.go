package state

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// storeContract runs the same checks against every Store implementation.
func storeContract(t *testing.T, store Store) {
	ctx := t.Context()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Set(ctx, "b", []byte("1")))
	require.NoError(t, store.Set(ctx, "a", []byte("2")))
	require.NoError(t, store.Set(ctx, "b", []byte("3")))

	v, ok, err := store.Get(ctx, "b")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("3"), v)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, keys)

	require.NoError(t, store.Delete(ctx, "a"))
	require.NoError(t, store.Delete(ctx, "a"), "deleting an absent key is fine")
	keys, err = store.Keys(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, keys)
}

func TestStoreContract(t *testing.T) {
	t.Run("sqlite", func(t *testing.T) { storeContract(t, openTestStore(t)) })
	t.Run("memory", func(t *testing.T) { storeContract(t, NewMemoryStore()) })
}

func TestSQLiteStore_MissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	store, err := OpenSQLite(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	keys, err := store.Keys(t.Context())
	require.NoError(t, err)
	require.Empty(t, keys)
	require.FileExists(t, path)
}

func TestSQLiteStore_PersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, NewRecords(store).Put(t.Context(), "core", Record{Installed: true, LastStatus: StatusOK}))
	require.NoError(t, store.Close())

	store, err = OpenSQLite(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	rec, ok, err := NewRecords(store).Get(t.Context(), "core")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, rec.Installed)
	require.Equal(t, StatusOK, rec.LastStatus)
}

func TestSQLiteStore_CorruptFileIsMovedAside(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	garbage := bytes.Repeat([]byte("not a sqlite database. "), 512)
	require.NoError(t, os.WriteFile(path, garbage, 0o600))

	store, err := OpenSQLite(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	keys, err := store.Keys(t.Context())
	require.NoError(t, err)
	require.Empty(t, keys)
	require.FileExists(t, path+".corrupt")
}

func TestSQLiteStore_ConcurrentWritersKeepEveryKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	first, err := OpenSQLite(path)
	require.NoError(t, err)
	defer func() { _ = first.Close() }()
	second, err := OpenSQLite(path)
	require.NoError(t, err)
	defer func() { _ = second.Close() }()

	ctx := context.Background()
	var wg sync.WaitGroup
	for i, s := range []*SQLiteStore{first, second} {
		wg.Add(1)
		go func(prefix string, s *SQLiteStore) {
			defer wg.Done()
			for j := range 20 {
				assert.NoError(t, s.Set(ctx, prefix+string(rune('a'+j)), []byte("v")))
			}
		}([]string{"x/", "y/"}[i], s)
	}
	wg.Wait()

	keys, err := first.Keys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 40)
}

func TestRecords_MalformedEntryIsAbsent(t *testing.T) {
	ctx := t.Context()
	store := NewMemoryStore()
	records := NewRecords(store)

	require.NoError(t, store.Set(ctx, Key("viz"), []byte("{not json")))
	require.NoError(t, store.Set(ctx, Key("jupyter"), []byte(`{"installed":true,"last_status":"sparkly"}`)))
	require.NoError(t, records.Put(ctx, "core", Record{Installed: true, LastStatus: StatusDegraded}))

	_, ok, err := records.Get(ctx, "viz")
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = records.Get(ctx, "jupyter")
	require.NoError(t, err)
	require.False(t, ok, "unknown status values are corruption too")

	all, err := records.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, StatusDegraded, all["core"].LastStatus)
}

func TestRecords_UpdateAndAnyInstalled(t *testing.T) {
	ctx := t.Context()
	records := NewRecords(NewMemoryStore())

	installed, err := records.AnyInstalled(ctx)
	require.NoError(t, err)
	require.False(t, installed)

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, records.Update(ctx, "home", func(rec *Record, exists bool) {
		require.False(t, exists)
		rec.Installed = true
		rec.InstalledAt = now
		rec.LastStatus = StatusOK
	}))

	installed, err = records.AnyInstalled(ctx)
	require.NoError(t, err)
	require.True(t, installed)

	rec, ok, err := records.Get(ctx, "home")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, rec.InstalledAt.Equal(now))

	require.NoError(t, records.Delete(ctx, "home"))
	_, ok, err = records.Get(ctx, "home")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHistory(t *testing.T) {
	for name, h := range map[string]History{"sqlite": openTestStore(t), "memory": NewMemoryStore()} {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()
			for _, c := range []string{"home", "python", "core"} {
				require.NoError(t, h.Append(ctx, Event{RunID: "r1", Component: c, Kind: "install", Outcome: "ok"}))
			}

			events, err := h.Recent(ctx, 2)
			require.NoError(t, err)
			require.Len(t, events, 2)
			require.Equal(t, "core", events[0].Component)
			require.Equal(t, "python", events[1].Component)
			require.False(t, events[0].At.IsZero())

			none, err := h.Recent(ctx, 0)
			require.NoError(t, err)
			require.Empty(t, none)
		})
	}
}

func TestStatus(t *testing.T) {
	s, err := ParseStatus(" Degraded ")
	require.NoError(t, err)
	require.Equal(t, StatusDegraded, s)

	_, err = ParseStatus("fine")
	require.Error(t, err)

	require.True(t, StatusDegraded.NeedsRepair())
	require.True(t, StatusBroken.NeedsRepair())
	require.False(t, StatusOK.NeedsRepair())
	require.False(t, StatusUnknown.NeedsRepair())
	require.True(t, StatusOK.IsHealthy())

	require.Equal(t, StatusOK, Worst())
	require.Equal(t, StatusBroken, Worst(StatusOK, StatusBroken, StatusDegraded))
	require.Equal(t, StatusDegraded, Worst(StatusOK, StatusDegraded))
}
