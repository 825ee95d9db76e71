package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()

	dir := t.TempDir()
	fileStore, err := NewFileStore(filepath.Join(dir, "data"))
	require.NoError(t, err)

	sqliteStore, err := NewSQLiteStore(filepath.Join(dir, "kiosk.sqlite"))
	require.NoError(t, err)

	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fileStore,
		"sqlite": sqliteStore,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()

			// absent key reads as nil
			value, err := store.Get("checkin_queue_evt-1")
			require.NoError(t, err)
			require.Nil(t, value)

			require.NoError(t, store.Set("checkin_queue_evt-1", []byte(`["A","B"]`)))

			value, err = store.Get("checkin_queue_evt-1")
			require.NoError(t, err)
			require.Equal(t, `["A","B"]`, string(value))

			// overwrite replaces wholesale
			require.NoError(t, store.Set("checkin_queue_evt-1", []byte(`[]`)))
			value, err = store.Get("checkin_queue_evt-1")
			require.NoError(t, err)
			require.Equal(t, `[]`, string(value))
		})
	}
}

func TestStoreDelete(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()

			require.NoError(t, store.Set("session", []byte("x")))
			require.NoError(t, store.Delete("session"))

			value, err := store.Get("session")
			require.NoError(t, err)
			require.Nil(t, value)

			// deleting an absent key is a no-op
			require.NoError(t, store.Delete("session"))
		})
	}
}

func TestStoreKeysAreIndependent(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()

			require.NoError(t, store.Set("checkin_queue_evt-1", []byte(`["A"]`)))
			require.NoError(t, store.Set("checkin_queue_evt-2", []byte(`["B"]`)))

			first, err := store.Get("checkin_queue_evt-1")
			require.NoError(t, err)
			require.Equal(t, `["A"]`, string(first))

			second, err := store.Get("checkin_queue_evt-2")
			require.NoError(t, err)
			require.Equal(t, `["B"]`, string(second))
		})
	}
}

func TestFileStoreSanitizesKeys(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Set("queue/../weird key", []byte("v")))
	value, err := store.Get("queue/../weird key")
	require.NoError(t, err)
	require.Equal(t, "v", string(value))

	// nothing escaped the data directory
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
}
