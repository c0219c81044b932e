package kvstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStores(t *testing.T) {
	boltPath := filepath.Join(t.TempDir(), "client.db")
	boltStore, err := OpenBolt(boltPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = boltStore.Close() })

	stores := map[string]Store{
		"bolt":    boltStore,
		"session": NewSessionStore(),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			_, found, err := store.Get("missing")
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, store.Set("k", "v1"))
			v, found, err := store.Get("k")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, "v1", v)

			require.NoError(t, store.Set("k", "v2"))
			v, _, err = store.Get("k")
			require.NoError(t, err)
			assert.Equal(t, "v2", v)

			require.NoError(t, store.Delete("k"))
			_, found, err = store.Get("k")
			require.NoError(t, err)
			assert.False(t, found)

			// deleting an absent key is fine
			require.NoError(t, store.Delete("k"))
		})
	}
}

func TestBoltStore_persistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.db")

	store, err := OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, store.Set("notifications:last_seen:student", "42"))
	require.NoError(t, store.Close())

	store, err = OpenBolt(path)
	require.NoError(t, err)
	defer store.Close()

	v, found, err := store.Get("notifications:last_seen:student")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "42", v)
}
