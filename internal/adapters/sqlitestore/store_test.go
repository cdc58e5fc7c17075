package sqlitestore

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "session.db")
	store, err := Open(context.Background(), Config{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestStore_SetGetDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _ := openTestStore(t)

	_, ok, err := store.Get(ctx, "auth_token")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "auth_token", "t1"))
	require.NoError(t, store.Set(ctx, "auth_token", "t2"))
	require.NoError(t, store.Set(ctx, "isLoggedIn", "true"))

	v, ok, err := store.Get(ctx, "auth_token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "t2", v)

	require.NoError(t, store.Delete(ctx, "auth_token", "isLoggedIn", "userInfo"))
	_, ok, err = store.Get(ctx, "auth_token")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Delete(ctx))
	assert.Error(t, store.Set(ctx, "", "x"))
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, path := openTestStore(t)

	require.NoError(t, store.Set(ctx, "userInfo", `{"clientFingerprint":"fp"}`))
	require.NoError(t, store.Close())

	reopened, err := Open(ctx, Config{Path: path})
	require.NoError(t, err)
	defer reopened.Close()

	v, ok, err := reopened.Get(ctx, "userInfo")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"clientFingerprint":"fp"}`, v)
}

func TestStore_ConcurrentWriters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _ := openTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Set(ctx, "isLoggedIn", "true"))
			assert.NoError(t, store.Delete(ctx, "isLoggedIn"))
		}()
	}
	wg.Wait()
}

func TestOpen_RequiresPath(t *testing.T) {
	t.Parallel()
	_, err := Open(context.Background(), Config{Path: "  "})
	assert.Error(t, err)
}

func TestOpen_InMemory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, err := Open(ctx, Config{Path: ":memory:"})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Set(ctx, "k", "v"))
	v, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}
