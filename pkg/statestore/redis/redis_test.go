package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/striderun/stride/pkg/statestore"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
	})

	return NewStore(client)
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	ns := statestore.Namespace("user-1", "wf-1")

	tests := []struct {
		key   string
		value any
	}{
		{"last_price", 105.2},
		{"symbol", "BTC"},
		{"notified", true},
		{"snapshot", map[string]any{"price": 99.9}},
	}

	for _, tt := range tests {
		require.NoError(t, store.Set(ctx, ns, tt.key, tt.value))

		got, err := store.Get(ctx, ns, tt.key)
		require.NoError(t, err)
		assert.Equal(t, tt.value, got)
	}
}

func TestStoreGetAbsentKey(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "ns", "missing")
	assert.True(t, statestore.IsKeyNotFound(err))
}

func TestStoreClearThenGetAllIsEmpty(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, key := range []string{"a", "b"} {
		require.NoError(t, store.Set(ctx, "ns", key, key))
	}

	require.NoError(t, store.Clear(ctx, "ns"))

	all, err := store.GetAll(ctx, "ns")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStoreDeleteAndNamespaceIsolation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Set(ctx, "ns-a", "k", "a"))
	require.NoError(t, store.Set(ctx, "ns-b", "k", "b"))

	require.NoError(t, store.Delete(ctx, "ns-a", "k"))

	_, err := store.Get(ctx, "ns-a", "k")
	assert.True(t, statestore.IsKeyNotFound(err))

	got, err := store.Get(ctx, "ns-b", "k")
	require.NoError(t, err)
	assert.Equal(t, "b", got)
}
