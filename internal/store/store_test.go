package store_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tangle-network/frost-blueprint/internal/store"
)

func backends(t *testing.T) map[string]store.Store {
	t.Helper()
	dir, err := os.MkdirTemp("", "frost-store-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	bolt, err := store.NewBoltStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = bolt.Close() })

	return map[string]store.Store{
		"memory": store.NewMemStore(),
		"bolt":   bolt,
	}
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		s := s
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set(ctx, "k", []byte("v")))
			v, err := s.Get(ctx, "k")
			require.NoError(t, err)
			require.Equal(t, []byte("v"), v)

			ok, err := s.Exists(ctx, "k")
			require.NoError(t, err)
			require.True(t, ok)

			require.NoError(t, s.Del(ctx, "k"))
			ok, err = s.Exists(ctx, "k")
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		s := s
		t.Run(name, func(t *testing.T) {
			v, err := s.Get(ctx, "missing")
			require.NoError(t, err)
			require.Nil(t, v)
		})
	}
}

func TestDelIsIdempotent(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		s := s
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Del(ctx, "never-existed"))
			require.NoError(t, s.Del(ctx, "never-existed"))
		})
	}
}
