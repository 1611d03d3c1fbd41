package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/feedcore/internal/docstore"
	"github.com/d60-Lab/feedcore/internal/model"
)

func newCachedRepo(t *testing.T) (*CachedProfileRepository, *miniredis.Miniredis) {
	t.Helper()
	store := newTestStore(t)
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })
	repo := NewCachedProfileRepository(NewProfileRepository(store), cache, time.Minute)
	require.NoError(t, repo.Create(context.Background(), &model.Profile{ID: "u1", DisplayName: "Alice"}))
	return repo, mr
}

func TestCachedGetHitsAfterFirstRead(t *testing.T) {
	repo, _ := newCachedRepo(t)
	ctx := context.Background()

	p, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "Alice", p.DisplayName)

	p, err = repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "Alice", p.DisplayName)

	hits, misses := repo.Counters()
	require.Equal(t, int64(1), hits)
	require.Equal(t, int64(1), misses)
}

func TestCachedUpdateInvalidates(t *testing.T) {
	repo, _ := newCachedRepo(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, "u1") // warm the cache
	require.NoError(t, err)

	require.NoError(t, repo.Update(ctx, "u1", map[string]any{"displayName": "Renamed"}))

	p, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "Renamed", p.DisplayName)
}

func TestCachedGetExpiry(t *testing.T) {
	repo, mr := newCachedRepo(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	_, err = repo.Get(ctx, "u1")
	require.NoError(t, err)
	_, misses := repo.Counters()
	require.Equal(t, int64(2), misses)
}

func TestCachedGetMissingUser(t *testing.T) {
	repo, _ := newCachedRepo(t)

	_, err := repo.Get(context.Background(), "ghost")
	require.ErrorIs(t, err, docstore.ErrNotFound)
}
