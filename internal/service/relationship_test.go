package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/feedcore/internal/docstore"
	"github.com/d60-Lab/feedcore/internal/model"
	"github.com/d60-Lab/feedcore/internal/repository"
)

func newRelService(t *testing.T, users ...string) (RelationshipService, docstore.Store) {
	t.Helper()
	store := newTestStore(t)
	ctx := context.Background()
	for _, u := range users {
		require.NoError(t, store.Create(ctx, model.ProfilePath(u), map[string]any{"displayName": "name-" + u}))
	}
	profiles := repository.NewProfileRepository(store)
	return NewRelationshipService(store, profiles, NewToggleEngine(store)), store
}

func TestFollowUnfollowCounts(t *testing.T) {
	svc, _ := newRelService(t, "u1", "u2", "u3")
	ctx := context.Background()

	require.NoError(t, svc.Follow(ctx, "u2", "u1"))
	require.NoError(t, svc.Follow(ctx, "u3", "u1"))
	// repeat follow is idempotent
	require.NoError(t, svc.Follow(ctx, "u2", "u1"))

	n, err := svc.FollowersCount(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	require.NoError(t, svc.Unfollow(ctx, "u3", "u1"))
	n, err = svc.FollowersCount(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = svc.FollowingCount(ctx, "u2")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	ok, err := svc.IsFollowing(ctx, "u2", "u1")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = svc.IsFollowing(ctx, "u3", "u1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestToggleFollowMirrorsBothSides(t *testing.T) {
	svc, store := newRelService(t, "u1", "u2")
	ctx := context.Background()

	following, err := svc.ToggleFollow(ctx, "u1", "u2")
	require.NoError(t, err)
	require.True(t, following)

	from, err := store.Get(ctx, model.ProfilePath("u1"))
	require.NoError(t, err)
	to, err := store.Get(ctx, model.ProfilePath("u2"))
	require.NoError(t, err)
	require.True(t, from.Contains(model.FieldFollowing, "u2"))
	require.True(t, to.Contains(model.FieldFollowers, "u1"))

	following, err = svc.ToggleFollow(ctx, "u1", "u2")
	require.NoError(t, err)
	require.False(t, following)

	to, err = store.Get(ctx, model.ProfilePath("u2"))
	require.NoError(t, err)
	require.False(t, to.Contains(model.FieldFollowers, "u1"))
}

func TestFollowValidation(t *testing.T) {
	svc, _ := newRelService(t, "u1")
	ctx := context.Background()

	require.ErrorIs(t, svc.Follow(ctx, "u1", "u1"), ErrFollowSelf)
	require.ErrorIs(t, svc.Follow(ctx, "", "u1"), ErrInvalidArgument)
	require.ErrorIs(t, svc.Follow(ctx, "u1", ""), ErrInvalidArgument)

	// unknown followee surfaces the store error
	require.ErrorIs(t, svc.Follow(ctx, "u1", "ghost"), docstore.ErrNotFound)
}

func TestFailedFollowLeavesNoEdge(t *testing.T) {
	svc, store := newRelService(t, "u1")
	ctx := context.Background()

	require.ErrorIs(t, svc.Follow(ctx, "u1", "ghost"), docstore.ErrNotFound)
	n, err := svc.FollowingCount(ctx, "u1")
	require.NoError(t, err)
	require.Zero(t, n)
	ok, err := svc.IsFollowing(ctx, "u1", "ghost")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = svc.ToggleFollow(ctx, "u1", "ghost")
	require.ErrorIs(t, err, docstore.ErrNotFound)
	from, err := store.Get(ctx, model.ProfilePath("u1"))
	require.NoError(t, err)
	require.False(t, from.Contains(model.FieldFollowing, "ghost"))
}

func TestListFollowersResolvesProfiles(t *testing.T) {
	svc, store := newRelService(t, "u1", "u2", "u3")
	ctx := context.Background()

	require.NoError(t, svc.Follow(ctx, "u2", "u1"))
	require.NoError(t, svc.Follow(ctx, "u3", "u1"))

	followers, err := svc.ListFollowers(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, followers, 2)
	names := []string{followers[0].DisplayName, followers[1].DisplayName}
	require.ElementsMatch(t, []string{"name-u2", "name-u3"}, names)

	// a follower whose profile vanished is dropped, not errored
	require.NoError(t, store.Delete(ctx, model.ProfilePath("u3")))
	followers, err = svc.ListFollowers(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, followers, 1)
	require.Equal(t, "name-u2", followers[0].DisplayName)
}
