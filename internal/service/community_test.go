package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/feedcore/internal/blobstore"
	"github.com/d60-Lab/feedcore/internal/docstore"
	"github.com/d60-Lab/feedcore/internal/model"
	"github.com/d60-Lab/feedcore/internal/repository"
)

func newCommunityService(t *testing.T) (*CommunityService, docstore.Store) {
	t.Helper()
	store := newTestStore(t)
	blobs, err := blobstore.NewLocalStore(t.TempDir(), "/uploads")
	require.NoError(t, err)
	profiles := repository.NewProfileRepository(store)
	svc := NewCommunityService(repository.NewCommunityRepository(store), profiles, NewToggleEngine(store), blobs)
	return svc, store
}

func TestCommunityCreateAndGet(t *testing.T) {
	svc, _ := newCommunityService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, "gophers", "a place for go talk")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	c, err := svc.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "gophers", c.Name)
	require.Equal(t, "a place for go talk", c.Description)

	_, err = svc.Create(ctx, "  ", "")
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.Get(ctx, "missing")
	require.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestCommunitySearchPrefix(t *testing.T) {
	svc, _ := newCommunityService(t)
	ctx := context.Background()

	for _, name := range []string{"gophers", "gopher-art", "pythonistas"} {
		_, err := svc.Create(ctx, name, "")
		require.NoError(t, err)
	}

	matches, err := svc.Search(ctx, "gopher")
	require.NoError(t, err)
	require.Len(t, matches, 2)

	matches, err = svc.Search(ctx, "")
	require.NoError(t, err)
	require.Nil(t, matches)

	matches, err = svc.Search(ctx, "zzz")
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestToggleMembership(t *testing.T) {
	svc, store := newCommunityService(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, model.ProfilePath("u1"), map[string]any{"displayName": "A"}))
	id, err := svc.Create(ctx, "gophers", "")
	require.NoError(t, err)

	member, err := svc.ToggleMembership(ctx, "u1", id)
	require.NoError(t, err)
	require.True(t, member)

	ok, err := svc.IsMember(ctx, "u1", id)
	require.NoError(t, err)
	require.True(t, ok)

	member, err = svc.ToggleMembership(ctx, "u1", id)
	require.NoError(t, err)
	require.False(t, member)

	ok, err = svc.IsMember(ctx, "u1", id)
	require.NoError(t, err)
	require.False(t, ok)

	// unknown user reads as not a member
	ok, err = svc.IsMember(ctx, "ghost", id)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUserCommunitiesDropsMissing(t *testing.T) {
	svc, store := newCommunityService(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, model.ProfilePath("u1"), map[string]any{"displayName": "A"}))
	c1, err := svc.Create(ctx, "one", "")
	require.NoError(t, err)
	c2, err := svc.Create(ctx, "two", "")
	require.NoError(t, err)

	_, err = svc.ToggleMembership(ctx, "u1", c1)
	require.NoError(t, err)
	_, err = svc.ToggleMembership(ctx, "u1", c2)
	require.NoError(t, err)

	list, err := svc.UserCommunities(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.NoError(t, store.Delete(ctx, model.CommunityPath(c2)))
	list, err = svc.UserCommunities(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "one", list[0].Name)
}

func TestCommunityImageUpload(t *testing.T) {
	svc, _ := newCommunityService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, "gophers", "")
	require.NoError(t, err)

	url, err := svc.UpdatePhoto(ctx, id, strings.NewReader("png-bytes"), "image/png")
	require.NoError(t, err)
	require.Equal(t, "/uploads/communities/"+id+"/photo.png", url)

	c, err := svc.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, url, c.PhotoURL)

	_, err = svc.UpdateBanner(ctx, id, strings.NewReader("data"), "text/plain")
	require.ErrorIs(t, err, blobstore.ErrUnsupportedType)

	_, err = svc.UpdatePhoto(ctx, "missing", strings.NewReader("x"), "image/png")
	require.ErrorIs(t, err, docstore.ErrNotFound)
}
