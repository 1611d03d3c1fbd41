package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/feedcore/internal/model"
	"github.com/d60-Lab/feedcore/internal/repository"
)

func TestSearchMergesCommunitiesAndUsers(t *testing.T) {
	store := newTestStore(t)
	communities := repository.NewCommunityRepository(store)
	svc := NewSearchService(store, communities)
	ctx := context.Background()

	_, err := communities.Create(ctx, &model.Community{Name: "gophers", Description: "go talk"})
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, model.ProfilePath("u1"), map[string]any{"displayName": "gopherfan"}))
	require.NoError(t, store.Create(ctx, model.ProfilePath("u2"), map[string]any{"displayName": "unrelated"}))

	results := svc.Search(ctx, "gopher", "")
	require.Len(t, results, 2)
	// communities come first
	require.Equal(t, "community", results[0].Kind)
	require.Equal(t, "gophers", results[0].Name)
	require.Equal(t, "user", results[1].Kind)
	require.Equal(t, "u1", results[1].ID)
}

func TestSearchExcludesSelf(t *testing.T) {
	store := newTestStore(t)
	svc := NewSearchService(store, repository.NewCommunityRepository(store))
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, model.ProfilePath("me"), map[string]any{"displayName": "gopher me"}))
	require.NoError(t, store.Create(ctx, model.ProfilePath("other"), map[string]any{"displayName": "gopher other"}))

	results := svc.Search(ctx, "gopher", "me")
	require.Len(t, results, 1)
	require.Equal(t, "other", results[0].ID)
}

func TestSearchEmptyQuery(t *testing.T) {
	store := newTestStore(t)
	svc := NewSearchService(store, repository.NewCommunityRepository(store))

	require.Nil(t, svc.Search(context.Background(), "  ", "me"))
}
