package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/d60-Lab/feedcore/internal/docstore"
	"github.com/d60-Lab/feedcore/internal/model"
)

// CommunityRepository 社区仓储
type CommunityRepository interface {
	Create(ctx context.Context, c *model.Community) (string, error)
	Get(ctx context.Context, id string) (model.Community, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	// SearchByName matches names in [prefix, prefix+"\uf8ff"].
	SearchByName(ctx context.Context, prefix string) ([]model.Community, error)
}

type communityRepository struct {
	store docstore.Store
}

func NewCommunityRepository(store docstore.Store) CommunityRepository {
	return &communityRepository{store: store}
}

func (r *communityRepository) Create(ctx context.Context, c *model.Community) (string, error) {
	id := uuid.New().String()
	if err := r.store.Create(ctx, model.CommunityPath(id), c.Fields()); err != nil {
		return "", err
	}
	return id, nil
}

func (r *communityRepository) Get(ctx context.Context, id string) (model.Community, error) {
	doc, err := r.store.Get(ctx, model.CommunityPath(id))
	if err != nil {
		return model.Community{}, err
	}
	return model.CommunityFromDoc(&doc), nil
}

func (r *communityRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	return r.store.Merge(ctx, model.CommunityPath(id), fields)
}

func (r *communityRepository) SearchByName(ctx context.Context, prefix string) ([]model.Community, error) {
	docs, err := r.store.Query(ctx, docstore.Query{
		Collection: model.CollectionCommunities,
		Filters: []docstore.Filter{
			{Field: "name", Op: ">=", Value: prefix},
			{Field: "name", Op: "<=", Value: prefix + "\uf8ff"},
		},
	})
	if err != nil {
		return nil, err
	}
	out := make([]model.Community, 0, len(docs))
	for i := range docs {
		out = append(out, model.CommunityFromDoc(&docs[i]))
	}
	return out, nil
}
