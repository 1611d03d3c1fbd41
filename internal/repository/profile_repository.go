package repository

import (
	"context"

	"github.com/d60-Lab/feedcore/internal/docstore"
	"github.com/d60-Lab/feedcore/internal/model"
)

// ProfileRepository 用户档案仓储
type ProfileRepository interface {
	Get(ctx context.Context, id string) (model.Profile, error)
	Create(ctx context.Context, p *model.Profile) error
	Update(ctx context.Context, id string, fields map[string]any) error
}

type profileRepository struct {
	store docstore.Store
}

func NewProfileRepository(store docstore.Store) ProfileRepository {
	return &profileRepository{store: store}
}

func (r *profileRepository) Get(ctx context.Context, id string) (model.Profile, error) {
	doc, err := r.store.Get(ctx, model.ProfilePath(id))
	if err != nil {
		return model.Profile{}, err
	}
	return model.ProfileFromDoc(&doc), nil
}

func (r *profileRepository) Create(ctx context.Context, p *model.Profile) error {
	return r.store.Create(ctx, model.ProfilePath(p.ID), p.Fields())
}

func (r *profileRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	return r.store.Merge(ctx, model.ProfilePath(id), fields)
}
