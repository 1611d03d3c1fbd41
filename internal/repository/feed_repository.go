package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/d60-Lab/feedcore/internal/docstore"
	"github.com/d60-Lab/feedcore/internal/model"
)

// FeedRepository 帖子与评论仓储
type FeedRepository interface {
	CreatePost(ctx context.Context, p *model.Post) (string, error)
	GetPost(ctx context.Context, id string) (model.Post, error)
	CreateComment(ctx context.Context, postID string, c *model.Comment) (string, error)
	GetComment(ctx context.Context, postID, commentID string) (model.Comment, error)
	ListPosts(ctx context.Context) ([]model.Post, error)
}

type feedRepository struct {
	store docstore.Store
}

func NewFeedRepository(store docstore.Store) FeedRepository {
	return &feedRepository{store: store}
}

func (r *feedRepository) CreatePost(ctx context.Context, p *model.Post) (string, error) {
	id := uuid.New().String()
	if err := r.store.Create(ctx, docstore.Join(model.CollectionPosts, id), p.Fields()); err != nil {
		return "", err
	}
	return id, nil
}

func (r *feedRepository) GetPost(ctx context.Context, id string) (model.Post, error) {
	doc, err := r.store.Get(ctx, docstore.Join(model.CollectionPosts, id))
	if err != nil {
		return model.Post{}, err
	}
	return model.PostFromDoc(&doc), nil
}

func (r *feedRepository) CreateComment(ctx context.Context, postID string, c *model.Comment) (string, error) {
	id := uuid.New().String()
	path := docstore.Join(model.CommentsCollection(postID), id)
	if err := r.store.Create(ctx, path, c.Fields()); err != nil {
		return "", err
	}
	return id, nil
}

func (r *feedRepository) GetComment(ctx context.Context, postID, commentID string) (model.Comment, error) {
	doc, err := r.store.Get(ctx, docstore.Join(model.CommentsCollection(postID), commentID))
	if err != nil {
		return model.Comment{}, err
	}
	return model.CommentFromDoc(postID, &doc), nil
}

func (r *feedRepository) ListPosts(ctx context.Context) ([]model.Post, error) {
	docs, err := r.store.Query(ctx, docstore.Query{Collection: model.CollectionPosts, Desc: true})
	if err != nil {
		return nil, err
	}
	posts := make([]model.Post, 0, len(docs))
	for i := range docs {
		posts = append(posts, model.PostFromDoc(&docs[i]))
	}
	return posts, nil
}
