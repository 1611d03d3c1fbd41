package service

import (
	"context"
	"fmt"

	"github.com/d60-Lab/feedcore/internal/docstore"
	"github.com/d60-Lab/feedcore/internal/model"
	"github.com/d60-Lab/feedcore/internal/repository"
)

// Reaction set names; like and dislike are mutually exclusive.
const (
	ReactionLike    = "like"
	ReactionDislike = "dislike"
)

// PostBatch / CommentBatch are typed snapshot deliveries.
type PostBatch struct {
	Version uint64       `json:"version"`
	Posts   []model.Post `json:"posts"`
}

type CommentBatch struct {
	Version  uint64          `json:"version"`
	Comments []model.Comment `json:"comments"`
}

// FeedService 帖子、评论与反应
type FeedService struct {
	repo     repository.FeedRepository
	profiles repository.ProfileRepository
	toggles  *ToggleEngine
	sync     *Synchronizer
}

func NewFeedService(repo repository.FeedRepository, profiles repository.ProfileRepository, toggles *ToggleEngine, sync *Synchronizer) *FeedService {
	return &FeedService{repo: repo, profiles: profiles, toggles: toggles, sync: sync}
}

// SavePost persists a new post with the author snapshot captured at
// write time. The creation timestamp is assigned by the store.
func (s *FeedService) SavePost(ctx context.Context, p model.Post) (string, error) {
	if p.UserID == "" {
		return "", fmt.Errorf("%w: post requires user_id", ErrInvalidArgument)
	}
	if p.Category == "" {
		p.Category = "General"
	}
	if !model.ValidCategory(p.Category) {
		return "", fmt.Errorf("%w: unknown category %q", ErrInvalidArgument, p.Category)
	}
	return s.repo.CreatePost(ctx, &p)
}

func (s *FeedService) GetPost(ctx context.Context, id string) (model.Post, error) {
	return s.repo.GetPost(ctx, id)
}

// SaveComment appends a comment under posts/{postID}/comments.
func (s *FeedService) SaveComment(ctx context.Context, postID string, c model.Comment) (string, error) {
	if c.UserID == "" {
		return "", fmt.Errorf("%w: comment requires user_id", ErrInvalidArgument)
	}
	if _, err := s.repo.GetPost(ctx, postID); err != nil {
		return "", err
	}
	return s.repo.CreateComment(ctx, postID, &c)
}

// SubscribePosts streams the full post feed, newest first, with author
// fields refreshed per delivery.
func (s *FeedService) SubscribePosts(ctx context.Context) (<-chan PostBatch, CancelFunc, error) {
	batches, cancel, err := s.sync.Subscribe(ctx, docstore.Query{Collection: model.CollectionPosts, Desc: true})
	if err != nil {
		return nil, nil, err
	}
	out := make(chan PostBatch, 1)
	go func() {
		defer close(out)
		for b := range batches {
			posts := make([]model.Post, 0, len(b.Docs))
			for i := range b.Docs {
				posts = append(posts, model.PostFromDoc(&b.Docs[i]))
			}
			forward(out, PostBatch{Version: b.Version, Posts: posts})
		}
	}()
	return out, cancel, nil
}

// SubscribeComments streams a post's comments, newest first.
func (s *FeedService) SubscribeComments(ctx context.Context, postID string) (<-chan CommentBatch, CancelFunc, error) {
	batches, cancel, err := s.sync.Subscribe(ctx, docstore.Query{Collection: model.CommentsCollection(postID), Desc: true})
	if err != nil {
		return nil, nil, err
	}
	out := make(chan CommentBatch, 1)
	go func() {
		defer close(out)
		for b := range batches {
			comments := make([]model.Comment, 0, len(b.Docs))
			for i := range b.Docs {
				comments = append(comments, model.CommentFromDoc(postID, &b.Docs[i]))
			}
			forward(out, CommentBatch{Version: b.Version, Comments: comments})
		}
	}()
	return out, cancel, nil
}

// ToggleReaction flips the user's like or dislike on a post, leaving
// the opposite set first. Returns the new membership state.
func (s *FeedService) ToggleReaction(ctx context.Context, postID, reaction, userID string) (bool, error) {
	set, exclusive, err := reactionSets(reaction)
	if err != nil {
		return false, err
	}
	return s.toggles.Toggle(ctx, ToggleRef{
		Parent:        docstore.Join(model.CollectionPosts, postID),
		Set:           set,
		Participant:   userID,
		ExclusiveWith: exclusive,
	})
}

// ToggleCommentReaction is ToggleReaction for a comment document.
func (s *FeedService) ToggleCommentReaction(ctx context.Context, postID, commentID, reaction, userID string) (bool, error) {
	set, exclusive, err := reactionSets(reaction)
	if err != nil {
		return false, err
	}
	return s.toggles.Toggle(ctx, ToggleRef{
		Parent:        docstore.Join(model.CommentsCollection(postID), commentID),
		Set:           set,
		Participant:   userID,
		ExclusiveWith: exclusive,
	})
}

// Reactions returns the current likes/dislikes membership of a post.
func (s *FeedService) Reactions(ctx context.Context, postID string) (likes, dislikes []string, err error) {
	post, err := s.repo.GetPost(ctx, postID)
	if err != nil {
		return nil, nil, err
	}
	return post.Likes, post.Dislikes, nil
}

// ToggleSavePost flips postID in the user's saved-posts set.
func (s *FeedService) ToggleSavePost(ctx context.Context, userID, postID string) (bool, error) {
	return s.toggles.Toggle(ctx, ToggleRef{
		Parent:      model.ProfilePath(userID),
		Set:         model.FieldSavedPosts,
		Participant: postID,
	})
}

// SavedPosts lists the ids of posts the user saved.
func (s *FeedService) SavedPosts(ctx context.Context, userID string) ([]string, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return profile.SavedPosts, nil
}

func reactionSets(reaction string) (set, exclusive string, err error) {
	switch reaction {
	case ReactionLike:
		return model.FieldLikes, model.FieldDislikes, nil
	case ReactionDislike:
		return model.FieldDislikes, model.FieldLikes, nil
	}
	return "", "", fmt.Errorf("%w: unknown reaction %q", ErrInvalidArgument, reaction)
}

// forward coalesces typed batch deliveries the same way the raw
// subscription does.
func forward[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
