package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/d60-Lab/feedcore/internal/docstore"
	"github.com/d60-Lab/feedcore/internal/model"
	"github.com/d60-Lab/feedcore/internal/repository"
	"github.com/d60-Lab/feedcore/pkg/logger"
)

// RelationshipService 关系链服务
//
// A follow edge lives on both user documents: follower's "following"
// set and followee's "followers" set. Both writes use the store's
// atomic set primitive, so repeated follows stay idempotent and there
// is never more than one edge per ordered pair.
type RelationshipService interface {
	Follow(ctx context.Context, fromUserID, toUserID string) error
	Unfollow(ctx context.Context, fromUserID, toUserID string) error
	// ToggleFollow flips the edge and reports the new state.
	ToggleFollow(ctx context.Context, fromUserID, toUserID string) (bool, error)
	IsFollowing(ctx context.Context, fromUserID, toUserID string) (bool, error)
	FollowersCount(ctx context.Context, userID string) (int, error)
	FollowingCount(ctx context.Context, userID string) (int, error)
	ListFollowers(ctx context.Context, userID string) ([]model.Profile, error)
	ListFollowing(ctx context.Context, userID string) ([]model.Profile, error)
}

type relationshipService struct {
	store    docstore.Store
	profiles repository.ProfileRepository
	toggles  *ToggleEngine
	workers  int
}

func NewRelationshipService(store docstore.Store, profiles repository.ProfileRepository, toggles *ToggleEngine) RelationshipService {
	return &relationshipService{store: store, profiles: profiles, toggles: toggles, workers: 8}
}

func (s *relationshipService) Follow(ctx context.Context, fromUserID, toUserID string) error {
	if err := s.checkPair(fromUserID, toUserID); err != nil {
		return err
	}
	// the followee must exist before either side mutates, otherwise a
	// failed follow would leave a dangling id in the follower's set
	if _, err := s.store.Get(ctx, model.ProfilePath(toUserID)); err != nil {
		return err
	}
	if err := s.store.AddToSet(ctx, model.ProfilePath(fromUserID), model.FieldFollowing, toUserID); err != nil {
		return err
	}
	if err := s.store.AddToSet(ctx, model.ProfilePath(toUserID), model.FieldFollowers, fromUserID); err != nil {
		s.revertFollowing(ctx, fromUserID, toUserID, true)
		return err
	}
	return nil
}

func (s *relationshipService) Unfollow(ctx context.Context, fromUserID, toUserID string) error {
	if err := s.checkPair(fromUserID, toUserID); err != nil {
		return err
	}
	if err := s.store.RemoveFromSet(ctx, model.ProfilePath(fromUserID), model.FieldFollowing, toUserID); err != nil {
		return err
	}
	return s.store.RemoveFromSet(ctx, model.ProfilePath(toUserID), model.FieldFollowers, fromUserID)
}

func (s *relationshipService) ToggleFollow(ctx context.Context, fromUserID, toUserID string) (bool, error) {
	if err := s.checkPair(fromUserID, toUserID); err != nil {
		return false, err
	}
	if _, err := s.store.Get(ctx, model.ProfilePath(toUserID)); err != nil {
		return false, err
	}
	following, err := s.toggles.Toggle(ctx, ToggleRef{
		Parent:      model.ProfilePath(fromUserID),
		Set:         model.FieldFollowing,
		Participant: toUserID,
	})
	if err != nil {
		return false, err
	}
	// mirror onto the followee's side; undo the flip if the mirror fails
	if following {
		err = s.store.AddToSet(ctx, model.ProfilePath(toUserID), model.FieldFollowers, fromUserID)
	} else {
		err = s.store.RemoveFromSet(ctx, model.ProfilePath(toUserID), model.FieldFollowers, fromUserID)
	}
	if err != nil {
		s.revertFollowing(ctx, fromUserID, toUserID, following)
		return !following, err
	}
	return following, nil
}

// revertFollowing undoes a committed follower-side write whose mirror
// write did not land, so the edge is never half-applied.
func (s *relationshipService) revertFollowing(ctx context.Context, fromUserID, toUserID string, added bool) {
	var err error
	if added {
		err = s.store.RemoveFromSet(ctx, model.ProfilePath(fromUserID), model.FieldFollowing, toUserID)
	} else {
		err = s.store.AddToSet(ctx, model.ProfilePath(fromUserID), model.FieldFollowing, toUserID)
	}
	if err != nil {
		logger.Warn("relationship: revert failed, edge left half-applied",
			zap.String("from", fromUserID), zap.String("to", toUserID), zap.Error(err))
	}
}

func (s *relationshipService) IsFollowing(ctx context.Context, fromUserID, toUserID string) (bool, error) {
	profile, err := s.profiles.Get(ctx, fromUserID)
	if err != nil {
		return false, err
	}
	return containsID(profile.Following, toUserID), nil
}

func (s *relationshipService) FollowersCount(ctx context.Context, userID string) (int, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(profile.Followers), nil
}

func (s *relationshipService) FollowingCount(ctx context.Context, userID string) (int, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(profile.Following), nil
}

func (s *relationshipService) ListFollowers(ctx context.Context, userID string) ([]model.Profile, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.resolveProfiles(ctx, profile.Followers), nil
}

func (s *relationshipService) ListFollowing(ctx context.Context, userID string) ([]model.Profile, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.resolveProfiles(ctx, profile.Following), nil
}

// resolveProfiles point-reads each id concurrently; missing profiles
// are dropped, other failures logged and dropped.
func (s *relationshipService) resolveProfiles(ctx context.Context, ids []string) []model.Profile {
	resolved := make([]*model.Profile, len(ids))
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, id string) {
			defer wg.Done()
			defer func() { <-sem }()
			profile, err := s.profiles.Get(ctx, id)
			if err != nil {
				if !errors.Is(err, docstore.ErrNotFound) {
					logger.Warn("relationship: profile lookup failed", zap.String("user", id), zap.Error(err))
				}
				return
			}
			resolved[i] = &profile
		}(i, id)
	}
	wg.Wait()
	out := make([]model.Profile, 0, len(ids))
	for _, p := range resolved {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}

func (s *relationshipService) checkPair(fromUserID, toUserID string) error {
	if fromUserID == "" || toUserID == "" {
		return fmt.Errorf("%w: both user ids required", ErrInvalidArgument)
	}
	if fromUserID == toUserID {
		return ErrFollowSelf
	}
	return nil
}

func containsID(list []string, id string) bool {
	for _, m := range list {
		if m == id {
			return true
		}
	}
	return false
}
