package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/d60-Lab/feedcore/internal/blobstore"
	"github.com/d60-Lab/feedcore/internal/docstore"
	"github.com/d60-Lab/feedcore/internal/model"
	"github.com/d60-Lab/feedcore/internal/repository"
	"github.com/d60-Lab/feedcore/pkg/logger"
)

// CommunityService 社区管理与成员关系
type CommunityService struct {
	repo     repository.CommunityRepository
	profiles repository.ProfileRepository
	toggles  *ToggleEngine
	blobs    blobstore.Store
	workers  int
}

func NewCommunityService(repo repository.CommunityRepository, profiles repository.ProfileRepository, toggles *ToggleEngine, blobs blobstore.Store) *CommunityService {
	return &CommunityService{repo: repo, profiles: profiles, toggles: toggles, blobs: blobs, workers: 8}
}

// Create provisions a community without images; photo and banner are
// attached later through the upload endpoints.
func (s *CommunityService) Create(ctx context.Context, name, description string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: community name required", ErrInvalidArgument)
	}
	return s.repo.Create(ctx, &model.Community{Name: name, Description: description})
}

func (s *CommunityService) Get(ctx context.Context, id string) (model.Community, error) {
	return s.repo.Get(ctx, id)
}

// Search matches community names by prefix. An empty query returns nil.
func (s *CommunityService) Search(ctx context.Context, query string) ([]model.Community, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	return s.repo.SearchByName(ctx, query)
}

// ToggleMembership flips the user's membership in the community and
// reports the new state.
func (s *CommunityService) ToggleMembership(ctx context.Context, userID, communityID string) (bool, error) {
	if communityID == "" {
		return false, fmt.Errorf("%w: community id required", ErrInvalidArgument)
	}
	return s.toggles.Toggle(ctx, ToggleRef{
		Parent:      model.ProfilePath(userID),
		Set:         model.FieldCommunities,
		Participant: communityID,
	})
}

// IsMember reports membership; a missing user reads as not a member.
func (s *CommunityService) IsMember(ctx context.Context, userID, communityID string) (bool, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if errors.Is(err, docstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return containsID(profile.Communities, communityID), nil
}

// UserCommunities resolves the user's community ids to full documents;
// communities that no longer exist are dropped.
func (s *CommunityService) UserCommunities(ctx context.Context, userID string) ([]model.Community, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	resolved := make([]*model.Community, len(profile.Communities))
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	for i, id := range profile.Communities {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, id string) {
			defer wg.Done()
			defer func() { <-sem }()
			c, err := s.repo.Get(ctx, id)
			if err != nil {
				if !errors.Is(err, docstore.ErrNotFound) {
					logger.Warn("community: lookup failed", zap.String("community", id), zap.Error(err))
				}
				return
			}
			resolved[i] = &c
		}(i, id)
	}
	wg.Wait()
	out := make([]model.Community, 0, len(resolved))
	for _, c := range resolved {
		if c != nil {
			out = append(out, *c)
		}
	}
	return out, nil
}

// UpdatePhoto uploads a community photo and persists its URL.
func (s *CommunityService) UpdatePhoto(ctx context.Context, communityID string, r io.Reader, contentType string) (string, error) {
	return s.updateImage(ctx, communityID, "photo", "photoURL", r, contentType)
}

// UpdateBanner uploads a community banner and persists its URL.
func (s *CommunityService) UpdateBanner(ctx context.Context, communityID string, r io.Reader, contentType string) (string, error) {
	return s.updateImage(ctx, communityID, "banner", "bannerURL", r, contentType)
}

func (s *CommunityService) updateImage(ctx context.Context, communityID, name, field string, r io.Reader, contentType string) (string, error) {
	if _, err := s.repo.Get(ctx, communityID); err != nil {
		return "", err
	}
	ext, err := blobstore.ExtensionByType(contentType)
	if err != nil {
		return "", err
	}
	path := fmt.Sprintf("communities/%s/%s.%s", communityID, name, ext)
	url, err := s.blobs.Put(ctx, path, r)
	if err != nil {
		return "", err
	}
	if err := s.repo.Update(ctx, communityID, map[string]any{field: url}); err != nil {
		return "", err
	}
	return url, nil
}
