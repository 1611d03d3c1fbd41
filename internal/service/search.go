package service

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/d60-Lab/feedcore/internal/docstore"
	"github.com/d60-Lab/feedcore/internal/model"
	"github.com/d60-Lab/feedcore/internal/repository"
	"github.com/d60-Lab/feedcore/pkg/logger"
)

// SearchResult tags a matched user or community.
type SearchResult struct {
	Kind        string `json:"type"` // "user" | "community"
	ID          string `json:"id"`
	Name        string `json:"name"`
	PhotoURL    string `json:"photoURL"`
	Description string `json:"description,omitempty"`
}

// SearchService 用户与社区的统一前缀搜索
type SearchService struct {
	store       docstore.Store
	communities repository.CommunityRepository
}

func NewSearchService(store docstore.Store, communities repository.CommunityRepository) *SearchService {
	return &SearchService{store: store, communities: communities}
}

// Search runs both prefix queries concurrently and merges the results,
// communities first. selfID is excluded from user matches. Query
// failures degrade to an empty slice for that side.
func (s *SearchService) Search(ctx context.Context, query, selfID string) []SearchResult {
	if strings.TrimSpace(query) == "" {
		return nil
	}

	var (
		wg          sync.WaitGroup
		communities []model.Community
		users       []docstore.Document
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		communities, err = s.communities.SearchByName(ctx, query)
		if err != nil {
			logger.Warn("search: community query failed", zap.String("query", query), zap.Error(err))
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		users, err = s.store.Query(ctx, docstore.Query{
			Collection: model.CollectionUsers,
			Filters: []docstore.Filter{
				{Field: "displayName", Op: ">=", Value: query},
				{Field: "displayName", Op: "<=", Value: query + "\uf8ff"},
			},
		})
		if err != nil {
			logger.Warn("search: user query failed", zap.String("query", query), zap.Error(err))
		}
	}()
	wg.Wait()

	out := make([]SearchResult, 0, len(communities)+len(users))
	for _, c := range communities {
		out = append(out, SearchResult{
			Kind:        "community",
			ID:          c.ID,
			Name:        c.Name,
			PhotoURL:    c.PhotoURL,
			Description: c.Description,
		})
	}
	for i := range users {
		profile := model.ProfileFromDoc(&users[i])
		if profile.ID == selfID {
			continue
		}
		out = append(out, SearchResult{
			Kind:     "user",
			ID:       profile.ID,
			Name:     profile.DisplayName,
			PhotoURL: profile.PhotoURL,
		})
	}
	return out
}
