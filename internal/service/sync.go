package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/d60-Lab/feedcore/internal/docstore"
	"github.com/d60-Lab/feedcore/internal/repository"
	"github.com/d60-Lab/feedcore/pkg/logger"
)

// authorField is the author reference carried by feed records.
const authorField = "user_id"

// Batch is one enriched snapshot delivery. Version is monotonic per
// subscription; consumers racing overlapping snapshots drop anything
// older than the last version they rendered.
type Batch struct {
	Version uint64
	Docs    []docstore.Document
}

// CancelFunc detaches a subscription.
type CancelFunc func()

// Synchronizer turns a store watch into a stream of author-enriched
// snapshots. Per change notification it overlays the referenced
// author's current displayName/photoURL onto every record, keeping the
// record's own snapshot fields as fallback when the lookup fails.
type Synchronizer struct {
	store    docstore.Store
	profiles repository.ProfileRepository
	workers  int
}

func NewSynchronizer(store docstore.Store, profiles repository.ProfileRepository, workers int) *Synchronizer {
	if workers <= 0 {
		workers = 8
	}
	return &Synchronizer{store: store, profiles: profiles, workers: workers}
}

// Subscribe establishes a standing enriched subscription for q. The
// returned channel closes after cancel. List order always matches the
// store's query ordering; enrichment never reorders.
func (s *Synchronizer) Subscribe(ctx context.Context, q docstore.Query) (<-chan Batch, CancelFunc, error) {
	sub, err := s.store.Watch(ctx, q)
	if err != nil {
		return nil, nil, err
	}
	out := make(chan Batch, 1)
	var version atomic.Uint64

	go func() {
		defer close(out)
		for snap := range sub.C {
			s.enrich(ctx, snap)
			// coalesce to the latest batch for slow consumers
			forward(out, Batch{Version: version.Add(1), Docs: snap})
		}
	}()
	return out, sub.Cancel, nil
}

// enrich fans out one profile point lookup per record under a bounded
// worker group and joins completion before the batch is released.
// Lookup failures are logged and degrade to the record's stored fields.
func (s *Synchronizer) enrich(ctx context.Context, docs []docstore.Document) {
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	for i := range docs {
		doc := &docs[i]
		authorID := doc.String(authorField)
		if authorID == "" {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			profile, err := s.profiles.Get(ctx, authorID)
			if err != nil {
				if !errors.Is(err, docstore.ErrNotFound) {
					logger.Warn("sync: profile lookup failed",
						zap.String("author", authorID), zap.Error(err))
				}
				return
			}
			if profile.DisplayName != "" {
				doc.Fields["displayName"] = profile.DisplayName
			}
			if profile.PhotoURL != "" {
				doc.Fields["photoURL"] = profile.PhotoURL
			}
		}()
	}
	wg.Wait()
}
