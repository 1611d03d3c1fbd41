package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/feedcore/internal/model"
)

// CachedProfileRepository puts a TTL cache in front of profile point reads.
// Live-join enrichment issues one lookup per feed record, so hot authors
// are read far more often than they change.
type CachedProfileRepository struct {
	base  ProfileRepository
	cache *redis.Client
	ttl   time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

func NewCachedProfileRepository(base ProfileRepository, cache *redis.Client, ttl time.Duration) *CachedProfileRepository {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedProfileRepository{base: base, cache: cache, ttl: ttl}
}

func profileCacheKey(id string) string { return fmt.Sprintf("profile:%s", id) }

func (r *CachedProfileRepository) Get(ctx context.Context, id string) (model.Profile, error) {
	if data, err := r.cache.Get(ctx, profileCacheKey(id)).Bytes(); err == nil {
		var p model.Profile
		if uErr := json.Unmarshal(data, &p); uErr == nil {
			r.hits.Add(1)
			return p, nil
		}
	}
	r.misses.Add(1)
	p, err := r.base.Get(ctx, id)
	if err != nil {
		return model.Profile{}, err
	}
	if payload, err := json.Marshal(p); err == nil {
		_ = r.cache.Set(ctx, profileCacheKey(id), payload, r.ttl).Err()
	}
	return p, nil
}

func (r *CachedProfileRepository) Create(ctx context.Context, p *model.Profile) error {
	return r.base.Create(ctx, p)
}

// Update writes through and drops the cached entry so the next enrichment
// pass observes fresh display fields.
func (r *CachedProfileRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	if err := r.base.Update(ctx, id, fields); err != nil {
		return err
	}
	_ = r.cache.Del(ctx, profileCacheKey(id)).Err()
	return nil
}

// Counters reports cache hits/misses since start.
func (r *CachedProfileRepository) Counters() (hits, misses int64) {
	return r.hits.Load(), r.misses.Load()
}
