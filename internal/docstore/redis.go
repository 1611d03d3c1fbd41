package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/feedcore/pkg/logger"
)

// metaCreatedAt marks document existence; every document carries it.
const metaCreatedAt = "_created_at"

// RedisStore keeps each document as a hash of JSON-encoded scalar fields
// plus one native Redis set per array-valued field, giving SADD/SREM as
// the atomic membership primitive. Each collection has a zset index
// scored by creation time and a pub/sub channel for change notification.
type RedisStore struct {
	rdb    *redis.Client
	stamps stamper
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, stamps: stamper{now: time.Now}}
}

func docKey(path string) string          { return "doc:" + path }
func setKey(path, field string) string   { return "doc:" + path + ":set:" + field }
func setIndexKey(path string) string     { return "doc:" + path + ":sets" }
func colKey(collection string) string    { return "col:" + collection }
func watchChannel(collection string) string { return "watch:" + collection }

func (s *RedisStore) Get(ctx context.Context, path string) (Document, error) {
	raw, err := s.rdb.HGetAll(ctx, docKey(path)).Result()
	if err != nil {
		return Document{}, fmt.Errorf("docstore: get %s: %w", path, err)
	}
	if len(raw) == 0 {
		return Document{}, ErrNotFound
	}
	doc := Document{Path: path, Fields: make(map[string]any, len(raw))}
	for k, v := range raw {
		if k == metaCreatedAt {
			if ns, err := strconv.ParseInt(v, 10, 64); err == nil {
				doc.CreatedAt = time.Unix(0, ns)
			}
			continue
		}
		var val any
		if err := json.Unmarshal([]byte(v), &val); err != nil {
			val = v
		}
		doc.Fields[k] = val
	}
	setFields, err := s.rdb.SMembers(ctx, setIndexKey(path)).Result()
	if err != nil {
		return Document{}, fmt.Errorf("docstore: get %s: %w", path, err)
	}
	for _, field := range setFields {
		members, err := s.rdb.SMembers(ctx, setKey(path, field)).Result()
		if err != nil {
			return Document{}, fmt.Errorf("docstore: get %s: %w", path, err)
		}
		sort.Strings(members)
		doc.Fields[field] = members
	}
	return doc, nil
}

func (s *RedisStore) Create(ctx context.Context, path string, fields map[string]any) error {
	now := s.stamps.stamp()
	ok, err := s.rdb.HSetNX(ctx, docKey(path), metaCreatedAt, strconv.FormatInt(now.UnixNano(), 10)).Result()
	if err != nil {
		return fmt.Errorf("docstore: create %s: %w", path, err)
	}
	if !ok {
		return ErrAlreadyExists
	}
	if err := s.writeFields(ctx, path, fields); err != nil {
		return err
	}
	if err := s.rdb.ZAdd(ctx, colKey(Collection(path)), redis.Z{Score: float64(now.UnixNano()), Member: path}).Err(); err != nil {
		return fmt.Errorf("docstore: create %s: %w", path, err)
	}
	s.publish(ctx, path)
	return nil
}

func (s *RedisStore) Set(ctx context.Context, path string, fields map[string]any) error {
	created, err := s.rdb.HGet(ctx, docKey(path), metaCreatedAt).Result()
	fresh := err == redis.Nil
	if err != nil && !fresh {
		return fmt.Errorf("docstore: set %s: %w", path, err)
	}
	if err := s.clear(ctx, path); err != nil {
		return err
	}
	if fresh {
		created = strconv.FormatInt(s.stamps.stamp().UnixNano(), 10)
	}
	if err := s.rdb.HSet(ctx, docKey(path), metaCreatedAt, created).Err(); err != nil {
		return fmt.Errorf("docstore: set %s: %w", path, err)
	}
	if err := s.writeFields(ctx, path, fields); err != nil {
		return err
	}
	score, _ := strconv.ParseInt(created, 10, 64)
	if err := s.rdb.ZAdd(ctx, colKey(Collection(path)), redis.Z{Score: float64(score), Member: path}).Err(); err != nil {
		return fmt.Errorf("docstore: set %s: %w", path, err)
	}
	s.publish(ctx, path)
	return nil
}

func (s *RedisStore) Merge(ctx context.Context, path string, fields map[string]any) error {
	exists, err := s.rdb.HExists(ctx, docKey(path), metaCreatedAt).Result()
	if err != nil {
		return fmt.Errorf("docstore: merge %s: %w", path, err)
	}
	if !exists {
		return ErrNotFound
	}
	if err := s.writeFields(ctx, path, fields); err != nil {
		return err
	}
	s.publish(ctx, path)
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, path string) error {
	setFields, err := s.rdb.SMembers(ctx, setIndexKey(path)).Result()
	if err != nil {
		return fmt.Errorf("docstore: delete %s: %w", path, err)
	}
	keys := []string{docKey(path), setIndexKey(path)}
	for _, field := range setFields {
		keys = append(keys, setKey(path, field))
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("docstore: delete %s: %w", path, err)
	}
	if err := s.rdb.ZRem(ctx, colKey(Collection(path)), path).Err(); err != nil {
		return fmt.Errorf("docstore: delete %s: %w", path, err)
	}
	s.publish(ctx, path)
	return nil
}

func (s *RedisStore) AddToSet(ctx context.Context, path, field string, members ...string) error {
	if err := s.requireDoc(ctx, path); err != nil {
		return err
	}
	if len(members) == 0 {
		return nil
	}
	pipe := s.rdb.TxPipeline()
	pipe.SAdd(ctx, setIndexKey(path), field)
	pipe.SAdd(ctx, setKey(path, field), toAny(members)...)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("docstore: sadd %s.%s: %w", path, field, err)
	}
	s.publish(ctx, path)
	return nil
}

func (s *RedisStore) RemoveFromSet(ctx context.Context, path, field string, members ...string) error {
	if err := s.requireDoc(ctx, path); err != nil {
		return err
	}
	if len(members) == 0 {
		return nil
	}
	pipe := s.rdb.TxPipeline()
	pipe.SAdd(ctx, setIndexKey(path), field)
	pipe.SRem(ctx, setKey(path, field), toAny(members)...)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("docstore: srem %s.%s: %w", path, field, err)
	}
	s.publish(ctx, path)
	return nil
}

func (s *RedisStore) Query(ctx context.Context, q Query) ([]Document, error) {
	paths, err := s.rdb.ZRange(ctx, colKey(q.Collection), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("docstore: query %s: %w", q.Collection, err)
	}
	docs := make([]Document, 0, len(paths))
	for _, p := range paths {
		doc, err := s.Get(ctx, p)
		if err == ErrNotFound {
			// index can briefly trail a delete
			continue
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return applyQuery(docs, q), nil
}

func (s *RedisStore) Watch(ctx context.Context, q Query) (*Subscription, error) {
	pubsub := s.rdb.Subscribe(ctx, watchChannel(q.Collection))
	// Wait for the subscription to land so no write between the initial
	// snapshot and the first notification is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("docstore: watch %s: %w", q.Collection, err)
	}

	out := make(chan []Document, 1)
	done := make(chan struct{})
	sub := &Subscription{C: out}
	sub.cancel = func() {
		close(done)
		_ = pubsub.Close()
	}

	go func() {
		defer close(out)
		deliver := func() {
			snap, err := s.Query(ctx, q)
			if err != nil {
				// transient store failure: log, keep the watch alive
				logger.Warn("docstore: watch query failed",
					zap.String("collection", q.Collection), zap.Error(err))
				return
			}
			coalesce(out, snap)
		}
		deliver()
		ch := pubsub.Channel()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				deliver()
			}
		}
	}()
	return sub, nil
}

func (s *RedisStore) Close() error { return s.rdb.Close() }

func (s *RedisStore) requireDoc(ctx context.Context, path string) error {
	exists, err := s.rdb.HExists(ctx, docKey(path), metaCreatedAt).Result()
	if err != nil {
		return fmt.Errorf("docstore: %s: %w", path, err)
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

// writeFields persists scalar fields into the hash and array fields into
// native sets; an array value replaces prior membership.
func (s *RedisStore) writeFields(ctx context.Context, path string, fields map[string]any) error {
	for k, v := range fields {
		if members, ok := asStrings(v); ok {
			pipe := s.rdb.TxPipeline()
			pipe.SAdd(ctx, setIndexKey(path), k)
			pipe.Del(ctx, setKey(path, k))
			if len(members) > 0 {
				pipe.SAdd(ctx, setKey(path, k), toAny(members)...)
			}
			if _, err := pipe.Exec(ctx); err != nil {
				return fmt.Errorf("docstore: write %s.%s: %w", path, k, err)
			}
			continue
		}
		enc, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("docstore: write %s.%s: %w", path, k, err)
		}
		if err := s.rdb.HSet(ctx, docKey(path), k, string(enc)).Err(); err != nil {
			return fmt.Errorf("docstore: write %s.%s: %w", path, k, err)
		}
	}
	return nil
}

func (s *RedisStore) clear(ctx context.Context, path string) error {
	setFields, err := s.rdb.SMembers(ctx, setIndexKey(path)).Result()
	if err != nil {
		return fmt.Errorf("docstore: clear %s: %w", path, err)
	}
	keys := []string{docKey(path), setIndexKey(path)}
	for _, field := range setFields {
		keys = append(keys, setKey(path, field))
	}
	return s.rdb.Del(ctx, keys...).Err()
}

func (s *RedisStore) publish(ctx context.Context, path string) {
	if err := s.rdb.Publish(ctx, watchChannel(Collection(path)), path).Err(); err != nil {
		logger.Warn("docstore: publish failed", zap.String("path", path), zap.Error(err))
	}
}

func asStrings(v any) ([]string, bool) {
	switch vv := v.(type) {
	case []string:
		return vv, true
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func toAny(members []string) []any {
	out := make([]any, len(members))
	for i, m := range members {
		out[i] = m
	}
	return out
}
