package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newRedisStore(t *testing.T) Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(rdb)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newSQLStore(t *testing.T) Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// in-memory sqlite is per connection
	sqlDB.SetMaxOpenConns(1)
	s, err := NewSQLStore(db, 10*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func eachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("redis", func(t *testing.T) { fn(t, newRedisStore(t)) })
	t.Run("sql", func(t *testing.T) { fn(t, newSQLStore(t)) })
}

func TestCreateAndGet(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Create(ctx, "posts/p1", map[string]any{"title": "hello", "likes": []string{}}))

		doc, err := s.Get(ctx, "posts/p1")
		require.NoError(t, err)
		require.Equal(t, "hello", doc.String("title"))
		require.False(t, doc.CreatedAt.IsZero())
		require.Equal(t, "p1", doc.ID())

		err = s.Create(ctx, "posts/p1", map[string]any{"title": "again"})
		require.ErrorIs(t, err, ErrAlreadyExists)

		// first write survives the rejected second create
		doc, err = s.Get(ctx, "posts/p1")
		require.NoError(t, err)
		require.Equal(t, "hello", doc.String("title"))
	})
}

func TestGetMissing(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		_, err := s.Get(context.Background(), "posts/nope")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSetPreservesCreatedAt(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Create(ctx, "posts/p1", map[string]any{"title": "v1", "extra": "x"}))
		first, err := s.Get(ctx, "posts/p1")
		require.NoError(t, err)

		require.NoError(t, s.Set(ctx, "posts/p1", map[string]any{"title": "v2"}))
		second, err := s.Get(ctx, "posts/p1")
		require.NoError(t, err)
		require.Equal(t, "v2", second.String("title"))
		require.Empty(t, second.String("extra"))
		require.True(t, first.CreatedAt.Equal(second.CreatedAt))

		// Set on a missing path creates
		require.NoError(t, s.Set(ctx, "posts/p2", map[string]any{"title": "new"}))
		_, err = s.Get(ctx, "posts/p2")
		require.NoError(t, err)
	})
}

func TestMerge(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Create(ctx, "users/u1", map[string]any{"displayName": "a", "bio": "old"}))
		require.NoError(t, s.Merge(ctx, "users/u1", map[string]any{"bio": "new"}))

		doc, err := s.Get(ctx, "users/u1")
		require.NoError(t, err)
		require.Equal(t, "a", doc.String("displayName"))
		require.Equal(t, "new", doc.String("bio"))

		require.ErrorIs(t, s.Merge(ctx, "users/missing", map[string]any{"bio": "x"}), ErrNotFound)
	})
}

func TestDelete(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Create(ctx, "posts/p1", map[string]any{"title": "t"}))
		require.NoError(t, s.Delete(ctx, "posts/p1"))
		_, err := s.Get(ctx, "posts/p1")
		require.ErrorIs(t, err, ErrNotFound)

		docs, err := s.Query(ctx, Query{Collection: "posts"})
		require.NoError(t, err)
		require.Empty(t, docs)

		// deleting an absent document is a no-op
		require.NoError(t, s.Delete(ctx, "posts/p1"))
	})
}

func TestSetMembership(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Create(ctx, "posts/p1", map[string]any{"title": "t"}))

		require.NoError(t, s.AddToSet(ctx, "posts/p1", "likes", "u1"))
		require.NoError(t, s.AddToSet(ctx, "posts/p1", "likes", "u2"))
		// duplicate add is idempotent
		require.NoError(t, s.AddToSet(ctx, "posts/p1", "likes", "u1"))

		doc, err := s.Get(ctx, "posts/p1")
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"u1", "u2"}, doc.Strings("likes"))
		require.True(t, doc.Contains("likes", "u1"))

		require.NoError(t, s.RemoveFromSet(ctx, "posts/p1", "likes", "u1"))
		// removing an absent member is a no-op
		require.NoError(t, s.RemoveFromSet(ctx, "posts/p1", "likes", "zz"))

		doc, err = s.Get(ctx, "posts/p1")
		require.NoError(t, err)
		require.Equal(t, []string{"u2"}, doc.Strings("likes"))

		require.ErrorIs(t, s.AddToSet(ctx, "posts/missing", "likes", "u1"), ErrNotFound)
		require.ErrorIs(t, s.RemoveFromSet(ctx, "posts/missing", "likes", "u1"), ErrNotFound)
	})
}

func TestQueryOrderingAndLimit(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		for _, id := range []string{"a", "b", "c", "d"} {
			require.NoError(t, s.Create(ctx, "posts/"+id, map[string]any{"title": id}))
		}

		docs, err := s.Query(ctx, Query{Collection: "posts"})
		require.NoError(t, err)
		require.Equal(t, []string{"a", "b", "c", "d"}, ids(docs))
		for i := 1; i < len(docs); i++ {
			require.True(t, docs[i-1].CreatedAt.Before(docs[i].CreatedAt))
		}

		docs, err = s.Query(ctx, Query{Collection: "posts", Desc: true})
		require.NoError(t, err)
		require.Equal(t, []string{"d", "c", "b", "a"}, ids(docs))

		docs, err = s.Query(ctx, Query{Collection: "posts", Desc: true, Limit: 2})
		require.NoError(t, err)
		require.Equal(t, []string{"d", "c"}, ids(docs))
	})
}

func TestQueryFilters(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Create(ctx, "users/u1", map[string]any{"displayName": "alice"}))
		require.NoError(t, s.Create(ctx, "users/u2", map[string]any{"displayName": "bob"}))
		require.NoError(t, s.Create(ctx, "users/u3", map[string]any{"displayName": "alan"}))
		require.NoError(t, s.AddToSet(ctx, "users/u1", "communities", "c1"))

		docs, err := s.Query(ctx, Query{Collection: "users", Filters: []Filter{
			{Field: "displayName", Op: "==", Value: "bob"},
		}})
		require.NoError(t, err)
		require.Equal(t, []string{"u2"}, ids(docs))

		// prefix range scan
		docs, err = s.Query(ctx, Query{Collection: "users", Filters: []Filter{
			{Field: "displayName", Op: ">=", Value: "al"},
			{Field: "displayName", Op: "<=", Value: "al"},
		}})
		require.NoError(t, err)
		require.Equal(t, []string{"u1", "u3"}, ids(docs))

		docs, err = s.Query(ctx, Query{Collection: "users", Filters: []Filter{
			{Field: "communities", Op: "array-contains", Value: "c1"},
		}})
		require.NoError(t, err)
		require.Equal(t, []string{"u1"}, ids(docs))
	})
}

func TestQueryScopesSubcollections(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Create(ctx, "posts/p1", map[string]any{"title": "p"}))
		require.NoError(t, s.Create(ctx, "posts/p1/comments/c1", map[string]any{"content": "c"}))

		docs, err := s.Query(ctx, Query{Collection: "posts"})
		require.NoError(t, err)
		require.Equal(t, []string{"p1"}, ids(docs))

		docs, err = s.Query(ctx, Query{Collection: "posts/p1/comments"})
		require.NoError(t, err)
		require.Equal(t, []string{"c1"}, ids(docs))
	})
}

func TestWatchDeliversSnapshots(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Create(ctx, "posts/p1", map[string]any{"title": "one"}))

		sub, err := s.Watch(ctx, Query{Collection: "posts", Desc: true})
		require.NoError(t, err)
		defer sub.Cancel()

		snap := waitSnapshot(t, sub, 1)
		require.Equal(t, []string{"p1"}, ids(snap))

		require.NoError(t, s.Create(ctx, "posts/p2", map[string]any{"title": "two"}))
		snap = waitSnapshot(t, sub, 2)
		require.Equal(t, []string{"p2", "p1"}, ids(snap))

		require.NoError(t, s.Merge(ctx, "posts/p1", map[string]any{"title": "edited"}))
		snap = waitDoc(t, sub, "posts/p1", "title", "edited")
		require.Len(t, snap, 2)
	})
}

func TestWatchCancel(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		sub, err := s.Watch(ctx, Query{Collection: "posts"})
		require.NoError(t, err)
		sub.Cancel()
		sub.Cancel() // safe to call twice

		require.Eventually(t, func() bool {
			select {
			case _, ok := <-sub.C:
				return !ok
			default:
				return false
			}
		}, time.Second, 5*time.Millisecond)
	})
}

func waitSnapshot(t *testing.T, sub *Subscription, n int) []Document {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case snap, ok := <-sub.C:
			require.True(t, ok, "subscription closed early")
			if len(snap) >= n {
				return snap
			}
		case <-deadline:
			t.Fatalf("timed out waiting for snapshot of %d docs", n)
		}
	}
}

func waitDoc(t *testing.T, sub *Subscription, path, field, want string) []Document {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case snap, ok := <-sub.C:
			require.True(t, ok, "subscription closed early")
			for i := range snap {
				if snap[i].Path == path && snap[i].String(field) == want {
					return snap
				}
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s.%s=%q", path, field, want)
		}
	}
}

func ids(docs []Document) []string {
	out := make([]string, len(docs))
	for i := range docs {
		out[i] = docs[i].ID()
	}
	return out
}
