package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/feedcore/internal/docstore"
	"github.com/d60-Lab/feedcore/internal/model"
)

func newTestStore(t *testing.T) docstore.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := docstore.NewRedisStore(rdb)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestThreadID(t *testing.T) {
	require.Equal(t, "alice_bob", ThreadID("alice", "bob"))
	require.Equal(t, ThreadID("alice", "bob"), ThreadID("bob", "alice"))
	require.Equal(t, "u1_u1", ThreadID("u1", "u1"))
}

func TestEnsureProvisionsOnce(t *testing.T) {
	store := newTestStore(t)
	repo := NewThreadRepository(store)
	ctx := context.Background()

	id, err := repo.Ensure(ctx, "bob", "alice")
	require.NoError(t, err)
	require.Equal(t, "alice_bob", id)

	// both directions land on the same document
	id2, err := repo.Ensure(ctx, "alice", "bob")
	require.NoError(t, err)
	require.Equal(t, id, id2)

	thread, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"alice", "bob"}, thread.Participants)
}

func TestEnsureConcurrent(t *testing.T) {
	store := newTestStore(t)
	repo := NewThreadRepository(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		a, b := "u1", "u2"
		if i%2 == 1 {
			a, b = b, a
		}
		go func(a, b string) {
			defer wg.Done()
			_, err := repo.Ensure(ctx, a, b)
			errs <- err
		}(a, b)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// exactly one thread with both markers
	threads, err := repo.ThreadsFor(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, threads, 1)
	require.ElementsMatch(t, []string{"u1", "u2"}, threads[0].Participants)
}

func TestAppendMessageOrdering(t *testing.T) {
	store := newTestStore(t)
	repo := NewThreadRepository(store)
	ctx := context.Background()

	id, err := repo.Ensure(ctx, "u1", "u2")
	require.NoError(t, err)

	for _, content := range []string{"first", "second", "third"} {
		_, err := repo.AppendMessage(ctx, id, &model.Message{SenderID: "u1", Content: content})
		require.NoError(t, err)
	}

	docs, err := store.Query(ctx, docstore.Query{Collection: model.ThreadMessages(id)})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	require.Equal(t, "first", docs[0].String("content"))
	require.Equal(t, "second", docs[1].String("content"))
	require.Equal(t, "third", docs[2].String("content"))
}

func TestThreadsFor(t *testing.T) {
	store := newTestStore(t)
	repo := NewThreadRepository(store)
	ctx := context.Background()

	_, err := repo.Ensure(ctx, "u1", "u2")
	require.NoError(t, err)
	_, err = repo.Ensure(ctx, "u1", "u3")
	require.NoError(t, err)
	_, err = repo.Ensure(ctx, "u4", "u5")
	require.NoError(t, err)

	threads, err := repo.ThreadsFor(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, threads, 2)

	threads, err = repo.ThreadsFor(ctx, "nobody")
	require.NoError(t, err)
	require.Empty(t, threads)
}
