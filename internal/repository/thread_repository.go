package repository

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/d60-Lab/feedcore/internal/docstore"
	"github.com/d60-Lab/feedcore/internal/model"
)

// ThreadID derives the order-independent identifier of a two-party
// conversation: lexicographic sort, joined with "_".
// ThreadID(a, b) == ThreadID(b, a).
func ThreadID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, "_")
}

// ThreadRepository 私聊会话仓储
type ThreadRepository interface {
	// Ensure provisions the thread document for the pair exactly once.
	// Concurrent calls for the same pair are safe: the create is
	// create-if-absent and a lost race falls back to re-asserting the
	// participant markers with an idempotent merge.
	Ensure(ctx context.Context, a, b string) (string, error)
	Get(ctx context.Context, threadID string) (model.Thread, error)
	AppendMessage(ctx context.Context, threadID string, m *model.Message) (string, error)
	// ThreadsFor lists every thread the user participates in.
	ThreadsFor(ctx context.Context, userID string) ([]model.Thread, error)
}

type threadRepository struct {
	store docstore.Store
}

func NewThreadRepository(store docstore.Store) ThreadRepository {
	return &threadRepository{store: store}
}

func (r *threadRepository) Ensure(ctx context.Context, a, b string) (string, error) {
	id := ThreadID(a, b)
	path := model.ThreadPath(id)
	if _, err := r.store.Get(ctx, path); err == nil {
		return id, nil
	} else if !errors.Is(err, docstore.ErrNotFound) {
		return "", err
	}
	err := r.store.Create(ctx, path, map[string]any{
		model.FieldParticipants: []string{a, b},
	})
	if errors.Is(err, docstore.ErrAlreadyExists) {
		// lost a creation race; make sure both markers are present
		return id, r.store.AddToSet(ctx, path, model.FieldParticipants, a, b)
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *threadRepository) Get(ctx context.Context, threadID string) (model.Thread, error) {
	doc, err := r.store.Get(ctx, model.ThreadPath(threadID))
	if err != nil {
		return model.Thread{}, err
	}
	return model.ThreadFromDoc(&doc), nil
}

func (r *threadRepository) AppendMessage(ctx context.Context, threadID string, m *model.Message) (string, error) {
	id := uuid.New().String()
	path := docstore.Join(model.ThreadMessages(threadID), id)
	if err := r.store.Create(ctx, path, m.Fields()); err != nil {
		return "", err
	}
	return id, nil
}

func (r *threadRepository) ThreadsFor(ctx context.Context, userID string) ([]model.Thread, error) {
	docs, err := r.store.Query(ctx, docstore.Query{
		Collection: model.CollectionPrivateChats,
		Filters: []docstore.Filter{
			{Field: model.FieldParticipants, Op: "array-contains", Value: userID},
		},
	})
	if err != nil {
		return nil, err
	}
	threads := make([]model.Thread, 0, len(docs))
	for i := range docs {
		threads = append(threads, model.ThreadFromDoc(&docs[i]))
	}
	return threads, nil
}
