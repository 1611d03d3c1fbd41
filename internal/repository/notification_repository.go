package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/d60-Lab/feedcore/internal/docstore"
	"github.com/d60-Lab/feedcore/internal/model"
)

// NotificationRepository 通知仓储
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) (string, error)
	MarkRead(ctx context.Context, id string) error
	QueryFor(userID string) docstore.Query
}

type notificationRepository struct {
	store docstore.Store
}

func NewNotificationRepository(store docstore.Store) NotificationRepository {
	return &notificationRepository{store: store}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) (string, error) {
	id := uuid.New().String()
	if err := r.store.Create(ctx, model.NotificationPath(id), n.Fields()); err != nil {
		return "", err
	}
	return id, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string) error {
	return r.store.Merge(ctx, model.NotificationPath(id), map[string]any{"read": true})
}

// QueryFor is the standing query a user's notification watch runs:
// own notifications, newest first.
func (r *notificationRepository) QueryFor(userID string) docstore.Query {
	return docstore.Query{
		Collection: model.CollectionNotifications,
		Filters:    []docstore.Filter{{Field: "userId", Op: "==", Value: userID}},
		Desc:       true,
	}
}
