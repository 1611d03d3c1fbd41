package service

import (
	"context"
	"fmt"

	"github.com/d60-Lab/feedcore/internal/model"
	"github.com/d60-Lab/feedcore/internal/repository"
)

// NotificationBatch is one live delivery of a user's notifications,
// newest first.
type NotificationBatch struct {
	Version       uint64               `json:"version"`
	Notifications []model.Notification `json:"notifications"`
}

// NotificationService 用户通知
type NotificationService struct {
	repo repository.NotificationRepository
	sync *Synchronizer
}

func NewNotificationService(repo repository.NotificationRepository, sync *Synchronizer) *NotificationService {
	return &NotificationService{repo: repo, sync: sync}
}

// Create records a notification for userID. The content parameter is
// the persisted payload.
func (s *NotificationService) Create(ctx context.Context, userID, kind, content string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: notification requires userId", ErrInvalidArgument)
	}
	if content == "" {
		return "", fmt.Errorf("%w: empty notification content", ErrInvalidArgument)
	}
	return s.repo.Create(ctx, &model.Notification{UserID: userID, Kind: kind, Content: content})
}

// MarkRead flags a notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	return s.repo.MarkRead(ctx, id)
}

// Subscribe streams the user's notifications, newest first.
func (s *NotificationService) Subscribe(ctx context.Context, userID string) (<-chan NotificationBatch, CancelFunc, error) {
	batches, cancel, err := s.sync.Subscribe(ctx, s.repo.QueryFor(userID))
	if err != nil {
		return nil, nil, err
	}
	out := make(chan NotificationBatch, 1)
	go func() {
		defer close(out)
		for b := range batches {
			items := make([]model.Notification, 0, len(b.Docs))
			for i := range b.Docs {
				items = append(items, model.NotificationFromDoc(&b.Docs[i]))
			}
			forward(out, NotificationBatch{Version: b.Version, Notifications: items})
		}
	}()
	return out, cancel, nil
}
