package model

import (
	"time"

	"github.com/d60-Lab/feedcore/internal/docstore"
)

const CollectionNotifications = "notifications"

// Notification 面向单个用户的通知
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Kind      string    `json:"type"`
	Content   string    `json:"content"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

func (n *Notification) Fields() map[string]any {
	return map[string]any{
		"userId":  n.UserID,
		"type":    n.Kind,
		"content": n.Content,
		"read":    n.Read,
	}
}

func NotificationFromDoc(d *docstore.Document) Notification {
	return Notification{
		ID:        d.ID(),
		UserID:    d.String("userId"),
		Kind:      d.String("type"),
		Content:   d.String("content"),
		Read:      d.Bool("read"),
		CreatedAt: d.CreatedAt,
	}
}

// NotificationPath notifications/{id}
func NotificationPath(id string) string {
	return docstore.Join(CollectionNotifications, id)
}
