package model

import (
	"time"

	"github.com/d60-Lab/feedcore/internal/docstore"
)

const (
	CollectionPrivateChats = "private-chats"
	CollectionChat         = "chat"

	FieldParticipants = "participants"
)

// Thread 两人会话文档；标识由参与者对唯一确定
type Thread struct {
	ID           string   `json:"id"`
	Participants []string `json:"participants"`
}

func ThreadFromDoc(d *docstore.Document) Thread {
	return Thread{ID: d.ID(), Participants: d.Strings(FieldParticipants)}
}

// Message 私聊消息
type Message struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (m *Message) Fields() map[string]any {
	return map[string]any{
		"sender_id": m.SenderID,
		"content":   m.Content,
	}
}

func MessageFromDoc(d *docstore.Document) Message {
	return Message{
		ID:        d.ID(),
		SenderID:  d.String("sender_id"),
		Content:   d.String("content"),
		CreatedAt: d.CreatedAt,
	}
}

// ChatMessage 公共聊天室与社区聊天室消息，带作者快照
type ChatMessage struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	PhotoURL    string    `json:"photoURL"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

func (m *ChatMessage) Fields() map[string]any {
	return map[string]any{
		"user_id":     m.UserID,
		"email":       m.Email,
		"displayName": m.DisplayName,
		"photoURL":    m.PhotoURL,
		"content":     m.Content,
	}
}

func ChatMessageFromDoc(d *docstore.Document) ChatMessage {
	return ChatMessage{
		ID:          d.ID(),
		UserID:      d.String("user_id"),
		Email:       d.String("email"),
		DisplayName: d.String("displayName"),
		PhotoURL:    d.String("photoURL"),
		Content:     d.String("content"),
		CreatedAt:   d.CreatedAt,
	}
}

// ThreadPath private-chats/{threadID}
func ThreadPath(threadID string) string {
	return docstore.Join(CollectionPrivateChats, threadID)
}

// ThreadMessages private-chats/{threadID}/messages
func ThreadMessages(threadID string) string {
	return docstore.Join(CollectionPrivateChats, threadID, "messages")
}

// CommunityChat communities/{communityID}/chat
func CommunityChat(communityID string) string {
	return docstore.Join(CollectionCommunities, communityID, "chat")
}
