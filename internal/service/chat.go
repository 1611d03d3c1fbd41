package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/d60-Lab/feedcore/internal/docstore"
	"github.com/d60-Lab/feedcore/internal/model"
	"github.com/d60-Lab/feedcore/internal/repository"
	"github.com/d60-Lab/feedcore/pkg/logger"
)

// MessageBatch / ChatBatch are typed snapshot deliveries.
type MessageBatch struct {
	Version  uint64          `json:"version"`
	Messages []model.Message `json:"messages"`
}

type ChatBatch struct {
	Version  uint64              `json:"version"`
	Messages []model.ChatMessage `json:"messages"`
}

// ThreadSummary is one entry of a user's conversation list.
type ThreadSummary struct {
	ThreadID     string        `json:"chatId"`
	Participants []Participant `json:"participants"`
}

type Participant struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// ChatService 私聊、公共聊天室与社区聊天室
type ChatService struct {
	threads  repository.ThreadRepository
	profiles repository.ProfileRepository
	store    docstore.Store
	sync     *Synchronizer
	workers  int
}

func NewChatService(threads repository.ThreadRepository, profiles repository.ProfileRepository, store docstore.Store, sync *Synchronizer) *ChatService {
	return &ChatService{threads: threads, profiles: profiles, store: store, sync: sync, workers: 8}
}

// SendMessage appends a private message, lazily provisioning the thread
// document on first contact between the pair.
func (s *ChatService) SendMessage(ctx context.Context, senderID, receiverID, content string) (string, error) {
	if senderID == "" || receiverID == "" {
		return "", fmt.Errorf("%w: sender and receiver required", ErrInvalidArgument)
	}
	if content == "" {
		return "", fmt.Errorf("%w: empty message content", ErrInvalidArgument)
	}
	threadID, err := s.threads.Ensure(ctx, senderID, receiverID)
	if err != nil {
		return "", err
	}
	return s.threads.AppendMessage(ctx, threadID, &model.Message{SenderID: senderID, Content: content})
}

// SubscribeThread streams the pair's messages oldest-first.
func (s *ChatService) SubscribeThread(ctx context.Context, a, b string) (<-chan MessageBatch, CancelFunc, error) {
	q := docstore.Query{Collection: model.ThreadMessages(repository.ThreadID(a, b))}
	batches, cancel, err := s.sync.Subscribe(ctx, q)
	if err != nil {
		return nil, nil, err
	}
	out := make(chan MessageBatch, 1)
	go func() {
		defer close(out)
		for batch := range batches {
			msgs := make([]model.Message, 0, len(batch.Docs))
			for i := range batch.Docs {
				msgs = append(msgs, model.MessageFromDoc(&batch.Docs[i]))
			}
			forward(out, MessageBatch{Version: batch.Version, Messages: msgs})
		}
	}()
	return out, cancel, nil
}

// ListThreads lists the user's conversations with counterpart display
// names resolved; a missing profile falls back to the raw id.
func (s *ChatService) ListThreads(ctx context.Context, userID string) ([]ThreadSummary, error) {
	threads, err := s.threads.ThreadsFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]ThreadSummary, len(threads))
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	for i, t := range threads {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, t model.Thread) {
			defer wg.Done()
			defer func() { <-sem }()
			summary := ThreadSummary{ThreadID: t.ID}
			for _, pid := range t.Participants {
				if pid == userID {
					continue
				}
				name := pid
				if profile, err := s.profiles.Get(ctx, pid); err == nil && profile.DisplayName != "" {
					name = profile.DisplayName
				} else if err != nil && !errors.Is(err, docstore.ErrNotFound) {
					logger.Warn("chat: participant lookup failed", zap.String("participant", pid), zap.Error(err))
				}
				summary.Participants = append(summary.Participants, Participant{ID: pid, DisplayName: name})
			}
			out[i] = summary
		}(i, t)
	}
	wg.Wait()
	return out, nil
}

// SaveChatMessage appends to the global chat room.
func (s *ChatService) SaveChatMessage(ctx context.Context, m model.ChatMessage) (string, error) {
	return s.appendChat(ctx, model.CollectionChat, m)
}

// SubscribeChat streams the global chat room oldest-first.
func (s *ChatService) SubscribeChat(ctx context.Context) (<-chan ChatBatch, CancelFunc, error) {
	return s.subscribeChat(ctx, model.CollectionChat)
}

// SaveCommunityChatMessage appends to a community's chat room.
func (s *ChatService) SaveCommunityChatMessage(ctx context.Context, communityID string, m model.ChatMessage) (string, error) {
	if communityID == "" {
		return "", fmt.Errorf("%w: community id required", ErrInvalidArgument)
	}
	return s.appendChat(ctx, model.CommunityChat(communityID), m)
}

// SubscribeCommunityChat streams a community's chat room oldest-first.
func (s *ChatService) SubscribeCommunityChat(ctx context.Context, communityID string) (<-chan ChatBatch, CancelFunc, error) {
	return s.subscribeChat(ctx, model.CommunityChat(communityID))
}

func (s *ChatService) appendChat(ctx context.Context, collection string, m model.ChatMessage) (string, error) {
	if m.UserID == "" {
		return "", fmt.Errorf("%w: chat message requires user_id", ErrInvalidArgument)
	}
	if m.Content == "" {
		return "", fmt.Errorf("%w: empty message content", ErrInvalidArgument)
	}
	id := uuid.New().String()
	if err := s.store.Create(ctx, docstore.Join(collection, id), m.Fields()); err != nil {
		return "", err
	}
	return id, nil
}

func (s *ChatService) subscribeChat(ctx context.Context, collection string) (<-chan ChatBatch, CancelFunc, error) {
	batches, cancel, err := s.sync.Subscribe(ctx, docstore.Query{Collection: collection})
	if err != nil {
		return nil, nil, err
	}
	out := make(chan ChatBatch, 1)
	go func() {
		defer close(out)
		for batch := range batches {
			msgs := make([]model.ChatMessage, 0, len(batch.Docs))
			for i := range batch.Docs {
				msgs = append(msgs, model.ChatMessageFromDoc(&batch.Docs[i]))
			}
			forward(out, ChatBatch{Version: batch.Version, Messages: msgs})
		}
	}()
	return out, cancel, nil
}
