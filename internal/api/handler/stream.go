package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/d60-Lab/feedcore/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// 浏览器客户端跨源连接；鉴权由 token 中间件负责
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// StreamPosts 信息流实时推送：每次集合变化推送一帧完整快照
// @Summary 订阅信息流
// @Tags 实时
// @Router /ws/posts [get]
func (h *Handler) StreamPosts(c *gin.Context) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	batches, unsubscribe, err := h.feedService.SubscribePosts(ctx)
	if err != nil {
		cancel()
		writeError(c, err)
		return
	}
	streamBatches(c, batches, func() { unsubscribe(); cancel() })
}

// StreamComments 某帖评论实时推送
// @Summary 订阅评论
// @Tags 实时
// @Param post_id path string true "帖子ID"
// @Router /ws/posts/{post_id}/comments [get]
func (h *Handler) StreamComments(c *gin.Context) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	batches, unsubscribe, err := h.feedService.SubscribeComments(ctx, c.Param("post_id"))
	if err != nil {
		cancel()
		writeError(c, err)
		return
	}
	streamBatches(c, batches, func() { unsubscribe(); cancel() })
}

// StreamThread 私聊消息实时推送
// @Summary 订阅私聊
// @Tags 实时
// @Param user_id path string true "对方用户ID"
// @Router /ws/chats/{user_id} [get]
func (h *Handler) StreamThread(c *gin.Context) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	batches, unsubscribe, err := h.chatService.SubscribeThread(ctx, currentUser(c), c.Param("user_id"))
	if err != nil {
		cancel()
		writeError(c, err)
		return
	}
	streamBatches(c, batches, func() { unsubscribe(); cancel() })
}

// StreamChat 公共聊天室实时推送
// @Summary 订阅公共聊天室
// @Tags 实时
// @Router /ws/chat [get]
func (h *Handler) StreamChat(c *gin.Context) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	batches, unsubscribe, err := h.chatService.SubscribeChat(ctx)
	if err != nil {
		cancel()
		writeError(c, err)
		return
	}
	streamBatches(c, batches, func() { unsubscribe(); cancel() })
}

// StreamCommunityChat 社区聊天室实时推送
// @Summary 订阅社区聊天室
// @Tags 实时
// @Param community_id path string true "社区ID"
// @Router /ws/communities/{community_id}/chat [get]
func (h *Handler) StreamCommunityChat(c *gin.Context) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	batches, unsubscribe, err := h.chatService.SubscribeCommunityChat(ctx, c.Param("community_id"))
	if err != nil {
		cancel()
		writeError(c, err)
		return
	}
	streamBatches(c, batches, func() { unsubscribe(); cancel() })
}

// StreamNotifications 当前用户通知实时推送
// @Summary 订阅通知
// @Tags 实时
// @Router /ws/notifications [get]
func (h *Handler) StreamNotifications(c *gin.Context) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	batches, unsubscribe, err := h.notifService.Subscribe(ctx, currentUser(c))
	if err != nil {
		cancel()
		writeError(c, err)
		return
	}
	streamBatches(c, batches, func() { unsubscribe(); cancel() })
}

// streamBatches upgrades the connection and writes one JSON frame per
// snapshot delivery until either side goes away.
func streamBatches[T any](c *gin.Context, batches <-chan T, stop func()) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("ws: upgrade failed", zap.Error(err))
		stop()
		return
	}
	defer conn.Close()
	defer stop()

	// Reader goroutine only notices the peer closing.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case batch, ok := <-batches:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(batch); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
