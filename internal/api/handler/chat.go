package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/feedcore/internal/model"
	"github.com/d60-Lab/feedcore/internal/service"
	"github.com/d60-Lab/feedcore/pkg/response"
)

type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type chatMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// SendMessage 发私信，首条消息自动创建会话
// @Summary 发送私信
// @Tags 聊天
// @Accept json
// @Produce json
// @Param user_id path string true "对方用户ID"
// @Param request body sendMessageRequest true "内容"
// @Success 201 {object} response.Response{data=map[string]interface{}}
// @Failure 400 {object} response.Response
// @Router /api/v1/chats/{user_id}/messages [post]
func (h *Handler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	id, err := h.chatService.SendMessage(c.Request.Context(), currentUser(c), c.Param("user_id"), req.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, gin.H{"id": id})
}

// ListThreads 当前用户会话列表
// @Summary 查询会话列表
// @Tags 聊天
// @Success 200 {object} response.Response{data=[]service.ThreadSummary}
// @Router /api/v1/chats [get]
func (h *Handler) ListThreads(c *gin.Context) {
	threads, err := h.chatService.ListThreads(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, threads)
}

// GetThread 与某用户会话的当前快照（实时流见 /ws/chats/{user_id}）
// @Summary 查询私聊消息
// @Tags 聊天
// @Param user_id path string true "对方用户ID"
// @Success 200 {object} response.Response{data=service.MessageBatch}
// @Router /api/v1/chats/{user_id} [get]
func (h *Handler) GetThread(c *gin.Context) {
	batches, cancel, err := h.chatService.SubscribeThread(c.Request.Context(), currentUser(c), c.Param("user_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	defer cancel()
	batch, ok := <-batches
	if !ok {
		response.Success(c, service.MessageBatch{})
		return
	}
	response.Success(c, batch)
}

// PostChatMessage 公共聊天室发言
// @Summary 公共聊天室发言
// @Tags 聊天
// @Accept json
// @Produce json
// @Param request body chatMessageRequest true "内容"
// @Success 201 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/chat/messages [post]
func (h *Handler) PostChatMessage(c *gin.Context) {
	var req chatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	id, err := h.chatService.SaveChatMessage(c.Request.Context(), h.chatMessage(c, req.Content))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, gin.H{"id": id})
}

// GetChat 公共聊天室快照
// @Summary 查询公共聊天室
// @Tags 聊天
// @Success 200 {object} response.Response{data=service.ChatBatch}
// @Router /api/v1/chat [get]
func (h *Handler) GetChat(c *gin.Context) {
	batches, cancel, err := h.chatService.SubscribeChat(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	defer cancel()
	h.writeChatSnapshot(c, batches)
}

// PostCommunityChatMessage 社区聊天室发言
// @Summary 社区聊天室发言
// @Tags 聊天
// @Accept json
// @Produce json
// @Param community_id path string true "社区ID"
// @Param request body chatMessageRequest true "内容"
// @Success 201 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/communities/{community_id}/chat/messages [post]
func (h *Handler) PostCommunityChatMessage(c *gin.Context) {
	var req chatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	id, err := h.chatService.SaveCommunityChatMessage(c.Request.Context(), c.Param("community_id"), h.chatMessage(c, req.Content))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, gin.H{"id": id})
}

// GetCommunityChat 社区聊天室快照
// @Summary 查询社区聊天室
// @Tags 聊天
// @Param community_id path string true "社区ID"
// @Success 200 {object} response.Response{data=service.ChatBatch}
// @Router /api/v1/communities/{community_id}/chat [get]
func (h *Handler) GetCommunityChat(c *gin.Context) {
	batches, cancel, err := h.chatService.SubscribeCommunityChat(c.Request.Context(), c.Param("community_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	defer cancel()
	h.writeChatSnapshot(c, batches)
}

func (h *Handler) chatMessage(c *gin.Context, content string) model.ChatMessage {
	profile := h.authService.Profile(c.Request.Context(), currentUser(c))
	return model.ChatMessage{
		UserID:      currentUser(c),
		Email:       profile.Email,
		DisplayName: profile.DisplayName,
		PhotoURL:    profile.PhotoURL,
		Content:     content,
	}
}

func (h *Handler) writeChatSnapshot(c *gin.Context, batches <-chan service.ChatBatch) {
	batch, ok := <-batches
	if !ok {
		response.Success(c, service.ChatBatch{})
		return
	}
	response.Success(c, batch)
}
