package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/feedcore/internal/service"
	"github.com/d60-Lab/feedcore/pkg/response"
)

type createNotificationRequest struct {
	UserID  string `json:"userId" binding:"required"`
	Type    string `json:"type"`
	Content string `json:"content" binding:"required"`
}

// CreateNotification 给某用户投递通知
// @Summary 创建通知
// @Tags 通知
// @Accept json
// @Produce json
// @Param request body createNotificationRequest true "通知内容"
// @Success 201 {object} response.Response{data=map[string]interface{}}
// @Failure 400 {object} response.Response
// @Router /api/v1/notifications [post]
func (h *Handler) CreateNotification(c *gin.Context) {
	var req createNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	id, err := h.notifService.Create(c.Request.Context(), req.UserID, req.Type, req.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, gin.H{"id": id})
}

// ListNotifications 当前用户通知快照，新的在前
// @Summary 查询通知
// @Tags 通知
// @Success 200 {object} response.Response{data=service.NotificationBatch}
// @Router /api/v1/me/notifications [get]
func (h *Handler) ListNotifications(c *gin.Context) {
	batches, cancel, err := h.notifService.Subscribe(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	defer cancel()
	batch, ok := <-batches
	if !ok {
		response.Success(c, service.NotificationBatch{})
		return
	}
	response.Success(c, batch)
}

// MarkNotificationRead 标记已读
// @Summary 标记通知已读
// @Tags 通知
// @Param notification_id path string true "通知ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/me/notifications/{notification_id}/read [post]
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	if err := h.notifService.MarkRead(c.Request.Context(), c.Param("notification_id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}
