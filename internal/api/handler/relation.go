package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/feedcore/pkg/response"
)

type followRequest struct {
	ToUserID string `json:"to_user_id" binding:"required"`
}

// Follow 建立关注（写双方用户文档）
// @Summary 关注用户
// @Tags 关系链
// @Accept json
// @Produce json
// @Param request body followRequest true "关注信息"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/relations/follow [post]
func (h *Handler) Follow(c *gin.Context) {
	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.relService.Follow(c.Request.Context(), currentUser(c), req.ToUserID); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}

// Unfollow 取消关注
// @Summary 取消关注
// @Tags 关系链
// @Accept json
// @Produce json
// @Param request body followRequest true "取消关注信息"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/relations/unfollow [post]
func (h *Handler) Unfollow(c *gin.Context) {
	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.relService.Unfollow(c.Request.Context(), currentUser(c), req.ToUserID); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}

// ToggleFollow 关注/取关切换
// @Summary 切换关注
// @Tags 关系链
// @Accept json
// @Produce json
// @Param request body followRequest true "目标用户"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 400 {object} response.Response
// @Router /api/v1/relations/toggle [post]
func (h *Handler) ToggleFollow(c *gin.Context) {
	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	following, err := h.relService.ToggleFollow(c.Request.Context(), currentUser(c), req.ToUserID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"following": following})
}

// ListFollowing 查询某用户关注的人
// @Summary 查询关注列表
// @Tags 关系链
// @Param user_id path string true "用户ID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/relations/{user_id}/following [get]
func (h *Handler) ListFollowing(c *gin.Context) {
	userID := c.Param("user_id")
	list, err := h.relService.ListFollowing(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"count": len(list), "list": list})
}

// ListFollowers 查询某用户的粉丝
// @Summary 查询粉丝列表
// @Tags 关系链
// @Param user_id path string true "用户ID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/relations/{user_id}/followers [get]
func (h *Handler) ListFollowers(c *gin.Context) {
	userID := c.Param("user_id")
	list, err := h.relService.ListFollowers(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"count": len(list), "list": list})
}

// GetRelation 当前用户与目标用户的关注状态及计数
// @Summary 查询关注状态
// @Tags 关系链
// @Param user_id path string true "用户ID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/relations/{user_id} [get]
func (h *Handler) GetRelation(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.Param("user_id")
	following, err := h.relService.IsFollowing(ctx, currentUser(c), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	followers, err := h.relService.FollowersCount(ctx, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	followingCount, err := h.relService.FollowingCount(ctx, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{
		"following":       following,
		"followers_count": followers,
		"following_count": followingCount,
	})
}
