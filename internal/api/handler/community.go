package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/feedcore/pkg/response"
)

type createCommunityRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CreateCommunity 新建社区
// @Summary 创建社区
// @Tags 社区
// @Accept json
// @Produce json
// @Param request body createCommunityRequest true "社区信息"
// @Success 201 {object} response.Response{data=map[string]interface{}}
// @Failure 400 {object} response.Response
// @Router /api/v1/communities [post]
func (h *Handler) CreateCommunity(c *gin.Context) {
	var req createCommunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	id, err := h.commService.Create(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, gin.H{"id": id})
}

// GetCommunity 查询社区
// @Summary 查询社区
// @Tags 社区
// @Param community_id path string true "社区ID"
// @Success 200 {object} response.Response{data=model.Community}
// @Failure 404 {object} response.Response
// @Router /api/v1/communities/{community_id} [get]
func (h *Handler) GetCommunity(c *gin.Context) {
	community, err := h.commService.Get(c.Request.Context(), c.Param("community_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, community)
}

// JoinCommunity 加入/退出切换
// @Summary 切换社区成员资格
// @Tags 社区
// @Param community_id path string true "社区ID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/communities/{community_id}/membership [post]
func (h *Handler) JoinCommunity(c *gin.Context) {
	member, err := h.commService.ToggleMembership(c.Request.Context(), currentUser(c), c.Param("community_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"member": member})
}

// ListMyCommunities 当前用户加入的社区
// @Summary 查询已加入社区
// @Tags 社区
// @Success 200 {object} response.Response{data=[]model.Community}
// @Router /api/v1/me/communities [get]
func (h *Handler) ListMyCommunities(c *gin.Context) {
	list, err := h.commService.UserCommunities(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, list)
}

// UpdateCommunityPhoto 上传社区头像
// @Summary 上传社区头像
// @Tags 社区
// @Accept octet-stream
// @Param community_id path string true "社区ID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/communities/{community_id}/photo [put]
func (h *Handler) UpdateCommunityPhoto(c *gin.Context) {
	url, err := h.commService.UpdatePhoto(c.Request.Context(), c.Param("community_id"), c.Request.Body, c.ContentType())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"url": url})
}

// UpdateCommunityBanner 上传社区横幅
// @Summary 上传社区横幅
// @Tags 社区
// @Accept octet-stream
// @Param community_id path string true "社区ID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/communities/{community_id}/banner [put]
func (h *Handler) UpdateCommunityBanner(c *gin.Context) {
	url, err := h.commService.UpdateBanner(c.Request.Context(), c.Param("community_id"), c.Request.Body, c.ContentType())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"url": url})
}
