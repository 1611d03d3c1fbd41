package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/feedcore/internal/model"
	"github.com/d60-Lab/feedcore/internal/service"
	"github.com/d60-Lab/feedcore/pkg/response"
)

type createPostRequest struct {
	Title       string `json:"title"`
	Content     string `json:"content" binding:"required"`
	Category    string `json:"category"`
	CommunityID string `json:"communityId"`
	Cover       string `json:"cover"`
}

type createCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

type reactionRequest struct {
	Reaction string `json:"reaction" binding:"required,oneof=like dislike"`
}

// CreatePost 发帖。作者快照取自当前登录用户。
// @Summary 发布帖子
// @Tags 信息流
// @Accept json
// @Produce json
// @Param request body createPostRequest true "帖子内容"
// @Success 201 {object} response.Response{data=map[string]interface{}}
// @Failure 400 {object} response.Response
// @Router /api/v1/posts [post]
func (h *Handler) CreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	profile := h.authService.Profile(c.Request.Context(), currentUser(c))
	id, err := h.feedService.SavePost(c.Request.Context(), model.Post{
		UserID:      currentUser(c),
		Email:       profile.Email,
		DisplayName: profile.DisplayName,
		PhotoURL:    profile.PhotoURL,
		Title:       req.Title,
		Content:     req.Content,
		Category:    req.Category,
		CommunityID: req.CommunityID,
		Cover:       req.Cover,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, gin.H{"id": id})
}

// GetPost 查询单帖
// @Summary 查询帖子
// @Tags 信息流
// @Param post_id path string true "帖子ID"
// @Success 200 {object} response.Response{data=model.Post}
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{post_id} [get]
func (h *Handler) GetPost(c *gin.Context) {
	post, err := h.feedService.GetPost(c.Request.Context(), c.Param("post_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, post)
}

// ListPosts 全量信息流快照（实时流见 /ws/posts）
// @Summary 查询信息流
// @Tags 信息流
// @Success 200 {object} response.Response{data=service.PostBatch}
// @Router /api/v1/posts [get]
func (h *Handler) ListPosts(c *gin.Context) {
	batches, cancel, err := h.feedService.SubscribePosts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	defer cancel()
	batch, ok := <-batches
	if !ok {
		response.Success(c, service.PostBatch{})
		return
	}
	response.Success(c, batch)
}

// CreateComment 评论帖子
// @Summary 发布评论
// @Tags 信息流
// @Accept json
// @Produce json
// @Param post_id path string true "帖子ID"
// @Param request body createCommentRequest true "评论内容"
// @Success 201 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{post_id}/comments [post]
func (h *Handler) CreateComment(c *gin.Context) {
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	profile := h.authService.Profile(c.Request.Context(), currentUser(c))
	id, err := h.feedService.SaveComment(c.Request.Context(), c.Param("post_id"), model.Comment{
		UserID:      currentUser(c),
		Email:       profile.Email,
		DisplayName: profile.DisplayName,
		PhotoURL:    profile.PhotoURL,
		Content:     req.Content,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, gin.H{"id": id})
}

// ToggleReaction 点赞/点踩互斥切换
// @Summary 切换帖子反应
// @Tags 信息流
// @Accept json
// @Produce json
// @Param post_id path string true "帖子ID"
// @Param request body reactionRequest true "like 或 dislike"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{post_id}/reactions [post]
func (h *Handler) ToggleReaction(c *gin.Context) {
	var req reactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	active, err := h.feedService.ToggleReaction(c.Request.Context(), c.Param("post_id"), req.Reaction, currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"active": active})
}

// ToggleCommentReaction 评论上的点赞/点踩
// @Summary 切换评论反应
// @Tags 信息流
// @Accept json
// @Produce json
// @Param post_id path string true "帖子ID"
// @Param comment_id path string true "评论ID"
// @Param request body reactionRequest true "like 或 dislike"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/posts/{post_id}/comments/{comment_id}/reactions [post]
func (h *Handler) ToggleCommentReaction(c *gin.Context) {
	var req reactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	active, err := h.feedService.ToggleCommentReaction(c.Request.Context(), c.Param("post_id"), c.Param("comment_id"), req.Reaction, currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"active": active})
}

// GetReactions 查询帖子当前反应集合
// @Summary 查询帖子反应
// @Tags 信息流
// @Param post_id path string true "帖子ID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/posts/{post_id}/reactions [get]
func (h *Handler) GetReactions(c *gin.Context) {
	likes, dislikes, err := h.feedService.Reactions(c.Request.Context(), c.Param("post_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"likes": likes, "dislikes": dislikes})
}

// ToggleSavePost 收藏/取消收藏
// @Summary 切换帖子收藏
// @Tags 信息流
// @Param post_id path string true "帖子ID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/posts/{post_id}/save [post]
func (h *Handler) ToggleSavePost(c *gin.Context) {
	active, err := h.feedService.ToggleSavePost(c.Request.Context(), currentUser(c), c.Param("post_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"active": active})
}

// ListSavedPosts 当前用户收藏列表
// @Summary 查询收藏帖子
// @Tags 信息流
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/me/saved-posts [get]
func (h *Handler) ListSavedPosts(c *gin.Context) {
	ids, err := h.feedService.SavedPosts(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"post_ids": ids})
}
