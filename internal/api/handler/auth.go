package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/feedcore/internal/auth"
	"github.com/d60-Lab/feedcore/pkg/response"
)

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type updateProfileRequest struct {
	DisplayName string `json:"displayName"`
	Bio         string `json:"bio"`
}

// Register 注册并签发 token
// @Summary 注册
// @Tags 账号
// @Accept json
// @Produce json
// @Param request body credentialsRequest true "邮箱与密码"
// @Success 201 {object} response.Response{data=map[string]interface{}}
// @Failure 409 {object} response.Response
// @Router /api/v1/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	profile, token, err := h.authService.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	response.Created(c, gin.H{"token": token, "profile": profile})
}

// Login 登录
// @Summary 登录
// @Tags 账号
// @Accept json
// @Produce json
// @Param request body credentialsRequest true "邮箱与密码"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 401 {object} response.Response
// @Router /api/v1/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	profile, token, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	response.Success(c, gin.H{"token": token, "profile": profile})
}

// Me 当前登录用户资料
// @Summary 查询当前用户
// @Tags 账号
// @Success 200 {object} response.Response{data=model.Profile}
// @Router /api/v1/me [get]
func (h *Handler) Me(c *gin.Context) {
	response.Success(c, h.authService.Profile(c.Request.Context(), currentUser(c)))
}

// UpdateProfile 合并式更新昵称/简介
// @Summary 更新个人资料
// @Tags 账号
// @Accept json
// @Produce json
// @Param request body updateProfileRequest true "部分资料"
// @Success 200 {object} response.Response
// @Router /api/v1/me [patch]
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.authService.UpdateProfile(c.Request.Context(), currentUser(c), req.DisplayName, req.Bio); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, nil)
}

// UpdatePhoto 上传头像
// @Summary 上传头像
// @Tags 账号
// @Accept octet-stream
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 400 {object} response.Response
// @Router /api/v1/me/photo [put]
func (h *Handler) UpdatePhoto(c *gin.Context) {
	url, err := h.authService.UpdatePhoto(c.Request.Context(), currentUser(c), c.Request.Body, c.ContentType())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"url": url})
}

// UpdateBanner 上传横幅
// @Summary 上传横幅
// @Tags 账号
// @Accept octet-stream
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 400 {object} response.Response
// @Router /api/v1/me/banner [put]
func (h *Handler) UpdateBanner(c *gin.Context) {
	url, err := h.authService.UpdateBanner(c.Request.Context(), currentUser(c), c.Request.Body, c.ContentType())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"url": url})
}

func writeAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		response.Conflict(c, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		response.Unauthorized(c, err.Error())
	default:
		writeError(c, err)
	}
}
