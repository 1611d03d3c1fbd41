package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/feedcore/internal/auth"
	"github.com/d60-Lab/feedcore/pkg/response"
)

// Auth 校验 Bearer token 并注入 user_id。WebSocket 客户端无法自定义
// header，额外接受 ?token= 查询参数。
func Auth(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			response.Unauthorized(c, "missing token")
			c.Abort()
			return
		}
		userID, err := svc.VerifyToken(token)
		if err != nil {
			response.Unauthorized(c, err.Error())
			c.Abort()
			return
		}
		c.Set("user_id", userID)
		c.Next()
	}
}
