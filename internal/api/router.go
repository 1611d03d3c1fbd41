package api

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/feedcore/config"
	_ "github.com/d60-Lab/feedcore/docs"
	"github.com/d60-Lab/feedcore/internal/api/handler"
	"github.com/d60-Lab/feedcore/internal/api/middleware"
	"github.com/d60-Lab/feedcore/internal/auth"
)

// NewRouter 组装全部路由与中间件
func NewRouter(cfg *config.Config, h *handler.Handler, authService *auth.Service) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLog())
	r.Use(otelgin.Middleware("feedcore"))
	if cfg.Telemetry.SentryDSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	if cfg.Server.RateLimit > 0 {
		r.Use(middleware.RateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst))
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.Static(cfg.Blob.BaseURL, cfg.Blob.Dir)
	r.GET("/healthz", func(c *gin.Context) { c.String(200, "ok") })

	v1 := r.Group("/api/v1")
	{
		v1.POST("/auth/register", h.Register)
		v1.POST("/auth/login", h.Login)

		authed := v1.Group("", middleware.Auth(authService))
		{
			authed.GET("/me", h.Me)
			authed.PATCH("/me", h.UpdateProfile)
			authed.PUT("/me/photo", h.UpdatePhoto)
			authed.PUT("/me/banner", h.UpdateBanner)
			authed.GET("/me/saved-posts", h.ListSavedPosts)
			authed.GET("/me/communities", h.ListMyCommunities)
			authed.GET("/me/notifications", h.ListNotifications)
			authed.POST("/me/notifications/:notification_id/read", h.MarkNotificationRead)

			authed.GET("/posts", h.ListPosts)
			authed.POST("/posts", h.CreatePost)
			authed.GET("/posts/:post_id", h.GetPost)
			authed.POST("/posts/:post_id/comments", h.CreateComment)
			authed.GET("/posts/:post_id/reactions", h.GetReactions)
			authed.POST("/posts/:post_id/reactions", h.ToggleReaction)
			authed.POST("/posts/:post_id/comments/:comment_id/reactions", h.ToggleCommentReaction)
			authed.POST("/posts/:post_id/save", h.ToggleSavePost)

			authed.GET("/chats", h.ListThreads)
			authed.GET("/chats/:user_id", h.GetThread)
			authed.POST("/chats/:user_id/messages", h.SendMessage)
			authed.GET("/chat", h.GetChat)
			authed.POST("/chat/messages", h.PostChatMessage)

			authed.POST("/communities", h.CreateCommunity)
			authed.GET("/communities/:community_id", h.GetCommunity)
			authed.POST("/communities/:community_id/membership", h.JoinCommunity)
			authed.PUT("/communities/:community_id/photo", h.UpdateCommunityPhoto)
			authed.PUT("/communities/:community_id/banner", h.UpdateCommunityBanner)
			authed.GET("/communities/:community_id/chat", h.GetCommunityChat)
			authed.POST("/communities/:community_id/chat/messages", h.PostCommunityChatMessage)

			authed.POST("/relations/follow", h.Follow)
			authed.POST("/relations/unfollow", h.Unfollow)
			authed.POST("/relations/toggle", h.ToggleFollow)
			authed.GET("/relations/:user_id", h.GetRelation)
			authed.GET("/relations/:user_id/following", h.ListFollowing)
			authed.GET("/relations/:user_id/followers", h.ListFollowers)

			authed.POST("/notifications", h.CreateNotification)
			authed.GET("/search", h.Search)
		}
	}

	ws := r.Group("/ws", middleware.Auth(authService))
	{
		ws.GET("/posts", h.StreamPosts)
		ws.GET("/posts/:post_id/comments", h.StreamComments)
		ws.GET("/chats/:user_id", h.StreamThread)
		ws.GET("/chat", h.StreamChat)
		ws.GET("/communities/:community_id/chat", h.StreamCommunityChat)
		ws.GET("/notifications", h.StreamNotifications)
	}

	return r
}
