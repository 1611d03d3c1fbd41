package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/feedcore/internal/auth"
	"github.com/d60-Lab/feedcore/internal/blobstore"
	"github.com/d60-Lab/feedcore/internal/docstore"
	"github.com/d60-Lab/feedcore/internal/service"
	"github.com/d60-Lab/feedcore/pkg/response"
)

// Handler 聚合所有 HTTP 端点依赖。
type Handler struct {
	authService   *auth.Service
	feedService   *service.FeedService
	chatService   *service.ChatService
	relService    service.RelationshipService
	commService   *service.CommunityService
	notifService  *service.NotificationService
	searchService *service.SearchService
}

func New(
	authService *auth.Service,
	feedService *service.FeedService,
	chatService *service.ChatService,
	relService service.RelationshipService,
	commService *service.CommunityService,
	notifService *service.NotificationService,
	searchService *service.SearchService,
) *Handler {
	return &Handler{
		authService:   authService,
		feedService:   feedService,
		chatService:   chatService,
		relService:    relService,
		commService:   commService,
		notifService:  notifService,
		searchService: searchService,
	}
}

// writeError maps domain errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, docstore.ErrAlreadyExists):
		response.Conflict(c, err.Error())
	case errors.Is(err, service.ErrInvalidArgument), errors.Is(err, service.ErrFollowSelf),
		errors.Is(err, blobstore.ErrUnsupportedType):
		response.BadRequest(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}

// currentUser 由鉴权中间件注入。
func currentUser(c *gin.Context) string {
	return c.GetString("user_id")
}
