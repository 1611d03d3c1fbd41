package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/feedcore/pkg/response"
)

// Search 前缀搜索社区与用户
// @Summary 搜索
// @Tags 搜索
// @Param q query string true "搜索前缀"
// @Success 200 {object} response.Response{data=[]service.SearchResult}
// @Router /api/v1/search [get]
func (h *Handler) Search(c *gin.Context) {
	results := h.searchService.Search(c.Request.Context(), c.Query("q"), currentUser(c))
	response.Success(c, results)
}
