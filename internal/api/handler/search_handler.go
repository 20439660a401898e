package handler

import (
	"kindboard-go/internal/api/dto"
	"kindboard-go/internal/api/middleware"
	"kindboard-go/internal/api/response"
	"kindboard-go/internal/service"
	"kindboard-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SearchHandler struct {
	searchService *service.SearchService
}

func NewSearchHandler(searchService *service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// Search 搜索评论
// @Summary 全文搜索评论
// @Description 在评论原文、改写文本、视频标题和作者中搜索关键词
// @Tags 评论
// @Produce json
// @Security BearerAuth
// @Param q query string true "搜索关键词"
// @Param platform query string false "平台过滤" Enums(youtube, instagram)
// @Param sentiment query string false "情感过滤" Enums(positive, negative, neutral, constructive)
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=dto.SearchCommentData} "搜索成功"
// @Failure 400 {object} response.ErrorResponse "关键词为空"
// @Failure 401 {object} response.ErrorResponse "未授权"
// @Router /comments/search [get]
func (h *SearchHandler) Search(c *gin.Context) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "无法获取用户信息")
		return
	}

	var req dto.SearchCommentRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "搜索关键词不能为空")
		return
	}

	data, err := h.searchService.Search(c.Request.Context(), userID, &req)
	if err != nil {
		logger.Error("Search comments failed", zap.Error(err))
		response.InternalError(c, "搜索失败，请稍后重试")
		return
	}

	response.OK(c, "搜索成功", data)
}
