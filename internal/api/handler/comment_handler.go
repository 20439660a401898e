package handler

import (
	"errors"
	"strconv"

	"kindboard-go/internal/api/dto"
	"kindboard-go/internal/api/middleware"
	"kindboard-go/internal/api/response"
	"kindboard-go/internal/service"
	"kindboard-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CommentHandler struct {
	commentService *service.CommentService
	rewriteService *service.RewriteService
	exportService  *service.ExportService
}

func NewCommentHandler(
	commentService *service.CommentService,
	rewriteService *service.RewriteService,
	exportService *service.ExportService,
) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		rewriteService: rewriteService,
		exportService:  exportService,
	}
}

// List 获取评论列表
// @Summary 获取评论列表
// @Description 分页获取当前用户的评论，可按情感和平台过滤
// @Tags 评论
// @Produce json
// @Security BearerAuth
// @Param sentiment query string false "情感过滤" Enums(positive, negative, neutral, constructive)
// @Param platform query string false "平台过滤" Enums(youtube, instagram)
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=dto.CommentListData} "获取成功"
// @Failure 400 {object} response.ErrorResponse "过滤条件无效"
// @Failure 401 {object} response.ErrorResponse "未授权"
// @Router /comments [get]
func (h *CommentHandler) List(c *gin.Context) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "无法获取用户信息")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	data, err := h.commentService.List(userID, c.Query("sentiment"), c.Query("platform"), page, pageSize)
	if err != nil {
		if errors.Is(err, service.ErrInvalidFilter) {
			response.BadRequest(c, err.Error())
			return
		}
		logger.Error("List comments failed", zap.Error(err))
		response.InternalError(c, "获取评论列表失败")
		return
	}

	response.OK(c, "获取成功", data)
}

// Tree 获取回复树
// @Summary 获取某个视频/帖子的回复树
// @Description 返回指定视频下的评论，按父子关系组织为树形结构
// @Tags 评论
// @Produce json
// @Security BearerAuth
// @Param video_id path string true "视频/帖子ID"
// @Success 200 {object} response.Response{data=[]dto.CommentTreeNode} "获取成功"
// @Failure 401 {object} response.ErrorResponse "未授权"
// @Router /comments/tree/{video_id} [get]
func (h *CommentHandler) Tree(c *gin.Context) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "无法获取用户信息")
		return
	}

	videoID := c.Param("video_id")
	if videoID == "" {
		response.BadRequest(c, "视频ID不能为空")
		return
	}

	tree, err := h.commentService.Tree(userID, videoID)
	if err != nil {
		logger.Error("Build comment tree failed", zap.Error(err))
		response.InternalError(c, "获取回复树失败")
		return
	}

	response.OK(c, "获取成功", tree)
}

// Feedback 记录改写反馈
// @Summary 对善意改写结果打分
// @Description 记录用户对某条评论改写结果的 up/down 反馈
// @Tags 评论
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "评论ID"
// @Param request body dto.FeedbackRequest true "反馈"
// @Success 200 {object} response.Response "记录成功"
// @Failure 400 {object} response.ErrorResponse "请求参数无效"
// @Failure 404 {object} response.ErrorResponse "评论不存在"
// @Router /comments/{id}/feedback [post]
func (h *CommentHandler) Feedback(c *gin.Context) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "无法获取用户信息")
		return
	}

	commentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "评论ID无效")
		return
	}

	var req dto.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数无效: "+err.Error())
		return
	}

	if err := h.commentService.SetFeedback(commentID, userID, req.Feedback); err != nil {
		if errors.Is(err, service.ErrCommentNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		if errors.Is(err, service.ErrInvalidFilter) {
			response.BadRequest(c, err.Error())
			return
		}
		logger.Error("Set feedback failed", zap.Error(err))
		response.InternalError(c, "记录反馈失败")
		return
	}

	response.OK(c, "记录成功", nil)
}

// DeleteAll 清空评论
// @Summary 清空当前用户的全部评论
// @Tags 评论
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response "清空成功"
// @Failure 401 {object} response.ErrorResponse "未授权"
// @Router /comments [delete]
func (h *CommentHandler) DeleteAll(c *gin.Context) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "无法获取用户信息")
		return
	}

	deleted, err := h.commentService.DeleteAll(userID)
	if err != nil {
		logger.Error("Delete comments failed", zap.Error(err))
		response.InternalError(c, "清空评论失败")
		return
	}

	response.OK(c, "清空成功", gin.H{"deleted": deleted})
}

// Regenerate 批量重新生成
// @Summary 批量重新生成情感分析与善意改写
// @Description 投递异步任务，force=true 时覆盖已有结果
// @Tags 评论
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.RegenerateRequest false "选项"
// @Success 202 {object} response.Response "任务已投递"
// @Failure 409 {object} response.ErrorResponse "已有任务在进行中"
// @Router /comments/regenerate [post]
func (h *CommentHandler) Regenerate(c *gin.Context) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "无法获取用户信息")
		return
	}

	// 请求体可省略，默认 force=false
	var req dto.RegenerateRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.rewriteService.EnqueueRegenerate(c.Request.Context(), userID, req.Force); err != nil {
		if errors.Is(err, service.ErrRegenerateInProgress) {
			response.Conflict(c, err.Error())
			return
		}
		logger.Error("Enqueue regenerate failed", zap.Error(err))
		response.InternalError(c, "投递任务失败，请稍后重试")
		return
	}

	response.Accepted(c, "任务已投递", nil)
}

// Progress 查询批量处理进度
// @Summary 查询批量重新生成进度
// @Tags 评论
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=dto.RegenerateProgress} "获取成功"
// @Failure 401 {object} response.ErrorResponse "未授权"
// @Router /comments/regenerate/progress [get]
func (h *CommentHandler) Progress(c *gin.Context) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "无法获取用户信息")
		return
	}

	progress, err := h.rewriteService.Progress(c.Request.Context(), userID)
	if err != nil {
		logger.Error("Get regenerate progress failed", zap.Error(err))
		response.InternalError(c, "获取进度失败")
		return
	}

	response.OK(c, "获取成功", progress)
}

// Export 导出评论
// @Summary 导出当前用户的全部评论为 CSV
// @Description 文件上传到对象存储，返回24小时有效的下载链接
// @Tags 评论
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=dto.ExportData} "导出成功"
// @Failure 401 {object} response.ErrorResponse "未授权"
// @Router /comments/export [post]
func (h *CommentHandler) Export(c *gin.Context) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "无法获取用户信息")
		return
	}

	data, err := h.exportService.Export(c.Request.Context(), userID)
	if err != nil {
		logger.Error("Export comments failed", zap.Error(err))
		response.InternalError(c, "导出失败，请稍后重试")
		return
	}

	response.OK(c, "导出成功", data)
}
