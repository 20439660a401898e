package handler

import (
	"errors"
	"net/http"
	"time"

	"kindboard-go/internal/analytics"
	"kindboard-go/internal/api/dto"
	"kindboard-go/internal/api/middleware"
	"kindboard-go/internal/api/response"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	analyticsService *analytics.Service
}

func NewChatHandler(analyticsService *analytics.Service) *ChatHandler {
	return &ChatHandler{analyticsService: analyticsService}
}

// Chat 分析问答
// @Summary 数据分析问答
// @Description 以自然语言提问评论数据，LLM 识别意图后执行固定模板查询并生成回答；
// @Description 内部处理失败不产生错误响应，最差情况返回固定兜底文案
// @Tags 助手
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ChatRequest true "问题"
// @Success 200 {object} dto.ChatResponse "回答"
// @Failure 400 {object} response.ErrorResponse "消息为空"
// @Failure 401 {object} response.ErrorResponse "未授权"
// @Router /assistant/chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "无法获取用户信息")
		return
	}

	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "消息不能为空")
		return
	}

	answer, err := h.analyticsService.Ask(c.Request.Context(), userID, req.Message)
	if err != nil {
		if errors.Is(err, analytics.ErrEmptyMessage) {
			response.BadRequest(c, "消息不能为空")
			return
		}
		// Ask 内部已兜底，理论上不会走到这里
		response.InternalError(c, "处理失败，请稍后重试")
		return
	}

	c.JSON(http.StatusOK, dto.ChatResponse{
		Response:   answer.Response,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		TemplateID: answer.TemplateID,
	})
}
