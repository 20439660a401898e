package dto

// ChatRequest 分析问答请求
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// ChatResponse 分析问答响应
// 管线内部失败不会产生错误响应，最差情况 response 为固定兜底文案
type ChatResponse struct {
	Response   string `json:"response"`
	Timestamp  string `json:"timestamp"`
	TemplateID string `json:"template_id,omitempty"`
}
