package dto

import "time"

// CommentInfo 评论信息
type CommentInfo struct {
	ID           int64     `json:"id"`
	ExternalID   string    `json:"external_id"`
	Platform     string    `json:"platform"`
	VideoID      string    `json:"video_id"`
	VideoTitle   string    `json:"video_title"`
	Author       string    `json:"author"`
	AuthorAvatar *string   `json:"author_avatar"`
	Text         string    `json:"text"`
	EmpathicText *string   `json:"empathic_text"`
	Sentiment    *string   `json:"sentiment"`
	ParentID     *int64    `json:"parent_id"`
	ReplyCount   int64     `json:"reply_count"`
	IsOwner      bool      `json:"is_owner"`
	Feedback     *string   `json:"feedback"`
	PublishedAt  time.Time `json:"published_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// CommentListData 评论列表数据
type CommentListData struct {
	Comments   []CommentInfo `json:"comments"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int64         `json:"total_pages"`
}

// CommentTreeNode 回复树节点
type CommentTreeNode struct {
	CommentInfo
	Replies []CommentTreeNode `json:"replies"`
}

// FeedbackRequest 改写反馈请求
type FeedbackRequest struct {
	Feedback string `json:"feedback" binding:"required,oneof=up down"`
}

// RegenerateRequest 批量重新生成请求
type RegenerateRequest struct {
	Force bool `json:"force"`
}

// RegenerateProgress 批量处理进度
type RegenerateProgress struct {
	Status string `json:"status"` // queued / running / done / idle
	Done   int    `json:"done"`
	Total  int    `json:"total"`
}

// ExportData 导出结果
type ExportData struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
