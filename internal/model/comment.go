package model

import "time"

// 平台枚举
const (
	PlatformYouTube   = "youtube"
	PlatformInstagram = "instagram"
)

// 情感标签枚举（存储层只保留三类，SEXUAL 在入库前折叠为 negative）
const (
	SentimentPositive     = "positive"
	SentimentNegative     = "negative"
	SentimentNeutral      = "neutral"
	SentimentConstructive = "constructive"
)

// 改写反馈枚举
const (
	FeedbackUp   = "up"
	FeedbackDown = "down"
)

// Comment 评论模型
// 同一用户下 (external_id, platform) 唯一，同步时按该约束幂等 upsert
type Comment struct {
	ID           int64     `gorm:"primaryKey;autoIncrement;comment:评论ID" json:"id"`
	UserID       int64     `gorm:"not null;index:idx_comments_user_id;uniqueIndex:uidx_comments_user_external,priority:1;comment:所属用户ID" json:"user_id"`
	ExternalID   string    `gorm:"type:varchar(128);not null;uniqueIndex:uidx_comments_user_external,priority:2;comment:平台评论ID" json:"external_id"`
	Platform     string    `gorm:"type:varchar(16);not null;uniqueIndex:uidx_comments_user_external,priority:3;index:idx_comments_platform;comment:来源平台" json:"platform"`
	VideoID      string    `gorm:"type:varchar(128);index:idx_comments_video_id;comment:所属视频/帖子外部ID" json:"video_id"`
	VideoTitle   string    `gorm:"type:varchar(512);comment:视频/帖子标题" json:"video_title"`
	Author       string    `gorm:"type:varchar(128);not null;comment:评论者昵称" json:"author"`
	AuthorAvatar *string   `gorm:"type:varchar(512);comment:评论者头像URL" json:"author_avatar"`
	Text         string    `gorm:"type:text;not null;comment:原始评论内容" json:"text"`
	EmpathicText *string   `gorm:"type:text;comment:善意改写后的内容" json:"empathic_text"`
	Sentiment    *string   `gorm:"type:varchar(16);index:idx_comments_sentiment;comment:情感标签" json:"sentiment"`
	ParentID     *int64    `gorm:"index:idx_comments_parent_id;comment:父评论ID" json:"parent_id"`
	ReplyCount   int64     `gorm:"default:0;comment:回复数" json:"reply_count"`
	IsOwner      bool      `gorm:"default:false;comment:是否创作者本人的回复" json:"is_owner"`
	Feedback     *string   `gorm:"type:varchar(8);comment:改写反馈 up/down" json:"feedback"`
	PublishedAt  time.Time `gorm:"index:idx_comments_published_at;comment:平台发布时间" json:"published_at"`
	CreatedAt    time.Time `gorm:"autoCreateTime;comment:入库时间" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime;comment:更新时间" json:"updated_at"`

	// 关联关系
	User    User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Parent  *Comment  `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Replies []Comment `gorm:"foreignKey:ParentID" json:"replies,omitempty"`
}

func (Comment) TableName() string {
	return "comments"
}
