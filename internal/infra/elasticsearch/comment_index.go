package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"kindboard-go/internal/config"
	"kindboard-go/internal/model"
	"kindboard-go/pkg/logger"

	"go.uber.org/zap"
)

// DefaultCommentIndex 评论索引默认名称
const DefaultCommentIndex = "comments"

// ESCommentDoc ES 评论文档结构
type ESCommentDoc struct {
	ID           int64  `json:"id"`
	UserID       int64  `json:"user_id"`
	Platform     string `json:"platform"`
	VideoID      string `json:"video_id"`
	VideoTitle   string `json:"video_title"`
	Author       string `json:"author"`
	Text         string `json:"text"`
	EmpathicText string `json:"empathic_text"`
	Sentiment    string `json:"sentiment"`
	PublishedAt  int64  `json:"published_at"`
	CreatedAt    string `json:"created_at"`
}

const commentIndexMapping = `{
  "mappings": {
    "properties": {
      "id":            {"type": "long"},
      "user_id":       {"type": "long"},
      "platform":      {"type": "keyword"},
      "video_id":      {"type": "keyword"},
      "video_title":   {"type": "text"},
      "author":        {"type": "keyword"},
      "text":          {"type": "text"},
      "empathic_text": {"type": "text"},
      "sentiment":     {"type": "keyword"},
      "published_at":  {"type": "long"},
      "created_at":    {"type": "date"}
    }
  }
}`

// CommentIndexName 返回配置的评论索引名
func CommentIndexName() string {
	cfg := config.GetElasticsearch()
	if name := cfg.Index["comments"]; name != "" {
		return name
	}
	return DefaultCommentIndex
}

// InitIndexes 确保评论索引存在
func InitIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	index := CommentIndexName()
	exists, err := IndicesExists(ctx, index)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	resp, err := IndicesCreate(ctx, index, bytes.NewReader([]byte(commentIndexMapping)))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return fmt.Errorf("create comment index failed: %s", resp.String())
	}

	logger.Info("Elasticsearch comment index created", zap.String("index", index))
	return nil
}

// IndexComment 同步一条评论到 ES（尽力而为，失败只记日志）
func IndexComment(ctx context.Context, c *model.Comment) error {
	doc := commentToESDoc(c)
	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	resp, err := Index(ctx, CommentIndexName(), strconv.FormatInt(c.ID, 10), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return fmt.Errorf("index comment %d failed: %s", c.ID, resp.String())
	}
	return nil
}

func commentToESDoc(c *model.Comment) *ESCommentDoc {
	doc := &ESCommentDoc{
		ID:          c.ID,
		UserID:      c.UserID,
		Platform:    c.Platform,
		VideoID:     c.VideoID,
		VideoTitle:  c.VideoTitle,
		Author:      c.Author,
		Text:        c.Text,
		PublishedAt: c.PublishedAt.Unix(),
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
	}
	if c.EmpathicText != nil {
		doc.EmpathicText = *c.EmpathicText
	}
	if c.Sentiment != nil {
		doc.Sentiment = *c.Sentiment
	}
	return doc
}
