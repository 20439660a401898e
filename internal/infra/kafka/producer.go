package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kindboard-go/internal/config"
	"kindboard-go/pkg/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var producer *kafka.Writer

// IngestComment 同步进来的单条平台评论
// 平台抓取服务产出该结构，本服务只消费
type IngestComment struct {
	ExternalID       string  `json:"external_id"`
	ParentExternalID *string `json:"parent_external_id,omitempty"`
	VideoID          string  `json:"video_id"`
	VideoTitle       string  `json:"video_title"`
	VideoDescription string  `json:"video_description,omitempty"`
	Author           string  `json:"author"`
	AuthorAvatar     *string `json:"author_avatar,omitempty"`
	Text             string  `json:"text"`
	IsOwner          bool    `json:"is_owner"`
	ReplyCount       int64   `json:"reply_count"`
	PublishedAt      int64   `json:"published_at"` // unix秒
}

// IngestTask 一批待入库评论
type IngestTask struct {
	UserID   int64           `json:"user_id"`
	Platform string          `json:"platform"`
	Comments []IngestComment `json:"comments"`
}

// RewriteTask 批量重新生成善意改写的任务
// Force=false 时只补全尚未处理过的评论
type RewriteTask struct {
	UserID int64 `json:"user_id"`
	Force  bool  `json:"force"`
}

// InitProducer 初始化 Kafka 生产者
func InitProducer(cfg *config.KafkaConfig) error {
	producer = &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	logger.Info("Kafka producer initialized",
		zap.Strings("brokers", cfg.Brokers),
	)

	return nil
}

// SendRewriteTask 投递批量改写任务
func SendRewriteTask(ctx context.Context, topic string, task *RewriteTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal rewrite task: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(fmt.Sprintf("user-%d", task.UserID)),
		Value: payload,
	}

	if err := producer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to send rewrite task: %w", err)
	}

	logger.Info("Rewrite task sent",
		zap.Int64("user_id", task.UserID),
		zap.Bool("force", task.Force),
		zap.String("topic", topic),
	)

	return nil
}

// SendIngestTask 投递一批待入库评论（平台同步服务使用）
func SendIngestTask(ctx context.Context, topic string, task *IngestTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal ingest task: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(fmt.Sprintf("user-%d-%s", task.UserID, task.Platform)),
		Value: payload,
	}

	if err := producer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to send ingest task: %w", err)
	}

	return nil
}

// CloseProducer 关闭生产者
func CloseProducer() error {
	if producer == nil {
		return nil
	}
	logger.Info("Kafka producer closed")
	return producer.Close()
}
