package kafka

import (
	"context"
	"time"

	"kindboard-go/pkg/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageHandler 处理一条消息的回调，返回错误只记录日志不重试
type MessageHandler func(value []byte) error

// StartConsumer 启动一个消费循环（阻塞，需在 goroutine 中运行）
// ctx 取消后自动停止
func StartConsumer(ctx context.Context, brokers []string, topic, groupID string, handler MessageHandler) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})

	defer func() {
		if err := reader.Close(); err != nil {
			logger.Error("Failed to close kafka consumer", zap.Error(err))
		}
		logger.Info("Kafka consumer stopped", zap.String("topic", topic))
	}()

	logger.Info("Kafka consumer started",
		zap.String("topic", topic),
		zap.String("group", groupID),
	)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("Failed to read kafka message", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		if err := handler(msg.Value); err != nil {
			logger.Error("Failed to handle kafka message",
				zap.String("topic", topic),
				zap.Error(err),
			)
		}
	}
}
