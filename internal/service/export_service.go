package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"kindboard-go/internal/api/dto"
	"kindboard-go/internal/infra/minio"
	"kindboard-go/internal/model"
	"kindboard-go/internal/repository"
	"kindboard-go/pkg/logger"

	"go.uber.org/zap"
)

const (
	exportBucket = "kindboard-exports"
	exportExpiry = 24 * time.Hour
)

// ExportService 评论导出
// 生成 CSV 上传到对象存储，返回限时的预签名下载链接
type ExportService struct {
	commentRepo *repository.CommentRepository
}

func NewExportService(commentRepo *repository.CommentRepository) *ExportService {
	return &ExportService{commentRepo: commentRepo}
}

// Export 导出当前用户的全部评论
func (s *ExportService) Export(ctx context.Context, userID int64) (*dto.ExportData, error) {
	comments, err := s.commentRepo.ListAll(userID)
	if err != nil {
		return nil, err
	}

	payload, err := buildCSV(comments)
	if err != nil {
		return nil, err
	}

	objectName := fmt.Sprintf("exports/%d/comments_%s.csv", userID, time.Now().Format("20060102_150405"))
	if _, err := minio.UploadFile(ctx, exportBucket, objectName, bytes.NewReader(payload), int64(len(payload)), "text/csv"); err != nil {
		return nil, err
	}

	url, err := minio.GetPresignedURL(ctx, exportBucket, objectName, exportExpiry)
	if err != nil {
		return nil, err
	}

	logger.Info("Comments exported",
		zap.Int64("user_id", userID),
		zap.Int("count", len(comments)),
		zap.String("object", objectName),
	)

	return &dto.ExportData{
		URL:       url,
		ExpiresAt: time.Now().Add(exportExpiry),
	}, nil
}

func buildCSV(comments []model.Comment) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"id", "platform", "video_id", "video_title", "author",
		"text", "empathic_text", "sentiment", "feedback",
		"is_owner", "reply_count", "published_at",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for i := range comments {
		c := &comments[i]
		row := []string{
			strconv.FormatInt(c.ID, 10),
			c.Platform,
			c.VideoID,
			c.VideoTitle,
			c.Author,
			c.Text,
			derefOrEmpty(c.EmpathicText),
			derefOrEmpty(c.Sentiment),
			derefOrEmpty(c.Feedback),
			strconv.FormatBool(c.IsOwner),
			strconv.FormatInt(c.ReplyCount, 10),
			c.PublishedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
