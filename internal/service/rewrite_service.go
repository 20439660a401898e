package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kindboard-go/internal/api/dto"
	"kindboard-go/internal/config"
	infraes "kindboard-go/internal/infra/elasticsearch"
	"kindboard-go/internal/infra/kafka"
	infraredis "kindboard-go/internal/infra/redis"
	"kindboard-go/internal/model"
	"kindboard-go/internal/repository"
	"kindboard-go/internal/sentiment"
	"kindboard-go/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrRegenerateInProgress = errors.New("批量处理任务正在进行中")

const (
	progressKeyFmt = "rewrite:progress:%d"
	claimKeyFmt    = "rewrite:claim:%d"
	progressTTL    = time.Hour

	progressStatusIdle    = "idle"
	progressStatusQueued  = "queued"
	progressStatusRunning = "running"
	progressStatusDone    = "done"

	// 单次补全任务最多处理的未分析评论数
	unprocessedBatchLimit = 500
)

// RewriteService 情感分析与善意改写的调度层
// API 侧只负责投递任务和查询进度，真正的LLM调用在 worker 进程里执行
type RewriteService struct {
	commentRepo *repository.CommentRepository
	pipeline    *sentiment.Pipeline
}

func NewRewriteService(commentRepo *repository.CommentRepository, pipeline *sentiment.Pipeline) *RewriteService {
	return &RewriteService{commentRepo: commentRepo, pipeline: pipeline}
}

// EnqueueRegenerate 投递批量重新生成任务
// 同一用户同时只允许一个任务在队列中或运行中，
// 通过 SETNX 占位保证并发请求只有一个能抢到
func (s *RewriteService) EnqueueRegenerate(ctx context.Context, userID int64, force bool) error {
	claimed, err := s.claimJob(ctx, userID)
	if err != nil {
		return err
	}
	if !claimed {
		return ErrRegenerateInProgress
	}

	if err := s.setProgress(ctx, userID, &dto.RegenerateProgress{Status: progressStatusQueued}); err != nil {
		s.releaseJob(ctx, userID)
		return err
	}

	topic := config.GetKafka().Topics["rewrite"]
	task := &kafka.RewriteTask{UserID: userID, Force: force}
	if err := kafka.SendRewriteTask(ctx, topic, task); err != nil {
		// 投递失败则回收占位和进度标记，允许用户重试
		s.releaseJob(ctx, userID)
		s.clearProgress(ctx, userID)
		return err
	}

	return nil
}

// claimJob 以 SETNX 原子抢占该用户的批量任务名额
// TTL 兜底：worker 崩溃没来得及释放时名额最终会过期
func (s *RewriteService) claimJob(ctx context.Context, userID int64) (bool, error) {
	key := fmt.Sprintf(claimKeyFmt, userID)
	return infraredis.Get().SetNX(ctx, key, 1, progressTTL).Result()
}

// releaseJob 释放任务名额
func (s *RewriteService) releaseJob(ctx context.Context, userID int64) {
	key := fmt.Sprintf(claimKeyFmt, userID)
	if err := infraredis.Get().Del(ctx, key).Err(); err != nil {
		logger.Warn("Failed to release rewrite claim", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// Progress 查询批量处理进度，无任务时返回 idle
func (s *RewriteService) Progress(ctx context.Context, userID int64) (*dto.RegenerateProgress, error) {
	key := fmt.Sprintf(progressKeyFmt, userID)
	raw, err := infraredis.Get().Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &dto.RegenerateProgress{Status: progressStatusIdle}, nil
		}
		return nil, err
	}

	var progress dto.RegenerateProgress
	if err := json.Unmarshal([]byte(raw), &progress); err != nil {
		return nil, err
	}
	return &progress, nil
}

// HandleRewriteTask 执行批量改写任务（worker 消费）
// force=true 时重新处理全部评论，否则只补全尚未分析过的
func (s *RewriteService) HandleRewriteTask(ctx context.Context, payload []byte) error {
	var task kafka.RewriteTask
	if err := json.Unmarshal(payload, &task); err != nil {
		logger.Error("Invalid rewrite task payload", zap.Error(err))
		return nil // 坏消息不重试
	}
	defer s.releaseJob(ctx, task.UserID)

	var (
		comments []model.Comment
		err      error
	)
	if task.Force {
		comments, err = s.commentRepo.ListRewritable(task.UserID)
	} else {
		comments, err = s.commentRepo.ListUnprocessed(task.UserID, unprocessedBatchLimit)
	}
	if err != nil {
		return err
	}

	total := len(comments)
	if err := s.setProgress(ctx, task.UserID, &dto.RegenerateProgress{
		Status: progressStatusRunning, Total: total,
	}); err != nil {
		logger.Warn("Failed to set rewrite progress", zap.Int64("user_id", task.UserID), zap.Error(err))
	}

	items := make([]sentiment.Item, 0, total)
	for i := range comments {
		items = append(items, sentiment.Item{
			ID:         comments[i].ID,
			Text:       comments[i].Text,
			VideoTitle: comments[i].VideoTitle,
			IsOwner:    comments[i].IsOwner,
		})
	}

	results := s.pipeline.Process(ctx, items, func(done, total int) {
		_ = s.setProgress(ctx, task.UserID, &dto.RegenerateProgress{
			Status: progressStatusRunning, Done: done, Total: total,
		})
	})

	for i := range results {
		res := &results[i]
		if res.Sentiment == "" {
			continue // 创作者本人的评论不落情感字段
		}
		if err := s.commentRepo.UpdateEnrichment(res.ID, task.UserID, res.Sentiment, res.EmpathicText, task.Force); err != nil {
			logger.Error("Failed to persist enrichment",
				zap.Int64("comment_id", res.ID),
				zap.Error(err),
			)
			continue
		}
		s.indexComment(ctx, &comments[i], res)
	}

	if err := s.setProgress(ctx, task.UserID, &dto.RegenerateProgress{
		Status: progressStatusDone, Done: total, Total: total,
	}); err != nil {
		logger.Warn("Failed to set rewrite progress", zap.Int64("user_id", task.UserID), zap.Error(err))
	}

	logger.Info("Rewrite task completed",
		zap.Int64("user_id", task.UserID),
		zap.Bool("force", task.Force),
		zap.Int("count", total),
	)

	return nil
}

// HandleIngestTask 执行评论入库任务（worker 消费）
// 清洗、分类、改写后幂等写入，再回填父子关系并同步搜索索引
func (s *RewriteService) HandleIngestTask(ctx context.Context, payload []byte) error {
	var task kafka.IngestTask
	if err := json.Unmarshal(payload, &task); err != nil {
		logger.Error("Invalid ingest task payload", zap.Error(err))
		return nil
	}
	if len(task.Comments) == 0 {
		return nil
	}

	items := make([]sentiment.Item, 0, len(task.Comments))
	for i := range task.Comments {
		items = append(items, sentiment.Item{
			ID:               int64(i),
			Text:             task.Comments[i].Text,
			VideoTitle:       task.Comments[i].VideoTitle,
			VideoDescription: task.Comments[i].VideoDescription,
			IsOwner:          task.Comments[i].IsOwner,
		})
	}
	results := s.pipeline.Process(ctx, items, nil)

	comments := make([]model.Comment, 0, len(task.Comments))
	for i := range task.Comments {
		in := &task.Comments[i]
		res := &results[i]

		comment := model.Comment{
			UserID:       task.UserID,
			ExternalID:   in.ExternalID,
			Platform:     task.Platform,
			VideoID:      in.VideoID,
			VideoTitle:   in.VideoTitle,
			Author:       in.Author,
			AuthorAvatar: in.AuthorAvatar,
			Text:         res.Text,
			IsOwner:      in.IsOwner,
			ReplyCount:   in.ReplyCount,
			PublishedAt:  time.Unix(in.PublishedAt, 0),
		}
		if res.Sentiment != "" {
			sentimentValue := res.Sentiment
			empathic := res.EmpathicText
			comment.Sentiment = &sentimentValue
			comment.EmpathicText = &empathic
		}
		comments = append(comments, comment)
	}

	if err := s.commentRepo.UpsertBatch(comments); err != nil {
		return err
	}

	s.linkParents(task.UserID, task.Platform, task.Comments)

	// 同步搜索索引，失败不影响主流程
	if infraes.Enabled() {
		externalIDs := make([]string, 0, len(comments))
		for i := range comments {
			externalIDs = append(externalIDs, comments[i].ExternalID)
		}
		idMap, err := s.commentRepo.MapExternalIDs(task.UserID, task.Platform, externalIDs)
		if err != nil {
			logger.Warn("Failed to map comment ids for indexing", zap.Error(err))
			return nil
		}
		for i := range comments {
			comments[i].ID = idMap[comments[i].ExternalID]
			if comments[i].ID == 0 {
				continue
			}
			if err := infraes.IndexComment(ctx, &comments[i]); err != nil {
				logger.Warn("Failed to index comment",
					zap.Int64("comment_id", comments[i].ID),
					zap.Error(err),
				)
			}
		}
	}

	logger.Info("Ingest task completed",
		zap.Int64("user_id", task.UserID),
		zap.String("platform", task.Platform),
		zap.Int("count", len(comments)),
	)

	return nil
}

// linkParents 把平台侧的父评论ID解析成本地主键
func (s *RewriteService) linkParents(userID int64, platform string, incoming []kafka.IngestComment) {
	externalIDs := make([]string, 0, len(incoming)*2)
	for i := range incoming {
		externalIDs = append(externalIDs, incoming[i].ExternalID)
		if incoming[i].ParentExternalID != nil {
			externalIDs = append(externalIDs, *incoming[i].ParentExternalID)
		}
	}

	idMap, err := s.commentRepo.MapExternalIDs(userID, platform, externalIDs)
	if err != nil {
		logger.Warn("Failed to resolve parent comments", zap.Error(err))
		return
	}

	for i := range incoming {
		if incoming[i].ParentExternalID == nil {
			continue
		}
		childID := idMap[incoming[i].ExternalID]
		parentID := idMap[*incoming[i].ParentExternalID]
		if childID == 0 || parentID == 0 {
			continue // 父评论不在本批也不在库里，保持顶层
		}
		if err := s.commentRepo.SetParentID(childID, userID, parentID); err != nil {
			logger.Warn("Failed to link parent comment",
				zap.Int64("comment_id", childID),
				zap.Error(err),
			)
		}
	}
}

func (s *RewriteService) indexComment(ctx context.Context, comment *model.Comment, res *sentiment.Result) {
	if !infraes.Enabled() {
		return
	}
	sentimentValue := res.Sentiment
	empathic := res.EmpathicText
	comment.Sentiment = &sentimentValue
	comment.EmpathicText = &empathic
	if err := infraes.IndexComment(ctx, comment); err != nil {
		logger.Warn("Failed to index comment",
			zap.Int64("comment_id", comment.ID),
			zap.Error(err),
		)
	}
}

func (s *RewriteService) setProgress(ctx context.Context, userID int64, progress *dto.RegenerateProgress) error {
	payload, err := json.Marshal(progress)
	if err != nil {
		return err
	}
	key := fmt.Sprintf(progressKeyFmt, userID)
	return infraredis.Get().Set(ctx, key, payload, progressTTL).Err()
}

func (s *RewriteService) clearProgress(ctx context.Context, userID int64) {
	key := fmt.Sprintf(progressKeyFmt, userID)
	if err := infraredis.Get().Del(ctx, key).Err(); err != nil {
		logger.Warn("Failed to clear rewrite progress", zap.Int64("user_id", userID), zap.Error(err))
	}
}
