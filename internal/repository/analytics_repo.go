package repository

import (
	"context"

	"kindboard-go/internal/analytics"
	"kindboard-go/internal/model"

	"gorm.io/gorm"
)

// AnalyticsRepository 基于 gorm 实现 analytics.Store
// 所有查询强制带 user_id 条件，关键词/标题进来前已由模板层转义
type AnalyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// 编译期校验接口实现
var _ analytics.Store = (*AnalyticsRepository)(nil)

func (r *AnalyticsRepository) TopCommenters(ctx context.Context, userID int64, limit int) ([]analytics.CommenterStat, error) {
	var stats []analytics.CommenterStat
	err := r.db.WithContext(ctx).Model(&model.Comment{}).
		Select("author, COUNT(*) AS count").
		Where("user_id = ? AND is_owner = false", userID).
		Group("author").
		Order("count DESC").
		Limit(limit).
		Scan(&stats).Error
	return stats, err
}

func (r *AnalyticsRepository) PopularVideos(ctx context.Context, userID int64, limit int) ([]analytics.VideoStat, error) {
	var stats []analytics.VideoStat
	err := r.db.WithContext(ctx).Model(&model.Comment{}).
		Select("video_title, video_id, platform, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("video_title, video_id, platform").
		Order("count DESC").
		Limit(limit).
		Scan(&stats).Error
	return stats, err
}

func (r *AnalyticsRepository) SearchComments(ctx context.Context, userID int64, likePattern string, limit int) ([]model.Comment, error) {
	var comments []model.Comment
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND text ILIKE ?", userID, likePattern).
		Order("published_at DESC").
		Limit(limit).
		Find(&comments).Error
	return comments, err
}

func (r *AnalyticsRepository) SentimentBreakdown(ctx context.Context, userID int64) ([]analytics.SentimentStat, error) {
	var stats []analytics.SentimentStat
	err := r.db.WithContext(ctx).Model(&model.Comment{}).
		Select("sentiment, COUNT(*) AS count").
		Where("user_id = ? AND sentiment IS NOT NULL", userID).
		Group("sentiment").
		Order("count DESC").
		Scan(&stats).Error
	return stats, err
}

func (r *AnalyticsRepository) CommentsBySentiment(ctx context.Context, userID int64, sentiment string, startDate, endDate *string, limit int) ([]model.Comment, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ? AND sentiment = ?", userID, sentiment)
	if startDate != nil {
		query = query.Where("DATE(published_at) >= ?", *startDate)
	}
	if endDate != nil {
		query = query.Where("DATE(published_at) <= ?", *endDate)
	}

	var comments []model.Comment
	err := query.Order("published_at DESC").Limit(limit).Find(&comments).Error
	return comments, err
}

func (r *AnalyticsRepository) RecentComments(ctx context.Context, userID int64, limit int) ([]model.Comment, error) {
	var comments []model.Comment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("published_at DESC").
		Limit(limit).
		Find(&comments).Error
	return comments, err
}

func (r *AnalyticsRepository) CommentsByVideo(ctx context.Context, userID int64, videoID, titlePattern *string, limit int) ([]model.Comment, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	switch {
	case videoID != nil:
		query = query.Where("video_id = ?", *videoID)
	case titlePattern != nil:
		query = query.Where("video_title ILIKE ?", *titlePattern)
	default:
		// 既没有视频ID也没有标题时不做无界查询
		return []model.Comment{}, nil
	}

	var comments []model.Comment
	err := query.Order("published_at DESC").Limit(limit).Find(&comments).Error
	return comments, err
}

// VolumeOverTime 按周/月聚合评论量
// period 只可能是 week/month（模板层枚举保证），不存在自由文本进入 date_trunc
func (r *AnalyticsRepository) VolumeOverTime(ctx context.Context, userID int64, period string) ([]analytics.VolumeBucket, error) {
	var buckets []analytics.VolumeBucket
	err := r.db.WithContext(ctx).Model(&model.Comment{}).
		Select("to_char(date_trunc(?, published_at), 'YYYY-MM-DD') AS bucket, COUNT(*) AS count", period).
		Where("user_id = ?", userID).
		Group("bucket").
		Order("bucket ASC").
		Scan(&buckets).Error
	return buckets, err
}

func (r *AnalyticsRepository) TopLevelByReplies(ctx context.Context, userID int64, limit int) ([]model.Comment, error) {
	var comments []model.Comment
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND parent_id IS NULL", userID).
		Order("reply_count DESC").
		Limit(limit).
		Find(&comments).Error
	return comments, err
}

func (r *AnalyticsRepository) FeedbackStats(ctx context.Context, userID int64) ([]analytics.FeedbackStat, error) {
	var stats []analytics.FeedbackStat
	err := r.db.WithContext(ctx).Model(&model.Comment{}).
		Select("feedback, COUNT(*) AS count").
		Where("user_id = ? AND feedback IS NOT NULL", userID).
		Group("feedback").
		Scan(&stats).Error
	return stats, err
}

func (r *AnalyticsRepository) PlatformCounts(ctx context.Context, userID int64) ([]analytics.PlatformStat, error) {
	var stats []analytics.PlatformStat
	err := r.db.WithContext(ctx).Model(&model.Comment{}).
		Select("platform, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("platform").
		Scan(&stats).Error
	return stats, err
}

func (r *AnalyticsRepository) PlatformSentiment(ctx context.Context, userID int64) ([]analytics.PlatformSentimentStat, error) {
	var stats []analytics.PlatformSentimentStat
	err := r.db.WithContext(ctx).Model(&model.Comment{}).
		Select("platform, sentiment, COUNT(*) AS count").
		Where("user_id = ? AND sentiment IS NOT NULL", userID).
		Group("platform, sentiment").
		Scan(&stats).Error
	return stats, err
}

func (r *AnalyticsRepository) TransformedComments(ctx context.Context, userID int64, limit int) ([]model.Comment, error) {
	var comments []model.Comment
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND empathic_text IS NOT NULL AND empathic_text <> text", userID).
		Order("published_at DESC").
		Limit(limit).
		Find(&comments).Error
	return comments, err
}

func (r *AnalyticsRepository) CountComments(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
