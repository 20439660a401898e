package repository

import (
	"kindboard-go/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// UpsertBatch 按 (user_id, external_id, platform) 批量幂等写入
// 重复同步只刷新平台侧可变字段，不触碰 sentiment / empathic_text / feedback
func (r *CommentRepository) UpsertBatch(comments []model.Comment) error {
	if len(comments) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"}, {Name: "external_id"}, {Name: "platform"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"text", "author", "author_avatar", "video_id", "video_title",
			"reply_count", "published_at", "updated_at",
		}),
	}).CreateInBatches(comments, 100).Error
}

// UpdateEnrichment 写入情感标签与改写结果
// force=false 时只在 empathic_text 尚未填充时生效（填充至多一次的约束），
// force=true 用于显式的批量重新生成
func (r *CommentRepository) UpdateEnrichment(commentID, userID int64, sentiment, empathicText string, force bool) error {
	query := r.db.Model(&model.Comment{}).
		Where("id = ? AND user_id = ?", commentID, userID)
	if !force {
		query = query.Where("empathic_text IS NULL")
	}
	return query.Updates(map[string]interface{}{
		"sentiment":     sentiment,
		"empathic_text": empathicText,
	}).Error
}

// SetFeedback 记录终端用户对改写的反馈
func (r *CommentRepository) SetFeedback(commentID, userID int64, feedback string) error {
	result := r.db.Model(&model.Comment{}).
		Where("id = ? AND user_id = ?", commentID, userID).
		Update("feedback", feedback)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List 获取用户的评论列表（可按情感/平台过滤）
func (r *CommentRepository) List(userID int64, sentiment, platform *string, skip, limit int) ([]model.Comment, int64, error) {
	query := r.db.Model(&model.Comment{}).Where("user_id = ?", userID)
	if sentiment != nil {
		query = query.Where("sentiment = ?", *sentiment)
	}
	if platform != nil {
		query = query.Where("platform = ?", *platform)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []model.Comment
	err := query.Order("published_at DESC").
		Offset(skip).Limit(limit).Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}

	return comments, total, nil
}

// ListByVideo 获取某个视频/帖子下的全部评论（构建回复树用）
func (r *CommentRepository) ListByVideo(userID int64, videoID string) ([]model.Comment, error) {
	var comments []model.Comment
	err := r.db.Where("user_id = ? AND video_id = ?", userID, videoID).
		Order("published_at ASC").Find(&comments).Error
	return comments, err
}

// ListUnprocessed 获取尚未做情感分析的评论（入库后的异步补全）
func (r *CommentRepository) ListUnprocessed(userID int64, limit int) ([]model.Comment, error) {
	var comments []model.Comment
	err := r.db.Where("user_id = ? AND sentiment IS NULL AND is_owner = false", userID).
		Order("id ASC").Limit(limit).Find(&comments).Error
	return comments, err
}

// ListRewritable 获取可参与批量重新生成的评论（排除创作者本人）
func (r *CommentRepository) ListRewritable(userID int64) ([]model.Comment, error) {
	var comments []model.Comment
	err := r.db.Where("user_id = ? AND is_owner = false", userID).
		Order("id ASC").Find(&comments).Error
	return comments, err
}

// ListAll 导出用全量列表
func (r *CommentRepository) ListAll(userID int64) ([]model.Comment, error) {
	var comments []model.Comment
	err := r.db.Where("user_id = ?", userID).
		Order("published_at DESC").Find(&comments).Error
	return comments, err
}

// MapExternalIDs 批量把平台侧评论ID映射为本地主键（入库后回填父子关系用）
func (r *CommentRepository) MapExternalIDs(userID int64, platform string, externalIDs []string) (map[string]int64, error) {
	if len(externalIDs) == 0 {
		return map[string]int64{}, nil
	}

	type row struct {
		ID         int64
		ExternalID string
	}
	var rows []row
	err := r.db.Model(&model.Comment{}).
		Select("id, external_id").
		Where("user_id = ? AND platform = ? AND external_id IN ?", userID, platform, externalIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		result[row.ExternalID] = row.ID
	}
	return result, nil
}

// SetParentID 回填评论的父评论主键
func (r *CommentRepository) SetParentID(commentID, userID, parentID int64) error {
	return r.db.Model(&model.Comment{}).
		Where("id = ? AND user_id = ?", commentID, userID).
		Update("parent_id", parentID).Error
}

// SearchDB 数据库侧的评论模糊搜索（ES 不可用时的降级路径）
// likePattern 需由调用方完成通配符转义
func (r *CommentRepository) SearchDB(userID int64, likePattern string, platform, sentiment *string, skip, limit int) ([]model.Comment, int64, error) {
	query := r.db.Model(&model.Comment{}).
		Where("user_id = ?", userID).
		Where("(text ILIKE ? OR empathic_text ILIKE ? OR video_title ILIKE ? OR author ILIKE ?)",
			likePattern, likePattern, likePattern, likePattern)
	if platform != nil {
		query = query.Where("platform = ?", *platform)
	}
	if sentiment != nil {
		query = query.Where("sentiment = ?", *sentiment)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []model.Comment
	err := query.Order("published_at DESC").
		Offset(skip).Limit(limit).Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}

	return comments, total, nil
}

// DeleteAll 清空用户的全部评论
func (r *CommentRepository) DeleteAll(userID int64) (int64, error) {
	result := r.db.Where("user_id = ?", userID).Delete(&model.Comment{})
	return result.RowsAffected, result.Error
}
