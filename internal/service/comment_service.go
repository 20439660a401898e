package service

import (
	"errors"

	"kindboard-go/internal/api/dto"
	"kindboard-go/internal/model"
	"kindboard-go/internal/repository"

	"gorm.io/gorm"
)

var (
	ErrCommentNotFound = errors.New("评论不存在")
	ErrInvalidFilter   = errors.New("过滤条件无效")
)

type CommentService struct {
	commentRepo *repository.CommentRepository
}

func NewCommentService(commentRepo *repository.CommentRepository) *CommentService {
	return &CommentService{commentRepo: commentRepo}
}

// List 获取评论列表（可按情感/平台过滤）
func (s *CommentService) List(userID int64, sentiment, platform string, page, pageSize int) (*dto.CommentListData, error) {
	var sentimentFilter, platformFilter *string
	if sentiment != "" {
		if !validSentiment(sentiment) {
			return nil, ErrInvalidFilter
		}
		sentimentFilter = &sentiment
	}
	if platform != "" {
		if platform != model.PlatformYouTube && platform != model.PlatformInstagram {
			return nil, ErrInvalidFilter
		}
		platformFilter = &platform
	}

	skip := (page - 1) * pageSize
	comments, total, err := s.commentRepo.List(userID, sentimentFilter, platformFilter, skip, pageSize)
	if err != nil {
		return nil, err
	}

	items := make([]dto.CommentInfo, 0, len(comments))
	for i := range comments {
		items = append(items, toCommentInfo(&comments[i]))
	}

	totalPages := (total + int64(pageSize) - 1) / int64(pageSize)
	return &dto.CommentListData{
		Comments:   items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Tree 构建某个视频/帖子下的回复树
// 两阶段算法：先按父ID建索引，再自顶向下组装；
// 自然数据不会成环，但防御性地跳过任何能回到自身的父引用
func (s *CommentService) Tree(userID int64, videoID string) ([]dto.CommentTreeNode, error) {
	comments, err := s.commentRepo.ListByVideo(userID, videoID)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*model.Comment, len(comments))
	for i := range comments {
		byID[comments[i].ID] = &comments[i]
	}

	children := make(map[int64][]*model.Comment)
	var roots []*model.Comment
	for i := range comments {
		c := &comments[i]
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		if _, ok := byID[*c.ParentID]; !ok || hasCycle(c, byID) {
			// 父评论不在本视频内或父引用成环，按顶层处理
			roots = append(roots, c)
			continue
		}
		children[*c.ParentID] = append(children[*c.ParentID], c)
	}

	var build func(c *model.Comment) dto.CommentTreeNode
	build = func(c *model.Comment) dto.CommentTreeNode {
		node := dto.CommentTreeNode{CommentInfo: toCommentInfo(c), Replies: []dto.CommentTreeNode{}}
		for _, child := range children[c.ID] {
			node.Replies = append(node.Replies, build(child))
		}
		return node
	}

	tree := make([]dto.CommentTreeNode, 0, len(roots))
	for _, root := range roots {
		tree = append(tree, build(root))
	}
	return tree, nil
}

// hasCycle 沿父链上溯，检查是否能回到起点
func hasCycle(start *model.Comment, byID map[int64]*model.Comment) bool {
	seen := map[int64]bool{start.ID: true}
	cur := start
	for cur.ParentID != nil {
		parent, ok := byID[*cur.ParentID]
		if !ok {
			return false
		}
		if seen[parent.ID] {
			return true
		}
		seen[parent.ID] = true
		cur = parent
	}
	return false
}

// SetFeedback 记录用户对改写结果的反馈
func (s *CommentService) SetFeedback(commentID, userID int64, feedback string) error {
	if feedback != model.FeedbackUp && feedback != model.FeedbackDown {
		return ErrInvalidFilter
	}
	if err := s.commentRepo.SetFeedback(commentID, userID, feedback); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return err
	}
	return nil
}

// DeleteAll 清空当前用户的全部评论
func (s *CommentService) DeleteAll(userID int64) (int64, error) {
	return s.commentRepo.DeleteAll(userID)
}

func validSentiment(s string) bool {
	switch s {
	case model.SentimentPositive, model.SentimentNegative, model.SentimentNeutral, model.SentimentConstructive:
		return true
	}
	return false
}

func toCommentInfo(c *model.Comment) dto.CommentInfo {
	return dto.CommentInfo{
		ID:           c.ID,
		ExternalID:   c.ExternalID,
		Platform:     c.Platform,
		VideoID:      c.VideoID,
		VideoTitle:   c.VideoTitle,
		Author:       c.Author,
		AuthorAvatar: c.AuthorAvatar,
		Text:         c.Text,
		EmpathicText: c.EmpathicText,
		Sentiment:    c.Sentiment,
		ParentID:     c.ParentID,
		ReplyCount:   c.ReplyCount,
		IsOwner:      c.IsOwner,
		Feedback:     c.Feedback,
		PublishedAt:  c.PublishedAt,
		CreatedAt:    c.CreatedAt,
	}
}
