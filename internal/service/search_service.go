package service

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"kindboard-go/internal/analytics"
	"kindboard-go/internal/api/dto"
	infraes "kindboard-go/internal/infra/elasticsearch"
	"kindboard-go/internal/repository"
	"kindboard-go/pkg/logger"

	"go.uber.org/zap"
)

// SearchService 评论全文搜索
// 优先走 Elasticsearch，ES 不可用或查询失败时降级为数据库 ILIKE
type SearchService struct {
	commentRepo *repository.CommentRepository
}

func NewSearchService(commentRepo *repository.CommentRepository) *SearchService {
	return &SearchService{commentRepo: commentRepo}
}

// Search 搜索当前用户的评论
func (s *SearchService) Search(ctx context.Context, userID int64, req *dto.SearchCommentRequest) (*dto.SearchCommentData, error) {
	page, pageSize := normalizePage(req.Page, req.PageSize)

	if infraes.Enabled() {
		data, err := s.searchES(ctx, userID, req, page, pageSize)
		if err == nil {
			return data, nil
		}
		logger.Warn("ES search failed, falling back to database",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}

	return s.searchDB(userID, req, page, pageSize)
}

// esHit ES 搜索命中条目
type esHit struct {
	Source    infraes.ESCommentDoc `json:"_source"`
	Highlight map[string][]string  `json:"highlight"`
}

type esSearchResult struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []esHit `json:"hits"`
	} `json:"hits"`
}

func (s *SearchService) searchES(ctx context.Context, userID int64, req *dto.SearchCommentRequest, page, pageSize int) (*dto.SearchCommentData, error) {
	filters := []map[string]interface{}{
		{"term": map[string]interface{}{"user_id": userID}},
	}
	if req.Platform != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"platform": req.Platform},
		})
	}
	if req.Sentiment != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"sentiment": req.Sentiment},
		})
	}

	query := map[string]interface{}{
		"from": (page - 1) * pageSize,
		"size": pageSize,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": filters,
				"must": []map[string]interface{}{
					{
						"multi_match": map[string]interface{}{
							"query":  req.Q,
							"fields": []string{"text^2", "empathic_text", "video_title", "author"},
						},
					},
				},
			},
		},
		"highlight": map[string]interface{}{
			"fields": map[string]interface{}{
				"text":          map[string]interface{}{},
				"empathic_text": map[string]interface{}{},
			},
		},
	}

	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	resp, err := infraes.Search(ctx, infraes.CommentIndexName(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return nil, &esQueryError{status: resp.Status()}
	}

	var result esSearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	items := make([]dto.SearchCommentInfo, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		items = append(items, esHitToInfo(&hit))
	}

	total := result.Hits.Total.Value
	return &dto.SearchCommentData{
		Comments:   items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + int64(pageSize) - 1) / int64(pageSize),
	}, nil
}

func (s *SearchService) searchDB(userID int64, req *dto.SearchCommentRequest, page, pageSize int) (*dto.SearchCommentData, error) {
	pattern := "%" + analytics.EscapeLikePattern(req.Q) + "%"

	var platform, sentimentFilter *string
	if req.Platform != "" {
		platform = &req.Platform
	}
	if req.Sentiment != "" {
		sentimentFilter = &req.Sentiment
	}

	skip := (page - 1) * pageSize
	comments, total, err := s.commentRepo.SearchDB(userID, pattern, platform, sentimentFilter, skip, pageSize)
	if err != nil {
		return nil, err
	}

	items := make([]dto.SearchCommentInfo, 0, len(comments))
	for i := range comments {
		items = append(items, dto.SearchCommentInfo{CommentInfo: toCommentInfo(&comments[i])})
	}

	return &dto.SearchCommentData{
		Comments:   items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + int64(pageSize) - 1) / int64(pageSize),
	}, nil
}

func esHitToInfo(hit *esHit) dto.SearchCommentInfo {
	doc := &hit.Source
	info := dto.SearchCommentInfo{
		CommentInfo: dto.CommentInfo{
			ID:          doc.ID,
			Platform:    doc.Platform,
			VideoID:     doc.VideoID,
			VideoTitle:  doc.VideoTitle,
			Author:      doc.Author,
			Text:        doc.Text,
			PublishedAt: time.Unix(doc.PublishedAt, 0),
		},
		Highlight: hit.Highlight,
	}
	if doc.EmpathicText != "" {
		empathic := doc.EmpathicText
		info.EmpathicText = &empathic
	}
	if doc.Sentiment != "" {
		sentimentValue := doc.Sentiment
		info.Sentiment = &sentimentValue
	}
	if created, err := time.Parse(time.RFC3339, doc.CreatedAt); err == nil {
		info.CreatedAt = created
	}
	return info
}

type esQueryError struct {
	status string
}

func (e *esQueryError) Error() string {
	return "elasticsearch query failed: " + e.status
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
