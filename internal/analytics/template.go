package analytics

import (
	"context"
	"sync"

	"kindboard-go/internal/model"
)

// TemplateID 查询模板标识，固定枚举，不接受自由文本
type TemplateID string

const (
	TemplateTopCommenters         TemplateID = "top_commenters"
	TemplateMostPopularVideos     TemplateID = "most_popular_videos"
	TemplateSearchComments        TemplateID = "search_comments"
	TemplateSentimentBreakdown    TemplateID = "sentiment_breakdown"
	TemplateNegativeComments      TemplateID = "negative_comments"
	TemplatePositiveComments      TemplateID = "positive_comments"
	TemplateConstructiveComments  TemplateID = "constructive_comments"
	TemplateRecentComments        TemplateID = "recent_comments"
	TemplateCommentsByVideo       TemplateID = "comments_by_video"
	TemplateCommentVolumeOverTime TemplateID = "comment_volume_over_time"
	TemplateReplyAnalysis         TemplateID = "reply_analysis"
	TemplateFeedbackStats         TemplateID = "feedback_stats"
	TemplatePlatformComparison    TemplateID = "platform_comparison"
	TemplateTransformedVsOriginal TemplateID = "transformed_vs_original"
	TemplateComprehensive         TemplateID = "comprehensive_analysis"
)

// 时间粒度枚举，保证进入 date_trunc 的粒度绝不可能是自由文本
const (
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// CommenterStat 评论者排行条目
type CommenterStat struct {
	Author string `json:"author"`
	Count  int64  `json:"count"`
}

// VideoStat 视频评论量排行条目
// 按 (标题, 外部视频ID, 平台) 分组，避免同名视频被合并
type VideoStat struct {
	VideoTitle string `json:"video_title"`
	VideoID    string `json:"video_id"`
	Platform   string `json:"platform"`
	Count      int64  `json:"count"`
}

// SentimentStat 情感分布条目
type SentimentStat struct {
	Sentiment string `json:"sentiment"`
	Count     int64  `json:"count"`
}

// VolumeBucket 按周/月聚合的评论量
type VolumeBucket struct {
	Bucket string `json:"bucket"`
	Count  int64  `json:"count"`
}

// FeedbackStat 改写反馈统计条目
type FeedbackStat struct {
	Feedback string `json:"feedback"`
	Count    int64  `json:"count"`
}

// PlatformStat 平台评论量条目
type PlatformStat struct {
	Platform string `json:"platform"`
	Count    int64  `json:"count"`
}

// PlatformSentimentStat 平台×情感分布条目
type PlatformSentimentStat struct {
	Platform  string `json:"platform"`
	Sentiment string `json:"sentiment"`
	Count     int64  `json:"count"`
}

// PlatformComparison 平台对比结果
type PlatformComparison struct {
	Counts    []PlatformStat          `json:"counts"`
	Sentiment []PlatformSentimentStat `json:"sentiment"`
}

// ComprehensiveReport 固定组合的全量报告
type ComprehensiveReport struct {
	SentimentBreakdown []SentimentStat `json:"sentiment_breakdown"`
	TopVideos          []VideoStat     `json:"top_videos"`
	RecentNegative     []model.Comment `json:"recent_negative"`
	TopCommenters      []CommenterStat `json:"top_commenters"`
	TotalComments      int64           `json:"total_comments"`
}

// Store 评论存储的查询抽象，所有方法都以 userID 限定范围
// 由 repository.AnalyticsRepository 基于 gorm 实现
type Store interface {
	TopCommenters(ctx context.Context, userID int64, limit int) ([]CommenterStat, error)
	PopularVideos(ctx context.Context, userID int64, limit int) ([]VideoStat, error)
	SearchComments(ctx context.Context, userID int64, likePattern string, limit int) ([]model.Comment, error)
	SentimentBreakdown(ctx context.Context, userID int64) ([]SentimentStat, error)
	CommentsBySentiment(ctx context.Context, userID int64, sentiment string, startDate, endDate *string, limit int) ([]model.Comment, error)
	RecentComments(ctx context.Context, userID int64, limit int) ([]model.Comment, error)
	CommentsByVideo(ctx context.Context, userID int64, videoID, titlePattern *string, limit int) ([]model.Comment, error)
	VolumeOverTime(ctx context.Context, userID int64, period string) ([]VolumeBucket, error)
	TopLevelByReplies(ctx context.Context, userID int64, limit int) ([]model.Comment, error)
	FeedbackStats(ctx context.Context, userID int64) ([]FeedbackStat, error)
	PlatformCounts(ctx context.Context, userID int64) ([]PlatformStat, error)
	PlatformSentiment(ctx context.Context, userID int64) ([]PlatformSentimentStat, error)
	TransformedComments(ctx context.Context, userID int64, limit int) ([]model.Comment, error)
	CountComments(ctx context.Context, userID int64) (int64, error)
}

// Template 一个已注册的查询模板
type Template struct {
	ID          TemplateID
	Description string
	Execute     func(ctx context.Context, userID int64, p QueryParams) (interface{}, error)
}

// Registry 模板注册表，进程启动时构建一次
type Registry struct {
	store     Store
	templates map[TemplateID]Template
	order     []TemplateID
}

// NewRegistry 注册全部查询模板
func NewRegistry(store Store) *Registry {
	r := &Registry{
		store:     store,
		templates: make(map[TemplateID]Template),
	}

	r.register(TemplateTopCommenters, "按评论数排名最活跃的评论者（不含创作者本人），参数: limit",
		func(ctx context.Context, userID int64, p QueryParams) (interface{}, error) {
			return store.TopCommenters(ctx, userID, limitOrDefault(p.Limit, 10))
		})

	r.register(TemplateMostPopularVideos, "按评论数排名最热门的视频/帖子，参数: limit",
		func(ctx context.Context, userID int64, p QueryParams) (interface{}, error) {
			return store.PopularVideos(ctx, userID, limitOrDefault(p.Limit, 10))
		})

	r.register(TemplateSearchComments, "按关键词在评论内容中做不区分大小写的子串搜索，参数: keyword, limit",
		func(ctx context.Context, userID int64, p QueryParams) (interface{}, error) {
			// 关键词缺省时不做全表扫描，直接返回空集
			if p.Keyword == nil {
				return []model.Comment{}, nil
			}
			pattern := "%" + EscapeLikePattern(*p.Keyword) + "%"
			return store.SearchComments(ctx, userID, pattern, limitOrDefault(p.Limit, 20))
		})

	r.register(TemplateSentimentBreakdown, "按情感标签统计评论数量分布",
		func(ctx context.Context, userID int64, p QueryParams) (interface{}, error) {
			return store.SentimentBreakdown(ctx, userID)
		})

	r.register(TemplateNegativeComments, "列出负面评论，可按日期区间过滤，参数: start_date, end_date, limit",
		func(ctx context.Context, userID int64, p QueryParams) (interface{}, error) {
			return store.CommentsBySentiment(ctx, userID, model.SentimentNegative, p.StartDate, p.EndDate, limitOrDefault(p.Limit, 20))
		})

	r.register(TemplatePositiveComments, "列出正面评论，参数: limit",
		func(ctx context.Context, userID int64, p QueryParams) (interface{}, error) {
			return store.CommentsBySentiment(ctx, userID, model.SentimentPositive, nil, nil, limitOrDefault(p.Limit, 20))
		})

	r.register(TemplateConstructiveComments, "列出建设性评论，参数: limit",
		func(ctx context.Context, userID int64, p QueryParams) (interface{}, error) {
			return store.CommentsBySentiment(ctx, userID, model.SentimentConstructive, nil, nil, limitOrDefault(p.Limit, 20))
		})

	r.register(TemplateRecentComments, "列出最新评论，参数: limit",
		func(ctx context.Context, userID int64, p QueryParams) (interface{}, error) {
			return store.RecentComments(ctx, userID, limitOrDefault(p.Limit, 20))
		})

	r.register(TemplateCommentsByVideo, "列出某个视频/帖子下的评论，优先精确匹配视频ID，其次按标题模糊匹配，参数: video_id, video_title, limit",
		func(ctx context.Context, userID int64, p QueryParams) (interface{}, error) {
			var titlePattern *string
			if p.VideoID == nil && p.VideoTitle != nil {
				t := "%" + EscapeLikePattern(*p.VideoTitle) + "%"
				titlePattern = &t
			}
			return store.CommentsByVideo(ctx, userID, p.VideoID, titlePattern, limitOrDefault(p.Limit, 20))
		})

	r.register(TemplateCommentVolumeOverTime, "按周或月统计评论量随时间的变化，参数: period (week|month)",
		func(ctx context.Context, userID int64, p QueryParams) (interface{}, error) {
			period := PeriodMonth
			if p.Period != nil {
				period = *p.Period
			}
			return store.VolumeOverTime(ctx, userID, period)
		})

	r.register(TemplateReplyAnalysis, "按回复数排名顶层评论，参数: limit",
		func(ctx context.Context, userID int64, p QueryParams) (interface{}, error) {
			return store.TopLevelByReplies(ctx, userID, limitOrDefault(p.Limit, 10))
		})

	r.register(TemplateFeedbackStats, "统计改写反馈（up/down）的分布",
		func(ctx context.Context, userID int64, p QueryParams) (interface{}, error) {
			return store.FeedbackStats(ctx, userID)
		})

	r.register(TemplatePlatformComparison, "对比各平台的评论量与情感分布",
		func(ctx context.Context, userID int64, p QueryParams) (interface{}, error) {
			counts, err := store.PlatformCounts(ctx, userID)
			if err != nil {
				return nil, err
			}
			sentiment, err := store.PlatformSentiment(ctx, userID)
			if err != nil {
				return nil, err
			}
			return &PlatformComparison{Counts: counts, Sentiment: sentiment}, nil
		})

	r.register(TemplateTransformedVsOriginal, "列出被善意改写过（改写结果与原文不同）的评论，参数: limit",
		func(ctx context.Context, userID int64, p QueryParams) (interface{}, error) {
			return store.TransformedComments(ctx, userID, limitOrDefault(p.Limit, 20))
		})

	r.register(TemplateComprehensive, "固定组合的全量分析报告：情感分布、Top5视频、最近10条负面评论、Top5评论者、评论总数",
		r.executeComprehensive)

	return r
}

func (r *Registry) register(id TemplateID, desc string, exec func(ctx context.Context, userID int64, p QueryParams) (interface{}, error)) {
	r.templates[id] = Template{ID: id, Description: desc, Execute: exec}
	r.order = append(r.order, id)
}

// Lookup 按 id 查找模板，未命中返回 false 而非错误，由调用方走兜底路径
func (r *Registry) Lookup(id string) (Template, bool) {
	t, ok := r.templates[TemplateID(id)]
	return t, ok
}

// Templates 按注册顺序返回全部模板（用于拼装分类提示词）
func (r *Registry) Templates() []Template {
	out := make([]Template, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.templates[id])
	}
	return out
}

// executeComprehensive 并发执行 5 个子查询后汇总
func (r *Registry) executeComprehensive(ctx context.Context, userID int64, _ QueryParams) (interface{}, error) {
	var (
		report ComprehensiveReport
		wg     sync.WaitGroup
		mu     sync.Mutex
		first  error
	)

	fail := func(err error) {
		mu.Lock()
		if first == nil {
			first = err
		}
		mu.Unlock()
	}

	wg.Add(5)
	go func() {
		defer wg.Done()
		breakdown, err := r.store.SentimentBreakdown(ctx, userID)
		if err != nil {
			fail(err)
			return
		}
		report.SentimentBreakdown = breakdown
	}()
	go func() {
		defer wg.Done()
		videos, err := r.store.PopularVideos(ctx, userID, 5)
		if err != nil {
			fail(err)
			return
		}
		report.TopVideos = videos
	}()
	go func() {
		defer wg.Done()
		negative, err := r.store.CommentsBySentiment(ctx, userID, model.SentimentNegative, nil, nil, 10)
		if err != nil {
			fail(err)
			return
		}
		report.RecentNegative = negative
	}()
	go func() {
		defer wg.Done()
		commenters, err := r.store.TopCommenters(ctx, userID, 5)
		if err != nil {
			fail(err)
			return
		}
		report.TopCommenters = commenters
	}()
	go func() {
		defer wg.Done()
		total, err := r.store.CountComments(ctx, userID)
		if err != nil {
			fail(err)
			return
		}
		report.TotalComments = total
	}()
	wg.Wait()

	if first != nil {
		return nil, first
	}
	return &report, nil
}
