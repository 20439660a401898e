package analytics

import (
	"context"
	"sync"
	"testing"

	"kindboard-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore 内存替身，记录收到的查询参数
// comprehensive 模板并发调用各方法，记录需要加锁
type fakeStore struct {
	mu          sync.Mutex
	lastPattern string
	lastPeriod  string
	lastLimit   int
}

func (f *fakeStore) setLimit(limit int) {
	f.mu.Lock()
	f.lastLimit = limit
	f.mu.Unlock()
}

func (f *fakeStore) TopCommenters(_ context.Context, _ int64, limit int) ([]CommenterStat, error) {
	f.setLimit(limit)
	return []CommenterStat{{Author: "alice", Count: 3}}, nil
}

func (f *fakeStore) PopularVideos(_ context.Context, _ int64, limit int) ([]VideoStat, error) {
	f.setLimit(limit)
	return []VideoStat{{VideoTitle: "t", VideoID: "v1", Platform: "youtube", Count: 7}}, nil
}

func (f *fakeStore) SearchComments(_ context.Context, _ int64, likePattern string, limit int) ([]model.Comment, error) {
	f.mu.Lock()
	f.lastPattern = likePattern
	f.mu.Unlock()
	f.setLimit(limit)
	return []model.Comment{}, nil
}

func (f *fakeStore) SentimentBreakdown(_ context.Context, _ int64) ([]SentimentStat, error) {
	return []SentimentStat{{Sentiment: "positive", Count: 5}}, nil
}

func (f *fakeStore) CommentsBySentiment(_ context.Context, _ int64, _ string, _, _ *string, limit int) ([]model.Comment, error) {
	f.setLimit(limit)
	return []model.Comment{}, nil
}

func (f *fakeStore) RecentComments(_ context.Context, _ int64, limit int) ([]model.Comment, error) {
	f.setLimit(limit)
	return []model.Comment{}, nil
}

func (f *fakeStore) CommentsByVideo(_ context.Context, _ int64, _, titlePattern *string, _ int) ([]model.Comment, error) {
	if titlePattern != nil {
		f.mu.Lock()
		f.lastPattern = *titlePattern
		f.mu.Unlock()
	}
	return []model.Comment{}, nil
}

func (f *fakeStore) VolumeOverTime(_ context.Context, _ int64, period string) ([]VolumeBucket, error) {
	f.mu.Lock()
	f.lastPeriod = period
	f.mu.Unlock()
	return []VolumeBucket{{Bucket: "2025-08-01", Count: 12}}, nil
}

func (f *fakeStore) TopLevelByReplies(_ context.Context, _ int64, _ int) ([]model.Comment, error) {
	return []model.Comment{}, nil
}

func (f *fakeStore) FeedbackStats(_ context.Context, _ int64) ([]FeedbackStat, error) {
	return []FeedbackStat{{Feedback: "up", Count: 2}}, nil
}

func (f *fakeStore) PlatformCounts(_ context.Context, _ int64) ([]PlatformStat, error) {
	return []PlatformStat{{Platform: "youtube", Count: 9}}, nil
}

func (f *fakeStore) PlatformSentiment(_ context.Context, _ int64) ([]PlatformSentimentStat, error) {
	return []PlatformSentimentStat{{Platform: "youtube", Sentiment: "negative", Count: 1}}, nil
}

func (f *fakeStore) TransformedComments(_ context.Context, _ int64, _ int) ([]model.Comment, error) {
	return []model.Comment{}, nil
}

func (f *fakeStore) CountComments(_ context.Context, _ int64) (int64, error) {
	return 42, nil
}

func TestRegistryCoversAllTemplates(t *testing.T) {
	registry := NewRegistry(&fakeStore{})

	expected := []TemplateID{
		TemplateTopCommenters, TemplateMostPopularVideos, TemplateSearchComments,
		TemplateSentimentBreakdown, TemplateNegativeComments, TemplatePositiveComments,
		TemplateConstructiveComments, TemplateRecentComments, TemplateCommentsByVideo,
		TemplateCommentVolumeOverTime, TemplateReplyAnalysis, TemplateFeedbackStats,
		TemplatePlatformComparison, TemplateTransformedVsOriginal, TemplateComprehensive,
	}
	assert.Len(t, registry.Templates(), len(expected))

	for _, id := range expected {
		tpl, ok := registry.Lookup(string(id))
		require.True(t, ok, "template %s not registered", id)
		assert.NotEmpty(t, tpl.Description)
	}
}

// 所有模板在脏参数下都必须能执行，清洗层负责把垃圾变成缺省值
func TestAllTemplatesExecuteWithGarbageParams(t *testing.T) {
	registry := NewRegistry(&fakeStore{})

	garbage := ValidateParams(map[string]interface{}{
		"keyword": 42,
		"limit":   "many",
		"period":  "eon",
	})

	for _, tpl := range registry.Templates() {
		t.Run(string(tpl.ID), func(t *testing.T) {
			result, err := tpl.Execute(context.Background(), 1, garbage)
			require.NoError(t, err)
			assert.NotNil(t, result)
		})
	}
}

func TestSearchCommentsWithoutKeywordReturnsEmpty(t *testing.T) {
	store := &fakeStore{}
	registry := NewRegistry(store)

	tpl, ok := registry.Lookup(string(TemplateSearchComments))
	require.True(t, ok)

	result, err := tpl.Execute(context.Background(), 1, QueryParams{})
	require.NoError(t, err)
	assert.Equal(t, []model.Comment{}, result)
	assert.Empty(t, store.lastPattern, "缺少关键词时不应触达存储层")
}

func TestSearchCommentsEscapesWildcards(t *testing.T) {
	store := &fakeStore{}
	registry := NewRegistry(store)

	tpl, _ := registry.Lookup(string(TemplateSearchComments))
	keyword := "100%_done"
	_, err := tpl.Execute(context.Background(), 1, QueryParams{Keyword: &keyword})
	require.NoError(t, err)
	assert.Equal(t, `%100\%\_done%`, store.lastPattern)
}

func TestVolumeOverTimeDefaultsToMonth(t *testing.T) {
	store := &fakeStore{}
	registry := NewRegistry(store)

	tpl, _ := registry.Lookup(string(TemplateCommentVolumeOverTime))
	_, err := tpl.Execute(context.Background(), 1, QueryParams{})
	require.NoError(t, err)
	assert.Equal(t, PeriodMonth, store.lastPeriod)

	week := PeriodWeek
	_, err = tpl.Execute(context.Background(), 1, QueryParams{Period: &week})
	require.NoError(t, err)
	assert.Equal(t, PeriodWeek, store.lastPeriod)
}

func TestComprehensiveReport(t *testing.T) {
	registry := NewRegistry(&fakeStore{})

	tpl, _ := registry.Lookup(string(TemplateComprehensive))
	result, err := tpl.Execute(context.Background(), 1, QueryParams{})
	require.NoError(t, err)

	report, ok := result.(*ComprehensiveReport)
	require.True(t, ok)
	assert.Equal(t, int64(42), report.TotalComments)
	assert.Len(t, report.SentimentBreakdown, 1)
	assert.Len(t, report.TopVideos, 1)
	assert.Len(t, report.TopCommenters, 1)
}
