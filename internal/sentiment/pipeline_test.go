package sentiment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"kindboard-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// routingGen 根据输入内容决定回复，统计调用次数
type routingGen struct {
	mu    sync.Mutex
	calls int
	route func(systemPrompt, userContent string) (string, error)
}

func (g *routingGen) Name() string { return "routing" }

func (g *routingGen) Generate(_ context.Context, systemPrompt, userContent string) (string, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	return g.route(systemPrompt, userContent)
}

func (g *routingGen) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func newTestPipeline(classifyGen, rewriteGen *routingGen, batchSize int) *Pipeline {
	return NewPipeline(NewClassifier(classifyGen), NewRewriter(rewriteGen), batchSize)
}

func TestProcessOrderAndProgress(t *testing.T) {
	classify := &routingGen{route: func(_, content string) (string, error) {
		if strings.Contains(content, "love") {
			return "POSITIVE", nil
		}
		return "NEGATIVE", nil
	}}
	rewrite := &routingGen{route: func(_, content string) (string, error) {
		return "改写：" + content, nil
	}}
	p := newTestPipeline(classify, rewrite, 5)

	items := make([]Item, 12)
	for i := range items {
		items[i] = Item{ID: int64(i + 1), Text: fmt.Sprintf("comment %d", i)}
	}

	var progressCalls []int
	results := p.Process(context.Background(), items, func(done, total int) {
		assert.Equal(t, 12, total)
		progressCalls = append(progressCalls, done)
	})

	require.Len(t, results, 12)
	// 输出顺序与输入一致
	for i := range results {
		assert.Equal(t, int64(i+1), results[i].ID)
	}
	// 每条评论触发一次进度，done 单调递增
	require.Len(t, progressCalls, 12)
	for i, done := range progressCalls {
		assert.Equal(t, i+1, done)
	}
}

// gatedGen 记录并发在途调用数的峰值
type gatedGen struct {
	mu          sync.Mutex
	inflight    int
	maxInflight int
	calls       int
	reply       string
}

func (g *gatedGen) Name() string { return "gated" }

func (g *gatedGen) Generate(context.Context, string, string) (string, error) {
	g.mu.Lock()
	g.calls++
	g.inflight++
	if g.inflight > g.maxInflight {
		g.maxInflight = g.inflight
	}
	g.mu.Unlock()

	// 拖住一会儿，让同批次的调用得以重叠
	time.Sleep(20 * time.Millisecond)

	g.mu.Lock()
	g.inflight--
	g.mu.Unlock()
	return g.reply, nil
}

func TestProcessConcurrencyCappedByBatchSize(t *testing.T) {
	classify := &gatedGen{reply: "POSITIVE"}
	p := NewPipeline(NewClassifier(classify), NewRewriter(&routingGen{
		route: func(_, _ string) (string, error) { return "x", nil },
	}), 5)

	items := make([]Item, 12)
	for i := range items {
		items[i] = Item{ID: int64(i + 1), Text: fmt.Sprintf("comment %d", i)}
	}
	results := p.Process(context.Background(), items, nil)

	require.Len(t, results, 12)

	classify.mu.Lock()
	defer classify.mu.Unlock()
	assert.Equal(t, 12, classify.calls)
	// 批内并发、批间串行：峰值在途数不超过批大小，但批内确实并行
	assert.LessOrEqual(t, classify.maxInflight, 5)
	assert.GreaterOrEqual(t, classify.maxInflight, 2)
}

func TestProcessOwnerSkipsBothPasses(t *testing.T) {
	classify := &routingGen{route: func(_, _ string) (string, error) {
		return "NEGATIVE", nil
	}}
	rewrite := &routingGen{route: func(_, _ string) (string, error) {
		return "rewritten", nil
	}}
	p := newTestPipeline(classify, rewrite, 5)

	results := p.Process(context.Background(), []Item{
		{ID: 1, Text: "thanks everyone!", IsOwner: true},
	}, nil)

	require.Len(t, results, 1)
	assert.True(t, results[0].Skipped)
	assert.Empty(t, results[0].Sentiment)
	assert.Equal(t, results[0].Text, results[0].EmpathicText)
	assert.Zero(t, classify.callCount())
	assert.Zero(t, rewrite.callCount())
}

func TestProcessPositiveSkipsRewrite(t *testing.T) {
	classify := &routingGen{route: func(_, _ string) (string, error) {
		return "POSITIVE", nil
	}}
	rewrite := &routingGen{route: func(_, _ string) (string, error) {
		return "should not be called", nil
	}}
	p := newTestPipeline(classify, rewrite, 5)

	results := p.Process(context.Background(), []Item{{ID: 1, Text: "love it"}}, nil)

	require.Len(t, results, 1)
	assert.True(t, results[0].Skipped)
	assert.Equal(t, model.SentimentPositive, results[0].Sentiment)
	assert.Equal(t, "love it", results[0].EmpathicText)
	assert.Zero(t, rewrite.callCount())
}

func TestProcessNegativeGetsRewritten(t *testing.T) {
	classify := &routingGen{route: func(_, _ string) (string, error) {
		return "NEGATIVE", nil
	}}
	rewrite := &routingGen{route: func(_, _ string) (string, error) {
		return "温和的版本", nil
	}}
	p := newTestPipeline(classify, rewrite, 5)

	results := p.Process(context.Background(), []Item{{ID: 1, Text: "this sucks"}}, nil)

	require.Len(t, results, 1)
	assert.False(t, results[0].Skipped)
	assert.Equal(t, model.SentimentNegative, results[0].Sentiment)
	assert.Equal(t, "温和的版本", results[0].EmpathicText)
	assert.Equal(t, 1, rewrite.callCount())
}

func TestProcessRewriteFailureKeepsOriginal(t *testing.T) {
	classify := &routingGen{route: func(_, _ string) (string, error) {
		return "NEGATIVE", nil
	}}
	rewrite := &routingGen{route: func(_, _ string) (string, error) {
		return "", errors.New("all providers down")
	}}
	p := newTestPipeline(classify, rewrite, 5)

	results := p.Process(context.Background(), []Item{{ID: 1, Text: "bad take"}}, nil)

	require.Len(t, results, 1)
	assert.Equal(t, "bad take", results[0].EmpathicText)
	assert.Equal(t, model.SentimentNegative, results[0].Sentiment)
}

func TestProcessCleansBeforeClassification(t *testing.T) {
	var seen string
	var mu sync.Mutex
	classify := &routingGen{route: func(_, content string) (string, error) {
		mu.Lock()
		seen = content
		mu.Unlock()
		return "POSITIVE", nil
	}}
	rewrite := &routingGen{route: func(_, _ string) (string, error) {
		return "x", nil
	}}
	p := newTestPipeline(classify, rewrite, 5)

	results := p.Process(context.Background(), []Item{{ID: 1, Text: "<b>great&nbsp;stuff</b>"}}, nil)

	assert.Equal(t, "great stuff", results[0].Text)
	mu.Lock()
	assert.Equal(t, "great stuff", seen)
	mu.Unlock()
}

func TestProcessEmptyInput(t *testing.T) {
	p := newTestPipeline(
		&routingGen{route: func(_, _ string) (string, error) { return "POSITIVE", nil }},
		&routingGen{route: func(_, _ string) (string, error) { return "x", nil }},
		5,
	)

	results := p.Process(context.Background(), nil, func(int, int) {
		t.Fatal("空输入不应触发进度回调")
	})
	assert.Empty(t, results)
}
