package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"kindboard-go/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedGen 按调用顺序返回预设回复的文本生成替身
type scriptedGen struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	calls   int
	prompts []string
}

func (g *scriptedGen) Name() string { return "scripted" }

func (g *scriptedGen) Generate(_ context.Context, systemPrompt, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.calls
	g.calls++
	g.prompts = append(g.prompts, systemPrompt)

	var err error
	if i < len(g.errs) {
		err = g.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(g.replies) {
		return g.replies[i], nil
	}
	return "", errors.New("unexpected call")
}

func TestAskEmptyMessage(t *testing.T) {
	svc := NewService(&scriptedGen{}, &fakeStore{})

	answer, err := svc.Ask(context.Background(), 1, "")
	assert.Nil(t, answer)
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestAskTemplateFlow(t *testing.T) {
	// 第一次调用：意图分类；第二次调用：结果润色
	gen := &scriptedGen{replies: []string{
		`{"template_id": "top_commenters", "params": {"limit": 5}}`,
		"你最活跃的评论者是 alice，共 3 条评论。",
	}}
	svc := NewService(gen, &fakeStore{})

	answer, err := svc.Ask(context.Background(), 1, "谁评论我最多？")
	require.NoError(t, err)
	assert.Equal(t, "你最活跃的评论者是 alice，共 3 条评论。", answer.Response)
	assert.Equal(t, string(TemplateTopCommenters), answer.TemplateID)
	assert.Equal(t, 2, gen.calls)
}

func TestAskStripsMarkdownFence(t *testing.T) {
	gen := &scriptedGen{replies: []string{
		"```json\n{\"template_id\": \"sentiment_breakdown\", \"params\": {}}\n```",
		"大部分评论都是正面的。",
	}}
	svc := NewService(gen, &fakeStore{})

	answer, err := svc.Ask(context.Background(), 1, "情感分布如何？")
	require.NoError(t, err)
	assert.Equal(t, string(TemplateSentimentBreakdown), answer.TemplateID)
}

func TestAskInvalidJSONFallsBackToGeneralChat(t *testing.T) {
	// 分类输出不是JSON -> general_chat -> 第二次调用产生闲聊回复
	gen := &scriptedGen{replies: []string{
		"抱歉我不知道该选哪个模板",
		"你好！我可以帮你分析评论数据。",
	}}
	svc := NewService(gen, &fakeStore{})

	answer, err := svc.Ask(context.Background(), 1, "你好")
	require.NoError(t, err)
	assert.Equal(t, "你好！我可以帮你分析评论数据。", answer.Response)
	assert.Empty(t, answer.TemplateID)
}

func TestAskUnknownTemplateFallsBackToGeneralChat(t *testing.T) {
	gen := &scriptedGen{replies: []string{
		`{"template_id": "drop_all_tables", "params": {}}`,
		"我可以帮你统计评论量或分析情感分布。",
	}}
	svc := NewService(gen, &fakeStore{})

	answer, err := svc.Ask(context.Background(), 1, "删库跑路")
	require.NoError(t, err)
	assert.Equal(t, "我可以帮你统计评论量或分析情感分布。", answer.Response)
	assert.Empty(t, answer.TemplateID)
}

func TestAskClassifierErrorReturnsFallbackReply(t *testing.T) {
	// 分类和闲聊两次调用都失败 -> 固定兜底文案，绝不返回错误
	gen := &scriptedGen{errs: []error{
		errors.New("llm unavailable"),
		errors.New("llm unavailable"),
	}}
	svc := NewService(gen, &fakeStore{})

	answer, err := svc.Ask(context.Background(), 1, "谁评论我最多？")
	require.NoError(t, err)
	assert.Equal(t, FallbackReply, answer.Response)
}

func TestAskFormatterErrorReturnsFallbackReply(t *testing.T) {
	gen := &scriptedGen{
		replies: []string{`{"template_id": "recent_comments", "params": {}}`, ""},
		errs:    []error{nil, errors.New("timeout")},
	}
	svc := NewService(gen, &fakeStore{})

	answer, err := svc.Ask(context.Background(), 1, "最近的评论")
	require.NoError(t, err)
	assert.Equal(t, FallbackReply, answer.Response)
}

// hangingGen 挂起到上下文取消为止，模拟无响应的供应商
type hangingGen struct{}

func (g *hangingGen) Name() string { return "hanging" }

func (g *hangingGen) Generate(ctx context.Context, _, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

// 供应商挂起时 Ask 必须在单次调用超时内退出并给兜底回答，不能无限阻塞
func TestAskHungProviderReturnsFallbackWithinTimeout(t *testing.T) {
	gen := llm.NewChain(50*time.Millisecond, &hangingGen{})
	svc := NewService(gen, &fakeStore{})

	done := make(chan *ChatAnswer, 1)
	go func() {
		answer, err := svc.Ask(context.Background(), 1, "谁评论我最多？")
		require.NoError(t, err)
		done <- answer
	}()

	select {
	case answer := <-done:
		assert.Equal(t, FallbackReply, answer.Response)
	case <-time.After(2 * time.Second):
		t.Fatal("Ask 在供应商挂起时没有按超时退出")
	}
}

func TestClassifierPromptListsAllTemplates(t *testing.T) {
	registry := NewRegistry(&fakeStore{})
	classifier := NewIntentClassifier(&scriptedGen{}, registry)

	for _, tpl := range registry.Templates() {
		assert.Contains(t, classifier.prompt, string(tpl.ID))
	}
}
