package llm

import (
	"context"
	"errors"
)

var (
	// ErrEmptyResponse 模型返回了空内容
	ErrEmptyResponse = errors.New("llm returned empty response")
	// ErrNoProvider 链路中没有可用的供应商
	ErrNoProvider = errors.New("no llm provider available")
)

// TextGenerator 文本生成能力的抽象
// 意图分类、结果润色、情感分类、善意改写都通过它调用，
// 具体实现可在 Gemini / Groq 之间互换
type TextGenerator interface {
	// Generate 以 systemPrompt 为指令、userContent 为输入生成一段文本
	Generate(ctx context.Context, systemPrompt, userContent string) (string, error)
	// Name 供应商名称（日志用）
	Name() string
}
