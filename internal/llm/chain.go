package llm

import (
	"context"
	"time"

	"kindboard-go/pkg/logger"

	"go.uber.org/zap"
)

// Chain 有序的供应商降级链
// 依次尝试每个供应商，返回第一个非空结果；全部失败时返回最后一个错误。
// 每次尝试都套独立超时，避免单个供应商阻塞整条链路。
type Chain struct {
	providers []TextGenerator
	timeout   time.Duration
}

// NewChain 按给定顺序构建降级链，timeout<=0 时默认30秒
func NewChain(timeout time.Duration, providers ...TextGenerator) *Chain {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Chain{providers: providers, timeout: timeout}
}

func (c *Chain) Name() string { return "chain" }

// Generate 依次尝试链路中的供应商
func (c *Chain) Generate(ctx context.Context, systemPrompt, userContent string) (string, error) {
	if len(c.providers) == 0 {
		return "", ErrNoProvider
	}

	var lastErr error
	for _, p := range c.providers {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		text, err := p.Generate(callCtx, systemPrompt, userContent)
		cancel()

		if err == nil && text != "" {
			return text, nil
		}
		if err == nil {
			err = ErrEmptyResponse
		}
		lastErr = err

		logger.Warn("LLM provider failed, trying next",
			zap.String("provider", p.Name()),
			zap.Error(err),
		)

		// 上游上下文已取消时不再继续
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", lastErr
}
