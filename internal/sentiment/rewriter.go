package sentiment

import (
	"context"
	"fmt"
	"strings"

	"kindboard-go/internal/llm"
	"kindboard-go/pkg/logger"

	"go.uber.org/zap"
)

// 嵌入改写提示词的视频上下文长度上限
const (
	maxTitleContext       = 120
	maxDescriptionContext = 300
)

const rewritePrompt = `你是评论善意改写助手。创作者会看到观众的评论，你的任务是把负面、恶意或不当的评论改写成善意、温和的表达：
- 保留评论者想表达的核心意思和语气中的个性，只软化攻击性和去掉不当内容
- 如果评论里有合理的批评，把它改写成建设性的建议
- 用与原评论相同的语言输出
- 只输出改写后的评论文本，不要任何解释或前缀`

// Rewriter 善意改写器（第二遍）
// 底层是一条供应商降级链：主供应商失败后尝试备用供应商，
// 全部失败时由调用方回退到原文，绝不阻塞入库
type Rewriter struct {
	chain llm.TextGenerator
}

// NewRewriter 创建改写器，chain 应为 llm.NewChain 构建的降级链
func NewRewriter(chain llm.TextGenerator) *Rewriter {
	return &Rewriter{chain: chain}
}

// Rewrite 改写一条已清洗的评论，附带视频标题/简介作为上下文
// 任何失败都返回原文
func (r *Rewriter) Rewrite(ctx context.Context, text, videoTitle, videoDescription string) string {
	userContent := buildRewriteInput(text, videoTitle, videoDescription)

	rewritten, err := r.chain.Generate(ctx, rewritePrompt, userContent)
	if err != nil || strings.TrimSpace(rewritten) == "" {
		logger.Warn("Empathic rewrite failed, keeping original text", zap.Error(err))
		return text
	}
	return strings.TrimSpace(rewritten)
}

func buildRewriteInput(text, videoTitle, videoDescription string) string {
	var b strings.Builder
	if t := truncateRunes(videoTitle, maxTitleContext); t != "" {
		fmt.Fprintf(&b, "视频标题：%s\n", t)
	}
	if d := truncateRunes(videoDescription, maxDescriptionContext); d != "" {
		fmt.Fprintf(&b, "视频简介：%s\n", d)
	}
	fmt.Fprintf(&b, "评论：%s", text)
	return b.String()
}

func truncateRunes(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
