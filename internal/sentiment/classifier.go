package sentiment

import (
	"context"
	"strings"

	"kindboard-go/internal/llm"
	"kindboard-go/internal/model"
	"kindboard-go/pkg/logger"

	"go.uber.org/zap"
)

// Label 分类器输出的四分类标签
type Label string

const (
	LabelPositive Label = "POSITIVE"
	LabelNegative Label = "NEGATIVE"
	LabelNeutral  Label = "NEUTRAL"
	LabelSexual   Label = "SEXUAL"
)

// 输出包含多个标签时的判定优先级：SEXUAL > NEGATIVE > NEUTRAL > POSITIVE
// 宁可误判为需要改写，也不放过可能有害的内容
var labelPriority = []Label{LabelSexual, LabelNegative, LabelNeutral, LabelPositive}

const classifyPrompt = `你是评论情感分类器。对给出的单条评论，只输出以下四个词中的一个，不要输出任何其他内容：

POSITIVE - 友善、赞美、支持、感谢类评论
NEGATIVE - 辱骂、嘲讽、攻击、恶意批评类评论
NEUTRAL - 提问、陈述事实、与情感无关的评论
SEXUAL - 含性暗示、骚扰或露骨内容的评论

注意：带脏话的赞美算 POSITIVE；阴阳怪气的夸奖算 NEGATIVE。`

// Classifier 评论情感分类器（第一遍）
type Classifier struct {
	gen llm.TextGenerator
}

// NewClassifier 创建情感分类器
func NewClassifier(gen llm.TextGenerator) *Classifier {
	return &Classifier{gen: gen}
}

// Classify 对一条已清洗的评论做四分类
// 调用失败或输出不在枚举内时一律按 NEGATIVE 处理（偏向“需要改写”的安全默认）
func (c *Classifier) Classify(ctx context.Context, text string) Label {
	reply, err := c.gen.Generate(ctx, classifyPrompt, text)
	if err != nil {
		logger.Warn("Sentiment classification call failed", zap.Error(err))
		return LabelNegative
	}

	return ParseLabel(reply)
}

// ParseLabel 从模型输出中解析标签
// 按优先级扫描，输出中同时出现多个标签时取更谨慎的那个
func ParseLabel(reply string) Label {
	upper := strings.ToUpper(reply)
	for _, label := range labelPriority {
		if strings.Contains(upper, string(label)) {
			return label
		}
	}
	return LabelNegative
}

// StorageSentiment 映射到存储层的三分类：SEXUAL 折叠为 negative
func (l Label) StorageSentiment() string {
	switch l {
	case LabelPositive:
		return model.SentimentPositive
	case LabelNeutral:
		return model.SentimentNeutral
	default:
		return model.SentimentNegative
	}
}
