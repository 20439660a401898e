package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"kindboard-go/internal/llm"
	"kindboard-go/pkg/logger"

	"go.uber.org/zap"
)

// GeneralChatID 非分析类提问的兜底标识，不是注册表中的模板
const GeneralChatID = "general_chat"

// ClassificationResult 意图分类器产出的中间结果
// 在通过 ValidateParams 与模板查找之前不可信任
type ClassificationResult struct {
	TemplateID string                 `json:"template_id"`
	Params     map[string]interface{} `json:"params"`
}

const classifierPromptHeader = `你是评论数据分析助手的意图分类器。用户会用自然语言提出关于自己收到的评论的问题，
你需要把问题映射到下列查询模板之一，并抽取参数。

可用模板：
`

const classifierPromptFooter = `
参数只允许出现以下键（没有对应信息就省略该键）：
- keyword: 搜索关键词（字符串）
- video_id: 外部视频/帖子ID（字符串）
- video_title: 视频/帖子标题（字符串）
- platform: "youtube" 或 "instagram"
- limit: 返回条数（整数）
- start_date / end_date: "YYYY-MM-DD" 格式日期
- period: "week" 或 "month"

如果问题与评论数据分析无关（比如打招呼、闲聊、问你是谁），template_id 填 "general_chat"。

只输出一个 JSON 对象，不要输出任何其他文字：
{"template_id": "<模板id>", "params": {}}`

// IntentClassifier 把自由文本问题映射为 {模板id, 原始参数}
type IntentClassifier struct {
	gen    llm.TextGenerator
	prompt string
}

// NewIntentClassifier 根据注册表动态拼装分类提示词
func NewIntentClassifier(gen llm.TextGenerator, registry *Registry) *IntentClassifier {
	var b strings.Builder
	b.WriteString(classifierPromptHeader)
	for _, t := range registry.Templates() {
		fmt.Fprintf(&b, "- %s: %s\n", t.ID, t.Description)
	}
	b.WriteString(classifierPromptFooter)

	return &IntentClassifier{gen: gen, prompt: b.String()}
}

// Classify 调用LLM做一次意图分类
// 任何失败（调用出错、JSON不合法、缺少模板id）都退化为 general_chat，
// 绝不向上抛出解析类错误
func (c *IntentClassifier) Classify(ctx context.Context, question string) ClassificationResult {
	fallback := ClassificationResult{TemplateID: GeneralChatID, Params: map[string]interface{}{}}

	reply, err := c.gen.Generate(ctx, c.prompt, question)
	if err != nil {
		logger.Warn("Intent classification call failed", zap.Error(err))
		return fallback
	}

	var result ClassificationResult
	if err := json.Unmarshal([]byte(stripCodeFence(reply)), &result); err != nil {
		logger.Warn("Intent classification returned invalid JSON",
			zap.String("reply", truncateForLog(reply, 200)),
			zap.Error(err),
		)
		return fallback
	}

	result.TemplateID = strings.TrimSpace(result.TemplateID)
	if result.TemplateID == "" {
		return fallback
	}
	if result.Params == nil {
		result.Params = map[string]interface{}{}
	}
	return result
}

// stripCodeFence 剥掉模型习惯性包裹的 markdown 代码块
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func truncateForLog(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
