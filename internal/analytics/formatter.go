package analytics

import (
	"context"
	"encoding/json"
	"fmt"

	"kindboard-go/internal/llm"
)

// 查询结果嵌入提示词的长度上限，防止大结果集撑爆上下文
const maxResultJSONLen = 8000

const formatterPrompt = `你是评论数据分析助手。下面给出用户的原始问题、命中的查询模板和查询结果（JSON）。
请把结果组织成一段自然、友好的对话式回答：
- 用与用户提问相同的语言回答
- 提到结果中的具体数字和名字，不要泛泛而谈
- 结果为空时如实说明没有找到相关数据
- 不要输出 JSON、表格标记或代码块，只输出普通文本`

// Formatter 把原始查询结果润色为自然语言回答
type Formatter struct {
	gen llm.TextGenerator
}

// NewFormatter 创建结果润色器
func NewFormatter(gen llm.TextGenerator) *Formatter {
	return &Formatter{gen: gen}
}

// Format 以第二次LLM调用生成最终回答
func (f *Formatter) Format(ctx context.Context, question string, templateID TemplateID, result interface{}) (string, error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to marshal query result: %w", err)
	}
	payload := string(resultJSON)
	if len(payload) > maxResultJSONLen {
		payload = payload[:maxResultJSONLen]
	}

	userContent := fmt.Sprintf("用户问题：%s\n查询模板：%s\n查询结果：%s", question, templateID, payload)
	return f.gen.Generate(ctx, formatterPrompt, userContent)
}
