package analytics

import (
	"context"
	"errors"

	"kindboard-go/internal/llm"
	"kindboard-go/pkg/logger"

	"go.uber.org/zap"
)

var (
	// ErrEmptyMessage 空消息，由 handler 映射为 400
	ErrEmptyMessage = errors.New("消息不能为空")
)

// FallbackReply 管线内部任何失败的统一兜底回答
// 对终端用户绝不暴露原始错误或堆栈
const FallbackReply = "抱歉，我暂时没能理解这个问题，请换个说法再试一次。"

const generalChatPrompt = `你是一个友好的评论管理仪表盘助手，帮助创作者了解自己收到的评论。
用户的这条消息不是数据分析问题，请简短、自然地回应。
可以提示用户你能做什么，比如统计评论量、分析情感分布、查找某条评论等。
用与用户相同的语言回答，不要超过三句话。`

// ChatAnswer 一次分析问答的结果
type ChatAnswer struct {
	Response   string
	TemplateID string
}

// Service 分析问答编排器
// 控制流：分类 ->（general_chat | 清洗 -> 查模板 -> 执行 -> 润色）-> 回答
type Service struct {
	gen        llm.TextGenerator
	registry   *Registry
	classifier *IntentClassifier
	formatter  *Formatter
}

// NewService 构建编排器，文本生成能力通过注入传入，便于测试替身
func NewService(gen llm.TextGenerator, store Store) *Service {
	registry := NewRegistry(store)
	return &Service{
		gen:        gen,
		registry:   registry,
		classifier: NewIntentClassifier(gen, registry),
		formatter:  NewFormatter(gen),
	}
}

// Ask 处理一条分析提问
// 除空消息外不返回任何错误：2~7 步的一切失败都折叠为固定兜底回答
func (s *Service) Ask(ctx context.Context, userID int64, message string) (answer *ChatAnswer, err error) {
	if message == "" {
		return nil, ErrEmptyMessage
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Analytics chat panic recovered",
				zap.Int64("user_id", userID),
				zap.Any("panic", r),
			)
			answer = &ChatAnswer{Response: FallbackReply}
			err = nil
		}
	}()

	result := s.classifier.Classify(ctx, message)

	if result.TemplateID == GeneralChatID {
		return s.generalChat(ctx, message), nil
	}

	template, ok := s.registry.Lookup(result.TemplateID)
	if !ok {
		// 分类器报了一个不存在的模板id：记录后走闲聊兜底，不报错
		logger.Warn("Classifier produced unknown template id",
			zap.Int64("user_id", userID),
			zap.String("template_id", result.TemplateID),
		)
		return s.generalChat(ctx, message), nil
	}

	params := ValidateParams(result.Params)

	queryResult, execErr := template.Execute(ctx, userID, params)
	if execErr != nil {
		logger.Error("Template execution failed",
			zap.Int64("user_id", userID),
			zap.String("template_id", string(template.ID)),
			zap.Error(execErr),
		)
		return &ChatAnswer{Response: FallbackReply}, nil
	}

	response, fmtErr := s.formatter.Format(ctx, message, template.ID, queryResult)
	if fmtErr != nil {
		logger.Error("Response formatting failed",
			zap.Int64("user_id", userID),
			zap.String("template_id", string(template.ID)),
			zap.Error(fmtErr),
		)
		return &ChatAnswer{Response: FallbackReply}, nil
	}

	return &ChatAnswer{Response: response, TemplateID: string(template.ID)}, nil
}

// generalChat 闲聊路径：跳过清洗/执行，直接要一段简短回应
func (s *Service) generalChat(ctx context.Context, message string) *ChatAnswer {
	reply, err := s.gen.Generate(ctx, generalChatPrompt, message)
	if err != nil {
		logger.Warn("General chat call failed", zap.Error(err))
		return &ChatAnswer{Response: FallbackReply}
	}
	return &ChatAnswer{Response: reply}
}
