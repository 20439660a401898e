package sentiment

import (
	"context"
	"errors"
	"testing"

	"kindboard-go/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestParseLabel(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  Label
	}{
		{"正面", "POSITIVE", LabelPositive},
		{"小写", "positive", LabelPositive},
		{"带解释的输出", "这条评论是 NEUTRAL 的。", LabelNeutral},
		{"同时出现取更谨慎的", "could be POSITIVE or NEGATIVE", LabelNegative},
		{"SEXUAL优先级最高", "NEGATIVE NEUTRAL SEXUAL POSITIVE", LabelSexual},
		{"无法解析按负面", "我不确定", LabelNegative},
		{"空输出按负面", "", LabelNegative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLabel(tt.reply))
		})
	}
}

func TestStorageSentiment(t *testing.T) {
	assert.Equal(t, model.SentimentPositive, LabelPositive.StorageSentiment())
	assert.Equal(t, model.SentimentNeutral, LabelNeutral.StorageSentiment())
	assert.Equal(t, model.SentimentNegative, LabelNegative.StorageSentiment())
	// 存储层只有三分类，SEXUAL 折叠为 negative
	assert.Equal(t, model.SentimentNegative, LabelSexual.StorageSentiment())
}

type fixedGen struct {
	reply string
	err   error
}

func (g *fixedGen) Name() string { return "fixed" }

func (g *fixedGen) Generate(context.Context, string, string) (string, error) {
	return g.reply, g.err
}

func TestClassifyCallFailureDefaultsToNegative(t *testing.T) {
	c := NewClassifier(&fixedGen{err: errors.New("unavailable")})
	assert.Equal(t, LabelNegative, c.Classify(context.Background(), "whatever"))
}

func TestClassifyParsesReply(t *testing.T) {
	c := NewClassifier(&fixedGen{reply: "POSITIVE"})
	assert.Equal(t, LabelPositive, c.Classify(context.Background(), "love this"))
}
