package service

import (
	"testing"

	"kindboard-go/internal/model"

	"github.com/stretchr/testify/assert"
)

func int64Ptr(v int64) *int64 { return &v }

func TestHasCycle(t *testing.T) {
	// 1 <- 2 <- 3 正常链
	chain := map[int64]*model.Comment{
		1: {ID: 1},
		2: {ID: 2, ParentID: int64Ptr(1)},
		3: {ID: 3, ParentID: int64Ptr(2)},
	}
	assert.False(t, hasCycle(chain[3], chain))

	// 4 <-> 5 相互引用
	cyclic := map[int64]*model.Comment{
		4: {ID: 4, ParentID: int64Ptr(5)},
		5: {ID: 5, ParentID: int64Ptr(4)},
	}
	assert.True(t, hasCycle(cyclic[4], cyclic))

	// 自引用
	self := map[int64]*model.Comment{
		6: {ID: 6, ParentID: int64Ptr(6)},
	}
	assert.True(t, hasCycle(self[6], self))

	// 父评论不在索引中，视为无环
	orphan := map[int64]*model.Comment{
		7: {ID: 7, ParentID: int64Ptr(99)},
	}
	assert.False(t, hasCycle(orphan[7], orphan))
}

func TestValidSentiment(t *testing.T) {
	assert.True(t, validSentiment(model.SentimentPositive))
	assert.True(t, validSentiment(model.SentimentNegative))
	assert.True(t, validSentiment(model.SentimentNeutral))
	assert.True(t, validSentiment(model.SentimentConstructive))
	assert.False(t, validSentiment("SEXUAL"))
	assert.False(t, validSentiment("angry"))
	assert.False(t, validSentiment(""))
}

func TestBuildCSV(t *testing.T) {
	sentiment := model.SentimentNegative
	empathic := "温和版本"
	comments := []model.Comment{
		{ID: 1, Platform: model.PlatformYouTube, VideoID: "v1", VideoTitle: "标题", Author: "bob",
			Text: "原文, 带逗号", EmpathicText: &empathic, Sentiment: &sentiment},
	}

	payload, err := buildCSV(comments)
	assert.NoError(t, err)

	out := string(payload)
	assert.Contains(t, out, "id,platform,video_id")
	assert.Contains(t, out, `"原文, 带逗号"`)
	assert.Contains(t, out, "温和版本")
}
