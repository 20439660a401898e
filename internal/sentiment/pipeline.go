package sentiment

import (
	"context"
	"sync"
)

// Item 待处理的一条评论
type Item struct {
	ID               int64
	Text             string
	VideoTitle       string
	VideoDescription string
	IsOwner          bool
}

// Result 处理结果，与输入按索引一一对应
type Result struct {
	ID           int64
	Text         string // 清洗后的原文
	EmpathicText string
	Sentiment    string // 存储层三分类，创作者本人评论为空
	Skipped      bool   // 未经过改写（正面评论或创作者本人评论）
}

// ProgressFunc 进度回调，每完成一条调用一次
type ProgressFunc func(done, total int)

// Pipeline 两遍式评论处理管线：先分类，非正面的再改写
// 批内并发、批间串行，批次大小即LLM并发上限，天然对限流形成背压
type Pipeline struct {
	classifier *Classifier
	rewriter   *Rewriter
	batchSize  int
}

// NewPipeline 创建处理管线，batchSize<=0 时默认5
func NewPipeline(classifier *Classifier, rewriter *Rewriter, batchSize int) *Pipeline {
	if batchSize <= 0 {
		batchSize = 5
	}
	return &Pipeline{classifier: classifier, rewriter: rewriter, batchSize: batchSize}
}

// Process 按批处理全部条目
// 输出顺序与输入一致，与批内各LLM调用的完成顺序无关；
// progress 在每个批次完成后按条触发
func (p *Pipeline) Process(ctx context.Context, items []Item, progress ProgressFunc) []Result {
	total := len(items)
	results := make([]Result, total)
	done := 0

	for start := 0; start < total; start += p.batchSize {
		end := start + p.batchSize
		if end > total {
			end = total
		}

		p.processBatch(ctx, items[start:end], results[start:end])

		for i := start; i < end; i++ {
			done++
			if progress != nil {
				progress(done, total)
			}
		}
	}

	return results
}

// processBatch 处理一个批次：先并发分类，再对非正面子集并发改写
func (p *Pipeline) processBatch(ctx context.Context, items []Item, results []Result) {
	labels := make([]Label, len(items))

	var wg sync.WaitGroup
	for i := range items {
		cleaned := CleanText(items[i].Text)
		results[i] = Result{ID: items[i].ID, Text: cleaned}

		// 创作者本人的回复不分类也不改写
		if items[i].IsOwner {
			results[i].EmpathicText = cleaned
			results[i].Skipped = true
			continue
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			labels[i] = p.classifier.Classify(ctx, results[i].Text)
		}(i)
	}
	wg.Wait()

	for i := range items {
		if items[i].IsOwner {
			continue
		}
		results[i].Sentiment = labels[i].StorageSentiment()

		// 正面评论省掉第二次调用，原文即改写结果
		if labels[i] == LabelPositive {
			results[i].EmpathicText = results[i].Text
			results[i].Skipped = true
			continue
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i].EmpathicText = p.rewriter.Rewrite(ctx, results[i].Text, items[i].VideoTitle, items[i].VideoDescription)
		}(i)
	}
	wg.Wait()
}
