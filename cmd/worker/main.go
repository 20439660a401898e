package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"kindboard-go/internal/config"
	"kindboard-go/internal/infra/database"
	infraES "kindboard-go/internal/infra/elasticsearch"
	infraKafka "kindboard-go/internal/infra/kafka"
	infraRedis "kindboard-go/internal/infra/redis"
	"kindboard-go/internal/llm"
	"kindboard-go/internal/repository"
	"kindboard-go/internal/sentiment"
	"kindboard-go/internal/service"
	"kindboard-go/pkg/logger"

	"go.uber.org/zap"
)

// worker 进程：消费评论入库任务和批量改写任务，执行LLM调用
func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.FilePath); err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer logger.Sync()

	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatal("Failed to init database", zap.Error(err))
	}
	defer database.Close()

	if err := infraRedis.Init(&cfg.Redis); err != nil {
		logger.Fatal("Failed to init redis", zap.Error(err))
	}
	defer infraRedis.Close()

	if err := infraES.Init(&cfg.Elasticsearch); err != nil {
		logger.Warn("Elasticsearch init failed, indexing disabled", zap.Error(err))
	} else {
		defer infraES.Close()
		if err := infraES.InitIndexes(); err != nil {
			logger.Warn("Elasticsearch index init failed", zap.Error(err))
		}
	}

	gemini, err := llm.NewGeminiClient(context.Background(), cfg.LLM.GeminiAPIKey, cfg.LLM.GeminiModel)
	if err != nil {
		logger.Fatal("Failed to init gemini client", zap.Error(err))
	}
	groq := llm.NewGroqClient(cfg.LLM.GroqAPIKey, cfg.LLM.GroqModel)
	chain := llm.NewChain(cfg.LLM.TimeoutDuration(), gemini, groq)

	pipeline := sentiment.NewPipeline(
		sentiment.NewClassifier(chain),
		sentiment.NewRewriter(chain),
		cfg.LLM.BatchSize(),
	)

	commentRepo := repository.NewCommentRepository(database.Get())
	rewriteService := service.NewRewriteService(commentRepo, pipeline)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听系统信号，优雅退出
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	logger.Info("Comment worker started", zap.Strings("brokers", cfg.Kafka.Brokers))

	var wg sync.WaitGroup

	if topic, ok := cfg.Kafka.Topics["ingest"]; ok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			infraKafka.StartConsumer(ctx, cfg.Kafka.Brokers, topic, "kindboard-ingest-worker", func(value []byte) error {
				return rewriteService.HandleIngestTask(ctx, value)
			})
		}()
	} else {
		logger.Warn("Ingest topic not configured, skipping consumer")
	}

	if topic, ok := cfg.Kafka.Topics["rewrite"]; ok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			infraKafka.StartConsumer(ctx, cfg.Kafka.Brokers, topic, "kindboard-rewrite-worker", func(value []byte) error {
				return rewriteService.HandleRewriteTask(ctx, value)
			})
		}()
	} else {
		logger.Warn("Rewrite topic not configured, skipping consumer")
	}

	wg.Wait()
	logger.Info("Comment worker stopped")
}
