package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"kindboard-go/internal/analytics"
	"kindboard-go/internal/api/handler"
	"kindboard-go/internal/api/middleware"
	"kindboard-go/internal/api/router"
	"kindboard-go/internal/config"
	"kindboard-go/internal/infra/database"
	infraES "kindboard-go/internal/infra/elasticsearch"
	infraKafka "kindboard-go/internal/infra/kafka"
	infraMinio "kindboard-go/internal/infra/minio"
	infraRedis "kindboard-go/internal/infra/redis"
	"kindboard-go/internal/llm"
	"kindboard-go/internal/model"
	"kindboard-go/internal/repository"
	"kindboard-go/internal/sentiment"
	"kindboard-go/internal/service"
	"kindboard-go/pkg/logger"

	_ "kindboard-go/api/openapi"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title KindBoard API
// @version 1.0
// @description 创作者评论管理面板 API 服务

// @contact.name API Support
// @contact.email support@kindboard.dev

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host 127.0.0.1:8000
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description 输入格式: Bearer {token}

func main() {
	// 加载配置文件
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 初始化日志系统
	if err := logger.Init(
		cfg.Log.Level,
		cfg.Log.Format,
		cfg.Log.Output,
		cfg.Log.FilePath,
	); err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer logger.Sync()

	// 初始化数据库
	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatal("Failed to init database", zap.Error(err))
	}
	defer database.Close()

	// 自动迁移数据库表
	if err := database.AutoMigrate(
		&model.User{},
		&model.Comment{},
	); err != nil {
		logger.Fatal("Failed to auto migrate", zap.Error(err))
	}

	// 初始化Redis
	if err := infraRedis.Init(&cfg.Redis); err != nil {
		logger.Fatal("Failed to init redis", zap.Error(err))
	}
	defer infraRedis.Close()

	// 初始化MinIO
	if err := infraMinio.Init(&cfg.MinIO); err != nil {
		logger.Fatal("Failed to init minio", zap.Error(err))
	}

	// 初始化Kafka生产者
	if err := infraKafka.InitProducer(&cfg.Kafka); err != nil {
		logger.Fatal("Failed to init kafka producer", zap.Error(err))
	}
	defer infraKafka.CloseProducer()

	// 初始化 Elasticsearch（可选，失败则搜索降级到 DB）
	if err := infraES.Init(&cfg.Elasticsearch); err != nil {
		logger.Warn("Elasticsearch init failed, search will fallback to DB", zap.Error(err))
	} else {
		defer infraES.Close()
		if err := infraES.InitIndexes(); err != nil {
			logger.Warn("Elasticsearch index init failed", zap.Error(err))
		}
	}

	// 初始化LLM客户端：Gemini 为主力，Groq 为改写链路的备用
	gemini, err := llm.NewGeminiClient(context.Background(), cfg.LLM.GeminiAPIKey, cfg.LLM.GeminiModel)
	if err != nil {
		logger.Fatal("Failed to init gemini client", zap.Error(err))
	}
	groq := llm.NewGroqClient(cfg.LLM.GroqAPIKey, cfg.LLM.GroqModel)
	chain := llm.NewChain(cfg.LLM.TimeoutDuration(), gemini, groq)

	// 设置Gin模式
	gin.SetMode(cfg.App.Mode)

	// 创建Gin路由器（不使用默认中间件）
	r := gin.New()

	// 使用自定义中间件
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())

	// 初始化依赖（Repository -> Service -> Handler）
	db := database.Get()
	userRepo := repository.NewUserRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	pipeline := sentiment.NewPipeline(
		sentiment.NewClassifier(chain),
		sentiment.NewRewriter(chain),
		cfg.LLM.BatchSize(),
	)

	authService := service.NewAuthService(userRepo)
	commentService := service.NewCommentService(commentRepo)
	rewriteService := service.NewRewriteService(commentRepo, pipeline)
	exportService := service.NewExportService(commentRepo)
	searchService := service.NewSearchService(commentRepo)
	// 分析问答同样套单次调用超时，供应商挂起时走兜底回答而不是拖死请求
	analyticsService := analytics.NewService(llm.NewChain(cfg.LLM.TimeoutDuration(), gemini), analyticsRepo)

	authHandler := handler.NewAuthHandler(authService)
	commentHandler := handler.NewCommentHandler(commentService, rewriteService, exportService)
	searchHandler := handler.NewSearchHandler(searchService)
	chatHandler := handler.NewChatHandler(analyticsService)

	// 注册基础路由
	r.GET("/healthz", healthCheckHandler)
	r.GET("/", rootHandler)

	// Swagger 文档路由
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 注册业务路由
	router.Setup(r, authHandler, commentHandler, searchHandler, chatHandler)

	// 启动服务器
	addr := fmt.Sprintf(":%d", cfg.App.Port)
	logger.Info("Starting application",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("mode", cfg.App.Mode),
		zap.String("addr", addr),
	)
	logger.Info("Configuration loaded",
		zap.String("database", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)),
		zap.String("redis", cfg.Redis.Addr()),
		zap.String("minio", cfg.MinIO.Endpoint),
	)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// healthCheckHandler 健康检查
func healthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// rootHandler 服务信息
func rootHandler(c *gin.Context) {
	app := config.GetApp()
	c.JSON(http.StatusOK, gin.H{
		"name":    app.Name,
		"version": app.Version,
	})
}
