package router

import (
	"time"

	"kindboard-go/internal/api/handler"
	"kindboard-go/internal/api/middleware"

	"github.com/gin-gonic/gin"
)

// Setup 注册所有业务路由
func Setup(
	r *gin.Engine,
	authHandler *handler.AuthHandler,
	commentHandler *handler.CommentHandler,
	searchHandler *handler.SearchHandler,
	chatHandler *handler.ChatHandler,
) {
	v1 := r.Group("/api/v1")

	// --- 认证模块 ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)

		authRequired := auth.Group("", middleware.AuthRequired())
		{
			authRequired.GET("/me", authHandler.Me)
		}
	}

	// --- 评论模块 ---
	comments := v1.Group("/comments", middleware.AuthRequired())
	{
		comments.GET("", commentHandler.List)
		comments.DELETE("", commentHandler.DeleteAll)
		comments.GET("/search", searchHandler.Search)
		comments.GET("/tree/:video_id", commentHandler.Tree)
		comments.POST("/:id/feedback", commentHandler.Feedback)
		comments.POST("/regenerate", commentHandler.Regenerate)
		comments.GET("/regenerate/progress", commentHandler.Progress)
		comments.POST("/export", commentHandler.Export)
	}

	// --- 分析助手模块 ---
	// 每个问题至少一次LLM调用，按用户限流
	assistant := v1.Group("/assistant",
		middleware.AuthRequired(),
		middleware.RateLimit("chat", 20, time.Minute),
	)
	{
		assistant.POST("/chat", chatHandler.Chat)
	}
}
