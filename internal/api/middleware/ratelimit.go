package middleware

import (
	"fmt"
	"time"

	"kindboard-go/internal/api/response"
	infraredis "kindboard-go/internal/infra/redis"
	"kindboard-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimit 基于 Redis 的按用户固定窗口限流（必须在 AuthRequired 之后使用）
// Redis 故障时放行，限流是保护措施而非功能依赖
func RateLimit(scope string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetCurrentUserID(c)
		if !ok {
			response.Unauthorized(c, "缺少认证信息")
			c.Abort()
			return
		}

		key := fmt.Sprintf("ratelimit:%s:%d", scope, userID)
		ctx := c.Request.Context()

		count, err := infraredis.Get().Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("Rate limit check failed, allowing request",
				zap.String("scope", scope),
				zap.Error(err),
			)
			c.Next()
			return
		}
		if count == 1 {
			if err := infraredis.Get().Expire(ctx, key, window).Err(); err != nil {
				// 没挂上TTL的计数器会把用户永久限死，删掉并放行
				logger.Warn("Failed to set rate limit window, dropping counter",
					zap.String("key", key),
					zap.Error(err),
				)
				if delErr := infraredis.Get().Del(ctx, key).Err(); delErr != nil {
					logger.Warn("Failed to drop rate limit counter", zap.String("key", key), zap.Error(delErr))
				}
				c.Next()
				return
			}
		}

		if count > int64(limit) {
			response.TooManyRequests(c, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Next()
	}
}
