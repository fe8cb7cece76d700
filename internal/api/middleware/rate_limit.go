package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"feecc-workbench/pkg/response"
)

// RateLimiter 滑动窗口计数器
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// DeviceRateLimit 按设备限制扫码事件频率，过滤读卡器、扫码枪的连读抖动
// limiter 为 nil 或出错时降级放行
func DeviceRateLimit(limiter RateLimiter, workbench, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limit <= 0 {
			c.Next()
			return
		}

		device := c.GetString("device")
		if device == "" {
			device = c.ClientIP()
		}
		key := fmt.Sprintf("rate_limit:workbench:%d:%s", workbench, device)
		allowed, err := limiter.CheckRateLimit(c.Request.Context(), key, limit, window)
		if err != nil {
			// Redis 出错时降级放行
			c.Next()
			return
		}

		if !allowed {
			response.TooManyRequests(c, 10004, "扫码过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Next()
	}
}
