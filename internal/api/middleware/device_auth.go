package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"feecc-workbench/pkg/jwt"
	"feecc-workbench/pkg/response"
)

// DeviceAuth HID 网关设备令牌认证
// 从 Authorization: Bearer <token> 中解析设备令牌，令牌绑定的工位必须与本进程一致
func DeviceAuth(jwtMgr *jwt.Manager, workbench int) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "缺少认证头")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "认证头格式无效")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "设备令牌无效或已过期")
			c.Abort()
			return
		}

		if claims.Workbench != workbench {
			response.Forbidden(c, 10003, "设备未绑定到本工位")
			c.Abort()
			return
		}

		c.Set("device", claims.Device)
		c.Next()
	}
}
