package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	pkgerrors "feecc-workbench/pkg/errors"
	"feecc-workbench/pkg/response"
)

// ContextKeyDevice DeviceAuth 中间件写入的设备名
const ContextKeyDevice = "device"

// MustGetDevice 从 Gin 上下文中安全提取设备名。
// 如果设备认证中间件未注入设备名，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetDevice(c *gin.Context) (string, bool) {
	v, exists := c.Get(ContextKeyDevice)
	if !exists {
		response.Unauthorized(c, 10002, "未认证的设备")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证的设备")
		return "", false
	}
	return s, true
}

// handleServiceError 按错误类别映射 HTTP 状态与业务码
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pkgerrors.ErrStateForbidden):
		response.Forbidden(c, 20001, err.Error())
	case errors.Is(err, pkgerrors.ErrNotFound):
		response.NotFound(c, 20002, err.Error())
	case errors.Is(err, pkgerrors.ErrAssemblyRejected):
		response.Conflict(c, 20003, err.Error())
	case errors.Is(err, pkgerrors.ErrExternalService):
		response.BadGateway(c, 20004, err.Error())
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
