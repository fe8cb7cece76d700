package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	"feecc-workbench/internal/dto"
	"feecc-workbench/internal/service"
	"feecc-workbench/pkg/response"
)

// NotificationHandler 操作员通知 HTTP 处理器
type NotificationHandler struct {
	messenger *service.Messenger
}

// NewNotificationHandler 创建 NotificationHandler
func NewNotificationHandler(messenger *service.Messenger) *NotificationHandler {
	return &NotificationHandler{messenger: messenger}
}

// Push 推送一条通知到工位前端
// POST /api/v1/notifications
func (h *NotificationHandler) Push(c *gin.Context) {
	var req dto.NotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20000, "参数校验失败: "+err.Error())
		return
	}
	h.messenger.Push(service.ParseMessageLevel(req.Level), req.Message)
	response.OK(c, nil)
}

// Stream 以 SSE 推送通知
// GET /api/v1/notifications
func (h *NotificationHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	messages := h.messenger.Subscribe(ctx)

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-messages:
			if !ok {
				return false
			}
			c.SSEvent("message", dto.NotificationResponse{
				Level:     string(msg.Level),
				Message:   msg.Text,
				CreatedAt: msg.CreatedAt.Format(dto.TimeLayout),
			})
			return true
		}
	})
}
