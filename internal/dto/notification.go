package dto

// ── 操作员通知 DTO ──

// NotificationRequest 推送通知请求
type NotificationRequest struct {
	Message string `json:"message" binding:"required,max=500"`
	Level   string `json:"level"   binding:"omitempty,oneof=default info warning success error"`
}

// NotificationResponse 通知内容
type NotificationResponse struct {
	Level     string `json:"level"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}
