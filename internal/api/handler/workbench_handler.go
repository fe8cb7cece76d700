package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"feecc-workbench/internal/dto"
	"feecc-workbench/internal/service"
	"feecc-workbench/pkg/response"
)

// WorkbenchHandler 工位状态机 HTTP 处理器
type WorkbenchHandler struct {
	benchSvc service.WorkbenchService
}

// NewWorkbenchHandler 创建 WorkbenchHandler
func NewWorkbenchHandler(benchSvc service.WorkbenchService) *WorkbenchHandler {
	return &WorkbenchHandler{benchSvc: benchSvc}
}

// Status 当前工位快照
// GET /api/v1/workbench/status
func (h *WorkbenchHandler) Status(c *gin.Context) {
	response.OK(c, h.benchSvc.Snapshot())
}

// StatusStream 以 SSE 推送工位快照，连接建立时先推送当前快照
// GET /api/v1/workbench/status/stream
func (h *WorkbenchHandler) StatusStream(c *gin.Context) {
	ctx := c.Request.Context()
	snapshots := h.benchSvc.Subscribe(ctx)

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case snap, ok := <-snapshots:
			if !ok {
				return false
			}
			c.SSEvent("state", snap)
			return true
		}
	})
}

// LogIn 员工登录
// POST /api/v1/workbench/log-in
func (h *WorkbenchHandler) LogIn(c *gin.Context) {
	var req dto.LogInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20000, "参数校验失败: "+err.Error())
		return
	}
	snap, err := h.benchSvc.LogIn(c.Request.Context(), req.EmployeeCardID)
	h.reply(c, snap, err)
}

// LogOut 员工登出
// POST /api/v1/workbench/log-out
func (h *WorkbenchHandler) LogOut(c *gin.Context) {
	snap, err := h.benchSvc.LogOut(c.Request.Context())
	h.reply(c, snap, err)
}

// AssignUnit 将产品分配到工位
// POST /api/v1/workbench/assign-unit/:id
func (h *WorkbenchHandler) AssignUnit(c *gin.Context) {
	snap, err := h.benchSvc.AssignUnit(c.Request.Context(), c.Param("id"))
	h.reply(c, snap, err)
}

// RemoveUnit 从工位移除产品
// POST /api/v1/workbench/remove-unit
func (h *WorkbenchHandler) RemoveUnit(c *gin.Context) {
	snap, err := h.benchSvc.RemoveUnit(c.Request.Context())
	h.reply(c, snap, err)
}

// AssignComponent 向组合产品装配组件
// POST /api/v1/workbench/assign-component/:id
func (h *WorkbenchHandler) AssignComponent(c *gin.Context) {
	snap, err := h.benchSvc.AssignComponent(c.Request.Context(), c.Param("id"))
	h.reply(c, snap, err)
}

// StartOperation 开始下一道工序
// POST /api/v1/workbench/start-operation
func (h *WorkbenchHandler) StartOperation(c *gin.Context) {
	var req dto.StartOperationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 20000, "参数校验失败: "+err.Error())
			return
		}
	}
	snap, err := h.benchSvc.StartOperation(c.Request.Context(), req.AdditionalInfo)
	h.reply(c, snap, err)
}

// EndOperation 结束进行中的工序
// POST /api/v1/workbench/end-operation
func (h *WorkbenchHandler) EndOperation(c *gin.Context) {
	var req dto.EndOperationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 20000, "参数校验失败: "+err.Error())
			return
		}
	}
	snap, err := h.benchSvc.EndOperation(c.Request.Context(), req.AdditionalInfo, req.Premature)
	h.reply(c, snap, err)
}

// UploadCertificate 生成并发布产品证书
// POST /api/v1/workbench/upload-certificate
func (h *WorkbenchHandler) UploadCertificate(c *gin.Context) {
	resp, err := h.benchSvc.UploadCertificate(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, resp)
}

// HIDEvent 扫码设备事件，设备名取自设备令牌
// POST /api/v1/workbench/hid-event
func (h *WorkbenchHandler) HIDEvent(c *gin.Context) {
	device, ok := MustGetDevice(c)
	if !ok {
		return
	}
	var req dto.HIDEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20000, "参数校验失败: "+err.Error())
		return
	}

	snap, err := h.benchSvc.HandleHIDEvent(c.Request.Context(), device, req.String)
	if errors.Is(err, service.ErrUnknownDevice) {
		response.BadRequest(c, 20000, err.Error())
		return
	}
	h.reply(c, snap, err)
}

func (h *WorkbenchHandler) reply(c *gin.Context, snap *dto.WorkbenchSnapshot, err error) {
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, snap)
}
