package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"feecc-workbench/internal/dto"
	"feecc-workbench/internal/service"
	"feecc-workbench/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportUnits 导出产品履历
// GET /api/v1/export/units?status=built&schema_id=xxx
func (h *ExportHandler) ExportUnits(c *gin.Context) {
	var req dto.UnitListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 20000, "参数校验失败: "+err.Error())
		return
	}

	buf, filename, err := h.exportSvc.ExportUnits(c.Request.Context(), req.Status, req.SchemaID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoUnits):
		response.NotFound(c, 20002, "没有符合条件的产品")
	default:
		handleServiceError(c, err)
	}
}
