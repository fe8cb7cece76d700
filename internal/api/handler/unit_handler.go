package handler

import (
	"github.com/gin-gonic/gin"

	"feecc-workbench/internal/dto"
	"feecc-workbench/internal/service"
	"feecc-workbench/pkg/response"
)

// UnitHandler 产品模块 HTTP 处理器
type UnitHandler struct {
	benchSvc service.WorkbenchService
	unitSvc  service.UnitService
}

// NewUnitHandler 创建 UnitHandler；产品创建经由工位完成
func NewUnitHandler(benchSvc service.WorkbenchService, unitSvc service.UnitService) *UnitHandler {
	return &UnitHandler{benchSvc: benchSvc, unitSvc: unitSvc}
}

// CreateUnit 按生产方案创建产品
// POST /api/v1/units
func (h *UnitHandler) CreateUnit(c *gin.Context) {
	var req dto.CreateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20000, "参数校验失败: "+err.Error())
		return
	}
	unit, err := h.benchSvc.CreateUnit(c.Request.Context(), req.SchemaID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Created(c, unit)
}

// ListUnits 产品列表
// GET /api/v1/units
func (h *UnitHandler) ListUnits(c *gin.Context) {
	var req dto.UnitListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 20000, "参数校验失败: "+err.Error())
		return
	}
	units, total, err := h.unitSvc.ListUnits(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OKPage(c, units, total, req.GetPage(), req.GetPageSize())
}

// GetUnit 产品详情
// GET /api/v1/units/:id
func (h *UnitHandler) GetUnit(c *gin.Context) {
	unit, err := h.unitSvc.GetUnit(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, unit)
}

// StartRevision 已完成产品进入返修
// POST /api/v1/units/:id/revision
func (h *UnitHandler) StartRevision(c *gin.Context) {
	unit, err := h.unitSvc.StartRevision(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, unit)
}

// Finalize 已完成产品归档
// POST /api/v1/units/:id/finalize
func (h *UnitHandler) Finalize(c *gin.Context) {
	unit, err := h.unitSvc.Finalize(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, unit)
}
