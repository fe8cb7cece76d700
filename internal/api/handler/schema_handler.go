package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"feecc-workbench/internal/dto"
	"feecc-workbench/internal/service"
	"feecc-workbench/pkg/response"
)

// SchemaHandler 生产方案 HTTP 处理器
type SchemaHandler struct {
	unitSvc service.UnitService
}

// NewSchemaHandler 创建 SchemaHandler
func NewSchemaHandler(unitSvc service.UnitService) *SchemaHandler {
	return &SchemaHandler{unitSvc: unitSvc}
}

// ListSchemas 方案树：组合方案在前，组件嵌套其下
// GET /api/v1/schemas
func (h *SchemaHandler) ListSchemas(c *gin.Context) {
	schemas, err := h.unitSvc.ListSchemas(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, schemas)
}

// GetSchema 方案详情
// GET /api/v1/schemas/:id
func (h *SchemaHandler) GetSchema(c *gin.Context) {
	schema, err := h.unitSvc.GetSchema(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, schema)
}

// UpsertSchema 新增或更新方案
// POST /api/v1/schemas
func (h *SchemaHandler) UpsertSchema(c *gin.Context) {
	var req dto.UpsertSchemaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20000, "参数校验失败: "+err.Error())
		return
	}
	schema, err := h.unitSvc.UpsertSchema(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrSchemaInvalid) {
			response.BadRequest(c, 20000, err.Error())
			return
		}
		handleServiceError(c, err)
		return
	}
	response.OK(c, schema)
}
