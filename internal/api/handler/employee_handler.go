package handler

import (
	"github.com/gin-gonic/gin"

	"feecc-workbench/internal/dto"
	"feecc-workbench/internal/service"
	"feecc-workbench/pkg/response"
)

// EmployeeHandler 员工 HTTP 处理器
type EmployeeHandler struct {
	employeeSvc service.EmployeeService
}

// NewEmployeeHandler 创建 EmployeeHandler
func NewEmployeeHandler(employeeSvc service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{employeeSvc: employeeSvc}
}

// GetEmployee 按 RFID 卡号查询员工
// GET /api/v1/employees/:card_id
func (h *EmployeeHandler) GetEmployee(c *gin.Context) {
	emp, err := h.employeeSvc.GetByCardID(c.Request.Context(), c.Param("card_id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, emp)
}

// UpsertEmployee 新增或更新员工
// POST /api/v1/employees
func (h *EmployeeHandler) UpsertEmployee(c *gin.Context) {
	var req dto.UpsertEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20000, "参数校验失败: "+err.Error())
		return
	}
	emp, err := h.employeeSvc.Upsert(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, emp)
}
