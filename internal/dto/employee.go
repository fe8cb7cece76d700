package dto

// ── 员工模块 DTO ──

// UpsertEmployeeRequest 新增或更新员工
type UpsertEmployeeRequest struct {
	CardID   string `json:"rfid_card_id" binding:"required,max=64"`
	Name     string `json:"name"         binding:"required,max=255"`
	Position string `json:"position"     binding:"required,max=255"`
}

// EmployeeResponse 员工信息
type EmployeeResponse struct {
	CardID       string `json:"rfid_card_id"`
	Name         string `json:"name"`
	Position     string `json:"position"`
	PassportCode string `json:"passport_code"`
}
