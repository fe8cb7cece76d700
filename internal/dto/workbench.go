package dto

// ── 工位模块 DTO ──

// LogInRequest 员工登录请求
type LogInRequest struct {
	EmployeeCardID string `json:"employee_rfid_card_no" binding:"required,max=64"`
}

// StartOperationRequest 开始工序请求
type StartOperationRequest struct {
	AdditionalInfo map[string]interface{} `json:"additional_info"`
}

// EndOperationRequest 结束工序请求
type EndOperationRequest struct {
	AdditionalInfo map[string]interface{} `json:"additional_info"`
	Premature      bool                   `json:"premature_ending"`
}

// HIDEventRequest 扫码设备事件；设备名取自设备令牌
type HIDEventRequest struct {
	String string `json:"string" binding:"required,max=128"`
}

// EmployeeSummary 工位快照中的员工信息
type EmployeeSummary struct {
	Name         string `json:"name"`
	Position     string `json:"position"`
	PassportCode string `json:"passport_code"`
}

// WorkbenchSnapshot 工位状态快照（状态查询与状态流共用）
type WorkbenchSnapshot struct {
	Workbench          int               `json:"workbench_no"`
	State              string            `json:"state"`
	Description        string            `json:"state_description"`
	EmployeeLoggedIn   bool              `json:"employee_logged_in"`
	Employee           *EmployeeSummary  `json:"employee"`
	OperationOngoing   bool              `json:"operation_ongoing"`
	UnitInternalID     *string           `json:"unit_internal_id"`
	UnitStatus         *string           `json:"unit_status"`
	OpenStageName      *string           `json:"open_stage_name"`
	UnitBiography      []StageResponse   `json:"unit_biography"`
	AssignedComponents map[string]string `json:"unit_components"`
}

// CertificateResponse 产品证书发布结果
type CertificateResponse struct {
	UnitInternalID   string  `json:"unit_internal_id"`
	PassportPath     string  `json:"passport_path"`
	PassportCID      *string `json:"passport_ipfs_cid,omitempty"`
	PassportLink     *string `json:"passport_link,omitempty"`
	PassportShortURL *string `json:"passport_short_url,omitempty"`
	PublicationError *string `json:"publication_error,omitempty"`
}
