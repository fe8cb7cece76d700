package dto

// ── 产品模块 DTO ──

// CreateUnitRequest 创建产品请求
type CreateUnitRequest struct {
	SchemaID string `json:"schema_id" binding:"required,max=64"`
}

// UnitListRequest 产品列表查询参数
type UnitListRequest struct {
	PaginationRequest
	Status   string `form:"status"    binding:"omitempty,oneof=production built revision finalized"`
	SchemaID string `form:"schema_id" binding:"omitempty,max=64"`
}

// StageResponse 工序信息
type StageResponse struct {
	StageID          string                 `json:"stage_id"`
	Name             string                 `json:"name"`
	Number           int                    `json:"number"`
	EmployeeCode     *string                `json:"employee_name,omitempty"`
	StartTime        *string                `json:"session_start_time,omitempty"`
	EndTime          *string                `json:"session_end_time,omitempty"`
	Completed        bool                   `json:"completed"`
	EndedPrematurely bool                   `json:"ended_prematurely"`
	VideoHashes      []string               `json:"video_hashes,omitempty"`
	AdditionalInfo   map[string]interface{} `json:"additional_info,omitempty"`
}

// UnitResponse 产品详细信息
type UnitResponse struct {
	UUID              string            `json:"uuid"`
	InternalID        string            `json:"internal_id"`
	SchemaID          string            `json:"schema_id"`
	UnitName          string            `json:"unit_name,omitempty"`
	Status            string            `json:"status"`
	FeaturedIn        *string           `json:"featured_in_int_id,omitempty"`
	Components        map[string]string `json:"components_internal_ids,omitempty"`
	SerialNumber      *string           `json:"serial_number,omitempty"`
	PassportCID       *string           `json:"passport_ipfs_cid,omitempty"`
	PassportLink      *string           `json:"passport_link,omitempty"`
	PassportShortURL  *string           `json:"passport_short_url,omitempty"`
	TxnHash           *string           `json:"txn_hash,omitempty"`
	PublicationError  *string           `json:"publication_error,omitempty"`
	TotalAssemblyTime string            `json:"total_assembly_time"`
	CreatedAt         string            `json:"creation_time"`
	Biography         []StageResponse   `json:"biography"`
}
