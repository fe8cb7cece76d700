package dto

// ── 生产方案模块 DTO ──

// SchemaStageRequest 方案工序
type SchemaStageRequest struct {
	Name        string `json:"name"        binding:"required,max=255"`
	StageID     string `json:"stage_id"    binding:"required,max=64"`
	Description string `json:"description" binding:"omitempty,max=1000"`
}

// UpsertSchemaRequest 新增或更新生产方案
type UpsertSchemaRequest struct {
	SchemaID                    string               `json:"schema_id"                      binding:"required,max=64"`
	UnitName                    string               `json:"unit_name"                      binding:"required,max=255"`
	UnitShortName               *string              `json:"unit_short_name"                binding:"omitempty,max=64"`
	ParentSchemaID              *string              `json:"parent_schema_id"               binding:"omitempty,max=64"`
	ProductionStages            []SchemaStageRequest `json:"production_stages"              binding:"required,min=1,dive"`
	RequiredComponentsSchemaIDs []string             `json:"required_components_schema_ids" binding:"omitempty,dive,max=64"`
}

// SchemaResponse 生产方案；列表接口中组件方案嵌套在 Components 下
type SchemaResponse struct {
	SchemaID                    string               `json:"schema_id"`
	UnitName                    string               `json:"unit_name"`
	UnitShortName               *string              `json:"unit_short_name,omitempty"`
	ParentSchemaID              *string              `json:"parent_schema_id,omitempty"`
	IsComposite                 bool                 `json:"is_composite"`
	ProductionStages            []SchemaStageRequest `json:"production_stages"`
	RequiredComponentsSchemaIDs []string             `json:"required_components_schema_ids"`
	Components                  []SchemaResponse     `json:"components,omitempty"`
}
