package model

import "gorm.io/datatypes"

// SchemaStage 生产方案中的单个工序模板
type SchemaStage struct {
	Name        string `json:"name"`
	StageID     string `json:"stage_id"`
	Description string `json:"description,omitempty"`
}

// ProductionSchema 生产方案表 — 对应 production_schemas
// 描述产品需要经过的工序，以及组合产品所需的组件方案
type ProductionSchema struct {
	SchemaID                    string                          `gorm:"type:varchar(64);primaryKey"  json:"schema_id"`
	UnitName                    string                          `gorm:"type:varchar(255);not null"   json:"unit_name"`
	UnitShortName               *string                         `gorm:"type:varchar(64)"             json:"unit_short_name,omitempty"`
	ParentSchemaID              *string                         `gorm:"type:varchar(64)"             json:"parent_schema_id,omitempty"`
	ProductionStages            datatypes.JSONSlice[SchemaStage] `json:"production_stages"`
	RequiredComponentsSchemaIDs datatypes.JSONSlice[string]      `json:"required_components_schema_ids"`
	BaseModel
}

// TableName 指定表名
func (ProductionSchema) TableName() string { return "production_schemas" }

// IsComposite 是否为组合产品（需要装配其他产品作为组件）
func (s *ProductionSchema) IsComposite() bool {
	return len(s.RequiredComponentsSchemaIDs) > 0
}

// IsAComponent 是否作为其他产品的组件出现
func (s *ProductionSchema) IsAComponent() bool {
	return s.ParentSchemaID != nil && *s.ParentSchemaID != ""
}

// PrintName 标签与证书上使用的名称，优先使用简称
func (s *ProductionSchema) PrintName() string {
	if s.UnitShortName != nil && *s.UnitShortName != "" {
		return *s.UnitShortName
	}
	return s.UnitName
}
