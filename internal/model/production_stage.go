package model

import (
	"time"

	"gorm.io/datatypes"
)

// ProductionStage 工序表 — 对应 production_stages
// 一个工序属于一个产品；number 在产品内唯一且递增
type ProductionStage struct {
	StageID          string                      `gorm:"type:varchar(36);primaryKey"       json:"stage_id"`
	UnitUUID         string                      `gorm:"type:varchar(32);not null;index"   json:"parent_unit_uuid"`
	Name             string                      `gorm:"type:varchar(255);not null"        json:"name"`
	SchemaStageID    *string                     `gorm:"type:varchar(64)"                  json:"schema_stage_id,omitempty"`
	Number           int                         `gorm:"not null"                          json:"number"`
	EmployeeCode     *string                     `gorm:"type:varchar(64)"                  json:"employee_name,omitempty"`
	StartTime        *time.Time                  `json:"session_start_time,omitempty"`
	EndTime          *time.Time                  `json:"session_end_time,omitempty"`
	EndedPrematurely bool                        `gorm:"not null;default:false"            json:"ended_prematurely"`
	Completed        bool                        `gorm:"not null;default:false"            json:"completed"`
	VideoHashes      datatypes.JSONSlice[string] `json:"video_hashes,omitempty"`
	ExtraData        datatypes.JSONMap           `json:"additional_info,omitempty"`
}

// TableName 指定表名
func (ProductionStage) TableName() string { return "production_stages" }

// IsOpen 工序已开始但尚未完成
func (s *ProductionStage) IsOpen() bool {
	return s.StartTime != nil && !s.Completed
}

// Duration 工序耗时；未结束的工序按 now 计算
func (s *ProductionStage) Duration(now time.Time) time.Duration {
	if s.StartTime == nil {
		return 0
	}
	end := now
	if s.EndTime != nil {
		end = *s.EndTime
	}
	if end.Before(*s.StartTime) {
		return 0
	}
	return end.Sub(*s.StartTime)
}

// Clone 深拷贝工序值，切片与 map 不与原值共享
func (s ProductionStage) Clone() ProductionStage {
	out := s
	if s.SchemaStageID != nil {
		v := *s.SchemaStageID
		out.SchemaStageID = &v
	}
	if s.EmployeeCode != nil {
		v := *s.EmployeeCode
		out.EmployeeCode = &v
	}
	if s.StartTime != nil {
		v := *s.StartTime
		out.StartTime = &v
	}
	if s.EndTime != nil {
		v := *s.EndTime
		out.EndTime = &v
	}
	if s.VideoHashes != nil {
		out.VideoHashes = append(datatypes.JSONSlice[string]{}, s.VideoHashes...)
	}
	out.ExtraData = mergeExtra(s.ExtraData, nil)
	return out
}

// mergeExtra 返回 base 与 extra 合并后的新 map，extra 中的键覆盖 base
func mergeExtra(base datatypes.JSONMap, extra map[string]interface{}) datatypes.JSONMap {
	if base == nil && len(extra) == 0 {
		return nil
	}
	out := make(datatypes.JSONMap, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
