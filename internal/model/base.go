package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// ── 组件槽位 JSON 类型 ──

// ComponentSlots 组件槽位：所需组件的生产方案 ID → 已装配组件的 internal_id（空串表示未装配）。
// 实现 GORM Scanner/Valuer 接口，PostgreSQL 中存为 JSONB，SQLite 中存为 JSON 文本。
type ComponentSlots map[string]string

// Scan 将数据库中的 JSON 文本解析为槽位表。
func (s *ComponentSlots) Scan(src interface{}) error {
	if src == nil {
		*s = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("ComponentSlots.Scan: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*s = ComponentSlots{}
		return nil
	}
	slots := ComponentSlots{}
	if err := json.Unmarshal(raw, &slots); err != nil {
		return fmt.Errorf("ComponentSlots.Scan: %w", err)
	}
	*s = slots
	return nil
}

// Value 将槽位表序列化为 JSON 文本。
func (s ComponentSlots) Value() (driver.Value, error) {
	if s == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// GormDBDataType 按方言选择列类型。
func (ComponentSlots) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "JSONB"
	}
	return "JSON"
}

// SchemaIDs 按字典序返回所有槽位的方案 ID，保证输出稳定。
func (s ComponentSlots) SchemaIDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone 复制槽位表
func (s ComponentSlots) Clone() ComponentSlots {
	if s == nil {
		return nil
	}
	out := make(ComponentSlots, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// BaseModel 通用时间戳字段
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
