package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Employee 员工表 — 对应 employees
// 通过 RFID 卡号登录工位；工位只读取，不修改
type Employee struct {
	CardID   string `gorm:"type:varchar(64);primaryKey"   json:"rfid_card_id"`
	Name     string `gorm:"type:varchar(255);not null"    json:"name"`
	Position string `gorm:"type:varchar(255);not null"    json:"position"`
	BaseModel
}

// TableName 指定表名
func (Employee) TableName() string { return "employees" }

// PassportCode 员工在产品证书中的匿名标识：SHA-256(卡号 姓名 职位)
func (e *Employee) PassportCode() string {
	sum := sha256.Sum256([]byte(strings.Join([]string{e.CardID, e.Name, e.Position}, " ")))
	return hex.EncodeToString(sum[:])
}
