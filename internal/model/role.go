package model

import (
	"time"

	"gorm.io/datatypes"
)

// Role AI 角色配置。Tag 用于 @引用，全局唯一
type Role struct {
	ID           string                      `gorm:"primaryKey;size:36" json:"id"`
	Name         string                      `gorm:"size:100" json:"name"`
	Tag          string                      `gorm:"uniqueIndex;size:50" json:"tag"`
	Instructions string                      `gorm:"type:text" json:"instructions"`
	Model        string                      `gorm:"size:100" json:"model"`
	Expertise    datatypes.JSONSlice[string] `json:"expertise,omitempty"`
	Capabilities datatypes.JSONSlice[string] `json:"capabilities,omitempty"`
	CreatedAt    time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (Role) TableName() string {
	return "roles"
}
