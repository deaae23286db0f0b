package model

import (
	"time"

	"gorm.io/datatypes"
)

// 记忆上下文类型
const (
	// MemoryContextConversation 对话产生的记忆
	MemoryContextConversation = "conversation"
	// MemoryContextConsolidated 合并产生的记忆
	MemoryContextConsolidated = "consolidated"
)

// Memory 角色的一条记忆。Embedding 由外部能力计算，
// 相似检索由存储端过程完成
type Memory struct {
	ID             string                       `gorm:"primaryKey;size:36" json:"id"`
	RoleID         string                       `gorm:"index;size:36" json:"role_id"`
	Content        string                       `gorm:"type:text" json:"content"`
	Embedding      datatypes.JSONSlice[float64] `json:"-"`
	ContextType    string                       `gorm:"size:32;index" json:"context_type"`
	Importance     float64                      `gorm:"default:1.0" json:"importance"`
	Relevance      float64                      `json:"relevance"`
	Confidence     float64                      `json:"confidence"`
	AccessCount    int                          `json:"access_count"`
	LastAccessedAt *time.Time                   `json:"last_accessed_at,omitempty"`
	Consolidated   bool                         `gorm:"index" json:"consolidated"`
	ExpiresAt      *time.Time                   `gorm:"index" json:"expires_at,omitempty"`
	Metadata       datatypes.JSONMap            `json:"metadata,omitempty"`
	CreatedAt      time.Time                    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time                    `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (Memory) TableName() string {
	return "memories"
}
