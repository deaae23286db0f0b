package model

import (
	"time"

	"gorm.io/datatypes"
)

// 交互类型
const (
	// InteractionChainResponse 链内角色响应
	InteractionChainResponse = "chain_response"
	// InteractionTaggedResponse 显式 @引用 触发的响应
	InteractionTaggedResponse = "tagged_response"
)

// RoleInteraction 一次角色间接力的审计记录，只追加。
// InitiatorRoleID 为空表示由人类消息发起
type RoleInteraction struct {
	ID                string            `gorm:"primaryKey;size:36" json:"id"`
	ThreadID          string            `gorm:"index;size:36" json:"thread_id"`
	InitiatorRoleID   *string           `gorm:"size:36" json:"initiator_role_id,omitempty"`
	ResponderRoleID   string            `gorm:"index;size:36" json:"responder_role_id"`
	InteractionType   string            `gorm:"size:32" json:"interaction_type"`
	ConversationDepth int               `json:"conversation_depth"`
	Effectiveness     float64           `json:"effectiveness"`
	Metadata          datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt         time.Time         `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName 指定表名
func (RoleInteraction) TableName() string {
	return "role_interactions"
}
