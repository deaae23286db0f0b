package model

import (
	"time"

	"gorm.io/datatypes"
)

// 会话宏观状态，构成固定的状态环
const (
	// StateInitialAnalysis 初始分析
	StateInitialAnalysis = "initial_analysis"
	// StateRoleSelection 角色选择
	StateRoleSelection = "role_selection"
	// StateResponseGeneration 响应生成
	StateResponseGeneration = "response_generation"
	// StateChainProcessing 链处理
	StateChainProcessing = "chain_processing"
	// StateCompletion 本轮完成
	StateCompletion = "completion"
)

// ConversationState 线程当前宏观状态，每线程一行，首次使用时惰性创建
type ConversationState struct {
	ID            string                      `gorm:"primaryKey;size:36" json:"id"`
	ThreadID      string                      `gorm:"uniqueIndex;size:36" json:"thread_id"`
	CurrentState  string                      `gorm:"size:32" json:"current_state"`
	ActiveRoleIDs datatypes.JSONSlice[string] `json:"active_role_ids,omitempty"`
	Metadata      datatypes.JSONMap           `json:"metadata,omitempty"`
	CreatedAt     time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (ConversationState) TableName() string {
	return "conversation_states"
}
