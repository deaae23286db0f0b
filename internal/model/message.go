package model

import (
	"time"

	"gorm.io/datatypes"
)

// 消息状态
const (
	// MessageStatusPending 占位中，等待角色生成
	MessageStatusPending = "pending"
	// MessageStatusComplete 生成完成
	MessageStatusComplete = "complete"
	// MessageStatusFailed 生成失败
	MessageStatusFailed = "failed"
)

// Message 一条消息。RoleID 为空表示人类用户发送；
// ChainID/ChainOrder 将消息关联到产生它的响应链
type Message struct {
	ID           string            `gorm:"primaryKey;size:36" json:"id"`
	ThreadID     string            `gorm:"index;size:36" json:"thread_id"`
	RoleID       *string           `gorm:"index;size:36" json:"role_id,omitempty"`
	Content      string            `gorm:"type:text" json:"content"`
	TaggedRoleID *string           `gorm:"size:36" json:"tagged_role_id,omitempty"`
	ChainID      *string           `gorm:"size:36;uniqueIndex:idx_messages_chain_order" json:"chain_id,omitempty"`
	ChainOrder   *int              `gorm:"uniqueIndex:idx_messages_chain_order" json:"chain_order,omitempty"`
	ReplyToID    *string           `gorm:"size:36" json:"reply_to_id,omitempty"`
	Status       string            `gorm:"index;size:20;default:complete" json:"status"`
	Metadata     datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt    time.Time         `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (Message) TableName() string {
	return "messages"
}
