package model

import "time"

// Thread 会话线程，聚合消息与指派的角色
type Thread struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Title     string    `gorm:"size:255" json:"title"`
	UserID    string    `gorm:"index;size:36" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	Roles     []Role    `gorm:"many2many:thread_roles" json:"roles,omitempty"`
}

// TableName 指定表名
func (Thread) TableName() string {
	return "threads"
}
