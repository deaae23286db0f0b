package repository

import "gorm.io/gorm"

// Repositories 仓库集合，用于统一管理所有仓库
type Repositories struct {
	DB          *gorm.DB // 直接访问数据库
	Thread      *ThreadRepository
	Role        *RoleRepository
	Message     *MessageRepository
	State       *StateRepository
	Interaction *InteractionRepository
	Memory      *MemoryRepository
}

// NewRepositories 创建所有仓库
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:          db,
		Thread:      NewThreadRepository(db),
		Role:        NewRoleRepository(db),
		Message:     NewMessageRepository(db),
		State:       NewStateRepository(db),
		Interaction: NewInteractionRepository(db),
		Memory:      NewMemoryRepository(db),
	}
}
