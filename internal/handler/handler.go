// Package handler 提供 HTTP 处理器
package handler

import "github.com/ashwinyue/roundtable/internal/service"

// Handlers 处理器集合
type Handlers struct {
	Thread  *ThreadHandler
	Role    *RoleHandler
	Message *MessageHandler
	Memory  *MemoryHandler
}

// NewHandlers 创建所有处理器
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Thread:  NewThreadHandler(svc),
		Role:    NewRoleHandler(svc),
		Message: NewMessageHandler(svc),
		Memory:  NewMemoryHandler(svc),
	}
}
