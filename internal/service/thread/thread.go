// Package thread 提供线程管理与角色指派
package thread

import (
	"context"
	"fmt"

	"github.com/ashwinyue/roundtable/internal/model"
	"github.com/ashwinyue/roundtable/internal/repository"
	"github.com/google/uuid"
)

// Service 线程服务
type Service struct {
	repo *repository.Repositories
}

// NewService 创建线程服务
func NewService(repo *repository.Repositories) *Service {
	return &Service{repo: repo}
}

// CreateThreadRequest 创建线程请求
type CreateThreadRequest struct {
	Title   string   `json:"title"`
	UserID  string   `json:"user_id"`
	RoleIDs []string `json:"role_ids"`
}

// CreateThread 创建线程，可同时指派初始角色
func (s *Service) CreateThread(ctx context.Context, req *CreateThreadRequest) (*model.Thread, error) {
	thread := &model.Thread{
		ID:     uuid.New().String(),
		Title:  req.Title,
		UserID: req.UserID,
	}

	if err := s.repo.Thread.Create(thread); err != nil {
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}

	for _, roleID := range req.RoleIDs {
		if err := s.repo.Thread.AssignRole(thread.ID, roleID); err != nil {
			return nil, fmt.Errorf("failed to assign role %s: %w", roleID, err)
		}
	}

	return s.repo.Thread.GetByID(thread.ID)
}

// GetThread 获取线程
func (s *Service) GetThread(ctx context.Context, id string) (*model.Thread, error) {
	return s.repo.Thread.GetByID(id)
}

// ListThreadsRequest 列出线程请求
type ListThreadsRequest struct {
	UserID string `json:"user_id"`
	Page   int    `json:"page"`
	Size   int    `json:"size"`
}

// ListThreads 列出线程
func (s *Service) ListThreads(ctx context.Context, req *ListThreadsRequest) ([]*model.Thread, int64, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Size <= 0 || req.Size > 100 {
		req.Size = 20
	}

	offset := (req.Page - 1) * req.Size

	threads, err := s.repo.Thread.List(req.UserID, offset, req.Size)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list threads: %w", err)
	}

	total := int64(len(threads))
	return threads, total, nil
}

// RenameThread 重命名线程
func (s *Service) RenameThread(ctx context.Context, id, title string) (*model.Thread, error) {
	thread, err := s.repo.Thread.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("thread not found: %w", err)
	}

	if title != "" {
		thread.Title = title
	}

	if err := s.repo.Thread.Update(thread); err != nil {
		return nil, fmt.Errorf("failed to update thread: %w", err)
	}

	return thread, nil
}

// DeleteThread 删除线程及级联数据
func (s *Service) DeleteThread(ctx context.Context, id string) error {
	if err := s.repo.Thread.Delete(id); err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}
	return nil
}

// AssignRole 将角色指派到线程
func (s *Service) AssignRole(ctx context.Context, threadID, roleID string) error {
	if _, err := s.repo.Role.GetByID(roleID); err != nil {
		return fmt.Errorf("role not found: %w", err)
	}
	if err := s.repo.Thread.AssignRole(threadID, roleID); err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}
	return nil
}

// UnassignRole 取消角色指派
func (s *Service) UnassignRole(ctx context.Context, threadID, roleID string) error {
	if err := s.repo.Thread.UnassignRole(threadID, roleID); err != nil {
		return fmt.Errorf("failed to unassign role: %w", err)
	}
	return nil
}

// Messages 获取线程消息
func (s *Service) Messages(ctx context.Context, threadID string) ([]*model.Message, error) {
	return s.repo.Message.ListByThread(threadID)
}
