// Package role 提供角色配置管理
package role

import (
	"context"
	"fmt"

	"github.com/ashwinyue/roundtable/internal/model"
	"github.com/ashwinyue/roundtable/internal/repository"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Service 角色服务
type Service struct {
	repo *repository.Repositories
}

// NewService 创建角色服务
func NewService(repo *repository.Repositories) *Service {
	return &Service{repo: repo}
}

// CreateRoleRequest 创建/更新角色请求
type CreateRoleRequest struct {
	Name         string   `json:"name" binding:"required"`
	Tag          string   `json:"tag" binding:"required"`
	Instructions string   `json:"instructions"`
	Model        string   `json:"model"`
	Expertise    []string `json:"expertise"`
	Capabilities []string `json:"capabilities"`
}

// CreateRole 创建角色
func (s *Service) CreateRole(ctx context.Context, req *CreateRoleRequest) (*model.Role, error) {
	role := &model.Role{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Tag:          req.Tag,
		Instructions: req.Instructions,
		Model:        req.Model,
		Expertise:    datatypes.NewJSONSlice(req.Expertise),
		Capabilities: datatypes.NewJSONSlice(req.Capabilities),
	}

	if err := s.repo.Role.Create(role); err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}

	return role, nil
}

// GetRole 获取角色
func (s *Service) GetRole(ctx context.Context, id string) (*model.Role, error) {
	return s.repo.Role.GetByID(id)
}

// ListRoles 列出角色
func (s *Service) ListRoles(ctx context.Context, page, size int) ([]*model.Role, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return s.repo.Role.List((page-1)*size, size)
}

// UpdateRole 更新角色。角色在回合内不可变，
// 更新只影响后续回合
func (s *Service) UpdateRole(ctx context.Context, id string, req *CreateRoleRequest) (*model.Role, error) {
	role, err := s.repo.Role.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("role not found: %w", err)
	}

	if req.Name != "" {
		role.Name = req.Name
	}
	if req.Tag != "" {
		role.Tag = req.Tag
	}
	if req.Instructions != "" {
		role.Instructions = req.Instructions
	}
	if req.Model != "" {
		role.Model = req.Model
	}
	if req.Expertise != nil {
		role.Expertise = datatypes.NewJSONSlice(req.Expertise)
	}
	if req.Capabilities != nil {
		role.Capabilities = datatypes.NewJSONSlice(req.Capabilities)
	}

	if err := s.repo.Role.Update(role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	return role, nil
}

// DeleteRole 删除角色
func (s *Service) DeleteRole(ctx context.Context, id string) error {
	if err := s.repo.Role.Delete(id); err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	return nil
}
