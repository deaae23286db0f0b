package repository

import (
	"github.com/ashwinyue/roundtable/internal/model"
	"gorm.io/gorm"
)

// RoleRepository 角色数据访问
type RoleRepository struct {
	db *gorm.DB
}

// NewRoleRepository 创建角色仓库
func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// Create 创建角色
func (r *RoleRepository) Create(role *model.Role) error {
	return r.db.Create(role).Error
}

// GetByID 获取角色
func (r *RoleRepository) GetByID(id string) (*model.Role, error) {
	var role model.Role
	err := r.db.Where("id = ?", id).First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// GetByTag 按标签获取角色
func (r *RoleRepository) GetByTag(tag string) (*model.Role, error) {
	var role model.Role
	err := r.db.Where("LOWER(tag) = LOWER(?)", tag).First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// List 列出角色
func (r *RoleRepository) List(offset, limit int) ([]*model.Role, error) {
	var roles []*model.Role
	err := r.db.Order("created_at ASC").Offset(offset).Limit(limit).Find(&roles).Error
	return roles, err
}

// Update 更新角色
func (r *RoleRepository) Update(role *model.Role) error {
	return r.db.Save(role).Error
}

// Delete 删除角色
func (r *RoleRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM thread_roles WHERE role_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Role{}, "id = ?", id).Error
	})
}
