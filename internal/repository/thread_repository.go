package repository

import (
	"github.com/ashwinyue/roundtable/internal/model"
	"gorm.io/gorm"
)

// ThreadRepository 线程数据访问
type ThreadRepository struct {
	db *gorm.DB
}

// NewThreadRepository 创建线程仓库
func NewThreadRepository(db *gorm.DB) *ThreadRepository {
	return &ThreadRepository{db: db}
}

// Create 创建线程
func (r *ThreadRepository) Create(thread *model.Thread) error {
	return r.db.Create(thread).Error
}

// GetByID 获取线程（含指派角色）
func (r *ThreadRepository) GetByID(id string) (*model.Thread, error) {
	var thread model.Thread
	err := r.db.Preload("Roles").Where("id = ?", id).First(&thread).Error
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

// List 列出线程
func (r *ThreadRepository) List(userID string, offset, limit int) ([]*model.Thread, error) {
	var threads []*model.Thread
	query := r.db.Order("created_at DESC").Offset(offset).Limit(limit)
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	err := query.Find(&threads).Error
	return threads, err
}

// Update 更新线程
func (r *ThreadRepository) Update(thread *model.Thread) error {
	return r.db.Save(thread).Error
}

// Delete 删除线程及其级联数据
func (r *ThreadRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.Message{}, "thread_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.ConversationState{}, "thread_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.RoleInteraction{}, "thread_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM thread_roles WHERE thread_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Thread{}, "id = ?", id).Error
	})
}

// AssignRole 将角色指派到线程
func (r *ThreadRepository) AssignRole(threadID, roleID string) error {
	thread := model.Thread{ID: threadID}
	role := model.Role{ID: roleID}
	return r.db.Model(&thread).Association("Roles").Append(&role)
}

// UnassignRole 取消角色指派
func (r *ThreadRepository) UnassignRole(threadID, roleID string) error {
	thread := model.Thread{ID: threadID}
	role := model.Role{ID: roleID}
	return r.db.Model(&thread).Association("Roles").Delete(&role)
}

// AssignedRoles 获取线程指派的全部角色
func (r *ThreadRepository) AssignedRoles(threadID string) ([]*model.Role, error) {
	var roles []*model.Role
	err := r.db.Model(&model.Thread{ID: threadID}).
		Order("roles.created_at ASC").
		Association("Roles").
		Find(&roles)
	return roles, err
}
