package repository

import (
	"github.com/ashwinyue/roundtable/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StateRepository 会话状态数据访问
type StateRepository struct {
	db *gorm.DB
}

// NewStateRepository 创建状态仓库
func NewStateRepository(db *gorm.DB) *StateRepository {
	return &StateRepository{db: db}
}

// GetByThreadID 获取线程的会话状态
func (r *StateRepository) GetByThreadID(threadID string) (*model.ConversationState, error) {
	var state model.ConversationState
	err := r.db.Where("thread_id = ?", threadID).First(&state).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// Create 创建会话状态
func (r *StateRepository) Create(state *model.ConversationState) error {
	return r.db.Create(state).Error
}

// UpdateCurrentState 条件更新当前状态。
// 带 from 条件的单语句更新保证失败的转换不会落库
func (r *StateRepository) UpdateCurrentState(threadID, from, to string) (bool, error) {
	result := r.db.Model(&model.ConversationState{}).
		Where("thread_id = ? AND current_state = ?", threadID, from).
		Update("current_state", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SetActiveRoles 记录本轮参与的角色集合
func (r *StateRepository) SetActiveRoles(threadID string, roleIDs []string) error {
	return r.db.Model(&model.ConversationState{}).
		Where("thread_id = ?", threadID).
		Update("active_role_ids", datatypes.NewJSONSlice(roleIDs)).Error
}
