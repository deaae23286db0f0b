package repository

import (
	"github.com/ashwinyue/roundtable/internal/model"
	"gorm.io/gorm"
)

// InteractionRepository 角色交互审计数据访问。
// 深度与链查询委托给存储端过程，保持单语句事务语义
type InteractionRepository struct {
	db *gorm.DB
}

// NewInteractionRepository 创建交互仓库
func NewInteractionRepository(db *gorm.DB) *InteractionRepository {
	return &InteractionRepository{db: db}
}

// Create 追加交互记录
func (r *InteractionRepository) Create(interaction *model.RoleInteraction) error {
	return r.db.Create(interaction).Error
}

// ListByThread 列出线程交互记录
func (r *InteractionRepository) ListByThread(threadID string, offset, limit int) ([]*model.RoleInteraction, error) {
	var interactions []*model.RoleInteraction
	err := r.db.Where("thread_id = ?", threadID).
		Order("created_at ASC").
		Offset(offset).Limit(limit).
		Find(&interactions).Error
	return interactions, err
}

// CountByResponder 统计角色在线程内的历史响应次数
func (r *InteractionRepository) CountByResponder(threadID, roleID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.RoleInteraction{}).
		Where("thread_id = ? AND responder_role_id = ?", threadID, roleID).
		Count(&count).Error
	return count, err
}

// ConversationDepth 获取角色在线程内的当前会话深度
func (r *InteractionRepository) ConversationDepth(threadID, roleID string) (int, error) {
	var depth int
	err := r.db.Raw("SELECT get_conversation_depth(?, ?)", threadID, roleID).Scan(&depth).Error
	return depth, err
}

// NextRespondingRole 查询链上给定位置之后的下一个响应角色
func (r *InteractionRepository) NextRespondingRole(threadID string, currentOrder int) (string, error) {
	var roleID string
	err := r.db.Raw("SELECT get_next_responding_role(?, ?)", threadID, currentOrder).Scan(&roleID).Error
	return roleID, err
}

// ConversationChain 重建线程当前的响应链记录
func (r *InteractionRepository) ConversationChain(threadID, taggedRoleID string) ([]*model.RoleInteraction, error) {
	var interactions []*model.RoleInteraction
	var err error
	if taggedRoleID != "" {
		err = r.db.Raw("SELECT * FROM get_conversation_chain(?, ?)", threadID, taggedRoleID).Scan(&interactions).Error
	} else {
		err = r.db.Raw("SELECT * FROM get_conversation_chain(?)", threadID).Scan(&interactions).Error
	}
	return interactions, err
}
