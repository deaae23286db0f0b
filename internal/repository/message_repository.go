package repository

import (
	"github.com/ashwinyue/roundtable/internal/model"
	"gorm.io/gorm"
)

// MessageRepository 消息数据访问
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建消息仓库
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create 创建消息
func (r *MessageRepository) Create(msg *model.Message) error {
	return r.db.Create(msg).Error
}

// Update 更新消息
func (r *MessageRepository) Update(msg *model.Message) error {
	return r.db.Save(msg).Error
}

// GetByID 获取单条消息
func (r *MessageRepository) GetByID(id string) (*model.Message, error) {
	var msg model.Message
	err := r.db.Where("id = ?", id).First(&msg).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListByThread 获取线程消息，按时间升序
func (r *MessageRepository) ListByThread(threadID string) ([]*model.Message, error) {
	var messages []*model.Message
	err := r.db.Where("thread_id = ?", threadID).Order("created_at ASC").Find(&messages).Error
	return messages, err
}

// ListRecentByThread 获取线程最近的 N 条消息
func (r *MessageRepository) ListRecentByThread(threadID string, limit int) ([]*model.Message, error) {
	var messages []*model.Message
	err := r.db.Where("thread_id = ?", threadID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

// ListByChain 获取一条响应链的全部消息，按链内顺序
func (r *MessageRepository) ListByChain(chainID string) ([]*model.Message, error) {
	var messages []*model.Message
	err := r.db.Where("chain_id = ?", chainID).Order("chain_order ASC").Find(&messages).Error
	return messages, err
}
