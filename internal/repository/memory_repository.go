package repository

import (
	"encoding/json"
	"time"

	"github.com/ashwinyue/roundtable/internal/model"
	"gorm.io/gorm"
)

// MemoryRepository 记忆数据访问。
// 相似检索由存储端过程 get_similar_memories 完成
type MemoryRepository struct {
	db *gorm.DB
}

// NewMemoryRepository 创建记忆仓库
func NewMemoryRepository(db *gorm.DB) *MemoryRepository {
	return &MemoryRepository{db: db}
}

// Create 创建记忆
func (r *MemoryRepository) Create(memory *model.Memory) error {
	return r.db.Create(memory).Error
}

// Update 更新记忆
func (r *MemoryRepository) Update(memory *model.Memory) error {
	return r.db.Save(memory).Error
}

// GetByID 获取记忆
func (r *MemoryRepository) GetByID(id string) (*model.Memory, error) {
	var memory model.Memory
	err := r.db.Where("id = ?", id).First(&memory).Error
	if err != nil {
		return nil, err
	}
	return &memory, nil
}

// ListByRole 列出角色的记忆
func (r *MemoryRepository) ListByRole(roleID string, offset, limit int) ([]*model.Memory, error) {
	var memories []*model.Memory
	err := r.db.Where("role_id = ?", roleID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&memories).Error
	return memories, err
}

// FindSimilar 按向量相似度检索未合并的记忆。
// 过程在服务端过滤低于阈值与已合并的条目
func (r *MemoryRepository) FindSimilar(roleID string, embedding []float64, threshold float64, limit int) ([]*model.Memory, error) {
	vector, err := json.Marshal(embedding)
	if err != nil {
		return nil, err
	}

	var memories []*model.Memory
	err = r.db.Raw(
		"SELECT * FROM get_similar_memories(?::jsonb, ?, ?, ?)",
		string(vector), threshold, limit, roleID,
	).Scan(&memories).Error
	return memories, err
}

// MarkAccessed 检索命中后累加访问计数
func (r *MemoryRepository) MarkAccessed(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now()
	return r.db.Model(&model.Memory{}).
		Where("id IN ?", ids).
		UpdateColumns(map[string]interface{}{
			"access_count":     gorm.Expr("access_count + 1"),
			"last_accessed_at": now,
		}).Error
}

// FindUnconsolidated 获取角色未合并的记忆
func (r *MemoryRepository) FindUnconsolidated(roleID string) ([]*model.Memory, error) {
	var memories []*model.Memory
	err := r.db.Where("role_id = ? AND consolidated = ?", roleID, false).
		Order("created_at ASC").
		Find(&memories).Error
	return memories, err
}

// MarkConsolidated 标记记忆已被合并，保证合并幂等
func (r *MemoryRepository) MarkConsolidated(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&model.Memory{}).
		Where("id IN ?", ids).
		Update("consolidated", true).Error
}

// FindExpired 获取角色已过期的记忆
func (r *MemoryRepository) FindExpired(roleID string) ([]*model.Memory, error) {
	var memories []*model.Memory
	err := r.db.Where("role_id = ? AND expires_at IS NOT NULL AND expires_at < ?", roleID, time.Now()).
		Find(&memories).Error
	return memories, err
}

// Delete 删除记忆
func (r *MemoryRepository) Delete(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Delete(&model.Memory{}, "id IN ?", ids).Error
}
