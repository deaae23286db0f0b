// Package memory 提供角色记忆的存取、合并与过期清理
package memory

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ashwinyue/roundtable/internal/model"
	"github.com/ashwinyue/roundtable/internal/service/prompt"
	"github.com/ashwinyue/roundtable/internal/service/types"
	"github.com/google/uuid"
)

const (
	// hardRelevanceFloor 检索相关度的硬下限，配置不允许低于此值
	hardRelevanceFloor = 0.5
	// importanceHalfLifeDays 交互新近度的指数衰减半衰期
	importanceHalfLifeDays = 30
	// accessCountCeiling 访问计数归一化上限
	accessCountCeiling = 10
)

// 重要度权重：新近度、访问计数、存储相关度。
// 仅依赖已存字段，审计时可原样复算
const (
	importanceWeightRecency   = 0.4
	importanceWeightAccess    = 0.3
	importanceWeightRelevance = 0.3
)

// Config 记忆服务配置
type Config struct {
	TTL                    time.Duration // 默认保留时长
	DefaultLimit           int           // 默认检索条数
	MinRelevance           float64       // 检索相关度下限
	MinImportance          float64       // 清理时保留的重要度下限
	ConsolidationThreshold float64       // 合并聚类的相似度阈值
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		TTL:                    30 * 24 * time.Hour,
		DefaultLimit:           5,
		MinRelevance:           0.7,
		MinImportance:          0.3,
		ConsolidationThreshold: 0.85,
	}
}

// Store 记忆存取接口
type Store interface {
	Create(memory *model.Memory) error
	Update(memory *model.Memory) error
	ListByRole(roleID string, offset, limit int) ([]*model.Memory, error)
	FindSimilar(roleID string, embedding []float64, threshold float64, limit int) ([]*model.Memory, error)
	MarkAccessed(ids []string) error
	FindUnconsolidated(roleID string) ([]*model.Memory, error)
	MarkConsolidated(ids []string) error
	FindExpired(roleID string) ([]*model.Memory, error)
	Delete(ids []string) error
}

// Service 记忆服务
type Service struct {
	store    Store
	embedder types.EmbeddingProvider
	config   *Config
}

// NewService 创建记忆服务
func NewService(store Store, embedder types.EmbeddingProvider, config *Config) *Service {
	if config == nil {
		config = DefaultConfig()
	}
	return &Service{store: store, embedder: embedder, config: config}
}

// StoreMemory 写入一条记忆，默认重要度 1.0，按 TTL 推算过期时间
func (s *Service) StoreMemory(ctx context.Context, roleID, content, contextType string, metadata map[string]interface{}) (*model.Memory, error) {
	embedding, err := s.embed(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("failed to embed memory content: %w", err)
	}

	expiresAt := time.Now().Add(s.config.TTL)
	memory := &model.Memory{
		ID:          uuid.New().String(),
		RoleID:      roleID,
		Content:     content,
		Embedding:   embedding,
		ContextType: contextType,
		Importance:  1.0,
		Relevance:   s.config.MinRelevance,
		Confidence:  1.0,
		ExpiresAt:   &expiresAt,
		Metadata:    metadata,
	}

	if err := s.store.Create(memory); err != nil {
		return nil, fmt.Errorf("failed to store memory: %w", err)
	}
	return memory, nil
}

// ListMemories 列出角色的记忆，按时间倒序
func (s *Service) ListMemories(ctx context.Context, roleID string, offset, limit int) ([]*model.Memory, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.ListByRole(roleID, offset, limit)
}

// RetrieveRelevant 按相似度检索记忆。
// 相关度不低于配置下限（且不低于硬下限），长查询自适应收缩条数，
// 命中条目累加访问计数
func (s *Service) RetrieveRelevant(ctx context.Context, roleID, content string, limit int) ([]*model.Memory, error) {
	if limit <= 0 {
		limit = s.config.DefaultLimit
	}
	limit = prompt.AdaptiveLimit(len(content), limit)

	embedding, err := s.embed(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	threshold := s.config.MinRelevance
	if threshold < hardRelevanceFloor {
		threshold = hardRelevanceFloor
	}

	memories, err := s.store.FindSimilar(roleID, embedding, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search memories: %w", err)
	}

	if len(memories) > 0 {
		ids := make([]string, len(memories))
		for i, memory := range memories {
			ids[i] = memory.ID
		}
		if err := s.store.MarkAccessed(ids); err != nil {
			// 计数失败不影响检索结果
			return memories, nil
		}
	}

	return memories, nil
}

// Consolidate 合并角色的近似重复记忆。
// 每个相似聚类合成一条新记忆并标记原件已合并；
// 已合并的记忆不会再次参与聚类，操作幂等
func (s *Service) Consolidate(ctx context.Context, roleID string) (int, error) {
	candidates, err := s.store.FindUnconsolidated(roleID)
	if err != nil {
		return 0, fmt.Errorf("failed to load unconsolidated memories: %w", err)
	}

	merged := 0
	seen := make(map[string]bool)

	for _, candidate := range candidates {
		if seen[candidate.ID] {
			continue
		}

		cluster, err := s.store.FindSimilar(roleID, candidate.Embedding, s.config.ConsolidationThreshold, s.config.DefaultLimit)
		if err != nil {
			return merged, fmt.Errorf("failed to cluster memory %s: %w", candidate.ID, err)
		}

		members := make([]*model.Memory, 0, len(cluster)+1)
		members = append(members, candidate)
		for _, member := range cluster {
			if member.ID != candidate.ID && !seen[member.ID] {
				members = append(members, member)
			}
		}
		if len(members) < 2 {
			seen[candidate.ID] = true
			continue
		}

		if err := s.synthesize(ctx, roleID, members); err != nil {
			return merged, err
		}
		for _, member := range members {
			seen[member.ID] = true
		}
		merged++
	}

	return merged, nil
}

// synthesize 从聚类成员合成一条合并记忆并标记原件
func (s *Service) synthesize(ctx context.Context, roleID string, members []*model.Memory) error {
	contents := make([]string, len(members))
	ids := make([]string, len(members))
	importance := 0.0
	for i, member := range members {
		contents[i] = member.Content
		ids[i] = member.ID
		if member.Importance > importance {
			importance = member.Importance
		}
	}

	combined := strings.Join(contents, "\n")
	embedding, err := s.embed(ctx, combined)
	if err != nil {
		return fmt.Errorf("failed to embed consolidated memory: %w", err)
	}

	expiresAt := time.Now().Add(s.config.TTL)
	memory := &model.Memory{
		ID:          uuid.New().String(),
		RoleID:      roleID,
		Content:     combined,
		Embedding:   embedding,
		ContextType: model.MemoryContextConsolidated,
		Importance:  importance,
		Relevance:   s.config.MinRelevance,
		Confidence:  1.0,
		ExpiresAt:   &expiresAt,
		Metadata:    map[string]interface{}{"source_ids": ids},
	}

	if err := s.store.Create(memory); err != nil {
		return fmt.Errorf("failed to store consolidated memory: %w", err)
	}
	return s.store.MarkConsolidated(ids)
}

// PruneExpired 清理过期记忆。
// 重要度低于下限的删除；仍重要的延长 TTL 并重算重要度
func (s *Service) PruneExpired(ctx context.Context, roleID string) (int, error) {
	expired, err := s.store.FindExpired(roleID)
	if err != nil {
		return 0, fmt.Errorf("failed to load expired memories: %w", err)
	}

	var toDelete []string
	for _, memory := range expired {
		score := ImportanceScore(memory, time.Now())
		if score < s.config.MinImportance {
			toDelete = append(toDelete, memory.ID)
			continue
		}

		extended := time.Now().Add(s.config.TTL)
		memory.ExpiresAt = &extended
		memory.Importance = score
		if err := s.store.Update(memory); err != nil {
			return len(toDelete), fmt.Errorf("failed to extend memory %s: %w", memory.ID, err)
		}
	}

	if err := s.store.Delete(toDelete); err != nil {
		return 0, fmt.Errorf("failed to delete expired memories: %w", err)
	}
	return len(toDelete), nil
}

// ImportanceScore 由已存字段复算重要度：
// 新近度指数衰减（30 天半衰期）+ 归一化访问计数 + 存储相关度
func ImportanceScore(memory *model.Memory, now time.Time) float64 {
	lastActive := memory.CreatedAt
	if memory.LastAccessedAt != nil {
		lastActive = *memory.LastAccessedAt
	}

	days := now.Sub(lastActive).Hours() / 24
	if days < 0 {
		days = 0
	}
	recency := math.Exp(-math.Ln2 * days / importanceHalfLifeDays)

	access := float64(memory.AccessCount) / accessCountCeiling
	if access > 1 {
		access = 1
	}

	return importanceWeightRecency*recency +
		importanceWeightAccess*access +
		importanceWeightRelevance*memory.Relevance
}

func (s *Service) embed(ctx context.Context, text string) ([]float64, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("embedding provider not configured")
	}
	return s.embedder.Embed(ctx, text)
}
