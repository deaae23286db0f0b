// Package interaction 记录角色间接力并提供链的只读查询
package interaction

import (
	"context"
	"fmt"

	"github.com/ashwinyue/roundtable/internal/model"
	"github.com/google/uuid"
)

// 效果分基准与信号权重
const (
	effectivenessBase      = 0.5
	responseQualityWeight  = 0.5
	contextRelevanceWeight = 0.3
)

// Store 交互记录存取接口
type Store interface {
	Create(interaction *model.RoleInteraction) error
	ConversationDepth(threadID, roleID string) (int, error)
	NextRespondingRole(threadID string, currentOrder int) (string, error)
	ConversationChain(threadID, taggedRoleID string) ([]*model.RoleInteraction, error)
	ListByThread(threadID string, offset, limit int) ([]*model.RoleInteraction, error)
}

// Tracker 交互追踪器
type Tracker struct {
	store Store
}

// NewTracker 创建追踪器
func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

// Track 记录一次交互。深度来自存储端的单调计数，
// 效果分由元数据中的质量信号推导
func (t *Tracker) Track(ctx context.Context, threadID string, initiatorRoleID *string, responderRoleID, interactionType string, metadata map[string]interface{}) (*model.RoleInteraction, error) {
	depth, err := t.store.ConversationDepth(threadID, responderRoleID)
	if err != nil {
		// 深度查询失败时从零计，记录仍然追加
		depth = 0
	}

	interaction := &model.RoleInteraction{
		ID:                uuid.New().String(),
		ThreadID:          threadID,
		InitiatorRoleID:   initiatorRoleID,
		ResponderRoleID:   responderRoleID,
		InteractionType:   interactionType,
		ConversationDepth: depth + 1,
		Effectiveness:     Effectiveness(metadata),
		Metadata:          metadata,
	}

	if err := t.store.Create(interaction); err != nil {
		return nil, fmt.Errorf("failed to track interaction: %w", err)
	}
	return interaction, nil
}

// NextRespondingRole 查询链上当前顺位之后的下一个响应角色
func (t *Tracker) NextRespondingRole(ctx context.Context, threadID string, currentOrder int) (string, error) {
	return t.store.NextRespondingRole(threadID, currentOrder)
}

// ConversationChain 重建线程当前响应链，用于重试时续链而非重建
func (t *Tracker) ConversationChain(ctx context.Context, threadID, taggedRoleID string) ([]*model.RoleInteraction, error) {
	return t.store.ConversationChain(threadID, taggedRoleID)
}

// ListByThread 列出线程交互记录
func (t *Tracker) ListByThread(ctx context.Context, threadID string, offset, limit int) ([]*model.RoleInteraction, error) {
	return t.store.ListByThread(threadID, offset, limit)
}

// Effectiveness 由元数据信号推导效果分：
// 基准 0.5，响应质量与上下文相关度信号按权重偏移，截断到 [0,1]
func Effectiveness(metadata map[string]interface{}) float64 {
	score := effectivenessBase

	if quality, ok := floatField(metadata, "response_quality"); ok {
		score += (quality - 0.5) * responseQualityWeight
	}
	if relevance, ok := floatField(metadata, "context_relevance"); ok {
		score += (relevance - 0.5) * contextRelevanceWeight
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func floatField(metadata map[string]interface{}, key string) (float64, bool) {
	if metadata == nil {
		return 0, false
	}
	switch v := metadata[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}
