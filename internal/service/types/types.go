// Package types 定义编排核心共享的类型和外部能力接口
package types

import "context"

// CompletionProvider 文本补全能力。
// modelID 为空时使用提供方默认模型
type CompletionProvider interface {
	Complete(ctx context.Context, systemPrompt, modelID, userContent string) (string, error)
}

// EmbeddingProvider 向量化能力
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// ChainEntry 响应链的一个位置，Order 从 1 开始连续
type ChainEntry struct {
	RoleID string `json:"role_id"`
	Order  int    `json:"order"`
}

// Chain 一条响应链：角色按顺序依次响应一条用户消息
type Chain []ChainEntry

// ChainResponse 链内某角色已产生的响应，供后续角色的上下文使用
type ChainResponse struct {
	RoleName string
	Content  string
}

// SingleChain 构造只含一个角色的链（显式 @引用 场景）
func SingleChain(roleID string) Chain {
	return Chain{{RoleID: roleID, Order: 1}}
}
