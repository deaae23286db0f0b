// Package relevance 计算角色与消息的相关度
package relevance

import (
	"context"
	"strings"

	"github.com/ashwinyue/roundtable/internal/model"
)

// 信号权重。能力匹配权重最高：显式能力是比词面重合更强的相关信号
const (
	weightKeyword    = 0.35
	weightHistory    = 0.20
	weightCapability = 0.45

	// historyCap 历史交互计数上限，防止活跃角色无限占优
	historyCap = 10

	// minTermLength 参与词面重合的指令词最小长度
	minTermLength = 3
)

// capabilityTriggers 各能力的触发关键词
var capabilityTriggers = map[string][]string{
	"web_search":        {"search", "latest", "news", "current", "today", "look up"},
	"document_analysis": {"document", "file", "pdf", "report", "summarize", "analyze"},
	"code_execution":    {"code", "script", "run", "debug", "execute"},
	"data_analysis":     {"data", "chart", "metric", "statistics", "trend"},
}

// HistoryStore 历史交互计数查询，只读
type HistoryStore interface {
	CountByResponder(threadID, roleID string) (int64, error)
}

// Scorer 相关度打分器。
// 纯函数加只读历史查询，不做任何写入
type Scorer struct {
	history HistoryStore
}

// NewScorer 创建打分器
func NewScorer(history HistoryStore) *Scorer {
	return &Scorer{history: history}
}

// Score 计算角色对消息的相关度，越高越相关
func (s *Scorer) Score(ctx context.Context, role *model.Role, content, threadID string) float64 {
	lower := strings.ToLower(content)

	score := weightKeyword * keywordOverlap(role, lower)
	score += weightHistory * s.historySignal(threadID, role.ID)
	score += weightCapability * capabilityMatch(role, lower)

	return score
}

// keywordOverlap 指令与专长词条在消息中出现的比例
func keywordOverlap(role *model.Role, lowerContent string) float64 {
	terms := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(role.Instructions)) {
		word = strings.Trim(word, ".,:;!?\"'()")
		if len(word) > minTermLength {
			terms[word] = struct{}{}
		}
	}
	for _, tag := range role.Expertise {
		terms[strings.ToLower(tag)] = struct{}{}
	}

	if len(terms) == 0 {
		return 0
	}

	matched := 0
	for term := range terms {
		if strings.Contains(lowerContent, term) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

// historySignal 归一化的历史交互计数，封顶于 historyCap
func (s *Scorer) historySignal(threadID, roleID string) float64 {
	if s.history == nil || threadID == "" {
		return 0
	}
	count, err := s.history.CountByResponder(threadID, roleID)
	if err != nil {
		return 0
	}
	if count > historyCap {
		count = historyCap
	}
	return float64(count) / float64(historyCap)
}

// capabilityMatch 角色声明的能力中被消息触发的比例
func capabilityMatch(role *model.Role, lowerContent string) float64 {
	if len(role.Capabilities) == 0 {
		return 0
	}

	matched := 0
	for _, capability := range role.Capabilities {
		for _, trigger := range capabilityTriggers[strings.ToLower(capability)] {
			if strings.Contains(lowerContent, trigger) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(role.Capabilities))
}
