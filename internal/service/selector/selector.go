// Package selector 负责消息分类与响应链构建
package selector

import (
	"context"
	"math/rand"
	"regexp"
	"strings"

	"github.com/ashwinyue/roundtable/internal/model"
	"github.com/ashwinyue/roundtable/internal/service/relevance"
	"github.com/ashwinyue/roundtable/internal/service/types"
)

// MessageKind 消息类别
type MessageKind string

const (
	// KindSimple 寒暄/确认类消息，所有角色都响应，顺序随机
	KindSimple MessageKind = "simple"
	// KindTopical 实质话题消息，最相关角色先响应
	KindTopical MessageKind = "topical"
)

// simplePrefixes 寒暄类前缀
var simplePrefixes = []string{
	"hi", "hello", "hey", "yo", "thanks", "thank you",
	"good morning", "good afternoon", "good evening", "good night",
	"ok", "okay", "bye", "goodbye", "see you", "welcome",
}

// simplePatterns 整句匹配的寒暄模式
var simplePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(hi|hello|hey)\s+(all|team|everyone|folks)\W*$`),
	regexp.MustCompile(`^(how are you|what'?s up|nice to meet you)\W*$`),
	regexp.MustCompile(`^(got it|sounds good|great|awesome|cool|nice)\W*$`),
	regexp.MustCompile(`^(yes|no|sure|yep|nope)\W*$`),
}

// Selector 角色选择器与链构建器
type Selector struct {
	scorer *relevance.Scorer
	rng    *rand.Rand
}

// NewSelector 创建选择器。rng 可注入以便测试确定化，传 nil 用默认源
func NewSelector(scorer *relevance.Scorer, rng *rand.Rand) *Selector {
	return &Selector{scorer: scorer, rng: rng}
}

// Classify 将消息分类为寒暄或话题
func Classify(content string) MessageKind {
	normalized := strings.ToLower(strings.TrimSpace(content))
	if normalized == "" {
		return KindSimple
	}

	for _, pattern := range simplePatterns {
		if pattern.MatchString(normalized) {
			return KindSimple
		}
	}

	// 前缀匹配仅对短消息生效，长消息即使以寒暄开头也按话题处理
	if len(normalized) <= 40 {
		for _, prefix := range simplePrefixes {
			if normalized == prefix || strings.HasPrefix(normalized, prefix+" ") ||
				strings.HasPrefix(normalized, prefix+",") || strings.HasPrefix(normalized, prefix+"!") {
				return KindSimple
			}
		}
	}

	return KindTopical
}

// BuildChain 构建响应链。
// 寒暄消息：全员随机顺序；话题消息：最高分角色居首，其余随机。
// 只有开场者由相关度决定，后续顺序保持对话的随机性
func (s *Selector) BuildChain(ctx context.Context, roles []*model.Role, content, threadID string) types.Chain {
	if len(roles) == 0 {
		return nil
	}

	ordered := make([]*model.Role, len(roles))
	copy(ordered, roles)

	if Classify(content) == KindTopical {
		best := 0
		bestScore := -1.0
		for i, role := range ordered {
			score := s.scorer.Score(ctx, role, content, threadID)
			// 平分时保留先遇到的角色
			if score > bestScore {
				best = i
				bestScore = score
			}
		}
		ordered[0], ordered[best] = ordered[best], ordered[0]
		s.shuffle(ordered[1:])
	} else {
		s.shuffle(ordered)
	}

	chain := make(types.Chain, len(ordered))
	for i, role := range ordered {
		chain[i] = types.ChainEntry{RoleID: role.ID, Order: i + 1}
	}
	return chain
}

func (s *Selector) shuffle(roles []*model.Role) {
	swap := func(i, j int) { roles[i], roles[j] = roles[j], roles[i] }
	if s.rng != nil {
		s.rng.Shuffle(len(roles), swap)
	} else {
		rand.Shuffle(len(roles), swap)
	}
}
