package relevance

import (
	"context"
	"fmt"
	"testing"

	"github.com/ashwinyue/roundtable/internal/testutil"
	"gorm.io/datatypes"
)

// mockHistoryStore 模拟历史交互计数
type mockHistoryStore struct {
	counts map[string]int64 // roleID -> count
	err    error
}

func (m *mockHistoryStore) CountByResponder(threadID, roleID string) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.counts[roleID], nil
}

// ========== Scorer 测试 ==========

func TestScoreKeywordOverlap(t *testing.T) {
	scorer := NewScorer(nil)
	ctx := context.Background()

	role := testutil.NewRole("r1", "Designer", "Designer")
	role.Instructions = "You advise on visual design and layout decisions."
	role.Expertise = datatypes.NewJSONSlice([]string{"design", "layout"})

	matching := scorer.Score(ctx, role, "I need help with the layout and visual design of my page", "")
	unrelated := scorer.Score(ctx, role, "what is the capital of France", "")

	if matching <= unrelated {
		t.Errorf("matching score %f should exceed unrelated score %f", matching, unrelated)
	}
}

func TestScoreCapabilityDominates(t *testing.T) {
	scorer := NewScorer(nil)
	ctx := context.Background()

	// 能力权重最高：声明 web_search 的角色在搜索类消息上胜出
	searcher := testutil.NewRole("r1", "Researcher", "Researcher")
	searcher.Capabilities = datatypes.NewJSONSlice([]string{"web_search"})

	generic := testutil.NewRole("r2", "Helper", "Helper")
	generic.Instructions = "You help with general questions about news topics."

	content := "find the latest news about the merger"
	if scorer.Score(ctx, searcher, content, "") <= scorer.Score(ctx, generic, content, "") {
		t.Error("capability-matched role should outscore keyword-only role")
	}
}

func TestScoreHistoryCapped(t *testing.T) {
	history := &mockHistoryStore{counts: map[string]int64{
		"active":   500,
		"moderate": 10,
	}}
	scorer := NewScorer(history)
	ctx := context.Background()

	active := testutil.NewRole("active", "Active", "Active")
	moderate := testutil.NewRole("moderate", "Moderate", "Moderate")

	// 两者都达到计数上限，历史信号相同
	a := scorer.Score(ctx, active, "something neutral", "thread-1")
	b := scorer.Score(ctx, moderate, "something neutral", "thread-1")
	if a != b {
		t.Errorf("history signal should cap: %f vs %f", a, b)
	}
}

func TestScoreHistoryErrorIgnored(t *testing.T) {
	history := &mockHistoryStore{err: fmt.Errorf("db down")}
	scorer := NewScorer(history)
	ctx := context.Background()

	role := testutil.NewRole("r1", "Role", "Role")
	score := scorer.Score(ctx, role, "hello", "thread-1")
	if score != 0 {
		t.Errorf("score with failing history = %f, want 0", score)
	}
}

func TestScorePricingScenario(t *testing.T) {
	scorer := NewScorer(nil)
	ctx := context.Background()

	pricing := testutil.NewRole("r1", "Pricing Analyst", "Pricing")
	pricing.Instructions = "You analyze pricing strategy and revenue models."
	pricing.Expertise = datatypes.NewJSONSlice([]string{"pricing", "revenue"})

	designer := testutil.NewRole("r2", "Designer", "Designer")
	designer.Instructions = "You advise on visual design and branding."
	designer.Expertise = datatypes.NewJSONSlice([]string{"design", "branding"})

	content := "what do you think about our pricing tiers and revenue projections"
	if scorer.Score(ctx, pricing, content, "") <= scorer.Score(ctx, designer, content, "") {
		t.Error("pricing role should outscore designer on a pricing question")
	}
}
