package interaction

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/ashwinyue/roundtable/internal/model"
	"github.com/ashwinyue/roundtable/internal/testutil"
)

// mockInteractionStore 模拟交互存储
type mockInteractionStore struct {
	mu           sync.Mutex
	interactions []*model.RoleInteraction
	depthErr     error
}

func (m *mockInteractionStore) Create(interaction *model.RoleInteraction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interactions = append(m.interactions, interaction)
	return nil
}

func (m *mockInteractionStore) ConversationDepth(threadID, roleID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.depthErr != nil {
		return 0, m.depthErr
	}
	depth := 0
	for _, interaction := range m.interactions {
		if interaction.ThreadID == threadID && interaction.ResponderRoleID == roleID {
			depth++
		}
	}
	return depth, nil
}

func (m *mockInteractionStore) NextRespondingRole(threadID string, currentOrder int) (string, error) {
	return "", nil
}

func (m *mockInteractionStore) ConversationChain(threadID, taggedRoleID string) ([]*model.RoleInteraction, error) {
	return nil, nil
}

func (m *mockInteractionStore) ListByThread(threadID string, offset, limit int) ([]*model.RoleInteraction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interactions, nil
}

// ========== Tracker 测试 ==========

func TestTrackDepthIncrements(t *testing.T) {
	store := &mockInteractionStore{}
	tracker := NewTracker(store)
	ctx := context.Background()
	assert := testutil.NewAssertHelper(t)

	first, err := tracker.Track(ctx, "thread-1", nil, "r1", model.InteractionChainResponse, nil)
	assert.NoError(err)
	assert.Equal(1, first.ConversationDepth, "first depth")
	if first.InitiatorRoleID != nil {
		t.Error("human-initiated interaction should have nil initiator")
	}

	initiator := "r1"
	second, err := tracker.Track(ctx, "thread-1", &initiator, "r1", model.InteractionChainResponse, nil)
	assert.NoError(err)
	assert.Equal(2, second.ConversationDepth, "second depth")

	// 其他角色的深度独立计数
	other, err := tracker.Track(ctx, "thread-1", &initiator, "r2", model.InteractionChainResponse, nil)
	assert.NoError(err)
	assert.Equal(1, other.ConversationDepth, "other role depth")
}

func TestTrackDepthErrorFallsBackToZero(t *testing.T) {
	store := &mockInteractionStore{depthErr: fmt.Errorf("db down")}
	tracker := NewTracker(store)

	interaction, err := tracker.Track(context.Background(), "thread-1", nil, "r1", model.InteractionChainResponse, nil)
	if err != nil {
		t.Fatalf("Track() unexpected error: %v", err)
	}
	if interaction.ConversationDepth != 1 {
		t.Errorf("depth with failing count = %d, want 1", interaction.ConversationDepth)
	}
}

// ========== Effectiveness 测试 ==========

func TestEffectiveness(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]interface{}
		want     float64
	}{
		{"no signals", nil, 0.5},
		{"empty metadata", map[string]interface{}{}, 0.5},
		{"high quality", map[string]interface{}{"response_quality": 1.0}, 0.75},
		{"low quality", map[string]interface{}{"response_quality": 0.0}, 0.25},
		{"both signals", map[string]interface{}{"response_quality": 1.0, "context_relevance": 1.0}, 0.9},
		{"int signal accepted", map[string]interface{}{"response_quality": 1}, 0.75},
		{"non-numeric ignored", map[string]interface{}{"response_quality": "great"}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Effectiveness(tt.metadata)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Effectiveness() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestEffectivenessClamped(t *testing.T) {
	high := Effectiveness(map[string]interface{}{"response_quality": 5.0, "context_relevance": 5.0})
	if high != 1 {
		t.Errorf("overshoot = %f, want clamp to 1", high)
	}

	low := Effectiveness(map[string]interface{}{"response_quality": -5.0, "context_relevance": -5.0})
	if low != 0 {
		t.Errorf("undershoot = %f, want clamp to 0", low)
	}
}
