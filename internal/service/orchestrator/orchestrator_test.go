package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/ashwinyue/roundtable/internal/model"
	"github.com/ashwinyue/roundtable/internal/service/conversation"
	"github.com/ashwinyue/roundtable/internal/service/interaction"
	"github.com/ashwinyue/roundtable/internal/service/prompt"
	"github.com/ashwinyue/roundtable/internal/service/relevance"
	"github.com/ashwinyue/roundtable/internal/service/selector"
	"github.com/ashwinyue/roundtable/internal/testutil"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ========== 测试替身 ==========

type mockThreadStore struct {
	roles []*model.Role
	err   error
}

func (m *mockThreadStore) AssignedRoles(threadID string) ([]*model.Role, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.roles, nil
}

type mockMessageStore struct {
	mu       sync.Mutex
	messages []*model.Message
}

func (m *mockMessageStore) Create(msg *model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *msg
	m.messages = append(m.messages, &copied)
	return nil
}

func (m *mockMessageStore) Update(msg *model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.messages {
		if existing.ID == msg.ID {
			copied := *msg
			m.messages[i] = &copied
			return nil
		}
	}
	return fmt.Errorf("message %s not found", msg.ID)
}

func (m *mockMessageStore) byID(id string) *model.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

type mockStateStore struct {
	mu     sync.Mutex
	states map[string]*model.ConversationState
}

func newMockStateStore() *mockStateStore {
	return &mockStateStore{states: make(map[string]*model.ConversationState)}
}

func (m *mockStateStore) GetByThreadID(threadID string) (*model.ConversationState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.states[threadID]; ok {
		copied := *state
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStateStore) Create(state *model.ConversationState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *state
	m.states[state.ThreadID] = &copied
	return nil
}

func (m *mockStateStore) UpdateCurrentState(threadID, from, to string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[threadID]
	if !ok || state.CurrentState != from {
		return false, nil
	}
	state.CurrentState = to
	return true, nil
}

func (m *mockStateStore) SetActiveRoles(threadID string, roleIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.states[threadID]; ok {
		state.ActiveRoleIDs = roleIDs
	}
	return nil
}

type mockInteractionStore struct {
	mu           sync.Mutex
	interactions []*model.RoleInteraction
}

func (m *mockInteractionStore) Create(i *model.RoleInteraction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interactions = append(m.interactions, i)
	return nil
}

func (m *mockInteractionStore) ConversationDepth(threadID, roleID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	depth := 0
	for _, i := range m.interactions {
		if i.ThreadID == threadID && i.ResponderRoleID == roleID {
			depth++
		}
	}
	return depth, nil
}

func (m *mockInteractionStore) CountByResponder(threadID, roleID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, i := range m.interactions {
		if i.ThreadID == threadID && i.ResponderRoleID == roleID {
			count++
		}
	}
	return count, nil
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

// mockCompletion 按角色返回固定输出，可针对角色注入失败
type mockCompletion struct {
	mu       sync.Mutex
	failFor  map[string]bool // modelID -> 失败
	inputs   []string        // 每次调用的 userContent
	outputs  map[string]string
	fallback string
	delay    time.Duration
}

func (m *mockCompletion) Complete(ctx context.Context, systemPrompt, modelID, userContent string) (string, error) {
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(m.delay):
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, userContent)
	if m.failFor[modelID] {
		return "", fmt.Errorf("provider rejected request")
	}
	if out, ok := m.outputs[modelID]; ok {
		return out, nil
	}
	return m.fallback, nil
}

type mockMemoryWriter struct {
	mu     sync.Mutex
	stored []string // content
}

func (m *mockMemoryWriter) StoreMemory(ctx context.Context, roleID, content, contextType string, metadata map[string]interface{}) (*model.Memory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stored = append(m.stored, content)
	return &model.Memory{ID: "mem", RoleID: roleID, Content: content}, nil
}

// ========== 搭建 ==========

type fixture struct {
	svc          *Service
	threads      *mockThreadStore
	messages     *mockMessageStore
	states       *mockStateStore
	interactions *mockInteractionStore
	completion   *mockCompletion
	memories     *mockMemoryWriter
}

func newFixture(roles []*model.Role) *fixture {
	threads := &mockThreadStore{roles: roles}
	messages := &mockMessageStore{}
	states := newMockStateStore()
	interactions := &mockInteractionStore{}
	completion := &mockCompletion{
		failFor:  make(map[string]bool),
		outputs:  make(map[string]string),
		fallback: "a response",
	}
	memories := &mockMemoryWriter{}

	machine := conversation.NewMachine(states)
	scorer := relevance.NewScorer(interactions)
	sel := selector.NewSelector(scorer, rand.New(rand.NewSource(42)))
	assembler := prompt.NewAssembler(nil, 5)
	tracker := interaction.NewTracker(interactions)

	svc := NewService(threads, messages, machine, sel, assembler, memories, tracker, completion, nil, &Config{
		StepTimeout:    time.Second,
		InterRolePause: 0,
	})

	return &fixture{
		svc:          svc,
		threads:      threads,
		messages:     messages,
		states:       states,
		interactions: interactions,
		completion:   completion,
		memories:     memories,
	}
}

func twoRoles() []*model.Role {
	writer := testutil.NewRole("writer", "Writer", "Writer")
	writer.Model = "writer-model"
	reviewer := testutil.NewRole("reviewer", "Reviewer", "Reviewer")
	reviewer.Model = "reviewer-model"
	return []*model.Role{writer, reviewer}
}

// ========== HandleMessage 测试 ==========

func TestHandleMessageNoRoles(t *testing.T) {
	f := newFixture(nil)

	_, err := f.svc.HandleMessage(context.Background(), "thread-1", "hello", "")
	if !errors.Is(err, ErrNoRolesAssigned) {
		t.Fatalf("err = %v, want ErrNoRolesAssigned", err)
	}
}

func TestHandleMessageGreetingAllRespond(t *testing.T) {
	f := newFixture(twoRoles())

	produced, err := f.svc.HandleMessage(context.Background(), "thread-1", "hello team", "")
	if err != nil {
		t.Fatalf("HandleMessage() unexpected error: %v", err)
	}
	if len(produced) != 2 {
		t.Fatalf("produced %d messages, want 2", len(produced))
	}

	for _, msg := range produced {
		stored := f.messages.byID(msg.ID)
		if stored.Status != model.MessageStatusComplete {
			t.Errorf("message %s status = %q, want complete", msg.ID, stored.Status)
		}
		if stored.Content == "" {
			t.Errorf("message %s has empty content", msg.ID)
		}
	}

	// 一条用户消息加两条角色消息
	if len(f.messages.messages) != 3 {
		t.Errorf("stored %d messages, want 3", len(f.messages.messages))
	}

	// 本轮结束时状态回到 completion
	state, _ := f.states.GetByThreadID("thread-1")
	if state.CurrentState != model.StateCompletion {
		t.Errorf("final state = %q, want completion", state.CurrentState)
	}
	if len(state.ActiveRoleIDs) != 2 {
		t.Errorf("active roles = %v, want 2 entries", state.ActiveRoleIDs)
	}
}

func TestHandleMessageTaggedSingleChain(t *testing.T) {
	f := newFixture(twoRoles())

	produced, err := f.svc.HandleMessage(context.Background(), "thread-1", "@Writer draft the intro", "")
	if err != nil {
		t.Fatalf("HandleMessage() unexpected error: %v", err)
	}
	if len(produced) != 1 {
		t.Fatalf("produced %d messages, want 1", len(produced))
	}
	if produced[0].RoleID == nil || *produced[0].RoleID != "writer" {
		t.Errorf("responder = %v, want writer", produced[0].RoleID)
	}

	// 用户消息记录被引用角色
	userMsg := f.messages.messages[0]
	if userMsg.TaggedRoleID == nil || *userMsg.TaggedRoleID != "writer" {
		t.Errorf("user message tagged role = %v, want writer", userMsg.TaggedRoleID)
	}

	// 交互类型为显式引用
	if len(f.interactions.interactions) != 1 {
		t.Fatalf("tracked %d interactions, want 1", len(f.interactions.interactions))
	}
	if f.interactions.interactions[0].InteractionType != model.InteractionTaggedResponse {
		t.Errorf("interaction type = %q, want tagged_response", f.interactions.interactions[0].InteractionType)
	}
}

func TestHandleMessageTopicalLeader(t *testing.T) {
	pricing := testutil.NewRole("pricing", "Pricing Analyst", "Pricing")
	pricing.Instructions = "You analyze pricing strategy and revenue."
	pricing.Expertise = datatypes.NewJSONSlice([]string{"pricing", "revenue"})
	designer := testutil.NewRole("designer", "Designer", "Designer")
	designer.Instructions = "You advise on visual design."

	f := newFixture([]*model.Role{designer, pricing})

	produced, err := f.svc.HandleMessage(context.Background(), "thread-1", "thoughts on our pricing tiers and revenue model?", "")
	if err != nil {
		t.Fatalf("HandleMessage() unexpected error: %v", err)
	}
	if len(produced) != 2 {
		t.Fatalf("produced %d messages, want 2", len(produced))
	}
	if produced[0].RoleID == nil || *produced[0].RoleID != "pricing" {
		t.Errorf("first responder = %v, want pricing", produced[0].RoleID)
	}
}

func TestHandleMessageFailureIsolation(t *testing.T) {
	f := newFixture(twoRoles())
	f.completion.outputs["writer-model"] = "draft text"
	f.completion.failFor["reviewer-model"] = true

	produced, err := f.svc.HandleMessage(context.Background(), "thread-1", "hello team", "")
	if err != nil {
		t.Fatalf("HandleMessage() unexpected error: %v", err)
	}
	if len(produced) != 2 {
		t.Fatalf("produced %d messages, want 2 despite one failure", len(produced))
	}

	var failed, complete int
	for _, msg := range produced {
		stored := f.messages.byID(msg.ID)
		switch stored.Status {
		case model.MessageStatusFailed:
			failed++
			if stored.Metadata["error"] == nil {
				t.Error("failed message should carry error metadata")
			}
			if stored.Metadata["failed_at"] == nil {
				t.Error("failed message should carry failure timestamp")
			}
			if stored.Content != "Reviewer failed to respond." {
				t.Errorf("failure content = %q", stored.Content)
			}
		case model.MessageStatusComplete:
			complete++
		}
	}
	if failed != 1 || complete != 1 {
		t.Errorf("failed=%d complete=%d, want 1/1", failed, complete)
	}

	// 链执行到底，状态仍到达 completion
	state, _ := f.states.GetByThreadID("thread-1")
	if state.CurrentState != model.StateCompletion {
		t.Errorf("final state = %q, want completion", state.CurrentState)
	}

	// 失败步骤带错误标记的交互仍被记录
	if len(f.interactions.interactions) != 2 {
		t.Errorf("tracked %d interactions, want 2", len(f.interactions.interactions))
	}
}

func TestHandleMessageForwardsPreviousOutput(t *testing.T) {
	f := newFixture(twoRoles())
	f.completion.outputs["writer-model"] = "writer output"
	f.completion.outputs["reviewer-model"] = "reviewer output"

	_, err := f.svc.HandleMessage(context.Background(), "thread-1", "hello team", "")
	if err != nil {
		t.Fatalf("HandleMessage() unexpected error: %v", err)
	}

	if len(f.completion.inputs) != 2 {
		t.Fatalf("completion called %d times, want 2", len(f.completion.inputs))
	}

	// 首位收到用户消息，次位收到首位的输出
	if f.completion.inputs[0] != "hello team" {
		t.Errorf("first input = %q, want user content", f.completion.inputs[0])
	}
	second := f.completion.inputs[1]
	if second != "writer output" && second != "reviewer output" {
		t.Errorf("second input = %q, want a prior role output", second)
	}
	if second == f.completion.inputs[0] {
		t.Error("second role should receive forwarded output, not user content")
	}
}

func TestHandleMessageFailedStepKeepsPriorOutput(t *testing.T) {
	writer := testutil.NewRole("writer", "Writer", "Writer")
	writer.Model = "writer-model"
	broken := testutil.NewRole("broken", "Broken", "Broken")
	broken.Model = "broken-model"
	third := testutil.NewRole("third", "Third", "Third")
	third.Model = "third-model"

	f := newFixture([]*model.Role{writer, broken, third})
	f.completion.outputs["writer-model"] = "writer output"
	f.completion.failFor["broken-model"] = true
	f.completion.outputs["third-model"] = "third output"

	// 引用场景外链序随机，通过逐位检查转发值验证折叠语义
	_, err := f.svc.HandleMessage(context.Background(), "thread-1", "hello team", "")
	if err != nil {
		t.Fatalf("HandleMessage() unexpected error: %v", err)
	}

	if len(f.completion.inputs) != 3 {
		t.Fatalf("completion called %d times, want 3", len(f.completion.inputs))
	}
	for i, input := range f.completion.inputs {
		// 失败角色不产生输出，后继只能收到用户消息或成功角色的输出
		switch input {
		case "hello team", "writer output", "third output":
		default:
			t.Errorf("input %d = %q, failed role's output leaked into chain", i, input)
		}
	}
}

func TestHandleMessageStoresMemories(t *testing.T) {
	f := newFixture(twoRoles())
	f.completion.fallback = "noted"

	_, err := f.svc.HandleMessage(context.Background(), "thread-1", "hello team", "")
	if err != nil {
		t.Fatalf("HandleMessage() unexpected error: %v", err)
	}

	if len(f.memories.stored) != 2 {
		t.Fatalf("stored %d memories, want 2", len(f.memories.stored))
	}
	for _, content := range f.memories.stored {
		if content == "" {
			t.Error("memory content should capture the turn")
		}
	}
}

func TestHandleMessageStepTimeout(t *testing.T) {
	f := newFixture(twoRoles())
	f.completion.delay = 50 * time.Millisecond
	f.svc.config.StepTimeout = 10 * time.Millisecond

	produced, err := f.svc.HandleMessage(context.Background(), "thread-1", "hello team", "")
	if err != nil {
		t.Fatalf("HandleMessage() unexpected error: %v", err)
	}

	for _, msg := range produced {
		stored := f.messages.byID(msg.ID)
		if stored.Status != model.MessageStatusFailed {
			t.Errorf("timed-out message %s status = %q, want failed", msg.ID, stored.Status)
		}
	}
}

func TestHandleMessageSerializesPerThread(t *testing.T) {
	f := newFixture(twoRoles())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.HandleMessage(context.Background(), "thread-1", "hello team", ""); err != nil {
				t.Errorf("HandleMessage() unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	// 四轮各产生一条用户消息和两条角色消息
	if len(f.messages.messages) != 12 {
		t.Errorf("stored %d messages, want 12", len(f.messages.messages))
	}

	state, _ := f.states.GetByThreadID("thread-1")
	if state.CurrentState != model.StateCompletion {
		t.Errorf("final state = %q, want completion", state.CurrentState)
	}
}

func TestHandleMessageRestartsAfterCompletion(t *testing.T) {
	f := newFixture(twoRoles())
	ctx := context.Background()

	if _, err := f.svc.HandleMessage(ctx, "thread-1", "hello team", ""); err != nil {
		t.Fatalf("first round unexpected error: %v", err)
	}
	// 第二轮从 completion 重启状态环
	if _, err := f.svc.HandleMessage(ctx, "thread-1", "hello again", ""); err != nil {
		t.Fatalf("second round unexpected error: %v", err)
	}

	state, _ := f.states.GetByThreadID("thread-1")
	if state.CurrentState != model.StateCompletion {
		t.Errorf("final state = %q, want completion", state.CurrentState)
	}
}
