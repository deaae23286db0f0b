// Package conversation 提供线程级会话状态机。
// 状态构成固定的环：分析 → 选择 → 生成 → 链处理 → 完成 → 分析，
// 另有显式 @引用 场景下跳过角色选择的捷径边
package conversation

import (
	"context"
	"errors"
	"fmt"

	"github.com/ashwinyue/roundtable/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrInvalidTransition 非法状态转换
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrConditionFailed 边上的守卫条件不满足
	ErrConditionFailed = errors.New("transition condition failed")
)

// validTransitions 合法转换边。仅这些边合法，其余一律拒绝
var validTransitions = map[string][]string{
	model.StateInitialAnalysis:    {model.StateRoleSelection, model.StateResponseGeneration},
	model.StateRoleSelection:      {model.StateResponseGeneration},
	model.StateResponseGeneration: {model.StateChainProcessing},
	model.StateChainProcessing:    {model.StateCompletion},
	model.StateCompletion:         {model.StateInitialAnalysis},
}

// Guard 边守卫条件，返回 false 时转换以 ErrConditionFailed 失败
type Guard func(state *model.ConversationState) bool

// TransitionResult 转换结果。转换失败是预期内情形（如并发重复触发），
// 以结构化结果返回而非直接报错，调用方可优雅 no-op
type TransitionResult struct {
	Success bool   `json:"success"`
	From    string `json:"from"`
	To      string `json:"to"`
	Err     error  `json:"-"`
}

// StateStore 状态存取接口
type StateStore interface {
	GetByThreadID(threadID string) (*model.ConversationState, error)
	Create(state *model.ConversationState) error
	UpdateCurrentState(threadID, from, to string) (bool, error)
	SetActiveRoles(threadID string, roleIDs []string) error
}

// Machine 会话状态机
type Machine struct {
	store  StateStore
	guards map[string]Guard // key: "from->to"
}

// NewMachine 创建状态机
func NewMachine(store StateStore) *Machine {
	return &Machine{
		store:  store,
		guards: make(map[string]Guard),
	}
}

// SetGuard 为某条边设置守卫条件
func (m *Machine) SetGuard(from, to string, guard Guard) {
	m.guards[from+"->"+to] = guard
}

// Current 获取线程当前状态，不存在时惰性创建为 initial_analysis
func (m *Machine) Current(ctx context.Context, threadID string) (*model.ConversationState, error) {
	state, err := m.store.GetByThreadID(threadID)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load conversation state: %w", err)
	}

	state = &model.ConversationState{
		ID:           uuid.New().String(),
		ThreadID:     threadID,
		CurrentState: model.StateInitialAnalysis,
		Metadata:     map[string]interface{}{},
	}
	if err := m.store.Create(state); err != nil {
		return nil, fmt.Errorf("failed to create conversation state: %w", err)
	}
	return state, nil
}

// Transition 校验并执行状态转换。
// 失败的转换不会改写已存储的状态
func (m *Machine) Transition(ctx context.Context, threadID, to string) TransitionResult {
	state, err := m.Current(ctx, threadID)
	if err != nil {
		return TransitionResult{Success: false, To: to, Err: err}
	}

	from := state.CurrentState
	if !edgeAllowed(from, to) {
		return TransitionResult{
			Success: false,
			From:    from,
			To:      to,
			Err:     fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to),
		}
	}

	if guard, ok := m.guards[from+"->"+to]; ok && !guard(state) {
		return TransitionResult{
			Success: false,
			From:    from,
			To:      to,
			Err:     fmt.Errorf("%w: %s -> %s", ErrConditionFailed, from, to),
		}
	}

	updated, err := m.store.UpdateCurrentState(threadID, from, to)
	if err != nil {
		return TransitionResult{Success: false, From: from, To: to, Err: fmt.Errorf("failed to persist transition: %w", err)}
	}
	if !updated {
		// 并发转换竞争失败，当前状态已被他人改写
		return TransitionResult{
			Success: false,
			From:    from,
			To:      to,
			Err:     fmt.Errorf("%w: state changed concurrently", ErrInvalidTransition),
		}
	}

	return TransitionResult{Success: true, From: from, To: to}
}

// SetActiveRoles 记录本轮参与的角色集合
func (m *Machine) SetActiveRoles(ctx context.Context, threadID string, roleIDs []string) error {
	if _, err := m.Current(ctx, threadID); err != nil {
		return err
	}
	return m.store.SetActiveRoles(threadID, roleIDs)
}

func edgeAllowed(from, to string) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
