// Package orchestrator 是顶层协调器：解析引用、构建响应链、
// 顺序执行链并为后续角色转发前序输出
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ashwinyue/roundtable/internal/model"
	"github.com/ashwinyue/roundtable/internal/service/conversation"
	"github.com/ashwinyue/roundtable/internal/service/interaction"
	"github.com/ashwinyue/roundtable/internal/service/prompt"
	"github.com/ashwinyue/roundtable/internal/service/selector"
	"github.com/ashwinyue/roundtable/internal/service/tagging"
	"github.com/ashwinyue/roundtable/internal/service/types"
	"github.com/google/uuid"
)

// ErrNoRolesAssigned 线程未指派任何角色，无法构建链
var ErrNoRolesAssigned = errors.New("no roles assigned to thread")

// Config 编排配置
type Config struct {
	StepTimeout    time.Duration // 单个链步骤的生成超时
	InterRolePause time.Duration // 相邻角色之间的停顿，等待持久化传播
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		StepTimeout:    60 * time.Second,
		InterRolePause: time.Second,
	}
}

// ThreadStore 线程角色加载
type ThreadStore interface {
	AssignedRoles(threadID string) ([]*model.Role, error)
}

// MessageStore 消息持久化
type MessageStore interface {
	Create(msg *model.Message) error
	Update(msg *model.Message) error
}

// MemoryWriter 角色记忆写入。写入失败只降级，不阻断链
type MemoryWriter interface {
	StoreMemory(ctx context.Context, roleID, content, contextType string, metadata map[string]interface{}) (*model.Memory, error)
}

// Notifier 消息变更通知，尽力而为
type Notifier interface {
	MessageCreated(ctx context.Context, msg *model.Message)
	MessageUpdated(ctx context.Context, msg *model.Message)
}

// Service 编排服务。
// 不持有跨线程可变状态，线程间并发互不约束；
// 同一线程的并发 HandleMessage 由线程锁串行化
type Service struct {
	threads    ThreadStore
	messages   MessageStore
	machine    *conversation.Machine
	selector   *selector.Selector
	assembler  *prompt.Assembler
	memories   MemoryWriter
	tracker    *interaction.Tracker
	completion types.CompletionProvider
	notifier   Notifier
	config     *Config

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService 创建编排服务
func NewService(
	threads ThreadStore,
	messages MessageStore,
	machine *conversation.Machine,
	sel *selector.Selector,
	assembler *prompt.Assembler,
	memories MemoryWriter,
	tracker *interaction.Tracker,
	completion types.CompletionProvider,
	notifier Notifier,
	config *Config,
) *Service {
	if config == nil {
		config = DefaultConfig()
	}
	return &Service{
		threads:    threads,
		messages:   messages,
		machine:    machine,
		selector:   sel,
		assembler:  assembler,
		memories:   memories,
		tracker:    tracker,
		completion: completion,
		notifier:   notifier,
		config:     config,
		locks:      make(map[string]*sync.Mutex),
	}
}

// HandleMessage 处理一条用户消息：加载角色、解析引用、构建链、
// 顺序执行并返回产生的全部角色消息（含失败占位）
func (s *Service) HandleMessage(ctx context.Context, threadID, content, taggedRoleID string) ([]*model.Message, error) {
	unlock := s.lockThread(threadID)
	defer unlock()

	roles, err := s.threads.AssignedRoles(threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assigned roles: %w", err)
	}
	if len(roles) == 0 {
		return nil, ErrNoRolesAssigned
	}

	// 上一轮完成后新消息重启状态环
	if state, err := s.machine.Current(ctx, threadID); err == nil && state.CurrentState == model.StateCompletion {
		s.transition(ctx, threadID, model.StateInitialAnalysis)
	}

	tagged := tagging.Resolve(content, roles, taggedRoleID)

	userMsg := &model.Message{
		ID:       uuid.New().String(),
		ThreadID: threadID,
		Content:  content,
		Status:   model.MessageStatusComplete,
		Metadata: map[string]interface{}{},
	}
	if tagged != nil {
		userMsg.TaggedRoleID = &tagged.ID
	}
	if err := s.messages.Create(userMsg); err != nil {
		return nil, fmt.Errorf("failed to persist user message: %w", err)
	}
	s.notify(ctx, userMsg, true)

	var chain types.Chain
	if tagged != nil {
		// 显式引用折叠为单角色链，跳过角色选择
		s.transition(ctx, threadID, model.StateResponseGeneration)
		chain = types.SingleChain(tagged.ID)
	} else {
		s.transition(ctx, threadID, model.StateRoleSelection)
		chain = s.selector.BuildChain(ctx, roles, content, threadID)
		s.transition(ctx, threadID, model.StateResponseGeneration)
	}

	activeIDs := make([]string, len(chain))
	for i, entry := range chain {
		activeIDs[i] = entry.RoleID
	}
	if err := s.machine.SetActiveRoles(ctx, threadID, activeIDs); err != nil {
		log.Printf("Warning: failed to record active roles: %v", err)
	}

	s.transition(ctx, threadID, model.StateChainProcessing)
	produced := s.executeChain(ctx, threadID, chain, roles, tagged, content)
	s.transition(ctx, threadID, model.StateCompletion)

	return produced, nil
}

// executeChain 顺序执行响应链。
// 前序输出以折叠方式穿过每一步：初值为用户消息，
// 每个成功步骤的输出替换它；失败步骤保持前一次成功的值。
// 单个角色失败不会中止链
func (s *Service) executeChain(ctx context.Context, threadID string, chain types.Chain, roles []*model.Role, tagged *model.Role, userContent string) []*model.Message {
	chainID := uuid.New().String()
	chainRoles := rolesInChainOrder(chain, roles)

	previousOutput := userContent
	var previousRoleID *string
	var priorResponses []types.ChainResponse
	produced := make([]*model.Message, 0, len(chain))

	for i, entry := range chain {
		role := chainRoles[i]

		placeholder := s.createPlaceholder(ctx, threadID, chainID, role.ID, entry.Order)
		if placeholder == nil {
			continue
		}
		produced = append(produced, placeholder)

		output, err := s.generateStep(ctx, &prompt.Input{
			Role:           role,
			ChainRoles:     chainRoles,
			Position:       entry.Order,
			TaggedRole:     tagged,
			UserContent:    userContent,
			PriorResponses: priorResponses,
		}, role, previousOutput)

		if err != nil {
			s.finalizeFailure(ctx, placeholder, role, err)
		} else {
			s.finalizeSuccess(ctx, placeholder, output)
			s.rememberTurn(ctx, role, threadID, chainID, userContent, output)
			previousOutput = output
			priorResponses = append(priorResponses, types.ChainResponse{RoleName: role.Name, Content: output})
		}

		s.trackStep(ctx, threadID, previousRoleID, role, tagged, entry.Order, err)
		previousRoleID = &chainRoles[i].ID

		// 停顿让持久化传播给订阅方，下一个角色才能看到已落库的输出
		if i < len(chain)-1 {
			s.pause(ctx)
		}
	}

	return produced
}

// generateStep 在独立超时内调用补全提供方
func (s *Service) generateStep(ctx context.Context, in *prompt.Input, role *model.Role, previousOutput string) (string, error) {
	if s.completion == nil {
		return "", fmt.Errorf("completion provider not configured")
	}

	stepCtx, cancel := context.WithTimeout(ctx, s.config.StepTimeout)
	defer cancel()

	systemPrompt := s.assembler.Build(stepCtx, in)
	return s.completion.Complete(stepCtx, systemPrompt, role.Model, previousOutput)
}

// createPlaceholder 生成前先落占位消息
func (s *Service) createPlaceholder(ctx context.Context, threadID, chainID, roleID string, order int) *model.Message {
	msg := &model.Message{
		ID:         uuid.New().String(),
		ThreadID:   threadID,
		RoleID:     &roleID,
		ChainID:    &chainID,
		ChainOrder: &order,
		Status:     model.MessageStatusPending,
		Metadata:   map[string]interface{}{"streaming": true},
	}
	if err := s.messages.Create(msg); err != nil {
		log.Printf("Warning: failed to create placeholder for role %s: %v", roleID, err)
		return nil
	}
	s.notify(ctx, msg, true)
	return msg
}

func (s *Service) finalizeSuccess(ctx context.Context, msg *model.Message, output string) {
	msg.Content = output
	msg.Status = model.MessageStatusComplete
	msg.Metadata["streaming"] = false
	if err := s.messages.Update(msg); err != nil {
		log.Printf("Warning: failed to finalize message %s: %v", msg.ID, err)
		return
	}
	s.notify(ctx, msg, false)
}

// finalizeFailure 失败的角色留下可见的失败消息，不悄然消失
func (s *Service) finalizeFailure(ctx context.Context, msg *model.Message, role *model.Role, cause error) {
	msg.Content = fmt.Sprintf("%s failed to respond.", role.Name)
	msg.Status = model.MessageStatusFailed
	msg.Metadata["streaming"] = false
	msg.Metadata["error"] = cause.Error()
	msg.Metadata["failed_at"] = time.Now().Format(time.RFC3339)
	if err := s.messages.Update(msg); err != nil {
		log.Printf("Warning: failed to record failure for message %s: %v", msg.ID, err)
		return
	}
	s.notify(ctx, msg, false)
}

// rememberTurn 将本次问答写入角色记忆，失败仅记日志
func (s *Service) rememberTurn(ctx context.Context, role *model.Role, threadID, chainID, userContent, output string) {
	if s.memories == nil {
		return
	}
	content := fmt.Sprintf("User: %s\n%s: %s", userContent, role.Name, output)
	_, err := s.memories.StoreMemory(ctx, role.ID, content, model.MemoryContextConversation, map[string]interface{}{
		"thread_id": threadID,
		"chain_id":  chainID,
	})
	if err != nil {
		log.Printf("Warning: failed to store memory for role %s: %v", role.ID, err)
	}
}

// trackStep 追加交互审计记录
func (s *Service) trackStep(ctx context.Context, threadID string, initiatorID *string, responder, tagged *model.Role, order int, stepErr error) {
	if s.tracker == nil {
		return
	}

	interactionType := model.InteractionChainResponse
	if tagged != nil {
		interactionType = model.InteractionTaggedResponse
	}

	metadata := map[string]interface{}{"chain_order": order}
	if stepErr != nil {
		metadata["error"] = true
	}

	if _, err := s.tracker.Track(ctx, threadID, initiatorID, responder.ID, interactionType, metadata); err != nil {
		log.Printf("Warning: failed to track interaction: %v", err)
	}
}

func (s *Service) transition(ctx context.Context, threadID, to string) {
	result := s.machine.Transition(ctx, threadID, to)
	if !result.Success {
		// 转换失败是预期内情形（并发重复触发等），no-op 继续
		log.Printf("Warning: state transition %s -> %s skipped: %v", result.From, result.To, result.Err)
	}
}

func (s *Service) notify(ctx context.Context, msg *model.Message, created bool) {
	if s.notifier == nil {
		return
	}
	if created {
		s.notifier.MessageCreated(ctx, msg)
	} else {
		s.notifier.MessageUpdated(ctx, msg)
	}
}

func (s *Service) pause(ctx context.Context) {
	if s.config.InterRolePause <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(s.config.InterRolePause):
	}
}

// lockThread 获取线程锁，串行化同一线程的并发回合
func (s *Service) lockThread(threadID string) func() {
	s.mu.Lock()
	lock, ok := s.locks[threadID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[threadID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// rolesInChainOrder 按链序排列角色对象
func rolesInChainOrder(chain types.Chain, roles []*model.Role) []*model.Role {
	byID := make(map[string]*model.Role, len(roles))
	for _, role := range roles {
		byID[role.ID] = role
	}

	ordered := make([]*model.Role, len(chain))
	for i, entry := range chain {
		ordered[i] = byID[entry.RoleID]
	}
	return ordered
}
