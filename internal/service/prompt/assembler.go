// Package prompt 为链内每个角色装配系统提示
package prompt

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ashwinyue/roundtable/internal/model"
	"github.com/ashwinyue/roundtable/internal/service/types"
)

const (
	// defaultMemoryLimit 默认注入的记忆条数
	defaultMemoryLimit = 5
	// minMemoryLimit 自适应收缩后的条数下限
	minMemoryLimit = 3
	// longContentThreshold 超过该长度的内容触发记忆条数减半
	longContentThreshold = 4000
)

// MemoryRetriever 记忆检索能力。检索失败只降级上下文质量，不阻断链步骤
type MemoryRetriever interface {
	RetrieveRelevant(ctx context.Context, roleID, content string, limit int) ([]*model.Memory, error)
}

// Input 单次装配的输入
type Input struct {
	Role           *model.Role
	ChainRoles     []*model.Role // 链上全部角色，按链序
	Position       int           // 该角色的链内位置，1 起
	TaggedRole     *model.Role   // 显式引用的角色，无引用时为 nil
	UserContent    string
	PriorResponses []types.ChainResponse // 本链内先前角色的响应
}

// Assembler 上下文装配器
type Assembler struct {
	memories    MemoryRetriever
	memoryLimit int
}

// NewAssembler 创建装配器
func NewAssembler(memories MemoryRetriever, memoryLimit int) *Assembler {
	if memoryLimit <= 0 {
		memoryLimit = defaultMemoryLimit
	}
	return &Assembler{memories: memories, memoryLimit: memoryLimit}
}

// Build 装配系统提示：角色指令、链内位置与邻居、本链先前响应、
// 相关记忆、引用行为规则
func (a *Assembler) Build(ctx context.Context, in *Input) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("You are %s.\n", in.Role.Name))
	if in.Role.Instructions != "" {
		b.WriteString(in.Role.Instructions)
		b.WriteString("\n")
	}

	a.writePosition(&b, in)
	a.writePriorResponses(&b, in)
	a.writeMemories(ctx, &b, in)
	a.writeTaggingRules(&b, in)

	return b.String()
}

// writePosition 链内位置与相邻角色
func (a *Assembler) writePosition(b *strings.Builder, in *Input) {
	if len(in.ChainRoles) <= 1 {
		return
	}

	b.WriteString(fmt.Sprintf("\nYou are responder %d of %d in this conversation round.\n",
		in.Position, len(in.ChainRoles)))

	idx := in.Position - 1
	if idx > 0 {
		b.WriteString(fmt.Sprintf("%s responded before you.\n", in.ChainRoles[idx-1].Name))
	}
	if idx < len(in.ChainRoles)-1 {
		b.WriteString(fmt.Sprintf("%s will respond after you.\n", in.ChainRoles[idx+1].Name))
	}
}

// writePriorResponses 本链内已产生的响应，按顺序
func (a *Assembler) writePriorResponses(b *strings.Builder, in *Input) {
	if len(in.PriorResponses) == 0 {
		return
	}

	b.WriteString("\nResponses so far in this round:\n")
	for _, resp := range in.PriorResponses {
		b.WriteString(fmt.Sprintf("[%s]: %s\n", resp.RoleName, resp.Content))
	}
}

// writeMemories 注入相关记忆，长内容时自适应收缩条数
func (a *Assembler) writeMemories(ctx context.Context, b *strings.Builder, in *Input) {
	if a.memories == nil {
		return
	}

	limit := AdaptiveLimit(len(in.UserContent), a.memoryLimit)
	memories, err := a.memories.RetrieveRelevant(ctx, in.Role.ID, in.UserContent, limit)
	if err != nil {
		log.Printf("Warning: memory retrieval failed for role %s: %v", in.Role.ID, err)
		return
	}
	if len(memories) == 0 {
		return
	}

	b.WriteString("\nRelevant memories from past conversations:\n")
	for _, memory := range memories {
		b.WriteString("- ")
		b.WriteString(memory.Content)
		b.WriteString("\n")
	}
}

// writeTaggingRules 引用行为规则
func (a *Assembler) writeTaggingRules(b *strings.Builder, in *Input) {
	if in.TaggedRole != nil && in.TaggedRole.ID != in.Role.ID {
		b.WriteString(fmt.Sprintf(
			"\nThe user addressed @%s directly. You were not addressed. Produce no output.\n",
			in.TaggedRole.Tag))
		return
	}

	if in.TaggedRole == nil {
		b.WriteString("\nIf the message falls in your domain, answer substantively. " +
			"If it is borderline, answer with an explicit caveat and end with a forward-looking question. " +
			"Only if it is genuinely unrelated to your domain, defer very briefly. " +
			"General conversational messages always deserve an engaged, in-character reply.\n")
	}
}

// AdaptiveLimit 按内容长度收缩记忆条数：超长内容减半，下限 3
func AdaptiveLimit(contentLength, base int) int {
	if contentLength <= longContentThreshold {
		return base
	}
	limit := base / 2
	if limit < minMemoryLimit {
		limit = minMemoryLimit
	}
	return limit
}
