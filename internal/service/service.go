package service

import (
	"context"
	"log"
	"time"

	"github.com/ashwinyue/roundtable/internal/config"
	"github.com/ashwinyue/roundtable/internal/repository"
	"github.com/ashwinyue/roundtable/internal/service/conversation"
	"github.com/ashwinyue/roundtable/internal/service/interaction"
	"github.com/ashwinyue/roundtable/internal/service/memory"
	"github.com/ashwinyue/roundtable/internal/service/notify"
	"github.com/ashwinyue/roundtable/internal/service/orchestrator"
	"github.com/ashwinyue/roundtable/internal/service/prompt"
	"github.com/ashwinyue/roundtable/internal/service/relevance"
	"github.com/ashwinyue/roundtable/internal/service/role"
	"github.com/ashwinyue/roundtable/internal/service/selector"
	"github.com/ashwinyue/roundtable/internal/service/thread"
	"github.com/redis/go-redis/v9"
)

// Services 服务集合
type Services struct {
	Thread       *thread.Service
	Role         *role.Service
	Orchestrator *orchestrator.Service
	Memory       *memory.Service
	Interaction  *interaction.Tracker
	State        *conversation.Machine

	Config   *config.Config
	Notifier *notify.Notifier
}

// NewServices 创建所有服务
func NewServices(repo *repository.Repositories, cfg *config.Config, redisClient *redis.Client) (*Services, error) {
	ctx := context.Background()

	// AI 能力
	chatModel, err := newChatModel(ctx, cfg)
	if err != nil {
		log.Printf("Warning: failed to create chat model: %v", err)
	}
	embedder := newEmbedder(ctx, cfg)

	completion := &completionProvider{chatModel: chatModel}
	embeddings := &embeddingProvider{embedder: embedder}

	// 编排组件
	machine := conversation.NewMachine(repo.State)
	scorer := relevance.NewScorer(repo.Interaction)
	sel := selector.NewSelector(scorer, nil)
	tracker := interaction.NewTracker(repo.Interaction)
	notifier := notify.NewNotifier(redisClient)

	memorySvc := memory.NewService(repo.Memory, embeddings, &memory.Config{
		TTL:                    time.Duration(cfg.Memory.TTLDays) * 24 * time.Hour,
		DefaultLimit:           cfg.Memory.DefaultLimit,
		MinRelevance:           cfg.Memory.MinRelevance,
		MinImportance:          cfg.Memory.MinImportance,
		ConsolidationThreshold: cfg.Memory.ConsolidationThreshold,
	})

	assembler := prompt.NewAssembler(memorySvc, cfg.Memory.DefaultLimit)

	orchestratorSvc := orchestrator.NewService(
		repo.Thread,
		repo.Message,
		machine,
		sel,
		assembler,
		memorySvc,
		tracker,
		completion,
		notifier,
		&orchestrator.Config{
			StepTimeout:    time.Duration(cfg.Orchestration.StepTimeoutSeconds) * time.Second,
			InterRolePause: time.Duration(cfg.Orchestration.InterRolePauseMs) * time.Millisecond,
		},
	)

	return &Services{
		Thread:       thread.NewService(repo),
		Role:         role.NewService(repo),
		Orchestrator: orchestratorSvc,
		Memory:       memorySvc,
		Interaction:  tracker,
		State:        machine,

		Config:   cfg,
		Notifier: notifier,
	}, nil
}
