package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ashwinyue/roundtable/internal/config"
	"github.com/cloudwego/eino-ext/components/embedding/dashscope"
	openaiembed "github.com/cloudwego/eino-ext/components/embedding/openai"
	openaimodel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/embedding"
	ecomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// newChatModel 创建 ChatModel
func newChatModel(ctx context.Context, cfg *config.Config) (ecomodel.ChatModel, error) {
	aiCfg := cfg.AI

	var apiKey, baseURL, modelName string

	switch aiCfg.Provider {
	case "openai":
		apiKey = aiCfg.OpenAI.APIKey
		baseURL = aiCfg.OpenAI.BaseURL
		modelName = aiCfg.OpenAI.Model
	case "alibaba", "qwen", "dashscope":
		apiKey = aiCfg.Alibaba.AccessKeySecret
		baseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
		modelName = aiCfg.Alibaba.Model
	case "deepseek":
		apiKey = aiCfg.DeepSeek.APIKey
		baseURL = aiCfg.DeepSeek.BaseURL
		modelName = aiCfg.DeepSeek.Model
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", aiCfg.Provider)
	}

	if apiKey == "" {
		return nil, fmt.Errorf("api_key is required for provider: %s", aiCfg.Provider)
	}

	if modelName == "" {
		modelName = "gpt-4o-mini"
	}

	temperature := float32(0.7)

	return openaimodel.NewChatModel(ctx, &openaimodel.ChatModelConfig{
		APIKey:      apiKey,
		BaseURL:     baseURL,
		Model:       modelName,
		Temperature: &temperature,
	})
}

// newEmbedder 创建 Embedding 器
func newEmbedder(ctx context.Context, cfg *config.Config) embedding.Embedder {
	embCfg := cfg.AI.Embedding

	if embCfg.APIKey == "" {
		log.Printf("Warning: embedding api_key is empty")
		return nil
	}

	switch embCfg.Provider {
	case "alibaba", "qwen", "dashscope":
		embConfig := &dashscope.EmbeddingConfig{
			APIKey: embCfg.APIKey,
			Model:  embCfg.Model,
		}
		if embConfig.Model == "" {
			embConfig.Model = "text-embedding-v3"
		}
		if embCfg.Timeout > 0 {
			embConfig.Timeout = time.Duration(embCfg.Timeout) * time.Second
		}
		if embCfg.Dimensions > 0 {
			embConfig.Dimensions = &embCfg.Dimensions
		}

		embedder, err := dashscope.NewEmbedder(ctx, embConfig)
		if err != nil {
			log.Printf("Warning: failed to create dashscope embedder: %v", err)
			return nil
		}
		return embedder

	case "openai", "":
		embConfig := &openaiembed.EmbeddingConfig{
			APIKey:  embCfg.APIKey,
			BaseURL: embCfg.BaseURL,
			Model:   embCfg.Model,
		}
		if embConfig.Model == "" {
			embConfig.Model = "text-embedding-3-small"
		}
		if embCfg.Timeout > 0 {
			embConfig.Timeout = time.Duration(embCfg.Timeout) * time.Second
		}
		if embCfg.Dimensions > 0 {
			embConfig.Dimensions = &embCfg.Dimensions
		}

		embedder, err := openaiembed.NewEmbedder(ctx, embConfig)
		if err != nil {
			log.Printf("Warning: failed to create openai embedder: %v", err)
			return nil
		}
		return embedder

	default:
		log.Printf("Warning: unsupported embedding provider: %s", embCfg.Provider)
		return nil
	}
}

// ========== 外部能力适配器 ==========

// completionProvider 将 eino ChatModel 适配为编排核心的补全接口
type completionProvider struct {
	chatModel ecomodel.ChatModel
}

// Complete 以系统提示 + 用户内容做一次补全。
// modelID 非空时覆盖默认模型，支持按角色指定模型
func (p *completionProvider) Complete(ctx context.Context, systemPrompt, modelID, userContent string) (string, error) {
	if p.chatModel == nil {
		return "", fmt.Errorf("chat model not configured")
	}

	messages := []*schema.Message{
		{Role: schema.System, Content: systemPrompt},
		{Role: schema.User, Content: userContent},
	}

	var opts []ecomodel.Option
	if modelID != "" {
		opts = append(opts, ecomodel.WithModel(modelID))
	}

	resp, err := p.chatModel.Generate(ctx, messages, opts...)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// embeddingProvider 将 eino Embedder 适配为编排核心的向量化接口
type embeddingProvider struct {
	embedder embedding.Embedder
}

// Embed 计算单条文本的向量
func (p *embeddingProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	if p.embedder == nil {
		return nil, fmt.Errorf("embedder not configured")
	}

	vectors, err := p.embedder.EmbedStrings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedder returned no vectors")
	}
	return vectors[0], nil
}
