package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/lspl/gradereco/internal/domain"
)

var _ domain.Generator = (*Generator)(nil)

// Generator is a chat completion client for any OpenAI-compatible endpoint
// (OpenAI, xAI Grok, vLLM, Ollama).
type Generator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	jsonMode    bool
	logger      *zap.Logger
}

// GeneratorConfig holds the chat model settings.
type GeneratorConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	JSONMode    bool
	Logger      *zap.Logger
}

// NewGenerator creates an OpenAI-compatible chat generator.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	return &Generator{
		client:      newClient(cfg.APIKey, cfg.BaseURL),
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		maxTokens:   cfg.MaxTokens,
		jsonMode:    cfg.JSONMode,
		logger:      cfg.Logger,
	}
}

// Generate implements domain.Generator.
func (g *Generator) Generate(ctx context.Context, p domain.Prompt) (domain.Completion, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.System},
			{Role: openai.ChatMessageRoleUser, Content: p.User},
		},
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	}
	if g.jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return domain.Completion{}, parseAPIError(err, "chat", domain.ErrLLMProviderError)
	}
	if len(resp.Choices) == 0 {
		return domain.Completion{}, fmt.Errorf("empty chat response: %w", domain.ErrLLMProviderError)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		g.logger.Warn("Chat model returned empty content",
			zap.String("model", g.model),
			zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		)
	}

	return domain.Completion{
		Text:             text,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// HealthCheck verifies the endpoint answers ListModels.
func (g *Generator) HealthCheck(ctx context.Context) error {
	if _, err := g.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}
