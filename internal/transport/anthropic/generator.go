// Package anthropic adapts the Anthropic Messages API to domain.Generator.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/lspl/gradereco/internal/domain"
)

// Config holds the Anthropic model settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Logger      *zap.Logger
}

var _ domain.Generator = (*Generator)(nil)

// Generator calls Messages.New with a system block and one user turn.
type Generator struct {
	client      anthropic.Client
	model       string
	temperature float64
	maxTokens   int64
	logger      *zap.Logger
}

// NewGenerator creates an Anthropic generator. Retries are left to the caller.
func NewGenerator(cfg *Config) *Generator {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	return &Generator{
		client:      anthropic.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		logger:      cfg.Logger,
	}
}

// Generate implements domain.Generator.
func (g *Generator) Generate(ctx context.Context, p domain.Prompt) (domain.Completion, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(g.model),
		MaxTokens:   g.maxTokens,
		Temperature: anthropic.Float(g.temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(p.User)),
		},
	}
	if p.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: p.System}}
	}

	msg, err := g.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return domain.Completion{}, fmt.Errorf("%w: anthropic API error %d: %w",
				domain.ErrLLMProviderError, apiErr.StatusCode, err)
		}
		return domain.Completion{}, fmt.Errorf("%w: anthropic request failed: %w", domain.ErrLLMProviderError, err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return domain.Completion{}, fmt.Errorf("%w: no text content in anthropic response", domain.ErrLLMProviderError)
	}

	g.logger.Debug("Anthropic completion",
		zap.String("model", g.model),
		zap.String("stop_reason", string(msg.StopReason)),
		zap.Int64("input_tokens", msg.Usage.InputTokens),
		zap.Int64("output_tokens", msg.Usage.OutputTokens),
	)

	return domain.Completion{
		Text:             strings.TrimSpace(text.String()),
		PromptTokens:     int(msg.Usage.InputTokens),
		CompletionTokens: int(msg.Usage.OutputTokens),
	}, nil
}
