package gemini

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/lspl/gradereco/internal/domain"
)

// GeneratorConfig holds the Gemini generation settings.
type GeneratorConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
	JSONMode    bool
	Logger      *zap.Logger
}

var _ domain.Generator = (*Generator)(nil)

// Generator calls Models.GenerateContent with a system instruction.
type Generator struct {
	client *genai.Client
	cfg    GeneratorConfig
}

// NewGenerator creates a Gemini generator.
func NewGenerator(client *genai.Client, cfg GeneratorConfig) *Generator {
	return &Generator{client: client, cfg: cfg}
}

// Generate implements domain.Generator.
func (g *Generator) Generate(ctx context.Context, p domain.Prompt) (domain.Completion, error) {
	temp := float32(g.cfg.Temperature)
	gc := &genai.GenerateContentConfig{Temperature: &temp}
	if p.System != "" {
		gc.SystemInstruction = genai.NewContentFromText(p.System, genai.RoleUser)
	}
	if g.cfg.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(g.cfg.MaxTokens)
	}
	if g.cfg.JSONMode {
		gc.ResponseMIMEType = "application/json"
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.Model, genai.Text(p.User), gc)
	if err != nil {
		return domain.Completion{}, wrapAPIError("generate", domain.ErrLLMProviderError, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return domain.Completion{}, fmt.Errorf("%w: empty gemini response", domain.ErrLLMProviderError)
	}

	out := domain.Completion{Text: text}
	if u := resp.UsageMetadata; u != nil {
		out.PromptTokens = int(u.PromptTokenCount)
		out.CompletionTokens = int(u.CandidatesTokenCount)
	}

	g.cfg.Logger.Debug("Gemini completion",
		zap.String("model", g.cfg.Model),
		zap.Int("prompt_tokens", out.PromptTokens),
		zap.Int("completion_tokens", out.CompletionTokens),
	)
	return out, nil
}
