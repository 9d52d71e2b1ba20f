// Package openai talks to OpenAI-compatible endpoints for embeddings and chat.
package openai

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/lspl/gradereco/internal/domain"
)

// Config holds the embedding provider settings. An empty BaseURL keeps the
// client's default endpoint; Dimensions <= 0 leaves the model's native size.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	User       string
	Logger     *zap.Logger
}

// Embedder embeds text through the /embeddings endpoint.
type Embedder struct {
	client *openai.Client
	base   openai.EmbeddingRequest
	log    *zap.Logger
}

// NewEmbedder creates an OpenAI-compatible embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	base := openai.EmbeddingRequest{
		Model:          openai.EmbeddingModel(cfg.Model),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           cfg.User,
	}
	if cfg.Dimensions > 0 {
		base.Dimensions = cfg.Dimensions
	}
	return &Embedder{client: newClient(cfg.APIKey, cfg.BaseURL), base: base, log: cfg.Logger}
}

func newClient(apiKey, baseURL string) *openai.Client {
	c := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		c.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(c)
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := e.create(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:    res.Embeddings[0],
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// BatchEmbed implements domain.BatchEmbedder with a single API call.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}
	res, err := e.create(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}
	e.log.Debug("OpenAI batch embedding completed",
		zap.String("model", string(e.base.Model)),
		zap.Int("texts", len(texts)),
		zap.Int("total_tokens", res.TotalTokens),
	)
	return res, nil
}

// HealthCheck lists models, which costs no tokens.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// create sends one request and returns vectors in input order. Providers may
// return data shuffled, so items are sorted by their index.
func (e *Embedder) create(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	req := e.base
	req.Input = texts
	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return domain.BatchEmbeddingResult{}, parseAPIError(err, "embedding", domain.ErrEmbeddingProviderError)
	}
	if len(resp.Data) != len(texts) {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("%w: got %d embeddings for %d texts",
			domain.ErrEmbeddingProviderError, len(resp.Data), len(texts))
	}

	data := slices.SortedFunc(slices.Values(resp.Data), func(a, b openai.Embedding) int {
		return cmp.Compare(a.Index, b.Index)
	})
	out := domain.BatchEmbeddingResult{
		Embeddings:   make([][]float32, len(data)),
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}
	for i, d := range data {
		out.Embeddings[i] = d.Embedding
	}
	return out, nil
}
