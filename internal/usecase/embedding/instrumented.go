// Package embedding decorates embedding providers with metrics, logs and
// per-request token accounting.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/lspl/gradereco/internal/domain"
	"github.com/lspl/gradereco/internal/metrics"
)

// DefaultMaxAPIBatchSize is the largest number of texts sent in one provider call.
const DefaultMaxAPIBatchSize = 256

// InstrumentedEmbedder observes every call made to the wrapped provider.
type InstrumentedEmbedder struct {
	inner    domain.Embedder
	provider string
	model    string
	log      *zap.Logger
}

// NewInstrumentedEmbedder wraps inner; provider and model become metric labels.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string, logger *zap.Logger,
) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:    inner,
		provider: provider,
		model:    model,
		log:      logger.With(zap.String("provider", provider), zap.String("model", model)),
	}
}

// Embed embeds one text.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	start := time.Now()
	res, err := p.inner.Embed(ctx, text)
	if err = p.finish(ctx, start, err, res.PromptTokens, res.TotalTokens, 1); err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return res, nil
}

// BatchEmbed embeds texts in provider calls of at most DefaultMaxAPIBatchSize.
// Chunks run in order and the first failure aborts the batch.
func (p *InstrumentedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}
	metrics.EmbeddingBatchSize.WithLabelValues(p.provider, p.model).Observe(float64(len(texts)))

	start := time.Now()
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, 0, len(texts))}
	var err error
	for chunk := range slices.Chunk(texts, DefaultMaxAPIBatchSize) {
		var part domain.BatchEmbeddingResult
		if part, err = domain.EmbedAll(ctx, p.inner, chunk); err != nil {
			err = fmt.Errorf("chunk at %d of %d: %w", len(out.Embeddings), len(texts), err)
			break
		}
		out.Embeddings = append(out.Embeddings, part.Embeddings...)
		out.PromptTokens += part.PromptTokens
		out.TotalTokens += part.TotalTokens
	}

	if err = p.finish(ctx, start, err, out.PromptTokens, out.TotalTokens, len(texts)); err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
	}
	return out, nil
}

// HealthCheck forwards to the provider when it can check itself.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	hc, ok := p.inner.(domain.HealthChecker)
	if !ok {
		return nil
	}
	if err := hc.HealthCheck(ctx); err != nil {
		return fmt.Errorf("embedding health: %w", err)
	}
	return nil
}

// finish records the outcome of one Embed or BatchEmbed call and returns err unchanged.
func (p *InstrumentedEmbedder) finish(ctx context.Context, start time.Time, err error, prompt, total, texts int) error {
	elapsed := time.Since(start)
	metrics.EmbeddingRequestDuration.WithLabelValues(p.provider, p.model).Observe(elapsed.Seconds())

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(p.provider, p.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(p.provider, p.model, errorType(err)).Inc()
		p.log.Error("Embedding failed",
			zap.Int("texts", texts), zap.Duration("duration", elapsed), zap.Error(err))
		return err
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(p.provider, p.model, "ok").Inc()
	domain.UsageFromContext(ctx).AddEmbeddingTokens(total)
	if prompt > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(p.provider, p.model, "prompt").Add(float64(prompt))
	}
	if total > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(p.provider, p.model, "total").Add(float64(total))
	}
	p.log.Debug("Embedding completed",
		zap.Int("texts", texts), zap.Duration("duration", elapsed), zap.Int("total_tokens", total))
	return nil
}

func errorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		return "provider"
	default:
		return "other"
	}
}
