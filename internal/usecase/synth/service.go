// Package synth turns assembled evidence into a single grade decision with one
// language model call.
package synth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lspl/gradereco/internal/domain"
	"github.com/lspl/gradereco/internal/metrics"
)

// Config holds the synthesizer settings.
type Config struct {
	Provider      string
	Model         string
	Timeout       time.Duration // 0 = caller's deadline only
	MaxCandidates int
}

// Service builds the prompt, calls the model and parses its reply.
type Service struct {
	gen    domain.Generator
	cfg    Config
	logger *zap.Logger
}

// New creates a decision synthesizer.
func New(gen domain.Generator, cfg Config, logger *zap.Logger) *Service {
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = DefaultMaxCandidates
	}
	return &Service{gen: gen, cfg: cfg, logger: logger}
}

// Decide asks the model for a grade. Unparseable replies are not errors: they
// produce a degraded TBD decision. Transport failures wrap domain.ErrLLMProviderError.
func (s *Service) Decide(ctx context.Context, in Input) (domain.Decision, error) {
	prompt := BuildPrompt(in, s.cfg.MaxCandidates)

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	completion, err := s.gen.Generate(ctx, prompt)
	duration := time.Since(start)

	metrics.LLMRequestDuration.WithLabelValues(s.cfg.Provider, s.cfg.Model).Observe(duration.Seconds())

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(s.cfg.Provider, s.cfg.Model, "error").Inc()
		s.logger.Error("LLM request failed",
			zap.String("provider", s.cfg.Provider),
			zap.String("model", s.cfg.Model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		if !errors.Is(err, domain.ErrLLMProviderError) {
			err = fmt.Errorf("%w: %w", domain.ErrLLMProviderError, err)
		}
		return domain.Decision{}, fmt.Errorf("generate decision: %w", err)
	}

	metrics.LLMRequestsTotal.WithLabelValues(s.cfg.Provider, s.cfg.Model, "ok").Inc()
	s.recordTokens(ctx, completion)

	decision := ParseDecision(completion.Text)
	if decision.Degraded {
		s.logger.Warn("LLM reply is not a JSON object, using placeholder decision",
			zap.String("provider", s.cfg.Provider),
			zap.String("model", s.cfg.Model),
			zap.Int("reply_len", len(completion.Text)),
		)
	}

	s.logger.Debug("LLM decision",
		zap.String("provider", s.cfg.Provider),
		zap.String("model", s.cfg.Model),
		zap.String("grade", decision.Grade),
		zap.Duration("duration", duration),
		zap.Int("prompt_tokens", completion.PromptTokens),
		zap.Int("completion_tokens", completion.CompletionTokens),
	)

	return decision, nil
}

func (s *Service) recordTokens(ctx context.Context, c domain.Completion) {
	domain.UsageFromContext(ctx).AddCompletion(c.PromptTokens, c.CompletionTokens)
	if c.PromptTokens > 0 {
		metrics.LLMTokensTotal.WithLabelValues(s.cfg.Provider, s.cfg.Model, "prompt").Add(float64(c.PromptTokens))
	}
	if c.CompletionTokens > 0 {
		metrics.LLMTokensTotal.WithLabelValues(s.cfg.Provider, s.cfg.Model, "completion").
			Add(float64(c.CompletionTokens))
	}
}
