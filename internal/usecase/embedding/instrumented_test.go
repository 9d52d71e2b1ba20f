package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/lspl/gradereco/internal/domain"
	"github.com/lspl/gradereco/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterEmbeddingMetrics()
	os.Exit(m.Run())
}

// fakeEmbedder returns a one-dimensional vector holding the text length and
// charges tokensPerText for every text.
type fakeEmbedder struct {
	tokensPerText int
	err           error
	singleCalls   int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	f.singleCalls++
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{
		Embedding:    []float32{float32(len(text))},
		PromptTokens: f.tokensPerText,
		TotalTokens:  f.tokensPerText,
	}, nil
}

// batchingFake adds native batching and records each chunk size.
type batchingFake struct {
	fakeEmbedder
	chunks []int
}

func (f *batchingFake) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	f.chunks = append(f.chunks, len(texts))
	if f.err != nil {
		return domain.BatchEmbeddingResult{}, f.err
	}
	out := domain.BatchEmbeddingResult{}
	for _, t := range texts {
		out.Embeddings = append(out.Embeddings, []float32{float32(len(t))})
		out.PromptTokens += f.tokensPerText
		out.TotalTokens += f.tokensPerText
	}
	return out, nil
}

type checkedEmbedder struct {
	fakeEmbedder
	healthErr error
}

func (p *checkedEmbedder) HealthCheck(context.Context) error { return p.healthErr }

func TestEmbed_RecordsUsageAndMetrics(t *testing.T) {
	p := NewInstrumentedEmbedder(&fakeEmbedder{tokensPerText: 500}, "emb-ok", "m", zap.NewNop())

	ctx, usage := domain.NewContextWithUsage(context.Background())
	res, err := p.Embed(ctx, "Hot forging of steel crankshafts")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Embedding[0] != 32 || res.TotalTokens != 500 {
		t.Errorf("unexpected result %+v", res)
	}
	if usage.EmbeddingTokens != 500 || !usage.Embedded {
		t.Errorf("expected 500 embedding tokens in usage, got %+v", usage)
	}
	if v := testutil.ToFloat64(metrics.EmbeddingRequestsTotal.WithLabelValues("emb-ok", "m", "ok")); v != 1 {
		t.Errorf("expected 1 ok request, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.EmbeddingTokensTotal.WithLabelValues("emb-ok", "m", "total")); v != 500 {
		t.Errorf("expected 500 total tokens, got %f", v)
	}
}

func TestEmbed_ErrorTypes(t *testing.T) {
	tests := []struct {
		provider string
		err      error
		wantType string
	}{
		{"emb-provider", fmt.Errorf("%w: 401", domain.ErrEmbeddingProviderError), "provider"},
		{"emb-timeout", context.DeadlineExceeded, "timeout"},
		{"emb-canceled", context.Canceled, "canceled"},
		{"emb-other", errors.New("boom"), "other"},
	}
	for _, tc := range tests {
		t.Run(tc.wantType, func(t *testing.T) {
			p := NewInstrumentedEmbedder(&fakeEmbedder{err: tc.err}, tc.provider, "m", zap.NewNop())

			_, err := p.Embed(context.Background(), "x")
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected cause to be preserved, got %v", err)
			}
			if v := testutil.ToFloat64(metrics.EmbeddingErrorsTotal.WithLabelValues(tc.provider, "m", tc.wantType)); v != 1 {
				t.Errorf("expected 1 %s error, got %f", tc.wantType, v)
			}
			if v := testutil.ToFloat64(metrics.EmbeddingRequestsTotal.WithLabelValues(tc.provider, "m", "error")); v != 1 {
				t.Errorf("expected 1 failed request, got %f", v)
			}
		})
	}
}

func TestBatchEmbed_ChunksAndSumsUsage(t *testing.T) {
	inner := &batchingFake{fakeEmbedder: fakeEmbedder{tokensPerText: 1}}
	p := NewInstrumentedEmbedder(inner, "emb-chunks", "m", zap.NewNop())

	texts := make([]string, DefaultMaxAPIBatchSize+10)
	for i := range texts {
		texts[i] = fmt.Sprintf("ticket-%d", i)
	}
	ctx, usage := domain.NewContextWithUsage(context.Background())

	res, err := p.BatchEmbed(ctx, texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != len(texts) {
		t.Fatalf("expected %d embeddings, got %d", len(texts), len(res.Embeddings))
	}
	if len(inner.chunks) != 2 || inner.chunks[0] != DefaultMaxAPIBatchSize || inner.chunks[1] != 10 {
		t.Errorf("unexpected chunking %v", inner.chunks)
	}
	last := len(texts) - 1
	if res.Embeddings[last][0] != float32(len(texts[last])) {
		t.Error("expected embeddings in input order")
	}
	if usage.EmbeddingTokens != len(texts) {
		t.Errorf("expected %d tokens in usage, got %d", len(texts), usage.EmbeddingTokens)
	}
	if n := testutil.CollectAndCount(metrics.EmbeddingBatchSize); n == 0 {
		t.Error("expected batch size observation")
	}
}

func TestBatchEmbed_EmptyIsNoop(t *testing.T) {
	inner := &batchingFake{}
	p := NewInstrumentedEmbedder(inner, "emb-empty", "m", zap.NewNop())

	res, err := p.BatchEmbed(context.Background(), nil)
	if err != nil || res.Embeddings != nil {
		t.Errorf("expected empty result, got %+v, %v", res, err)
	}
	if len(inner.chunks) != 0 {
		t.Errorf("expected no provider calls, got %v", inner.chunks)
	}
}

func TestBatchEmbed_ChunkErrorAborts(t *testing.T) {
	inner := &batchingFake{fakeEmbedder: fakeEmbedder{err: domain.ErrEmbeddingProviderError}}
	p := NewInstrumentedEmbedder(inner, "emb-batch-err", "m", zap.NewNop())

	ctx, usage := domain.NewContextWithUsage(context.Background())
	_, err := p.BatchEmbed(ctx, []string{"a", "b"})
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if usage.Embedded {
		t.Error("failed batch must not record usage")
	}
}

func TestBatchEmbed_PerTextWithoutNativeBatching(t *testing.T) {
	inner := &fakeEmbedder{tokensPerText: 5}
	p := NewInstrumentedEmbedder(inner, "emb-single", "m", zap.NewNop())

	res, err := p.BatchEmbed(context.Background(), []string{"a", "bb"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.singleCalls != 2 || res.TotalTokens != 10 {
		t.Errorf("expected 2 single calls and 10 tokens, got %d and %d", inner.singleCalls, res.TotalTokens)
	}
}

func TestHealthCheck(t *testing.T) {
	plain := NewInstrumentedEmbedder(&fakeEmbedder{}, "emb-h", "m", zap.NewNop())
	if err := plain.HealthCheck(context.Background()); err != nil {
		t.Errorf("expected nil for provider without health check, got %v", err)
	}

	down := NewInstrumentedEmbedder(&checkedEmbedder{healthErr: errors.New("down")}, "emb-h", "m", zap.NewNop())
	if err := down.HealthCheck(context.Background()); err == nil {
		t.Error("expected provider health error")
	}
}
