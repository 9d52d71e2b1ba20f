package embcache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/lspl/gradereco/internal/db"
	"github.com/lspl/gradereco/internal/domain"
)

func TestEmbed_MissThenHit(t *testing.T) {
	inner := &stubEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 10,
		TotalTokens:  10,
	}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ctx := context.Background()

	first, err := ce.Embed(ctx, "Ticket T-1001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.TotalTokens != 10 || len(ms.data) != 1 {
		t.Fatalf("expected provider tokens and one stored vector, got %d tokens, %d keys", first.TotalTokens, len(ms.data))
	}

	inner.err = errors.New("provider must not be called on a hit")
	second, err := ce.Embed(ctx, "Ticket T-1001")
	if err != nil {
		t.Fatalf("unexpected error on hit: %v", err)
	}
	if second.TotalTokens != 0 {
		t.Errorf("expected zero tokens on hit, got %d", second.TotalTokens)
	}
	if second.Embedding[2] != 0.3 {
		t.Errorf("unexpected cached vector %v", second.Embedding)
	}
}

func TestEmbed_InnerErrorIsNotCached(t *testing.T) {
	inner := &stubEmbedder{err: domain.ErrEmbeddingProviderError}
	ce, ms := newTestCachedEmbedder(t, inner)

	_, err := ce.Embed(context.Background(), "x")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if len(ms.data) != 0 {
		t.Errorf("expected nothing cached, got %d keys", len(ms.data))
	}
}

func TestEmbed_CorruptEntryIsAMiss(t *testing.T) {
	inner := &stubEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.5}}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.data = map[string][]byte{ce.key("x"): {1, 2, 3}}

	res, err := ce.Embed(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Embedding[0] != 0.5 {
		t.Errorf("expected provider vector, got %v", res.Embedding)
	}
	if got, _ := decodeVector(ms.data[ce.key("x")]); len(got) != 1 {
		t.Error("expected corrupt entry to be overwritten")
	}
}

func TestEmbed_StoreOutageIsNotFatal(t *testing.T) {
	inner := &stubEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.7}}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.getFn = func(context.Context, string) ([]byte, error) {
		return nil, &db.Error{Op: db.OpGet, Err: errors.New("connection refused")}
	}
	ms.setFn = func(context.Context, string, []byte, time.Duration) error {
		return &db.Error{Op: db.OpSet, Err: errors.New("connection refused")}
	}

	res, err := ce.Embed(context.Background(), "x")
	if err != nil {
		t.Fatalf("cache outage must not fail embedding: %v", err)
	}
	if res.Embedding[0] != 0.7 {
		t.Errorf("expected provider vector, got %v", res.Embedding)
	}
}

func TestEmbed_PassesTTL(t *testing.T) {
	ce, ms := newTestCachedEmbedder(t, &stubEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}})

	var gotTTL time.Duration
	ms.setFn = func(_ context.Context, _ string, _ []byte, ttl time.Duration) error {
		gotTTL = ttl
		return nil
	}
	if _, err := ce.Embed(context.Background(), "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotTTL != time.Hour {
		t.Errorf("expected TTL=1h, got %v", gotTTL)
	}
}

func TestBatchEmbed_MixedHitsAndMisses(t *testing.T) {
	inner := &stubEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.5},
		PromptTokens: 3,
		TotalTokens:  3,
	}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.data = map[string][]byte{ce.key("hit"): encodeVector([]float32{0.9})}

	res, err := ce.BatchEmbed(context.Background(), []string{"miss1", "hit", "miss2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 3 {
		t.Fatalf("expected 3 embeddings, got %d", len(res.Embeddings))
	}
	if res.Embeddings[0][0] != 0.5 || res.Embeddings[1][0] != 0.9 || res.Embeddings[2][0] != 0.5 {
		t.Errorf("unexpected vectors %v", res.Embeddings)
	}
	if res.TotalTokens != 6 {
		t.Errorf("expected tokens for the two misses only, got %d", res.TotalTokens)
	}
	if inner.batchCalls != 1 || len(ms.data) != 3 {
		t.Errorf("expected one provider call and all three cached, got %d calls, %d keys", inner.batchCalls, len(ms.data))
	}
}

func TestBatchEmbed_AllHitsSkipProvider(t *testing.T) {
	inner := &stubEmbedder{batchErr: errors.New("provider must not be called")}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.data = map[string][]byte{
		ce.key("a"): encodeVector([]float32{1, 2}),
		ce.key("b"): encodeVector([]float32{3, 4}),
	}

	res, err := ce.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TotalTokens != 0 || res.Embeddings[1][1] != 4 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestBatchEmbed_InnerError(t *testing.T) {
	ce, _ := newTestCachedEmbedder(t, &stubEmbedder{batchErr: errors.New("api down")})

	if _, err := ce.BatchEmbed(context.Background(), []string{"a"}); err == nil {
		t.Fatal("expected provider error")
	}
}

func TestBatchEmbed_Empty(t *testing.T) {
	ce, _ := newTestCachedEmbedder(t, &stubEmbedder{})

	res, err := ce.BatchEmbed(context.Background(), nil)
	if err != nil || res.Embeddings != nil {
		t.Errorf("expected empty result, got %+v, %v", res, err)
	}
}

func TestBatchEmbed_UsesSingleMultiGet(t *testing.T) {
	inner := &stubEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.4}, TotalTokens: 2}}
	store := &batchKVStore{}
	ce := New(inner, store, Options{Model: "m"}, nil, zap.NewNop())
	texts := []string{"Ticket T-1001", "Ticket T-1002", "Ticket T-1003"}

	if _, err := ce.BatchEmbed(context.Background(), texts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := ce.BatchEmbed(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.mgetCalls != 2 {
		t.Errorf("expected one MGET per batch, got %d", store.mgetCalls)
	}
	if inner.batchCalls != 1 {
		t.Errorf("expected the second batch to be served from cache, got %d provider calls", inner.batchCalls)
	}
	if res.TotalTokens != 0 {
		t.Errorf("expected no tokens on cached batch, got %d", res.TotalTokens)
	}
}

func TestBatchEmbed_MultiGetFailureTreatedAsMisses(t *testing.T) {
	inner := &stubEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.4}}}
	store := &batchKVStore{mgetErr: &db.Error{Op: db.OpGet, Err: errors.New("timeout")}}
	ce := New(inner, store, Options{Model: "m"}, nil, zap.NewNop())

	res, err := ce.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("cache outage must not fail embedding: %v", err)
	}
	if len(res.Embeddings) != 2 || inner.batchCalls != 1 {
		t.Errorf("expected both texts embedded by the provider, got %d embeddings, %d calls", len(res.Embeddings), inner.batchCalls)
	}
}

func TestKey_ScopedByModel(t *testing.T) {
	ka := keyFor("reco:", "openai/model-a", "same text")
	kb := keyFor("reco:", "openai/model-b", "same text")
	if ka == kb {
		t.Fatal("expected different keys for different models")
	}
	if !strings.HasPrefix(ka, "reco:emb:openai/model-a:") {
		t.Errorf("unexpected key %q", ka)
	}
}

func TestDecodeVector_RejectsBadLength(t *testing.T) {
	for _, data := range [][]byte{nil, {1, 2, 3}, {1, 2, 3, 4, 5}} {
		if _, err := decodeVector(data); err == nil {
			t.Errorf("expected error for %d bytes", len(data))
		}
	}
	got, err := decodeVector(encodeVector([]float32{-1.5, 0, 3.25}))
	if err != nil || len(got) != 3 || got[0] != -1.5 || got[2] != 3.25 {
		t.Errorf("unexpected decode %v, %v", got, err)
	}
}

func TestLookupsCounted(t *testing.T) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_cache_total"}, []string{"result"})
	inner := &stubEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	ce := New(inner, &mockKVStore{}, Options{}, counter, zap.NewNop())

	for range 3 {
		if _, err := ce.Embed(context.Background(), "same"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := ce.BatchEmbed(context.Background(), []string{"same", "other"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v := testutil.ToFloat64(counter.WithLabelValues("hit")); v != 3 {
		t.Errorf("expected 3 hits, got %f", v)
	}
	if v := testutil.ToFloat64(counter.WithLabelValues("miss")); v != 2 {
		t.Errorf("expected 2 misses, got %f", v)
	}
}
