package embcache

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/lspl/gradereco/internal/db"
	"github.com/lspl/gradereco/internal/domain"
)

// stubEmbedder returns the same vector for every text; batch calls are counted.
type stubEmbedder struct {
	result     domain.EmbeddingResult
	err        error
	batchErr   error
	batchCalls int
}

func (m *stubEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return m.result, m.err
}

func (m *stubEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batchCalls++
	if m.batchErr != nil {
		return domain.BatchEmbeddingResult{}, m.batchErr
	}
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i := range texts {
		out.Embeddings[i] = m.result.Embedding
		out.PromptTokens += m.result.PromptTokens
		out.TotalTokens += m.result.TotalTokens
	}
	return out, nil
}

// mockKVStore serves from an in-memory map unless a hook overrides it.
type mockKVStore struct {
	mu    sync.Mutex
	data  map[string][]byte
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string][]byte{}
	}
	m.data[key] = value
	return nil
}

// batchKVStore adds a multi-key read on top of mockKVStore.
type batchKVStore struct {
	mockKVStore
	mgetErr   error
	mgetCalls int
}

func (m *batchKVStore) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	m.mgetCalls++
	if m.mgetErr != nil {
		return nil, m.mgetErr
	}
	out := make([][]byte, len(keys))
	for i, k := range keys {
		if v, err := m.mockKVStore.Get(ctx, k); err == nil {
			out[i] = v
		}
	}
	return out, nil
}

func newTestCachedEmbedder(t *testing.T, inner *stubEmbedder) (*CachedEmbedder, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	ce := New(inner, ms, Options{KeyPrefix: "reco:", Model: "text-embedding-3-small", TTL: time.Hour}, nil, zap.NewNop())
	return ce, ms
}
