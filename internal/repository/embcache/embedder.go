// Package embcache puts a key-value cache in front of an embedding provider.
// Cache failures are logged and treated as misses; they never fail a request.
package embcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/lspl/gradereco/internal/db"
	"github.com/lspl/gradereco/internal/domain"
)

type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// multiGetter is implemented by stores that can fetch many keys per round trip.
type multiGetter interface {
	MGet(ctx context.Context, keys []string) ([][]byte, error)
}

// Options configures key scoping and expiry.
type Options struct {
	KeyPrefix string
	Model     string
	TTL       time.Duration // 0 stores without expiry
}

// CachedEmbedder serves repeated texts from the cache. Hits report zero tokens.
type CachedEmbedder struct {
	inner   domain.Embedder
	store   store
	opts    Options
	lookups *prometheus.CounterVec
	log     *zap.Logger
}

// New wraps inner. lookups, when non-nil, is incremented with label "hit" or "miss".
func New(inner domain.Embedder, s store, opts Options, lookups *prometheus.CounterVec, logger *zap.Logger) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, store: s, opts: opts, lookups: lookups, log: logger}
}

// Embed returns the cached vector for text, embedding and storing it on a miss.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.key(text)
	if vec := c.read(ctx, key); vec != nil {
		c.count(1, 0)
		return domain.EmbeddingResult{Embedding: vec}, nil
	}
	c.count(0, 1)

	res, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}
	c.write(ctx, key, res.Embedding)
	return res, nil
}

// BatchEmbed looks all texts up at once and sends only the misses to the provider.
func (c *CachedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = c.key(t)
	}
	vecs := c.readMany(ctx, keys)

	var misses []int
	for i, v := range vecs {
		if v == nil {
			misses = append(misses, i)
		}
	}
	c.count(len(texts)-len(misses), len(misses))
	if len(misses) == 0 {
		return domain.BatchEmbeddingResult{Embeddings: vecs}, nil
	}

	pending := make([]string, len(misses))
	for j, i := range misses {
		pending[j] = texts[i]
	}
	res, err := domain.EmbedAll(ctx, c.inner, pending)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("embed %d uncached texts: %w", len(pending), err)
	}
	for j, i := range misses {
		vecs[i] = res.Embeddings[j]
		c.write(ctx, keys[i], vecs[i])
	}

	return domain.BatchEmbeddingResult{
		Embeddings:   vecs,
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

func (c *CachedEmbedder) key(text string) string {
	return keyFor(c.opts.KeyPrefix, c.opts.Model, text)
}

func (c *CachedEmbedder) count(hits, misses int) {
	if c.lookups == nil {
		return
	}
	if hits > 0 {
		c.lookups.WithLabelValues("hit").Add(float64(hits))
	}
	if misses > 0 {
		c.lookups.WithLabelValues("miss").Add(float64(misses))
	}
}

// read returns the cached vector at key, or nil.
func (c *CachedEmbedder) read(ctx context.Context, key string) []float32 {
	data, err := c.store.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return nil
	case err != nil:
		c.log.Warn("Embedding cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	return c.decode(key, data)
}

// readMany returns cached vectors aligned with keys, nil where absent. Stores
// without MGet are read key by key.
func (c *CachedEmbedder) readMany(ctx context.Context, keys []string) [][]float32 {
	out := make([][]float32, len(keys))
	mg, ok := c.store.(multiGetter)
	if !ok {
		for i, k := range keys {
			out[i] = c.read(ctx, k)
		}
		return out
	}

	raw, err := mg.MGet(ctx, keys)
	if err != nil {
		c.log.Warn("Embedding cache batch read failed", zap.Int("keys", len(keys)), zap.Error(err))
		return out
	}
	for i := range min(len(raw), len(keys)) {
		if raw[i] != nil {
			out[i] = c.decode(keys[i], raw[i])
		}
	}
	return out
}

func (c *CachedEmbedder) decode(key string, data []byte) []float32 {
	vec, err := decodeVector(data)
	if err != nil {
		c.log.Warn("Discarding unreadable cached embedding", zap.String("key", key), zap.Error(err))
		return nil
	}
	return vec
}

func (c *CachedEmbedder) write(ctx context.Context, key string, vec []float32) {
	if err := c.store.SetWithTTL(ctx, key, encodeVector(vec), c.opts.TTL); err != nil {
		c.log.Warn("Embedding cache write failed", zap.String("key", key), zap.Error(err))
	}
}
