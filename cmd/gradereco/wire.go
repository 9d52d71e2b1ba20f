package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lspl/gradereco/internal/config"
	dbredis "github.com/lspl/gradereco/internal/db/redis"
	"github.com/lspl/gradereco/internal/db/sqlstore"
	"github.com/lspl/gradereco/internal/domain"
	"github.com/lspl/gradereco/internal/embedding/hashing"
	"github.com/lspl/gradereco/internal/metrics"
	"github.com/lspl/gradereco/internal/repository/catalog"
	"github.com/lspl/gradereco/internal/repository/embcache"
	ticketrepo "github.com/lspl/gradereco/internal/repository/ticket"
	anthropicTransport "github.com/lspl/gradereco/internal/transport/anthropic"
	geminiTransport "github.com/lspl/gradereco/internal/transport/gemini"
	openaiTransport "github.com/lspl/gradereco/internal/transport/openai"
	embeddinguc "github.com/lspl/gradereco/internal/usecase/embedding"
	ticketuc "github.com/lspl/gradereco/internal/usecase/ticket"
	toolsuc "github.com/lspl/gradereco/internal/usecase/tools"
)

// openStore connects to the relational store and waits until it answers.
func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*sqlstore.Store, error) {
	store, err := sqlstore.Open(ctx, sqlstore.Config{
		URL:          cfg.URL,
		MaxOpenConns: cfg.MaxOpenConns,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database", zap.Stringer("dialect", store.Dialect()))
	return store, nil
}

// openCache connects to the embedding cache. It returns nil when none is configured.
func openCache(ctx context.Context, cfg config.CacheConfig, timeout time.Duration, logger *zap.Logger) (*dbredis.Store, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	cache, err := dbredis.NewStore(dbredis.Config{
		Addrs:    cfg.Addrs,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("create cache store: %w", err)
	}
	if err := cache.WaitForReady(ctx, timeout); err != nil {
		cache.Close()
		return nil, fmt.Errorf("cache not ready: %w", err)
	}
	logger.Info("Connected to embedding cache", zap.Strings("addrs", cfg.Addrs))
	return cache, nil
}

// embedders holds the document and query chains. health is the instrumented
// document embedder that health checks call.
type embedders struct {
	document domain.Embedder
	query    domain.Embedder
	health   *embeddinguc.InstrumentedEmbedder
}

// buildEmbedders assembles the decorator chain for the configured provider:
// provider -> cache -> instrumented -> instruction prefix.
func buildEmbedders(
	ctx context.Context,
	cfg config.EmbeddingConfig,
	cache *dbredis.Store,
	cacheCfg config.CacheConfig,
	logger *zap.Logger,
) (embedders, error) {
	var docBase, queryBase domain.Embedder
	var docTask, queryTask string
	switch cfg.Provider {
	case config.EmbeddingLocal:
		h := hashing.New(cfg.Dimensions)
		docBase, queryBase = h, h
	case config.EmbeddingOpenAI:
		e := openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Logger:     logger,
		})
		docBase, queryBase = e, e
	case config.EmbeddingGemini:
		client, err := geminiTransport.NewClient(ctx, geminiTransport.Config{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL})
		if err != nil {
			return embedders{}, fmt.Errorf("embedding provider: %w", err)
		}
		docTask, queryTask = geminiTransport.TaskRetrievalDocument, geminiTransport.TaskRetrievalQuery
		docBase = geminiTransport.NewEmbedder(client, cfg.Model, docTask, cfg.Dimensions)
		queryBase = geminiTransport.NewEmbedder(client, cfg.Model, queryTask, cfg.Dimensions)
	default:
		return embedders{}, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}

	chain := func(base domain.Embedder, task, instruction string) (domain.Embedder, *embeddinguc.InstrumentedEmbedder) {
		var e domain.Embedder = base
		// Hashing is cheaper than a cache round trip.
		if cache != nil && cfg.Provider != config.EmbeddingLocal {
			e = embcache.New(e, cache, embcache.Options{
				KeyPrefix: cacheCfg.KeyPrefix,
				Model:     cacheScope(cfg.Provider, cfg.Model, task),
				TTL:       time.Duration(cacheCfg.TTLSec) * time.Second,
			}, metrics.EmbeddingCacheTotal, logger)
		}
		inst := embeddinguc.NewInstrumentedEmbedder(e, cfg.Provider, cfg.Model, logger)
		if instruction != "" {
			return domain.NewInstructionEmbedder(inst, instruction), inst
		}
		return inst, inst
	}

	doc, docHealth := chain(docBase, docTask, cfg.DocumentInstruction)
	query, _ := chain(queryBase, queryTask, cfg.QueryInstruction)

	logger.Info("Embedders created",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model),
		zap.Int("dimensions", cfg.Dimensions),
		zap.Bool("cached", cache != nil && cfg.Provider != config.EmbeddingLocal),
	)
	return embedders{document: doc, query: query, health: docHealth}, nil
}

// cacheScope names the vector space a cached embedding belongs to. Providers that
// embed documents and queries differently get a task suffix so the two never
// share cache entries.
func cacheScope(provider, model, task string) string {
	scope := provider + "/" + model
	if task != "" {
		scope += "/" + task
	}
	return scope
}

// buildGenerator creates the language model client for the configured provider.
func buildGenerator(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (domain.Generator, error) {
	temperature := 0.1
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}

	switch cfg.Provider {
	case config.LLMOpenAI:
		return openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: temperature,
			MaxTokens:   cfg.MaxTokens,
			JSONMode:    cfg.JSONMode,
			Logger:      logger,
		}), nil
	case config.LLMAnthropic:
		return anthropicTransport.NewGenerator(&anthropicTransport.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: temperature,
			MaxTokens:   cfg.MaxTokens,
			Logger:      logger,
		}), nil
	case config.LLMGemini:
		client, err := geminiTransport.NewClient(ctx, geminiTransport.Config{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL})
		if err != nil {
			return nil, fmt.Errorf("llm provider: %w", err)
		}
		return geminiTransport.NewGenerator(client, geminiTransport.GeneratorConfig{
			Model:       cfg.Model,
			Temperature: temperature,
			MaxTokens:   cfg.MaxTokens,
			JSONMode:    cfg.JSONMode,
			Logger:      logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// newToolService wires the query tools over the relational store.
func newToolService(store *sqlstore.Store) *toolsuc.Service {
	cat := catalog.New(store)
	return toolsuc.New(ticketuc.New(ticketrepo.New(store)), cat, cat)
}
