package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lspl/gradereco/internal/metrics"
	"github.com/lspl/gradereco/internal/repository/catalog"
	ticketrepo "github.com/lspl/gradereco/internal/repository/ticket"
	chiTransport "github.com/lspl/gradereco/internal/transport/chi"
	"github.com/lspl/gradereco/internal/usecase/health"
	"github.com/lspl/gradereco/internal/usecase/recommend"
	"github.com/lspl/gradereco/internal/usecase/synth"
	ticketuc "github.com/lspl/gradereco/internal/usecase/ticket"
	"github.com/lspl/gradereco/internal/usecase/ticketindex"
	toolsuc "github.com/lspl/gradereco/internal/usecase/tools"
	"github.com/lspl/gradereco/internal/version"
)

// warmIndex is set by the --warm flag.
var warmIndex bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&warmIndex, "warm", false, "build the ticket index at startup instead of on the first request")
}

func runServe(parent context.Context) error {
	cfg, logger, err := loadConfig(false)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting gradereco API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", currentEnv()),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
	)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.RegisterMetrics()

	store, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	cache, err := openCache(ctx, cfg.Cache, time.Duration(cfg.Database.ReadinessTimeout)*time.Second, logger)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
	}

	emb, err := buildEmbedders(ctx, cfg.Embedding, cache, cfg.Cache, logger)
	if err != nil {
		return err
	}
	gen, err := buildGenerator(ctx, cfg.LLM, logger)
	if err != nil {
		return err
	}

	// Repositories
	catalogRepo := catalog.New(store)
	ticketRepo := ticketrepo.New(store)

	// Use case services
	index := ticketindex.New(ticketRepo, emb.document, logger, ticketindex.WithQueryEmbedder(emb.query))
	synthSvc := synth.New(gen, synth.Config{
		Provider:      cfg.LLM.Provider,
		Model:         cfg.LLM.Model,
		Timeout:       time.Duration(cfg.LLM.TimeoutSec) * time.Second,
		MaxCandidates: cfg.Recommend.MaxCandidates,
	}, logger)
	recommendSvc := recommend.New(catalogRepo, catalogRepo, index, synthSvc, cfg.Recommend.NearestK)
	ticketSvc := ticketuc.New(ticketRepo)
	toolSvc := toolsuc.New(ticketSvc, catalogRepo, catalogRepo)

	components := health.Components{Database: store, Embedding: emb.health}
	if cache != nil {
		components.Cache = cache
	}
	if hc, ok := gen.(health.ProviderChecker); ok {
		components.LLM = hc
	}
	healthSvc := health.New(components, logger)

	if warmIndex {
		go func() {
			if err := index.Warm(ctx); err != nil {
				logger.Warn("ticket index warm-up failed", zap.Error(err))
			}
		}()
	}

	server := chiTransport.NewServer(recommendSvc, ticketSvc, toolSvc, healthSvc, logger)
	router := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		APIKeys: cfg.Auth.APIKeys,
		Logger:  logger,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}
