// Package ticketindex keeps the process-wide similarity index over historical tickets.
//
// The index is built lazily on the first query, at most once per process. Concurrent
// first queries share a single build; a failed build is dropped and retried by the
// next query. Tickets created after the build are not visible until restart.
package ticketindex

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/lspl/gradereco/internal/domain"
	"github.com/lspl/gradereco/internal/metrics"
	"github.com/lspl/gradereco/internal/vectorstore/memory"
)

// placeholderDocument stands in for an empty ticket table so the index is never empty.
const placeholderDocument = "seed"

// Service builds and queries the ticket similarity index.
type Service struct {
	tickets    TicketSource
	docEmbed   Embedder
	queryEmbed Embedder
	logger     *zap.Logger

	group singleflight.Group
	index atomic.Pointer[memory.Index]
}

// Option configures a Service.
type Option func(*Service)

// WithQueryEmbedder embeds queries with e instead of the document embedder.
// Instruction-tuned models use a different prefix for queries than for documents.
func WithQueryEmbedder(e Embedder) Option {
	return func(s *Service) { s.queryEmbed = e }
}

// New creates a ticket index service. Nothing is loaded until the first query.
func New(tickets TicketSource, embed Embedder, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		tickets:    tickets,
		docEmbed:   embed,
		queryEmbed: embed,
		logger:     logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Nearest returns the texts of the k tickets most similar to query, best first.
func (s *Service) Nearest(ctx context.Context, query string, k int) ([]string, error) {
	ix, err := s.ensure(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.queryEmbed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := ix.Search(res.Embedding, k)
	if err != nil {
		return nil, fmt.Errorf("%w: search tickets: %w", domain.ErrEmbeddingProviderError, err)
	}

	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Text
	}
	return texts, nil
}

// Warm builds the index ahead of the first query.
func (s *Service) Warm(ctx context.Context) error {
	_, err := s.ensure(ctx)
	return err
}

func (s *Service) ensure(ctx context.Context) (*memory.Index, error) {
	if ix := s.index.Load(); ix != nil {
		return ix, nil
	}

	// The shared build must not fail because the caller that started it went away.
	buildCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do("build", func() (any, error) {
		if ix := s.index.Load(); ix != nil {
			return ix, nil
		}
		ix, err := s.build(buildCtx)
		if err != nil {
			metrics.TicketIndexBuildsTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		s.index.Store(ix)
		metrics.TicketIndexBuildsTotal.WithLabelValues("ok").Inc()
		metrics.TicketIndexSize.Set(float64(ix.Len()))
		return ix, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*memory.Index), nil
}

func (s *Service) build(ctx context.Context) (*memory.Index, error) {
	start := time.Now()

	tickets, err := s.tickets.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tickets: %w", err)
	}

	docs := documents(tickets)
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}

	res, err := domain.EmbedAll(ctx, s.docEmbed, texts)
	if err != nil {
		return nil, fmt.Errorf("embed tickets: %w", err)
	}
	if len(res.Embeddings) != len(docs) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d tickets",
			domain.ErrEmbeddingProviderError, len(res.Embeddings), len(docs))
	}

	ix, err := memory.Build(docs, res.Embeddings)
	if err != nil {
		return nil, fmt.Errorf("%w: build index: %w", domain.ErrEmbeddingProviderError, err)
	}

	s.logger.Info("Ticket index built",
		zap.Int("documents", ix.Len()),
		zap.Int("dimensions", ix.Dimension()),
		zap.Duration("duration", time.Since(start)),
	)
	return ix, nil
}

func documents(tickets []domain.Ticket) []memory.Document {
	if len(tickets) == 0 {
		return []memory.Document{{ID: placeholderDocument, Text: placeholderDocument}}
	}
	docs := make([]memory.Document, len(tickets))
	for i := range tickets {
		docs[i] = memory.Document{
			ID:   strconv.FormatInt(tickets[i].ID, 10),
			Text: tickets[i].Document(),
		}
	}
	return docs
}
