// Package recommend runs the grade recommendation pipeline: candidate lookup,
// similar-ticket retrieval, evidence assembly and one model decision.
package recommend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lspl/gradereco/internal/domain"
	"github.com/lspl/gradereco/internal/logger"
	"github.com/lspl/gradereco/internal/metrics"
	"github.com/lspl/gradereco/internal/usecase/synth"
)

// DefaultNearestK is the number of similar tickets shown to the model.
const DefaultNearestK = 5

// Service produces grade recommendations.
type Service struct {
	catalog      Catalog
	evidenceRepo EvidenceReader
	index        TicketIndex
	synth        Synthesizer
	nearestK     int
}

// New creates a recommendation service. nearestK <= 0 selects DefaultNearestK.
func New(catalog Catalog, evidence EvidenceReader, index TicketIndex, s Synthesizer, nearestK int) *Service {
	if nearestK <= 0 {
		nearestK = DefaultNearestK
	}
	return &Service{
		catalog:      catalog,
		evidenceRepo: evidence,
		index:        index,
		synth:        s,
		nearestK:     nearestK,
	}
}

// Recommend validates the requirement and proposes a single grade.
func (s *Service) Recommend(ctx context.Context, req domain.Requirement) (domain.Recommendation, error) {
	rec, err := s.recommend(ctx, req)
	switch {
	case err != nil:
		metrics.RecommendationsTotal.WithLabelValues("error").Inc()
	case rec.Degraded:
		metrics.RecommendationsTotal.WithLabelValues("degraded").Inc()
	default:
		metrics.RecommendationsTotal.WithLabelValues("ok").Inc()
	}
	return rec, err
}

func (s *Service) recommend(ctx context.Context, req domain.Requirement) (domain.Recommendation, error) {
	if err := req.Validate(); err != nil {
		return domain.Recommendation{}, err
	}

	ctx, log := logger.Derive(ctx, zap.NewNop(),
		zap.Stringp("division", req.Division),
		zap.Stringp("category", req.Category),
	)

	products, err := s.candidates(ctx, req.Division, req.Category)
	if err != nil {
		return domain.Recommendation{}, err
	}
	metrics.RecommendationCandidates.Observe(float64(len(products)))

	summary := req.Summary()

	nearest, err := s.index.Nearest(ctx, summary, s.nearestK)
	if err != nil {
		return domain.Recommendation{}, fmt.Errorf("nearest tickets: %w", err)
	}

	ev, err := s.evidence(ctx, req.Customer(), products)
	if err != nil {
		return domain.Recommendation{}, err
	}

	decision, err := s.synth.Decide(ctx, synth.Input{
		Summary:    summary,
		Candidates: products,
		Nearest:    nearest,
		Evidence:   ev,
	})
	if err != nil {
		return domain.Recommendation{}, err
	}

	grades := make([]string, len(products))
	for i, p := range products {
		grades[i] = p.Grade
	}

	log.Info("Recommendation produced",
		zap.String("grade", decision.Grade),
		zap.Int("candidates", len(products)),
		zap.Int("nearest", len(nearest)),
		zap.Bool("degraded", decision.Degraded),
	)

	return domain.Recommendation{
		Decision:       decision,
		Candidates:     grades,
		NearestCount:   len(nearest),
		CandidateCount: len(products),
	}, nil
}
