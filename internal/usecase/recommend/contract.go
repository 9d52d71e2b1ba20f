package recommend

import (
	"context"

	"github.com/lspl/gradereco/internal/domain"
	"github.com/lspl/gradereco/internal/usecase/synth"
)

// Catalog returns products compatible with a division/category pair.
// A nil argument leaves that dimension unconstrained.
type Catalog interface {
	Candidates(ctx context.Context, division, category *string) ([]domain.Product, error)
}

// EvidenceReader reads per-grade records in the requested order. limit <= 0 means all rows.
type EvidenceReader interface {
	RnDByGrade(ctx context.Context, grade string, limit int, order domain.RowOrder) ([]domain.RnDRecord, error)
	TrialsByGrade(ctx context.Context, grade string, limit int, order domain.RowOrder) ([]domain.TrialRecord, error)
	ComplaintsByGrade(ctx context.Context, grade string, limit int, order domain.RowOrder) ([]domain.ComplaintRecord, error)
}

// TicketIndex finds historical tickets similar to a query.
type TicketIndex interface {
	Nearest(ctx context.Context, query string, k int) ([]string, error)
}

// Synthesizer turns evidence into a decision.
type Synthesizer interface {
	Decide(ctx context.Context, in synth.Input) (domain.Decision, error)
}
