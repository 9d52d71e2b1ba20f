package tools

import (
	"context"

	"github.com/lspl/gradereco/internal/domain"
)

// TicketLister lists the newest tickets.
type TicketLister interface {
	Recent(ctx context.Context, limit int) ([]domain.Ticket, error)
}

// ProductFinder lists products by exact division/category. Nil means no filter.
type ProductFinder interface {
	ProductsByCategory(ctx context.Context, division, category *string, limit int) ([]domain.Product, error)
}

// EvidenceReader reads per-grade records in the requested order.
type EvidenceReader interface {
	RnDByGrade(ctx context.Context, grade string, limit int, order domain.RowOrder) ([]domain.RnDRecord, error)
	TrialsByGrade(ctx context.Context, grade string, limit int, order domain.RowOrder) ([]domain.TrialRecord, error)
	ComplaintsByGrade(ctx context.Context, grade string, limit int, order domain.RowOrder) ([]domain.ComplaintRecord, error)
}
