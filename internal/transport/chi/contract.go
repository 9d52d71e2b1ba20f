package chi

import (
	"context"

	"github.com/lspl/gradereco/internal/domain"
	healthuc "github.com/lspl/gradereco/internal/usecase/health"
	toolsuc "github.com/lspl/gradereco/internal/usecase/tools"
)

// Recommender runs the grade recommendation pipeline.
type Recommender interface {
	Recommend(ctx context.Context, req domain.Requirement) (domain.Recommendation, error)
}

// TicketService lists and records tickets.
type TicketService interface {
	Recent(ctx context.Context, limit int) ([]domain.Ticket, error)
	Create(ctx context.Context, t domain.Ticket) (domain.Ticket, error)
}

// ToolService lists and invokes query tools.
type ToolService interface {
	List() []toolsuc.Tool
	Call(ctx context.Context, name string, args map[string]any) (string, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
