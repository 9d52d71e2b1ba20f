package ticket

import (
	"context"

	"github.com/lspl/gradereco/internal/domain"
)

// Repository persists historical tickets.
type Repository interface {
	Recent(ctx context.Context, limit int) ([]domain.Ticket, error)
	Get(ctx context.Context, ticketID string) (domain.Ticket, error)
	Create(ctx context.Context, t domain.Ticket) (domain.Ticket, error)
}
