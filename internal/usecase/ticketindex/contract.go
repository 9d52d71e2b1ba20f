package ticketindex

import (
	"context"

	"github.com/lspl/gradereco/internal/domain"
)

// TicketSource lists every stored ticket.
type TicketSource interface {
	All(ctx context.Context) ([]domain.Ticket, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
