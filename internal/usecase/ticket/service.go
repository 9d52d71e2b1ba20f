package ticket

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/lspl/gradereco/internal/domain"
)

const (
	// DefaultRecent is the page size of the ticket listing.
	DefaultRecent = 10
	// MaxRecent bounds any listing, whatever the caller asks for.
	MaxRecent = 50

	idPrefix = "T-"
)

// Service lists and records tickets. New tickets do not reach the similarity
// index until the process restarts.
type Service struct {
	repo Repository
}

// New creates a ticket service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Recent returns the newest tickets. limit <= 0 selects DefaultRecent; values
// above MaxRecent are clamped.
func (s *Service) Recent(ctx context.Context, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = DefaultRecent
	}
	limit = min(limit, MaxRecent)

	tickets, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recent tickets: %w", err)
	}
	return tickets, nil
}

// Create stores a ticket, assigning a ticket_id when none is given.
func (s *Service) Create(ctx context.Context, t domain.Ticket) (domain.Ticket, error) {
	t.ID = 0

	if t.TicketID == nil || strings.TrimSpace(*t.TicketID) == "" {
		t.TicketID = domain.Str(idPrefix + uuid.NewString())
	} else {
		_, err := s.repo.Get(ctx, *t.TicketID)
		switch {
		case err == nil:
			return domain.Ticket{}, fmt.Errorf("%w: ticket_id %q already exists", domain.ErrValidation, *t.TicketID)
		case !errors.Is(err, domain.ErrNotFound):
			return domain.Ticket{}, fmt.Errorf("check ticket_id: %w", err)
		}
	}

	created, err := s.repo.Create(ctx, t)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("create ticket: %w", err)
	}
	return created, nil
}
