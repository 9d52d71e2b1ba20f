package ticket

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lspl/gradereco/internal/domain"
)

// querier is the consumer interface for ticket storage (ISP).
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repo persists tickets.
type Repo struct {
	db querier
}

// New creates a ticket repository.
func New(q querier) *Repo {
	return &Repo{db: q}
}

var columns = []string{
	"ticket_id", "timestamp", "email", "required_by", "requirement_type", "division", "category",
	"requirement_details", "priority", "customer_name", "remark", "ticket_type", "target_date",
	"company_name", "tt_assign_to", "tt_assigned_date", "status", "proposed_grade", "proposed_reason",
	"notes", "cc_email", "zone",
}

var selectAll = "SELECT id, " + strings.Join(columns, ", ") + " FROM tickets"

// fields returns pointers to the nullable columns in column order.
func fields(t *domain.Ticket) []any {
	return []any{
		&t.TicketID, &t.Timestamp, &t.Email, &t.RequiredBy, &t.RequirementType, &t.Division, &t.Category,
		&t.RequirementDetails, &t.Priority, &t.CustomerName, &t.Remark, &t.TicketType, &t.TargetDate,
		&t.CompanyName, &t.TTAssignTo, &t.TTAssignedDate, &t.Status, &t.ProposedGrade, &t.ProposedReason,
		&t.Notes, &t.CCEmail, &t.Zone,
	}
}

// Recent returns up to limit tickets, highest id first.
func (r *Repo) Recent(ctx context.Context, limit int) ([]domain.Ticket, error) {
	return r.query(ctx, selectAll+" ORDER BY id DESC LIMIT ?", limit)
}

// All returns every ticket in id order.
func (r *Repo) All(ctx context.Context) ([]domain.Ticket, error) {
	return r.query(ctx, selectAll+" ORDER BY id")
}

// Get returns the ticket with the given business id.
func (r *Repo) Get(ctx context.Context, ticketID string) (domain.Ticket, error) {
	var t domain.Ticket
	dest := append([]any{&t.ID}, fields(&t)...)
	err := r.db.QueryRowContext(ctx, selectAll+" WHERE ticket_id = ?", ticketID).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Ticket{}, fmt.Errorf("ticket %q: %w", ticketID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("%w: get ticket: %w", domain.ErrStoreFailure, err)
	}
	return t, nil
}

// Create inserts t and returns it with the assigned id.
func (r *Repo) Create(ctx context.Context, t domain.Ticket) (domain.Ticket, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	query := "INSERT INTO tickets (" + strings.Join(columns, ", ") + ") VALUES (" + placeholders + ") RETURNING id"

	src := fields(&t)
	args := make([]any, len(src))
	for i, f := range src {
		args[i] = *(f.(**string))
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&t.ID); err != nil {
		return domain.Ticket{}, fmt.Errorf("%w: insert ticket: %w", domain.ErrStoreFailure, err)
	}
	return t, nil
}

func (r *Repo) query(ctx context.Context, query string, args ...any) ([]domain.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query tickets: %w", domain.ErrStoreFailure, err)
	}
	defer rows.Close()

	out := []domain.Ticket{}
	for rows.Next() {
		var t domain.Ticket
		dest := append([]any{&t.ID}, fields(&t)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("%w: scan ticket: %w", domain.ErrStoreFailure, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate tickets: %w", domain.ErrStoreFailure, err)
	}
	return out, nil
}
