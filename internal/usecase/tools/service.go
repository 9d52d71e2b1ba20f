// Package tools exposes read-only catalog and ticket queries as named tools
// with JSON schemas, for agents and operators.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lspl/gradereco/internal/domain"
)

// Tool names.
const (
	RecentTickets     = "sql_recent_tickets"
	ProductByCategory = "sql_product_by_category"
	TrialsByGrade     = "sql_trials_by_grade"
	ComplaintsByGrade = "sql_complaints_by_grade"
	RnDByGrade        = "sql_rnd_by_grade"
)

// MaxRows caps every tool result.
const MaxRows = 50

const defaultRecent = 10

// Tool describes a callable query.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// Service dispatches tool calls.
type Service struct {
	tickets  TicketLister
	products ProductFinder
	evidence EvidenceReader
}

// New creates a tool service.
func New(tickets TicketLister, products ProductFinder, evidence EvidenceReader) *Service {
	return &Service{tickets: tickets, products: products, evidence: evidence}
}

// List returns the tool catalog in a stable order.
func (s *Service) List() []Tool {
	gradeSchema := func() map[string]any {
		return map[string]any{
			"type":       "object",
			"properties": map[string]any{"grade": map[string]any{"type": "string"}},
			"required":   []string{"grade"},
		}
	}
	return []Tool{
		{
			Name:        RecentTickets,
			Description: "Return last N tickets",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{"limit": map[string]any{"type": "number", "default": defaultRecent}},
				"required":   []string{},
			},
		},
		{
			Name:        ProductByCategory,
			Description: "List products by division/category",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"division": map[string]any{"type": "string"},
					"category": map[string]any{"type": "string"},
				},
				"required": []string{},
			},
		},
		{Name: TrialsByGrade, Description: "Trials for a given LSPL grade", InputSchema: gradeSchema()},
		{Name: ComplaintsByGrade, Description: "Complaints for a given LSPL grade", InputSchema: gradeSchema()},
		{Name: RnDByGrade, Description: "R&D records for a given LSPL grade", InputSchema: gradeSchema()},
	}
}

// Call runs the named tool and returns its result as indented JSON text.
// An unknown name is not an error: the result is an {"error": "unknown tool"} object.
func (s *Service) Call(ctx context.Context, name string, args map[string]any) (string, error) {
	var (
		out any
		err error
	)
	switch name {
	case RecentTickets:
		out, err = s.recentTickets(ctx, args)
	case ProductByCategory:
		out, err = s.productsByCategory(ctx, args)
	case TrialsByGrade:
		out, err = s.trials(ctx, args)
	case ComplaintsByGrade:
		out, err = s.complaints(ctx, args)
	case RnDByGrade:
		out, err = s.rnd(ctx, args)
	default:
		out = map[string]string{"error": "unknown tool"}
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return encode(out)
}

type productRow struct {
	Grade    string  `json:"lspl_grade"`
	Division *string `json:"division"`
	Category *string `json:"category"`
}

// Evidence rows keep NULL columns as JSON null.
type trialRow struct {
	Customer *string `json:"customer"`
	Outcome  *string `json:"outcome"`
	Notes    *string `json:"notes"`
}

type complaintRow struct {
	Customer *string `json:"customer"`
	Severity *string `json:"severity"`
	Issue    *string `json:"issue"`
}

type rndRow struct {
	Spec        *string `json:"spec"`
	Constraints *string `json:"constraints"`
}

func (s *Service) recentTickets(ctx context.Context, args map[string]any) (any, error) {
	limit, err := intArg(args, "limit", defaultRecent)
	if err != nil {
		return nil, err
	}
	tickets, err := s.tickets.Recent(ctx, min(limit, MaxRows))
	if err != nil {
		return nil, err
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return tickets, nil
}

func (s *Service) productsByCategory(ctx context.Context, args map[string]any) (any, error) {
	division, err := optionalString(args, "division")
	if err != nil {
		return nil, err
	}
	category, err := optionalString(args, "category")
	if err != nil {
		return nil, err
	}

	products, err := s.products.ProductsByCategory(ctx, division, category, MaxRows)
	if err != nil {
		return nil, err
	}
	rows := make([]productRow, len(products))
	for i, p := range products {
		rows[i] = productRow{Grade: p.Grade, Division: p.Division, Category: p.Category}
	}
	return rows, nil
}

func (s *Service) trials(ctx context.Context, args map[string]any) (any, error) {
	grade, err := requiredGrade(args)
	if err != nil {
		return nil, err
	}
	records, err := s.evidence.TrialsByGrade(ctx, grade, MaxRows, domain.StorageOrder)
	if err != nil {
		return nil, err
	}
	rows := make([]trialRow, len(records))
	for i, r := range records {
		rows[i] = trialRow{Customer: r.CustomerName, Outcome: r.Outcome, Notes: r.Notes}
	}
	return rows, nil
}

func (s *Service) complaints(ctx context.Context, args map[string]any) (any, error) {
	grade, err := requiredGrade(args)
	if err != nil {
		return nil, err
	}
	records, err := s.evidence.ComplaintsByGrade(ctx, grade, MaxRows, domain.StorageOrder)
	if err != nil {
		return nil, err
	}
	rows := make([]complaintRow, len(records))
	for i, r := range records {
		rows[i] = complaintRow{Customer: r.CustomerName, Severity: r.Severity, Issue: r.Issue}
	}
	return rows, nil
}

func (s *Service) rnd(ctx context.Context, args map[string]any) (any, error) {
	grade, err := requiredGrade(args)
	if err != nil {
		return nil, err
	}
	records, err := s.evidence.RnDByGrade(ctx, grade, MaxRows, domain.StorageOrder)
	if err != nil {
		return nil, err
	}
	rows := make([]rndRow, len(records))
	for i, r := range records {
		rows[i] = rndRow{Spec: r.SpecSummary, Constraints: r.Constraints}
	}
	return rows, nil
}

func requiredGrade(args map[string]any) (string, error) {
	v, ok := args["grade"]
	if !ok || v == nil {
		return "", fmt.Errorf("%w: grade is required", domain.ErrValidation)
	}
	grade, ok := v.(string)
	if !ok || strings.TrimSpace(grade) == "" {
		return "", fmt.Errorf("%w: grade must be a non-empty string", domain.ErrValidation)
	}
	return grade, nil
}

// optionalString returns nil for a missing, null or empty argument.
func optionalString(args map[string]any, key string) (*string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a string", domain.ErrValidation, key)
	}
	if s == "" {
		return nil, nil
	}
	return &s, nil
}

// intArg accepts JSON numbers, integers and numeric strings.
func intArg(args map[string]any, key string, def int) (int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			break
		}
		return int(n), nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), nil
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s must be a number", domain.ErrValidation, key)
}

func encode(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode tool result: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
