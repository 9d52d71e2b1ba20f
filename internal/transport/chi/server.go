package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lspl/gradereco/internal/domain"
	healthuc "github.com/lspl/gradereco/internal/usecase/health"
)

const maxBodyBytes = 1 << 20

// Server serves the recommendation API.
type Server struct {
	recommender Recommender
	tickets     TicketService
	tools       ToolService
	health      HealthChecker
	logger      *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	recommender Recommender,
	tickets TicketService,
	tools ToolService,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	return &Server{
		recommender: recommender,
		tickets:     tickets,
		tools:       tools,
		health:      health,
		logger:      logger,
	}
}

// RecommendResponse is the body of a successful POST /api/recommend.
type RecommendResponse struct {
	Grade  string        `json:"LSPL proposed Grade"`
	Reason string        `json:"Reason for proposing the LSPL Grade"`
	Notes  string        `json:"Notes"`
	Debug  RecommendInfo `json:"debug"`
}

// RecommendInfo carries retrieval counts for the response.
type RecommendInfo struct {
	NearestCount   int `json:"nearest_count"`
	CandidateCount int `json:"candidate_count"`
}

// Recommend handles POST /api/recommend.
func (s *Server) Recommend(w http.ResponseWriter, r *http.Request) {
	var req domain.Requirement
	if err := decodeBody(r, &req); err != nil {
		handleDomainError(w, r, err)
		return
	}

	ctx, usage := r.Context(), domain.UsageFromContext(r.Context())
	if usage == nil {
		ctx, usage = domain.NewContextWithUsage(ctx)
	}
	rec, err := s.recommender.Recommend(ctx, req)
	setUsageHeaders(w, usage)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, RecommendResponse{
		Grade:  rec.Grade,
		Reason: rec.Reason,
		Notes:  rec.Notes,
		Debug: RecommendInfo{
			NearestCount:   rec.NearestCount,
			CandidateCount: rec.CandidateCount,
		},
	})
}

// ListTickets handles GET /api/tickets.
func (s *Server) ListTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := s.tickets.Recent(r.Context(), 0)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	writeJSON(w, http.StatusOK, tickets)
}

// CreateTicket handles POST /api/tickets.
func (s *Server) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var t domain.Ticket
	if err := decodeBody(r, &t); err != nil {
		handleDomainError(w, r, err)
		return
	}

	created, err := s.tickets.Create(r.Context(), t)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	s.logger.Info("ticket created",
		zap.Int64("id", created.ID),
		zap.String("ticket_id", domain.Deref(created.TicketID)),
	)
	writeJSON(w, http.StatusCreated, created)
}

// ListTools handles GET /api/tools.
func (s *Server) ListTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.tools.List())
}

// CallTool handles POST /api/tools/{name}. The body is the argument object;
// an empty body means no arguments.
func (s *Server) CallTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !s.hasTool(name) {
		writeError(w, http.StatusNotFound, CodeNotFound, "unknown tool")
		return
	}

	args := map[string]any{}
	if err := decodeBody(r, &args); err != nil && !errors.Is(err, io.EOF) {
		handleDomainError(w, r, err)
		return
	}

	text, err := s.tools.Call(r.Context(), name, args)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, text)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) hasTool(name string) bool {
	for _, t := range s.tools.List() {
		if t.Name == name {
			return true
		}
	}
	return false
}

// decodeBody reads a JSON body into v. Syntax and type errors wrap
// domain.ErrValidation; an empty body is returned as io.EOF.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty request body: %w", domain.ErrValidation, io.EOF)
		}
		return fmt.Errorf("%w: invalid JSON body: %s", domain.ErrValidation, err.Error())
	}
	return nil
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.Usage) {
	if usage == nil {
		return
	}
	if usage.Embedded {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.EmbeddingTokens))
	}
	if usage.PromptTokens > 0 || usage.CompletionTokens > 0 {
		w.Header().Set("X-Prompt-Tokens", strconv.Itoa(usage.PromptTokens))
		w.Header().Set("X-Completion-Tokens", strconv.Itoa(usage.CompletionTokens))
	}
}
