package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/lspl/gradereco/internal/domain"
	"github.com/lspl/gradereco/internal/logger"
)

// Error codes returned in the "code" field of failure bodies.
const (
	CodeValidationFailed       = "validation_failed"
	CodeStoreUnavailable       = "store_unavailable"
	CodeEmbeddingProviderError = "embedding_provider_error"
	CodeLLMProviderError       = "llm_provider_error"
	CodeNotFound               = "not_found"
	CodeUnauthorized           = "unauthorized"
	CodeInternalError          = "internal_error"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

var errorHandlers = []errorHandler{
	// Validation messages name the offending field, so they are passed through.
	func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, domain.ErrValidation) {
			return false
		}
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return true
	},
	sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
	sentinelHandler(domain.ErrStoreFailure, http.StatusServiceUnavailable, CodeStoreUnavailable),
	sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
	sentinelHandler(domain.ErrLLMProviderError, http.StatusBadGateway, CodeLLMProviderError),
}

// maxCauseRunes bounds the underlying cause echoed after a sentinel message.
const maxCauseRunes = 200

// sentinelHandler returns an errorHandler that matches a single sentinel error
// and answers with the sentinel's message plus the short cause wrapped after it.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinelMessage(sentinel, err))
		return true
	}
}

// sentinelMessage renders "<sentinel>: <cause>", where cause is the text the
// error chain carries after the sentinel. Call-site prefixes such as
// "candidates:" are dropped, and a bare sentinel yields just its message.
func sentinelMessage(sentinel, err error) string {
	msg := sentinel.Error()
	_, cause, found := strings.Cut(err.Error(), msg)
	cause = strings.TrimSpace(strings.TrimPrefix(cause, ":"))
	if !found || cause == "" {
		return msg
	}
	if short := domain.Truncate(cause, maxCauseRunes); short != cause {
		cause = short + "..."
	}
	return msg + ": " + cause
}

func handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	for _, h := range errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}
