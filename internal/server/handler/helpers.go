package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tejeshkinariwala/tightentrade/internal/domain"
)

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps domain sentinel errors onto HTTP statuses. Missing
// records are 404, every rejected operation is 400, anything else is logged
// and hidden behind a 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, op string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "bet not found")
	case errors.Is(err, domain.ErrAlreadyTraded):
		writeError(w, http.StatusBadRequest, "bet already traded")
	case errors.Is(err, domain.ErrNoQuote):
		writeError(w, http.StatusBadRequest, "no quote available on that side")
	case errors.Is(err, domain.ErrInvalidQuote):
		writeError(w, http.StatusBadRequest, "quote violates increment or crossing rules")
	case errors.Is(err, domain.ErrInvalidState):
		writeError(w, http.StatusBadRequest, "operation not allowed in current bet state")
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid input")
	default:
		logger.ErrorContext(r.Context(), "handler: "+op+" failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to "+op)
	}
}

// pathParam extracts a named path parameter from the request using Go 1.22+
// built-in routing (http.Request.PathValue).
func pathParam(r *http.Request, name string) string {
	return r.PathValue(name)
}
